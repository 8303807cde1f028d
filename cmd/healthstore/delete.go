// ABOUTME: CLI command for deleting a record or a whole day of a metric kind.
// ABOUTME: Reports how many contributions were removed and whether the index kept up.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/spf13/cobra"
)

var (
	deleteDate string
	deleteID   string
)

var deleteCmd = &cobra.Command{
	Use:     "delete <kind>",
	Aliases: []string{"rm", "del"},
	Short:   "Delete a record or a whole day",
	Long: `Delete a single sample by id, or clear everything stored for a kind on one day.

Daily totals and averages can only be cleared by day.

Examples:
  healthstore delete weight --id 3f2a9c1e-...
  healthstore delete steps --date 2025-03-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := registry.Parse(args[0])
		if err != nil {
			return err
		}
		sel, err := selectorFromFlags(deleteDate, deleteID, time.Now())
		if err != nil {
			return err
		}

		res, err := eng.Delete(cmd.Context(), cfg.UserID, kind, sel)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", kind, err)
		}

		switch {
		case res.Deleted == 0:
			fmt.Println("Nothing to delete.")
		case res.DeletedRecordID != "":
			color.Green("✓ Deleted %s %s", kind, res.DeletedRecordID)
			fmt.Printf("  %d remaining that day\n", res.RemainingSampleCount)
		default:
			color.Green("✓ Deleted %d %s record(s) on %s", res.Deleted, kind, models.DateKey(sel.Date))
		}
		if res.Deleted > 0 && !res.IndexEntryDeleted {
			color.Yellow("  index cleanup failed; stale ids will report not found")
		}
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteDate, "date", "d", "", "day to clear (YYYY-MM-DD, today, yesterday)")
	deleteCmd.Flags().StringVar(&deleteID, "id", "", "record id to delete")
	rootCmd.AddCommand(deleteCmd)
}
