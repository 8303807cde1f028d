// ABOUTME: CLI command for reading a day bucket or a single record.
// ABOUTME: Exactly one of --date or --id selects what to read.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/healthstore/internal/engine"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/spf13/cobra"
)

var (
	getDate string
	getID   string
)

var getCmd = &cobra.Command{
	Use:     "get <kind>",
	Aliases: []string{"show"},
	Short:   "Read one day or one record of a metric kind",
	Long: `Read everything stored for a kind on one day, or a single record by id.

Examples:
  healthstore get steps --date today
  healthstore get weight --date 2025-03-01
  healthstore get weight --id 3f2a9c1e-...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := registry.Parse(args[0])
		if err != nil {
			return err
		}
		sel, err := selectorFromFlags(getDate, getID, time.Now())
		if err != nil {
			return err
		}

		view, err := eng.Query(cmd.Context(), cfg.UserID, kind, sel)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", kind, err)
		}
		if view.Empty() {
			fmt.Printf("No %s recorded on %s.\n", kind, view.Date)
			return nil
		}
		printView(os.Stdout, view)
		return nil
	},
}

// selectorFromFlags turns --date/--id into an engine selector. The engine
// rejects missing or conflicting selectors.
func selectorFromFlags(date, id string, now time.Time) (engine.Selector, error) {
	sel := engine.Selector{RecordID: id}
	if date != "" {
		d, err := parseDate(date, now)
		if err != nil {
			return engine.Selector{}, err
		}
		sel.Date = models.DayOf(d)
	}
	return sel, nil
}

func init() {
	getCmd.Flags().StringVarP(&getDate, "date", "d", "", "day to read (YYYY-MM-DD, today, yesterday)")
	getCmd.Flags().StringVar(&getID, "id", "", "record id to read")
	rootCmd.AddCommand(getCmd)
}
