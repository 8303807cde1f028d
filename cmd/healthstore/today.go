// ABOUTME: CLI command showing every kind recorded on one day.
// ABOUTME: Defaults to the current UTC day.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/spf13/cobra"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show everything recorded today",
	Long: `Show every metric kind with data on one day (UTC).

Examples:
  healthstore today
  healthstore today --date yesterday
  healthstore today --date 2025-03-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(todayDate, time.Now())
		if err != nil {
			return err
		}

		snap, err := eng.Snapshot(cmd.Context(), cfg.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", models.DateKey(date), err)
		}

		shown := 0
		for _, v := range snap.Views {
			if v.Empty() {
				continue
			}
			printView(os.Stdout, v)
			shown++
		}
		if shown == 0 {
			fmt.Printf("Nothing recorded on %s.\n", snap.Date)
		}
		return nil
	},
}

func init() {
	todayCmd.Flags().StringVarP(&todayDate, "date", "d", "", "day to show (YYYY-MM-DD, today, yesterday)")
	rootCmd.AddCommand(todayCmd)
}
