// ABOUTME: CLI command for exporting one day of health data.
// ABOUTME: Supports JSON, YAML, and Markdown via the export package.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportDate   string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export one day of health data",
	Long: `Export every kind recorded on one day.

FORMATS:

  json       Full JSON export
  yaml       YAML export (human-readable)
  markdown   Markdown tables (for notes/sharing)

EXAMPLES:

  healthstore export json                         # Today as JSON
  healthstore export yaml --date yesterday
  healthstore export markdown --date 2025-03-01 -o 2025-03-01.md`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(args[0])
		if err != nil {
			return err
		}
		date, err := parseDate(exportDate, time.Now())
		if err != nil {
			return err
		}

		snap, err := eng.Snapshot(cmd.Context(), cfg.UserID, date)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		data, err := export.Render(snap, format)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
			return nil
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().StringVarP(&exportDate, "date", "d", "", "day to export (YYYY-MM-DD, today, yesterday)")
	rootCmd.AddCommand(exportCmd)
}
