// ABOUTME: CLI commands for Charm-based sync.
// ABOUTME: Supports status, now, and reset when the charm backend is active.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/config"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/spf13/cobra"
)

var syncResetConfirm bool

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync health data across devices",
	Long: `Sync health data across devices using Charm Cloud.

Only available with the charm backend ('backend: charm' in config or
--backend charm). Data is E2E encrypted with your SSH key before upload,
and writes sync automatically.

COMMANDS:

  status      Show sync status and account info
  now         Pull and push changes immediately
  reset       Reset local data and restore from cloud (destructive)`,
}

// charmStore returns the open store as a CharmStore, or an error explaining
// how to switch backends.
func charmStore() (*storage.CharmStore, error) {
	cs, ok := store.(*storage.CharmStore)
	if !ok {
		return nil, fmt.Errorf("sync needs the charm backend (current: %s); use --backend %s",
			cfg.GetBackend(), config.BackendCharm)
	}
	return cs, nil
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}

		id, err := cs.ID()
		if err != nil {
			color.Yellow("Not linked to Charm")
			fmt.Println("\nRun 'charm link' to connect this device.")
			return nil
		}

		fmt.Println("Charm ID:", id)
		fmt.Println("Server:", cfg.Charm.Host)
		if cs.IsReadOnly() {
			color.Yellow("⚠ Database is read-only (another process holds the lock)")
		}

		docs, err := cs.List(cmd.Context(), storage.UserPrefix(cfg.UserID))
		if err != nil {
			return err
		}
		buckets, index := 0, 0
		for _, d := range docs {
			switch {
			case storage.IsBucketPath(d.Path):
				buckets++
			case storage.IsIndexPath(d.Path):
				index++
			}
		}
		color.Green("✓ Connected to Charm")
		fmt.Printf("  Day buckets:   %d\n", buckets)
		fmt.Printf("  Index entries: %d\n", index)
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Sync immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}
		if err := cs.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.Green("✓ Sync complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local data and restore from cloud",
	Long: `Delete all local data and restore from Charm Cloud.

This is a destructive operation. All local data will be lost and restored from cloud.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}

		if !syncResetConfirm {
			fmt.Println("This will DELETE all local health data and restore from cloud.")
			fmt.Print("Continue? [y/N]: ")
			var confirm string
			_, _ = fmt.Scanln(&confirm)
			if strings.ToLower(confirm) != "y" {
				fmt.Println("Canceled.")
				return nil
			}
		}

		if err := cs.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		color.Green("✓ Local data reset and restored from cloud")
		return nil
	},
}

func init() {
	syncResetCmd.Flags().BoolVarP(&syncResetConfirm, "yes", "y", false, "skip confirmation prompt")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncResetCmd)
	rootCmd.AddCommand(syncCmd)
}
