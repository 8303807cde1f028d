// ABOUTME: CLI command for copying documents between storage backends.
// ABOUTME: Opens both stores from the loaded config and copies buckets before index entries.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateTo     string
	migratePrefix string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy health data from one backend to another",
	Long: `Copy every document from one storage backend to another.

Both backends are opened with the settings in your config file (data_dir,
postgres.dsn, redis.url, charm.*). Documents that already exist at the same
path in the destination are overwritten.

EXAMPLES:

  healthstore migrate --from sqlite --to badger
  healthstore migrate --from badger --to postgres --prefix users/alice/`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		from := strings.ToLower(migrateFrom)
		to := strings.ToLower(migrateTo)
		if from == "" || to == "" {
			return fmt.Errorf("both --from and --to are required")
		}
		if from == to {
			return fmt.Errorf("source and destination are both %s", from)
		}

		srcCfg := *cfg
		srcCfg.Backend = from
		dstCfg := *cfg
		dstCfg.Backend = to
		if err := srcCfg.Validate(); err != nil {
			return err
		}
		if err := dstCfg.Validate(); err != nil {
			return err
		}

		src, err := srcCfg.OpenStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("open %s: %w", from, err)
		}
		defer func() { _ = src.Close() }()

		dst, err := dstCfg.OpenStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("open %s: %w", to, err)
		}
		defer func() { _ = dst.Close() }()

		// Push to Charm Cloud once at the end instead of after every document.
		cs, toCharm := dst.(*storage.CharmStore)
		if toCharm {
			cs.SetAutoSync(false)
		}

		summary, err := storage.Migrate(cmd.Context(), src, dst, migratePrefix)
		if toCharm && err == nil {
			err = cs.Sync()
		}
		if summary != nil {
			fmt.Printf("  Buckets:       %d\n", summary.Buckets)
			fmt.Printf("  Index entries: %d\n", summary.IndexEntries)
			if summary.Other > 0 {
				fmt.Printf("  Other:         %d\n", summary.Other)
			}
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Copied %d documents from %s to %s", summary.Total(), from, to)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source backend")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend")
	migrateCmd.Flags().StringVar(&migratePrefix, "prefix", "users/", "only copy documents under this path")
	rootCmd.AddCommand(migrateCmd)
}
