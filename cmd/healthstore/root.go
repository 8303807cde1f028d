// ABOUTME: Root Cobra command for healthstore CLI.
// ABOUTME: Loads config and handles store/engine lifecycle via PersistentPre/PostRunE.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/healthstore/internal/config"
	"github.com/harperreed/healthstore/internal/engine"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/spf13/cobra"
)

// skipStore marks commands that never touch the configured store.
const skipStore = "skip-store"

var (
	configPath  string
	backendFlag string
	userFlag    string

	cfg   *config.Config
	store storage.DocumentStore
	eng   *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   "healthstore",
	Short: "Day-bucketed health metric store",
	Long: `Healthstore keeps health measurements in per-day buckets, one per metric kind.

WHAT IT STORES:

  Daily totals     steps, distance, active_calories, total_calories,
                   floors_climbed, elevation_gained, wheelchair_pushes, hydration
  Daily averages   heart_rate, resting_heart_rate, hrv, respiratory_rate,
                   oxygen_saturation, body_temperature
  Samples          sleep_session, exercise_session, nutrition, weight, height,
                   body_fat, blood_pressure, blood_glucose

  Totals and averages keep one running value per day. Samples are stored
  individually and get a record id you can read or delete later.

QUICK START:

  $ healthstore ingest steps 1200                       # Add to today's steps
  $ healthstore ingest weight --value kg=82.5           # Log a weigh-in
  $ healthstore ingest sleep_session \
      --start "2025-03-01 23:10" --end "2025-03-02 07:05"  # Split across days
  $ healthstore today                                   # Everything recorded today
  $ healthstore get weight --date 2025-03-01            # One kind, one day

Intervals that cross midnight (UTC) are split in two, and totals such as
steps or distance are shared out by time spent on each day.

BACKENDS:

  badger (default), sqlite, postgres, redis, charm, memory
  Select with --backend or 'backend:' in ~/.config/healthstore/config.yaml.

MCP INTEGRATION:

  Run 'healthstore mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "healthstore": { "command": "healthstore", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if backendFlag != "" {
			c.Backend = backendFlag
		}
		if userFlag != "" {
			c.UserID = userFlag
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if cmd.Annotations[skipStore] == "true" {
			return nil
		}

		s, err := c.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		store = s
		eng = engine.New(s, engine.Options{Logger: c.NewLogger(os.Stderr)})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
}

func closeStore() error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	eng = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Execute runs the root command, cancelling on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx)
}

// run executes the root command and closes the store even when the command
// failed, since cobra skips PersistentPostRunE after a RunE error.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/healthstore/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: badger, sqlite, postgres, redis, charm, memory")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user id to read and write as")
}
