// ABOUTME: CLI command for ingesting health records.
// ABOUTME: Builds an instant or interval record from flags and reports each stored fragment.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	At     string
	Start  string
	End    string
	Values []string
	Fields []string
	Meta   []string
}

var ingestOpts ingestOptions

var ingestCmd = &cobra.Command{
	Use:     "ingest <kind> [value]",
	Aliases: []string{"add", "a"},
	Short:   "Ingest a health record",
	Long: `Ingest a health record for a metric kind.

For daily totals and averages (steps, heart_rate, ...) the optional [value]
argument fills the kind's value field. Sample kinds take their values with
--value name=number.

Give either --at for an instant (defaults to now) or --start and --end for an
interval. Intervals that cross midnight UTC are stored on both days.

Examples:
  healthstore ingest steps 1200
  healthstore ingest heart_rate 62 --at "2025-03-01 07:00"
  healthstore ingest weight --value kg=82.5
  healthstore ingest blood_pressure --value systolic=120 --value diastolic=80
  healthstore ingest exercise_session --start "2025-03-01 23:30" --end "2025-03-02 00:30" \
      --field exercise_type=running --value distance=8000 --meta source=watch`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := registry.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w\nRun 'healthstore kinds' to see valid kinds", err)
		}
		desc, err := eng.Describe(kind)
		if err != nil {
			return err
		}

		rec, err := ingestOpts.record(desc, args[1:], time.Now())
		if err != nil {
			return err
		}

		results, err := eng.Ingest(cmd.Context(), cfg.UserID, kind, rec)
		faint := color.New(color.Faint)
		for _, r := range results {
			switch {
			case r.Err != nil:
				color.Red("✗ %s %s: %v", kind, r.Date, r.Err)
			case r.Duplicate:
				color.Yellow("= %s already recorded on %s", kind, r.Date)
				fmt.Printf("  %s\n", faint.Sprint(r.RecordID))
			default:
				color.Green("✓ Stored %s on %s", kind, r.Date)
				fmt.Printf("  %s %s\n", faint.Sprint(r.RecordID), faint.Sprintf("(%d in bucket)", r.Count))
				if !desc.IsAggregate() && !r.IndexWritten {
					color.Yellow("  index not written; record is only reachable by date")
				}
			}
		}
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", kind, err)
		}
		return nil
	},
}

// record builds the record described by the flags. extra holds the optional
// positional value for aggregate kinds.
func (o ingestOptions) record(desc registry.Descriptor, extra []string, now time.Time) (*models.Record, error) {
	var rec *models.Record
	switch {
	case o.Start != "" || o.End != "":
		if o.At != "" {
			return nil, fmt.Errorf("use either --at or --start/--end")
		}
		if o.Start == "" || o.End == "" {
			return nil, fmt.Errorf("intervals need both --start and --end")
		}
		start, err := parseTime(o.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid start: %s", o.Start)
		}
		end, err := parseTime(o.End)
		if err != nil {
			return nil, fmt.Errorf("invalid end: %s", o.End)
		}
		rec = models.NewInterval(start, end)
	case o.At != "":
		at, err := parseTime(o.At)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp: %s", o.At)
		}
		rec = models.NewInstant(at)
	default:
		rec = models.NewInstant(now)
	}

	values, err := parseValues(o.Values)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		rec.WithValue(k, v)
	}

	if len(extra) > 0 {
		if !desc.IsAggregate() {
			return nil, fmt.Errorf("%s takes values via --value name=number (fields: %s)",
				desc.Kind, strings.Join(desc.DedupFields, ", "))
		}
		v, err := strconv.ParseFloat(extra[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value: %s", extra[0])
		}
		rec.WithValue(desc.ValueField, v)
	}

	fields, err := parseKV(o.Fields)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		rec.WithField(k, v)
	}

	meta, err := parseKV(o.Meta)
	if err != nil {
		return nil, err
	}
	for k, v := range meta {
		rec.WithMetadata(k, v)
	}
	return rec, nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOpts.At, "at", "", "instant (YYYY-MM-DD HH:MM), defaults to now")
	ingestCmd.Flags().StringVar(&ingestOpts.Start, "start", "", "interval start (YYYY-MM-DD HH:MM)")
	ingestCmd.Flags().StringVar(&ingestOpts.End, "end", "", "interval end (YYYY-MM-DD HH:MM)")
	ingestCmd.Flags().StringArrayVar(&ingestOpts.Values, "value", nil, "numeric value name=number (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestOpts.Fields, "field", nil, "text field name=value (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestOpts.Meta, "meta", nil, "metadata key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}
