// ABOUTME: Shared CLI helpers for parsing flags and printing bucket views.
// ABOUTME: Time/date parsing, key=value pairs, and column padding.
package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/models"
)

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

// parseDate resolves "today", "yesterday", or any parseTime format to a day.
func parseDate(s string, now time.Time) (time.Time, error) {
	switch strings.ToLower(s) {
	case "", "today":
		return models.DayOf(now), nil
	case "yesterday":
		return models.DayOf(now).AddDate(0, 0, -1), nil
	}
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s", s)
	}
	return t, nil
}

// parseKV splits key=value pairs.
func parseKV(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func parseValues(pairs []string) (map[string]float64, error) {
	kv, err := parseKV(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(kv))
	for k, v := range kv {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %s", k, v)
		}
		out[k] = f
	}
	return out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func joinValues(values map[string]float64) string {
	parts := make([]string, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		parts = append(parts, k+"="+strconv.FormatFloat(values[k], 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func joinFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, " ")
}

func sampleTime(s models.Sample) string {
	if !s.StartTime.IsZero() {
		return s.StartTime.UTC().Format("15:04") + "-" + s.EndTime.UTC().Format("15:04")
	}
	return s.Time.UTC().Format("15:04")
}

// printView writes one line for an aggregate, or one line per sample.
func printView(w io.Writer, v *models.BucketView) {
	faint := color.New(color.Faint)

	if v.Aggregate != nil {
		fmt.Fprintf(w, "%s %s %.2f %s %s\n",
			faint.Sprint(v.Date),
			padRight(string(v.Kind), 20),
			v.Aggregate.Value,
			v.Aggregate.Unit,
			faint.Sprintf("(%d samples)", v.Aggregate.SampleCount))
		return
	}

	for _, s := range v.Samples {
		details := joinFields(s.Fields)
		if details != "" {
			details = faint.Sprintf(" (%s)", truncate(details, 40))
		}
		fmt.Fprintf(w, "%s %s %s %s%s\n",
			faint.Sprint(s.ID),
			faint.Sprint(v.Date+" "+sampleTime(s)),
			padRight(string(v.Kind), 20),
			joinValues(s.Values),
			details)
	}
}
