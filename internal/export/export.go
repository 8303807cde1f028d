// ABOUTME: Renders a daily snapshot as JSON, YAML, or Markdown.
// ABOUTME: Empty kinds are left out so exports only carry recorded data.
package export

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Version is the export envelope version.
const Version = "1.0"

// now is swapped in tests.
var now = time.Now

// ParseFormat accepts json, yaml/yml, and markdown/md.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", s)
}

// Envelope is the full export document.
type Envelope struct {
	Version    string               `json:"version" yaml:"version"`
	ExportedAt time.Time            `json:"exported_at" yaml:"exported_at"`
	Tool       string               `json:"tool" yaml:"tool"`
	UserID     string               `json:"user_id" yaml:"user_id"`
	Date       string               `json:"date" yaml:"date"`
	Metrics    []*models.BucketView `json:"metrics" yaml:"metrics"`
}

// NewEnvelope wraps the non-empty views of snap.
func NewEnvelope(snap *models.DaySnapshot) *Envelope {
	env := &Envelope{
		Version:    Version,
		ExportedAt: now().UTC().Truncate(time.Second),
		Tool:       "healthstore",
		UserID:     snap.UserID,
		Date:       snap.Date,
		Metrics:    make([]*models.BucketView, 0, len(snap.Views)),
	}
	for _, v := range snap.Views {
		if v != nil && !v.Empty() {
			env.Metrics = append(env.Metrics, v)
		}
	}
	return env
}

// Render encodes snap in the given format.
func Render(snap *models.DaySnapshot, format Format) ([]byte, error) {
	env := NewEnvelope(snap)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(env, "", "  ")
	case FormatYAML:
		return yaml.Marshal(env)
	case FormatMarkdown:
		return []byte(renderMarkdown(env)), nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

func renderMarkdown(env *Envelope) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Health Export - %s\n\n", env.Date))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", env.ExportedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("User: %s\n\n", env.UserID))

	if len(env.Metrics) == 0 {
		sb.WriteString("No data recorded.\n")
		return sb.String()
	}

	var aggregates, samples []*models.BucketView
	for _, v := range env.Metrics {
		if v.Strategy == models.RunningAggregate {
			aggregates = append(aggregates, v)
		} else {
			samples = append(samples, v)
		}
	}

	if len(aggregates) > 0 {
		sb.WriteString("## Daily totals\n\n")
		sb.WriteString("| Metric | Value | Samples |\n")
		sb.WriteString("|--------|-------|---------|\n")
		for _, v := range aggregates {
			sb.WriteString(fmt.Sprintf("| %s | %.2f %s | %d |\n",
				v.Kind, v.Aggregate.Value, v.Aggregate.Unit, v.Aggregate.SampleCount))
		}
		sb.WriteString("\n")
	}

	for _, v := range samples {
		sb.WriteString(fmt.Sprintf("## %s\n\n", v.Kind))
		sb.WriteString("| Time | Values | Details | ID |\n")
		sb.WriteString("|------|--------|---------|----|\n")
		for _, s := range v.Samples {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				sampleWhen(s), formatValues(s.Values), formatFields(s.Fields), s.ID))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sampleWhen(s models.Sample) string {
	if !s.StartTime.IsZero() {
		return s.StartTime.UTC().Format("15:04") + " - " + s.EndTime.UTC().Format("15:04")
	}
	return s.Time.UTC().Format("15:04")
}

func formatValues(values map[string]float64) string {
	parts := make([]string, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		parts = append(parts, k+"="+strconv.FormatFloat(values[k], 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}

func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, ", ")
}
