// ABOUTME: MCP tool implementations for health metrics.
// ABOUTME: Ingest, query, and delete records plus kind listing and daily summaries.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/healthstore/internal/engine"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ingest_metric",
		Description: "Record a health measurement. Give either time, or start_time and end_time for intervals that may cross midnight.",
	}, s.handleIngestMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_metric",
		Description: "Read one day of a metric kind, or a single record by id",
	}, s.handleQueryMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_metric",
		Description: "Delete a single record by id, or everything stored for a kind on one day",
	}, s.handleDeleteMetric)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_metric_kinds",
		Description: "List every supported metric kind with its storage strategy and unit",
	}, s.handleListMetricKinds)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "daily_summary",
		Description: "Summarize every metric kind recorded on one day",
	}, s.handleDailySummary)
}

// Tool input/output types

type ingestMetricInput struct {
	Kind      string             `json:"kind" jsonschema:"Metric kind, see list_metric_kinds"`
	Time      string             `json:"time,omitempty" jsonschema:"Instant of the measurement (ISO 8601); defaults to now"`
	StartTime string             `json:"start_time,omitempty" jsonschema:"Interval start (ISO 8601)"`
	EndTime   string             `json:"end_time,omitempty" jsonschema:"Interval end (ISO 8601)"`
	Values    map[string]float64 `json:"values,omitempty" jsonschema:"Numeric values keyed by field name, e.g. {\"count\": 1200}"`
	Fields    map[string]string  `json:"fields,omitempty" jsonschema:"Non-numeric fields, e.g. {\"exercise_type\": \"running\"}"`
	Metadata  map[string]string  `json:"metadata,omitempty" jsonschema:"Opaque metadata such as the source device"`
}

type fragmentOutput struct {
	RecordID     string `json:"record_id"`
	Date         string `json:"date"`
	Duplicate    bool   `json:"duplicate"`
	IndexWritten bool   `json:"index_written"`
	Count        int    `json:"count"`
	Error        string `json:"error,omitempty"`
}

type ingestMetricOutput struct {
	Kind      string           `json:"kind"`
	Fragments []fragmentOutput `json:"fragments"`
	Message   string           `json:"message"`
}

type selectorInput struct {
	Kind     string `json:"kind" jsonschema:"Metric kind"`
	Date     string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD; mutually exclusive with record_id"`
	RecordID string `json:"record_id,omitempty" jsonschema:"Record id returned by ingest_metric; mutually exclusive with date"`
}

type sampleOutput struct {
	ID        string             `json:"id"`
	Time      string             `json:"time,omitempty"`
	StartTime string             `json:"start_time,omitempty"`
	EndTime   string             `json:"end_time,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Fields    map[string]string  `json:"fields,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

type viewOutput struct {
	Kind        string         `json:"kind"`
	Date        string         `json:"date"`
	Strategy    string         `json:"strategy"`
	Value       *float64       `json:"value,omitempty"`
	Unit        string         `json:"unit,omitempty"`
	SampleCount int            `json:"sample_count"`
	Samples     []sampleOutput `json:"samples,omitempty"`
}

type deleteMetricOutput struct {
	DeletedRecordID      string `json:"deleted_record_id,omitempty"`
	Deleted              int    `json:"deleted"`
	IndexEntryDeleted    bool   `json:"index_entry_deleted"`
	RemainingSampleCount int    `json:"remaining_sample_count"`
	Message              string `json:"message"`
}

type listKindsInput struct{}

type kindOutput struct {
	Kind          string   `json:"kind"`
	Strategy      string   `json:"strategy"`
	Combine       string   `json:"combine,omitempty"`
	ValueField    string   `json:"value_field,omitempty"`
	Unit          string   `json:"unit"`
	ProrateFields []string `json:"prorate_fields,omitempty"`
	DedupFields   []string `json:"dedup_fields,omitempty"`
}

type listKindsOutput struct {
	Kinds []kindOutput `json:"kinds"`
}

type dailySummaryInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD; defaults to today (UTC)"`
}

type dailySummaryOutput struct {
	Date    string       `json:"date"`
	Metrics []viewOutput `json:"metrics"`
	Count   int          `json:"count"`
}

// Tool handlers

func (s *Server) handleIngestMetric(ctx context.Context, req *mcp.CallToolRequest, input ingestMetricInput) (*mcp.CallToolResult, ingestMetricOutput, error) {
	kind, err := registry.Parse(input.Kind)
	if err != nil {
		return nil, ingestMetricOutput{}, err
	}

	rec, err := s.buildRecord(input)
	if err != nil {
		return nil, ingestMetricOutput{}, err
	}

	results, err := s.engine.Ingest(ctx, s.userID, kind, rec)
	if len(results) == 0 && err != nil {
		return nil, ingestMetricOutput{}, err
	}

	out := ingestMetricOutput{Kind: string(kind)}
	stored := 0
	for _, r := range results {
		f := fragmentOutput{
			RecordID:     r.RecordID,
			Date:         r.Date,
			Duplicate:    r.Duplicate,
			IndexWritten: r.IndexWritten,
			Count:        r.Count,
		}
		if r.Err != nil {
			f.Error = r.Err.Error()
		} else if !r.Duplicate {
			stored++
		}
		out.Fragments = append(out.Fragments, f)
	}
	out.Message = fmt.Sprintf("Stored %d of %d fragment(s) for %s", stored, len(results), kind)
	if err != nil {
		// Earlier fragments stay written; report the failures alongside them.
		out.Message += fmt.Sprintf("; failed: %v", err)
	}
	return nil, out, nil
}

func (s *Server) buildRecord(input ingestMetricInput) (*models.Record, error) {
	var rec *models.Record
	switch {
	case input.StartTime != "" || input.EndTime != "":
		if input.Time != "" {
			return nil, fmt.Errorf("%w: give either time or start_time/end_time", engine.ErrInvalidRecord)
		}
		start, err := parseTime(input.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", err)
		}
		end, err := parseTime(input.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time: %w", err)
		}
		rec = models.NewInterval(start, end)
	case input.Time != "":
		at, err := parseTime(input.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid time: %w", err)
		}
		rec = models.NewInstant(at)
	default:
		rec = models.NewInstant(s.now())
	}

	for k, v := range input.Values {
		rec.WithValue(k, v)
	}
	for k, v := range input.Fields {
		rec.WithField(k, v)
	}
	for k, v := range input.Metadata {
		rec.WithMetadata(k, v)
	}
	return rec, nil
}

func (s *Server) handleQueryMetric(ctx context.Context, req *mcp.CallToolRequest, input selectorInput) (*mcp.CallToolResult, viewOutput, error) {
	kind, sel, err := parseSelector(input)
	if err != nil {
		return nil, viewOutput{}, err
	}

	view, err := s.engine.Query(ctx, s.userID, kind, sel)
	if err != nil {
		return nil, viewOutput{}, err
	}
	return nil, toViewOutput(view), nil
}

func (s *Server) handleDeleteMetric(ctx context.Context, req *mcp.CallToolRequest, input selectorInput) (*mcp.CallToolResult, deleteMetricOutput, error) {
	kind, sel, err := parseSelector(input)
	if err != nil {
		return nil, deleteMetricOutput{}, err
	}

	res, err := s.engine.Delete(ctx, s.userID, kind, sel)
	if err != nil {
		return nil, deleteMetricOutput{}, err
	}

	out := deleteMetricOutput{
		DeletedRecordID:      res.DeletedRecordID,
		Deleted:              res.Deleted,
		IndexEntryDeleted:    res.IndexEntryDeleted,
		RemainingSampleCount: res.RemainingSampleCount,
	}
	switch {
	case res.Deleted == 0:
		out.Message = "Nothing to delete"
	case sel.RecordID != "":
		out.Message = fmt.Sprintf("Deleted %s %s", kind, res.DeletedRecordID)
	default:
		out.Message = fmt.Sprintf("Deleted %d %s record(s) on %s", res.Deleted, kind, models.DateKey(sel.Date))
	}
	return nil, out, nil
}

func (s *Server) handleListMetricKinds(_ context.Context, _ *mcp.CallToolRequest, _ listKindsInput) (*mcp.CallToolResult, listKindsOutput, error) {
	var out listKindsOutput
	for _, kind := range registry.Kinds() {
		desc, err := s.engine.Describe(kind)
		if err != nil {
			return nil, listKindsOutput{}, err
		}
		out.Kinds = append(out.Kinds, kindOutput{
			Kind:          string(desc.Kind),
			Strategy:      string(desc.Strategy),
			Combine:       string(desc.Combine),
			ValueField:    desc.ValueField,
			Unit:          desc.Unit,
			ProrateFields: desc.ProrateFields,
			DedupFields:   desc.DedupFields,
		})
	}
	return nil, out, nil
}

func (s *Server) handleDailySummary(ctx context.Context, req *mcp.CallToolRequest, input dailySummaryInput) (*mcp.CallToolResult, dailySummaryOutput, error) {
	date := s.now()
	if input.Date != "" {
		d, err := models.ParseDate(input.Date)
		if err != nil {
			return nil, dailySummaryOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
		}
		date = d
	}

	snap, err := s.engine.Snapshot(ctx, s.userID, date)
	if err != nil {
		return nil, dailySummaryOutput{}, err
	}

	out := dailySummaryOutput{Date: snap.Date, Metrics: []viewOutput{}}
	for _, v := range snap.Views {
		if v.Empty() {
			continue
		}
		out.Metrics = append(out.Metrics, toViewOutput(v))
	}
	out.Count = len(out.Metrics)
	return nil, out, nil
}

// Helpers

func parseSelector(input selectorInput) (models.MetricKind, engine.Selector, error) {
	kind, err := registry.Parse(input.Kind)
	if err != nil {
		return "", engine.Selector{}, err
	}
	sel := engine.Selector{RecordID: input.RecordID}
	if input.Date != "" {
		d, err := models.ParseDate(input.Date)
		if err != nil {
			return "", engine.Selector{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
		}
		sel.Date = d
	}
	return kind, sel, nil
}

// parseTime accepts RFC3339 or "2006-01-02 15:04" in UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
}

func toViewOutput(v *models.BucketView) viewOutput {
	out := viewOutput{
		Kind:     string(v.Kind),
		Date:     v.Date,
		Strategy: string(v.Strategy),
	}
	if v.Aggregate != nil {
		value := v.Aggregate.Value
		out.Value = &value
		out.Unit = v.Aggregate.Unit
		out.SampleCount = v.Aggregate.SampleCount
		return out
	}
	out.SampleCount = len(v.Samples)
	for _, smp := range v.Samples {
		out.Samples = append(out.Samples, sampleOutput{
			ID:        smp.ID,
			Time:      formatTime(smp.Time),
			StartTime: formatTime(smp.StartTime),
			EndTime:   formatTime(smp.EndTime),
			Values:    smp.Values,
			Fields:    smp.Fields,
			Metadata:  smp.Metadata,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
