// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and the today resource.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/healthstore/internal/engine"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// setupServer creates a server over an in-memory store with a fixed clock.
func setupServer(t *testing.T) *Server {
	t.Helper()

	eng := engine.New(storage.NewMemoryStore(), engine.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return testNow },
	})
	server, err := NewServer(eng, "u1")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.now = func() time.Time { return testNow }
	return server
}

func TestNewServer(t *testing.T) {
	server := setupServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.engine == nil {
		t.Error("Expected non-nil engine")
	}
	if server.userID != "u1" {
		t.Errorf("userID = %q, want u1", server.userID)
	}
}

func TestNewServerRejectsBadInput(t *testing.T) {
	if _, err := NewServer(nil, "u1"); err == nil {
		t.Error("Expected error for nil engine")
	}
	eng := engine.New(storage.NewMemoryStore(), engine.Options{})
	if _, err := NewServer(eng, "a/b"); err == nil {
		t.Error("Expected error for invalid user")
	}
}

func TestHandleIngestMetric(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		input         ingestMetricInput
		wantErr       bool
		errSubstr     string
		wantFragments int
	}{
		{
			name:          "weight defaults to now",
			input:         ingestMetricInput{Kind: "weight", Values: map[string]float64{"kg": 82.5}},
			wantFragments: 1,
		},
		{
			name:          "RFC3339 instant",
			input:         ingestMetricInput{Kind: "heart_rate", Time: "2025-03-01T08:00:00Z", Values: map[string]float64{"bpm": 62}},
			wantFragments: 1,
		},
		{
			name:          "simple timestamp",
			input:         ingestMetricInput{Kind: "steps", Time: "2025-03-01 08:00", Values: map[string]float64{"count": 1000}},
			wantFragments: 1,
		},
		{
			name: "interval across midnight",
			input: ingestMetricInput{
				Kind:      "sleep_session",
				StartTime: "2025-03-01T23:00:00Z",
				EndTime:   "2025-03-02T07:00:00Z",
				Fields:    map[string]string{"title": "night"},
				Metadata:  map[string]string{"source": "ring"},
			},
			wantFragments: 2,
		},
		{
			name:      "unknown kind",
			input:     ingestMetricInput{Kind: "mood", Values: map[string]float64{"score": 7}},
			wantErr:   true,
			errSubstr: "unknown metric kind",
		},
		{
			name:      "aggregate missing value",
			input:     ingestMetricInput{Kind: "steps", Values: map[string]float64{"meters": 10}},
			wantErr:   true,
			errSubstr: "invalid record",
		},
		{
			name:      "both timings",
			input:     ingestMetricInput{Kind: "weight", Time: "2025-03-01T08:00:00Z", StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T09:00:00Z"},
			wantErr:   true,
			errSubstr: "invalid record",
		},
		{
			name:      "bad timestamp",
			input:     ingestMetricInput{Kind: "weight", Time: "yesterday"},
			wantErr:   true,
			errSubstr: "invalid time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, tt.input)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("Error %q should contain %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(output.Fragments) != tt.wantFragments {
				t.Fatalf("Fragments = %d, want %d", len(output.Fragments), tt.wantFragments)
			}
			for _, f := range output.Fragments {
				if f.RecordID == "" {
					t.Error("Expected non-empty record id")
				}
				if f.Error != "" {
					t.Errorf("Unexpected fragment error: %s", f.Error)
				}
			}
		})
	}
}

func TestHandleIngestMetricDuplicate(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	input := ingestMetricInput{Kind: "weight", Time: "2025-03-01T07:00:00Z", Values: map[string]float64{"kg": 80}}

	_, first, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, input)
	if err != nil {
		t.Fatal(err)
	}
	_, second, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, input)
	if err != nil {
		t.Fatal(err)
	}

	if !second.Fragments[0].Duplicate {
		t.Error("Expected second ingest to be a duplicate")
	}
	if second.Fragments[0].RecordID != first.Fragments[0].RecordID {
		t.Error("Duplicate should report the existing record id")
	}
	if !strings.HasPrefix(second.Message, "Stored 0 of 1") {
		t.Errorf("Message = %q", second.Message)
	}
}

func TestHandleQueryMetric(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	_, ingested, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, ingestMetricInput{
		Kind:   "blood_pressure",
		Time:   "2025-03-01T08:00:00Z",
		Values: map[string]float64{"systolic": 118, "diastolic": 76},
	})
	if err != nil {
		t.Fatal(err)
	}
	id := ingested.Fragments[0].RecordID

	_, byDate, err := server.handleQueryMetric(ctx, &mcp.CallToolRequest{}, selectorInput{Kind: "blood_pressure", Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("query by date: %v", err)
	}
	if byDate.SampleCount != 1 || len(byDate.Samples) != 1 {
		t.Fatalf("SampleCount = %d, want 1", byDate.SampleCount)
	}
	if byDate.Samples[0].Time != "2025-03-01T08:00:00Z" {
		t.Errorf("Time = %q", byDate.Samples[0].Time)
	}

	_, byID, err := server.handleQueryMetric(ctx, &mcp.CallToolRequest{}, selectorInput{Kind: "blood_pressure", RecordID: id})
	if err != nil {
		t.Fatalf("query by id: %v", err)
	}
	if byID.Samples[0].Values["systolic"] != 118 {
		t.Errorf("systolic = %v, want 118", byID.Samples[0].Values["systolic"])
	}
}

func TestHandleQueryMetricAggregate(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	for _, v := range []float64{1000, 2500} {
		_, _, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, ingestMetricInput{
			Kind: "steps", Time: "2025-03-01T08:00:00Z", Values: map[string]float64{"count": v},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := server.handleQueryMetric(ctx, &mcp.CallToolRequest{}, selectorInput{Kind: "steps", Date: "2025-03-01"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Value == nil || *out.Value != 3500 {
		t.Errorf("Value = %v, want 3500", out.Value)
	}
	if out.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", out.SampleCount)
	}
}

func TestHandleQueryMetricErrors(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     selectorInput
		errSubstr string
	}{
		{"no selector", selectorInput{Kind: "weight"}, "exactly one"},
		{"both selectors", selectorInput{Kind: "weight", Date: "2025-03-01", RecordID: "x"}, "mutually exclusive"},
		{"bad date", selectorInput{Kind: "weight", Date: "03/01/2025"}, "invalid date"},
		{"unknown kind", selectorInput{Kind: "mood", Date: "2025-03-01"}, "unknown metric kind"},
		{"unknown id", selectorInput{Kind: "weight", RecordID: "nope"}, "record not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleQueryMetric(ctx, &mcp.CallToolRequest{}, tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("err = %v, want containing %q", err, tt.errSubstr)
			}
		})
	}
}

func TestHandleDeleteMetric(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	_, ingested, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, ingestMetricInput{
		Kind: "weight", Time: "2025-03-01T07:00:00Z", Values: map[string]float64{"kg": 80},
	})
	if err != nil {
		t.Fatal(err)
	}
	id := ingested.Fragments[0].RecordID

	_, out, err := server.handleDeleteMetric(ctx, &mcp.CallToolRequest{}, selectorInput{Kind: "weight", RecordID: id})
	if err != nil {
		t.Fatalf("delete by id: %v", err)
	}
	if out.DeletedRecordID != id || out.Deleted != 1 || !out.IndexEntryDeleted {
		t.Errorf("unexpected delete output %+v", out)
	}

	_, out, err = server.handleDeleteMetric(ctx, &mcp.CallToolRequest{}, selectorInput{Kind: "weight", Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("delete by date: %v", err)
	}
	if out.Message != "Nothing to delete" {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestHandleDeleteMetricNotFound(t *testing.T) {
	server := setupServer(t)

	_, _, err := server.handleDeleteMetric(context.Background(), &mcp.CallToolRequest{}, selectorInput{Kind: "weight", RecordID: "nope"})
	if err == nil {
		t.Error("Expected error for unknown record")
	}
}

func TestHandleListMetricKinds(t *testing.T) {
	server := setupServer(t)

	_, out, err := server.handleListMetricKinds(context.Background(), &mcp.CallToolRequest{}, listKindsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Kinds) != len(registry.Kinds()) {
		t.Fatalf("Kinds = %d, want %d", len(out.Kinds), len(registry.Kinds()))
	}
	if out.Kinds[0].Kind != "steps" || out.Kinds[0].Combine != "sum" {
		t.Errorf("first kind = %+v", out.Kinds[0])
	}
}

func TestHandleDailySummary(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	for _, in := range []ingestMetricInput{
		{Kind: "steps", Values: map[string]float64{"count": 4200}},
		{Kind: "weight", Values: map[string]float64{"kg": 80}},
		{Kind: "weight", Time: "2025-02-28T08:00:00Z", Values: map[string]float64{"kg": 81}},
	} {
		if _, _, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, in); err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := server.handleDailySummary(ctx, &mcp.CallToolRequest{}, dailySummaryInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Date != "2025-03-01" {
		t.Errorf("Date = %q, want 2025-03-01", out.Date)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}

	_, out, err = server.handleDailySummary(ctx, &mcp.CallToolRequest{}, dailySummaryInput{Date: "2025-02-28"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || out.Metrics[0].Kind != "weight" {
		t.Errorf("unexpected summary %+v", out)
	}

	if _, _, err := server.handleDailySummary(ctx, &mcp.CallToolRequest{}, dailySummaryInput{Date: "soon"}); err == nil {
		t.Error("Expected error for bad date")
	}
}

func TestHandleTodayResource(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	if _, _, err := server.handleIngestMetric(ctx, &mcp.CallToolRequest{}, ingestMetricInput{
		Kind: "hydration", Values: map[string]float64{"volume": 500},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := server.handleTodayResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Contents) == 0 {
		t.Fatal("Expected non-empty contents")
	}
	if result.Contents[0].URI != "health://today" {
		t.Errorf("URI = %s, want health://today", result.Contents[0].URI)
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("MIMEType = %s, want application/json", result.Contents[0].MIMEType)
	}

	var doc struct {
		Date    string `json:"date"`
		Metrics []struct {
			Kind string `json:"kind"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Date != "2025-03-01" {
		t.Errorf("date = %q", doc.Date)
	}
	if len(doc.Metrics) != 1 || doc.Metrics[0].Kind != "hydration" {
		t.Errorf("metrics = %+v", doc.Metrics)
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2025-03-01 08:30")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("parseTime = %v", got)
	}
	if _, err := parseTime("tomorrow"); err == nil {
		t.Error("Expected error for unparseable time")
	}
}
