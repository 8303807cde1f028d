// ABOUTME: MCP resource implementations for health metrics.
// ABOUTME: Provides health://today, the export envelope of the current UTC day.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/healthstore/internal/export"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const todayURI = "health://today"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today's Health Data",
		Description: "Every metric kind recorded today (UTC)",
		MIMEType:    "application/json",
	}, s.handleTodayResource)
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snap, err := s.engine.Snapshot(ctx, s.userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to read today: %w", err)
	}

	data, err := json.MarshalIndent(export.NewEnvelope(snap), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      todayURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
