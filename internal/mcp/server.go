// ABOUTME: MCP server setup for the health metric store.
// ABOUTME: Wraps the MCP server around an engine scoped to one user.
package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/healthstore/internal/engine"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with engine access.
type Server struct {
	mcpServer *mcp.Server
	engine    *engine.Engine
	userID    string
	now       func() time.Time
}

// NewServer creates a new MCP server acting on behalf of userID.
func NewServer(eng *engine.Engine, userID string) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if !storage.ValidSegment(userID) {
		return nil, engine.ErrInvalidUser
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "healthstore",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    eng,
		userID:    userID,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
