// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs the stdio MCP server against the configured store and user.
package main

import (
	"github.com/harperreed/healthstore/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and acts as the configured user.

CONFIGURATION:

  {
    "mcpServers": {
      "healthstore": {
        "command": "healthstore",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  ingest_metric       Store a health record (split across days as needed)
  query_metric        Read a day bucket or a single record
  delete_metric       Delete a record or clear a day
  list_metric_kinds   List kinds with storage strategy and unit
  daily_summary       Every kind recorded on one day

AVAILABLE RESOURCES:

  health://today      Today's export envelope (JSON)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(eng, cfg.UserID)
		if err != nil {
			return err
		}
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
