package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can list,
connect and configure integrations.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead. The OAuth callback server runs alongside so
redirect flows started by the assistant can complete.

Examples:
  # Stdio mode (default)
  sercha-connect mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-connect mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sercha-connect": {
        "command": "/path/to/sercha-connect",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(&mcp.Ports{Connections: conns})
	if err != nil {
		return err
	}

	callbacks, err := startLocalServer()
	if err != nil {
		logger.Warn("OAuth callbacks unavailable: %v", err)
	} else {
		defer callbacks.Stop() //nolint:errcheck
	}
	runBackground(cmd.Context())

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
