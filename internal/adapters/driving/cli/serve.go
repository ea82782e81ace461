package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the integrations API and OAuth callback server",
	Long: `Run the local HTTP server used by the dashboard panel.

The server exposes the integrations API, receives OAuth redirect callbacks
and hosts popup sign-in pages. Configuration file changes to flow timings
are applied without a restart.

Routes:
  GET    /integrations
  GET    /integrations/{provider}
  PUT    /integrations/{provider}/enabled
  PATCH  /integrations/{provider}/settings
  POST   /integrations/{provider}/connect
  POST   /integrations/{provider}/cancel
  POST   /integrations/{provider}/disconnect
  POST   /integrations/{provider}/actions/{action}
  GET    /oauth/callback/{provider}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conns, err := connections(ctx)
	if err != nil {
		return err
	}

	srv, err := startLocalServerWith(httpapi.NewHandler(conns))
	if err != nil {
		return err
	}
	defer srv.Stop() //nolint:errcheck

	runBackground(ctx)
	cmd.Printf("sercha-connect listening on %s\n", srv.URL())

	select {
	case <-ctx.Done():
		cmd.Println("Shutting down")
		return nil
	case err := <-srv.Err():
		return fmt.Errorf("server failed: %w", err)
	}
}
