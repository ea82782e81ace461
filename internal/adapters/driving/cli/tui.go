package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive integrations panel",
	Long: `Launch the interactive terminal panel for sercha-connect.

Controls:
  ↑/k, ↓/j - Navigate integrations
  Enter    - Open details / run action
  c        - Connect
  t        - Connect with an API token
  Space    - Enable / disable
  d        - Disconnect
  x        - Cancel a pending popup
  s        - Set a setting (details view)
  r        - Refresh from the backend
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	// Log lines would corrupt the alt screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}

	app, err := tui.NewApp(tui.NewPorts(conns))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	srv, err := startLocalServer()
	if err != nil {
		return err
	}
	defer srv.Stop() //nolint:errcheck
	runBackground(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
