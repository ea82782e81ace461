package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

var connectCmd = &cobra.Command{
	Use:   "connect <provider>",
	Short: "Connect an integration",
	Long: `Connect an integration using its preferred authorization flow.

Redirect providers open the browser and wait for the callback on the local
server. Popup providers open a sign-in window and wait until it closes.
Token providers prompt for an API token, or read one from stdin with
--token-stdin.

Examples:
  sercha-connect connect github
  sercha-connect connect notion
  echo "$LINEAR_API_KEY" | sercha-connect connect linear --token-stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().Bool("token", false, "connect with an API token even if OAuth is preferred")
	connectCmd.Flags().Bool("token-stdin", false, "read the API token from stdin")
	connectCmd.Flags().Duration("timeout", domain.DefaultPopupTimeout, "how long to wait for authorization")
	rootCmd.AddCommand(connectCmd)
}

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := domain.ProviderID(args[0])

	conns, err := connections(ctx)
	if err != nil {
		return err
	}
	view, err := conns.Get(id)
	if err != nil {
		return err
	}
	p := view.Provider

	withToken, _ := cmd.Flags().GetBool("token")
	fromStdin, _ := cmd.Flags().GetBool("token-stdin")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if withToken || fromStdin || p.Flow() == domain.FlowToken {
		token, err := readToken(cmd, p.DisplayName, fromStdin)
		if err != nil {
			return err
		}
		result, err := conns.Connect(ctx, id, token)
		if err != nil {
			return err
		}
		printConnectResult(cmd, result)
		return nil
	}

	srv, err := startLocalServer()
	if err != nil {
		return err
	}
	defer srv.Stop() //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcomes, unsubscribe := srv.callbacks.Subscribe(id)
	defer unsubscribe()

	if p.Flow() == domain.FlowPopup {
		cmd.Printf("Opening the %s sign-in window...\n", p.DisplayName)
	}
	result, err := conns.Connect(ctx, id, "")
	if err != nil {
		return err
	}

	if result.AuthURL != "" {
		cmd.Printf("Opening browser to authorize %s.\n", p.DisplayName)
		cmd.Printf("If it does not open, visit:\n  %s\n", result.AuthURL)
		cmd.Println("Waiting for authorization...")

		select {
		case out := <-outcomes:
			if out.Err != nil {
				return out.Err
			}
			result = out.Result
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("no authorization received within %s", timeout.Round(time.Second))
			}
			return ctx.Err()
		case err := <-srv.Err():
			return fmt.Errorf("local server failed: %w", err)
		}
	}

	printConnectResult(cmd, result)
	return nil
}

func printConnectResult(cmd *cobra.Command, result *domain.ConnectResult) {
	switch {
	case result == nil:
		return
	case result.Abandoned:
		cmd.Printf("%s: sign-in window closed before authorization completed\n", result.Provider)
	case result.Connected && result.AccountID != "":
		cmd.Printf("%s connected as %s\n", result.Provider, result.AccountID)
	case result.Connected:
		cmd.Printf("%s connected\n", result.Provider)
	default:
		cmd.Printf("%s: %s\n", result.Provider, result.Phase)
	}
	for _, r := range result.Resources {
		cmd.Printf("  resource: %s\n", r)
	}
	printWarnings(cmd, result.Warnings)
}

// readToken reads a secret from stdin. Terminals get a hidden prompt.
func readToken(cmd *cobra.Command, label string, fromStdin bool) (string, error) {
	if f, ok := stdin.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		cmd.Printf("%s API token: ", label)
		raw, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("no token provided")
	}
	return token, nil
}
