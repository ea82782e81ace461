package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the backend session token",
	Long: `Store the bearer token used to talk to the persistence backend.

The token is kept in the system keychain, keyed by backend URL.
Pipe it in with --token-stdin for scripts.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the backend session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show whether a backend session token is stored",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().Bool("token-stdin", false, "read the session token from stdin")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func sessionVault() (SessionVault, error) {
	if svc == nil || svc.Session == nil {
		return nil, errors.New("session storage not configured")
	}
	return svc.Session, nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	vault, err := sessionVault()
	if err != nil {
		return err
	}
	fromStdin, _ := cmd.Flags().GetBool("token-stdin")
	token, err := readToken(cmd, "Backend session", fromStdin)
	if err != nil {
		return err
	}
	if err := vault.SetToken(token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	cmd.Println("Session token stored.")
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	vault, err := sessionVault()
	if err != nil {
		return err
	}
	if err := vault.Clear(); err != nil {
		return fmt.Errorf("removing session token: %w", err)
	}
	cmd.Println("Session token removed.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	vault, err := sessionVault()
	if err != nil {
		return err
	}
	token, err := vault.Token()
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("Not logged in.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session token: %w", err)
	}
	cmd.Printf("Logged in (token %s)\n", maskAPIKey(token))
	return nil
}
