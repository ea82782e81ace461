package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the backend, session and OAuth application settings.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend <url>",
	Short: "Set the persistence backend URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := settingsService()
		if err != nil {
			return err
		}
		if err := settings.SetBackendURL(args[0]); err != nil {
			return fmt.Errorf("failed to set backend URL: %w", err)
		}
		cmd.Printf("Backend URL set to: %s\n", args[0])
		return nil
	},
}

var settingsUserCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Set the session user bound to popup authorizations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := settingsService()
		if err != nil {
			return err
		}
		if err := settings.SetUserID(args[0]); err != nil {
			return fmt.Errorf("failed to set user: %w", err)
		}
		cmd.Printf("Session user set to: %s\n", args[0])
		return nil
	},
}

var settingsAppCmd = &cobra.Command{
	Use:   "app <provider>",
	Short: "Configure the OAuth application of a provider",
	Long: `Configure the OAuth client of a provider.

Leave the client secret empty to let the backend perform the code exchange.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsApp,
}

func init() {
	settingsAppCmd.Flags().String("client-id", "", "OAuth client ID (prompted when omitted)")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsUserCmd)
	settingsCmd.AddCommand(settingsAppCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	service, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := service.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Backend]")
	cmd.Printf("  URL: %s\n", settings.Backend.URL)
	cmd.Printf("  Timeout: %s\n", settings.Backend.Timeout)
	cmd.Printf("  Rate limit: %g req/s\n", settings.Backend.RateLimit)
	cmd.Println()

	cmd.Println("[Session]")
	if settings.Session.UserID != "" {
		cmd.Printf("  User: %s\n", settings.Session.UserID)
	} else {
		cmd.Println("  User: (not set)")
	}
	cmd.Println()

	cmd.Println("[Flows]")
	cmd.Printf("  Popup poll interval: %s\n", settings.Flows.PopupPollInterval)
	cmd.Printf("  Popup timeout: %s\n", settings.Flows.PopupTimeout)
	cmd.Printf("  Popup grace period: %s\n", settings.Flows.PopupGracePeriod)
	cmd.Printf("  State TTL: %s\n", settings.Flows.StateTTL)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	if settings.Server.PublicURL != "" {
		cmd.Printf("  Public URL: %s\n", settings.Server.PublicURL)
	}
	cmd.Printf("  State store: %s\n", settings.StateKind)
	cmd.Println()

	if len(settings.Providers) > 0 {
		cmd.Println("[OAuth Apps]")
		ids := make([]string, 0, len(settings.Providers))
		for id := range settings.Providers {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		for _, id := range ids {
			app := settings.Providers[domain.ProviderID(id)]
			secret := "(exchanged by backend)"
			if app.ClientSecret != "" {
				secret = maskAPIKey(app.ClientSecret)
			}
			cmd.Printf("  %s: client %s, secret %s\n", id, app.ClientID, secret)
		}
		cmd.Println()
	}

	if err := service.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	service, err := settingsService()
	if err != nil {
		return err
	}
	current, err := service.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Sercha Connect Settings Wizard")
	cmd.Println("==============================")
	cmd.Println()

	reader := bufio.NewReader(stdin)

	cmd.Println("Step 1: Persistence Backend")
	cmd.Println("---------------------------")
	cmd.Printf("Enter backend URL [%s]: ", current.Backend.URL)
	if url := readLine(reader); url != "" {
		if err := service.SetBackendURL(url); err != nil {
			return fmt.Errorf("failed to set backend URL: %w", err)
		}
	}
	cmd.Println()

	cmd.Println("Step 2: Session User")
	cmd.Println("--------------------")
	cmd.Printf("Enter user ID [%s]: ", current.Session.UserID)
	if user := readLine(reader); user != "" {
		if err := service.SetUserID(user); err != nil {
			return fmt.Errorf("failed to set user: %w", err)
		}
	}
	cmd.Println()

	cmd.Println("Step 3: OAuth Applications")
	cmd.Println("--------------------------")
	oauthProviders := redirectProviders()
	if len(oauthProviders) == 0 {
		cmd.Println("No providers use OAuth redirects.")
	}
	for {
		if len(oauthProviders) == 0 {
			break
		}
		cmd.Println("  0. Done")
		for i, p := range oauthProviders {
			cmd.Printf("  %d. %s\n", i+1, p.DisplayName)
		}
		cmd.Print("\nConfigure which provider? [0]: ")
		idx := parseChoice(readLine(reader), len(oauthProviders), 0)
		if idx == 0 {
			break
		}
		if err := configureApp(cmd, reader, oauthProviders[idx-1].ID, ""); err != nil {
			return err
		}
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := service.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func runSettingsApp(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetString("client-id")
	return configureApp(cmd, bufio.NewReader(stdin), domain.ProviderID(args[0]), clientID)
}

func configureApp(cmd *cobra.Command, reader *bufio.Reader, id domain.ProviderID, clientID string) error {
	service, err := settingsService()
	if err != nil {
		return err
	}

	if clientID == "" {
		cmd.Printf("Enter %s client ID: ", id)
		clientID = readLine(reader)
	}
	if clientID == "" {
		return errors.New("client ID is required")
	}

	cmd.Print("Enter client secret (empty for backend exchange): ")
	secret := readPassword(reader)
	cmd.Println()

	if err := service.SetProviderApp(id, clientID, secret); err != nil {
		return fmt.Errorf("failed to configure %s: %w", id, err)
	}
	cmd.Printf("%s OAuth app configured\n\n", id)
	return nil
}

// redirectProviders lists available providers that need an OAuth app.
func redirectProviders() []domain.Provider {
	if svc == nil || svc.Registry == nil {
		return nil
	}
	var out []domain.Provider
	for _, p := range svc.Registry.Available() {
		if p.Capabilities.SupportsRedirect() {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 0 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to a line.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
