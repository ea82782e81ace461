package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"list", "ls"},
	Short:   "List integrations and their connection state",
	Args:    cobra.NoArgs,
	RunE:    runProviders,
}

var statusCmd = &cobra.Command{
	Use:   "status <provider>",
	Short: "Show the state and settings of an integration",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var enableCmd = &cobra.Command{
	Use:   "enable <provider>",
	Short: "Switch an integration on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <provider>",
	Short: "Switch an integration off without disconnecting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args[0], false)
	},
}

var setCmd = &cobra.Command{
	Use:   "set <provider> <key=value>...",
	Short: "Update integration settings",
	Long: `Merge settings into an integration.

Values "true" and "false" are stored as booleans. An empty value blanks the
key. Settings owned by the authorization flows cannot be set.

Examples:
  sercha-connect set github defaultResource=acme/api
  sercha-connect set github-projects ownerId=acme repository=`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Disconnect an integration and revoke its credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisconnect,
}

var actionCmd = &cobra.Command{
	Use:   "action <provider> <action> [key=value]...",
	Short: "Run a provider action",
	Long: `Run a business action exposed by a provider, such as creating a
project board. Extra key=value arguments form the action payload.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAction,
}

func init() {
	providersCmd.Flags().Bool("json", false, "print JSON")
	providersCmd.Flags().Bool("connected", false, "only list connected integrations")
	statusCmd.Flags().Bool("json", false, "print JSON")

	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(actionCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	connectedOnly, _ := cmd.Flags().GetBool("connected")

	views := conns.List()
	if connectedOnly {
		filtered := views[:0:0]
		for _, v := range views {
			if v.State.IsConnected() {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	if asJSON {
		return printJSON(cmd, views)
	}

	if len(views) == 0 {
		cmd.Println("No integrations.")
		return nil
	}

	cmd.Printf("%-16s %-20s %-8s %-14s %s\n", "ID", "NAME", "ENABLED", "STATUS", "ACCOUNT")
	for _, v := range views {
		cmd.Printf("%-16s %-20s %-8s %-14s %s\n",
			v.Provider.ID, v.Provider.DisplayName, yesNo(v.State.Enabled), statusLabel(v), v.State.AccountID())
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	view, err := conns.Get(domain.ProviderID(args[0]))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, view)
	}

	p := view.Provider
	cmd.Printf("%s (%s)\n", p.DisplayName, p.ID)
	cmd.Printf("  Category:     %s\n", p.Category)
	cmd.Printf("  Status:       %s\n", statusLabel(*view))
	cmd.Printf("  Enabled:      %s\n", yesNo(view.State.Enabled))
	cmd.Printf("  Flow:         %s\n", p.Flow())
	cmd.Printf("  Capabilities: %s\n", p.Capabilities)
	if p.ConnectedVia != "" {
		cmd.Printf("  Connected via: %s\n", p.ConnectedVia)
	}

	if len(view.State.Settings) > 0 {
		cmd.Println("  Settings:")
		keys := make([]string, 0, len(view.State.Settings))
		for k := range view.State.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s = %v\n", k, view.State.Settings[k])
		}
	}

	if len(p.Actions) > 0 {
		cmd.Println("  Actions:")
		names := make([]string, 0, len(p.Actions))
		for name := range p.Actions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("    %s  %s\n", name, p.Actions[name].Description)
		}
	}
	return nil
}

func runSetEnabled(cmd *cobra.Command, provider string, enabled bool) error {
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	warnings, err := conns.SetEnabled(cmd.Context(), domain.ProviderID(provider), enabled)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	cmd.Printf("%s %s\n", provider, state)
	printWarnings(cmd, warnings)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	partial, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	warnings, err := conns.UpdateSettings(cmd.Context(), domain.ProviderID(args[0]), domain.Settings(partial))
	if err != nil {
		return err
	}
	cmd.Printf("%s settings updated\n", args[0])
	printWarnings(cmd, warnings)
	return nil
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	result, err := conns.Disconnect(cmd.Context(), domain.ProviderID(args[0]))
	if err != nil {
		return err
	}
	cmd.Printf("%s disconnected\n", args[0])
	printWarnings(cmd, result.Warnings)
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	payload, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}
	conns, err := connections(cmd.Context())
	if err != nil {
		return err
	}
	result, err := conns.InvokeAction(cmd.Context(), domain.ProviderID(args[0]), args[1], payload)
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("%s %s failed: %s", args[0], args[1], result.Message)
	}
	cmd.Printf("%s %s done\n", args[0], args[1])
	if result.Message != "" {
		cmd.Printf("  %s\n", result.Message)
	}
	for _, id := range result.ResourceIDs {
		cmd.Printf("  created %s\n", id)
	}
	return nil
}

// parseAssignments turns key=value arguments into a map. Boolean literals
// become booleans; an empty value becomes an empty string.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch value {
		case "true", "false":
			out[key] = value == "true"
		default:
			out[key] = value
		}
	}
	return out, nil
}

func statusLabel(v driving.ProviderView) string {
	switch {
	case !v.Provider.IsAvailable():
		return "coming soon"
	case v.Phase.IsInFlight():
		return string(v.Phase)
	case v.State.IsConnected():
		return "connected"
	default:
		return "not connected"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
