// Package cli provides the sercha-connect command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-connect/internal/core/services"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// version is set at build time.
var version = "dev"

// Auto-port search range used by --auto-port.
const (
	autoPortStart = 8765
	autoPortEnd   = 8799
)

// SessionVault stores the backend session token.
type SessionVault interface {
	Token() (string, error)
	SetToken(token string) error
	Clear() error
}

// Services holds everything the commands drive.
type Services struct {
	Connections driving.ConnectionService
	Registry    driving.ProviderRegistry
	Settings    driving.SettingsService
	Session     SessionVault
	// Popups serves the popup landing pages. May be nil.
	Popups http.Handler
	// Background tasks run for the lifetime of long-running commands.
	Background []func(ctx context.Context) error
	// Close releases resources. May be nil.
	Close func() error
}

// Options are the global flags handed to the bootstrap.
type Options struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string
	// Local keeps connection state in memory instead of the backend.
	Local bool
	// Addr overrides the local server address.
	Addr string
}

// Bootstrap builds the services once flags are parsed.
type Bootstrap func(opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	svc       *Services
	hydrated  bool

	verbose   bool
	configDir string
	localMode bool
	addrFlag  string
	autoPort  bool
)

var rootCmd = &cobra.Command{
	Use:   "sercha-connect",
	Short: "Connect third-party services to Sercha",
	Long: `sercha-connect manages connections between Sercha and third-party
services such as GitHub, Notion and Linear.

It runs the OAuth redirect, popup and API token flows, keeps each
integration's settings in sync with the persistence backend and dispatches
provider actions.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&configDir, "config", "", "configuration directory (default ~/.sercha-connect)")
	flags.BoolVar(&localMode, "local", false, "keep connection state in memory instead of the backend")
	flags.StringVar(&addrFlag, "addr", "", "local server address for OAuth callbacks and the API")
	flags.BoolVar(&autoPort, "auto-port", false, "pick a free local port when the configured one is taken")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices sets the services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	svc = s
	hydrated = false
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer func() {
		if svc != nil && svc.Close != nil {
			if err := svc.Close(); err != nil {
				logger.Warn("closing services: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	opts := Options{ConfigDir: configDir, Local: localMode, Addr: addrFlag}
	if autoPort {
		addr, err := services.FindListenAddr("127.0.0.1", autoPortStart, autoPortEnd)
		if err != nil {
			return err
		}
		opts.Addr = addr
	}

	built, err := bootstrap(opts)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(built)
	return nil
}

// connections returns the orchestrator, loading backend state on first use.
func connections(ctx context.Context) (driving.ConnectionService, error) {
	if svc == nil || svc.Connections == nil {
		return nil, errors.New("connection service not configured")
	}
	if !hydrated {
		if err := svc.Connections.Hydrate(ctx); err != nil {
			return nil, fmt.Errorf("loading connection state: %w", err)
		}
		hydrated = true
	}
	return svc.Connections, nil
}

func settingsService() (driving.SettingsService, error) {
	if svc == nil || svc.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return svc.Settings, nil
}
