// Command sercha-connect manages third-party integrations for Sercha.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/backend/httpbackend"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/backend/memory"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/browser"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/oauth"
	statemem "github.com/custodia-labs/sercha-connect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/vault"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-connect/internal/connectors"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/core/services"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	registry := services.NewProviderRegistry()
	settingsService := services.NewSettingsService(configStore, registry)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if opts.Addr != "" {
		settings.Server.Addr = opts.Addr
	}

	session := vault.NewKeyringVault(settings.Backend.URL)

	var backend driven.Backend
	if opts.Local {
		backend = memory.NewBackend()
	} else {
		backend = httpbackend.New(settings.Backend, session)
	}

	var (
		states  driven.OAuthStateStore
		closers []func() error
	)
	switch settings.StateKind {
	case domain.StateStoreSQLite:
		store, err := sqlite.NewStore(filepath.Dir(configStore.Path()))
		if err != nil {
			return nil, fmt.Errorf("state store: %w", err)
		}
		states = store.StateStore()
		closers = append(closers, store.Close)
	default:
		states = statemem.NewStateStore()
	}

	popupBase := settings.Server.PublicURL
	if popupBase == "" {
		popupBase = "http://" + settings.Server.Addr
	}
	popups := browser.NewPopups(popupBase)

	conns := services.NewConnectionService(registry, services.ConnectionPorts{
		Backend:    backend,
		States:     states,
		Exchanger:  oauth.NewExchanger(settings.Providers, backend),
		Identities: connectors.IdentityFetchers(connectors.Endpoints{}),
		Verifiers:  connectors.TokenVerifiers(connectors.Endpoints{}),
		Popups:     popups,
		Navigator:  browser.NewNavigator(),
	}, *settings)

	watchConfig := func(ctx context.Context) error {
		w, err := file.NewWatcher(configStore, func() {
			reloaded, err := settingsService.Get()
			if err != nil {
				logger.Warn("reading reloaded settings: %v", err)
				return
			}
			conns.ApplyFlowSettings(reloaded.Flows)
		})
		if err != nil {
			return err
		}
		return w.Run(ctx)
	}

	purgeStates := func(ctx context.Context) error {
		interval := settings.Flows.StateTTL
		if interval <= 0 {
			interval = domain.DefaultStateTTL
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := states.Purge(ctx); err != nil {
					logger.Warn("purging expired oauth states: %v", err)
				}
			}
		}
	}

	return &cli.Services{
		Connections: conns,
		Registry:    registry,
		Settings:    settingsService,
		Session:     session,
		Popups:      popups.Handler(),
		Background:  []func(ctx context.Context) error{watchConfig, purgeStates},
		Close: func() error {
			var firstErr error
			for _, c := range closers {
				if err := c(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}, nil
}
