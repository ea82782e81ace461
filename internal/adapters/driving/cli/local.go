package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/oauth"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// popupPrefix is where the popup landing pages are mounted.
const popupPrefix = "/oauth/popup/"

// localServer is the loopback server that receives authorization callbacks
// and hosts popup landing pages.
type localServer struct {
	*oauth.Server
	callbacks *oauth.CallbackHandler
}

// startLocalServer listens on the configured address. Redirect URIs are
// built from the same address, so the port must not change.
func startLocalServer() (*localServer, error) {
	return startLocalServerWith(nil)
}

// startLocalServerWith also mounts api at the root.
func startLocalServerWith(api http.Handler) (*localServer, error) {
	if svc == nil || svc.Connections == nil {
		return nil, errors.New("connection service not configured")
	}
	settings, err := settingsService()
	if err != nil {
		return nil, err
	}
	cfg, err := settings.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	srv := oauth.NewServer(cfg.Server.Addr)
	callbacks := oauth.NewCallbackHandler(svc.Connections)
	srv.Handle(oauth.CallbackPrefix, callbacks)
	if svc.Popups != nil {
		srv.Handle(popupPrefix, svc.Popups)
	}
	if api != nil {
		srv.Handle("/", api)
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}
	logger.Debug("local server listening on %s", srv.URL())
	return &localServer{Server: srv, callbacks: callbacks}, nil
}

// runBackground starts the long-running service tasks. Failures are logged.
func runBackground(ctx context.Context) {
	if svc == nil {
		return
	}
	for _, task := range svc.Background {
		go func(task func(context.Context) error) {
			if err := task(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("background task stopped: %v", err)
			}
		}(task)
	}
}
