// Package oauth builds provider authorization URLs and exchanges codes for
// tokens with golang.org/x/oauth2.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// DefaultTimeout bounds a token exchange request.
const DefaultTimeout = 30 * time.Second

// Ensure Exchanger implements the interface.
var _ driven.CodeExchanger = (*Exchanger)(nil)

// Exchanger turns provider definitions plus configured OAuth apps into
// authorization URLs and tokens.
//
// When a provider has a client secret configured the code is exchanged
// directly with the provider. Otherwise the exchange is delegated to the
// backend, which holds the secret.
type Exchanger struct {
	apps       map[domain.ProviderID]domain.ProviderSettings
	backend    driven.Backend
	httpClient *http.Client
}

// NewExchanger creates an exchanger. backend may be nil when every
// provider has a client secret.
func NewExchanger(apps map[domain.ProviderID]domain.ProviderSettings, backend driven.Backend) *Exchanger {
	return &Exchanger{
		apps:       apps,
		backend:    backend,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// config merges the provider defaults with the configured app.
func (e *Exchanger) config(p *domain.Provider, redirectURI string) *oauth2.Config {
	app := e.apps[p.ID]
	cfg := &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
	if len(app.Scopes) > 0 {
		cfg.Scopes = app.Scopes
	}
	if app.AuthURL != "" {
		cfg.Endpoint.AuthURL = app.AuthURL
	}
	if app.TokenURL != "" {
		cfg.Endpoint.TokenURL = app.TokenURL
	}
	return cfg
}

// AuthCodeURL returns the authorize URL for an attempt. A non-empty
// codeChallenge adds the S256 PKCE parameters.
func (e *Exchanger) AuthCodeURL(p *domain.Provider, attempt *domain.OAuthAttempt, codeChallenge string) (string, error) {
	cfg := e.config(p, attempt.RedirectURI)
	if cfg.ClientID == "" {
		return "", fmt.Errorf("%w: no client id configured for %s (set providers.%s.client_id)",
			domain.ErrInvalidInput, p.ID, p.ID)
	}
	if cfg.Endpoint.AuthURL == "" {
		return "", fmt.Errorf("%w: no authorization endpoint for %s", domain.ErrInvalidInput, p.ID)
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(p.AuthParams)+2)
	for k, v := range p.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return cfg.AuthCodeURL(attempt.CSRFToken, opts...), nil
}

// Exchange trades an authorization code for a token.
func (e *Exchanger) Exchange(ctx context.Context, p *domain.Provider, req driven.ExchangeRequest) (*domain.OAuthToken, error) {
	cfg := e.config(p, req.RedirectURI)
	if cfg.ClientSecret == "" {
		if e.backend == nil {
			return nil, fmt.Errorf("%w: no client secret for %s and no backend to exchange through",
				domain.ErrInvalidInput, p.ID)
		}
		logger.Debug("%s: exchanging code through backend", p.ID)
		return e.backend.ExchangeCode(ctx, p.ID, req)
	}
	if cfg.Endpoint.TokenURL == "" {
		return nil, fmt.Errorf("%w: no token endpoint for %s", domain.ErrInvalidInput, p.ID)
	}

	var opts []oauth2.AuthCodeOption
	if req.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(req.CodeVerifier))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	tok, err := cfg.Exchange(ctx, req.Code, opts...)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return fromOAuth2(tok), nil
}

func fromOAuth2(tok *oauth2.Token) *domain.OAuthToken {
	out := &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}
