package services

import (
	"fmt"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// providerCatalogue is the static provider list in display order.
// Adding a provider is an entry here plus, optionally, an identity fetcher.
var providerCatalogue = []domain.Provider{
	{
		ID:                      domain.ProviderGitHub,
		DisplayName:             "GitHub",
		Category:                domain.CategorySourceControl,
		Capabilities:            domain.CapRedirectOAuth | domain.CapStatusCheck,
		Availability:            domain.AvailabilityAvailable,
		IdentityFields:          []string{domain.SettingUsername, domain.SettingDisplayName, domain.SettingResources, domain.SettingDefaultResource},
		EnabledTiedToConnection: true,
		Scopes:                  []string{"repo", "read:user", "read:project"},
		AuthURL:                 "https://github.com/login/oauth/authorize",
		TokenURL:                "https://github.com/login/oauth/access_token",
	},
	{
		ID:            domain.ProviderGitHubProjects,
		DisplayName:   "GitHub Projects",
		Category:      domain.CategoryProjectManagement,
		Capabilities:  domain.CapActions,
		RequiresSetup: true,
		Availability:  domain.AvailabilityAvailable,
		ConnectedVia:  domain.ProviderGitHub,
		Actions: map[string]domain.ActionSpec{
			"create-board": {
				Name:             "create-board",
				Description:      "Create a project board for the configured owner",
				RequiredSettings: []string{domain.SettingOwnerID, domain.SettingProjectTitle},
			},
		},
	},
	{
		ID:                      domain.ProviderClaude,
		DisplayName:             "Claude",
		Category:                domain.CategoryAIAssistant,
		Capabilities:            domain.CapAPIToken | domain.CapStatusCheck,
		Availability:            domain.AvailabilityAvailable,
		IdentityFields:          []string{domain.SettingDisplayName},
		EnabledTiedToConnection: true,
	},
	{
		ID:                      domain.ProviderSlack,
		DisplayName:             "Slack",
		Category:                domain.CategoryChat,
		Capabilities:            domain.CapPopupOAuth | domain.CapStatusCheck | domain.CapActions,
		Availability:            domain.AvailabilityAvailable,
		IdentityFields:          []string{domain.SettingUsername, domain.SettingDisplayName},
		EnabledTiedToConnection: true,
		Scopes:                  []string{"chat:write", "channels:read", "users:read"},
		AuthURL:                 "https://slack.com/oauth/v2/authorize",
		TokenURL:                "https://slack.com/api/oauth.v2.access",
		PopupWidth:              600,
		PopupHeight:             700,
		Actions: map[string]domain.ActionSpec{
			"post-message": {
				Name:             "post-message",
				Description:      "Post a message to the configured channel",
				RequiredSettings: []string{"channel"},
				RequiredPayload:  []string{"text"},
			},
		},
	},
	{
		ID:             domain.ProviderJira,
		DisplayName:    "Jira",
		Category:       domain.CategoryProjectManagement,
		Capabilities:   domain.CapPopupOAuth | domain.CapStatusCheck | domain.CapActions,
		RequiresSetup:  true,
		Availability:   domain.AvailabilityAvailable,
		IdentityFields: []string{domain.SettingUsername, domain.SettingDisplayName, domain.SettingResources, domain.SettingDefaultResource},
		Scopes:         []string{"read:jira-work", "write:jira-work", "offline_access"},
		AuthURL:        "https://auth.atlassian.com/authorize",
		TokenURL:       "https://auth.atlassian.com/oauth/token",
		PopupWidth:     600,
		PopupHeight:    800,
		Actions: map[string]domain.ActionSpec{
			"create-issue": {
				Name:             "create-issue",
				Description:      "Create an issue in the configured project",
				RequiredSettings: []string{"projectKey"},
				RequiredPayload:  []string{"summary"},
			},
		},
	},
	{
		ID:             domain.ProviderLinear,
		DisplayName:    "Linear",
		Category:       domain.CategoryProjectManagement,
		Capabilities:   domain.CapAPIToken | domain.CapStatusCheck | domain.CapActions,
		RequiresSetup:  true,
		Availability:   domain.AvailabilityAvailable,
		IdentityFields: []string{domain.SettingUsername, domain.SettingDisplayName},
		Actions: map[string]domain.ActionSpec{
			"create-issue": {
				Name:             "create-issue",
				Description:      "Create an issue for the configured team",
				RequiredSettings: []string{"teamId"},
				RequiredPayload:  []string{"title"},
			},
		},
	},
	{
		ID:                      domain.ProviderNotion,
		DisplayName:             "Notion",
		Category:                domain.CategoryProjectManagement,
		Capabilities:            domain.CapPopupOAuth | domain.CapAPIToken | domain.CapStatusCheck,
		Availability:            domain.AvailabilityAvailable,
		IdentityFields:          []string{domain.SettingDisplayName, domain.SettingResources, domain.SettingDefaultResource},
		EnabledTiedToConnection: true,
		AuthURL:                 "https://api.notion.com/v1/oauth/authorize",
		TokenURL:                "https://api.notion.com/v1/oauth/token",
		AuthParams:              map[string]string{"owner": "user"},
		PopupWidth:              600,
		PopupHeight:             750,
	},
	{
		ID:                      domain.ProviderGoogleTasks,
		DisplayName:             "Google Tasks",
		Category:                domain.CategoryProjectManagement,
		Capabilities:            domain.CapRedirectOAuth | domain.CapStatusCheck,
		Availability:            domain.AvailabilityAvailable,
		IdentityFields:          []string{domain.SettingUsername, domain.SettingDisplayName, domain.SettingResources, domain.SettingDefaultResource},
		EnabledTiedToConnection: true,
		Scopes: []string{
			"https://www.googleapis.com/auth/tasks",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		AuthURL:    "https://accounts.google.com/o/oauth2/auth",
		TokenURL:   "https://oauth2.googleapis.com/token",
		AuthParams: map[string]string{"access_type": "offline", "prompt": "consent"},
	},
	{
		ID:           domain.ProviderAsana,
		DisplayName:  "Asana",
		Category:     domain.CategoryProjectManagement,
		Capabilities: domain.CapPopupOAuth,
		Availability: domain.AvailabilityComingSoon,
	},
	{
		ID:           domain.ProviderTrello,
		DisplayName:  "Trello",
		Category:     domain.CategoryProjectManagement,
		Capabilities: domain.CapAPIToken,
		Availability: domain.AvailabilityComingSoon,
	},
}

// ProviderRegistry provides the static provider catalogue.
type ProviderRegistry struct {
	providers []domain.Provider
	byID      map[domain.ProviderID]int
	rules     []domain.PropagationRule
}

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// NewProviderRegistry creates a registry over the built-in catalogue and
// the default propagation rules.
func NewProviderRegistry() *ProviderRegistry {
	r, err := NewProviderRegistryWith(providerCatalogue, domain.DefaultPropagationRules())
	if err != nil {
		// The built-in tables are covered by tests.
		panic(err)
	}
	return r
}

// NewProviderRegistryWith creates a registry over a custom catalogue.
// Rules must reference fields of providers in the catalogue.
func NewProviderRegistryWith(providers []domain.Provider, rules []domain.PropagationRule) (*ProviderRegistry, error) {
	r := &ProviderRegistry{
		providers: make([]domain.Provider, len(providers)),
		byID:      make(map[domain.ProviderID]int, len(providers)),
		rules:     make([]domain.PropagationRule, len(rules)),
	}
	copy(r.providers, providers)
	copy(r.rules, rules)

	for i, p := range r.providers {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: provider %d has no id", domain.ErrInvalidInput, i)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate provider %s", domain.ErrInvalidInput, p.ID)
		}
		r.byID[p.ID] = i
	}
	for _, rule := range r.rules {
		if _, ok := r.byID[rule.SourceProvider]; !ok {
			return nil, fmt.Errorf("%w: rule source %s", domain.ErrUnknownProvider, rule.SourceProvider)
		}
		if _, ok := r.byID[rule.TargetProvider]; !ok {
			return nil, fmt.Errorf("%w: rule target %s", domain.ErrUnknownProvider, rule.TargetProvider)
		}
		if rule.SourceField == "" || rule.TargetField == "" {
			return nil, fmt.Errorf("%w: rule %s -> %s has empty field", domain.ErrInvalidInput,
				rule.SourceProvider, rule.TargetProvider)
		}
		if rule.OverwritePolicy != domain.PolicyFillIfEmpty {
			return nil, fmt.Errorf("%w: unsupported overwrite policy %q", domain.ErrInvalidInput, rule.OverwritePolicy)
		}
	}
	return r, nil
}

// List returns every provider in display order.
func (r *ProviderRegistry) List() []domain.Provider {
	out := make([]domain.Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Get returns a provider by id.
func (r *ProviderRegistry) Get(id domain.ProviderID) (*domain.Provider, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, domain.NewFlowError(domain.KindUnknownProvider, id, "unknown provider", nil)
	}
	p := r.providers[i]
	return &p, nil
}

// Available returns providers that can currently be connected.
func (r *ProviderRegistry) Available() []domain.Provider {
	out := make([]domain.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns every provider id in display order.
func (r *ProviderRegistry) IDs() []domain.ProviderID {
	ids := make([]domain.ProviderID, len(r.providers))
	for i, p := range r.providers {
		ids[i] = p.ID
	}
	return ids
}

// Rules returns the cross-provider propagation rule table.
func (r *ProviderRegistry) Rules() []domain.PropagationRule {
	out := make([]domain.PropagationRule, len(r.rules))
	copy(out, r.rules)
	return out
}
