package domain

// OverwritePolicy controls how a propagation rule treats an existing target value.
type OverwritePolicy string

// PolicyFillIfEmpty writes the target field only when it is empty or absent.
const PolicyFillIfEmpty OverwritePolicy = "fill-if-empty"

// PropagationRule copies a field from a connected source provider into a
// dependent provider's settings.
type PropagationRule struct {
	SourceProvider  ProviderID
	SourceField     string
	TargetProvider  ProviderID
	TargetField     string
	OverwritePolicy OverwritePolicy
}

// DefaultPropagationRules is the built-in rule table.
func DefaultPropagationRules() []PropagationRule {
	return []PropagationRule{
		{
			SourceProvider:  ProviderGitHub,
			SourceField:     SettingUsername,
			TargetProvider:  ProviderGitHubProjects,
			TargetField:     SettingOwnerID,
			OverwritePolicy: PolicyFillIfEmpty,
		},
		{
			SourceProvider:  ProviderGitHub,
			SourceField:     SettingDefaultResource,
			TargetProvider:  ProviderGitHubProjects,
			TargetField:     SettingRepository,
			OverwritePolicy: PolicyFillIfEmpty,
		},
	}
}
