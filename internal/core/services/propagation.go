package services

import (
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// propagateFrom applies the rules sourced at id. Caller holds mu.
func (s *ConnectionStore) propagateFrom(id domain.ProviderID) []domain.ProviderID {
	var changed []domain.ProviderID
	for _, rule := range s.rules {
		if rule.SourceProvider != id {
			continue
		}
		if s.applyRule(rule) {
			changed = appendUnique(changed, rule.TargetProvider)
		}
	}
	return changed
}

// propagateAll applies every rule whose source is connected. Caller holds mu.
func (s *ConnectionStore) propagateAll() []domain.ProviderID {
	var changed []domain.ProviderID
	for _, rule := range s.rules {
		if s.applyRule(rule) {
			changed = appendUnique(changed, rule.TargetProvider)
		}
	}
	return changed
}

// applyRule fills the target field when it is empty. Propagated values are
// defaults: they carry no local revision, so a later hydration may replace
// them with the stored value. Caller holds mu.
func (s *ConnectionStore) applyRule(rule domain.PropagationRule) bool {
	src, ok := s.entries[rule.SourceProvider]
	if !ok || !src.settings.Bool(domain.SettingConnected) {
		return false
	}
	value, ok := src.settings[rule.SourceField]
	if !ok || domain.IsEmptyValue(value) {
		return false
	}

	target := s.entry(rule.TargetProvider)
	switch rule.OverwritePolicy {
	case domain.PolicyFillIfEmpty, "":
		if !target.settings.IsEmpty(rule.TargetField) {
			return false
		}
	default:
		return false
	}

	target.settings = target.settings.Clone()
	target.settings[rule.TargetField] = cloneSettingValue(value)
	s.dirty[rule.TargetProvider] = true
	logger.Debug("propagated %s.%s -> %s.%s", rule.SourceProvider, rule.SourceField,
		rule.TargetProvider, rule.TargetField)
	return true
}

func cloneSettingValue(v any) any {
	return domain.Settings{"v": v}.Clone()["v"]
}

func appendUnique(ids []domain.ProviderID, id domain.ProviderID) []domain.ProviderID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
