package bindings

import (
	"strings"

	"golang.org/x/text/language"
)

// Scope restricts a binding to a tag, a feature title and/or a scenario
// title. Empty fields are not checked.
type Scope struct {
	Tag      string
	Feature  string
	Scenario string
}

// ScopeTarget is what a scope is evaluated against: the active feature and
// scenario. Scenario fields are empty outside of a scenario.
type ScopeTarget struct {
	FeatureTitle  string
	FeatureTags   []string
	ScenarioTitle string
	ScenarioTags  []string
}

// Tags returns feature and scenario tags combined.
func (t ScopeTarget) Tags() []string {
	tags := make([]string, 0, len(t.FeatureTags)+len(t.ScenarioTags))
	tags = append(tags, t.FeatureTags...)
	return append(tags, t.ScenarioTags...)
}

// Match reports whether every set field of the scope matches the target and
// how many fields matched. More matched fields is a more specific binding.
func (s Scope) Match(t ScopeTarget) (bool, int) {
	matches := 0
	if s.Tag != "" {
		if !hasTag(t.Tags(), s.Tag) {
			return false, 0
		}
		matches++
	}
	if s.Feature != "" {
		if s.Feature != t.FeatureTitle {
			return false, 0
		}
		matches++
	}
	if s.Scenario != "" {
		if s.Scenario != t.ScenarioTitle {
			return false, 0
		}
		matches++
	}
	return true, matches
}

func (s Scope) String() string {
	var parts []string
	if s.Tag != "" {
		parts = append(parts, "@"+NormalizeTag(s.Tag))
	}
	if s.Feature != "" {
		parts = append(parts, "feature="+s.Feature)
	}
	if s.Scenario != "" {
		parts = append(parts, "scenario="+s.Scenario)
	}
	return strings.Join(parts, " ")
}

// NormalizeTag strips the leading @ so "@smoke" and "smoke" compare equal.
func NormalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "@")
}

func hasTag(tags []string, tag string) bool {
	want := NormalizeTag(tag)
	for _, t := range tags {
		if strings.EqualFold(NormalizeTag(t), want) {
			return true
		}
	}
	return false
}

// HasTag reports whether tags contains tag, ignoring a leading @ and case.
func HasTag(tags []string, tag string) bool {
	return hasTag(tags, tag)
}

// cultureMatches reports whether a binding declared for bindingCulture may
// be used for steps in culture. Invariant bindings match everything; a
// neutral culture ("de") matches its specific cultures ("de-AT").
func cultureMatches(bindingCulture, culture string) bool {
	if bindingCulture == "" {
		return true
	}
	bt, err := language.Parse(bindingCulture)
	if err != nil {
		return strings.EqualFold(bindingCulture, culture)
	}
	ct, err := language.Parse(culture)
	if err != nil {
		return false
	}
	if bt.String() == ct.String() {
		return true
	}
	if _, _, region := bt.Raw(); region.String() != "ZZ" {
		return false
	}
	bb, _ := bt.Base()
	cb, _ := ct.Base()
	return bb == cb
}
