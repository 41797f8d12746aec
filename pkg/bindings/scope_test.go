package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_Match(t *testing.T) {
	target := ScopeTarget{
		FeatureTitle:  "Checkout",
		FeatureTags:   []string{"@web"},
		ScenarioTitle: "Pay by card",
		ScenarioTags:  []string{"@slow"},
	}

	tests := []struct {
		name  string
		scope Scope
		ok    bool
		count int
	}{
		{"empty scope", Scope{}, true, 0},
		{"feature tag", Scope{Tag: "web"}, true, 1},
		{"scenario tag with at", Scope{Tag: "@SLOW"}, true, 1},
		{"missing tag", Scope{Tag: "mobile"}, false, 0},
		{"tag and feature", Scope{Tag: "web", Feature: "Checkout"}, true, 2},
		{"all fields", Scope{Tag: "slow", Feature: "Checkout", Scenario: "Pay by card"}, true, 3},
		{"wrong scenario", Scope{Tag: "slow", Scenario: "Pay by cash"}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, count := tt.scope.Match(target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestCultureMatches(t *testing.T) {
	assert.True(t, cultureMatches("", "fr-FR"))
	assert.True(t, cultureMatches("de", "de-DE"))
	assert.True(t, cultureMatches("de-DE", "de-DE"))
	assert.False(t, cultureMatches("de-AT", "de-DE"))
	assert.False(t, cultureMatches("de", "en-US"))
}

func TestStepKeyword(t *testing.T) {
	k, ok := ParseKeyword("*")
	assert.True(t, ok)
	assert.Equal(t, KeywordAnd, k)

	_, ok = KeywordBut.DefinitionType()
	assert.False(t, ok)
	st, ok := KeywordThen.DefinitionType()
	assert.True(t, ok)
	assert.Equal(t, BlockThen, st.Block())
}
