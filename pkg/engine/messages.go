package engine

import (
	"strings"

	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/tracing"
)

// PendingMessage summarises the pending steps of a scenario.
func PendingMessage(sc *contexts.ScenarioContext) string {
	var b strings.Builder
	b.WriteString("One or more step definitions are not implemented yet.")
	for _, p := range sc.PendingSteps() {
		b.WriteString("\n  " + p)
	}
	return b.String()
}

// UndefinedMessage lists the steps of a scenario without a definition, with
// code to create each one.
func UndefinedMessage(sc *contexts.ScenarioContext, fc *contexts.FeatureContext) string {
	var b strings.Builder
	b.WriteString("No matching step definition found for one or more steps.")
	if fc != nil && fc.Info.Language != "" {
		b.WriteString(" Feature language: " + fc.Info.Language + ".")
	}
	seen := make(map[string]bool)
	for _, step := range sc.MissingSteps() {
		snippet := tracing.Snippet(step)
		if seen[snippet] {
			continue
		}
		seen[snippet] = true
		b.WriteString("\n\n" + snippet)
	}
	return b.String()
}
