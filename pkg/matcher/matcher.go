// Package matcher resolves a step to the step definition that executes it.
package matcher

import (
	"fmt"
	"strings"

	"github.com/chriserin/ftrun/pkg/bindings"
)

// AmbiguityReason says why a step matched more than one definition.
type AmbiguityReason int

const (
	AmbiguityNone AmbiguityReason = iota
	// AmbiguousSteps means several equally specific definitions accept the
	// step and its arguments.
	AmbiguousSteps
	// AmbiguousParameters means the definitions could not be told apart by
	// their parameters, or scope and parameters point at different ones.
	AmbiguousParameters
)

func (r AmbiguityReason) String() string {
	switch r {
	case AmbiguousSteps:
		return "AmbiguousSteps"
	case AmbiguousParameters:
		return "AmbiguousParameters"
	default:
		return "None"
	}
}

// Result is the outcome of matching one step.
type Result struct {
	Match  bindings.BindingMatch
	Reason AmbiguityReason
	// Candidates holds every definition whose pattern matched the text,
	// including scoped ones whose scope did not apply.
	Candidates []bindings.BindingMatch
}

// Found reports whether exactly one definition was selected.
func (r Result) Found() bool {
	return r.Match.Success() && r.Reason == AmbiguityNone
}

// Missing reports whether no definition's pattern matched the text.
func (r Result) Missing() bool {
	return !r.Match.Success() && r.Reason == AmbiguityNone
}

// Matcher selects step definitions from a built registry.
type Matcher struct {
	reg       *bindings.Registry
	converter *bindings.Converter
}

func New(reg *bindings.Registry, converter *bindings.Converter) *Matcher {
	if converter == nil {
		converter = bindings.NewConverter(reg)
	}
	return &Matcher{reg: reg, converter: converter}
}

// Match finds the definition for step in culture.
func (m *Matcher) Match(step bindings.StepInstance, culture string) (Result, error) {
	defs, err := m.reg.StepDefinitions(step.Type, culture)
	if err != nil {
		return Result{}, err
	}

	var candidates, applicable []bindings.BindingMatch
	for _, def := range defs {
		groups, ok := def.MatchText(step.Text)
		if !ok {
			continue
		}
		bm := bindings.BindingMatch{
			StepBinding: def,
			Arguments:   arguments(groups, step),
			Step:        step,
		}
		scopeOK := true
		if def.IsScoped() {
			scopeOK, bm.ScopeMatches = def.Scope.Match(step.Scope)
		}
		candidates = append(candidates, bm)
		if scopeOK {
			applicable = append(applicable, bm)
		}
	}

	res := Result{Match: bindings.NonMatching, Candidates: candidates}
	res.Match.Step = step
	if len(applicable) == 0 {
		return res, nil
	}

	applicable = dedupeByMethod(applicable)
	top, rest := splitTopScope(applicable)

	var convertible []bindings.BindingMatch
	for _, bm := range top {
		if m.parametersFit(bm, culture) {
			convertible = append(convertible, bm)
		}
	}

	switch {
	case len(convertible) == 1:
		res.Match = convertible[0]
	case len(convertible) > 1:
		res.Reason = AmbiguousSteps
		res.Candidates = convertible
	default:
		var lower []bindings.BindingMatch
		for _, bm := range rest {
			if m.parametersFit(bm, culture) {
				lower = append(lower, bm)
			}
		}
		switch {
		case len(lower) > 0:
			res.Reason = AmbiguousParameters
			res.Candidates = append(append([]bindings.BindingMatch(nil), top...), lower...)
		case len(top) == 1:
			res.Match = top[0]
		default:
			res.Reason = AmbiguousParameters
			res.Candidates = top
		}
	}
	return res, nil
}

// arguments orders the regex groups, then the multiline text, then the table.
func arguments(groups []string, step bindings.StepInstance) []any {
	args := make([]any, 0, len(groups)+2)
	for _, g := range groups {
		args = append(args, g)
	}
	if step.MultilineText != "" {
		args = append(args, step.MultilineText)
	}
	if step.Table != nil {
		args = append(args, step.Table)
	}
	return args
}

func dedupeByMethod(in []bindings.BindingMatch) []bindings.BindingMatch {
	index := make(map[*bindings.Method]int, len(in))
	out := make([]bindings.BindingMatch, 0, len(in))
	for _, bm := range in {
		if i, ok := index[bm.StepBinding.Method]; ok {
			if bm.ScopeMatches > out[i].ScopeMatches {
				out[i] = bm
			}
			continue
		}
		index[bm.StepBinding.Method] = len(out)
		out = append(out, bm)
	}
	return out
}

func splitTopScope(in []bindings.BindingMatch) (top, rest []bindings.BindingMatch) {
	best := -1
	for _, bm := range in {
		if bm.ScopeMatches > best {
			best = bm.ScopeMatches
		}
	}
	for _, bm := range in {
		if bm.ScopeMatches == best {
			top = append(top, bm)
		} else {
			rest = append(rest, bm)
		}
	}
	return top, rest
}

func (m *Matcher) parametersFit(bm bindings.BindingMatch, culture string) bool {
	params := bm.StepBinding.Method.Params()
	if len(bm.Arguments) > len(params) {
		return false
	}
	for i, p := range params {
		if i >= len(bm.Arguments) {
			if !p.Optional {
				return false
			}
			continue
		}
		if !m.converter.CanConvert(bm.Arguments[i], p.Type, culture) {
			return false
		}
	}
	return true
}

// DescribeCandidates lists candidate methods for an ambiguity message.
func DescribeCandidates(candidates []bindings.BindingMatch) string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.StepBinding.Method.String()
		if c.StepBinding.IsScoped() {
			names[i] += fmt.Sprintf(" [%s]", c.StepBinding.Scope)
		}
	}
	return strings.Join(names, ", ")
}
