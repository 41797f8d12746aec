package bindings

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dlclark/regexp2"
)

// StepDefinitionBinding binds a step text pattern to a method.
type StepDefinitionBinding struct {
	Method *Method
	// Types lists the step types the definition applies to. Empty means any.
	Types   []StepDefinitionType
	Pattern string
	// Culture restricts the definition to features in that culture. Empty
	// is the invariant culture.
	Culture  string
	Scope    *Scope
	Obsolete string

	regex *regexp2.Regexp
}

func (b *StepDefinitionBinding) IsScoped() bool { return b.Scope != nil }

// Accepts reports whether the definition applies to steps of type t.
func (b *StepDefinitionBinding) Accepts(t StepDefinitionType) bool {
	if len(b.Types) == 0 {
		return true
	}
	for _, bt := range b.Types {
		if bt == t {
			return true
		}
	}
	return false
}

// MatchText matches the compiled pattern against the full step text and
// returns the captured groups. It reports false when the text does not match
// or the registry was not built.
func (b *StepDefinitionBinding) MatchText(text string) ([]string, bool) {
	if b.regex == nil {
		return nil, false
	}
	m, err := b.regex.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, false
	}
	groups := m.Groups()
	args := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		args = append(args, g.String())
	}
	return args, true
}

func (b *StepDefinitionBinding) String() string {
	types := make([]string, len(b.Types))
	for i, t := range b.Types {
		types[i] = t.String()
	}
	kind := strings.Join(types, "/")
	if kind == "" {
		kind = "Step"
	}
	return fmt.Sprintf("[%s(%q)] %s", kind, b.Pattern, b.Method)
}

// HookBinding attaches a method to a lifecycle point.
type HookBinding struct {
	Method *Method
	Type   HookType
	Order  int
	Scope  *Scope

	seq int
}

func (h *HookBinding) IsScoped() bool { return h.Scope != nil }

func (h *HookBinding) String() string {
	return fmt.Sprintf("[%s(Order=%d)] %s", h.Type, h.Order, h.Method.Name())
}

// TransformationBinding converts step arguments to the method's result type.
// With a pattern the transformation only applies to values it matches and
// receives the captured groups; a method taking *Table transforms tables.
type TransformationBinding struct {
	Method  *Method
	Pattern string
	Order   int

	regex *regexp2.Regexp
	seq   int
}

// Target is the type the transformation produces.
func (t *TransformationBinding) Target() reflect.Type {
	return t.Method.Result()
}

func (t *TransformationBinding) takesTable() bool {
	params := t.Method.Params()
	return len(params) == 1 && (params[0].Type == tablePtrType || params[0].Type == tableType)
}

// groups returns the arguments the transformation receives for value.
func (t *TransformationBinding) groups(value string) ([]string, bool) {
	if t.regex == nil {
		return []string{value}, true
	}
	m, err := t.regex.FindStringMatch(value)
	if err != nil || m == nil {
		return nil, false
	}
	groups := m.Groups()
	if len(groups) == 1 {
		return []string{value}, true
	}
	out := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		out = append(out, g.String())
	}
	return out, true
}

// StepInstance is one step as it is executed. It is never mutated.
type StepInstance struct {
	Type          StepDefinitionType
	Keyword       StepKeyword
	KeywordText   string
	Text          string
	MultilineText string
	Table         *Table
	Scope         ScopeTarget
}

func (s StepInstance) String() string {
	kw := strings.TrimSpace(s.KeywordText)
	if kw == "" {
		kw = s.Keyword.String()
	}
	return kw + " " + s.Text
}

// BindingMatch is the result of matching a step against a definition. The
// arguments are positional and not yet converted.
type BindingMatch struct {
	StepBinding  *StepDefinitionBinding
	Arguments    []any
	ScopeMatches int
	Step         StepInstance
}

// NonMatching is the placeholder returned when no definition matched.
var NonMatching = BindingMatch{}

func (m BindingMatch) Success() bool {
	return m.StepBinding != nil
}

// FormatMatch renders a match as a method call with its arguments, used for
// pending step summaries.
func FormatMatch(m BindingMatch, args []any) string {
	if !m.Success() {
		return m.Step.String()
	}
	if args == nil {
		args = m.Arguments
	}
	parts := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case *Table:
			parts[i] = "<table>"
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return fmt.Sprintf("%s(%s)", m.StepBinding.Method.Name(), strings.Join(parts, ", "))
}
