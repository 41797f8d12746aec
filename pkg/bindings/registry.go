package bindings

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// Registry indexes the bindings of a test run. It accepts registrations
// until Build, after which it is read-only and safe for concurrent queries.
type Registry struct {
	mu       sync.Mutex
	built    bool
	valid    bool
	messages []string

	stepDefs   []*StepDefinitionBinding
	hooks      map[HookType][]*HookBinding
	transforms []*TransformationBinding
	aliases    map[string][]StepDefinitionType
	seq        int
}

func NewRegistry() *Registry {
	r := &Registry{
		hooks:   make(map[HookType][]*HookBinding),
		aliases: make(map[string][]StepDefinitionType),
	}
	for _, t := range []StepDefinitionType{StepGiven, StepWhen, StepThen} {
		r.aliases[strings.ToLower(t.String())] = []StepDefinitionType{t}
	}
	return r
}

// Register adds a *StepDefinitionBinding, *HookBinding or
// *TransformationBinding.
func (r *Registry) Register(b any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return ErrRegistryBuilt
	}

	switch b := b.(type) {
	case *StepDefinitionBinding:
		if b.Method == nil {
			return &BindingError{Message: "step definition has no method"}
		}
		r.stepDefs = append(r.stepDefs, b)
	case *HookBinding:
		if b.Method == nil {
			return &BindingError{Message: "hook has no method"}
		}
		b.seq = r.seq
		r.hooks[b.Type] = append(r.hooks[b.Type], b)
	case *TransformationBinding:
		if b.Method == nil {
			return &BindingError{Message: "transformation has no method"}
		}
		if b.Method.Result() == nil {
			return &BindingError{Method: b.Method.Name(), Message: "transformation must return a value"}
		}
		b.seq = r.seq
		r.transforms = append(r.transforms, b)
	default:
		return fmt.Errorf("unsupported binding %T", b)
	}
	r.seq++
	return nil
}

// DefineAlias registers a step kind alias, e.g. a translated keyword or a
// kind covering several step types. Aliases are case-insensitive.
func (r *Registry) DefineAlias(alias string, types ...StepDefinitionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return ErrRegistryBuilt
	}
	if alias == "" {
		return fmt.Errorf("alias name is required")
	}
	r.aliases[strings.ToLower(alias)] = types
	return nil
}

func (r *Registry) Given(pattern string, fn any, opts ...Option) error {
	return r.step([]StepDefinitionType{StepGiven}, pattern, fn, opts)
}

func (r *Registry) When(pattern string, fn any, opts ...Option) error {
	return r.step([]StepDefinitionType{StepWhen}, pattern, fn, opts)
}

func (r *Registry) Then(pattern string, fn any, opts ...Option) error {
	return r.step([]StepDefinitionType{StepThen}, pattern, fn, opts)
}

// Step registers a definition for any step type unless WithTypes narrows it.
func (r *Registry) Step(pattern string, fn any, opts ...Option) error {
	return r.step(nil, pattern, fn, opts)
}

// StepAs registers a definition using a kind alias defined with DefineAlias.
func (r *Registry) StepAs(alias, pattern string, fn any, opts ...Option) error {
	r.mu.Lock()
	types, ok := r.aliases[strings.ToLower(alias)]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown step kind %q", alias)
	}
	return r.step(types, pattern, fn, opts)
}

func (r *Registry) step(types []StepDefinitionType, pattern string, fn any, opts []Option) error {
	o := newOptions(opts)
	m, err := r.method(fn, o)
	if err != nil {
		return err
	}
	types = append(append([]StepDefinitionType(nil), types...), o.types...)

	scopes := scopePointers(o.scopes)
	for _, s := range scopes {
		b := &StepDefinitionBinding{
			Method:   m,
			Types:    types,
			Pattern:  pattern,
			Culture:  o.culture,
			Scope:    s,
			Obsolete: o.obsolete,
		}
		if err := r.Register(b); err != nil {
			return err
		}
	}
	return nil
}

// Hook registers fn for a lifecycle point. Registering the same top-level
// func for the same hook type again, say with another tag, reuses its Method
// so the hook still runs once per lifecycle point.
func (r *Registry) Hook(t HookType, fn any, opts ...Option) error {
	o := newOptions(opts)
	m, err := r.method(fn, o)
	if err != nil {
		return err
	}
	m = r.hookMethod(t, m)
	for _, s := range scopePointers(o.scopes) {
		if err := r.Register(&HookBinding{Method: m, Type: t, Order: o.order, Scope: s}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) hookMethod(t HookType, m *Method) *Method {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hooks[t] {
		if h.Method.sameFunc(m) {
			return h.Method
		}
	}
	return m
}

// Transform registers an argument transformation producing fn's result type.
func (r *Registry) Transform(fn any, opts ...Option) error {
	o := newOptions(opts)
	m, err := r.method(fn, o)
	if err != nil {
		return err
	}
	return r.Register(&TransformationBinding{Method: m, Pattern: o.pattern, Order: o.order})
}

func (r *Registry) method(fn any, o *options) (*Method, error) {
	m, err := NewMethod(o.name, fn)
	if err != nil {
		return nil, err
	}
	m.setParamNames(o.paramNames)
	for i, v := range o.defaults {
		if err := m.setDefault(i, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func scopePointers(scopes []Scope) []*Scope {
	if len(scopes) == 0 {
		return []*Scope{nil}
	}
	out := make([]*Scope, len(scopes))
	for i := range scopes {
		s := scopes[i]
		out[i] = &s
	}
	return out
}

// Build compiles every pattern, validates transformations and freezes the
// registry. Errors are collected rather than returned so one bad binding
// does not hide the others.
func (r *Registry) Build() (bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return r.valid, r.messages
	}

	var messages []string
	for _, b := range r.stepDefs {
		re, err := compilePattern(b.Pattern)
		if err != nil {
			messages = append(messages, fmt.Sprintf("invalid step definition pattern %q on %s: %v", b.Pattern, b.Method.Name(), err))
			continue
		}
		b.regex = re
	}
	for _, t := range r.transforms {
		if t.Pattern == "" {
			continue
		}
		re, err := compilePattern(t.Pattern)
		if err != nil {
			messages = append(messages, fmt.Sprintf("invalid transformation pattern %q on %s: %v", t.Pattern, t.Method.Name(), err))
			continue
		}
		t.regex = re
	}
	messages = append(messages, transformationCollisions(r.transforms)...)

	for _, hooks := range r.hooks {
		sort.SliceStable(hooks, func(i, j int) bool {
			if hooks[i].Order != hooks[j].Order {
				return hooks[i].Order < hooks[j].Order
			}
			return hooks[i].seq < hooks[j].seq
		})
	}
	sort.SliceStable(r.transforms, func(i, j int) bool {
		return r.transforms[i].Order < r.transforms[j].Order
	})

	r.built = true
	r.valid = len(messages) == 0
	r.messages = messages
	return r.valid, messages
}

func compilePattern(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile("^(?:"+pattern+")$", regexp2.None)
}

func transformationCollisions(transforms []*TransformationBinding) []string {
	type key struct {
		target  reflect.Type
		pattern string
		order   int
		table   bool
	}
	seen := make(map[key]*TransformationBinding)
	var messages []string
	for _, t := range transforms {
		k := key{target: t.Target(), pattern: t.Pattern, order: t.Order, table: t.takesTable()}
		if prev, ok := seen[k]; ok {
			messages = append(messages, fmt.Sprintf(
				"ambiguous step argument transformations to %s: %s and %s have the same pattern %q and order %d",
				k.target, prev.Method.Name(), t.Method.Name(), t.Pattern, t.Order))
			continue
		}
		seen[k] = t
	}
	return messages
}

// IsValid reports whether Build succeeded. It is false before Build.
func (r *Registry) IsValid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.built && r.valid
}

func (r *Registry) IsBuilt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.built
}

// ErrorMessages returns the messages collected by Build.
func (r *Registry) ErrorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Hooks returns the hooks for t ordered by order, then registration.
func (r *Registry) Hooks(t HookType) ([]*HookBinding, error) {
	if !r.IsBuilt() {
		return nil, ErrRegistryNotBuilt
	}
	return r.hooks[t], nil
}

// StepDefinitions returns the definitions applying to steps of type t in
// culture.
func (r *Registry) StepDefinitions(t StepDefinitionType, culture string) ([]*StepDefinitionBinding, error) {
	if !r.IsBuilt() {
		return nil, ErrRegistryNotBuilt
	}
	var out []*StepDefinitionBinding
	for _, b := range r.stepDefs {
		if b.regex == nil || !b.Accepts(t) || !cultureMatches(b.Culture, culture) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// AllStepDefinitions returns every registered definition in registration
// order.
func (r *Registry) AllStepDefinitions() ([]*StepDefinitionBinding, error) {
	if !r.IsBuilt() {
		return nil, ErrRegistryNotBuilt
	}
	return r.stepDefs, nil
}

// Transformations returns the transformations ordered by order.
func (r *Registry) Transformations() ([]*TransformationBinding, error) {
	if !r.IsBuilt() {
		return nil, ErrRegistryNotBuilt
	}
	return r.transforms, nil
}
