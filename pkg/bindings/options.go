package bindings

// Option configures a binding at registration.
type Option func(*options)

type options struct {
	order      int
	scopes     []Scope
	culture    string
	types      []StepDefinitionType
	name       string
	obsolete   string
	paramNames []string
	defaults   map[int]any
	pattern    string
}

func newOptions(opts []Option) *options {
	o := &options{order: DefaultOrder}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithOrder sets the order of a hook or transformation. Lower runs first.
func WithOrder(order int) Option {
	return func(o *options) { o.order = order }
}

// WithScope adds a scope. A binding with several scopes is registered once
// per scope, all sharing the same method.
func WithScope(s Scope) Option {
	return func(o *options) { o.scopes = append(o.scopes, s) }
}

// WithTags adds one tag scope per tag.
func WithTags(tags ...string) Option {
	return func(o *options) {
		for _, t := range tags {
			o.scopes = append(o.scopes, Scope{Tag: t})
		}
	}
}

// WithCulture restricts a step definition to features in culture.
func WithCulture(culture string) Option {
	return func(o *options) { o.culture = culture }
}

// WithTypes sets the step types a definition applies to.
func WithTypes(types ...StepDefinitionType) Option {
	return func(o *options) { o.types = append(o.types, types...) }
}

// WithName overrides the method name used in traces.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithParamNames names the method parameters in order.
func WithParamNames(names ...string) Option {
	return func(o *options) { o.paramNames = names }
}

// WithDefault makes parameter i optional with value v.
func WithDefault(i int, v any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[int]any)
		}
		o.defaults[i] = v
	}
}

// WithPattern restricts a transformation to values matching pattern.
func WithPattern(pattern string) Option {
	return func(o *options) { o.pattern = pattern }
}

// Obsolete marks a step definition as obsolete; using it is traced as a
// warning.
func Obsolete(message string) Option {
	return func(o *options) {
		if message == "" {
			message = "obsolete"
		}
		o.obsolete = message
	}
}
