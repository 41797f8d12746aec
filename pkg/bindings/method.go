package bindings

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Parameter describes one argument of a binding method.
type Parameter struct {
	Name     string
	Type     reflect.Type
	Optional bool
	Default  any
}

func (p Parameter) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// Method is the callable behind a binding. The pointer identity of a Method
// identifies the callable: bindings registered from one call share a Method,
// and so do hooks of one type registered again with the same top-level func.
type Method struct {
	name         string
	fn           reflect.Value
	params       []Parameter
	takesContext bool
	result       reflect.Type
	returnsError bool
}

// NewMethod wraps fn, which must be a non-variadic func. An optional leading
// context.Context parameter is supplied by the invoker. The func may return
// nothing, an error, a value, or a value and an error.
func NewMethod(name string, fn any) (*Method, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &BindingError{Method: name, Message: fmt.Sprintf("binding must be a func, got %T", fn)}
	}
	t := v.Type()
	if name == "" {
		name = funcName(v)
	}
	if t.IsVariadic() {
		return nil, &BindingError{Method: name, Message: "variadic funcs cannot be bound"}
	}

	m := &Method{name: name, fn: v}
	start := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		m.takesContext = true
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		m.params = append(m.params, Parameter{Name: fmt.Sprintf("arg%d", i-start), Type: t.In(i)})
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			m.returnsError = true
		} else {
			m.result = t.Out(0)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, &BindingError{Method: name, Message: "second return value must be error"}
		}
		m.result = t.Out(0)
		m.returnsError = true
	default:
		return nil, &BindingError{Method: name, Message: "too many return values"}
	}
	return m, nil
}

func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// sameFunc reports whether m and o wrap the same top-level func under the
// same name. Closures and method values share code between instances, so
// they never compare equal.
func (m *Method) sameFunc(o *Method) bool {
	return m.name == o.name && m.fn.Pointer() == o.fn.Pointer() && isTopLevel(m.fn)
}

func isTopLevel(v reflect.Value) bool {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return false
	}
	name := f.Name()
	if strings.HasSuffix(name, "-fm") {
		return false
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	for _, part := range strings.Split(name, ".") {
		if len(part) > 4 && strings.HasPrefix(part, "func") && part[4] >= '0' && part[4] <= '9' {
			return false
		}
	}
	return true
}

func (m *Method) Name() string { return m.name }

// Params returns the bindable parameters, excluding a leading context.Context.
func (m *Method) Params() []Parameter { return m.params }

// Result is the type of the non-error return value, or nil.
func (m *Method) Result() reflect.Type { return m.result }

func (m *Method) String() string {
	parts := make([]string, len(m.params))
	for i, p := range m.params {
		parts[i] = p.Type.String()
	}
	return fmt.Sprintf("%s(%s)", m.name, strings.Join(parts, ", "))
}

// Call invokes the method with already converted arguments. Missing trailing
// optional arguments take their defaults; nil becomes the zero value. A panic
// in the method is returned as *PanicError.
func (m *Method) Call(ctx context.Context, args []any) (result any, err error) {
	in, err := m.arguments(ctx, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Method: m.name, Value: r, Stack: debug.Stack()}
		}
	}()

	out := m.fn.Call(in)
	if m.returnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	if m.result != nil {
		result = out[0].Interface()
	}
	return result, err
}

func (m *Method) arguments(ctx context.Context, args []any) ([]reflect.Value, error) {
	if len(args) > len(m.params) {
		return nil, &BindingError{
			Method:  m.name,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(m.params), len(args)),
		}
	}

	in := make([]reflect.Value, 0, len(m.params)+1)
	if m.takesContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, p := range m.params {
		var arg any
		switch {
		case i < len(args):
			arg = args[i]
		case p.Optional:
			arg = p.Default
		default:
			return nil, &BindingError{
				Method:  m.name,
				Message: fmt.Sprintf("expected %d arguments, got %d", len(m.params), len(args)),
			}
		}
		if arg == nil {
			in = append(in, reflect.Zero(p.Type))
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(p.Type) {
			return nil, &BindingError{
				Method:  m.name,
				Message: fmt.Sprintf("argument %d: cannot use %s as %s", i, v.Type(), p.Type),
			}
		}
		in = append(in, v)
	}
	return in, nil
}

// setDefault marks parameter i optional with the given default value.
func (m *Method) setDefault(i int, v any) error {
	if i < 0 || i >= len(m.params) {
		return &BindingError{Method: m.name, Message: fmt.Sprintf("no parameter %d to default", i)}
	}
	if v != nil && !reflect.TypeOf(v).AssignableTo(m.params[i].Type) {
		return &BindingError{Method: m.name, Message: fmt.Sprintf("default for parameter %d is %T, want %s", i, v, m.params[i].Type)}
	}
	m.params[i].Optional = true
	m.params[i].Default = v
	return nil
}

// setParamNames renames parameters in order; extra names are ignored.
func (m *Method) setParamNames(names []string) {
	for i := range m.params {
		if i < len(names) && names[i] != "" {
			m.params[i].Name = names[i]
		}
	}
}
