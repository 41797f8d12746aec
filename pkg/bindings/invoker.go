package bindings

import (
	"context"
	"time"
)

// Invoker calls binding methods with converted arguments.
type Invoker interface {
	Invoke(ctx context.Context, m *Method, args []any) (time.Duration, error)
}

// ReflectInvoker calls the wrapped Go func directly.
type ReflectInvoker struct{}

// Invoke calls m and reports how long the call took. A panic in user code is
// returned as *PanicError.
func (ReflectInvoker) Invoke(ctx context.Context, m *Method, args []any) (time.Duration, error) {
	start := time.Now()
	_, err := m.Call(ctx, args)
	return time.Since(start), err
}
