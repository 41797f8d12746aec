// Package hooks fires the user hooks and runtime plugin observers attached to
// a lifecycle point.
package hooks

import (
	"context"
	"sync"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/container"
)

// PluginHandler observes a lifecycle point on behalf of a runtime plugin. It
// receives the container of the point's level.
type PluginHandler func(ctx context.Context, c *container.Container)

// PluginEvents holds the runtime plugin observers. Plugins run after the user
// hooks of a point, even when one of those failed.
type PluginEvents struct {
	mu       sync.RWMutex
	handlers map[bindings.HookType][]PluginHandler
}

func NewPluginEvents() *PluginEvents {
	return &PluginEvents{handlers: make(map[bindings.HookType][]PluginHandler)}
}

// On adds a handler for t.
func (p *PluginEvents) On(t bindings.HookType, h PluginHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[t] = append(p.handlers[t], h)
}

// Raise calls the handlers for t in registration order.
func (p *PluginEvents) Raise(ctx context.Context, t bindings.HookType, c *container.Container) {
	p.mu.RLock()
	handlers := p.handlers[t]
	p.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, c)
	}
}
