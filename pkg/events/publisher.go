package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Listener receives published events. Listeners are called synchronously on
// the publishing goroutine.
type Listener interface {
	OnEvent(ctx context.Context, e Event)
}

// ListenerFunc adapts a func to Listener.
type ListenerFunc func(ctx context.Context, e Event)

func (f ListenerFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

// Publisher delivers events to listeners in subscription order. It is safe
// for concurrent publishers; each publisher sees its own events in order.
type Publisher struct {
	log *zap.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func NewPublisher(log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{log: log}
}

func (p *Publisher) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Publish delivers e to every listener. A panicking listener is logged and
// does not stop delivery to the others.
func (p *Publisher) Publish(ctx context.Context, e Event) {
	p.mu.RLock()
	listeners := p.listeners
	p.mu.RUnlock()

	for _, l := range listeners {
		p.deliver(ctx, l, e)
	}
}

func (p *Publisher) deliver(ctx context.Context, l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("event listener panicked",
				zap.String("event", e.Kind().String()),
				zap.String("listener", fmt.Sprintf("%T", l)),
				zap.Any("panic", r))
		}
	}()
	l.OnEvent(ctx, e)
}
