package hooks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/container"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/events"
)

// Dispatcher fires hooks for one worker's context stack.
type Dispatcher struct {
	reg       *bindings.Registry
	contexts  *contexts.Manager
	invoker   bindings.Invoker
	publisher *events.Publisher
	plugins   *PluginEvents
	log       *zap.Logger
}

// NewDispatcher creates a dispatcher. Nil invoker, publisher, plugins and
// logger get working defaults.
func NewDispatcher(reg *bindings.Registry, cm *contexts.Manager, invoker bindings.Invoker,
	publisher *events.Publisher, plugins *PluginEvents, log *zap.Logger,
) *Dispatcher {
	if invoker == nil {
		invoker = bindings.ReflectInvoker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewPublisher(log)
	}
	if plugins == nil {
		plugins = NewPluginEvents()
	}
	return &Dispatcher{
		reg:       reg,
		contexts:  cm,
		invoker:   invoker,
		publisher: publisher,
		plugins:   plugins,
		log:       log,
	}
}

// Fire runs the hooks of t whose scope matches the current feature and
// scenario, each method once, in order. The first failing hook stops the
// remaining user hooks; its error is recorded on the level's context and
// returned after the plugin observers ran.
func (d *Dispatcher) Fire(ctx context.Context, t bindings.HookType) error {
	d.publisher.Publish(ctx, events.NewHookStarted(t))

	hookErr := d.runHooks(ctx, t)
	if hookErr != nil {
		d.recordError(t, hookErr)
	}

	d.plugins.Raise(ctx, t, d.Container(t))
	d.publisher.Publish(ctx, events.NewHookFinished(t, hookErr))
	return hookErr
}

func (d *Dispatcher) runHooks(ctx context.Context, t bindings.HookType) error {
	all, err := d.reg.Hooks(t)
	if err != nil {
		return err
	}

	target := d.contexts.ScopeTarget()
	seen := make(map[*bindings.Method]bool, len(all))
	for _, h := range all {
		if h.IsScoped() {
			if ok, _ := h.Scope.Match(target); !ok {
				continue
			}
		}
		if seen[h.Method] {
			continue
		}
		seen[h.Method] = true

		if err := d.invoke(ctx, h, t); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, h *bindings.HookBinding, t bindings.HookType) error {
	args, err := d.resolveArguments(h, d.Container(t))
	if err != nil {
		return err
	}

	d.publisher.Publish(ctx, events.NewHookBindingStarted(h))
	d.log.Debug("invoking hook", zap.String("hook", h.String()))
	dur, err := d.invoker.Invoke(ctx, h.Method, args)
	d.publisher.Publish(ctx, events.NewHookBindingFinished(h, dur, err))
	return err
}

func (d *Dispatcher) resolveArguments(h *bindings.HookBinding, c *container.Container) ([]any, error) {
	params := h.Method.Params()
	if len(params) == 0 {
		return nil, nil
	}
	args := make([]any, len(params))
	for i, p := range params {
		v, err := c.Resolve(p.Type)
		if err != nil {
			return nil, &bindings.BindingError{
				Method:  h.Method.Name(),
				Message: fmt.Sprintf("cannot resolve parameter %s", p),
				Err:     err,
			}
		}
		args[i] = v
	}
	return args, nil
}

// Container is the container hooks of type t resolve their parameters from.
func (d *Dispatcher) Container(t bindings.HookType) *container.Container {
	switch t.Level() {
	case bindings.LevelTestRun:
		return d.contexts.TestRun().Container()
	case bindings.LevelFeature:
		if f := d.contexts.Feature(); f != nil {
			return f.Container()
		}
	default:
		if t == bindings.BeforeStep || t == bindings.AfterStep {
			if st := d.contexts.Step(); st != nil {
				return st.Container()
			}
		}
		if s := d.contexts.Scenario(); s != nil {
			return s.Container()
		}
	}
	return d.contexts.Container()
}

func (d *Dispatcher) recordError(t bindings.HookType, err error) {
	switch t.Level() {
	case bindings.LevelTestRun:
		d.contexts.TestRun().RecordError(err)
	case bindings.LevelFeature:
		if f := d.contexts.Feature(); f != nil {
			f.RecordError(err)
		}
	default:
		if s := d.contexts.Scenario(); s != nil {
			s.RecordError(err)
			s.Escalate(contexts.TestError)
		}
	}
}
