// Package engine drives the lifecycle of a run on one worker: features,
// scenarios and steps, with their hooks and status bookkeeping.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/events"
	"github.com/chriserin/ftrun/pkg/hooks"
	"github.com/chriserin/ftrun/pkg/matcher"
	"github.com/chriserin/ftrun/pkg/tracing"
)

// Options are the collaborators of an Engine. Registry is required; nil
// fields get working defaults.
type Options struct {
	Config    Config
	Registry  *bindings.Registry
	Contexts  *contexts.Manager
	Converter *bindings.Converter
	Matcher   *matcher.Matcher
	Invoker   bindings.Invoker
	Publisher *events.Publisher
	Plugins   *hooks.PluginEvents
	Tracer    tracing.Tracer
	Analytics AnalyticsTransmitter
	Logger    *zap.Logger
}

// Engine executes the lifecycle of one worker. Its methods must be called
// from one goroutine at a time, except OnTestRunStart and OnTestRunEnd.
type Engine struct {
	cfg       Config
	reg       *bindings.Registry
	cm        *contexts.Manager
	converter *bindings.Converter
	matcher   *matcher.Matcher
	invoker   bindings.Invoker
	publisher *events.Publisher
	hooks     *hooks.Dispatcher
	tracer    tracing.Tracer
	analytics AnalyticsTransmitter
	log       *zap.Logger

	runStarted atomic.Bool
	endMu      sync.Mutex
	runEnded   bool
	analyticWG sync.WaitGroup
}

func New(o Options) *Engine {
	e := &Engine{
		cfg:       o.Config,
		reg:       o.Registry,
		cm:        o.Contexts,
		converter: o.Converter,
		matcher:   o.Matcher,
		invoker:   o.Invoker,
		publisher: o.Publisher,
		tracer:    o.Tracer,
		analytics: o.Analytics,
		log:       o.Logger,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.cm == nil {
		e.cm = contexts.NewManager(nil)
	}
	if e.converter == nil {
		e.converter = bindings.NewConverter(e.reg)
	}
	if e.matcher == nil {
		e.matcher = matcher.New(e.reg, e.converter)
	}
	if e.invoker == nil {
		e.invoker = bindings.ReflectInvoker{}
	}
	if e.publisher == nil {
		e.publisher = events.NewPublisher(e.log)
	}
	if e.tracer == nil {
		e.tracer = tracing.NopTracer{}
	}
	if e.analytics == nil {
		e.analytics = disabledTransmitter{}
	}
	e.hooks = hooks.NewDispatcher(e.reg, e.cm, e.invoker, e.publisher, o.Plugins, e.log)
	return e
}

func (e *Engine) Contexts() *contexts.Manager { return e.cm }

func (e *Engine) TestRunContext() *contexts.TestRunContext { return e.cm.TestRun() }

func (e *Engine) FeatureContext() *contexts.FeatureContext { return e.cm.Feature() }

func (e *Engine) ScenarioContext() *contexts.ScenarioContext { return e.cm.Scenario() }

// OnTestRunStart starts the run once; later calls do nothing. A failing
// BeforeTestRun hook is returned.
func (e *Engine) OnTestRunStart(ctx context.Context) error {
	if !e.runStarted.CompareAndSwap(false, true) {
		return nil
	}

	if e.analytics.Enabled() {
		e.analyticWG.Add(1)
		go e.transmitProjectRunning(context.WithoutCancel(ctx))
	}

	e.publisher.Publish(ctx, events.NewRunStarted(e.cm.TestRun()))
	return e.hooks.Fire(ctx, bindings.BeforeTestRun)
}

func (e *Engine) transmitProjectRunning(ctx context.Context) {
	defer e.analyticWG.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("sending analytics panicked", zap.Any("panic", r))
		}
	}()

	ev := NewProjectRunningEvent(e.cm.TestRun().ID, e.cfg.Project)
	if err := e.analytics.TransmitProjectRunning(ctx, ev); err != nil {
		e.log.Warn("could not transmit analytics", zap.Error(err))
	}
}

// WaitAnalytics blocks until a pending analytics transmission finished.
func (e *Engine) WaitAnalytics() {
	e.analyticWG.Wait()
}

// OnTestRunEnd ends the run once. RunFinished is published even when an
// AfterTestRun hook fails.
func (e *Engine) OnTestRunEnd(ctx context.Context) error {
	e.endMu.Lock()
	defer e.endMu.Unlock()
	if e.runEnded {
		return nil
	}
	e.runEnded = true

	defer e.publisher.Publish(ctx, events.NewRunFinished(e.cm.TestRun()))
	return e.hooks.Fire(ctx, bindings.AfterTestRun)
}

// OnFeatureStart makes info the active feature and runs its BeforeFeature
// hooks. A hook error is kept on the feature context so its scenarios can be
// skipped.
func (e *Engine) OnFeatureStart(ctx context.Context, info contexts.FeatureInfo) error {
	fc, err := e.cm.InitializeFeature(info)
	if err != nil {
		return err
	}
	e.publisher.Publish(ctx, events.NewFeatureStarted(fc))

	if err := e.hooks.Fire(ctx, bindings.BeforeFeature); err != nil {
		fc.RecordError(err)
		return err
	}
	return nil
}

// OnFeatureEnd runs the AfterFeature hooks and releases the feature.
func (e *Engine) OnFeatureEnd(ctx context.Context) error {
	fc := e.cm.Feature()
	if fc == nil {
		return nil
	}

	hookErr := e.hooks.Fire(ctx, bindings.AfterFeature)

	if e.cfg.TraceTimings {
		fc.Stopwatch().Stop()
		e.tracer.TraceDuration(fc.Stopwatch().Elapsed(), "Feature: "+fc.Info.Title)
	}
	e.publisher.Publish(ctx, events.NewFeatureFinished(fc))
	if err := e.cm.CleanupFeature(); err != nil {
		return errors.Join(hookErr, fmt.Errorf("cleaning up feature: %w", err))
	}
	return hookErr
}

// OnScenarioInitialize makes info the active scenario.
func (e *Engine) OnScenarioInitialize(info contexts.ScenarioInfo) error {
	_, err := e.cm.InitializeScenario(info)
	return err
}

// OnScenarioStart runs the BeforeScenario hooks. A failure marks the
// scenario as failed; it is not returned.
func (e *Engine) OnScenarioStart(ctx context.Context) {
	sc := e.cm.Scenario()
	e.publisher.Publish(ctx, events.NewScenarioStarted(e.cm.Feature(), sc))

	if err := e.hooks.Fire(ctx, bindings.BeforeScenario); err != nil && sc != nil {
		sc.Escalate(contexts.TestError)
		if sc.TestError() == nil {
			sc.SetTestError(err)
		}
	}
}

// OnScenarioSkipped marks the active scenario as skipped without running any
// hooks.
func (e *Engine) OnScenarioSkipped(ctx context.Context) {
	sc := e.cm.Scenario()
	if sc == nil {
		return
	}
	sc.Escalate(contexts.Skipped)
	e.publisher.Publish(ctx, events.NewScenarioStarted(e.cm.Feature(), sc))
	e.publisher.Publish(ctx, events.NewScenarioSkipped(e.cm.Feature(), sc))
}

// OnAfterLastStep closes the last block and turns the scenario status into
// the scenario's result: nil when it passed.
func (e *Engine) OnAfterLastStep(ctx context.Context) error {
	sc := e.cm.Scenario()
	if sc == nil {
		return contexts.ErrNoParent
	}
	if err := e.switchBlock(ctx, bindings.BlockNone); err != nil {
		return err
	}

	if e.cfg.TraceTimings {
		sc.Stopwatch().Stop()
		e.tracer.TraceDuration(sc.Stopwatch().Elapsed(), "Scenario: "+sc.Info.Title)
	}

	switch sc.Status() {
	case contexts.OK:
		return nil
	case contexts.Skipped:
		if f := e.cm.Feature(); f != nil && f.BeforeFeatureHookError() != nil {
			return &IgnoredError{Message: "Scenario skipped because a before feature hook failed: " +
				f.BeforeFeatureHookError().Error()}
		}
		return &IgnoredError{Message: "Scenario ignored using @ignore tag"}
	case contexts.StepDefinitionPending:
		return e.pendingOutcome(PendingMessage(sc))
	case contexts.UndefinedStep:
		return e.pendingOutcome(UndefinedMessage(sc, e.cm.Feature()))
	}

	if err := sc.TestError(); err != nil {
		return err
	}
	return ErrUnknownFailure
}

func (e *Engine) pendingOutcome(msg string) error {
	switch e.cfg.MissingOrPendingOutcome {
	case OutcomeIgnore:
		return &IgnoredError{Message: msg}
	case OutcomeError:
		return errors.New(msg)
	default:
		return &PendingError{Message: msg}
	}
}

// OnScenarioEnd runs the AfterScenario hooks, unless the scenario was
// skipped, and releases the scenario.
func (e *Engine) OnScenarioEnd(ctx context.Context) error {
	sc := e.cm.Scenario()
	if sc == nil {
		return nil
	}

	var hookErr error
	if sc.Status() != contexts.Skipped {
		hookErr = e.hooks.Fire(ctx, bindings.AfterScenario)
	}

	e.publisher.Publish(ctx, events.NewScenarioFinished(e.cm.Feature(), sc))
	if err := e.cm.CleanupScenario(); err != nil {
		return errors.Join(hookErr, fmt.Errorf("cleaning up scenario: %w", err))
	}
	return hookErr
}

// Pending is what an unfinished step definition returns.
func Pending() error {
	return bindings.ErrPending
}
