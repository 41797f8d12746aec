package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/events"
	"github.com/chriserin/ftrun/pkg/tracing"
)

type recordingListener struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingListener) WriteTestOutput(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *recordingListener) WriteToolOutput(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, "-> "+msg)
}

type harness struct {
	reg     *bindings.Registry
	engine  *Engine
	trace   *recordingListener
	kinds   []events.Kind
	calls   []string
	cfg     Config
	options func(*Options)
}

func newHarness(t *testing.T, register func(h *harness)) *harness {
	t.Helper()
	h := &harness{reg: bindings.NewRegistry(), trace: &recordingListener{}, cfg: DefaultConfig()}
	register(h)
	h.reg.Build()

	publisher := events.NewPublisher(nil)
	publisher.Subscribe(events.ListenerFunc(func(_ context.Context, e events.Event) {
		h.kinds = append(h.kinds, e.Kind())
	}))
	o := Options{
		Config:    h.cfg,
		Registry:  h.reg,
		Publisher: publisher,
		Tracer:    tracing.NewTextTracer(h.trace),
	}
	if h.options != nil {
		h.options(&o)
	}
	h.engine = New(o)
	return h
}

func (h *harness) step(t *testing.T, pattern string, err error, opts ...bindings.Option) {
	t.Helper()
	require.NoError(t, h.reg.Step(pattern, func() error {
		h.calls = append(h.calls, pattern)
		return err
	}, opts...))
}

func (h *harness) hook(t *testing.T, ht bindings.HookType, name string, err error) {
	t.Helper()
	require.NoError(t, h.reg.Hook(ht, func() error {
		h.calls = append(h.calls, name)
		return err
	}, bindings.WithName(name)))
}

func (h *harness) startScenario(t *testing.T, title string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.engine.OnTestRunStart(ctx))
	require.NoError(t, h.engine.OnFeatureStart(ctx, contexts.FeatureInfo{Title: "F"}))
	require.NoError(t, h.engine.OnScenarioInitialize(contexts.ScenarioInfo{Title: title}))
	h.engine.OnScenarioStart(ctx)
}

func (h *harness) hasKind(k events.Kind) bool {
	for _, got := range h.kinds {
		if got == k {
			return true
		}
	}
	return false
}

func TestEngine_ScenarioPasses(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.step(t, "B", nil)
		h.step(t, "C", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.When(ctx, "B", "", nil))
	require.NoError(t, h.engine.Then(ctx, "C", "", nil))
	assert.NoError(t, h.engine.OnAfterLastStep(ctx))
	assert.Equal(t, contexts.OK, h.engine.ScenarioContext().Status())
	require.NoError(t, h.engine.OnScenarioEnd(ctx))
	require.NoError(t, h.engine.OnFeatureEnd(ctx))
	require.NoError(t, h.engine.OnTestRunEnd(ctx))

	assert.Equal(t, []string{"A", "B", "C"}, h.calls)
	assert.Nil(t, h.engine.ScenarioContext())
	assert.Nil(t, h.engine.FeatureContext())
	assert.Equal(t, events.KindRunFinished, h.kinds[len(h.kinds)-1])
}

func TestEngine_TestErrorPreserved(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.step(t, "B", boom)
		h.step(t, "C", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.When(ctx, "B", "", nil))
	require.NoError(t, h.engine.Then(ctx, "C", "", nil))

	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.TestError, sc.Status())
	err := h.engine.OnAfterLastStep(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A", "B"}, h.calls)
	assert.True(t, h.hasKind(events.KindStepSkipped))
}

func TestEngine_StopAtFirstErrorReturnsError(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, func(h *harness) {
		h.step(t, "B", boom)
		h.cfg.StopAtFirstError = true
	})
	h.startScenario(t, "S")
	assert.ErrorIs(t, h.engine.When(context.Background(), "B", "", nil), boom)
}

func TestEngine_UndefinedStep(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.step(t, "C", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.When(ctx, "B", "", nil))
	require.NoError(t, h.engine.Then(ctx, "C", "", nil))

	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.UndefinedStep, sc.Status())
	missing := sc.MissingSteps()
	require.Len(t, missing, 1)
	assert.Equal(t, "B", missing[0].Text)
	assert.Equal(t, []string{"A"}, h.calls)

	err := h.engine.OnAfterLastStep(ctx)
	var pe *PendingError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "No matching step definition found")
	assert.Contains(t, pe.Message, "reg.When(`B`")
}

func TestEngine_MissingStepsRecordedAfterFailure(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", errors.New("boom"))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.When(ctx, "B", "", nil))

	sc := h.engine.ScenarioContext()
	assert.Len(t, sc.MissingSteps(), 1)
	assert.Equal(t, contexts.TestError, sc.Status())
}

func TestEngine_PendingStep(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Given(`(\d+) users`, func(n int) error { return Pending() }, bindings.WithName("Users")))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "3 users", "", nil))
	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.StepDefinitionPending, sc.Status())
	assert.Equal(t, []string{"Users(3)"}, sc.PendingSteps())

	var pe *PendingError
	require.ErrorAs(t, h.engine.OnAfterLastStep(ctx), &pe)
	assert.Contains(t, pe.Message, "Users(3)")
}

func TestEngine_PendingOutcomeConfigurable(t *testing.T) {
	for _, tt := range []struct {
		outcome MissingOrPendingOutcome
		check   func(t *testing.T, err error)
	}{
		{OutcomeIgnore, func(t *testing.T, err error) {
			var ie *IgnoredError
			assert.ErrorAs(t, err, &ie)
		}},
		{OutcomeError, func(t *testing.T, err error) {
			var pe *PendingError
			assert.Error(t, err)
			assert.False(t, errors.As(err, &pe))
		}},
	} {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			h := newHarness(t, func(h *harness) { h.cfg.MissingOrPendingOutcome = tt.outcome })
			ctx := context.Background()
			h.startScenario(t, "S")
			require.NoError(t, h.engine.Given(ctx, "undefined", "", nil))
			tt.check(t, h.engine.OnAfterLastStep(ctx))
		})
	}
}

func TestEngine_AmbiguousStep(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "a.*", nil)
		h.step(t, ".*b", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "ab", "", nil))
	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.AmbiguousMatch, sc.Status())
	var ae *AmbiguousMatchError
	require.ErrorAs(t, h.engine.OnAfterLastStep(ctx), &ae)
	assert.Len(t, ae.Candidates, 2)
}

func TestEngine_InvalidRegistry(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "a (", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "a", "", nil))
	assert.Equal(t, contexts.BindingError, h.engine.ScenarioContext().Status())
	var ie *InvalidRegistryError
	assert.ErrorAs(t, h.engine.OnAfterLastStep(ctx), &ie)
}

func TestEngine_ConversionFailureIsTestError(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Given(`(.*) users`, func(n int) {}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "many users", "", nil))
	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.TestError, sc.Status())
	var ce *bindings.ConversionError
	assert.ErrorAs(t, sc.TestError(), &ce)
}

func TestEngine_ParameterCountIsBindingError(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Given(`a doc`, func() {}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "a doc", "body", nil))
	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.BindingError, sc.Status())
	var be *bindings.BindingError
	assert.ErrorAs(t, sc.TestError(), &be)
}

func TestEngine_ArgumentsConverted(t *testing.T) {
	var got []any
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Given(`(\w+) is (\d+) and (.*)`, func(name string, age int, rate float64, doc string, table *bindings.Table) {
			got = []any{name, age, rate, doc, table.RowCount()}
		}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	table := bindings.NewTable("x")
	table.AddRow("1")
	require.NoError(t, h.engine.Given(ctx, "bob is 30 and 0.5", "notes", table))
	assert.Equal(t, []any{"bob", 30, 0.5, "notes", 1}, got)
	assert.NoError(t, h.engine.OnAfterLastStep(ctx))
}

func TestEngine_AndButTakePreviousType(t *testing.T) {
	var types []bindings.StepDefinitionType
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Step(`.*`, func(ctx context.Context) {
			types = append(types, h.engine.Contexts().Step().Info.Step.Type)
		}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.And(ctx, "first", "", nil))
	require.NoError(t, h.engine.When(ctx, "second", "", nil))
	require.NoError(t, h.engine.But(ctx, "third", "", nil))
	assert.Equal(t, []bindings.StepDefinitionType{bindings.StepGiven, bindings.StepWhen, bindings.StepWhen}, types)
}

func TestEngine_BlockHooks(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, ".*", nil)
		h.hook(t, bindings.BeforeScenarioBlock, "before-block", nil)
		h.hook(t, bindings.AfterScenarioBlock, "after-block", nil)
		h.hook(t, bindings.BeforeStep, "before-step", nil)
		h.hook(t, bindings.AfterStep, "after-step", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "g1", "", nil))
	require.NoError(t, h.engine.And(ctx, "g2", "", nil))
	require.NoError(t, h.engine.When(ctx, "w", "", nil))
	require.NoError(t, h.engine.OnAfterLastStep(ctx))

	assert.Equal(t, []string{
		"before-block", "before-step", ".*", "after-step",
		"before-step", ".*", "after-step",
		"after-block", "before-block", "before-step", ".*", "after-step",
		"after-block",
	}, h.calls)
}

func TestEngine_BlockHooksStopAfterFailure(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "fails", errors.New("boom"))
		h.step(t, "ok", nil)
		h.hook(t, bindings.BeforeScenarioBlock, "before-block", nil)
		h.hook(t, bindings.AfterScenarioBlock, "after-block", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "fails", "", nil))
	require.NoError(t, h.engine.When(ctx, "ok", "", nil))
	assert.ErrorContains(t, h.engine.OnAfterLastStep(ctx), "boom")
	assert.Equal(t, []string{"before-block", "fails"}, h.calls)
}

func TestEngine_AfterStepRunsAfterStepFailure(t *testing.T) {
	var statusSeen contexts.Status
	h := newHarness(t, func(h *harness) {
		h.step(t, "fails", errors.New("boom"))
		require.NoError(t, h.reg.Hook(bindings.AfterStep, func(sc *contexts.ScenarioContext) {
			statusSeen = sc.Status()
		}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "fails", "", nil))
	assert.Equal(t, contexts.TestError, statusSeen)
}

func TestEngine_StepHooksReceiveLiveStepContext(t *testing.T) {
	var (
		texts    []string
		statuses []contexts.Status
		live     []bool
	)
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.step(t, "B", errors.New("boom"))
		require.NoError(t, h.reg.Hook(bindings.AfterStep, func(stc *contexts.StepContext) {
			texts = append(texts, stc.Info.Step.Text)
			statuses = append(statuses, stc.Status())
			live = append(live, stc == h.engine.Contexts().Step())
		}))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.When(ctx, "B", "", nil))
	assert.Equal(t, []string{"A", "B"}, texts)
	assert.Equal(t, []contexts.Status{contexts.OK, contexts.TestError}, statuses)
	assert.Equal(t, []bool{true, true}, live)
}

func TestEngine_AfterStepErrorReturned(t *testing.T) {
	boom := errors.New("after step")
	h := newHarness(t, func(h *harness) {
		h.step(t, "ok", nil)
		h.hook(t, bindings.AfterStep, "after-step", boom)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	assert.ErrorIs(t, h.engine.Given(ctx, "ok", "", nil), boom)
	assert.Equal(t, contexts.TestError, h.engine.ScenarioContext().Status())
	assert.Nil(t, h.engine.Contexts().Step())
}

func TestEngine_SkippedStepDoesNotRunStepHooks(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "fails", errors.New("boom"))
		h.step(t, "next", nil)
		h.hook(t, bindings.BeforeStep, "before-step", nil)
		h.hook(t, bindings.AfterStep, "after-step", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "fails", "", nil))
	require.NoError(t, h.engine.Given(ctx, "next", "", nil))
	assert.Equal(t, []string{"before-step", "fails", "after-step"}, h.calls)
}

type skipCounter struct{ n int }

func (s *skipCounter) HandleSkippedStep(*contexts.ScenarioContext) { s.n++ }

func TestEngine_SkippedStepHandlers(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "fails", errors.New("boom"))
		h.step(t, "next", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")
	counter := &skipCounter{}
	h.engine.ScenarioContext().Container().Register(counter)

	require.NoError(t, h.engine.Given(ctx, "fails", "", nil))
	require.NoError(t, h.engine.Given(ctx, "next", "", nil))
	require.NoError(t, h.engine.Given(ctx, "next", "", nil))
	assert.Equal(t, 2, counter.n)
}

func TestEngine_BeforeScenarioFailure(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.hook(t, bindings.BeforeScenario, "before", boom)
		h.hook(t, bindings.AfterScenario, "after", nil)
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	sc := h.engine.ScenarioContext()
	assert.Equal(t, contexts.TestError, sc.Status())
	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	assert.ErrorIs(t, h.engine.OnAfterLastStep(ctx), boom)
	require.NoError(t, h.engine.OnScenarioEnd(ctx))
	assert.Equal(t, []string{"before", "after"}, h.calls)
}

func TestEngine_BeforeFeatureFailure(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, func(h *harness) {
		h.hook(t, bindings.BeforeFeature, "before-feature", boom)
		h.hook(t, bindings.BeforeScenario, "before-scenario", nil)
		h.hook(t, bindings.AfterScenario, "after-scenario", nil)
	})
	ctx := context.Background()
	require.NoError(t, h.engine.OnTestRunStart(ctx))
	assert.ErrorIs(t, h.engine.OnFeatureStart(ctx, contexts.FeatureInfo{Title: "F"}), boom)
	assert.ErrorIs(t, h.engine.FeatureContext().BeforeFeatureHookError(), boom)

	require.NoError(t, h.engine.OnScenarioInitialize(contexts.ScenarioInfo{Title: "S"}))
	h.engine.OnScenarioSkipped(ctx)
	var ie *IgnoredError
	require.ErrorAs(t, h.engine.OnAfterLastStep(ctx), &ie)
	assert.Equal(t, "Scenario skipped because a before feature hook failed: boom", ie.Message)
	require.NoError(t, h.engine.OnScenarioEnd(ctx))

	assert.Equal(t, []string{"before-feature"}, h.calls)
	assert.True(t, h.hasKind(events.KindScenarioSkipped))
}

func TestEngine_IgnoredScenarioMessage(t *testing.T) {
	h := newHarness(t, func(h *harness) {})
	ctx := context.Background()
	require.NoError(t, h.engine.OnTestRunStart(ctx))
	require.NoError(t, h.engine.OnFeatureStart(ctx, contexts.FeatureInfo{Title: "F"}))
	require.NoError(t, h.engine.OnScenarioInitialize(contexts.ScenarioInfo{Title: "S", Tags: []string{"ignore"}}))
	h.engine.OnScenarioSkipped(ctx)

	var ie *IgnoredError
	require.ErrorAs(t, h.engine.OnAfterLastStep(ctx), &ie)
	assert.Equal(t, "Scenario ignored using @ignore tag", ie.Message)
}

func TestEngine_ScenarioEndWithoutScenario(t *testing.T) {
	h := newHarness(t, func(h *harness) {})
	assert.NoError(t, h.engine.OnScenarioEnd(context.Background()))
	assert.NoError(t, h.engine.OnFeatureEnd(context.Background()))
}

func TestEngine_StepWithoutScenario(t *testing.T) {
	h := newHarness(t, func(h *harness) {})
	assert.ErrorIs(t, h.engine.Given(context.Background(), "x", "", nil), contexts.ErrNoParent)
}

func TestEngine_RunStartAndEndOnce(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.hook(t, bindings.BeforeTestRun, "before-run", nil)
		h.hook(t, bindings.AfterTestRun, "after-run", nil)
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.engine.OnTestRunStart(ctx))
		}()
	}
	wg.Wait()
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.engine.OnTestRunEnd(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"before-run", "after-run"}, h.calls)
}

func TestEngine_RunFinishedPublishedOnHookFailure(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, func(h *harness) {
		h.hook(t, bindings.AfterTestRun, "after-run", boom)
	})
	ctx := context.Background()
	require.NoError(t, h.engine.OnTestRunStart(ctx))
	assert.ErrorIs(t, h.engine.OnTestRunEnd(ctx), boom)
	assert.Equal(t, events.KindRunFinished, h.kinds[len(h.kinds)-1])
}

func TestEngine_ObsoleteStepWarns(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "old", nil, bindings.WithName("old"), bindings.Obsolete("use new"))
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "old", "", nil))
	assert.NoError(t, h.engine.OnAfterLastStep(ctx))
	assert.Contains(t, h.trace.lines, "-> warning: The step definition old is obsolete: use new")
}

func TestEngine_TraceTimings(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.step(t, "A", nil)
		h.cfg.TraceTimings = true
		h.cfg.MinTracedDuration = time.Hour
	})
	ctx := context.Background()
	h.startScenario(t, "Timed")
	require.NoError(t, h.engine.Given(ctx, "A", "", nil))
	require.NoError(t, h.engine.OnAfterLastStep(ctx))
	require.NoError(t, h.engine.OnScenarioEnd(ctx))
	require.NoError(t, h.engine.OnFeatureEnd(ctx))

	var durations []string
	for _, l := range h.trace.lines {
		if len(l) > 12 && l[:12] == "-> duration:" {
			durations = append(durations, l)
		}
	}
	require.Len(t, durations, 2)
	assert.Contains(t, durations[0], "Scenario: Timed")
	assert.Contains(t, durations[1], "Feature: F")
}

type failingTransmitter struct {
	done chan struct{}
}

func (f *failingTransmitter) Enabled() bool { return true }

func (f *failingTransmitter) TransmitProjectRunning(context.Context, AnalyticsEvent) error {
	defer close(f.done)
	return errors.New("offline")
}

func TestEngine_AnalyticsFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := &failingTransmitter{done: make(chan struct{})}
	h := newHarness(t, func(h *harness) {
		h.options = func(o *Options) {
			o.Analytics = tr
			o.Logger = zap.New(core)
		}
	})

	require.NoError(t, h.engine.OnTestRunStart(context.Background()))
	<-tr.done
	h.engine.WaitAnalytics()
	require.Equal(t, 1, logs.FilterMessage("could not transmit analytics").Len())
}

func TestEngine_BindingCultureOverridesFeatureLanguage(t *testing.T) {
	var got float64
	h := newHarness(t, func(h *harness) {
		require.NoError(t, h.reg.Given(`costs (.*)`, func(v float64) { got = v }))
		h.cfg.BindingCulture = "de-DE"
	})
	ctx := context.Background()
	h.startScenario(t, "S")

	require.NoError(t, h.engine.Given(ctx, "costs 1,5", "", nil))
	assert.NoError(t, h.engine.OnAfterLastStep(ctx))
	assert.Equal(t, 1.5, got)
}
