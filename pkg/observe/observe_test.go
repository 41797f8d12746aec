package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/engine"
	"github.com/chriserin/ftrun/pkg/events"
)

func runScenario(t *testing.T, listeners ...events.Listener) {
	t.Helper()
	reg := bindings.NewRegistry()
	require.NoError(t, reg.Given("a user", func() {}))
	require.NoError(t, reg.Then("it fails", func() error { return errors.New("boom") }))
	require.NoError(t, reg.When("never runs", func() {}))
	require.NoError(t, reg.Hook(bindings.AfterFeature, func() error { return errors.New("hook") }))
	reg.Build()

	publisher := events.NewPublisher(nil)
	for _, l := range listeners {
		publisher.Subscribe(l)
	}
	e := engine.New(engine.Options{Config: engine.DefaultConfig(), Registry: reg, Publisher: publisher})

	ctx := context.Background()
	require.NoError(t, e.OnTestRunStart(ctx))
	require.NoError(t, e.OnFeatureStart(ctx, contexts.FeatureInfo{Title: "Accounts", Path: "fts/accounts.ft"}))
	require.NoError(t, e.OnScenarioInitialize(contexts.ScenarioInfo{Title: "Login", Line: 3}))
	e.OnScenarioStart(ctx)
	require.NoError(t, e.Given(ctx, "a user", "", nil))
	require.NoError(t, e.Then(ctx, "it fails", "", nil))
	require.NoError(t, e.When(ctx, "never runs", "", nil))
	assert.Error(t, e.OnAfterLastStep(ctx))
	require.NoError(t, e.OnScenarioEnd(ctx))
	assert.Error(t, e.OnFeatureEnd(ctx))
	require.NoError(t, e.OnTestRunEnd(ctx))
}

func spanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestSpanListener_NestsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	runScenario(t, NewSpanListener(tp))

	spans := recorder.Ended()
	run := spanByName(spans, "Test run")
	feature := spanByName(spans, "Feature: Accounts")
	scenario := spanByName(spans, "Scenario: Login")
	given := spanByName(spans, "Given a user")
	then := spanByName(spans, "Then it fails")
	when := spanByName(spans, "When never runs")
	require.NotNil(t, run)
	require.NotNil(t, feature)
	require.NotNil(t, scenario)
	require.NotNil(t, given)
	require.NotNil(t, then)
	require.NotNil(t, when)

	assert.Equal(t, run.SpanContext().SpanID(), feature.Parent().SpanID())
	assert.Equal(t, feature.SpanContext().SpanID(), scenario.Parent().SpanID())
	assert.Equal(t, scenario.SpanContext().SpanID(), given.Parent().SpanID())

	assert.Equal(t, codes.Unset, given.Status().Code)
	assert.Equal(t, codes.Error, then.Status().Code)
	assert.Equal(t, "boom", then.Status().Description)
	assert.Equal(t, codes.Unset, when.Status().Code)
	assert.Equal(t, codes.Error, scenario.Status().Code)
	assert.Equal(t, codes.Error, feature.Status().Code)
}

func TestSpanListener_IgnoresUnknownFinish(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	l := NewSpanListener(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	cm := contexts.NewManager(nil)
	fc, err := cm.InitializeFeature(contexts.FeatureInfo{Title: "F"})
	require.NoError(t, err)
	l.OnEvent(context.Background(), events.NewFeatureFinished(fc))
	assert.Empty(t, recorder.Ended())
}

func TestMetrics_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	runScenario(t, m)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scenarios.WithLabelValues("TestError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("TestError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("Skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HookFailures.WithLabelValues("AfterFeature")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "ft_step_binding_duration_seconds" {
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples)
}
