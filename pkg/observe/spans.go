// Package observe turns lifecycle events into OpenTelemetry spans and
// Prometheus metrics.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/events"
)

// InstrumentationName is the name of the tracer spans are created with.
const InstrumentationName = "github.com/chriserin/ftrun"

type openSpan struct {
	ctx  context.Context
	span trace.Span
}

// SpanListener records a span per run, feature, scenario and step. Spans
// nest in that order. It is safe to subscribe one listener for all workers.
type SpanListener struct {
	tracer trace.Tracer

	mu    sync.Mutex
	run   openSpan
	spans map[any]openSpan
}

// NewSpanListener creates spans with tp, or the global provider when tp is
// nil.
func NewSpanListener(tp trace.TracerProvider) *SpanListener {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &SpanListener{
		tracer: tp.Tracer(InstrumentationName),
		spans:  make(map[any]openSpan),
	}
}

func (l *SpanListener) OnEvent(ctx context.Context, e events.Event) {
	switch ev := e.(type) {
	case events.RunStarted:
		sctx, span := l.tracer.Start(ctx, "Test run", trace.WithTimestamp(ev.At()),
			trace.WithAttributes(attribute.String("ft.run.id", ev.Run.ID.String())))
		l.mu.Lock()
		l.run = openSpan{ctx: sctx, span: span}
		l.mu.Unlock()
	case events.RunFinished:
		l.mu.Lock()
		run := l.run
		l.run = openSpan{}
		l.mu.Unlock()
		if run.span != nil {
			if err := ev.Run.Err(); err != nil {
				run.span.SetStatus(codes.Error, err.Error())
			}
			run.span.End(trace.WithTimestamp(ev.At()))
		}

	case events.FeatureStarted:
		l.start(l.runContext(ctx), ev.Feature, "Feature: "+ev.Feature.Info.Title, ev,
			attribute.String("ft.feature.path", ev.Feature.Info.Path),
			attribute.StringSlice("ft.tags", ev.Feature.Info.Tags))
	case events.FeatureFinished:
		l.end(ev.Feature, ev, ev.Feature.Err(), "")

	case events.ScenarioStarted:
		l.start(l.parent(ctx, ev.Feature), ev.Scenario, "Scenario: "+ev.Scenario.Info.Title, ev,
			attribute.Int("ft.scenario.line", ev.Scenario.Info.Line),
			attribute.StringSlice("ft.tags", ev.Scenario.Info.Tags))
	case events.ScenarioFinished:
		status := ev.Scenario.Status()
		var err error
		if status > contexts.Skipped {
			err = ev.Scenario.TestError()
		}
		l.end(ev.Scenario, ev, err, status.String())

	case events.StepStarted:
		step := ev.Step.Info.Step
		l.start(l.parent(ctx, ev.Scenario), ev.Step, step.KeywordText+step.Text, ev,
			attribute.String("ft.step.type", step.Type.String()))
	case events.StepFinished:
		status := ev.Step.Status()
		var err error
		if status > contexts.Skipped {
			err = ev.Step.Err()
		}
		l.end(ev.Step, ev, err, status.String())
	}
}

func (l *SpanListener) runContext(ctx context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run.ctx != nil {
		return l.run.ctx
	}
	return ctx
}

func (l *SpanListener) parent(ctx context.Context, key any) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.spans[key]; ok {
		return s.ctx
	}
	if l.run.ctx != nil {
		return l.run.ctx
	}
	return ctx
}

func (l *SpanListener) start(parent context.Context, key any, name string, e events.Event, attrs ...attribute.KeyValue) {
	sctx, span := l.tracer.Start(parent, name, trace.WithTimestamp(e.At()), trace.WithAttributes(attrs...))
	l.mu.Lock()
	l.spans[key] = openSpan{ctx: sctx, span: span}
	l.mu.Unlock()
}

func (l *SpanListener) end(key any, e events.Event, err error, status string) {
	l.mu.Lock()
	s, ok := l.spans[key]
	delete(l.spans, key)
	l.mu.Unlock()
	if !ok {
		return
	}
	if status != "" {
		s.span.SetAttributes(attribute.String("ft.status", status))
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End(trace.WithTimestamp(e.At()))
}
