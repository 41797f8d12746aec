// Package runner executes features on a pool of workers. Each worker owns an
// engine and a context stack; the registry, the test run context, the event
// publisher and the trace queue are shared.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/engine"
	"github.com/chriserin/ftrun/pkg/events"
	"github.com/chriserin/ftrun/pkg/hooks"
	"github.com/chriserin/ftrun/pkg/tracing"
)

// ErrNoRegistry is returned by New without a registry.
var ErrNoRegistry = errors.New("runner needs a binding registry")

type Options struct {
	Config   engine.Config
	Registry *bindings.Registry
	// Workers is the number of features run in parallel. Values below one
	// mean one.
	Workers int
	// Output receives the step trace. Nil discards it.
	Output    tracing.Listener
	Listeners []events.Listener
	Plugins   *hooks.PluginEvents
	Analytics engine.AnalyticsTransmitter
	Logger    *zap.Logger
}

type Runner struct {
	o         Options
	log       *zap.Logger
	publisher *events.Publisher
}

// New builds the registry if that has not happened yet.
func New(o Options) (*Runner, error) {
	if o.Registry == nil {
		return nil, ErrNoRegistry
	}
	if !o.Registry.IsBuilt() {
		o.Registry.Build()
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Output == nil {
		o.Output = tracing.NewWriterListener(io.Discard)
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	publisher := events.NewPublisher(log)
	for _, l := range o.Listeners {
		publisher.Subscribe(l)
	}
	return &Runner{o: o, log: log, publisher: publisher}, nil
}

// Publisher is the publisher all workers share. Listeners subscribed before
// Run see every event of the run.
func (r *Runner) Publisher() *events.Publisher { return r.publisher }

// Run executes features and returns their results in feature order. Once ctx
// is done no further features are started.
func (r *Runner) Run(ctx context.Context, features []Feature) *Report {
	report := &Report{Started: time.Now()}

	queue := tracing.NewQueue(r.o.Output, 64)
	defer queue.Close()

	run := contexts.NewTestRunContext()
	report.RunID = run.ID
	converter := bindings.NewConverter(r.o.Registry)

	newEngine := func(workerID string) *engine.Engine {
		log := r.log
		if workerID != "" {
			log = log.With(zap.String("worker", workerID))
		}
		return engine.New(engine.Options{
			Config:    r.o.Config,
			Registry:  r.o.Registry,
			Contexts:  contexts.NewManager(run),
			Converter: converter,
			Publisher: r.publisher,
			Plugins:   r.o.Plugins,
			Tracer:    tracing.NewTextTracer(queue.ForWorker(workerID)),
			Analytics: r.o.Analytics,
			Logger:    log,
		})
	}

	global := newEngine("")
	if err := global.OnTestRunStart(ctx); err != nil {
		report.Err = fmt.Errorf("before test run: %w", err)
	} else {
		report.Err = r.runFeatures(ctx, features, newEngine, report)
	}
	if err := global.OnTestRunEnd(ctx); err != nil {
		report.Err = errors.Join(report.Err, fmt.Errorf("after test run: %w", err))
	}
	global.WaitAnalytics()

	sort.SliceStable(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.featureIndex != b.featureIndex {
			return a.featureIndex < b.featureIndex
		}
		return a.scenarioIndex < b.scenarioIndex
	})
	report.Duration = time.Since(report.Started)
	r.log.Debug("run finished",
		zap.Stringer("run_id", report.RunID),
		zap.Int("scenarios", len(report.Results)),
		zap.Duration("duration", report.Duration))
	return report
}

func (r *Runner) runFeatures(ctx context.Context, features []Feature, newEngine func(string) *engine.Engine, report *Report) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(res ScenarioResult) {
		mu.Lock()
		report.Results = append(report.Results, res)
		mu.Unlock()
	}
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range features {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < r.o.Workers; w++ {
		id := ""
		if r.o.Workers > 1 {
			id = strconv.Itoa(w + 1)
		}
		eng := newEngine(id)
		g.Go(func() error {
			for i := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				if err := r.runFeature(ctx, eng, i, features[i], record, fail); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("run interrupted: %w", err))
	}
	return errors.Join(errs...)
}

// runFeature runs the scenarios of f on eng. The returned error stops the
// whole run.
func (r *Runner) runFeature(ctx context.Context, eng *engine.Engine, index int, f Feature,
	record func(ScenarioResult), fail func(error),
) error {
	startErr := eng.OnFeatureStart(ctx, f.Info)
	if eng.FeatureContext() == nil {
		return fmt.Errorf("starting feature %s: %w", f.Info.Title, startErr)
	}

	var stop error
	for j, sc := range f.Scenarios {
		res, err := r.runScenario(ctx, eng, f, sc, startErr)
		res.featureIndex, res.scenarioIndex = index, j
		record(res)
		if err != nil {
			stop = err
			break
		}
	}

	if err := eng.OnFeatureEnd(ctx); err != nil {
		fail(fmt.Errorf("feature %s: %w", f.Info.Title, err))
	}
	return stop
}

func (r *Runner) runScenario(ctx context.Context, eng *engine.Engine, f Feature, sc Scenario, featureErr error) (ScenarioResult, error) {
	res := ScenarioResult{
		Feature:  f.Info.Title,
		Path:     f.Info.Path,
		Scenario: sc.Info.Title,
		Line:     sc.Info.Line,
	}
	start := time.Now()

	if err := eng.OnScenarioInitialize(sc.Info); err != nil {
		return res, fmt.Errorf("starting scenario %s: %w", sc.Info.Title, err)
	}

	var stepErr error
	if featureErr != nil || sc.Ignored {
		eng.OnScenarioSkipped(ctx)
	} else {
		eng.OnScenarioStart(ctx)
		stepErr = runSteps(ctx, eng, f.Background, sc.Steps)
	}

	err := eng.OnAfterLastStep(ctx)
	if err == nil {
		err = stepErr
	}
	res.Outcome = outcomeOf(err)
	res.Err = err
	if sc := eng.ScenarioContext(); sc != nil {
		for _, step := range sc.MissingSteps() {
			res.MissingSteps = append(res.MissingSteps, tracing.Snippet(step))
		}
	}

	if endErr := eng.OnScenarioEnd(ctx); endErr != nil {
		res.Outcome = Failed
		res.Err = errors.Join(err, endErr)
	}
	if featureErr != nil {
		res.Outcome = Skipped
		res.Err = fmt.Errorf("before feature hook failed: %w", featureErr)
	}
	res.Duration = time.Since(start)

	if r.o.Config.StopAtFirstError && res.Outcome == Failed {
		return res, fmt.Errorf("stopped at first error in %s: %w", sc.Info.Title, res.Err)
	}
	return res, nil
}

func runSteps(ctx context.Context, eng *engine.Engine, groups ...[]Step) error {
	for _, steps := range groups {
		for _, s := range steps {
			if err := eng.Step(ctx, s.Keyword, s.KeywordText, s.Text, s.DocString, s.Table); err != nil {
				return err
			}
		}
	}
	return nil
}
