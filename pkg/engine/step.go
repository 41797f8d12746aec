package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/container"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/events"
	"github.com/chriserin/ftrun/pkg/matcher"
)

// SkippedStepHandler is notified of every step skipped because of an earlier
// failure. Handlers are resolved from the scenario container.
type SkippedStepHandler interface {
	HandleSkippedStep(sc *contexts.ScenarioContext)
}

func (e *Engine) Given(ctx context.Context, text, multiline string, table *bindings.Table) error {
	return e.Step(ctx, bindings.KeywordGiven, "Given ", text, multiline, table)
}

func (e *Engine) When(ctx context.Context, text, multiline string, table *bindings.Table) error {
	return e.Step(ctx, bindings.KeywordWhen, "When ", text, multiline, table)
}

func (e *Engine) Then(ctx context.Context, text, multiline string, table *bindings.Table) error {
	return e.Step(ctx, bindings.KeywordThen, "Then ", text, multiline, table)
}

func (e *Engine) And(ctx context.Context, text, multiline string, table *bindings.Table) error {
	return e.Step(ctx, bindings.KeywordAnd, "And ", text, multiline, table)
}

func (e *Engine) But(ctx context.Context, text, multiline string, table *bindings.Table) error {
	return e.Step(ctx, bindings.KeywordBut, "But ", text, multiline, table)
}

// Step executes one step of the active scenario. Step failures are recorded
// on the scenario and not returned, except a test error with
// StopAtFirstError. Errors of block and step hooks are returned.
func (e *Engine) Step(ctx context.Context, keyword bindings.StepKeyword, keywordText, text, multiline string, table *bindings.Table) error {
	sc := e.cm.Scenario()
	if sc == nil {
		return fmt.Errorf("step %q: %w", text, contexts.ErrNoParent)
	}

	step := bindings.StepInstance{
		Type:          e.cm.StepType(keyword),
		Keyword:       keyword,
		KeywordText:   keywordText,
		Text:          text,
		MultilineText: multiline,
		Table:         table,
		Scope:         e.cm.ScopeTarget(),
	}
	stc, err := e.cm.InitializeStep(step)
	if err != nil {
		return err
	}
	e.publisher.Publish(ctx, events.NewStepStarted(sc, stc))

	defer func() {
		e.publisher.Publish(ctx, events.NewStepFinished(sc, stc))
		if cerr := e.cm.CleanupStep(); cerr != nil {
			e.log.Warn("cleaning up step", zap.Error(cerr))
		}
	}()

	return e.executeStep(ctx, sc, stc, step)
}

func (e *Engine) executeStep(ctx context.Context, sc *contexts.ScenarioContext, stc *contexts.StepContext, step bindings.StepInstance) (err error) {
	if err := e.switchBlock(ctx, step.Type.Block()); err != nil {
		return err
	}

	e.tracer.TraceStep(step, true)

	skipped := sc.Status() != contexts.OK
	stepStarted := false
	var (
		match bindings.BindingMatch
		args  []any
		dur   time.Duration
	)

	defer func() {
		if !stepStarted {
			return
		}
		if afterErr := e.hooks.Fire(ctx, bindings.AfterStep); afterErr != nil {
			err = afterErr
		}
	}()

	stepErr := func() error {
		var err error
		match, err = e.stepMatch(sc, step)
		stc.SetBindingMatch(match)
		if err != nil {
			return err
		}

		if skipped {
			e.skipStep(ctx, sc, stc)
			return nil
		}

		args, err = e.executeArguments(ctx, match)
		if err != nil {
			return err
		}
		e.handleObsolete(match)

		stepStarted = true
		if err := e.hooks.Fire(ctx, bindings.BeforeStep); err != nil {
			return err
		}
		dur, err = e.executeStepMatch(ctx, match, args)
		if err != nil {
			return err
		}
		if e.cfg.TraceSuccessfulSteps {
			e.tracer.TraceStepDone(match, args, dur)
		}
		return nil
	}()
	if stepErr == nil {
		return nil
	}

	return e.handleStepError(sc, stc, match, args, dur, stepErr)
}

func (e *Engine) handleStepError(sc *contexts.ScenarioContext, stc *contexts.StepContext,
	match bindings.BindingMatch, args []any, dur time.Duration, stepErr error,
) error {
	var (
		missing   *MissingStepDefinitionError
		ambiguous *AmbiguousMatchError
		invalid   *InvalidRegistryError
		binding   *bindings.BindingError
	)
	switch {
	case errors.Is(stepErr, bindings.ErrPending):
		e.tracer.TraceStepPending(match, args)
		sc.AddPendingStep(bindings.FormatMatch(match, args))
		failStep(sc, stc, contexts.StepDefinitionPending, nil)
	case errors.As(stepErr, &missing):
		failStep(sc, stc, contexts.UndefinedStep, nil)
	case errors.As(stepErr, &ambiguous):
		e.tracer.TraceBindingError(stepErr)
		failStep(sc, stc, contexts.AmbiguousMatch, stepErr)
	case errors.As(stepErr, &invalid), errors.As(stepErr, &binding):
		e.tracer.TraceBindingError(stepErr)
		failStep(sc, stc, contexts.BindingError, stepErr)
	default:
		e.tracer.TraceError(stepErr, dur)
		failStep(sc, stc, contexts.TestError, stepErr)
		if e.cfg.StopAtFirstError {
			return stepErr
		}
	}
	return nil
}

// failStep sets the step status and escalates the scenario. The scenario
// error is only replaced when the status got more severe.
func failStep(sc *contexts.ScenarioContext, stc *contexts.StepContext, st contexts.Status, err error) {
	stc.SetStatus(st)
	stc.RecordError(err)
	if sc.Status() < st {
		sc.Escalate(st)
		if err != nil {
			sc.SetTestError(err)
		}
	}
}

func (e *Engine) stepMatch(sc *contexts.ScenarioContext, step bindings.StepInstance) (bindings.BindingMatch, error) {
	if !e.reg.IsValid() {
		return bindings.NonMatching, &InvalidRegistryError{Messages: e.reg.ErrorMessages()}
	}

	res, err := e.matcher.Match(step, e.cm.Culture())
	if err != nil {
		return bindings.NonMatching, err
	}
	if res.Found() {
		return res.Match, nil
	}
	if res.Reason != matcher.AmbiguityNone {
		return res.Match, &AmbiguousMatchError{Step: step, Reason: res.Reason, Candidates: res.Candidates}
	}

	e.tracer.TraceNoMatchingStepDefinition(step, e.cm.Culture(), res.Candidates)
	sc.AddMissingStep(step)
	return res.Match, &MissingStepDefinitionError{Step: step}
}

func (e *Engine) skipStep(ctx context.Context, sc *contexts.ScenarioContext, stc *contexts.StepContext) {
	stc.SetStatus(contexts.Skipped)
	e.tracer.TraceStepSkipped()
	e.publisher.Publish(ctx, events.NewStepSkipped(sc, stc))

	for _, h := range container.ResolveAll[SkippedStepHandler](sc.Container()) {
		h.HandleSkippedStep(sc)
	}
}

func (e *Engine) executeArguments(ctx context.Context, match bindings.BindingMatch) ([]any, error) {
	params := match.StepBinding.Method.Params()
	if len(match.Arguments) > len(params) {
		return nil, parameterCountError(match)
	}
	for _, p := range params[len(match.Arguments):] {
		if !p.Optional {
			return nil, parameterCountError(match)
		}
	}

	culture := e.cm.Culture()
	if e.cfg.BindingCulture != "" {
		culture = e.cfg.BindingCulture
	}
	args := make([]any, len(match.Arguments))
	for i, a := range match.Arguments {
		v, err := e.converter.Convert(ctx, a, params[i].Type, culture)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (e *Engine) handleObsolete(match bindings.BindingMatch) {
	if match.StepBinding.Obsolete == "" || e.cfg.ObsoleteBehavior == ObsoleteNone {
		return
	}
	msg := fmt.Sprintf("The step definition %s is obsolete: %s",
		match.StepBinding.Method.Name(), match.StepBinding.Obsolete)
	e.tracer.TraceWarning(msg)
	e.log.Debug("obsolete step definition used", zap.String("method", match.StepBinding.Method.Name()))
}

func (e *Engine) executeStepMatch(ctx context.Context, match bindings.BindingMatch, args []any) (time.Duration, error) {
	e.publisher.Publish(ctx, events.NewStepBindingStarted(match.StepBinding))
	dur, err := e.invoker.Invoke(ctx, match.StepBinding.Method, args)
	e.publisher.Publish(ctx, events.NewStepBindingFinished(match.StepBinding, dur, err))

	if e.cfg.TraceTimings && dur >= e.cfg.MinTracedDuration {
		e.tracer.TraceDuration(dur, bindings.FormatMatch(match, args))
	}
	return dur, err
}

// switchBlock fires the block hooks when the scenario moves to block. Hooks
// only run while the scenario is still OK.
func (e *Engine) switchBlock(ctx context.Context, block bindings.ScenarioBlock) error {
	sc := e.cm.Scenario()
	current := sc.CurrentBlock()
	if current == block {
		return nil
	}

	if sc.Status() == contexts.OK && current != bindings.BlockNone {
		if err := e.hooks.Fire(ctx, bindings.AfterScenarioBlock); err != nil {
			return err
		}
	}

	sc.SetCurrentBlock(block)

	if sc.Status() == contexts.OK && block != bindings.BlockNone {
		if err := e.hooks.Fire(ctx, bindings.BeforeScenarioBlock); err != nil {
			return err
		}
	}
	return nil
}
