package acceptance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
	"github.com/chriserin/ftrun/pkg/engine"
	"github.com/chriserin/ftrun/pkg/runner"
)

// world is the state of one acceptance scenario.
type world struct {
	reg      *bindings.Registry
	features []runner.Feature
	report   *runner.Report
	ran      []string
	hookSaw  [][2]string
}

func InitializeScenario(sc *godog.ScenarioContext) {
	w := &world{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*w = world{reg: bindings.NewRegistry()}
		return ctx, nil
	})

	sc.Step(`^a step "([^"]*)" that passes$`, w.passingStep)
	sc.Step(`^a step "([^"]*)" that fails with "([^"]*)"$`, w.failingStep)
	sc.Step(`^an after step hook that records the step and its status$`, w.afterStepHook)
	sc.Step(`^a before feature hook that fails with "([^"]*)"$`, w.failingBeforeFeatureHook)
	sc.Step(`^a feature file "([^"]*)":$`, w.featureFile)
	sc.Step(`^I run the feature files$`, w.run)
	sc.Step(`^scenario "([^"]*)" is (passed|failed|pending|skipped|ignored)$`, w.scenarioOutcome)
	sc.Step(`^scenario "([^"]*)" is (failed|skipped) with "([^"]*)"$`, w.scenarioOutcomeWithError)
	sc.Step(`^a snippet was suggested for "([^"]*)"$`, w.snippetSuggested)
	sc.Step(`^the steps ran in order:$`, w.stepsRan)
	sc.Step(`^no steps ran$`, w.noStepsRan)
	sc.Step(`^the after step hook saw:$`, w.hookSawSteps)
	sc.Step(`^the run (passed|failed)$`, w.runResult)
}

func (w *world) passingStep(pattern string) error {
	return w.reg.Step(pattern, func() { w.ran = append(w.ran, pattern) })
}

func (w *world) failingStep(pattern, msg string) error {
	return w.reg.Step(pattern, func() error {
		w.ran = append(w.ran, pattern)
		return errors.New(msg)
	})
}

func (w *world) afterStepHook() error {
	return w.reg.Hook(bindings.AfterStep, func(stc *contexts.StepContext) {
		w.hookSaw = append(w.hookSaw, [2]string{stc.Info.Step.Text, stc.Status().String()})
	})
}

func (w *world) failingBeforeFeatureHook(msg string) error {
	return w.reg.Hook(bindings.BeforeFeature, func() error { return errors.New(msg) })
}

func (w *world) featureFile(path string, doc *godog.DocString) error {
	f, err := runner.ParseFeature(path, []byte(doc.Content+"\n"))
	if err != nil {
		return err
	}
	w.features = append(w.features, f)
	return nil
}

func (w *world) run(ctx context.Context) error {
	r, err := runner.New(runner.Options{Config: engine.DefaultConfig(), Registry: w.reg})
	if err != nil {
		return err
	}
	w.report = r.Run(ctx, w.features)
	return nil
}

func (w *world) result(title string) (runner.ScenarioResult, error) {
	if w.report == nil {
		return runner.ScenarioResult{}, errors.New("the feature files have not been run")
	}
	for _, res := range w.report.Results {
		if res.Scenario == title {
			return res, nil
		}
	}
	return runner.ScenarioResult{}, fmt.Errorf("no result for scenario %q", title)
}

func (w *world) scenarioOutcome(title, outcome string) error {
	res, err := w.result(title)
	if err != nil {
		return err
	}
	if res.Outcome.String() != outcome {
		return fmt.Errorf("scenario %q is %s, want %s (error: %v)", title, res.Outcome, outcome, res.Err)
	}
	return nil
}

func (w *world) scenarioOutcomeWithError(title, outcome, msg string) error {
	if err := w.scenarioOutcome(title, outcome); err != nil {
		return err
	}
	res, _ := w.result(title)
	if res.Err == nil || !strings.Contains(res.Err.Error(), msg) {
		return fmt.Errorf("scenario %q error is %v, want it to contain %q", title, res.Err, msg)
	}
	return nil
}

func (w *world) snippetSuggested(text string) error {
	for _, s := range w.report.MissingSteps() {
		if strings.Contains(s, "`"+text+"`") {
			return nil
		}
	}
	return fmt.Errorf("no snippet for %q in %q", text, w.report.MissingSteps())
}

func (w *world) stepsRan(table *godog.Table) error {
	var want []string
	for _, row := range table.Rows {
		want = append(want, row.Cells[0].Value)
	}
	if strings.Join(want, ",") != strings.Join(w.ran, ",") {
		return fmt.Errorf("steps ran %q, want %q", w.ran, want)
	}
	return nil
}

func (w *world) noStepsRan() error {
	if len(w.ran) > 0 {
		return fmt.Errorf("steps ran %q, want none", w.ran)
	}
	return nil
}

func (w *world) hookSawSteps(table *godog.Table) error {
	if len(table.Rows) != len(w.hookSaw) {
		return fmt.Errorf("hook saw %q, want %d steps", w.hookSaw, len(table.Rows))
	}
	for i, row := range table.Rows {
		want := [2]string{row.Cells[0].Value, row.Cells[1].Value}
		if w.hookSaw[i] != want {
			return fmt.Errorf("hook call %d saw %q, want %q", i, w.hookSaw[i], want)
		}
	}
	return nil
}

func (w *world) runResult(result string) error {
	if got := w.report.Failed(); got != (result == "failed") {
		return fmt.Errorf("run failed is %t, want %s", got, result)
	}
	return nil
}
