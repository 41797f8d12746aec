package runner

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chriserin/ftrun/pkg/engine"
)

// Outcome is how a scenario ended from the host's point of view.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Pending
	// Skipped scenarios did not run because their feature failed to start.
	Skipped
	// Ignored scenarios were excluded with @ignore or by configuration.
	Ignored
)

var outcomeNames = [...]string{
	Passed:  "passed",
	Failed:  "failed",
	Pending: "pending",
	Skipped: "skipped",
	Ignored: "ignored",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), true
		}
	}
	return Failed, false
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Feature  string
	Path     string
	Scenario string
	Line     int
	Outcome  Outcome
	Err      error
	Duration time.Duration
	// MissingSteps holds a step definition snippet for every undefined step.
	MissingSteps []string

	featureIndex  int
	scenarioIndex int
}

// Report collects the results of a run in feature file order.
type Report struct {
	RunID    uuid.UUID
	Started  time.Time
	Duration time.Duration
	Results  []ScenarioResult
	// Err holds failures outside of scenarios, such as test run hooks.
	Err error
}

func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// MissingSteps returns the distinct snippets of all undefined steps in result
// order.
func (r *Report) MissingSteps() []string {
	seen := make(map[string]bool)
	var out []string
	for _, res := range r.Results {
		for _, s := range res.MissingSteps {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Failed reports whether the run should be considered failed.
func (r *Report) Failed() bool {
	return r.Err != nil || r.Count(Failed) > 0 || r.Count(Skipped) > 0
}

func outcomeOf(err error) Outcome {
	var (
		pending *engine.PendingError
		ignored *engine.IgnoredError
	)
	switch {
	case err == nil:
		return Passed
	case errors.As(err, &pending):
		return Pending
	case errors.As(err, &ignored):
		return Ignored
	default:
		return Failed
	}
}
