package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/matcher"
)

// ErrUnknownFailure is returned for a failed scenario that recorded no error.
var ErrUnknownFailure = errors.New("test failed with an unknown error")

// PendingError reports a scenario with pending or undefined steps.
type PendingError struct {
	Message string
}

func (e *PendingError) Error() string { return e.Message }

// IgnoredError reports a scenario that was skipped or whose pending steps
// are configured to be ignored.
type IgnoredError struct {
	Message string
}

func (e *IgnoredError) Error() string { return e.Message }

// MissingStepDefinitionError reports a step no definition matched.
type MissingStepDefinitionError struct {
	Step bindings.StepInstance
}

func (e *MissingStepDefinitionError) Error() string {
	return fmt.Sprintf("no matching step definition found for %q", e.Step.String())
}

// AmbiguousMatchError reports a step several definitions matched.
type AmbiguousMatchError struct {
	Step       bindings.StepInstance
	Reason     matcher.AmbiguityReason
	Candidates []bindings.BindingMatch
}

func (e *AmbiguousMatchError) Error() string {
	if e.Reason == matcher.AmbiguousParameters {
		return fmt.Sprintf("multiple step definitions match the step %q with ambiguous parameters: %s",
			e.Step.String(), matcher.DescribeCandidates(e.Candidates))
	}
	return fmt.Sprintf("ambiguous step definitions found for step %q: %s",
		e.Step.String(), matcher.DescribeCandidates(e.Candidates))
}

// InvalidRegistryError is returned when steps run against a registry that
// failed to build.
type InvalidRegistryError struct {
	Messages []string
}

func (e *InvalidRegistryError) Error() string {
	return "binding registry is invalid:\n  " + strings.Join(e.Messages, "\n  ")
}

func parameterCountError(m bindings.BindingMatch) error {
	return &bindings.BindingError{
		Method: m.StepBinding.Method.Name(),
		Message: fmt.Sprintf("parameter count mismatch: the step has %d arguments, the method takes %d",
			len(m.Arguments), len(m.StepBinding.Method.Params())),
	}
}
