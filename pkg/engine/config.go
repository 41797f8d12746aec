package engine

import (
	"fmt"
	"strings"
	"time"
)

// MissingOrPendingOutcome decides how a scenario with pending or undefined
// steps ends.
type MissingOrPendingOutcome int

const (
	OutcomePending MissingOrPendingOutcome = iota
	OutcomeIgnore
	OutcomeError
)

func (o MissingOrPendingOutcome) String() string {
	switch o {
	case OutcomeIgnore:
		return "ignore"
	case OutcomeError:
		return "error"
	default:
		return "pending"
	}
}

func ParseMissingOrPendingOutcome(s string) (MissingOrPendingOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending", "inconclusive":
		return OutcomePending, nil
	case "ignore":
		return OutcomeIgnore, nil
	case "error":
		return OutcomeError, nil
	}
	return OutcomePending, fmt.Errorf("unknown missing or pending steps outcome %q", s)
}

// ObsoleteBehavior decides what happens when an obsolete step definition is
// used.
type ObsoleteBehavior int

const (
	ObsoleteNone ObsoleteBehavior = iota
	ObsoleteWarn
)

func (b ObsoleteBehavior) String() string {
	if b == ObsoleteWarn {
		return "warn"
	}
	return "none"
}

func ParseObsoleteBehavior(s string) (ObsoleteBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ObsoleteNone, nil
	case "warn":
		return ObsoleteWarn, nil
	}
	return ObsoleteNone, fmt.Errorf("unknown obsolete behavior %q", s)
}

// Config is the runtime behaviour of an engine.
type Config struct {
	StopAtFirstError        bool
	MissingOrPendingOutcome MissingOrPendingOutcome
	ObsoleteBehavior        ObsoleteBehavior
	TraceSuccessfulSteps    bool
	TraceTimings            bool
	// MinTracedDuration is the shortest step binding duration traced when
	// TraceTimings is on.
	MinTracedDuration time.Duration
	// BindingCulture, when set, is the culture arguments are converted with
	// instead of the feature language.
	BindingCulture string
	// Project names the project in analytics events.
	Project string
}

// DefaultConfig traces successful steps and reports missing steps as
// pending.
func DefaultConfig() Config {
	return Config{
		TraceSuccessfulSteps: true,
		MinTracedDuration:    100 * time.Millisecond,
		ObsoleteBehavior:     ObsoleteWarn,
	}
}
