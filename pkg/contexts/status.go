// Package contexts holds the per-level execution contexts of a run and the
// manager that keeps them paired.
package contexts

// Status is the execution status of a scenario or step. Statuses are ordered
// by severity; a scenario's status never decreases.
type Status int

const (
	OK Status = iota
	Skipped
	StepDefinitionPending
	UndefinedStep
	BindingError
	TestError
	AmbiguousMatch
)

var statusNames = [...]string{
	OK:                    "OK",
	Skipped:               "Skipped",
	StepDefinitionPending: "StepDefinitionPending",
	UndefinedStep:         "UndefinedStep",
	BindingError:          "BindingError",
	TestError:             "TestError",
	AmbiguousMatch:        "AmbiguousMatch",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

// Max returns the more severe of s and other.
func (s Status) Max(other Status) Status {
	if other > s {
		return other
	}
	return s
}
