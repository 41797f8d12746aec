// Package events defines the lifecycle events of a run and the publisher
// that delivers them to listeners.
package events

import (
	"time"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
)

// Kind identifies an event type.
type Kind int

const (
	KindRunStarted Kind = iota
	KindRunFinished
	KindFeatureStarted
	KindFeatureFinished
	KindScenarioStarted
	KindScenarioSkipped
	KindScenarioFinished
	KindStepStarted
	KindStepSkipped
	KindStepFinished
	KindHookStarted
	KindHookFinished
	KindHookBindingStarted
	KindHookBindingFinished
	KindStepBindingStarted
	KindStepBindingFinished
)

var kindNames = [...]string{
	KindRunStarted:          "RunStarted",
	KindRunFinished:         "RunFinished",
	KindFeatureStarted:      "FeatureStarted",
	KindFeatureFinished:     "FeatureFinished",
	KindScenarioStarted:     "ScenarioStarted",
	KindScenarioSkipped:     "ScenarioSkipped",
	KindScenarioFinished:    "ScenarioFinished",
	KindStepStarted:         "StepStarted",
	KindStepSkipped:         "StepSkipped",
	KindStepFinished:        "StepFinished",
	KindHookStarted:         "HookStarted",
	KindHookFinished:        "HookFinished",
	KindHookBindingStarted:  "HookBindingStarted",
	KindHookBindingFinished: "HookBindingFinished",
	KindStepBindingStarted:  "StepBindingStarted",
	KindStepBindingFinished: "StepBindingFinished",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Event is published at a lifecycle point.
type Event interface {
	Kind() Kind
	At() time.Time
}

// Header carries the fields shared by all events.
type Header struct {
	Time time.Time
}

func (h Header) At() time.Time { return h.Time }

func now() Header { return Header{Time: time.Now()} }

type RunStarted struct {
	Header
	Run *contexts.TestRunContext
}

type RunFinished struct {
	Header
	Run *contexts.TestRunContext
}

type FeatureStarted struct {
	Header
	Feature *contexts.FeatureContext
}

type FeatureFinished struct {
	Header
	Feature *contexts.FeatureContext
}

type ScenarioStarted struct {
	Header
	Feature  *contexts.FeatureContext
	Scenario *contexts.ScenarioContext
}

type ScenarioSkipped struct {
	Header
	Feature  *contexts.FeatureContext
	Scenario *contexts.ScenarioContext
}

type ScenarioFinished struct {
	Header
	Feature  *contexts.FeatureContext
	Scenario *contexts.ScenarioContext
}

type StepStarted struct {
	Header
	Scenario *contexts.ScenarioContext
	Step     *contexts.StepContext
}

type StepSkipped struct {
	Header
	Scenario *contexts.ScenarioContext
	Step     *contexts.StepContext
}

type StepFinished struct {
	Header
	Scenario *contexts.ScenarioContext
	Step     *contexts.StepContext
}

type HookStarted struct {
	Header
	Type bindings.HookType
}

type HookFinished struct {
	Header
	Type bindings.HookType
	Err  error
}

type HookBindingStarted struct {
	Header
	Hook *bindings.HookBinding
}

type HookBindingFinished struct {
	Header
	Hook     *bindings.HookBinding
	Duration time.Duration
	Err      error
}

type StepBindingStarted struct {
	Header
	Binding *bindings.StepDefinitionBinding
}

type StepBindingFinished struct {
	Header
	Binding  *bindings.StepDefinitionBinding
	Duration time.Duration
	Err      error
}

func (RunStarted) Kind() Kind          { return KindRunStarted }
func (RunFinished) Kind() Kind         { return KindRunFinished }
func (FeatureStarted) Kind() Kind      { return KindFeatureStarted }
func (FeatureFinished) Kind() Kind     { return KindFeatureFinished }
func (ScenarioStarted) Kind() Kind     { return KindScenarioStarted }
func (ScenarioSkipped) Kind() Kind     { return KindScenarioSkipped }
func (ScenarioFinished) Kind() Kind    { return KindScenarioFinished }
func (StepStarted) Kind() Kind         { return KindStepStarted }
func (StepSkipped) Kind() Kind         { return KindStepSkipped }
func (StepFinished) Kind() Kind        { return KindStepFinished }
func (HookStarted) Kind() Kind         { return KindHookStarted }
func (HookFinished) Kind() Kind        { return KindHookFinished }
func (HookBindingStarted) Kind() Kind  { return KindHookBindingStarted }
func (HookBindingFinished) Kind() Kind { return KindHookBindingFinished }
func (StepBindingStarted) Kind() Kind  { return KindStepBindingStarted }
func (StepBindingFinished) Kind() Kind { return KindStepBindingFinished }

// Constructors stamp the event time.

func NewRunStarted(run *contexts.TestRunContext) RunStarted {
	return RunStarted{Header: now(), Run: run}
}

func NewRunFinished(run *contexts.TestRunContext) RunFinished {
	return RunFinished{Header: now(), Run: run}
}

func NewFeatureStarted(f *contexts.FeatureContext) FeatureStarted {
	return FeatureStarted{Header: now(), Feature: f}
}

func NewFeatureFinished(f *contexts.FeatureContext) FeatureFinished {
	return FeatureFinished{Header: now(), Feature: f}
}

func NewScenarioStarted(f *contexts.FeatureContext, s *contexts.ScenarioContext) ScenarioStarted {
	return ScenarioStarted{Header: now(), Feature: f, Scenario: s}
}

func NewScenarioSkipped(f *contexts.FeatureContext, s *contexts.ScenarioContext) ScenarioSkipped {
	return ScenarioSkipped{Header: now(), Feature: f, Scenario: s}
}

func NewScenarioFinished(f *contexts.FeatureContext, s *contexts.ScenarioContext) ScenarioFinished {
	return ScenarioFinished{Header: now(), Feature: f, Scenario: s}
}

func NewStepStarted(s *contexts.ScenarioContext, st *contexts.StepContext) StepStarted {
	return StepStarted{Header: now(), Scenario: s, Step: st}
}

func NewStepSkipped(s *contexts.ScenarioContext, st *contexts.StepContext) StepSkipped {
	return StepSkipped{Header: now(), Scenario: s, Step: st}
}

func NewStepFinished(s *contexts.ScenarioContext, st *contexts.StepContext) StepFinished {
	return StepFinished{Header: now(), Scenario: s, Step: st}
}

func NewHookStarted(t bindings.HookType) HookStarted {
	return HookStarted{Header: now(), Type: t}
}

func NewHookFinished(t bindings.HookType, err error) HookFinished {
	return HookFinished{Header: now(), Type: t, Err: err}
}

func NewHookBindingStarted(h *bindings.HookBinding) HookBindingStarted {
	return HookBindingStarted{Header: now(), Hook: h}
}

func NewHookBindingFinished(h *bindings.HookBinding, d time.Duration, err error) HookBindingFinished {
	return HookBindingFinished{Header: now(), Hook: h, Duration: d, Err: err}
}

func NewStepBindingStarted(b *bindings.StepDefinitionBinding) StepBindingStarted {
	return StepBindingStarted{Header: now(), Binding: b}
}

func NewStepBindingFinished(b *bindings.StepDefinitionBinding, d time.Duration, err error) StepBindingFinished {
	return StepBindingFinished{Header: now(), Binding: b, Duration: d, Err: err}
}
