// Package bindings holds the step definitions, hooks and argument transformations
// registered for a test run, and the machinery to convert and invoke them.
package bindings

import "strings"

// StepDefinitionType is the normalized kind of a step: Given, When or Then.
type StepDefinitionType int

const (
	StepGiven StepDefinitionType = iota
	StepWhen
	StepThen
)

func (t StepDefinitionType) String() string {
	switch t {
	case StepGiven:
		return "Given"
	case StepWhen:
		return "When"
	case StepThen:
		return "Then"
	default:
		return "Unknown"
	}
}

// Block returns the scenario block a step of this type belongs to.
func (t StepDefinitionType) Block() ScenarioBlock {
	switch t {
	case StepWhen:
		return BlockWhen
	case StepThen:
		return BlockThen
	default:
		return BlockGiven
	}
}

// StepKeyword is the keyword a step was written with. And and But take the
// type of the last top-level step.
type StepKeyword int

const (
	KeywordGiven StepKeyword = iota
	KeywordWhen
	KeywordThen
	KeywordAnd
	KeywordBut
)

func (k StepKeyword) String() string {
	switch k {
	case KeywordGiven:
		return "Given"
	case KeywordWhen:
		return "When"
	case KeywordThen:
		return "Then"
	case KeywordAnd:
		return "And"
	case KeywordBut:
		return "But"
	default:
		return "Unknown"
	}
}

// DefinitionType maps Given/When/Then keywords to their step type. It reports
// false for And and But.
func (k StepKeyword) DefinitionType() (StepDefinitionType, bool) {
	switch k {
	case KeywordGiven:
		return StepGiven, true
	case KeywordWhen:
		return StepWhen, true
	case KeywordThen:
		return StepThen, true
	default:
		return StepGiven, false
	}
}

// ParseKeyword maps keyword text to a StepKeyword. The bullet keyword "*"
// behaves like And.
func ParseKeyword(s string) (StepKeyword, bool) {
	switch strings.TrimSpace(s) {
	case "Given":
		return KeywordGiven, true
	case "When":
		return KeywordWhen, true
	case "Then":
		return KeywordThen, true
	case "And", "*":
		return KeywordAnd, true
	case "But":
		return KeywordBut, true
	}
	return KeywordAnd, false
}

// ScenarioBlock is the Given/When/Then section a scenario is currently in.
type ScenarioBlock int

const (
	BlockNone ScenarioBlock = iota
	BlockGiven
	BlockWhen
	BlockThen
	BlockSetup
	BlockTeardown
)

func (b ScenarioBlock) String() string {
	switch b {
	case BlockGiven:
		return "Given"
	case BlockWhen:
		return "When"
	case BlockThen:
		return "Then"
	case BlockSetup:
		return "Setup"
	case BlockTeardown:
		return "Teardown"
	default:
		return "None"
	}
}

// HookType is a lifecycle point hooks can be attached to.
type HookType int

const (
	BeforeTestRun HookType = iota
	AfterTestRun
	BeforeFeature
	AfterFeature
	BeforeScenario
	AfterScenario
	BeforeScenarioBlock
	AfterScenarioBlock
	BeforeStep
	AfterStep
)

var hookTypeNames = map[HookType]string{
	BeforeTestRun:       "BeforeTestRun",
	AfterTestRun:        "AfterTestRun",
	BeforeFeature:       "BeforeFeature",
	AfterFeature:        "AfterFeature",
	BeforeScenario:      "BeforeScenario",
	AfterScenario:       "AfterScenario",
	BeforeScenarioBlock: "BeforeScenarioBlock",
	AfterScenarioBlock:  "AfterScenarioBlock",
	BeforeStep:          "BeforeStep",
	AfterStep:           "AfterStep",
}

func (h HookType) String() string {
	if name, ok := hookTypeNames[h]; ok {
		return name
	}
	return "Unknown"
}

// Level reports which context a hook of this type runs against.
func (h HookType) Level() HookLevel {
	switch h {
	case BeforeTestRun, AfterTestRun:
		return LevelTestRun
	case BeforeFeature, AfterFeature:
		return LevelFeature
	default:
		return LevelScenario
	}
}

// HookLevel groups hook types by the context scope they belong to.
type HookLevel int

const (
	LevelTestRun HookLevel = iota
	LevelFeature
	LevelScenario
)

// DefaultOrder is the order given to hooks and transformations registered
// without an explicit one.
const DefaultOrder = 10000
