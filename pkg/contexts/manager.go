package contexts

import (
	"errors"
	"fmt"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/container"
)

var (
	// ErrScopeActive is returned when initializing a level that is still
	// active.
	ErrScopeActive = errors.New("context is already active")

	// ErrNoParent is returned when initializing a level without its parent,
	// e.g. a scenario outside of a feature.
	ErrNoParent = errors.New("parent context is not active")
)

// Manager keeps the context stack of one worker: at most one feature,
// scenario and step at a time, nested under the shared test run context.
type Manager struct {
	run      *TestRunContext
	feature  *FeatureContext
	scenario *ScenarioContext
	step     *StepContext
}

func NewManager(run *TestRunContext) *Manager {
	if run == nil {
		run = NewTestRunContext()
	}
	return &Manager{run: run}
}

func (m *Manager) TestRun() *TestRunContext   { return m.run }
func (m *Manager) Feature() *FeatureContext   { return m.feature }
func (m *Manager) Scenario() *ScenarioContext { return m.scenario }
func (m *Manager) Step() *StepContext         { return m.step }

func (m *Manager) InitializeFeature(info FeatureInfo) (*FeatureContext, error) {
	if m.feature != nil {
		return nil, fmt.Errorf("feature %q: %w", m.feature.Info.Title, ErrScopeActive)
	}
	f := &FeatureContext{Info: info}
	f.container = container.New("feature", m.run.container)
	f.container.Register(f)
	f.stopwatch.Start()
	m.feature = f
	return f, nil
}

// CleanupFeature ends the active feature. Without one it does nothing.
func (m *Manager) CleanupFeature() error {
	if m.feature == nil {
		return nil
	}
	f := m.feature
	m.feature = nil
	f.stopwatch.Stop()
	return f.container.Close()
}

func (m *Manager) InitializeScenario(info ScenarioInfo) (*ScenarioContext, error) {
	if m.scenario != nil {
		return nil, fmt.Errorf("scenario %q: %w", m.scenario.Info.Title, ErrScopeActive)
	}
	if m.feature == nil {
		return nil, fmt.Errorf("scenario %q: %w", info.Title, ErrNoParent)
	}
	s := &ScenarioContext{Info: info}
	s.container = container.New("scenario", m.feature.container)
	s.container.Register(s)
	s.stopwatch.Start()
	m.scenario = s
	return s, nil
}

func (m *Manager) CleanupScenario() error {
	if m.scenario == nil {
		return nil
	}
	s := m.scenario
	m.scenario = nil
	s.stopwatch.Stop()
	return s.container.Close()
}

func (m *Manager) InitializeStep(step bindings.StepInstance) (*StepContext, error) {
	if m.step != nil {
		return nil, fmt.Errorf("step %q: %w", m.step.Info.Step.Text, ErrScopeActive)
	}
	if m.scenario == nil {
		return nil, fmt.Errorf("step %q: %w", step.Text, ErrNoParent)
	}
	s := &StepContext{Info: StepInfo{Step: step}}
	s.container = container.New("step", m.scenario.container)
	s.container.Register(s)
	s.stopwatch.Start()
	m.step = s

	m.scenario.mu.Lock()
	m.scenario.lastStepType = step.Type
	m.scenario.hasStepType = true
	m.scenario.mu.Unlock()
	return s, nil
}

func (m *Manager) CleanupStep() error {
	if m.step == nil {
		return nil
	}
	s := m.step
	m.step = nil
	s.stopwatch.Stop()
	return s.container.Close()
}

// ScopeTarget is what binding scopes are matched against right now.
func (m *Manager) ScopeTarget() bindings.ScopeTarget {
	var t bindings.ScopeTarget
	if m.feature != nil {
		t.FeatureTitle = m.feature.Info.Title
		t.FeatureTags = m.feature.Info.Tags
	}
	if m.scenario != nil {
		t.ScenarioTitle = m.scenario.Info.Title
		t.ScenarioTags = m.scenario.Info.Tags
	}
	return t
}

// Culture is the language of the active feature.
func (m *Manager) Culture() string {
	if m.feature == nil {
		return ""
	}
	return m.feature.Info.Language
}

// StepType resolves the step type for keyword. And and But continue the
// type of the previous step of the scenario, Given when there is none.
func (m *Manager) StepType(keyword bindings.StepKeyword) bindings.StepDefinitionType {
	if t, ok := keyword.DefinitionType(); ok {
		return t
	}
	if m.scenario == nil {
		return bindings.StepGiven
	}
	m.scenario.mu.Lock()
	defer m.scenario.mu.Unlock()
	if !m.scenario.hasStepType {
		return bindings.StepGiven
	}
	return m.scenario.lastStepType
}

// Container returns the innermost active container.
func (m *Manager) Container() *container.Container {
	switch {
	case m.step != nil:
		return m.step.container
	case m.scenario != nil:
		return m.scenario.container
	case m.feature != nil:
		return m.feature.container
	default:
		return m.run.container
	}
}
