package contexts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/container"
)

// Stopwatch measures the time a context has been active.
type Stopwatch struct {
	start time.Time
	stop  time.Time
}

func (s *Stopwatch) Start() {
	s.start = time.Now()
	s.stop = time.Time{}
}

func (s *Stopwatch) Stop() {
	if s.stop.IsZero() {
		s.stop = time.Now()
	}
}

// Elapsed is the time between Start and Stop, or until now while running.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	if s.stop.IsZero() {
		return time.Since(s.start)
	}
	return s.stop.Sub(s.start)
}

// FeatureInfo describes the feature being executed.
type FeatureInfo struct {
	Title       string
	Description string
	Tags        []string
	// Language is the culture of the feature file, e.g. "de-DE". Empty is
	// the invariant culture.
	Language string
	Path     string
}

// ScenarioInfo describes the scenario being executed.
type ScenarioInfo struct {
	Title       string
	Description string
	Tags        []string
	Line        int
}

// CombinedTags returns the feature tags followed by the scenario tags.
func CombinedTags(f FeatureInfo, s ScenarioInfo) []string {
	tags := make([]string, 0, len(f.Tags)+len(s.Tags))
	tags = append(tags, f.Tags...)
	return append(tags, s.Tags...)
}

// StepInfo describes the step being executed and the definition it matched.
type StepInfo struct {
	Step         bindings.StepInstance
	BindingMatch bindings.BindingMatch
}

// holder carries what every context level owns: an error, a stopwatch and a
// container.
type holder struct {
	mu        sync.Mutex
	err       error
	stopwatch Stopwatch
	container *container.Container
}

func (h *holder) Container() *container.Container { return h.container }

func (h *holder) Stopwatch() *Stopwatch { return &h.stopwatch }

func (h *holder) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// RecordError stores err unless an error is already recorded. It reports
// whether err was stored.
func (h *holder) RecordError(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil || err == nil {
		return false
	}
	h.err = err
	return true
}

// TestRunContext lives for the whole run and is shared by all workers.
type TestRunContext struct {
	holder
	ID uuid.UUID
}

// NewTestRunContext creates the run context with a root container.
func NewTestRunContext() *TestRunContext {
	c := &TestRunContext{ID: uuid.New()}
	c.container = container.New("testrun", nil)
	c.container.Register(c)
	c.stopwatch.Start()
	return c
}

// FeatureContext lives for one feature on one worker.
type FeatureContext struct {
	holder
	Info FeatureInfo
}

// BeforeFeatureHookError is the error of a failed BeforeFeature hook, if any.
// Scenarios of the feature are skipped when it is set.
func (f *FeatureContext) BeforeFeatureHookError() error {
	return f.Err()
}

// ScenarioContext lives for one scenario.
type ScenarioContext struct {
	holder
	Info ScenarioInfo

	block        bindings.ScenarioBlock
	status       Status
	pending      []string
	missing      []bindings.StepInstance
	lastStepType bindings.StepDefinitionType
	hasStepType  bool
}

func (s *ScenarioContext) CurrentBlock() bindings.ScenarioBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.block
}

func (s *ScenarioContext) SetCurrentBlock(b bindings.ScenarioBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = b
}

func (s *ScenarioContext) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Escalate raises the status to st if st is more severe and returns the
// resulting status.
func (s *ScenarioContext) Escalate(st Status) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = s.status.Max(st)
	return s.status
}

// TestError is the error that failed the scenario.
func (s *ScenarioContext) TestError() error {
	return s.Err()
}

// SetTestError replaces the scenario error.
func (s *ScenarioContext) SetTestError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// AddPendingStep records a step whose definition reported itself pending.
func (s *ScenarioContext) AddPendingStep(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, desc)
}

func (s *ScenarioContext) PendingSteps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// AddMissingStep records a step without a matching definition.
func (s *ScenarioContext) AddMissingStep(step bindings.StepInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing = append(s.missing, step)
}

func (s *ScenarioContext) MissingSteps() []bindings.StepInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bindings.StepInstance(nil), s.missing...)
}

// StepContext lives for one step.
type StepContext struct {
	holder
	Info StepInfo

	status Status
}

func (s *StepContext) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *StepContext) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// SetBindingMatch records the definition the step resolved to.
func (s *StepContext) SetBindingMatch(m bindings.BindingMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Info.BindingMatch = m
}

func (s *StepContext) BindingMatch() bindings.BindingMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Info.BindingMatch
}
