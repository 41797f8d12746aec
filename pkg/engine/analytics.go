package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyticsEvent is sent once per run when analytics are enabled.
type AnalyticsEvent struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Name      string
	Project   string
	GoVersion string
	Platform  string
	Time      time.Time
}

// NewProjectRunningEvent describes the start of a run of project.
func NewProjectRunningEvent(runID uuid.UUID, project string) AnalyticsEvent {
	return AnalyticsEvent{
		ID:        uuid.New(),
		RunID:     runID,
		Name:      "ProjectRunning",
		Project:   project,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Time:      time.Now().UTC(),
	}
}

// AnalyticsTransmitter delivers analytics events. Failures never affect the
// run.
type AnalyticsTransmitter interface {
	Enabled() bool
	TransmitProjectRunning(ctx context.Context, e AnalyticsEvent) error
}

// LogTransmitter records analytics events in the log instead of sending
// them anywhere.
type LogTransmitter struct {
	On  bool
	Log *zap.Logger
}

func (t LogTransmitter) Enabled() bool { return t.On }

func (t LogTransmitter) TransmitProjectRunning(_ context.Context, e AnalyticsEvent) error {
	if t.Log == nil {
		return nil
	}
	t.Log.Info("analytics event",
		zap.String("event", e.Name),
		zap.Stringer("id", e.ID),
		zap.Stringer("run_id", e.RunID),
		zap.String("project", e.Project),
		zap.String("go", e.GoVersion),
		zap.String("platform", e.Platform))
	return nil
}

type disabledTransmitter struct{}

func (disabledTransmitter) Enabled() bool { return false }

func (disabledTransmitter) TransmitProjectRunning(context.Context, AnalyticsEvent) error {
	return nil
}
