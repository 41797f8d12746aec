package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoRuns is returned by LastRun before anything was recorded.
var ErrNoRuns = errors.New("no runs recorded")

// NoActivity is the status reported for scenarios without a recorded result.
const NoActivity = "no-activity"

// Run is one recorded execution of ft run.
type Run struct {
	ID       uuid.UUID
	Started  time.Time
	Duration time.Duration
	Failed   bool
	Error    string
	Results  []Result
}

// Result is the recorded outcome of one scenario.
type Result struct {
	Path     string
	Scenario string
	Line     int
	Status   string
	Message  string
	Duration time.Duration
}

type StatusCount struct {
	Status string
	Count  int
}

// ScenarioStatus is the latest recorded status of a scenario.
type ScenarioStatus struct {
	Path     string
	Scenario string
	Line     int
	Status   string
	Message  string
}

// RecordRun stores run and its results in one transaction. Files and
// scenarios are created on first sight.
func RecordRun(ctx context.Context, sqlDB *sql.DB, run Run) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, duration_ms, failed, error) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.Started.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(), run.Failed, run.Error)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	files := map[string]int64{}
	for _, r := range run.Results {
		fileID, ok := files[r.Path]
		if !ok {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO files (file_path) VALUES (?)
				ON CONFLICT (file_path) DO UPDATE SET updated_at = datetime('now')
				RETURNING id`, r.Path).Scan(&fileID)
			if err != nil {
				return fmt.Errorf("upserting file %s: %w", r.Path, err)
			}
			files[r.Path] = fileID
		}

		var scenarioID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO scenarios (file_id, name, line) VALUES (?, ?, ?)
			ON CONFLICT (file_id, name) DO UPDATE SET line = excluded.line
			RETURNING id`, fileID, r.Scenario, r.Line).Scan(&scenarioID)
		if err != nil {
			return fmt.Errorf("upserting scenario %s: %w", r.Scenario, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO statuses (scenario_id, run_id, status, message, duration_ms) VALUES (?, ?, ?, ?, ?)`,
			scenarioID, runID, r.Status, r.Message, r.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// StatusCounts counts scenarios by their latest status, most common first.
// Scenarios without results come last as NoActivity.
func StatusCounts(ctx context.Context, sqlDB *sql.DB) ([]StatusCount, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT COALESCE(
			(SELECT status FROM statuses WHERE scenario_id = s.id ORDER BY id DESC LIMIT 1),
			?
		) AS current_status, COUNT(*) AS cnt
		FROM scenarios s
		GROUP BY current_status
		ORDER BY CASE WHEN current_status = ? THEN 1 ELSE 0 END, cnt DESC, current_status
	`, NoActivity, NoActivity)
	if err != nil {
		return nil, fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning status row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// LatestStatuses lists every scenario with its latest status, ordered by
// file and line.
func LatestStatuses(ctx context.Context, sqlDB *sql.DB) ([]ScenarioStatus, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT f.file_path, s.name, s.line,
			COALESCE(st.status, ?), COALESCE(st.message, '')
		FROM scenarios s
		JOIN files f ON f.id = s.file_id
		LEFT JOIN statuses st ON st.id = (
			SELECT id FROM statuses WHERE scenario_id = s.id ORDER BY id DESC LIMIT 1
		)
		ORDER BY f.file_path, s.line, s.name
	`, NoActivity)
	if err != nil {
		return nil, fmt.Errorf("querying latest statuses: %w", err)
	}
	defer rows.Close()

	var out []ScenarioStatus
	for rows.Next() {
		var s ScenarioStatus
		if err := rows.Scan(&s.Path, &s.Scenario, &s.Line, &s.Status, &s.Message); err != nil {
			return nil, fmt.Errorf("scanning scenario row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastRun returns the most recently recorded run without its results.
func LastRun(ctx context.Context, sqlDB *sql.DB) (Run, error) {
	var (
		run        Run
		id         string
		started    string
		durationMS int64
	)
	err := sqlDB.QueryRowContext(ctx,
		`SELECT run_id, started_at, duration_ms, failed, error FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&id, &started, &durationMS, &run.Failed, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying last run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("parsing run id: %w", err)
	}
	if run.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parsing run start: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
