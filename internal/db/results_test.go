package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigratedDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := Open(filepath.Join(t.TempDir(), "ft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func TestLastRun_Empty(t *testing.T) {
	_, err := LastRun(context.Background(), openMigratedDB(t))
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	sqlDB := openMigratedDB(t)

	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	first := Run{
		ID:       uuid.New(),
		Started:  started,
		Duration: 1500 * time.Millisecond,
		Failed:   true,
		Results: []Result{
			{Path: "fts/login.ft", Scenario: "Valid password", Line: 3, Status: "passed"},
			{Path: "fts/login.ft", Scenario: "Wrong password", Line: 8, Status: "failed", Message: "boom"},
			{Path: "fts/cart.ft", Scenario: "Add item", Line: 2, Status: "pending"},
		},
	}
	require.NoError(t, RecordRun(ctx, sqlDB, first))

	last, err := LastRun(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, first.ID, last.ID)
	assert.True(t, last.Started.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, last.Duration)
	assert.True(t, last.Failed)

	counts, err := StatusCounts(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{
		{Status: "failed", Count: 1},
		{Status: "passed", Count: 1},
		{Status: "pending", Count: 1},
	}, counts)

	second := Run{
		ID:      uuid.New(),
		Started: started.Add(time.Hour),
		Results: []Result{
			{Path: "fts/login.ft", Scenario: "Wrong password", Line: 9, Status: "passed"},
		},
	}
	require.NoError(t, RecordRun(ctx, sqlDB, second))

	counts, err = StatusCounts(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{
		{Status: "passed", Count: 2},
		{Status: "pending", Count: 1},
	}, counts)

	statuses, err := LatestStatuses(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, []ScenarioStatus{
		{Path: "fts/cart.ft", Scenario: "Add item", Line: 2, Status: "pending"},
		{Path: "fts/login.ft", Scenario: "Valid password", Line: 3, Status: "passed"},
		{Path: "fts/login.ft", Scenario: "Wrong password", Line: 9, Status: "passed"},
	}, statuses)

	last, err = LastRun(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)
	assert.False(t, last.Failed)
}

func TestStatusCounts_NoActivityLast(t *testing.T) {
	ctx := context.Background()
	sqlDB := openMigratedDB(t)

	_, err := sqlDB.Exec(`INSERT INTO files (file_path) VALUES ('fts/a.ft')`)
	require.NoError(t, err)
	_, err = sqlDB.Exec(`INSERT INTO scenarios (file_id, name) VALUES (1, 'never run')`)
	require.NoError(t, err)
	require.NoError(t, RecordRun(ctx, sqlDB, Run{
		ID:      uuid.New(),
		Started: time.Now(),
		Results: []Result{{Path: "fts/a.ft", Scenario: "ran", Status: "passed"}},
	}))

	counts, err := StatusCounts(ctx, sqlDB)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, StatusCount{Status: "passed", Count: 1}, counts[0])
	assert.Equal(t, StatusCount{Status: NoActivity, Count: 1}, counts[1])
}

func TestRecordRun_DuplicateRunIDRollsBack(t *testing.T) {
	ctx := context.Background()
	sqlDB := openMigratedDB(t)

	run := Run{
		ID:      uuid.New(),
		Started: time.Now(),
		Results: []Result{{Path: "fts/a.ft", Scenario: "s", Status: "passed"}},
	}
	require.NoError(t, RecordRun(ctx, sqlDB, run))
	require.Error(t, RecordRun(ctx, sqlDB, run))

	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM statuses`).Scan(&n))
	assert.Equal(t, 1, n)
}
