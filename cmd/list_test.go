package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runList(t *testing.T, status string, noActivity bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunList(context.Background(), &buf, status, noActivity))
	return buf.String()
}

func recordLoginRun(t *testing.T) {
	t.Helper()
	inTempDir(t)
	runInit(t)
	writeFeature(t, "login.ft", loginFeature)
	_, err := runRun(t, loginRegistry(t), nil, RunOptions{})
	require.ErrorIs(t, err, ErrScenariosFailed)
}

func TestList_AllScenarios(t *testing.T) {
	recordLoginRun(t)

	out := runList(t, "", false)
	assert.Equal(t,
		"passed       fts/login.ft:2  User logs in\n"+
			"failed       fts/login.ft:7  Wrong password\n",
		out)
}

func TestList_FilterByStatus(t *testing.T) {
	recordLoginRun(t)

	out := runList(t, "failed", false)
	assert.Contains(t, out, "Wrong password")
	assert.NotContains(t, out, "User logs in")
}

func TestList_NoActivity(t *testing.T) {
	recordLoginRun(t)

	assert.Empty(t, runList(t, "", true))
}

func TestList_RequiresInit(t *testing.T) {
	inTempDir(t)
	var buf bytes.Buffer
	assert.ErrorIs(t, RunList(context.Background(), &buf, "", false), errNotInitialized)
}
