package main

import (
	"testing"

	"github.com/metalagman/atlas/internal/config"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCmd_LatestRun(t *testing.T) {
	newProject(t)

	_, err := execute(t, runCmd())
	require.NoError(t, err)

	out, err := execute(t, askCmd(), "--raw", "any", "safety", "violations?")
	require.NoError(t, err)
	assert.Contains(t, out, "## Safety")
	assert.NotContains(t, out, "## Scheduler")

	out, err = execute(t, askCmd(), "--raw", "what's the final score?")
	require.NoError(t, err)
	assert.Contains(t, out, "## Evaluator")
	assert.Contains(t, out, "Score: 10.0 / 10")
}

func TestAskCmd_UnclearQuestionPrintsHint(t *testing.T) {
	newProject(t)

	_, err := execute(t, runCmd())
	require.NoError(t, err)

	out, err := execute(t, askCmd(), "--raw", "what's for lunch?")
	require.NoError(t, err)
	assert.Contains(t, out, "couldn't understand the question")
}

func TestAskCmd_ByRunID(t *testing.T) {
	newProject(t)

	_, err := execute(t, askCmd(), "--raw", "schedule")
	require.ErrorIs(t, err, snapshot.ErrRunNotFound)

	_, err = execute(t, runCmd())
	require.NoError(t, err)
	metas, err := snapshot.NewStore(config.Default().Output.RunsDir).List()
	require.NoError(t, err)
	require.Len(t, metas, 1)

	out, err := execute(t, askCmd(), "--raw", "--run", metas[0].ID, "schedule")
	require.NoError(t, err)
	assert.Contains(t, out, "## Scheduler")
}
