package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/metalagman/atlas/internal/evaluate"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFiles_MixedOutcomesKeepOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeDoc(t, dir, "good.json",
		`{"emails":[{"date":"2024-01-01","subject":"HVAC","body":"Shipment delay reported"}]}`)
	yamlDoc := writeDoc(t, dir, "site.yaml",
		"inspection_reports:\n  - date: \"2024-03-03\"\n    area: Roof\n    status: FAIL\n    comments: membrane gap\n")
	bad := writeDoc(t, dir, "bad.json", `{"emails":[{"date":"2024-01-01","subject":"x"}]}`)
	missing := filepath.Join(dir, "missing.json")

	store := snapshot.NewStore(filepath.Join(dir, "runs"))
	r := &Runner{Pipeline: pipeline.New(nil), Store: store, Parallelism: 2}

	outcomes, err := r.RunFiles(context.Background(), []string{good, yamlDoc, bad, missing})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	assert.Equal(t, 2, Failed(outcomes))

	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, good, outcomes[0].Source)
	require.Len(t, outcomes[0].Result.Issues, 1)
	assert.Equal(t, model.IssueDelay, outcomes[0].Result.Issues[0].IssueType)

	require.NoError(t, outcomes[1].Err)
	assert.Equal(t, model.RoleQAQC, outcomes[1].Result.Routes[0].AssignedRole)

	require.ErrorIs(t, outcomes[2].Err, records.ErrMalformedRecord)
	assert.NotEmpty(t, outcomes[2].RunID, "failed run is still recorded")

	require.Error(t, outcomes[3].Err)
	assert.Empty(t, outcomes[3].RunID)

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 3)

	failed, err := store.Load(outcomes[2].RunID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusFailed, failed.Meta.Status)
	assert.Contains(t, failed.Meta.Error, `field "body" is missing`)
}

func TestRunDocument_WithoutStore(t *testing.T) {
	t.Parallel()

	r := &Runner{Pipeline: pipeline.New(evaluate.Constant())}
	out := r.RunDocument(context.Background(), "inline", records.Document{})
	require.NoError(t, out.Err)
	assert.Empty(t, out.RunID)
	assert.Empty(t, out.Result.Issues)
	assert.Equal(t, "All actions SOP-aligned.", out.Result.Evaluation.Remarks)
}

func TestRunFiles_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.json", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{}
	outcomes, err := r.RunFiles(ctx, []string{path, path})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, Failed(outcomes))
}

func TestRunFiles_Empty(t *testing.T) {
	t.Parallel()

	outcomes, err := (&Runner{}).RunFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
