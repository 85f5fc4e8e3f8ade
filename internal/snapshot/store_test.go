package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runIDPattern = regexp.MustCompile(`^\d{8}-\d{6}-[0-9a-f]{8}$`)

func sampleDocument() records.Document {
	return records.Document{
		Emails: []records.Record{
			{"date": "2024-01-01", "subject": "HVAC", "body": "Shipment delay reported"},
		},
		SiteLogs: []records.Record{
			{"log_date": "2024-02-02", "description": "PPE violation on Level 2"},
		},
	}
}

// fixedClock returns a clock that advances one minute per call.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "runs"))
	s.now = fixedClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	return s
}

func saveRun(t *testing.T, s *Store, doc records.Document) Meta {
	t.Helper()
	meta, err := s.Create("test.json", doc)
	require.NoError(t, err)
	res, err := pipeline.Run(doc)
	require.NoError(t, err)
	meta, err = s.Save(meta, res)
	require.NoError(t, err)
	return meta
}

func TestCreate_WritesInputAndRunningMeta(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	meta, err := s.Create("site.json", sampleDocument())
	require.NoError(t, err)

	assert.Regexp(t, runIDPattern, meta.ID)
	assert.Equal(t, StatusRunning, meta.Status)
	assert.Equal(t, "site.json", meta.Source)

	data, err := os.ReadFile(filepath.Join(s.Dir(), meta.ID, FileInput))
	require.NoError(t, err)
	var doc records.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Emails, 1)
	assert.Len(t, doc.SiteLogs, 1)
}

func TestSave_WritesStageFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	meta := saveRun(t, s, sampleDocument())
	runDir := filepath.Join(s.Dir(), meta.ID)

	assert.Equal(t, StatusPassed, meta.Status)
	assert.Equal(t, 2, meta.IssueCount)
	assert.True(t, meta.Compliant)

	scanner, err := os.ReadFile(filepath.Join(runDir, FileScanner))
	require.NoError(t, err)
	assert.Equal(t,
		"[type_delay] 2024-01-01 - HVAC: Shipment delay reported\n"+
			"[type_safety] 2024-02-02 - PPE violation on Level 2\n",
		string(scanner))

	var dispatcher struct {
		Routing []model.Route `json:"routing"`
	}
	data, err := os.ReadFile(filepath.Join(runDir, FileDispatcher))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &dispatcher))
	require.Len(t, dispatcher.Routing, 2)
	assert.Equal(t, model.RoleSafety, dispatcher.Routing[1].AssignedRole)

	var scheduler struct {
		Outputs []string `json:"outputs"`
	}
	data, err = os.ReadFile(filepath.Join(runDir, "scheduleragent_output.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &scheduler))
	require.Len(t, scheduler.Outputs, 1)
	assert.Contains(t, scheduler.Outputs[0], "Delay mitigation for:")

	_, err = os.Stat(filepath.Join(runDir, RoleFile(model.RoleQAQC)))
	assert.True(t, errors.Is(err, os.ErrNotExist), "no QA/QC actions, no QA/QC file")

	for _, name := range []string{FilePlan, FileEvaluation, FileFlow, FileMeta} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}
}

func TestLoad_RoundTripsResult(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	doc := sampleDocument()
	meta := saveRun(t, s, doc)

	run, err := s.Load(meta.ID)
	require.NoError(t, err)
	require.NotNil(t, run.Result)

	want, err := pipeline.Run(doc)
	require.NoError(t, err)
	if diff := cmp.Diff(want, *run.Result); diff != "" {
		t.Fatalf("loaded result mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, meta.ID, run.Meta.ID)
}

func TestFail_RecordsError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	meta, err := s.Create("bad.json", records.Document{})
	require.NoError(t, err)
	_, err = s.Fail(meta, errors.New("scan: malformed record: emails[0]: field \"body\" is missing"))
	require.NoError(t, err)

	run, err := s.Load(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Meta.Status)
	assert.Contains(t, run.Meta.Error, "malformed record")
	assert.Nil(t, run.Result)
}

func TestList_NewestFirstAndLatest(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	first := saveRun(t, s, sampleDocument())
	second := saveRun(t, s, records.Document{})

	// Stray directories without metadata are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir(), "garbage"), 0o755))

	metas, err := s.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, second.ID, metas[0].ID)
	assert.Equal(t, first.ID, metas[1].ID)

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.Meta.ID)
	assert.Equal(t, 0, latest.Meta.IssueCount)
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "absent"))
	metas, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, metas)

	_, err = s.Latest()
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestLoad_UnknownOrUnsafeID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, id := range []string{"", "..", "../etc", "20240101-000000-deadbeef"} {
		_, err := s.Load(id)
		require.ErrorIs(t, err, ErrRunNotFound, id)
	}
}
