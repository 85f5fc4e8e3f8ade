// Package snapshot persists pipeline runs as flat files under a runs directory.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/route"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
)

// Snapshot file names inside a run directory.
const (
	FileMeta       = "run.json"
	FileInput      = "input.json"
	FileScanner    = "scanner.txt"
	FileDispatcher = "dispatcher.json"
	FilePlan       = "plan.json"
	FileEvaluation = "evaluation.json"
	FileFlow       = "flow_output.json"
)

// ErrRunNotFound is returned when a run id has no snapshot.
var ErrRunNotFound = errors.New("run not found")

// Meta describes a stored run.
type Meta struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	Status     string    `json:"status"`
	IssueCount int       `json:"issue_count"`
	Score      float64   `json:"score"`
	Compliant  bool      `json:"compliant"`
	Error      string    `json:"error,omitempty"`
}

// Run is a stored run with its result. Result is nil for failed runs.
type Run struct {
	Meta   Meta
	Dir    string
	Result *model.Result
}

// Store reads and writes run snapshots.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at runsDir.
func NewStore(runsDir string) *Store {
	return &Store{dir: runsDir, now: func() time.Time { return time.Now().UTC() }}
}

// Dir returns the runs directory.
func (s *Store) Dir() string {
	return s.dir
}

// Create allocates a run directory and records the run as running.
func (s *Store) Create(source string, doc records.Document) (Meta, error) {
	lock, err := AcquireLock(s.dir)
	if err != nil {
		return Meta{}, err
	}
	defer func() { _ = lock.Release() }()

	createdAt := s.now()
	meta := Meta{
		ID:        newRunID(createdAt),
		Source:    source,
		CreatedAt: createdAt,
		Status:    StatusRunning,
	}
	runDir := filepath.Join(s.dir, meta.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("create run dir: %w", err)
	}
	if err := writeJSON(filepath.Join(runDir, FileInput), doc); err != nil {
		return Meta{}, err
	}
	if err := writeJSON(filepath.Join(runDir, FileMeta), meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Save writes every stage output of a successful run and marks it passed.
func (s *Store) Save(meta Meta, res model.Result) (Meta, error) {
	lock, err := AcquireLock(s.dir)
	if err != nil {
		return Meta{}, err
	}
	defer func() { _ = lock.Release() }()

	runDir := filepath.Join(s.dir, meta.ID)
	scanner := route.EncodeIssues(res.Issues)
	if scanner != "" {
		scanner += "\n"
	}
	if err := os.WriteFile(filepath.Join(runDir, FileScanner), []byte(scanner), 0o644); err != nil {
		return Meta{}, fmt.Errorf("write %s: %w", FileScanner, err)
	}
	if err := writeJSON(filepath.Join(runDir, FileDispatcher), dispatcherFile{Routing: res.Routes}); err != nil {
		return Meta{}, err
	}
	for _, role := range model.Roles() {
		actions := res.ActionsFor(role)
		if len(actions) == 0 {
			continue
		}
		out := roleFile{Outputs: make([]string, 0, len(actions))}
		for _, a := range actions {
			out.Outputs = append(out.Outputs, a.ActionText)
		}
		if err := writeJSON(filepath.Join(runDir, RoleFile(role)), out); err != nil {
			return Meta{}, err
		}
	}
	if err := writeJSON(filepath.Join(runDir, FilePlan), res.Plan); err != nil {
		return Meta{}, err
	}
	if err := writeJSON(filepath.Join(runDir, FileEvaluation), res.Evaluation); err != nil {
		return Meta{}, err
	}
	if err := writeJSON(filepath.Join(runDir, FileFlow), res); err != nil {
		return Meta{}, err
	}

	meta.Status = StatusPassed
	meta.IssueCount = len(res.Issues)
	meta.Score = res.Evaluation.Score
	meta.Compliant = res.Evaluation.Compliant
	meta.Error = ""
	if err := writeJSON(filepath.Join(runDir, FileMeta), meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Fail marks the run failed with cause.
func (s *Store) Fail(meta Meta, cause error) (Meta, error) {
	lock, err := AcquireLock(s.dir)
	if err != nil {
		return Meta{}, err
	}
	defer func() { _ = lock.Release() }()

	meta.Status = StatusFailed
	if cause != nil {
		meta.Error = cause.Error()
	}
	if err := writeJSON(filepath.Join(s.dir, meta.ID, FileMeta), meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// List returns stored runs, newest first. Directories without readable metadata are skipped.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var metas []Meta
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var meta Meta
		if err := readJSON(filepath.Join(s.dir, entry.Name(), FileMeta), &meta); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	sort.SliceStable(metas, func(i, j int) bool {
		if metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].ID > metas[j].ID
		}
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Load reads a stored run.
func (s *Store) Load(id string) (Run, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	runDir := filepath.Join(s.dir, id)
	var meta Meta
	if err := readJSON(filepath.Join(runDir, FileMeta), &meta); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return Run{}, err
	}
	run := Run{Meta: meta, Dir: runDir}
	if meta.Status != StatusPassed {
		return run, nil
	}
	var res model.Result
	if err := readJSON(filepath.Join(runDir, FileFlow), &res); err != nil {
		return Run{}, err
	}
	run.Result = &res
	return run, nil
}

// Latest returns the newest stored run.
func (s *Store) Latest() (Run, error) {
	metas, err := s.List()
	if err != nil {
		return Run{}, err
	}
	if len(metas) == 0 {
		return Run{}, fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.dir)
	}
	return s.Load(metas[0].ID)
}

// RoleFile is the per-role output file name, e.g. "scheduleragent_output.json".
func RoleFile(role model.Role) string {
	return strings.ToLower(string(role)) + "_output.json"
}

type dispatcherFile struct {
	Routing []model.Route `json:"routing"`
}

type roleFile struct {
	Outputs []string `json:"outputs"`
}

func newRunID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s", at.Format("20060102-150405"), suffix)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
