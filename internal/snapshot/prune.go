package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// RetentionPolicy controls run cleanup. Zero values disable the matching rule.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
	Skipped    int
}

// Prune deletes run directories outside the policy. Running runs and the newest
// run are always kept. With dryRun nothing is removed.
func (s *Store) Prune(policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	return s.prune(policy, dryRun, AcquireLock)
}

// TryPrune is Prune without waiting: it returns ErrLocked when the runs
// directory is being written.
func (s *Store) TryPrune(policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	return s.prune(policy, dryRun, TryAcquireLock)
}

func (s *Store) prune(policy RetentionPolicy, dryRun bool, acquire func(string) (*Lock, error)) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}

	lock, err := acquire(s.dir)
	if err != nil {
		return PruneResult{}, err
	}
	defer func() { _ = lock.Release() }()

	metas, err := s.List()
	if err != nil {
		return PruneResult{}, err
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = s.now().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	res := PruneResult{Considered: len(metas)}
	for idx, meta := range metas {
		keep := idx == 0 || meta.Status == StatusRunning
		if !keep && policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 && meta.CreatedAt.After(cutoff) {
			keep = true
		}
		if keep {
			res.Kept++
			continue
		}
		if dryRun {
			res.Deleted++
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, meta.ID)); err != nil {
			log.Warn().Err(err).Str("run_id", meta.ID).Msg("prune run")
			res.Skipped++
			continue
		}
		res.Deleted++
	}
	log.Debug().
		Int("considered", res.Considered).
		Int("kept", res.Kept).
		Int("deleted", res.Deleted).
		Bool("dry_run", dryRun).
		Msg("prune runs")
	return res, nil
}

// String renders the result for CLI output.
func (r PruneResult) String() string {
	return fmt.Sprintf("considered=%d kept=%d deleted=%d skipped=%d", r.Considered, r.Kept, r.Deleted, r.Skipped)
}
