// Package batch runs the pipeline over several documents concurrently and
// records each run in the snapshot store.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent runs when none is configured.
const DefaultParallelism = 4

// Outcome is the result of one document run.
type Outcome struct {
	Source string
	// RunID is empty when the run was not saved.
	RunID  string
	Result model.Result
	Err    error
}

// Runner executes pipeline runs. A nil Store disables snapshots.
type Runner struct {
	Pipeline    *pipeline.Pipeline
	Store       *snapshot.Store
	Parallelism int
}

// RunDocument executes one run over an already loaded document.
func (r *Runner) RunDocument(ctx context.Context, source string, doc records.Document) Outcome {
	out := Outcome{Source: source}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	started := time.Now()
	var meta snapshot.Meta
	if r.Store != nil {
		var err error
		meta, err = r.Store.Create(source, doc)
		if err != nil {
			out.Err = fmt.Errorf("create snapshot: %w", err)
			return out
		}
		out.RunID = meta.ID
	}

	res, err := r.Pipeline.Run(doc)
	if err != nil {
		out.Err = err
		if r.Store != nil {
			if _, ferr := r.Store.Fail(meta, err); ferr != nil {
				log.Warn().Err(ferr).Str("run_id", meta.ID).Msg("record failed run")
			}
		}
		log.Error().Err(err).Str("source", source).Str("run_id", out.RunID).Msg("run failed")
		return out
	}
	out.Result = res

	if r.Store != nil {
		if _, err := r.Store.Save(meta, res); err != nil {
			out.Err = fmt.Errorf("save snapshot: %w", err)
			return out
		}
	}

	log.Info().
		Str("source", source).
		Str("run_id", out.RunID).
		Int("issues", len(res.Issues)).
		Float64("score", res.Evaluation.Score).
		Bool("compliant", res.Evaluation.Compliant).
		Dur("duration", time.Since(started)).
		Msg("run done")
	return out
}

// RunFile loads path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string) Outcome {
	doc, err := records.Load(path)
	if err != nil {
		return Outcome{Source: path, Err: err}
	}
	return r.RunDocument(ctx, path, doc)
}

// RunFiles runs every path with at most Parallelism runs in flight. Outcomes
// keep the order of paths. A failing document does not stop the others; the
// returned error is only set when ctx is cancelled.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for i, path := range paths {
		g.Go(func() error {
			outcomes[i] = r.RunFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

// Failed counts outcomes carrying an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func (r *Runner) parallelism() int {
	if r.Parallelism > 0 {
		return r.Parallelism
	}
	return DefaultParallelism
}
