package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/metalagman/atlas/internal/batch"
	"github.com/metalagman/atlas/internal/logging"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/report"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		jsonOut bool
		noSave  bool
		rule    string
	)
	cmd := &cobra.Command{
		Use:          "run [document...]",
		Short:        "Run the pipeline over one or more documents",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if rule != "" {
				cfg.Evaluation.Rule = rule
			}
			ev, err := cfg.Evaluator()
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.Input.Document}
			}
			runner := &batch.Runner{Pipeline: pipeline.New(ev), Parallelism: cfg.Run.Parallelism}
			if cfg.Output.Save && !noSave {
				runner.Store = snapshot.NewStore(cfg.Output.RunsDir)
			}

			outcomes, err := runner.RunFiles(cmd.Context(), paths)
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeOutcomesJSON(cmd.OutOrStdout(), outcomes); err != nil {
					return err
				}
			} else {
				for _, o := range outcomes {
					fmt.Fprintln(cmd.OutOrStdout(), report.Summary(outcomeMeta(o)))
					if logging.DebugEnabled() && o.Err == nil {
						fmt.Fprintln(cmd.ErrOrStderr(), report.ResultMarkdown(o.Result))
					}
				}
			}
			if failed := batch.Failed(outcomes); failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write run snapshots")
	cmd.Flags().StringVar(&rule, "rule", "", "evaluation rule: completeness or constant")
	return cmd
}

type outcomeJSON struct {
	Source string        `json:"source"`
	RunID  string        `json:"run_id,omitempty"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// writeOutcomesJSON prints the bare Result for a single successful run and a
// list of outcomes otherwise.
func writeOutcomesJSON(w io.Writer, outcomes []batch.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(outcomes) == 1 && outcomes[0].Err == nil {
		return enc.Encode(outcomes[0].Result)
	}
	out := make([]outcomeJSON, 0, len(outcomes))
	for _, o := range outcomes {
		item := outcomeJSON{Source: o.Source, RunID: o.RunID}
		if o.Err != nil {
			item.Error = o.Err.Error()
		} else {
			res := o.Result
			item.Result = &res
		}
		out = append(out, item)
	}
	return enc.Encode(out)
}

func outcomeMeta(o batch.Outcome) snapshot.Meta {
	meta := snapshot.Meta{ID: o.RunID, Source: o.Source}
	if meta.ID == "" {
		meta.ID = "(unsaved)"
	}
	if o.Err != nil {
		meta.Status = snapshot.StatusFailed
		meta.Error = o.Err.Error()
		return meta
	}
	meta.Status = snapshot.StatusPassed
	meta.IssueCount = len(o.Result.Issues)
	meta.Score = o.Result.Evaluation.Score
	meta.Compliant = o.Result.Evaluation.Compliant
	return meta
}
