// Package pipeline wires the scan, route, mitigate, aggregate and evaluate stages.
package pipeline

import (
	"fmt"

	"github.com/metalagman/atlas/internal/aggregate"
	"github.com/metalagman/atlas/internal/classify"
	"github.com/metalagman/atlas/internal/evaluate"
	"github.com/metalagman/atlas/internal/mitigate"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/route"
	"github.com/rs/zerolog/log"
)

// Stage names, in execution order.
const (
	StageScan      = "scan"
	StageRoute     = "route"
	StageMitigate  = "mitigate"
	StageAggregate = "aggregate"
	StageEvaluate  = "evaluate"
)

// Pipeline runs every stage over one document. The zero value uses the default evaluator.
type Pipeline struct {
	evaluator evaluate.Evaluator
}

// New returns a pipeline scoring plans with ev; nil selects evaluate.Default.
func New(ev evaluate.Evaluator) *Pipeline {
	return &Pipeline{evaluator: ev}
}

// Run executes the full pipeline. Only the scan stage can fail.
func (p *Pipeline) Run(doc records.Document) (model.Result, error) {
	issues, err := classify.Scan(doc)
	if err != nil {
		return model.Result{}, fmt.Errorf("%s: %w", StageScan, err)
	}
	stageDone(StageScan, len(issues))

	return p.FromIssues(issues), nil
}

// FromIssues runs every stage after the scan on already tagged issues.
func (p *Pipeline) FromIssues(issues []model.TaggedIssue) model.Result {
	if issues == nil {
		issues = []model.TaggedIssue{}
	}

	routes := route.Route(issues)
	stageDone(StageRoute, len(routes))
	if e := log.Debug(); e.Enabled() {
		e.Str("stage", StageRoute).Str("dispatch", route.EncodeRoutes(routes)).Msg("routes")
	}

	mitigations := mitigate.GenerateAll(routes)
	stageDone(StageMitigate, len(mitigations))

	plan := aggregate.Aggregate(mitigations)
	stageDone(StageAggregate, len(plan.Actions))

	report := p.evaluatorOrDefault().Evaluate(plan)
	log.Debug().
		Str("stage", StageEvaluate).
		Float64("score", report.Score).
		Bool("compliant", report.Compliant).
		Msg("stage done")

	return model.Result{
		Issues:      issues,
		Routes:      routes,
		Mitigations: mitigations,
		Plan:        plan,
		Evaluation:  report,
	}
}

// Run executes the pipeline with the default evaluator.
func Run(doc records.Document) (model.Result, error) {
	return New(nil).Run(doc)
}

func (p *Pipeline) evaluatorOrDefault() evaluate.Evaluator {
	if p == nil || p.evaluator == nil {
		return evaluate.Default()
	}
	return p.evaluator
}

func stageDone(stage string, count int) {
	log.Debug().Str("stage", stage).Int("count", count).Msg("stage done")
}
