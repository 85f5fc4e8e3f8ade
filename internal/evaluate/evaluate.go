// Package evaluate scores aggregated mitigation plans.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/metalagman/atlas/internal/model"
)

// MaxScore is the best possible plan score.
const MaxScore = 10.0

// Rule names accepted by ByName.
const (
	RuleCompleteness = "completeness"
	RuleConstant     = "constant"
)

// Evaluator scores a plan.
type Evaluator interface {
	Evaluate(plan model.Plan) model.EvaluationReport
}

// Rule adapts a plain function to Evaluator.
type Rule func(plan model.Plan) model.EvaluationReport

// Evaluate calls r.
func (r Rule) Evaluate(plan model.Plan) model.EvaluationReport {
	return r(plan)
}

// Completeness scores the share of actions that carry remediation text,
// truncated to one decimal so that only a complete plan reaches MaxScore.
// A plan is compliant when its score reaches minScore; at MaxScore that
// requires every action to be filled.
func Completeness(minScore float64) Rule {
	return func(plan model.Plan) model.EvaluationReport {
		total := len(plan.Actions)
		if total == 0 {
			return model.EvaluationReport{
				Score:     MaxScore,
				Compliant: MaxScore >= minScore,
				Remarks:   "No outstanding issues; nothing to remediate.",
			}
		}
		missing := 0
		for _, action := range plan.Actions {
			if strings.TrimSpace(action.ActionText) == "" {
				missing++
			}
		}
		tenths := int(MaxScore*10) * (total - missing) / total
		score := float64(tenths) / 10
		remarks := fmt.Sprintf("All %d actions carry remediation text.", total)
		if missing > 0 {
			remarks = fmt.Sprintf("%d of %d actions are missing remediation text.", missing, total)
		}
		return model.EvaluationReport{
			Score:     score,
			Compliant: score >= minScore && (missing == 0 || minScore < MaxScore),
			Remarks:   remarks,
		}
	}
}

// Constant returns the fixed perfect report regardless of the plan.
func Constant() Rule {
	return func(model.Plan) model.EvaluationReport {
		return model.EvaluationReport{
			Score:     MaxScore,
			Compliant: true,
			Remarks:   "All actions SOP-aligned.",
		}
	}
}

// Default is the completeness rule with the strictest threshold.
func Default() Evaluator {
	return Completeness(MaxScore)
}

// ByName resolves a configured rule. An empty name selects the default rule.
func ByName(name string, minScore float64) (Evaluator, error) {
	if minScore < 0 || minScore > MaxScore {
		return nil, fmt.Errorf("min score %v out of range [0, %v]", minScore, MaxScore)
	}
	switch name {
	case "", RuleCompleteness:
		return Completeness(minScore), nil
	case RuleConstant:
		return Constant(), nil
	default:
		return nil, fmt.Errorf("unknown evaluation rule %q", name)
	}
}
