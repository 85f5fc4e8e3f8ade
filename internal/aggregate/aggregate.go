// Package aggregate collects mitigations into a single plan.
package aggregate

import "github.com/metalagman/atlas/internal/model"

// Plan summaries.
const (
	SummaryPlan  = "Unified Project Mitigation Plan"
	SummaryClear = "No outstanding issues. Project mitigation plan is clear."
)

// Aggregate returns a plan holding every mitigation in the order received.
func Aggregate(mitigations []model.Mitigation) model.Plan {
	actions := make([]model.Mitigation, len(mitigations))
	copy(actions, mitigations)
	if len(actions) == 0 {
		return model.Plan{Summary: SummaryClear, Actions: actions}
	}
	return model.Plan{Summary: SummaryPlan, Actions: actions}
}
