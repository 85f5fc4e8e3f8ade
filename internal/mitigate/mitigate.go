// Package mitigate generates remediation text for routed issues.
package mitigate

import (
	"fmt"
	"strings"

	"github.com/metalagman/atlas/internal/model"
)

// Generate builds the mitigation for a single route.
func Generate(r model.Route) model.Mitigation {
	return model.Mitigation{
		AssignedRole: r.AssignedRole,
		IssueType:    r.IssueType,
		Detail:       r.Detail,
		ActionText:   actionText(r.IssueType, r.Detail),
	}
}

// GenerateAll maps routes to mitigations one to one, preserving order.
func GenerateAll(routes []model.Route) []model.Mitigation {
	out := make([]model.Mitigation, 0, len(routes))
	for _, r := range routes {
		out = append(out, Generate(r))
	}
	return out
}

func actionText(t model.IssueType, detail string) string {
	switch t {
	case model.IssueDelay:
		return steps("Delay mitigation for: "+detail,
			"Coordinate with the vendor to confirm the revised delivery date and options to expedite.",
			"Reschedule the impacted task and push it to the nearest buffer date.",
			"Resequence critical-path work that can proceed during the delay.",
			"Identify alternative suppliers that meet the specification.",
			"Notify the team and stakeholders of the schedule change and document it.",
		)
	case model.IssueSafety:
		return steps("Safety mitigation for: "+detail,
			"Hold a mandatory safety briefing on PPE compliance for the affected crew.",
			"Assign a dedicated floor-level safety supervisor to the area.",
			"Run regular PPE inspections and audits until compliance is sustained.",
			"Log the violation and the corrective actions in the safety register.",
		)
	case model.IssueInspection:
		return steps("Inspection mitigation for: "+detail,
			"Remove and rework the affected material or component.",
			"Ensure proper bonding and compliance with the specification.",
			"Schedule a reinspection once rework is complete.",
		)
	default:
		return steps(fmt.Sprintf("Mitigation for unclassified issue (%s): %s", displayType(t), detail),
			"Assess the issue and its impact on scope, schedule and safety.",
			"Assign an owner responsible for resolution.",
			"Track the issue to closure in the project log.",
		)
	}
}

func displayType(t model.IssueType) string {
	if t == "" {
		return "untyped"
	}
	return string(t)
}

func steps(title string, items ...string) string {
	var b strings.Builder
	b.WriteString(title)
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}
