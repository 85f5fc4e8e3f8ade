// Package model holds the records handed between pipeline stages.
package model

import "strings"

// IssueType classifies a flagged record.
type IssueType string

// Known issue types. Any other value is carried through as-is and handled as unknown.
const (
	IssueDelay      IssueType = "delay"
	IssueSafety     IssueType = "safety"
	IssueInspection IssueType = "inspection"
)

// Known reports whether t is one of the issue types the classifier emits.
func (t IssueType) Known() bool {
	switch t {
	case IssueDelay, IssueSafety, IssueInspection:
		return true
	default:
		return false
	}
}

// ParseIssueType converts a lexical tag such as "type_delay" or "delay" to an IssueType.
// Unrecognized tags are returned verbatim (minus the prefix).
func ParseIssueType(tag string) IssueType {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "type_")
	return IssueType(tag)
}

// Tag returns the lexical tag used in tagged-issue text.
func (t IssueType) Tag() string {
	return "type_" + string(t)
}

// Role is the agent responsible for a routed issue.
type Role string

// Roles issues are routed to.
const (
	RoleScheduler Role = "SchedulerAgent"
	RoleSafety    Role = "SafetyAgent"
	RoleQAQC      Role = "QAQCAgent"
	RoleUnknown   Role = "UnknownAgent"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleScheduler, RoleSafety, RoleQAQC, RoleUnknown}
}

// TaggedIssue is a record flagged by the classifier.
type TaggedIssue struct {
	IssueType  IssueType `json:"issue_type"`
	Detail     string    `json:"detail"`
	SourceDate string    `json:"source_date,omitempty"`
}

// Route assigns a tagged issue to a role.
type Route struct {
	IssueType    IssueType `json:"issue_type"`
	AssignedRole Role      `json:"assigned_role"`
	Detail       string    `json:"detail"`
}

// Mitigation is the remediation generated for one route.
type Mitigation struct {
	AssignedRole Role      `json:"assigned_role"`
	IssueType    IssueType `json:"issue_type"`
	Detail       string    `json:"detail"`
	ActionText   string    `json:"action_text"`
}

// Plan aggregates every mitigation of a run.
type Plan struct {
	Summary string       `json:"summary"`
	Actions []Mitigation `json:"actions"`
}

// EvaluationReport scores a plan.
type EvaluationReport struct {
	Score     float64 `json:"score"`
	Compliant bool    `json:"compliant"`
	Remarks   string  `json:"remarks"`
}

// Result is the full output of one pipeline run.
type Result struct {
	Issues      []TaggedIssue    `json:"issues"`
	Routes      []Route          `json:"routes"`
	Mitigations []Mitigation     `json:"mitigations"`
	Plan        Plan             `json:"plan"`
	Evaluation  EvaluationReport `json:"evaluation"`
}

// ActionsFor returns the plan actions assigned to role, in plan order.
func (r Result) ActionsFor(role Role) []Mitigation {
	var out []Mitigation
	for _, m := range r.Plan.Actions {
		if m.AssignedRole == role {
			out = append(out, m)
		}
	}
	return out
}
