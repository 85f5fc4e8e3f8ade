// Package route assigns tagged issues to the roles responsible for them.
package route

import "github.com/metalagman/atlas/internal/model"

var roleByIssue = map[model.IssueType]model.Role{
	model.IssueDelay:      model.RoleScheduler,
	model.IssueSafety:     model.RoleSafety,
	model.IssueInspection: model.RoleQAQC,
}

// RoleFor returns the role for an issue type; unknown types go to UnknownAgent.
func RoleFor(t model.IssueType) model.Role {
	if role, ok := roleByIssue[t]; ok {
		return role
	}
	return model.RoleUnknown
}

// Route maps every issue to exactly one route, preserving order.
func Route(issues []model.TaggedIssue) []model.Route {
	routes := make([]model.Route, 0, len(issues))
	for _, issue := range issues {
		routes = append(routes, model.Route{
			IssueType:    issue.IssueType,
			AssignedRole: RoleFor(issue.IssueType),
			Detail:       issue.Detail,
		})
	}
	return routes
}
