package route

import (
	"fmt"
	"strings"

	"github.com/metalagman/atlas/internal/model"
)

const agentSuffix = "| agent:"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// EncodeIssues renders issues as "[type_<issue>] <detail>" lines.
// Line breaks inside a detail become spaces.
func EncodeIssues(issues []model.TaggedIssue) string {
	var b strings.Builder
	for i, issue := range issues {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", issue.IssueType.Tag(), lineBreaks.Replace(issue.Detail))
	}
	return b.String()
}

// ParseIssues reads tagged-issue text. Lines that do not follow the
// "[tag] detail" convention are skipped.
func ParseIssues(text string) []model.TaggedIssue {
	var issues []model.TaggedIssue
	for _, line := range strings.Split(text, "\n") {
		issue, ok := ParseLine(line)
		if !ok {
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}

// ParseLine parses a single "[tag] detail" line. A legacy "| agent: Role" suffix is dropped
// since routing is always derived from the tag.
func ParseLine(line string) (model.TaggedIssue, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return model.TaggedIssue{}, false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return model.TaggedIssue{}, false
	}
	tag := strings.TrimSpace(line[1:end])
	if tag == "" {
		return model.TaggedIssue{}, false
	}
	detail := line[end+1:]
	if idx := strings.LastIndex(detail, agentSuffix); idx >= 0 {
		detail = detail[:idx]
	}
	detail = strings.TrimLeft(detail, "- \t")
	detail = strings.TrimSpace(detail)
	return model.TaggedIssue{
		IssueType: model.ParseIssueType(tag),
		Detail:    detail,
	}, true
}

// EncodeRoutes renders routes as human-readable dispatch lines.
func EncodeRoutes(routes []model.Route) string {
	var b strings.Builder
	for i, r := range routes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- [%s] routed to %s: %s", r.IssueType, r.AssignedRole, lineBreaks.Replace(r.Detail))
	}
	return b.String()
}
