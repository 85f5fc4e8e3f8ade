package report

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/metalagman/atlas/internal/model"
)

// ErrUnclearQuestion is returned by Ask when no keyword matches.
var ErrUnclearQuestion = errors.New("couldn't understand the question; try asking about schedule, safety, QA/QC, dispatch, scan, plan or score")

// topics lists section titles in display order with the word prefixes that select them.
var topics = []struct {
	title    string
	keywords []string
}{
	{TitleScanner, []string{"scan"}},
	{TitleDispatcher, []string{"dispatch", "rout"}},
	{RoleTitle(model.RoleScheduler), []string{"schedul", "delay"}},
	{RoleTitle(model.RoleSafety), []string{"safety", "violation", "ppe"}},
	{RoleTitle(model.RoleQAQC), []string{"qa", "qc", "inspection"}},
	{RoleTitle(model.RoleUnknown), []string{"unassigned", "unknown"}},
	{TitlePlanner, []string{"plan", "mitigation", "action"}},
	{TitleEvaluator, []string{"evaluat", "score", "final", "complian"}},
}

// Topics returns the section titles a free-text question asks about, in
// display order. Matching is case-insensitive on word prefixes.
func Topics(question string) []string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var titles []string
	for _, topic := range topics {
		if mentions(words, topic.keywords) {
			titles = append(titles, topic.title)
		}
	}
	return titles
}

// Ask answers a question about res with the matching sections as markdown.
// Sections absent from res (an unused Unassigned role) are reported as empty.
func Ask(question string, res model.Result) (string, error) {
	titles := Topics(question)
	if len(titles) == 0 {
		return "", ErrUnclearQuestion
	}
	_, bodies := Sections(res)
	var b strings.Builder
	for _, title := range titles {
		body, ok := bodies[title]
		if !ok {
			body = fmt.Sprintf("_No %s actions._\n", strings.ToLower(title))
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n", title, body)
	}
	return b.String(), nil
}

func mentions(words, prefixes []string) bool {
	for _, w := range words {
		for _, p := range prefixes {
			if strings.HasPrefix(w, p) {
				return true
			}
		}
	}
	return false
}
