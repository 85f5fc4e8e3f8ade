// Package report renders pipeline results for terminals.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/route"
	"github.com/metalagman/atlas/internal/snapshot"
)

// DefaultWidth is the word-wrap width used by Render.
const DefaultWidth = 100

// Section titles, in display order.
const (
	TitleScanner    = "Scanner"
	TitleDispatcher = "Dispatcher"
	TitlePlanner    = "Planner"
	TitleEvaluator  = "Evaluator"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RoleTitle is the section title for a role's actions.
func RoleTitle(role model.Role) string {
	switch role {
	case model.RoleScheduler:
		return "Scheduler"
	case model.RoleSafety:
		return "Safety"
	case model.RoleQAQC:
		return "QA/QC"
	default:
		return "Unassigned"
	}
}

// Markdown renders a run as markdown with one section per stage.
func Markdown(meta snapshot.Meta, res model.Result) string {
	var b strings.Builder
	b.WriteString(header(meta))
	writeResult(&b, res)
	return b.String()
}

func header(meta snapshot.Meta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", meta.ID)
	if meta.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", meta.Source)
	}
	if !meta.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if meta.Status != "" {
		fmt.Fprintf(&b, "- Status: %s\n", meta.Status)
	}
	if meta.Error != "" {
		fmt.Fprintf(&b, "- Error: %s\n", meta.Error)
	}
	b.WriteString("\n")
	return b.String()
}

// RunMarkdown renders a stored run. Runs without a result show only their metadata.
func RunMarkdown(run snapshot.Run) string {
	if run.Result == nil {
		return header(run.Meta)
	}
	return Markdown(run.Meta, *run.Result)
}

// ResultMarkdown renders only the stage sections of res.
func ResultMarkdown(res model.Result) string {
	var b strings.Builder
	writeResult(&b, res)
	return b.String()
}

// Sections renders each stage separately, keyed by title, in display order.
// Role sections appear only for roles that received actions.
func Sections(res model.Result) ([]string, map[string]string) {
	titles := []string{TitleScanner, TitleDispatcher}
	bodies := map[string]string{
		TitleScanner:    scannerBody(res),
		TitleDispatcher: dispatcherBody(res),
	}
	for _, role := range model.Roles() {
		actions := res.ActionsFor(role)
		if len(actions) == 0 && role == model.RoleUnknown {
			continue
		}
		title := RoleTitle(role)
		titles = append(titles, title)
		bodies[title] = actionsBody(actions)
	}
	titles = append(titles, TitlePlanner, TitleEvaluator)
	bodies[TitlePlanner] = plannerBody(res.Plan)
	bodies[TitleEvaluator] = evaluatorBody(res.Evaluation)
	return titles, bodies
}

func writeResult(b *strings.Builder, res model.Result) {
	titles, bodies := Sections(res)
	for _, title := range titles {
		fmt.Fprintf(b, "## %s\n\n%s\n", title, bodies[title])
	}
}

func scannerBody(res model.Result) string {
	if len(res.Issues) == 0 {
		return "_No tagged issues._\n"
	}
	return "```\n" + route.EncodeIssues(res.Issues) + "\n```\n"
}

func dispatcherBody(res model.Result) string {
	if len(res.Routes) == 0 {
		return "_Nothing to route._\n"
	}
	var b strings.Builder
	b.WriteString("| Issue | Assigned to | Detail |\n|---|---|---|\n")
	for _, r := range res.Routes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.IssueType.Tag(), r.AssignedRole, escapeCell(r.Detail))
	}
	return b.String()
}

func actionsBody(actions []model.Mitigation) string {
	if len(actions) == 0 {
		return "_No actions._\n"
	}
	var b strings.Builder
	for i, a := range actions {
		fmt.Fprintf(&b, "### Action %d\n\n```\n%s\n```\n\n", i+1, a.ActionText)
	}
	return b.String()
}

func plannerBody(plan model.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", plan.Summary)
	for i, a := range plan.Actions {
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, a.AssignedRole, a.IssueType.Tag(), a.Detail)
	}
	return b.String()
}

func evaluatorBody(ev model.EvaluationReport) string {
	return fmt.Sprintf("- Score: %.1f / 10\n- Compliant: %s\n- Remarks: %s\n", ev.Score, yesNo(ev.Compliant), ev.Remarks)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Render formats markdown for the terminal. width <= 0 selects DefaultWidth.
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Summary is a one-line styled description of a stored run.
func Summary(meta snapshot.Meta) string {
	var status string
	switch {
	case meta.Status == snapshot.StatusFailed:
		status = failStyle.Render("FAILED")
	case meta.Status == snapshot.StatusRunning:
		status = mutedStyle.Render("RUNNING")
	case meta.Compliant:
		status = okStyle.Render("COMPLIANT")
	default:
		status = failStyle.Render("NON-COMPLIANT")
	}
	line := fmt.Sprintf("%s %s", status, meta.ID)
	if meta.Status == snapshot.StatusFailed {
		return line + " " + mutedStyle.Render(meta.Error)
	}
	return fmt.Sprintf("%s issues=%d score=%.1f %s", line, meta.IssueCount, meta.Score, mutedStyle.Render(meta.Source))
}
