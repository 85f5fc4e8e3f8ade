// Package tui is a tabbed terminal viewer for a stored run.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/report"
	"github.com/metalagman/atlas/internal/snapshot"
)

const chromeHeight = 4

var (
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("62")).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model shows one tab per pipeline stage.
type Model struct {
	meta     snapshot.Meta
	titles   []string
	bodies   map[string]string
	active   int
	viewport viewport.Model
	ready    bool
}

// New builds a viewer for res.
func New(meta snapshot.Meta, res model.Result) Model {
	titles, bodies := report.Sections(res)
	m := Model{
		meta:     meta,
		titles:   titles,
		bodies:   bodies,
		viewport: viewport.New(80, 20),
	}
	m.viewport.SetContent(m.body())
	return m
}

// Run opens the viewer in the alternate screen until the user quits.
func Run(meta snapshot.Meta, res model.Result) error {
	if _, err := tea.NewProgram(New(meta, res), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "tab":
			m.selectTab(m.active + 1)
			return m, nil
		case "left", "h", "shift+tab":
			m.selectTab(m.active - 1)
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.ready = true
		m.viewport.SetContent(m.body())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Run " + m.meta.ID))
	b.WriteString("\n")
	tabs := make([]string, 0, len(m.titles))
	for i, title := range m.titles {
		if i == m.active {
			tabs = append(tabs, activeTab.Render(title))
			continue
		}
		tabs = append(tabs, inactiveTab.Render(title))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("←/→ switch tab • ↑/↓ scroll • q quit"))
	return b.String()
}

// ActiveTitle returns the title of the selected tab.
func (m Model) ActiveTitle() string {
	return m.titles[m.active]
}

func (m *Model) selectTab(i int) {
	n := len(m.titles)
	m.active = ((i % n) + n) % n
	m.viewport.SetContent(m.body())
	m.viewport.GotoTop()
}

func (m Model) body() string {
	return m.bodies[m.titles[m.active]]
}
