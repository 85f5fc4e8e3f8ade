package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) Model {
	t.Helper()
	res, err := pipeline.Run(records.Document{
		SiteLogs: []records.Record{{"log_date": "2024-02-02", "description": "PPE violation on Level 2"}},
	})
	require.NoError(t, err)
	return New(snapshot.Meta{ID: "20240501-100000-abcdef01"}, res)
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func TestTabsCycle(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	assert.Equal(t, "Scanner", m.ActiveTitle())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "Dispatcher", m.ActiveTitle())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "Evaluator", m.ActiveTitle())
}

func TestViewShowsActiveSection(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})

	view := m.View()
	assert.Contains(t, view, "Run 20240501-100000-abcdef01")
	assert.Contains(t, view, "[type_safety] 2024-02-02 - PPE violation on Level 2")
	assert.Contains(t, view, "Evaluator")
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
