package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModelSnapshotAndPause(t *testing.T) {
	m := NewModel()
	assert.Equal(t, "Initializing...", m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, MsgStateSnapshot(StateSnapshot{Iteration: 3, BestFitness: 4, BestExpression: "(x + 1)"}))
	m = update(t, m, MsgStateSnapshot(StateSnapshot{Iteration: 4, BestFitness: 2, BestExpression: "(x * x)"}))
	assert.Equal(t, 4, m.snapshot.Iteration)
	assert.Equal(t, 4.0, m.prevBest)
	assert.Contains(t, m.View(), "(x * x)")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	assert.True(t, m.paused)
	m = update(t, m, MsgStateSnapshot(StateSnapshot{Iteration: 9}))
	assert.Equal(t, 4, m.snapshot.Iteration, "paused view ignores snapshots")
	assert.Contains(t, m.View(), "(PAUSED)")
}

func TestModelEventsBounded(t *testing.T) {
	m := NewModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	for i := 0; i < maxEvents+5; i++ {
		m = update(t, m, MsgEvent(Event{Timestamp: time.Now(), Type: "BEST", Severity: "info", Message: "improved"}))
	}
	assert.Len(t, m.events, maxEvents)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Empty(t, m.events)
}

func TestModelShutdown(t *testing.T) {
	m := NewModel()
	next, cmd := m.Update(MsgShutdown{})
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
	assert.Equal(t, "", next.View())
	assert.True(t, strings.HasPrefix(FormatDuration(90*time.Second), "1m"))
}
