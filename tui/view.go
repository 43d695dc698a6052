package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleGray   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleBold   = lipgloss.NewStyle().Bold(true)

	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	styleEventInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleEventWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleEventError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderProgress(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitness(), m.renderSearch()),
		m.renderBest(),
		m.renderEvents(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	s := m.snapshot
	return styleHeader.Render(fmt.Sprintf(
		"%s │ target=%s │ vars=%s │ runtime=%s",
		s.Title,
		s.Target,
		strings.Join(s.Variables, ","),
		FormatDuration(time.Since(s.StartTime)),
	))
}

func (m Model) renderProgress() string {
	s := m.snapshot
	if s.MaxIterations <= 0 {
		return stylePanel.Render(fmt.Sprintf("Generation %d", s.Iteration))
	}
	pct := math.Min(float64(s.Iteration)/float64(s.MaxIterations), 1)
	return stylePanel.Render(fmt.Sprintf("%s %d/%d", m.progress.ViewAs(pct), s.Iteration, s.MaxIterations))
}

func (m Model) renderFitness() string {
	s := m.snapshot
	return stylePanel.Width(50).Render(fmt.Sprintf(
		"Fitness: best=%s │ mean=%.4g ± %.3g │ nan=%d/%d",
		m.bestColor(s.BestFitness),
		s.MeanFitness, s.StdDevFitness,
		s.NonFinite, s.Population,
	))
}

func (m Model) renderSearch() string {
	s := m.snapshot
	stagnation := styleDim.Render(fmt.Sprintf("%d", s.StagnationGens))
	if s.StagnationGens >= 50 {
		stagnation = styleYellow.Render(fmt.Sprintf("%d", s.StagnationGens))
	}
	return stylePanel.Width(50).Render(fmt.Sprintf(
		"Search: evals=%d │ explored=%d │ %.0f/s │ hof=%d │ stagnation=%s",
		s.Evaluations, s.Explored, s.RatePerSec, s.HallOfFame, stagnation,
	))
}

func (m Model) renderBest() string {
	expr := m.snapshot.BestExpression
	if expr == "" {
		expr = styleDim.Render("(none yet)")
	} else {
		expr = styleBold.Render(expr)
	}
	return stylePanel.Render("Best: " + expr)
}

func (m Model) renderEvents() string {
	if m.width == 0 {
		return stylePanel.Render("Events: initializing...")
	}
	return stylePanel.Render("Events (scroll):") + "\n" + m.viewport.View()
}

func (m Model) renderFooter() string {
	hints := []string{"q: quit", "p: pause", "c: clear events"}
	if m.paused {
		hints = append(hints, "(PAUSED)")
	}
	for i, h := range hints {
		hints[i] = styleDim.Render(h)
	}
	return styleGray.Render("│ " + strings.Join(hints, " │ ") + " │")
}

// bestColor marks the trend since the previous snapshot. Lower is better.
func (m Model) bestColor(best float64) string {
	s := fmt.Sprintf("%.4g", best)
	switch {
	case math.IsNaN(best) || math.IsInf(best, 0):
		return styleRed.Render(s)
	case m.snapshot.StopFitness > 0 && best < m.snapshot.StopFitness:
		return styleGreen.Render(s + " ✓")
	case best < m.prevBest:
		return styleGreen.Render(s + " ↓")
	}
	return styleDim.Render(s + " =")
}

func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}
