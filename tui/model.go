package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const maxEvents = 1000

// StateSnapshot is the search state after one generation.
type StateSnapshot struct {
	Title     string
	Target    string
	Variables []string
	StartTime time.Time

	Iteration     int
	MaxIterations int // 0 = unbounded
	Evaluations   int64
	Explored      int64
	RatePerSec    float64

	BestFitness    float64
	BestExpression string
	MeanFitness    float64
	StdDevFitness  float64
	NonFinite      int
	Population     int
	HallOfFame     int
	StagnationGens int
	StopFitness    float64
}

// Event represents a significant event
type Event struct {
	Timestamp time.Time
	Type      string // "BEST", "HOF", "STAGNATION", "NAN", "ERROR"
	Severity  string // "info", "warning", "error"
	Message   string
}

type (
	MsgStateSnapshot StateSnapshot
	MsgEvent         Event
	MsgShutdown      struct{}
	MsgTick          time.Time
)

type Model struct {
	snapshot StateSnapshot
	events   []Event
	paused   bool

	width  int
	height int
	ready  bool

	progress progress.Model
	viewport viewport.Model

	// previous best, for the trend arrow
	prevBest float64
	quitting bool
}

func NewModel() Model {
	return Model{
		snapshot: StateSnapshot{StartTime: time.Now()},
		events:   make([]Event, 0, maxEvents),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		viewport: viewport.New(0, 10),
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return MsgTick(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m2, keyCmd := m.handleKey(msg)
		m = m2.(Model)

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, tea.Batch(cmd, keyCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = max(m.width-4, 10)
		m.viewport.Height = 10
		m.progress.Width = min(max(m.width-20, 10), 60)
		return m, nil

	case MsgStateSnapshot:
		if m.paused {
			return m, nil
		}
		m.prevBest = m.snapshot.BestFitness
		m.snapshot = StateSnapshot(msg)
		return m, nil

	case MsgEvent:
		m.addEvent(Event(msg))
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m, nil

	case MsgTick:
		return m, tick()

	case MsgShutdown:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "p":
		m.paused = !m.paused
		return m, nil
	case "c":
		m.events = m.events[:0]
		m.updateViewportContent()
		return m, nil
	}
	return m, nil
}

func (m *Model) addEvent(e Event) {
	m.events = append(m.events, e)
	if len(m.events) > maxEvents {
		m.events = m.events[1:]
	}
}

// updateViewportContent rebuilds the event log; call it only when events
// change, not on every render.
func (m *Model) updateViewportContent() {
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		style := styleEventInfo
		icon := "•"
		switch {
		case e.Severity == "error":
			style, icon = styleEventError, "✗"
		case e.Severity == "warning":
			style, icon = styleEventWarn, "⚠"
		case e.Type == "BEST":
			icon = "↗"
		case e.Type == "HOF":
			icon = "✓"
		}
		lines = append(lines, style.Render(
			fmt.Sprintf("[%s] %s %s", e.Timestamp.Format("15:04:05"), icon, e.Message),
		))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}
