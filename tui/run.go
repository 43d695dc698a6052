package tui

import (
	"context"
	"errors"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	ErrNotTTY   = errors.New("tui disabled: stdout is not a terminal")
	ErrDumbTerm = errors.New("tui disabled: TERM=dumb")
)

type Config struct {
	Title         string
	Target        string
	Variables     []string
	MaxIterations int
	StopFitness   float64
}

var (
	mu      sync.RWMutex
	program *tea.Program
	done    chan struct{}
)

// Start launches the dashboard in the background. It fails when the
// terminal cannot host it; callers fall back to line output.
func Start(ctx context.Context, cfg Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNotTTY
	}
	if os.Getenv("TERM") == "dumb" {
		return ErrDumbTerm
	}

	m := NewModel()
	m.snapshot.Title = cfg.Title
	m.snapshot.Target = cfg.Target
	m.snapshot.Variables = cfg.Variables
	m.snapshot.MaxIterations = cfg.MaxIterations
	m.snapshot.StopFitness = cfg.StopFitness

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	finished := make(chan struct{})

	mu.Lock()
	program = p
	done = finished
	mu.Unlock()

	go func() {
		defer close(finished)
		_, _ = p.Run()
		mu.Lock()
		program = nil
		mu.Unlock()
	}()
	return nil
}

// Stop asks the dashboard to quit and waits until the terminal is restored.
func Stop() {
	mu.RLock()
	p, finished := program, done
	mu.RUnlock()
	if p == nil {
		return
	}
	p.Send(MsgShutdown{})
	<-finished
}

// Running reports whether the dashboard currently owns the terminal.
func Running() bool {
	mu.RLock()
	defer mu.RUnlock()
	return program != nil
}

// PushState sends a state snapshot to the TUI (thread-safe)
func PushState(s StateSnapshot) {
	mu.RLock()
	p := program
	mu.RUnlock()
	if p != nil {
		p.Send(MsgStateSnapshot(s))
	}
}

// PushEvent sends an event to the TUI (thread-safe)
func PushEvent(e Event) {
	mu.RLock()
	p := program
	mu.RUnlock()
	if p != nil {
		p.Send(MsgEvent(e))
	}
}
