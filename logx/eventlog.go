package logx

import (
	"fmt"
	"time"

	"symreg/tui"
)

// Convenience functions that forward to TUI

func LogNewBest(oldFitness, newFitness float64, expression string) {
	tui.PushEvent(tui.Event{
		Timestamp: time.Now(),
		Type:      "BEST",
		Severity:  "info",
		Message:   fmt.Sprintf("Best fitness %s → %s: %s", FormatFitness(oldFitness), FormatFitness(newFitness), expression),
	})
}

func LogHallOfFameAdded(fitness float64, size int) {
	tui.PushEvent(tui.Event{
		Timestamp: time.Now(),
		Type:      "HOF",
		Severity:  "info",
		Message:   fmt.Sprintf("Hall of fame entry (fitness=%s, total=%d)", FormatFitness(fitness), size),
	})
}

func LogStagnation(generations int) {
	tui.PushEvent(tui.Event{
		Timestamp: time.Now(),
		Type:      "STAGNATION",
		Severity:  "warning",
		Message:   fmt.Sprintf("No improvement for %d generations", generations),
	})
}

func LogNonFinite(count, size int) {
	tui.PushEvent(tui.Event{
		Timestamp: time.Now(),
		Type:      "NAN",
		Severity:  "warning",
		Message:   fmt.Sprintf("%d of %d trees scored NaN or Inf", count, size),
	})
}

func LogRunError(err error) {
	tui.PushEvent(tui.Event{
		Timestamp: time.Now(),
		Type:      "ERROR",
		Severity:  "error",
		Message:   err.Error(),
	})
}
