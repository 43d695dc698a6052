package logx

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

const (
	reset   = "\x1b[0m"
	bold    = "\x1b[1m"
	gray    = "\x1b[90m"
	cyan    = "\x1b[36m"
	blue    = "\x1b[34m"
	yellow  = "\x1b[33m"
	green   = "\x1b[32m"
	magenta = "\x1b[35m"
	red     = "\x1b[31m"
)

var enableColor = true

func init() {
	// Disable color if NO_COLOR is set or stdout is not a terminal
	if os.Getenv("NO_COLOR") != "" {
		enableColor = false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		enableColor = false
	}
}

// NewLogger returns a tinted slog logger writing to w. Colour follows the
// same NO_COLOR / TTY rule as the rest of the package.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !enableColor,
	}))
}

// C returns a color-coded string (or plain string if color disabled)
func C(color, s string) string {
	if !enableColor {
		return s
	}
	return color + s + reset
}

// Cf returns a color-coded formatted string
func Cf(color, format string, args ...any) string {
	return C(color, fmt.Sprintf(format, args...))
}

// Channel returns a padded colored channel tag. Pass 4-char names:
// "PROG", "GEN ", "BEST", "STAG", "HOF ".
func Channel(ch string) string {
	color := map[string]string{
		"PROG": cyan,
		"GEN ": blue,
		"BEST": green,
		"STAG": yellow,
		"HOF ": magenta,
	}[ch]
	return C(color, fmt.Sprintf("[%-4s]", ch))
}

// TS returns a gray UTC clock stamp for now.
func TS() string {
	return C(gray, time.Now().UTC().Format("15:04:05Z"))
}

func Success(s string) string { return C(green, s) }

func Successf(format string, args ...any) string { return C(green, fmt.Sprintf(format, args...)) }

func Error(s string) string { return C(red, s) }

func Errorf(format string, args ...any) string { return C(red, fmt.Sprintf(format, args...)) }

func Warn(s string) string { return C(yellow, s) }

func Warnf(format string, args ...any) string { return C(yellow, fmt.Sprintf(format, args...)) }

func Info(s string) string { return C(cyan, s) }

func Highlight(s string) string { return C(bold, s) }

func Dim(s string) string { return C(gray, s) }

func Dimf(format string, args ...any) string { return C(gray, fmt.Sprintf(format, args...)) }

// Icon maps a short name to a coloured glyph.
func Icon(name string) string {
	switch name {
	case "ok":
		return Success("✓")
	case "fail":
		return Error("✗")
	case "warn":
		return Warn("⚠")
	case "best":
		return Success("↗")
	default:
		return Info("•")
	}
}

// FitnessColor colours a fitness value against the stop threshold: green
// once it is below stop, yellow within ten times stop, red otherwise.
// Non-finite values are always red.
func FitnessColor(fitness, stop float64) string {
	s := FormatFitness(fitness)
	switch {
	case math.IsNaN(fitness) || math.IsInf(fitness, 0):
		return Error(s)
	case fitness < stop:
		return Success(s)
	case fitness < 10*stop:
		return Warn(s)
	}
	return Error(s)
}

// FormatFitness prints small values in scientific notation.
func FormatFitness(f float64) string {
	if f != 0 && math.Abs(f) < 1e-3 {
		return fmt.Sprintf("%.3e", f)
	}
	return fmt.Sprintf("%.4f", f)
}

// FormatDuration formats a duration in a human-readable way
// Shows hours, minutes, and seconds (e.g., "1h23m" or "45m" or "23s")
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}
