package logx

import (
	"fmt"
	"strings"
	"time"
)

// GenerationStats is one line of search progress.
type GenerationStats struct {
	Iteration   int
	Best        float64
	Mean        float64
	StdDev      float64
	NonFinite   int
	Explored    int64
	Evaluations int64
	Elapsed     time.Duration
	Stop        float64
}

// Rate is evaluations per second over the whole run.
func (g GenerationStats) Rate() float64 {
	if g.Elapsed <= 0 {
		return 0
	}
	return float64(g.Evaluations) / g.Elapsed.Seconds()
}

// LogGeneration prints a single progress line for a finished generation.
func LogGeneration(g GenerationStats) {
	fmt.Printf("%s  %s  Gen %s | Best: %s | Mean: %s ± %s | NaN: %d | Explored: %s | Rate: %.0f/s | Runtime: %s\n",
		TS(),
		Channel("GEN "),
		formatNumber(g.Iteration),
		FitnessColor(g.Best, g.Stop),
		FormatFitness(g.Mean), FormatFitness(g.StdDev),
		g.NonFinite,
		formatNumber(int(g.Explored)),
		g.Rate(),
		FormatDuration(g.Elapsed),
	)
}

// LogStart prints the run banner.
func LogStart(target string, variables []string, population int, seed int64, workers int, async bool) {
	mode := "sync"
	if async {
		mode = fmt.Sprintf("async x%d", workers)
	}
	fmt.Printf("%s  %s  target=%s vars=%s population=%d seed=%d mode=%s\n",
		TS(), Channel("PROG"),
		Highlight(target), strings.Join(variables, ","), population, seed, mode,
	)
}

// LogStopped prints why the run ended.
func LogStopped(reason string, iteration int, elapsed time.Duration) {
	fmt.Printf("%s  %s  stopped after %s generations (%s): %s\n",
		TS(), Channel("PROG"),
		formatNumber(iteration), FormatDuration(elapsed), reason,
	)
}

// LogReportSaved prints the path of a written run report.
func LogReportSaved(path, runID string) {
	fmt.Printf("%s  %s  report %s written (run %s)\n", TS(), Channel("PROG"), path, Dim(runID))
}

// Box formatting helpers for compact display

// BoxHeader creates a top border for a boxed section with title
func BoxHeader(title string, width int) string {
	if width < 20 {
		width = 50
	}
	padding := width - len(title) - 6
	if padding < 2 {
		padding = 2
	}
	return fmt.Sprintf("┌─ %s %s┐\n", C(bold, title), C(gray, strings.Repeat("─", padding)+"─"))
}

// BoxFooter creates a bottom border for a boxed section
func BoxFooter(width int) string {
	if width < 20 {
		width = 50
	}
	return C(gray, "└"+strings.Repeat("─", width-2)+"┘") + "\n"
}

// BoxRow pads content to width. Colour codes count toward the width, so
// pass plain text for exact alignment.
func BoxRow(content string, width int) string {
	if width < 20 {
		width = 50
	}
	padding := width - len([]rune(content)) - 4
	if padding < 0 {
		padding = 0
	}
	return fmt.Sprintf("│ %s%s │\n", content, strings.Repeat(" ", padding))
}

// formatNumber formats a number with thousands separators (e.g., 12,345)
func formatNumber(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return sign + s
	}
	var parts []string
	for i := len(s); i > 0; i -= 3 {
		start := max(i-3, 0)
		parts = append([]string{s[start:i]}, parts...)
	}
	return sign + strings.Join(parts, ",")
}

// FormatNumber is the exported form of formatNumber.
func FormatNumber(n int) string {
	return formatNumber(n)
}
