package logx

import (
	"fmt"
	"strings"
)

const eventSep = "═══════════════════════════════════════════════════════════════════"

// BestBlock describes a new best expression.
type BestBlock struct {
	Iteration  int
	Fitness    float64
	Previous   float64
	Expression string
	Nodes      int
	Depth      int
	Params     int
	Vars       int
	Stop       float64
}

// LogBestBlock prints a boxed event for an improved best expression.
func LogBestBlock(b BestBlock) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", eventSep)
	fmt.Fprintf(&sb, "%s  %s  NEW BEST (gen %s)\n", TS(), Channel("BEST"), formatNumber(b.Iteration))
	fmt.Fprintf(&sb, "Fitness:      %s", FitnessColor(b.Fitness, b.Stop))
	if b.Previous > b.Fitness {
		fmt.Fprintf(&sb, "  %s", Dimf("(was %s)", FormatFitness(b.Previous)))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Expression:   %s\n", Highlight(b.Expression))
	fmt.Fprintf(&sb, "Complexity:   nodes=%d depth=%d params=%d vars=%d\n", b.Nodes, b.Depth, b.Params, b.Vars)
	fmt.Fprintf(&sb, "%s\n", eventSep)
	fmt.Print(sb.String())
}

// LogStagnationBlock prints a warning when the best fitness has not moved
// for a number of generations.
func LogStagnationBlock(iteration, since int, best float64) {
	fmt.Printf("%s  %s  %s no improvement for %d generations (gen %s, best %s)\n",
		TS(), Channel("STAG"), Icon("warn"),
		since, formatNumber(iteration), FormatFitness(best),
	)
}

// LogResult prints the final summary box.
func LogResult(expression string, fitness float64, iterations int, explored int64, stop float64) {
	const width = 66
	fmt.Printf("\n%s", BoxHeader("RESULT", width))
	fmt.Printf("%s", BoxRow("expression: "+expression, width))
	fmt.Printf("%s", BoxRow("fitness:    "+FormatFitness(fitness), width))
	fmt.Printf("%s", BoxRow(fmt.Sprintf("generations: %s  explored: %s", formatNumber(iterations), formatNumber(int(explored))), width))
	fmt.Printf("%s", BoxFooter(width))
	if fitness < stop {
		fmt.Printf("%s %s\n", Icon("ok"), Successf("target reached (stop=%s)", FormatFitness(stop)))
	} else {
		fmt.Printf("%s %s\n", Icon("fail"), Warnf("target not reached (stop=%s)", FormatFitness(stop)))
	}
}
