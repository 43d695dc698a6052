package logx

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// NewTableWriter creates a tabwriter for custom output
func NewTableWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// SampleRow is one evaluated target point.
type SampleRow struct {
	Bindings []float64 // aligned with the variable names
	Want     float64
	Got      float64
}

// PrintSamples writes an aligned table of target points against the values
// the expression produces there. At most limit rows are printed; limit <= 0
// prints all.
func PrintSamples(w io.Writer, variables []string, rows []SampleRow, limit int) {
	tw := NewTableWriter(w)
	for _, v := range variables {
		fmt.Fprintf(tw, "%s\t", v)
	}
	fmt.Fprintln(tw, "want\tgot\terror")
	for i, r := range rows {
		if limit > 0 && i >= limit {
			fmt.Fprintf(tw, "... %d more\n", len(rows)-limit)
			break
		}
		for _, b := range r.Bindings {
			fmt.Fprintf(tw, "%.4g\t", b)
		}
		diff := math.Abs(r.Want - r.Got)
		fmt.Fprintf(tw, "%.6g\t%.6g\t%s\n", r.Want, r.Got, Dim(fmt.Sprintf("%.3g", diff)))
	}
	tw.Flush()
}

// HallRow is one hall of fame entry for display.
type HallRow struct {
	Rank       int
	Fitness    float64
	Nodes      int
	Iteration  int
	Expression string
}

// PrintHallOfFame writes the ranked hall of fame.
func PrintHallOfFame(w io.Writer, rows []HallRow) {
	fmt.Fprintf(w, "%s  %s  HALL OF FAME (%d)\n", TS(), Channel("HOF "), len(rows))
	tw := NewTableWriter(w)
	fmt.Fprintln(tw, "#\tfitness\tnodes\tgen\texpression")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", r.Rank, FormatFitness(r.Fitness), r.Nodes, r.Iteration, r.Expression)
	}
	tw.Flush()
}
