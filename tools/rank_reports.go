package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
)

// fitness accepts plain numbers and the quoted "NaN" / "+Inf" that run
// reports use for non-finite values.
type fitness float64

func (f *fitness) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = fitness(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = fitness(v)
	return nil
}

type reportSummary struct {
	RunID      string `json:"run_id"`
	Target     string `json:"target"`
	Iterations int    `json:"iterations"`
	StopReason string `json:"stop_reason"`
	Duration   string `json:"duration"`
	Best       struct {
		Expression string  `json:"expression"`
		Fitness    fitness `json:"fitness"`
		Nodes      int     `json:"nodes"`
	} `json:"best"`

	path string
}

func main() {
	dir := flag.String("dir", ".", "directory holding run reports (*.json)")
	top := flag.Int("top", 10, "number of runs to print")
	target := flag.String("target", "", "only rank runs of this target formula")
	flag.Parse()

	paths, err := filepath.Glob(filepath.Join(*dir, "*.json"))
	if err != nil {
		fmt.Printf("Error listing reports: %v\n", err)
		os.Exit(1)
	}

	var reports []reportSummary
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", p, err)
			continue
		}
		var r reportSummary
		if err := json.Unmarshal(data, &r); err != nil || r.RunID == "" {
			// not a run report
			continue
		}
		if *target != "" && r.Target != *target {
			continue
		}
		r.path = p
		reports = append(reports, r)
	}

	// lowest fitness first, NaN last, then the smaller tree
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := float64(reports[i].Best.Fitness), float64(reports[j].Best.Fitness)
		if math.IsNaN(a) != math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		if a != b {
			return a < b
		}
		return reports[i].Best.Nodes < reports[j].Best.Nodes
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tfitness\tnodes\tgens\tstop\ttarget\texpression\tfile")
	for i := 0; i < *top && i < len(reports); i++ {
		r := reports[i]
		fmt.Fprintf(w, "%d\t%.6g\t%d\t%d\t%s\t%s\t%s\t%s\n",
			i+1, float64(r.Best.Fitness), r.Best.Nodes, r.Iterations, r.StopReason, r.Target, r.Best.Expression, filepath.Base(r.path))
	}
	w.Flush()
	fmt.Printf("Ranked %d of %d reports\n", min(*top, len(reports)), len(reports))
}
