package gp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes the fitness distribution of a population. Every field but
// the counts covers finite scores only and is zero when there are none.
type Stats struct {
	Size      int     `json:"size"`
	Finite    int     `json:"finite"`
	NonFinite int     `json:"non_finite"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Median    float64 `json:"median"`
}

func computeStats(scores []float64) Stats {
	s := Stats{Size: len(scores)}
	finite := make([]float64, 0, len(scores))
	for _, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NonFinite++
			continue
		}
		finite = append(finite, v)
	}
	s.Finite = len(finite)
	if len(finite) == 0 {
		return s
	}

	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		s.StdDev = 0
	}
	sort.Float64s(finite)
	s.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
	return s
}
