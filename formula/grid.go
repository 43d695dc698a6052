package formula

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Axis is an evenly spaced sample range for one variable, endpoints included.
type Axis struct {
	Name string  `toml:"name" json:"name"`
	From float64 `toml:"from" json:"from"`
	To   float64 `toml:"to" json:"to"`
	Step float64 `toml:"step" json:"step"`
}

// Points returns the sample values along the axis.
func (a Axis) Points() ([]float64, error) {
	if a.Step <= 0 {
		return nil, fmt.Errorf("axis %s: step must be positive, got %v", a.Name, a.Step)
	}
	if a.To < a.From {
		return nil, fmt.Errorf("axis %s: empty range [%v, %v]", a.Name, a.From, a.To)
	}
	n := int(math.Floor((a.To-a.From)/a.Step+1e-9)) + 1
	if n == 1 {
		return []float64{a.From}, nil
	}
	hi := a.From + float64(n-1)*a.Step
	return floats.Span(make([]float64, n), a.From, hi), nil
}

// Sample is one grid point: variable bindings and the formula value there.
type Sample struct {
	Bindings map[string]float64
	Value    float64
}

// Grid evaluates f at every point of the cartesian product of axes. Points
// where f is not finite are dropped; they carry no usable target.
func Grid(f *Formula, axes []Axis) ([]Sample, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("grid: no axes")
	}
	values := make([][]float64, len(axes))
	total := 1
	for i, a := range axes {
		pts, err := a.Points()
		if err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
		values[i] = pts
		total *= len(pts)
	}

	out := make([]Sample, 0, total)
	idx := make([]int, len(axes))
	for {
		b := make(map[string]float64, len(axes))
		for i, a := range axes {
			b[a.Name] = values[i][idx[i]]
		}
		v, err := f.Eval(b)
		if err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, Sample{Bindings: b, Value: v})
		}

		// odometer increment, last axis fastest
		k := len(axes) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(values[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			break
		}
	}
	return out, nil
}
