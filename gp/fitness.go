package gp

import (
	"symreg/expr"
)

// ExpressionFitness scores a tree under a context; lower is better. The
// implementation may overwrite variable bindings on ctx. It is called
// concurrently only with distinct contexts.
type ExpressionFitness interface {
	Fitness(tree *expr.Expression, ctx *expr.Context) float64
}

// ExpressionFitnessFunc adapts a plain function to ExpressionFitness.
type ExpressionFitnessFunc func(tree *expr.Expression, ctx *expr.Context) float64

func (f ExpressionFitnessFunc) Fitness(tree *expr.Expression, ctx *expr.Context) float64 {
	return f(tree, ctx)
}

// Target is one tabulated point: the variable bindings and the value the
// unknown function takes there.
type Target struct {
	Bindings map[string]float64 `json:"bindings"`
	Value    float64            `json:"value"`
}

// TabulatedFitness is the sum of squared errors over a fixed set of points.
type TabulatedFitness struct {
	Targets []Target
}

func NewTabulatedFitness(targets ...Target) *TabulatedFitness {
	return &TabulatedFitness{Targets: targets}
}

func (f *TabulatedFitness) Fitness(tree *expr.Expression, ctx *expr.Context) float64 {
	var sum float64
	for _, t := range f.Targets {
		for name, v := range t.Bindings {
			ctx.SetVariable(name, v)
		}
		d := t.Value - tree.Eval(ctx)
		sum += d * d
	}
	return sum
}

// Residuals evaluates tree at every target and returns (got, want) pairs in
// target order.
func (f *TabulatedFitness) Residuals(tree *expr.Expression, ctx *expr.Context) (got, want []float64) {
	got = make([]float64, len(f.Targets))
	want = make([]float64, len(f.Targets))
	for i, t := range f.Targets {
		for name, v := range t.Bindings {
			ctx.SetVariable(name, v)
		}
		got[i] = tree.Eval(ctx)
		want[i] = t.Value
	}
	return got, want
}
