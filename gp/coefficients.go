package gp

import (
	"context"
	"io"
	"log/slog"
	"math"

	"symreg/expr"
	"symreg/ga"
)

// quiet silences the per-generation records of nested engines; one tree
// evaluation runs a whole inner evolution.
var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// optimizer holds the settings of the nested coefficient search shared by
// every chromosome of a run.
type optimizer struct {
	fitness         ExpressionFitness
	cutDepth        int
	iterations      int
	mutated         int
	pMutation       float64
	pCrossover      float64
	checkInvariants bool
	log             *slog.Logger
}

func newOptimizer(fitness ExpressionFitness, cfg Config, log *slog.Logger) *optimizer {
	return &optimizer{
		fitness:         fitness,
		cutDepth:        cfg.CutDepth,
		iterations:      cfg.OptimizeIterations,
		mutated:         cfg.OptimizeMutated,
		pMutation:       cfg.PMutation,
		pCrossover:      cfg.PCrossover,
		checkInvariants: cfg.CheckInvariants,
		log:             log,
	}
}

// coefficients is the flat coefficient genome of one tree.
type coefficients struct {
	values     []float64
	pMutation  float64
	pCrossover float64
	ctx        *expr.Context
}

func (k *coefficients) with(values []float64) *coefficients {
	return &coefficients{values: values, pMutation: k.pMutation, pCrossover: k.pCrossover, ctx: k.ctx}
}

// Mutate perturbs each value by a small random delta with probability
// 1 - pMutation.
func (k *coefficients) Mutate() *coefficients {
	out := append([]float64(nil), k.values...)
	rng := k.ctx.Rand()
	for i := range out {
		if rng.Float64() > k.pMutation {
			out[i] += k.ctx.RandomMutationValue()
		}
	}
	return k.with(out)
}

// Crossover swaps value i between the two vectors with probability
// pCrossover, independently for each position.
func (k *coefficients) Crossover(other *coefficients) []*coefficients {
	a := append([]float64(nil), k.values...)
	b := append([]float64(nil), other.values...)
	rng := k.ctx.Rand()
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if rng.Float64() < k.pCrossover {
			a[i], b[i] = b[i], a[i]
		}
	}
	return []*coefficients{k.with(a), k.with(b)}
}

// coefficientFitness scores a vector by injecting it into a scratch clone of
// the tree. The inner engine runs synchronously, so one scratch tree serves
// every evaluation.
type coefficientFitness struct {
	scratch *expr.Expression
	ctx     *expr.Context
	fitness ExpressionFitness
}

func (f *coefficientFitness) Calculate(k *coefficients) float64 {
	if err := f.scratch.SetCoefficientsOfTree(k.values); err != nil {
		return math.NaN()
	}
	return f.fitness.Fitness(f.scratch, f.ctx)
}

// optimizeCoefficients evolves the tree's coefficient vector and writes the
// best one back. The starting vector stays in the population and every parent
// may survive, so the result never scores worse than the input.
func (o *optimizer) optimizeCoefficients(tree *expr.Expression, ctx *expr.Context) {
	values := tree.CoefficientsOfTree()
	if len(values) == 0 || o.iterations == 0 {
		return
	}

	seed := &coefficients{values: values, pMutation: o.pMutation, pCrossover: o.pCrossover, ctx: ctx}
	population := make([]*coefficients, 0, o.mutated+1)
	population = append(population, seed)
	for i := 0; i < o.mutated; i++ {
		population = append(population, seed.Mutate())
	}

	fit := &coefficientFitness{scratch: tree.Clone(), ctx: ctx, fitness: o.fitness}
	inner, err := ga.New(population, ga.Fitness[*coefficients](fit),
		ga.Settings{ParentSurviveCount: len(population)},
		ga.WithRand(ctx.Rand()), ga.WithLogger(quiet), ga.WithName("coefficients"))
	if err != nil {
		o.log.Warn("coefficient optimizer", "err", err)
		return
	}
	if err := inner.Evolve(context.Background(), o.iterations); err != nil {
		o.log.Warn("coefficient optimizer", "err", err)
		return
	}

	if err := tree.SetCoefficientsOfTree(inner.Best().values); err != nil {
		o.log.Warn("coefficient optimizer", "err", err)
	}
}
