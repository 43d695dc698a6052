package gp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symreg/expr"
)

func quadraticTargets() *TabulatedFitness {
	var targets []Target
	for x := -5.0; x <= 5; x++ {
		targets = append(targets, Target{Bindings: map[string]float64{"x": x}, Value: x*x + x})
	}
	return NewTabulatedFitness(targets...)
}

func arithmetic() []*expr.Function {
	return []*expr.Function{expr.Add, expr.Sub, expr.Mul, expr.Constant, expr.Variable}
}

func TestNewEngineErrors(t *testing.T) {
	fit := quadraticTargets()

	_, err := NewEngine(fit, []string{"x"}, []*expr.Function{expr.Add, expr.Mul})
	assert.ErrorIs(t, err, expr.ErrNoTerminals)

	_, err = NewEngine(fit, nil, arithmetic())
	assert.ErrorIs(t, err, expr.ErrNoVariables)

	cfg := DefaultConfig()
	cfg.PopulationSize = 0
	_, err = NewEngine(fit, []string{"x"}, arithmetic(), WithConfig(cfg))
	assert.ErrorContains(t, err, "population_size")

	cfg = DefaultConfig()
	cfg.PMutation = 1.5
	_, err = NewEngine(fit, []string{"x"}, arithmetic(), WithConfig(cfg))
	assert.ErrorContains(t, err, "p_mutation")
}

func TestEngineInitialPopulation(t *testing.T) {
	e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithSeed(3), WithLogger(quiet))
	require.NoError(t, err)

	pop := e.Population()
	require.Len(t, pop, DefaultConfig().PopulationSize)
	for _, c := range pop {
		require.NoError(t, c.Tree().Validate(e.Context()))
		assert.LessOrEqual(t, c.Tree().Depth(), DefaultConfig().InitialDepth)
	}
	assert.Equal(t, int64(3), e.Config().Seed)
	assert.Zero(t, e.Iteration())
}

func TestEngineFindsQuadratic(t *testing.T) {
	if testing.Short() {
		t.Skip("long evolution")
	}
	small := DefaultConfig()
	small.PopulationSize = 40
	small.OptimizeIterations = 20
	small.Seed = 7

	full := DefaultConfig()
	full.Seed = 1

	tests := []struct {
		name      string
		functions []*expr.Function
		cfg       Config
	}{
		{"arithmetic", arithmetic(), small},
		// sqrt, ln, div and pow put NaN and Inf into the population
		{"full catalog", expr.Functions(), full},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(quadraticTargets(), []string{"x"}, tt.functions, WithConfig(tt.cfg), WithLogger(quiet))
			require.NoError(t, err)

			prev := e.BestFitness()
			e.AddIterationListener(func(e *Engine) {
				best := e.BestFitness()
				if !math.IsNaN(prev) && !math.IsInf(prev, 0) {
					assert.LessOrEqual(t, best, prev, "best fitness regressed at %d", e.Iteration())
				}
				prev = best
				if best < 1e-3 {
					e.Terminate()
				}
			})
			require.NoError(t, e.Evolve(context.Background(), 500))

			best := e.BestExpression()
			require.Less(t, e.BestFitness(), 1e-3, "best: %s", best)
			for _, x := range []float64{-5, 0, 5} {
				e.Context().SetVariable("x", x)
				assert.InDelta(t, x*x+x, best.Eval(e.Context()), 0.05, "x=%v best=%s", x, best)
			}
		})
	}
}

func TestEngineListenerTerminates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizeIterations = 2
	e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithConfig(cfg), WithSeed(5), WithLogger(quiet))
	require.NoError(t, err)

	e.AddIterationListener(func(e *Engine) {
		if e.Iteration() == 4 {
			e.Terminate()
		}
	})
	require.NoError(t, e.Evolve(context.Background(), 100))
	assert.Equal(t, 4, e.Iteration())

	e.ResetIterations()
	assert.Zero(t, e.Iteration())
}

func TestEngineContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizeIterations = 2
	e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithConfig(cfg), WithSeed(6), WithLogger(quiet))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	e.AddIterationListener(func(e *Engine) {
		if e.Iteration() == 2 {
			cancel()
		}
	})
	assert.ErrorIs(t, e.Evolve(ctx, 100), context.Canceled)
	assert.Equal(t, 2, e.Iteration())
}

func TestEngineSeededRunsAgree(t *testing.T) {
	run := func() string {
		cfg := DefaultConfig()
		cfg.OptimizeIterations = 5
		e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithConfig(cfg), WithSeed(21), WithLogger(quiet))
		require.NoError(t, err)
		require.NoError(t, e.Evolve(context.Background(), 10))
		return e.Best().String()
	}
	assert.Equal(t, run(), run())
}

func TestEngineAsync(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Async = true
	cfg.Workers = 4
	cfg.PopulationSize = 16
	cfg.OptimizeIterations = 5
	cfg.CheckInvariants = true
	e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithConfig(cfg), WithSeed(8), WithLogger(quiet))
	require.NoError(t, err)

	require.NoError(t, e.Evolve(context.Background(), 10))
	for _, c := range e.Population() {
		require.NoError(t, c.Tree().Validate(e.Context()))
		assert.True(t, c.Optimized())
	}
	assert.Equal(t, 4, e.scorer.contexts.Len())
}

func TestEngineCounters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizeIterations = 2
	e, err := NewEngine(quadraticTargets(), []string{"x"}, arithmetic(), WithConfig(cfg), WithSeed(9), WithLogger(quiet))
	require.NoError(t, err)
	require.NoError(t, e.Evolve(context.Background(), 3))

	assert.Positive(t, e.Explored())
	assert.LessOrEqual(t, e.Explored(), e.Evaluations())

	s := e.Stats()
	assert.Equal(t, cfg.PopulationSize, s.Size)
	assert.Equal(t, s.Size, s.Finite+s.NonFinite)
	assert.Equal(t, e.BestFitness(), s.Min)

	// the best tree scored directly agrees with its cached fitness
	assert.InDelta(t, e.BestFitness(), e.Fitness(e.BestExpression()), 1e-9)
	assert.Equal(t, e.BestFitness(), e.ChromosomeFitness(e.Best()))
}
