package gp

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symreg/expr"
)

func TestComputeStats(t *testing.T) {
	s := computeStats([]float64{4, 1, math.NaN(), 3, math.Inf(1), 2})
	assert.Equal(t, 6, s.Size)
	assert.Equal(t, 4, s.Finite)
	assert.Equal(t, 2, s.NonFinite)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	// empirical quantile picks the lower middle value
	assert.Equal(t, 2.0, s.Median)

	one := computeStats([]float64{7})
	assert.Equal(t, 7.0, one.Median)
	assert.Zero(t, one.StdDev)

	empty := computeStats([]float64{math.NaN()})
	assert.Equal(t, Stats{Size: 1, NonFinite: 1}, empty)
}

func TestTabulatedFitness(t *testing.T) {
	ctx := newTestContext(t, 20, "x", "y")
	fit := NewTabulatedFitness(
		Target{Bindings: map[string]float64{"x": 1, "y": 2}, Value: 3},
		Target{Bindings: map[string]float64{"x": 2, "y": 2}, Value: 5},
	)
	sum := expr.NewOp(expr.Add, expr.NewVariable("x"), expr.NewVariable("y"))
	assert.Equal(t, 1.0, fit.Fitness(sum, ctx))

	got, want := fit.Residuals(sum, ctx)
	assert.Equal(t, []float64{3, 4}, got)
	assert.Equal(t, []float64{3, 5}, want)

	assert.Zero(t, NewTabulatedFitness().Fitness(sum, ctx))
}

func TestContextPool(t *testing.T) {
	base := newTestContext(t, 21)
	base.SetVariable("x", 9)
	p := newContextPool(base, 2, 100)
	require.Equal(t, 2, p.Len())

	a := p.Get()
	b := p.Get()
	c := p.Get() // forked on demand
	assert.NotSame(t, a, b)
	assert.NotSame(t, b, c)
	assert.NotSame(t, base, c)
	assert.Equal(t, 9.0, c.LookupVariable("x"))
	assert.Zero(t, p.Len())

	c.SetVariable("x", 1)
	assert.Equal(t, 9.0, base.LookupVariable("x"))

	p.Put(a)
	p.Put(b)
	p.Put(c)
	assert.Equal(t, 2, p.Len(), "pool never grows past its size")
}

func TestSeenSet(t *testing.T) {
	s := newSeenSet()
	assert.True(t, s.CheckAndSet("(x + 1)"))
	assert.False(t, s.CheckAndSet("(x + 1)"))
	assert.True(t, s.CheckAndSet("(1 + x)"))
	assert.Equal(t, int64(2), s.Len())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.CheckAndSet(fmt.Sprintf("k%d", i))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(502), s.Len())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Functions = []string{"add", "bogus"}
	assert.Error(t, cfg.Validate())

	cfg.Functions = []string{"add", "constant", "variable"}
	fns, err := cfg.ResolveFunctions()
	require.NoError(t, err)
	assert.Len(t, fns, 3)

	cfg = DefaultConfig()
	fns, err = cfg.ResolveFunctions()
	require.NoError(t, err)
	assert.Len(t, fns, len(expr.Functions()))
}
