package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextErrors(t *testing.T) {
	_, err := NewContext([]*Function{Add, Mul}, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTerminals))

	_, err = NewContext(Functions(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoVariables))
}

func TestContextBindings(t *testing.T) {
	ctx := newTestContext(t, "x", "y", "x")
	assert.Equal(t, []string{"x", "y"}, ctx.Variables())
	assert.Equal(t, 0.0, ctx.LookupVariable("x"))
	assert.Equal(t, 0.0, ctx.LookupVariable("y"))

	ctx.SetVariable("y", 3.5)
	assert.Equal(t, 3.5, ctx.LookupVariable("y"))

	assert.Panics(t, func() { ctx.LookupVariable("z") })
}

func TestContextPartition(t *testing.T) {
	ctx := newTestContext(t)
	assert.ElementsMatch(t, []*Function{Constant, Variable}, ctx.Terminals())
	assert.Len(t, ctx.NonTerminals(), 9)
	assert.True(t, ctx.HasNonTerminals())

	leaves, err := NewContext([]*Function{Constant, Variable}, []string{"x"})
	require.NoError(t, err)
	assert.False(t, leaves.HasNonTerminals())
	assert.Nil(t, leaves.RandomNonTerminal())
}

func TestRandomNonTerminalRoundRobin(t *testing.T) {
	ctx := newTestContext(t)
	n := len(ctx.NonTerminals())

	// every full cycle hands out each non-terminal exactly once
	for cycle := 0; cycle < 5; cycle++ {
		seen := make(map[*Function]int)
		for i := 0; i < n; i++ {
			seen[ctx.RandomNonTerminal()]++
		}
		assert.Len(t, seen, n, "cycle %d", cycle)
		for f, count := range seen {
			assert.Equal(t, 1, count, "cycle %d function %s", cycle, f.Name())
		}
	}
}

func TestRandomValueRanges(t *testing.T) {
	ctx := newTestContext(t, "a", "b", "c")
	names := map[string]bool{}
	for i := 0; i < 2000; i++ {
		v := ctx.RandomValue()
		assert.GreaterOrEqual(t, v, -50.0)
		assert.Less(t, v, 50.0)

		m := ctx.RandomMutationValue()
		assert.GreaterOrEqual(t, m, -3.0)
		assert.Less(t, m, 3.0)

		names[ctx.RandomVariableName()] = true
		assert.True(t, ctx.RandomTerminal().IsTerminal())
	}
	assert.Len(t, names, 3)
}

func TestContextFork(t *testing.T) {
	ctx := newTestContext(t, "x")
	ctx.SetVariable("x", 7)

	fork := ctx.Fork(1)
	assert.Equal(t, 7.0, fork.LookupVariable("x"))

	fork.SetVariable("x", -1)
	assert.Equal(t, 7.0, ctx.LookupVariable("x"), "fork must not write through")
	assert.NotSame(t, ctx.Rand(), fork.Rand())
}

func TestSeededContextsAgree(t *testing.T) {
	a, err := NewContext(Functions(), []string{"x"}, WithSeed(9))
	require.NoError(t, err)
	b, err := NewContext(Functions(), []string{"x"}, WithSeed(9))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.Equal(t, Grow(4, a).String(), Grow(4, b).String())
	}
}
