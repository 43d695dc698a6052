package gp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symreg/expr"
)

func newTestContext(t *testing.T, seed int64, vars ...string) *expr.Context {
	t.Helper()
	if len(vars) == 0 {
		vars = []string{"x"}
	}
	ctx, err := expr.NewContext(expr.Functions(), vars, expr.WithSeed(seed))
	require.NoError(t, err)
	return ctx
}

func randomChromosome(ctx *expr.Context, depth int) *Chromosome {
	return newChromosome(expr.Grow(depth, ctx), ctx, &optimizer{checkInvariants: true})
}

func TestCrossoverClosure(t *testing.T) {
	ctx := newTestContext(t, 1, "x", "y")
	for i := 0; i < 300; i++ {
		a := randomChromosome(ctx, 4)
		b := randomChromosome(ctx, 4)
		aBefore, bBefore := a.String(), b.String()

		children := a.Crossover(b)
		require.Len(t, children, 2)
		for _, c := range children {
			require.NoError(t, c.Tree().Validate(ctx))
			assert.False(t, c.Optimized())
			assert.False(t, expr.SharesNodes(c.Tree(), a.Tree()))
			assert.False(t, expr.SharesNodes(c.Tree(), b.Tree()))
		}
		assert.False(t, expr.SharesNodes(children[0].Tree(), children[1].Tree()))
		assert.Equal(t, aBefore, a.String(), "parent a modified")
		assert.Equal(t, bBefore, b.String(), "parent b modified")

		// node count is conserved across the pair
		assert.Equal(t, a.Tree().Size()+b.Tree().Size(),
			children[0].Tree().Size()+children[1].Tree().Size())
	}
}

func TestMutateKeepsInvariants(t *testing.T) {
	ctx := newTestContext(t, 2, "x", "y")
	for i := 0; i < 500; i++ {
		parent := randomChromosome(ctx, 4)
		before := parent.String()

		child := parent.Mutate()
		require.NoError(t, child.Tree().Validate(ctx))
		assert.False(t, child.Optimized())
		assert.False(t, expr.SharesNodes(child.Tree(), parent.Tree()))
		assert.Equal(t, before, parent.String())
	}
}

// each operator on its own, over many random trees
func TestMutationOperators(t *testing.T) {
	ops := map[string]func(c *Chromosome){
		"function":      (*Chromosome).mutateFunction,
		"child":         (*Chromosome).mutateChild,
		"node-to-child": (*Chromosome).mutateNodeToChild,
		"reverse":       (*Chromosome).mutateReverseChildren,
		"root-growth":   (*Chromosome).mutateRootGrowth,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			ctx := newTestContext(t, 3, "x", "y")
			for i := 0; i < 300; i++ {
				c := randomChromosome(ctx, 3)
				c.tree = c.tree.Clone()
				op(c)
				require.NoError(t, c.Tree().Validate(ctx), c.String())
			}
		})
	}
}

func TestMutateFunctionChangesIdentity(t *testing.T) {
	ctx := newTestContext(t, 4)
	for i := 0; i < 200; i++ {
		c := newChromosome(expr.NewConstant(1), ctx, nil)
		c.mutateFunction()
		assert.NotSame(t, expr.Constant, c.Tree().Function())
		require.NoError(t, c.Tree().Validate(ctx))
	}
}

func TestMutateFunctionSingleFunctionTerminates(t *testing.T) {
	ctx, err := expr.NewContext([]*expr.Function{expr.Variable}, []string{"x"}, expr.WithSeed(1))
	require.NoError(t, err)
	c := newChromosome(expr.NewVariable("x"), ctx, nil)
	c.mutateFunction()
	assert.Equal(t, "x", c.String())
}

func TestMutateRootGrowth(t *testing.T) {
	ctx := newTestContext(t, 5)
	for i := 0; i < 100; i++ {
		old := expr.NewOp(expr.Sin, expr.NewVariable("x"))
		c := newChromosome(old, ctx, nil)
		c.mutateRootGrowth()

		root := c.Tree()
		assert.False(t, root.Function().IsTerminal())
		assert.Same(t, old, root.Child(0))
		for j := 1; j < root.ChildCount(); j++ {
			assert.True(t, root.Child(j).Function().IsTerminal())
		}
		require.NoError(t, root.Validate(ctx))
	}
}

func TestMutateReverseChildren(t *testing.T) {
	ctx := newTestContext(t, 6)

	reversed := 0
	for i := 0; i < 90; i++ {
		c := newChromosome(expr.NewOp(expr.Sub, expr.NewVariable("x"), expr.NewConstant(2)), ctx, nil)
		c.mutateReverseChildren()
		require.NoError(t, c.Tree().Validate(ctx))
		if c.String() == "(2 - x)" {
			reversed++
		}
	}
	// the root is picked about a third of the time; leaves fall back to a
	// function change
	assert.Greater(t, reversed, 10)

	// commutative nodes are never reversed
	for i := 0; i < 30; i++ {
		c := newChromosome(expr.NewOp(expr.Add, expr.NewVariable("x"), expr.NewConstant(2)), ctx, nil)
		c.mutateReverseChildren()
		assert.NotEqual(t, "(2 + x)", c.String())
	}
}

func TestMutateNodeToChildCollapses(t *testing.T) {
	ctx := newTestContext(t, 7)
	tree := expr.NewOp(expr.Cos, expr.NewOp(expr.Sin, expr.NewVariable("x")))

	collapsed := 0
	for i := 0; i < 60; i++ {
		c := newChromosome(tree.Clone(), ctx, nil)
		c.mutateNodeToChild()
		require.NoError(t, c.Tree().Validate(ctx))
		switch c.String() {
		case "sin(x)", "cos(x)":
			collapsed++
		}
	}
	// two of the three nodes are internal, so most picks collapse a level
	assert.Greater(t, collapsed, 20)
	assert.Equal(t, "cos(sin(x))", tree.String())
}

func TestOptimizeTreeRunsOnce(t *testing.T) {
	ctx := newTestContext(t, 8)
	calls := 0
	fit := ExpressionFitnessFunc(func(tree *expr.Expression, ctx *expr.Context) float64 {
		calls++
		return 0
	})
	cfg := DefaultConfig()
	cfg.OptimizeIterations = 2
	opt := newOptimizer(fit, cfg, quiet)

	tree := expr.NewOp(expr.Add, expr.NewVariable("x"), expr.NewOp(expr.Mul, expr.NewConstant(2), expr.NewConstant(3)))
	c := newChromosome(tree, ctx, opt)
	c.OptimizeTree(ctx)
	assert.True(t, c.Optimized())
	// a flat fitness keeps the starting vector, which ranks first among equals
	assert.Equal(t, "(x + 6)", c.String())
	first := calls
	assert.Positive(t, first)

	c.OptimizeTree(ctx)
	assert.Equal(t, first, calls)
}

func TestOptimizeTreeCutsDeepTrees(t *testing.T) {
	ctx := newTestContext(t, 9)
	cfg := DefaultConfig()
	cfg.OptimizeIterations = 1
	cfg.CutDepth = 3
	opt := newOptimizer(ExpressionFitnessFunc(func(*expr.Expression, *expr.Context) float64 { return 0 }), cfg, quiet)

	tree := expr.NewVariable("x")
	for i := 0; i < 8; i++ {
		tree = expr.NewOp(expr.Sin, tree)
	}
	c := newChromosome(tree, ctx, opt)
	c.OptimizeTree(ctx)
	assert.LessOrEqual(t, c.Tree().Depth(), 3)
	require.NoError(t, c.Tree().Validate(ctx))
}
