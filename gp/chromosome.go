package gp

import (
	"sync"

	"symreg/expr"
)

// maxFunctionPicks bounds the search for a replacement function that differs
// from the current one. A catalog with a single usable function would
// otherwise loop forever.
const maxFunctionPicks = 32

// Chromosome is the tree genome. Breeding never modifies the receiver; every
// operator works on a deep clone.
type Chromosome struct {
	tree *expr.Expression
	ctx  *expr.Context
	opt  *optimizer

	mu        sync.Mutex
	optimized bool
}

func newChromosome(tree *expr.Expression, ctx *expr.Context, opt *optimizer) *Chromosome {
	return &Chromosome{tree: tree, ctx: ctx, opt: opt}
}

// Tree returns the chromosome's syntax tree. Callers must not modify it.
func (c *Chromosome) Tree() *expr.Expression { return c.tree }

// Context returns the breeding context the chromosome was created with.
func (c *Chromosome) Context() *expr.Context { return c.ctx }

// Optimized reports whether cut, simplify and coefficient tuning have run.
func (c *Chromosome) Optimized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.optimized
}

func (c *Chromosome) String() string { return c.tree.String() }

// Crossover swaps a random subtree of each parent's clone with a clone of a
// random subtree of the other. Both children start unoptimized.
func (c *Chromosome) Crossover(other *Chromosome) []*Chromosome {
	a := newChromosome(c.tree.Clone(), c.ctx, c.opt)
	b := newChromosome(other.tree.Clone(), c.ctx, c.opt)

	nodeA := a.randomNode()
	nodeB := b.randomNode()
	subA := nodeA.Clone()
	subB := nodeB.Clone()
	nodeA.Replace(subB)
	nodeB.Replace(subA)

	a.checkInvariants()
	b.checkInvariants()
	return []*Chromosome{a, b}
}

// Mutate applies one of seven operators, chosen uniformly, to a clone.
func (c *Chromosome) Mutate() *Chromosome {
	out := newChromosome(c.tree.Clone(), c.ctx, c.opt)

	switch c.ctx.Rand().Intn(7) {
	case 0:
		out.mutateFunction()
	case 1:
		out.mutateChild()
	case 2:
		out.mutateNodeToChild()
	case 3:
		out.mutateReverseChildren()
	case 4:
		out.mutateRootGrowth()
	case 5:
		out.tree = expr.Grow(2, c.ctx)
	case 6:
		out.tree = out.randomNode()
	}

	out.checkInvariants()
	return out
}

func (c *Chromosome) randomNode() *expr.Expression {
	nodes := c.tree.Nodes()
	return nodes[c.ctx.Rand().Intn(len(nodes))]
}

// mutateFunction swaps a random node's function for a different one, then
// pads children with depth-1 trees and coefficients with random values, or
// truncates both, to fit the new function.
func (c *Chromosome) mutateFunction() {
	node := c.randomNode()
	old := node.Function()
	f := old
	for i := 0; i < maxFunctionPicks && f == old; i++ {
		if c.ctx.Rand().Float64() > 0.5 && c.ctx.HasNonTerminals() {
			f = c.ctx.RandomNonTerminal()
		} else {
			f = c.ctx.RandomTerminal()
		}
	}
	if f == old {
		return
	}

	node.SetFunction(f)
	if f.IsVariable() {
		node.SetVariable(c.ctx.RandomVariableName())
	} else {
		node.SetVariable("")
	}

	children := node.Children()
	switch {
	case len(children) < f.Arity():
		for len(children) < f.Arity() {
			children = append(children, expr.Grow(1, c.ctx))
		}
	case len(children) > f.Arity():
		children = children[:f.Arity():f.Arity()]
	}
	if len(children) == 0 {
		children = nil
	}
	node.SetChildren(children)

	coeffs := node.Coefficients()
	switch {
	case len(coeffs) < f.CoefficientCount():
		for len(coeffs) < f.CoefficientCount() {
			coeffs = append(coeffs, c.ctx.RandomValue())
		}
	case len(coeffs) > f.CoefficientCount():
		coeffs = coeffs[:f.CoefficientCount()]
	}
	node.SetCoefficients(coeffs)
}

// mutateChild replaces one child of a random node with a fresh depth-1 tree.
func (c *Chromosome) mutateChild() {
	node := c.randomNode()
	if node.ChildCount() == 0 {
		c.mutateFunction()
		return
	}
	node.SetChild(c.ctx.Rand().Intn(node.ChildCount()), expr.Grow(1, c.ctx))
}

// mutateNodeToChild promotes a clone of one child into its parent's place.
func (c *Chromosome) mutateNodeToChild() {
	node := c.randomNode()
	if node.ChildCount() == 0 {
		c.mutateFunction()
		return
	}
	child := node.Child(c.ctx.Rand().Intn(node.ChildCount()))
	node.Replace(child.Clone())
}

// mutateReverseChildren reverses operand order of a non-commutative node.
func (c *Chromosome) mutateReverseChildren() {
	node := c.randomNode()
	if node.ChildCount() < 2 || node.Function().IsCommutative() {
		c.mutateFunction()
		return
	}
	node.ReverseChildren()
}

// mutateRootGrowth puts a new non-terminal above the whole tree. The old root
// becomes the first operand; remaining operands are fresh terminals.
func (c *Chromosome) mutateRootGrowth() {
	f := c.ctx.RandomNonTerminal()
	if f == nil {
		c.mutateFunction()
		return
	}
	children := make([]*expr.Expression, 0, f.Arity())
	children = append(children, c.tree)
	for i := 1; i < f.Arity(); i++ {
		children = append(children, expr.Grow(0, c.ctx))
	}
	root := expr.NewOp(f, children...)
	coeffs := make([]float64, f.CoefficientCount())
	for i := range coeffs {
		coeffs[i] = c.ctx.RandomValue()
	}
	root.SetCoefficients(coeffs)
	c.tree = root
}

func (c *Chromosome) checkInvariants() {
	if c.opt != nil && c.opt.checkInvariants {
		c.tree.MustValidate(c.ctx)
	}
}

// OptimizeTree cuts the tree to the configured depth, folds constants and
// tunes coefficients against the fitness. It runs at most once per
// chromosome; ctx must be owned by the caller for the duration.
func (c *Chromosome) OptimizeTree(ctx *expr.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.optimized {
		return
	}
	c.optimized = true
	if c.opt == nil {
		return
	}
	expr.Cut(c.tree, ctx, c.opt.cutDepth)
	expr.Simplify(c.tree, ctx)
	c.opt.optimizeCoefficients(c.tree, ctx)
}
