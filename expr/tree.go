package expr

// growStopProbability is the chance that Grow stops early with a terminal
// even when depth budget remains.
const growStopProbability = 0.3

// Grow builds a random tree whose depth never exceeds maxDepth.
func Grow(maxDepth int, ctx *Context) *Expression {
	if maxDepth <= 0 || !ctx.HasNonTerminals() || ctx.rng.Float64() < growStopProbability {
		return RandomTerminal(ctx)
	}
	f := ctx.RandomNonTerminal()
	node := &Expression{fn: f}
	for i := 0; i < f.Arity(); i++ {
		node.children = append(node.children, Grow(maxDepth-1, ctx))
	}
	for i := 0; i < f.CoefficientCount(); i++ {
		node.coefficients = append(node.coefficients, ctx.RandomValue())
	}
	return node
}

// RandomTerminal builds a fresh leaf: a variable bound to a random declared
// name, or a constant with a random value.
func RandomTerminal(ctx *Context) *Expression {
	f := ctx.RandomTerminal()
	node := &Expression{fn: f}
	if f.IsVariable() {
		node.variable = ctx.RandomVariableName()
	}
	for i := 0; i < f.CoefficientCount(); i++ {
		node.coefficients = append(node.coefficients, ctx.RandomValue())
	}
	return node
}

// Cut replaces, in place, every node at depth maxDepth that still has
// children with a fresh terminal. Afterwards tree.Depth() <= maxDepth.
func Cut(tree *Expression, ctx *Context, maxDepth int) {
	if len(tree.children) == 0 {
		return
	}
	if maxDepth <= 0 {
		tree.Replace(RandomTerminal(ctx))
		return
	}
	for _, c := range tree.children {
		Cut(c, ctx, maxDepth-1)
	}
}

// Simplify folds constants in a single bottom-up sweep: any non-number node
// whose children are all numbers is evaluated and replaced by a constant.
// Algebraic identities such as x*1 or x-x are left alone.
func Simplify(tree *Expression, ctx *Context) {
	if len(tree.children) == 0 {
		return
	}
	allNumbers := true
	for _, c := range tree.children {
		Simplify(c, ctx)
		if !c.fn.IsNumber() {
			allNumbers = false
		}
	}
	if allNumbers && !tree.fn.IsNumber() {
		tree.Replace(NewConstant(tree.Eval(ctx)))
	}
}

// Depth counts edges on the longest root-to-leaf path.
func Depth(tree *Expression) int {
	return tree.Depth()
}
