package expr

// Complexity holds size metrics for an expression tree
type Complexity struct {
	NodeCount       int
	LeafCount       int
	UniqueVariables map[string]bool
	ParamCount      int // tunable coefficients
	MaxDepth        int
	OperatorCount   map[string]int // add, mul, sin, etc.
}

// ComputeComplexity computes complexity for a single tree
func ComputeComplexity(node *Expression) Complexity {
	cx := Complexity{
		UniqueVariables: make(map[string]bool),
		OperatorCount:   make(map[string]int),
	}
	if node == nil {
		return cx
	}
	walkTree(node, &cx, 0)
	return cx
}

func walkTree(node *Expression, cx *Complexity, depth int) {
	if depth > cx.MaxDepth {
		cx.MaxDepth = depth
	}
	cx.NodeCount++
	cx.ParamCount += len(node.coefficients)

	if node.fn.IsTerminal() {
		cx.LeafCount++
		if node.fn.IsVariable() {
			cx.UniqueVariables[node.variable] = true
		}
		return
	}

	cx.OperatorCount[node.fn.Name()]++
	for _, c := range node.children {
		walkTree(c, cx, depth+1)
	}
}

// UniqueVariableCount returns the number of distinct variables referenced
func (c Complexity) UniqueVariableCount() int {
	return len(c.UniqueVariables)
}

// Penalty is a parsimony score: nodes plus half the depth. Used to break
// fitness ties in favour of smaller trees.
func (c Complexity) Penalty() float64 {
	return float64(c.NodeCount) + 0.5*float64(c.MaxDepth)
}
