package expr

import (
	"errors"
	"fmt"
)

var ErrCoefficientCount = errors.New("coefficient count mismatch")

// Expression is one node of a syntax tree. A node owns its children; no node
// is ever shared between two trees.
type Expression struct {
	fn           *Function
	children     []*Expression
	coefficients []float64
	variable     string
}

// NewConstant builds a constant leaf.
func NewConstant(v float64) *Expression {
	return &Expression{fn: Constant, coefficients: []float64{v}}
}

// NewVariable builds a variable leaf bound to name.
func NewVariable(name string) *Expression {
	return &Expression{fn: Variable, variable: name}
}

// NewOp builds a non-terminal node. It panics when len(children) does not
// match the function's arity.
func NewOp(f *Function, children ...*Expression) *Expression {
	if len(children) != f.Arity() {
		panic(fmt.Sprintf("expr: %s takes %d children, got %d", f.Name(), f.Arity(), len(children)))
	}
	return &Expression{
		fn:           f,
		children:     children,
		coefficients: make([]float64, f.CoefficientCount()),
	}
}

// Eval computes the value of the tree under the bindings of ctx.
func (e *Expression) Eval(ctx *Context) float64 {
	return e.fn.Eval(e, ctx)
}

func (e *Expression) String() string {
	return e.fn.Print(e)
}

func (e *Expression) Function() *Function { return e.fn }

func (e *Expression) Variable() string { return e.variable }

func (e *Expression) ChildCount() int { return len(e.children) }

func (e *Expression) Child(i int) *Expression { return e.children[i] }

// Children returns the node's child slice. Callers must not retain it across
// operators that restructure the tree.
func (e *Expression) Children() []*Expression { return e.children }

// Coefficients returns a copy of the node's own coefficients.
func (e *Expression) Coefficients() []float64 {
	return append([]float64(nil), e.coefficients...)
}

func (e *Expression) SetFunction(f *Function) { e.fn = f }

func (e *Expression) SetVariable(name string) { e.variable = name }

func (e *Expression) SetChild(i int, c *Expression) { e.children[i] = c }

func (e *Expression) SetChildren(children []*Expression) { e.children = children }

func (e *Expression) AddChild(c *Expression) { e.children = append(e.children, c) }

func (e *Expression) SetCoefficients(values []float64) {
	e.coefficients = append(e.coefficients[:0], values...)
}

func (e *Expression) AddCoefficient(v float64) { e.coefficients = append(e.coefficients, v) }

// ReverseChildren reverses the child order in place.
func (e *Expression) ReverseChildren() {
	for i, j := 0, len(e.children)-1; i < j; i, j = i+1, j-1 {
		e.children[i], e.children[j] = e.children[j], e.children[i]
	}
}

// Replace makes e take over the content of src. src must not be used
// afterwards; pass a clone when src belongs to another tree.
func (e *Expression) Replace(src *Expression) {
	e.fn = src.fn
	e.children = src.children
	e.coefficients = src.coefficients
	e.variable = src.variable
}

// Clone returns a deep copy of the subtree rooted at e.
func (e *Expression) Clone() *Expression {
	if e == nil {
		return nil
	}
	cp := &Expression{
		fn:       e.fn,
		variable: e.variable,
	}
	if len(e.coefficients) > 0 {
		cp.coefficients = append([]float64(nil), e.coefficients...)
	}
	if len(e.children) > 0 {
		cp.children = make([]*Expression, len(e.children))
		for i, c := range e.children {
			cp.children[i] = c.Clone()
		}
	}
	return cp
}

// CoefficientsOfTree flattens every coefficient in pre-order, node before
// children, children left to right.
func (e *Expression) CoefficientsOfTree() []float64 {
	var out []float64
	e.walk(func(n *Expression) {
		out = append(out, n.coefficients...)
	})
	return out
}

// SetCoefficientsOfTree injects values back in the order produced by
// CoefficientsOfTree.
func (e *Expression) SetCoefficientsOfTree(values []float64) error {
	want := 0
	e.walk(func(n *Expression) { want += n.fn.CoefficientCount() })
	if want != len(values) {
		return fmt.Errorf("set coefficients: tree has %d, got %d: %w", want, len(values), ErrCoefficientCount)
	}
	offset := 0
	e.walk(func(n *Expression) {
		offset = n.fn.SetCoefficients(n, values, offset)
	})
	return nil
}

// Nodes lists every node of the tree in breadth-first order, root first.
func (e *Expression) Nodes() []*Expression {
	out := []*Expression{e}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].children...)
	}
	return out
}

// Size is the number of nodes in the tree.
func (e *Expression) Size() int {
	n := 0
	e.walk(func(*Expression) { n++ })
	return n
}

// Depth counts edges on the longest root-to-leaf path; a leaf has depth 0.
func (e *Expression) Depth() int {
	d := 0
	for _, c := range e.children {
		if cd := c.Depth() + 1; cd > d {
			d = cd
		}
	}
	return d
}

// Equal reports structural equality: same functions, variables and
// coefficients at every position.
func (e *Expression) Equal(o *Expression) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.fn != o.fn || e.variable != o.variable ||
		len(e.children) != len(o.children) || len(e.coefficients) != len(o.coefficients) {
		return false
	}
	for i := range e.coefficients {
		if e.coefficients[i] != o.coefficients[i] {
			return false
		}
	}
	for i := range e.children {
		if !e.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (e *Expression) walk(visit func(*Expression)) {
	visit(e)
	for _, c := range e.children {
		c.walk(visit)
	}
}
