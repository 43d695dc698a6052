package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Function is one entry of the closed function catalog. Values are only ever
// created by this package; identity is pointer equality.
type Function struct {
	name         string
	arity        int
	coefficients int
	commutative  bool
	variable     bool
	number       bool
	format       string
	apply        func(node *Expression, ctx *Context) float64
}

var (
	// Constant is a leaf holding a single tunable coefficient.
	Constant = &Function{
		name:         "constant",
		coefficients: 1,
		commutative:  true,
		number:       true,
		apply: func(node *Expression, _ *Context) float64 {
			return node.coefficients[0]
		},
	}

	// Variable is a leaf reading a named binding from the context.
	Variable = &Function{
		name:     "variable",
		variable: true,
		apply: func(node *Expression, ctx *Context) float64 {
			return ctx.LookupVariable(node.variable)
		},
	}

	Add = binary("add", "(%s + %s)", true, func(a, b float64) float64 { return a + b })
	Sub = binary("sub", "(%s - %s)", false, func(a, b float64) float64 { return a - b })
	Mul = binary("mul", "(%s * %s)", true, func(a, b float64) float64 { return a * b })
	Div = binary("div", "(%s / %s)", false, func(a, b float64) float64 { return a / b })
	Pow = binary("pow", "(%s ^ %s)", false, math.Pow)

	Sqrt = unary("sqrt", "sqrt(abs(%s))", func(a float64) float64 { return math.Sqrt(math.Abs(a)) })
	Ln   = unary("ln", "ln(abs(%s) + 1e-05)", func(a float64) float64 { return math.Log(math.Abs(a) + 1e-5) })
	Sin  = unary("sin", "sin(%s)", math.Sin)
	Cos  = unary("cos", "cos(%s)", math.Cos)
)

var catalog = []*Function{Constant, Variable, Add, Sub, Mul, Div, Sqrt, Pow, Ln, Sin, Cos}

func binary(name, format string, commutative bool, op func(a, b float64) float64) *Function {
	return &Function{
		name:        name,
		arity:       2,
		commutative: commutative,
		format:      format,
		apply: func(node *Expression, ctx *Context) float64 {
			return op(node.children[0].Eval(ctx), node.children[1].Eval(ctx))
		},
	}
}

func unary(name, format string, op func(a float64) float64) *Function {
	return &Function{
		name:        name,
		arity:       1,
		commutative: true,
		format:      format,
		apply: func(node *Expression, ctx *Context) float64 {
			return op(node.children[0].Eval(ctx))
		},
	}
}

// Functions returns the full catalog in declaration order.
func Functions() []*Function {
	out := make([]*Function, len(catalog))
	copy(out, catalog)
	return out
}

// FunctionByName resolves a catalog entry by its name ("add", "sin", ...).
func FunctionByName(name string) (*Function, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range catalog {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// FunctionsByName resolves a list of names, failing on the first unknown one.
func FunctionsByName(names []string) ([]*Function, error) {
	out := make([]*Function, 0, len(names))
	for _, n := range names {
		f, ok := FunctionByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown function %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}

func (f *Function) Name() string          { return f.name }
func (f *Function) Arity() int            { return f.arity }
func (f *Function) CoefficientCount() int { return f.coefficients }
func (f *Function) IsCommutative() bool   { return f.commutative }
func (f *Function) IsTerminal() bool      { return f.arity == 0 }
func (f *Function) IsVariable() bool      { return f.variable }
func (f *Function) IsNumber() bool        { return f.number }

func (f *Function) String() string { return f.name }

// Eval computes the node's value. NaN and Inf propagate unchanged.
func (f *Function) Eval(node *Expression, ctx *Context) float64 {
	return f.apply(node, ctx)
}

// Print renders the node and its subtree in fully parenthesized infix form.
func (f *Function) Print(node *Expression) string {
	switch {
	case f.number:
		return formatConstant(node.coefficients[0])
	case f.variable:
		return node.variable
	}
	args := make([]any, len(node.children))
	for i, c := range node.children {
		args[i] = c.String()
	}
	return fmt.Sprintf(f.format, args...)
}

// Coefficients returns a copy of the node's own coefficients.
func (f *Function) Coefficients(node *Expression) []float64 {
	out := make([]float64, f.coefficients)
	copy(out, node.coefficients)
	return out
}

// SetCoefficients overwrites the node's coefficients from values starting at
// offset and returns the offset of the next unread value.
func (f *Function) SetCoefficients(node *Expression, values []float64, offset int) int {
	if len(node.coefficients) != f.coefficients {
		node.coefficients = make([]float64, f.coefficients)
	}
	copy(node.coefficients, values[offset:offset+f.coefficients])
	return offset + f.coefficients
}

func formatConstant(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}
