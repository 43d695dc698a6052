// Package formula parses target functions written as text, e.g. "x^2 + x" or
// "sin(x) * y", and evaluates them over a sample grid. It understands the same
// notation expr.Expression prints, so an evolved tree can be re-read and
// checked against its source.
package formula

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/PaesslerAG/gval"
)

// Lang is Arithmetic plus "^" as power and the unary math functions the
// function catalog prints.
var Lang = gval.NewLanguage(
	gval.Arithmetic(),
	gval.InfixNumberOperator("^", func(a, b float64) (interface{}, error) {
		return math.Pow(a, b), nil
	}),
	gval.Precedence("^", 200),
	unaryFunc("sqrt", math.Sqrt),
	unaryFunc("abs", math.Abs),
	unaryFunc("ln", math.Log),
	unaryFunc("log", math.Log),
	unaryFunc("exp", math.Exp),
	unaryFunc("sin", math.Sin),
	unaryFunc("cos", math.Cos),
	unaryFunc("tan", math.Tan),
	gval.Constant("pi", math.Pi),
)

func unaryFunc(name string, f func(float64) float64) gval.Language {
	return gval.Function(name, func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: expected 1 argument, got %d", name, len(args))
		}
		v, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("%s: expected number, got %T", name, args[0])
		}
		return f(v), nil
	})
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Formula is a compiled target function.
type Formula struct {
	src  string
	eval gval.Evaluable
}

// Compile parses src with Lang.
func Compile(src string) (*Formula, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("compile formula: empty expression")
	}
	ev, err := Lang.NewEvaluable(src)
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", src, err)
	}
	return &Formula{src: src, eval: ev}, nil
}

// MustCompile is Compile for package-level fixtures; it panics on error.
func MustCompile(src string) *Formula {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formula) String() string { return f.src }

// Eval computes the formula under bindings. Division by zero and other
// domain errors yield Inf or NaN rather than an error.
func (f *Formula) Eval(bindings map[string]float64) (float64, error) {
	params := make(map[string]interface{}, len(bindings))
	for k, v := range bindings {
		params[k] = v
	}
	v, err := f.eval.EvalFloat64(context.Background(), params)
	if err != nil {
		return math.NaN(), fmt.Errorf("eval %q: %w", f.src, err)
	}
	return v, nil
}
