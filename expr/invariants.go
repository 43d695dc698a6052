package expr

import (
	"errors"
	"fmt"
)

var ErrArity = errors.New("child count does not match arity")

// Validate walks the tree and reports the first node whose child count or
// coefficient count disagrees with its function, or whose variable name is
// not bound in ctx. ctx may be nil to skip the binding check.
func (e *Expression) Validate(ctx *Context) error {
	var err error
	var check func(n *Expression, path string)
	check = func(n *Expression, path string) {
		if err != nil {
			return
		}
		if n == nil {
			err = fmt.Errorf("%s: nil node", path)
			return
		}
		if len(n.children) != n.fn.Arity() {
			err = fmt.Errorf("%s: %s has %d children: %w", path, n.fn.Name(), len(n.children), ErrArity)
			return
		}
		if len(n.coefficients) != n.fn.CoefficientCount() {
			err = fmt.Errorf("%s: %s has %d coefficients: %w", path, n.fn.Name(), len(n.coefficients), ErrCoefficientCount)
			return
		}
		if n.fn.IsVariable() && ctx != nil {
			if _, ok := ctx.bindings[n.variable]; !ok {
				err = fmt.Errorf("%s: unbound variable %q", path, n.variable)
				return
			}
		}
		for i, c := range n.children {
			check(c, fmt.Sprintf("%s.%d", path, i))
		}
	}
	check(e, "root")
	return err
}

// MustValidate panics when Validate fails.
func (e *Expression) MustValidate(ctx *Context) {
	mustHold(e.Validate(ctx))
}

// SharesNodes reports whether any node pointer of a also appears in b.
func SharesNodes(a, b *Expression) bool {
	seen := make(map[*Expression]struct{})
	a.walk(func(n *Expression) { seen[n] = struct{}{} })
	shared := false
	b.walk(func(n *Expression) {
		if _, ok := seen[n]; ok {
			shared = true
		}
	})
	return shared
}

func mustHold(err error) {
	if err != nil {
		panic(fmt.Sprintf("INVARIANT VIOLATION: %v", err))
	}
}
