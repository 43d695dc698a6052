package expr

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	minValue         = -50.0
	maxValue         = 50.0
	minMutationValue = -3.0
	maxMutationValue = 3.0
)

var (
	ErrNoTerminals = errors.New("at least one terminal function must be defined")
	ErrNoVariables = errors.New("at least one variable must be defined")
)

// Context holds variable bindings, the terminal / non-terminal split of the
// configured functions and the random source used to build trees.
//
// A Context is not safe for concurrent use. Concurrent evaluations must each
// own a Context obtained through Fork.
type Context struct {
	bindings     map[string]float64
	variables    []string
	terminals    []*Function
	nonTerminals []*Function
	cursor       int
	rng          *rand.Rand
}

// ContextOption configures a Context at construction.
type ContextOption func(*Context)

// WithSeed makes every random choice of the context reproducible.
func WithSeed(seed int64) ContextOption {
	return func(c *Context) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand installs a caller-owned random source.
func WithRand(rng *rand.Rand) ContextOption {
	return func(c *Context) { c.rng = rng }
}

// NewContext partitions functions into terminals and non-terminals and binds
// every variable to 0. Duplicate variable names are collapsed.
func NewContext(functions []*Function, variables []string, opts ...ContextOption) (*Context, error) {
	c := &Context{bindings: make(map[string]float64, len(variables))}
	for _, f := range functions {
		if f.IsTerminal() {
			c.terminals = append(c.terminals, f)
		} else {
			c.nonTerminals = append(c.nonTerminals, f)
		}
	}
	if len(c.terminals) == 0 {
		return nil, fmt.Errorf("new context: %w", ErrNoTerminals)
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("new context: %w", ErrNoVariables)
	}
	for _, v := range variables {
		if _, dup := c.bindings[v]; dup {
			continue
		}
		c.variables = append(c.variables, v)
		c.bindings[v] = 0
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c, nil
}

// Fork returns an independent context with the same catalogs, a copy of the
// current bindings and its own random source.
func (c *Context) Fork(seed int64) *Context {
	f := &Context{
		bindings:     make(map[string]float64, len(c.bindings)),
		variables:    append([]string(nil), c.variables...),
		terminals:    append([]*Function(nil), c.terminals...),
		nonTerminals: append([]*Function(nil), c.nonTerminals...),
		rng:          rand.New(rand.NewSource(seed)),
	}
	for k, v := range c.bindings {
		f.bindings[k] = v
	}
	return f
}

// LookupVariable panics when name was never bound; that is a programming
// error, not a data error.
func (c *Context) LookupVariable(name string) float64 {
	v, ok := c.bindings[name]
	if !ok {
		panic(fmt.Sprintf("expr: variable %q is not bound", name))
	}
	return v
}

func (c *Context) SetVariable(name string, value float64) {
	if _, ok := c.bindings[name]; !ok {
		c.variables = append(c.variables, name)
	}
	c.bindings[name] = value
}

// Variables returns the declared variable names in declaration order.
func (c *Context) Variables() []string {
	return append([]string(nil), c.variables...)
}

func (c *Context) HasNonTerminals() bool { return len(c.nonTerminals) > 0 }

func (c *Context) Terminals() []*Function { return append([]*Function(nil), c.terminals...) }

func (c *Context) NonTerminals() []*Function { return append([]*Function(nil), c.nonTerminals...) }

// RandomNonTerminal hands out non-terminals round-robin, reshuffling the list
// every time the cursor wraps. Returns nil when there are none.
func (c *Context) RandomNonTerminal() *Function {
	if len(c.nonTerminals) == 0 {
		return nil
	}
	if c.cursor >= len(c.nonTerminals) {
		c.cursor = 0
		c.rng.Shuffle(len(c.nonTerminals), func(i, j int) {
			c.nonTerminals[i], c.nonTerminals[j] = c.nonTerminals[j], c.nonTerminals[i]
		})
	}
	f := c.nonTerminals[c.cursor]
	c.cursor++
	return f
}

func (c *Context) RandomTerminal() *Function {
	return c.terminals[c.rng.Intn(len(c.terminals))]
}

func (c *Context) RandomVariableName() string {
	return c.variables[c.rng.Intn(len(c.variables))]
}

// RandomValue draws a fresh coefficient from [-50, 50).
func (c *Context) RandomValue() float64 {
	return minValue + c.rng.Float64()*(maxValue-minValue)
}

// RandomMutationValue draws a coefficient perturbation from [-3, 3).
func (c *Context) RandomMutationValue() float64 {
	return minMutationValue + c.rng.Float64()*(maxMutationValue-minMutationValue)
}

// Rand exposes the context's random source to operators that share it.
func (c *Context) Rand() *rand.Rand { return c.rng }
