package gp

import (
	"sync"

	"symreg/expr"
)

// contextPool hands out exclusively owned evaluation contexts to concurrent
// fitness workers. Contexts are forks of the breeding context, so breeding and
// evaluation never share bindings or random state.
type contextPool struct {
	mu      sync.Mutex
	base    *expr.Context
	pool    []*expr.Context
	maxSize int
	nextID  int64
	seed    int64
}

// newContextPool creates a pool pre-filled with size forks of base.
func newContextPool(base *expr.Context, size int, seed int64) *contextPool {
	if size < 1 {
		size = 1
	}
	p := &contextPool{
		base:    base,
		pool:    make([]*expr.Context, 0, size),
		maxSize: size,
		seed:    seed,
	}
	for i := 0; i < size; i++ {
		p.pool = append(p.pool, p.forkLocked())
	}
	return p
}

func (p *contextPool) forkLocked() *expr.Context {
	p.nextID++
	return p.base.Fork(p.seed + p.nextID)
}

// Get retrieves a context from the pool or forks a new one
func (p *contextPool) Get() *expr.Context {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.pool); n > 0 {
		ctx := p.pool[n-1]
		p.pool = p.pool[:n-1]
		return ctx
	}
	return p.forkLocked()
}

// Put returns a context to the pool
func (p *contextPool) Put(ctx *expr.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Don't exceed pool size
	if len(p.pool) >= p.maxSize {
		return
	}
	p.pool = append(p.pool, ctx)
}

// Len is the number of idle contexts
func (p *contextPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pool)
}
