// Package gp searches for symbolic expressions that fit a fitness function.
// Each tree in the population has its numeric constants tuned by a nested
// genetic algorithm before it is scored.
package gp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"symreg/expr"
	"symreg/ga"
)

// IterationListener runs on the Evolve goroutine after every generation.
type IterationListener func(e *Engine)

// Engine runs symbolic regression over a population of trees.
type Engine struct {
	cfg     Config
	ctx     *expr.Context
	fitness ExpressionFitness
	scorer  *treeFitness
	ga      *ga.Engine[*Chromosome]
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	cfg Config
	log *slog.Logger
}

// WithConfig replaces DefaultConfig. Functions in the config are ignored;
// NewEngine takes the function set explicitly.
func WithConfig(cfg Config) Option { return func(o *engineOptions) { o.cfg = cfg } }

// WithSeed makes the run reproducible when evaluation is synchronous.
func WithSeed(seed int64) Option { return func(o *engineOptions) { o.cfg.Seed = seed } }

// WithLogger sets the structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *engineOptions) { o.log = l } }

// NewEngine builds the breeding context, grows the initial population and
// wires the coefficient optimizer. It fails when functions contain no
// terminal or variables is empty.
func NewEngine(fitness ExpressionFitness, variables []string, functions []*expr.Function, opts ...Option) (*Engine, error) {
	o := engineOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	ctx, err := expr.NewContext(functions, variables, expr.WithSeed(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	opt := newOptimizer(fitness, cfg, o.log)
	scorer := &treeFitness{fitness: fitness, breeding: ctx, seen: newSeenSet()}
	if cfg.Async {
		scorer.contexts = newContextPool(ctx, max(cfg.Workers, 1), cfg.Seed)
	}

	initial := make([]*Chromosome, cfg.PopulationSize)
	for i := range initial {
		initial[i] = newChromosome(expr.Grow(cfg.InitialDepth, ctx), ctx, opt)
	}

	inner, err := ga.New(initial, ga.Fitness[*Chromosome](scorer),
		ga.Settings{
			ParentSurviveCount: cfg.ParentSurviveCount,
			Async:              cfg.Async,
			Workers:            cfg.Workers,
		},
		ga.WithRand(rand.New(rand.NewSource(cfg.Seed+1))),
		ga.WithLogger(o.log),
		ga.WithName("trees"),
	)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	o.log.Debug("engine ready",
		"population", cfg.PopulationSize,
		"variables", variables,
		"functions", len(functions),
		"async", cfg.Async,
		"seed", cfg.Seed)

	return &Engine{
		cfg:     cfg,
		ctx:     ctx,
		fitness: fitness,
		scorer:  scorer,
		ga:      inner,
		log:     o.log,
	}, nil
}

// Evolve runs up to count generations; see ga.Engine.Evolve.
func (e *Engine) Evolve(ctx context.Context, count int) error {
	return e.ga.Evolve(ctx, count)
}

func (e *Engine) AddIterationListener(l IterationListener) {
	e.ga.AddIterationListener(func(*ga.Engine[*Chromosome]) { l(e) })
}

func (e *Engine) Terminate() { e.ga.Terminate() }

func (e *Engine) Iteration() int { return e.ga.Iteration() }

func (e *Engine) ResetIterations() { e.ga.ResetIterations() }

// Context is the breeding context. Use it only from the Evolve goroutine.
func (e *Engine) Context() *expr.Context { return e.ctx }

// Config returns the effective configuration, seed included.
func (e *Engine) Config() Config { return e.cfg }

// Settings exposes the outer engine settings for adjustment between runs.
func (e *Engine) Settings() *ga.Settings { return e.ga.Settings() }

func (e *Engine) Best() *Chromosome { return e.ga.Best() }

func (e *Engine) Worst() *Chromosome { return e.ga.Worst() }

// Population returns the chromosomes best first.
func (e *Engine) Population() []*Chromosome { return e.ga.Population() }

// BestExpression returns a copy of the best tree found so far.
func (e *Engine) BestExpression() *expr.Expression {
	return e.ga.Best().Tree().Clone()
}

// BestFitness is the cached score of the best chromosome.
func (e *Engine) BestFitness() float64 {
	return e.ga.Fitness(e.ga.Best())
}

// Fitness scores an arbitrary tree with the user fitness and the breeding
// context. The tree is not optimized first.
func (e *Engine) Fitness(tree *expr.Expression) float64 {
	return e.fitness.Fitness(tree, e.ctx)
}

// ChromosomeFitness returns the cached score of a population member.
func (e *Engine) ChromosomeFitness(c *Chromosome) float64 {
	return e.ga.Fitness(c)
}

// Explored counts distinct trees, after optimization, that were scored.
func (e *Engine) Explored() int64 { return e.scorer.seen.Len() }

// Evaluations counts fitness calls on the outer population.
func (e *Engine) Evaluations() int64 { return e.scorer.evaluations.Load() }

// Stats summarizes the current population's fitness.
func (e *Engine) Stats() Stats { return computeStats(e.ga.Scores()) }

// treeFitness adapts ExpressionFitness to the outer engine. It optimizes each
// chromosome lazily and, in async mode, gives every concurrent evaluation its
// own context.
type treeFitness struct {
	fitness     ExpressionFitness
	breeding    *expr.Context
	contexts    *contextPool
	seen        *seenSet
	evaluations atomic.Int64
}

func (f *treeFitness) Calculate(c *Chromosome) float64 {
	ctx := f.breeding
	if f.contexts != nil {
		ctx = f.contexts.Get()
		defer f.contexts.Put(ctx)
	}
	c.OptimizeTree(ctx)
	f.evaluations.Add(1)
	f.seen.CheckAndSet(c.Tree().String())
	return f.fitness.Fitness(c.Tree(), ctx)
}
