// Package ga is a small generational genetic algorithm. Lower fitness is
// better; NaN sorts after every number.
package ga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
)

var ErrEmptyPopulation = errors.New("population is empty")

// Chromosome is a genome the engine can breed. Implementations must not
// modify the receiver or the argument.
type Chromosome[C any] interface {
	Crossover(other C) []C
	Mutate() C
}

// Fitness scores a chromosome; lower is better. With Settings.Async the
// engine calls Calculate from several goroutines at once.
type Fitness[C any] interface {
	Calculate(c C) float64
}

// FitnessFunc adapts a plain function to Fitness.
type FitnessFunc[C any] func(c C) float64

func (f FitnessFunc[C]) Calculate(c C) float64 { return f(c) }

// Settings are read at the start of every generation and may be changed
// between calls to Evolve.
type Settings struct {
	// ParentSurviveCount parents are copied unchanged into the next
	// generation before any offspring.
	ParentSurviveCount int
	// Async scores unscored members on a bounded worker pool.
	Async bool
	// Workers caps the pool; <= 0 means one per member.
	Workers int
}

// IterationListener runs on the Evolve goroutine after each generation.
type IterationListener[C interface {
	comparable
	Chromosome[C]
}] func(e *Engine[C])

type member[C any] struct {
	c      C
	score  float64
	scored bool
}

// Engine evolves a fixed-size population. C is usually a pointer type so
// that chromosomes compare by identity.
type Engine[C interface {
	comparable
	Chromosome[C]
}] struct {
	fitness  Fitness[C]
	settings Settings
	rng      *rand.Rand
	log      *slog.Logger
	name     string

	mu         sync.RWMutex
	population []member[C]
	sorted     bool

	iteration  atomic.Int64
	terminated atomic.Bool
	listeners  []IterationListener[C]
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	rng  *rand.Rand
	log  *slog.Logger
	name string
}

// WithRand sets the source used for partner selection.
func WithRand(rng *rand.Rand) Option { return func(o *options) { o.rng = rng } }

// WithSeed is WithRand with a fresh source seeded from seed.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// WithName tags log records so nested engines can be told apart.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// New creates an engine over an initial population. The population size stays
// fixed for the life of the engine.
func New[C interface {
	comparable
	Chromosome[C]
}](initial []C, fitness Fitness[C], settings Settings, opts ...Option) (*Engine[C], error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("new engine: %w", ErrEmptyPopulation)
	}
	o := options{name: "ga"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if settings.ParentSurviveCount < 0 {
		settings.ParentSurviveCount = 0
	}

	e := &Engine[C]{
		fitness:    fitness,
		settings:   settings,
		rng:        o.rng,
		log:        o.log.With("engine", o.name),
		name:       o.name,
		population: make([]member[C], len(initial)),
	}
	for i, c := range initial {
		e.population[i] = member[C]{c: c}
	}
	return e, nil
}

// Settings returns the live settings; changes apply from the next generation.
func (e *Engine[C]) Settings() *Settings { return &e.settings }

func (e *Engine[C]) AddIterationListener(l IterationListener[C]) {
	e.listeners = append(e.listeners, l)
}

// Terminate asks a running Evolve to stop after the current generation. Safe
// to call from any goroutine, including a listener.
func (e *Engine[C]) Terminate() { e.terminated.Store(true) }

// Iteration is the number of generations evolved since construction or the
// last ResetIterations.
func (e *Engine[C]) Iteration() int { return int(e.iteration.Load()) }

func (e *Engine[C]) ResetIterations() { e.iteration.Store(0) }

// Evolve runs up to count generations. It returns early, with a nil error,
// after Terminate, and with ctx.Err() when ctx is cancelled. A generation in
// progress always completes.
func (e *Engine[C]) Evolve(ctx context.Context, count int) error {
	e.terminated.Store(false)
	e.ensureScored(ctx)

	for i := 0; i < count; i++ {
		if e.terminated.Load() {
			e.log.Debug("terminated", "iteration", e.Iteration())
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		e.evolveOnce(ctx)
		it := e.iteration.Add(1)

		if e.log.Enabled(ctx, slog.LevelDebug) {
			best, worst := e.bestWorstScores()
			e.log.Debug("generation", "iteration", it, "best", best, "worst", worst)
		}
		for _, l := range e.listeners {
			l(e)
		}
	}
	return nil
}

func (e *Engine[C]) ensureScored(ctx context.Context) {
	e.mu.RLock()
	ready := e.sorted
	var pop []member[C]
	if !ready {
		pop = append(pop, e.population...)
	}
	e.mu.RUnlock()
	if ready {
		return
	}

	e.score(ctx, pop)
	sortMembers(pop)

	e.mu.Lock()
	e.population = pop
	e.sorted = true
	e.mu.Unlock()
}

// evolveOnce breeds one generation: surviving parents, then for every parent
// a mutant and the crossover children with a random partner. The merged pool
// is scored, sorted and trimmed back to the parent count.
func (e *Engine[C]) evolveOnce(ctx context.Context) {
	e.mu.RLock()
	parents := append([]member[C](nil), e.population...)
	e.mu.RUnlock()

	size := len(parents)
	next := make([]member[C], 0, 4*size)

	survive := e.settings.ParentSurviveCount
	if survive > size {
		survive = size
	}
	next = append(next, parents[:survive]...)

	for _, p := range parents {
		next = append(next, member[C]{c: p.c.Mutate()})
		partner := parents[e.rng.Intn(size)]
		for _, child := range p.c.Crossover(partner.c) {
			next = append(next, member[C]{c: child})
		}
	}

	e.score(ctx, next)
	sortMembers(next)
	if len(next) > size {
		next = next[:size]
	}

	e.mu.Lock()
	e.population = next
	e.sorted = true
	e.mu.Unlock()
}

func (e *Engine[C]) score(ctx context.Context, members []member[C]) {
	if !e.settings.Async {
		for i := range members {
			if !members[i].scored {
				members[i].score = e.fitness.Calculate(members[i].c)
				members[i].scored = true
			}
		}
		return
	}

	p := pool.New()
	if e.settings.Workers > 0 {
		p = p.WithMaxGoroutines(e.settings.Workers)
	}
	for i := range members {
		if members[i].scored {
			continue
		}
		m := &members[i]
		p.Go(func() {
			m.score = e.fitness.Calculate(m.c)
			m.scored = true
		})
	}
	p.Wait()
}

func sortMembers[C any](members []member[C]) {
	sort.SliceStable(members, func(i, j int) bool {
		return less(members[i].score, members[j].score)
	})
}

// less orders by score ascending with NaN after every number.
func less(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// Best returns the lowest-scoring member. Before the first Evolve the
// population is scored on demand.
func (e *Engine[C]) Best() C {
	e.ensureScored(context.Background())
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.population[0].c
}

// Worst returns the highest-scoring member (NaN counts as worst).
func (e *Engine[C]) Worst() C {
	e.ensureScored(context.Background())
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.population[len(e.population)-1].c
}

// Population returns the members best first.
func (e *Engine[C]) Population() []C {
	e.ensureScored(context.Background())
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]C, len(e.population))
	for i, m := range e.population {
		out[i] = m.c
	}
	return out
}

// Scores returns the cached fitness of each member, aligned with Population.
func (e *Engine[C]) Scores() []float64 {
	e.ensureScored(context.Background())
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]float64, len(e.population))
	for i, m := range e.population {
		out[i] = m.score
	}
	return out
}

// Fitness returns the cached score of a current member, computing it for
// chromosomes outside the population.
func (e *Engine[C]) Fitness(c C) float64 {
	e.mu.RLock()
	for _, m := range e.population {
		if m.c == c && m.scored {
			e.mu.RUnlock()
			return m.score
		}
	}
	e.mu.RUnlock()
	return e.fitness.Calculate(c)
}

// ClearCache drops every cached score; the next access rescores.
func (e *Engine[C]) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.population {
		e.population[i].scored = false
	}
	e.sorted = false
}

func (e *Engine[C]) bestWorstScores() (float64, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.population[0].score, e.population[len(e.population)-1].score
}
