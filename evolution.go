package main

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"symreg/expr"
	"symreg/gp"
	"symreg/logx"
	"symreg/tui"
)

// Entry is one distinct expression kept in the hall of fame.
type Entry struct {
	Expression string      `json:"expression"`
	Fitness    reportFloat `json:"fitness"`
	Nodes      int         `json:"nodes"`
	Depth      int         `json:"depth"`
	Params     int         `json:"params"`
	Vars       int         `json:"vars"`
	Iteration  int         `json:"iteration"`

	penalty float64
	tree    *expr.Expression
}

func newEntry(tree *expr.Expression, fitness float64, iteration int) Entry {
	cx := expr.ComputeComplexity(tree)
	return Entry{
		Expression: tree.String(),
		Fitness:    reportFloat(fitness),
		Nodes:      cx.NodeCount,
		Depth:      cx.MaxDepth,
		Params:     cx.ParamCount,
		Vars:       cx.UniqueVariableCount(),
		Iteration:  iteration,
		penalty:    cx.Penalty(),
		tree:       tree,
	}
}

// better orders by fitness, then by the simpler tree.
func (e Entry) better(o Entry) bool {
	if e.Fitness != o.Fitness {
		return e.Fitness < o.Fitness
	}
	return e.penalty < o.penalty
}

// HallOfFame keeps the K best distinct expressions of a run. Expressions
// are distinct by printed form.
type HallOfFame struct {
	mu       sync.RWMutex
	K        int
	entries  []Entry
	snapshot atomic.Value // []Entry for lock-free reads
}

func NewHallOfFame(k int) *HallOfFame {
	h := &HallOfFame{K: max(k, 1)}
	h.snapshot.Store([]Entry{})
	return h
}

// Add offers a tree to the hall of fame; the tree must not be modified
// afterwards. It returns true when the tree was admitted or improved an
// existing entry with the same printed form.
func (h *HallOfFame) Add(tree *expr.Expression, fitness float64, iteration int) bool {
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return false
	}
	e := newEntry(tree, fitness, iteration)

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, old := range h.entries {
		if old.Expression != e.Expression {
			continue
		}
		if !e.better(old) {
			return false
		}
		e.Iteration = old.Iteration
		h.entries[i] = e
		h.publishLocked()
		return true
	}

	if len(h.entries) >= h.K && !e.better(h.entries[len(h.entries)-1]) {
		return false
	}
	h.entries = append(h.entries, e)
	h.publishLocked()
	logx.LogHallOfFameAdded(fitness, len(h.entries))
	return true
}

func (h *HallOfFame) publishLocked() {
	sort.SliceStable(h.entries, func(i, j int) bool { return h.entries[i].better(h.entries[j]) })
	if len(h.entries) > h.K {
		h.entries = h.entries[:h.K]
	}
	snapshot := make([]Entry, len(h.entries))
	copy(snapshot, h.entries)
	h.snapshot.Store(snapshot)
}

// Entries returns the ranked entries, best first.
func (h *HallOfFame) Entries() []Entry {
	return h.snapshot.Load().([]Entry)
}

func (h *HallOfFame) Len() int {
	return len(h.Entries())
}

// Best returns the top entry.
func (h *HallOfFame) Best() (Entry, bool) {
	entries := h.Entries()
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// hallOfFameOffers is how many of the best population members are offered
// to the hall of fame after each generation.
const hallOfFameOffers = 3

// monitor is the per-generation listener of a CLI run: it feeds the hall of
// fame, reports progress to every enabled surface and stops the engine once
// the best fitness drops below the stop threshold.
type monitor struct {
	rc    runConfig
	hof   *HallOfFame
	bar   *progressBar // nil when disabled
	start time.Time

	best            float64
	lastImprovement int
	stagnationShown bool
	stopReason      string
}

func newMonitor(rc runConfig, hof *HallOfFame, bar *progressBar) *monitor {
	return &monitor{
		rc:    rc,
		hof:   hof,
		bar:   bar,
		start: time.Now(),
		best:  math.Inf(1),
	}
}

// lineOutput reports whether plain progress lines go to stdout.
func (m *monitor) lineOutput() bool {
	return m.bar == nil && !tui.Running()
}

func (m *monitor) onGeneration(e *gp.Engine) {
	it := e.Iteration()
	stats := e.Stats()
	fitness := e.BestFitness()

	pop := e.Population()
	for i := 0; i < len(pop) && i < hallOfFameOffers; i++ {
		m.hof.Add(pop[i].Tree().Clone(), e.ChromosomeFitness(pop[i]), it)
	}

	if fitness < m.best {
		m.improved(e, it, fitness)
	}

	since := it - m.lastImprovement
	if m.rc.StagnationWarn > 0 && since >= m.rc.StagnationWarn && !m.stagnationShown {
		m.stagnationShown = true
		logx.LogStagnation(since)
		if m.lineOutput() {
			logx.LogStagnationBlock(it, since, m.best)
		}
	}
	if stats.Size > 0 && stats.NonFinite == stats.Size {
		logx.LogNonFinite(stats.NonFinite, stats.Size)
	}

	g := logx.GenerationStats{
		Iteration:   it,
		Best:        fitness,
		Mean:        stats.Mean,
		StdDev:      stats.StdDev,
		NonFinite:   stats.NonFinite,
		Explored:    e.Explored(),
		Evaluations: e.Evaluations(),
		Elapsed:     time.Since(m.start),
		Stop:        m.rc.Stop,
	}
	if m.lineOutput() && m.rc.LogEvery > 0 && it%m.rc.LogEvery == 0 {
		logx.LogGeneration(g)
	}
	if m.bar != nil {
		m.bar.Update(it, fitness)
	}
	tui.PushState(tui.StateSnapshot{
		Title:          "symreg",
		Target:         m.rc.Target,
		Variables:      m.rc.variables(),
		StartTime:      m.start,
		Iteration:      it,
		MaxIterations:  m.rc.Generations,
		Evaluations:    g.Evaluations,
		Explored:       g.Explored,
		RatePerSec:     g.Rate(),
		BestFitness:    fitness,
		BestExpression: e.Best().String(),
		MeanFitness:    stats.Mean,
		StdDevFitness:  stats.StdDev,
		NonFinite:      stats.NonFinite,
		Population:     stats.Size,
		HallOfFame:     m.hof.Len(),
		StagnationGens: since,
		StopFitness:    m.rc.Stop,
	})
	SendGenerationUpdate(g, stats)

	if fitness < m.rc.Stop {
		m.stopReason = "fitness below stop threshold"
		e.Terminate()
	}
}

func (m *monitor) improved(e *gp.Engine, it int, fitness float64) {
	prev := m.best
	m.best = fitness
	m.lastImprovement = it
	m.stagnationShown = false

	best := newEntry(e.BestExpression(), fitness, it)
	logx.LogNewBest(prev, fitness, best.Expression)
	SendBestUpdate(best)
	SendHallOfFameUpdate(m.hof)
	if m.lineOutput() {
		logx.LogBestBlock(logx.BestBlock{
			Iteration:  it,
			Fitness:    fitness,
			Previous:   prev,
			Expression: best.Expression,
			Nodes:      best.Nodes,
			Depth:      best.Depth,
			Params:     best.Params,
			Vars:       best.Vars,
			Stop:       m.rc.Stop,
		})
	}
}
