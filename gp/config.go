package gp

import (
	"fmt"

	"symreg/expr"
)

// Config carries every tunable of a run. Field tags let the CLI decode it
// from a TOML file.
type Config struct {
	PopulationSize     int   `toml:"population_size" json:"population_size"`
	ParentSurviveCount int   `toml:"parent_survive_count" json:"parent_survive_count"`
	InitialDepth       int   `toml:"initial_depth" json:"initial_depth"`
	Seed               int64 `toml:"seed" json:"seed"` // 0 = time-based

	// Tree optimization before every first fitness evaluation.
	CutDepth           int     `toml:"cut_depth" json:"cut_depth"`
	OptimizeIterations int     `toml:"optimize_iterations" json:"optimize_iterations"`
	OptimizeMutated    int     `toml:"optimize_mutated" json:"optimize_mutated"`
	PMutation          float64 `toml:"p_mutation" json:"p_mutation"`
	PCrossover         float64 `toml:"p_crossover" json:"p_crossover"`

	Async   bool `toml:"async" json:"async"`
	Workers int  `toml:"workers" json:"workers"`

	// CheckInvariants validates every bred tree and panics on corruption.
	CheckInvariants bool `toml:"check_invariants" json:"check_invariants"`

	// Functions names the catalog entries to search with; empty means all.
	Functions []string `toml:"functions" json:"functions"`
}

// DefaultConfig matches the classic settings: ten trees of depth one, a
// single elite, and a 50 generation coefficient search over six vectors.
func DefaultConfig() Config {
	return Config{
		PopulationSize:     10,
		ParentSurviveCount: 1,
		InitialDepth:       1,
		CutDepth:           6,
		OptimizeIterations: 50,
		OptimizeMutated:    5,
		PMutation:          0.6,
		PCrossover:         0.8,
	}
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 1:
		return fmt.Errorf("population_size must be >= 1, got %d", c.PopulationSize)
	case c.ParentSurviveCount < 0:
		return fmt.Errorf("parent_survive_count must be >= 0, got %d", c.ParentSurviveCount)
	case c.InitialDepth < 0:
		return fmt.Errorf("initial_depth must be >= 0, got %d", c.InitialDepth)
	case c.CutDepth < 0:
		return fmt.Errorf("cut_depth must be >= 0, got %d", c.CutDepth)
	case c.OptimizeIterations < 0 || c.OptimizeMutated < 0:
		return fmt.Errorf("optimize_iterations and optimize_mutated must be >= 0")
	case c.PMutation < 0 || c.PMutation > 1:
		return fmt.Errorf("p_mutation must be in [0, 1], got %v", c.PMutation)
	case c.PCrossover < 0 || c.PCrossover > 1:
		return fmt.Errorf("p_crossover must be in [0, 1], got %v", c.PCrossover)
	}
	if _, err := c.ResolveFunctions(); err != nil {
		return err
	}
	return nil
}

// ResolveFunctions maps Functions to catalog entries.
func (c Config) ResolveFunctions() ([]*expr.Function, error) {
	if len(c.Functions) == 0 {
		return expr.Functions(), nil
	}
	return expr.FunctionsByName(c.Functions)
}
