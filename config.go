package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shirou/gopsutil/v3/cpu"

	"symreg/formula"
	"symreg/gp"
)

// runConfig is everything one CLI run needs. The search settings are the
// embedded gp.Config; the rest describes the target and the outer loop.
type runConfig struct {
	gp.Config

	Target    string         `toml:"target" json:"target"`
	Variables []string       `toml:"variables" json:"variables"`
	Axes      []formula.Axis `toml:"axes" json:"axes"` // per-variable ranges; empty = From/To/Step for every variable
	From      float64        `toml:"from" json:"from"`
	To        float64        `toml:"to" json:"to"`
	Step      float64        `toml:"step" json:"step"`

	Generations     int     `toml:"generations" json:"generations"`
	Stop            float64 `toml:"stop" json:"stop"`
	HallOfFame      int     `toml:"hall_of_fame" json:"hall_of_fame"`
	StagnationWarn  int     `toml:"stagnation_warn" json:"stagnation_warn"`
	LogEvery        int     `toml:"log_every" json:"log_every"`
	Report          string  `toml:"report" json:"report"`
	WebPort         int     `toml:"web_port" json:"web_port"`
	TUI             bool    `toml:"tui" json:"tui"`
	Progress        bool    `toml:"progress" json:"progress"`
	Verbose         bool    `toml:"verbose" json:"verbose"`
	SampleRowsShown int     `toml:"sample_rows_shown" json:"sample_rows_shown"`
}

func defaultRunConfig() runConfig {
	return runConfig{
		Config:          gp.DefaultConfig(),
		Target:          "x^2 + x",
		Variables:       []string{"x"},
		From:            -5,
		To:              5,
		Step:            1,
		Generations:     1000,
		Stop:            10,
		HallOfFame:      10,
		StagnationWarn:  100,
		LogEvery:        10,
		SampleRowsShown: 12,
	}
}

// loadRunConfig overlays a TOML file on the defaults. Keys missing from the
// file keep their default value.
func loadRunConfig(path string) (runConfig, error) {
	rc := defaultRunConfig()
	if path == "" {
		return rc, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return rc, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	md, err := toml.NewDecoder(f).Decode(&rc)
	if err != nil {
		return rc, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return rc, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return rc, nil
}

// axes returns the sampling grid, one axis per variable.
func (rc runConfig) axes() []formula.Axis {
	if len(rc.Axes) > 0 {
		return rc.Axes
	}
	out := make([]formula.Axis, len(rc.Variables))
	for i, v := range rc.Variables {
		out[i] = formula.Axis{Name: v, From: rc.From, To: rc.To, Step: rc.Step}
	}
	return out
}

// variables lists the search variables; explicit axes win over Variables.
func (rc runConfig) variables() []string {
	if len(rc.Axes) == 0 {
		return rc.Variables
	}
	out := make([]string, len(rc.Axes))
	for i, a := range rc.Axes {
		out[i] = a.Name
	}
	return out
}

func (rc runConfig) validate() error {
	if strings.TrimSpace(rc.Target) == "" {
		return fmt.Errorf("target is empty")
	}
	if len(rc.variables()) == 0 {
		return fmt.Errorf("no variables")
	}
	if rc.Generations < 1 {
		return fmt.Errorf("generations must be >= 1, got %d", rc.Generations)
	}
	return rc.Config.Validate()
}

// splitList parses "x, y ,z" into trimmed, non-empty names.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultWorkers keeps roughly 40% of the physical cores for fitness
// evaluation so the machine stays responsive.
func defaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return max(int(float64(n)*0.40), 1)
}
