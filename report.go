package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"symreg/gp"
)

// reportFloat is a float64 that survives JSON when it is NaN or infinite;
// those values are written as strings.
type reportFloat float64

func (f reportFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *reportFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("report float %q: %w", s, err)
		}
		*f = reportFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = reportFloat(v)
	return nil
}

// ReportSample is one target point with the best expression's value there.
type ReportSample struct {
	Bindings map[string]float64 `json:"bindings"`
	Want     reportFloat        `json:"want"`
	Got      reportFloat        `json:"got"`
}

// RunReport is the JSON summary written at the end of a run. It is an
// output artifact; runs cannot resume from it.
type RunReport struct {
	Version     int    `json:"version"`
	RunID       string `json:"run_id"`
	SavedAtUnix int64  `json:"saved_at_unix"`
	StartedAt   string `json:"started_at"`
	Duration    string `json:"duration"`

	Target    string    `json:"target"`
	Variables []string  `json:"variables"`
	Config    gp.Config `json:"config"`

	Iterations  int      `json:"iterations"`
	StopReason  string   `json:"stop_reason"`
	Best        Entry    `json:"best"`
	Stats       gp.Stats `json:"stats"`
	Explored    int64    `json:"explored"`
	Evaluations int64    `json:"evaluations"`

	HallOfFame []Entry        `json:"hall_of_fame"`
	Samples    []ReportSample `json:"samples"`
}

func newRunID() string {
	return uuid.NewString()
}

func newRunReport(runID string, rc runConfig, start time.Time) RunReport {
	return RunReport{
		RunID:     runID,
		StartedAt: start.UTC().Format(time.RFC3339),
		Target:    rc.Target,
		Variables: rc.variables(),
		Config:    rc.Config,
	}
}

// SaveReport writes r atomically: a temp file is renamed over path.
func SaveReport(path string, r RunReport) error {
	r.Version = 1
	r.SavedAtUnix = time.Now().Unix()

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func LoadReport(path string) (RunReport, error) {
	var r RunReport
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("load report: %w", err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("load report %s: %w", path, err)
	}
	return r, nil
}
