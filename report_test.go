package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symreg/expr"
)

func TestReportFloatJSON(t *testing.T) {
	for _, v := range []float64{0, -1.5, 1e-9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		b, err := json.Marshal(reportFloat(v))
		require.NoError(t, err)

		var got reportFloat
		require.NoError(t, json.Unmarshal(b, &got), string(b))
		if math.IsNaN(v) {
			assert.True(t, math.IsNaN(float64(got)))
			continue
		}
		assert.Equal(t, v, float64(got))
	}
	b, _ := json.Marshal(reportFloat(math.NaN()))
	assert.Equal(t, `"NaN"`, string(b))
}

func TestSaveLoadReport(t *testing.T) {
	rc := defaultRunConfig()
	r := newRunReport(newRunID(), rc, time.Now())
	r.Iterations = 12
	r.StopReason = "generation limit"
	r.Best = newEntry(expr.NewOp(expr.Add, expr.NewVariable("x"), expr.NewConstant(1)), math.Inf(1), 3)
	r.Samples = []ReportSample{{Bindings: map[string]float64{"x": 1}, Want: 2, Got: reportFloat(math.NaN())}}

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, SaveReport(path, r))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")

	got, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Len(t, got.RunID, 36)
	assert.Equal(t, "(x + 1)", got.Best.Expression)
	assert.True(t, math.IsInf(float64(got.Best.Fitness), 1))
	assert.True(t, math.IsNaN(float64(got.Samples[0].Got)))
	assert.Equal(t, rc.Config, got.Config)
	assert.Equal(t, []string{"x"}, got.Variables)
}

func TestLoadReportErrors(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadReport(path)
	assert.ErrorContains(t, err, "bad.json")
}
