package logx

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "12,345,678", formatNumber(12345678))
	assert.Equal(t, "-4,200", formatNumber(-4200))
}

func TestFormatFitness(t *testing.T) {
	assert.Equal(t, "0.0000", FormatFitness(0))
	assert.Equal(t, "12.5000", FormatFitness(12.5))
	assert.Equal(t, "2.500e-05", FormatFitness(2.5e-5))
	assert.Equal(t, "NaN", FormatFitness(math.NaN()))
}

func TestFitnessColor(t *testing.T) {
	old := enableColor
	defer func() { enableColor = old }()

	enableColor = false
	assert.Equal(t, "0.5000", FitnessColor(0.5, 1))

	enableColor = true
	assert.True(t, strings.HasPrefix(FitnessColor(0.5, 1), green))
	assert.True(t, strings.HasPrefix(FitnessColor(5, 1), yellow))
	assert.True(t, strings.HasPrefix(FitnessColor(50, 1), red))
	assert.True(t, strings.HasPrefix(FitnessColor(math.Inf(1), 1), red))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}

func TestPrintSamples(t *testing.T) {
	old := enableColor
	enableColor = false
	defer func() { enableColor = old }()

	var buf bytes.Buffer
	rows := []SampleRow{
		{Bindings: []float64{1, 2}, Want: 3, Got: 3},
		{Bindings: []float64{2, 2}, Want: 4, Got: 4.5},
		{Bindings: []float64{3, 2}, Want: 5, Got: 5},
	}
	PrintSamples(&buf, []string{"x", "y"}, rows, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, []string{"x", "y", "want", "got", "error"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"2", "2", "4", "4.5", "0.5"}, strings.Fields(lines[2]))
	assert.Equal(t, "... 1 more", strings.TrimSpace(lines[3]))
}

func TestGenerationRate(t *testing.T) {
	g := GenerationStats{Evaluations: 500, Elapsed: 2 * time.Second}
	assert.Equal(t, 250.0, g.Rate())
	assert.Zero(t, GenerationStats{Evaluations: 5}.Rate())
}
