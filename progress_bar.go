package main

import (
	"context"
	"io"
	"math"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"symreg/logx"
)

// progressBar shows generations and the current best fitness when neither
// the dashboard nor line output is used.
type progressBar struct {
	p    *mpb.Progress
	bar  *mpb.Bar
	best atomic.Uint64 // math.Float64bits
}

func newProgressBar(ctx context.Context, out io.Writer, generations int) *progressBar {
	b := &progressBar{p: mpb.NewWithContext(ctx, mpb.WithWidth(60), mpb.WithOutput(out))}
	b.best.Store(math.Float64bits(math.Inf(1)))
	b.bar = b.p.AddBar(int64(generations),
		mpb.PrependDecorators(
			decor.Name("generations "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				return " best " + logx.FormatFitness(math.Float64frombits(b.best.Load()))
			}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncSpace), " done"),
		),
	)
	return b
}

func (b *progressBar) Update(iteration int, best float64) {
	b.best.Store(math.Float64bits(best))
	b.bar.SetCurrent(int64(iteration))
}

// Finish leaves the bar at its current position, also after an early stop,
// and waits for the final render.
func (b *progressBar) Finish() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
