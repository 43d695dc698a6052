package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"symreg/formula"
	"symreg/gp"
	"symreg/logx"
	"symreg/tui"
)

func main() {
	fmt.Println("Symbolic Regression Search")
	fmt.Println("==========================")

	rc, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, logx.Error(err.Error()))
		os.Exit(2)
	}

	log := logx.NewLogger(os.Stderr, rc.Verbose)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\nReceived stop signal. Finishing the current generation...")
		cancel()
	}()

	if rc.WebPort > 0 {
		stopWeb, err := StartWebServer(ctx, rc.WebPort, log)
		if err != nil {
			log.Warn("web dashboard disabled", "err", err)
		} else {
			defer stopWeb()
			SendStatus("running", rc.Target)
		}
	}

	if rc.TUI {
		err := tui.Start(ctx, tui.Config{
			Title:         "symreg",
			Target:        rc.Target,
			Variables:     rc.variables(),
			MaxIterations: rc.Generations,
			StopFitness:   rc.Stop,
		})
		if err != nil {
			log.Warn("dashboard unavailable, using line output", "err", err)
		}
	}

	var bar *progressBar
	if rc.Progress && !tui.Running() {
		bar = newProgressBar(ctx, os.Stdout, rc.Generations)
	}

	runID := newRunID()
	report, err := runSearch(ctx, rc, runID, log, bar)
	tui.Stop()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		logx.LogRunError(err)
		SendError(err)
		fmt.Fprintln(os.Stderr, logx.Errorf("search failed: %v", err))
		os.Exit(1)
	}
	SendStatus("finished", report.StopReason)

	printReport(os.Stdout, rc, report)

	if rc.Report != "" {
		if err := SaveReport(rc.Report, report); err != nil {
			fmt.Fprintln(os.Stderr, logx.Errorf("%v", err))
			os.Exit(1)
		}
		logx.LogReportSaved(rc.Report, report.RunID)
	}
}

// parseArgs loads the optional config file and applies the flags given on
// the command line on top of it.
func parseArgs(args []string, errOut io.Writer) (runConfig, error) {
	fs := flag.NewFlagSet("symreg", flag.ContinueOnError)
	fs.SetOutput(errOut)

	def := defaultRunConfig()
	configPath := fs.String("config", "", "TOML run config (flags override it)")
	target := fs.String("target", def.Target, "target formula, e.g. \"x^2 + x\" or \"sin(x) * y\"")
	vars := fs.String("vars", "x", "comma separated variable names")
	from := fs.Float64("from", def.From, "first sample value of every variable")
	to := fs.Float64("to", def.To, "last sample value of every variable")
	step := fs.Float64("step", def.Step, "sample spacing")
	generations := fs.Int("generations", def.Generations, "maximum number of generations")
	population := fs.Int("population", def.PopulationSize, "population size")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based, nonzero = reproducible without -async)")
	workers := fs.Int("workers", 0, "fitness workers with -async (0 = ~40% of physical cores)")
	async := fs.Bool("async", false, "evaluate fitness in parallel")
	functions := fs.String("functions", "", "comma separated function names (default: all)")
	stop := fs.Float64("stop", def.Stop, "stop once the best fitness drops below this")
	useTUI := fs.Bool("tui", false, "live terminal dashboard")
	webPort := fs.Int("web", 0, "serve the websocket progress stream on this port (0 = off)")
	reportPath := fs.String("report", "", "write a JSON run report to this path")
	progress := fs.Bool("progress", false, "progress bar instead of per-generation lines")
	verbose := fs.Bool("verbose", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return runConfig{}, err
	}

	rc, err := loadRunConfig(*configPath)
	if err != nil {
		return rc, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target":
			rc.Target = *target
		case "vars":
			rc.Variables = splitList(*vars)
			rc.Axes = nil
		case "from":
			rc.From = *from
		case "to":
			rc.To = *to
		case "step":
			rc.Step = *step
		case "generations":
			rc.Generations = *generations
		case "population":
			rc.PopulationSize = *population
		case "seed":
			rc.Seed = *seed
		case "workers":
			rc.Workers = *workers
		case "async":
			rc.Async = *async
		case "functions":
			rc.Functions = splitList(*functions)
		case "stop":
			rc.Stop = *stop
		case "tui":
			rc.TUI = *useTUI
		case "web":
			rc.WebPort = *webPort
		case "report":
			rc.Report = *reportPath
		case "progress":
			rc.Progress = *progress
		case "verbose":
			rc.Verbose = *verbose
		}
	})

	if rc.Workers <= 0 {
		rc.Workers = defaultWorkers()
	}
	if rc.Seed == 0 {
		rc.Seed = time.Now().UnixNano()
	}
	if err := rc.validate(); err != nil {
		return rc, fmt.Errorf("config: %w", err)
	}
	return rc, nil
}

// targetsFor samples the target formula over the configured grid.
func targetsFor(rc runConfig) ([]gp.Target, error) {
	f, err := formula.Compile(rc.Target)
	if err != nil {
		return nil, err
	}
	samples, err := formula.Grid(f, rc.axes())
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("target %q has no finite value on the sample grid", rc.Target)
	}
	targets := make([]gp.Target, len(samples))
	for i, s := range samples {
		targets[i] = gp.Target{Bindings: s.Bindings, Value: s.Value}
	}
	return targets, nil
}

// runSearch evolves expressions for the configured target and returns the
// run report. Cancelling ctx ends the run after the current generation; that
// is not an error.
func runSearch(ctx context.Context, rc runConfig, runID string, log *slog.Logger, bar *progressBar) (RunReport, error) {
	start := time.Now()
	report := newRunReport(runID, rc, start)

	targets, err := targetsFor(rc)
	if err != nil {
		return report, err
	}
	fitness := gp.NewTabulatedFitness(targets...)

	functions, err := rc.ResolveFunctions()
	if err != nil {
		return report, err
	}
	engine, err := gp.NewEngine(fitness, rc.variables(), functions, gp.WithConfig(rc.Config), gp.WithLogger(log))
	if err != nil {
		return report, err
	}

	hof := NewHallOfFame(rc.HallOfFame)
	mon := newMonitor(rc, hof, bar)
	engine.AddIterationListener(mon.onGeneration)

	if mon.lineOutput() {
		logx.LogStart(rc.Target, rc.variables(), rc.PopulationSize, engine.Config().Seed, rc.Workers, rc.Async)
	}
	log.Debug("search start", "run", runID, "targets", len(targets), "functions", len(functions))

	err = engine.Evolve(ctx, rc.Generations)
	switch {
	case errors.Is(err, context.Canceled):
		report.StopReason = "interrupted"
	case err != nil:
		return report, err
	case mon.stopReason != "":
		report.StopReason = mon.stopReason
	default:
		report.StopReason = "generation limit"
	}
	if mon.lineOutput() {
		logx.LogStopped(report.StopReason, engine.Iteration(), time.Since(start))
	}

	best := engine.BestExpression()
	hof.Add(best, engine.BestFitness(), engine.Iteration())

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	report.Iterations = engine.Iteration()
	report.Best = newEntry(best, engine.BestFitness(), mon.lastImprovement)
	report.Stats = engine.Stats()
	report.Explored = engine.Explored()
	report.Evaluations = engine.Evaluations()
	report.HallOfFame = hof.Entries()

	got, want := fitness.Residuals(best, engine.Context())
	report.Samples = make([]ReportSample, len(targets))
	for i, t := range targets {
		report.Samples[i] = ReportSample{Bindings: t.Bindings, Want: reportFloat(want[i]), Got: reportFloat(got[i])}
	}
	return report, nil
}

func printReport(w io.Writer, rc runConfig, r RunReport) {
	logx.LogResult(r.Best.Expression, float64(r.Best.Fitness), r.Iterations, r.Explored, rc.Stop)

	vars := r.Variables
	rows := make([]logx.SampleRow, len(r.Samples))
	for i, s := range r.Samples {
		b := make([]float64, len(vars))
		for j, v := range vars {
			b[j] = s.Bindings[v]
		}
		rows[i] = logx.SampleRow{Bindings: b, Want: float64(s.Want), Got: float64(s.Got)}
	}
	fmt.Fprintln(w)
	logx.PrintSamples(w, vars, rows, rc.SampleRowsShown)

	hall := make([]logx.HallRow, len(r.HallOfFame))
	for i, e := range r.HallOfFame {
		hall[i] = logx.HallRow{Rank: i + 1, Fitness: float64(e.Fitness), Nodes: e.Nodes, Iteration: e.Iteration, Expression: e.Expression}
	}
	fmt.Fprintln(w)
	logx.PrintHallOfFame(w, hall)
}
