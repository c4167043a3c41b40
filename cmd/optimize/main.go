// Package main refines an evolved genotype with CMA-ES, searching the
// physical parameter space of the circuit directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gosuri/uitable"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/sim"
	"github.com/pthm-cable/chemotaxis/storage"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval       int     `csv:"eval"`
	Index      float64 `csv:"chemotaxis_index"`
	Std        float64 `csv:"std"`
	BestIndex  float64 `csv:"best_index"`
	ElapsedSec float64 `csv:"elapsed_sec"`
	Genotype   string  `csv:"genotype"`
}

// options are the resolved refinement settings.
type options struct {
	start      neural.Genotype
	maxEvals   int
	population int
	stepSize   float64
	seeds      []int64
	variant    sim.Variant
	outputDir  string
}

type outcome struct {
	evals   int
	index   float64 // best training index
	holdout float64
	best    neural.Genotype
	params  *ParamVector
	table   neural.ScalingTable
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	results := flag.String("results", "", "Result file holding the starting genotype (empty = all genes zero)")
	gene := flag.Int("gene", 0, "Rank of the starting genotype in the result file")
	seeds := flag.Int("seeds", 0, "Number of seeds per evaluation (0 = refine.seeds)")
	maxEvals := flag.Int("max-evals", 0, "Maximum number of evaluations (0 = refine.max_evals)")
	population := flag.Int("population", -1, "CMA-ES population size (-1 = refine.population, 0 = auto)")
	variant := flag.String("variant", "", "Training fitness: plain or wave_check (empty = ga.variant)")
	seed := flag.Int64("seed", 42, "Base seed for the evaluation environments")
	outputDir := flag.String("output", "", "Output directory for results")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	flag.Parse()

	var h slog.Handler
	if *logFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, nil)
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	opts, err := resolveOptions(cfg, *results, *gene, *seeds, *maxEvals, *population, *variant, *seed)
	if err != nil {
		slog.Error("bad arguments", "error", err)
		os.Exit(1)
	}
	opts.outputDir = *outputDir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := refine(ctx, cfg, opts)
	if err != nil {
		slog.Error("refinement failed", "error", err)
		os.Exit(1)
	}
	printParams(os.Stdout, out)

	path := filepath.Join(*outputDir, "best_genotype.json")
	rec := storage.Record{Fitness: out.holdout, Gene: out.best}
	if err := storage.WriteResultFile(path, []storage.Record{rec}); err != nil {
		slog.Error("failed to write best genotype", "error", err)
		os.Exit(1)
	}
	if err := cfg.WriteYAML(filepath.Join(*outputDir, "config.yaml")); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}
	slog.Info("best genotype saved", "path", path, "holdout", out.holdout)
}

func resolveOptions(cfg *config.Config, results string, gene, seeds, maxEvals, population int, variant string, seed int64) (options, error) {
	opts := options{
		start:      make(neural.Genotype, neural.GeneCount),
		maxEvals:   cfg.Refine.MaxEvals,
		population: cfg.Refine.Population,
		stepSize:   cfg.Refine.InitStepSize,
	}
	if results != "" {
		recs, err := storage.ReadResultFile(results)
		if err != nil {
			return opts, err
		}
		if gene < 0 || gene >= len(recs) {
			return opts, fmt.Errorf("gene %d requested but only %d results stored", gene, len(recs))
		}
		opts.start = neural.Genotype(recs[gene].Gene).Clone()
		if err := opts.start.Validate(); err != nil {
			return opts, err
		}
	}
	if maxEvals > 0 {
		opts.maxEvals = maxEvals
	}
	if population >= 0 {
		opts.population = population
	}

	n := cfg.Refine.Seeds
	if seeds > 0 {
		n = seeds
	}
	if n < 1 {
		return opts, fmt.Errorf("need at least one seed, got %d", n)
	}
	opts.seeds = make([]int64, n)
	for i := range opts.seeds {
		opts.seeds[i] = int64(i)*1000 + seed
	}

	if variant == "" {
		variant = cfg.GA.Variant
	}
	v, err := sim.ParseVariant(variant)
	if err != nil {
		return opts, err
	}
	opts.variant = v
	return opts, nil
}

func refine(ctx context.Context, cfg *config.Config, opts options) (*outcome, error) {
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	trainEval, err := sim.NewEvaluator(cfg, cfg.Setting, opts.variant)
	if err != nil {
		return nil, fmt.Errorf("setting: %w", err)
	}
	testEval, err := sim.NewEvaluator(cfg, cfg.Testing, sim.Plain)
	if err != nil {
		return nil, fmt.Errorf("testing: %w", err)
	}

	table := neural.NewScalingTable(cfg.Scaling)
	params := NewParamVector(table, opts.start, cfg.Derived.ConstrainedGenes)
	evaluator := NewFitnessEvaluator(params, table, trainEval, opts.seeds)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	// Population
	popSize := opts.population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	method := &optimize.CmaEsChol{
		InitStepSize: opts.stepSize,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // Sequential; seeds run in parallel inside Evaluate
	}

	// Open log file
	logFile, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			bestFitness, _ := evaluator.Best()
			elapsed := time.Since(startTime)
			row := []evalRow{{
				Eval:       evalCount,
				Index:      -fitness,
				Std:        evaluator.LastStd(),
				BestIndex:  -bestFitness,
				ElapsedSec: elapsed.Seconds(),
				Genotype:   fmt.Sprintf("%.6f", []float64(params.Genotype(table, clamped))),
			}}
			var werr error
			if !headerWritten {
				werr = gocsv.Marshal(row, logFile)
				headerWritten = true
			} else {
				werr = gocsv.MarshalWithoutHeaders(row, logFile)
			}
			if werr != nil {
				slog.Warn("failed to write log row", "error", werr)
			}

			// Calculate timing
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(max(opts.maxEvals-evalCount, 0)) * avgPerEval
			slog.Info("evaluation",
				"eval", evalCount,
				"max_evals", opts.maxEvals,
				"index", -fitness,
				"best", -bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	slog.Info("starting CMA-ES refinement",
		"parameters", dim,
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", len(opts.seeds),
		"variant", opts.variant.String(),
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	bestFitness, best := evaluator.Best()
	if best == nil {
		if result == nil {
			return nil, fmt.Errorf("no evaluation completed: %w", err)
		}
		best = params.Genotype(table, params.Clamp(params.Denormalize(result.X)))
		bestFitness = result.F
	}

	holdout, err := testEval.Fitness(best, rand.New(rand.NewSource(opts.seeds[0])))
	if err != nil {
		return nil, fmt.Errorf("holdout evaluation: %w", err)
	}

	slog.Info("refinement complete",
		"evals", evalCount,
		"elapsed", formatDuration(time.Since(startTime)),
		"index", -bestFitness,
		"holdout", holdout,
	)
	return &outcome{
		evals:   evalCount,
		index:   -bestFitness,
		holdout: holdout,
		best:    best,
		params:  params,
		table:   table,
	}, nil
}

func printParams(w io.Writer, out *outcome) {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("Gene", "Category", "Start", "Best", "Gene value")
	for i, spec := range out.params.Specs {
		table.AddRow(spec.Name, spec.Category,
			fmt.Sprintf("%.4f", spec.Default),
			fmt.Sprintf("%.4f", out.table.Map(neural.GeneLayout[i].Category, out.best[i])),
			fmt.Sprintf("%.4f", out.best[i]),
		)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, " ~ Best parameters (index %.4f, holdout %.4f) ~ \n", out.index, out.holdout)
	fmt.Fprintln(w)
	fmt.Fprintln(w, table)
}
