// Package main runs the klinotaxis analysis on an evolved genotype: curving
// rate against bearing, normal gradient and translational gradient, averaged
// over many simulations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pthm-cable/chemotaxis/analysis"
	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/report"
	"github.com/pthm-cable/chemotaxis/storage"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

var xLabels = map[analysis.Function]string{
	analysis.FuncBearing:               "Bearing (deg)",
	analysis.FuncNormalGradient:        "Normal gradient (/cm)",
	analysis.FuncTranslationalGradient: "Translational gradient (/cm)",
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	results := flag.String("results", "", "Result file to read genotypes from (empty = output.result_file)")
	storeKind := flag.String("store", "json", "Where results live: json or sqlite")
	runID := flag.String("run-id", "", "Run to load from the sqlite store (empty = latest)")
	genes := flag.String("genes", "", "Comma-separated genotype ranks, e.g. 0,3,5 (empty = analysis config)")
	geneRange := flag.String("gene-range", "", "Inclusive rank range from:to, e.g. 0:4 (overrides -genes)")
	functions := flag.String("functions", "", "Comma-separated functions (empty = analysis.functions)")
	outputDir := flag.String("output", "", "Output directory (empty = output.dir)")
	plot := flag.Bool("plot", false, "Save a PNG per function")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	workers := flag.Int("workers", 0, "Parallel simulations (0 = ga.workers)")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	flag.Parse()

	var h slog.Handler
	if *logFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, nil)
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if *genes != "" {
		ranks, err := parseGenes(*genes)
		if err != nil {
			slog.Error("bad -genes", "error", err)
			os.Exit(1)
		}
		cfg.Analysis.GeneSelection = "list"
		cfg.Analysis.GeneNumbers = ranks
	}
	if *geneRange != "" {
		r, err := parseGeneRange(*geneRange)
		if err != nil {
			slog.Error("bad -gene-range", "error", err)
			os.Exit(1)
		}
		cfg.Analysis.GeneSelection = "range"
		cfg.Analysis.GeneRange = r
	}
	if *functions != "" {
		cfg.Analysis.Functions = strings.Split(*functions, ",")
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *results != "" {
		cfg.Output.ResultFile = *results
	}
	if *plot {
		cfg.Output.Plot = true
	}
	if *workers > 0 {
		cfg.GA.Workers = *workers
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	recs, err := loadResults(ctx, cfg, *storeKind, *runID)
	if err != nil {
		slog.Error("failed to load results", "error", err)
		os.Exit(1)
	}
	if err := run(ctx, cfg, recs, *seed); err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func loadResults(ctx context.Context, cfg *config.Config, kind, runID string) ([]storage.Record, error) {
	if kind == "json" {
		return storage.ReadResultFile(cfg.Output.ResultFile)
	}
	if kind != "sqlite" {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, kind)
	}
	store := storage.NewSQLiteStore(cfg.Output.SQLitePath)
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadResults(ctx, runID)
}

func run(ctx context.Context, cfg *config.Config, recs []storage.Record, seed int64) error {
	genes := cfg.Analysis.Genes()
	if len(genes) == 0 {
		return errors.New("no genes selected")
	}
	for _, n := range genes {
		if n < 0 || n >= len(recs) {
			return fmt.Errorf("gene %d requested but only %d results stored", n, len(recs))
		}
		if err := neural.Genotype(recs[n].Gene).Validate(); err != nil {
			return fmt.Errorf("gene %d: %w", n, err)
		}
	}

	funcs, err := parseFunctions(cfg.Analysis.Functions)
	if err != nil {
		return err
	}

	dir := cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	a := analyzer{
		cfg:      cfg,
		funcs:    funcs,
		dir:      dir,
		settings: cfg.Analysis.SimulationOr(cfg.Setting),
		binning:  analysis.BinningFromConfig(cfg.Analysis),
		table:    neural.NewScalingTable(cfg.Scaling),
	}
	for k, n := range genes {
		// every gene and function gets its own stream
		if err := a.gene(ctx, n, recs[n], seed+int64(k*len(funcs))); err != nil {
			return fmt.Errorf("gene %d: %w", n, err)
		}
	}

	slog.Info("results written", "dir", filepath.Clean(dir), "genes", len(genes))
	return nil
}

// analyzer holds what every analysed gene shares.
type analyzer struct {
	cfg      *config.Config
	funcs    []analysis.Function
	dir      string
	settings config.SimulationConfig
	binning  analysis.Binning
	table    neural.ScalingTable
}

func (a *analyzer) gene(ctx context.Context, n int, rec storage.Record, seed int64) error {
	log := slog.Default().With("gene", n, "fitness", rec.Fitness)

	for i, f := range a.funcs {
		opts, err := analysis.OptionsFromConfig(a.cfg.Analysis, f)
		if err != nil {
			return err
		}

		start := time.Now()
		h, err := analysis.Run(ctx, analysis.Request{
			Table:    a.table,
			Genotype: neural.Genotype(rec.Gene),
			Settings: a.settings,
			Options:  opts,
			Binning:  a.binning,
			Loops:    a.cfg.Analysis.AnalysisLoop,
			Workers:  a.cfg.GA.Workers,
			Seed:     seed + int64(i),
		})
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}

		name := fmt.Sprintf("%s_gene%d", f, n)
		if err := telemetry.WriteHistogram(filepath.Join(a.dir, name+".csv"), h); err != nil {
			return err
		}
		log.Info("analysis complete",
			"function", f.String(),
			"loops", a.cfg.Analysis.AnalysisLoop,
			"bins", len(h.Edges),
			"elapsed", time.Since(start).String(),
		)

		if !a.cfg.Output.Plot {
			continue
		}
		path := filepath.Join(a.dir, name+".png")
		title := fmt.Sprintf("Curving rate vs %s (gene %d)", strings.ReplaceAll(f.String(), "_", " "), n)
		err = report.Histogram(h, title, xLabels[f], path)
		if errors.Is(err, report.ErrNothingToPlot) {
			log.Warn("no data to plot", "function", f.String())
			continue
		}
		if err != nil {
			return err
		}
		log.Info("saved plot", "path", path)
	}
	return nil
}

// parseGenes reads a comma-separated list of ranks.
func parseGenes(s string) ([]int, error) {
	var ranks []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("gene %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("gene %d must not be negative", n)
		}
		ranks = append(ranks, n)
	}
	return ranks, nil
}

// parseGeneRange reads an inclusive from:to range.
func parseGeneRange(s string) ([2]int, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return [2]int{}, fmt.Errorf("range %q: want from:to", s)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return [2]int{}, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return [2]int{}, fmt.Errorf("range %q: %w", s, err)
	}
	if lo < 0 || lo > hi {
		return [2]int{}, fmt.Errorf("range %q: want 0 <= from <= to", s)
	}
	return [2]int{lo, hi}, nil
}

func parseFunctions(names []string) ([]analysis.Function, error) {
	if len(names) == 0 {
		return nil, errors.New("no analysis functions selected")
	}
	funcs := make([]analysis.Function, 0, len(names))
	for _, s := range names {
		f, err := analysis.ParseFunction(s)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}
	return funcs, nil
}
