package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/evolve"
	"github.com/pthm-cable/chemotaxis/report"
	"github.com/pthm-cable/chemotaxis/sim"
	"github.com/pthm-cable/chemotaxis/storage"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, plots and config snapshot (empty = output.dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = ga.seed, then time-based)")
	storeKind := flag.String("store", "", "Result store: json, sqlite or memory (empty = output.store)")
	plot := flag.Bool("plot", false, "Save a fitness history PNG when done")
	logFormat := flag.String("log-format", "json", "Log format: json or text")
	perfEvery := flag.Int("perf-every", 10, "Log throughput every N generations (0 = never)")

	flag.Parse()

	setupLogger(*logFormat)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *storeKind != "" {
		cfg.Output.Store = *storeKind
	}
	if *plot {
		cfg.Output.Plot = true
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.GA.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, rngSeed, *perfEvery); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(format string) {
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(os.Stdout, nil)
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg *config.Config, seed int64, perfEvery int) error {
	variant, err := sim.ParseVariant(cfg.GA.Variant)
	if err != nil {
		return err
	}

	runID := storage.NewRunID()
	log := slog.Default().With("run_id", runID)

	om, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	store, err := storage.NewStore(cfg.Output.Store, storePath(cfg))
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Output.Store, err)
	}
	defer store.Close()

	trainEval, err := sim.NewEvaluator(cfg, cfg.Setting, variant)
	if err != nil {
		return fmt.Errorf("setting: %w", err)
	}
	testEval, err := sim.NewEvaluator(cfg, cfg.Testing, sim.Plain)
	if err != nil {
		return fmt.Errorf("testing: %w", err)
	}

	params := evolve.ParamsFromConfig(cfg)
	engine := evolve.NewEngine(
		params,
		evolve.NewStrategy(cfg.Derived.ConstrainedGenes),
		trainEval,
		testEval,
		seed,
	)
	engine.Logger = log
	engine.Sink = storage.Sink{Store: store, RunID: runID}

	prog := newProgress(runID, params, om, perfEvery)
	engine.Observer = prog

	log.Info("starting optimization",
		"seed", seed,
		"variant", variant.String(),
		"constrained_genes", cfg.Derived.ConstrainedGenes,
		"ga_count", params.GACount,
		"n_gen", params.NGen,
		"pop_size", params.PopSize,
		"store", cfg.Output.Store,
		"output_dir", om.Dir(),
	)

	results, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if err := om.WriteResults(runID, results); err != nil {
		return err
	}
	printResults(os.Stdout, results, 10)

	if cfg.Output.Plot && om != nil {
		path := om.Path("fitness.png")
		if err := report.FitnessHistory(prog.history, "Chemotaxis index by generation", path); err != nil {
			return fmt.Errorf("plotting fitness history: %w", err)
		}
		log.Info("saved plot", "path", path)
	}

	log.Info("optimization complete", "results", len(results), "best", results[0])
	return nil
}

// storePath picks the file the chosen backend writes to. A result file
// given as a bare name lands in the output directory.
func storePath(cfg *config.Config) string {
	switch cfg.Output.Store {
	case "sqlite":
		return cfg.Output.SQLitePath
	case "json":
		if cfg.Output.Dir != "" && filepath.Dir(cfg.Output.ResultFile) == "." {
			return filepath.Join(cfg.Output.Dir, cfg.Output.ResultFile)
		}
		return cfg.Output.ResultFile
	}
	return ""
}
