package evolve

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/chemotaxis/config"
)

// Params are the GA hyperparameters.
type Params struct {
	GeneCount int
	PopSize   int
	SelTop    int
	NGen      int
	GACount   int
	ReVal     int
	MatPB     float64
	MutPB     float64
	Workers   int
	Mutation  MutationParams
}

// ParamsFromConfig copies the GA and mutation sections of cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		GeneCount: cfg.GA.GenSize,
		PopSize:   cfg.GA.PopSize,
		SelTop:    cfg.GA.SelTop,
		NGen:      cfg.GA.NGen,
		GACount:   cfg.GA.GACount,
		ReVal:     cfg.GA.ReVal,
		MatPB:     cfg.GA.MatPB,
		MutPB:     cfg.GA.MutPB,
		Workers:   cfg.GA.Workers,
		Mutation: MutationParams{
			Mean:     cfg.Mutation.Mean,
			Std:      cfg.Mutation.Std,
			GeneRate: cfg.Mutation.GeneRate,
		},
	}
}

// GenerationReport describes one ranked generation.
type GenerationReport struct {
	Run         int
	Generation  int // 0 is the initial population
	Population  Population
	Evaluated   int  // individuals simulated this generation
	Reevaluated bool // elites were re-simulated
}

// Observer receives every ranked generation.
type Observer interface {
	OnGeneration(r GenerationReport)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r GenerationReport)

func (f ObserverFunc) OnGeneration(r GenerationReport) { f(r) }

// Sink persists results as they become final.
type Sink interface {
	SaveRunBest(ctx context.Context, run int, best Individual) error
	SaveResults(ctx context.Context, results Population) error
}

// Engine runs the GA. Training and Holdout score genotypes during evolution
// and for the final re-evaluation respectively.
type Engine struct {
	Params   Params
	Strategy Strategy
	Training Evaluator
	Holdout  Evaluator
	Observer Observer // optional
	Sink     Sink     // optional
	Logger   *slog.Logger

	rng *rand.Rand
}

// NewEngine creates an engine whose every random draw descends from seed.
func NewEngine(p Params, s Strategy, training, holdout Evaluator, seed int64) *Engine {
	return &Engine{
		Params:   p,
		Strategy: s,
		Training: training,
		Holdout:  holdout,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// RandomPopulation samples n unevaluated individuals.
func (e *Engine) RandomPopulation(n int) Population {
	pop := make(Population, max(n, 0))
	for i := range pop {
		pop[i].Genotype = e.Strategy.Sampler.Sample(e.rng, e.Params.GeneCount)
	}
	return pop
}

func (e *Engine) evaluate(ctx context.Context, pop Population, ev Evaluator) error {
	return EvaluateAll(ctx, pop, ev, DrawSeeds(e.rng, len(pop)), e.Params.Workers)
}

// Step produces generation gen+1 from the ranked population pop. Elites are
// the top SelTop; adjacent elite pairs recombine with probability MatPB and
// each elite yields a mutant with probability MutPB; random individuals fill
// the rest. On re-evaluation generations the elites are simulated again,
// otherwise they keep their fitness.
func (e *Engine) Step(ctx context.Context, pop Population, gen int) (Population, GenerationReport, error) {
	p := e.Params
	selected := pop.Top(p.SelTop)

	var mate Population
	for i := 0; i+1 < len(selected); i += 2 {
		if e.rng.Float64() < p.MatPB {
			c1, c2 := TwoPointCrossover(selected[i].Genotype, selected[i+1].Genotype, e.rng)
			mate = append(mate, Individual{Genotype: c1}, Individual{Genotype: c2})
		}
	}

	var mutant Population
	for _, ind := range selected {
		if e.rng.Float64() < p.MutPB {
			mutant = append(mutant, Individual{Genotype: e.Strategy.Mutate(ind.Genotype, e.rng, p.Mutation)})
		}
	}

	report := GenerationReport{Generation: gen + 1, Reevaluated: gen%p.ReVal == 0}

	var next Population
	if report.Reevaluated {
		next = make(Population, 0, p.PopSize)
		next = append(next, selected...)
		next = append(next, mate...)
		next = append(next, mutant...)
		next = append(next, e.RandomPopulation(p.PopSize-len(next))...)
		if err := e.evaluate(ctx, next, e.Training); err != nil {
			return nil, report, err
		}
		report.Evaluated = len(next)
	} else {
		offspring := make(Population, 0, p.PopSize)
		offspring = append(offspring, mate...)
		offspring = append(offspring, mutant...)
		offspring = append(offspring, e.RandomPopulation(p.PopSize-len(selected)-len(offspring))...)
		if err := e.evaluate(ctx, offspring, e.Training); err != nil {
			return nil, report, err
		}
		report.Evaluated = len(offspring)
		next = append(offspring, selected...)
	}

	next.SortDescending()
	report.Population = next
	return next, report, nil
}

// RunOnce evolves one fresh population for NGen generations and returns the
// final ranked population. Cancellation is honoured between generations.
func (e *Engine) RunOnce(ctx context.Context, run int) (Population, error) {
	p := e.Params
	pop := e.RandomPopulation(p.PopSize)
	if err := e.evaluate(ctx, pop, e.Training); err != nil {
		return nil, fmt.Errorf("run %d initial evaluation: %w", run, err)
	}
	pop.SortDescending()
	e.observe(GenerationReport{Run: run, Population: pop, Evaluated: len(pop), Reevaluated: true})

	for gen := 0; gen < p.NGen; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, report, err := e.Step(ctx, pop, gen)
		if err != nil {
			return nil, fmt.Errorf("run %d generation %d: %w", run, gen+1, err)
		}
		report.Run = run
		e.observe(report)
		pop = next
	}
	return pop, nil
}

func (e *Engine) observe(r GenerationReport) {
	log := e.logger()
	args := []any{"run", r.Run + 1, "gen", r.Generation, "best", r.Population[0].Fitness}
	if len(r.Population) > 2 {
		args = append(args, "second", r.Population[1].Fitness, "third", r.Population[2].Fitness)
	}
	log.Info("generation ranked", args...)
	if e.Observer != nil {
		e.Observer.OnGeneration(r)
	}
}

// Run performs GACount independent runs, collects the best individual of
// each, re-scores the collection with the holdout evaluator and returns it
// sorted best first.
func (e *Engine) Run(ctx context.Context) (Population, error) {
	results := make(Population, 0, e.Params.GACount)
	for run := 0; run < e.Params.GACount; run++ {
		pop, err := e.RunOnce(ctx, run)
		if err != nil {
			return results, err
		}
		best := pop.Best().Clone()
		results = append(results, best)
		e.logger().Info("run complete", "run", run+1, "best", best)
		if e.Sink != nil {
			if err := e.Sink.SaveRunBest(ctx, run, best); err != nil {
				return results, fmt.Errorf("saving run %d: %w", run, err)
			}
		}
	}

	if len(results) == 0 {
		return results, nil
	}
	if err := e.evaluate(ctx, results, e.Holdout); err != nil {
		return results, fmt.Errorf("holdout evaluation: %w", err)
	}
	results.SortDescending()
	e.logger().Info("holdout evaluation complete", "results", len(results), "best", results[0].Fitness)

	if e.Sink != nil {
		if err := e.Sink.SaveResults(ctx, results); err != nil {
			return results, fmt.Errorf("saving results: %w", err)
		}
	}
	return results, nil
}
