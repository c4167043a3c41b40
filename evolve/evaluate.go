package evolve

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/pthm-cable/chemotaxis/neural"
)

// Evaluator scores one genotype using only the given random source.
type Evaluator interface {
	Fitness(g neural.Genotype, rng *rand.Rand) (float64, error)
}

// DrawSeeds takes n seeds from rng in order.
func DrawSeeds(rng *rand.Rand, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

// EvaluateAll sets the fitness of every individual in parallel. Task i owns a
// generator seeded with seeds[i] and writes only pop[i], so the outcome does
// not depend on scheduling. workers <= 0 means GOMAXPROCS.
func EvaluateAll(ctx context.Context, pop Population, ev Evaluator, seeds []int64, workers int) error {
	if len(seeds) != len(pop) {
		return fmt.Errorf("evaluate: %d seeds for %d individuals", len(seeds), len(pop))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for i := range pop {
		p.Go(func() error {
			f, err := ev.Fitness(pop[i].Genotype, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return fmt.Errorf("individual %d: %w", i, err)
			}
			pop[i].Fitness = f
			return nil
		})
	}
	return p.Wait()
}
