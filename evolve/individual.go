// Package evolve implements the elitist genetic algorithm that searches for
// klinotaxis circuit genotypes.
package evolve

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/pthm-cable/chemotaxis/neural"
)

// Individual is a genotype with its most recent fitness.
type Individual struct {
	Genotype neural.Genotype
	Fitness  float64
}

// Clone returns a copy that shares no storage with ind.
func (ind Individual) Clone() Individual {
	return Individual{Genotype: ind.Genotype.Clone(), Fitness: ind.Fitness}
}

// LogValue implements slog.LogValuer.
func (ind Individual) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("fitness", ind.Fitness),
		slog.Any("genotype", []float64(ind.Genotype)),
	)
}

// Population is an ordered set of individuals.
type Population []Individual

// SortDescending orders by fitness, best first. Ties keep their order.
func (p Population) SortDescending() {
	slices.SortStableFunc(p, func(a, b Individual) int {
		return cmp.Compare(b.Fitness, a.Fitness)
	})
}

// Best returns the first individual. The population must be sorted and non-empty.
func (p Population) Best() Individual {
	return p[0]
}

// Top returns copies of the first k individuals.
func (p Population) Top(k int) Population {
	k = min(k, len(p))
	out := make(Population, k)
	for i := 0; i < k; i++ {
		out[i] = p[i].Clone()
	}
	return out
}

// Fitnesses returns the fitness values in population order.
func (p Population) Fitnesses() []float64 {
	out := make([]float64, len(p))
	for i, ind := range p {
		out[i] = ind.Fitness
	}
	return out
}
