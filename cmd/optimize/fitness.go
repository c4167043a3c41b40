package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/chemotaxis/neural"
)

// scorer is the part of sim.Evaluator the refinement needs.
type scorer interface {
	Fitness(g neural.Genotype, rng *rand.Rand) (float64, error)
}

// FitnessEvaluator scores parameter vectors over a fixed set of seeds so that
// every candidate sees the same environments.
type FitnessEvaluator struct {
	params *ParamVector
	table  neural.ScalingTable
	scorer scorer
	seeds  []int64

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestGenotype neural.Genotype
	lastStd      float64 // seed spread of the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, table neural.ScalingTable, s scorer, seeds []int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		table:       table,
		scorer:      s,
		seeds:       seeds,
		bestFitness: math.Inf(1),
	}
}

// Best returns the lowest fitness seen and its genotype.
func (fe *FitnessEvaluator) Best() (float64, neural.Genotype) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.bestGenotype == nil {
		return fe.bestFitness, nil
	}
	return fe.bestFitness, fe.bestGenotype.Clone()
}

// LastStd returns the chemotaxis index spread across seeds from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastStd() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStd
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated mean chemotaxis index over all seeds. A failed
// simulation scores as index zero.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	g := fe.params.Genotype(fe.table, raw)

	scores := make([]float64, len(fe.seeds))
	p := pool.New().WithErrors()
	for i, seed := range fe.seeds {
		p.Go(func() error {
			ci, err := fe.scorer.Fitness(g, rand.New(rand.NewSource(seed)))
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			scores[i] = ci
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		slog.Warn("evaluation failed", "error", err)
		return 0
	}

	mean, std := stat.Mean(scores, nil), 0.0
	if len(scores) > 1 {
		_, std = stat.MeanStdDev(scores, nil)
	}
	fitness := -mean

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestGenotype = g
	}
	fe.lastStd = std
	fe.mu.Unlock()

	return fitness
}
