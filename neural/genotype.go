// Package neural holds the klinotaxis circuit model: the genotype that the
// optimizers search over and its mapping onto the eight-neuron circuit.
package neural

import (
	"errors"
	"fmt"
	"math/rand"
)

// GeneCount is the number of genes in a circuit genotype.
const GeneCount = 22

var (
	// ErrGenotypeLength is returned when a genotype does not have GeneCount genes.
	ErrGenotypeLength = errors.New("genotype length mismatch")
	// ErrGeneRange is returned when a gene lies outside [-1, 1].
	ErrGeneRange = errors.New("gene out of range")
)

// Genotype is a vector of normalized genes in [-1, 1].
type Genotype []float64

// Clone returns an independent copy.
func (g Genotype) Clone() Genotype {
	out := make(Genotype, len(g))
	copy(out, g)
	return out
}

// Clamp limits every gene to [-1, 1] in place.
func (g Genotype) Clamp() {
	for i, v := range g {
		g[i] = clamp(v, -1, 1)
	}
}

// Validate checks the length and range of the genotype.
func (g Genotype) Validate() error {
	if len(g) != GeneCount {
		return fmt.Errorf("%w: got %d genes, want %d", ErrGenotypeLength, len(g), GeneCount)
	}
	for i, v := range g {
		if !(v >= -1 && v <= 1) {
			return fmt.Errorf("%w: gene %d = %v", ErrGeneRange, i, v)
		}
	}
	return nil
}

// RandomGenotype draws n genes uniformly from [-1, 1).
func RandomGenotype(rng *rand.Rand, n int) Genotype {
	g := make(Genotype, n)
	for i := range g {
		g[i] = rng.Float64()*2 - 1
	}
	return g
}

// RandomSignLocked draws like RandomGenotype, then negates any positive gene
// at the locked indices so those genes start non-positive.
func RandomSignLocked(rng *rand.Rand, n int, locked []int) Genotype {
	g := RandomGenotype(rng, n)
	for _, i := range locked {
		if i < len(g) && g[i] > 0 {
			g[i] = -g[i]
		}
	}
	return g
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
