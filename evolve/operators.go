package evolve

import (
	"math/rand"
	"slices"

	"github.com/pthm-cable/chemotaxis/neural"
)

// Sampler draws fresh random genotypes for initialization and fill.
type Sampler interface {
	Sample(rng *rand.Rand, n int) neural.Genotype
}

// Unconstrained samples every gene uniformly in [-1, 1).
type Unconstrained struct{}

func (Unconstrained) Sample(rng *rand.Rand, n int) neural.Genotype {
	return neural.RandomGenotype(rng, n)
}

// SignLocked samples like Unconstrained but keeps Genes non-positive.
type SignLocked struct {
	Genes []int
}

func (s SignLocked) Sample(rng *rand.Rand, n int) neural.Genotype {
	return neural.RandomSignLocked(rng, n, s.Genes)
}

// MutationParams control gaussian gene perturbation.
type MutationParams struct {
	Mean     float64
	Std      float64
	GeneRate float64 // probability that any one gene is perturbed
}

// Mutator returns a mutated copy of g.
type Mutator func(g neural.Genotype, rng *rand.Rand, mp MutationParams) neural.Genotype

// Mutate perturbs each gene with probability mp.GeneRate and clamps it to [-1, 1].
func Mutate(g neural.Genotype, rng *rand.Rand, mp MutationParams) neural.Genotype {
	out := g.Clone()
	for i := range out {
		if rng.Float64() < mp.GeneRate {
			out[i] = clampGene(out[i] + rng.NormFloat64()*mp.Std + mp.Mean)
		}
	}
	return out
}

// MutateSignLocked returns a Mutator that mutates like Mutate except on the
// locked genes: a perturbation that would make one positive is undone, and one
// that drops below -1 is clamped to -1.
func MutateSignLocked(locked []int) Mutator {
	return func(g neural.Genotype, rng *rand.Rand, mp MutationParams) neural.Genotype {
		out := g.Clone()
		for i := range out {
			if rng.Float64() >= mp.GeneRate {
				continue
			}
			delta := rng.NormFloat64()*mp.Std + mp.Mean
			if !slices.Contains(locked, i) {
				out[i] = clampGene(out[i] + delta)
				continue
			}
			v := out[i] + delta
			switch {
			case v > 0:
				// keep the previous value
			case v < -1:
				out[i] = -1
			default:
				out[i] = v
			}
		}
		return out
	}
}

// TwoPointCrossover swaps the genes in [start, end) between copies of a and b,
// where start and end are drawn uniformly from [0, len) and ordered. Equal
// points leave both children identical to their parents.
func TwoPointCrossover(a, b neural.Genotype, rng *rand.Rand) (neural.Genotype, neural.Genotype) {
	c1, c2 := a.Clone(), b.Clone()
	p1, p2 := rng.Intn(len(a)), rng.Intn(len(a))
	start, end := min(p1, p2), max(p1, p2)
	for i := start; i < end; i++ {
		c1[i], c2[i] = b[i], a[i]
	}
	return c1, c2
}

// Strategy pairs the sampler and mutator of one search variant.
type Strategy struct {
	Sampler Sampler
	Mutate  Mutator
}

// NewStrategy returns the sign-locked strategy when locked genes are given,
// and the unconstrained one otherwise.
func NewStrategy(locked []int) Strategy {
	if len(locked) == 0 {
		return Strategy{Sampler: Unconstrained{}, Mutate: Mutate}
	}
	return Strategy{Sampler: SignLocked{Genes: locked}, Mutate: MutateSignLocked(locked)}
}

func clampGene(v float64) float64 {
	return max(-1, min(1, v))
}
