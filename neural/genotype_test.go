package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestRandomGenotypeRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 100; n++ {
		g := RandomGenotype(rng, GeneCount)
		if err := g.Validate(); err != nil {
			t.Fatalf("random genotype invalid: %v", err)
		}
	}
}

func TestRandomSignLocked(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	locked := []int{12, 13}
	for n := 0; n < 200; n++ {
		g := RandomSignLocked(rng, GeneCount, locked)
		for _, i := range locked {
			if g[i] > 0 {
				t.Fatalf("locked gene %d = %v, want <= 0", i, g[i])
			}
		}
	}
}

func TestGenotypeClone(t *testing.T) {
	g := Genotype{0.1, 0.2}
	c := g.Clone()
	c[0] = 0.9
	if g[0] != 0.1 {
		t.Error("Clone shares storage")
	}
}

func TestGenotypeClamp(t *testing.T) {
	g := Genotype{-3, -1, 0.5, 1, 2}
	g.Clamp()
	want := Genotype{-1, -1, 0.5, 1, 1}
	for i := range g {
		if g[i] != want[i] {
			t.Errorf("gene %d = %v, want %v", i, g[i], want[i])
		}
	}
}

func TestGenotypeValidate(t *testing.T) {
	tests := []struct {
		name string
		g    Genotype
		want error
	}{
		{"ok", make(Genotype, GeneCount), nil},
		{"short", make(Genotype, 20), ErrGenotypeLength},
		{"out of range", func() Genotype { g := make(Genotype, GeneCount); g[3] = 1.5; return g }(), ErrGeneRange},
		{"nan", func() Genotype { g := make(Genotype, GeneCount); g[0] = math.NaN(); return g }(), ErrGeneRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSigmoid(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0.5},
		{2, 1 / (1 + math.Exp(-2))},
		{-2, 1 / (1 + math.Exp(2))},
		{800, 1},
		{-800, 0},
	}
	for _, tt := range tests {
		got := Sigmoid(tt.x)
		if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Sigmoid(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
