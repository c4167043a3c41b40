package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/systems"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"plain", Plain},
		{"0", Plain},
		{"wave_check", WaveCheck},
		{"1", WaveCheck},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseVariant("shaped"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("ParseVariant(shaped) error = %v, want ErrUnknownVariant", err)
	}
}

func TestFitnessBounded(t *testing.T) {
	s := shortSettings()
	s.SimulationTime = 30
	rng := rand.New(rand.NewSource(42))

	for _, mode := range []string{"linear", "gauss", "two_gauss"} {
		s.FieldMode = mode
		for i := 0; i < 10; i++ {
			g := neural.RandomGenotype(rng, neural.GeneCount)
			for _, v := range []Variant{Plain, WaveCheck} {
				ci, err := ChemotaxisIndex(g, &s, v, rng)
				if err != nil {
					t.Fatal(err)
				}
				if ci < 0 || ci > 1 || math.IsNaN(ci) {
					t.Errorf("%s/%v: fitness %v outside [0, 1]", mode, v, ci)
				}
			}
		}
	}
}

func TestIndexFormula(t *testing.T) {
	c := Constants{XPeak: 3, YPeak: 4, SimulationTime: 10, DT: 0.5}
	tests := []struct {
		name string
		res  Result
		want float64
	}{
		{"at peak", Result{DistanceSum: 0}, 1},
		{"half", Result{DistanceSum: 50}, 0.5},
		{"penalized", Result{DistanceSum: 50, WavePenalty: 0.008}, 0.492},
		{"clamped", Result{DistanceSum: 500}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Index(tt.res, c)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Index() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluatorAverages(t *testing.T) {
	s := shortSettings()
	s.SimulationTime = 20
	g := neural.RandomGenotype(rand.New(rand.NewSource(1)), neural.GeneCount)

	e := Evaluator{Settings: s, Scaling: neural.DefaultScaling, Variant: Plain, Average: 3}
	got, err := e.Fitness(g, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}

	// the same stream split over three single runs
	rng := rand.New(rand.NewSource(2))
	var sum float64
	for i := 0; i < 3; i++ {
		ci, err := ChemotaxisIndex(g, &s, Plain, rng)
		if err != nil {
			t.Fatal(err)
		}
		sum += ci
	}
	if math.Abs(got-sum/3) > 1e-12 {
		t.Errorf("Fitness() = %v, want %v", got, sum/3)
	}
}

func TestEvaluatorErrors(t *testing.T) {
	s := shortSettings()
	e := Evaluator{Settings: s, Scaling: neural.DefaultScaling, Average: 1}

	if _, err := e.Fitness(make(neural.Genotype, 20), rand.New(rand.NewSource(1))); !errors.Is(err, neural.ErrGenotypeLength) {
		t.Errorf("short genotype error = %v, want ErrGenotypeLength", err)
	}

	e.Mode = systems.FieldMode(9)
	if _, err := e.Fitness(make(neural.Genotype, neural.GeneCount), rand.New(rand.NewSource(1))); !errors.Is(err, systems.ErrUnknownFieldMode) {
		t.Errorf("bad field mode error = %v, want ErrUnknownFieldMode", err)
	}

	e.Mode = systems.Linear
	e.Settings.SimulationTime = 0.1
	if _, err := e.Fitness(make(neural.Genotype, neural.GeneCount), rand.New(rand.NewSource(1))); !errors.Is(err, systems.ErrStepCount) {
		t.Errorf("sub-step assay error = %v, want ErrStepCount", err)
	}
}

func TestNewEvaluatorFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEvaluator(cfg, cfg.Testing, Plain)
	if err != nil {
		t.Fatal(err)
	}
	if e.Average != cfg.GA.Average || e.Scaling != neural.DefaultScaling || e.Mode != systems.Linear {
		t.Errorf("NewEvaluator() = %+v", e)
	}
}

func TestNewEvaluatorResolvesFieldMode(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	s := cfg.Testing
	s.FieldMode = "two_gauss"
	e, err := NewEvaluator(cfg, s, Plain)
	if err != nil {
		t.Fatal(err)
	}
	if e.Mode != systems.TwoGauss {
		t.Errorf("Mode = %v, want two_gauss", e.Mode)
	}

	// the resolved mode wins over a later edit of the name
	e.Settings.FieldMode = "cubic"
	if _, err := e.Fitness(make(neural.Genotype, neural.GeneCount), rand.New(rand.NewSource(1))); err != nil {
		t.Errorf("Fitness() after renaming the mode: %v", err)
	}

	s.FieldMode = "cubic"
	if _, err := NewEvaluator(cfg, s, Plain); !errors.Is(err, systems.ErrUnknownFieldMode) {
		t.Errorf("NewEvaluator(cubic) error = %v, want ErrUnknownFieldMode", err)
	}
	if _, err := ChemotaxisIndex(make(neural.Genotype, neural.GeneCount), &s, Plain, rand.New(rand.NewSource(1))); !errors.Is(err, systems.ErrUnknownFieldMode) {
		t.Errorf("ChemotaxisIndex(cubic) error = %v, want ErrUnknownFieldMode", err)
	}
}
