package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/systems"
)

// ErrUnknownVariant is returned for an unrecognized fitness variant name.
var ErrUnknownVariant = errors.New("unknown fitness variant")

// Variant selects how a trajectory is scored.
type Variant int

const (
	// Plain scores the distance to the peak only.
	Plain Variant = iota
	// WaveCheck adds pirouettes and penalizes non-undulating locomotion.
	WaveCheck
)

func (v Variant) String() string {
	switch v {
	case Plain:
		return "plain"
	case WaveCheck:
		return "wave_check"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant converts a config name to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "plain", "0":
		return Plain, nil
	case "wave_check", "1":
		return WaveCheck, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Options returns the integrator options the variant implies.
func (v Variant) Options() Options {
	if v == WaveCheck {
		return Options{Pirouette: true, WaveCheck: true}
	}
	return Options{}
}

// Setup is everything one run needs besides its initial-state draws.
type Setup struct {
	Params    neural.CircuitParameters
	Constants Constants
	Field     systems.Field
	Steps     systems.StepCounts
}

// Prepare scales the genotype, draws the run constants and builds the field.
// It consumes one value from rng (the gradient steepness).
func Prepare(table neural.ScalingTable, g neural.Genotype, s *config.SimulationConfig, mode systems.FieldMode, rng *rand.Rand) (*Setup, error) {
	p, err := table.Scale(g)
	if err != nil {
		return nil, err
	}
	c := NewConstants(s, rng)
	field, err := systems.NewField(mode, c.FieldParams())
	if err != nil {
		return nil, err
	}
	steps := systems.Discretize(&p, s)
	if err := steps.Validate(); err != nil {
		return nil, err
	}
	return &Setup{Params: p, Constants: c, Field: field, Steps: steps}, nil
}

// Run simulates the prepared setup.
func (su *Setup) Run(rng *rand.Rand, opts Options) Result {
	return Simulate(&su.Params, su.Constants, su.Field, su.Steps, rng, opts)
}

// Index converts a run result into the chemotaxis index, clamped at zero.
func Index(res Result, c Constants) float64 {
	ci := 1 - res.DistanceSum/c.PeakDistance()/c.SimulationTime*c.DT - res.WavePenalty
	if ci < 0 {
		return 0
	}
	return ci
}

// ChemotaxisIndex runs one simulation of g with the default scaling and
// returns its index. The field comes from the settings' field_mode.
func ChemotaxisIndex(g neural.Genotype, s *config.SimulationConfig, v Variant, rng *rand.Rand) (float64, error) {
	mode, err := systems.ParseFieldMode(s.FieldMode)
	if err != nil {
		return 0, err
	}
	e := Evaluator{Settings: *s, Mode: mode, Scaling: neural.DefaultScaling, Variant: v, Average: 1}
	return e.index(g, rng)
}

// Evaluator scores genotypes under fixed settings. Mode is used as is;
// Settings.FieldMode is only read by NewEvaluator.
type Evaluator struct {
	Settings config.SimulationConfig
	Mode     systems.FieldMode
	Scaling  neural.ScalingTable
	Variant  Variant
	Average  int // repeats averaged per Fitness call
}

// NewEvaluator builds an evaluator from a settings section of the config,
// resolving its field mode once.
func NewEvaluator(cfg *config.Config, s config.SimulationConfig, v Variant) (*Evaluator, error) {
	mode, err := systems.ParseFieldMode(s.FieldMode)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		Settings: s,
		Mode:     mode,
		Scaling:  neural.NewScalingTable(cfg.Scaling),
		Variant:  v,
		Average:  cfg.GA.Average,
	}, nil
}

// Fitness is the mean chemotaxis index over Average independent runs.
func (e *Evaluator) Fitness(g neural.Genotype, rng *rand.Rand) (float64, error) {
	n := max(e.Average, 1)
	scores := make([]float64, n)
	for i := range scores {
		ci, err := e.index(g, rng)
		if err != nil {
			return 0, err
		}
		scores[i] = ci
	}
	return stat.Mean(scores, nil), nil
}

func (e *Evaluator) index(g neural.Genotype, rng *rand.Rand) (float64, error) {
	su, err := Prepare(e.Scaling, g, &e.Settings, e.Mode, rng)
	if err != nil {
		return 0, err
	}
	res := su.Run(rng, e.Variant.Options())
	return Index(res, su.Constants), nil
}
