package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/sim"
	"github.com/pthm-cable/chemotaxis/systems"
)

var (
	ErrUnknownFunction    = errors.New("unknown analysis function")
	ErrTrajectoryTooShort = errors.New("trajectory too short for analysis window")
)

// Function selects the x axis plotted against curving rate.
type Function int

const (
	FuncBearing Function = iota
	FuncNormalGradient
	FuncTranslationalGradient
)

var functionNames = [...]string{"bearing", "normal_gradient", "translational_gradient"}

func (f Function) String() string {
	if f < 0 || int(f) >= len(functionNames) {
		return "Function(" + strconv.Itoa(int(f)) + ")"
	}
	return functionNames[f]
}

// ParseFunction accepts a function name or its numeric tag.
func ParseFunction(s string) (Function, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range functionNames {
		if s == name || s == strconv.Itoa(i) {
			return Function(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, s)
}

// Options configure one klinotaxis measurement.
type Options struct {
	Mode           systems.FieldMode
	Function       Function
	PeriodicNumber int     // displacement lag in movement cycles
	Drain          int     // leading cycles discarded
	Delta          float64 // finite-difference step for gradients, cm
}

// OptionsFromConfig reads the analysis section of cfg.
func OptionsFromConfig(a config.AnalysisConfig, f Function) (Options, error) {
	mode, err := systems.ParseFieldMode(a.Mode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Mode:           mode,
		Function:       f,
		PeriodicNumber: a.PeriodicNumber,
		Drain:          a.PeriodicNumberDrain,
		Delta:          a.Delta,
	}, nil
}

// Klinotaxis simulates g once without pirouettes and returns the selected
// x measure and the curving rate for every window, with the first
// Drain movement cycles removed. Both slices have the same length.
func Klinotaxis(table neural.ScalingTable, g neural.Genotype, s *config.SimulationConfig, opts Options, rng *rand.Rand) (x, y []float64, err error) {
	traj, su, err := sim.RunTrajectory(table, g, s, opts.Mode, rng)
	if err != nil {
		return nil, nil, err
	}

	lag := opts.PeriodicNumber * su.Steps.Period
	drain := opts.Drain * su.Steps.Period
	n := windows(len(traj.Positions), lag)
	if lag < 1 || n <= drain {
		return nil, nil, fmt.Errorf("%w: %d positions, lag %d, drain %d", ErrTrajectoryTooShort, len(traj.Positions), lag, drain)
	}

	pos := traj.Positions
	switch opts.Function {
	case FuncBearing:
		x = Bearing(pos, Point{su.Constants.XPeak, su.Constants.YPeak}, lag)
	case FuncNormalGradient:
		x = NormalGradient(pos, su.Field, lag, opts.Delta)
	case FuncTranslationalGradient:
		x = TranslationalGradient(pos, su.Field, lag, opts.Delta)
	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownFunction, opts.Function)
	}
	y = CurvingRate(pos, lag)
	return x[drain:], y[drain:], nil
}

// Binning fixes the histogram layout of each function.
type Binning struct {
	BinRange    int // bearing bin width, degrees
	BinNumber   int // gradient bin count
	GradientMax float64
}

// BinningFromConfig reads the histogram settings of cfg.
func BinningFromConfig(a config.AnalysisConfig) Binning {
	return Binning{BinRange: a.BinRange, BinNumber: a.BinNumber, GradientMax: a.ConcentrationGradientMax}
}

// Edges returns the lower bin edges used for f.
func (b Binning) Edges(f Function) []float64 {
	if f == FuncBearing {
		return BearingBins(b.BinRange)
	}
	return GradientBins(b.BinNumber, b.GradientMax)
}

// series bins one run. Bearing and normal gradient give one series; the
// translational gradient adds the positive and negative means.
func (b Binning) series(f Function, x, y []float64) [][]float64 {
	switch f {
	case FuncBearing:
		return [][]float64{BearingHistogram(x, y, b.BinRange)}
	case FuncNormalGradient:
		return [][]float64{GradientHistogram(x, y, b.BinNumber, b.GradientMax)}
	default:
		h := TranslationalHistogram(x, y, b.BinNumber, b.GradientMax)
		return [][]float64{h.Mean, h.Positive, h.Negative}
	}
}

// Histogram is the aggregate of many runs. Series[0] is the mean curving
// rate; translational histograms add the positive and negative means.
type Histogram struct {
	Function Function
	Edges    []float64
	Series   [][]Summary
}

// Request describes a repeated klinotaxis measurement of one genotype.
type Request struct {
	Table    neural.ScalingTable
	Genotype neural.Genotype
	Settings config.SimulationConfig
	Options  Options
	Binning  Binning
	Loops    int
	Workers  int // <= 0 means GOMAXPROCS
	Seed     int64
}

// Run repeats the measurement req.Loops times in parallel and aggregates the
// per-run histograms. Each loop draws from its own generator seeded from
// req.Seed, so the result is independent of scheduling.
func Run(ctx context.Context, req Request) (*Histogram, error) {
	if req.Loops < 1 {
		return nil, fmt.Errorf("analysis: loops = %d, must be positive", req.Loops)
	}
	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	master := rand.New(rand.NewSource(req.Seed))
	seeds := make([]int64, req.Loops)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	perRun := make([][][]float64, req.Loops)
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(workers)
	for i := range perRun {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			x, y, err := Klinotaxis(req.Table, req.Genotype, &req.Settings, req.Options, rng)
			if err != nil {
				return fmt.Errorf("loop %d: %w", i, err)
			}
			perRun[i] = req.Binning.series(req.Options.Function, x, y)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	h := &Histogram{Function: req.Options.Function, Edges: req.Binning.Edges(req.Options.Function)}
	for s := range perRun[0] {
		rows := make([][]float64, len(perRun))
		for i, r := range perRun {
			rows[i] = r[s]
		}
		h.Series = append(h.Series, Aggregate(rows))
	}
	return h, nil
}
