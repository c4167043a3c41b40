package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
)

// ErrStepCount is returned when a duration discretizes to zero steps.
var ErrStepCount = errors.New("step count must be at least one")

// StepCounts are the durations of one simulation expressed in steps of dt.
// All counts use truncation.
type StepCounts struct {
	Total     int // whole assay
	N         int // ON-cell window
	M         int // OFF-cell window
	Pirouette int // mean interval between pirouettes
	Period    int // one movement cycle
}

// Steps converts a duration to whole steps of dt.
func Steps(d, dt float64) int {
	return int(math.Floor(d / dt))
}

// Discretize derives the step counts for a circuit run under the given settings.
func Discretize(p *neural.CircuitParameters, s *config.SimulationConfig) StepCounts {
	return StepCounts{
		Total:     Steps(s.SimulationTime, s.DT),
		N:         Steps(p.N, s.DT),
		M:         Steps(p.M, s.DT),
		Pirouette: Steps(1/s.Frequency, s.DT),
		Period:    Steps(s.PeriodicTime, s.DT),
	}
}

// Validate rejects counts that would make modulo checks or loops degenerate.
func (c StepCounts) Validate() error {
	var errs []error
	if c.Total < 1 {
		errs = append(errs, fmt.Errorf("%w: total = %d", ErrStepCount, c.Total))
	}
	if c.Pirouette < 1 {
		errs = append(errs, fmt.Errorf("%w: pirouette = %d", ErrStepCount, c.Pirouette))
	}
	if c.Period < 1 {
		errs = append(errs, fmt.Errorf("%w: period = %d", ErrStepCount, c.Period))
	}
	return errors.Join(errs...)
}
