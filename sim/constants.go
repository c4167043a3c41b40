// Package sim integrates the klinotaxis circuit on a simulated assay plate
// and scores the resulting trajectory.
package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/systems"
)

// Constants are the settings of one simulation run with the gradient
// steepness already drawn.
type Constants struct {
	Alpha          float64
	C0             float64
	Lambda         float64
	XPeak          float64
	YPeak          float64
	DT             float64
	PeriodicTime   float64
	Frequency      float64
	Velocity       float64
	SimulationTime float64
	TimeConstant   float64
}

// NewConstants fixes the run constants, drawing Alpha uniformly from the
// configured range. It always consumes exactly one value from rng.
func NewConstants(s *config.SimulationConfig, rng *rand.Rand) Constants {
	lo, hi := s.Alpha.Lo(), s.Alpha.Hi()
	return Constants{
		Alpha:          lo + rng.Float64()*(hi-lo),
		C0:             s.C0,
		Lambda:         s.Lambda,
		XPeak:          s.XPeak,
		YPeak:          s.YPeak,
		DT:             s.DT,
		PeriodicTime:   s.PeriodicTime,
		Frequency:      s.Frequency,
		Velocity:       s.Velocity,
		SimulationTime: s.SimulationTime,
		TimeConstant:   s.TimeConstant,
	}
}

// FieldParams returns the subset of constants the concentration fields use.
func (c Constants) FieldParams() systems.FieldParams {
	return systems.FieldParams{Alpha: c.Alpha, C0: c.C0, Lambda: c.Lambda, XPeak: c.XPeak, YPeak: c.YPeak}
}

// PeakDistance is the distance from the origin to the peak.
func (c Constants) PeakDistance() float64 {
	return math.Hypot(c.XPeak, c.YPeak)
}
