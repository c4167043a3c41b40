package systems

import (
	"errors"
	"testing"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
)

func TestDiscretize(t *testing.T) {
	s := config.SimulationConfig{
		DT:             0.01,
		PeriodicTime:   4.2,
		Frequency:      0.033,
		SimulationTime: 300,
	}
	p := neural.CircuitParameters{N: 2.15, M: 0.1}

	got := Discretize(&p, &s)
	want := StepCounts{Total: 30000, N: 215, M: 10, Pirouette: 3030, Period: 420}
	// floating point division may land one below the exact quotient
	near := func(a, b int) bool { return a == b || a == b-1 }
	if !near(got.Total, want.Total) || !near(got.N, want.N) || !near(got.M, want.M) ||
		got.Pirouette != want.Pirouette || !near(got.Period, want.Period) {
		t.Errorf("Discretize() = %+v, want %+v", got, want)
	}
}

func TestStepsTruncates(t *testing.T) {
	tests := []struct {
		d, dt float64
		want  int
	}{
		{1, 0.3, 3},
		{0.5, 1, 0},
		{2.99, 1, 2},
	}
	for _, tt := range tests {
		if got := Steps(tt.d, tt.dt); got != tt.want {
			t.Errorf("Steps(%v, %v) = %d, want %d", tt.d, tt.dt, got, tt.want)
		}
	}
}

func TestStepCountsValidate(t *testing.T) {
	if err := (StepCounts{Total: 10, Pirouette: 1, Period: 1}).Validate(); err != nil {
		t.Errorf("valid counts rejected: %v", err)
	}
	for _, c := range []StepCounts{
		{Total: 0, Pirouette: 1, Period: 1},
		{Total: 10, Pirouette: 0, Period: 1},
		{Total: 10, Pirouette: 1, Period: 0},
	} {
		if err := c.Validate(); !errors.Is(err, ErrStepCount) {
			t.Errorf("Validate(%+v) = %v, want ErrStepCount", c, err)
		}
	}
}
