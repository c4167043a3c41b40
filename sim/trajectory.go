package sim

import (
	"math/rand"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/systems"
)

// RunTrajectory simulates g without pirouettes or penalties on the given
// field and returns the recorded path together with the run setup. The path
// holds steps.Total positions including the origin.
func RunTrajectory(table neural.ScalingTable, g neural.Genotype, s *config.SimulationConfig, mode systems.FieldMode, rng *rand.Rand) (*Trajectory, *Setup, error) {
	su, err := Prepare(table, g, s, mode, rng)
	if err != nil {
		return nil, nil, err
	}
	res := su.Run(rng, Options{Record: true})
	return res.Trajectory, su, nil
}
