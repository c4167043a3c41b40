package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/systems"
)

// WavePenaltyUnit is subtracted from the index for every movement cycle
// whose turning rate keeps the same sign across the half period.
const WavePenaltyUnit = 0.008

// State is the double buffer of the integrator: index 0 holds step k and
// index 1 is written with step k+1.
type State struct {
	Y       [2][neural.NumNeurons]float64
	Heading [2]float64
	Pos     [2][2]float64
	Turn    float64
}

func (s *State) swap() {
	s.Y[0] = s.Y[1]
	s.Heading[0] = s.Heading[1]
	s.Pos[0] = s.Pos[1]
}

// Options select the behaviours layered on top of the plain integrator.
type Options struct {
	Pirouette bool // random heading resets at the pirouette interval
	WaveCheck bool // penalize cycles without an undulating turning rate
	Record    bool // keep the full trajectory
}

// Trajectory is the recorded path of one run. Positions and Headings start
// with the initial state; Turns has one entry per integration step.
type Trajectory struct {
	Positions [][2]float64
	Headings  []float64
	Turns     []float64
}

// Result summarizes one simulation run.
type Result struct {
	Trajectory  *Trajectory // nil unless Options.Record
	DistanceSum float64     // sum of distances to the peak over all visited positions
	WavePenalty float64
	Final       [2]float64
}

// Simulate integrates the circuit for steps.Total-1 Euler steps. The initial
// motor potentials and heading are drawn from rng in that order.
func Simulate(p *neural.CircuitParameters, c Constants, field systems.Field, steps systems.StepCounts, rng *rand.Rand, opts Options) Result {
	var st State
	for i := neural.SMBVL; i <= neural.SMBVR; i++ {
		st.Y[0][i] = rng.Float64()
	}
	st.Heading[0] = rng.Float64() * 2 * math.Pi

	hist := NewSensoryHistory(steps.N, steps.M, p.N, p.M, c.DT, field.Concentration(0, 0))

	var res Result
	var traj *Trajectory
	if opts.Record {
		traj = &Trajectory{
			Positions: make([][2]float64, 0, steps.Total),
			Headings:  make([]float64, 0, steps.Total),
			Turns:     make([]float64, 0, max(steps.Total-1, 0)),
		}
		traj.Positions = append(traj.Positions, st.Pos[0])
		traj.Headings = append(traj.Headings, st.Heading[0])
	}

	var sig [neural.NumNeurons]float64
	var wavePhase float64
	quarter, threeQuarter := steps.Period/4, steps.Period*3/4

	for k := 0; k < steps.Total-1; k++ {
		hist.Push(field.Concentration(st.Pos[0][0], st.Pos[0][1]))
		on, off := hist.OnOff()
		osc := Oscillator(float64(k)*c.DT, c.PeriodicTime)

		y0 := &st.Y[0]
		for j := range sig {
			sig[j] = neural.Sigmoid(y0[j] + p.Theta[j])
		}
		for i := 0; i < neural.NumNeurons; i++ {
			var synapse, gap float64
			for j := 0; j < neural.NumNeurons; j++ {
				synapse += p.W[j][i] * sig[j]
				gap += p.G[j][i] * (y0[j] - y0[i])
			}
			input := p.WOn[i]*on + p.WOff[i]*off + p.WOsc[i]*osc
			st.Y[1][i] = y0[i] + (-y0[i]+synapse+gap+input)/c.TimeConstant*c.DT
		}

		// dorsal minus ventral motor output
		phi := p.WNMJ * ((sig[neural.SMBDL] + sig[neural.SMBDR]) - (sig[neural.SMBVL] + sig[neural.SMBVR]))
		st.Turn = phi
		st.Heading[1] = st.Heading[0] + phi*c.DT

		if opts.Pirouette && k%steps.Pirouette == steps.Pirouette-1 {
			st.Heading[1] = rng.Float64() * 2 * math.Pi
		}

		if opts.WaveCheck {
			switch phase := k % steps.Period; {
			case phase == quarter:
				wavePhase = phi
			case phase == threeQuarter && wavePhase*phi > 0:
				res.WavePenalty += WavePenaltyUnit
			}
		}

		// position advances along the heading of step k
		st.Pos[1][0] = st.Pos[0][0] + c.Velocity*math.Cos(st.Heading[0])*c.DT
		st.Pos[1][1] = st.Pos[0][1] + c.Velocity*math.Sin(st.Heading[0])*c.DT

		res.DistanceSum += math.Hypot(st.Pos[0][0]-c.XPeak, st.Pos[0][1]-c.YPeak)

		if traj != nil {
			traj.Positions = append(traj.Positions, st.Pos[1])
			traj.Headings = append(traj.Headings, st.Heading[1])
			traj.Turns = append(traj.Turns, phi)
		}

		st.swap()
	}
	res.DistanceSum += math.Hypot(st.Pos[0][0]-c.XPeak, st.Pos[0][1]-c.YPeak)
	res.Final = st.Pos[0]
	res.Trajectory = traj
	return res
}
