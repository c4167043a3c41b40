package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/systems"
)

// shortSettings is a coarse assay that discretizes exactly: 10 steps of 0.25 s.
func shortSettings() config.SimulationConfig {
	return config.SimulationConfig{
		Alpha:          config.Range{-0.1, -0.01},
		C0:             1,
		Lambda:         1.61,
		XPeak:          4.5,
		YPeak:          0,
		DT:             0.25,
		PeriodicTime:   4,
		Frequency:      0.125,
		Velocity:       0.022,
		SimulationTime: 2.5,
		TimeConstant:   0.5,
		FieldMode:      "linear",
	}
}

func TestZeroGenotypeTrajectory(t *testing.T) {
	s := shortSettings()
	g := make(neural.Genotype, neural.GeneCount)
	const seed = 42

	traj, su, err := RunTrajectory(neural.DefaultScaling, g, &s, systems.Linear, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("RunTrajectory failed: %v", err)
	}
	if su.Steps.Total != 10 {
		t.Fatalf("Total = %d, want 10", su.Steps.Total)
	}
	if len(traj.Positions) != 10 || len(traj.Headings) != 10 || len(traj.Turns) != 9 {
		t.Fatalf("trajectory lengths = %d/%d/%d, want 10/10/9",
			len(traj.Positions), len(traj.Headings), len(traj.Turns))
	}

	// seed 42 draws alpha, the four motor potentials and the heading in
	// that order; with every weight at its midpoint only the oscillator
	// drives the motor neurons
	wantAlpha := -0.06642744750580307
	wantPositions := [][2]float64{
		{0, 0},
		{-0.004084056896755133, 0.0036838131418500085},
		{-0.00846804519634142, 0.007005054865827736},
		{-0.012992776177286907, 0.010131843881746795},
		{-0.014956004335576895, 0.015269521878517059},
		{-0.012001977739365424, 0.019908888954840647},
		{-0.00650263638745404, 0.019994004729861906},
		{-0.003443247652262792, 0.015423431399634625},
		{-0.00562287118605357, 0.01037375405836366},
		{-0.011045027002609831, 0.009451676891861265},
	}
	wantHeadings := []float64{
		2.407674511881994,
		2.4932550896812957,
		2.5369026286471597,
		1.935797696803904,
		1.0038060201058752,
		0.015476213243844072,
		-0.9809269268047102,
		-1.9782744399759973,
		-2.973146808548602,
		-3.9492918031778648,
	}
	wantTurns := []float64{
		0.342322311197206,
		0.1745901558634566,
		-2.4044197273730226,
		-3.7279667067921145,
		-3.9533192274481244,
		-3.985612560194217,
		-3.989390052685148,
		-3.9794894742904203,
		-3.90457997851705,
	}

	const tol = 1e-12
	if math.Abs(su.Constants.Alpha-wantAlpha) > tol {
		t.Errorf("alpha = %v, want %v", su.Constants.Alpha, wantAlpha)
	}
	for k, want := range wantPositions {
		got := traj.Positions[k]
		if math.Abs(got[0]-want[0]) > tol || math.Abs(got[1]-want[1]) > tol {
			t.Errorf("Positions[%d] = %v, want %v", k, got, want)
		}
	}
	for k, want := range wantHeadings {
		if math.Abs(traj.Headings[k]-want) > tol {
			t.Errorf("Headings[%d] = %v, want %v", k, traj.Headings[k], want)
		}
	}
	for k, want := range wantTurns {
		if math.Abs(traj.Turns[k]-want) > tol {
			t.Errorf("Turns[%d] = %v, want %v", k, traj.Turns[k], want)
		}
	}

	step := s.Velocity * s.DT
	// every step covers exactly velocity*dt
	for k := 1; k < len(traj.Positions); k++ {
		d := math.Hypot(traj.Positions[k][0]-traj.Positions[k-1][0], traj.Positions[k][1]-traj.Positions[k-1][1])
		if math.Abs(d-step) > 1e-12 {
			t.Errorf("step %d length = %v, want %v", k, d, step)
		}
	}

	ci, err := ChemotaxisIndex(g, &s, Plain, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}
	if ci < 0 || ci > 1 {
		t.Errorf("ChemotaxisIndex = %v, want in [0,1]", ci)
	}
}

func TestSimulateReproducible(t *testing.T) {
	s := shortSettings()
	s.SimulationTime = 50
	rng := rand.New(rand.NewSource(7))
	g := neural.RandomGenotype(rng, neural.GeneCount)

	run := func() *Trajectory {
		traj, _, err := RunTrajectory(neural.DefaultScaling, g, &s, systems.Gauss, rand.New(rand.NewSource(99)))
		if err != nil {
			t.Fatal(err)
		}
		return traj
	}
	a, b := run(), run()
	for k := range a.Positions {
		if a.Positions[k] != b.Positions[k] || a.Headings[k] != b.Headings[k] {
			t.Fatalf("trajectories diverge at step %d", k)
		}
	}

	for _, v := range []Variant{Plain, WaveCheck} {
		f1, err := ChemotaxisIndex(g, &s, v, rand.New(rand.NewSource(5)))
		if err != nil {
			t.Fatal(err)
		}
		f2, _ := ChemotaxisIndex(g, &s, v, rand.New(rand.NewSource(5)))
		if f1 != f2 {
			t.Errorf("%v: fitness %v != %v under the same seed", v, f1, f2)
		}
	}
}

func TestDistanceSumCoversAllPositions(t *testing.T) {
	s := shortSettings()
	s.SimulationTime = 20
	g := neural.RandomGenotype(rand.New(rand.NewSource(3)), neural.GeneCount)

	su, err := Prepare(neural.DefaultScaling, g, &s, systems.Linear, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}
	res := su.Run(rand.New(rand.NewSource(12)), Options{Record: true})

	var want float64
	for _, p := range res.Trajectory.Positions {
		want += math.Hypot(p[0]-s.XPeak, p[1]-s.YPeak)
	}
	if math.Abs(res.DistanceSum-want) > 1e-9 {
		t.Errorf("DistanceSum = %v, want %v", res.DistanceSum, want)
	}
	if res.Final != res.Trajectory.Positions[len(res.Trajectory.Positions)-1] {
		t.Errorf("Final = %v, want last recorded position", res.Final)
	}
}

func TestWavePenaltyConstantTurning(t *testing.T) {
	// thresholds pin the dorsal motors on and the ventral motors off, so the
	// turning rate is positive at every quarter and three-quarter phase
	var p neural.CircuitParameters
	p.N, p.M, p.WNMJ = 0.25, 0.25, 1
	p.Theta[neural.SMBDL], p.Theta[neural.SMBDR] = 20, 20
	p.Theta[neural.SMBVL], p.Theta[neural.SMBVR] = -20, -20

	c := Constants{DT: 0.25, PeriodicTime: 1, Velocity: 0.022, SimulationTime: 10, TimeConstant: 0.5, XPeak: 4.5}
	steps := systems.StepCounts{Total: 20, N: 1, M: 1, Pirouette: 100, Period: 4}
	field := systems.LinearField{Alpha: -0.05, XPeak: 4.5}

	res := Simulate(&p, c, field, steps, rand.New(rand.NewSource(1)), Options{WaveCheck: true})
	// k in [0, 18] with k%4 == 3: 3, 7, 11, 15
	if math.Abs(res.WavePenalty-4*WavePenaltyUnit) > 1e-12 {
		t.Errorf("WavePenalty = %v, want %v", res.WavePenalty, 4*WavePenaltyUnit)
	}

	plain := Simulate(&p, c, field, steps, rand.New(rand.NewSource(1)), Options{})
	if plain.WavePenalty != 0 {
		t.Errorf("plain WavePenalty = %v, want 0", plain.WavePenalty)
	}
	if Index(res, c) >= Index(plain, c) {
		t.Errorf("penalized index %v not below plain index %v", Index(res, c), Index(plain, c))
	}
}

func TestPirouetteResetsHeading(t *testing.T) {
	s := shortSettings()
	s.SimulationTime = 10
	g := neural.RandomGenotype(rand.New(rand.NewSource(5)), neural.GeneCount)
	su, err := Prepare(neural.DefaultScaling, g, &s, systems.Linear, rand.New(rand.NewSource(6)))
	if err != nil {
		t.Fatal(err)
	}
	su.Steps.Pirouette = 3

	res := su.Run(rand.New(rand.NewSource(8)), Options{Pirouette: true, Record: true})
	tr := res.Trajectory
	for k := 0; k < len(tr.Turns); k++ {
		euler := tr.Headings[k] + tr.Turns[k]*s.DT
		if k%3 == 2 {
			if h := tr.Headings[k+1]; h < 0 || h >= 2*math.Pi {
				t.Errorf("step %d: pirouette heading %v outside [0, 2pi)", k, h)
			}
			continue
		}
		if math.Abs(tr.Headings[k+1]-euler) > 1e-12 {
			t.Errorf("step %d: heading %v, want Euler update %v", k, tr.Headings[k+1], euler)
		}
	}
}
