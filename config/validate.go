package config

import (
	"errors"
	"fmt"
	"math"
)

// GeneCount is the genotype length the circuit layout expects.
const GeneCount = 22

var (
	validFieldModes = map[string]bool{"linear": true, "gauss": true, "two_gauss": true}
	validVariants   = map[string]bool{"plain": true, "wave_check": true}
	validStores     = map[string]bool{"json": true, "sqlite": true, "memory": true}
	validFunctions  = map[string]bool{"bearing": true, "normal_gradient": true, "translational_gradient": true}
	validSelections = map[string]bool{"list": true, "range": true}
)

// Validate checks the whole configuration and returns every problem found,
// each prefixed with its YAML field path.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}

	c.Setting.validate("setting", add)
	c.Testing.validate("testing", add)

	ga := c.GA
	if ga.Average <= 0 {
		add("ga.average", "must be positive, got %d", ga.Average)
	}
	if ga.GenSize != GeneCount {
		add("ga.gen_size", "must be %d, got %d", GeneCount, ga.GenSize)
	}
	if ga.GACount <= 0 {
		add("ga.ga_count", "must be positive, got %d", ga.GACount)
	}
	if ga.NGen <= 0 {
		add("ga.n_gen", "must be positive, got %d", ga.NGen)
	}
	if ga.PopSize <= 0 {
		add("ga.pop_size", "must be positive, got %d", ga.PopSize)
	}
	if ga.SelTop <= 0 {
		add("ga.sel_top", "must be positive, got %d", ga.SelTop)
	}
	// elites, up to sel_top children and up to sel_top mutants must fit
	if ga.SelTop > 0 && 3*ga.SelTop > ga.PopSize {
		add("ga.sel_top", "3*sel_top (%d) exceeds pop_size (%d)", 3*ga.SelTop, ga.PopSize)
	}
	if !isProbability(ga.MatPB) {
		add("ga.mat_pb", "must be in [0,1], got %v", ga.MatPB)
	}
	if !isProbability(ga.MutPB) {
		add("ga.mut_pb", "must be in [0,1], got %v", ga.MutPB)
	}
	if ga.ReVal <= 0 {
		add("ga.re_val", "must be positive, got %d", ga.ReVal)
	}
	if ga.Workers < 0 {
		add("ga.workers", "must not be negative, got %d", ga.Workers)
	}
	if !validVariants[ga.Variant] {
		add("ga.variant", "unknown variant %q", ga.Variant)
	}

	if c.Mutation.Std < 0 {
		add("mutation.std", "must not be negative, got %v", c.Mutation.Std)
	}
	if !isProbability(c.Mutation.GeneRate) {
		add("mutation.gene_rate", "must be in [0,1], got %v", c.Mutation.GeneRate)
	}

	for i, g := range c.Constraint.NegativeGenes {
		if g < 0 || g >= GeneCount {
			add(fmt.Sprintf("constraint.negative_genes[%d]", i), "index %d out of range", g)
		}
	}

	s := c.Scaling
	for name, r := range map[string]Range{
		"sensor_time":   s.SensorTime,
		"threshold":     s.Threshold,
		"sensor_weight": s.SensorWeight,
		"synapse":       s.Synapse,
		"gap_junction":  s.GapJunction,
		"oscillator":    s.Oscillator,
		"motor_gain":    s.MotorGain,
	} {
		if r.Lo() > r.Hi() {
			add("scaling."+name, "min %v greater than max %v", r.Lo(), r.Hi())
		}
	}
	// sensory windows are divisors in the ON/OFF filter
	if s.SensorTime.Lo() <= 0 {
		add("scaling.sensor_time", "min must be positive, got %v", s.SensorTime.Lo())
	}

	a := c.Analysis
	switch {
	case !validSelections[a.GeneSelection]:
		add("analysis.gene_selection", "unknown selection %q", a.GeneSelection)
	case a.GeneSelection == "list":
		if len(a.GeneNumbers) == 0 {
			add("analysis.gene_numbers", "must name at least one gene")
		}
		for i, n := range a.GeneNumbers {
			if n < 0 {
				add(fmt.Sprintf("analysis.gene_numbers[%d]", i), "must not be negative, got %d", n)
			}
		}
	case a.GeneSelection == "range":
		if a.GeneRange[0] < 0 || a.GeneRange[0] > a.GeneRange[1] {
			add("analysis.gene_range", "want 0 <= from <= to, got %v", a.GeneRange)
		}
	}
	if a.Setting != nil {
		a.Setting.validate("analysis.setting", add)
	}
	if !validFieldModes[a.Mode] {
		add("analysis.mode", "unknown field mode %q", a.Mode)
	}
	for i, f := range a.Functions {
		if !validFunctions[f] {
			add(fmt.Sprintf("analysis.functions[%d]", i), "unknown function %q", f)
		}
	}
	if a.AnalysisLoop <= 0 {
		add("analysis.analysis_loop", "must be positive, got %d", a.AnalysisLoop)
	}
	if a.PeriodicNumber <= 0 {
		add("analysis.periodic_number", "must be positive, got %d", a.PeriodicNumber)
	}
	if a.PeriodicNumberDrain < 0 {
		add("analysis.periodic_number_drain", "must not be negative, got %d", a.PeriodicNumberDrain)
	}
	if a.BinRange <= 0 || 360%a.BinRange != 0 {
		add("analysis.bin_range", "must be a positive divisor of 360, got %d", a.BinRange)
	}
	if a.Delta <= 0 {
		add("analysis.delta", "must be positive, got %v", a.Delta)
	}
	if a.BinNumber <= 0 {
		add("analysis.bin_number", "must be positive, got %d", a.BinNumber)
	}
	if a.ConcentrationGradientMax <= 0 {
		add("analysis.concentration_gradient_max", "must be positive, got %v", a.ConcentrationGradientMax)
	}

	r := c.Refine
	if r.MaxEvals <= 0 {
		add("refine.max_evals", "must be positive, got %d", r.MaxEvals)
	}
	if r.Population < 0 {
		add("refine.population", "must not be negative, got %d", r.Population)
	}
	if r.InitStepSize <= 0 {
		add("refine.init_step_size", "must be positive, got %v", r.InitStepSize)
	}
	if r.Seeds <= 0 {
		add("refine.seeds", "must be positive, got %d", r.Seeds)
	}

	if !validStores[c.Output.Store] {
		add("output.store", "unknown store %q", c.Output.Store)
	}

	return errors.Join(errs...)
}

func (s SimulationConfig) validate(prefix string, add func(field, format string, args ...any)) {
	positive := []struct {
		name string
		v    float64
	}{
		{"dt", s.DT},
		{"periodic_time", s.PeriodicTime},
		{"frequency", s.Frequency},
		{"simulation_time", s.SimulationTime},
		{"time_constant", s.TimeConstant},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			add(prefix+"."+p.name, "must be positive, got %v", p.v)
		}
	}
	if s.Velocity < 0 {
		add(prefix+".velocity", "must not be negative, got %v", s.Velocity)
	}
	if s.Lambda <= 0 {
		add(prefix+".lambda", "must be positive, got %v", s.Lambda)
	}
	if s.Alpha.Lo() > s.Alpha.Hi() {
		add(prefix+".alpha", "min %v greater than max %v", s.Alpha.Lo(), s.Alpha.Hi())
	}
	if s.XPeak == 0 && s.YPeak == 0 {
		add(prefix+".x_peak", "peak must not be at the origin")
	}
	if !validFieldModes[s.FieldMode] {
		add(prefix+".field_mode", "unknown field mode %q", s.FieldMode)
	}
	if s.DT > 0 {
		// every derived step count must be at least one step
		if math.Floor(s.SimulationTime/s.DT) < 1 {
			add(prefix+".simulation_time", "shorter than one step of %v", s.DT)
		}
		if math.Floor(s.PeriodicTime/s.DT) < 1 {
			add(prefix+".periodic_time", "shorter than one step of %v", s.DT)
		}
		if s.Frequency > 0 && math.Floor(1/s.Frequency/s.DT) < 1 {
			add(prefix+".frequency", "pirouette interval shorter than one step of %v", s.DT)
		}
	}
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}
