package neural

import (
	"fmt"

	"github.com/pthm-cable/chemotaxis/config"
)

// Category groups genes that share one physical range.
type Category int

const (
	SensorTime Category = iota
	Threshold
	SensorWeight
	Synapse
	GapJunction
	Oscillator
	MotorGain
	numCategories
)

var categoryNames = [numCategories]string{
	"sensor_time", "threshold", "sensor_weight", "synapse", "gap_junction", "oscillator", "motor_gain",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Target is the circuit parameter a gene writes to.
type Target int

const (
	TargetN Target = iota
	TargetM
	TargetTheta
	TargetWOn
	TargetWOff
	TargetW
	TargetG
	TargetWOsc
	TargetWNMJ
)

// Slot is one parameter written by a gene. I is the neuron index for vector
// targets and the source neuron for matrix targets; J is the destination.
type Slot struct {
	Target Target
	I, J   int
	Sign   float64
}

// GeneSpec describes how one gene maps onto the circuit.
type GeneSpec struct {
	Name     string
	Category Category
	Slots    []Slot
}

func vec(t Target, idx ...int) []Slot {
	s := make([]Slot, len(idx))
	for k, i := range idx {
		s[k] = Slot{Target: t, I: i, Sign: 1}
	}
	return s
}

func edge(t Target, pairs ...[2]int) []Slot {
	s := make([]Slot, len(pairs))
	for k, p := range pairs {
		s[k] = Slot{Target: t, I: p[0], J: p[1], Sign: 1}
	}
	return s
}

// GeneLayout is the fixed gene-to-parameter map. Left/right symmetric pairs
// share a gene.
var GeneLayout = [GeneCount]GeneSpec{
	{"N", SensorTime, []Slot{{Target: TargetN, Sign: 1}}},
	{"M", SensorTime, []Slot{{Target: TargetM, Sign: 1}}},
	{"theta_AIYL", Threshold, vec(TargetTheta, AIYL)},
	{"theta_AIYR", Threshold, vec(TargetTheta, AIYR)},
	{"theta_AIZL", Threshold, vec(TargetTheta, AIZL)},
	{"theta_AIZR", Threshold, vec(TargetTheta, AIZR)},
	{"theta_SMBV/DL", Threshold, vec(TargetTheta, SMBVL, SMBDL)},
	{"theta_SMBD/VR", Threshold, vec(TargetTheta, SMBDR, SMBVR)},
	{"w_ON_AIYL", SensorWeight, vec(TargetWOn, AIYL)},
	{"w_ON_AIYR", SensorWeight, vec(TargetWOn, AIYR)},
	{"w_OFF_AIYL", SensorWeight, vec(TargetWOff, AIYL)},
	{"w_OFF_AIYR", SensorWeight, vec(TargetWOff, AIYR)},
	{"w_AIYL_AIZL", Synapse, edge(TargetW, [2]int{AIYL, AIZL})},
	{"w_AIYR_AIZR", Synapse, edge(TargetW, [2]int{AIYR, AIZR})},
	{"w_AIZL_SMBL", Synapse, edge(TargetW, [2]int{AIZL, SMBVL}, [2]int{AIZL, SMBDL})},
	{"w_AIZR_SMBR", Synapse, edge(TargetW, [2]int{AIZR, SMBDR}, [2]int{AIZR, SMBVR})},
	{"w_self_SMBL", Synapse, edge(TargetW, [2]int{SMBVL, SMBVL}, [2]int{SMBDL, SMBDL})},
	{"w_self_SMBR", Synapse, edge(TargetW, [2]int{SMBDR, SMBDR}, [2]int{SMBVR, SMBVR})},
	{"g_AIY", GapJunction, edge(TargetG, [2]int{AIYL, AIYR}, [2]int{AIYR, AIYL})},
	{"g_AIZ", GapJunction, edge(TargetG, [2]int{AIZL, AIZR}, [2]int{AIZR, AIZL})},
	{"w_osc", Oscillator, []Slot{
		{Target: TargetWOsc, I: SMBVL, Sign: 1},
		{Target: TargetWOsc, I: SMBVR, Sign: 1},
		{Target: TargetWOsc, I: SMBDL, Sign: -1},
		{Target: TargetWOsc, I: SMBDR, Sign: -1},
	}},
	{"w_NMJ", MotorGain, []Slot{{Target: TargetWNMJ, Sign: 1}}},
}

// ScalingTable holds one [min, max] range per gene category.
type ScalingTable struct {
	Version int
	Ranges  [numCategories]config.Range
}

// DefaultScaling is the version 1 table.
var DefaultScaling = ScalingTable{
	Version: 1,
	Ranges: [numCategories]config.Range{
		SensorTime:   {0.1, 4.2},
		Threshold:    {-15, 15},
		SensorWeight: {-15, 15},
		Synapse:      {-15, 15},
		GapJunction:  {0, 2.5},
		Oscillator:   {0, 15},
		MotorGain:    {1, 3},
	},
}

// NewScalingTable builds a table from the scaling section of the config.
func NewScalingTable(c config.ScalingConfig) ScalingTable {
	return ScalingTable{
		Version: c.Version,
		Ranges: [numCategories]config.Range{
			SensorTime:   c.SensorTime,
			Threshold:    c.Threshold,
			SensorWeight: c.SensorWeight,
			Synapse:      c.Synapse,
			GapJunction:  c.GapJunction,
			Oscillator:   c.Oscillator,
			MotorGain:    c.MotorGain,
		},
	}
}

// Map converts a gene in [-1, 1] to the physical value of its category.
func (t ScalingTable) Map(c Category, g float64) float64 {
	r := t.Ranges[c]
	return (g+1)/2*(r.Hi()-r.Lo()) + r.Lo()
}

// Scale maps a genotype onto circuit parameters. Parameters not named in
// GeneLayout stay zero.
func (t ScalingTable) Scale(g Genotype) (CircuitParameters, error) {
	var p CircuitParameters
	if len(g) != GeneCount {
		return p, fmt.Errorf("%w: got %d genes, want %d", ErrGenotypeLength, len(g), GeneCount)
	}
	for k, spec := range GeneLayout {
		v := t.Map(spec.Category, g[k])
		for _, s := range spec.Slots {
			x := s.Sign * v
			switch s.Target {
			case TargetN:
				p.N = x
			case TargetM:
				p.M = x
			case TargetTheta:
				p.Theta[s.I] = x
			case TargetWOn:
				p.WOn[s.I] = x
			case TargetWOff:
				p.WOff[s.I] = x
			case TargetW:
				p.W[s.I][s.J] = x
			case TargetG:
				p.G[s.I][s.J] = x
			case TargetWOsc:
				p.WOsc[s.I] = x
			case TargetWNMJ:
				p.WNMJ = x
			}
		}
	}
	return p, nil
}

// Scale maps a genotype with DefaultScaling.
func Scale(g Genotype) (CircuitParameters, error) {
	return DefaultScaling.Scale(g)
}
