// Package config provides configuration loading and access for the
// chemotaxis simulator and its optimizers.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation, optimizer and analysis parameters.
type Config struct {
	Setting    SimulationConfig `yaml:"setting"`    // training-time simulation
	Testing    SimulationConfig `yaml:"testing"`    // held-out re-evaluation
	GA         GAConfig         `yaml:"ga"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Constraint ConstraintConfig `yaml:"constraint"`
	Scaling    ScalingConfig    `yaml:"scaling"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Refine     RefineConfig     `yaml:"refine"`
	Output     OutputConfig     `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Range is a closed [lo, hi] interval written as a two-element YAML list.
type Range [2]float64

// Lo returns the lower bound.
func (r Range) Lo() float64 { return r[0] }

// Hi returns the upper bound.
func (r Range) Hi() float64 { return r[1] }

// SimulationConfig holds the physical constants of one simulated assay.
type SimulationConfig struct {
	Alpha          Range   `yaml:"alpha"`           // linear gradient steepness, sampled once per run
	C0             float64 `yaml:"c_0"`             // gaussian peak concentration
	Lambda         float64 `yaml:"lambda"`          // gaussian width /cm
	XPeak          float64 `yaml:"x_peak"`          // peak x /cm
	YPeak          float64 `yaml:"y_peak"`          // peak y /cm
	DT             float64 `yaml:"dt"`              // step size /s
	PeriodicTime   float64 `yaml:"periodic_time"`   // one movement cycle /s
	Frequency      float64 `yaml:"frequency"`       // mean pirouette frequency /Hz
	Velocity       float64 `yaml:"velocity"`        // forward speed /cm/s
	SimulationTime float64 `yaml:"simulation_time"` // assay duration /s
	TimeConstant   float64 `yaml:"time_constant"`   // membrane time constant /s
	FieldMode      string  `yaml:"field_mode"`      // linear, gauss or two_gauss
}

// GAConfig holds genetic algorithm hyperparameters.
type GAConfig struct {
	Average     int     `yaml:"average"`     // repeats averaged per fitness evaluation
	GenSize     int     `yaml:"gen_size"`    // genotype length
	GACount     int     `yaml:"ga_count"`    // independent runs
	NGen        int     `yaml:"n_gen"`       // generations per run
	PopSize     int     `yaml:"pop_size"`    // individuals per generation
	SelTop      int     `yaml:"sel_top"`     // elites kept each generation
	MatPB       float64 `yaml:"mat_pb"`      // crossover probability per pair
	MutPB       float64 `yaml:"mut_pb"`      // mutation probability per elite
	ReVal       int     `yaml:"re_val"`      // full re-evaluation interval in generations
	Workers     int     `yaml:"workers"`     // parallel evaluations (0 = GOMAXPROCS)
	Variant     string  `yaml:"variant"`     // training fitness: plain or wave_check
	Constrained bool    `yaml:"constrained"` // lock the constraint genes negative
	Seed        int64   `yaml:"seed"`        // master seed (0 = time-based)
}

// MutationConfig holds the gaussian perturbation applied to mutants.
type MutationConfig struct {
	Mean     float64 `yaml:"mean"`
	Std      float64 `yaml:"std"`
	GeneRate float64 `yaml:"gene_rate"` // per-gene perturbation probability
}

// ConstraintConfig names the genes whose sign is locked negative.
type ConstraintConfig struct {
	NegativeGenes []int `yaml:"negative_genes"`
}

// ScalingConfig is the versioned table that maps genes in [-1,1] to
// physical circuit units.
type ScalingConfig struct {
	Version      int   `yaml:"version"`
	SensorTime   Range `yaml:"sensor_time"`
	Threshold    Range `yaml:"threshold"`
	SensorWeight Range `yaml:"sensor_weight"`
	Synapse      Range `yaml:"synapse"`
	GapJunction  Range `yaml:"gap_junction"`
	Oscillator   Range `yaml:"oscillator"`
	MotorGain    Range `yaml:"motor_gain"`
}

// AnalysisConfig holds klinotaxis analysis parameters.
type AnalysisConfig struct {
	GeneSelection            string            `yaml:"gene_selection"` // list or range
	GeneNumbers              []int             `yaml:"gene_numbers"`
	GeneRange                [2]int            `yaml:"gene_range"`        // inclusive
	Setting                  *SimulationConfig `yaml:"setting,omitempty"` // nil = top-level setting
	Mode                     string            `yaml:"mode"`              // field used during analysis
	Functions                []string          `yaml:"functions"`
	AnalysisLoop             int               `yaml:"analysis_loop"`
	PeriodicNumber           int               `yaml:"periodic_number"`
	PeriodicNumberDrain      int               `yaml:"periodic_number_drain"`
	BinRange                 int               `yaml:"bin_range"`
	Delta                    float64           `yaml:"delta"`
	BinNumber                int               `yaml:"bin_number"`
	ConcentrationGradientMax float64           `yaml:"concentration_gradient_max"`
}

// Genes returns the result ranks to analyse in order.
func (a AnalysisConfig) Genes() []int {
	if a.GeneSelection == "range" {
		lo, hi := a.GeneRange[0], a.GeneRange[1]
		if hi < lo {
			return nil
		}
		genes := make([]int, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			genes = append(genes, n)
		}
		return genes
	}
	return append([]int(nil), a.GeneNumbers...)
}

// SimulationOr returns the analysis assay, falling back to s when the
// analysis section carries none.
func (a AnalysisConfig) SimulationOr(s SimulationConfig) SimulationConfig {
	if a.Setting != nil {
		return *a.Setting
	}
	return s
}

// RefineConfig holds CMA-ES refinement parameters.
type RefineConfig struct {
	MaxEvals     int     `yaml:"max_evals"`
	Population   int     `yaml:"population"` // 0 = auto
	InitStepSize float64 `yaml:"init_step_size"`
	Seeds        int     `yaml:"seeds"`
}

// OutputConfig holds result persistence settings.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Store      string `yaml:"store"` // json or sqlite
	SQLitePath string `yaml:"sqlite_path"`
	ResultFile string `yaml:"result_file"`
	Plot       bool   `yaml:"plot"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ConstrainedGenes []int // NegativeGenes when GA.Constrained, else nil
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ConstrainedGenes = nil
	if c.GA.Constrained {
		c.Derived.ConstrainedGenes = append([]int(nil), c.Constraint.NegativeGenes...)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
