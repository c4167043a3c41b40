// Package telemetry turns GA generations and analysis histograms into
// structured log records and CSV files.
package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/chemotaxis/evolve"
)

// GenerationStats summarizes the fitness distribution of one ranked generation.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Run        int    `csv:"run"`
	Generation int    `csv:"generation"`

	Best   float64 `csv:"best"`
	Second float64 `csv:"second"`
	Third  float64 `csv:"third"`

	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`

	Evaluated   int  `csv:"evaluated"`
	Reevaluated bool `csv:"reevaluated"`

	// Throughput, filled from a GenerationTimer
	ElapsedSec  float64 `csv:"elapsed_sec"`
	EvalsPerSec float64 `csv:"evals_per_sec"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeGenerationStats summarizes a ranked generation report. The
// population is expected best first.
func ComputeGenerationStats(runID string, r evolve.GenerationReport) GenerationStats {
	s := GenerationStats{
		RunID:       runID,
		Run:         r.Run,
		Generation:  r.Generation,
		Evaluated:   r.Evaluated,
		Reevaluated: r.Reevaluated,
	}
	fit := r.Population.Fitnesses()
	if len(fit) == 0 {
		return s
	}

	top := [3]*float64{&s.Best, &s.Second, &s.Third}
	for i := 0; i < len(top) && i < len(fit); i++ {
		*top[i] = fit[i]
	}

	if len(fit) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(fit, nil)
	} else {
		s.Mean = fit[0]
	}

	sorted := slices.Clone(fit)
	slices.Sort(sorted)
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run", s.Run),
		slog.Int("generation", s.Generation),
		slog.Float64("best", s.Best),
		slog.Float64("second", s.Second),
		slog.Float64("third", s.Third),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p50", s.P50),
		slog.Int("evaluated", s.Evaluated),
		slog.Bool("reevaluated", s.Reevaluated),
		slog.Float64("evals_per_sec", s.EvalsPerSec),
	)
}
