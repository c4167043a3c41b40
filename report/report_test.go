package report

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/chemotaxis/analysis"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

func TestFitnessHistory(t *testing.T) {
	var stats []telemetry.GenerationStats
	for run := 0; run < 2; run++ {
		for gen := 0; gen < 5; gen++ {
			stats = append(stats, telemetry.GenerationStats{
				Run:        run,
				Generation: gen,
				Best:       0.1 * float64(gen),
				Mean:       0.05 * float64(gen),
			})
		}
	}

	path := filepath.Join(t.TempDir(), "fitness.png")
	if err := FitnessHistory(stats, "fitness", path); err != nil {
		t.Fatalf("FitnessHistory: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}

	if err := FitnessHistory(nil, "", path); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("empty history error = %v, want ErrNothingToPlot", err)
	}
}

func TestSeriesSkipsEmptyBins(t *testing.T) {
	nan := math.NaN()
	pts := series([]float64{-180, -150, -120}, []analysis.Summary{
		{Mean: 1, Std: 0.5},
		{Mean: nan, Std: nan},
		{Mean: -2, Std: nan},
	})
	if len(pts.XYs) != 2 || len(pts.YErrors) != 2 {
		t.Fatalf("points = %d, errors = %d, want 2", len(pts.XYs), len(pts.YErrors))
	}
	if pts.XYs[0].X != -165 || pts.XYs[1].X != -105 {
		t.Errorf("bin centres = %v, %v, want -165, -105", pts.XYs[0].X, pts.XYs[1].X)
	}
	if pts.YErrors[1].Low != 0 {
		t.Errorf("NaN std should plot as zero, got %v", pts.YErrors[1].Low)
	}
}

func TestHistogram(t *testing.T) {
	h := &analysis.Histogram{
		Function: analysis.FuncTranslationalGradient,
		Edges:    []float64{-0.1, 0},
		Series: [][]analysis.Summary{
			{{Mean: 1, Std: 0.1}, {Mean: 2, Std: 0.2}},
			{{Mean: 3, Std: 0.1}, {Mean: math.NaN()}},
			{{Mean: -3, Std: 0.1}, {Mean: -1, Std: 0}},
		},
	}
	path := filepath.Join(t.TempDir(), "hist.png")
	if err := Histogram(h, "translational", "gradient", path); err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("plot not written: %v", err)
	}

	empty := &analysis.Histogram{Edges: []float64{0}, Series: [][]analysis.Summary{{{Mean: math.NaN()}}}}
	if err := Histogram(empty, "", "", path); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("empty histogram error = %v, want ErrNothingToPlot", err)
	}
}
