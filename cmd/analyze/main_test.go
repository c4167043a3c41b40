package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pthm-cable/chemotaxis/analysis"
	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/storage"
)

func TestParseFunctions(t *testing.T) {
	got, err := parseFunctions([]string{"bearing", " 2 "})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != analysis.FuncBearing || got[1] != analysis.FuncTranslationalGradient {
		t.Errorf("parseFunctions = %v", got)
	}
	if _, err := parseFunctions([]string{"speed"}); !errors.Is(err, analysis.ErrUnknownFunction) {
		t.Errorf("unknown function error = %v", err)
	}
	if _, err := parseFunctions(nil); err == nil {
		t.Error("expected error for empty selection")
	}
}

func TestRunWritesHistograms(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Setting.SimulationTime = 20
	cfg.Analysis.AnalysisLoop = 2
	cfg.Analysis.PeriodicNumberDrain = 1
	cfg.Analysis.Functions = []string{"bearing", "translational_gradient"}
	cfg.Output.Dir = t.TempDir()
	cfg.GA.Workers = 2

	recs := []storage.Record{{Fitness: 0.5, Gene: make([]float64, neural.GeneCount)}}
	if err := run(context.Background(), cfg, recs, 7); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"bearing_gene0.csv", "translational_gradient_gene0.csv"} {
		if fi, err := os.Stat(filepath.Join(cfg.Output.Dir, name)); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	cfg.Analysis.GeneNumbers = []int{3}
	if err := run(context.Background(), cfg, recs, 7); err == nil {
		t.Error("expected error for a gene past the stored results")
	}
}

func shortAnalysis(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Setting.SimulationTime = 20
	cfg.Analysis.AnalysisLoop = 2
	cfg.Analysis.PeriodicNumberDrain = 1
	cfg.Analysis.Functions = []string{"bearing", "normal_gradient"}
	cfg.Output.Dir = t.TempDir()
	cfg.GA.Workers = 2
	return cfg
}

func TestRunWritesEverySelectedGene(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	recs := make([]storage.Record, 4)
	for i := range recs {
		recs[i] = storage.Record{Fitness: 0.9 - 0.1*float64(i), Gene: neural.RandomGenotype(rng, neural.GeneCount)}
	}

	tests := []struct {
		name string
		pick func(a *config.AnalysisConfig)
		want []int
	}{
		{"list", func(a *config.AnalysisConfig) {
			a.GeneSelection = "list"
			a.GeneNumbers = []int{0, 3}
		}, []int{0, 3}},
		{"range", func(a *config.AnalysisConfig) {
			a.GeneSelection = "range"
			a.GeneRange = [2]int{1, 2}
		}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := shortAnalysis(t)
			tt.pick(&cfg.Analysis)
			if err := run(context.Background(), cfg, recs, 7); err != nil {
				t.Fatalf("run: %v", err)
			}
			for n := 0; n < len(recs); n++ {
				selected := slices.Contains(tt.want, n)
				for _, f := range cfg.Analysis.Functions {
					path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_gene%d.csv", f, n))
					fi, err := os.Stat(path)
					if selected && (err != nil || fi.Size() == 0) {
						t.Errorf("%s not written: %v", path, err)
					}
					if !selected && err == nil {
						t.Errorf("%s written for an unselected gene", path)
					}
				}
			}
		})
	}
}

func TestRunUsesAnalysisSetting(t *testing.T) {
	cfg := shortAnalysis(t)
	recs := []storage.Record{{Fitness: 0.5, Gene: make([]float64, neural.GeneCount)}}

	assay := cfg.Setting
	cfg.Setting.SimulationTime = 0.001 // shorter than one step
	if err := run(context.Background(), cfg, recs, 7); err == nil {
		t.Fatal("expected the sub-step training assay to fail without an override")
	}

	cfg.Analysis.Setting = &assay
	if err := run(context.Background(), cfg, recs, 7); err != nil {
		t.Fatalf("run with analysis setting: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "bearing_gene0.csv")); err != nil {
		t.Error(err)
	}
}

func TestParseGenes(t *testing.T) {
	got, err := parseGenes("0, 3,5")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int{0, 3, 5}) {
		t.Errorf("parseGenes = %v, want [0 3 5]", got)
	}
	for _, bad := range []string{"", "a", "1,-2"} {
		if _, err := parseGenes(bad); err == nil {
			t.Errorf("parseGenes(%q): expected error", bad)
		}
	}

	r, err := parseGeneRange("0:4")
	if err != nil {
		t.Fatal(err)
	}
	if r != [2]int{0, 4} {
		t.Errorf("parseGeneRange = %v, want [0 4]", r)
	}
	for _, bad := range []string{"4", "4:2", "-1:2", "a:b"} {
		if _, err := parseGeneRange(bad); err == nil {
			t.Errorf("parseGeneRange(%q): expected error", bad)
		}
	}
}

func TestLoadResultsUnknownStore(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loadResults(context.Background(), cfg, "redis", ""); !errors.Is(err, storage.ErrUnknownBackend) {
		t.Errorf("error = %v, want ErrUnknownBackend", err)
	}
}
