package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/evolve"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

func TestStorePath(t *testing.T) {
	tests := []struct {
		store, dir, result, sqlite string
		want                       string
	}{
		{"json", "out", "result.json", "", filepath.Join("out", "result.json")},
		{"json", "out", "results/result.json", "", "results/result.json"},
		{"json", "", "result.json", "", "result.json"},
		{"sqlite", "out", "result.json", "db/c.db", "db/c.db"},
		{"memory", "out", "result.json", "db/c.db", ""},
	}
	for _, tt := range tests {
		cfg := &config.Config{Output: config.OutputConfig{
			Store: tt.store, Dir: tt.dir, ResultFile: tt.result, SQLitePath: tt.sqlite,
		}}
		if got := storePath(cfg); got != tt.want {
			t.Errorf("storePath(%s, %q, %q) = %q, want %q", tt.store, tt.dir, tt.result, got, tt.want)
		}
	}
}

func TestProgressRemaining(t *testing.T) {
	p := newProgress("r", evolve.Params{NGen: 10, GACount: 3}, nil, 0)
	tests := []struct {
		run, gen, want int
	}{
		{0, 0, 10 + 2*11},
		{0, 10, 2 * 11},
		{2, 4, 6},
		{2, 10, 0},
	}
	for _, tt := range tests {
		if got := p.remaining(evolve.GenerationReport{Run: tt.run, Generation: tt.gen}); got != tt.want {
			t.Errorf("remaining(run %d, gen %d) = %d, want %d", tt.run, tt.gen, got, tt.want)
		}
	}
}

func TestProgressWritesGenerations(t *testing.T) {
	dir := t.TempDir()
	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	p := newProgress("run-x", evolve.Params{NGen: 2, GACount: 1}, om, 1)

	pop := evolve.Population{
		{Genotype: neural.Genotype{0.1}, Fitness: 0.8},
		{Genotype: neural.Genotype{0.2}, Fitness: 0.5},
	}
	for gen := 0; gen <= 2; gen++ {
		p.OnGeneration(evolve.GenerationReport{Generation: gen, Population: pop, Evaluated: 2})
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	if len(p.history) != 3 {
		t.Fatalf("history = %d rows, want 3", len(p.history))
	}
	if p.history[0].Best != 0.8 || p.history[0].RunID != "run-x" {
		t.Errorf("first row = %+v", p.history[0])
	}
	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 4 {
		t.Errorf("generations.csv has %d lines, want header plus 3", n)
	}
}

func TestPrintResults(t *testing.T) {
	results := evolve.Population{
		{Genotype: neural.Genotype{0.5, -0.25}, Fitness: 0.9},
		{Genotype: neural.Genotype{0, 0}, Fitness: 0.1},
	}
	var sb strings.Builder
	printResults(&sb, results, 1)
	out := sb.String()
	if !strings.Contains(out, "Holdout Ranking") || !strings.Contains(out, "0.9000") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "0.1000") {
		t.Errorf("printed more than k results:\n%s", out)
	}
}
