package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gosuri/uitable"

	"github.com/pthm-cable/chemotaxis/evolve"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

// progress turns engine reports into CSV rows, bookmarks and periodic
// throughput logs, and keeps the history for plotting.
type progress struct {
	runID     string
	params    evolve.Params
	om        *telemetry.OutputManager
	timer     *telemetry.GenerationTimer
	bookmarks *telemetry.BookmarkDetector
	perfEvery int

	history []telemetry.GenerationStats
}

func newProgress(runID string, p evolve.Params, om *telemetry.OutputManager, perfEvery int) *progress {
	return &progress{
		runID:     runID,
		params:    p,
		om:        om,
		timer:     telemetry.NewGenerationTimer(perfEvery),
		bookmarks: telemetry.NewBookmarkDetector(telemetry.DefaultBookmarkThresholds),
		perfEvery: perfEvery,
	}
}

func (p *progress) OnGeneration(r evolve.GenerationReport) {
	p.timer.Record(r.Evaluated)
	perf := p.timer.Stats()

	stats := telemetry.ComputeGenerationStats(p.runID, r)
	perf.Fill(&stats)
	p.history = append(p.history, stats)

	if err := p.om.WriteGeneration(stats); err != nil {
		slog.Warn("failed to write generation", "error", err)
	}
	for _, b := range p.bookmarks.Check(stats) {
		b.LogBookmark()
		if err := p.om.WriteBookmark(b); err != nil {
			slog.Warn("failed to write bookmark", "error", err)
		}
	}

	if p.perfEvery > 0 && r.Generation > 0 && r.Generation%p.perfEvery == 0 {
		perf.LogStats(p.remaining(r))
		slog.Debug("generation stats", "stats", stats)
	}
}

// remaining counts the generations left across all runs.
func (p *progress) remaining(r evolve.GenerationReport) int {
	left := p.params.NGen - r.Generation
	left += (p.params.GACount - r.Run - 1) * (p.params.NGen + 1)
	return left
}

func printResults(w io.Writer, results evolve.Population, k int) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("Rank", "Fitness", "Genotype")
	for i, ind := range results.Top(k) {
		table.AddRow(i+1, fmt.Sprintf("%.4f", ind.Fitness), fmt.Sprintf("%.3f", []float64(ind.Genotype)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, " ~ Holdout Ranking ~ ")
	fmt.Fprintln(w)
	fmt.Fprintln(w, table)
	fmt.Fprintln(w)
}
