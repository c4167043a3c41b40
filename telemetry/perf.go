package telemetry

import (
	"log/slog"
	"time"
)

// GenerationSample holds timing data for a single generation.
type GenerationSample struct {
	Duration  time.Duration
	Evaluated int
}

// GenerationTimer tracks GA throughput over a rolling window of generations.
type GenerationTimer struct {
	windowSize  int
	samples     []GenerationSample
	writeIndex  int
	sampleCount int

	started time.Time
	last    time.Time
	now     func() time.Time
}

// NewGenerationTimer creates a timer averaging over windowSize generations.
// The clock starts immediately.
func NewGenerationTimer(windowSize int) *GenerationTimer {
	return newGenerationTimer(windowSize, time.Now)
}

func newGenerationTimer(windowSize int, now func() time.Time) *GenerationTimer {
	if windowSize < 1 {
		windowSize = 10
	}
	t := now()
	return &GenerationTimer{
		windowSize: windowSize,
		samples:    make([]GenerationSample, windowSize),
		started:    t,
		last:       t,
		now:        now,
	}
}

// Record closes the current generation, which simulated evaluated
// individuals, and starts timing the next one.
func (g *GenerationTimer) Record(evaluated int) GenerationSample {
	t := g.now()
	s := GenerationSample{Duration: t.Sub(g.last), Evaluated: evaluated}
	g.last = t

	g.samples[g.writeIndex] = s
	g.writeIndex = (g.writeIndex + 1) % g.windowSize
	if g.sampleCount < g.windowSize {
		g.sampleCount++
	}
	return s
}

// ThroughputStats holds aggregated timing over the current window.
type ThroughputStats struct {
	AvgGeneration time.Duration
	MinGeneration time.Duration
	MaxGeneration time.Duration
	EvalsPerSec   float64
	Elapsed       time.Duration
}

// Stats computes aggregated statistics over the current window.
func (g *GenerationTimer) Stats() ThroughputStats {
	st := ThroughputStats{Elapsed: g.last.Sub(g.started)}
	if g.sampleCount == 0 {
		return st
	}

	var total time.Duration
	var evals int
	for i := 0; i < g.sampleCount; i++ {
		s := g.samples[i]
		total += s.Duration
		evals += s.Evaluated
		if i == 0 || s.Duration < st.MinGeneration {
			st.MinGeneration = s.Duration
		}
		if s.Duration > st.MaxGeneration {
			st.MaxGeneration = s.Duration
		}
	}
	st.AvgGeneration = total / time.Duration(g.sampleCount)
	if total > 0 {
		st.EvalsPerSec = float64(evals) / total.Seconds()
	}
	return st
}

// ETA estimates the time needed for the given number of further generations.
func (s ThroughputStats) ETA(remaining int) time.Duration {
	return s.AvgGeneration * time.Duration(max(remaining, 0))
}

// Fill copies the throughput figures into gs.
func (s ThroughputStats) Fill(gs *GenerationStats) {
	gs.ElapsedSec = s.Elapsed.Seconds()
	gs.EvalsPerSec = s.EvalsPerSec
}

// LogStats logs throughput statistics.
func (s ThroughputStats) LogStats(remaining int) {
	slog.Info("perf",
		"avg_generation_ms", s.AvgGeneration.Milliseconds(),
		"min_generation_ms", s.MinGeneration.Milliseconds(),
		"max_generation_ms", s.MaxGeneration.Milliseconds(),
		"evals_per_sec", int(s.EvalsPerSec),
		"elapsed", s.Elapsed.Round(time.Second).String(),
		"eta", s.ETA(remaining).Round(time.Second).String(),
	)
}
