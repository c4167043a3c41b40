package telemetry

import (
	"math"
	"testing"
	"time"
)

// fakeClock advances by step on every reading after the first.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func TestGenerationTimer_BasicTiming(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 100 * time.Millisecond}
	gt := newGenerationTimer(10, clock.now)

	for i := 0; i < 5; i++ {
		s := gt.Record(50)
		if s.Duration != 100*time.Millisecond {
			t.Fatalf("sample %d duration = %v, want 100ms", i, s.Duration)
		}
	}

	stats := gt.Stats()
	if stats.AvgGeneration != 100*time.Millisecond {
		t.Errorf("AvgGeneration = %v, want 100ms", stats.AvgGeneration)
	}
	if math.Abs(stats.EvalsPerSec-500) > 1e-9 {
		t.Errorf("EvalsPerSec = %v, want 500", stats.EvalsPerSec)
	}
	if stats.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 500ms", stats.Elapsed)
	}
	if eta := stats.ETA(20); eta != 2*time.Second {
		t.Errorf("ETA(20) = %v, want 2s", eta)
	}
}

func TestGenerationTimer_RollingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Second}
	gt := newGenerationTimer(3, clock.now)

	// slow generations fall out of the window once it wraps
	for i := 0; i < 3; i++ {
		gt.Record(1)
	}
	// the clock was already advanced a full second, so the first fast
	// generation still reads 1s
	clock.step = 10 * time.Millisecond
	for i := 0; i < 4; i++ {
		gt.Record(1)
	}

	stats := gt.Stats()
	if stats.MaxGeneration > 10*time.Millisecond {
		t.Errorf("MaxGeneration = %v, want old samples evicted", stats.MaxGeneration)
	}
	if stats.MinGeneration != 10*time.Millisecond {
		t.Errorf("MinGeneration = %v, want 10ms", stats.MinGeneration)
	}
}

func TestGenerationTimer_Empty(t *testing.T) {
	gt := NewGenerationTimer(0)
	stats := gt.Stats()
	if stats.AvgGeneration != 0 || stats.EvalsPerSec != 0 {
		t.Errorf("empty stats = %+v, want zeros", stats)
	}
	if stats.ETA(-3) != 0 {
		t.Error("negative remaining should give zero ETA")
	}
}

func TestThroughputFill(t *testing.T) {
	var gs GenerationStats
	ThroughputStats{Elapsed: 1500 * time.Millisecond, EvalsPerSec: 42}.Fill(&gs)
	if gs.ElapsedSec != 1.5 || gs.EvalsPerSec != 42 {
		t.Errorf("filled stats = %+v", gs)
	}
}
