package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewBest           BookmarkType = "new_best"
	BookmarkStagnation        BookmarkType = "stagnation"
	BookmarkDiversityCollapse BookmarkType = "diversity_collapse"
	BookmarkReevaluationDrop  BookmarkType = "reevaluation_drop"
)

// Bookmark marks a generation worth a closer look.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	RunID       string       `csv:"run_id"`
	Run         int          `csv:"run"`
	Generation  int          `csv:"generation"`
	Best        float64      `csv:"best"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"run", b.Run+1,
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkThresholds tune when bookmarks fire.
type BookmarkThresholds struct {
	MinGain      float64 // improvement of the best that counts as new
	CollapseStd  float64 // population std below which diversity has collapsed
	ReevalDrop   float64 // fall of the re-evaluated best that is reported
	StagnantGens int     // generations without a new best
}

// DefaultBookmarkThresholds suit chemotaxis indices in [0, 1].
var DefaultBookmarkThresholds = BookmarkThresholds{
	MinGain:      0.01,
	CollapseStd:  1e-3,
	ReevalDrop:   0.1,
	StagnantGens: 50,
}

// BookmarkDetector detects interesting generations within a run. It resets
// whenever the run number changes.
type BookmarkDetector struct {
	th BookmarkThresholds

	run       int
	started   bool
	bestSoFar float64
	prevBest  float64
	sinceBest int
	stagnated bool
	collapsed bool
}

// NewBookmarkDetector creates a detector with the given thresholds.
func NewBookmarkDetector(th BookmarkThresholds) *BookmarkDetector {
	if th.StagnantGens < 1 {
		th.StagnantGens = DefaultBookmarkThresholds.StagnantGens
	}
	return &BookmarkDetector{th: th}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(s GenerationStats) []Bookmark {
	if !bd.started || s.Run != bd.run {
		bd.reset(s)
		return nil
	}

	var bookmarks []Bookmark
	mark := func(t BookmarkType, format string, args ...any) {
		bookmarks = append(bookmarks, Bookmark{
			Type:        t,
			RunID:       s.RunID,
			Run:         s.Run,
			Generation:  s.Generation,
			Best:        s.Best,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if s.Best >= bd.bestSoFar+bd.th.MinGain {
		mark(BookmarkNewBest, "best %.4f up from %.4f", s.Best, bd.bestSoFar)
		bd.bestSoFar = s.Best
		bd.sinceBest = 0
		bd.stagnated = false
	} else {
		bd.bestSoFar = math.Max(bd.bestSoFar, s.Best)
		bd.sinceBest++
		if bd.sinceBest >= bd.th.StagnantGens && !bd.stagnated {
			mark(BookmarkStagnation, "no gain of %.4f for %d generations", bd.th.MinGain, bd.sinceBest)
			bd.stagnated = true
		}
	}

	if s.Reevaluated && bd.prevBest-s.Best > bd.th.ReevalDrop {
		mark(BookmarkReevaluationDrop, "best fell from %.4f to %.4f on re-evaluation", bd.prevBest, s.Best)
	}

	if s.Std < bd.th.CollapseStd {
		if !bd.collapsed {
			mark(BookmarkDiversityCollapse, "fitness std %.2e below %.2e", s.Std, bd.th.CollapseStd)
			bd.collapsed = true
		}
	} else {
		bd.collapsed = false
	}

	bd.prevBest = s.Best
	return bookmarks
}

func (bd *BookmarkDetector) reset(s GenerationStats) {
	bd.run = s.Run
	bd.started = true
	bd.bestSoFar = s.Best
	bd.prevBest = s.Best
	bd.sinceBest = 0
	bd.stagnated = false
	bd.collapsed = false
}
