package sim

import "math"

// SensoryHistory is the concentration memory of the ON/OFF sensory cells.
// It holds the last m+n samples: the oldest m feed the baseline window and
// the newest n feed the recent window.
type SensoryHistory struct {
	buf        []float64
	head       int // index of the oldest sample
	n, m       int
	nSec, mSec float64
	dt         float64

	sumRecent, sumOld float64
	pushes            int
}

// NewSensoryHistory creates a history pre-filled with c0. n and m are the
// window lengths in steps; nSec and mSec the same windows in seconds.
func NewSensoryHistory(n, m int, nSec, mSec, dt, c0 float64) *SensoryHistory {
	h := &SensoryHistory{
		buf:  make([]float64, n+m),
		n:    n,
		m:    m,
		nSec: nSec,
		mSec: mSec,
		dt:   dt,
	}
	for i := range h.buf {
		h.buf[i] = c0
	}
	h.resum()
	return h
}

// Len returns the number of samples held.
func (h *SensoryHistory) Len() int { return len(h.buf) }

// At returns the i-th sample, oldest first.
func (h *SensoryHistory) At(i int) float64 {
	return h.buf[(h.head+i)%len(h.buf)]
}

// Push drops the oldest sample and appends c.
func (h *SensoryHistory) Push(c float64) {
	size := len(h.buf)
	if size == 0 {
		return
	}
	oldest := h.buf[h.head]
	switch {
	case h.m == 0:
		h.sumRecent += c - oldest
	case h.n == 0:
		h.sumOld += c - oldest
	default:
		// the oldest recent sample crosses into the baseline window
		moved := h.buf[(h.head+h.m)%size]
		h.sumOld += moved - oldest
		h.sumRecent += c - moved
	}
	h.buf[h.head] = c
	h.head = (h.head + 1) % size

	h.pushes++
	if h.pushes%size == 0 {
		h.resum()
	}
}

// resum recomputes both window sums from the buffer to stop rounding drift.
func (h *SensoryHistory) resum() {
	h.sumOld, h.sumRecent = 0, 0
	for i := 0; i < h.m; i++ {
		h.sumOld += h.At(i)
	}
	for i := h.m; i < h.m+h.n; i++ {
		h.sumRecent += h.At(i)
	}
}

// OnOff returns the ON and OFF cell outputs. ON fires when the recent mean
// rate exceeds the baseline, OFF when it falls below. At most one is non-zero.
func (h *SensoryHistory) OnOff() (on, off float64) {
	d := h.sumRecent/h.nSec - h.sumOld/h.mSec
	return math.Max(0, d) * 100 * h.dt, math.Max(0, -d) * 100 * h.dt
}

// Oscillator is the sinusoidal drive of the motor neurons at time t.
func Oscillator(t, period float64) float64 {
	return math.Sin(2 * math.Pi * t / period)
}
