// Package analysis measures klinotaxis behaviour on recorded trajectories:
// bearing to the peak, concentration gradients across and along the path,
// and curving rate, binned into histograms over repeated runs.
package analysis

import (
	"math"

	"github.com/pthm-cable/chemotaxis/systems"
)

// Point is a position on the plate in cm.
type Point = [2]float64

// signedAngle returns the angle between a and b in degrees, or NaN when
// either vector has zero length. The sign is left to the caller.
func signedAngle(a, b Point) (deg, cross float64) {
	na, nb := math.Hypot(a[0], a[1]), math.Hypot(b[0], b[1])
	cross = a[0]*b[1] - a[1]*b[0]
	if na == 0 || nb == 0 {
		return math.NaN(), cross
	}
	cos := (a[0]*b[0] + a[1]*b[1]) / (na * nb)
	cos = max(-1, min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, cross
}

func sub(a, b Point) Point { return Point{a[0] - b[0], a[1] - b[1]} }

// windows is the number of samples produced for a path and lag: each sample
// needs positions i, i+lag and i+2*lag.
func windows(n, lag int) int {
	return max(n-2*lag, 0)
}

// Bearing returns, for each window start i, the angle in degrees between
// the direction to the peak seen from the origin and the displacement
// pos[i+lag]-pos[i]. The angle is negative when the displacement lies
// counter-clockwise of the peak direction.
func Bearing(pos []Point, peak Point, lag int) []float64 {
	out := make([]float64, windows(len(pos), lag))
	for i := range out {
		deg, cross := signedAngle(peak, sub(pos[i+lag], pos[i]))
		if cross > 0 {
			deg = -deg
		}
		out[i] = deg
	}
	return out
}

// NormalGradient returns the finite-difference concentration slope at pos[i]
// in the direction perpendicular (counter-clockwise) to the displacement
// pos[i+lag]-pos[i].
func NormalGradient(pos []Point, field systems.Field, lag int, delta float64) []float64 {
	out := make([]float64, windows(len(pos), lag))
	for i := range out {
		d := sub(pos[i+lag], pos[i])
		out[i] = directional(field, pos[i], Point{-d[1], d[0]}, delta)
	}
	return out
}

// TranslationalGradient is NormalGradient along the displacement itself.
func TranslationalGradient(pos []Point, field systems.Field, lag int, delta float64) []float64 {
	out := make([]float64, windows(len(pos), lag))
	for i := range out {
		out[i] = directional(field, pos[i], sub(pos[i+lag], pos[i]), delta)
	}
	return out
}

func directional(field systems.Field, at, dir Point, delta float64) float64 {
	n := math.Hypot(dir[0], dir[1])
	if n == 0 {
		return math.NaN()
	}
	x, y := at[0]+dir[0]/n*delta, at[1]+dir[1]/n*delta
	return (field.Concentration(x, y) - field.Concentration(at[0], at[1])) / delta
}

// CurvingRate returns the signed turn in degrees between consecutive
// displacements pos[i+lag]-pos[i] and pos[i+2*lag]-pos[i+lag], divided by
// the path length they cover. Counter-clockwise turns are positive.
func CurvingRate(pos []Point, lag int) []float64 {
	out := make([]float64, windows(len(pos), lag))
	for i := range out {
		v1 := sub(pos[i+lag], pos[i])
		v2 := sub(pos[i+2*lag], pos[i+lag])
		deg, cross := signedAngle(v1, v2)
		if cross < 0 {
			deg = -deg
		}
		out[i] = deg / (math.Hypot(v1[0], v1[1]) + math.Hypot(v2[0], v2[1]))
	}
	return out
}
