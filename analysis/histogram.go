package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BearingBins returns the lower edges -180, -180+binRange, ... below 180.
func BearingBins(binRange int) []float64 {
	var edges []float64
	for b := -180; b < 180; b += binRange {
		edges = append(edges, float64(b))
	}
	return edges
}

// GradientBins returns the lower edges of bins equal-width bins spanning
// [-gradMax, gradMax].
func GradientBins(bins int, gradMax float64) []float64 {
	step := 2 * gradMax / float64(bins)
	edges := make([]float64, bins)
	for i := range edges {
		edges[i] = -gradMax + float64(i)*step
	}
	return edges
}

// binned groups y by the open interval (edge, edge+width) that x falls in.
// Values on an edge belong to no bin, and NaN samples of either series are
// dropped.
func binned(x, y, edges []float64, width float64) [][]float64 {
	groups := make([][]float64, len(edges))
	for i, lo := range edges {
		hi := lo + width
		for j, v := range x {
			if math.IsNaN(y[j]) {
				continue
			}
			if lo < v && v < hi {
				groups[i] = append(groups[i], y[j])
			}
		}
	}
	return groups
}

func meanOrNaN(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// BearingHistogram returns the mean curving rate y per bearing bin of width
// binRange degrees. Empty bins are NaN.
func BearingHistogram(x, y []float64, binRange int) []float64 {
	groups := binned(x, y, BearingBins(binRange), float64(binRange))
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = meanOrNaN(g)
	}
	return out
}

// GradientHistogram returns the mean curving rate y per gradient bin.
func GradientHistogram(x, y []float64, bins int, gradMax float64) []float64 {
	groups := binned(x, y, GradientBins(bins, gradMax), 2*gradMax/float64(bins))
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = meanOrNaN(g)
	}
	return out
}

// SignedHistogram splits each bin's mean into the means of its positive and
// negative samples.
type SignedHistogram struct {
	Mean     []float64
	Positive []float64
	Negative []float64
}

// TranslationalHistogram bins y like GradientHistogram and also reports the
// mean of the strictly positive and strictly negative samples of each bin.
func TranslationalHistogram(x, y []float64, bins int, gradMax float64) SignedHistogram {
	groups := binned(x, y, GradientBins(bins, gradMax), 2*gradMax/float64(bins))
	h := SignedHistogram{
		Mean:     make([]float64, len(groups)),
		Positive: make([]float64, len(groups)),
		Negative: make([]float64, len(groups)),
	}
	for i, g := range groups {
		var pos, neg []float64
		for _, v := range g {
			switch {
			case v > 0:
				pos = append(pos, v)
			case v < 0:
				neg = append(neg, v)
			}
		}
		h.Mean[i] = meanOrNaN(g)
		h.Positive[i] = meanOrNaN(pos)
		h.Negative[i] = meanOrNaN(neg)
	}
	return h
}

// Summary describes one bin across repeated runs.
type Summary struct {
	Mean float64
	Std  float64 // population standard deviation
	Max  float64
	Min  float64
	N    int // runs that populated the bin
}

// Aggregate summarizes each column of rows, ignoring NaN entries. Columns
// with no finite value summarize to NaN. Rows shorter than the first are
// treated as missing the trailing bins.
func Aggregate(rows [][]float64) []Summary {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Summary, len(rows[0]))
	col := make([]float64, 0, len(rows))
	for i := range out {
		col = col[:0]
		for _, r := range rows {
			if i < len(r) && !math.IsNaN(r[i]) {
				col = append(col, r[i])
			}
		}
		if len(col) == 0 {
			nan := math.NaN()
			out[i] = Summary{Mean: nan, Std: nan, Max: nan, Min: nan}
			continue
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		out[i] = Summary{
			Mean: mean,
			Std:  math.Sqrt(variance),
			Max:  floats.Max(col),
			Min:  floats.Min(col),
			N:    len(col),
		}
	}
	return out
}
