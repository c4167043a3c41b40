// Package report draws PNG charts of GA progress and klinotaxis histograms.
package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/chemotaxis/analysis"
	"github.com/pthm-cable/chemotaxis/telemetry"
)

// ErrNothingToPlot is returned when every point of a chart is missing.
var ErrNothingToPlot = errors.New("no finite points to plot")

// Width and Height are the saved image size.
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// FitnessHistory plots the best and mean index per generation, one pair of
// lines per GA run.
func FitnessHistory(stats []telemetry.GenerationStats, title, path string) error {
	if len(stats) == 0 {
		return ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Chemotaxis index"

	byRun := map[int][]telemetry.GenerationStats{}
	var runs []int
	for _, s := range stats {
		if _, ok := byRun[s.Run]; !ok {
			runs = append(runs, s.Run)
		}
		byRun[s.Run] = append(byRun[s.Run], s)
	}

	for i, run := range runs {
		rs := byRun[run]
		best := make(plotter.XYs, len(rs))
		mean := make(plotter.XYs, len(rs))
		for j, s := range rs {
			best[j] = plotter.XY{X: float64(s.Generation), Y: s.Best}
			mean[j] = plotter.XY{X: float64(s.Generation), Y: s.Mean}
		}

		bestLine, err := plotter.NewLine(best)
		if err != nil {
			return err
		}
		meanLine, err := plotter.NewLine(mean)
		if err != nil {
			return err
		}
		bestLine.Color = plotutil.Color(i)
		meanLine.Color = plotutil.Color(i)
		meanLine.Dashes = plotutil.Dashes(1)

		p.Add(bestLine, meanLine)
		p.Legend.Add(fmt.Sprintf("run %d best", run+1), bestLine)
		p.Legend.Add(fmt.Sprintf("run %d mean", run+1), meanLine)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(Width, Height, path)
}

// errorPoints feeds plotter.NewYErrorBars.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// series converts one aggregated histogram series into plottable points at
// bin centres, dropping empty bins.
func series(edges []float64, sum []analysis.Summary) errorPoints {
	width := 1.0
	if len(edges) > 1 {
		width = edges[1] - edges[0]
	}
	var pts errorPoints
	for i, s := range sum {
		if math.IsNaN(s.Mean) {
			continue
		}
		std := s.Std
		if math.IsNaN(std) {
			std = 0
		}
		pts.XYs = append(pts.XYs, plotter.XY{X: edges[i] + width/2, Y: s.Mean})
		pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{std, std})
	}
	return pts
}

var seriesNames = []string{"curving rate", "positive", "negative"}

// Histogram plots the mean curving rate per bin with standard deviation
// error bars. Translational histograms add the positive and negative means.
func Histogram(h *analysis.Histogram, title, xlabel, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Curving rate (deg/cm)"

	plotted := false
	for i, sum := range h.Series {
		pts := series(h.Edges, sum)
		if len(pts.XYs) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts.XYs)
		if err != nil {
			return err
		}
		bars, err := plotter.NewYErrorBars(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		bars.Color = plotutil.Color(i)

		p.Add(line, bars)
		if i < len(seriesNames) {
			p.Legend.Add(seriesNames[i], line)
		}
		plotted = true
	}
	if !plotted {
		return ErrNothingToPlot
	}
	p.Add(plotter.NewGrid())

	return p.Save(Width, Height, path)
}
