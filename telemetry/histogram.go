package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/chemotaxis/analysis"
)

// ErrorBarRow is one bin of a bearing or normal-gradient histogram.
type ErrorBarRow struct {
	Bin  float64 `csv:"bin"`
	Mean float64 `csv:"curving_rate"`
	Std  float64 `csv:"std"`
	Max  float64 `csv:"max"`
	Min  float64 `csv:"min"`
}

// SignedRow is one bin of a translational-gradient histogram.
type SignedRow struct {
	Bin          float64 `csv:"bin"`
	Mean         float64 `csv:"curving_rate"`
	Std          float64 `csv:"std"`
	PositiveMean float64 `csv:"positive"`
	PositiveStd  float64 `csv:"positive_std"`
	NegativeMean float64 `csv:"negative"`
	NegativeStd  float64 `csv:"negative_std"`
}

// HistogramRows converts an aggregated histogram into its CSV rows:
// []SignedRow for translational histograms, []ErrorBarRow otherwise.
func HistogramRows(h *analysis.Histogram) any {
	if h.Function == analysis.FuncTranslationalGradient && len(h.Series) == 3 {
		rows := make([]SignedRow, len(h.Edges))
		for i, edge := range h.Edges {
			m, p, n := h.Series[0][i], h.Series[1][i], h.Series[2][i]
			rows[i] = SignedRow{
				Bin:          edge,
				Mean:         m.Mean,
				Std:          m.Std,
				PositiveMean: p.Mean,
				PositiveStd:  p.Std,
				NegativeMean: n.Mean,
				NegativeStd:  n.Std,
			}
		}
		return rows
	}

	rows := make([]ErrorBarRow, len(h.Edges))
	for i, edge := range h.Edges {
		s := h.Series[0][i]
		rows[i] = ErrorBarRow{Bin: edge, Mean: s.Mean, Std: s.Std, Max: s.Max, Min: s.Min}
	}
	return rows
}

// WriteHistogram writes h as a CSV file at path.
func WriteHistogram(path string, h *analysis.Histogram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(HistogramRows(h), f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
