package systems

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownFieldMode is returned for a field mode name or tag that is not recognized.
var ErrUnknownFieldMode = errors.New("unknown field mode")

// FieldMode selects the concentration profile of the assay plate.
type FieldMode int

const (
	Linear FieldMode = iota
	Gauss
	TwoGauss
)

var fieldModeNames = map[FieldMode]string{
	Linear:   "linear",
	Gauss:    "gauss",
	TwoGauss: "two_gauss",
}

func (m FieldMode) String() string {
	if s, ok := fieldModeNames[m]; ok {
		return s
	}
	return "FieldMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseFieldMode accepts a mode name or its integer tag.
func ParseFieldMode(s string) (FieldMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for m, name := range fieldModeNames {
		if s == name {
			return m, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := fieldModeNames[FieldMode(n)]; ok {
			return FieldMode(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFieldMode, s)
}

// Field gives the chemical concentration at a plate position.
type Field interface {
	Concentration(x, y float64) float64
}

// FieldParams holds the constants any field mode may need.
type FieldParams struct {
	Alpha  float64 // linear steepness
	C0     float64 // gaussian peak height
	Lambda float64 // gaussian width
	XPeak  float64
	YPeak  float64
}

// NewField builds the field for the given mode.
func NewField(mode FieldMode, p FieldParams) (Field, error) {
	switch mode {
	case Linear:
		return LinearField{Alpha: p.Alpha, XPeak: p.XPeak, YPeak: p.YPeak}, nil
	case Gauss:
		return GaussField{C0: p.C0, Lambda: p.Lambda, XPeak: p.XPeak, YPeak: p.YPeak}, nil
	case TwoGauss:
		return TwoGaussField{C0: p.C0, Lambda: p.Lambda, XPeak: p.XPeak, YPeak: p.YPeak}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFieldMode, int(mode))
}

// LinearField grows with distance from the peak at rate Alpha, so a negative
// Alpha makes the peak the maximum.
type LinearField struct {
	Alpha        float64
	XPeak, YPeak float64
}

func (f LinearField) Concentration(x, y float64) float64 {
	return f.Alpha * math.Hypot(x-f.XPeak, y-f.YPeak)
}

// GaussField is a single gaussian centred on the peak.
type GaussField struct {
	C0, Lambda   float64
	XPeak, YPeak float64
}

func (f GaussField) Concentration(x, y float64) float64 {
	return f.C0 * gauss(x-f.XPeak, y-f.YPeak, f.Lambda)
}

// TwoGaussField is a gaussian source at the peak minus a mirrored gaussian
// at the point reflected through the origin.
type TwoGaussField struct {
	C0, Lambda   float64
	XPeak, YPeak float64
}

func (f TwoGaussField) Concentration(x, y float64) float64 {
	return f.C0 * (gauss(x-f.XPeak, y-f.YPeak, f.Lambda) - gauss(x+f.XPeak, y+f.YPeak, f.Lambda))
}

func gauss(dx, dy, lambda float64) float64 {
	return math.Exp(-(dx*dx + dy*dy) / (2 * lambda * lambda))
}
