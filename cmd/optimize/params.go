package main

import (
	"slices"

	"github.com/pthm-cable/chemotaxis/neural"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name     string  // Gene name from the circuit layout
	Category string  // Scaling category for logging
	Min      float64 // Lower bound in physical units
	Max      float64 // Upper bound in physical units
	Default  float64 // Starting value
}

// ParamVector holds one spec per gene of the circuit genotype.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the parameter set from the scaling table, starting at
// the physical values of start. Sign-locked genes are capped at the midpoint
// of their range, which is where their gene crosses zero.
func NewParamVector(table neural.ScalingTable, start neural.Genotype, locked []int) *ParamVector {
	specs := make([]ParamSpec, neural.GeneCount)
	for k, gs := range neural.GeneLayout {
		r := table.Ranges[gs.Category]
		specs[k] = ParamSpec{
			Name:     gs.Name,
			Category: gs.Category.String(),
			Min:      r.Lo(),
			Max:      r.Hi(),
			Default:  table.Map(gs.Category, start[k]),
		}
		if slices.Contains(locked, k) {
			specs[k].Max = table.Map(gs.Category, 0)
		}
	}
	return &ParamVector{Specs: specs}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if spec.Max == spec.Min {
			continue
		}
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Genotype converts raw physical values back to genes. The inverse of the
// scaling map is taken over the full category range, not the locked one.
func (pv *ParamVector) Genotype(table neural.ScalingTable, raw []float64) neural.Genotype {
	clamped := pv.Clamp(raw)
	g := make(neural.Genotype, len(clamped))
	for k, gs := range neural.GeneLayout {
		r := table.Ranges[gs.Category]
		if r.Hi() == r.Lo() {
			continue
		}
		g[k] = 2*(clamped[k]-r.Lo())/(r.Hi()-r.Lo()) - 1
	}
	g.Clamp()
	return g
}
