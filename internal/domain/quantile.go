package domain

import (
	"math"
	"sort"
)

// ProfileQuantiles are the probabilities of the four per-station breakpoints.
var ProfileQuantiles = [4]float64{0.20, 0.40, 0.60, 0.80}

// Breakpoints are a field's 20th/40th/60th/80th percentiles at one station.
type Breakpoints [4]float64

// QuantileFields are the fields labeled against their own station's history.
var QuantileFields = []Field{NO, NOx, NMHC, CH4, THC, SP, WS, Temp, Hum}

// QuantileProfile maps each data-driven field to its breakpoints. A field
// missing from the map (all values null) has no breakpoints.
type QuantileProfile map[Field]Breakpoints

// Breakpoint returns the i-th breakpoint of f, or nil when f has no profile.
func (p QuantileProfile) Breakpoint(f Field, i int) *float64 {
	if p == nil {
		return nil
	}
	b, ok := p[f]
	if !ok || i < 0 || i >= len(b) {
		return nil
	}
	return Float(b[i])
}

// NewBreakpoints computes the profile breakpoints of values using QuantileCont.
// It returns false when values is empty. values is sorted in place.
func NewBreakpoints(values []float64) (Breakpoints, bool) {
	if len(values) == 0 {
		return Breakpoints{}, false
	}
	sort.Float64s(values)
	var b Breakpoints
	for i, q := range ProfileQuantiles {
		b[i] = QuantileCont(values, q)
	}
	return b, true
}

// QuantileCont is the continuous quantile of an ascending sample: linear
// interpolation between the order statistics around position q*(n-1).
// sorted must be non-empty.
func QuantileCont(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	l, h := sorted[int(lo)], sorted[int(hi)]
	if lo == hi {
		return l
	}
	return l + (pos-lo)*(h-l)
}
