package generators

import "math"

// -----------------------------------------------------------------------------
// Range detection and linear rescaling into clip space [-1, 1]
// -----------------------------------------------------------------------------

// axisRange is the observed [min, max] of one axis.
type axisRange struct {
	min  float64
	max  float64
	seen bool
}

// observe widens the range to include v. Non-finite samples are ignored.
func (r *axisRange) observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !r.seen {
		r.min, r.max, r.seen = v, v, true
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

// halfSpan returns (max - min) / 2, computed by halves so that two distinct
// finite bounds never overflow. Zero for an empty range.
func (r axisRange) halfSpan() float64 {
	if !r.seen {
		return 0
	}
	return r.max/2 - r.min/2
}

// scale maps v linearly so that min -> -1 and max -> 1. A degenerate axis
// (zero span) collapses every coordinate to exactly 0, as does a non-finite v.
func (r axisRange) scale(v float64) float32 {
	half := r.halfSpan()
	if !(half > 0) || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return clampUnit(2*((v/2-r.min/2)/half) - 1)
}

// clampUnit keeps rounding noise from pushing a coordinate outside [-1, 1].
func clampUnit(x float64) float32 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return float32(x)
}
