package hull

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// GetExtrema returns the curve parameters, in increasing order, where the
// tangent is perpendicular to dir: the extrema of the curve's projection
// onto dir. A zero direction yields nothing.
func (h *Hull) GetExtrema(dir v3.Vec) []float64 {
	n := len(h.baseParams)
	if n < 2 || dir.Length() == 0 {
		return nil
	}
	signs := make([]float64, n)
	flat := true
	for i, u := range h.baseParams {
		signs[i] = h.slope(u, dir)
		flat = flat && signs[i] == 0
	}
	if flat {
		// The projection is constant; no point is an isolated extremum.
		return nil
	}

	var out []float64
	closed := h.curve.IsClosed()
	for i, s := range signs {
		if s == 0 && turns(signs, i, closed) {
			out = append(out, h.baseParams[i])
		}
	}
	for i := 0; i+1 < n; i++ {
		if signs[i]*signs[i+1] < 0 {
			out = append(out, h.bisectSlope(h.baseParams[i], h.baseParams[i+1], signs[i], dir))
		}
	}
	sort.Float64s(out)
	out = dedupParams(out, h.cfg.ExtremaWidth)
	if k := len(out); k > 1 && h.curve.IsClosed() && out[0] == h.lo && out[k-1] == h.hi {
		out = out[:k-1]
	}
	return out
}

// slope is the tangent's component along dir, snapped to zero when it is
// negligible against the tangent length.
func (h *Hull) slope(u float64, dir v3.Vec) float64 {
	d := h.curve.DirectionAt(u)
	s := d.Dot(dir)
	if math.Abs(s) <= 1e-12*d.Length()*dir.Length() {
		return 0
	}
	return s
}

// bisectSlope narrows a sign change of the slope in [a, b] down to the
// extrema width.
func (h *Hull) bisectSlope(a, b, sa float64, dir v3.Vec) float64 {
	for i := 0; i < 200 && b-a > h.cfg.ExtremaWidth; i++ {
		m := 0.5 * (a + b)
		sm := h.slope(m, dir)
		if sm == 0 {
			return m
		}
		if (sm > 0) == (sa > 0) {
			a, sa = m, sm
		} else {
			b = m
		}
	}
	return 0.5 * (a + b)
}

// turns reports whether the slope changes sign across the zero slope at
// base point i. An open curve end with zero slope counts as a turn.
func turns(signs []float64, i int, closed bool) bool {
	l, r := neighbourSign(signs, i, -1, closed), neighbourSign(signs, i, 1, closed)
	if l == 0 || r == 0 {
		return true
	}
	return l*r < 0
}

// neighbourSign returns the first nonzero slope from base point i in
// direction step, wrapping around a closed curve whose last base point
// repeats the first. It returns zero when there is none.
func neighbourSign(signs []float64, i, step int, closed bool) float64 {
	n := len(signs)
	for k := 1; k < n; k++ {
		j := i + k*step
		if closed {
			j = (j%(n-1) + n - 1) % (n - 1)
		} else if j < 0 || j >= n {
			return 0
		}
		if signs[j] != 0 {
			return signs[j]
		}
	}
	return 0
}

// dedupParams drops sorted values within tol of their predecessor.
func dedupParams(us []float64, tol float64) []float64 {
	if len(us) == 0 {
		return us
	}
	out := us[:1]
	for _, u := range us[1:] {
		if u-out[len(out)-1] > tol {
			out = append(out, u)
		}
	}
	return out
}
