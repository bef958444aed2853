package hull

import v3 "github.com/deadsy/sdfx/vec/v3"

// SameGeometry reports whether the curves of h and o trace the same point
// set within precision, in either orientation. Base points and element
// midpoints of each curve are projected onto the other.
func (h *Hull) SameGeometry(o *Hull, precision float64) bool {
	if h.Degenerate() != o.Degenerate() {
		return false
	}
	hs, he := h.curve.PointAt(h.lo), h.curve.PointAt(h.hi)
	os, oe := o.curve.PointAt(o.lo), o.curve.PointAt(o.hi)
	near := func(a, b v3.Vec) bool { return a.Sub(b).Length() <= precision }
	if h.curve.IsClosed() != o.curve.IsClosed() {
		return false
	}
	if !h.curve.IsClosed() {
		forward := near(hs, os) && near(he, oe)
		reversed := near(hs, oe) && near(he, os)
		if !forward && !reversed {
			return false
		}
	}
	return h.within(o, precision) && o.within(h, precision)
}

// within reports whether every sample of h lies within precision of o.
func (h *Hull) within(o *Hull, precision float64) bool {
	for i, p := range h.basePoints {
		if _, d, ok := o.ClosestParameter(p); !ok || d > precision {
			return false
		}
		if i+1 < len(h.basePoints) {
			lo, hi := h.Interval(i)
			m := h.curve.PointAt(0.5 * (lo + hi))
			if _, d, ok := o.ClosestParameter(m); !ok || d > precision {
				return false
			}
		}
	}
	return true
}
