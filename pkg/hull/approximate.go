package hull

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/kernel"
)

// Approximate returns a chain of lines, and arcs unless linesOnly is set,
// that stays within maxError of the curve. Each element is bisected while
// its midpoint strays more than maxError from the chord; a circular arc
// through the ends and the midpoint replaces the chord when it also
// passes within maxError of the quarter points.
func (h *Hull) Approximate(linesOnly bool, maxError float64) (*kernel.Approximation, error) {
	if !(maxError > 0) {
		return nil, fmt.Errorf("approximate: max error %g must be positive", maxError)
	}
	out := &kernel.Approximation{}
	for i := 0; i < h.Len(); i++ {
		lo, hi := h.Interval(i)
		h.approximate(out, lo, hi, h.basePoints[i], h.basePoints[i+1], linesOnly, maxError)
	}
	return out, nil
}

func (h *Hull) approximate(out *kernel.Approximation, lo, hi float64, p0, p1 v3.Vec, linesOnly bool, maxError float64) {
	mid := 0.5 * (lo + hi)
	pm := h.curve.PointAt(mid)
	seg := kernel.Segment{Start: p0, Mid: pm, End: p1, StartParam: lo, EndParam: hi}
	narrow := (hi-lo)/h.span() <= h.cfg.SubdivideWidth
	if narrow || kernel.SegmentDistance(pm, p0, p1) <= maxError {
		out.Segments = append(out.Segments, seg)
		return
	}
	if !linesOnly {
		seg.Arc = true
		q1 := h.curve.PointAt(0.5 * (lo + mid))
		q3 := h.curve.PointAt(0.5 * (mid + hi))
		if seg.Distance(q1) <= maxError && seg.Distance(q3) <= maxError {
			out.Segments = append(out.Segments, seg)
			return
		}
	}
	h.approximate(out, lo, mid, p0, pm, linesOnly, maxError)
	h.approximate(out, mid, hi, pm, p1, linesOnly, maxError)
}
