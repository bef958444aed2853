// Package hull answers geometric queries against any kernel.Curve through
// a chain of tetrahedral elements that together enclose the curve. Each
// element spans a parameter interval and is bounded by the curve's
// tangent planes at the interval ends, which keeps Newton iterations
// local and lets a spatial index prune most of the curve.
package hull

import (
	"sync"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/kernel"
)

// Hull is the built element chain of one curve. A Hull is immutable after
// Build and safe for concurrent queries.
type Hull struct {
	cfg    Config
	curve  kernel.Curve
	lo, hi float64

	// Element i spans baseParams[i]..baseParams[i+1] with end points
	// basePoints[i], basePoints[i+1] and side vertices sideVertices[i].
	basePoints   []v3.Vec
	baseParams   []float64
	sideVertices [][2]v3.Vec
	kinds        []ElementKind
	frames       []frameSlot

	indexOnce sync.Once
	index     *Index
}

// frameSlot memoizes an element's unit frame.
type frameSlot struct {
	once  sync.Once
	frame unitFrame
}

// Curve returns the curve the hull was built from.
func (h *Hull) Curve() kernel.Curve { return h.curve }

// Config returns the tolerances the hull was built with.
func (h *Hull) Config() Config { return h.cfg }

// Domain returns the curve's parameter range.
func (h *Hull) Domain() (lo, hi float64) { return h.lo, h.hi }

// Len returns the number of elements.
func (h *Hull) Len() int { return len(h.kinds) }

// Degenerate reports whether the hull has fewer than two base points.
func (h *Hull) Degenerate() bool { return len(h.basePoints) < 2 }

// BaseParams returns a copy of the element boundary parameters.
func (h *Hull) BaseParams() []float64 {
	return append([]float64(nil), h.baseParams...)
}

// BasePoints returns a copy of the element boundary points.
func (h *Hull) BasePoints() []v3.Vec {
	return append([]v3.Vec(nil), h.basePoints...)
}

// Kind returns the shape of element i.
func (h *Hull) Kind(i int) ElementKind { return h.kinds[i] }

// Interval returns the parameter range of element i.
func (h *Hull) Interval(i int) (lo, hi float64) {
	return h.baseParams[i], h.baseParams[i+1]
}

// Corners returns the base points and side vertices of element i.
func (h *Hull) Corners(i int) [4]v3.Vec {
	return h.cell(i).corners()
}

// Bounds returns the padded box of element i.
func (h *Hull) Bounds(i int) sdf.Box3 {
	return h.cell(i).bounds(h.cfg.GeometricEpsilon)
}

// Contains reports whether p lies inside element i.
func (h *Hull) Contains(i int, p v3.Vec) bool {
	return h.frame(i).contains(p)
}

// Overlap reports whether element i of h and element j of o may share a
// point: their boxes intersect and no face of either separates them.
func (h *Hull) Overlap(i int, o *Hull, j int) bool {
	a, b := h.cell(i), o.cell(j)
	if !kernel.BoxesOverlap(a.bounds(h.cfg.GeometricEpsilon), b.bounds(o.cfg.GeometricEpsilon)) {
		return false
	}
	return !h.frame(i).separates(b.corners()) && !o.frame(j).separates(a.corners())
}

// Coverage reports whether consecutive elements share their boundary
// parameters and the chain spans the whole domain.
func (h *Hull) Coverage() bool {
	n := len(h.baseParams)
	if n == 0 {
		return false
	}
	if n == 1 {
		return len(h.kinds) == 0
	}
	if len(h.kinds) != n-1 || len(h.sideVertices) != n-1 || len(h.basePoints) != n {
		return false
	}
	if h.baseParams[n-1] != h.hi || h.baseParams[0]-h.lo > h.cfg.MinParamWidth {
		return false
	}
	for i := 1; i < n; i++ {
		if !(h.baseParams[i] > h.baseParams[i-1]) {
			return false
		}
	}
	return true
}

func (h *Hull) cell(i int) cell {
	return cell{
		lo: h.baseParams[i], hi: h.baseParams[i+1],
		p0: h.basePoints[i], p1: h.basePoints[i+1],
		a: h.sideVertices[i][0], b: h.sideVertices[i][1],
		kind: h.kinds[i],
	}
}

func (h *Hull) frame(i int) unitFrame {
	s := &h.frames[i]
	s.once.Do(func() {
		s.frame = newUnitFrame(h.cell(i))
	})
	return s.frame
}

// normalize maps a curve parameter to [0, 1] over the domain.
func (h *Hull) normalize(u float64) float64 {
	if h.hi == h.lo {
		return 0
	}
	return (u - h.lo) / (h.hi - h.lo)
}

// span is the domain width, or 1 for a degenerate domain.
func (h *Hull) span() float64 {
	if w := h.hi - h.lo; w > 0 {
		return w
	}
	return 1
}
