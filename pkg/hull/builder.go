package hull

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/kernel"
)

// builder accumulates elements in parameter order.
type builder struct {
	cfg      Config
	curve    kernel.Curve
	minSplit float64

	points []v3.Vec
	params []float64
	sides  [][2]v3.Vec
	kinds  []ElementKind
}

// Build constructs the hull of c. The curve's break parameters must be
// non-decreasing; intervals narrower than cfg.MinParamWidth are skipped.
func Build(c kernel.Curve, cfg Config) (*Hull, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hull config: %w", err)
	}
	breaks := c.BreakParameters()
	lo, hi, err := kernel.Domain(c)
	if err != nil {
		return nil, err
	}
	for i, u := range breaks {
		if math.IsNaN(u) || math.IsInf(u, 0) {
			return nil, fmt.Errorf("%w: break parameter %d is %g", kernel.ErrInvalidCurve, i, u)
		}
		if i > 0 && u < breaks[i-1] {
			return nil, fmt.Errorf("%w: break parameters decrease at index %d (%g < %g)",
				kernel.ErrInvalidCurve, i, u, breaks[i-1])
		}
	}

	h := &Hull{cfg: cfg, curve: c, lo: lo, hi: hi}
	if c.IsSingular() || hi-lo < cfg.MinParamWidth {
		Logger().Debug("hull: degenerate curve", "lo", lo, "hi", hi, "singular", c.IsSingular())
		h.basePoints = []v3.Vec{c.PointAt(hi)}
		h.baseParams = []float64{hi}
		return h, nil
	}

	b := &builder{cfg: cfg, curve: c, minSplit: cfg.MinSplitFraction * (hi - lo)}
	for i := 0; i+1 < len(breaks); i++ {
		from, to := breaks[i], breaks[i+1]
		if to-from < cfg.MinParamWidth {
			continue
		}
		b.subdivide(from, to, c.PointAt(from), c.PointAt(to))
	}
	b.points = append(b.points, c.PointAt(hi))
	b.params = append(b.params, hi)

	h.basePoints, h.baseParams = b.points, b.params
	h.sideVertices, h.kinds = b.sides, b.kinds
	h.frames = make([]frameSlot, len(b.kinds))
	Logger().Debug("hull: built", "elements", len(b.kinds), "lo", lo, "hi", hi)
	return h, nil
}

// subdivide bisects [from, to] until the tangent planes at its ends are
// close enough, then emits the element.
func (b *builder) subdivide(from, to float64, pf, pt v3.Vec) {
	el, split := shape(b.curve, from, to, pf, pt, b.cfg)
	if split && to-from > b.minSplit {
		mid := 0.5 * (from + to)
		pm := b.curve.PointAt(mid)
		b.subdivide(from, mid, pf, pm)
		b.subdivide(mid, to, pm, pt)
		return
	}
	b.points = append(b.points, el.p0)
	b.params = append(b.params, el.lo)
	b.sides = append(b.sides, [2]v3.Vec{el.a, el.b})
	b.kinds = append(b.kinds, el.kind)
}

// sub builds the element over a sub-interval of the curve, for queries
// that refine below the hull's own resolution.
func (h *Hull) sub(lo, hi float64) cell {
	el, _ := shape(h.curve, lo, hi, h.curve.PointAt(lo), h.curve.PointAt(hi), h.cfg)
	return el
}

// halves splits an element at its parameter midpoint.
func (h *Hull) halves(c cell) (cell, cell) {
	m := c.mid()
	pm := h.curve.PointAt(m)
	l, _ := shape(h.curve, c.lo, m, c.p0, pm, h.cfg)
	r, _ := shape(h.curve, m, c.hi, pm, c.p1, h.cfg)
	return l, r
}
