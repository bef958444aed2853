package hull

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// candidate is a curve parameter with its distance to the target.
type candidate struct {
	u    float64
	dist float64
}

func (c *candidate) offer(u, dist float64) {
	if dist < c.dist {
		c.u, c.dist = u, dist
	}
}

// PositionOf returns the normalized parameter in [0, 1] of the curve point
// closest to target. On a closed curve the start is preferred over the end.
// ok is false only for an empty hull.
func (h *Hull) PositionOf(target v3.Vec) (float64, bool) {
	u, _, ok := h.ClosestParameter(target)
	if !ok {
		return 0, false
	}
	t := h.normalize(u)
	if h.curve.IsClosed() && t >= 1-1e-12 {
		t = 0
	}
	return math.Max(0, math.Min(1, t)), true
}

// ClosestParameter returns the curve parameter of the point closest to
// target and its distance.
func (h *Hull) ClosestParameter(target v3.Vec) (u, dist float64, ok bool) {
	if len(h.basePoints) == 0 {
		return 0, math.Inf(1), false
	}
	if h.Degenerate() {
		d0 := h.curve.PointAt(h.lo).Sub(target).Length()
		d1 := h.curve.PointAt(h.hi).Sub(target).Length()
		if d1 < d0 {
			return h.hi, d1, true
		}
		return h.lo, d0, true
	}

	ix := h.Index()
	limit := ix.searchRadius(target)
	size := math.Max(h.cfg.GeometricEpsilon, 1e-6*limit)
	var cands []int
	for size <= limit {
		if cands = ix.Search(around(target, size)); len(cands) > 0 {
			break
		}
		size *= 2
	}
	if len(cands) == 0 {
		cands = make([]int, h.Len())
		for i := range cands {
			cands[i] = i
		}
	}

	best := candidate{dist: math.Inf(1)}
	seen := make(map[int]bool, len(cands))
	for _, i := range cands {
		seen[i] = true
		c := h.closestInElement(i, target)
		best.offer(c.u, c.dist)
	}
	// Any element holding a closer point meets the box of the best
	// distance found so far.
	for _, i := range ix.Search(around(target, best.dist+h.cfg.GeometricEpsilon)) {
		if seen[i] {
			continue
		}
		c := h.closestInElement(i, target)
		best.offer(c.u, c.dist)
	}
	return best.u, best.dist, true
}

// closestInElement runs Newton's method on (P(u)-target).P'(u) = 0 from the
// element midpoint, keeping the best point seen including the element's
// base points. A search that does not converge falls back to bisection.
func (h *Hull) closestInElement(i int, target v3.Vec) candidate {
	lo, hi := h.Interval(i)
	best := candidate{u: lo, dist: h.basePoints[i].Sub(target).Length()}
	best.offer(hi, h.basePoints[i+1].Sub(target).Length())

	s := newRootSearch(h.cfg.MaxNewtonIterations)
	u := 0.5 * (lo + hi)
	for {
		r := h.curve.PointAt(u).Sub(target)
		dist := r.Length()
		best.offer(u, dist)
		if s.observe(dist, h.cfg.GeometricEpsilon).done() {
			break
		}
		d := h.curve.DirectionAt(u)
		dd := d.Dot(d)
		if dd == 0 {
			break
		}
		delta := -r.Dot(d) / dd
		if math.Abs(delta) <= 1e-12*(hi-lo) {
			s.settle()
			break
		}
		next, dir := u+delta, 0
		if next < lo {
			next, dir = lo, -1
		} else if next > hi {
			next, dir = hi, 1
		}
		if s.clip(dir).done() {
			break
		}
		u = next
	}
	if s.state != searchConverged {
		if u, ok := h.bisectClosest(lo, hi, target); ok {
			best.offer(u, h.curve.PointAt(u).Sub(target).Length())
		}
	}
	return best
}

// bisectClosest brackets a minimum of the distance in [lo, hi] by the sign
// change of (P(u)-target).P'(u) from negative to positive.
func (h *Hull) bisectClosest(lo, hi float64, target v3.Vec) (float64, bool) {
	f := func(u float64) float64 {
		return h.curve.PointAt(u).Sub(target).Dot(h.curve.DirectionAt(u))
	}
	if !(f(lo) < 0 && f(hi) > 0) {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		m := 0.5 * (lo + hi)
		if m <= lo || m >= hi {
			break
		}
		if f(m) < 0 {
			lo = m
		} else {
			hi = m
		}
	}
	return 0.5 * (lo + hi), true
}
