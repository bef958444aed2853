package hull

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/kernel"
)

// PlaneHit is one point where a curve meets a plane.
type PlaneHit struct {
	Point v3.Vec  `json:"point"`
	UV    v2.Vec  `json:"uv"` // coordinates in the plane's frame
	Param float64 `json:"param"`
	// Solved is set when the hit came from Newton or bisection rather
	// than from an element vertex or a tangential touch.
	Solved bool `json:"solved"`

	gap float64 // |signed distance| of an unsolved hit
}

// PlaneIntersection returns the points where the curve meets pl, in
// parameter order.
func (h *Hull) PlaneIntersection(pl kernel.Plane) []PlaneHit {
	if h.Degenerate() {
		if len(h.basePoints) == 1 && math.Abs(pl.SignedDistance(h.basePoints[0])) <= h.cfg.GeometricEpsilon {
			return []PlaneHit{h.planeHit(pl, h.baseParams[0], false)}
		}
		return nil
	}
	var hits []PlaneHit
	for i := 0; i < h.Len(); i++ {
		hits = h.planeCell(pl, h.cell(i), hits)
	}
	return h.dedupPlaneHits(hits)
}

func (h *Hull) planeHit(pl kernel.Plane, u float64, solved bool) PlaneHit {
	p := h.curve.PointAt(u)
	return PlaneHit{Point: p, UV: pl.UV(p), Param: u, Solved: solved, gap: math.Abs(pl.SignedDistance(p))}
}

func (h *Hull) planeCell(pl kernel.Plane, c cell, hits []PlaneHit) []PlaneHit {
	eps := h.cfg.GeometricEpsilon
	z0, z1 := pl.SignedDistance(c.p0), pl.SignedDistance(c.p1)
	on0, on1 := math.Abs(z0) <= eps, math.Abs(z1) <= eps
	if on0 {
		hits = append(hits, h.planeHit(pl, c.lo, false))
	}
	if on1 {
		hits = append(hits, h.planeHit(pl, c.hi, false))
	}
	if !on0 && !on1 && z0*z1 < 0 {
		return append(hits, h.planeRoot(pl, c.lo, c.hi, z0, z1))
	}
	if on0 && on1 {
		return hits
	}

	// Both ends on one side: the curve can still touch the plane if a
	// side vertex reaches it.
	ref := z0
	if on0 {
		ref = z1
	}
	if pl.SignedDistance(c.a)*ref > 0 && pl.SignedDistance(c.b)*ref > 0 {
		return hits
	}
	g0, g1 := h.slope(c.lo, pl.Normal), h.slope(c.hi, pl.Normal)
	if g0*g1 < 0 {
		return h.planeTurn(pl, c, z0, z1, on0, on1, g0, hits)
	}
	if c.width()/h.span() > h.cfg.SubdivideWidth {
		l, r := h.halves(c)
		hits = h.planeCell(pl, l, hits)
		return h.planeCell(pl, r, hits)
	}
	return hits
}

// planeTurn handles an element whose distance to the plane turns once
// between its ends. The turning point is either a touch, or splits the
// element into two crossings.
func (h *Hull) planeTurn(pl kernel.Plane, c cell, z0, z1 float64, on0, on1 bool, g0 float64, hits []PlaneHit) []PlaneHit {
	eps := h.cfg.GeometricEpsilon
	u := h.bisectSlope(c.lo, c.hi, g0, pl.Normal)
	z := pl.SignedDistance(h.curve.PointAt(u))
	ref := z0
	if on0 {
		ref = z1
	}
	switch {
	case math.Abs(z) <= eps:
		return append(hits, h.planeHit(pl, u, false))
	case z*ref > 0:
		return hits
	}
	if !on0 {
		hits = append(hits, h.planeRoot(pl, c.lo, u, z0, z))
	}
	if !on1 {
		hits = append(hits, h.planeRoot(pl, u, c.hi, z, z1))
	}
	return hits
}

// planeRoot finds the crossing in [lo, hi], whose end distances have
// opposite signs.
func (h *Hull) planeRoot(pl kernel.Plane, lo, hi, zlo, zhi float64) PlaneHit {
	u, ok := h.solvePlane(pl, lo, hi, zlo, zhi)
	if !ok {
		u = h.bisectPlane(pl, lo, hi, zlo)
	}
	return h.planeHit(pl, u, true)
}

// solvePlane runs Newton's method on the signed distance from the linear
// interpolation of the end distances.
func (h *Hull) solvePlane(pl kernel.Plane, lo, hi, z0, z1 float64) (float64, bool) {
	u := lo + (hi-lo)*z0/(z0-z1)
	s := newRootSearch(h.cfg.MaxNewtonIterations)
	for {
		z := pl.SignedDistance(h.curve.PointAt(u))
		switch s.observe(math.Abs(z), h.cfg.GeometricEpsilon) {
		case searchConverged:
			return u, true
		case searchAbandoned:
			return 0, false
		}
		dz := pl.Normal.Dot(h.curve.DirectionAt(u))
		if dz == 0 {
			return 0, false
		}
		u -= z / dz
		if u < lo || u > hi {
			return 0, false
		}
	}
}

// bisectPlane halves [lo, hi] around the sign change of the signed
// distance.
func (h *Hull) bisectPlane(pl kernel.Plane, lo, hi, zlo float64) float64 {
	for i := 0; i < 200; i++ {
		m := 0.5 * (lo + hi)
		if m <= lo || m >= hi {
			break
		}
		zm := pl.SignedDistance(h.curve.PointAt(m))
		if math.Abs(zm) <= h.cfg.GeometricEpsilon {
			return m
		}
		if (zm > 0) == (zlo > 0) {
			lo, zlo = m, zm
		} else {
			hi = m
		}
	}
	return 0.5 * (lo + hi)
}

// dedupPlaneHits merges hits closer than the dedup distance, keeping
// solved hits over unsolved ones and, among unsolved hits, the one
// nearest the plane.
func (h *Hull) dedupPlaneHits(hits []PlaneHit) []PlaneHit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Param < hits[j].Param })
	var out []PlaneHit
	for _, hit := range hits {
		k := len(out) - 1
		if k < 0 {
			out = append(out, hit)
			continue
		}
		prev := out[k]
		if prev.Point.Sub(hit.Point).Length() > h.cfg.DedupDistance {
			out = append(out, hit)
			continue
		}
		switch {
		case hit.Solved && !prev.Solved:
			out[k] = hit
		case !hit.Solved && !prev.Solved && hit.gap < prev.gap:
			out[k] = hit
		}
	}
	if k := len(out) - 1; k > 0 && h.curve.IsClosed() && out[0].Point.Sub(out[k].Point).Length() <= h.cfg.DedupDistance {
		out = out[:k]
	}
	return out
}
