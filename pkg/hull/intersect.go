package hull

import (
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/curvekit/pkg/kernel"
)

// CurveHit is one intersection of two curves.
type CurveHit struct {
	ParamA float64 `json:"paramA"`
	ParamB float64 `json:"paramB"`
	Point  v3.Vec  `json:"point"`

	gap float64 // separation of the two curve points
}

// pairResult is the outcome of Newton's method on one element pair.
type pairResult int

const (
	pairFound pairResult = iota
	pairSeparated
	pairFailed
)

// tangentSine is the sine between the two tangents below which a
// converged hit is treated as a touch and refined.
const tangentSine = 1e-3

// Intersect returns the points where the curve of h meets the curve of o,
// ordered by the parameter on h. Overlapping coincident stretches produce
// one hit per overlapping element pair rather than a range, and a touch
// with parallel tangents is reported once at the closest approach. The hull with
// fewer elements is walked and the other one's index is searched.
func (h *Hull) Intersect(o *Hull) []CurveHit {
	if h.Degenerate() || o.Degenerate() {
		return nil
	}
	var hits []CurveHit
	if h.Len() <= o.Len() {
		ix := o.Index()
		for i := 0; i < h.Len(); i++ {
			for _, j := range ix.Search(h.Bounds(i)) {
				hits = h.intersectElements(o, i, j, hits)
			}
		}
	} else {
		ix := h.Index()
		for j := 0; j < o.Len(); j++ {
			for _, i := range ix.Search(o.Bounds(j)) {
				hits = h.intersectElements(o, i, j, hits)
			}
		}
	}
	return h.dedupCurveHits(hits)
}

func (h *Hull) intersectElements(o *Hull, i, j int, hits []CurveHit) []CurveHit {
	if !h.Overlap(i, o, j) {
		return hits
	}
	return h.intersectCells(o, h.cell(i), o.cell(j), hits)
}

func (h *Hull) intersectCells(o *Hull, a, b cell, hits []CurveHit) []CurveHit {
	hit, res := h.solvePair(o, a, b)
	switch res {
	case pairFound:
		if !h.tangential(o, hit) {
			return append(hits, hit)
		}
		// Newton stops anywhere the gap drops below tolerance along a
		// touch; the touch itself is the closest approach.
		if touch, ok := h.touchPair(o, a); ok {
			return append(hits, touch)
		}
		return hits
	case pairSeparated:
		return hits
	}
	if touch, ok := h.touchPair(o, a); ok {
		return append(hits, touch)
	}

	wideA := a.width()/h.span() > h.cfg.SubdivideWidth
	wideB := b.width()/o.span() > o.cfg.SubdivideWidth
	if !wideA && !wideB {
		pa, pb := h.curve.PointAt(a.mid()), o.curve.PointAt(b.mid())
		hit := CurveHit{ParamA: a.mid(), ParamB: b.mid(), Point: pa.Add(pb).MulScalar(0.5), gap: pa.Sub(pb).Length()}
		if hit.gap <= h.cfg.GeometricEpsilon && !h.tangential(o, hit) {
			hits = append(hits, hit)
		}
		return hits
	}
	as, bs := []cell{a}, []cell{b}
	if wideA {
		l, r := h.halves(a)
		as = []cell{l, r}
	}
	if wideB {
		l, r := o.halves(b)
		bs = []cell{l, r}
	}
	for _, x := range as {
		for _, y := range bs {
			if kernel.BoxesOverlap(x.bounds(h.cfg.GeometricEpsilon), y.bounds(o.cfg.GeometricEpsilon)) && cellsOverlap(x, y) {
				hits = h.intersectCells(o, x, y, hits)
			}
		}
	}
	return hits
}

// solvePair runs a two parameter Newton iteration on A(s) - B(t) = 0 from
// the element midpoints. Each step solves the 3x3 system spanned by both
// tangents and their normal, whose third unknown absorbs the out of plane
// residual.
func (h *Hull) solvePair(o *Hull, a, b cell) (CurveHit, pairResult) {
	s, t := a.mid(), b.mid()
	slackA, slackB := 1e-9*a.width(), 1e-9*b.width()
	rs := newRootSearch(h.cfg.MaxNewtonIterations)
	m := mat.NewDense(3, 3, nil)
	rhs := mat.NewVecDense(3, nil)
	var x mat.VecDense
	for {
		pa, pb := h.curve.PointAt(s), o.curve.PointAt(t)
		r := pa.Sub(pb)
		switch rs.observe(r.Length(), h.cfg.GeometricEpsilon) {
		case searchConverged:
			return CurveHit{ParamA: s, ParamB: t, Point: pa.Add(pb).MulScalar(0.5), gap: r.Length()}, pairFound
		case searchAbandoned:
			return CurveHit{}, pairFailed
		}
		da, db := h.curve.DirectionAt(s), o.curve.DirectionAt(t)
		n := da.Cross(db)
		if n.Length2() <= 1e-20*da.Length2()*db.Length2() {
			return CurveHit{}, pairFailed
		}
		for row, c := range [3][3]float64{
			{da.X, -db.X, n.X},
			{da.Y, -db.Y, n.Y},
			{da.Z, -db.Z, n.Z},
		} {
			m.SetRow(row, c[:])
		}
		rhs.SetVec(0, -r.X)
		rhs.SetVec(1, -r.Y)
		rhs.SetVec(2, -r.Z)
		if err := x.SolveVec(m, rhs); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return CurveHit{}, pairFailed
			}
		}
		ds, dt := x.AtVec(0), x.AtVec(1)
		if math.Abs(ds) <= 1e-12*a.width() && math.Abs(dt) <= 1e-12*b.width() {
			// Stationary with a gap: the curves pass without meeting.
			return CurveHit{}, pairSeparated
		}
		s, t = s+ds, t+dt
		if s < a.lo-slackA || s > a.hi+slackA || t < b.lo-slackB || t > b.hi+slackB {
			return CurveHit{}, pairFailed
		}
		s = math.Max(a.lo, math.Min(a.hi, s))
		t = math.Max(b.lo, math.Min(b.hi, t))
	}
}

// tangential reports whether the curves meet at hit with nearly parallel
// tangents.
func (h *Hull) tangential(o *Hull, hit CurveHit) bool {
	da, db := h.curve.DirectionAt(hit.ParamA), o.curve.DirectionAt(hit.ParamB)
	l := da.Length() * db.Length()
	return l == 0 || da.Cross(db).Length() <= tangentSine*l
}

// touchPair looks for the closest approach of the curve over a to the
// curve of o. The squared gap to the nearest point of o has derivative
// 2(A(s)-B(t)).A'(s) in s, so a minimum inside a is bracketed where that
// changes sign from negative to positive and found by bisection. The
// approach is a hit when the curves are within the dedup distance there.
// A pair whose curves coincide at both ends and the middle of a is a
// coincident stretch and reports its start. Without a bracket, an end of
// a lying on the other curve is reported.
func (h *Hull) touchPair(o *Hull, a cell) (CurveHit, bool) {
	approach := func(s float64) (CurveHit, float64) {
		pa := h.curve.PointAt(s)
		t, _, _ := o.ClosestParameter(pa)
		pb := o.curve.PointAt(t)
		r := pa.Sub(pb)
		hit := CurveHit{ParamA: s, ParamB: t, Point: pa.Add(pb).MulScalar(0.5), gap: r.Length()}
		return hit, r.Dot(h.curve.DirectionAt(s))
	}
	eps := h.cfg.GeometricEpsilon
	start, glo := approach(a.lo)
	end, ghi := approach(a.hi)
	if start.gap <= eps && end.gap <= eps {
		if mid, _ := approach(a.mid()); mid.gap <= eps {
			return start, true
		}
	}
	if !(glo < 0 && ghi >= 0) {
		switch {
		case start.gap <= eps:
			return start, true
		case end.gap <= eps:
			return end, true
		}
		return CurveHit{}, false
	}
	lo, hi := a.lo, a.hi
	best := end
	for i := 0; i < 200 && hi-lo > h.cfg.ExtremaWidth; i++ {
		m := 0.5 * (lo + hi)
		hit, g := approach(m)
		if hit.gap < best.gap {
			best = hit
		}
		if g < 0 {
			lo = m
		} else {
			hi = m
		}
	}
	if hit, _ := approach(0.5 * (lo + hi)); hit.gap < best.gap {
		best = hit
	}
	return best, best.gap <= h.cfg.DedupDistance
}

// dedupCurveHits merges hits closer than the dedup distance, keeping the
// one whose curve points are closest together.
func (h *Hull) dedupCurveHits(hits []CurveHit) []CurveHit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].ParamA < hits[j].ParamA })
	var out []CurveHit
	for _, hit := range hits {
		dup := false
		for k, prev := range out {
			if prev.Point.Sub(hit.Point).Length() <= h.cfg.DedupDistance {
				if hit.gap < prev.gap {
					out[k] = hit
				}
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, hit)
		}
	}
	return out
}
