package hull

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/curvekit/pkg/kernel"
)

// ElementKind identifies the shape of a hull element.
type ElementKind int

const (
	// ElementLinear is a straight segment; both side vertices sit on the
	// chord midpoint.
	ElementLinear ElementKind = iota
	// ElementFlat is a triangle; both side vertices coincide.
	ElementFlat
	// ElementTetra is a proper tetrahedron.
	ElementTetra
)

// String implements fmt.Stringer.
func (k ElementKind) String() string {
	switch k {
	case ElementLinear:
		return "linear"
	case ElementFlat:
		return "flat"
	case ElementTetra:
		return "tetra"
	default:
		return "unknown"
	}
}

const (
	// parallelSine is the sine below which a tangent counts as parallel
	// to the chord.
	parallelSine = 1e-9
	// shortCross is the smallest cross product sine that still allows a
	// tangent split.
	shortCross = 1e-6
	// farVertex bounds side vertex distance from the chord midpoint, in
	// chord lengths.
	farVertex = 10.0
	// cellPad pads element boxes by this fraction of the chord.
	cellPad = 0.01
	// frameTol is the unit frame containment tolerance.
	frameTol = 1e-9
	// overlapTol is the slack of the unit frame separation test.
	overlapTol = 0.05
	// maxCondition is the largest frame condition number used as is.
	maxCondition = 1e12
)

// cell is a tetrahedral element over [lo, hi]: the base points p0 and p1
// and the side vertices a and b.
type cell struct {
	lo, hi float64
	p0, p1 v3.Vec
	a, b   v3.Vec
	kind   ElementKind
}

func (c cell) width() float64 { return c.hi - c.lo }

func (c cell) mid() float64 { return 0.5 * (c.lo + c.hi) }

func (c cell) corners() [4]v3.Vec {
	return [4]v3.Vec{c.p0, c.p1, c.a, c.b}
}

func (c cell) chord() float64 {
	return c.p1.Sub(c.p0).Length()
}

// bounds is the padded axis-aligned box around the four corners.
func (c cell) bounds(eps float64) sdf.Box3 {
	b := kernel.BoundingBox(c.p0, c.p1, c.a, c.b)
	return kernel.Pad(b, eps+cellPad*c.chord())
}

func linearCell(lo, hi float64, p0, p1 v3.Vec) cell {
	m := p0.Add(p1).MulScalar(0.5)
	return cell{lo: lo, hi: hi, p0: p0, p1: p1, a: m, b: m, kind: ElementLinear}
}

// perpendicular returns the component of v orthogonal to d.
func perpendicular(v, d v3.Vec) v3.Vec {
	return v.Sub(d.MulScalar(v.Dot(d) / d.Dot(d)))
}

// shape builds the element over [lo, hi] from the tangent planes at its
// ends. It reports whether the tangents turn far enough that the interval
// should be bisected; the returned cell is valid either way.
func shape(c kernel.Curve, lo, hi float64, p0, p1 v3.Vec, cfg Config) (cell, bool) {
	lin := linearCell(lo, hi, p0, p1)
	chord := p1.Sub(p0)
	cl := chord.Length()
	d0, d1 := c.DirectionAt(lo), c.DirectionAt(hi)
	l0, l1 := d0.Length(), d1.Length()
	if cl == 0 || l0 == 0 || l1 == 0 {
		return lin, false
	}
	s0 := chord.Cross(d0).Length() / (cl * l0)
	s1 := chord.Cross(d1).Length() / (cl * l1)
	if s0 <= parallelSine || s1 <= parallelSine {
		return lin, false
	}

	// Tangent plane normals, both pointing from the tangent toward the
	// chord's far end.
	n0 := perpendicular(chord, d0)
	n1 := perpendicular(chord.MulScalar(-1), d1)
	cosine := n0.Dot(n1) / (n0.Length() * n1.Length())
	split := cosine < cfg.TangentCosine && s0 > shortCross && s1 > shortCross

	u := n0.Cross(n1)
	uu := u.Dot(u)
	if uu <= 1e-18*n0.Length2()*n1.Length2() {
		return lin, split
	}
	// Any point on the line where the tangent planes meet.
	k0, k1 := n0.Dot(p0), n1.Dot(p1)
	base := n1.Cross(u).MulScalar(k0).Add(u.Cross(n0).MulScalar(k1)).DivScalar(uu)

	m0 := chord.Cross(d0)
	m1 := chord.Cross(d1)
	den0, den1 := m0.Dot(u), m1.Dot(u)
	if math.Abs(den0) <= 1e-12*m0.Length()*math.Sqrt(uu) || math.Abs(den1) <= 1e-12*m1.Length()*math.Sqrt(uu) {
		return lin, split
	}
	va := base.Add(u.MulScalar(m0.Dot(p0.Sub(base)) / den0))
	vb := base.Add(u.MulScalar(m1.Dot(p0.Sub(base)) / den1))

	mid := lin.a
	if va.Sub(mid).Length() > farVertex*cl || vb.Sub(mid).Length() > farVertex*cl {
		Logger().Debug("hull: side vertices too far, using linear element", "lo", lo, "hi", hi)
		return lin, split
	}
	out := cell{lo: lo, hi: hi, p0: p0, p1: p1, a: va, b: vb, kind: ElementTetra}
	if va.Sub(vb).Length() <= cfg.GeometricEpsilon*(1+cl) {
		out.b = va
		out.kind = ElementFlat
		return out, split
	}
	if va.Sub(p0).Cross(vb.Sub(p0)).Dot(chord) < 0 {
		out.a, out.b = vb, va
	}
	return out, split
}

// unitFrame maps world points into the element's local coordinates, where
// the element is the unit simplex spanned by p1, a and b from p0.
type unitFrame struct {
	origin v3.Vec
	inv    *mat.Dense
	kind   ElementKind
}

// orthonormalPair returns two unit vectors orthogonal to d and each other.
func orthonormalPair(d v3.Vec) (v3.Vec, v3.Vec) {
	n := d.Normalize()
	seed := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.6 {
		seed = v3.Vec{Y: 1}
	}
	e1 := perpendicular(seed, n).Normalize()
	return e1, n.Cross(e1)
}

func newUnitFrame(c cell) unitFrame {
	e0 := c.p1.Sub(c.p0)
	scale := e0.Length()
	kind := c.kind
	var e1, e2 v3.Vec
	switch kind {
	case ElementTetra:
		e1, e2 = c.a.Sub(c.p0), c.b.Sub(c.p0)
	case ElementFlat:
		e1 = c.a.Sub(c.p0)
		e2 = e0.Cross(e1).Normalize().MulScalar(scale)
	}
	if kind == ElementLinear || scale == 0 {
		kind = ElementLinear
		if scale == 0 {
			scale = 1
			e0 = v3.Vec{X: 1}
		}
		x, y := orthonormalPair(e0)
		e1, e2 = x.MulScalar(scale), y.MulScalar(scale)
	}
	m := mat.NewDense(3, 3, []float64{
		e0.X, e1.X, e2.X,
		e0.Y, e1.Y, e2.Y,
		e0.Z, e1.Z, e2.Z,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > maxCondition {
			switch kind {
			case ElementTetra:
				flat := c
				flat.b, flat.kind = c.a, ElementFlat
				return newUnitFrame(flat)
			case ElementFlat:
				return newUnitFrame(linearCell(c.lo, c.hi, c.p0, c.p1))
			}
		}
	}
	return unitFrame{origin: c.p0, inv: &inv, kind: kind}
}

// local returns p in unit coordinates.
func (f unitFrame) local(p v3.Vec) v3.Vec {
	d := p.Sub(f.origin)
	x := mat.NewVecDense(3, []float64{d.X, d.Y, d.Z})
	var r mat.VecDense
	r.MulVec(f.inv, x)
	return v3.Vec{X: r.AtVec(0), Y: r.AtVec(1), Z: r.AtVec(2)}
}

// constraints returns the half-space functions of the element in unit
// coordinates; a point is inside when all are at most zero.
func (f unitFrame) constraints(q v3.Vec) []float64 {
	switch f.kind {
	case ElementTetra:
		return []float64{-q.X, -q.Y, -q.Z, q.X + q.Y + q.Z - 1}
	case ElementFlat:
		return []float64{-q.X, -q.Y, q.X + q.Y - 1, q.Z, -q.Z}
	default:
		return []float64{-q.X, q.X - 1, q.Y, -q.Y, q.Z, -q.Z}
	}
}

// contains reports whether p lies in the element.
func (f unitFrame) contains(p v3.Vec) bool {
	for _, g := range f.constraints(f.local(p)) {
		if g > frameTol {
			return false
		}
	}
	return true
}

// separates reports whether one face of the element has every point of pts
// strictly outside it.
func (f unitFrame) separates(pts [4]v3.Vec) bool {
	var worst []float64
	for i, p := range pts {
		g := f.constraints(f.local(p))
		if i == 0 {
			worst = g
			continue
		}
		for k := range g {
			worst[k] = math.Min(worst[k], g[k])
		}
	}
	for _, w := range worst {
		if w > overlapTol {
			return true
		}
	}
	return false
}

// cellsOverlap runs the separating face test in both unit frames.
func cellsOverlap(a, b cell) bool {
	if newUnitFrame(a).separates(b.corners()) {
		return false
	}
	return !newUnitFrame(b).separates(a.corners())
}
