package kernel

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is an oriented plane with an orthonormal in-plane frame.
type Plane struct {
	Origin v3.Vec
	XAxis  v3.Vec
	YAxis  v3.Vec
	Normal v3.Vec
}

// NewPlane builds a plane through origin with the given normal. The in-plane
// axes are chosen deterministically from the normal. A zero normal yields
// the XY plane.
func NewPlane(origin, normal v3.Vec) Plane {
	if normal.Length() == 0 {
		normal = v3.Vec{Z: 1}
	}
	n := normal.Normalize()
	// seed the x axis with the world axis least aligned with n
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	var seed v3.Vec
	switch {
	case ax <= ay && ax <= az:
		seed = v3.Vec{X: 1}
	case ay <= az:
		seed = v3.Vec{Y: 1}
	default:
		seed = v3.Vec{Z: 1}
	}
	x := seed.Sub(n.MulScalar(seed.Dot(n))).Normalize()
	y := n.Cross(x)
	return Plane{Origin: origin, XAxis: x, YAxis: y, Normal: n}
}

// SignedDistance returns the signed distance of p from the plane.
func (pl Plane) SignedDistance(p v3.Vec) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// ToLocal maps p into the plane frame: x, y in the plane, z along the normal.
func (pl Plane) ToLocal(p v3.Vec) v3.Vec {
	d := p.Sub(pl.Origin)
	return v3.Vec{X: d.Dot(pl.XAxis), Y: d.Dot(pl.YAxis), Z: d.Dot(pl.Normal)}
}

// VectorToLocal maps a free vector into the plane frame.
func (pl Plane) VectorToLocal(d v3.Vec) v3.Vec {
	return v3.Vec{X: d.Dot(pl.XAxis), Y: d.Dot(pl.YAxis), Z: d.Dot(pl.Normal)}
}

// UV returns the in-plane coordinates of p.
func (pl Plane) UV(p v3.Vec) v2.Vec {
	l := pl.ToLocal(p)
	return v2.Vec{X: l.X, Y: l.Y}
}
