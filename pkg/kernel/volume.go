package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Relation classifies a box against a hit-test volume.
type Relation int

const (
	Outside  Relation = iota // box and volume are disjoint
	Crossing                 // undecided: box straddles the volume boundary
	Inside                   // box lies entirely inside the volume
)

func (r Relation) String() string {
	switch r {
	case Outside:
		return "outside"
	case Crossing:
		return "crossing"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// Volume is a hit-test region. Classify may answer Crossing conservatively
// but must never answer Inside or Outside wrongly.
type Volume interface {
	// Bounds returns a finite bounding box, or false for unbounded volumes.
	Bounds() (sdf.Box3, bool)
	Classify(b sdf.Box3) Relation
	Contains(p v3.Vec) bool
}

// Compile-time interface checks.
var _ Volume = BoxVolume{}
var _ Volume = PickVolume{}

// BoxVolume is an axis-aligned box.
type BoxVolume struct {
	Box sdf.Box3
}

// Bounds returns the box itself.
func (v BoxVolume) Bounds() (sdf.Box3, bool) {
	return v.Box, true
}

// Classify compares b against the box on every axis.
func (v BoxVolume) Classify(b sdf.Box3) Relation {
	lo, hi := v.Box.Min, v.Box.Max
	if b.Max.X < lo.X || b.Max.Y < lo.Y || b.Max.Z < lo.Z ||
		b.Min.X > hi.X || b.Min.Y > hi.Y || b.Min.Z > hi.Z {
		return Outside
	}
	if b.Min.X >= lo.X && b.Min.Y >= lo.Y && b.Min.Z >= lo.Z &&
		b.Max.X <= hi.X && b.Max.Y <= hi.Y && b.Max.Z <= hi.Z {
		return Inside
	}
	return Crossing
}

// Contains reports whether p lies inside or on the box.
func (v BoxVolume) Contains(p v3.Vec) bool {
	lo, hi := v.Box.Min, v.Box.Max
	return p.X >= lo.X && p.Y >= lo.Y && p.Z >= lo.Z &&
		p.X <= hi.X && p.Y <= hi.Y && p.Z <= hi.Z
}

// PickVolume is the region within Radius of a half-line starting at Origin,
// the shape swept by a pick aperture.
type PickVolume struct {
	Origin    v3.Vec
	Direction v3.Vec
	Radius    float64
}

// Bounds reports the pick volume as unbounded.
func (v PickVolume) Bounds() (sdf.Box3, bool) {
	return sdf.Box3{}, false
}

// distance returns the distance from p to the half-line.
func (v PickVolume) distance(p v3.Vec) float64 {
	d := p.Sub(v.Origin)
	l := v.Direction.Length()
	if l == 0 {
		return d.Length()
	}
	dir := v.Direction.DivScalar(l)
	t := d.Dot(dir)
	if t <= 0 {
		return d.Length()
	}
	return d.Sub(dir.MulScalar(t)).Length()
}

// Contains reports whether p lies within Radius of the half-line.
func (v PickVolume) Contains(p v3.Vec) bool {
	return v.distance(p) <= v.Radius
}

// Classify uses the corners for containment (the volume is convex) and the
// bounding sphere of b for disjointness.
func (v PickVolume) Classify(b sdf.Box3) Relation {
	center := b.Min.Add(b.Max).MulScalar(0.5)
	r := b.Max.Sub(b.Min).Length() * 0.5
	if v.distance(center) > v.Radius+r {
		return Outside
	}
	for _, c := range BoxCorners(b) {
		if !v.Contains(c) {
			return Crossing
		}
	}
	return Inside
}

// BoxCorners returns the eight corners of b.
func BoxCorners(b sdf.Box3) [8]v3.Vec {
	var out [8]v3.Vec
	for i := range out {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out[i] = c
	}
	return out
}

// BoundingBox returns the smallest box containing pts. It returns the zero
// box when pts is empty.
func BoundingBox(pts ...v3.Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	b := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// BoxesOverlap reports whether a and b share at least one point.
func BoxesOverlap(a, b sdf.Box3) bool {
	return !(a.Max.X < b.Min.X || b.Max.X < a.Min.X ||
		a.Max.Y < b.Min.Y || b.Max.Y < a.Min.Y ||
		a.Max.Z < b.Min.Z || b.Max.Z < a.Min.Z)
}

// Pad grows b by d on every side.
func Pad(b sdf.Box3, d float64) sdf.Box3 {
	pad := v3.Vec{X: d, Y: d, Z: d}
	return sdf.Box3{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// Diagonal returns the length of the box diagonal.
func Diagonal(b sdf.Box3) float64 {
	return b.Max.Sub(b.Min).Length()
}
