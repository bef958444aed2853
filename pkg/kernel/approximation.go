package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Segment is one piece of an approximation: a straight line from Start to
// End, or, when Arc is set, the circular arc through Start, Mid and End.
type Segment struct {
	Start      v3.Vec  `json:"start"`
	Mid        v3.Vec  `json:"mid"`
	End        v3.Vec  `json:"end"`
	StartParam float64 `json:"startParam"`
	EndParam   float64 `json:"endParam"`
	Arc        bool    `json:"arc,omitempty"`
}

// Approximation is an ordered line/arc chain approximating a curve.
type Approximation struct {
	Segments []Segment `json:"segments"`
	Name     string    `json:"name"` // which curve this came from
}

// SegmentCount returns the number of segments.
func (a *Approximation) SegmentCount() int {
	return len(a.Segments)
}

// ArcCount returns the number of arc segments.
func (a *Approximation) ArcCount() int {
	n := 0
	for _, s := range a.Segments {
		if s.Arc {
			n++
		}
	}
	return n
}

// IsEmpty returns true if the approximation has no segments.
func (a *Approximation) IsEmpty() bool {
	return len(a.Segments) == 0
}

// Points returns the polyline vertices: the start of the first segment
// followed by the end of every segment.
func (a *Approximation) Points() []v3.Vec {
	if len(a.Segments) == 0 {
		return nil
	}
	pts := make([]v3.Vec, 0, len(a.Segments)+1)
	pts = append(pts, a.Segments[0].Start)
	for _, s := range a.Segments {
		pts = append(pts, s.End)
	}
	return pts
}

// Distance returns the distance from p to the nearest segment.
func (a *Approximation) Distance(p v3.Vec) float64 {
	best := math.Inf(1)
	for _, s := range a.Segments {
		best = math.Min(best, s.Distance(p))
	}
	return best
}

// Distance returns the distance from p to the segment.
func (s Segment) Distance(p v3.Vec) float64 {
	if s.Arc {
		if c, ok := circleThrough(s.Start, s.Mid, s.End); ok {
			return c.arcDistance(p, s.Start, s.Mid, s.End)
		}
	}
	return SegmentDistance(p, s.Start, s.End)
}

// SegmentDistance returns the distance from p to the line segment a-b.
func SegmentDistance(p, a, b v3.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(a.Add(ab.MulScalar(t))).Length()
}

// circle is a circle in 3-space.
type circle struct {
	center v3.Vec
	normal v3.Vec
	radius float64
}

// circleThrough returns the circle through three points, false when they are
// collinear.
func circleThrough(a, b, c v3.Vec) (circle, bool) {
	ab, ac := b.Sub(a), c.Sub(a)
	n := ab.Cross(ac)
	n2 := n.Dot(n)
	if n2 <= 1e-24*ab.Dot(ab)*ac.Dot(ac) || n2 == 0 {
		return circle{}, false
	}
	// circumcenter relative to a
	off := n.Cross(ab).MulScalar(ac.Dot(ac)).Add(ac.Cross(n).MulScalar(ab.Dot(ab))).DivScalar(2 * n2)
	return circle{center: a.Add(off), normal: n.DivScalar(math.Sqrt(n2)), radius: off.Length()}, true
}

// angle returns the angle of p around the circle measured from ref.
func (c circle) angle(ref, p v3.Vec) float64 {
	x := ref.Sub(c.center).Normalize()
	y := c.normal.Cross(x)
	d := p.Sub(c.center)
	a := math.Atan2(d.Dot(y), d.Dot(x))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// arcDistance returns the distance from p to the arc start-mid-end.
func (c circle) arcDistance(p, start, mid, end v3.Vec) float64 {
	sweep := c.angle(start, end)
	if c.angle(start, mid) > sweep {
		// the arc runs the other way round; walk it from end to start
		start, end = end, start
		sweep = c.angle(start, end)
	}
	d := p.Sub(c.center)
	h := d.Dot(c.normal)
	inPlane := d.Sub(c.normal.MulScalar(h))
	if inPlane.Length() > 0 && c.angle(start, c.center.Add(inPlane)) <= sweep {
		r := inPlane.Length() - c.radius
		return math.Sqrt(r*r + h*h)
	}
	return math.Min(p.Sub(start).Length(), p.Sub(end).Length())
}
