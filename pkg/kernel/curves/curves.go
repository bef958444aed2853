// Package curves implements kernel.Curve for the analytic and spline curves
// the engine is exercised with, using sdfx vector and transform types.
// Curves that can be edited in place implement kernel.Versioned so that
// cached hulls notice the change.
package curves

import (
	"math"
	"sync/atomic"

	"github.com/chazu/curvekit/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Curve             = Line{}
	_ kernel.SecondDerivativer = Line{}
	_ kernel.Curve             = (*Arc)(nil)
	_ kernel.SecondDerivativer = (*Arc)(nil)
	_ kernel.Curve             = (*Helix)(nil)
	_ kernel.SecondDerivativer = (*Helix)(nil)
)

// generation counts in-place geometry edits.
type generation struct {
	n atomic.Uint64
}

// Generation returns the number of edits applied so far.
func (g *generation) Generation() uint64 {
	return g.n.Load()
}

func (g *generation) bump() {
	g.n.Add(1)
}

// uniformBreaks returns n+1 evenly spaced parameters over [0, 1].
func uniformBreaks(n int) []float64 {
	if n < 1 {
		n = 1
	}
	bp := make([]float64, n+1)
	for i := range bp {
		bp[i] = float64(i) / float64(n)
	}
	bp[n] = 1
	return bp
}

// quarterTurns returns the number of quarter turns needed to cover sweep.
func quarterTurns(sweep float64) int {
	return int(math.Ceil(math.Abs(sweep)/(math.Pi/2) - 1e-9))
}

// Line is the straight segment From-To over [0, 1].
type Line struct {
	From, To v3.Vec
}

// NewLine returns the segment from a to b.
func NewLine(a, b v3.Vec) Line {
	return Line{From: a, To: b}
}

// PointAt evaluates the position at u.
func (l Line) PointAt(u float64) v3.Vec {
	return l.From.Add(l.To.Sub(l.From).MulScalar(u))
}

// DirectionAt returns the constant tangent.
func (l Line) DirectionAt(float64) v3.Vec {
	return l.To.Sub(l.From)
}

// TryPointDeriv2At returns the point, tangent and a zero second derivative.
func (l Line) TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool) {
	return l.PointAt(u), l.DirectionAt(u), v3.Vec{}, true
}

// BreakParameters returns [0, 1].
func (l Line) BreakParameters() []float64 { return []float64{0, 1} }

// IsClosed is always false for a line.
func (l Line) IsClosed() bool { return false }

// IsSingular reports whether the endpoints coincide.
func (l Line) IsSingular() bool { return l.From == l.To }

// Arc is a circular arc over [0, 1], sweeping Sweep radians from angle
// Start in the plane through Center with the given normal.
type Arc struct {
	Center v3.Vec
	Radius float64
	Start  float64
	Sweep  float64
	frame  kernel.Plane
}

// NewArc returns an arc. Angles are measured from the plane's X axis, see
// kernel.NewPlane for how that axis is chosen.
func NewArc(center, normal v3.Vec, radius, start, sweep float64) *Arc {
	return &Arc{
		Center: center,
		Radius: radius,
		Start:  start,
		Sweep:  sweep,
		frame:  kernel.NewPlane(center, normal),
	}
}

// NewCircle returns a full circle starting at angle start.
func NewCircle(center, normal v3.Vec, radius, start float64) *Arc {
	return NewArc(center, normal, radius, start, 2*math.Pi)
}

func (a *Arc) radial(theta float64) v3.Vec {
	return a.frame.XAxis.MulScalar(math.Cos(theta)).Add(a.frame.YAxis.MulScalar(math.Sin(theta)))
}

// PointAt evaluates the position at u.
func (a *Arc) PointAt(u float64) v3.Vec {
	return a.Center.Add(a.radial(a.Start + u*a.Sweep).MulScalar(a.Radius))
}

// DirectionAt evaluates the tangent at u.
func (a *Arc) DirectionAt(u float64) v3.Vec {
	theta := a.Start + u*a.Sweep
	t := a.frame.XAxis.MulScalar(-math.Sin(theta)).Add(a.frame.YAxis.MulScalar(math.Cos(theta)))
	return t.MulScalar(a.Radius * a.Sweep)
}

// TryPointDeriv2At evaluates position and first two derivatives at u.
func (a *Arc) TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool) {
	r := a.radial(a.Start + u*a.Sweep)
	return a.Center.Add(r.MulScalar(a.Radius)), a.DirectionAt(u), r.MulScalar(-a.Radius * a.Sweep * a.Sweep), true
}

// BreakParameters splits the arc at every quarter turn.
func (a *Arc) BreakParameters() []float64 {
	return uniformBreaks(quarterTurns(a.Sweep))
}

// IsClosed reports whether the arc is a full circle.
func (a *Arc) IsClosed() bool { return math.Abs(a.Sweep) >= 2*math.Pi-1e-12 }

// IsSingular reports a zero radius or zero sweep.
func (a *Arc) IsSingular() bool { return a.Radius == 0 || a.Sweep == 0 }

// Helix is a right-handed helix about the Z axis through Center over [0, 1].
type Helix struct {
	Center v3.Vec
	Radius float64
	Pitch  float64 // rise per turn
	Turns  float64
}

// NewHelix returns a helix.
func NewHelix(center v3.Vec, radius, pitch, turns float64) *Helix {
	return &Helix{Center: center, Radius: radius, Pitch: pitch, Turns: turns}
}

func (h *Helix) omega() float64 { return 2 * math.Pi * h.Turns }

// PointAt evaluates the position at u.
func (h *Helix) PointAt(u float64) v3.Vec {
	theta := h.omega() * u
	return h.Center.Add(v3.Vec{
		X: h.Radius * math.Cos(theta),
		Y: h.Radius * math.Sin(theta),
		Z: h.Pitch * h.Turns * u,
	})
}

// DirectionAt evaluates the tangent at u.
func (h *Helix) DirectionAt(u float64) v3.Vec {
	w := h.omega()
	theta := w * u
	return v3.Vec{
		X: -h.Radius * w * math.Sin(theta),
		Y: h.Radius * w * math.Cos(theta),
		Z: h.Pitch * h.Turns,
	}
}

// TryPointDeriv2At evaluates position and first two derivatives at u.
func (h *Helix) TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool) {
	w := h.omega()
	theta := w * u
	d2 = v3.Vec{X: -h.Radius * w * w * math.Cos(theta), Y: -h.Radius * w * w * math.Sin(theta)}
	return h.PointAt(u), h.DirectionAt(u), d2, true
}

// BreakParameters splits the helix at every quarter turn.
func (h *Helix) BreakParameters() []float64 {
	return uniformBreaks(quarterTurns(h.omega()))
}

// IsClosed is false for any helix with nonzero pitch.
func (h *Helix) IsClosed() bool { return h.Pitch == 0 && math.Abs(h.Turns) >= 1 }

// IsSingular reports a helix that collapses to a point.
func (h *Helix) IsSingular() bool {
	return h.Turns == 0 || (h.Radius == 0 && h.Pitch == 0)
}
