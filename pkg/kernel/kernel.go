// Package kernel defines the abstract curve interface consumed by the hull
// query engine. Curve implementations (analytic curves, splines, curves
// bound to surfaces) expose only point and tangent sampling plus the
// parameters where their character changes; everything else is derived.
package kernel

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidCurve marks a precondition violation by a curve implementation,
// such as missing or non-monotonic break parameters.
var ErrInvalidCurve = errors.New("invalid curve")

// Curve is the parametric curve abstraction.
// Implementations must be safe for concurrent reads.
type Curve interface {
	// PointAt evaluates the position at parameter u.
	PointAt(u float64) v3.Vec
	// DirectionAt evaluates the tangent at parameter u. The vector is not
	// normalized; its length is the parametric speed.
	DirectionAt(u float64) v3.Vec
	// BreakParameters returns the strictly increasing parameters at which
	// the curve's character changes. The first and last entries bound the
	// domain.
	BreakParameters() []float64
	// IsClosed reports whether the start and end points coincide.
	IsClosed() bool
	// IsSingular reports whether the curve collapses to a point.
	IsSingular() bool
}

// SecondDerivativer is implemented by curves that can evaluate their
// second derivative. It is optional.
type SecondDerivativer interface {
	TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool)
}

// Versioned is implemented by curves whose geometry can be edited in place.
// Generation increases on every edit (pole/knot change, transform, trim).
type Versioned interface {
	Generation() uint64
}

// Domain returns the first and last break parameter of c.
func Domain(c Curve) (lo, hi float64, err error) {
	bp := c.BreakParameters()
	if len(bp) < 2 {
		return 0, 0, fmt.Errorf("%w: %d break parameters, need at least 2", ErrInvalidCurve, len(bp))
	}
	return bp[0], bp[len(bp)-1], nil
}
