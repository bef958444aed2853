package curves

import (
	"fmt"
	"sync"

	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Curve     = (*Transformed)(nil)
	_ kernel.Versioned = (*Transformed)(nil)
	_ kernel.Curve     = (*Trimmed)(nil)
	_ kernel.Versioned = (*Trimmed)(nil)
)

// innerGeneration returns c's generation, zero when c is not versioned.
func innerGeneration(c kernel.Curve) uint64 {
	if v, ok := c.(kernel.Versioned); ok {
		return v.Generation()
	}
	return 0
}

// Transformed applies an affine modification transform to a curve.
type Transformed struct {
	generation
	mu    sync.RWMutex
	curve kernel.Curve
	m     sdf.M44
}

// NewTransformed wraps c with transform m.
func NewTransformed(c kernel.Curve, m sdf.M44) *Transformed {
	return &Transformed{curve: c, m: m}
}

// Translate returns c moved by v.
func Translate(c kernel.Curve, v v3.Vec) *Transformed {
	return NewTransformed(c, sdf.Translate3d(v))
}

// Rotate returns c rotated by Euler angles in radians, applied X then Y then Z.
func Rotate(c kernel.Curve, x, y, z float64) *Transformed {
	return NewTransformed(c, sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x)))
}

// SetTransform replaces the transform and bumps the generation.
func (t *Transformed) SetTransform(m sdf.M44) {
	t.mu.Lock()
	t.m = m
	t.bump()
	t.mu.Unlock()
}

// Generation combines the wrapper's edits with those of the wrapped curve.
func (t *Transformed) Generation() uint64 {
	return t.generation.Generation() + innerGeneration(t.curve)
}

func (t *Transformed) matrix() sdf.M44 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m
}

// linear applies the linear part of the transform to a free vector.
func linear(m sdf.M44, p, d v3.Vec) v3.Vec {
	return m.MulPosition(p.Add(d)).Sub(m.MulPosition(p))
}

// PointAt evaluates the transformed position at u.
func (t *Transformed) PointAt(u float64) v3.Vec {
	return t.matrix().MulPosition(t.curve.PointAt(u))
}

// DirectionAt evaluates the transformed tangent at u.
func (t *Transformed) DirectionAt(u float64) v3.Vec {
	return linear(t.matrix(), t.curve.PointAt(u), t.curve.DirectionAt(u))
}

// TryPointDeriv2At delegates to the wrapped curve when it supports it.
func (t *Transformed) TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool) {
	sd, ok := t.curve.(kernel.SecondDerivativer)
	if !ok {
		return p, d1, d2, false
	}
	ip, id1, id2, ok := sd.TryPointDeriv2At(u)
	if !ok {
		return p, d1, d2, false
	}
	m := t.matrix()
	return m.MulPosition(ip), linear(m, ip, id1), linear(m, ip, id2), true
}

// BreakParameters delegates to the wrapped curve.
func (t *Transformed) BreakParameters() []float64 { return t.curve.BreakParameters() }

// IsClosed delegates to the wrapped curve.
func (t *Transformed) IsClosed() bool { return t.curve.IsClosed() }

// IsSingular delegates to the wrapped curve.
func (t *Transformed) IsSingular() bool { return t.curve.IsSingular() }

// Trimmed restricts a curve to the parameter range [From, To] without
// reparameterizing it.
type Trimmed struct {
	generation
	mu       sync.RWMutex
	curve    kernel.Curve
	from, to float64
}

// NewTrimmed restricts c to [from, to], which must lie inside c's domain.
func NewTrimmed(c kernel.Curve, from, to float64) (*Trimmed, error) {
	t := &Trimmed{curve: c}
	if err := t.SetRange(from, to); err != nil {
		return nil, err
	}
	return t, nil
}

// Split cuts c at u into two trimmed halves.
func Split(c kernel.Curve, u float64) (*Trimmed, *Trimmed, error) {
	lo, hi, err := kernel.Domain(c)
	if err != nil {
		return nil, nil, err
	}
	a, err := NewTrimmed(c, lo, u)
	if err != nil {
		return nil, nil, err
	}
	b, err := NewTrimmed(c, u, hi)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// SetRange changes the trim range and bumps the generation.
func (t *Trimmed) SetRange(from, to float64) error {
	lo, hi, err := kernel.Domain(t.curve)
	if err != nil {
		return err
	}
	if !(from < to) || from < lo || to > hi {
		return fmt.Errorf("%w: trim range [%g, %g] outside domain [%g, %g]", kernel.ErrInvalidCurve, from, to, lo, hi)
	}
	t.mu.Lock()
	t.from, t.to = from, to
	t.bump()
	t.mu.Unlock()
	return nil
}

// Range returns the trim range.
func (t *Trimmed) Range() (from, to float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.from, t.to
}

// Generation combines the trim edits with those of the wrapped curve.
func (t *Trimmed) Generation() uint64 {
	return t.generation.Generation() + innerGeneration(t.curve)
}

// PointAt delegates to the wrapped curve.
func (t *Trimmed) PointAt(u float64) v3.Vec { return t.curve.PointAt(u) }

// DirectionAt delegates to the wrapped curve.
func (t *Trimmed) DirectionAt(u float64) v3.Vec { return t.curve.DirectionAt(u) }

// BreakParameters returns the trim range with the wrapped curve's breaks
// that fall strictly inside it.
func (t *Trimmed) BreakParameters() []float64 {
	from, to := t.Range()
	bp := []float64{from}
	for _, u := range t.curve.BreakParameters() {
		if u > from && u < to {
			bp = append(bp, u)
		}
	}
	return append(bp, to)
}

// IsClosed reports whether the trimmed endpoints coincide.
func (t *Trimmed) IsClosed() bool {
	from, to := t.Range()
	return t.curve.PointAt(from) == t.curve.PointAt(to)
}

// IsSingular delegates to the wrapped curve.
func (t *Trimmed) IsSingular() bool { return t.curve.IsSingular() }
