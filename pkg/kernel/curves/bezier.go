package curves

import (
	"fmt"
	"sync"

	"github.com/chazu/curvekit/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Curve             = (*Bezier)(nil)
	_ kernel.SecondDerivativer = (*Bezier)(nil)
	_ kernel.Versioned         = (*Bezier)(nil)
)

// Bezier is a piecewise rational Bézier curve. Segment k uses poles
// [k*degree, (k+1)*degree] and covers parameters [k, k+1]; consecutive
// segments share their joining pole. The segment joins are the curve's
// break parameters.
type Bezier struct {
	generation
	mu      sync.RWMutex
	degree  int
	poles   []v3.Vec
	weights []float64
}

// NewBezier returns a piecewise Bézier curve. weights may be nil for a
// polynomial curve.
func NewBezier(degree int, poles []v3.Vec, weights []float64) (*Bezier, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: bezier degree %d", kernel.ErrInvalidCurve, degree)
	}
	if len(poles) < degree+1 || (len(poles)-1)%degree != 0 {
		return nil, fmt.Errorf("%w: %d poles do not form degree %d segments", kernel.ErrInvalidCurve, len(poles), degree)
	}
	if weights == nil {
		weights = make([]float64, len(poles))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(poles) {
		return nil, fmt.Errorf("%w: %d weights for %d poles", kernel.ErrInvalidCurve, len(weights), len(poles))
	}
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("%w: weight %d is %g, must be positive", kernel.ErrInvalidCurve, i, w)
		}
	}
	return &Bezier{
		degree:  degree,
		poles:   append([]v3.Vec(nil), poles...),
		weights: append([]float64(nil), weights...),
	}, nil
}

// Degree returns the segment degree.
func (b *Bezier) Degree() int { return b.degree }

// Segments returns the number of Bézier segments.
func (b *Bezier) Segments() int { return (len(b.poles) - 1) / b.degree }

// Poles returns a copy of the control points.
func (b *Bezier) Poles() []v3.Vec {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]v3.Vec(nil), b.poles...)
}

// SetPole moves pole i and bumps the generation.
func (b *Bezier) SetPole(i int, p v3.Vec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.poles) {
		return fmt.Errorf("pole index %d out of range [0, %d)", i, len(b.poles))
	}
	b.poles[i] = p
	b.bump()
	return nil
}

// SetWeight changes weight i and bumps the generation.
func (b *Bezier) SetWeight(i int, w float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.weights) {
		return fmt.Errorf("weight index %d out of range [0, %d)", i, len(b.weights))
	}
	if w <= 0 {
		return fmt.Errorf("weight %g must be positive", w)
	}
	b.weights[i] = w
	b.bump()
	return nil
}

// homog is a weighted pole: (w*x, w*y, w*z, w).
type homog [4]float64

func (h homog) sub(o homog) homog {
	return homog{h[0] - o[0], h[1] - o[1], h[2] - o[2], h[3] - o[3]}
}

func (h homog) lerp(o homog, t float64) homog {
	return homog{
		h[0] + (o[0]-h[0])*t,
		h[1] + (o[1]-h[1])*t,
		h[2] + (o[2]-h[2])*t,
		h[3] + (o[3]-h[3])*t,
	}
}

func (h homog) vec() v3.Vec { return v3.Vec{X: h[0], Y: h[1], Z: h[2]} }

// casteljau evaluates the Bézier polynomial with control values ctrl at t.
func casteljau(ctrl []homog, t float64) homog {
	if len(ctrl) == 0 {
		return homog{}
	}
	work := append([]homog(nil), ctrl...)
	for n := len(work) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			work[i] = work[i].lerp(work[i+1], t)
		}
	}
	return work[0]
}

// differences returns the scaled forward differences of ctrl, the control
// values of the derivative polynomial.
func differences(ctrl []homog) []homog {
	n := len(ctrl) - 1
	if n < 1 {
		return nil
	}
	out := make([]homog, n)
	for i := range out {
		d := ctrl[i+1].sub(ctrl[i])
		for k := range d {
			d[k] *= float64(n)
		}
		out[i] = d
	}
	return out
}

// segment locates u and returns the segment's weighted poles and local t.
func (b *Bezier) segment(u float64) ([]homog, float64) {
	n := b.Segments()
	k := int(u)
	if k < 0 {
		k = 0
	}
	if k > n-1 {
		k = n - 1
	}
	ctrl := make([]homog, b.degree+1)
	for i := range ctrl {
		p, w := b.poles[k*b.degree+i], b.weights[k*b.degree+i]
		ctrl[i] = homog{p.X * w, p.Y * w, p.Z * w, w}
	}
	return ctrl, u - float64(k)
}

// eval returns position and first and second derivatives at u.
func (b *Bezier) eval(u float64) (p, d1, d2 v3.Vec) {
	b.mu.RLock()
	ctrl, t := b.segment(u)
	b.mu.RUnlock()

	first := differences(ctrl)
	second := differences(first)
	a0, a1, a2 := casteljau(ctrl, t), casteljau(first, t), casteljau(second, t)

	w := a0[3]
	p = a0.vec().DivScalar(w)
	// quotient rule for the rational curve A/W
	d1 = a1.vec().Sub(p.MulScalar(a1[3])).DivScalar(w)
	d2 = a2.vec().Sub(d1.MulScalar(2 * a1[3])).Sub(p.MulScalar(a2[3])).DivScalar(w)
	return p, d1, d2
}

// PointAt evaluates the position at u.
func (b *Bezier) PointAt(u float64) v3.Vec {
	p, _, _ := b.eval(u)
	return p
}

// DirectionAt evaluates the tangent at u.
func (b *Bezier) DirectionAt(u float64) v3.Vec {
	_, d1, _ := b.eval(u)
	return d1
}

// TryPointDeriv2At evaluates position and first two derivatives at u.
func (b *Bezier) TryPointDeriv2At(u float64) (p, d1, d2 v3.Vec, ok bool) {
	p, d1, d2 = b.eval(u)
	return p, d1, d2, true
}

// BreakParameters returns the segment joins 0, 1, ..., Segments().
func (b *Bezier) BreakParameters() []float64 {
	n := b.Segments()
	bp := make([]float64, n+1)
	for i := range bp {
		bp[i] = float64(i)
	}
	return bp
}

// IsClosed reports whether the first and last poles coincide.
func (b *Bezier) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.poles[0] == b.poles[len(b.poles)-1]
}

// IsSingular reports whether every pole coincides.
func (b *Bezier) IsSingular() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.poles[1:] {
		if p != b.poles[0] {
			return false
		}
	}
	return true
}
