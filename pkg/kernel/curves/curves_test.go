package curves

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/curvekit/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

// numericTangent differentiates c at u by central differences.
func numericTangent(c kernel.Curve, u float64) v3.Vec {
	const h = 1e-6
	return c.PointAt(u + h).Sub(c.PointAt(u - h)).DivScalar(2 * h)
}

func requireVecNear(t *testing.T, want, got v3.Vec, tol float64) {
	t.Helper()
	require.InDelta(t, want.X, got.X, tol, "x")
	require.InDelta(t, want.Y, got.Y, tol, "y")
	require.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestTangentsMatchDifferences(t *testing.T) {
	bez, err := NewBezier(3, []v3.Vec{
		{}, {X: 1, Y: 2}, {X: 3, Y: 2, Z: 1}, {X: 4},
		{X: 5, Y: -2}, {X: 6, Y: -1}, {X: 7},
	}, []float64{1, 2, 0.5, 1, 1, 3, 1})
	require.NoError(t, err)

	tests := []struct {
		name  string
		curve kernel.Curve
		at    []float64
	}{
		{"line", NewLine(v3.Vec{X: 1}, v3.Vec{X: 2, Y: 3, Z: 4}), []float64{0.2, 0.7}},
		{"arc", NewArc(v3.Vec{Z: 1}, v3.Vec{X: 1, Y: 1, Z: 1}, 2, 0.3, 4), []float64{0.1, 0.5, 0.9}},
		{"helix", NewHelix(v3.Vec{}, 3, 2, 1.5), []float64{0.1, 0.5, 0.9}},
		{"rational bezier", bez, []float64{0.3, 1.2, 1.9}},
		{"transformed", Rotate(Translate(NewLine(v3.Vec{}, v3.Vec{X: 1, Y: 1}), v3.Vec{Z: 3}), 0.1, 0.2, 0.3), []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, u := range tt.at {
				requireVecNear(t, numericTangent(tt.curve, u), tt.curve.DirectionAt(u), 1e-5)
			}
		})
	}
}

func TestSecondDerivatives(t *testing.T) {
	bez, err := NewBezier(2, []v3.Vec{{}, {X: 1, Y: 2}, {X: 2}}, []float64{1, 0.7, 1})
	require.NoError(t, err)
	curves := []kernel.SecondDerivativer{
		NewArc(v3.Vec{}, v3.Vec{Z: 1}, 1.5, 0, math.Pi),
		NewHelix(v3.Vec{}, 1, 1, 2),
		bez,
	}
	const h = 1e-5
	for _, c := range curves {
		kc := c.(kernel.Curve)
		_, _, d2, ok := c.TryPointDeriv2At(0.4)
		require.True(t, ok)
		num := kc.DirectionAt(0.4 + h).Sub(kc.DirectionAt(0.4 - h)).DivScalar(2 * h)
		requireVecNear(t, num, d2, 1e-4)
	}
}

func TestArcGeometry(t *testing.T) {
	a := NewArc(v3.Vec{}, v3.Vec{Z: 1}, 2, 0, math.Pi/2)
	requireVecNear(t, v3.Vec{X: 2}, a.PointAt(0), 1e-12)
	requireVecNear(t, v3.Vec{Y: 2}, a.PointAt(1), 1e-12)
	require.Equal(t, []float64{0, 1}, a.BreakParameters())
	require.False(t, a.IsClosed())

	c := NewCircle(v3.Vec{}, v3.Vec{Z: 1}, 1, 0)
	require.True(t, c.IsClosed())
	require.Len(t, c.BreakParameters(), 5)
}

func TestBezierValidation(t *testing.T) {
	_, err := NewBezier(3, []v3.Vec{{}, {X: 1}, {X: 2}}, nil)
	require.True(t, errors.Is(err, kernel.ErrInvalidCurve))
	_, err = NewBezier(1, []v3.Vec{{}, {X: 1}}, []float64{1, -1})
	require.True(t, errors.Is(err, kernel.ErrInvalidCurve))
	_, err = NewBezier(0, []v3.Vec{{}}, nil)
	require.True(t, errors.Is(err, kernel.ErrInvalidCurve))
}

func TestBezierEndpointsInterpolate(t *testing.T) {
	poles := []v3.Vec{{}, {X: 1, Y: 1}, {X: 2, Y: -1}, {X: 3}}
	b, err := NewBezier(3, poles, []float64{1, 4, 0.25, 1})
	require.NoError(t, err)
	requireVecNear(t, poles[0], b.PointAt(0), 1e-12)
	requireVecNear(t, poles[3], b.PointAt(1), 1e-12)
	require.Equal(t, []float64{0, 1}, b.BreakParameters())
}

func TestEditsBumpGeneration(t *testing.T) {
	b, err := NewBezier(1, []v3.Vec{{}, {X: 1}}, nil)
	require.NoError(t, err)
	require.Zero(t, b.Generation())
	require.NoError(t, b.SetPole(1, v3.Vec{X: 2}))
	require.Equal(t, uint64(1), b.Generation())
	require.Error(t, b.SetPole(5, v3.Vec{}))

	tr := Translate(b, v3.Vec{Y: 1})
	g0 := tr.Generation()
	require.NoError(t, b.SetWeight(0, 2))
	require.Greater(t, tr.Generation(), g0)

	trim, err := NewTrimmed(b, 0.25, 0.75)
	require.NoError(t, err)
	g1 := trim.Generation()
	require.NoError(t, trim.SetRange(0.1, 0.9))
	require.Greater(t, trim.Generation(), g1)
}

func TestTrimmedBreaks(t *testing.T) {
	c := NewCircle(v3.Vec{}, v3.Vec{Z: 1}, 1, 0)
	tr, err := NewTrimmed(c, 0.1, 0.6)
	require.NoError(t, err)
	require.Equal(t, []float64{0.1, 0.25, 0.5, 0.6}, tr.BreakParameters())

	_, err = NewTrimmed(c, 0.6, 0.1)
	require.True(t, errors.Is(err, kernel.ErrInvalidCurve))

	a, b, err := Split(c, 0.3)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.25, 0.3}, a.BreakParameters())
	require.Equal(t, []float64{0.3, 0.5, 0.75, 1}, b.BreakParameters())
}
