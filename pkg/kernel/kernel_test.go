package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

// --- Approximation helper method tests ---

func TestApproximationSegmentCount(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     int
	}{
		{"empty", nil, 0},
		{"one segment", []Segment{{End: v3.Vec{X: 1}}}, 1},
		{"two segments", []Segment{{End: v3.Vec{X: 1}}, {Start: v3.Vec{X: 1}, End: v3.Vec{X: 2}}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Approximation{Segments: tt.segments}
			if got := a.SegmentCount(); got != tt.want {
				t.Errorf("SegmentCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApproximationIsEmpty(t *testing.T) {
	t.Run("empty approximation", func(t *testing.T) {
		a := &Approximation{}
		if !a.IsEmpty() {
			t.Error("IsEmpty() = false for empty approximation, want true")
		}
		if a.Points() != nil {
			t.Error("Points() of empty approximation should be nil")
		}
	})
	t.Run("non-empty approximation", func(t *testing.T) {
		a := &Approximation{Segments: []Segment{{End: v3.Vec{X: 1}}}}
		if a.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty approximation, want false")
		}
		require.Len(t, a.Points(), 2)
	})
}

func TestArcSegmentDistance(t *testing.T) {
	// quarter circle of radius 2 in the XY plane
	s := Segment{
		Start: v3.Vec{X: 2},
		Mid:   v3.Vec{X: math.Sqrt2, Y: math.Sqrt2},
		End:   v3.Vec{Y: 2},
		Arc:   true,
	}
	require.InDelta(t, 0, s.Distance(v3.Vec{X: math.Sqrt(3), Y: 1}), 1e-9)
	require.InDelta(t, 1, s.Distance(v3.Vec{X: 3 / math.Sqrt2, Y: 3 / math.Sqrt2}), 1e-9)
	require.InDelta(t, 1, s.Distance(v3.Vec{Z: 1, X: 2}), 1e-9)
	// beyond the end of the arc the nearest point is the endpoint
	require.InDelta(t, 2*math.Sqrt2, s.Distance(v3.Vec{X: -2}), 1e-9)
}

func TestSegmentDistance(t *testing.T) {
	a, b := v3.Vec{}, v3.Vec{X: 4}
	require.InDelta(t, 3, SegmentDistance(v3.Vec{X: 2, Y: 3}, a, b), 1e-12)
	require.InDelta(t, 5, SegmentDistance(v3.Vec{X: 7, Y: 4}, a, b), 1e-12)
	require.InDelta(t, 1, SegmentDistance(v3.Vec{Z: 1}, a, a), 1e-12)
}

// --- Plane ---

func TestPlaneFrameIsOrthonormal(t *testing.T) {
	normals := []v3.Vec{{Z: 1}, {X: 1}, {Y: -3}, {X: 1, Y: 2, Z: 3}, {}}
	for _, n := range normals {
		pl := NewPlane(v3.Vec{X: 1, Y: 2, Z: 3}, n)
		require.InDelta(t, 1, pl.XAxis.Length(), 1e-12)
		require.InDelta(t, 1, pl.YAxis.Length(), 1e-12)
		require.InDelta(t, 1, pl.Normal.Length(), 1e-12)
		require.InDelta(t, 0, pl.XAxis.Dot(pl.Normal), 1e-12)
		require.InDelta(t, 0, pl.YAxis.Dot(pl.Normal), 1e-12)
		require.InDelta(t, 0, pl.XAxis.Dot(pl.YAxis), 1e-12)
	}
}

func TestPlaneLocal(t *testing.T) {
	pl := NewPlane(v3.Vec{Z: 5}, v3.Vec{Z: 2})
	require.InDelta(t, -5, pl.SignedDistance(v3.Vec{X: 7}), 1e-12)
	l := pl.ToLocal(v3.Vec{X: 1, Y: 1, Z: 6})
	require.InDelta(t, 1, l.Z, 1e-12)
	uv := pl.UV(v3.Vec{X: 1, Y: 1, Z: 6})
	require.InDelta(t, math.Sqrt2, math.Hypot(uv.X, uv.Y), 1e-12)
}

// --- Volumes ---

func TestBoxVolumeClassify(t *testing.T) {
	vol := BoxVolume{Box: sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 10, Y: 10, Z: 10}}}
	tests := []struct {
		name string
		box  sdf.Box3
		want Relation
	}{
		{"inside", sdf.Box3{Min: v3.Vec{X: 1, Y: 1, Z: 1}, Max: v3.Vec{X: 2, Y: 2, Z: 2}}, Inside},
		{"outside", sdf.Box3{Min: v3.Vec{X: 11, Y: 1, Z: 1}, Max: v3.Vec{X: 12, Y: 2, Z: 2}}, Outside},
		{"crossing", sdf.Box3{Min: v3.Vec{X: 9, Y: 1, Z: 1}, Max: v3.Vec{X: 12, Y: 2, Z: 2}}, Crossing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vol.Classify(tt.box); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickVolume(t *testing.T) {
	vol := PickVolume{Origin: v3.Vec{Z: 10}, Direction: v3.Vec{Z: -1}, Radius: 0.5}
	require.True(t, vol.Contains(v3.Vec{X: 0.4}))
	require.False(t, vol.Contains(v3.Vec{X: 0.6}))
	// behind the origin the volume is capped by a hemisphere
	require.False(t, vol.Contains(v3.Vec{Z: 11}))
	_, bounded := vol.Bounds()
	require.False(t, bounded)

	tiny := sdf.Box3{Min: v3.Vec{X: -0.1, Y: -0.1}, Max: v3.Vec{X: 0.1, Y: 0.1, Z: 1}}
	require.Equal(t, Inside, vol.Classify(tiny))
	far := sdf.Box3{Min: v3.Vec{X: 5, Y: 5}, Max: v3.Vec{X: 6, Y: 6, Z: 1}}
	require.Equal(t, Outside, vol.Classify(far))
	wide := sdf.Box3{Min: v3.Vec{X: -1, Y: -1}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	require.Equal(t, Crossing, vol.Classify(wide))
}

func TestBoundingBoxAndOverlap(t *testing.T) {
	b := BoundingBox(v3.Vec{X: 1, Y: -1}, v3.Vec{X: -2, Y: 3, Z: 4})
	require.Equal(t, v3.Vec{X: -2, Y: -1}, b.Min)
	require.Equal(t, v3.Vec{X: 1, Y: 3, Z: 4}, b.Max)
	require.True(t, BoxesOverlap(b, Pad(BoundingBox(v3.Vec{X: 1.5}), 0.5)))
	require.False(t, BoxesOverlap(b, BoundingBox(v3.Vec{X: 1.5})))
}

// --- Domain ---

type stubCurve struct{ breaks []float64 }

func (c stubCurve) PointAt(u float64) v3.Vec   { return v3.Vec{X: u} }
func (c stubCurve) DirectionAt(float64) v3.Vec { return v3.Vec{X: 1} }
func (c stubCurve) BreakParameters() []float64 { return c.breaks }
func (c stubCurve) IsClosed() bool             { return false }
func (c stubCurve) IsSingular() bool           { return false }

// Compile-time check that the stub implements the interface.
var _ Curve = stubCurve{}

func TestDomain(t *testing.T) {
	lo, hi, err := Domain(stubCurve{breaks: []float64{0.5, 1, 2}})
	require.NoError(t, err)
	require.Equal(t, 0.5, lo)
	require.Equal(t, 2.0, hi)

	_, _, err = Domain(stubCurve{breaks: []float64{1}})
	require.True(t, errors.Is(err, ErrInvalidCurve))
}
