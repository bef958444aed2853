package hull

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// GetLength estimates the arc length. Linear elements contribute their
// chord. Curved elements contribute (2*chord + path)/3, where path is the
// shortest polyline from one base point through both side vertices to the
// other; the chord underestimates and the path overestimates.
func (h *Hull) GetLength() float64 {
	total := 0.0
	for i := 0; i < h.Len(); i++ {
		total += cellLength(h.cell(i))
	}
	return total
}

func cellLength(c cell) float64 {
	chord := c.chord()
	if c.kind == ElementLinear {
		return chord
	}
	path := math.Min(
		polyline(c.p0, c.a, c.b, c.p1),
		polyline(c.p0, c.b, c.a, c.p1),
	)
	return (2*chord + path) / 3
}

func polyline(pts ...v3.Vec) float64 {
	n := 0.0
	for i := 1; i < len(pts); i++ {
		n += pts[i].Sub(pts[i-1]).Length()
	}
	return n
}
