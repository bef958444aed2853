package hull

import "github.com/chazu/curvekit/pkg/kernel"

// Curvature returns the curvature of c at u, or false when c cannot
// evaluate its second derivative or the tangent vanishes.
func Curvature(c kernel.Curve, u float64) (float64, bool) {
	sd, ok := c.(kernel.SecondDerivativer)
	if !ok {
		return 0, false
	}
	_, d1, d2, ok := sd.TryPointDeriv2At(u)
	if !ok {
		return 0, false
	}
	speed := d1.Length()
	if speed == 0 {
		return 0, false
	}
	return d1.Cross(d2).Length() / (speed * speed * speed), true
}
