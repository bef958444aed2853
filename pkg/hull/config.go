package hull

import "fmt"

// Config holds the empirical tolerances of the hull builder and the
// queries. The defaults are relied on by tolerance-sensitive callers;
// change them only with care.
type Config struct {
	// TangentCosine is the smallest cosine allowed between the tangent
	// plane normals at the two ends of an element before it is bisected.
	TangentCosine float64 `mapstructure:"tangent_cosine" json:"tangent_cosine"`
	// MinSplitFraction is the narrowest element, as a fraction of the
	// curve's domain, that may still be bisected.
	MinSplitFraction float64 `mapstructure:"min_split_fraction" json:"min_split_fraction"`
	// MinParamWidth is the parameter width below which break intervals are
	// treated as zero length.
	MinParamWidth float64 `mapstructure:"min_param_width" json:"min_param_width"`
	// SubdivideWidth is the normalized width at which recursive refinement
	// (intersections, hit tests, approximation) stops.
	SubdivideWidth float64 `mapstructure:"subdivide_width" json:"subdivide_width"`
	// ExtremaWidth is the bracket width at which extrema bisection stops.
	ExtremaWidth float64 `mapstructure:"extrema_width" json:"extrema_width"`
	// DedupDistance merges intersection points closer than this.
	DedupDistance float64 `mapstructure:"dedup_distance" json:"dedup_distance"`
	// GeometricEpsilon is the distance treated as zero.
	GeometricEpsilon float64 `mapstructure:"geometric_epsilon" json:"geometric_epsilon"`
	// MaxNewtonIterations bounds every Newton search.
	MaxNewtonIterations int `mapstructure:"max_newton_iterations" json:"max_newton_iterations"`
}

// DefaultConfig returns the standard tolerances.
func DefaultConfig() Config {
	return Config{
		TangentCosine:       0.7,
		MinSplitFraction:    0.005,
		MinParamWidth:       1e-8,
		SubdivideWidth:      1e-6,
		ExtremaWidth:        1e-8,
		DedupDistance:       1e-6,
		GeometricEpsilon:    1e-9,
		MaxNewtonIterations: 30,
	}
}

// Validate checks that every tolerance is usable.
func (c Config) Validate() error {
	if c.TangentCosine <= -1 || c.TangentCosine >= 1 {
		return fmt.Errorf("tangent_cosine %g must lie in (-1, 1)", c.TangentCosine)
	}
	positive := []struct {
		name string
		v    float64
	}{
		{"min_split_fraction", c.MinSplitFraction},
		{"min_param_width", c.MinParamWidth},
		{"subdivide_width", c.SubdivideWidth},
		{"extrema_width", c.ExtremaWidth},
		{"dedup_distance", c.DedupDistance},
		{"geometric_epsilon", c.GeometricEpsilon},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			return fmt.Errorf("%s %g must be positive", p.name, p.v)
		}
	}
	if c.MinSplitFraction >= 1 {
		return fmt.Errorf("min_split_fraction %g must be below 1", c.MinSplitFraction)
	}
	if c.MaxNewtonIterations < 1 {
		return fmt.Errorf("max_newton_iterations %d must be at least 1", c.MaxNewtonIterations)
	}
	return nil
}
