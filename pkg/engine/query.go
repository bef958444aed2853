package engine

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/kernel"
)

// QueryRecord is the outcome of one query builtin, in evaluation order.
type QueryRecord struct {
	Op     string   `json:"op"`
	Curves []string `json:"curves"`
	Result any      `json:"result"`
}

// PositionResult is recorded by position-of.
type PositionResult struct {
	Param float64 `json:"param"`
	Found bool    `json:"found"`
}

// ClosestResult is recorded by closest-point.
type ClosestResult struct {
	Param    float64 `json:"param"`
	Distance float64 `json:"distance"`
	Point    v3.Vec  `json:"point"`
}

// CurvatureResult is recorded by curvature.
type CurvatureResult struct {
	Param     float64 `json:"param"`
	Curvature float64 `json:"curvature"`
	OK        bool    `json:"ok"`
}

// registerQueryBuiltins installs the hull queries. Every query accepts a
// node reference or a bare curve expression, records a QueryRecord and
// returns a plain value to the script.
func (s *session) registerQueryBuiltins(env *zygo.Zlisp) {

	// -----------------------------------------------------------------------
	// (position-of c (vec3 1 2 0)) -> normalized parameter, or nil
	// -----------------------------------------------------------------------
	env.AddFunction("position_of", wrap("position-of", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, h, p, err := s.curveAndPoint(args)
		if err != nil {
			return nil, err
		}
		u, ok := h.PositionOf(p)
		s.record("position-of", PositionResult{Param: u, Found: ok}, n)
		if !ok {
			return zygo.SexpNull, nil
		}
		return sexpFloat(u), nil
	}))

	// -----------------------------------------------------------------------
	// (closest-point c (vec3 1 2 0)) -> point on the curve, or nil
	// -----------------------------------------------------------------------
	env.AddFunction("closest_point", wrap("closest-point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, h, p, err := s.curveAndPoint(args)
		if err != nil {
			return nil, err
		}
		u, dist, ok := h.ClosestParameter(p)
		if !ok {
			s.record("closest-point", nil, n)
			return zygo.SexpNull, nil
		}
		q := n.Curve.PointAt(u)
		s.record("closest-point", ClosestResult{Param: u, Distance: dist, Point: q}, n)
		return &sexpVec3{vec: q}, nil
	}))

	// -----------------------------------------------------------------------
	// (extrema c (vec3 1 0 0)) -> list of parameters
	// -----------------------------------------------------------------------
	env.AddFunction("extrema", wrap("extrema", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, h, dir, err := s.curveAndPoint(args)
		if err != nil {
			return nil, err
		}
		us := h.GetExtrema(dir)
		s.record("extrema", lo.Ternary(us == nil, []float64{}, us), n)
		return sexpFloats(us), nil
	}))

	// -----------------------------------------------------------------------
	// (plane-intersect c :origin (vec3 0 0 0) :normal (vec3 1 0 0)) -> list of points
	// -----------------------------------------------------------------------
	env.AddFunction("plane_intersect", wrap("plane-intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		n, h, err := s.hullOf(pa.positional[0])
		if err != nil {
			return nil, err
		}
		origin, err := pa.vec("origin", v3.Vec{})
		if err != nil {
			return nil, err
		}
		normal, err := pa.vec("normal", v3.Vec{Z: 1})
		if err != nil {
			return nil, err
		}
		if normal.Length() == 0 {
			return nil, fmt.Errorf("normal must be non-zero")
		}
		hits := h.PlaneIntersection(kernel.NewPlane(origin, normal))
		s.record("plane-intersect", lo.Ternary(hits == nil, []hull.PlaneHit{}, hits), n)
		return sexpVecs(lo.Map(hits, func(hit hull.PlaneHit, _ int) v3.Vec { return hit.Point })), nil
	}))

	// -----------------------------------------------------------------------
	// (intersect a b) -> list of points
	// -----------------------------------------------------------------------
	env.AddFunction("intersect", wrap("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("requires two curves")
		}
		na, ha, err := s.hullOf(args[0])
		if err != nil {
			return nil, err
		}
		nb, hb, err := s.hullOf(args[1])
		if err != nil {
			return nil, err
		}
		hits := ha.Intersect(hb)
		s.record("intersect", lo.Ternary(hits == nil, []hull.CurveHit{}, hits), na, nb)
		return sexpVecs(lo.Map(hits, func(hit hull.CurveHit, _ int) v3.Vec { return hit.Point })), nil
	}))

	// -----------------------------------------------------------------------
	// (hit-box c :min (vec3 ...) :max (vec3 ...) :inside-only true) -> bool
	// -----------------------------------------------------------------------
	env.AddFunction("hit_box", wrap("hit-box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		lower, err := pa.vec("min", v3.Vec{})
		if err != nil {
			return nil, err
		}
		upper, err := pa.vec("max", v3.Vec{})
		if err != nil {
			return nil, err
		}
		return s.hitTest(pa, "hit-box", kernel.BoxVolume{Box: kernel.BoundingBox(lower, upper)})
	}))

	// -----------------------------------------------------------------------
	// (hit-pick c :origin (vec3 ...) :direction (vec3 ...) :radius 0.1) -> bool
	// -----------------------------------------------------------------------
	env.AddFunction("hit_pick", wrap("hit-pick", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		origin, err := pa.vec("origin", v3.Vec{})
		if err != nil {
			return nil, err
		}
		dir, err := pa.vec("direction", v3.Vec{Z: -1})
		if err != nil {
			return nil, err
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return nil, err
		}
		if radius < 0 {
			return nil, fmt.Errorf("radius %g must not be negative", radius)
		}
		return s.hitTest(pa, "hit-pick", kernel.PickVolume{Origin: origin, Direction: dir, Radius: radius})
	}))

	// -----------------------------------------------------------------------
	// (curve-length c) -> number
	// -----------------------------------------------------------------------
	env.AddFunction("curve_length", wrap("curve-length", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		n, h, err := s.hullOf(args[0])
		if err != nil {
			return nil, err
		}
		l := h.GetLength()
		s.record("curve-length", l, n)
		return sexpFloat(l), nil
	}))

	// -----------------------------------------------------------------------
	// (approximate c :max-error 0.01 :lines-only true) -> segment count
	// -----------------------------------------------------------------------
	env.AddFunction("approximate", wrap("approximate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		n, h, err := s.hullOf(pa.positional[0])
		if err != nil {
			return nil, err
		}
		maxError, err := pa.float("max-error", 0.01)
		if err != nil {
			return nil, err
		}
		linesOnly, err := pa.flag("lines-only")
		if err != nil {
			return nil, err
		}
		a, err := h.Approximate(linesOnly, maxError)
		if err != nil {
			return nil, err
		}
		a.Name = n.Label()
		s.record("approximate", a, n)
		return &zygo.SexpInt{Val: int64(a.SegmentCount())}, nil
	}))

	// -----------------------------------------------------------------------
	// (same-geometry a b :precision 1e-6) -> bool
	// -----------------------------------------------------------------------
	env.AddFunction("same_geometry", wrap("same-geometry", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires two curves")
		}
		na, ha, err := s.hullOf(pa.positional[0])
		if err != nil {
			return nil, err
		}
		nb, hb, err := s.hullOf(pa.positional[1])
		if err != nil {
			return nil, err
		}
		precision, err := pa.float("precision", 1e-6)
		if err != nil {
			return nil, err
		}
		same := ha.SameGeometry(hb, precision)
		s.record("same-geometry", same, na, nb)
		return sexpBool(same), nil
	}))

	// -----------------------------------------------------------------------
	// (curvature c 0.5) -> number, or nil
	// -----------------------------------------------------------------------
	env.AddFunction("curvature", wrap("curvature", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("requires a curve and a parameter")
		}
		n, err := s.toCurveNode(args[0])
		if err != nil {
			return nil, err
		}
		u, err := toFloat64(args[1])
		if err != nil {
			return nil, fmt.Errorf("parameter: %w", err)
		}
		k, ok := hull.Curvature(n.Curve, u)
		s.record("curvature", CurvatureResult{Param: u, Curvature: k, OK: ok}, n)
		if !ok {
			return zygo.SexpNull, nil
		}
		return sexpFloat(k), nil
	}))
}

// curveAndPoint parses the (curve vec3) argument pair shared by the point
// queries.
func (s *session) curveAndPoint(args []zygo.Sexp) (*graph.Node, *hull.Hull, v3.Vec, error) {
	if len(args) != 2 {
		return nil, nil, v3.Vec{}, fmt.Errorf("requires a curve and a vec3")
	}
	n, h, err := s.hullOf(args[0])
	if err != nil {
		return nil, nil, v3.Vec{}, err
	}
	p, err := toVec3(args[1])
	if err != nil {
		return nil, nil, v3.Vec{}, err
	}
	return n, h, p, nil
}

// hitTest runs a hit test against the first positional argument.
func (s *session) hitTest(pa kwArgs, op string, vol kernel.Volume) (zygo.Sexp, error) {
	n, h, err := s.hullOf(pa.positional[0])
	if err != nil {
		return nil, err
	}
	insideOnly, err := pa.flag("inside-only")
	if err != nil {
		return nil, err
	}
	hit := h.HitTest(vol, insideOnly)
	s.record(op, hit, n)
	return sexpBool(hit), nil
}
