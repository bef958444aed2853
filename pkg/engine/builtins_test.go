package engine

import (
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/chazu/curvekit/pkg/kernel/curves"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(circle :radius 2)`,
			expect: `(circle "__kw_radius" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(trim c :from 0 :to 0.5)`,
			expect: `(trim c "__kw_from" 0 "__kw_to" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(position-of c p)`,
			expect: `(position_of c p)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -3 0 1e-6)`,
			expect: `(vec3 -3 0 1e-6)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:max-error`,
			expect: `"__kw_max-error"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, err := NewEngine(hull.DefaultConfig()).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if res.Graph == nil {
		t.Fatal("expected non-nil graph")
	}
	return res
}

// evalErrors evaluates source expecting non-fatal errors.
func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	res, err := NewEngine(hull.DefaultConfig()).Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res.Graph != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return res.Errors
}

func queriesByOp(res *EvalResult, op string) []QueryRecord {
	var out []QueryRecord
	for _, q := range res.Queries {
		if q.Op == op {
			out = append(out, q)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Curve construction
// ---------------------------------------------------------------------------

func TestDefcurvePrimitives(t *testing.T) {
	res := mustEval(t, `
(defcurve "edge" (line (vec3 0 0 0) (vec3 3 4 0)))
(defcurve "rim" (circle :center (vec3 1 1 0) :radius 2))
(defcurve "quarter" (arc :radius 5 :start 0 :sweep 90))
(defcurve "spring" (helix :radius 1 :pitch 0.5 :turns 3))
(defcurve "hump" (bezier :points (list (vec3 0 0 0) (vec3 1 2 0) (vec3 2 0 0))))
`)
	g := res.Graph
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}
	if len(g.Roots) != 5 {
		t.Errorf("every named curve should be a root, got %d roots", len(g.Roots))
	}

	tests := []struct {
		name string
		prim graph.PrimitiveKind
	}{
		{"edge", graph.PrimLine},
		{"rim", graph.PrimCircle},
		{"quarter", graph.PrimArc},
		{"spring", graph.PrimHelix},
		{"hump", graph.PrimBezier},
	}
	for _, tt := range tests {
		n := g.Lookup(tt.name)
		if n == nil {
			t.Fatalf("missing node %q", tt.name)
		}
		if n.Kind != graph.NodeCurve || n.Curve == nil {
			t.Errorf("%s: kind %s, curve %v", tt.name, n.Kind, n.Curve)
		}
		cd, ok := n.Data.(graph.CurveData)
		if !ok || cd.Prim != tt.prim {
			t.Errorf("%s: data %+v, want prim %s", tt.name, n.Data, tt.prim)
		}
	}

	quarter := g.Lookup("quarter").Data.(graph.CurveData)
	if math.Abs(quarter.Sweep-math.Pi/2) > 1e-12 {
		t.Errorf("sweep = %f, want pi/2 (degrees converted)", quarter.Sweep)
	}
	if hump := g.Lookup("hump").Data.(graph.CurveData); hump.Degree != 2 {
		t.Errorf("bezier degree = %d, want 2 from the pole count", hump.Degree)
	}
	end := g.Lookup("edge").Curve.PointAt(1)
	if end != (v3.Vec{X: 3, Y: 4}) {
		t.Errorf("edge end = %v", end)
	}
}

func TestTransformsAndTrim(t *testing.T) {
	res := mustEval(t, `
(def base (defcurve "base" (line (vec3 0 0 0) (vec3 4 0 0))))
(translate base (vec3 0 6 0) :name "lid")
(rotate base :z 90 :name "side")
(trim (curve "base") :from 0.25 :to 0.75 :name "middle")
(group "profile" (curve "lid") (curve "side"))
`)
	g := res.Graph

	lid := g.Lookup("lid")
	if lid.Kind != graph.NodeTransform || len(lid.Children) != 1 || lid.Children[0] != g.Lookup("base").ID {
		t.Fatalf("lid node = %+v", lid)
	}
	if p := lid.Curve.PointAt(1); math.Abs(p.X-4) > 1e-12 || math.Abs(p.Y-6) > 1e-12 {
		t.Errorf("lid end = %v, want (4, 6, 0)", p)
	}
	if p := g.Lookup("side").Curve.PointAt(1); math.Abs(p.X) > 1e-9 || math.Abs(p.Y-4) > 1e-9 {
		t.Errorf("side end = %v, want (0, 4, 0)", p)
	}

	middle := g.Lookup("middle")
	td, ok := middle.Data.(graph.TrimData)
	if !ok || td.From != 0.25 || td.To != 0.75 {
		t.Fatalf("trim data = %+v", middle.Data)
	}
	if bp := middle.Curve.BreakParameters(); bp[0] != 0.25 || bp[len(bp)-1] != 0.75 {
		t.Errorf("trim breaks = %v", bp)
	}

	group := g.Lookup("profile")
	if group.Kind != graph.NodeGroup || len(group.Children) != 2 {
		t.Fatalf("group = %+v", group)
	}
	// lid and side sit in the group; base and middle become roots.
	roots := map[string]bool{}
	for _, id := range g.Roots {
		roots[g.Get(id).Label()] = true
	}
	for _, want := range []string{"profile", "base", "middle"} {
		if !roots[want] {
			t.Errorf("expected %s among roots %v", want, roots)
		}
	}
	if roots["lid"] || roots["side"] {
		t.Errorf("grouped nodes should not be roots: %v", roots)
	}
}

func TestAnonymousNodesAreDeterministic(t *testing.T) {
	source := `(curve-length (translate (line (vec3 0 0 0) (vec3 1 0 0)) (vec3 0 1 0)))`
	a := mustEval(t, source)
	b := mustEval(t, source)
	if a.Graph.NodeCount() != 2 {
		t.Fatalf("expected anonymous line and transform, got %d nodes", a.Graph.NodeCount())
	}
	for id := range a.Graph.Nodes {
		if b.Graph.Get(id) == nil {
			t.Errorf("node %s missing from second evaluation", id.Short())
		}
	}
	if len(a.Graph.Roots) != 1 {
		t.Errorf("only the unreferenced transform should be a root, got %d", len(a.Graph.Roots))
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown curve", `(curve "missing")`, `no curve named "missing"`},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"line arity", `(line (vec3 0 0 0))`, "two end points"},
		{"duplicate name", `(defcurve "a" (circle)) (defcurve "a" (circle))`, `"a" already defined`},
		{"defcurve body", `(defcurve "a" 5)`, "expected curve expression"},
		{"trim range", `(trim (line (vec3 0 0 0) (vec3 1 0 0)) :from 0.5 :to 2)`, "outside domain"},
		{"bad bezier", `(bezier :degree 2 :points (list (vec3 0 0 0) (vec3 1 0 0)))`, "bezier"},
		{"zero normal", `(circle :normal (vec3 0 0 0))`, "normal must be non-zero"},
		{"group child", `(group "g" 5)`, "expected node reference"},
		{"transform of group", `(group "g") (translate (curve "g") (vec3 1 0 0))`, "is not a curve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.source)
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("error = %q, want containing %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestValidationErrorsBlockGraph(t *testing.T) {
	errs := evalErrors(t, `(defcurve "dot" (circle :radius 0))`)
	found := false
	for _, e := range errs {
		found = found || (strings.Contains(e.Message, "radius") && !e.NodeID.IsZero())
	}
	if !found {
		t.Errorf("expected a radius validation error tied to a node, got %v", errs)
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestQueryRecords(t *testing.T) {
	res := mustEval(t, `
(defcurve "rim" (circle :radius 2))
(defcurve "axis" (line (vec3 -3 0 0) (vec3 3 0 0)))
(position-of (curve "rim") (vec3 0 2 0))
(closest-point (curve "axis") (vec3 1 5 0))
(intersect (curve "rim") (curve "axis"))
(curve-length (curve "rim"))
(extrema (curve "rim") (vec3 1 0 0))
(plane-intersect (curve "rim") :origin (vec3 0 0 0) :normal (vec3 1 0 0))
(hit-box (curve "axis") :min (vec3 -1 -1 -1) :max (vec3 1 1 1))
(hit-pick (curve "rim") :origin (vec3 0 0 5) :direction (vec3 0 0 -1) :radius 0.1)
(same-geometry (curve "rim") (rotate (curve "rim") :z 90))
(approximate (curve "rim") :max-error 0.001)
(curvature (curve "rim") 0.3)
`)
	if len(res.Queries) != 11 {
		t.Fatalf("expected 11 query records, got %d", len(res.Queries))
	}
	rim := res.Graph.Lookup("rim").Curve

	pos := queriesByOp(res, "position-of")[0]
	if pr := pos.Result.(PositionResult); !pr.Found || rim.PointAt(pr.Param).Sub(v3.Vec{Y: 2}).Length() > 1e-6 {
		t.Errorf("position-of = %+v", pr)
	}
	if pos.Curves[0] != "rim" {
		t.Errorf("position-of curves = %v", pos.Curves)
	}

	cr := queriesByOp(res, "closest-point")[0].Result.(ClosestResult)
	if math.Abs(cr.Distance-5) > 1e-6 || math.Abs(cr.Point.X-1) > 1e-6 {
		t.Errorf("closest-point = %+v", cr)
	}

	hits := queriesByOp(res, "intersect")[0]
	if got := hits.Result.([]hull.CurveHit); len(got) != 2 {
		t.Errorf("intersect hits = %v, want 2", got)
	}
	if strings.Join(hits.Curves, ",") != "rim,axis" {
		t.Errorf("intersect curves = %v", hits.Curves)
	}

	if l := queriesByOp(res, "curve-length")[0].Result.(float64); math.Abs(l-4*math.Pi) > 0.03 {
		t.Errorf("length = %f, want about %f", l, 4*math.Pi)
	}
	if ex := queriesByOp(res, "extrema")[0].Result.([]float64); len(ex) != 2 {
		t.Errorf("extrema = %v, want 2", ex)
	}
	if ph := queriesByOp(res, "plane-intersect")[0].Result.([]hull.PlaneHit); len(ph) != 2 {
		t.Errorf("plane hits = %v, want 2", ph)
	}
	if !queriesByOp(res, "hit-box")[0].Result.(bool) {
		t.Error("axis should cross the unit box")
	}
	if queriesByOp(res, "hit-pick")[0].Result.(bool) {
		t.Error("a pick down the axis of the circle should miss it")
	}
	if !queriesByOp(res, "same-geometry")[0].Result.(bool) {
		t.Error("a circle rotated about its axis is the same geometry")
	}
	approx := queriesByOp(res, "approximate")[0].Result.(*kernel.Approximation)
	if approx.IsEmpty() || approx.Name != "rim" {
		t.Errorf("approximation = %+v", approx)
	}
	if k := queriesByOp(res, "curvature")[0].Result.(CurvatureResult); !k.OK || math.Abs(k.Curvature-0.5) > 1e-9 {
		t.Errorf("curvature = %+v, want 0.5", k)
	}
}

func TestQueryValuesFlowIntoScript(t *testing.T) {
	res := mustEval(t, `
(def l (curve-length (line (vec3 0 0 0) (vec3 3 4 0))))
(defcurve "scaled" (line (vec3 0 0 0) (vec3 l 0 0)))
`)
	end := res.Graph.Lookup("scaled").Curve.PointAt(1)
	if math.Abs(end.X-5) > 1e-9 {
		t.Errorf("scaled end = %v, want x=5", end)
	}
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"position-of arity", `(position-of (circle))`, "requires a curve and a vec3"},
		{"intersect arity", `(intersect (circle))`, "requires two curves"},
		{"approximate tolerance", `(approximate (circle) :max-error 0)`, "must be positive"},
		{"pick radius", `(hit-pick (circle) :radius -1)`, "must not be negative"},
		{"not a curve", `(curve-length 5)`, "expected curve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.source)
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("error = %q, want containing %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestFinalizeRootsSkipsGrouped(t *testing.T) {
	s := newSession(hull.DefaultConfig())
	c := &sexpCurve{
		data:  graph.CurveData{Prim: graph.PrimLine, Points: []v3.Vec{{}, {X: 1}}},
		curve: curves.NewLine(v3.Vec{}, v3.Vec{X: 1}),
	}
	inGroup := s.bind("a", c)
	loose := s.bind("b", c)
	gid := graph.NewNodeID("group/g")
	s.g.AddNode(&graph.Node{ID: gid, Kind: graph.NodeGroup, Name: "g", Children: []graph.NodeID{inGroup.ID}})
	s.g.AddRoot(gid)

	s.finalizeRoots()
	if len(s.g.Roots) != 2 || s.g.Roots[1] != loose.ID {
		t.Errorf("roots = %v, want group then b", s.g.Roots)
	}
}
