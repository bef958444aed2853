package tessellate_test

import (
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/chazu/curvekit/pkg/kernel/curves"
	"github.com/chazu/curvekit/pkg/kernel/sdfx"
	"github.com/chazu/curvekit/pkg/tessellate"
)

// makeLine creates a line curve node with the given name and endpoints.
func makeLine(name string, a, b v3.Vec) *graph.Node {
	return &graph.Node{
		ID:    graph.NewNodeID("line/" + name),
		Kind:  graph.NodeCurve,
		Name:  name,
		Data:  graph.CurveData{Prim: graph.PrimLine, Points: []v3.Vec{a, b}},
		Curve: curves.NewLine(a, b),
	}
}

// makeCircle creates a circle node in the XY plane.
func makeCircle(name string, center v3.Vec, r float64) *graph.Node {
	return &graph.Node{
		ID:    graph.NewNodeID("circle/" + name),
		Kind:  graph.NodeCurve,
		Name:  name,
		Data:  graph.CurveData{Prim: graph.PrimCircle, Center: center, Normal: v3.Vec{Z: 1}, Radius: r},
		Curve: curves.NewCircle(center, v3.Vec{Z: 1}, r, 0),
	}
}

// makeTranslate creates a transform node moving child by t.
func makeTranslate(name string, t v3.Vec, child *graph.Node) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("translate/" + name),
		Kind:     graph.NodeTransform,
		Name:     name,
		Children: []graph.NodeID{child.ID},
		Data:     graph.TransformData{Translation: t},
		Curve:    curves.Translate(child.Curve, t),
	}
}

// makeGroup creates a group node with children.
func makeGroup(name string, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("group/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{Description: name},
	}
}

func names(approx []*kernel.Approximation) string {
	var out []string
	for _, a := range approx {
		out = append(out, a.Name)
	}
	return strings.Join(out, ",")
}

func TestSingleLine(t *testing.T) {
	g := graph.New(hull.DefaultConfig())
	edge := makeLine("edge", v3.Vec{}, v3.Vec{X: 10})
	g.AddNode(edge)
	g.AddRoot(edge.ID)

	approx, err := tessellate.Tessellate(g, tessellate.DefaultOptions())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(approx) != 1 {
		t.Fatalf("expected 1 approximation, got %d", len(approx))
	}
	a := approx[0]
	if a.Name != "edge" {
		t.Errorf("expected name %q, got %q", "edge", a.Name)
	}
	if a.SegmentCount() != 1 || a.ArcCount() != 0 {
		t.Errorf("line should be one straight segment, got %d segments, %d arcs", a.SegmentCount(), a.ArcCount())
	}
}

func TestCircleUsesArcs(t *testing.T) {
	g := graph.New(hull.DefaultConfig())
	rim := makeCircle("rim", v3.Vec{}, 5)
	g.AddNode(rim)
	g.AddRoot(rim.ID)

	approx, err := tessellate.Tessellate(g, tessellate.Options{MaxError: 1e-3})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	arcs := approx[0]
	if arcs.ArcCount() == 0 {
		t.Error("circle approximation should contain arcs")
	}

	approx, err = tessellate.Tessellate(g, tessellate.Options{MaxError: 1e-3, LinesOnly: true})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	lines := approx[0]
	if lines.ArcCount() != 0 {
		t.Error("lines-only approximation should contain no arcs")
	}
	if lines.SegmentCount() <= arcs.SegmentCount() {
		t.Errorf("lines-only should need more segments: %d vs %d", lines.SegmentCount(), arcs.SegmentCount())
	}
	for i := 0; i < 32; i++ {
		theta := 2 * math.Pi * float64(i) / 32
		p := v3.Vec{X: 5 * math.Cos(theta), Y: 5 * math.Sin(theta)}
		if d := lines.Distance(p); d > 2e-3 {
			t.Errorf("point at %.3f rad is %g from the approximation", theta, d)
		}
	}
}

func TestTransformEmitsOnce(t *testing.T) {
	g := graph.New(hull.DefaultConfig())
	base := makeLine("base", v3.Vec{}, v3.Vec{X: 4})
	lid := makeTranslate("lid", v3.Vec{Y: 3}, base)
	g.AddNode(base)
	g.AddNode(lid)
	g.AddRoot(lid.ID)

	approx, err := tessellate.Tessellate(g, tessellate.DefaultOptions())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if got := names(approx); got != "lid" {
		t.Fatalf("expected only lid, got %s", got)
	}
	pts := approx[0].Points()
	if pts[0].Y != 3 || pts[len(pts)-1].X != 4 {
		t.Errorf("lid points = %v, want the translated line", pts)
	}
}

func TestGroupAndSharedNodes(t *testing.T) {
	g := graph.New(hull.DefaultConfig())
	base := makeLine("base", v3.Vec{}, v3.Vec{X: 4})
	lid := makeTranslate("lid", v3.Vec{Y: 3}, base)
	rim := makeCircle("rim", v3.Vec{X: 2, Y: 1.5}, 1)
	profile := makeGroup("profile", base.ID, lid.ID, rim.ID, base.ID)
	g.AddNode(base)
	g.AddNode(lid)
	g.AddNode(rim)
	g.AddNode(profile)
	g.AddRoot(profile.ID)
	g.AddRoot(rim.ID)

	approx, err := tessellate.Tessellate(g, tessellate.DefaultOptions())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if got := names(approx); got != "base,lid,rim" {
		t.Errorf("approximations = %s, want base,lid,rim", got)
	}
}

func TestErrors(t *testing.T) {
	if approx, err := tessellate.Tessellate(nil, tessellate.DefaultOptions()); err != nil || approx != nil {
		t.Errorf("nil graph: %v, %v", approx, err)
	}

	g := graph.New(hull.DefaultConfig())
	edge := makeLine("edge", v3.Vec{}, v3.Vec{X: 1})
	g.AddNode(edge)
	g.AddRoot(edge.ID)
	if _, err := tessellate.Tessellate(g, tessellate.Options{}); err == nil {
		t.Error("zero max error should fail")
	}

	broken := &graph.Node{ID: graph.NewNodeID("broken"), Kind: graph.NodeCurve, Name: "broken"}
	g.AddNode(broken)
	g.AddRoot(broken.ID)
	_, err := tessellate.Tessellate(g, tessellate.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "no evaluated curve") {
		t.Errorf("expected missing curve error, got %v", err)
	}
}

func TestTubes(t *testing.T) {
	g := graph.New(hull.DefaultConfig())
	edge := makeLine("edge", v3.Vec{}, v3.Vec{X: 4})
	g.AddNode(edge)
	g.AddRoot(edge.ID)

	approx, err := tessellate.Tessellate(g, tessellate.DefaultOptions())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	meshes, err := tessellate.Tubes(approx, sdfx.New(0.25))
	if err != nil {
		t.Fatalf("Tubes failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() || meshes[0].Name != "edge" {
		t.Fatalf("unexpected meshes: %+v", meshes)
	}
	if _, err := tessellate.Tubes([]*kernel.Approximation{{Name: "empty"}}, sdfx.New(0.25)); err == nil {
		t.Error("empty approximation should fail")
	}
}
