package graph

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/kernel/curves"
)

func geometryFindings(g *CurveGraph) ([]ValidationError, []ValidationWarning) {
	return validateGeometry(g)
}

func warningContains(ws []ValidationWarning, substr string) bool {
	for _, w := range ws {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name string
		data CurveData
		want string
	}{
		{"zero radius circle", CurveData{Prim: PrimCircle}, "circle radius is 0.0000"},
		{"zero sweep arc", CurveData{Prim: PrimArc, Radius: 1}, "arc sweep is zero"},
		{"flat helix", CurveData{Prim: PrimHelix, Radius: 1}, "zero turns"},
		{"short bezier", CurveData{Prim: PrimBezier, Degree: 3, Points: []v3.Vec{{}, {X: 1}}}, "do not form degree 3"},
		{"three point line", CurveData{Prim: PrimLine, Points: []v3.Vec{{}, {X: 1}, {X: 2}}}, "line has 3 points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildValidProfile()
			g.Lookup("rim").Data = tt.data
			errs, _ := geometryFindings(g)
			if !hasError(errs, tt.want) {
				t.Errorf("expected %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestValidateTrimRange(t *testing.T) {
	g := buildValidProfile()
	base := g.Lookup("base")
	trimID := NewNodeID("trim/half")
	g.AddNode(&Node{
		ID: trimID, Kind: NodeTrim, Name: "half",
		Children: []NodeID{base.ID},
		Data:     TrimData{From: 0.5, To: 1.5},
		Curve:    base.Curve,
	})
	g.Lookup("profile").Children = append(g.Lookup("profile").Children, trimID)

	errs, _ := geometryFindings(g)
	if !hasError(errs, "outside child domain") {
		t.Errorf("expected trim range error, got %v", errs)
	}

	g.Get(trimID).Data = TrimData{From: 0.7, To: 0.2}
	errs, _ = geometryFindings(g)
	if !hasError(errs, "is empty") {
		t.Errorf("expected empty trim error, got %v", errs)
	}
}

func TestValidateBreaks(t *testing.T) {
	g := buildValidProfile()
	g.Lookup("lid").Curve = nil
	errs, _ := geometryFindings(g)
	if !hasError(errs, "was not evaluated") {
		t.Errorf("expected missing curve error, got %v", errs)
	}
}

func TestValidateSingularCurve(t *testing.T) {
	g := buildValidProfile()
	dot := NewNodeID("line/dot")
	g.AddNode(&Node{
		ID: dot, Kind: NodeCurve, Name: "dot",
		Data:  CurveData{Prim: PrimLine, Points: []v3.Vec{{X: 1}, {X: 1}}},
		Curve: curves.NewLine(v3.Vec{X: 1}, v3.Vec{X: 1}),
	})
	_, warnings := geometryFindings(g)
	if !warningContains(warnings, "dot is singular") {
		t.Errorf("expected singular warning, got %v", warnings)
	}
}

func TestValidateDuplicateGeometry(t *testing.T) {
	g := buildValidProfile()
	copyID := NewNodeID("line/base-copy")
	g.AddNode(&Node{
		ID: copyID, Kind: NodeCurve, Name: "base-reversed",
		Data:  CurveData{Prim: PrimLine, Points: []v3.Vec{{X: 2, Y: -3}, {X: -2, Y: -3}}},
		Curve: curves.NewLine(v3.Vec{X: 2, Y: -3}, v3.Vec{X: -2, Y: -3}),
	})
	_, warnings := geometryFindings(g)
	if !warningContains(warnings, `"base-reversed" duplicates the geometry of "base"`) {
		t.Errorf("expected duplicate warning, got %v", warnings)
	}
}
