package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry checks every curve against the curve contract and
// flags degenerate or duplicated geometry.
func validateGeometry(g *CurveGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateParameters(g)...)
	errs = append(errs, validateBreaks(g)...)
	warnings = append(warnings, validateDegenerate(g)...)
	warnings = append(warnings, validateDuplicates(g)...)
	return errs, warnings
}

// validateParameters checks the primitive payloads and trim ranges.
func validateParameters(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	fail := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case CurveData:
			switch d.Prim {
			case PrimArc, PrimCircle:
				if d.Radius <= 0 {
					fail(node, "%s radius is %.4f, must be positive", d.Prim, d.Radius)
				}
				if d.Prim == PrimArc && d.Sweep == 0 {
					fail(node, "arc sweep is zero")
				}
			case PrimHelix:
				if d.Radius <= 0 {
					fail(node, "helix radius is %.4f, must be positive", d.Radius)
				}
				if d.Turns == 0 {
					fail(node, "helix has zero turns")
				}
			case PrimBezier:
				if d.Degree < 1 || len(d.Points) < d.Degree+1 || (len(d.Points)-1)%d.Degree != 0 {
					fail(node, "%d poles do not form degree %d segments", len(d.Points), d.Degree)
				}
			case PrimLine:
				if len(d.Points) != 2 {
					fail(node, "line has %d points, want 2", len(d.Points))
				}
			}
		case TrimData:
			if !(d.From < d.To) {
				fail(node, "trim range [%g, %g] is empty", d.From, d.To)
				continue
			}
			if len(node.Children) != 1 {
				continue // arity handled structurally
			}
			child := g.Nodes[node.Children[0]]
			if child == nil || child.Curve == nil {
				continue
			}
			lo, hi, err := kernel.Domain(child.Curve)
			if err == nil && (d.From < lo || d.To > hi) {
				fail(node, "trim range [%g, %g] outside child domain [%g, %g]", d.From, d.To, lo, hi)
			}
		}
	}
	return errs
}

// validateBreaks checks that every curve has a usable break sequence.
func validateBreaks(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		if !node.HasCurve() {
			continue
		}
		if node.Curve == nil {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s node was not evaluated to a curve", node.Kind),
				Severity: SeverityError,
			})
			continue
		}
		bp := node.Curve.BreakParameters()
		if len(bp) < 2 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("curve has %d break parameters, need at least 2", len(bp)),
				Severity: SeverityError,
			})
			continue
		}
		for i := 1; i < len(bp); i++ {
			if bp[i] < bp[i-1] || math.IsNaN(bp[i]) {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("break parameters are not monotonic at index %d", i),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	return errs
}

// validateDegenerate warns about curves that collapse to a point.
func validateDegenerate(g *CurveGraph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, node := range g.Nodes {
		if !node.HasCurve() || node.Curve == nil {
			continue
		}
		if node.Curve.IsSingular() {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("curve %s is singular (collapses to a point)", node.Label()),
			})
		}
	}
	return warnings
}

// validateDuplicates warns when two named curves trace the same geometry.
// Hulls that fail to build are skipped; validateBreaks reports them.
func validateDuplicates(g *CurveGraph) []ValidationWarning {
	var named []*Node
	for _, n := range g.Curves() {
		if n.Name != "" && !n.Curve.IsSingular() {
			named = append(named, n)
		}
	}
	sort.Slice(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	hulls := make([]*hull.Hull, len(named))
	for i, n := range named {
		if h, err := g.Hull(n); err == nil {
			hulls[i] = h
		}
	}

	var warnings []ValidationWarning
	const precision = 1e-6
	for i := range named {
		for j := i + 1; j < len(named); j++ {
			if hulls[i] == nil || hulls[j] == nil {
				continue
			}
			if hulls[i].SameGeometry(hulls[j], precision) {
				warnings = append(warnings, ValidationWarning{
					NodeID:  named[j].ID,
					Message: fmt.Sprintf("curve %q duplicates the geometry of %q", named[j].Name, named[i].Name),
				})
			}
		}
	}
	return warnings
}
