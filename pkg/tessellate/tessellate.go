// Package tessellate walks a curve graph and produces line/arc
// approximations of its curves through their hulls. One approximation is
// produced per curve reached from the roots.
package tessellate

import (
	"fmt"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/chazu/curvekit/pkg/kernel/sdfx"
)

// Options control the approximation of every curve.
type Options struct {
	// MaxError is the largest allowed distance between the curve and its
	// approximation. Must be positive.
	MaxError float64
	// LinesOnly disables arc segments.
	LinesOnly bool
}

// DefaultOptions returns options allowing arcs with a 0.01 tolerance.
func DefaultOptions() Options {
	return Options{MaxError: 0.01}
}

// walker carries traversal state for one Tessellate call.
type walker struct {
	g    *graph.CurveGraph
	opts Options
	seen map[graph.NodeID]bool
}

// Tessellate walks the curve graph and approximates every curve-bearing
// node reachable from the roots. A transform or trim node already carries
// its evaluated curve, so its child is not emitted on its behalf; the
// child appears only when reached some other way. Nodes reached twice
// are emitted once. The graph is never mutated.
func Tessellate(g *graph.CurveGraph, opts Options) ([]*kernel.Approximation, error) {
	if g == nil {
		return nil, nil
	}
	if !(opts.MaxError > 0) {
		return nil, fmt.Errorf("tessellate: max error %g must be positive", opts.MaxError)
	}

	w := &walker{g: g, opts: opts, seen: make(map[graph.NodeID]bool)}
	var out []*kernel.Approximation
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := w.walkNode(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		out = append(out, collected...)
	}
	return out, nil
}

// walkNode recursively traverses a node, collecting approximations.
func (w *walker) walkNode(n *graph.Node) ([]*kernel.Approximation, error) {
	if w.seen[n.ID] {
		return nil, nil
	}
	w.seen[n.ID] = true

	switch n.Kind {
	case graph.NodeCurve, graph.NodeTransform, graph.NodeTrim:
		return w.handleCurve(n)

	case graph.NodeGroup:
		return w.handleGroup(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handleCurve approximates a curve-bearing node through its cached hull.
func (w *walker) handleCurve(n *graph.Node) ([]*kernel.Approximation, error) {
	if n.Curve == nil {
		return nil, fmt.Errorf("%s node %s has no evaluated curve", n.Kind, n.Label())
	}
	h, err := w.g.Hull(n)
	if err != nil {
		return nil, err
	}
	a, err := h.Approximate(w.opts.LinesOnly, w.opts.MaxError)
	if err != nil {
		return nil, fmt.Errorf("approximate %s: %w", n.Label(), err)
	}
	a.Name = n.Label()
	return []*kernel.Approximation{a}, nil
}

// handleGroup recurses into children transparently.
func (w *walker) handleGroup(n *graph.Node) ([]*kernel.Approximation, error) {
	var out []*kernel.Approximation
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		out = append(out, collected...)
	}
	return out, nil
}

// Tubes sweeps each approximation into a preview mesh.
func Tubes(approx []*kernel.Approximation, t *sdfx.Tuber) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(approx))
	for _, a := range approx {
		m, err := t.ToMesh(a)
		if err != nil {
			return nil, fmt.Errorf("tessellate: tube for %s: %w", a.Name, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}
