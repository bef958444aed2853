package graph

import "github.com/chazu/curvekit/pkg/kernel"

// NodeKind enumerates the types of nodes in the curve graph.
type NodeKind int

const (
	NodeCurve     NodeKind = iota // primitive curve (line, arc, helix, bezier)
	NodeTransform                 // rigid transform of one child curve
	NodeTrim                      // parameter range of one child curve
	NodeGroup                     // logical grouping
)

func (k NodeKind) String() string {
	switch k {
	case NodeCurve:
		return "curve"
	case NodeTransform:
		return "transform"
	case NodeTrim:
		return "trim"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the curve graph.
type Node struct {
	ID       NodeID    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Source   SourceRef `json:"source"`
	Children []NodeID  `json:"children,omitempty"`
	Data     NodeData  `json:"data"`
	// Curve is the evaluated curve for curve, transform and trim nodes.
	Curve kernel.Curve `json:"-"`
}

// HasCurve reports whether the node evaluates to a curve.
func (n *Node) HasCurve() bool {
	return n.Kind != NodeGroup
}

// Label returns the name, or the short ID for unnamed nodes.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
