package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/curvekit/pkg/hull"
)

// CurveGraph is the top-level data structure produced by script evaluation.
// Its structure is not mutated after evaluation; each evaluation produces
// a new graph. Hulls are built on demand and shared by concurrent queries.
type CurveGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Config    hull.Config       `json:"config"`
	Version   uint64            `json:"version"`

	mu     sync.Mutex
	caches map[NodeID]*hull.Cache
}

// New creates an empty graph whose hulls use cfg.
func New(cfg hull.Config) *CurveGraph {
	return &CurveGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Config:    cfg,
		caches:    make(map[NodeID]*hull.Cache),
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *CurveGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *CurveGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *CurveGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *CurveGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *CurveGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Curves returns every node carrying a curve, ordered by label.
func (g *CurveGraph) Curves() []*Node {
	curves := lo.Filter(lo.Values(g.Nodes), func(n *Node, _ int) bool {
		return n.HasCurve() && n.Curve != nil
	})
	sort.Slice(curves, func(i, j int) bool { return curves[i].Label() < curves[j].Label() })
	return curves
}

// Children returns the child nodes of the given node.
func (g *CurveGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *CurveGraph) NodeCount() int {
	return len(g.Nodes)
}

// Cache returns the hull cache of a curve-bearing node, creating it on
// first use.
func (g *CurveGraph) Cache(n *Node) (*hull.Cache, error) {
	if n == nil || !n.HasCurve() || n.Curve == nil {
		return nil, fmt.Errorf("graph: node has no curve")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.caches == nil {
		g.caches = make(map[NodeID]*hull.Cache)
	}
	c, ok := g.caches[n.ID]
	if !ok {
		c = hull.NewCache(n.Curve, g.Config)
		g.caches[n.ID] = c
	}
	return c, nil
}

// Hull returns the current hull of a curve-bearing node.
func (g *CurveGraph) Hull(n *Node) (*hull.Hull, error) {
	c, err := g.Cache(n)
	if err != nil {
		return nil, err
	}
	h, err := c.Hull()
	if err != nil {
		return nil, fmt.Errorf("hull of %s: %w", n.Label(), err)
	}
	return h, nil
}

// HullByName resolves a named node and returns its hull.
func (g *CurveGraph) HullByName(name string) (*hull.Hull, error) {
	n := g.Lookup(name)
	if n == nil {
		return nil, fmt.Errorf("graph: no node named %q", name)
	}
	return g.Hull(n)
}
