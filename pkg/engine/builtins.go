package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/hull"
	"github.com/chazu/curvekit/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords never collide with user variables of the same name.
//
//  2. Kebab-case to underscore: position-of -> position_of. zygomys reads
//     a hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipString(b, i)
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
			continue
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// skipString returns the index just past the double-quoted literal
// starting at i.
func skipString(b []byte, i int) int {
	j := i + 1
	for j < len(b) && b[j] != '"' {
		if b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpCurve is a curve expression that has not been bound to a node yet.
type sexpCurve struct {
	data  graph.CurveData
	curve kernel.Curve
}

func (c *sexpCurve) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", c.data.Prim)
}
func (c *sexpCurve) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(curve %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string and returns its
// name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// trailing keyword is a flag
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float returns keyword name as a number, or def when absent.
func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// vec returns keyword name as a vector, or def when absent.
func (a kwArgs) vec(name string, def v3.Vec) (v3.Vec, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	p, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// flag returns keyword name as a boolean, false when absent.
func (a kwArgs) flag(name string) (bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// str returns keyword name as a string, empty when absent.
func (a kwArgs) str(name string) (string, error) {
	v, ok := a.kw[name]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// degrees converts a script angle to radians.
func degrees(d float64) float64 {
	return d * math.Pi / 180
}

// ---------------------------------------------------------------------------
// Result conversion
// ---------------------------------------------------------------------------

func sexpFloat(f float64) zygo.Sexp { return &zygo.SexpFloat{Val: f} }

func sexpBool(b bool) zygo.Sexp { return &zygo.SexpBool{Val: b} }

func sexpFloats(fs []float64) zygo.Sexp {
	items := make([]zygo.Sexp, len(fs))
	for i, f := range fs {
		items[i] = sexpFloat(f)
	}
	return zygo.MakeList(items)
}

func sexpVecs(vs []v3.Vec) zygo.Sexp {
	items := make([]zygo.Sexp, len(vs))
	for i, v := range vs {
		items[i] = &sexpVec3{vec: v}
	}
	return zygo.MakeList(items)
}

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// session is the state one evaluation's builtins share.
type session struct {
	g       *graph.CurveGraph
	queries []QueryRecord
	anon    int
}

func newSession(cfg hull.Config) *session {
	return &session{g: graph.New(cfg)}
}

// anonPath returns an ID path for an unnamed node. The counter is per
// evaluation so identical scripts produce identical IDs.
func (s *session) anonPath(kind string) string {
	s.anon++
	return fmt.Sprintf("%s/_anon_%d", kind, s.anon)
}

// toCurveNode resolves a node reference, binding a bare curve expression
// to a new unnamed node first.
func (s *session) toCurveNode(v zygo.Sexp) (*graph.Node, error) {
	switch c := v.(type) {
	case *sexpNodeRef:
		n := s.g.Get(c.id)
		if n == nil {
			return nil, fmt.Errorf("node %s does not exist", c.id.Short())
		}
		if !n.HasCurve() {
			return nil, fmt.Errorf("%s %q is not a curve", n.Kind, n.Label())
		}
		return n, nil
	case *sexpCurve:
		return s.bind("", c), nil
	}
	return nil, fmt.Errorf("expected curve, got %T (%s)", v, v.SexpString(nil))
}

// bind adds a primitive curve node.
func (s *session) bind(name string, c *sexpCurve) *graph.Node {
	path := "curve/" + name
	if name == "" {
		path = s.anonPath(c.data.Prim.String())
	}
	n := &graph.Node{
		ID:    graph.NewNodeID(path),
		Kind:  graph.NodeCurve,
		Name:  name,
		Data:  c.data,
		Curve: c.curve,
	}
	s.g.AddNode(n)
	return n
}

// derive adds a node computed from one child, named or anonymous.
func (s *session) derive(kind graph.NodeKind, name string, child *graph.Node, data graph.NodeData, c kernel.Curve) (*sexpNodeRef, error) {
	path := kind.String() + "/" + name
	if name == "" {
		path = s.anonPath(kind.String())
	} else if s.g.Lookup(name) != nil {
		return nil, fmt.Errorf("%q already defined", name)
	}
	n := &graph.Node{
		ID:       graph.NewNodeID(path),
		Kind:     kind,
		Name:     name,
		Children: []graph.NodeID{child.ID},
		Data:     data,
		Curve:    c,
	}
	s.g.AddNode(n)
	return &sexpNodeRef{id: n.ID, name: name}, nil
}

// record appends a query result.
func (s *session) record(op string, result any, nodes ...*graph.Node) {
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		labels[i] = n.Label()
	}
	s.queries = append(s.queries, QueryRecord{Op: op, Curves: labels, Result: result})
}

// hullOf resolves a curve argument to its hull.
func (s *session) hullOf(v zygo.Sexp) (*graph.Node, *hull.Hull, error) {
	n, err := s.toCurveNode(v)
	if err != nil {
		return nil, nil, err
	}
	h, err := s.g.Hull(n)
	if err != nil {
		return nil, nil, err
	}
	return n, h, nil
}

// finalizeRoots makes a root of every node outside a group that is
// either named or referenced by nothing, so that every defined curve is
// reached from the roots.
func (s *session) finalizeRoots() {
	isRoot := make(map[graph.NodeID]bool)
	for _, id := range s.g.Roots {
		isRoot[id] = true
	}
	grouped := make(map[graph.NodeID]bool)
	referenced := make(map[graph.NodeID]bool)
	for _, n := range s.g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
			if n.Kind == graph.NodeGroup {
				grouped[c] = true
			}
		}
	}
	var roots []graph.NodeID
	for id, n := range s.g.Nodes {
		if isRoot[id] || grouped[id] {
			continue
		}
		if n.Name != "" || !referenced[id] {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	for _, id := range roots {
		s.g.AddRoot(id)
	}
}

// registerBuiltins installs the curve construction and query builtins.
// Source must be preprocessed with preprocessSource first.
func (s *session) registerBuiltins(env *zygo.Zlisp) {
	s.registerCurveBuiltins(env)
	s.registerQueryBuiltins(env)
}
