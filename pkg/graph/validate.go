package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// queries or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks queries
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks on the graph and returns the
// findings. An empty slice means the graph is valid. It never mutates the
// graph.
func Validate(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	return errs
}

// ValidateAll runs the structural and geometric checks and separates
// errors from warnings.
func ValidateAll(g *CurveGraph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{NodeID: e.NodeID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	geoErrs, geoWarnings := validateGeometry(g)
	result.Errors = append(result.Errors, geoErrs...)
	result.Warnings = append(result.Warnings, geoWarnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *CurveGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child reference points to a node
// that exists.
func validateReferences(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that the NameIndex is injective and that every
// entry points to an existing node.
func validateNames(g *CurveGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes that
// no root reaches.
func validateRoots(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}
	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		node := g.Nodes[queue[0]]
		queue = queue[1:]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", node.Label()),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateArity checks child counts: transforms and trims wrap exactly one
// curve-bearing child, primitives have none, groups at least one.
func validateArity(g *CurveGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		switch node.Kind {
		case NodeCurve:
			if len(node.Children) != 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("curve node has %d children, want none", len(node.Children)),
					Severity: SeverityError,
				})
			}
		case NodeTransform, NodeTrim:
			if len(node.Children) != 1 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("%s node has %d children, want 1", node.Kind, len(node.Children)),
					Severity: SeverityError,
				})
				continue
			}
			if child := g.Nodes[node.Children[0]]; child != nil && !child.HasCurve() {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("%s child %s is a %s, not a curve", node.Kind, child.Label(), child.Kind),
					Severity: SeverityError,
				})
			}
		case NodeGroup:
			if len(node.Children) == 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  "group has no children",
					Severity: SeverityWarning,
				})
			}
		}
	}
	return errs
}
