package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// nodeNamespace seeds the name-based node IDs.
var nodeNamespace = uuid.MustParse("6f1c1c7e-3b1f-5d0a-9a57-2c1e8f4a9b21")

// NodeID is a content-addressed node identifier: the same creation path
// always yields the same ID across evaluations.
type NodeID string

// NewNodeID derives a deterministic ID from a creation path such as
// "line/edge-1".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(nodeNamespace, []byte(path)).String())
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool { return id == "" }

// Short returns the first eight characters, for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// SourceRef points back at the script form that created a node.
type SourceRef struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Form string `json:"form,omitempty"`
}

func (s SourceRef) String() string {
	if s.File == "" {
		return fmt.Sprintf("line %d", s.Line)
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}
