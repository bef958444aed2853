package graph

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PrimitiveKind identifies the analytic shape of a curve node.
type PrimitiveKind int

const (
	PrimLine PrimitiveKind = iota
	PrimArc
	PrimCircle
	PrimHelix
	PrimBezier
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimLine:
		return "line"
	case PrimArc:
		return "arc"
	case PrimCircle:
		return "circle"
	case PrimHelix:
		return "helix"
	case PrimBezier:
		return "bezier"
	default:
		return "unknown"
	}
}

// CurveData describes a primitive curve. Only the fields its kind uses are
// set.
type CurveData struct {
	Prim    PrimitiveKind `json:"prim"`
	Points  []v3.Vec      `json:"points,omitempty"` // line ends or bezier poles
	Weights []float64     `json:"weights,omitempty"`
	Degree  int           `json:"degree,omitempty"`
	Center  v3.Vec        `json:"center,omitempty"`
	Normal  v3.Vec        `json:"normal,omitempty"`
	Radius  float64       `json:"radius,omitempty"`
	Start   float64       `json:"start,omitempty"` // radians
	Sweep   float64       `json:"sweep,omitempty"` // radians
	Pitch   float64       `json:"pitch,omitempty"`
	Turns   float64       `json:"turns,omitempty"`
}

func (CurveData) nodeData() {}

// TransformData moves its single child: rotation (radians about X, then
// Y, then Z) followed by translation.
type TransformData struct {
	Translation v3.Vec `json:"translation"`
	Rotation    v3.Vec `json:"rotation"`
}

func (TransformData) nodeData() {}

// Matrix returns the affine matrix applying the rotation then the
// translation.
func (d TransformData) Matrix() sdf.M44 {
	r := sdf.RotateZ(d.Rotation.Z).Mul(sdf.RotateY(d.Rotation.Y)).Mul(sdf.RotateX(d.Rotation.X))
	return sdf.Translate3d(d.Translation).Mul(r)
}

// TrimData restricts its single child to [From, To].
type TrimData struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

func (TrimData) nodeData() {}

// GroupData is a logical collection of children.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
