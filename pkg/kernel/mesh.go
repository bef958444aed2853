package kernel

import "github.com/deadsy/sdfx/sdf"

// Mesh is a triangle mesh of a swept curve, used for previewing
// approximations. Vertices and normals hold 3 floats per vertex; indices
// hold 3 entries per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the bounding box of the vertices.
func (m *Mesh) Bounds() sdf.Box3 {
	var b sdf.Box3
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		x, y, z := float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2])
		if i == 0 {
			b.Min.X, b.Min.Y, b.Min.Z = x, y, z
			b.Max = b.Min
			continue
		}
		b.Min.X, b.Max.X = min(b.Min.X, x), max(b.Max.X, x)
		b.Min.Y, b.Max.Y = min(b.Min.Y, y), max(b.Max.Y, y)
		b.Min.Z, b.Max.Z = min(b.Min.Z, z), max(b.Max.Z, z)
	}
	return b
}
