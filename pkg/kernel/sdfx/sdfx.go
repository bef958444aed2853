// Package sdfx renders curve approximations as swept tubes using the
// github.com/deadsy/sdfx SDF-based CAD library. The tubes are only a
// preview of where a curve runs; queries never go through them.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 120

// ErrEmpty is returned when an approximation has no segments to sweep.
var ErrEmpty = errors.New("sdfx: nothing to sweep")

// Tuber sweeps a sphere along approximations.
type Tuber struct {
	// Radius of the swept tube.
	Radius float64
	// Cells is the marching cubes resolution along the longest axis.
	Cells int
}

// New returns a Tuber with the given tube radius.
func New(radius float64) *Tuber {
	return &Tuber{Radius: radius, Cells: defaultMeshCells}
}

// chords returns the straight pieces of a, splitting arcs at their midpoint.
func chords(a *kernel.Approximation) [][2]v3.Vec {
	var out [][2]v3.Vec
	for _, s := range a.Segments {
		if s.Arc {
			out = append(out, [2]v3.Vec{s.Start, s.Mid}, [2]v3.Vec{s.Mid, s.End})
			continue
		}
		out = append(out, [2]v3.Vec{s.Start, s.End})
	}
	return out
}

// rod returns a cylinder of radius r from a to b, or nil when a and b
// coincide.
func rod(a, b v3.Vec, r float64) (sdf.SDF3, error) {
	d := b.Sub(a)
	h := d.Length()
	if h == 0 {
		return nil, nil
	}
	c, err := sdf.Cylinder3D(h, r, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	// Cylinder3D runs along Z through the origin; tilt then spin it onto d.
	tilt := math.Acos(math.Max(-1, math.Min(1, d.Z/h)))
	spin := math.Atan2(d.Y, d.X)
	m := sdf.Translate3d(a.Add(d.MulScalar(0.5))).Mul(sdf.RotateZ(spin)).Mul(sdf.RotateY(tilt))
	return sdf.Transform3D(c, m), nil
}

// Solid returns the swept tube of a as an SDF.
func (t *Tuber) Solid(a *kernel.Approximation) (sdf.SDF3, error) {
	if t.Radius <= 0 {
		return nil, fmt.Errorf("sdfx: tube radius %g must be positive", t.Radius)
	}
	if a == nil || a.IsEmpty() {
		return nil, ErrEmpty
	}
	var parts []sdf.SDF3
	for _, p := range a.Points() {
		s, err := sdf.Sphere3D(t.Radius)
		if err != nil {
			return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
		}
		parts = append(parts, sdf.Transform3D(s, sdf.Translate3d(p)))
	}
	for _, c := range chords(a) {
		r, err := rod(c[0], c[1], t.Radius)
		if err != nil {
			return nil, err
		}
		if r != nil {
			parts = append(parts, r)
		}
	}
	solid := parts[0]
	for _, p := range parts[1:] {
		solid = sdf.Union3D(solid, p)
	}
	return solid, nil
}

// ToMesh sweeps a and converts the tube to a triangle mesh using marching
// cubes.
func (t *Tuber) ToMesh(a *kernel.Approximation) (*kernel.Mesh, error) {
	solid, err := t.Solid(a)
	if err != nil {
		return nil, err
	}
	cells := t.Cells
	if cells <= 0 {
		cells = defaultMeshCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(solid, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     a.Name,
	}, nil
}
