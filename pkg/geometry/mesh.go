package geometry

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// IndexGroup is a run of faces sharing an arity and a material category
type IndexGroup struct {
	Indices         []int
	VerticesPerFace int // 3 for triangles, 4 for quads
	Category        string
}

// Faces returns the number of whole faces in the group
func (g IndexGroup) Faces() int {
	return len(g.Indices) / g.VerticesPerFace
}

// Face is one triangle of a triangulated mesh in local vertex indices
type Face struct {
	A, B, C  int
	Category string
}

// Mesh is an object's local-space vertex list and face groups
type Mesh struct {
	Vertices []core.Vec3
	Groups   []IndexGroup
}

// Validate checks face arities and that every index addresses a vertex
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 || len(m.Groups) == 0 {
		return fmt.Errorf("mesh has %d vertices and %d index groups: %w",
			len(m.Vertices), len(m.Groups), core.ErrInvalidParam)
	}
	for gi, g := range m.Groups {
		if g.VerticesPerFace != 3 && g.VerticesPerFace != 4 {
			return fmt.Errorf("group %d has %d vertices per face: %w", gi, g.VerticesPerFace, core.ErrInvalidParam)
		}
		for _, idx := range g.Indices {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("group %d index %d out of range [0,%d): %w", gi, idx, len(m.Vertices), core.ErrInvalidParam)
			}
		}
	}
	for _, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("mesh vertex %v is not finite: %w", v, core.ErrInvalidParam)
		}
	}
	return nil
}

// Triangulate returns every face as triangles. Quads (a,b,c,d) become
// (a,b,c) and (a,c,d).
func (m *Mesh) Triangulate() []Face {
	var faces []Face
	for _, g := range m.Groups {
		vpf := g.VerticesPerFace
		for f := 0; f < g.Faces(); f++ {
			idx := g.Indices[f*vpf : (f+1)*vpf]
			faces = append(faces, Face{idx[0], idx[1], idx[2], g.Category})
			if vpf == 4 {
				faces = append(faces, Face{idx[0], idx[2], idx[3], g.Category})
			}
		}
	}
	return faces
}

// TriangleCount returns the number of triangles after triangulation
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, g := range m.Groups {
		n += g.Faces() * (g.VerticesPerFace - 2)
	}
	return n
}

// Categories returns the distinct material categories in group order
func (m *Mesh) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range m.Groups {
		if !seen[g.Category] {
			seen[g.Category] = true
			out = append(out, g.Category)
		}
	}
	return out
}
