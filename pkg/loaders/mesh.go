// Package loaders reads and writes the file formats around the simulation:
// OBJ and PLY meshes, WAV impulse responses, debug scene meshes and metric
// tables.
package loaders

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// MeshGroup is a run of faces with one arity and one material category
type MeshGroup struct {
	Indices         []uint32
	VerticesPerFace int // 3 or 4
	Category        string
}

// MeshData is a parsed mesh in the layout the staging API accepts
type MeshData struct {
	Vertices []float32 // x, y, z per vertex
	Groups   []MeshGroup
}

// VertexCount returns the number of vertices
func (m *MeshData) VertexCount() int {
	return len(m.Vertices) / 3
}

// FaceCount returns the number of faces over all groups
func (m *MeshData) FaceCount() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Indices) / g.VerticesPerFace
	}
	return n
}

// SetCategory overrides the category of every group, merging groups of
// equal arity. An empty category keeps the file's own categories.
func (m *MeshData) SetCategory(category string) {
	if category == "" {
		return
	}
	merged := make(map[int]int)
	var groups []MeshGroup
	for _, g := range m.Groups {
		if i, ok := merged[g.VerticesPerFace]; ok {
			groups[i].Indices = append(groups[i].Indices, g.Indices...)
			continue
		}
		merged[g.VerticesPerFace] = len(groups)
		groups = append(groups, MeshGroup{
			Indices:         append([]uint32(nil), g.Indices...),
			VerticesPerFace: g.VerticesPerFace,
			Category:        category,
		})
	}
	m.Groups = groups
}

// groupBuilder collects faces into groups keyed by arity and category,
// keeping first-seen order
type groupBuilder struct {
	groups []MeshGroup
	index  map[string]int
}

func (b *groupBuilder) add(face []uint32, category string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	// Polygons beyond quads are fanned into triangles
	if len(face) > 4 {
		for i := 1; i+1 < len(face); i++ {
			b.add([]uint32{face[0], face[i], face[i+1]}, category)
		}
		return
	}
	key := fmt.Sprintf("%d/%s", len(face), category)
	i, ok := b.index[key]
	if !ok {
		i = len(b.groups)
		b.index[key] = i
		b.groups = append(b.groups, MeshGroup{VerticesPerFace: len(face), Category: category})
	}
	b.groups[i].Indices = append(b.groups[i].Indices, face...)
}

// validate checks that every index addresses a vertex
func (m *MeshData) validate() error {
	n := uint32(m.VertexCount())
	for _, g := range m.Groups {
		for _, idx := range g.Indices {
			if idx >= n {
				return fmt.Errorf("face index %d out of range for %d vertices: %w", idx, n, core.ErrInvalidParam)
			}
		}
	}
	return nil
}
