package geometry

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Staging accumulates mesh data until it is finalized into an object.
// Index values refer to the whole staged vertex list.
type Staging struct {
	vertices []core.Vec3
	groups   []IndexGroup
}

// AddVertices appends count vertices read from data as packed xyz triples
func (s *Staging) AddVertices(data []float32, count int) error {
	if count <= 0 {
		return fmt.Errorf("vertex count %d: %w", count, core.ErrInvalidParam)
	}
	if len(data) < 3*count {
		return fmt.Errorf("vertex buffer holds %d floats, need %d: %w", len(data), 3*count, core.ErrBadAlignment)
	}
	for i := 0; i < count; i++ {
		s.vertices = append(s.vertices, core.Vec3FromSlice(data[3*i:]))
	}
	return nil
}

// AddIndices appends floor(count/verticesPerFace) faces tagged with category
func (s *Staging) AddIndices(indices []uint32, count, verticesPerFace int, category string) error {
	if verticesPerFace != 3 && verticesPerFace != 4 {
		return fmt.Errorf("%d vertices per face: %w", verticesPerFace, core.ErrInvalidParam)
	}
	if count <= 0 {
		return fmt.Errorf("index count %d: %w", count, core.ErrInvalidParam)
	}
	if len(indices) < count {
		return fmt.Errorf("index buffer holds %d values, need %d: %w", len(indices), count, core.ErrBadAlignment)
	}

	faces := count / verticesPerFace
	if faces == 0 {
		return fmt.Errorf("%d indices do not form a face of %d vertices: %w", count, verticesPerFace, core.ErrInvalidParam)
	}
	group := IndexGroup{
		Indices:         make([]int, faces*verticesPerFace),
		VerticesPerFace: verticesPerFace,
		Category:        category,
	}
	for i := range group.Indices {
		group.Indices[i] = int(indices[i])
	}
	s.groups = append(s.groups, group)
	return nil
}

// Empty reports whether nothing has been staged
func (s *Staging) Empty() bool {
	return len(s.vertices) == 0 && len(s.groups) == 0
}

// Take validates the staged data, returns it as a mesh and clears staging.
// On error the staged data is kept.
func (s *Staging) Take() (*Mesh, error) {
	if len(s.vertices) == 0 || len(s.groups) == 0 {
		return nil, fmt.Errorf("no staged mesh data (%d vertices, %d groups): %w",
			len(s.vertices), len(s.groups), core.ErrInvalidParam)
	}
	mesh := &Mesh{Vertices: s.vertices, Groups: s.groups}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	s.Reset()
	return mesh, nil
}

// Reset discards staged data
func (s *Staging) Reset() {
	s.vertices = nil
	s.groups = nil
}
