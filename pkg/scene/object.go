package scene

import (
	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/material"
)

// Resolver maps a face category to its acoustic material
type Resolver interface {
	Resolve(category string) *material.Material
}

// Object places a mesh in the world. A nil mesh contributes no geometry.
type Object struct {
	Mesh        *geometry.Mesh
	Position    core.Vec3
	Orientation core.Quat
}

// NewObject creates an empty object at the origin
func NewObject() *Object {
	return &Object{Orientation: core.IdentityQuat()}
}

// ToWorld transforms a local vertex as orientation·v + position
func (o *Object) ToWorld(v core.Vec3) core.Vec3 {
	return o.Orientation.Rotate(v).Add(o.Position)
}

// WorldTriangles triangulates the mesh in world space and resolves materials
func (o *Object) WorldTriangles(index int, resolve Resolver) []*geometry.Triangle {
	if o.Mesh == nil {
		return nil
	}
	world := make([]core.Vec3, len(o.Mesh.Vertices))
	for i, v := range o.Mesh.Vertices {
		world[i] = o.ToWorld(v)
	}

	faces := o.Mesh.Triangulate()
	materials := make(map[string]*material.Material)
	tris := make([]*geometry.Triangle, 0, len(faces))
	for _, f := range faces {
		m, ok := materials[f.Category]
		if !ok {
			m = resolve.Resolve(f.Category)
			materials[f.Category] = m
		}
		tris = append(tris, geometry.NewTriangle(world[f.A], world[f.B], world[f.C], m, index))
	}
	return tris
}
