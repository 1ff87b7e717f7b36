package acoustics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/loaders"
	"github.com/df07/go-audio-propagation/pkg/material"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// BoxCategories holds one material category per box face, in
// -X, +X, -Y, +Y, -Z, +Z order
type BoxCategories [6]string

// weldTolerance is the simplification weld distance in metres
const weldTolerance = 1e-4

// ObjectCount returns the number of objects
func (c *Context) ObjectCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scene == nil {
		return 0
	}
	return len(c.scene.Objects)
}

// AddObject appends an object with no geometry at the origin and returns its index
func (c *Context) AddObject() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	c.touch(false)
	return c.scene.AddObject(), nil
}

// ClearObjects removes every object and its geometry
func (c *Context) ClearObjects() error {
	return c.mutate(true, func(s *scene.Scene) error {
		s.ClearObjects()
		return nil
	})
}

// SetObjectPosition moves object i
func (c *Context) SetObjectPosition(i int, position core.Vec3) error {
	if !position.IsFinite() {
		return fmt.Errorf("object position %v: %w", position, ErrInvalidParam)
	}
	return c.mutate(true, func(s *scene.Scene) error {
		obj, err := s.Object(i)
		if err != nil {
			return err
		}
		obj.Position = position
		return nil
	})
}

// SetObjectOrientation sets the local-to-world rotation of object i
func (c *Context) SetObjectOrientation(i int, q core.Quat) error {
	if err := checkQuat(q); err != nil {
		return err
	}
	return c.mutate(true, func(s *scene.Scene) error {
		obj, err := s.Object(i)
		if err != nil {
			return err
		}
		obj.Orientation = core.NewQuat(q.W, q.X, q.Y, q.Z)
		return nil
	})
}

// AddMeshVertices stages count vertices from packed xyz data
func (c *Context) AddMeshVertices(data []float32, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.staging.AddVertices(data, count)
}

// AddMeshIndices stages floor(count/verticesPerFace) faces of one category.
// Indices address every vertex staged so far.
func (c *Context) AddMeshIndices(indices []uint32, count, verticesPerFace int, category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.staging.AddIndices(indices, count, verticesPerFace, category)
}

// FinalizeObjectMesh moves the staged mesh into object i and clears the
// staging buffers. On error the object and the staged data are unchanged.
func (c *Context) FinalizeObjectMesh(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	obj, err := c.scene.Object(i)
	if err != nil {
		return err
	}
	if c.staging.Empty() {
		return fmt.Errorf("no staged mesh for object %d: %w", i, ErrInvalidParam)
	}
	mesh, err := c.staging.Take()
	if err != nil {
		return err
	}
	c.setMesh(i, obj, mesh)
	return nil
}

// SetObjectBox replaces the mesh of object i with a cuboid between min and max
func (c *Context) SetObjectBox(i int, min, max core.Vec3, categories BoxCategories) error {
	if !min.IsFinite() || !max.IsFinite() || min.X > max.X || min.Y > max.Y || min.Z > max.Z {
		return fmt.Errorf("box %v..%v: %w", min, max, ErrInvalidParam)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	obj, err := c.scene.Object(i)
	if err != nil {
		return err
	}
	c.setMesh(i, obj, geometry.NewBoxMesh(min, max, categories))
	return nil
}

// SetObjectMeshOBJ replaces the mesh of object i with an OBJ file. A
// non-empty category is assigned to every face, otherwise the file's
// usemtl names are used.
func (c *Context) SetObjectMeshOBJ(i int, path, category string) error {
	return c.loadMesh(i, path, category, loaders.LoadOBJ)
}

// SetObjectMeshPLY replaces the mesh of object i with a PLY file
func (c *Context) SetObjectMeshPLY(i int, path, category string) error {
	return c.loadMesh(i, path, category, loaders.LoadPLY)
}

func (c *Context) loadMesh(i int, path, category string, load func(string) (*loaders.MeshData, error)) error {
	data, err := load(path)
	if err != nil {
		return err
	}
	data.SetCategory(category)

	var staging geometry.Staging
	if err := staging.AddVertices(data.Vertices, data.VertexCount()); err != nil {
		return err
	}
	for _, g := range data.Groups {
		if err := staging.AddIndices(g.Indices, len(g.Indices), g.VerticesPerFace, g.Category); err != nil {
			return err
		}
	}
	mesh, err := staging.Take()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	obj, err := c.scene.Object(i)
	if err != nil {
		return err
	}
	c.setMesh(i, obj, mesh)
	c.logger.Debug("mesh loaded", zap.String("path", path), zap.Int("object", i),
		zap.Int("vertices", len(mesh.Vertices)), zap.Int("triangles", mesh.TriangleCount()))
	return nil
}

// setMesh installs a mesh, simplifying it first when enabled. Call with
// the write lock held.
func (c *Context) setMesh(i int, obj *scene.Object, mesh *geometry.Mesh) {
	if c.cfg.MeshSimplification {
		before := mesh.TriangleCount()
		mesh = geometry.Simplify(mesh, weldTolerance/c.cfg.UnitScale)
		c.logger.Debug("mesh simplified", zap.Int("object", i),
			zap.Int("before", before), zap.Int("after", mesh.TriangleCount()))
	}
	obj.Mesh = mesh
	c.touch(true)
}

// SetMaterialDatabaseJSON loads the material database. A malformed file
// leaves the previous database active.
func (c *Context) SetMaterialDatabaseJSON(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.library.LoadFile(path); err != nil {
		return err
	}
	c.touch(true)
	c.logger.Debug("material database loaded", zap.String("path", path),
		zap.Int("materials", len(c.library.Database().Materials())))
	return nil
}

// ResolveMaterial returns the material a category maps to
func (c *Context) ResolveMaterial(category string) *material.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.library.Resolve(category)
}
