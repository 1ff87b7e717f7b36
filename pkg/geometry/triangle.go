package geometry

import (
	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/material"
)

// HitRecord contains information about a ray-triangle intersection
type HitRecord struct {
	T         float64   // Parameter t along the ray
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Geometric normal, not normalized, facing the front side
	FrontFace bool      // Whether the ray hit the front face
	Triangle  *Triangle
}

// Material returns the material of the struck triangle
func (h *HitRecord) Material() *material.Material {
	return h.Triangle.Material
}

// UnitNormal returns the normal flipped to face against the ray, normalized
func (h *HitRecord) UnitNormal() core.Vec3 {
	n := h.Normal.Normalize()
	if !h.FrontFace {
		return n.Negate()
	}
	return n
}

// Triangle is a world-space triangle tagged with its material and owning object
type Triangle struct {
	V0, V1, V2 core.Vec3
	Material   *material.Material
	Object     int // index of the owning object in the scene
	normal     core.Vec3
	bbox       core.AABB
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3, mat *material.Material, object int) *Triangle {
	return &Triangle{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Material: mat,
		Object:   object,
		normal:   v1.Subtract(v0).Cross(v2.Subtract(v0)),
		bbox:     core.NewAABBFromPoints(v0, v1, v2),
	}
}

// Hit tests if a ray intersects the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64, rec *HitRecord) bool {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false
	}

	tHit := f * edge2.Dot(q)
	if tHit < tMin || tHit > tMax {
		return false
	}

	if rec != nil {
		rec.T = tHit
		rec.Point = ray.At(tHit)
		rec.Normal = t.normal
		rec.FrontFace = ray.Direction.Dot(t.normal) < 0
		rec.Triangle = t
	}
	return true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the un-normalized geometric normal (V1-V0)x(V2-V0)
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	return 0.5 * t.normal.Length()
}

// Centroid returns the average of the three vertices
func (t *Triangle) Centroid() core.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Multiply(1.0 / 3.0)
}
