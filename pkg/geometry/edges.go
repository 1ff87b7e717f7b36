package geometry

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Edge is a candidate diffracting edge in world space
type Edge struct {
	A, B     core.Vec3
	Normals  [2]core.Vec3 // unit normals of the adjacent faces, second is zero on boundaries
	Boundary bool         // only one face uses the edge
}

// Length returns the edge length
func (e Edge) Length() float64 {
	return e.A.Distance(e.B)
}

// PointAt returns the point on the edge at parameter s, clamped to [0,1]
func (e Edge) PointAt(s float64) core.Vec3 {
	return e.A.Lerp(e.B, math.Max(0, math.Min(1, s)))
}

type edgeKey [2][3]int64

type edgeFaces struct {
	a, b    core.Vec3
	normals []core.Vec3
}

// ExtractEdges finds boundary edges and shared edges whose faces meet at
// more than minAngle radians. Vertices closer than weld are treated as one.
func ExtractEdges(triangles []*Triangle, minAngle, weld float64) []Edge {
	if weld <= 0 {
		weld = 1e-6
	}
	collected := make(map[edgeKey]*edgeFaces)
	var order []edgeKey

	for _, tri := range triangles {
		n := tri.Normal().Normalize()
		if n == (core.Vec3{}) {
			continue
		}
		verts := [3]core.Vec3{tri.V0, tri.V1, tri.V2}
		for i := 0; i < 3; i++ {
			a, b := verts[i], verts[(i+1)%3]
			ka, kb := quantize(a, weld), quantize(b, weld)
			if lessKey(kb, ka) {
				ka, kb = kb, ka
				a, b = b, a
			}
			k := edgeKey{ka, kb}
			ef, ok := collected[k]
			if !ok {
				ef = &edgeFaces{a: a, b: b}
				collected[k] = ef
				order = append(order, k)
			}
			ef.normals = append(ef.normals, n)
		}
	}

	cosLimit := math.Cos(minAngle)
	var edges []Edge
	for _, k := range order {
		ef := collected[k]
		switch n := len(ef.normals); {
		case n == 1:
			edges = append(edges, Edge{A: ef.a, B: ef.b, Normals: [2]core.Vec3{ef.normals[0]}, Boundary: true})
		case n == 2:
			// Back-to-back faces of a thin wall are still an edge
			if ef.normals[0].Dot(ef.normals[1]) < cosLimit {
				edges = append(edges, Edge{A: ef.a, B: ef.b, Normals: [2]core.Vec3{ef.normals[0], ef.normals[1]}})
			}
		default:
			// Non-manifold edges such as T-junctions. Faces that are all
			// coplanar (either facing) are a flat seam, not an edge.
			if i, j, ok := creasedPair(ef.normals, cosLimit); ok {
				edges = append(edges, Edge{A: ef.a, B: ef.b, Normals: [2]core.Vec3{ef.normals[i], ef.normals[j]}})
			}
		}
	}
	return edges
}

// creasedPair returns the first two normals that are not parallel or
// antiparallel within cosLimit
func creasedPair(normals []core.Vec3, cosLimit float64) (int, int, bool) {
	for i := range normals {
		for j := i + 1; j < len(normals); j++ {
			if math.Abs(normals[i].Dot(normals[j])) < cosLimit {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func lessKey(a, b [3]int64) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
