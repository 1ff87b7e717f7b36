package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Box face order for per-face categories
const (
	BoxXMin = iota
	BoxXMax
	BoxYMin
	BoxYMax
	BoxZMin
	BoxZMax
)

// boxFaces lists each face as corner keys (bit 0 = max X, bit 1 = max Y,
// bit 2 = max Z) wound so the normal points out of the box.
var boxFaces = [6][4]int{
	BoxXMin: {0, 4, 6, 2},
	BoxXMax: {1, 3, 7, 5},
	BoxYMin: {0, 1, 5, 4},
	BoxYMax: {2, 6, 7, 3},
	BoxZMin: {0, 2, 3, 1},
	BoxZMax: {4, 5, 7, 6},
}

// NewBoxMesh builds a 12-triangle cuboid between min and max with one
// material category per face in BoxXMin..BoxZMax order.
func NewBoxMesh(min, max core.Vec3, categories [6]string) *Mesh {
	box := r3.NewBox(min.X, min.Y, min.Z, max.X, max.Y, max.Z)

	// Corners come straight from the key bits so a zero-extent axis still
	// fills all eight slots
	var corners [8]core.Vec3
	for key := range corners {
		p := box.Min
		if key&1 != 0 {
			p.X = box.Max.X
		}
		if key&2 != 0 {
			p.Y = box.Max.Y
		}
		if key&4 != 0 {
			p.Z = box.Max.Z
		}
		corners[key] = core.NewVec3(p.X, p.Y, p.Z)
	}

	mesh := &Mesh{Vertices: corners[:]}
	for face, quad := range boxFaces {
		mesh.Groups = append(mesh.Groups, IndexGroup{
			Indices:         []int{quad[0], quad[1], quad[2], quad[0], quad[2], quad[3]},
			VerticesPerFace: 3,
			Category:        categories[face],
		})
	}
	return mesh
}
