package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Simplify welds vertices closer than tolerance, then drops degenerate and
// duplicate triangles. Each remaining triangle keeps its category.
func Simplify(m *Mesh, tolerance float64) *Mesh {
	if tolerance <= 0 {
		tolerance = 1e-6
	}

	remap := make([]int, len(m.Vertices))
	cells := make(map[[3]int64][]int)
	var welded []core.Vec3

	for i, v := range m.Vertices {
		cell := quantize(v, tolerance)
		found := -1
		for _, n := range neighbourCells(cell) {
			for _, candidate := range cells[n] {
				if welded[candidate].Distance(v) <= tolerance {
					found = candidate
					break
				}
			}
			if found >= 0 {
				break
			}
		}
		if found < 0 {
			found = len(welded)
			welded = append(welded, v)
			cells[cell] = append(cells[cell], found)
		}
		remap[i] = found
	}

	type key struct {
		a, b, c  int
		category string
	}
	seen := make(map[key]bool)
	byCategory := make(map[string]*IndexGroup)
	var order []string

	for _, f := range m.Triangulate() {
		a, b, c := remap[f.A], remap[f.B], remap[f.C]
		if a == b || b == c || a == c {
			continue
		}
		area := welded[b].Subtract(welded[a]).Cross(welded[c].Subtract(welded[a])).Length()
		if area <= tolerance*tolerance {
			continue
		}
		sorted := []int{a, b, c}
		sort.Ints(sorted)
		k := key{sorted[0], sorted[1], sorted[2], f.Category}
		if seen[k] {
			continue
		}
		seen[k] = true

		g, ok := byCategory[f.Category]
		if !ok {
			g = &IndexGroup{VerticesPerFace: 3, Category: f.Category}
			byCategory[f.Category] = g
			order = append(order, f.Category)
		}
		g.Indices = append(g.Indices, a, b, c)
	}

	out := &Mesh{Vertices: welded}
	for _, category := range order {
		out.Groups = append(out.Groups, *byCategory[category])
	}
	return out
}

func quantize(v core.Vec3, cell float64) [3]int64 {
	return [3]int64{
		int64(math.Floor(v.X / cell)),
		int64(math.Floor(v.Y / cell)),
		int64(math.Floor(v.Z / cell)),
	}
}

func neighbourCells(c [3]int64) [][3]int64 {
	out := make([][3]int64, 0, 27)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				out = append(out, [3]int64{c[0] + dx, c[1] + dy, c[2] + dz})
			}
		}
	}
	return out
}
