package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

func TestStaging_Take(t *testing.T) {
	var s Staging

	if _, err := s.Take(); !errors.Is(err, core.ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam for empty staging, got %v", err)
	}

	verts := []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}
	if err := s.AddVertices(verts, 4); err != nil {
		t.Fatal(err)
	}
	// Seven indices with quads keep one whole face
	if err := s.AddIndices([]uint32{0, 1, 2, 3, 0, 1, 2}, 7, 4, "floor"); err != nil {
		t.Fatal(err)
	}

	mesh, err := s.Take()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 2 || len(mesh.Triangulate()) != 2 {
		t.Errorf("expected one quad as two triangles, got %d", mesh.TriangleCount())
	}
	if !s.Empty() {
		t.Error("staging not cleared after Take")
	}
}

func TestStaging_Errors(t *testing.T) {
	tests := []struct {
		name    string
		run     func(s *Staging) error
		wantErr error
	}{
		{"short vertex buffer", func(s *Staging) error { return s.AddVertices([]float32{0, 0, 0, 1}, 2) }, core.ErrBadAlignment},
		{"short index buffer", func(s *Staging) error { return s.AddIndices([]uint32{0, 1}, 3, 3, "") }, core.ErrBadAlignment},
		{"bad arity", func(s *Staging) error { return s.AddIndices([]uint32{0, 1, 2, 3, 4}, 5, 5, "") }, core.ErrInvalidParam},
		{"index out of range", func(s *Staging) error {
			if err := s.AddVertices([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3); err != nil {
				return err
			}
			if err := s.AddIndices([]uint32{0, 1, 3}, 3, 3, ""); err != nil {
				return err
			}
			_, err := s.Take()
			return err
		}, core.ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Staging
			if err := tt.run(&s); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewBoxMesh(t *testing.T) {
	categories := [6]string{"x-", "x+", "y-", "y+", "z-", "z+"}
	mesh := NewBoxMesh(core.NewVec3(-1, -2, -3), core.NewVec3(1, 2, 3), categories)

	if err := mesh.Validate(); err != nil {
		t.Fatalf("box mesh invalid: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Fatalf("expected 12 triangles, got %d", mesh.TriangleCount())
	}

	// Every face normal points away from the center
	area := 0.0
	for _, f := range mesh.Triangulate() {
		tri := NewTriangle(mesh.Vertices[f.A], mesh.Vertices[f.B], mesh.Vertices[f.C], nil, 0)
		if tri.Normal().Dot(tri.Centroid()) <= 0 {
			t.Errorf("face %q has an inward normal", f.Category)
		}
		area += tri.Area()
	}
	want := 2 * (2*4 + 4*6 + 2*6)
	if math.Abs(area-float64(want)) > 1e-9 {
		t.Errorf("expected surface area %d, got %f", want, area)
	}
}

func TestSimplify(t *testing.T) {
	// Two quads sharing an edge but with duplicated vertices, a degenerate
	// triangle and a duplicate triangle
	mesh := &Mesh{
		Vertices: []core.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 2, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
		},
		Groups: []IndexGroup{
			{Indices: []int{0, 1, 2, 3}, VerticesPerFace: 4, Category: "a"},
			{Indices: []int{4, 5, 6, 7}, VerticesPerFace: 4, Category: "b"},
			{Indices: []int{0, 1, 4, 0, 1, 2}, VerticesPerFace: 3, Category: "a"},
		},
	}

	out := Simplify(mesh, 1e-6)
	if len(out.Vertices) != 6 {
		t.Errorf("expected 6 welded vertices, got %d", len(out.Vertices))
	}
	if out.TriangleCount() != 4 {
		t.Errorf("expected 4 triangles, got %d", out.TriangleCount())
	}
	if cats := out.Categories(); len(cats) != 2 || cats[0] != "a" || cats[1] != "b" {
		t.Errorf("categories not preserved: %v", cats)
	}
	if err := out.Validate(); err != nil {
		t.Errorf("simplified mesh invalid: %v", err)
	}
}

func TestExtractEdges(t *testing.T) {
	mesh := NewBoxMesh(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), [6]string{})
	var tris []*Triangle
	for _, f := range mesh.Triangulate() {
		tris = append(tris, NewTriangle(mesh.Vertices[f.A], mesh.Vertices[f.B], mesh.Vertices[f.C], nil, 0))
	}

	// A closed cube has 12 creased edges and the face diagonals are flat
	edges := ExtractEdges(tris, math.Pi/180, 1e-6)
	if len(edges) != 12 {
		t.Fatalf("expected 12 edges, got %d", len(edges))
	}
	for _, e := range edges {
		if e.Boundary {
			t.Error("closed cube should have no boundary edges")
		}
		if math.Abs(e.Length()-1) > 1e-9 {
			t.Errorf("expected unit edge, got length %f", e.Length())
		}
	}

	single := ExtractEdges(tris[:1], math.Pi/180, 1e-6)
	if len(single) != 3 || !single[0].Boundary {
		t.Errorf("expected 3 boundary edges for one triangle, got %d", len(single))
	}
}

func TestNewBoxMesh_ZeroThickness(t *testing.T) {
	min, max := core.NewVec3(-1, -1, 5), core.NewVec3(1, 1, 5)
	mesh := NewBoxMesh(min, max, [6]string{})

	for key, v := range mesh.Vertices {
		want := min
		if key&1 != 0 {
			want.X = max.X
		}
		if key&2 != 0 {
			want.Y = max.Y
		}
		if key&4 != 0 {
			want.Z = max.Z
		}
		if v != want {
			t.Errorf("corner %d: expected %v, got %v", key, want, v)
		}
	}

	var tris []*Triangle
	for _, f := range mesh.Triangulate() {
		tris = append(tris, NewTriangle(mesh.Vertices[f.A], mesh.Vertices[f.B], mesh.Vertices[f.C], nil, 0))
	}
	bvh := NewBVH(tris)

	// Nothing exists off the plane of the wall
	if bvh.AnyHit(core.NewRay(core.NewVec3(-3, 0, 2.5), core.NewVec3(1, 0, 0)), 1e-4, 10) {
		t.Error("ray below a flat box hit geometry")
	}
	var rec HitRecord
	if !bvh.FirstHit(core.NewRay(core.NewVec3(0.3, 0.2, 0), core.NewVec3(0, 0, 1)), 1e-4, 10, &rec) {
		t.Fatal("expected to hit the flat box")
	}
	if math.Abs(rec.T-5) > 1e-9 {
		t.Errorf("expected hit at t=5, got %f", rec.T)
	}

	// The perimeter is a thin-wall edge, the shared diagonal is not
	edges := ExtractEdges(tris, math.Pi/180, 1e-6)
	if len(edges) != 4 {
		t.Fatalf("expected 4 perimeter edges, got %d", len(edges))
	}
	for _, e := range edges {
		if math.Abs(e.Length()-2) > 1e-9 {
			t.Errorf("expected perimeter edge of length 2, got %f", e.Length())
		}
	}
}

func TestExtractEdges_NonManifold(t *testing.T) {
	v := core.NewVec3
	floor := []*Triangle{
		NewTriangle(v(-1, 0, 0), v(0, 0, 0), v(0, 0, 1), nil, 0),
		NewTriangle(v(-1, 0, 0), v(0, 0, 1), v(-1, 0, 1), nil, 0),
		NewTriangle(v(0, 0, 0), v(1, 0, 0), v(1, 0, 1), nil, 0),
		NewTriangle(v(0, 0, 0), v(1, 0, 1), v(0, 0, 1), nil, 0),
	}
	wall := []*Triangle{
		NewTriangle(v(0, 0, 0), v(0, 0, 1), v(0, 1, 1), nil, 0),
		NewTriangle(v(0, 0, 0), v(0, 1, 1), v(0, 1, 0), nil, 0),
	}
	seam := func(edges []Edge) bool {
		for _, e := range edges {
			if e.A.X == 0 && e.B.X == 0 && e.A.Y == 0 && e.B.Y == 0 {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name     string
		tris     []*Triangle
		expected bool
	}{
		{"flat seam", floor, false},
		{"wall standing on the seam", append(append([]*Triangle(nil), floor...), wall...), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := seam(ExtractEdges(tt.tris, math.Pi/180, 1e-6)); got != tt.expected {
				t.Errorf("expected seam edge %v, got %v", tt.expected, got)
			}
		})
	}
}
