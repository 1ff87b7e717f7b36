package loaders

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
)

const testOBJ = `# two walls
o room
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 2 0 0
vn 0 0 1
usemtl Brick
f 1//1 2//1 3//1 4//1
usemtl glass pane
f -4/1/1 5/2/1 -3/3/1
f 1 2 3 4 5
`

func TestReadOBJ(t *testing.T) {
	mesh, err := ReadOBJ(strings.NewReader(testOBJ))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mesh.VertexCount() != 5 {
		t.Errorf("expected 5 vertices, got %d", mesh.VertexCount())
	}

	// quad/Brick, triangles/glass pane (one face plus the fanned pentagon)
	if len(mesh.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", mesh.Groups)
	}
	brick, glass := mesh.Groups[0], mesh.Groups[1]
	if brick.Category != "Brick" || brick.VerticesPerFace != 4 {
		t.Errorf("unexpected brick group %+v", brick)
	}
	if glass.Category != "glass pane" || glass.VerticesPerFace != 3 {
		t.Errorf("unexpected glass group %+v", glass)
	}
	if len(glass.Indices) != 3*4 {
		t.Errorf("expected 4 triangles in the glass group, got %d indices", len(glass.Indices))
	}
	// -4 is vertex 2 (index 1), -3 vertex 3 (index 2) when 5 vertices are known
	if glass.Indices[0] != 1 || glass.Indices[1] != 4 || glass.Indices[2] != 2 {
		t.Errorf("unexpected resolved indices %v", glass.Indices[:3])
	}
}

func TestReadOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v 1 x 2\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"forward reference", "v 0 0 0\nv 1 0 0\nf 1 2 3\nv 0 1 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadOBJ(strings.NewReader(tt.data)); !errors.Is(err, core.ErrInvalidParam) {
				t.Errorf("expected ErrInvalidParam, got %v", err)
			}
		})
	}
}

func TestLoadOBJ_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walls.obj")
	if err := os.WriteFile(path, []byte(testOBJ), 0644); err != nil {
		t.Fatal(err)
	}
	mesh, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if mesh.FaceCount() != 5 {
		t.Errorf("expected 5 faces after fanning, got %d", mesh.FaceCount())
	}
}

func TestWriteSceneOBJ_RoundTrip(t *testing.T) {
	tris := []*geometry.Triangle{
		geometry.NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), nil, 0),
		geometry.NewTriangle(core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 1), core.NewVec3(0, 1, 1), nil, 1),
	}
	var buf bytes.Buffer
	err := WriteSceneOBJ(&buf, tris, func(tri *geometry.Triangle) core.Vec3 {
		return core.NewVec3(float64(tri.Object), 0.5, 0)
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "v 0 0 1 1.0000 0.5000 0.0000") {
		t.Errorf("expected coloured vertices, got:\n%s", buf.String())
	}

	mesh, err := ReadOBJ(&buf)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if mesh.VertexCount() != 6 || mesh.FaceCount() != 2 {
		t.Errorf("expected 6 vertices and 2 faces, got %d and %d", mesh.VertexCount(), mesh.FaceCount())
	}
}
