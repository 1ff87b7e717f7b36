package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// binaryPLY builds a unit square: one quad and one triangle, with a
// per-vertex colour property that must be skipped
func binaryPLY(order binary.ByteOrder, format string) []byte {
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment made by hand\n")
	buf.WriteString("element vertex 5\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	buf.WriteString("property uchar red\n")
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property int material_index\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0.5, 2, 0}}
	for _, v := range vertices {
		binary.Write(&buf, order, v)
		binary.Write(&buf, order, uint8(200))
	}

	binary.Write(&buf, order, uint8(4))
	binary.Write(&buf, order, []int32{0, 1, 2, 3})
	binary.Write(&buf, order, int32(0))
	binary.Write(&buf, order, uint8(3))
	binary.Write(&buf, order, []int32{3, 2, 4})
	binary.Write(&buf, order, int32(1))
	return buf.Bytes()
}

const asciiPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 2
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
3 0 1 2
3 0 2 3
`

func TestReadPLY_Formats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"binary little endian", binaryPLY(binary.LittleEndian, "binary_little_endian")},
		{"binary big endian", binaryPLY(binary.BigEndian, "binary_big_endian")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ReadPLY(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if mesh.VertexCount() != 5 {
				t.Errorf("expected 5 vertices, got %d", mesh.VertexCount())
			}
			if mesh.Vertices[13] != 2 {
				t.Errorf("expected vertex 4 at y=2, got %f", mesh.Vertices[13])
			}
			if len(mesh.Groups) != 2 {
				t.Fatalf("expected a quad group and a triangle group, got %d", len(mesh.Groups))
			}
			quad, tri := mesh.Groups[0], mesh.Groups[1]
			if quad.VerticesPerFace != 4 || quad.Category != "material_0" || len(quad.Indices) != 4 {
				t.Errorf("unexpected quad group %+v", quad)
			}
			if tri.VerticesPerFace != 3 || tri.Category != "material_1" || tri.Indices[2] != 4 {
				t.Errorf("unexpected triangle group %+v", tri)
			}
		})
	}
}

func TestReadPLY_ASCII(t *testing.T) {
	mesh, err := ReadPLY(strings.NewReader(asciiPLY))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mesh.VertexCount() != 4 || mesh.FaceCount() != 2 {
		t.Errorf("expected 4 vertices and 2 faces, got %d and %d", mesh.VertexCount(), mesh.FaceCount())
	}
	if len(mesh.Groups) != 1 || mesh.Groups[0].Category != "" {
		t.Errorf("expected one uncategorized triangle group, got %+v", mesh.Groups)
	}
}

func TestLoadPLY_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.ply")
	if err := os.WriteFile(path, binaryPLY(binary.LittleEndian, "binary_little_endian"), 0644); err != nil {
		t.Fatal(err)
	}
	mesh, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	mesh.SetCategory("concrete")
	if len(mesh.Groups) != 2 || mesh.Groups[0].Category != "concrete" || mesh.Groups[1].Category != "concrete" {
		t.Errorf("expected every group recategorized, got %+v", mesh.Groups)
	}
}

func TestReadPLY_Errors(t *testing.T) {
	truncated := binaryPLY(binary.LittleEndian, "binary_little_endian")
	tests := []struct {
		name string
		data string
	}{
		{"not ply", "obj\nformat ascii 1.0\nend_header\n"},
		{"no end header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"truncated body", string(truncated[:len(truncated)-6])},
		{"index out of range", strings.Replace(asciiPLY, "3 0 2 3", "3 0 2 9", 1)},
		{"degenerate face", strings.Replace(asciiPLY, "3 0 2 3", "2 0 2", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.data))
			if !errors.Is(err, core.ErrInvalidParam) {
				t.Errorf("expected ErrInvalidParam, got %v", err)
			}
		})
	}
}

func TestLoadPLY_MissingFile(t *testing.T) {
	if _, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
