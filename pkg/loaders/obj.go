package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
)

// LoadOBJ loads a Wavefront OBJ mesh. usemtl names become face categories.
func LoadOBJ(filename string) (*MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %v: %w", err, core.ErrInvalidParam)
	}
	defer file.Close()
	return ReadOBJ(file)
}

// ReadOBJ parses OBJ vertex and face statements and ignores the rest.
// Face corners may carry texture and normal references (v/vt/vn) and
// negative indices count back from the last vertex.
func ReadOBJ(r io.Reader) (*MeshData, error) {
	mesh := &MeshData{}
	var groups groupBuilder
	category := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates: %w", lineNum, core.ErrInvalidParam)
			}
			for _, f := range fields[1:4] {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid coordinate %q: %w", lineNum, f, core.ErrInvalidParam)
				}
				mesh.Vertices = append(mesh.Vertices, float32(v))
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices: %w", lineNum, core.ErrInvalidParam)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, corner := range fields[1:] {
				idx, err := objIndex(corner, mesh.VertexCount())
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				face = append(face, idx)
			}
			groups.add(face, category)
		case "usemtl":
			category = strings.Join(fields[1:], " ")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %v: %w", err, core.ErrInvalidParam)
	}

	mesh.Groups = groups.groups
	if err := mesh.validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// objIndex resolves one face corner to a zero-based vertex index
func objIndex(corner string, vertexCount int) (uint32, error) {
	ref := corner
	if i := strings.IndexByte(corner, '/'); i >= 0 {
		ref = corner[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid face vertex %q: %w", corner, core.ErrInvalidParam)
	}
	if n < 0 {
		n += vertexCount + 1
	}
	if n < 1 || n > vertexCount {
		return 0, fmt.Errorf("face vertex %q out of range: %w", corner, core.ErrInvalidParam)
	}
	return uint32(n - 1), nil
}

// WriteSceneOBJ writes world triangles as an OBJ with per-vertex colours
// (the common "v x y z r g b" extension). colorFor picks the colour of a
// triangle, usually from its material.
func WriteSceneOBJ(w io.Writer, triangles []*geometry.Triangle, colorFor func(*geometry.Triangle) core.Vec3) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d triangles\n", len(triangles))
	for _, tri := range triangles {
		c := colorFor(tri)
		for _, v := range []core.Vec3{tri.V0, tri.V1, tri.V2} {
			fmt.Fprintf(bw, "v %g %g %g %.4f %.4f %.4f\n", v.X, v.Y, v.Z, c.X, c.Y, c.Z)
		}
	}
	for i := range triangles {
		base := 3*i + 1
		fmt.Fprintf(bw, "f %d %d %d\n", base, base+1, base+2)
	}
	return bw.Flush()
}
