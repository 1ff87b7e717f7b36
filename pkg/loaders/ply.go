package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	Elements    []PLYElement // in file order
}

// PLYElement is one element block declared in the header
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// LoadPLY loads a PLY mesh. Faces take the category of their material_index
// property when present ("material_N"), else none.
func LoadPLY(filename string) (*MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %v: %w", err, core.ErrInvalidParam)
	}
	defer file.Close()
	return ReadPLY(file)
}

// ReadPLY parses a PLY stream in any of the three encodings
func ReadPLY(r io.Reader) (*MeshData, error) {
	reader := bufio.NewReaderSize(r, 1<<20)
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &plyBinaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: reader, order: binary.BigEndian}
	case "ascii":
		values = &plyASCIIReader{r: reader}
	default:
		return nil, fmt.Errorf("unsupported PLY format %q: %w", header.Format, core.ErrInvalidParam)
	}

	mesh, err := readPLYBody(values, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	if err := mesh.validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// parsePLYHeader reads up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended early: %v: %w", err, core.ErrInvalidParam)
		}
		line := strings.TrimSpace(raw)
		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic: %w", core.ErrInvalidParam)
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q: %w", line, core.ErrInvalidParam)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s: %w", parts[2], core.ErrInvalidParam)
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			switch parts[1] {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element: %w", core.ErrInvalidParam)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			el := &header.Elements[len(header.Elements)-1]
			el.Properties = append(el.Properties, prop)
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("missing format line: %w", core.ErrInvalidParam)
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition: %w", core.ErrInvalidParam)
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition: %w", core.ErrInvalidParam)
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	if getTypeSize(prop.Type) == 0 && !prop.IsList {
		return PLYProperty{}, fmt.Errorf("unsupported data type %q: %w", prop.Type, core.ErrInvalidParam)
	}
	return prop, nil
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// plyValueReader yields the next scalar of the body in declaration order
type plyValueReader interface {
	next(dataType string) (float64, error)
}

type plyBinaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (p *plyBinaryReader) next(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type %q: %w", dataType, core.ErrInvalidParam)
	}
	b := p.buf[:size]
	if _, err := io.ReadFull(p.r, b); err != nil {
		return 0, fmt.Errorf("truncated body: %v: %w", err, core.ErrInvalidParam)
	}
	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(p.order.Uint32(b))), nil
	case "double", "float64":
		return math.Float64frombits(p.order.Uint64(b)), nil
	case "int", "int32":
		return float64(int32(p.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(p.order.Uint32(b)), nil
	case "short", "int16":
		return float64(int16(p.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(p.order.Uint16(b)), nil
	case "char", "int8":
		return float64(int8(b[0])), nil
	default:
		return float64(b[0]), nil
	}
}

type plyASCIIReader struct {
	r      *bufio.Reader
	tokens []string
}

func (p *plyASCIIReader) next(string) (float64, error) {
	for len(p.tokens) == 0 {
		line, err := p.r.ReadString('\n')
		p.tokens = strings.Fields(line)
		if err != nil && len(p.tokens) == 0 {
			return 0, fmt.Errorf("truncated body: %v: %w", err, core.ErrInvalidParam)
		}
	}
	tok := p.tokens[0]
	p.tokens = p.tokens[1:]
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", tok, core.ErrInvalidParam)
	}
	return v, nil
}

// readPLYBody walks every element in order, keeping vertex positions and
// face index lists and skipping everything else
func readPLYBody(values plyValueReader, header *PLYHeader) (*MeshData, error) {
	mesh := &MeshData{Vertices: make([]float32, 0, 3*header.VertexCount)}
	var groups groupBuilder

	for _, el := range header.Elements {
		for i := 0; i < el.Count; i++ {
			var pos [3]float32
			var face []uint32
			category := ""

			for _, prop := range el.Properties {
				if prop.IsList {
					n, err := values.next(prop.ListType)
					if err != nil {
						return nil, err
					}
					if n < 0 {
						return nil, fmt.Errorf("negative list length at %s %d: %w", el.Name, i, core.ErrInvalidParam)
					}
					keep := el.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
					for j := 0; j < int(n); j++ {
						v, err := values.next(prop.DataType)
						if err != nil {
							return nil, err
						}
						if keep {
							if v < 0 {
								return nil, fmt.Errorf("negative index at face %d: %w", i, core.ErrInvalidParam)
							}
							face = append(face, uint32(v))
						}
					}
					continue
				}

				v, err := values.next(prop.Type)
				if err != nil {
					return nil, err
				}
				switch {
				case el.Name == "vertex" && prop.Name == "x":
					pos[0] = float32(v)
				case el.Name == "vertex" && prop.Name == "y":
					pos[1] = float32(v)
				case el.Name == "vertex" && prop.Name == "z":
					pos[2] = float32(v)
				case el.Name == "face" && prop.Name == "material_index":
					category = fmt.Sprintf("material_%d", int(v))
				}
			}

			switch el.Name {
			case "vertex":
				mesh.Vertices = append(mesh.Vertices, pos[0], pos[1], pos[2])
			case "face":
				if len(face) < 3 {
					return nil, fmt.Errorf("face %d has %d vertices: %w", i, len(face), core.ErrInvalidParam)
				}
				groups.add(face, category)
			}
		}
	}

	mesh.Groups = groups.groups
	return mesh, nil
}
