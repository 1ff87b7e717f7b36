package acoustics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

func TestSimulator_SinglePair(t *testing.T) {
	s := NewSimulator()
	defer s.Close()

	if _, err := s.ChannelCount(); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized before Configure, got %v", err)
	}
	if err := s.Configure(testConfig()); err != nil {
		t.Fatal(err)
	}

	// Floor quad plus a wall, as two triangles each
	verts := []float32{
		-3, -1, -3, 3, -1, -3, 3, -1, 3, -3, -1, 3,
		-3, -1, -3, 3, -1, -3, 3, 2, -3, -3, 2, -3,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}
	if err := s.LoadMeshData(verts, 8, indices, len(indices), "brick"); err != nil {
		t.Fatalf("LoadMeshData failed: %v", err)
	}
	if err := s.AddSource(core.NewVec3(1, 0, 0), 0); err != nil {
		t.Fatal(err)
	}
	// A second call moves the same source
	if err := s.AddSource(core.NewVec3(1, 0, 1), 0.2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddListener(core.NewVec3(-1, 0, 0), core.IdentityQuat(), 0.1, ChannelLayout{Type: LayoutMono}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddListener(core.NewVec3(-1, 0, 0), core.IdentityQuat(), 0.1, ChannelLayout{Type: LayoutBinaural}); err != nil {
		t.Fatal(err)
	}
	if s.Context().SourceCount() != 1 || s.Context().ListenerCount() != 1 {
		t.Fatalf("expected one source and one listener, got %d and %d",
			s.Context().SourceCount(), s.Context().ListenerCount())
	}

	dir := filepath.Join(t.TempDir(), "out")
	if err := s.RunSimulation(dir); err != nil {
		t.Fatalf("RunSimulation failed: %v", err)
	}
	if n, err := s.ChannelCount(); err != nil || n != 2 {
		t.Errorf("expected 2 channels, got %d, %v", n, err)
	}
	if n, err := s.SampleCount(); err != nil || n == 0 {
		t.Errorf("expected samples, got %d, %v", n, err)
	}
	for _, name := range []string{"ir.wav", "metrics.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s in the output directory: %v", name, err)
		}
	}
}

func TestSimulator_LoadMesh(t *testing.T) {
	s := NewSimulator()
	defer s.Close()
	if err := s.Configure(testConfig()); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	obj := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(obj, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadMesh(obj, "floor"); err != nil {
		t.Errorf("loading OBJ: %v", err)
	}
	if err := s.LoadMesh(filepath.Join(dir, "mesh.stl"), ""); !errors.Is(err, ErrUnsupportedFeature) {
		t.Errorf("expected ErrUnsupportedFeature for .stl, got %v", err)
	}
	if s.Context().ObjectCount() != 1 {
		t.Errorf("expected the facade to reuse object 0, got %d objects", s.Context().ObjectCount())
	}
}
