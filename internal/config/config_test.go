package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/df07/go-audio-propagation/pkg/acoustics"
	"github.com/df07/go-audio-propagation/pkg/core"
)

func TestDefault(t *testing.T) {
	s := Default()
	if s.Version != SchemaVersion {
		t.Errorf("expected version %s, got %s", SchemaVersion, s.Version)
	}
	if s.Simulation.FrequencyBands != 4 || s.Simulation.SampleRate != 44100 {
		t.Errorf("expected default simulation settings, got %+v", s.Simulation)
	}
	if s.Output.Dir != "output" || !s.Output.WAV || !s.Output.Metrics || s.Output.OBJ {
		t.Errorf("unexpected output defaults: %+v", s.Output)
	}
	if s.Logging.Level != "info" {
		t.Errorf("expected log level info, got %s", s.Logging.Level)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hall.yaml")
	data := `
version: 1.2.0
simulation:
  sample_rate: 48000
  indirect_ray_count: 1000
  transmission: false
materials: materials.json
objects:
  - name: room
    box:
      min: {x: -5, y: 0, z: -5}
      max: {x: 5, y: 4, z: 5}
      categories: [wood]
sources:
  - position: {x: 1, y: 1.5, z: 0}
listeners:
  - position: {x: -1, y: 1.5, z: 0}
    layout: ambisonics
    channels: 9
output:
  dir: renders
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Simulation.SampleRate != 48000 || s.Simulation.IndirectRayCount != 1000 {
		t.Errorf("expected file values, got %+v", s.Simulation)
	}
	if s.Simulation.Transmission {
		t.Error("expected transmission disabled by the file")
	}
	// Unset fields keep their defaults
	if s.Simulation.FrequencyBands != 4 || s.Simulation.DirectRayCount != 500 {
		t.Errorf("expected defaults for unset fields, got %+v", s.Simulation)
	}
	if s.Objects[0].Box.Max != core.NewVec3(5, 4, 5) {
		t.Errorf("unexpected box %+v", s.Objects[0].Box)
	}
	if s.Listeners[0].Channels != 9 || s.Logging.Level != "debug" {
		t.Errorf("unexpected listener or logging: %+v %+v", s.Listeners[0], s.Logging)
	}
	if got := s.OutputDir(); got != filepath.Join(dir, "renders") {
		t.Errorf("expected output dir relative to the file, got %s", got)
	}
	if files := s.Files(); len(files) != 1 || files[0] != filepath.Join(dir, "materials.json") {
		t.Errorf("expected the resolved material path, got %v", files)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing version", "sources: []", acoustics.ErrBadVersion},
		{"future major", "version: 2.0.0", acoustics.ErrBadVersion},
		{"not semver", "version: latest", acoustics.ErrBadVersion},
		{"bad yaml", "version: [1", acoustics.ErrInvalidParam},
		{"bad sample rate", "version: 1.0.0\nsimulation:\n  sample_rate: 0", acoustics.ErrBadSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	s, err := Preset("shoebox")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "nested", "shoebox.yaml")
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if len(loaded.Objects) != 1 || len(loaded.Listeners) != 2 || len(loaded.Sources) != 1 {
		t.Fatalf("entities lost in round trip: %+v", loaded)
	}
	if loaded.Objects[0].Box.Categories[2] != "carpet floor" {
		t.Errorf("expected face categories preserved, got %v", loaded.Objects[0].Box.Categories)
	}
	if loaded.Simulation != s.Simulation {
		t.Errorf("simulation settings changed in round trip")
	}

	loaded.Output.OBJ = true
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Output.OBJ {
		t.Error("Save did not write back to the loaded file")
	}
}

func TestPreset(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			s, err := Preset(name)
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Sources) == 0 || len(s.Listeners) == 0 {
				t.Errorf("preset %s has no pairs", name)
			}
		})
	}
	if _, err := Preset("cathedral"); !errors.Is(err, acoustics.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for an unknown preset, got %v", err)
	}
}

func TestNewContext_Populates(t *testing.T) {
	dir := t.TempDir()
	mesh := filepath.Join(dir, "floor.obj")
	if err := os.WriteFile(mesh, []byte("v -4 0 -4\nv 4 0 -4\nv 4 0 4\nv -4 0 4\nf 1 2 3 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	radius := 0.3
	s := Default()
	s.baseDir = dir
	s.Simulation.IndirectRayCount = 100
	s.Simulation.SourceRayCount = 20
	s.Simulation.MaxIRLength = 0.3
	s.Objects = []Object{
		{Mesh: "floor.obj", Category: "carpet"},
		{Box: &Box{Min: core.NewVec3(-1, 0, -1), Max: core.NewVec3(1, 1, 1)}, Category: "table", Position: core.NewVec3(2, 0, 0)},
	}
	s.Sources = []Source{{Position: core.NewVec3(0, 1, -2)}, {Position: core.NewVec3(0, 1, 2), Radius: 0.2}}
	s.Listeners = []Listener{{Position: core.NewVec3(-2, 1.5, 0), Layout: "binaural", Radius: &radius}}

	c, err := s.NewContext(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	defer c.Close()

	if c.ObjectCount() != 2 || c.SourceCount() != 2 || c.ListenerCount() != 1 {
		t.Fatalf("expected 2 objects, 2 sources, 1 listener; got %d, %d, %d",
			c.ObjectCount(), c.SourceCount(), c.ListenerCount())
	}
	if err := c.Simulate(context.Background()); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if n, _ := c.IRCount(); n != 2 {
		t.Errorf("expected 2 IRs, got %d", n)
	}

	// Populating again replaces rather than appends
	if err := s.Populate(c); err != nil {
		t.Fatal(err)
	}
	if c.ObjectCount() != 2 || c.SourceCount() != 2 {
		t.Errorf("expected the scene replaced, got %d objects and %d sources", c.ObjectCount(), c.SourceCount())
	}
}

func TestNewContext_Errors(t *testing.T) {
	tests := []struct {
		name   string
		object Object
		want   error
	}{
		{"no geometry", Object{}, acoustics.ErrInvalidParam},
		{"box and mesh", Object{Box: &Box{Max: core.NewVec3(1, 1, 1)}, Mesh: "x.obj"}, acoustics.ErrInvalidParam},
		{"five categories", Object{Box: &Box{Max: core.NewVec3(1, 1, 1), Categories: make([]string, 5)}}, acoustics.ErrInvalidParam},
		{"unknown mesh format", Object{Mesh: "x.stl"}, acoustics.ErrUnsupportedFeature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Objects = []Object{tt.object}
			if _, err := s.NewContext(nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		want     acoustics.ChannelLayout
		wantErr  bool
	}{
		{"", 0, acoustics.ChannelLayout{Type: acoustics.LayoutMono}, false},
		{"Binaural", 0, acoustics.ChannelLayout{Type: acoustics.LayoutBinaural}, false},
		{"foa", 4, acoustics.ChannelLayout{Type: acoustics.LayoutAmbisonics, ChannelCount: 4}, false},
		{"surround", 6, acoustics.ChannelLayout{}, true},
	}
	for _, tt := range tests {
		got, err := ParseLayout(tt.name, tt.channels)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLayout(%q): unexpected error %v", tt.name, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLayout(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
