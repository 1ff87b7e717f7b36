package config

import (
	"fmt"
	"sort"

	"github.com/df07/go-audio-propagation/pkg/acoustics"
	"github.com/df07/go-audio-propagation/pkg/core"
)

var presets = map[string]func() *Scene{
	"shoebox": shoeboxScene,
	"wall":    wallScene,
	"open":    openScene,
}

// Preset returns a built-in scene by name
func Preset(name string) (*Scene, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v): %w", name, PresetNames(), acoustics.ErrInvalidParam)
	}
	return build(), nil
}

// PresetNames lists the built-in scenes
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// shoeboxScene is a 6 x 3 x 8 m room with a carpeted floor and one
// source and binaural listener inside
func shoeboxScene() *Scene {
	s := Default()
	s.Objects = []Object{{
		Name: "room",
		Box: &Box{
			Min:        core.NewVec3(-3, 0, -4),
			Max:        core.NewVec3(3, 3, 4),
			Categories: []string{"brick wall", "brick wall", "carpet floor", "plaster ceiling", "brick wall", "glass window"},
		},
	}}
	s.Sources = []Source{{Position: core.NewVec3(1.2, 1.5, -2.1)}}
	s.Listeners = []Listener{
		{Position: core.NewVec3(-0.7, 1.6, 1.9), Layout: "binaural"},
		{Position: core.NewVec3(0.4, 1.6, 2.8), Layout: "ambisonics", Channels: 4},
	}
	return s
}

// wallScene puts a thick wall between a source and a listener in free
// field, exercising diffraction around its edges
func wallScene() *Scene {
	s := Default()
	s.Objects = []Object{{
		Name: "wall",
		Box: &Box{
			Min:        core.NewVec3(-2, 0, -0.15),
			Max:        core.NewVec3(2, 2.5, 0.15),
			Categories: []string{"concrete"},
		},
	}}
	s.Sources = []Source{{Position: core.NewVec3(0.3, 1.2, -3)}}
	s.Listeners = []Listener{{Position: core.NewVec3(-0.2, 1.4, 3), Layout: "mono"}}
	return s
}

// openScene has only a source and a listener
func openScene() *Scene {
	s := Default()
	s.Simulation.Indirect = false
	s.Sources = []Source{{Position: core.NewVec3(0, 1.5, -5), Radius: 0.25}}
	s.Listeners = []Listener{{Position: core.NewVec3(0, 1.5, 0), Layout: "mono"}}
	return s
}
