// Package config reads and writes the YAML scene files used by the
// command line tool, and turns them into a populated acoustics context.
package config

import (
	"github.com/df07/go-audio-propagation/pkg/acoustics"
	"github.com/df07/go-audio-propagation/pkg/core"
)

// SchemaVersion is written by Save; Load accepts any 1.x file
const SchemaVersion = "1.0.0"

// Scene is one simulation file
type Scene struct {
	Version    string                  `yaml:"version"`
	Simulation acoustics.Configuration `yaml:"simulation"`
	Materials  string                  `yaml:"materials,omitempty"` // material database JSON
	Objects    []Object                `yaml:"objects,omitempty"`
	Sources    []Source                `yaml:"sources"`
	Listeners  []Listener              `yaml:"listeners"`
	Output     OutputConfig            `yaml:"output"`
	Logging    LoggingConfig           `yaml:"logging"`

	path    string // file the scene was loaded from
	baseDir string // directory relative paths resolve against
}

// Object is a box or a mesh file placed in the scene
type Object struct {
	Name        string     `yaml:"name,omitempty"`
	Box         *Box       `yaml:"box,omitempty"`
	Mesh        string     `yaml:"mesh,omitempty"`     // .obj or .ply
	Category    string     `yaml:"category,omitempty"` // overrides the file's categories
	Position    core.Vec3  `yaml:"position"`
	Orientation *core.Quat `yaml:"orientation,omitempty"`
}

// Box is an axis-aligned cuboid in object space. Categories holds one
// name for every face or six in -X, +X, -Y, +Y, -Z, +Z order.
type Box struct {
	Min        core.Vec3 `yaml:"min"`
	Max        core.Vec3 `yaml:"max"`
	Categories []string  `yaml:"categories"`
}

// Source is a point or spherical source
type Source struct {
	Position core.Vec3 `yaml:"position"`
	Radius   float64   `yaml:"radius,omitempty"`
}

// Listener is a receiver with its channel layout
type Listener struct {
	Position    core.Vec3  `yaml:"position"`
	Orientation *core.Quat `yaml:"orientation,omitempty"`
	Radius      *float64   `yaml:"radius,omitempty"`
	Layout      string     `yaml:"layout"` // mono, binaural or ambisonics
	Channels    int        `yaml:"channels,omitempty"`
	HRTF        string     `yaml:"hrtf,omitempty"`
}

// OutputConfig selects the files written after each simulation
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	WAV     bool   `yaml:"wav"`
	Metrics bool   `yaml:"metrics"`
	OBJ     bool   `yaml:"obj"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Default returns a scene with default simulation settings and no entities
func Default() *Scene {
	return &Scene{
		Version:    SchemaVersion,
		Simulation: acoustics.DefaultConfiguration(),
		Output: OutputConfig{
			Dir:     "output",
			WAV:     true,
			Metrics: true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
