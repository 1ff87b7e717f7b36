package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-audio-propagation/pkg/acoustics"
)

// supportedVersions is the range of scene file versions Load accepts
const supportedVersions = "^1.0"

// Load reads a scene file over the defaults. Relative mesh, material,
// HRTF and output paths resolve against the file's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %v: %w", path, err, acoustics.ErrInvalidParam)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading scene from %s: %w", path, err)
	}
	s.path = path
	s.baseDir = filepath.Dir(path)
	return s, nil
}

// Parse decodes a scene document over the defaults and checks its version
func Parse(data []byte) (*Scene, error) {
	s := Default()
	s.Version = ""
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing scene: %v: %w", err, acoustics.ErrInvalidParam)
	}
	if err := checkVersion(s.Version); err != nil {
		return nil, err
	}
	if err := s.Simulation.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func checkVersion(version string) error {
	if version == "" {
		return fmt.Errorf("scene file has no version: %w", acoustics.ErrBadVersion)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("scene version %q: %v: %w", version, err, acoustics.ErrBadVersion)
	}
	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("scene version %s outside %s: %w", v, supportedVersions, acoustics.ErrBadVersion)
	}
	return nil
}

// Resolve returns path relative to the scene file's directory
func (s *Scene) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.baseDir == "" {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

// OutputDir returns the resolved output directory
func (s *Scene) OutputDir() string {
	return s.Resolve(s.Output.Dir)
}

// Files returns every input file the scene reads, resolved
func (s *Scene) Files() []string {
	var files []string
	if s.Materials != "" {
		files = append(files, s.Resolve(s.Materials))
	}
	for _, o := range s.Objects {
		if o.Mesh != "" {
			files = append(files, s.Resolve(o.Mesh))
		}
	}
	for _, l := range s.Listeners {
		if l.HRTF != "" {
			files = append(files, s.Resolve(l.HRTF))
		}
	}
	return files
}
