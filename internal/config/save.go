package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes the scene back to the file it was loaded from, or to
// scene.yaml in the working directory
func (s *Scene) Save() error {
	if s.path == "" {
		return s.SaveTo("scene.yaml")
	}
	return s.SaveTo(s.path)
}

// SaveTo writes the scene to a specific path
func (s *Scene) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if s.Version == "" {
		s.Version = SchemaVersion
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
