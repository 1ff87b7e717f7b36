package material

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Spec is one entry of the material database file
type Spec struct {
	Name         string    `json:"name"`
	Labels       []string  `json:"labels"`
	Absorption   []float64 `json:"absorption"`
	Scattering   []float64 `json:"scattering"`
	Transmission []float64 `json:"transmission"`
	Damping      []float64 `json:"damping"`
	Speed        *float64  `json:"speed"`
}

type databaseFile struct {
	Materials []Spec `json:"materials"`
}

// Database is an immutable set of materials resolved for one band layout
type Database struct {
	materials []*Material
	fallback  *Material
	bands     int
}

// NewDatabase returns a database with no entries, resolving everything to the default
func NewDatabase(bands int) *Database {
	return &Database{fallback: NewDefault(bands), bands: bands}
}

// LoadDatabaseJSON reads and parses a material database file
func LoadDatabaseJSON(path string, centers []float64) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading material database %s: %v: %w", path, err, core.ErrInvalidParam)
	}
	return ParseDatabaseJSON(data, centers)
}

// ParseDatabaseJSON parses the whole document before building anything, so
// a malformed file never yields a partial database.
func ParseDatabaseJSON(data []byte, centers []float64) (*Database, error) {
	var file databaseFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing material database: %v: %w", err, core.ErrInvalidParam)
	}
	if file.Materials == nil {
		return nil, fmt.Errorf("material database has no \"materials\" array: %w", core.ErrInvalidParam)
	}

	db := NewDatabase(len(centers))
	for i, spec := range file.Materials {
		m, err := spec.build(centers)
		if err != nil {
			return nil, fmt.Errorf("material %d (%s): %w", i, spec.Name, err)
		}
		db.materials = append(db.materials, m)
	}
	return db, nil
}

func (s Spec) build(centers []float64) (*Material, error) {
	m := NewDefault(len(centers))
	m.Name = s.Name
	for _, label := range s.Labels {
		if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
			m.Labels = append(m.Labels, label)
		}
	}

	fields := []struct {
		src    []float64
		dst    *core.Bands
		lo, hi float64
	}{
		{s.Absorption, &m.Absorption, 0, 1},
		{s.Scattering, &m.Scattering, 0, 1},
		{s.Transmission, &m.Transmission, 0, 1},
		{s.Damping, &m.Damping, 0, 1e6},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		b, err := core.InterpolateBands(f.src, centers)
		if err != nil {
			return nil, err
		}
		*f.dst = b.Clamp(f.lo, f.hi)
	}

	if s.Speed != nil {
		if !(*s.Speed > 0) {
			return nil, fmt.Errorf("speed %g must be positive: %w", *s.Speed, core.ErrInvalidParam)
		}
		m.Speed = *s.Speed
	}
	return m, nil
}

// Resolve returns the material whose labels match the most substrings of
// the lowercase category. Ties go to the first registered entry and no
// match returns the default material.
func (db *Database) Resolve(category string) *Material {
	category = strings.ToLower(category)
	best, bestCount := db.fallback, 0
	if category == "" {
		return best
	}
	for _, m := range db.materials {
		count := 0
		for _, label := range m.Labels {
			if strings.Contains(category, label) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = m, count
		}
	}
	return best
}

// Default returns the fallback material
func (db *Database) Default() *Material {
	return db.fallback
}

// Materials returns the registered entries in registration order
func (db *Database) Materials() []*Material {
	return db.materials
}

// Bands returns the number of frequency bands every entry carries
func (db *Database) Bands() int {
	return db.bands
}

// Index returns the registration index of m, or -1 for the default
func (db *Database) Index(m *Material) int {
	for i, candidate := range db.materials {
		if candidate == m {
			return i
		}
	}
	return -1
}
