package material

import (
	"fmt"
	"os"
	"sync"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Library owns the active database and swaps it atomically on reload.
// Resolutions are cached per category until the next swap.
type Library struct {
	mu      sync.RWMutex
	centers []float64
	db      *Database
	source  []byte
	cache   map[string]*Material
}

// NewLibrary creates a library holding only the default material
func NewLibrary(centers []float64) *Library {
	return &Library{
		centers: centers,
		db:      NewDatabase(len(centers)),
		cache:   make(map[string]*Material),
	}
}

// LoadFile parses path and replaces the database only on success
func (l *Library) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading material database %s: %v: %w", path, err, core.ErrInvalidParam)
	}
	return l.LoadBytes(data)
}

// LoadBytes parses a JSON document and replaces the database only on success
func (l *Library) LoadBytes(data []byte) error {
	db, err := ParseDatabaseJSON(data, l.centers)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.db = db
	l.source = append([]byte(nil), data...)
	l.cache = make(map[string]*Material)
	return nil
}

// Rebind re-parses the last loaded document for a new band layout
func (l *Library) Rebind(centers []float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	db := NewDatabase(len(centers))
	if l.source != nil {
		parsed, err := ParseDatabaseJSON(l.source, centers)
		if err != nil {
			return err
		}
		db = parsed
	}
	l.centers = centers
	l.db = db
	l.cache = make(map[string]*Material)
	return nil
}

// Resolve maps a category to a material using the active database
func (l *Library) Resolve(category string) *Material {
	l.mu.RLock()
	m, ok := l.cache[category]
	db := l.db
	l.mu.RUnlock()
	if ok {
		return m
	}

	m = db.Resolve(category)

	l.mu.Lock()
	if l.db == db {
		l.cache[category] = m
	}
	l.mu.Unlock()
	return m
}

// Database returns the active database snapshot
func (l *Library) Database() *Database {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db
}
