package scene

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Scene holds the objects and acoustic entities of one context.
// Entity lists only grow; an index stays valid until its list is cleared.
type Scene struct {
	Objects   []*Object
	Sources   []*Source
	Listeners []*Listener
}

// New creates an empty scene
func New() *Scene {
	return &Scene{}
}

// Pair identifies one (listener, source) combination
type Pair struct {
	Listener int
	Source   int
}

// Pairs returns all pairs, listener-major, so pair i belongs to listener
// i / len(Sources) and source i % len(Sources)
func (s *Scene) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.Listeners)*len(s.Sources))
	for l := range s.Listeners {
		for src := range s.Sources {
			pairs = append(pairs, Pair{Listener: l, Source: src})
		}
	}
	return pairs
}

// PairIndex returns the flat index of a pair
func (s *Scene) PairIndex(listener, source int) int {
	return listener*len(s.Sources) + source
}

// AddSource appends a point source at the origin and returns its index
func (s *Scene) AddSource() int {
	s.Sources = append(s.Sources, &Source{})
	return len(s.Sources) - 1
}

// Source returns the source at index i
func (s *Scene) Source(i int) (*Source, error) {
	if i < 0 || i >= len(s.Sources) {
		return nil, fmt.Errorf("source index %d of %d: %w", i, len(s.Sources), core.ErrInvalidParam)
	}
	return s.Sources[i], nil
}

// AddListener appends a listener with the given layout and returns its index
func (s *Scene) AddListener(layout ChannelLayout) int {
	s.Listeners = append(s.Listeners, NewListener(layout))
	return len(s.Listeners) - 1
}

// Listener returns the listener at index i
func (s *Scene) Listener(i int) (*Listener, error) {
	if i < 0 || i >= len(s.Listeners) {
		return nil, fmt.Errorf("listener index %d of %d: %w", i, len(s.Listeners), core.ErrInvalidParam)
	}
	return s.Listeners[i], nil
}

// AddObject appends an empty object and returns its index
func (s *Scene) AddObject() int {
	s.Objects = append(s.Objects, NewObject())
	return len(s.Objects) - 1
}

// Object returns the object at index i
func (s *Scene) Object(i int) (*Object, error) {
	if i < 0 || i >= len(s.Objects) {
		return nil, fmt.Errorf("object index %d of %d: %w", i, len(s.Objects), core.ErrInvalidParam)
	}
	return s.Objects[i], nil
}

// ClearSources removes every source
func (s *Scene) ClearSources() { s.Sources = nil }

// ClearListeners removes every listener
func (s *Scene) ClearListeners() { s.Listeners = nil }

// ClearObjects removes every object
func (s *Scene) ClearObjects() { s.Objects = nil }

// TriangleCount returns the number of triangles over all object meshes
func (s *Scene) TriangleCount() int {
	n := 0
	for _, o := range s.Objects {
		if o.Mesh != nil {
			n += o.Mesh.TriangleCount()
		}
	}
	return n
}

// Clone returns a copy whose entity lists and entities can be mutated
// without affecting s. Meshes are shared since they are replaced, never edited.
func (s *Scene) Clone() *Scene {
	out := &Scene{}
	for _, o := range s.Objects {
		c := *o
		out.Objects = append(out.Objects, &c)
	}
	for _, src := range s.Sources {
		c := *src
		out.Sources = append(out.Sources, &c)
	}
	for _, l := range s.Listeners {
		c := *l
		out.Listeners = append(out.Listeners, &c)
	}
	return out
}
