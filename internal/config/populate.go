package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/pkg/acoustics"
)

// NewContext creates a context from the simulation settings and loads
// every material, object, source and listener of the scene into it
func (s *Scene) NewContext(logger *zap.Logger) (*acoustics.Context, error) {
	cfg := s.Simulation
	c, err := acoustics.NewContext(&cfg, acoustics.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := s.Populate(c); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Populate replaces the scene held by c with this one, keeping c's
// configuration
func (s *Scene) Populate(c *acoustics.Context) error {
	for _, reset := range []func() error{c.ClearObjects, c.ClearSources, c.ClearListeners} {
		if err := reset(); err != nil {
			return err
		}
	}
	if s.Materials != "" {
		if err := c.SetMaterialDatabaseJSON(s.Resolve(s.Materials)); err != nil {
			return err
		}
	}
	for i, o := range s.Objects {
		if err := s.addObject(c, o); err != nil {
			return fmt.Errorf("object %d %s: %w", i, o.Name, err)
		}
	}
	for i, src := range s.Sources {
		if err := addSource(c, src); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	for i, l := range s.Listeners {
		if err := s.addListener(c, l); err != nil {
			return fmt.Errorf("listener %d: %w", i, err)
		}
	}
	return nil
}

func (s *Scene) addObject(c *acoustics.Context, o Object) error {
	i, err := c.AddObject()
	if err != nil {
		return err
	}
	switch {
	case o.Box != nil && o.Mesh != "":
		return fmt.Errorf("object has both a box and a mesh: %w", acoustics.ErrInvalidParam)
	case o.Box != nil:
		cats, err := boxCategories(o.Box.Categories, o.Category)
		if err != nil {
			return err
		}
		if err := c.SetObjectBox(i, o.Box.Min, o.Box.Max, cats); err != nil {
			return err
		}
	case o.Mesh != "":
		path := s.Resolve(o.Mesh)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".obj":
			err = c.SetObjectMeshOBJ(i, path, o.Category)
		case ".ply":
			err = c.SetObjectMeshPLY(i, path, o.Category)
		default:
			err = fmt.Errorf("mesh format %q: %w", filepath.Ext(path), acoustics.ErrUnsupportedFeature)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("object has no geometry: %w", acoustics.ErrInvalidParam)
	}

	if err := c.SetObjectPosition(i, o.Position); err != nil {
		return err
	}
	if o.Orientation != nil {
		return c.SetObjectOrientation(i, *o.Orientation)
	}
	return nil
}

// boxCategories expands zero, one or six names to one per face. A
// category on the object fills faces left empty.
func boxCategories(names []string, fallback string) (acoustics.BoxCategories, error) {
	var cats acoustics.BoxCategories
	switch len(names) {
	case 0:
	case 1:
		for f := range cats {
			cats[f] = names[0]
		}
	case 6:
		copy(cats[:], names)
	default:
		return cats, fmt.Errorf("box has %d categories, want 1 or 6: %w", len(names), acoustics.ErrInvalidParam)
	}
	for f := range cats {
		if cats[f] == "" {
			cats[f] = fallback
		}
	}
	return cats, nil
}

func addSource(c *acoustics.Context, src Source) error {
	i, err := c.AddSource()
	if err != nil {
		return err
	}
	if err := c.SetSourcePosition(i, src.Position); err != nil {
		return err
	}
	return c.SetSourceRadius(i, src.Radius)
}

func (s *Scene) addListener(c *acoustics.Context, l Listener) error {
	layout, err := ParseLayout(l.Layout, l.Channels)
	if err != nil {
		return err
	}
	i, err := c.AddListener(layout)
	if err != nil {
		return err
	}
	if err := c.SetListenerPosition(i, l.Position); err != nil {
		return err
	}
	if l.Orientation != nil {
		if err := c.SetListenerOrientation(i, *l.Orientation); err != nil {
			return err
		}
	}
	if l.Radius != nil {
		if err := c.SetListenerRadius(i, *l.Radius); err != nil {
			return err
		}
	}
	if l.HRTF != "" {
		return c.SetListenerHRTF(i, s.Resolve(l.HRTF))
	}
	return nil
}

// ParseLayout converts a layout name and channel count. An empty name is mono.
func ParseLayout(name string, channels int) (acoustics.ChannelLayout, error) {
	layout := acoustics.ChannelLayout{ChannelCount: channels}
	switch strings.ToLower(name) {
	case "", "mono":
		layout.Type = acoustics.LayoutMono
	case "binaural":
		layout.Type = acoustics.LayoutBinaural
	case "ambisonics", "foa", "hoa":
		layout.Type = acoustics.LayoutAmbisonics
	default:
		return layout, fmt.Errorf("channel layout %q: %w", name, acoustics.ErrInvalidParam)
	}
	return layout, nil
}
