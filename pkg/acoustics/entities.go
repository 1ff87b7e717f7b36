package acoustics

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/hrtf"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// ChannelLayout describes the channels of a listener's IR
type ChannelLayout = scene.ChannelLayout

// Channel layout types
const (
	LayoutMono       = scene.LayoutMono
	LayoutBinaural   = scene.LayoutBinaural
	LayoutAmbisonics = scene.LayoutAmbisonics
)

// SourceCount returns the number of sources
func (c *Context) SourceCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scene == nil {
		return 0
	}
	return len(c.scene.Sources)
}

// AddSource appends a point source at the origin and returns its index
func (c *Context) AddSource() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	c.touch(false)
	return c.scene.AddSource(), nil
}

// ClearSources removes every source
func (c *Context) ClearSources() error {
	return c.mutate(false, func(s *scene.Scene) error {
		s.ClearSources()
		return nil
	})
}

// SetSourcePosition moves source i
func (c *Context) SetSourcePosition(i int, position core.Vec3) error {
	if !position.IsFinite() {
		return fmt.Errorf("source position %v: %w", position, ErrInvalidParam)
	}
	return c.mutate(false, func(s *scene.Scene) error {
		src, err := s.Source(i)
		if err != nil {
			return err
		}
		src.Position = position
		return nil
	})
}

// SetSourceRadius sets the radius of source i; 0 makes it a point source
func (c *Context) SetSourceRadius(i int, radius float64) error {
	if err := checkRadius(radius); err != nil {
		return err
	}
	return c.mutate(false, func(s *scene.Scene) error {
		src, err := s.Source(i)
		if err != nil {
			return err
		}
		src.Radius = radius
		return nil
	})
}

// ListenerCount returns the number of listeners
func (c *Context) ListenerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scene == nil {
		return 0
	}
	return len(c.scene.Listeners)
}

// AddListener appends a listener at the origin with the given layout and
// returns its index. A zero channel count picks the type's default.
func (c *Context) AddListener(layout ChannelLayout) (int, error) {
	valid, err := scene.NewChannelLayout(layout.Type, layout.ChannelCount)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	c.touch(false)
	return c.scene.AddListener(valid), nil
}

// ClearListeners removes every listener
func (c *Context) ClearListeners() error {
	return c.mutate(false, func(s *scene.Scene) error {
		s.ClearListeners()
		return nil
	})
}

// SetListenerPosition moves listener i
func (c *Context) SetListenerPosition(i int, position core.Vec3) error {
	if !position.IsFinite() {
		return fmt.Errorf("listener position %v: %w", position, ErrInvalidParam)
	}
	return c.mutate(false, func(s *scene.Scene) error {
		l, err := s.Listener(i)
		if err != nil {
			return err
		}
		l.Position = position
		return nil
	})
}

// SetListenerOrientation sets the local-to-world rotation of listener i.
// The quaternion is normalized; a zero quaternion is rejected.
func (c *Context) SetListenerOrientation(i int, q core.Quat) error {
	if err := checkQuat(q); err != nil {
		return err
	}
	return c.mutate(false, func(s *scene.Scene) error {
		l, err := s.Listener(i)
		if err != nil {
			return err
		}
		l.Orientation = core.NewQuat(q.W, q.X, q.Y, q.Z)
		return nil
	})
}

// SetListenerRadius sets the detection radius of listener i
func (c *Context) SetListenerRadius(i int, radius float64) error {
	if err := checkRadius(radius); err != nil {
		return err
	}
	return c.mutate(false, func(s *scene.Scene) error {
		l, err := s.Listener(i)
		if err != nil {
			return err
		}
		l.Radius = radius
		return nil
	})
}

// SetListenerHRTF loads the HRTF of listener i from path. An empty path
// restores the built-in spherical head model.
func (c *Context) SetListenerHRTF(i int, path string) error {
	var model hrtf.HRTF = hrtf.NewSphericalHead()
	if path != "" {
		c.mu.RLock()
		load := c.hrtfLoader
		c.mu.RUnlock()
		loaded, err := load(path)
		if err != nil {
			return err
		}
		model = loaded
	}
	err := c.mutate(false, func(s *scene.Scene) error {
		l, err := s.Listener(i)
		if err != nil {
			return err
		}
		l.HRTF = model
		return nil
	})
	if err == nil {
		c.logger.Debug("listener hrtf set", zap.Int("listener", i), zap.String("hrtf", model.Name()))
	}
	return err
}

// mutate applies fn to the scene under the write lock
func (c *Context) mutate(geometryChanged bool, fn func(*scene.Scene) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := fn(c.scene); err != nil {
		return err
	}
	c.touch(geometryChanged)
	return nil
}

func checkRadius(r float64) error {
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("radius %g: %w", r, ErrInvalidParam)
	}
	return nil
}

func checkQuat(q core.Quat) error {
	n := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	if !(n > 0) || math.IsInf(n, 0) {
		return fmt.Errorf("orientation %v: %w", q, ErrInvalidParam)
	}
	return nil
}
