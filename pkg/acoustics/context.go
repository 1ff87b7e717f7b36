// Package acoustics is the public API of the propagation engine. A Context
// owns the scene, the material database and the results of the last
// simulation; every other package is an implementation detail behind it.
package acoustics

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/hrtf"
	"github.com/df07/go-audio-propagation/pkg/material"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// State is the lifecycle stage of a Context
type State int

// Context states
const (
	StateCreated State = iota
	StateConfigured
	StateSceneBuilt // geometry was uploaded since the last configure
	StateSimulated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateSceneBuilt:
		return "scene built"
	case StateSimulated:
		return "simulated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// HRTFLoader reads a listener HRTF from a file
type HRTFLoader func(path string) (hrtf.HRTF, error)

// Option customizes a Context at creation
type Option func(*Context)

// WithLogger sets the logger used for build and simulation events
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHRTFLoader replaces the loader used by SetListenerHRTF
func WithHRTFLoader(loader HRTFLoader) Option {
	return func(c *Context) {
		if loader != nil {
			c.hrtfLoader = loader
		}
	}
}

// Context is a single propagation engine instance. Methods are safe for
// concurrent use; Simulate holds the write lock, so queries made during a
// simulation wait for it to finish.
type Context struct {
	mu         sync.RWMutex
	cfg        Configuration
	state      State
	scene      *scene.Scene
	staging    geometry.Staging
	library    *material.Library
	tracer     *scene.Tracer
	ir         *irSet
	stale      bool
	logger     *zap.Logger
	hrtfLoader HRTFLoader
}

// NewContext validates cfg and creates a configured Context. A nil
// configuration is rejected with ErrUninitialized.
func NewContext(cfg *Configuration, opts ...Option) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil configuration: %w", ErrUninitialized)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		cfg:    *cfg,
		state:  StateCreated,
		scene:  scene.New(),
		logger: zap.NewNop(),
		hrtfLoader: func(path string) (hrtf.HRTF, error) {
			return hrtf.LoadFile(path)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.library = material.NewLibrary(c.cfg.centers())
	c.state = StateConfigured

	c.logger.Debug("context created",
		zap.Int("bands", c.cfg.FrequencyBands),
		zap.Float64("sampleRate", c.cfg.SampleRate),
		zap.Int("threads", c.cfg.threads()),
	)
	return c, nil
}

// Close releases the scene and results. Every later call fails with ErrUninitialized.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.scene = nil
	c.staging.Reset()
	c.tracer = nil
	c.ir = nil
	c.state = StateClosed
	_ = c.logger.Sync()
	return nil
}

// Reset replaces the configuration, clears the scene and discards every
// result. The material database is kept and rebound to the new bands.
func (c *Context) Reset(cfg *Configuration) error {
	if cfg == nil {
		return fmt.Errorf("nil configuration: %w", ErrUninitialized)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.library.Rebind(cfg.centers()); err != nil {
		return err
	}
	c.cfg = *cfg
	c.scene = scene.New()
	c.staging.Reset()
	c.tracer = nil
	c.ir = nil
	c.stale = false
	c.state = StateConfigured
	c.logger.Debug("context reset", zap.Int("bands", c.cfg.FrequencyBands))
	return nil
}

// Configuration returns a copy of the active configuration
func (c *Context) Configuration() Configuration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// State returns the lifecycle stage
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stale reports whether the scene changed since the last Simulate
func (c *Context) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

func (c *Context) checkOpen() error {
	if c.state == StateClosed {
		return fmt.Errorf("context is closed: %w", ErrUninitialized)
	}
	return nil
}

// touch records a scene mutation. Call with the write lock held.
func (c *Context) touch(geometryChanged bool) {
	if c.state == StateSimulated {
		c.stale = true
	}
	if geometryChanged && c.state == StateConfigured {
		c.state = StateSceneBuilt
	}
}
