package acoustics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Simulator drives a Context holding one object, one source and one
// listener, all at index 0.
//
// Deprecated: use Context, which supports any number of entities.
type Simulator struct {
	ctx  *Context
	opts []Option
}

// NewSimulator creates an unconfigured simulator
//
// Deprecated: use NewContext.
func NewSimulator(opts ...Option) *Simulator {
	return &Simulator{opts: opts}
}

// Configure creates or resets the underlying context
func (s *Simulator) Configure(cfg *Configuration) error {
	if s.ctx == nil {
		ctx, err := NewContext(cfg, s.opts...)
		if err != nil {
			return err
		}
		s.ctx = ctx
		return nil
	}
	return s.ctx.Reset(cfg)
}

// Context returns the underlying context, or nil before Configure
func (s *Simulator) Context() *Context {
	return s.ctx
}

func (s *Simulator) context() (*Context, error) {
	if s.ctx == nil {
		return nil, fmt.Errorf("simulator not configured: %w", ErrUninitialized)
	}
	return s.ctx, nil
}

// LoadMaterialJSON loads the material database
func (s *Simulator) LoadMaterialJSON(path string) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	return ctx.SetMaterialDatabaseJSON(path)
}

// object returns index 0, creating it on first use
func (s *Simulator) object(ctx *Context) (int, error) {
	if ctx.ObjectCount() > 0 {
		return 0, nil
	}
	return ctx.AddObject()
}

// LoadMesh replaces the scene geometry with an OBJ or PLY file, chosen by extension
func (s *Simulator) LoadMesh(path, category string) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	i, err := s.object(ctx)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return ctx.SetObjectMeshOBJ(i, path, category)
	case ".ply":
		return ctx.SetObjectMeshPLY(i, path, category)
	}
	return fmt.Errorf("mesh format %q: %w", filepath.Ext(path), ErrUnsupportedFeature)
}

// LoadMeshData replaces the scene geometry with a triangle mesh of one category
func (s *Simulator) LoadMeshData(vertices []float32, vertexCount int, indices []uint32, indexCount int, category string) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	i, err := s.object(ctx)
	if err != nil {
		return err
	}
	if err := ctx.AddMeshVertices(vertices, vertexCount); err != nil {
		return err
	}
	if err := ctx.AddMeshIndices(indices, indexCount, 3, category); err != nil {
		return err
	}
	return ctx.FinalizeObjectMesh(i)
}

// AddSource places the single source, creating it on first use
func (s *Simulator) AddSource(position core.Vec3, radius float64) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	if ctx.SourceCount() == 0 {
		if _, err := ctx.AddSource(); err != nil {
			return err
		}
	}
	if err := ctx.SetSourcePosition(0, position); err != nil {
		return err
	}
	return ctx.SetSourceRadius(0, radius)
}

// AddListener places the single listener. A layout change replaces it.
func (s *Simulator) AddListener(position core.Vec3, orientation core.Quat, radius float64, layout ChannelLayout) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	if ctx.ListenerCount() > 0 {
		if err := ctx.ClearListeners(); err != nil {
			return err
		}
	}
	if _, err := ctx.AddListener(layout); err != nil {
		return err
	}
	if err := ctx.SetListenerPosition(0, position); err != nil {
		return err
	}
	if err := ctx.SetListenerOrientation(0, orientation); err != nil {
		return err
	}
	return ctx.SetListenerRadius(0, radius)
}

// RunSimulation simulates the scene. A non-empty outputDir also receives
// ir.wav and metrics.txt.
func (s *Simulator) RunSimulation(outputDir string) error {
	ctx, err := s.context()
	if err != nil {
		return err
	}
	if err := ctx.Simulate(context.Background()); err != nil {
		return err
	}
	if outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %v: %w", outputDir, err, ErrInvalidParam)
	}
	if err := ctx.WriteIRWave(0, 0, filepath.Join(outputDir, "ir.wav")); err != nil {
		return err
	}
	return ctx.WriteIRMetrics(0, 0, filepath.Join(outputDir, "metrics.txt"))
}

// ChannelCount returns the channel count of the IR
func (s *Simulator) ChannelCount() (int, error) {
	ctx, err := s.context()
	if err != nil {
		return 0, err
	}
	return ctx.IRChannelCount(0, 0)
}

// SampleCount returns the samples per channel of the IR
func (s *Simulator) SampleCount() (int, error) {
	ctx, err := s.context()
	if err != nil {
		return 0, err
	}
	return ctx.IRSampleCount(0, 0)
}

// Channel returns one channel of the IR
func (s *Simulator) Channel(channel int) ([]float32, error) {
	ctx, err := s.context()
	if err != nil {
		return nil, err
	}
	return ctx.IRChannel(0, 0, channel)
}

// Close releases the underlying context
func (s *Simulator) Close() error {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Close()
}
