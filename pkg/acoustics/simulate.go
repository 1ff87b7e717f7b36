package acoustics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/integrator"
	"github.com/df07/go-audio-propagation/pkg/metrics"
	"github.com/df07/go-audio-propagation/pkg/renderer"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// irSet is the immutable output of one successful Simulate
type irSet struct {
	runID      string
	listeners  int
	sources    int
	pairs      []renderer.PairResult
	efficiency float64
	centers    []float64
	sampleRate float64
	stats      renderer.SimulationStats
}

func (ir *irSet) pair(listener, source int) (*renderer.PairResult, error) {
	if listener < 0 || listener >= ir.listeners || source < 0 || source >= ir.sources {
		return nil, fmt.Errorf("pair (%d, %d) outside %dx%d: %w", listener, source, ir.listeners, ir.sources, ErrInvalidParam)
	}
	return &ir.pairs[listener*ir.sources+source], nil
}

// Simulate builds the tracer and computes the IR of every listener-source
// pair. On failure the previous results stay in place.
func (c *Context) Simulate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if bands := c.library.Database().Bands(); bands != c.cfg.FrequencyBands {
		return fmt.Errorf("material database has %d bands, configuration %d: %w", bands, c.cfg.FrequencyBands, ErrUninitialized)
	}

	runID := uuid.NewString()
	log := c.logger.With(zap.String("run", runID))
	start := time.Now()

	tracer, err := scene.Build(ctx, c.scene, c.library, scene.BuildOptions{
		Threads: c.cfg.threads(),
		Edges:   (c.cfg.Direct || c.cfg.Indirect) && c.cfg.Diffraction && c.cfg.MaxDiffractionOrder > 0,
	})
	if err != nil {
		log.Error("scene build failed", zap.Error(err))
		return err
	}
	log.Debug("scene built",
		zap.Int("objects", len(c.scene.Objects)),
		zap.Int("triangles", len(tracer.Triangles())),
		zap.Int("edges", len(tracer.Edges())),
		zap.Duration("elapsed", time.Since(start)),
	)

	var previous []*integrator.Histogram
	if c.cfg.TemporalCoherence && c.ir != nil &&
		c.ir.listeners == len(c.scene.Listeners) && c.ir.sources == len(c.scene.Sources) {
		previous = make([]*integrator.Histogram, len(c.ir.pairs))
		for i := range c.ir.pairs {
			previous[i] = c.ir.pairs[i].Histogram
		}
	}

	sim := renderer.NewSimulator(renderer.Options{
		Settings:          c.cfg.settings(),
		Threads:           c.cfg.threads(),
		Direct:            c.cfg.Direct,
		Indirect:          c.cfg.Indirect,
		Diffraction:       c.cfg.Diffraction,
		TemporalCoherence: c.cfg.TemporalCoherence,
		Smoothing:         c.cfg.TemporalSmoothing,
		GlobalVolume:      c.cfg.GlobalVolume,
		MaxBytes:          c.cfg.MaxSimulationBytes,
		Logger:            log,
	})
	result, err := sim.Run(ctx, tracer, c.scene, previous)
	if err != nil {
		log.Error("simulation failed", zap.Error(err))
		return err
	}

	c.tracer = tracer
	c.ir = &irSet{
		runID:      runID,
		listeners:  len(c.scene.Listeners),
		sources:    len(c.scene.Sources),
		pairs:      result.Pairs,
		efficiency: result.Efficiency,
		centers:    c.cfg.centers(),
		sampleRate: c.cfg.SampleRate,
		stats:      result.Stats,
	}
	c.stale = false
	c.state = StateSimulated

	log.Info("simulation complete",
		zap.Int("pairs", len(result.Pairs)),
		zap.Float64("efficiency", result.Efficiency),
		zap.Int("samples", result.Stats.Samples),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// results returns the last IR set or ErrUninitialized. Call with a lock held.
func (c *Context) results() (*irSet, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if c.ir == nil {
		return nil, fmt.Errorf("no simulation results: %w", ErrUninitialized)
	}
	return c.ir, nil
}

// RunID identifies the last successful Simulate
func (c *Context) RunID() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ir, err := c.results()
	if err != nil {
		return "", err
	}
	return ir.runID, nil
}

// IRCount returns the number of simulated pairs
func (c *Context) IRCount() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ir, err := c.results()
	if err != nil {
		return 0, err
	}
	return len(ir.pairs), nil
}

// IRChannelCount returns the channel count of one pair's IR
func (c *Context) IRChannelCount(listener, source int) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, err := c.pairResult(listener, source)
	if err != nil {
		return 0, err
	}
	return len(p.Channels), nil
}

// IRSampleCount returns the samples per channel of one pair's IR
func (c *Context) IRSampleCount(listener, source int) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, err := c.pairResult(listener, source)
	if err != nil {
		return 0, err
	}
	return len(p.Channels[0]), nil
}

// IRChannel returns one channel of a pair's IR. The slice stays valid
// after the next Simulate but must not be modified.
func (c *Context) IRChannel(listener, source, channel int) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, err := c.pairResult(listener, source)
	if err != nil {
		return nil, err
	}
	if channel < 0 || channel >= len(p.Channels) {
		return nil, fmt.Errorf("channel %d of %d: %w", channel, len(p.Channels), ErrInvalidParam)
	}
	return p.Channels[channel], nil
}

// IRMetrics returns the per-band acoustic parameters of one pair
func (c *Context) IRMetrics(listener, source int) ([]metrics.Metrics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, err := c.pairResult(listener, source)
	if err != nil {
		return nil, err
	}
	return append([]metrics.Metrics(nil), p.Metrics...), nil
}

// IndirectRayEfficiency returns the mean fraction of indirect rays that
// hit geometry, near 0 outdoors and near 1 in closed rooms
func (c *Context) IndirectRayEfficiency() (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ir, err := c.results()
	if err != nil {
		return 0, err
	}
	return ir.efficiency, nil
}

// Stats returns the counters of the last successful Simulate
func (c *Context) Stats() (renderer.SimulationStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ir, err := c.results()
	if err != nil {
		return renderer.SimulationStats{}, err
	}
	return ir.stats, nil
}

func (c *Context) pairResult(listener, source int) (*renderer.PairResult, error) {
	ir, err := c.results()
	if err != nil {
		return nil, err
	}
	return ir.pair(listener, source)
}

// RayQuery is a ray cast against the scene. Distances are multiples of
// the direction length. Hit, TMax and Normal are filled in by the trace.
type RayQuery struct {
	Origin    core.Vec3
	Direction core.Vec3
	TMin      float64
	TMax      float64

	Hit    bool
	Normal core.Vec3 // not normalized
}

func (q *RayQuery) validate() error {
	if !q.Origin.IsFinite() || !q.Direction.IsFinite() || q.Direction.LengthSquared() == 0 {
		return fmt.Errorf("ray %v -> %v: %w", q.Origin, q.Direction, ErrInvalidParam)
	}
	if q.TMin < 0 || !(q.TMax >= q.TMin) {
		return fmt.Errorf("ray range [%g, %g]: %w", q.TMin, q.TMax, ErrInvalidParam)
	}
	return nil
}

// TraceRayAnyHit reports whether anything intersects the ray. Only Hit is set.
func (c *Context) TraceRayAnyHit(q *RayQuery) error {
	tracer, err := c.rayTracer(q)
	if err != nil {
		return err
	}
	q.Hit = tracer.AnyHit(core.NewRay(q.Origin, q.Direction), q.TMin, q.TMax)
	return nil
}

// TraceRayFirstHit finds the closest intersection and stores its distance
// in TMax and the surface normal in Normal
func (c *Context) TraceRayFirstHit(q *RayQuery) error {
	tracer, err := c.rayTracer(q)
	if err != nil {
		return err
	}
	var rec geometry.HitRecord
	q.Hit = tracer.FirstHit(core.NewRay(q.Origin, q.Direction), q.TMin, q.TMax, &rec)
	if q.Hit {
		q.TMax = rec.T
		q.Normal = rec.Normal
	}
	return nil
}

func (c *Context) rayTracer(q *RayQuery) (*scene.Tracer, error) {
	if q == nil {
		return nil, fmt.Errorf("nil ray query: %w", ErrInvalidParam)
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if c.tracer == nil {
		return nil, fmt.Errorf("ray query before the first simulation: %w", ErrUninitialized)
	}
	return c.tracer, nil
}
