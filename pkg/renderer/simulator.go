// Package renderer runs a full propagation simulation: subpath tracing on a
// worker pool, per-pair estimation under an errgroup, and IR synthesis.
package renderer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/integrator"
	"github.com/df07/go-audio-propagation/pkg/metrics"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// Options configures one simulation run
type Options struct {
	Settings          integrator.Settings
	Threads           int // 0 uses the CPU count
	Direct            bool
	Indirect          bool
	Diffraction       bool
	TemporalCoherence bool
	Smoothing         float64 // weight of the previous histogram when blending
	GlobalVolume      float64
	MaxBytes          int64 // histogram memory budget, 0 for unlimited
	Logger            *zap.Logger
}

// PairResult holds everything computed for one listener-source pair
type PairResult struct {
	Listener   int
	Source     int
	Channels   [][]float32
	Metrics    []metrics.Metrics // one per band
	Histogram  *integrator.Histogram
	Direct     integrator.DirectResult
	Diffracted []integrator.Arrival
	Efficiency float64
}

// Result is the output of one run, indexed by pair in listener-major order
type Result struct {
	Pairs      []PairResult
	Efficiency float64
	Stats      SimulationStats
}

// Simulator runs simulations with fixed options
type Simulator struct {
	opts   Options
	logger *zap.Logger
}

// NewSimulator creates a simulator
func NewSimulator(opts Options) *Simulator {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{opts: opts, logger: logger}
}

// Stream ids keep listener, source and pair samplers disjoint
const (
	listenerStreams = int64(1) << 40
	sourceStreams   = int64(2) << 40
	pairStreams     = int64(3) << 40
	entityStride    = int64(1) << 24
)

// Run simulates every pair of sc. previous holds the histograms of the last
// run by pair index for temporal blending; it may be nil.
func (s *Simulator) Run(ctx context.Context, tracer integrator.Tracer, sc *scene.Scene, previous []*integrator.Histogram) (*Result, error) {
	start := time.Now()
	settings := s.opts.Settings
	pairs := sc.Pairs()

	if err := s.checkBudget(len(pairs)); err != nil {
		return nil, err
	}

	result := &Result{Pairs: make([]PairResult, len(pairs))}
	result.Stats.Pairs = len(pairs)

	var listenerPaths, sourcePaths [][]integrator.Subpath
	if s.opts.Indirect && len(pairs) > 0 {
		var err error
		listenerPaths, sourcePaths, err = s.traceSubpaths(tracer, sc, &result.Stats)
		if err != nil {
			return nil, err
		}
	}

	direct := integrator.NewDirectEstimator(settings)
	diffraction := integrator.NewDiffractionEstimator(settings)
	indirect := integrator.NewIndirectEstimator(settings)
	synth := NewSynthesizer(settings, s.opts.GlobalVolume)
	analyzer := metrics.NewAnalyzer(settings.SampleRate)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Threads)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("pair %d: %v: %w", i, r, core.ErrUnknown)
				}
			}()

			listener, source := sc.Listeners[pair.Listener], sc.Sources[pair.Source]
			sampler := core.NewSeededSampler(settings.Seed, pairStreams+int64(i))
			pr := PairResult{Listener: pair.Listener, Source: pair.Source}

			// Diffraction needs the occluded fraction even when the direct
			// arrival itself is switched off
			var arrivals []integrator.Arrival
			if s.opts.Direct || s.diffracts() {
				pr.Direct = direct.Estimate(tracer, listener, source, sampler)
				if s.opts.Direct {
					arrivals = append(arrivals, pr.Direct.Arrival)
				} else {
					pr.Direct.Arrival = integrator.Arrival{}
				}
			}
			if s.diffracts() {
				pr.Diffracted = diffraction.Estimate(tracer, listener, source, pr.Direct.Occluded)
				arrivals = append(arrivals, pr.Diffracted...)
			}

			if s.opts.Indirect {
				ir := indirect.Estimate(tracer, listener, source, listenerPaths[pair.Listener], sourcePaths[pair.Source])
				pr.Histogram = ir.Histogram
				pr.Efficiency = ir.Efficiency()
				if s.opts.TemporalCoherence && i < len(previous) {
					pr.Histogram.Blend(previous[i], s.opts.Smoothing)
				}
			}

			in := IRInput{Listener: listener, Arrivals: arrivals, Histogram: pr.Histogram}
			pr.Channels = synth.Synthesize(in, sampler)

			n := synth.Length(in)
			directEnergy := core.NewBands(settings.Bands(), 0)
			for _, a := range arrivals {
				directEnergy.AddScaled(a.Energy, 1)
			}
			for b := 0; b < settings.Bands(); b++ {
				m, err := analyzer.Analyze(EnergyCurve(arrivals, pr.Histogram, b, n, settings.SampleRate), directEnergy[b])
				if err != nil {
					return fmt.Errorf("pair %d band %d metrics: %w", i, b, err)
				}
				pr.Metrics = append(pr.Metrics, m)
			}

			result.Pairs[i] = pr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, pr := range result.Pairs {
		result.Efficiency += pr.Efficiency
		result.Stats.DirectRays += pr.Direct.Rays
		result.Stats.Arrivals += len(pr.Diffracted)
		if s.opts.Direct {
			result.Stats.Arrivals++
		}
		for _, ch := range pr.Channels {
			result.Stats.Samples += len(ch)
		}
	}
	if len(pairs) > 0 {
		result.Efficiency /= float64(len(pairs))
	}
	result.Stats.Duration = time.Since(start)

	s.logger.Debug("simulation finished",
		zap.Int("pairs", result.Stats.Pairs),
		zap.Int("listenerRays", result.Stats.ListenerRays),
		zap.Int("sourceRays", result.Stats.SourceRays),
		zap.Int("arrivals", result.Stats.Arrivals),
		zap.Float64("efficiency", result.Efficiency),
		zap.Duration("duration", result.Stats.Duration),
	)
	return result, nil
}

// diffracts reports whether diffracted paths are estimated. They belong to
// both the direct and the indirect sound, so either one enables them.
func (s *Simulator) diffracts() bool {
	return s.opts.Diffraction && (s.opts.Direct || s.opts.Indirect)
}

// checkBudget rejects runs whose histograms would exceed MaxBytes
func (s *Simulator) checkBudget(pairs int) error {
	if s.opts.MaxBytes <= 0 || !s.opts.Indirect {
		return nil
	}
	settings := s.opts.Settings
	per := integrator.HistogramBytes(core.SHCount(settings.IndirectSHOrder), settings.Bands(), settings.Bins())
	copies := int64(1)
	if s.opts.TemporalCoherence {
		copies = 2
	}
	if need := per * int64(pairs) * copies; need > s.opts.MaxBytes {
		return fmt.Errorf("histograms need %d bytes, budget is %d: %w", need, s.opts.MaxBytes, core.ErrBadAlloc)
	}
	return nil
}

// traceSubpaths runs every listener and source random walk on the worker pool
func (s *Simulator) traceSubpaths(tracer integrator.Tracer, sc *scene.Scene, stats *SimulationStats) ([][]integrator.Subpath, [][]integrator.Subpath, error) {
	settings := s.opts.Settings
	listenerPaths := make([][]integrator.Subpath, len(sc.Listeners))
	sourcePaths := make([][]integrator.Subpath, len(sc.Sources))

	var tasks []RayBatchTask
	for i, l := range sc.Listeners {
		listenerPaths[i] = make([]integrator.Subpath, settings.IndirectRays)
		stats.ListenerRays += settings.IndirectRays
		tasks = append(tasks, batches(listenerPaths[i], l.Position, settings.IndirectDepth,
			listenerStreams+int64(i)*entityStride, len(tasks))...)
	}
	for i, src := range sc.Sources {
		sourcePaths[i] = make([]integrator.Subpath, settings.SourceRays)
		stats.SourceRays += settings.SourceRays
		tasks = append(tasks, batches(sourcePaths[i], src.Position, settings.SourceDepth,
			sourceStreams+int64(i)*entityStride, len(tasks))...)
	}
	if len(tasks) == 0 {
		return listenerPaths, sourcePaths, nil
	}

	pool := NewWorkerPool(tracer, settings, s.opts.Threads, len(tasks))
	pool.Start()
	for _, task := range tasks {
		pool.SubmitTask(task)
	}
	pool.Stop()

	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.HitRays += result.HitRays
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}

	s.logger.Debug("subpaths traced",
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", pool.GetNumWorkers()),
		zap.Int("hits", stats.HitRays),
	)
	return listenerPaths, sourcePaths, nil
}
