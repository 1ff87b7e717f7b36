package renderer

import (
	"context"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/integrator"
	"github.com/df07/go-audio-propagation/pkg/material"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

func testSettings() integrator.Settings {
	return integrator.Settings{
		Centers:         core.BandCenters(3, 44100),
		SampleRate:      44100,
		MaxIRLength:     0.5,
		UnitScale:       1,
		SpeedOfSound:    343,
		Basis:           scene.DefaultBasis(),
		DirectRays:      64,
		DirectSHOrder:   1,
		IndirectSHOrder: 1,
		IndirectRays:    300,
		IndirectDepth:   8,
		SourceRays:      100,
		SourceDepth:     4,
		MaxDiffraction:  1,
		Seed:            7,
	}
}

// roomTracer builds a closed 4x3x5 room with the default material
func roomTracer(t *testing.T, settings integrator.Settings) *scene.Tracer {
	t.Helper()
	s := scene.New()
	obj, _ := s.Object(s.AddObject())
	obj.Mesh = geometry.NewBoxMesh(core.NewVec3(-2, -1.5, -2.5), core.NewVec3(2, 1.5, 2.5), [6]string{})
	tracer, err := scene.Build(context.Background(), s, material.NewDatabase(settings.Bands()), scene.BuildOptions{Threads: 2})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tracer
}

func runPool(t *testing.T, tracer integrator.Tracer, settings integrator.Settings, workers int) ([]integrator.Subpath, int) {
	t.Helper()
	paths := make([]integrator.Subpath, 1000)
	tasks := batches(paths, core.NewVec3(0.3, 0.1, -0.4), settings.IndirectDepth, 100, 0)

	pool := NewWorkerPool(tracer, settings, workers, len(tasks))
	pool.Start()
	for _, task := range tasks {
		pool.SubmitTask(task)
	}
	pool.Stop()

	hits := 0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			t.Fatalf("batch %d failed: %v", result.TaskID, result.Error)
		}
		hits += result.HitRays
	}
	return paths, hits
}

func TestBatches(t *testing.T) {
	paths := make([]integrator.Subpath, 2*batchSize+10)
	tasks := batches(paths, core.Vec3{}, 3, 50, 4)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	total := 0
	for i, task := range tasks {
		if task.TaskID != 4+i || task.Stream != 50+int64(i) {
			t.Errorf("task %d: unexpected id %d or stream %d", i, task.TaskID, task.Stream)
		}
		total += len(task.Paths)
	}
	if total != len(paths) || len(tasks[2].Paths) != 10 {
		t.Errorf("expected windows to cover every path, got %d", total)
	}
}

func TestWorkerPool_DeterministicAcrossWorkerCounts(t *testing.T) {
	settings := testSettings()
	tracer := roomTracer(t, settings)

	single, singleHits := runPool(t, tracer, settings, 1)
	multi, multiHits := runPool(t, tracer, settings, 4)

	if singleHits != len(single) {
		t.Errorf("expected every path in a closed room to hit, got %d of %d", singleHits, len(single))
	}
	if singleHits != multiHits {
		t.Errorf("hit counts differ: %d vs %d", singleHits, multiHits)
	}
	for i := range single {
		if single[i].Direction != multi[i].Direction || len(single[i].Vertices) != len(multi[i].Vertices) {
			t.Fatalf("path %d differs between worker counts", i)
		}
	}
}
