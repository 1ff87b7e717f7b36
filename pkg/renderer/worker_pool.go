package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/integrator"
)

// batchSize is the number of subpaths traced per task
const batchSize = 256

// RayBatchTask traces one contiguous range of subpaths from an origin
type RayBatchTask struct {
	TaskID int
	Stream int64 // sampler stream, fixed per batch so results do not depend on scheduling
	Origin core.Vec3
	Depth  int
	Paths  []integrator.Subpath // shared slice; each task owns a disjoint window
}

// RayBatchResult reports a finished batch
type RayBatchResult struct {
	TaskID  int
	HitRays int
	Error   error
}

// WorkerPool traces subpath batches in parallel
type WorkerPool struct {
	taskQueue   chan RayBatchTask
	resultQueue chan RayBatchResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker traces batches using a shared read-only tracer
type Worker struct {
	ID          int
	tracer      integrator.Tracer
	estimator   *integrator.IndirectEstimator
	seed        int64
	taskQueue   chan RayBatchTask
	resultQueue chan RayBatchResult
}

// NewWorkerPool creates a pool with numWorkers workers; 0 uses the CPU count.
// Queues are sized for maxTasks so submission never blocks.
func NewWorkerPool(tracer integrator.Tracer, settings integrator.Settings, numWorkers, maxTasks int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RayBatchTask, maxTasks),
		resultQueue: make(chan RayBatchResult, maxTasks),
		numWorkers:  numWorkers,
	}
	estimator := integrator.NewIndirectEstimator(settings)
	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			tracer:      tracer,
			estimator:   estimator,
			seed:        settings.Seed,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}
	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop waits for queued tasks to finish and shuts the workers down
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask queues a batch
func (wp *WorkerPool) SubmitTask(task RayBatchTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed batch result
func (wp *WorkerPool) GetResult() (RayBatchResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range w.taskQueue {
		w.resultQueue <- w.trace(task)
	}
}

// trace runs one batch, turning a panic into an error result
func (w *Worker) trace(task RayBatchTask) (result RayBatchResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d batch %d: %v: %w", w.ID, task.TaskID, r, core.ErrUnknown)
		}
	}()

	sampler := core.NewSeededSampler(w.seed, task.Stream)
	for i := range task.Paths {
		task.Paths[i] = w.estimator.TraceSubpath(w.tracer, task.Origin, task.Depth, sampler)
		if task.Paths[i].Hit() {
			result.HitRays++
		}
	}
	return result
}

// batches splits count subpaths into tasks over paths
func batches(paths []integrator.Subpath, origin core.Vec3, depth int, streamBase int64, firstID int) []RayBatchTask {
	var tasks []RayBatchTask
	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))
		tasks = append(tasks, RayBatchTask{
			TaskID: firstID + len(tasks),
			Stream: streamBase + int64(start/batchSize),
			Origin: origin,
			Depth:  depth,
			Paths:  paths[start:end],
		})
	}
	return tasks
}
