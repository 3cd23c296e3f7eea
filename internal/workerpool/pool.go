// Package workerpool runs the N-1 worker goroutines that generate chunks
// from noise and mesh them against their neighbors (component F). It fuses
// the teacher's two independent pools — world.ChunkStreamer's per-job-channel
// workers (internal/world/chunk_streamer.go) and meshing.WorkerPool's
// context-cancelled goroutines (internal/meshing/pool.go) — into one loop,
// because spec §4.4 requires a single worker to prefer mesh jobs over chunk
// jobs, which two independent pools can't express.
package workerpool

import (
	"log"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"terrainstream/internal/config"
	"terrainstream/internal/mesher"
	"terrainstream/internal/meshqueue"
	"terrainstream/internal/noise"
	"terrainstream/internal/voxel"
)

// JobSource is the capability workers depend on instead of naming the map
// cache or mesh queue types directly, per spec §9's suggested interface.
// The streaming controller's shared state implements it.
type JobSource interface {
	// NextMeshRequest returns a mesh-ready neighborhood if one is queued.
	NextMeshRequest() (meshqueue.Request, bool)
	// NextChunkCoord claims the next chunk coordinate to generate, if any.
	NextChunkCoord() (voxel.Coord, bool)
	// PublishChunk stores a generated chunk and enqueues mesh requests for
	// any coordinate whose neighborhood it just completed.
	PublishChunk(p voxel.Coord, chunk *voxel.Chunk)
	// PublishMesh stores a completed mesh for the controller to drain.
	PublishMesh(m voxel.Mesh)
}

// NumWorkers returns N = max(1, runtime.NumCPU() - 1). runtime.NumCPU counts
// logical CPUs, not physical cores.
func NumWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Pool runs the number of goroutines given to New (the controller passes
// NumWorkers()), each with its own Generator clone seeded identically for
// determinism (spec §9).
type Pool struct {
	source  JobSource
	gen     *noise.Generator
	workers int

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a pool of `workers` goroutines that have not yet started.
func New(workers int, source JobSource, gen *noise.Generator) *Pool {
	return &Pool{source: source, gen: gen, workers: workers}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.running.Store(true)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(p.gen.Clone())
	}
}

// Shutdown flips the running flag, polled at each worker's loop top, and
// joins all workers. Chunks/meshes already in flight complete and publish;
// publications into a window that no longer contains their coordinate are
// silently dropped by the caches themselves (spec §5's cancellation model).
func (p *Pool) Shutdown() {
	p.running.Store(false)
	p.wg.Wait()
}

func (p *Pool) run(gen *noise.Generator) {
	defer p.wg.Done()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for p.running.Load() {
		if p.step(gen) {
			continue
		}
		lo, hi := config.GetWorkerSleepRange()
		time.Sleep(sleepDuration(rng, lo, hi))
	}
}

// step runs one iteration of the worker loop (spec §4.4 steps 1-2). Returns
// true if it performed work, so the caller can skip the idle sleep.
func (p *Pool) step(gen *noise.Generator) bool {
	defer func() {
		if r := recover(); r != nil {
			// Per spec §7 kind 3: job failure is not individually
			// recoverable — the job space is pure arithmetic on owned
			// data, so a panic here means a real bug. Log and re-panic;
			// nothing recovers it in the worker goroutine, so it aborts
			// the process at once, not at Shutdown.
			log.Printf("workerpool: worker panic: %v", r)
			panic(r)
		}
	}()

	if req, ok := p.source.NextMeshRequest(); ok {
		m := mesher.Mesh(req.Center, req.Sides)
		m.Coord = req.Coord
		p.source.PublishMesh(m)
		return true
	}

	if coord, ok := p.source.NextChunkCoord(); ok {
		chunk := gen.GetChunk(coord)
		p.source.PublishChunk(coord, chunk)
		return true
	}

	return false
}

func sleepDuration(rng *rand.Rand, minMS, maxMS int) time.Duration {
	if maxMS <= minMS {
		return time.Duration(minMS) * time.Millisecond
	}
	span := maxMS - minMS
	return time.Duration(minMS+rng.Intn(span)) * time.Millisecond
}
