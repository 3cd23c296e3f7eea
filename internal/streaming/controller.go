// Package streaming wires the map cache, mesh queue, buffer cache, and
// worker pool into the per-frame driver (component G), grounded on the
// teacher's cmd/mini-mc/game_loop.go tick/profiling structure — the same
// profiling.Track bracket pattern, the same "compute this frame's signal,
// hand it to the caller" shape — generalized from a render loop to a
// headless streaming loop.
package streaming

import (
	"math"

	"terrainstream/internal/buffercache"
	"terrainstream/internal/config"
	"terrainstream/internal/mapcache"
	"terrainstream/internal/meshqueue"
	"terrainstream/internal/noise"
	"terrainstream/internal/profiling"
	"terrainstream/internal/voxel"
	"terrainstream/internal/window"
	"terrainstream/internal/workerpool"

	"github.com/go-gl/mathgl/mgl32"
)

// minFogDistance is the floor fog never eases below, per spec §4.6 step 4.
const minFogDistance = 6

// Controller is the streaming controller (component G). Its methods are
// called from a single thread (the render/sim loop), except the
// workerpool.JobSource methods, which the worker goroutines call; those
// touch only the map cache and mesh queue, which synchronize themselves, so
// no additional locking lives here (spec §5).
type Controller struct {
	win   *window.Index
	cache *mapcache.Cache
	bufs  *buffercache.Cache
	queue *meshqueue.Queue
	pool  *workerpool.Pool

	fogCurrent float64
}

// Init builds the window, caches, mesh queue, and worker pool for a given
// cache distance, starting eye position, and world seed, and starts the
// workers. Mirrors the teacher's NewGameLoop/world-construction split: the
// controller owns every piece the workers need and nothing else does.
func Init(cacheDistance int, eye mgl32.Vec3, seed int64) *Controller {
	win := window.New(cacheDistance, mgl32.Vec2{eye.X(), eye.Z()})

	ctl := &Controller{
		win:        win,
		cache:      mapcache.New(win),
		bufs:       buffercache.New(win),
		queue:      meshqueue.New(queueCapacity(cacheDistance), queueCapacity(cacheDistance)),
		fogCurrent: minFogDistance,
	}

	gen := noise.New(seed)
	ctl.pool = workerpool.New(workerpool.NumWorkers(), ctl, gen)
	ctl.pool.Start()

	return ctl
}

// queueCapacity sizes the mesh-request/mesh-result channels to the window's
// cell count, so a full refill after a reset or resize never drops work
// purely for lack of buffer space.
func queueCapacity(cacheDistance int) int {
	n := cacheDistance*cacheDistance*4 + 64
	return n
}

// Shutdown joins every worker before releasing cache memory, per spec §5's
// teardown ordering.
func (c *Controller) Shutdown() {
	c.pool.Shutdown()
}

// --- workerpool.JobSource -------------------------------------------------

// NextMeshRequest implements workerpool.JobSource.
func (c *Controller) NextMeshRequest() (meshqueue.Request, bool) {
	return c.queue.TryDequeueRequest()
}

// NextChunkCoord implements workerpool.JobSource.
func (c *Controller) NextChunkCoord() (voxel.Coord, bool) {
	return c.cache.ClaimNext()
}

// PublishChunk implements workerpool.JobSource. It publishes the chunk and,
// for every neighbor the publish just completed, snapshots that neighbor's
// 5-neighborhood and enqueues a mesh request, so the worker pool never has
// to know about mesh requests directly. The snapshot and the enqueue run
// after Publish has released the map cache's lock, not inside it.
func (c *Controller) PublishChunk(p voxel.Coord, chunk *voxel.Chunk) {
	ready := c.cache.Publish(p, chunk)
	for _, q := range ready {
		center, sides, ok := c.cache.Neighborhood(q)
		if !ok {
			// A neighbor left the window again between the publish scan
			// and this snapshot; nothing to mesh (spec §7 kind 1).
			continue
		}
		c.queue.TryEnqueueRequest(meshqueue.Request{Coord: q, Center: center, Sides: sides})
	}
}

// PublishMesh implements workerpool.JobSource.
func (c *Controller) PublishMesh(m voxel.Mesh) {
	c.queue.PushMesh(m)
}

// --- per-frame driver ------------------------------------------------------

// SetCacheDistance resizes the window. Per spec §4.6 step 1, a distance
// change invalidates both caches' storage outright; "resize without reset"
// is left as future work (see design notes).
func (c *Controller) SetCacheDistance(d int) {
	defer profiling.Track("streaming.SetCacheDistance")()
	if d == c.win.Distance() {
		return
	}
	c.cache.SetDistance(d)
	c.cache.Reset()
	c.bufs.Reset()
}

// SetEye recomputes the window for a new eye position and evicts exactly
// the edge slab(s) that fell out of range, or performs a full reset on a
// teleport/large jump (spec §4.6 step 2).
func (c *Controller) SetEye(eye mgl32.Vec3) {
	defer profiling.Track("streaming.SetEye")()

	oldMinX, oldMaxX := c.win.Bounds(window.AxisX)
	oldMinZ, oldMaxZ := c.win.Bounds(window.AxisZ)

	delta := c.cache.SetEye(mgl32.Vec2{eye.X(), eye.Z()})

	if !axisDeltaInRange(delta.X) || !axisDeltaInRange(delta.Z) {
		c.cache.Reset()
		c.bufs.Reset()
		return
	}

	c.evictAxis(window.AxisX, delta.X, oldMinX, oldMaxX)
	c.evictAxis(window.AxisZ, delta.Z, oldMinZ, oldMaxZ)
}

func axisDeltaInRange(d int) bool {
	return d >= -1 && d <= 1
}

// evictAxis removes the slab that fell out of the window on one axis. A
// min-edge delta of +1 means the low edge advanced, vacating the old
// minimum; -1 means the window retreated, vacating the old maximum — the
// ring's span is constant (max - min is always 2D+1, so both edges move
// together), so exactly one of those ever happens per step.
func (c *Controller) evictAxis(axis window.Axis, delta, oldMin, oldMax int) {
	switch delta {
	case 0:
		return
	case 1:
		c.cache.EvictSlab(axis, oldMin)
		c.bufs.EvictSlab(axis, oldMin)
	case -1:
		c.cache.EvictSlab(axis, oldMax)
		c.bufs.EvictSlab(axis, oldMax)
	}
}

// Drain pops every completed mesh and uploads it via the caller-supplied
// closure, storing the resulting draw args in the buffer cache.
func (c *Controller) Drain(upload buffercache.UploadFunc) {
	defer profiling.Track("streaming.Drain")()
	meshes := c.queue.DrainMeshes()
	c.bufs.Drain(meshes, upload)
}

// GetAvailable returns the renderer's per-frame draw list, nearest-first.
func (c *Controller) GetAvailable() []buffercache.Available {
	return c.bufs.GetAvailable()
}

// TickFog eases the fog distance toward max(6, farthest_distance) at
// config.GetFogEaseRate() units/second and returns the new current value
// (spec §4.6 step 4, example in §8 scenario 6).
func (c *Controller) TickFog(dt float64) float64 {
	defer profiling.Track("streaming.TickFog")()

	target := math.Max(minFogDistance, c.bufs.FarthestDistance())
	step := config.GetFogEaseRate() * dt

	switch {
	case c.fogCurrent < target:
		c.fogCurrent = math.Min(target, c.fogCurrent+step)
	case c.fogCurrent > target:
		c.fogCurrent = math.Max(target, c.fogCurrent-step)
	}
	return c.fogCurrent
}

// GetFarthestDistance returns the raw (uneased) farthest populated radius,
// for callers that want the signal itself rather than the fog curve.
func (c *Controller) GetFarthestDistance() float64 {
	return c.bufs.FarthestDistance()
}
