// Package mapcache holds voxel chunks for positions inside the window and
// tracks which coordinates are in flight. It is the teacher's ChunkStore +
// ChunkStreamer.pending fused into one lock, because the spec's claim_next
// contract (mark_loading and the coordinate scan must be atomic together)
// needs both pieces of state under the same mutex.
package mapcache

import (
	"sync"

	"terrainstream/internal/voxel"
	"terrainstream/internal/window"

	"github.com/go-gl/mathgl/mgl32"
)

// Cache is the map cache (component B). All operations acquire a single
// mutex: workers call ClaimNext -> generate -> Publish; the controller calls
// Get/Evict during SetEye.
type Cache struct {
	mu      sync.Mutex
	win     *window.Index
	chunks  map[voxel.Coord]*voxel.Chunk
	loading map[voxel.Coord]struct{}
}

// New creates a map cache sharing the given window index. The window's
// lifetime must be at least as long as the cache's; the controller owns
// both and updates them together.
func New(win *window.Index) *Cache {
	return &Cache{
		win:     win,
		chunks:  make(map[voxel.Coord]*voxel.Chunk),
		loading: make(map[voxel.Coord]struct{}),
	}
}

// Get returns the chunk at p, or nil if p is out of window or not yet
// generated. Out-of-window reads are not an error (spec §7 kind 1).
func (c *Cache) Get(p voxel.Coord) *voxel.Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.win.Contains(p) {
		return nil
	}
	return c.chunks[p]
}

// Has reports whether p currently holds a published chunk.
func (c *Cache) Has(p voxel.Coord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.chunks[p]
	return ok
}

// Publish stores chunk at p and clears its in-flight marker. A publish for a
// coordinate that has since left the window is silently dropped (spec §7
// kind 1 — this is how late worker results after an eye teleport vanish).
// Returns the coordinates among p and its four axis-neighbors whose own
// 5-neighborhood just became complete. The completeness scan runs under
// this lock, so each coordinate is reported by exactly one Publish call;
// the lock is released before Publish returns, so the caller snapshots and
// enqueues the mesh jobs after it, not inside the same critical section.
func (c *Cache) Publish(p voxel.Coord, chunk *voxel.Chunk) []voxel.Coord {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.loading, p)
	if !c.win.Contains(p) {
		return nil
	}
	c.chunks[p] = chunk

	var ready []voxel.Coord
	ns := neighbors4(p)
	for _, q := range append([]voxel.Coord{p}, ns[:]...) {
		if c.win.Contains(q) && c.neighborhoodCompleteLocked(q) {
			ready = append(ready, q)
		}
	}
	return ready
}

// neighborhoodCompleteLocked reports whether q and all four of its
// axis-neighbors are currently published. Caller must hold c.mu.
func (c *Cache) neighborhoodCompleteLocked(q voxel.Coord) bool {
	if _, ok := c.chunks[q]; !ok {
		return false
	}
	for _, n := range neighbors4(q) {
		if _, ok := c.chunks[n]; !ok {
			return false
		}
	}
	return true
}

// Neighborhood returns q and its four axis-neighbors as a [5]*Chunk in the
// fixed order {center, +x, -x, +z, -z}, or ok=false if any is currently
// absent. Used by the worker pool to snapshot the inputs to a mesh job
// under the map lock, so the mesher's inputs are the "then-current
// published state" the spec's P3 requires.
func (c *Cache) Neighborhood(q voxel.Coord) (center *voxel.Chunk, sides [4]*voxel.Chunk, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	center, ok = c.chunks[q]
	if !ok {
		return nil, sides, false
	}
	ns := neighbors4(q)
	for i, n := range ns {
		ch, present := c.chunks[n]
		if !present {
			return nil, sides, false
		}
		sides[i] = ch
	}
	return center, sides, true
}

// MarkLoading idempotently claims p for generation. Returns false if p was
// already claimed (by this or a prior call) and not yet published.
func (c *Cache) MarkLoading(p voxel.Coord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.loading[p]; ok {
		return false
	}
	c.loading[p] = struct{}{}
	return true
}

// ClaimNext scans the window's coordinate list in ascending distance from
// center and atomically claims the first coordinate that is absent, not
// loading, and in-window. Returns ok=false if nothing is claimable.
func (c *Cache) ClaimNext() (voxel.Coord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.win.CoordsByDistance() {
		if _, loading := c.loading[p]; loading {
			continue
		}
		if _, present := c.chunks[p]; present {
			continue
		}
		c.loading[p] = struct{}{}
		return p, true
	}
	return voxel.Coord{}, false
}

// EvictSlab removes every chunk whose coordinate equals value on the given
// axis — the "newly vacated edge" plane from spec §4.6 step 2. Returns the
// count removed.
func (c *Cache) EvictSlab(axis window.Axis, value int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for p := range c.chunks {
		coord := p.X
		if axis == window.AxisZ {
			coord = p.Z
		}
		if coord == value {
			delete(c.chunks, p)
			delete(c.loading, p)
			n++
		}
	}
	return n
}

// Reset clears all chunks and in-flight markers (full reset on teleport or
// cache-distance change).
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks = make(map[voxel.Coord]*voxel.Chunk)
	c.loading = make(map[voxel.Coord]struct{})
}

// SetEye recomputes the shared window's center and hysteresis bits under
// this cache's lock. The window has no lock of its own (see its doc
// comment) and is read by ClaimNext/Publish from worker
// goroutines, so every mutation must be serialized through the same mutex
// those reads take — routing it here instead of letting the controller call
// window.Index.SetEye directly is what makes that safe.
func (c *Cache) SetEye(eye mgl32.Vec2) window.EyeDelta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.SetEye(eye)
}

// SetDistance resizes the shared window under this cache's lock, for the
// same reason SetEye does. Callers must still Reset both caches afterward
// (spec §4.6 step 1).
func (c *Cache) SetDistance(d int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win.SetDistance(d)
}

// WindowCenter returns the shared window's current center under this
// cache's lock.
func (c *Cache) WindowCenter() voxel.Coord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.Center()
}

func neighbors4(p voxel.Coord) [4]voxel.Coord {
	return [4]voxel.Coord{
		p.Add(1, 0),
		p.Add(-1, 0),
		p.Add(0, 1),
		p.Add(0, -1),
	}
}
