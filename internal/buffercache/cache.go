// Package buffercache holds GPU-ready draw-call arguments keyed by window
// position and tracks the farthest populated radius, which drives fog
// distance (component E). Owned solely by the streaming controller — no
// locking, per spec §5 — and shares the map cache's window index, so both
// caches agree on which coordinates are inside the window.
package buffercache

import (
	"terrainstream/internal/voxel"
	"terrainstream/internal/window"
)

// DrawArgs is the renderer-produced GPU handle set for one (opaque or
// translucent) vertex/index-pair list. The core never interprets its
// contents beyond storing and handing it back.
type DrawArgs struct {
	VertexBuffer uint32
	IndexBuffer  uint32
	IndexCount   int32
}

type entry struct {
	opaque      []DrawArgs
	translucent []DrawArgs
}

// UploadFunc converts a completed Mesh into GPU draw-call arguments. Must be
// idempotent given identical input (spec §6); invoked only from Drain, which
// runs on the controller's thread.
type UploadFunc func(voxel.Mesh) (opaque, translucent []DrawArgs)

// Cache is the buffer cache (component E).
type Cache struct {
	win            *window.Index
	cells          map[voxel.Coord]entry
	farthestDistSq int
}

// New creates a buffer cache sharing the given window index.
func New(win *window.Index) *Cache {
	return &Cache{
		win:   win,
		cells: make(map[voxel.Coord]entry),
	}
}

// Drain runs upload on each mesh in meshes whose coordinate is inside the
// window, stores the result at the mesh's coordinate, and updates the
// farthest-populated-distance signal.
func (c *Cache) Drain(meshes []voxel.Mesh, upload UploadFunc) {
	for _, m := range meshes {
		if !c.win.Contains(m.Coord) {
			// The cell left the window between mesh-issue and drain
			// (eye moved); the stale result is dropped, per spec §7
			// kind 1.
			continue
		}
		opaque, translucent := upload(m)
		c.cells[m.Coord] = entry{opaque: opaque, translucent: translucent}

		d := m.Coord.DistSq(c.win.Center())
		if d > c.farthestDistSq {
			c.farthestDistSq = d
		}
	}
}

// Get returns the draw args at p, or ok=false if p is not currently
// populated.
func (c *Cache) Get(p voxel.Coord) (opaque, translucent []DrawArgs, ok bool) {
	e, present := c.cells[p]
	if !present {
		return nil, nil, false
	}
	return e.opaque, e.translucent, true
}

// Available is one populated cell, yielded by GetAvailable.
type Available struct {
	Coord       voxel.Coord
	Opaque      []DrawArgs
	Translucent []DrawArgs
}

// GetAvailable iterates the window's distance-sorted coordinate list and
// returns every cell currently populated, nearest-first — the renderer's
// per-frame draw list.
func (c *Cache) GetAvailable() []Available {
	var out []Available
	for _, p := range c.win.CoordsByDistance() {
		e, ok := c.cells[p]
		if !ok {
			continue
		}
		out = append(out, Available{Coord: p, Opaque: e.opaque, Translucent: e.translucent})
	}
	return out
}

// EvictSlab removes every populated cell whose coordinate equals value on
// the given axis, mirroring mapcache.Cache.EvictSlab so the two caches stay
// in lockstep (spec invariant 5).
func (c *Cache) EvictSlab(axis window.Axis, value int) int {
	n := 0
	for p := range c.cells {
		coord := p.X
		if axis == window.AxisZ {
			coord = p.Z
		}
		if coord == value {
			delete(c.cells, p)
			n++
		}
	}
	return n
}

// Reset clears every populated cell and the farthest-distance signal (full
// reset on teleport or cache-distance change).
func (c *Cache) Reset() {
	c.cells = make(map[voxel.Coord]entry)
	c.farthestDistSq = 0
}

// FarthestDistance returns floor(sqrt(farthest_distance_sq)), the signal
// that drives fog distance (spec §4.5).
func (c *Cache) FarthestDistance() float64 {
	return isqrtFloor(c.farthestDistSq)
}
