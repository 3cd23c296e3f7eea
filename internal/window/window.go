// Package window implements the toroidal sliding-window index shared by the
// map cache and buffer cache: it tracks a bounded square of
// chunk coordinates centered on the eye, with hysteresis on each axis so the
// window doesn't thrash back and forth across a chunk boundary.
package window

import (
	"math"
	"sort"

	"terrainstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Axis identifies one of the two horizontal axes.
type Axis int

const (
	AxisX Axis = iota
	AxisZ
)

// Index tracks the window's center, hysteresis bits, and cache distance.
//
// Not safe for concurrent use on its own. internal/mapcache serializes every
// mutation (SetEye, SetDistance) and its own reads through its mutex;
// internal/buffercache only reads it, from the controller's goroutine.
type Index struct {
	center Coord
	upperX bool
	upperZ bool

	distance int // D

	// byDistance is every offset with |p| <= D, sorted ascending by |p|^2.
	// Rebuilt only when distance changes.
	byDistance []voxel.Coord
}

// Coord is an alias kept local to avoid a second coordinate type; the
// window speaks the same (cx,cz) coordinates as the map/buffer caches.
type Coord = voxel.Coord

// New builds an Index for the given cache distance, centered at the chunk
// containing eye.
func New(cacheDistance int, eye mgl32.Vec2) *Index {
	idx := &Index{}
	idx.SetDistance(cacheDistance)
	idx.SetEye(eye)
	return idx
}

// SetDistance changes D and rebuilds the distance-sorted coordinate list.
// Callers must treat this as cache-invalidating: map/buffer caches must be
// reset (spec §4.6 step 1 — "resize without reset" is a documented future
// improvement, not implemented here).
func (idx *Index) SetDistance(d int) {
	idx.distance = d
	idx.byDistance = buildDistanceList(d)
}

// Distance returns D.
func (idx *Index) Distance() int { return idx.distance }

// Center returns the chunk coordinate containing the eye.
func (idx *Index) Center() Coord { return idx.center }

// CoordsByDistance returns, for every offset o with |o| <= D sorted
// ascending by |o|^2, the absolute coordinate center+o. Each call returns a
// newly allocated slice.
func (idx *Index) CoordsByDistance() []Coord {
	out := make([]Coord, len(idx.byDistance))
	for i, o := range idx.byDistance {
		out[i] = idx.center.Add(o.X, o.Z)
	}
	return out
}

// bounds returns [min,max] for axis a given the current center/upper bits.
func (idx *Index) bounds(a Axis) (min, max int) {
	d := idx.distance
	c := idx.center.X
	upper := idx.upperX
	if a == AxisZ {
		c = idx.center.Z
		upper = idx.upperZ
	}
	lo := 0
	if !upper {
		lo = 1
	}
	hi := 0
	if upper {
		hi = 1
	}
	return c - d - lo, c + d + hi
}

// Bounds exposes bounds(a) to callers outside the package — the streaming
// controller needs the pre- and post-SetEye edge values on an axis to decide
// which edge slab, if any, was vacated.
func (idx *Index) Bounds(a Axis) (min, max int) {
	return idx.bounds(a)
}

// Contains reports whether p is inside the current window on both axes.
func (idx *Index) Contains(p Coord) bool {
	minX, maxX := idx.bounds(AxisX)
	if p.X < minX || p.X > maxX {
		return false
	}
	minZ, maxZ := idx.bounds(AxisZ)
	if p.Z < minZ || p.Z > maxZ {
		return false
	}
	return true
}

// EyeDelta captures how the window's minimum edge moved on one axis after a
// SetEye call, used by the streaming controller to decide between
// incremental slab eviction and a full reset.
type EyeDelta struct {
	X, Z int
}

// SetEye recomputes center and the hysteresis bits for a new eye position
// (world-space X,Z) and returns the signed change in each axis's minimum
// window edge (old_min -> new_min). A delta outside {-1,0,1} on either axis
// signals a teleport to the caller.
func (idx *Index) SetEye(eye mgl32.Vec2) EyeDelta {
	oldMinX, _ := idx.bounds(AxisX)
	oldMinZ, _ := idx.bounds(AxisZ)

	cx, fx := chunkAndFrac(eye.X())
	cz, fz := chunkAndFrac(eye.Y())

	idx.upperX = hysteresis(idx.upperX, fx)
	idx.upperZ = hysteresis(idx.upperZ, fz)
	idx.center = Coord{X: cx, Z: cz}

	newMinX, _ := idx.bounds(AxisX)
	newMinZ, _ := idx.bounds(AxisZ)

	return EyeDelta{X: newMinX - oldMinX, Z: newMinZ - oldMinZ}
}

// hysteresis applies the 0.25/0.75 deadband: once upper, stays upper until
// frac drops below 0.25; once lower, stays lower until frac exceeds 0.75.
func hysteresis(wasUpper bool, frac float32) bool {
	if wasUpper {
		return frac > 0.25
	}
	return frac > 0.75
}

// chunkAndFrac splits a world coordinate into its containing chunk index and
// the fractional position within that chunk, both via floor division so
// negative coordinates behave correctly.
func chunkAndFrac(worldPos float32) (int, float32) {
	scaled := float64(worldPos) / float64(voxel.ChunkSizeX)
	c := int(math.Floor(scaled))
	frac := float32(scaled - math.Floor(scaled))
	return c, frac
}

// buildDistanceList enumerates every integer offset (ox,oz) with
// ox*ox+oz*oz <= d*d, sorted ascending by squared distance, matching
// ties in a deterministic (x then z) order so CoordsByDistance is stable
// across runs for property tests.
func buildDistanceList(d int) []voxel.Coord {
	var list []voxel.Coord
	for ox := -d; ox <= d; ox++ {
		for oz := -d; oz <= d; oz++ {
			if ox*ox+oz*oz <= d*d {
				list = append(list, voxel.Coord{X: ox, Z: oz})
			}
		}
	}
	sort.Slice(list, func(i, j int) bool {
		di := list[i].X*list[i].X + list[i].Z*list[i].Z
		dj := list[j].X*list[j].X + list[j].Z*list[j].Z
		if di != dj {
			return di < dj
		}
		if list[i].X != list[j].X {
			return list[i].X < list[j].X
		}
		return list[i].Z < list[j].Z
	})
	return list
}
