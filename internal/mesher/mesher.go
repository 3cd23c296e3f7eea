// Package mesher implements the mesher (component C): a pure function from a
// chunk plus its four axis-neighbors to an opaque+translucent mesh. It is a
// per-voxel face-culling mesher rather than the teacher's greedy mesher
// (internal/meshing/greedy.go in the teacher repo) because the category
// table includes cross-quads, offset planes, and inset faces that have no
// well-defined greedy run — see SPEC_FULL.md §4.3.
package mesher

import (
	"terrainstream/internal/config"
	"terrainstream/internal/voxel"
)

// neighborSet is the fixed 5-neighborhood order the map cache hands back:
// {center, +x, -x, +z, -z}.
type neighborSet struct {
	center       *voxel.Chunk
	east, west   *voxel.Chunk
	north, south *voxel.Chunk
}

// Mesh builds the mesh for center given its four axis-neighbor chunks, in
// the order {+x, -x, +z, -z} (matching mapcache.Cache.Neighborhood's sides
// output). It is a pure function of its five inputs: identical inputs
// produce byte-identical output (spec P5).
func Mesh(center *voxel.Chunk, sides [4]*voxel.Chunk) voxel.Mesh {
	ns := neighborSet{
		center: center,
		east:   sides[0],
		west:   sides[1],
		north:  sides[2],
		south:  sides[3],
	}

	b := newBuilder(center.Coord)

	for x := 0; x < voxel.ChunkSizeX; x++ {
		for y := 0; y < voxel.MapHeight; y++ {
			for z := 0; z < voxel.ChunkSizeZ; z++ {
				v := center.At(x, y, z)
				if v.Category == voxel.Empty {
					continue
				}
				emitVoxel(&b, ns, x, y, z, v)
			}
		}
	}

	return b.finish(center.Coord)
}

// at looks up the voxel at local coordinates (x,y,z) relative to center,
// resolving chunk-boundary lookups through the appropriate neighbor. A
// vertical out-of-bounds lookup is always Air (spec §4.3).
func (ns neighborSet) at(x, y, z int) voxel.Voxel {
	if y < 0 || y >= voxel.MapHeight {
		return voxel.Air
	}
	switch {
	case x < 0:
		if ns.west == nil {
			return voxel.Air
		}
		return ns.west.At(x+voxel.ChunkSizeX, y, z)
	case x >= voxel.ChunkSizeX:
		if ns.east == nil {
			return voxel.Air
		}
		return ns.east.At(x-voxel.ChunkSizeX, y, z)
	case z < 0:
		if ns.south == nil {
			return voxel.Air
		}
		return ns.south.At(x, y, z+voxel.ChunkSizeZ)
	case z >= voxel.ChunkSizeZ:
		if ns.north == nil {
			return voxel.Air
		}
		return ns.north.At(x, y, z-voxel.ChunkSizeZ)
	default:
		return ns.center.At(x, y, z)
	}
}

// hides reports whether a voxel of the given category hides the face of a
// neighboring voxel whose category is `self`, per the spec §4.3 table.
func hides(self, neighbor voxel.Category) bool {
	switch self {
	case voxel.Solid, voxel.FilteredSolid:
		return neighbor == voxel.Solid || neighbor == voxel.FilteredSolid
	case voxel.Translucent:
		return neighbor == voxel.Solid || neighbor == voxel.FilteredSolid || neighbor == voxel.Translucent
	default:
		// Plantlike and Harvestable are never face-culled by a neighbor.
		// CustomCactus is not passed here as self: emitCactus culls its
		// faces with the Solid rule.
		return false
	}
}

func emitVoxel(b *builder, ns neighborSet, x, y, z int, v voxel.Voxel) {
	switch v.Category {
	case voxel.Solid, voxel.FilteredSolid, voxel.Translucent:
		emitCulledFaces(b, ns, x, y, z, v)
	case voxel.Plantlike:
		emitPlantlike(b, x, y, z, v)
	case voxel.Harvestable:
		emitHarvestable(b, x, y, z, v)
	case voxel.CustomCactus:
		emitCactus(b, ns, x, y, z, v)
	}
}

var faceOrder = [6]voxel.Face{
	voxel.FaceEast, voxel.FaceWest, voxel.FaceUp, voxel.FaceDown, voxel.FaceNorth, voxel.FaceSouth,
}

func emitCulledFaces(b *builder, ns neighborSet, x, y, z int, v voxel.Voxel) {
	biome := ns.center.BiomeAt(x, z)
	translucent := v.Category == voxel.Translucent
	for _, face := range faceOrder {
		dx, dy, dz := face.Offset()
		neighbor := ns.at(x+dx, y+dy, z+dz)
		if hides(v.Category, neighbor.Category) {
			continue
		}
		quad := faceQuad(x, y, z, face)
		vertTint := voxel.BiomeColor{R: 1, G: 1, B: 1, A: 1}
		if v.Category == voxel.FilteredSolid {
			vertTint = biome
		}
		pair := b.pairFor(translucent, config.GetVertexSoftCap())
		b.emitQuadRaw(pair, quad, face, v.BlockID, vertTint)
	}
}

// emitPlantlike emits two diagonal cross-quads (8 vertices, 12 indices),
// never face-culled, into the translucent list.
func emitPlantlike(b *builder, x, y, z int, v voxel.Voxel) {
	fx, fy, fz := float32(x), float32(y), float32(z)
	white := voxel.BiomeColor{R: 1, G: 1, B: 1, A: 1}

	diag1 := [4][3]float32{
		{fx, fy, fz}, {fx + 1, fy, fz + 1}, {fx + 1, fy + 1, fz + 1}, {fx, fy + 1, fz},
	}
	diag2 := [4][3]float32{
		{fx + 1, fy, fz}, {fx, fy, fz + 1}, {fx, fy + 1, fz + 1}, {fx + 1, fy + 1, fz},
	}
	b.emitQuadRaw(b.pairFor(true, config.GetVertexSoftCap()), diag1, voxel.FaceUp, v.BlockID, white)
	b.emitQuadRaw(b.pairFor(true, config.GetVertexSoftCap()), diag2, voxel.FaceUp, v.BlockID, white)
}

// emitHarvestable emits four offset planes at x=1/4,3/4 and z=1/4,3/4, never
// face-culled, into the translucent list.
func emitHarvestable(b *builder, x, y, z int, v voxel.Voxel) {
	fx, fy, fz := float32(x), float32(y), float32(z)
	white := voxel.BiomeColor{R: 1, G: 1, B: 1, A: 1}

	offsets := []float32{0.25, 0.75}
	for _, ox := range offsets {
		plane := [4][3]float32{
			{fx + ox, fy, fz}, {fx + ox, fy, fz + 1}, {fx + ox, fy + 1, fz + 1}, {fx + ox, fy + 1, fz},
		}
		b.emitQuadRaw(b.pairFor(true, config.GetVertexSoftCap()), plane, voxel.FaceEast, v.BlockID, white)
	}
	for _, oz := range offsets {
		plane := [4][3]float32{
			{fx, fy, fz + oz}, {fx + 1, fy, fz + oz}, {fx + 1, fy + 1, fz + oz}, {fx, fy + 1, fz + oz},
		}
		b.emitQuadRaw(b.pairFor(true, config.GetVertexSoftCap()), plane, voxel.FaceNorth, v.BlockID, white)
	}
}

// emitCactus emits inset side faces at a 1/16 offset plus unmodified
// top/bottom faces. Every cactus face goes to the opaque list (the sides
// are solid, just inset); nothing is written to the translucent list.
func emitCactus(b *builder, ns neighborSet, x, y, z int, v voxel.Voxel) {
	const inset = 1.0 / 16.0
	white := voxel.BiomeColor{R: 1, G: 1, B: 1, A: 1}
	fx, fy, fz := float32(x), float32(y), float32(z)

	sideFaces := [4]voxel.Face{voxel.FaceEast, voxel.FaceWest, voxel.FaceNorth, voxel.FaceSouth}
	for _, face := range sideFaces {
		dx, dy, dz := face.Offset()
		neighbor := ns.at(x+dx, y+dy, z+dz)
		if hides(voxel.Solid, neighbor.Category) {
			continue
		}
		quad := insetFaceQuad(fx, fy, fz, face, inset)
		pair := b.pairFor(false, config.GetVertexSoftCap())
		b.emitQuadRaw(pair, quad, face, v.BlockID, white)
	}

	for _, face := range [2]voxel.Face{voxel.FaceUp, voxel.FaceDown} {
		dx, dy, dz := face.Offset()
		neighbor := ns.at(x+dx, y+dy, z+dz)
		if hides(voxel.Solid, neighbor.Category) {
			continue
		}
		quad := faceQuad(x, y, z, face)
		pair := b.pairFor(false, config.GetVertexSoftCap())
		b.emitQuadRaw(pair, quad, face, v.BlockID, white)
	}
}
