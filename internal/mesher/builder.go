package mesher

import "terrainstream/internal/voxel"

// builder accumulates opaque and translucent (vertex,index) pairs while
// meshing a single chunk, sealing a pair and starting a new one whenever the
// next quad would push its vertex count past the soft cap (spec §4.3's
// vertex budget) — this is what keeps every index u16-safe.
type builder struct {
	opaque      []voxel.VertexIndexPair
	translucent []voxel.VertexIndexPair
}

func newBuilder(_ voxel.Coord) builder {
	return builder{}
}

// pairFor returns a pointer to the list (opaque or translucent) the caller
// should append the next quad's 4 vertices to, sealing the current pair
// first if it would overflow the soft cap.
func (b *builder) pairFor(translucent bool, softCap int) *[]voxel.VertexIndexPair {
	list := &b.opaque
	if translucent {
		list = &b.translucent
	}
	if len(*list) == 0 || len((*list)[len(*list)-1].Vertices)+4 > softCap {
		*list = append(*list, voxel.VertexIndexPair{})
	}
	return list
}

// emitQuadRaw appends the given 4 corners (already in chunk-local float
// coordinates, CCW winding as seen from outside the face) as two triangles
// (4 vertices, 6 indices) to the pair's current entry.
func (b *builder) emitQuadRaw(list *[]voxel.VertexIndexPair, corners [4][3]float32, face voxel.Face, texID uint16, tint voxel.BiomeColor) {
	pair := &(*list)[len(*list)-1]
	base := uint16(len(pair.Vertices))

	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, c := range corners {
		pair.Vertices = append(pair.Vertices, voxel.Vertex{
			X: c[0], Y: c[1], Z: c[2],
			NormalFace: uint8(face),
			U:          uvs[i][0],
			V:          uvs[i][1],
			TexID:      texID,
			Biome:      tint,
		})
	}
	pair.Indices = append(pair.Indices,
		base+0, base+1, base+2,
		base+2, base+3, base+0,
	)
}

func (b *builder) finish(coord voxel.Coord) voxel.Mesh {
	return voxel.Mesh{
		Coord:       coord,
		Opaque:      b.opaque,
		Translucent: b.translucent,
	}
}

// faceQuad returns the 4 corners of the unit cube face `face` at local
// integer coordinates (x,y,z), wound CCW as seen from outside the face (the
// direction the normal points).
func faceQuad(x, y, z int, face voxel.Face) [4][3]float32 {
	fx, fy, fz := float32(x), float32(y), float32(z)
	switch face {
	case voxel.FaceEast: // +X
		return [4][3]float32{{fx + 1, fy, fz}, {fx + 1, fy, fz + 1}, {fx + 1, fy + 1, fz + 1}, {fx + 1, fy + 1, fz}}
	case voxel.FaceWest: // -X
		return [4][3]float32{{fx, fy, fz + 1}, {fx, fy, fz}, {fx, fy + 1, fz}, {fx, fy + 1, fz + 1}}
	case voxel.FaceUp: // +Y
		return [4][3]float32{{fx, fy + 1, fz}, {fx + 1, fy + 1, fz}, {fx + 1, fy + 1, fz + 1}, {fx, fy + 1, fz + 1}}
	case voxel.FaceDown: // -Y
		return [4][3]float32{{fx, fy, fz + 1}, {fx + 1, fy, fz + 1}, {fx + 1, fy, fz}, {fx, fy, fz}}
	case voxel.FaceNorth: // +Z
		return [4][3]float32{{fx + 1, fy, fz + 1}, {fx, fy, fz + 1}, {fx, fy + 1, fz + 1}, {fx + 1, fy + 1, fz + 1}}
	case voxel.FaceSouth: // -Z
		return [4][3]float32{{fx, fy, fz}, {fx + 1, fy, fz}, {fx + 1, fy + 1, fz}, {fx, fy + 1, fz}}
	}
	return [4][3]float32{}
}

// insetFaceQuad returns a side face quad inset by `inset` toward the
// block's center axis, used by the cactus category.
func insetFaceQuad(fx, fy, fz float32, face voxel.Face, inset float32) [4][3]float32 {
	switch face {
	case voxel.FaceEast:
		x := fx + 1 - inset
		return [4][3]float32{{x, fy, fz}, {x, fy, fz + 1}, {x, fy + 1, fz + 1}, {x, fy + 1, fz}}
	case voxel.FaceWest:
		x := fx + inset
		return [4][3]float32{{x, fy, fz + 1}, {x, fy, fz}, {x, fy + 1, fz}, {x, fy + 1, fz + 1}}
	case voxel.FaceNorth:
		z := fz + 1 - inset
		return [4][3]float32{{fx + 1, fy, z}, {fx, fy, z}, {fx, fy + 1, z}, {fx + 1, fy + 1, z}}
	case voxel.FaceSouth:
		z := fz + inset
		return [4][3]float32{{fx, fy, z}, {fx + 1, fy, z}, {fx + 1, fy + 1, z}, {fx, fy + 1, z}}
	}
	return [4][3]float32{}
}
