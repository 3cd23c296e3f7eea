// Package noise implements deterministic, seedable chunk synthesis
// (component H). It replaces the teacher's hand-rolled value-noise lattice
// (internal/world/noise.go in the teacher repo) with github.com/ojrac/opensimplex-go,
// the noise library the rest of the retrieval pack's voxel engines use
// (edw0rd21-voxel-game-go, icexin-gocraft) — see SPEC_FULL.md's DOMAIN STACK
// section.
package noise

import (
	"math"

	"terrainstream/internal/voxel"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Generator synthesizes chunks from a seeded noise field. It holds no
// mutable state once constructed, so a value (not a pointer) can be cloned
// into each worker at spawn for per-worker determinism, per spec §9.
type Generator struct {
	noise opensimplex.Noise

	scale       float64
	baseHeight  int
	amplitude   float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// New builds a Generator seeded with seed. Two Generators built from the
// same seed produce byte-identical chunks for the same coordinate (spec P5's
// determinism requirement extends to H, since the mesher's purity is only
// useful if its inputs are themselves reproducible).
func New(seed int64) *Generator {
	return &Generator{
		noise:       opensimplex.NewNormalized(seed),
		scale:       1.0 / 96.0,
		baseHeight:  64,
		amplitude:   48,
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

// Clone returns an independent copy sharing this Generator's parameters and
// seed — the noise field itself is stateless per-call, so a shallow copy is
// sufficient and avoids re-seeding.
func (g *Generator) Clone() *Generator {
	cp := *g
	return &cp
}

// HeightAt computes the world surface height (voxel Y) at world (x,z).
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := g.octaveNoise(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	height := float64(g.baseHeight) + (n*2-1)*g.amplitude
	if height < 0 {
		height = 0
	}
	if height > voxel.MapHeight-1 {
		height = voxel.MapHeight - 1
	}
	return int(math.Floor(height))
}

func (g *Generator) octaveNoise(x, z float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < g.octaves; i++ {
		sum += g.noise.Eval2(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= g.persistence
		frequency *= g.lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// GetChunk synthesizes a full chunk at coord: a heightmap column fill plus a
// per-column biome color, matching the teacher's PopulateChunk shape
// (internal/world/generator.go) but over the voxel.Category taxonomy this
// module's mesher understands.
func (g *Generator) GetChunk(coord voxel.Coord) *voxel.Chunk {
	chunk := voxel.NewChunk(coord)

	for lx := 0; lx < voxel.ChunkSizeX; lx++ {
		for lz := 0; lz < voxel.ChunkSizeZ; lz++ {
			worldX := coord.X*voxel.ChunkSizeX + lx
			worldZ := coord.Z*voxel.ChunkSizeZ + lz
			top := g.HeightAt(worldX, worldZ)

			for y := 0; y < top; y++ {
				chunk.Set(lx, y, lz, voxel.Voxel{Category: voxel.Solid, BlockID: blockStone})
			}
			chunk.Set(lx, top, lz, voxel.Voxel{Category: voxel.Solid, BlockID: blockGrass})

			chunk.SetBiome(lx, lz, g.biomeColorAt(worldX, worldZ))
		}
	}

	return chunk
}

// Block IDs the generator assigns; the renderer's texture/atlas table is
// out of scope, so these are arbitrary stable indices the mesher passes
// through unchanged.
const (
	blockStone uint16 = 1
	blockGrass uint16 = 2
)

// biomeColorAt derives a slowly-varying green tint from a second, lower
// frequency noise sample so FilteredSolid faces (e.g. a grass-colored
// filter overlay) get spatial variation without a separate biome map.
func (g *Generator) biomeColorAt(worldX, worldZ int) voxel.BiomeColor {
	n := g.noise.Eval2(float64(worldX)*g.scale*0.2+1000, float64(worldZ)*g.scale*0.2+1000)
	n = (n + 1) / 2
	return voxel.BiomeColor{
		R: float32(0.35 + 0.25*n),
		G: float32(0.55 + 0.35*n),
		B: float32(0.25 + 0.15*n),
		A: 1,
	}
}
