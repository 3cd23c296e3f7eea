package streaming

import (
	"math"
	"testing"

	"terrainstream/internal/buffercache"
	"terrainstream/internal/config"
	"terrainstream/internal/mapcache"
	"terrainstream/internal/meshqueue"
	"terrainstream/internal/voxel"
	"terrainstream/internal/window"

	"github.com/go-gl/mathgl/mgl32"
)

// newTestController builds a Controller without starting its worker pool, so
// tests can drive the map/buffer caches deterministically instead of racing
// background goroutines.
func newTestController(d int, eye mgl32.Vec3) *Controller {
	win := window.New(d, mgl32.Vec2{eye.X(), eye.Z()})
	return &Controller{
		win:   win,
		cache: mapcache.New(win),
		bufs:  buffercache.New(win),
		queue: meshqueue.New(256, 256),
	}
}

func trivialUpload(m voxel.Mesh) (opaque, translucent []buffercache.DrawArgs) {
	return []buffercache.DrawArgs{{VertexBuffer: uint32(m.Coord.X)}}, nil
}

func populateWholeWindow(ctl *Controller) {
	for _, p := range ctl.win.CoordsByDistance() {
		ctl.cache.Publish(p, voxel.NewChunk(p))
	}
	ctl.bufs.Drain(coordsToMeshes(ctl.win.CoordsByDistance()), trivialUpload)
}

func coordsToMeshes(coords []voxel.Coord) []voxel.Mesh {
	meshes := make([]voxel.Mesh, len(coords))
	for i, c := range coords {
		meshes[i] = voxel.Mesh{Coord: c}
	}
	return meshes
}

func TestSetCacheDistanceResetsOnChange(t *testing.T) {
	ctl := newTestController(3, mgl32.Vec3{0, 0, 0})
	populateWholeWindow(ctl)

	ctl.SetCacheDistance(5)

	if len(ctl.GetAvailable()) != 0 {
		t.Errorf("buffer cache not reset after SetCacheDistance changed D")
	}
	if ctl.cache.Has(voxel.Coord{}) {
		t.Errorf("map cache not reset after SetCacheDistance changed D")
	}
}

func TestSetCacheDistanceNoopWhenUnchanged(t *testing.T) {
	ctl := newTestController(3, mgl32.Vec3{0, 0, 0})
	populateWholeWindow(ctl)

	ctl.SetCacheDistance(3)

	if len(ctl.GetAvailable()) == 0 {
		t.Errorf("SetCacheDistance with the same D reset the caches; it shouldn't")
	}
}

func TestSetEyeSmallStepLeavesOnlyInWindowCells(t *testing.T) {
	ctl := newTestController(4, mgl32.Vec3{0, 64, 0})
	populateWholeWindow(ctl)
	before := len(ctl.GetAvailable())

	ctl.SetEye(mgl32.Vec3{16, 64, 0}) // exactly one chunk to the right

	after := len(ctl.GetAvailable())
	if after >= before {
		t.Fatalf("expected cells evicted after a one-chunk eye move: before=%d after=%d", before, after)
	}
	// Still a well-formed window: every remaining populated cell must be
	// inside the new window.
	for _, a := range ctl.GetAvailable() {
		if !ctl.win.Contains(a.Coord) {
			t.Errorf("populated cell %v left outside the window after SetEye", a.Coord)
		}
	}
}

func TestSetEyeTeleportFullyResets(t *testing.T) {
	ctl := newTestController(3, mgl32.Vec3{0, 64, 0})
	populateWholeWindow(ctl)

	ctl.SetEye(mgl32.Vec3{16 * 10000, 64, 0})

	if len(ctl.GetAvailable()) != 0 {
		t.Errorf("expected a full reset after a teleport, got %d populated cells", len(ctl.GetAvailable()))
	}
}

func TestSetEyeNoMovementEvictsNothing(t *testing.T) {
	ctl := newTestController(4, mgl32.Vec3{0, 64, 0})
	populateWholeWindow(ctl)
	before := len(ctl.GetAvailable())

	ctl.SetEye(mgl32.Vec3{0, 64, 0})

	if after := len(ctl.GetAvailable()); after != before {
		t.Errorf("SetEye with an unchanged position evicted cells: before=%d after=%d", before, after)
	}
}

func TestDrainUploadsCompletedMeshes(t *testing.T) {
	ctl := newTestController(2, mgl32.Vec3{0, 0, 0})
	ctl.queue.PushMesh(voxel.Mesh{Coord: voxel.Coord{X: 0, Z: 0}})

	ctl.Drain(trivialUpload)

	opaque, _, ok := ctl.bufs.Get(voxel.Coord{X: 0, Z: 0})
	if !ok || len(opaque) != 1 {
		t.Fatalf("Drain did not store the uploaded mesh: ok=%v opaque=%v", ok, opaque)
	}
}

func TestPublishChunkEnqueuesMeshJobWhenNeighborhoodCompletes(t *testing.T) {
	ctl := newTestController(3, mgl32.Vec3{0, 0, 0})
	center := voxel.Coord{X: 0, Z: 0}
	for _, n := range []voxel.Coord{center.Add(1, 0), center.Add(-1, 0), center.Add(0, 1), center.Add(0, -1)} {
		ctl.PublishChunk(n, voxel.NewChunk(n))
	}
	if _, ok := ctl.NextMeshRequest(); ok {
		t.Fatalf("a mesh job was enqueued before the center chunk published")
	}

	ctl.PublishChunk(center, voxel.NewChunk(center))

	req, ok := ctl.NextMeshRequest()
	if !ok {
		t.Fatalf("expected a mesh job once the 5-neighborhood completed")
	}
	if req.Coord != center {
		t.Errorf("mesh job coord = %v, want %v", req.Coord, center)
	}
}

func TestTickFogEasesTowardTargetAtConfiguredRate(t *testing.T) {
	ctl := newTestController(20, mgl32.Vec3{0, 0, 0})
	ctl.bufs.Drain([]voxel.Mesh{{Coord: voxel.Coord{X: 12, Z: 16}}}, trivialUpload) // dist 20
	ctl.fogCurrent = 6

	rate := config.GetFogEaseRate()
	got := ctl.TickFog(1.0)
	want := 6 + rate*1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TickFog = %v, want %v", got, want)
	}
}

func TestTickFogNeverOvershootsTarget(t *testing.T) {
	ctl := newTestController(10, mgl32.Vec3{0, 0, 0})
	ctl.bufs.Drain([]voxel.Mesh{{Coord: voxel.Coord{X: 1, Z: 0}}}, trivialUpload) // dist 1 -> target floor 6
	ctl.fogCurrent = 1
	got := ctl.TickFog(100.0) // a huge dt should clamp at the target, not overshoot
	if got != minFogDistance {
		t.Errorf("TickFog overshot: got %v, want %v", got, minFogDistance)
	}
}
