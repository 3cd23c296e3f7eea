package mapcache

import (
	"sync"
	"testing"

	"terrainstream/internal/voxel"
	"terrainstream/internal/window"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestCache(d int) *Cache {
	win := window.New(d, mgl32.Vec2{0, 0})
	return New(win)
}

func TestGetOutOfWindowReturnsNil(t *testing.T) {
	c := newTestCache(2)
	far := voxel.Coord{X: 1000, Z: 1000}
	if got := c.Get(far); got != nil {
		t.Errorf("Get(far) = %v, want nil", got)
	}
}

func TestPublishThenGet(t *testing.T) {
	c := newTestCache(2)
	p := voxel.Coord{X: 0, Z: 0}
	ch := voxel.NewChunk(p)
	c.Publish(p, ch)
	if got := c.Get(p); got != ch {
		t.Errorf("Get after Publish = %v, want %v", got, ch)
	}
	if !c.Has(p) {
		t.Errorf("Has(p) = false after Publish")
	}
}

func TestPublishOutOfWindowIsDropped(t *testing.T) {
	c := newTestCache(2)
	far := voxel.Coord{X: 1000, Z: 1000}
	c.Publish(far, voxel.NewChunk(far))
	if c.Has(far) {
		t.Errorf("Has(far) = true; publish outside the window should be dropped")
	}
}

func TestNeighborhoodCompletePublishesReady(t *testing.T) {
	c := newTestCache(2)
	center := voxel.Coord{X: 0, Z: 0}
	neighbors := []voxel.Coord{
		center.Add(1, 0), center.Add(-1, 0), center.Add(0, 1), center.Add(0, -1),
	}
	for _, n := range neighbors {
		if ready := c.Publish(n, voxel.NewChunk(n)); len(ready) != 0 {
			t.Errorf("Publish(%v) unexpectedly reported ready: %v", n, ready)
		}
	}
	// Publishing the center should now report itself as ready, since all
	// four of its neighbors are already present.
	ready := c.Publish(center, voxel.NewChunk(center))
	if len(ready) != 1 || ready[0] != center {
		t.Errorf("Publish(center) ready = %v, want [%v]", ready, center)
	}

	got, sides, ok := c.Neighborhood(center)
	if !ok {
		t.Fatalf("Neighborhood(center) ok = false")
	}
	if got.Coord != center {
		t.Errorf("Neighborhood center coord = %v, want %v", got.Coord, center)
	}
	wantOrder := neighbors // {+x, -x, +z, -z}
	for i, side := range sides {
		if side.Coord != wantOrder[i] {
			t.Errorf("sides[%d] = %v, want %v", i, side.Coord, wantOrder[i])
		}
	}
}

func TestNeighborhoodIncompleteNotOk(t *testing.T) {
	c := newTestCache(2)
	center := voxel.Coord{X: 0, Z: 0}
	c.Publish(center, voxel.NewChunk(center))
	if _, _, ok := c.Neighborhood(center); ok {
		t.Errorf("Neighborhood ok = true with missing neighbors")
	}
}

func TestMarkLoadingIsIdempotent(t *testing.T) {
	c := newTestCache(2)
	p := voxel.Coord{X: 0, Z: 0}
	if !c.MarkLoading(p) {
		t.Fatalf("first MarkLoading = false")
	}
	if c.MarkLoading(p) {
		t.Errorf("second MarkLoading = true, want false (already claimed)")
	}
}

func TestClaimNextNeverDoubleClaims(t *testing.T) {
	c := newTestCache(3)
	const workers = 8
	claims := make(chan voxel.Coord, 10000)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				p, ok := c.ClaimNext()
				if !ok {
					return
				}
				claims <- p
			}
		}()
	}
	wg.Wait()
	close(claims)

	seen := make(map[voxel.Coord]bool)
	total := len(c.win.CoordsByDistance())
	count := 0
	for p := range claims {
		if seen[p] {
			t.Fatalf("coordinate %v claimed more than once", p)
		}
		seen[p] = true
		count++
	}
	if count != total {
		t.Errorf("claimed %d coordinates, want %d (every window cell exactly once)", count, total)
	}
}

func TestEvictSlabRemovesMatchingAxis(t *testing.T) {
	c := newTestCache(2)
	for x := -2; x <= 2; x++ {
		p := voxel.Coord{X: x, Z: 0}
		c.Publish(p, voxel.NewChunk(p))
	}
	n := c.EvictSlab(window.AxisX, -2)
	if n != 1 {
		t.Fatalf("EvictSlab removed %d, want 1", n)
	}
	if c.Has(voxel.Coord{X: -2, Z: 0}) {
		t.Errorf("evicted coordinate still present")
	}
	if !c.Has(voxel.Coord{X: -1, Z: 0}) {
		t.Errorf("EvictSlab removed a coordinate on the wrong plane")
	}
}

func TestResetClearsEverything(t *testing.T) {
	c := newTestCache(2)
	p := voxel.Coord{X: 0, Z: 0}
	c.Publish(p, voxel.NewChunk(p))
	c.MarkLoading(voxel.Coord{X: 1, Z: 0})
	c.Reset()
	if c.Has(p) {
		t.Errorf("Has(p) = true after Reset")
	}
	if !c.MarkLoading(voxel.Coord{X: 1, Z: 0}) {
		t.Errorf("MarkLoading after Reset = false; in-flight markers should have been cleared")
	}
}
