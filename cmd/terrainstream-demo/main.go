// terrainstream-demo drives the streaming core headlessly: it moves a
// virtual eye in a straight line, ticks the controller, and logs the draw
// list and fog distance it would hand to a renderer. It stands in for the
// teacher's cmd/mini-mc/game_loop.go, with glfw/OpenGL stripped out and a
// trivial in-process UploadFunc in place of real GPU calls.
package main

import (
	"log"
	"time"

	"terrainstream/internal/buffercache"
	"terrainstream/internal/config"
	"terrainstream/internal/profiling"
	"terrainstream/internal/streaming"
	"terrainstream/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	tickRate  = 60
	runTicks  = 600  // ten seconds at 60 Hz
	moveSpeed = 24.0 // world units/second along +X
)

func main() {
	config.SetCacheDistance(12)
	config.SetRenderDistance(12)

	ctl := streaming.Init(config.GetCacheDistance(), mgl32.Vec3{0, 64, 0}, 1)
	defer ctl.Shutdown()

	dt := 1.0 / tickRate
	var nextBufferHandle uint32
	upload := fakeUpload(&nextBufferHandle)

	lastReport := time.Now()
	for tick := 0; tick < runTicks; tick++ {
		profiling.ResetFrame()

		eyeX := float32(tick) * moveSpeed * float32(dt)
		func() {
			defer profiling.Track("demo.SetEye")()
			ctl.SetEye(mgl32.Vec3{eyeX, 64, 0})
		}()

		ctl.Drain(upload)
		fog := ctl.TickFog(dt)

		if time.Since(lastReport) >= time.Second {
			lastReport = time.Now()
			drawList := ctl.GetAvailable()
			log.Printf("tick=%d eyeX=%.1f cells=%d farthest=%.1f fog=%.2f top=%s",
				tick, eyeX, len(drawList), ctl.GetFarthestDistance(), fog, profiling.TopNCurrentFrame(5))
		}

		time.Sleep(time.Duration(dt * float64(time.Second)))
	}

	log.Printf("done: %d cells resident, farthest=%.1f", len(ctl.GetAvailable()), ctl.GetFarthestDistance())
}

// fakeUpload stands in for a GPU upload: it hands out monotonically
// increasing fake buffer handles and reports each pair's index count,
// matching the shape a real renderer's upload would return
// without touching a graphics context.
func fakeUpload(nextHandle *uint32) buffercache.UploadFunc {
	alloc := func() uint32 {
		*nextHandle++
		return *nextHandle
	}
	return func(m voxel.Mesh) (opaque, translucent []buffercache.DrawArgs) {
		for _, pair := range m.Opaque {
			opaque = append(opaque, buffercache.DrawArgs{
				VertexBuffer: alloc(),
				IndexBuffer:  alloc(),
				IndexCount:   int32(len(pair.Indices)),
			})
		}
		for _, pair := range m.Translucent {
			translucent = append(translucent, buffercache.DrawArgs{
				VertexBuffer: alloc(),
				IndexBuffer:  alloc(),
				IndexCount:   int32(len(pair.Indices)),
			})
		}
		return opaque, translucent
	}
}
