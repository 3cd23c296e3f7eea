// Package meshqueue holds the finite queue of mesh-ready neighborhoods
// awaiting the mesher, and the completed meshes awaiting upload to the
// buffer cache (component D). Modeled on the teacher's meshing.WorkerPool
// job/result channel pair (internal/meshing/pool.go: MeshJob, MeshResult),
// split into two separate channels because here the producer/consumer
// pairing differs per direction: workers produce both ends; the controller
// only consumes meshes, and workers only consume requests.
package meshqueue

import "terrainstream/internal/voxel"

// Request is a mesh-ready neighborhood: a coordinate plus its already
// fetched 5-neighborhood snapshot, captured under the map cache's lock at
// enqueue time (spec §4.4, §5's ordering guarantee).
type Request struct {
	Coord  voxel.Coord
	Center *voxel.Chunk
	Sides  [4]*voxel.Chunk // +x, -x, +z, -z
}

// Queue is the mesh-request / completed-mesh pair. Requests are
// multi-producer (workers enqueue after publishing a chunk that completes a
// neighbor's neighborhood) / multi-consumer (any idle worker may pop one).
// Meshes are multi-producer (workers push results) / single-consumer (the
// controller drains them every frame).
type Queue struct {
	requests chan Request
	meshes   chan voxel.Mesh
}

// New creates a Queue with the given channel capacities. A full requests
// channel means TryEnqueueRequest drops the request rather than blocking a
// worker mid-publish; it will be re-derived the next time a neighbor
// publishes, since the underlying chunks are still in the map cache.
func New(requestCapacity, meshCapacity int) *Queue {
	return &Queue{
		requests: make(chan Request, requestCapacity),
		meshes:   make(chan voxel.Mesh, meshCapacity),
	}
}

// TryEnqueueRequest offers a mesh request without blocking. Returns false if
// the queue is full.
func (q *Queue) TryEnqueueRequest(r Request) bool {
	select {
	case q.requests <- r:
		return true
	default:
		return false
	}
}

// TryDequeueRequest pops a mesh request without blocking.
func (q *Queue) TryDequeueRequest() (Request, bool) {
	select {
	case r := <-q.requests:
		return r, true
	default:
		return Request{}, false
	}
}

// PushMesh offers a finished mesh, blocking only if the meshes channel is
// full (which would mean more than meshCapacity finished meshes are waiting
// for the controller to drain them — a backpressure signal, not an error
// condition).
func (q *Queue) PushMesh(m voxel.Mesh) {
	q.meshes <- m
}

// DrainMeshes pops every currently-ready mesh without blocking, in FIFO
// order.
func (q *Queue) DrainMeshes() []voxel.Mesh {
	var out []voxel.Mesh
	for {
		select {
		case m := <-q.meshes:
			out = append(out, m)
		default:
			return out
		}
	}
}

// PendingRequests returns the current number of queued mesh requests
// (diagnostic only).
func (q *Queue) PendingRequests() int {
	return len(q.requests)
}
