package main

import (
	"math"
	"sync"
)

// lengthFits reports whether a caller-supplied byte count survives the
// C int conversion the cgo copy helpers require. uintptr is 64 bits on
// the supported hosts while C.int is 32, so oversized lengths must be
// rejected rather than truncated.
func lengthFits(n uint64) bool {
	return n <= math.MaxInt32
}

// registry tracks the ManagedBuffer pointers this library has handed out
// and not yet reclaimed. Frees are validated against it, so a double free
// or a pointer the library never produced degrades to a no-op instead of
// corrupting the C heap.
type registry struct {
	mu   sync.Mutex
	live map[uintptr]struct{}
}

func newRegistry() *registry {
	return &registry{live: make(map[uintptr]struct{})}
}

func (r *registry) register(p uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[p] = struct{}{}
}

// forget removes a pointer, reporting whether it was live.
func (r *registry) forget(p uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[p]; !ok {
		return false
	}
	delete(r.live, p)
	return true
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
