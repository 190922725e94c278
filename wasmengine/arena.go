package wasmengine

import (
	"sync"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
)

type allocation struct {
	ptr  uint32
	size uint32
}

// arena tracks every guest allocation made for one engine call so argument
// and result regions are freed together after the result is copied out.
// Arenas are pooled; an arena is invalid after release.
type arena struct {
	allocs []allocation
}

var arenaPool = sync.Pool{
	New: func() any {
		return &arena{allocs: make([]allocation, 0, 8)}
	},
}

const maxPooledArenaCapacity = 64

func newArena() *arena {
	return arenaPool.Get().(*arena)
}

// alloc carves a region out of guest memory and records it for free.
func (a *arena) alloc(allocator bcsvbridge.Allocator, size uint32) (uint32, error) {
	ptr, err := allocator.Alloc(size)
	if err != nil {
		return 0, err
	}
	a.allocs = append(a.allocs, allocation{ptr: ptr, size: size})
	return ptr, nil
}

// write allocates a region and copies data into it. Zero-length data maps
// to the null pointer, matching how an empty ptr+len pair crosses the
// boundary.
func (a *arena) write(allocator bcsvbridge.Allocator, mem bcsvbridge.Memory, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	ptr, err := a.alloc(allocator, uint32(len(data)))
	if err != nil {
		return 0, err
	}
	if err := mem.Write(ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}

// adopt records a guest-allocated region (a result buffer) so it is freed
// with the rest of the call's allocations.
func (a *arena) adopt(ptr, size uint32) {
	if ptr != 0 {
		a.allocs = append(a.allocs, allocation{ptr: ptr, size: size})
	}
}

// freeAndRelease frees every recorded region and returns the arena to the
// pool.
func (a *arena) freeAndRelease(allocator bcsvbridge.Allocator) {
	for _, alloc := range a.allocs {
		if alloc.ptr != 0 {
			allocator.Free(alloc.ptr, alloc.size)
		}
	}
	a.allocs = a.allocs[:0]

	// Only pool small arenas to prevent memory bloat
	if cap(a.allocs) <= maxPooledArenaCapacity {
		arenaPool.Put(a)
	}
}
