package wasmengine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/bcsv-bridge/errors"
)

// guestMemory adapts wazero linear memory to the bridge Memory interface.
// Read returns a view into guest memory; callers copy before the next
// guest call if they need the bytes to survive.
type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"memory", "read"}, offset, length)
	}
	return data, nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"memory", "write"}, offset, uint32(len(data)))
	}
	return nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, []string{"memory", "read_u32"}, offset, 4)
	}
	return v, nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"memory", "write_u32"}, offset, 4)
	}
	return nil
}

// guestAllocator drives the guest's exported alloc/dealloc pair. The
// Allocator interface carries no context; allocation calls are short and
// run under the engine's call lock.
type guestAllocator struct {
	alloc   api.Function
	dealloc api.Function
}

func (a *guestAllocator) Alloc(size uint32) (uint32, error) {
	results, err := a.alloc.Call(context.Background(), uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseLoad, errors.KindAllocation, err, "guest alloc trapped")
	}
	ptr := uint32(results[0])
	if ptr == 0 && size > 0 {
		return 0, errors.AllocationFailed(errors.PhaseLoad, size)
	}
	return ptr, nil
}

func (a *guestAllocator) Free(ptr, size uint32) {
	if a.dealloc == nil || ptr == 0 {
		return
	}
	if _, err := a.dealloc.Call(context.Background(), uint64(ptr), uint64(size)); err != nil {
		Logger().Warn("guest dealloc failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}
