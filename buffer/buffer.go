package buffer

import (
	"sync"

	"github.com/wippyai/bcsv-bridge/errors"
)

// Buffer is the canonical owned byte sequence handed across the boundary.
// A Buffer has exactly one live owner. A nil *Buffer is the failure signal;
// a non-nil Buffer with Len() == 0 is an empty success. The two are never
// interchangeable.
//
// A Buffer is not for concurrent use by multiple goroutines; cross-thread
// handoff discipline is the owner's responsibility. Release is guarded:
// the first call frees the storage, every later call is a no-op.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// New wraps data in an owned buffer, taking ownership of the slice.
// A nil slice is normalized to an empty one so that an empty success
// stays distinguishable from the nil failure signal.
func New(data []byte) *Buffer {
	if data == nil {
		data = []byte{}
	}
	return &Buffer{data: data}
}

// Copy wraps a copy of data in an owned buffer, leaving the source borrowed.
func Copy(data []byte) *Buffer {
	dup := make([]byte, len(data))
	copy(dup, data)
	return &Buffer{data: dup}
}

// Len returns the payload length in bytes, 0 once released.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return 0
	}
	return len(b.data)
}

// Released reports whether the buffer has already been released.
func (b *Buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// View borrows the payload without transferring ownership. The slice is
// valid only until Release; callers must not retain it past the buffer's
// lifetime. Viewing a released buffer fails instead of exposing freed
// storage.
func (b *Buffer) View() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, errors.UseAfterRelease("view")
	}
	return b.data, nil
}

// CopyOut returns a caller-owned copy of the payload.
func (b *Buffer) CopyOut() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, errors.UseAfterRelease("copy")
	}
	dup := make([]byte, len(b.data))
	copy(dup, b.data)
	return dup, nil
}

// Release frees the underlying storage. The first call returns true;
// repeated calls are no-ops returning false. There is no transition back
// from the released state.
func (b *Buffer) Release() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return false
	}
	b.released = true
	b.data = nil
	return true
}
