package buffer

import (
	"sync"
)

// Handle is an opaque reference to a buffer in a Table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for buffer lifecycle notifications.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventReleased
)

// Event represents a buffer lifecycle event.
type Event struct {
	Handle Handle
	Len    int
	Type   EventType
}

// Observer receives notifications about buffer lifecycle events.
type Observer interface {
	OnBufferEvent(Event)
}

// Table maps integer handles to owned buffers for binding surfaces whose
// callers cannot hold Go pointers (wasm guests, C callers). Dropping a
// handle releases the underlying buffer; dropping a dead or unknown handle
// is a no-op. Handles are recycled through a free list.
type Table struct {
	mu        sync.RWMutex
	entries   []entry
	freeList  []Handle
	observers []Observer
	closed    bool
}

type entry struct {
	buf   *Buffer
	valid bool
}

// NewTable creates an empty buffer table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert adds a buffer and returns its handle. Inserting nil (the failure
// signal) returns the invalid handle 0 so failure projects unchanged
// through handle-based surfaces.
func (t *Table) Insert(buf *Buffer) Handle {
	if buf == nil {
		return 0
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		buf.Release()
		return 0
	}

	e := entry{buf: buf, valid: true}
	var h Handle
	if n := len(t.freeList); n > 0 {
		h = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventAllocated, Handle: h, Len: buf.Len()})
	return h
}

// Get retrieves a buffer by handle without transferring ownership.
func (t *Table) Get(h Handle) (*Buffer, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return nil, false
	}
	return t.entries[idx].buf, true
}

// Drop removes the handle and releases its buffer. Returns false for
// handles that are invalid, unknown, or already dropped; a repeated drop
// is a safe no-op, never a double free.
func (t *Table) Drop(h Handle) bool {
	if h == 0 {
		return false
	}

	t.mu.Lock()
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		t.mu.Unlock()
		return false
	}

	buf := t.entries[idx].buf
	n := buf.Len()
	t.entries[idx] = entry{}
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	buf.Release()
	t.notify(Event{Type: EventReleased, Handle: h, Len: n})
	return true
}

// Len returns the number of live buffers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}

// Clear drops all live buffers.
func (t *Table) Clear() {
	t.mu.RLock()
	handles := make([]Handle, 0, len(t.entries))
	for i := range t.entries {
		if t.entries[i].valid {
			handles = append(handles, Handle(i+1))
		}
	}
	t.mu.RUnlock()

	for _, h := range handles {
		t.Drop(h)
	}
}

// Close drops all live buffers and stops accepting inserts.
func (t *Table) Close() error {
	t.Clear()

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	obs := make([]Observer, len(t.observers))
	copy(obs, t.observers)
	t.mu.RUnlock()

	for _, o := range obs {
		o.OnBufferEvent(e)
	}
}
