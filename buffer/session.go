package buffer

import "sync"

// Session is the automatic-release binding flavor for Go callers. Buffers
// attached to a session are released together when the session closes, so
// the usual idiom is one deferred Close per scope:
//
//	sess := buffer.NewSession()
//	defer sess.Close()
//	buf := sess.Track(cat.Decode(ctx, req))
//
// A session is dead after Close: late Track and Close calls on it are
// guarded no-ops that can never reach buffers owned by another session.
type Session struct {
	mu      sync.Mutex
	buffers []*Buffer
	closed  bool
}

// Only the backing list is pooled. Session objects themselves are never
// reused: a caller holding a stale *Session after Close must not be able
// to alias a later owner.
var bufferListPool = sync.Pool{
	New: func() any {
		list := make([]*Buffer, 0, 8)
		return &list
	},
}

const maxPooledListCapacity = 128

// NewSession returns a fresh session.
func NewSession() *Session {
	return &Session{buffers: *bufferListPool.Get().(*[]*Buffer)}
}

// Track attaches a buffer to the session and returns it unchanged, so it
// composes directly with catalog calls. Tracking nil (the failure signal)
// is a no-op; tracking into a closed session releases the buffer
// immediately rather than leaking it.
func (s *Session) Track(b *Buffer) *Buffer {
	if b == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		b.Release()
		return nil
	}
	s.buffers = append(s.buffers, b)
	s.mu.Unlock()
	return b
}

// Len returns the number of tracked buffers not yet individually released.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, b := range s.buffers {
		if !b.Released() {
			n++
		}
	}
	return n
}

// Close releases every tracked buffer exactly once. Buffers the owner
// already released individually are skipped by the release guard. Repeated
// Close is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	buffers := s.buffers
	s.buffers = nil
	s.mu.Unlock()

	for i, b := range buffers {
		b.Release()
		buffers[i] = nil
	}

	// Only pool small lists to prevent memory bloat
	if cap(buffers) <= maxPooledListCapacity {
		buffers = buffers[:0]
		bufferListPool.Put(&buffers)
	}
	return nil
}
