package buffer

import "testing"

func TestSession_ReleasesOnClose(t *testing.T) {
	s := NewSession()

	a := s.Track(New([]byte{1}))
	b := s.Track(New([]byte{2, 3}))
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Released() || !b.Released() {
		t.Fatal("Close must release every tracked buffer")
	}
}

func TestSession_TrackNilPassesThrough(t *testing.T) {
	s := NewSession()
	defer s.Close()

	if got := s.Track(nil); got != nil {
		t.Fatal("Track(nil) must return nil")
	}
	if s.Len() != 0 {
		t.Fatal("nil must not be tracked")
	}
}

func TestSession_IndividualReleaseThenClose(t *testing.T) {
	s := NewSession()
	b := s.Track(New([]byte{1}))

	// Owner releases early; Close must not double-free.
	if !b.Release() {
		t.Fatal("manual release should succeed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close after manual release: %v", err)
	}
}

func TestSession_DoubleClose(t *testing.T) {
	s := NewSession()
	s.Track(New([]byte{1}))
	s.Close()
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSession_StaleCloseCannotReachLaterSessions(t *testing.T) {
	stale := NewSession()
	stale.Track(New([]byte{1}))
	stale.Close()

	// A fresh session may reuse the stale session's backing storage, but a
	// late Close through the stale handle must stay a no-op.
	fresh := NewSession()
	b := fresh.Track(New([]byte{2}))

	if err := stale.Close(); err != nil {
		t.Fatalf("stale Close: %v", err)
	}
	if b.Released() {
		t.Fatal("stale Close must not release another session's buffers")
	}
	if fresh.Len() != 1 {
		t.Fatalf("fresh.Len = %d, want 1", fresh.Len())
	}

	fresh.Close()
	if !b.Released() {
		t.Fatal("owning session's Close must release the buffer")
	}
}

func TestSession_TrackAfterCloseReleases(t *testing.T) {
	s := NewSession()
	s.Close()

	b := New([]byte{1})
	if got := s.Track(b); got != nil {
		t.Fatal("Track on a closed session must return nil")
	}
	if !b.Released() {
		t.Fatal("buffer tracked into a closed session must be released, not leaked")
	}
}
