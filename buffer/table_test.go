package buffer

import (
	"math/rand"
	"testing"
)

type countingObserver struct {
	allocated int
	released  int
}

func (o *countingObserver) OnBufferEvent(e Event) {
	switch e.Type {
	case EventAllocated:
		o.allocated++
	case EventReleased:
		o.released++
	}
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(New([]byte("payload")))
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	buf, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if buf.Len() != 7 {
		t.Fatalf("Len = %d, want 7", buf.Len())
	}

	if !table.Drop(h) {
		t.Fatal("Drop failed")
	}
	if !buf.Released() {
		t.Fatal("Drop must release the underlying buffer")
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d after drop, want 0", table.Len())
	}
}

func TestTable_NilBufferProjectsToInvalidHandle(t *testing.T) {
	table := NewTable()
	if h := table.Insert(nil); h != 0 {
		t.Fatalf("Insert(nil) = %d, want 0", h)
	}
}

func TestTable_DeadHandleDrops(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name string
		h    Handle
	}{
		{"zero handle", 0},
		{"never allocated", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if table.Drop(tt.h) {
				t.Error("dropping a dead handle must be a no-op returning false")
			}
		})
	}

	h := table.Insert(New([]byte{1}))
	if !table.Drop(h) {
		t.Fatal("first drop should succeed")
	}
	if table.Drop(h) {
		t.Fatal("second drop of the same handle must be a no-op")
	}
}

func TestTable_HandleRecycling(t *testing.T) {
	table := NewTable()

	h1 := table.Insert(New([]byte{1}))
	table.Drop(h1)
	h2 := table.Insert(New([]byte{2}))

	if h1 != h2 {
		t.Fatalf("expected recycled handle %d, got %d", h1, h2)
	}
	buf, ok := table.Get(h2)
	if !ok {
		t.Fatal("recycled handle should resolve")
	}
	view, _ := buf.View()
	if view[0] != 2 {
		t.Fatal("recycled handle resolves to the old buffer")
	}
}

func TestTable_OwnershipBalance(t *testing.T) {
	// Fuzzed insert/drop interleaving: allocations and releases must
	// balance, and no handle may release more than once.
	table := NewTable()
	obs := &countingObserver{}
	table.Subscribe(obs)

	rng := rand.New(rand.NewSource(1))
	var live []Handle
	for i := 0; i < 1000; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			h := table.Insert(New(make([]byte, rng.Intn(16))))
			live = append(live, h)
		} else {
			idx := rng.Intn(len(live))
			h := live[idx]
			if !table.Drop(h) {
				t.Fatalf("drop of live handle %d failed", h)
			}
			if table.Drop(h) {
				t.Fatalf("handle %d released twice", h)
			}
			live = append(live[:idx], live[idx+1:]...)
		}
	}
	table.Clear()

	if obs.allocated != obs.released {
		t.Fatalf("allocations (%d) != releases (%d)", obs.allocated, obs.released)
	}
	if table.Len() != 0 {
		t.Fatalf("leaked %d buffers", table.Len())
	}
}

func TestTable_CloseRejectsInserts(t *testing.T) {
	table := NewTable()
	table.Insert(New([]byte{1}))
	if err := table.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := New([]byte{2})
	if h := table.Insert(b); h != 0 {
		t.Fatalf("Insert after Close = %d, want 0", h)
	}
	if !b.Released() {
		t.Fatal("buffer rejected by a closed table must be released, not leaked")
	}
}

func TestTable_Unsubscribe(t *testing.T) {
	table := NewTable()
	obs := &countingObserver{}
	table.Subscribe(obs)
	table.Unsubscribe(obs)

	table.Drop(table.Insert(New([]byte{1})))
	if obs.allocated != 0 || obs.released != 0 {
		t.Fatal("unsubscribed observer should see no events")
	}
}
