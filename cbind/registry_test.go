package main

import (
	"math"
	"testing"
)

func TestLengthFits(t *testing.T) {
	cases := []struct {
		n    uint64
		want bool
	}{
		{0, true},
		{1, true},
		{math.MaxInt32, true},
		{math.MaxInt32 + 1, false},
		{math.MaxUint32, false},
		{1 << 40, false},
	}
	for _, tc := range cases {
		if got := lengthFits(tc.n); got != tc.want {
			t.Errorf("lengthFits(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestRegistry_ForgetOnlyOnce(t *testing.T) {
	r := newRegistry()

	r.register(0x1000)
	r.register(0x2000)
	if r.count() != 2 {
		t.Fatalf("count = %d, want 2", r.count())
	}

	if !r.forget(0x1000) {
		t.Fatal("first forget must succeed")
	}
	if r.forget(0x1000) {
		t.Fatal("second forget must report dead pointer")
	}
	if r.count() != 1 {
		t.Fatalf("count = %d, want 1", r.count())
	}
}

func TestRegistry_ForeignPointer(t *testing.T) {
	r := newRegistry()
	r.register(0x1000)

	if r.forget(0xDEAD) {
		t.Fatal("unknown pointer must not be forgettable")
	}
	if r.count() != 1 {
		t.Fatal("foreign forget must not disturb live entries")
	}
}
