package buffer

import (
	"testing"

	"github.com/wingdb/wingdb/types"
)

func TestLRUReplacerVictimOrder(t *testing.T) {
	r := NewLRUReplacer()
	r.Unpin(types.FrameID(1))
	r.Unpin(types.FrameID(2))
	r.Unpin(types.FrameID(3))

	// Re-unpinning an already-tracked frame must not move it.
	r.Unpin(types.FrameID(1))

	if got := r.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}

	for _, want := range []types.FrameID{1, 2, 3} {
		got, ok := r.Victim()
		if !ok {
			t.Fatalf("Victim() reported none left, want %d", want)
		}
		if got != want {
			t.Fatalf("Victim() = %d, want %d", got, want)
		}
	}

	if _, ok := r.Victim(); ok {
		t.Fatalf("Victim() on empty replacer should report false")
	}
}

func TestLRUReplacerPinRemovesFromPool(t *testing.T) {
	r := NewLRUReplacer()
	r.Unpin(types.FrameID(1))
	r.Unpin(types.FrameID(2))

	r.Pin(types.FrameID(1))
	if got := r.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}

	got, ok := r.Victim()
	if !ok || got != types.FrameID(2) {
		t.Fatalf("Victim() = (%d, %v), want (2, true)", got, ok)
	}
}

func TestLRUReplacerPinUnknownFrameIsNoop(t *testing.T) {
	r := NewLRUReplacer()
	r.Pin(types.FrameID(42))
	if got := r.Size(); got != 0 {
		t.Fatalf("Size() = %d, want 0", got)
	}
}
