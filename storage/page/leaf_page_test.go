package page

import (
	"bytes"
	"testing"

	"github.com/wingdb/wingdb/types"
)

func newTestLeaf(pageID, parentID types.PageID, maxSize int) *LeafPage {
	data := make([]byte, types.PageSize)
	p := NewLeafPageView(data, 8, 8)
	p.Init(pageID, parentID, maxSize)
	return p
}

type testCmp struct{}

func (testCmp) KeySize() int { return 8 }
func (testCmp) Compare(a, b []byte) int {
	for i := 0; i < 8; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func TestLeafPageInsertKeepsSortedOrder(t *testing.T) {
	lf := newTestLeaf(1, 0, 10)
	cmp := testCmp{}

	for _, k := range []int32{5, 1, 9, 3} {
		lf.Insert(key8(k), key8(k*100), cmp)
	}

	if got := lf.Size(); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}
	want := []int32{1, 3, 5, 9}
	for i, w := range want {
		if got := lf.KeyAt(i)[0]; got != byte(w) {
			t.Fatalf("KeyAt(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestLeafPageLookupAndRemove(t *testing.T) {
	lf := newTestLeaf(1, 0, 10)
	cmp := testCmp{}
	lf.Insert(key8(1), key8(10), cmp)
	lf.Insert(key8(2), key8(20), cmp)

	val, found := lf.Lookup(key8(2), cmp)
	if !found || !bytes.Equal(val, key8(20)) {
		t.Fatalf("Lookup(2) = (%v, %v), want (20, true)", val, found)
	}

	if _, found := lf.Lookup(key8(3), cmp); found {
		t.Fatalf("Lookup(3) should report not found")
	}

	newSize := lf.RemoveAndDeleteRecord(key8(1), cmp)
	if newSize != 1 {
		t.Fatalf("RemoveAndDeleteRecord size = %d, want 1", newSize)
	}
	if _, found := lf.Lookup(key8(1), cmp); found {
		t.Fatalf("key 1 should be gone after removal")
	}
}

func TestLeafPageMoveLastToFrontOfAndCopyFirstFrom(t *testing.T) {
	// These two methods are implemented from scratch (the reference this
	// engine is built on left them as empty stubs); exercise them
	// directly since no split/redistribute path is implicitly testing
	// them elsewhere as thoroughly.
	cmp := testCmp{}
	left := newTestLeaf(1, 0, 10)
	left.Insert(key8(1), key8(10), cmp)
	left.Insert(key8(2), key8(20), cmp)
	left.Insert(key8(3), key8(30), cmp)

	right := newTestLeaf(2, 0, 10)
	right.Insert(key8(10), key8(100), cmp)

	left.MoveLastToFrontOf(right)

	if got := left.Size(); got != 2 {
		t.Fatalf("left.Size() = %d, want 2", got)
	}
	if got := right.Size(); got != 2 {
		t.Fatalf("right.Size() = %d, want 2", got)
	}
	if got := right.KeyAt(0)[0]; got != 3 {
		t.Fatalf("right.KeyAt(0) = %d, want 3", got)
	}
	if got := right.KeyAt(1)[0]; got != 10 {
		t.Fatalf("right.KeyAt(1) = %d, want 10 (original entry preserved)", got)
	}
}

func TestLeafPageMoveHalfToRelinksChain(t *testing.T) {
	cmp := testCmp{}
	left := newTestLeaf(1, 0, 10)
	for _, k := range []int32{1, 2, 3, 4, 5} {
		left.Insert(key8(k), key8(k*10), cmp)
	}
	right := newTestLeaf(2, 0, 10)

	left.MoveHalfTo(right)

	if left.Size() != 2 || right.Size() != 3 {
		t.Fatalf("split sizes = (%d, %d), want (2, 3)", left.Size(), right.Size())
	}
	if got := left.GetNextPageID(); got != types.PageID(2) {
		t.Fatalf("left.GetNextPageID() = %d, want 2", got)
	}
}
