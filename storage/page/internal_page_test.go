package page

import (
	"bytes"
	"testing"

	"github.com/wingdb/wingdb/types"
)

func key8(n int32) []byte {
	b := make([]byte, 8)
	b[0] = byte(n)
	return b
}

func newTestInternal(pageID, parentID types.PageID, maxSize int) *InternalPage {
	data := make([]byte, types.PageSize)
	p := NewInternalPageView(data, 8)
	p.Init(pageID, parentID, maxSize)
	return p
}

func TestInternalPagePopulateNewRootAndLookup(t *testing.T) {
	root := newTestInternal(1, types.InvalidPageID, 5)
	root.PopulateNewRoot(10, key8(5), 20)

	if got := root.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	if got := root.ValueAt(0); got != types.PageID(10) {
		t.Fatalf("ValueAt(0) = %d, want 10", got)
	}
	if got := root.ValueAt(1); got != types.PageID(20) {
		t.Fatalf("ValueAt(1) = %d, want 20", got)
	}
}

func TestInternalPageMoveFirstToEndOfShiftsForward(t *testing.T) {
	// Bug being guarded against: shifting from the top (high index first)
	// would read array[i+1] after it has already been overwritten,
	// duplicating the last entry instead of removing the first.
	src := newTestInternal(1, 99, 10)
	for i, v := range []types.PageID{100, 101, 102, 103} {
		if i == 0 {
			src.SetValueAt(0, v)
			continue
		}
		src.SetKeyAt(i, key8(int32(i)))
		src.SetValueAt(i, v)
	}
	src.setSize(4)

	dst := newTestInternal(2, 99, 10)
	dst.SetValueAt(0, 200)
	dst.setSize(1)

	src.MoveFirstToEndOf(dst, key8(50))

	if got := src.Size(); got != 3 {
		t.Fatalf("src.Size() = %d, want 3", got)
	}
	// What used to be slot 1 (value 101) must now be slot 0.
	if got := src.ValueAt(0); got != types.PageID(101) {
		t.Fatalf("src.ValueAt(0) = %d, want 101 (off-by-one duplication bug)", got)
	}
	if got := src.ValueAt(2); got != types.PageID(103) {
		t.Fatalf("src.ValueAt(2) = %d, want 103", got)
	}

	if got := dst.Size(); got != 2 {
		t.Fatalf("dst.Size() = %d, want 2", got)
	}
	if got := dst.ValueAt(1); got != types.PageID(100) {
		t.Fatalf("dst.ValueAt(1) = %d, want 100", got)
	}
	if !bytes.Equal(dst.KeyAt(1), key8(50)) {
		t.Fatalf("dst.KeyAt(1) = %v, want the middle key", dst.KeyAt(1))
	}
}

func TestInternalPageCopyFirstFromShiftsBackwardWithoutLoss(t *testing.T) {
	// Bug being guarded against: writing the new pair straight into
	// array[0] without shifting existing entries right first would
	// silently discard every existing entry.
	dst := newTestInternal(1, 99, 10)
	dst.SetValueAt(0, 300)
	dst.SetKeyAt(1, key8(10))
	dst.SetValueAt(1, 301)
	dst.SetKeyAt(2, key8(20))
	dst.SetValueAt(2, 302)
	dst.setSize(3)

	dst.CopyFirstFrom(key8(5), 400)

	if got := dst.Size(); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}
	if got := dst.ValueAt(0); got != types.PageID(400) {
		t.Fatalf("ValueAt(0) = %d, want 400", got)
	}
	if !bytes.Equal(dst.KeyAt(1), key8(5)) {
		t.Fatalf("KeyAt(1) = %v, want the new middle key", dst.KeyAt(1))
	}
	if got := dst.ValueAt(1); got != types.PageID(300) {
		t.Fatalf("ValueAt(1) = %d, want 300 (original slot 0, not lost)", got)
	}
	if got := dst.ValueAt(2); got != types.PageID(301) {
		t.Fatalf("ValueAt(2) = %d, want 301", got)
	}
	if got := dst.ValueAt(3); got != types.PageID(302) {
		t.Fatalf("ValueAt(3) = %d, want 302", got)
	}
}

func TestInternalPageMoveHalfToSplitsLargerHalfRight(t *testing.T) {
	src := newTestInternal(1, 99, 10)
	for i := 0; i < 5; i++ {
		src.SetValueAt(i, types.PageID(i))
		if i > 0 {
			src.SetKeyAt(i, key8(int32(i*10)))
		}
	}
	src.setSize(5)

	dst := newTestInternal(2, 99, 10)
	src.MoveHalfTo(dst)

	if src.Size() != 2 || dst.Size() != 3 {
		t.Fatalf("split sizes = (%d, %d), want (2, 3): larger half moves right", src.Size(), dst.Size())
	}
}
