package page

import (
	"encoding/binary"

	"github.com/wingdb/wingdb/types"
)

// internalSlotValueSize is the width of a child pointer stored in an
// internal page slot: a page id.
const internalSlotValueSize = 4

// InternalPage views a frame as a B+Tree internal node: up to maxSize slots
// of <key, child page id>, where slot 0's key is a dummy never compared
// against (InternalPage always has one more child pointer than key).
type InternalPage struct {
	btreeHeader
	keySize int
}

func NewInternalPageView(data []byte, keySize int) *InternalPage {
	return &InternalPage{btreeHeader: btreeHeader{data: data}, keySize: keySize}
}

func (p *InternalPage) slotSize() int { return p.keySize + internalSlotValueSize }

func (p *InternalPage) slotOffset(i int) int {
	return btreeHeaderSize + i*p.slotSize()
}

// Init formats an empty internal page bound to pageID/parentID with room
// for maxSize child pointers.
func (p *InternalPage) Init(pageID, parentID types.PageID, maxSize int) {
	p.setPageType(InternalPageType)
	p.setSize(0)
	p.setMaxSize(maxSize)
	p.SetParentPageID(parentID)
	p.setPageID(pageID)
}

func (p *InternalPage) KeyAt(i int) []byte {
	off := p.slotOffset(i)
	return p.data[off : off+p.keySize]
}

func (p *InternalPage) SetKeyAt(i int, key []byte) {
	off := p.slotOffset(i)
	copy(p.data[off:off+p.keySize], key)
}

func (p *InternalPage) ValueAt(i int) types.PageID {
	off := p.slotOffset(i) + p.keySize
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[off : off+4])))
}

func (p *InternalPage) SetValueAt(i int, v types.PageID) {
	off := p.slotOffset(i) + p.keySize
	binary.LittleEndian.PutUint32(p.data[off:off+4], uint32(int32(v)))
}

// ValueIndex returns the slot index holding child page id v, or -1.
func (p *InternalPage) ValueIndex(v types.PageID) int {
	for i := 0; i < p.Size(); i++ {
		if p.ValueAt(i) == v {
			return i
		}
	}
	return -1
}

// Lookup returns the child page id to descend into for key, using the
// invariant that slot i's key is the smallest key in the subtree rooted
// at slot i's child, for i >= 1.
func (p *InternalPage) Lookup(key []byte, cmp types.Comparator) types.PageID {
	size := p.Size()
	lo, hi := 1, size-1
	target := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if cmp.Compare(p.KeyAt(mid), key) <= 0 {
			target = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return p.ValueAt(target)
}

// PopulateNewRoot formats this (empty, freshly allocated) page as a new
// root with exactly two children straddling oldValue/newValue around key.
func (p *InternalPage) PopulateNewRoot(oldValue types.PageID, key []byte, newValue types.PageID) {
	p.SetValueAt(0, oldValue)
	p.SetKeyAt(1, key)
	p.SetValueAt(1, newValue)
	p.setSize(2)
}

// InsertNodeAfter inserts <newKey, newValue> immediately after the slot
// currently holding oldValue, shifting later slots right, and returns the
// new size.
func (p *InternalPage) InsertNodeAfter(oldValue types.PageID, newKey []byte, newValue types.PageID) int {
	idx := p.ValueIndex(oldValue) + 1
	size := p.Size()
	for i := size; i > idx; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetKeyAt(idx, newKey)
	p.SetValueAt(idx, newValue)
	p.setSize(size + 1)
	return size + 1
}

// MoveHalfTo moves the upper half of this page's slots into recipient,
// which must be empty. The larger half stays on the right (recipient)
// when size is odd, matching the leaf split's tie-break.
func (p *InternalPage) MoveHalfTo(recipient *InternalPage) {
	total := p.Size()
	copyIdx := total / 2
	n := total - copyIdx
	for i := 0; i < n; i++ {
		recipient.SetKeyAt(i, p.KeyAt(copyIdx+i))
		recipient.SetValueAt(i, p.ValueAt(copyIdx+i))
	}
	recipient.setSize(n)
	p.setSize(copyIdx)
}

// Remove deletes the slot at index i, shifting later slots left.
func (p *InternalPage) Remove(i int) {
	size := p.Size()
	for j := i; j < size-1; j++ {
		p.SetKeyAt(j, p.KeyAt(j+1))
		p.SetValueAt(j, p.ValueAt(j+1))
	}
	p.setSize(size - 1)
}

// RemoveAndReturnOnlyChild empties this page (expected to hold exactly one
// child, as happens when the root shrinks) and returns that child.
func (p *InternalPage) RemoveAndReturnOnlyChild() types.PageID {
	only := p.ValueAt(0)
	p.setSize(0)
	return only
}

// MoveAllTo appends all of this page's slots onto the end of recipient,
// used when coalescing this page into its left sibling. middleKey becomes
// the key for this page's former slot 0, which carried a dummy key.
func (p *InternalPage) MoveAllTo(recipient *InternalPage, middleKey []byte) {
	size := p.Size()
	rSize := recipient.Size()
	for i := 0; i < size; i++ {
		key := p.KeyAt(i)
		if i == 0 {
			key = middleKey
		}
		recipient.SetKeyAt(rSize+i, key)
		recipient.SetValueAt(rSize+i, p.ValueAt(i))
	}
	recipient.setSize(rSize + size)
	p.setSize(0)
}

// MoveFirstToEndOf moves this page's slot 0 onto the end of recipient,
// used during right-to-left redistribution. middleKey supplies the key
// recipient should use for the newly appended child (slot 0's key here is
// a dummy, just like MoveAllTo).
//
// The shift must run forward (low to high) so that each index is read
// before it is overwritten; shifting from the top would overwrite array[1]
// with itself before ever reading it.
func (p *InternalPage) MoveFirstToEndOf(recipient *InternalPage, middleKey []byte) {
	firstValue := p.ValueAt(0)
	size := p.Size()
	for i := 0; i < size-1; i++ {
		p.SetKeyAt(i, p.KeyAt(i+1))
		p.SetValueAt(i, p.ValueAt(i+1))
	}
	p.setSize(size - 1)
	recipient.CopyLastFrom(middleKey, firstValue)
}

// CopyLastFrom appends <key, value> as this page's new last slot.
func (p *InternalPage) CopyLastFrom(key []byte, value types.PageID) {
	size := p.Size()
	p.SetKeyAt(size, key)
	p.SetValueAt(size, value)
	p.setSize(size + 1)
}

// MoveLastToFrontOf moves this page's last slot onto the front of
// recipient, used during left-to-right redistribution. middleKey supplies
// the key recipient's old slot 0 should adopt (it was a dummy).
func (p *InternalPage) MoveLastToFrontOf(recipient *InternalPage, middleKey []byte) {
	size := p.Size()
	lastValue := p.ValueAt(size - 1)
	p.setSize(size - 1)
	recipient.CopyFirstFrom(middleKey, lastValue)
}

// CopyFirstFrom inserts <value, firstKey-of-recipient's former slot 0>
// and key pair such that recipient's old slot 0 key becomes key and the
// new slot 0 takes value with a dummy key.
//
// The shift must run backward (high to low) so that each index is read
// before it is overwritten; shifting forward would lose the original
// slot 0 before it could land at index 1.
func (p *InternalPage) CopyFirstFrom(key []byte, value types.PageID) {
	size := p.Size()
	for i := size; i > 0; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetValueAt(0, value)
	p.SetKeyAt(1, key)
	p.setSize(size + 1)
}
