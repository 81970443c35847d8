package page

import (
	"encoding/binary"

	"github.com/wingdb/wingdb/types"
)

// leafExtraHeaderSize is the width of the leaf-only field (next page id)
// that sits between the common header and the slot array.
const leafExtraHeaderSize = 4

// LeafPage views a frame as a B+Tree leaf node: maxSize slots of
// <key, value>, chained to the next leaf in key order for range scans.
type LeafPage struct {
	btreeHeader
	keySize   int
	valueSize int
}

func NewLeafPageView(data []byte, keySize, valueSize int) *LeafPage {
	return &LeafPage{btreeHeader: btreeHeader{data: data}, keySize: keySize, valueSize: valueSize}
}

func (p *LeafPage) slotSize() int { return p.keySize + p.valueSize }

func (p *LeafPage) slotOffset(i int) int {
	return btreeHeaderSize + leafExtraHeaderSize + i*p.slotSize()
}

// Init formats an empty leaf page bound to pageID/parentID with room for
// maxSize key-value pairs.
func (p *LeafPage) Init(pageID, parentID types.PageID, maxSize int) {
	p.setPageType(LeafPageType)
	p.setSize(0)
	p.setMaxSize(maxSize)
	p.SetParentPageID(parentID)
	p.setPageID(pageID)
	p.SetNextPageID(types.InvalidPageID)
}

func (p *LeafPage) GetNextPageID() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(p.data[btreeHeaderSize : btreeHeaderSize+4])))
}

func (p *LeafPage) SetNextPageID(id types.PageID) {
	binary.LittleEndian.PutUint32(p.data[btreeHeaderSize:btreeHeaderSize+4], uint32(int32(id)))
}

func (p *LeafPage) KeyAt(i int) []byte {
	off := p.slotOffset(i)
	return p.data[off : off+p.keySize]
}

func (p *LeafPage) setKeyAt(i int, key []byte) {
	off := p.slotOffset(i)
	copy(p.data[off:off+p.keySize], key)
}

func (p *LeafPage) ValueAt(i int) []byte {
	off := p.slotOffset(i) + p.keySize
	return p.data[off : off+p.valueSize]
}

func (p *LeafPage) setValueAt(i int, v []byte) {
	off := p.slotOffset(i) + p.keySize
	copy(p.data[off:off+p.valueSize], v)
}

// setSlot writes both the key and value for slot i in one call.
func (p *LeafPage) setSlot(i int, key, value []byte) {
	p.setKeyAt(i, key)
	p.setValueAt(i, value)
}

// KeyIndex returns the index of the first slot whose key is >= key (an
// insertion point, not necessarily an exact match).
func (p *LeafPage) KeyIndex(key []byte, cmp types.Comparator) int {
	size := p.Size()
	lo, hi := 0, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp.Compare(p.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Lookup reports whether key is present and, if so, its value.
func (p *LeafPage) Lookup(key []byte, cmp types.Comparator) ([]byte, bool) {
	idx := p.KeyIndex(key, cmp)
	if idx < p.Size() && cmp.Compare(p.KeyAt(idx), key) == 0 {
		return p.ValueAt(idx), true
	}
	return nil, false
}

// Insert places <key, value> in sorted position, shifting later slots
// right, and returns the new size. It does not check for a duplicate key;
// callers must Lookup first.
func (p *LeafPage) Insert(key, value []byte, cmp types.Comparator) int {
	idx := p.KeyIndex(key, cmp)
	size := p.Size()
	for i := size; i > idx; i-- {
		p.setSlot(i, p.KeyAt(i-1), p.ValueAt(i-1))
	}
	p.setSlot(idx, key, value)
	p.setSize(size + 1)
	return size + 1
}

// RemoveAndDeleteRecord removes key if present and returns the resulting
// size; it returns the unchanged size if key was absent.
func (p *LeafPage) RemoveAndDeleteRecord(key []byte, cmp types.Comparator) int {
	idx := p.KeyIndex(key, cmp)
	size := p.Size()
	if idx >= size || cmp.Compare(p.KeyAt(idx), key) != 0 {
		return size
	}
	for i := idx; i < size-1; i++ {
		p.setSlot(i, p.KeyAt(i+1), p.ValueAt(i+1))
	}
	p.setSize(size - 1)
	return size - 1
}

// MoveHalfTo moves the upper half of this page's slots into recipient,
// which must be empty, and relinks the leaf chain through recipient.
func (p *LeafPage) MoveHalfTo(recipient *LeafPage) {
	total := p.Size()
	copyIdx := total / 2
	n := total - copyIdx
	for i := 0; i < n; i++ {
		recipient.setSlot(i, p.KeyAt(copyIdx+i), p.ValueAt(copyIdx+i))
	}
	recipient.setSize(n)
	p.setSize(copyIdx)
	recipient.SetNextPageID(p.GetNextPageID())
	p.SetNextPageID(recipient.PageID())
}

// MoveAllTo appends all of this page's slots onto the end of recipient and
// relinks the chain around this now-empty page, used when coalescing this
// leaf into its left sibling. middleKey is accepted for symmetry with
// InternalPage.MoveAllTo but unused: leaf slots already carry real keys,
// there is no dummy entry to repair.
func (p *LeafPage) MoveAllTo(recipient *LeafPage, middleKey []byte) {
	size := p.Size()
	rSize := recipient.Size()
	for i := 0; i < size; i++ {
		recipient.setSlot(rSize+i, p.KeyAt(i), p.ValueAt(i))
	}
	recipient.setSize(rSize + size)
	recipient.SetNextPageID(p.GetNextPageID())
	p.setSize(0)
}

// MoveFirstToEndOf moves this page's slot 0 onto the end of recipient,
// used during right-to-left redistribution.
func (p *LeafPage) MoveFirstToEndOf(recipient *LeafPage) {
	// Copy slot 0 out first: KeyAt/ValueAt alias the page bytes, which the
	// shift below overwrites.
	firstKey := append([]byte(nil), p.KeyAt(0)...)
	firstValue := append([]byte(nil), p.ValueAt(0)...)
	size := p.Size()
	for i := 0; i < size-1; i++ {
		p.setSlot(i, p.KeyAt(i+1), p.ValueAt(i+1))
	}
	p.setSize(size - 1)
	recipient.CopyLastFrom(firstKey, firstValue)
}

// CopyLastFrom appends <key, value> as this page's new last slot.
func (p *LeafPage) CopyLastFrom(key, value []byte) {
	size := p.Size()
	p.setSlot(size, key, value)
	p.setSize(size + 1)
}

// MoveLastToFrontOf moves this page's last slot onto the front of
// recipient, used during left-to-right redistribution. The upstream
// reference this engine is built on left this method and CopyFirstFrom as
// empty stubs; both are implemented here from scratch, following the
// (corrected) InternalPage redistribution shape.
func (p *LeafPage) MoveLastToFrontOf(recipient *LeafPage) {
	size := p.Size()
	lastKey, lastValue := p.KeyAt(size-1), p.ValueAt(size-1)
	p.setSize(size - 1)
	recipient.CopyFirstFrom(lastKey, lastValue)
}

// CopyFirstFrom inserts <key, value> as this page's new first slot,
// shifting existing slots right. The shift runs backward (high to low) so
// each index is read before it is overwritten.
func (p *LeafPage) CopyFirstFrom(key, value []byte) {
	size := p.Size()
	for i := size; i > 0; i-- {
		p.setSlot(i, p.KeyAt(i-1), p.ValueAt(i-1))
	}
	p.setSlot(0, key, value)
	p.setSize(size + 1)
}
