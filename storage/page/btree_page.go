package page

import (
	"encoding/binary"

	"github.com/wingdb/wingdb/types"
)

// PageType distinguishes the two kinds of B+Tree node page.
type PageType int32

const (
	InvalidPageType  PageType = 0
	LeafPageType     PageType = 1
	InternalPageType PageType = 2
)

// btreeHeaderSize is the size, in bytes, of the fields every B+Tree page
// carries ahead of its type-specific slot array:
//
//	offset 0:  int32 page type
//	offset 4:  int32 lsn (reserved, unused by this engine)
//	offset 8:  int32 size (current number of populated key slots)
//	offset 12: int32 max size (capacity before a split is required)
//	offset 16: int32 parent page id
//	offset 20: int32 page id
const btreeHeaderSize = 24

// btreeHeader is embedded (by byte range, not by Go struct embedding) at
// the front of every InternalPage and LeafPage. It is not constructed
// directly by callers outside this package.
type btreeHeader struct {
	data []byte
}

func (h *btreeHeader) PageType() PageType {
	return PageType(int32(binary.LittleEndian.Uint32(h.data[0:4])))
}

func (h *btreeHeader) setPageType(t PageType) {
	binary.LittleEndian.PutUint32(h.data[0:4], uint32(int32(t)))
}

func (h *btreeHeader) IsLeaf() bool { return h.PageType() == LeafPageType }

func (h *btreeHeader) Size() int {
	return int(int32(binary.LittleEndian.Uint32(h.data[8:12])))
}

func (h *btreeHeader) setSize(n int) {
	binary.LittleEndian.PutUint32(h.data[8:12], uint32(int32(n)))
}

func (h *btreeHeader) IncreaseSize(delta int) {
	h.setSize(h.Size() + delta)
}

func (h *btreeHeader) MaxSize() int {
	return int(int32(binary.LittleEndian.Uint32(h.data[12:16])))
}

func (h *btreeHeader) setMaxSize(n int) {
	binary.LittleEndian.PutUint32(h.data[12:16], uint32(int32(n)))
}

func (h *btreeHeader) ParentPageID() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(h.data[16:20])))
}

func (h *btreeHeader) SetParentPageID(id types.PageID) {
	binary.LittleEndian.PutUint32(h.data[16:20], uint32(int32(id)))
}

func (h *btreeHeader) PageID() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(h.data[20:24])))
}

func (h *btreeHeader) setPageID(id types.PageID) {
	binary.LittleEndian.PutUint32(h.data[20:24], uint32(int32(id)))
}

// IsRoot reports whether this page has no parent.
func (h *btreeHeader) IsRoot() bool { return h.ParentPageID() == types.InvalidPageID }

// MinSize is the occupancy floor below which a non-root node must be
// coalesced or redistributed. For internal pages that is
// ceil(maxSize/2); for leaf pages it's the same rule applied to the
// number of key-value pairs. Both page types share this formula.
func (h *btreeHeader) MinSize() int {
	return (h.MaxSize() + 1) / 2
}

// PeekPageType reads just the type tag out of a raw frame without
// constructing either page view, so callers deciding which view to build
// don't need to guess.
func PeekPageType(data []byte) PageType {
	return PageType(int32(binary.LittleEndian.Uint32(data[0:4])))
}
