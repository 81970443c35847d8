package page

import (
	"encoding/binary"
	"fmt"

	"github.com/wingdb/wingdb/types"
)

// HeaderPage is the single well-known page (types.HeaderPageID) that maps
// index names to their root page id. Layout, all little-endian:
//
//	offset 0: uint32 record count
//	then, repeated count times:
//	  uint32 name length
//	  name bytes
//	  int32  root page id
type HeaderPage struct {
	data []byte
}

// NewHeaderPageView wraps the data of a freshly fetched header frame.
func NewHeaderPageView(data []byte) *HeaderPage { return &HeaderPage{data: data} }

// Init zeroes the record count so a new header page starts empty.
func (h *HeaderPage) Init() {
	binary.LittleEndian.PutUint32(h.data[0:4], 0)
}

func (h *HeaderPage) count() int {
	return int(binary.LittleEndian.Uint32(h.data[0:4]))
}

// GetRootID returns the root page id recorded for name, and whether an
// entry for that name exists at all.
func (h *HeaderPage) GetRootID(name string) (types.PageID, bool) {
	off := 4
	n := h.count()
	for i := 0; i < n; i++ {
		nameLen := int(binary.LittleEndian.Uint32(h.data[off : off+4]))
		off += 4
		entryName := string(h.data[off : off+nameLen])
		off += nameLen
		rootID := types.PageID(int32(binary.LittleEndian.Uint32(h.data[off : off+4])))
		off += 4
		if entryName == name {
			return rootID, true
		}
	}
	return types.InvalidPageID, false
}

// InsertRecord adds a new <name, rootID> entry. It does not check for a
// duplicate name; callers needing upsert semantics should call UpdateRecord
// first and fall back to InsertRecord only when that reports no entry.
func (h *HeaderPage) InsertRecord(name string, rootID types.PageID) error {
	off := h.endOffset()
	need := off + 4 + len(name) + 4
	if need > len(h.data) {
		return fmt.Errorf("page: header page overflow inserting %q", name)
	}
	binary.LittleEndian.PutUint32(h.data[off:off+4], uint32(len(name)))
	off += 4
	copy(h.data[off:off+len(name)], name)
	off += len(name)
	binary.LittleEndian.PutUint32(h.data[off:off+4], uint32(int32(rootID)))

	binary.LittleEndian.PutUint32(h.data[0:4], uint32(h.count()+1))
	return nil
}

// UpdateRecord rewrites the root id for an existing name in place, and
// reports whether it found one.
func (h *HeaderPage) UpdateRecord(name string, rootID types.PageID) bool {
	off := 4
	n := h.count()
	for i := 0; i < n; i++ {
		nameLen := int(binary.LittleEndian.Uint32(h.data[off : off+4]))
		off += 4
		entryName := string(h.data[off : off+nameLen])
		off += nameLen
		if entryName == name {
			binary.LittleEndian.PutUint32(h.data[off:off+4], uint32(int32(rootID)))
			return true
		}
		off += 4
	}
	return false
}

func (h *HeaderPage) endOffset() int {
	off := 4
	n := h.count()
	for i := 0; i < n; i++ {
		nameLen := int(binary.LittleEndian.Uint32(h.data[off : off+4]))
		off += 4 + nameLen + 4
	}
	return off
}
