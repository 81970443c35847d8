// Package page implements the on-disk page layouts the storage engine
// reads and writes through the buffer pool: the generic frame wrapper
// (Page), the common B+Tree page header, and the two page variants that
// share it (InternalPage, LeafPage), plus the single well-known header
// page that persists <index name, root page id>.
package page

import (
	"sync"

	"github.com/wingdb/wingdb/types"
)

// Page is a buffer-pool frame: PageSize bytes of page content plus the
// bookkeeping the pool needs to decide when a frame is safe to evict. The
// buffer pool exclusively owns Page values; callers borrow them strictly
// between Fetch and Unpin.
type Page struct {
	latch sync.RWMutex

	pageID   types.PageID
	pinCount int32
	isDirty  bool
	data     [types.PageSize]byte
}

// NewPage returns a zeroed frame with no resident page id.
func NewPage() *Page {
	return &Page{pageID: types.InvalidPageID}
}

// Data returns the full backing buffer for this frame. Callers interpret
// it through an InternalPage/LeafPage/HeaderPage view; Page itself never
// looks inside.
func (p *Page) Data() []byte { return p.data[:] }

func (p *Page) PageID() types.PageID { return p.pageID }

func (p *Page) PinCount() int32 { return p.pinCount }

func (p *Page) IsDirty() bool { return p.isDirty }

func (p *Page) SetDirty(dirty bool) { p.isDirty = dirty }

// IncPinCount increments the pin count. Only the buffer pool manager,
// which owns pin-count bookkeeping, should call this.
func (p *Page) IncPinCount() { p.pinCount++ }

// DecPinCount decrements the pin count if it is positive; it is a no-op
// otherwise, matching the buffer pool manager's "idempotent unpin" policy.
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// Bind rebinds a just-reused frame to id with a clean, unpinned state. The
// buffer pool manager calls this after reading or zero-initializing the
// frame's data, immediately before the first IncPinCount of this cycle.
func (p *Page) Bind(id types.PageID) {
	p.pageID = id
	p.pinCount = 0
	p.isDirty = false
}

// Reset clears a frame back to its just-constructed, unbound state.
func (p *Page) Reset() {
	p.pageID = types.InvalidPageID
	p.pinCount = 0
	p.isDirty = false
}

// RLock / RUnlock / Lock / Unlock implement the page's own read/write
// latch, independent of the buffer pool latch that protects the page
// table. Never held across disk I/O originated by another thread.
func (p *Page) RLock()   { p.latch.RLock() }
func (p *Page) RUnlock() { p.latch.RUnlock() }
func (p *Page) Lock()    { p.latch.Lock() }
func (p *Page) Unlock()  { p.latch.Unlock() }
