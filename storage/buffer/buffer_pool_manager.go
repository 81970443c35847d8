// Package buffer implements the buffer pool manager: the fixed-size page
// cache sitting between the B+Tree index and the disk manager, fronted by
// an LRU replacement policy and a content-hash gate that skips redundant
// writes.
package buffer

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/wingdb/wingdb/storage/disk"
	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// Stats exposes buffer pool counters for diagnostics and tests.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	WritesElided  uint64
	WritesFlushed uint64
}

// Pool is the buffer pool manager. A fixed number of frames are pinned in
// memory at construction time; FetchPage/NewPage bring pages in, Unpin
// releases them, and a page only ever reaches disk through FlushPage,
// FlushAllPages, or silently on eviction.
type Pool struct {
	mu sync.Mutex

	disk     disk.Manager
	replacer *LRUReplacer

	frames    []*page.Page
	freeList  []types.FrameID
	pageTable map[types.PageID]types.FrameID

	// lastWrittenHash[frameID] is the content hash of what was last
	// persisted from this frame, or 0 if nothing has been written yet.
	// A page whose in-memory content hashes the same as last time it hit
	// disk is elided rather than rewritten.
	lastWrittenHash map[types.FrameID]uint64

	stats Stats
}

// NewPool allocates a pool of poolSize frames backed by d. poolSize must be
// at least 1; a pool that can never hold a single page is a caller
// contract breach, not a recoverable condition.
func NewPool(d disk.Manager, poolSize int) *Pool {
	if poolSize < 1 {
		panic(fmt.Sprintf("buffer: pool too small: %d", poolSize))
	}
	p := &Pool{
		disk:            d,
		replacer:        NewLRUReplacer(),
		frames:          make([]*page.Page, poolSize),
		pageTable:       make(map[types.PageID]types.FrameID),
		lastWrittenHash: make(map[types.FrameID]uint64),
	}
	for i := 0; i < poolSize; i++ {
		p.frames[i] = page.NewPage()
		p.freeList = append(p.freeList, types.FrameID(i))
	}
	return p
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// findFrame picks a frame to hold a newly-needed page: a free frame if any
// remain, otherwise an LRU victim. It reports false if the pool is fully
// pinned. The victim's own prior content is written back first if dirty.
func (p *Pool) findFrame() (types.FrameID, bool) {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return id, true
	}

	id, ok := p.replacer.Victim()
	if !ok {
		return 0, false
	}
	p.stats.Evictions++

	victim := p.frames[id]
	if victim.PageID() != types.InvalidPageID {
		if victim.IsDirty() {
			p.writeBack(id, victim)
		}
		delete(p.pageTable, victim.PageID())
	}
	return id, true
}

// writeBack persists fr's content to disk unless it hashes identically to
// what was already written for this frame, and clears the dirty flag
// either way. A failed disk write leaves the page dirty.
func (p *Pool) writeBack(id types.FrameID, fr *page.Page) {
	h := xxhash.Sum64(fr.Data())
	if p.lastWrittenHash[id] == h {
		p.stats.WritesElided++
		fr.SetDirty(false)
		return
	}
	if err := p.disk.WritePage(fr.PageID(), fr.Data()); err != nil {
		// writeBack has no error result: the disk manager's error is only
		// logged here, and neither FlushPage, FlushAllPages nor an
		// eviction reports it to its own caller.
		fmt.Printf("buffer: write-back of page %d failed: %v\n", fr.PageID(), err)
		return
	}
	p.lastWrittenHash[id] = h
	p.stats.WritesFlushed++
	fr.SetDirty(false)
}

// FetchPage pins and returns the page for id, reading it from disk on a
// cache miss. Callers must Unpin exactly once for each successful fetch.
func (p *Pool) FetchPage(id types.PageID) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.pageTable[id]; ok {
		p.stats.Hits++
		fr := p.frames[frameID]
		fr.IncPinCount()
		p.replacer.Pin(frameID)
		return fr, nil
	}

	p.stats.Misses++
	frameID, ok := p.findFrame()
	if !ok {
		return nil, fmt.Errorf("%w: no frame available for page %d", ErrPoolExhausted, id)
	}

	fr := p.frames[frameID]
	fr.Reset()
	if err := p.disk.ReadPage(id, fr.Data()); err != nil {
		p.freeList = append(p.freeList, frameID)
		return nil, fmt.Errorf("buffer: fetch page %d: %w", id, err)
	}
	fr.Bind(id)
	fr.IncPinCount()
	p.pageTable[id] = frameID
	return fr, nil
}

// NewPage allocates a fresh page id on disk and returns a pinned, zeroed
// frame for it without performing a read.
func (p *Pool) NewPage() (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.findFrame()
	if !ok {
		return nil, fmt.Errorf("%w: cannot allocate new page", ErrPoolExhausted)
	}

	id := p.disk.AllocatePage()
	fr := p.frames[frameID]
	fr.Reset()
	for i := range fr.Data() {
		fr.Data()[i] = 0
	}
	fr.Bind(id)
	fr.IncPinCount()
	p.pageTable[id] = frameID
	return fr, nil
}

// UnpinPage decrements id's pin count and, if it reaches zero, makes the
// frame eligible for eviction. isDirty is OR'd onto the frame's existing
// dirty flag so an earlier dirtying unpin in the same pin/unpin cycle is
// never forgotten. Unpinning a page that isn't currently resident is a
// no-op, not an error: it may have already been evicted or deleted by the
// time an unrelated caller gets around to releasing it.
func (p *Pool) UnpinPage(id types.PageID, isDirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[id]
	if !ok {
		return nil
	}
	fr := p.frames[frameID]
	if isDirty {
		fr.SetDirty(true)
	}
	if fr.PinCount() > 0 {
		fr.DecPinCount()
		if fr.PinCount() == 0 {
			p.replacer.Unpin(frameID)
		}
	}
	return nil
}

// FlushPage writes id's current content to disk immediately, regardless
// of pin count, subject to the same content-hash elision as eviction.
func (p *Pool) FlushPage(id types.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[id]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrPageNotResident, id)
	}
	p.writeBack(frameID, p.frames[frameID])
	return nil
}

// FlushAllPages writes back every resident page, used on an orderly
// shutdown.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, frameID := range p.pageTable {
		_ = id
		p.writeBack(frameID, p.frames[frameID])
	}
	return nil
}

// DeletePage removes id from the pool and deallocates it on disk. It
// fails if the page is still pinned by someone.
func (p *Pool) DeletePage(id types.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[id]
	if !ok {
		p.disk.DeallocatePage(id)
		return nil
	}
	fr := p.frames[frameID]
	if fr.PinCount() > 0 {
		return fmt.Errorf("%w: page %d", ErrPagePinned, id)
	}
	p.replacer.Pin(frameID) // remove from victim pool if present
	delete(p.pageTable, id)
	delete(p.lastWrittenHash, frameID)
	fr.Reset()
	p.freeList = append(p.freeList, frameID)
	p.disk.DeallocatePage(id)
	return nil
}
