package buffer

import (
	"container/list"
	"sync"

	"github.com/wingdb/wingdb/types"
)

// LRUReplacer tracks unpinned frames and chooses a victim for eviction
// using strict least-recently-unpinned order: a frame becomes a victim
// candidate the moment its pin count first drops to zero, and repeated
// Unpin calls on an already-tracked frame do not move it within the
// order. Pin removes a frame from consideration entirely.
type LRUReplacer struct {
	mu      sync.Mutex
	entries *list.List // front = least recently unpinned (next victim)
	index   map[types.FrameID]*list.Element
}

// NewLRUReplacer returns an empty replacer.
func NewLRUReplacer() *LRUReplacer {
	return &LRUReplacer{
		entries: list.New(),
		index:   make(map[types.FrameID]*list.Element),
	}
}

// Victim evicts and returns the least-recently-unpinned frame, or reports
// false if no frame is currently evictable.
func (r *LRUReplacer) Victim() (types.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	front := r.entries.Front()
	if front == nil {
		return 0, false
	}
	r.entries.Remove(front)
	id := front.Value.(types.FrameID)
	delete(r.index, id)
	return id, true
}

// Pin removes id from the victim pool, e.g. because the buffer pool just
// pinned the frame. A no-op if id was not tracked.
func (r *LRUReplacer) Pin(id types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.index[id]; ok {
		r.entries.Remove(elem)
		delete(r.index, id)
	}
}

// Unpin adds id to the victim pool if it isn't already tracked. Calling
// Unpin again on a frame that's already tracked does not reorder it.
func (r *LRUReplacer) Unpin(id types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; ok {
		return
	}
	r.index[id] = r.entries.PushBack(id)
}

// Size reports how many frames are currently evictable.
func (r *LRUReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Len()
}
