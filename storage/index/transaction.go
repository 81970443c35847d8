package index

import (
	"github.com/google/uuid"

	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// latchMode records which kind of latch a Transaction is holding on a
// page. releaseAncestors unlocks by its own write argument rather than by
// this field.
type latchMode int

const (
	latchRead latchMode = iota
	latchWrite
)

type heldPage struct {
	id   types.PageID
	page *page.Page
	mode latchMode
}

// Transaction collects everything a single Insert/GetValue/Remove call
// accumulates while crabbing down the tree: the ordered set of pages it
// currently holds latched (oldest first, so releaseAncestors unwinds in
// the order latch-crabbing acquired them), the set of pages it has deleted
// along the way (freed only after every latch is released), and how many
// times it has taken the tree-wide root latch (root latching is
// re-entrant within one traversal: a safe internal node releases it, an
// unsafe one keeps it held past its own level).
//
// A Transaction is not safe for concurrent use; each goroutine performing
// a tree operation owns exactly one.
type Transaction struct {
	ID uuid.UUID

	pageSet       []heldPage
	deletedPages  map[types.PageID]bool
	rootLockDepth int
}

// NewTransaction returns an empty transaction, tagged with a random id
// useful only for logging/debugging.
func NewTransaction() *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		deletedPages: make(map[types.PageID]bool),
	}
}

func (t *Transaction) addPage(id types.PageID, p *page.Page, mode latchMode) {
	t.pageSet = append(t.pageSet, heldPage{id: id, page: p, mode: mode})
}

// popAll drains and returns the held pages, oldest-first, clearing the set.
func (t *Transaction) popAll() []heldPage {
	held := t.pageSet
	t.pageSet = nil
	return held
}

func (t *Transaction) markDeleted(id types.PageID) {
	t.deletedPages[id] = true
}

func (t *Transaction) isDeleted(id types.PageID) bool {
	return t.deletedPages[id]
}

// drainDeleted returns and clears the accumulated deleted-page set.
func (t *Transaction) drainDeleted() []types.PageID {
	ids := make([]types.PageID, 0, len(t.deletedPages))
	for id := range t.deletedPages {
		ids = append(ids, id)
	}
	t.deletedPages = make(map[types.PageID]bool)
	return ids
}
