package index

import (
	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// Iterator walks a tree's leaves in key order, read-latching one leaf at a
// time and following the leaf chain rather than re-descending from the
// root. Callers must call Close if they stop iterating before Valid
// reports false, to release whatever leaf is currently latched.
type Iterator struct {
	tree  *BPlusTree
	frame *page.Page
	leaf  *page.LeafPage
	slot  int
}

// Begin starts an iterator at the smallest key in the tree.
func (t *BPlusTree) Begin() (*Iterator, error) {
	txn := NewTransaction()
	t.lockRoot(txn, false)
	if t.isEmptyLocked() {
		t.unlockRootIfHeld(txn, false)
		return &Iterator{tree: t}, nil
	}
	frame, leaf, err := t.leftmostLeaf(txn)
	t.unlockRootIfHeld(txn, false)
	if err != nil {
		return nil, err
	}
	return &Iterator{tree: t, frame: frame, leaf: leaf, slot: 0}, nil
}

// BeginAt starts an iterator at the first key >= key.
func (t *BPlusTree) BeginAt(key []byte) (*Iterator, error) {
	txn := NewTransaction()
	t.lockRoot(txn, false)
	if t.isEmptyLocked() {
		t.unlockRootIfHeld(txn, false)
		return &Iterator{tree: t}, nil
	}
	frame, leaf, err := t.findLeaf(key, opRead, txn)
	t.unlockRootIfHeld(txn, false)
	if err != nil {
		return nil, err
	}
	idx := leaf.KeyIndex(key, t.cmp)
	it := &Iterator{tree: t, frame: frame, leaf: leaf, slot: idx}
	it.skipToNonEmptyLeaf()
	return it, nil
}

// leftmostLeaf descends straight down child slot 0, releasing the root-id
// latch itself (via unlockRootIfHeld) as soon as the root page is
// read-latched.
func (t *BPlusTree) leftmostLeaf(txn *Transaction) (*page.Page, *page.LeafPage, error) {
	id := t.rootPageID
	first := true
	for {
		fr, err := t.pool.FetchPage(id)
		if err != nil {
			return nil, nil, err
		}
		fr.RLock()
		if first {
			t.unlockRootIfHeld(txn, false)
			first = false
		}
		if page.PeekPageType(fr.Data()) == page.LeafPageType {
			return fr, page.NewLeafPageView(fr.Data(), t.cmp.KeySize(), t.valueSize), nil
		}
		in := page.NewInternalPageView(fr.Data(), t.cmp.KeySize())
		next := in.ValueAt(0)
		fr.RUnlock()
		_ = t.pool.UnpinPage(id, false)
		id = next
	}
}

// Valid reports whether Key/Value currently refer to a real entry.
func (it *Iterator) Valid() bool {
	return it.leaf != nil && it.slot < it.leaf.Size()
}

func (it *Iterator) Key() []byte   { return it.leaf.KeyAt(it.slot) }
func (it *Iterator) Value() []byte { return it.leaf.ValueAt(it.slot) }

// Next advances to the next entry, crossing into the next leaf (read
// latch swapped one at a time, never holding two leaves at once) when the
// current one is exhausted.
func (it *Iterator) Next() error {
	it.slot++
	return it.skipToNonEmptyLeaf()
}

func (it *Iterator) skipToNonEmptyLeaf() error {
	for it.leaf != nil && it.slot >= it.leaf.Size() {
		nextID := it.leaf.GetNextPageID()
		it.frame.RUnlock()
		_ = it.tree.pool.UnpinPage(it.frame.PageID(), false)
		it.frame, it.leaf, it.slot = nil, nil, 0
		if nextID == types.InvalidPageID {
			return nil
		}
		fr, err := it.tree.pool.FetchPage(nextID)
		if err != nil {
			return err
		}
		fr.RLock()
		it.frame = fr
		it.leaf = page.NewLeafPageView(fr.Data(), it.tree.cmp.KeySize(), it.tree.valueSize)
		it.slot = 0
	}
	return nil
}

// Close releases whatever leaf latch the iterator currently holds. Safe
// to call on an exhausted or never-advanced iterator.
func (it *Iterator) Close() {
	if it.leaf == nil {
		return
	}
	it.frame.RUnlock()
	_ = it.tree.pool.UnpinPage(it.frame.PageID(), false)
	it.frame, it.leaf = nil, nil
}
