// Package index implements a disk-backed B+Tree built on top of the
// buffer pool: latch-crabbing insert/remove/lookup, leaf-chain range
// scans, and a header-page-backed directory so multiple named trees can
// share one buffer pool and disk file.
package index

import (
	"fmt"
	"sync"

	"github.com/wingdb/wingdb/storage/buffer"
	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

type operation int

const (
	opRead operation = iota
	opInsert
	opDelete
)

// BPlusTree is a single named index. Multiple trees can coexist against
// the same buffer pool as long as each is constructed with a distinct
// name; Open looks its root up (or creates it) in the shared header page.
type BPlusTree struct {
	name string

	pool      *buffer.Pool
	cmp       types.Comparator
	valueSize int

	leafMaxSize     int
	internalMaxSize int

	// rootLatch guards rootPageID itself, separately from any individual
	// page's own latch: every traversal takes it (shared for reads,
	// exclusive for writes) before looking up the root, and releases it
	// the moment the root is classified safe, exactly like the rest of
	// the crabbing protocol treats any other ancestor. A write traversal
	// that never finds a safe node holds it until the whole operation
	// (including any root replacement) completes.
	rootLatch  sync.RWMutex
	rootPageID types.PageID
}

// Open returns the named tree, creating an empty one in the shared header
// page if it doesn't already exist. valueSize is the fixed width of every
// value stored in the tree (e.g. 8 for an int64 row id).
func Open(pool *buffer.Pool, name string, cmp types.Comparator, valueSize, leafMaxSize, internalMaxSize int) (*BPlusTree, error) {
	t := &BPlusTree{
		name:            name,
		pool:            pool,
		cmp:             cmp,
		valueSize:       valueSize,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		rootPageID:      types.InvalidPageID,
	}

	header, err := pool.FetchPage(types.HeaderPageID)
	if err != nil {
		return nil, fmt.Errorf("index: open %q: fetch header page: %w", name, err)
	}
	view := page.NewHeaderPageView(header.Data())
	if rootID, ok := view.GetRootID(name); ok {
		t.rootPageID = rootID
		_ = pool.UnpinPage(types.HeaderPageID, false)
		return t, nil
	}

	// First time this name is seen: record it with no root yet.
	if err := view.InsertRecord(name, types.InvalidPageID); err != nil {
		_ = pool.UnpinPage(types.HeaderPageID, false)
		return nil, fmt.Errorf("index: open %q: register in header page: %w", name, err)
	}
	if err := pool.UnpinPage(types.HeaderPageID, true); err != nil {
		return nil, err
	}
	return t, nil
}

// IsEmpty reports whether the tree currently has no root, under the
// root-id latch. Operations already holding that latch (Insert, Remove)
// must use isEmptyLocked instead to avoid re-locking a non-reentrant
// sync.RWMutex.
func (t *BPlusTree) IsEmpty() bool {
	t.rootLatch.RLock()
	defer t.rootLatch.RUnlock()
	return t.isEmptyLocked()
}

func (t *BPlusTree) isEmptyLocked() bool { return t.rootPageID == types.InvalidPageID }

func (t *BPlusTree) updateRootPageID(newRoot types.PageID) error {
	t.rootPageID = newRoot
	header, err := t.pool.FetchPage(types.HeaderPageID)
	if err != nil {
		return fmt.Errorf("index: update root for %q: %w", t.name, err)
	}
	view := page.NewHeaderPageView(header.Data())
	if !view.UpdateRecord(t.name, newRoot) {
		if err := view.InsertRecord(t.name, newRoot); err != nil {
			_ = t.pool.UnpinPage(types.HeaderPageID, false)
			return err
		}
	}
	return t.pool.UnpinPage(types.HeaderPageID, true)
}

func (t *BPlusTree) fetchInternal(id types.PageID) (*page.Page, *page.InternalPage, error) {
	fr, err := t.pool.FetchPage(id)
	if err != nil {
		return nil, nil, err
	}
	return fr, page.NewInternalPageView(fr.Data(), t.cmp.KeySize()), nil
}

func (t *BPlusTree) fetchLeaf(id types.PageID) (*page.Page, *page.LeafPage, error) {
	fr, err := t.pool.FetchPage(id)
	if err != nil {
		return nil, nil, err
	}
	return fr, page.NewLeafPageView(fr.Data(), t.cmp.KeySize(), t.valueSize), nil
}

func (t *BPlusTree) newLeaf(parentID types.PageID) (*page.Page, *page.LeafPage, error) {
	fr, err := t.pool.NewPage()
	if err != nil {
		return nil, nil, err
	}
	lf := page.NewLeafPageView(fr.Data(), t.cmp.KeySize(), t.valueSize)
	lf.Init(fr.PageID(), parentID, t.leafMaxSize)
	return fr, lf, nil
}

func (t *BPlusTree) newInternal(parentID types.PageID) (*page.Page, *page.InternalPage, error) {
	fr, err := t.pool.NewPage()
	if err != nil {
		return nil, nil, err
	}
	in := page.NewInternalPageView(fr.Data(), t.cmp.KeySize())
	in.Init(fr.PageID(), parentID, t.internalMaxSize)
	return fr, in, nil
}

func isLeafSafe(op operation, lf *page.LeafPage) bool {
	switch op {
	case opInsert:
		return lf.Size() < lf.MaxSize()-1
	case opDelete:
		return lf.Size() > lf.MinSize()
	default:
		return true
	}
}

func isInternalSafe(op operation, in *page.InternalPage) bool {
	switch op {
	case opInsert:
		return in.Size() < in.MaxSize()-1
	case opDelete:
		return in.Size() > in.MinSize()
	default:
		return true
	}
}

// releaseAncestors unlatches and unpins every page recorded in the
// transaction so far, in acquisition order, without touching the current
// node the caller is still working on.
func (t *BPlusTree) releaseAncestors(txn *Transaction, write bool) {
	for _, held := range txn.popAll() {
		if write {
			held.page.Unlock()
		} else {
			held.page.RUnlock()
		}
		_ = t.pool.UnpinPage(held.id, false)
	}
}

// lockRoot acquires the tree-wide root-id latch (step 1 of the crabbing
// protocol) and records the acquisition in txn so unlockRootIfHeld knows
// whether there's anything left to release.
func (t *BPlusTree) lockRoot(txn *Transaction, write bool) {
	if write {
		t.rootLatch.Lock()
	} else {
		t.rootLatch.RLock()
	}
	txn.rootLockDepth++
}

// unlockRootIfHeld releases the root-id latch if this transaction still
// holds it, and is a no-op otherwise. Safe to call more than once per
// operation: findLeaf calls it as soon as the root is classified safe,
// and every public operation calls it again at its own exit as a backstop
// for the case where the root was never safe.
func (t *BPlusTree) unlockRootIfHeld(txn *Transaction, write bool) {
	if txn.rootLockDepth == 0 {
		return
	}
	txn.rootLockDepth--
	if write {
		t.rootLatch.Unlock()
	} else {
		t.rootLatch.RUnlock()
	}
}

// findLeaf walks from the root to the leaf that would contain key, using
// latch crabbing: each child is latched before its parent is released,
// and for read-only traversal the parent is released immediately; for
// mutating traversal the parent is only released once the child is
// determined to be "safe" (won't need to propagate a structural change
// up to it). Pages still held when this returns are recorded in txn, in
// root-to-leaf order, including the returned leaf itself.
func (t *BPlusTree) findLeaf(key []byte, op operation, txn *Transaction) (*page.Page, *page.LeafPage, error) {
	write := op != opRead

	curID := t.rootPageID
	curFrame, err := t.pool.FetchPage(curID)
	if err != nil {
		return nil, nil, err
	}
	if write {
		curFrame.Lock()
	} else {
		curFrame.RLock()
	}
	mode := latchRead
	if write {
		mode = latchWrite
	}
	txn.addPage(curID, curFrame, mode)

	for {
		pageType := page.PeekPageType(curFrame.Data())
		if pageType == page.LeafPageType {
			lf := page.NewLeafPageView(curFrame.Data(), t.cmp.KeySize(), t.valueSize)
			if write && isLeafSafe(op, lf) {
				// The leaf itself is safe; ancestors can go, but the
				// leaf stays held (it's returned to the caller, which
				// is responsible for releasing it).
				leafHeld := txn.pageSet[len(txn.pageSet)-1]
				txn.pageSet = txn.pageSet[:len(txn.pageSet)-1]
				t.releaseAncestors(txn, true)
				txn.addPage(leafHeld.id, leafHeld.page, leafHeld.mode)
				t.unlockRootIfHeld(txn, true)
			}
			return curFrame, lf, nil
		}

		in := page.NewInternalPageView(curFrame.Data(), t.cmp.KeySize())
		childID := in.Lookup(key, t.cmp)
		childFrame, err := t.pool.FetchPage(childID)
		if err != nil {
			t.releaseAncestors(txn, write)
			return nil, nil, err
		}
		if write {
			childFrame.Lock()
		} else {
			childFrame.RLock()
		}

		if !write {
			// Read traversal never needs to hold more than the current
			// level: release the parent the instant the child is
			// latched. Once past the root, the root-id latch is never
			// needed again either.
			curFrame.RUnlock()
			_ = t.pool.UnpinPage(curID, false)
			txn.pageSet = txn.pageSet[:0]
			t.unlockRootIfHeld(txn, false)
		} else if isInternalSafe(op, in) {
			// curNode itself must stay latched: its child may still
			// split and push a new separator up into it. Only
			// everything above curNode is now provably unneeded.
			curHeld := txn.pageSet[len(txn.pageSet)-1]
			txn.pageSet = txn.pageSet[:len(txn.pageSet)-1]
			t.releaseAncestors(txn, true)
			txn.addPage(curHeld.id, curHeld.page, curHeld.mode)
			t.unlockRootIfHeld(txn, true)
		}

		childMode := latchRead
		if write {
			childMode = latchWrite
		}
		txn.addPage(childID, childFrame, childMode)
		curID, curFrame = childID, childFrame
	}
}

// GetValue returns the value stored for key, if any.
func (t *BPlusTree) GetValue(key []byte) ([]byte, bool, error) {
	if len(key) != t.cmp.KeySize() {
		return nil, false, fmt.Errorf("%w: got %d bytes, want %d", ErrWrongKeySize, len(key), t.cmp.KeySize())
	}
	txn := NewTransaction()
	t.lockRoot(txn, false)
	if t.isEmptyLocked() {
		t.unlockRootIfHeld(txn, false)
		return nil, false, nil
	}
	leafFrame, lf, err := t.findLeaf(key, opRead, txn)
	if err != nil {
		t.unlockRootIfHeld(txn, false)
		return nil, false, err
	}
	val, found := lf.Lookup(key, t.cmp)
	var out []byte
	if found {
		out = append(out, val...)
	}
	leafFrame.RUnlock()
	_ = t.pool.UnpinPage(leafFrame.PageID(), false)
	t.unlockRootIfHeld(txn, false)
	return out, found, nil
}

// Insert adds <key, value>. It reports false without modifying the tree
// if key is already present.
func (t *BPlusTree) Insert(key, value []byte) (bool, error) {
	if len(key) != t.cmp.KeySize() {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrWrongKeySize, len(key), t.cmp.KeySize())
	}
	if len(value) != t.valueSize {
		return false, fmt.Errorf("index: value has wrong size: got %d bytes, want %d", len(value), t.valueSize)
	}

	txn := NewTransaction()
	t.lockRoot(txn, true)
	if t.isEmptyLocked() {
		ok, err := t.startNewTree(key, value)
		t.unlockRootIfHeld(txn, true)
		return ok, err
	}

	leafFrame, lf, err := t.findLeaf(key, opInsert, txn)
	if err != nil {
		t.unlockRootIfHeld(txn, true)
		return false, err
	}

	if _, found := lf.Lookup(key, t.cmp); found {
		t.unlockAndUnpin(txn, true)
		return false, nil
	}

	lf.Insert(key, value, t.cmp)
	leafFrame.SetDirty(true)

	if lf.Size() < lf.MaxSize() {
		t.unlockAndUnpin(txn, true)
		return true, nil
	}

	if err := t.splitLeaf(leafFrame, lf, txn); err != nil {
		t.unlockAndUnpin(txn, true)
		return false, err
	}
	t.unlockAndUnpin(txn, true)
	return true, nil
}

// unlockAndUnpin releases every page the transaction still holds,
// including whichever node findLeaf returned (callers append it onto
// txn's pageSet themselves via findLeaf, so by the time this runs the
// full root-to-leaf remainder, or just the leaf, is in there).
func (t *BPlusTree) unlockAndUnpin(txn *Transaction, write bool) {
	t.releaseAncestors(txn, write)
	t.unlockRootIfHeld(txn, write)
	for _, id := range txn.drainDeleted() {
		_ = t.pool.DeletePage(id)
	}
}

func (t *BPlusTree) startNewTree(key, value []byte) (bool, error) {
	fr, lf, err := t.newLeaf(types.InvalidPageID)
	if err != nil {
		return false, err
	}
	lf.Insert(key, value, t.cmp)
	fr.SetDirty(true)
	rootID := fr.PageID()
	if err := t.pool.UnpinPage(rootID, true); err != nil {
		return false, err
	}
	if err := t.updateRootPageID(rootID); err != nil {
		return false, err
	}
	return true, nil
}

// splitLeaf splits an overflowing leaf in two and propagates the new
// separator key into the parent, recursively splitting ancestors as
// needed. leafFrame/lf are still held write-latched by the caller; this
// releases exactly the pages it creates or consults beyond that, never
// touching leafFrame/lf's own latch (the caller does that).
func (t *BPlusTree) splitLeaf(leafFrame *page.Page, lf *page.LeafPage, txn *Transaction) error {
	siblingFrame, sibling, err := t.newLeaf(lf.ParentPageID())
	if err != nil {
		return err
	}
	lf.MoveHalfTo(sibling)
	leafFrame.SetDirty(true)
	siblingFrame.SetDirty(true)

	middleKey := append([]byte(nil), sibling.KeyAt(0)...)
	err = t.insertIntoParent(leafFrame.PageID(), middleKey, siblingFrame.PageID(), txn)
	unpinErr := t.pool.UnpinPage(siblingFrame.PageID(), true)
	if err != nil {
		return err
	}
	return unpinErr
}

// insertIntoParent inserts <middleKey, newRightID> after oldLeftID in
// oldLeftID's parent, creating a new root if oldLeftID had none, and
// splits the parent in turn if that insertion overflows it.
func (t *BPlusTree) insertIntoParent(oldLeftID types.PageID, middleKey []byte, newRightID types.PageID, txn *Transaction) error {
	leftFrame, err := t.pool.FetchPage(oldLeftID)
	if err != nil {
		return err
	}
	leftParentID := pageParentID(leftFrame.Data())
	unpinLeft := func() { _ = t.pool.UnpinPage(oldLeftID, false) }

	if leftParentID == types.InvalidPageID {
		unpinLeft()
		rootFrame, root, err := t.newInternal(types.InvalidPageID)
		if err != nil {
			return err
		}
		root.PopulateNewRoot(oldLeftID, middleKey, newRightID)
		rootFrame.SetDirty(true)
		newRootID := rootFrame.PageID()
		if err := t.pool.UnpinPage(newRootID, true); err != nil {
			return err
		}
		if err := setPageParentID(t.pool, oldLeftID, newRootID); err != nil {
			return err
		}
		if err := setPageParentID(t.pool, newRightID, newRootID); err != nil {
			return err
		}
		return t.updateRootPageID(newRootID)
	}
	unpinLeft()

	parentFrame, err := t.pool.FetchPage(leftParentID)
	if err != nil {
		return err
	}
	parent := page.NewInternalPageView(parentFrame.Data(), t.cmp.KeySize())
	parent.InsertNodeAfter(oldLeftID, middleKey, newRightID)
	parentFrame.SetDirty(true)
	if err := setPageParentID(t.pool, newRightID, leftParentID); err != nil {
		_ = t.pool.UnpinPage(leftParentID, false)
		return err
	}

	if parent.Size() < parent.MaxSize() {
		return t.pool.UnpinPage(leftParentID, true)
	}

	siblingFrame, sibling, err := t.newInternal(parent.ParentPageID())
	if err != nil {
		_ = t.pool.UnpinPage(leftParentID, true)
		return err
	}
	parent.MoveHalfTo(sibling)
	parentFrame.SetDirty(true)
	siblingFrame.SetDirty(true)

	newMiddleKey := append([]byte(nil), sibling.KeyAt(0)...)
	if err := reparentChildren(t.pool, sibling, sibling.PageID()); err != nil {
		_ = t.pool.UnpinPage(leftParentID, true)
		_ = t.pool.UnpinPage(siblingFrame.PageID(), true)
		return err
	}

	if err := t.pool.UnpinPage(leftParentID, true); err != nil {
		_ = t.pool.UnpinPage(siblingFrame.PageID(), true)
		return err
	}
	err = t.insertIntoParent(parentFrame.PageID(), newMiddleKey, siblingFrame.PageID(), txn)
	unpinErr := t.pool.UnpinPage(siblingFrame.PageID(), true)
	if err != nil {
		return err
	}
	return unpinErr
}

// reparentChildren rewrites the parent pointer of every child listed in
// an internal page that just received them via a move, e.g. after
// MoveHalfTo/MoveAllTo/redistribution shifted children into it.
func reparentChildren(pool *buffer.Pool, in *page.InternalPage, newParent types.PageID) error {
	for i := 0; i < in.Size(); i++ {
		childID := in.ValueAt(i)
		if err := setPageParentID(pool, childID, newParent); err != nil {
			return err
		}
		childFrame, err := pool.FetchPage(childID)
		if err != nil {
			return err
		}
		checkParentInvariant(childFrame.Data(), newParent)
		_ = pool.UnpinPage(childID, false)
	}
	return nil
}

func pageParentID(data []byte) types.PageID {
	return page.NewInternalPageView(data, 0).ParentPageID()
}

func setPageParentID(pool *buffer.Pool, id types.PageID, parent types.PageID) error {
	fr, err := pool.FetchPage(id)
	if err != nil {
		return err
	}
	page.NewInternalPageView(fr.Data(), 0).SetParentPageID(parent)
	fr.SetDirty(true)
	return pool.UnpinPage(id, true)
}

// checkParentInvariant is called after any structural change that should
// have kept child.parent_page_id == parent's own id; a mismatch means the
// tree's own bookkeeping is broken, a caller contract breach rather than a
// recoverable condition.
func checkParentInvariant(childData []byte, wantParent types.PageID) {
	if got := pageParentID(childData); got != wantParent {
		panic(fmt.Sprintf("index: child parent_page_id invariant broken: got %d, want %d", got, wantParent))
	}
}
