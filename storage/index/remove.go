package index

import (
	"fmt"

	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// Remove deletes key if present; removing an absent key is a no-op.
func (t *BPlusTree) Remove(key []byte) error {
	if len(key) != t.cmp.KeySize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrWrongKeySize, len(key), t.cmp.KeySize())
	}

	txn := NewTransaction()
	t.lockRoot(txn, true)
	if t.isEmptyLocked() {
		t.unlockRootIfHeld(txn, true)
		return nil
	}

	leafFrame, lf, err := t.findLeaf(key, opDelete, txn)
	if err != nil {
		t.unlockRootIfHeld(txn, true)
		return err
	}

	before := lf.Size()
	after := lf.RemoveAndDeleteRecord(key, t.cmp)
	if after == before {
		t.unlockAndUnpin(txn, true)
		return nil
	}
	leafFrame.SetDirty(true)

	if err := t.coalesceOrRedistributeLeaf(leafFrame, lf, txn); err != nil {
		t.unlockAndUnpin(txn, true)
		return err
	}
	t.unlockAndUnpin(txn, true)
	return nil
}

// siblingOf returns the id and index, within parent, of a sibling of
// child suitable for coalescing or redistributing with: the left sibling
// if one exists, otherwise the right one. ok is false only if child is
// parent's only entry, which should never happen for a non-root node.
func siblingOf(parent *page.InternalPage, childID types.PageID) (siblingID types.PageID, siblingIsLeft bool, ok bool) {
	idx := parent.ValueIndex(childID)
	if idx < 0 {
		return types.InvalidPageID, false, false
	}
	if idx > 0 {
		return parent.ValueAt(idx - 1), true, true
	}
	if idx+1 < parent.Size() {
		return parent.ValueAt(idx + 1), false, true
	}
	return types.InvalidPageID, false, false
}

func (t *BPlusTree) coalesceOrRedistributeLeaf(frame *page.Page, lf *page.LeafPage, txn *Transaction) error {
	if lf.IsRoot() {
		return t.adjustRootLeaf(frame, lf, txn)
	}
	if lf.Size() >= lf.MinSize() {
		return nil
	}

	parentFrame, parent, err := t.fetchParentFor(lf.ParentPageID())
	if err != nil {
		return err
	}
	defer func() { _ = t.pool.UnpinPage(parentFrame.PageID(), true) }()

	siblingID, siblingIsLeft, ok := siblingOf(parent, frame.PageID())
	if !ok {
		return nil
	}
	siblingFrame, sibling, err := t.fetchSiblingLeaf(siblingID, txn)
	if err != nil {
		return err
	}

	if sibling.Size()+lf.Size() <= lf.MaxSize() {
		// Coalesce: merge the right-hand page into the left-hand one and
		// drop the parent's pointer to the one that emptied out.
		var emptied types.PageID
		if siblingIsLeft {
			lf.MoveAllTo(sibling, nil)
			siblingFrame.SetDirty(true)
			emptied = frame.PageID()
		} else {
			sibling.MoveAllTo(lf, nil)
			frame.SetDirty(true)
			emptied = siblingID
		}
		idx := parent.ValueIndex(emptied)
		if idx >= 0 {
			parent.Remove(idx)
			parentFrame.SetDirty(true)
		}
		txn.markDeleted(emptied)

		if parent.Size() < parent.MinSize() {
			return t.coalesceOrRedistributeInternal(parentFrame, parent, txn)
		}
		return nil
	}

	// Redistribute one entry across the sibling boundary and fix up the
	// separator key the parent holds for whichever of the two pages is on
	// the right.
	idx := parent.ValueIndex(siblingID)
	if siblingIsLeft {
		sibling.MoveLastToFrontOf(lf)
	} else {
		sibling.MoveFirstToEndOf(lf)
	}
	siblingFrame.SetDirty(true)
	frame.SetDirty(true)
	if siblingIsLeft {
		parent.SetKeyAt(idx+1, lf.KeyAt(0))
	} else {
		parent.SetKeyAt(idx, sibling.KeyAt(0))
	}
	parentFrame.SetDirty(true)
	return nil
}

func (t *BPlusTree) coalesceOrRedistributeInternal(frame *page.Page, in *page.InternalPage, txn *Transaction) error {
	if in.IsRoot() {
		return t.adjustRootInternal(frame, in, txn)
	}
	if in.Size() >= in.MinSize() {
		return nil
	}

	parentFrame, parent, err := t.fetchParentFor(in.ParentPageID())
	if err != nil {
		return err
	}
	defer func() { _ = t.pool.UnpinPage(parentFrame.PageID(), true) }()

	siblingID, siblingIsLeft, ok := siblingOf(parent, frame.PageID())
	if !ok {
		return nil
	}
	siblingFrame, sibling, err := t.fetchSiblingInternal(siblingID, txn)
	if err != nil {
		return err
	}

	if sibling.Size()+in.Size() <= in.MaxSize() {
		var emptied types.PageID
		if siblingIsLeft {
			middleKey := append([]byte(nil), parent.KeyAt(parent.ValueIndex(frame.PageID()))...)
			in.MoveAllTo(sibling, middleKey)
			siblingFrame.SetDirty(true)
			if err := reparentChildren(t.pool, sibling, siblingID); err != nil {
				return err
			}
			emptied = frame.PageID()
		} else {
			middleKey := append([]byte(nil), parent.KeyAt(parent.ValueIndex(siblingID))...)
			sibling.MoveAllTo(in, middleKey)
			frame.SetDirty(true)
			if err := reparentChildren(t.pool, in, frame.PageID()); err != nil {
				return err
			}
			emptied = siblingID
		}
		idx := parent.ValueIndex(emptied)
		if idx >= 0 {
			parent.Remove(idx)
			parentFrame.SetDirty(true)
		}
		txn.markDeleted(emptied)

		if parent.Size() < parent.MinSize() {
			return t.coalesceOrRedistributeInternal(parentFrame, parent, txn)
		}
		return nil
	}

	idx := parent.ValueIndex(siblingID)
	if siblingIsLeft {
		middleKey := append([]byte(nil), parent.KeyAt(parent.ValueIndex(frame.PageID()))...)
		// The donated slot's key becomes the new separator; in's slot 0
		// only carries a dummy key after CopyFirstFrom.
		newSeparator := append([]byte(nil), sibling.KeyAt(sibling.Size()-1)...)
		sibling.MoveLastToFrontOf(in, middleKey)
		if err := setPageParentID(t.pool, in.ValueAt(0), frame.PageID()); err != nil {
			return err
		}
		parent.SetKeyAt(parent.ValueIndex(frame.PageID()), newSeparator)
	} else {
		middleKey := append([]byte(nil), parent.KeyAt(idx)...)
		sibling.MoveFirstToEndOf(in, middleKey)
		if err := setPageParentID(t.pool, in.ValueAt(in.Size()-1), frame.PageID()); err != nil {
			return err
		}
		parent.SetKeyAt(idx, sibling.KeyAt(0))
	}
	siblingFrame.SetDirty(true)
	frame.SetDirty(true)
	parentFrame.SetDirty(true)
	return nil
}

// adjustRootLeaf handles a root leaf underflowing below the usual minimum,
// which is allowed right up until it empties out entirely, at which point
// the tree becomes empty. The page is only marked for deletion here, not
// deleted outright: it is still pinned and latched by the caller's
// transaction, and DeletePage refuses pinned pages. The actual delete
// happens once every latch in the transaction is released.
func (t *BPlusTree) adjustRootLeaf(frame *page.Page, lf *page.LeafPage, txn *Transaction) error {
	if lf.Size() > 0 {
		return nil
	}
	if err := t.updateRootPageID(types.InvalidPageID); err != nil {
		return err
	}
	txn.markDeleted(frame.PageID())
	return nil
}

// adjustRootInternal collapses a root internal page down to its one
// remaining child once it's down to a single entry.
func (t *BPlusTree) adjustRootInternal(frame *page.Page, in *page.InternalPage, txn *Transaction) error {
	if in.Size() > 1 {
		return nil
	}
	onlyChild := in.RemoveAndReturnOnlyChild()
	if err := setPageParentID(t.pool, onlyChild, types.InvalidPageID); err != nil {
		return err
	}
	if err := t.updateRootPageID(onlyChild); err != nil {
		return err
	}
	txn.markDeleted(frame.PageID())
	return nil
}

// fetchParentFor fetches and views parentID as an internal page. It
// exists to keep remove.go's call sites short; it does not consult or
// mutate the transaction's held-page bookkeeping, matching how
// insertIntoParent accesses already-latched ancestors above leaf level.
func (t *BPlusTree) fetchParentFor(parentID types.PageID) (*page.Page, *page.InternalPage, error) {
	fr, err := t.pool.FetchPage(parentID)
	if err != nil {
		return nil, nil, err
	}
	return fr, page.NewInternalPageView(fr.Data(), t.cmp.KeySize()), nil
}

// fetchSiblingLeaf fetches a sibling leaf page for coalescing or
// redistributing and write-latches it through the same tracked path as
// any other page the crabbing descent holds, so it gets released
// alongside the rest of the transaction's pages rather than on its own.
// Siblings are never visited by the root-to-leaf descent itself, so this
// is the only place one is ever latched.
func (t *BPlusTree) fetchSiblingLeaf(id types.PageID, txn *Transaction) (*page.Page, *page.LeafPage, error) {
	fr, lf, err := t.fetchLeaf(id)
	if err != nil {
		return nil, nil, err
	}
	fr.Lock()
	txn.addPage(id, fr, latchWrite)
	return fr, lf, nil
}

// fetchSiblingInternal is fetchSiblingLeaf for internal-page siblings,
// used when coalescing or redistributing one level above leaves.
func (t *BPlusTree) fetchSiblingInternal(id types.PageID, txn *Transaction) (*page.Page, *page.InternalPage, error) {
	fr, in, err := t.fetchInternal(id)
	if err != nil {
		return nil, nil, err
	}
	fr.Lock()
	txn.addPage(id, fr, latchWrite)
	return fr, in, nil
}
