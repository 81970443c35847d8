package index

import (
	"fmt"
	"io"

	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// Dump writes a human-readable rendering of the tree's shape to w: one
// block per page, walked root to leaves. It is for debugging and tests
// asserting tree shape only, never parsed back.
func (t *BPlusTree) Dump(w io.Writer) error {
	if t.IsEmpty() {
		fmt.Fprintln(w, "empty tree")
		return nil
	}
	return t.dumpPage(w, t.rootPageID)
}

func (t *BPlusTree) dumpPage(w io.Writer, id types.PageID) error {
	fr, err := t.pool.FetchPage(id)
	if err != nil {
		return err
	}

	if page.PeekPageType(fr.Data()) == page.LeafPageType {
		lf := page.NewLeafPageView(fr.Data(), t.cmp.KeySize(), t.valueSize)
		fmt.Fprintf(w, "leaf %d parent=%d next=%d keys=[", id, lf.ParentPageID(), lf.GetNextPageID())
		for i := 0; i < lf.Size(); i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%x", lf.KeyAt(i))
		}
		fmt.Fprintln(w, "]")
		return t.pool.UnpinPage(id, false)
	}

	in := page.NewInternalPageView(fr.Data(), t.cmp.KeySize())
	fmt.Fprintf(w, "internal %d parent=%d children=[", id, in.ParentPageID())
	for i := 0; i < in.Size(); i++ {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		if i == 0 {
			fmt.Fprintf(w, "%d", in.ValueAt(i))
		} else {
			fmt.Fprintf(w, "%x:%d", in.KeyAt(i), in.ValueAt(i))
		}
	}
	fmt.Fprintln(w, "]")

	children := make([]types.PageID, in.Size())
	for i := range children {
		children[i] = in.ValueAt(i)
	}
	if err := t.pool.UnpinPage(id, false); err != nil {
		return err
	}
	for _, childID := range children {
		if err := t.dumpPage(w, childID); err != nil {
			return err
		}
	}
	return nil
}
