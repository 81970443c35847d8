package index

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/wingdb/wingdb/storage/buffer"
	"github.com/wingdb/wingdb/storage/disk"
)

func newTestTree(t *testing.T, leafMaxSize, internalMaxSize int) *BPlusTree {
	t.Helper()
	pool := buffer.NewPool(disk.NewMemoryDiskManager(), 128)
	tree, err := Open(pool, "test", Int64Comparator{}, 8, leafMaxSize, internalMaxSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tree
}

func TestBPlusTreeInsertAndGetSingleLeaf(t *testing.T) {
	tree := newTestTree(t, 32, 32)

	for i := int64(0); i < 10; i++ {
		ok, err := tree.Insert(EncodeInt64Key(i), EncodeInt64Key(i*10))
		if err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		if !ok {
			t.Fatalf("Insert(%d) reported duplicate on first insert", i)
		}
	}

	for i := int64(0); i < 10; i++ {
		val, found, err := tree.GetValue(EncodeInt64Key(i))
		if err != nil {
			t.Fatalf("GetValue(%d): %v", i, err)
		}
		if !found {
			t.Fatalf("GetValue(%d) not found", i)
		}
		if DecodeInt64Key(val) != i*10 {
			t.Fatalf("GetValue(%d) = %d, want %d", i, DecodeInt64Key(val), i*10)
		}
	}
}

func TestBPlusTreeDuplicateInsertRejected(t *testing.T) {
	tree := newTestTree(t, 32, 32)

	ok, err := tree.Insert(EncodeInt64Key(1), EncodeInt64Key(100))
	if err != nil || !ok {
		t.Fatalf("first Insert(1) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = tree.Insert(EncodeInt64Key(1), EncodeInt64Key(200))
	if err != nil {
		t.Fatalf("second Insert(1): %v", err)
	}
	if ok {
		t.Fatalf("second Insert(1) should report duplicate rejection")
	}

	val, _, _ := tree.GetValue(EncodeInt64Key(1))
	if DecodeInt64Key(val) != 100 {
		t.Fatalf("value after duplicate insert = %d, want original 100", DecodeInt64Key(val))
	}
}

func TestBPlusTreeSplitsAcrossManyLevels(t *testing.T) {
	// A small leaf/internal max size forces repeated splits well past a
	// single level, exercising insertIntoParent's recursive case.
	tree := newTestTree(t, 4, 4)

	const n = 200
	for i := int64(0); i < n; i++ {
		ok, err := tree.Insert(EncodeInt64Key(i), EncodeInt64Key(i))
		if err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		if !ok {
			t.Fatalf("Insert(%d) unexpectedly a duplicate", i)
		}
	}

	for i := int64(0); i < n; i++ {
		val, found, err := tree.GetValue(EncodeInt64Key(i))
		if err != nil {
			t.Fatalf("GetValue(%d): %v", i, err)
		}
		if !found || DecodeInt64Key(val) != i {
			t.Fatalf("GetValue(%d) = (%v, %v), want (%d, true)", i, DecodeInt64Key(val), found, i)
		}
	}
}

func TestBPlusTreeScanReturnsSortedRange(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const n = 50
	for i := int64(n - 1); i >= 0; i-- {
		if _, err := mustInsert(tree, i, i*2); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	pairs, err := tree.Scan(nil, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(pairs) != n {
		t.Fatalf("Scan returned %d pairs, want %d", len(pairs), n)
	}
	for i, kv := range pairs {
		if DecodeInt64Key(kv[0]) != int64(i) {
			t.Fatalf("pairs[%d].key = %d, want %d", i, DecodeInt64Key(kv[0]), i)
		}
	}

	bounded, err := tree.Scan(EncodeInt64Key(10), EncodeInt64Key(20))
	if err != nil {
		t.Fatalf("bounded Scan: %v", err)
	}
	if len(bounded) != 10 {
		t.Fatalf("bounded Scan returned %d pairs, want 10", len(bounded))
	}
	if DecodeInt64Key(bounded[0][0]) != 10 || DecodeInt64Key(bounded[len(bounded)-1][0]) != 19 {
		t.Fatalf("bounded Scan range = [%d, %d], want [10, 19]",
			DecodeInt64Key(bounded[0][0]), DecodeInt64Key(bounded[len(bounded)-1][0]))
	}
}

func TestBPlusTreeRemoveThenLookupMiss(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const n = 60
	for i := int64(0); i < n; i++ {
		if _, err := tree.Insert(EncodeInt64Key(i), EncodeInt64Key(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	for i := int64(0); i < n; i += 2 {
		if err := tree.Remove(EncodeInt64Key(i)); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
	}

	for i := int64(0); i < n; i++ {
		_, found, err := tree.GetValue(EncodeInt64Key(i))
		if err != nil {
			t.Fatalf("GetValue(%d): %v", i, err)
		}
		want := i%2 != 0
		if found != want {
			t.Fatalf("GetValue(%d) found = %v, want %v", i, found, want)
		}
	}
}

func TestBPlusTreeRemoveAllCollapsesToEmpty(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const n = 40
	for i := int64(0); i < n; i++ {
		if _, err := tree.Insert(EncodeInt64Key(i), EncodeInt64Key(i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	for i := int64(0); i < n; i++ {
		if err := tree.Remove(EncodeInt64Key(i)); err != nil {
			t.Fatalf("Remove(%d): %v", i, err)
		}
	}

	if !tree.IsEmpty() {
		t.Fatalf("tree should be empty after removing every key")
	}
	pairs, err := tree.Scan(nil, nil)
	if err != nil {
		t.Fatalf("Scan on empty tree: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("Scan on empty tree returned %d pairs, want 0", len(pairs))
	}
}

func TestBPlusTreeConcurrentDisjointInserts(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const perGoroutine = 50
	const goroutines = 8
	done := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		g := g
		go func() {
			for i := 0; i < perGoroutine; i++ {
				key := int64(g*perGoroutine + i)
				if _, err := tree.Insert(EncodeInt64Key(key), EncodeInt64Key(key)); err != nil {
					done <- fmt.Errorf("goroutine %d insert %d: %w", g, key, err)
					return
				}
			}
			done <- nil
		}()
	}
	for g := 0; g < goroutines; g++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	for key := int64(0); key < perGoroutine*goroutines; key++ {
		val, found, err := tree.GetValue(EncodeInt64Key(key))
		if err != nil {
			t.Fatalf("GetValue(%d): %v", key, err)
		}
		if !found || !bytes.Equal(val, EncodeInt64Key(key)) {
			t.Fatalf("GetValue(%d) = (%v, %v), want (%d, true)", key, val, found, key)
		}
	}
}

func mustInsert(tree *BPlusTree, k, v int64) (bool, error) {
	return tree.Insert(EncodeInt64Key(k), EncodeInt64Key(v))
}
