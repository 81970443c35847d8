package index

import (
	"bytes"
	"strings"
	"testing"
)

func TestBPlusTreeDumpShowsInternalAndLeafPages(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	const n = 30
	for i := int64(0); i < n; i++ {
		if _, err := mustInsert(tree, i, i); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "internal") {
		t.Fatalf("Dump output has no internal page, want at least one level above the leaves:\n%s", out)
	}
	if !strings.Contains(out, "leaf") {
		t.Fatalf("Dump output has no leaf page:\n%s", out)
	}
}

func TestBPlusTreeDumpEmptyTree(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "empty") {
		t.Fatalf("Dump of empty tree = %q, want mention of empty", buf.String())
	}
}
