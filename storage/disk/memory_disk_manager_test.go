package disk

import (
	"bytes"
	"testing"

	"github.com/wingdb/wingdb/types"
)

func TestMemoryDiskManagerReadAfterWrite(t *testing.T) {
	d := NewMemoryDiskManager()

	id := d.AllocatePage()
	buf := make([]byte, types.PageSize)
	copy(buf, []byte("payload"))
	if err := d.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	read := make([]byte, types.PageSize)
	if err := d.ReadPage(id, read); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(read, buf) {
		t.Fatalf("read back different content")
	}
}

func TestMemoryDiskManagerReadPastEOFZeroFills(t *testing.T) {
	d := NewMemoryDiskManager()
	id := d.AllocatePage()

	buf := make([]byte, types.PageSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	if err := d.ReadPage(id, buf); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %#x, want 0 (never-written page should zero-fill)", i, b)
		}
	}
}

func TestMemoryDiskManagerAllocatePageIsMonotonic(t *testing.T) {
	d := NewMemoryDiskManager()
	first := d.AllocatePage()
	second := d.AllocatePage()
	if second != first+1 {
		t.Fatalf("AllocatePage: got %d then %d, want consecutive ids", first, second)
	}
}
