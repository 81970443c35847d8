package buffer

import (
	"testing"

	"github.com/wingdb/wingdb/storage/disk"
)

func TestPoolAdapterRoundTripsThroughSeam(t *testing.T) {
	pool := NewPool(disk.NewMemoryDiskManager(), 4)
	adapter := NewPoolAdapter(pool)

	fr, err := adapter.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	id := fr.PageID()
	if fr.PinCount() != 1 {
		t.Fatalf("PinCount = %d, want 1", fr.PinCount())
	}
	if err := adapter.UnpinPage(id, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	fetched, err := adapter.FetchPage(id)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if fetched.PageID() != id {
		t.Fatalf("FetchPage returned page %d, want %d", fetched.PageID(), id)
	}
	if err := adapter.UnpinPage(id, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := adapter.DeletePage(id); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
}
