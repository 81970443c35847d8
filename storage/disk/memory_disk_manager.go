package disk

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dsnet/golib/memfile"

	"github.com/wingdb/wingdb/types"
)

// MemoryDiskManager is a DiskManager backed entirely by memory via
// dsnet/golib/memfile's ReaderAt/WriterAt-backed byte buffer, so tests (and
// the CLI's --memory flag) never touch the real filesystem while still
// exercising the exact same offset arithmetic a real file would need.
type MemoryDiskManager struct {
	mu       sync.Mutex
	file     *memfile.File
	numReads uint64
	numWrite uint64
	nextPage int32
}

// NewMemoryDiskManager returns an empty in-memory disk. Page ids are handed
// out from 1: page zero is reserved for the header page.
func NewMemoryDiskManager() *MemoryDiskManager {
	return &MemoryDiskManager{
		file:     memfile.New(nil),
		nextPage: int32(types.HeaderPageID) + 1,
	}
}

func (d *MemoryDiskManager) ReadPage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("disk: read buffer must be %d bytes, got %d", types.PageSize, len(buf))
	}
	offset := int64(id) * types.PageSize

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.file.ReadAt(buf, offset)
	atomic.AddUint64(&d.numReads, 1)
	if err != nil && n < types.PageSize {
		for i := n; i < types.PageSize; i++ {
			buf[i] = 0
		}
		return nil
	}
	return nil
}

func (d *MemoryDiskManager) WritePage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("disk: write buffer must be %d bytes, got %d", types.PageSize, len(buf))
	}
	offset := int64(id) * types.PageSize

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("disk: write page %d: %w", id, err)
	}
	atomic.AddUint64(&d.numWrite, 1)
	return nil
}

func (d *MemoryDiskManager) AllocatePage() types.PageID {
	return types.PageID(atomic.AddInt32(&d.nextPage, 1) - 1)
}

func (d *MemoryDiskManager) DeallocatePage(types.PageID) {}

func (d *MemoryDiskManager) GetNumReads() uint64 { return atomic.LoadUint64(&d.numReads) }

func (d *MemoryDiskManager) GetNumWrites() uint64 { return atomic.LoadUint64(&d.numWrite) }

func (d *MemoryDiskManager) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.file.Bytes()))
}

func (d *MemoryDiskManager) Close() error { return nil }
