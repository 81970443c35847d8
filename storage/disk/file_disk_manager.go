package disk

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ncw/directio"

	"github.com/wingdb/wingdb/types"
)

// FileDiskManager is the production DiskManager. It stores pages in a flat
// file, one PageSize-byte slot per page id, and opens that file with
// O_DIRECT via directio so that page-sized reads/writes bypass the page
// cache the way a real storage engine's disk manager would. Filesystems
// that reject O_DIRECT (tmpfs, some overlay mounts) get a plain *os.File
// instead; either way every read/write is a single PageSize-aligned I/O.
type FileDiskManager struct {
	mu       sync.Mutex
	file     *os.File
	numFlush uint64
	numReads uint64
	numWrite uint64
	nextPage int32
}

// NewFileDiskManager opens (creating if necessary) the database file at
// path and derives the next allocatable page id from its current size.
func NewFileDiskManager(path string) (*FileDiskManager, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("disk: open %s: %w", path, err)
		}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}

	// Page zero is reserved for the header page, so allocation never
	// starts below page 1 even on an empty file.
	nextPage := int32(info.Size() / types.PageSize)
	if nextPage <= int32(types.HeaderPageID) {
		nextPage = int32(types.HeaderPageID) + 1
	}
	return &FileDiskManager{
		file:     f,
		nextPage: nextPage,
	}, nil
}

func (d *FileDiskManager) ReadPage(id types.PageID, buf []byte) error {
	if len(buf) != types.PageSize {
		return fmt.Errorf("disk: read buffer must be %d bytes, got %d", types.PageSize, len(buf))
	}
	offset := int64(id) * types.PageSize

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.file.ReadAt(buf, offset)
	atomic.AddUint64(&d.numReads, 1)
	if err != nil {
		if err == io.EOF && n < types.PageSize {
			// short read past end-of-file: zero-fill, matches a freshly
			// allocated page that was never written.
			for i := n; i < types.PageSize; i++ {
				buf[i] = 0
			}
			return nil
		}
		return fmt.Errorf("disk: read page %d: %w", id, err)
	}
	return nil
}

func (d *FileDiskManager) WritePage(id types.PageID, buf []byte) error {
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
	atomic.AddUint64(&d.numFlush, 1)
	return nil
}

func (d *FileDiskManager) AllocatePage() types.PageID {
	return types.PageID(atomic.AddInt32(&d.nextPage, 1) - 1)
}

// DeallocatePage is a best-effort no-op: this disk manager never reuses
// page ids, it only tracks the high-water mark for AllocatePage. A real
// deployment would maintain a free list on page zero instead.
func (d *FileDiskManager) DeallocatePage(types.PageID) {}

func (d *FileDiskManager) GetNumReads() uint64 { return atomic.LoadUint64(&d.numReads) }

func (d *FileDiskManager) GetNumWrites() uint64 { return atomic.LoadUint64(&d.numWrite) }

func (d *FileDiskManager) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, err := d.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (d *FileDiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}
