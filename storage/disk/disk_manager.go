// Package disk implements the DiskManager collaborator the storage engine
// consumes: fixed-size page I/O keyed by page id, with no caching and no
// ordering guarantees beyond per-call completion.
package disk

import "github.com/wingdb/wingdb/types"

// Manager is the disk-side contract the buffer pool depends on. It never
// interprets page contents.
type Manager interface {
	ReadPage(id types.PageID, buf []byte) error
	WritePage(id types.PageID, buf []byte) error
	AllocatePage() types.PageID
	DeallocatePage(id types.PageID)
	GetNumReads() uint64
	GetNumWrites() uint64
	Size() int64
	Close() error
}
