package buffer

import "errors"

// Sentinel errors returned by Pool, wrapped with page/frame context via
// fmt.Errorf's %w where the caller needs to know which page failed.
var (
	// ErrPoolExhausted means every frame is pinned and none can be
	// evicted to make room for a fetch or allocation.
	ErrPoolExhausted = errors.New("buffer: pool exhausted")
	// ErrPageNotResident means FlushPage, which requires a page to
	// already be in the pool, was given one that isn't. UnpinPage treats
	// a non-resident page as a no-op instead.
	ErrPageNotResident = errors.New("buffer: page not resident in pool")
	// ErrPagePinned means DeletePage was asked to remove a page some
	// caller still holds pinned.
	ErrPagePinned = errors.New("buffer: page is pinned")
)
