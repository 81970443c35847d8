package buffer

import (
	"github.com/wingdb/wingdb/interfaces"
	"github.com/wingdb/wingdb/storage/page"
	"github.com/wingdb/wingdb/types"
)

// PoolAdapter exposes a Pool through the interfaces.BufferPool seam, for
// callers (the CLI's diagnostic commands, tests standing in a fake pool)
// that want to depend on the seam rather than *Pool directly.
type PoolAdapter struct {
	*Pool
}

func NewPoolAdapter(p *Pool) interfaces.BufferPool {
	return &PoolAdapter{p}
}

func (a *PoolAdapter) FetchPage(id types.PageID) (interfaces.Frame, error) {
	fr, err := a.Pool.FetchPage(id)
	if err != nil {
		return nil, err
	}
	return &frameAdapter{fr}, nil
}

func (a *PoolAdapter) NewPage() (interfaces.Frame, error) {
	fr, err := a.Pool.NewPage()
	if err != nil {
		return nil, err
	}
	return &frameAdapter{fr}, nil
}

type frameAdapter struct {
	*page.Page
}

var _ interfaces.Frame = (*frameAdapter)(nil)
