package main

import (
	"fmt"

	"github.com/wingdb/wingdb/storage/buffer"
	"github.com/wingdb/wingdb/storage/disk"
	"github.com/wingdb/wingdb/storage/index"
)

// engine bundles the disk manager, buffer pool, and index that every
// subcommand needs, and knows how to tear itself back down cleanly.
type engine struct {
	disk disk.Manager
	pool *buffer.Pool
	tree *index.BPlusTree
}

func openEngine() (*engine, error) {
	var d disk.Manager
	if useMemory {
		d = disk.NewMemoryDiskManager()
	} else {
		fd, err := disk.NewFileDiskManager(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dbPath, err)
		}
		d = fd
	}

	pool := buffer.NewPool(d, poolSize)
	tree, err := index.Open(pool, indexName, index.Int64Comparator{}, valueSize, leafMaxSize, internalMaxSize)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("open index %q: %w", indexName, err)
	}
	return &engine{disk: d, pool: pool, tree: tree}, nil
}

func (e *engine) close() error {
	if err := e.pool.FlushAllPages(); err != nil {
		return err
	}
	return e.disk.Close()
}

// encodeValue pads or truncates s to the configured value width.
func encodeValue(s string) []byte {
	buf := make([]byte, valueSize)
	copy(buf, s)
	return buf
}

func decodeValue(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}
