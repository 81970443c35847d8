package index

import "fmt"

// BulkInsert inserts every <key, value> pair in order, stopping at the
// first error. It is a thin convenience wrapper, not a bulk-loading
// algorithm: each pair still goes through the ordinary latch-crabbing
// Insert path.
func (t *BPlusTree) BulkInsert(keys, values [][]byte) (inserted int, err error) {
	if len(keys) != len(values) {
		return 0, fmt.Errorf("index: BulkInsert got %d keys but %d values", len(keys), len(values))
	}
	for i := range keys {
		ok, err := t.Insert(keys[i], values[i])
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Scan returns every key/value pair in [startKey, endKey) in order.
// A nil endKey scans to the end of the tree.
func (t *BPlusTree) Scan(startKey, endKey []byte) ([][2][]byte, error) {
	var it *Iterator
	var err error
	if startKey == nil {
		it, err = t.Begin()
	} else {
		it, err = t.BeginAt(startKey)
	}
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out [][2][]byte
	for it.Valid() {
		if endKey != nil && t.cmp.Compare(it.Key(), endKey) >= 0 {
			break
		}
		out = append(out, [2][]byte{
			append([]byte(nil), it.Key()...),
			append([]byte(nil), it.Value()...),
		})
		if err := it.Next(); err != nil {
			return out, err
		}
	}
	return out, nil
}
