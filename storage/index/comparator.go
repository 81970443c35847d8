package index

import (
	"encoding/binary"

	"github.com/wingdb/wingdb/types"
)

// Int64Comparator orders 8-byte little-endian encoded int64 keys.
type Int64Comparator struct{}

func (Int64Comparator) KeySize() int { return 8 }

func (Int64Comparator) Compare(a, b []byte) int {
	av := int64(binary.LittleEndian.Uint64(a))
	bv := int64(binary.LittleEndian.Uint64(b))
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// EncodeInt64Key encodes v as an 8-byte little-endian key suitable for
// Int64Comparator.
func EncodeInt64Key(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

// DecodeInt64Key reverses EncodeInt64Key.
func DecodeInt64Key(key []byte) int64 {
	return int64(binary.LittleEndian.Uint64(key))
}

// StringComparator orders fixed-width, NUL-padded string keys of the
// given width.
type StringComparator struct {
	Width int
}

func (c StringComparator) KeySize() int { return c.Width }

func (c StringComparator) Compare(a, b []byte) int {
	for i := 0; i < c.Width; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// EncodeStringKey NUL-pads or truncates s to width bytes.
func EncodeStringKey(s string, width int) []byte {
	buf := make([]byte, width)
	n := copy(buf, s)
	_ = n
	return buf
}

// DecodeStringKey strips trailing NUL padding.
func DecodeStringKey(key []byte) string {
	i := 0
	for i < len(key) && key[i] != 0 {
		i++
	}
	return string(key[:i])
}

var _ types.Comparator = Int64Comparator{}
var _ types.Comparator = StringComparator{}
