package index

import "errors"

// ErrWrongKeySize is returned wrapped (via fmt.Errorf's %w) whenever a
// caller passes a key whose length doesn't match the tree's
// Comparator.KeySize(). GetValue reports found-or-not-found and Insert
// reports a duplicate key through a plain bool rather than a sentinel, and
// Remove treats an absent key as a no-op, since these are expected
// outcomes, not failures.
var ErrWrongKeySize = errors.New("index: key has wrong size for this tree's comparator")
