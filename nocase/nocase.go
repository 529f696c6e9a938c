// Package nocase provides case-insensitive strings used as map keys and field
// names, plus case-insensitive dotted identifiers.
//
// Equality, ordering and hashing go through Unicode case folding
// (golang.org/x/text/cases), so "B", "b" and "ß"/"ss"-style folds compare the
// way a case-insensitive user would expect. The original spelling is kept for
// display and serialization.
package nocase

import (
	"hash/fnv"
	"strings"

	"golang.org/x/text/cases"
)

// Key is a string whose equality and ordering ignore case.
// Compare keys with Equal or Compare, not ==.
type Key struct {
	s      string
	folded string
}

// New returns a Key for s.
func New(s string) Key { return Key{s: s, folded: Fold(s)} }

// Fold returns the case-folded form of s.
func Fold(s string) string {
	// A Caser is stateful; one per call keeps Fold safe for concurrent use.
	return cases.Fold().String(s)
}

// String returns the original spelling.
func (k Key) String() string { return k.s }

// Folded returns the folded form used for comparison.
func (k Key) Folded() string { return k.folded }

// IsZero reports whether k is the empty key.
func (k Key) IsZero() bool { return k.s == "" }

// Equal reports whether k and o are equal ignoring case.
func (k Key) Equal(o Key) bool { return k.folded == o.folded }

// Compare orders keys lexically ignoring case.
func (k Key) Compare(o Key) int { return strings.Compare(k.folded, o.folded) }

// Hash is consistent with Equal.
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.folded))
	return h.Sum64()
}

// EqualFold reports whether a and b are equal ignoring case.
func EqualFold(a, b string) bool { return a == b || Fold(a) == Fold(b) }

// Compare orders a and b ignoring case.
func Compare(a, b string) int { return strings.Compare(Fold(a), Fold(b)) }
