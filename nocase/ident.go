package nocase

import (
	"fmt"
	"regexp"
	"strings"
)

const simplePattern = `[_\p{L}][_\p{L}\d]*`

var (
	simpleRE = regexp.MustCompile(`^` + simplePattern + `$`)
	dottedRE = regexp.MustCompile(`^` + simplePattern + `(\.` + simplePattern + `)*$`)
)

// Ident is a case-insensitive identifier made of one or more parts joined by
// dots, e.g. "billing.Invoice".
type Ident struct{ k Key }

// SimpleIdent is an Ident with exactly one part.
type SimpleIdent struct{ k Key }

// ParseIdent validates s as a dotted identifier.
func ParseIdent(s string) (Ident, error) {
	if !dottedRE.MatchString(s) {
		return Ident{}, fmt.Errorf("nocase: not a valid ident: %q", s)
	}
	return Ident{k: New(s)}, nil
}

// ParseSimpleIdent validates s as a single-part identifier.
func ParseSimpleIdent(s string) (SimpleIdent, error) {
	if !simpleRE.MatchString(s) {
		return SimpleIdent{}, fmt.Errorf("nocase: not a valid simple ident: %q", s)
	}
	return SimpleIdent{k: New(s)}, nil
}

// JoinIdent joins parts with dots and validates the result.
func JoinIdent(parts ...string) (Ident, error) { return ParseIdent(strings.Join(parts, ".")) }

func (i Ident) String() string      { return i.k.s }
func (i Ident) Key() Key            { return i.k }
func (i Ident) Equal(o Ident) bool  { return i.k.Equal(o.k) }
func (i Ident) Compare(o Ident) int { return i.k.Compare(o.k) }
func (i Ident) Count() int          { return strings.Count(i.k.s, ".") + 1 }

func (i SimpleIdent) String() string            { return i.k.s }
func (i SimpleIdent) Key() Key                  { return i.k }
func (i SimpleIdent) Ident() Ident              { return Ident(i) }
func (i SimpleIdent) Equal(o SimpleIdent) bool  { return i.k.Equal(o.k) }
func (i SimpleIdent) Compare(o SimpleIdent) int { return i.k.Compare(o.k) }

// Parts splits the identifier at its dots.
func (i Ident) Parts() []SimpleIdent {
	raw := strings.Split(i.k.s, ".")
	out := make([]SimpleIdent, len(raw))
	for n, p := range raw {
		out[n] = SimpleIdent{k: New(p)}
	}
	return out
}

// Head returns the first part.
func (i Ident) Head() SimpleIdent { return i.Parts()[0] }

// Tail returns everything after the first part; ok is false for a single part.
func (i Ident) Tail() (tail Ident, ok bool) {
	dot := strings.IndexByte(i.k.s, '.')
	if dot < 0 {
		return Ident{}, false
	}
	return Ident{k: New(i.k.s[dot+1:])}, true
}

// IsPrefixOf reports whether i names o or one of o's ancestors, comparing
// whole parts only.
func (i Ident) IsPrefixOf(o Ident) bool {
	ip, op := i.Parts(), o.Parts()
	if len(ip) > len(op) {
		return false
	}
	for n := range ip {
		if !ip[n].Equal(op[n]) {
			return false
		}
	}
	return true
}
