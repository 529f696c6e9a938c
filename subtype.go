package fusion

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"path"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/reoring/fusion/nocase"
)

// Subtype is an open-registered refinement of STRING with its own Go
// representation. Subtypes convert to and from the base string only.
type Subtype struct {
	Name  string
	Type  reflect.Type
	Parse func(string) (any, error)
	// Format renders the canonical text; nil uses fmt.Sprint.
	Format func(any) string
	// Zero is the zero payload; nil makes the zero value NULL.
	Zero any
	// Compare orders payloads; nil compares Format output.
	Compare func(a, b any) int
	// Key returns a text that is equal exactly when Compare reports 0; nil uses Format.
	Key func(any) string
}

// NewSubtype builds a Subtype for payload type T.
func NewSubtype[T any](name string, parse func(string) (T, error), format func(T) string, compare func(a, b T) int) *Subtype {
	st := &Subtype{
		Name: name,
		Type: reflect.TypeFor[T](),
		Parse: func(s string) (any, error) {
			v, err := parse(s)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	if format != nil {
		st.Format = func(x any) string { return format(x.(T)) }
	}
	if compare != nil {
		st.Compare = func(a, b any) int { return compare(a.(T), b.(T)) }
	}
	return st
}

func (s *Subtype) format(x any) string {
	if s.Format != nil {
		return s.Format(x)
	}
	return fmt.Sprint(x)
}

func (s *Subtype) compare(a, b any) int {
	if s.Compare != nil {
		return s.Compare(a, b)
	}
	return strings.Compare(s.format(a), s.format(b))
}

func (s *Subtype) key(x any) string {
	if s.Key != nil {
		return s.Key(x)
	}
	return s.format(x)
}

var (
	subtypeMu     sync.RWMutex
	subtypeByName = map[string]*Subtype{}
	subtypeByType = map[reflect.Type]*Subtype{}
)

// RegisterSubtype adds a string subtype. Register subtypes at process start,
// before compiling domains that reference them. A duplicate name is a
// configuration error. When several subtypes share a Go type, the first one
// registered is used to infer the kind of untyped values.
func RegisterSubtype(st *Subtype) error {
	if st == nil || st.Name == "" || st.Type == nil || st.Parse == nil {
		return configErrorf("subtype needs a name, a type and a parser")
	}
	subtypeMu.Lock()
	defer subtypeMu.Unlock()
	key := nocase.Fold(st.Name)
	if _, dup := subtypeByName[key]; dup {
		return configError(CodeDuplicateName, map[string]any{"name": "STRING." + st.Name})
	}
	subtypeByName[key] = st
	if _, taken := subtypeByType[st.Type]; !taken {
		subtypeByType[st.Type] = st
	}
	logger().Debug("registered string subtype", "name", st.Name, "type", st.Type.String())
	return nil
}

// MustRegisterSubtype is like RegisterSubtype but panics on error.
func MustRegisterSubtype(st *Subtype) {
	if err := RegisterSubtype(st); err != nil {
		panic(err)
	}
}

// LookupSubtype finds a registered subtype by name, ignoring case.
func LookupSubtype(name string) (*Subtype, bool) {
	subtypeMu.RLock()
	defer subtypeMu.RUnlock()
	st, ok := subtypeByName[nocase.Fold(name)]
	return st, ok
}

func subtypeFor(t reflect.Type) (*Subtype, bool) {
	subtypeMu.RLock()
	defer subtypeMu.RUnlock()
	st, ok := subtypeByType[t]
	return st, ok
}

// Path is the payload of the "path" subtype: a slash-separated, cleaned path.
type Path string

// Char is the payload of the "char" subtype: exactly one rune.
type Char rune

func (c Char) String() string { return string(rune(c)) }

func parsePath(s string) (Path, error) {
	if s == "" {
		return "", errors.New("empty path")
	}
	return Path(path.Clean(s)), nil
}

func parseChar(s string) (Char, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("not a single character: %q", s)
	}
	return Char(r), nil
}

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url needs a scheme and a host: %q", s)
	}
	return u, nil
}

func init() {
	key := NewSubtype("nocase", func(s string) (nocase.Key, error) { return nocase.New(s), nil },
		nocase.Key.String, nocase.Key.Compare)
	key.Zero = nocase.New("")
	key.Key = func(x any) string { return x.(nocase.Key).Folded() }

	p := NewSubtype("path", parsePath, func(p Path) string { return string(p) }, nil)

	uri := NewSubtype("uri", url.Parse, (*url.URL).String, nil)
	link := NewSubtype("url", parseURL, (*url.URL).String, nil)

	char := NewSubtype("char", parseChar, Char.String, func(a, b Char) int { return cmp.Compare(a, b) })

	ident := NewSubtype("ident", nocase.ParseSimpleIdent, nocase.SimpleIdent.String, nocase.SimpleIdent.Compare)
	ident.Key = func(x any) string { return x.(nocase.SimpleIdent).Key().Folded() }
	dotted := NewSubtype("dotident", nocase.ParseIdent, nocase.Ident.String, nocase.Ident.Compare)
	dotted.Key = func(x any) string { return x.(nocase.Ident).Key().Folded() }

	id := NewSubtype("uuid", uuid.Parse, uuid.UUID.String, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	id.Zero = uuid.Nil

	ver := NewSubtype("semver", semver.NewVersion, (*semver.Version).String, (*semver.Version).Compare)
	ver.Zero = semver.New(0, 0, 0, "", "")

	for _, st := range []*Subtype{key, p, uri, link, char, ident, dotted, id, ver} {
		MustRegisterSubtype(st)
	}
}
