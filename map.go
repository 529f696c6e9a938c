package fusion

import (
	"iter"
	"slices"

	"github.com/reoring/fusion/iwr"
	"github.com/reoring/fusion/nocase"
)

type entry struct {
	key nocase.Key
	val Value
}

// Map is a container keyed by case-insensitive strings. Entries are kept
// sorted by folded key, which is the order of iteration and serialization.
type Map struct {
	lc      iwr.Lifecycle
	domain  *Domain
	entries []entry
}

// NewMap creates an empty map in INIT. d must be a MAP domain; nil means MapAny.
func NewMap(d *Domain) *Map {
	if d == nil {
		d = MapAny
	}
	return &Map{domain: d}
}

func (m *Map) Domain() *Domain { return m.domain }

func (m *Map) State() iwr.State  { return m.lc.State() }
func (m *Map) DoneInit() error   { return fromIWR(m.lc.DoneInit(m.hook)) }
func (m *Map) DoneWrite() error  { return fromIWR(m.lc.DoneWrite(m.hook)) }
func (m *Map) EnsureRead() error { return fromIWR(m.lc.EnsureRead(m.hook)) }

func (m *Map) hook(iwr.State) error {
	var iss Issues
	if it, ok := m.domain.checkLength(len(m.entries)); !ok {
		iss = append(iss, it)
	}
	for _, e := range m.entries {
		var sink Issues
		_ = m.domain.item.Validate(e.val, &sink)
		for _, it := range sink {
			it.Path = "/" + escapePointer(e.key.String()) + it.Path
			iss = append(iss, it)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (m *Map) search(k nocase.Key) (int, bool) {
	return slices.BinarySearchFunc(m.entries, k, func(e entry, k nocase.Key) int { return e.key.Compare(k) })
}

func (m *Map) Len() int {
	var n int
	_ = m.lc.Do(func(iwr.State) error {
		n = len(m.entries)
		return nil
	})
	return n
}

// Get looks up k ignoring case.
func (m *Map) Get(k string) (Value, bool) {
	var (
		v  Value
		ok bool
	)
	key := nocase.New(k)
	_ = m.lc.Do(func(iwr.State) error {
		var i int
		if i, ok = m.search(key); ok {
			v = m.entries[i].val
		}
		return nil
	})
	return v, ok
}

// Put converts x into the item domain and stores it under k. Replacing an
// entry keeps the spelling of the existing key. A READ map rejects x before
// converting it.
func (m *Map) Put(k string, x any) error {
	if err := fromIWR(m.lc.Mutate(func(iwr.State) error { return nil })); err != nil {
		return err
	}
	v, err := From(x, m.domain.item)
	if err != nil {
		return inField(err, CodeInvalidValue, k)
	}
	key := nocase.New(k)
	return fromIWR(m.lc.Mutate(func(st iwr.State) error {
		if st == iwr.Write {
			if err := m.domain.item.Validate(v, nil); err != nil {
				return inField(err, CodeInvalidValue, k)
			}
		}
		i, found := m.search(key)
		if found {
			m.entries[i].val = v
			return nil
		}
		m.entries = slices.Insert(m.entries, i, entry{key: key, val: v})
		return nil
	}))
}

// Remove deletes k and reports whether it was present.
func (m *Map) Remove(k string) (bool, error) {
	var found bool
	key := nocase.New(k)
	err := m.lc.Mutate(func(iwr.State) error {
		var i int
		if i, found = m.search(key); found {
			m.entries = slices.Delete(m.entries, i, i+1)
		}
		return nil
	})
	return found, fromIWR(err)
}

func (m *Map) Clear() error {
	return fromIWR(m.lc.Mutate(func(iwr.State) error {
		m.entries = nil
		return nil
	}))
}

func (m *Map) snapshot() []entry {
	var es []entry
	_ = m.lc.Do(func(iwr.State) error {
		es = slices.Clone(m.entries)
		return nil
	})
	return es
}

// Keys returns the keys in iteration order.
func (m *Map) Keys() []string {
	es := m.snapshot()
	keys := make([]string, len(es))
	for i, e := range es {
		keys[i] = e.key.String()
	}
	return keys
}

// All yields entries in case-insensitive key order over a snapshot.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, e := range m.snapshot() {
			if !yield(e.key.String(), e.val) {
				return
			}
		}
	}
}

func (m *Map) Clone(target iwr.State) (*Map, error) {
	var (
		cp   *Map
		from iwr.State
	)
	_ = m.lc.Do(func(st iwr.State) error {
		from = st
		if st != iwr.Read || target != iwr.Read {
			cp = &Map{domain: m.domain, entries: slices.Clone(m.entries)}
		}
		return nil
	})
	if cp == nil {
		return m, nil
	}
	if err := cp.lc.Restore(from, target, cp.hook); err != nil {
		return nil, fromIWR(err)
	}
	return cp, nil
}

// Equal compares keys ignoring case and values exactly.
func (m *Map) Equal(o *Map) bool {
	if m == o {
		return true
	}
	if o == nil {
		return false
	}
	return slices.EqualFunc(m.snapshot(), o.snapshot(), func(a, b entry) bool {
		return a.key.Equal(b.key) && a.val.Equal(b.val)
	})
}

func (m *Map) String() string { return Value{kind: KindMap, v: m}.String() }
