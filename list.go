package fusion

import (
	"iter"
	"slices"
	"strconv"

	"github.com/reoring/fusion/iwr"
)

// List is an ordered container whose items are converted into the item
// domain on insertion. It follows the iwr lifecycle; freezing validates the
// length and every item.
type List struct {
	lc     iwr.Lifecycle
	domain *Domain
	items  []Value
}

// NewList creates an empty list in INIT. d must be a LIST domain; nil means ListAny.
func NewList(d *Domain) *List {
	if d == nil {
		d = ListAny
	}
	return &List{domain: d}
}

// Domain returns the LIST domain of the list.
func (l *List) Domain() *Domain { return l.domain }

func (l *List) State() iwr.State  { return l.lc.State() }
func (l *List) DoneInit() error   { return fromIWR(l.lc.DoneInit(l.hook)) }
func (l *List) DoneWrite() error  { return fromIWR(l.lc.DoneWrite(l.hook)) }
func (l *List) EnsureRead() error { return fromIWR(l.lc.EnsureRead(l.hook)) }

func (l *List) hook(iwr.State) error {
	var iss Issues
	if it, ok := l.domain.checkLength(len(l.items)); !ok {
		iss = append(iss, it)
	}
	for i, v := range l.items {
		var sink Issues
		_ = l.domain.item.Validate(v, &sink)
		for _, it := range sink {
			it.Path = "/" + strconv.Itoa(i) + it.Path
			iss = append(iss, it)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// convert runs outside the list lock: freezing a mutable item takes the
// item's own lock.
func (l *List) convert(x any, i int) (Value, error) {
	v, err := From(x, l.domain.item)
	if err != nil {
		return Null, inField(err, CodeInvalidValue, strconv.Itoa(i))
	}
	return v, nil
}

// writable fails the way the mutation at index i would, before anything is
// converted. Converting a mutable argument freezes it.
func (l *List) writable(i int, insert bool) error {
	return fromIWR(l.lc.Mutate(func(iwr.State) error {
		n := len(l.items)
		if insert {
			n++
		}
		if i < 0 || i >= n {
			return noSuchField(i)
		}
		return nil
	}))
}

// admit applies the item range from WRITE on.
func (l *List) admit(v Value, st iwr.State, i int) error {
	if st != iwr.Write {
		return nil
	}
	return inField(l.domain.item.Validate(v, nil), CodeInvalidValue, strconv.Itoa(i))
}

// Len returns the number of items.
func (l *List) Len() int {
	var n int
	_ = l.lc.Do(func(iwr.State) error {
		n = len(l.items)
		return nil
	})
	return n
}

// Get returns the item at index i. It panics when i is out of range.
func (l *List) Get(i int) Value {
	var v Value
	_ = l.lc.Do(func(iwr.State) error {
		v = l.items[i]
		return nil
	})
	return v
}

// Values returns a copy of the items.
func (l *List) Values() []Value {
	var vs []Value
	_ = l.lc.Do(func(iwr.State) error {
		vs = slices.Clone(l.items)
		return nil
	})
	return vs
}

// All yields (index, item) pairs over a snapshot of the list.
func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i, v := range l.Values() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Add appends x.
func (l *List) Add(x any) error {
	if err := l.writable(0, true); err != nil {
		return err
	}
	v, err := l.convert(x, l.Len())
	if err != nil {
		return err
	}
	return fromIWR(l.lc.Mutate(func(st iwr.State) error {
		if err := l.admit(v, st, len(l.items)); err != nil {
			return err
		}
		l.items = append(l.items, v)
		return nil
	}))
}

// Insert puts x at index i, shifting later items.
func (l *List) Insert(i int, x any) error {
	if err := l.writable(i, true); err != nil {
		return err
	}
	v, err := l.convert(x, i)
	if err != nil {
		return err
	}
	return fromIWR(l.lc.Mutate(func(st iwr.State) error {
		if i < 0 || i > len(l.items) {
			return noSuchField(i)
		}
		if err := l.admit(v, st, i); err != nil {
			return err
		}
		l.items = slices.Insert(l.items, i, v)
		return nil
	}))
}

// Set replaces the item at index i.
func (l *List) Set(i int, x any) error {
	if err := l.writable(i, false); err != nil {
		return err
	}
	v, err := l.convert(x, i)
	if err != nil {
		return err
	}
	return fromIWR(l.lc.Mutate(func(st iwr.State) error {
		if i < 0 || i >= len(l.items) {
			return noSuchField(i)
		}
		if err := l.admit(v, st, i); err != nil {
			return err
		}
		l.items[i] = v
		return nil
	}))
}

// Remove deletes the item at index i.
func (l *List) Remove(i int) error {
	return fromIWR(l.lc.Mutate(func(iwr.State) error {
		if i < 0 || i >= len(l.items) {
			return noSuchField(i)
		}
		l.items = slices.Delete(l.items, i, i+1)
		return nil
	}))
}

// Clear removes every item.
func (l *List) Clear() error {
	return fromIWR(l.lc.Mutate(func(iwr.State) error {
		l.items = nil
		return nil
	}))
}

// Clone returns the list in the target state; a READ list cloned for READ
// is returned as is.
func (l *List) Clone(target iwr.State) (*List, error) {
	var (
		cp   *List
		from iwr.State
	)
	_ = l.lc.Do(func(st iwr.State) error {
		from = st
		if st != iwr.Read || target != iwr.Read {
			cp = &List{domain: l.domain, items: slices.Clone(l.items)}
		}
		return nil
	})
	if cp == nil {
		return l, nil
	}
	if err := cp.lc.Restore(from, target, cp.hook); err != nil {
		return nil, fromIWR(err)
	}
	return cp, nil
}

// Equal compares items in order.
func (l *List) Equal(o *List) bool {
	if l == o {
		return true
	}
	if o == nil {
		return false
	}
	return slices.EqualFunc(l.Values(), o.Values(), Value.Equal)
}

func (l *List) String() string { return Value{kind: KindList, v: l}.String() }
