package fusion

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// Value is an immutable (kind, payload) pair. The zero Value is Null, the
// single value of kind ANY; every other value carries a non-nil payload in
// the representation selected by its domain's qualifier:
//
//	BOOL      bool
//	INTEGER   int32, int8 (byte), int16 (short), int64 (long), *big.Int (big)
//	DECIMAL   decimal.Decimal, float32 (float), float64 (double)
//	STRING    string, or the Go type of a registered subtype
//	DATE      civil.Date
//	TIME      civil.Time
//	DATETIME  civil.DateTime
//	INSTANT   time.Time (UTC)
//	DURATION  time.Duration
//	OBJECT    Composite
//	LIST      *List
//	MAP       *Map
//	ENUM      Enum
//	BLOB      *Blob
//
// Mutable payloads (objects, lists, maps, blobs) are always in the READ state.
type Value struct {
	kind Kind
	v    any
}

// Null is the universal null value.
var Null = Value{}

// Of converts x using the untyped inference rules (see From with a nil domain).
func Of(x any) (Value, error) { return From(x, nil) }

// MustOf is like Of but panics on error.
func MustOf(x any) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

// From converts x into a Value of d's kind and representation. A nil or ANY
// domain infers the kind from x's Go type. A Value must already be of d's
// kind; its payload is then converted to d's representation. Mutable payloads are advanced to READ, which is why
// assignment may fail with the validation errors of their freeze hook.
func From(x any, d *Domain) (Value, error) {
	if v, ok := x.(Value); ok {
		if v.IsNull() {
			return Null, nil
		}
		if d == nil || d.kind == KindAny {
			return v, nil
		}
		if v.kind != d.kind {
			return Null, coercionErrorf(CodeInvalidType, "cannot assign %s to %s", v.kind, d.TypeName())
		}
		x = v.v
	}
	if isNil(x) {
		return Null, nil
	}
	if d == nil || d.kind == KindAny {
		inferred, err := inferDomain(x)
		if err != nil {
			return Null, err
		}
		d = inferred
	}
	p, err := convert(x, d)
	if err != nil {
		return Null, err
	}
	return Value{kind: d.kind, v: p}, nil
}

// MustFrom is like From but panics on error.
func MustFrom(x any, d *Domain) Value {
	v, err := From(x, d)
	if err != nil {
		panic(err)
	}
	return v
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Kind returns the value's kind; KindAny for Null.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.v == nil }

// Payload returns the underlying representation, nil for Null.
func (v Value) Payload() any { return v.v }

// As returns the payload as T.
func As[T any](v Value) (T, bool) {
	t, ok := v.v.(T)
	return t, ok
}

// Int64 returns an INTEGER payload as int64 when it fits.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	b, ok := integerOf(v.v)
	if !ok || !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// BigInt returns an INTEGER payload as a new *big.Int.
func (v Value) BigInt() (*big.Int, bool) {
	if v.kind != KindInteger {
		return nil, false
	}
	return integerOf(v.v)
}

// Decimal returns an INTEGER or DECIMAL payload as a decimal.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInteger, KindDecimal:
		p, err := toDecimal(v.v, "")
		if err != nil {
			return decimal.Zero, false
		}
		return p.(decimal.Decimal), true
	}
	return decimal.Zero, false
}

// Text returns the text form of string-like payloads: strings and their
// subtypes, calendar kinds, enums and blobs. ok is false for other kinds.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindDate, KindTime, KindDateTime, KindInstant, KindDuration, KindEnum, KindBlob:
		return textOf(v.kind, v.v), true
	}
	return "", false
}

// Equal reports whether v and o have the same kind and equal payloads.
// Representations matter: a short 5 is not equal to an int 5.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.v == nil || o.v == nil {
		return v.v == nil && o.v == nil
	}
	return payloadEqual(v.kind, v.v, o.v)
}

// Compare orders two values of the same kind. Null sorts before everything.
// Containers and blobs are not comparable.
func (v Value) Compare(o Value) (int, error) {
	switch {
	case v.IsNull() && o.IsNull():
		return 0, nil
	case v.IsNull():
		return -1, nil
	case o.IsNull():
		return 1, nil
	}
	if v.kind != o.kind {
		return 0, newError(ErrCoercion, CodeNotComparable, nil,
			fmt.Errorf("%s vs %s", v.kind, o.kind))
	}
	return payloadCompare(v.kind, v.v, o.v)
}

// Hash is consistent with Equal.
func (v Value) Hash() uint64 {
	if v.v == nil {
		return 0
	}
	switch p := v.v.(type) {
	case Composite:
		return p.Hash()
	case *List:
		return uint64(v.kind)<<56 ^ uint64(p.Len())
	case *Map:
		return uint64(v.kind)<<56 ^ uint64(p.Len())
	case *Blob:
		h := fnv.New64a()
		_, _ = h.Write(p.Bytes())
		return h.Sum64()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte{byte(v.kind)})
	_, _ = h.Write([]byte(hashText(v.kind, v.v)))
	return h.Sum64()
}

// String returns the canonical JSON text of v.
func (v Value) String() string {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(v); err != nil {
		return fmt.Sprintf("!(%v)", err)
	}
	return buf.String()
}
