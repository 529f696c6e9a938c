package fusion

import (
	"encoding/base64"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/reoring/fusion/codec"
)

// convert turns a non-nil, non-Value x into the payload representation of d.
func convert(x any, d *Domain) (any, error) {
	switch d.kind {
	case KindBool:
		if b, ok := x.(bool); ok {
			return b, nil
		}
	case KindInteger:
		return toInteger(x, d.qualifier)
	case KindDecimal:
		return toDecimal(x, d.qualifier)
	case KindString:
		return toString(x, d.subtype)
	case KindDate, KindTime, KindDateTime, KindInstant, KindDuration:
		return toCalendar(x, d.kind)
	case KindEnum:
		return toEnum(x, d.enum)
	case KindBlob:
		return toBlob(x)
	case KindObject:
		return toObject(x, d)
	case KindList:
		return toList(x, d)
	case KindMap:
		return toMap(x, d)
	}
	return nil, invalidType(x, d)
}

func invalidType(x any, d *Domain) error {
	return coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, d.TypeName())
}

// integerOf returns any Go integer as a new *big.Int.
func integerOf(x any) (*big.Int, bool) {
	switch n := x.(type) {
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case int:
		return big.NewInt(int64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case *big.Int:
		return new(big.Int).Set(n), true
	case big.Int:
		return new(big.Int).Set(&n), true
	}
	return nil, false
}

// toInteger widens freely and narrows exactly or fails.
func toInteger(x any, qualifier string) (any, error) {
	switch qualifier {
	case "":
		if n, ok := x.(int32); ok {
			return n, nil
		}
	case QualByte:
		if n, ok := x.(int8); ok {
			return n, nil
		}
	case QualShort:
		if n, ok := x.(int16); ok {
			return n, nil
		}
	case QualLong:
		if n, ok := x.(int64); ok {
			return n, nil
		}
	}
	b, ok := integerOf(x)
	if !ok {
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, QualifiedType(KindInteger, qualifier))
	}
	lo, hi, ok := integerBounds(qualifier)
	if ok && (b.Cmp(big.NewInt(lo)) < 0 || b.Cmp(big.NewInt(hi)) > 0) {
		e := newError(ErrCoercion, CodeOverflow, map[string]any{"qualifier": QualifiedType(KindInteger, qualifier)}, nil)
		e.Message += ": " + b.String()
		return nil, e
	}
	switch qualifier {
	case "":
		return int32(b.Int64()), nil
	case QualByte:
		return int8(b.Int64()), nil
	case QualShort:
		return int16(b.Int64()), nil
	case QualLong:
		return b.Int64(), nil
	default:
		return b, nil
	}
}

func integerBounds(qualifier string) (lo, hi int64, ok bool) {
	switch qualifier {
	case "":
		return math.MinInt32, math.MaxInt32, true
	case QualByte:
		return math.MinInt8, math.MaxInt8, true
	case QualShort:
		return math.MinInt16, math.MaxInt16, true
	case QualLong:
		return math.MinInt64, math.MaxInt64, true
	}
	return 0, 0, false
}

// toDecimal converts any numeric. Floats take any numeric by value
// conversion; decimal.Decimal takes integers exactly and floats through their
// shortest faithful representation.
func toDecimal(x any, qualifier string) (any, error) {
	if f, ok := asFloat(x); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil, coercionErrorf(CodeInvalidType, "cannot represent %v as %s", f, QualifiedType(KindDecimal, qualifier))
	}
	switch qualifier {
	case "":
		switch n := x.(type) {
		case decimal.Decimal:
			return n, nil
		case float32:
			return decimal.NewFromFloat32(n), nil
		case float64:
			return decimal.NewFromFloat(n), nil
		}
		if b, ok := integerOf(x); ok {
			return decimal.NewFromBigInt(b, 0), nil
		}
	case QualDouble:
		f, ok := float64Of(x)
		if !ok {
			break
		}
		if math.IsInf(f, 0) {
			return nil, newError(ErrCoercion, CodeOverflow, map[string]any{"qualifier": "DECIMAL.double"}, nil)
		}
		return f, nil
	case QualFloat:
		f, ok := float32Of(x)
		if !ok {
			break
		}
		if math.IsInf(float64(f), 0) {
			return nil, newError(ErrCoercion, CodeOverflow, map[string]any{"qualifier": "DECIMAL.float"}, nil)
		}
		return f, nil
	}
	return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, QualifiedType(KindDecimal, qualifier))
}

func float64Of(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case decimal.Decimal:
		return decimalFloat64(n), true
	}
	if b, ok := integerOf(x); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, true
	}
	return 0, false
}

func float32Of(x any) (float32, bool) {
	switch n := x.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	}
	f, ok := float64Of(x)
	if !ok {
		return 0, false
	}
	return float32(f), true
}

// decimalFloat64 rounds d to the nearest float64, giving ±Inf past the
// float64 range and 0 below it without expanding the exponent.
func decimalFloat64(d decimal.Decimal) float64 {
	if d.IsZero() {
		return 0
	}
	switch adj := magnitude(d); {
	case adj > 310:
		return math.Inf(d.Sign())
	case adj < -330:
		return 0
	}
	return d.InexactFloat64()
}

// magnitude is the power of ten of d's leading digit: d is within
// [10^m, 10^(m+1)) in absolute value.
func magnitude(d decimal.Decimal) int64 {
	return int64(d.Exponent()) + int64(len(new(big.Int).Abs(d.Coefficient()).String())) - 1
}

// toString converts to and from the base string only; subtypes never convert
// into each other directly.
func toString(x any, sub *Subtype) (any, error) {
	if sub == nil {
		if s, ok := x.(string); ok {
			return s, nil
		}
		if st, ok := subtypeFor(reflect.TypeOf(x)); ok {
			return st.format(x), nil
		}
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to STRING", x)
	}
	if reflect.TypeOf(x) == sub.Type {
		return x, nil
	}
	if s, ok := x.(string); ok {
		p, err := sub.Parse(s)
		if err != nil {
			e := newError(ErrCoercion, CodeInvalidFormat, map[string]any{"kind": "STRING." + sub.Name}, err)
			return nil, e
		}
		return p, nil
	}
	return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to STRING.%s", x, sub.Name)
}

func toCalendar(x any, k Kind) (any, error) {
	s, isText := x.(string)
	var (
		p   any
		err error
	)
	switch k {
	case KindDate:
		if v, ok := x.(civil.Date); ok {
			return v, nil
		}
		if isText {
			p, err = codec.ParseDate(s)
		}
	case KindTime:
		if v, ok := x.(civil.Time); ok {
			return v, nil
		}
		if isText {
			p, err = codec.ParseTime(s)
		}
	case KindDateTime:
		if v, ok := x.(civil.DateTime); ok {
			return v, nil
		}
		if isText {
			p, err = codec.ParseDateTime(s)
		}
	case KindInstant:
		if v, ok := x.(time.Time); ok {
			return v.UTC(), nil
		}
		if isText {
			p, err = codec.ParseInstant(s)
		}
	case KindDuration:
		if v, ok := x.(time.Duration); ok {
			return v, nil
		}
		if isText {
			p, err = codec.ParseDuration(s)
		}
	}
	if !isText {
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, k)
	}
	if err != nil {
		return nil, newError(ErrCoercion, CodeInvalidFormat, map[string]any{"kind": k}, err)
	}
	return p, nil
}

func toEnum(x any, et *EnumType) (any, error) {
	switch v := x.(type) {
	case Enum:
		if v.t == nil {
			return nil, coercionErrorf(CodeInvalidEnum, "zero Enum has no type")
		}
		if et == nil || v.t == et {
			return v, nil
		}
		return nil, coercionErrorf(CodeInvalidType, "enum %s is not %s", v.t.name, et.name)
	case string:
		if et == nil {
			return nil, coercionErrorf(CodeInvalidType, "cannot resolve %q without an enum type", v)
		}
		return et.Of(v)
	}
	return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to ENUM", x)
}

func toBlob(x any) (any, error) {
	var b *Blob
	switch v := x.(type) {
	case *Blob:
		b = v
	case []byte:
		b = NewBlobFrom(v)
	case string:
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(v, "="))
		if err != nil {
			return nil, newError(ErrCoercion, CodeInvalidFormat, map[string]any{"kind": KindBlob}, err)
		}
		b = NewBlobFrom(raw)
	default:
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to BLOB", x)
	}
	if err := b.EnsureRead(); err != nil {
		return nil, err
	}
	return b, nil
}

func toObject(x any, d *Domain) (any, error) {
	c, ok := x.(Composite)
	if !ok {
		if binder, found := recordFor(reflect.TypeOf(x)); found {
			wrapped, err := binder.wrap(x)
			if err != nil {
				return nil, err
			}
			c = wrapped
		} else {
			return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, d.TypeName())
		}
	}
	if d.factory != nil && !sameSchema(c.Schema(), d.factory.Schema()) {
		return nil, coercionErrorf(CodeInvalidType, "object of type %s is not %s", c.Schema().ID(), d.TypeName())
	}
	if err := freeze(c); err != nil {
		return nil, err
	}
	return c, nil
}

func sameSchema(a, b *ObjectSchema) bool {
	return a == b || (a != nil && b != nil && a.ID() == b.ID())
}

// toList reuses a list whose item domain matches, or whose target item domain
// is untyped, and copies into a new typed list otherwise.
func toList(x any, d *Domain) (any, error) {
	if l, ok := x.(*List); ok {
		if d.item.kind == KindAny || l.domain.item.Equal(d.item) {
			if err := l.EnsureRead(); err != nil {
				return nil, err
			}
			return l, nil
		}
		cp := NewList(d)
		for _, item := range l.Values() {
			if err := cp.Add(item); err != nil {
				return nil, err
			}
		}
		if err := cp.DoneWrite(); err != nil {
			return nil, err
		}
		return cp, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, d.TypeName())
	}
	if _, isBytes := x.([]byte); isBytes {
		return nil, coercionErrorf(CodeInvalidType, "cannot convert []byte to %s", d.TypeName())
	}
	l := NewList(d)
	for i := 0; i < rv.Len(); i++ {
		if err := l.Add(rv.Index(i).Interface()); err != nil {
			return nil, err
		}
	}
	if err := l.DoneWrite(); err != nil {
		return nil, err
	}
	return l, nil
}

func toMap(x any, d *Domain) (any, error) {
	if m, ok := x.(*Map); ok {
		if d.item.kind == KindAny || m.domain.item.Equal(d.item) {
			if err := m.EnsureRead(); err != nil {
				return nil, err
			}
			return m, nil
		}
		cp := NewMap(d)
		for k, v := range m.All() {
			if err := cp.Put(k, v); err != nil {
				return nil, err
			}
		}
		if err := cp.DoneWrite(); err != nil {
			return nil, err
		}
		return cp, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, coercionErrorf(CodeInvalidType, "cannot convert %T to %s", x, d.TypeName())
	}
	m := NewMap(d)
	iter := rv.MapRange()
	for iter.Next() {
		if err := m.Put(iter.Key().String(), iter.Value().Interface()); err != nil {
			return nil, err
		}
	}
	if err := m.DoneWrite(); err != nil {
		return nil, err
	}
	return m, nil
}
