package fusion

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ToNative converts a value tree into plain Go values: nil, bool, the integer
// and decimal representations, string (subtypes in their text form), the
// calendar types, []byte for blobs, []any for lists and map[string]any for
// maps and objects. Enums become their symbol.
func ToNative(v Value) any {
	if v.IsNull() {
		return nil
	}
	switch p := v.v.(type) {
	case Composite:
		out := map[string]any{}
		for name, fv := range p.Fields() {
			out[name] = ToNative(fv)
		}
		return out
	case *List:
		vs := p.Values()
		out := make([]any, len(vs))
		for i, item := range vs {
			out[i] = ToNative(item)
		}
		return out
	case *Map:
		out := make(map[string]any, p.Len())
		for k, item := range p.All() {
			out[k] = ToNative(item)
		}
		return out
	case *Blob:
		return p.Bytes()
	case Enum:
		return p.Symbol()
	}
	if v.kind == KindString {
		return textOf(KindString, v.v)
	}
	return v.v
}

// FromNative converts plain Go values using the untyped inference rules.
// json.Number, as produced by decoders in UseNumber mode, becomes INTEGER
// when it is integral and DECIMAL otherwise; []any and map[string]any
// recurse.
func FromNative(x any) (Value, error) {
	switch n := x.(type) {
	case json.Number:
		return numberValue(n.String())
	case []any:
		l := NewList(ListAny)
		for _, item := range n {
			v, err := FromNative(item)
			if err != nil {
				return Null, err
			}
			if err := l.Add(v); err != nil {
				return Null, err
			}
		}
		return From(l, ListAny)
	case map[string]any:
		m := NewMap(MapAny)
		for k, item := range n {
			v, err := FromNative(item)
			if err != nil {
				return Null, err
			}
			if err := m.Put(k, v); err != nil {
				return Null, err
			}
		}
		return From(m, MapAny)
	}
	return Of(x)
}

func numberValue(text string) (Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if b, ok := new(big.Int).SetString(text, 10); ok {
			return narrowInteger(b), nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Null, newError(ErrCoercion, CodeInvalidFormat, map[string]any{"kind": KindDecimal}, err)
	}
	return From(d, nil)
}

// narrowInteger picks the narrowest of INTEGER, INTEGER.long and INTEGER.big.
func narrowInteger(b *big.Int) Value {
	if b.IsInt64() {
		n := b.Int64()
		if n == int64(int32(n)) {
			return Value{kind: KindInteger, v: int32(n)}
		}
		return Value{kind: KindInteger, v: n}
	}
	return Value{kind: KindInteger, v: b}
}

// MarshalJSON writes the canonical form.
func (v Value) MarshalJSON() ([]byte, error) { return Marshal(v) }

// UnmarshalJSON reads untyped; see Reader.Read with a nil domain.
func (v *Value) UnmarshalJSON(data []byte) error {
	out, err := Unmarshal(data, AnyDomain)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// DecodeNative decodes arbitrary JSON with go-json into plain values and
// converts them with FromNative. Unlike Unmarshal it accepts duplicate keys;
// the last one wins.
func DecodeNative(data []byte) (Value, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return Null, newError(ErrParse, CodeParseError, nil, err)
	}
	return FromNative(x)
}
