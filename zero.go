package fusion

import (
	"fmt"
	"math/big"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	epochDate = civil.Date{Year: 1970, Month: time.January, Day: 1}
	epoch     = time.Unix(0, 0).UTC()
)

// Zero returns the canonical zero value of d: 0 in the qualifier's
// representation, "", the Unix epoch for calendar kinds, the first enum
// symbol, an empty blob, a fresh frozen object from the domain's factory and
// containers holding the minimum number of zero items. Subtypes without a
// zero and unqualified OBJECT domains yield Null.
func Zero(d *Domain) (Value, error) {
	var p any
	switch d.kind {
	case KindAny:
		return Null, nil
	case KindBool:
		p = false
	case KindInteger:
		switch d.qualifier {
		case QualByte:
			p = int8(0)
		case QualShort:
			p = int16(0)
		case QualLong:
			p = int64(0)
		case QualBig:
			p = new(big.Int)
		default:
			p = int32(0)
		}
	case KindDecimal:
		switch d.qualifier {
		case QualFloat:
			p = float32(0)
		case QualDouble:
			p = float64(0)
		default:
			p = decimal.Zero
		}
	case KindString:
		if d.subtype == nil {
			p = ""
		} else if p = d.subtype.Zero; p == nil {
			return Null, nil
		}
	case KindDate:
		p = epochDate
	case KindTime:
		p = civil.Time{}
	case KindDateTime:
		p = civil.DateTime{Date: epochDate}
	case KindInstant:
		p = epoch
	case KindDuration:
		p = time.Duration(0)
	case KindEnum:
		p = d.enum.At(0)
	case KindBlob:
		p = NewBlob(0)
	case KindObject:
		if d.factory == nil {
			return Null, nil
		}
		p = d.factory.Make()
	case KindList:
		l := NewList(d)
		if n := d.minLen(); n > 0 {
			z, err := Zero(d.item)
			if err != nil {
				return Null, err
			}
			for i := 0; i < n; i++ {
				if err := l.Add(z); err != nil {
					return Null, err
				}
			}
		}
		p = l
	case KindMap:
		m := NewMap(d)
		if n := d.minLen(); n > 0 {
			z, err := Zero(d.item)
			if err != nil {
				return Null, err
			}
			for i := 0; i < n; i++ {
				if err := m.Put(fmt.Sprintf("key%d", i), z); err != nil {
					return Null, err
				}
			}
		}
		p = m
	}
	return From(p, d)
}

// inferDomain picks the unranged domain for an untyped Go value.
func inferDomain(x any) (*Domain, error) {
	switch v := x.(type) {
	case bool:
		return boolDomain, nil
	case int8:
		return byteDomain, nil
	case int16:
		return shortDomain, nil
	case int32, int, uint8, uint16:
		return intDomain, nil
	case int64, uint32:
		return longDomain, nil
	case uint64, uint, *big.Int, big.Int:
		return bigDomain, nil
	case float32:
		return floatDomain, nil
	case float64:
		return doubleDomain, nil
	case decimal.Decimal:
		return decimalDomain, nil
	case string:
		return stringDomain, nil
	case civil.Date:
		return dateDomain, nil
	case civil.Time:
		return timeDomain, nil
	case civil.DateTime:
		return dateTimeDomain, nil
	case time.Time:
		return instantDomain, nil
	case time.Duration:
		return durationDomain, nil
	case Composite:
		if f := v.Factory(); f != nil {
			return objectDomain(f), nil
		}
		return anyObjectDomain, nil
	case *List:
		return v.domain, nil
	case *Map:
		return v.domain, nil
	case Enum:
		if v.t == nil {
			return nil, coercionErrorf(CodeInvalidEnum, "zero Enum has no type")
		}
		return &Domain{kind: KindEnum, qualifier: v.t.name, enum: v.t}, nil
	case *Blob, []byte:
		return blobDomain, nil
	}
	t := reflect.TypeOf(x)
	if st, ok := subtypeFor(t); ok {
		return &Domain{kind: KindString, qualifier: st.Name, subtype: st}, nil
	}
	if rb, ok := recordFor(t); ok {
		return objectDomain(rb.factory()), nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return ListAny, nil
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return MapAny, nil
		}
	}
	return nil, coercionErrorf(CodeInvalidType, "cannot infer a kind for %T", x)
}

var (
	boolDomain      = &Domain{kind: KindBool}
	byteDomain      = &Domain{kind: KindInteger, qualifier: QualByte}
	shortDomain     = &Domain{kind: KindInteger, qualifier: QualShort}
	intDomain       = &Domain{kind: KindInteger}
	longDomain      = &Domain{kind: KindInteger, qualifier: QualLong}
	bigDomain       = &Domain{kind: KindInteger, qualifier: QualBig}
	floatDomain     = &Domain{kind: KindDecimal, qualifier: QualFloat}
	doubleDomain    = &Domain{kind: KindDecimal, qualifier: QualDouble}
	decimalDomain   = &Domain{kind: KindDecimal}
	stringDomain    = &Domain{kind: KindString}
	dateDomain      = &Domain{kind: KindDate}
	timeDomain      = &Domain{kind: KindTime}
	dateTimeDomain  = &Domain{kind: KindDateTime}
	instantDomain   = &Domain{kind: KindInstant}
	durationDomain  = &Domain{kind: KindDuration}
	blobDomain      = &Domain{kind: KindBlob}
	anyObjectDomain = &Domain{kind: KindObject}
)
