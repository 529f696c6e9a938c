package fusion

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/reoring/fusion/codec"
)

func payloadEqual(k Kind, a, b any) bool {
	switch k {
	case KindInteger:
		if x, ok := a.(*big.Int); ok {
			y, ok := b.(*big.Int)
			return ok && x.Cmp(y) == 0
		}
		return a == b
	case KindDecimal:
		if x, ok := a.(decimal.Decimal); ok {
			y, ok := b.(decimal.Decimal)
			return ok && cmpDecimal(x, y) == 0
		}
		return a == b
	case KindString:
		if reflect.TypeOf(a) != reflect.TypeOf(b) {
			return false
		}
		if _, ok := a.(string); ok {
			return a == b
		}
		st, ok := subtypeFor(reflect.TypeOf(a))
		if !ok {
			return false
		}
		return st.compare(a, b) == 0
	case KindInstant:
		return a.(time.Time).Equal(b.(time.Time))
	case KindObject:
		x, y := a.(Composite), b.(Composite)
		return x.Equal(y)
	case KindList:
		return a.(*List).Equal(b.(*List))
	case KindMap:
		return a.(*Map).Equal(b.(*Map))
	case KindBlob:
		x, y := a.(*Blob), b.(*Blob)
		return x == y || bytes.Equal(x.Bytes(), y.Bytes())
	}
	return a == b
}

func payloadCompare(k Kind, a, b any) (int, error) {
	switch k {
	case KindBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	case KindInteger:
		x, _ := integerOf(a)
		y, _ := integerOf(b)
		return x.Cmp(y), nil
	case KindDecimal:
		return compareDecimal(a, b), nil
	case KindString:
		return compareStrings(a, b)
	case KindDate:
		return compareDate(a.(civil.Date), b.(civil.Date)), nil
	case KindTime:
		return compareTime(a.(civil.Time), b.(civil.Time)), nil
	case KindDateTime:
		x, y := a.(civil.DateTime), b.(civil.DateTime)
		return cmp.Or(compareDate(x.Date, y.Date), compareTime(x.Time, y.Time)), nil
	case KindInstant:
		return a.(time.Time).Compare(b.(time.Time)), nil
	case KindDuration:
		return cmp.Compare(a.(time.Duration), b.(time.Duration)), nil
	case KindEnum:
		x, y := a.(Enum), b.(Enum)
		if x.t != y.t {
			return 0, newError(ErrCoercion, CodeNotComparable, nil,
				fmt.Errorf("enum %s vs %s", x.t.name, y.t.name))
		}
		return cmp.Compare(x.ord, y.ord), nil
	case KindObject:
		return a.(Composite).Compare(b.(Composite))
	}
	return 0, newError(ErrCoercion, CodeNotComparable, nil, fmt.Errorf("%s values", k))
}

func compareDate(a, b civil.Date) int {
	return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month), cmp.Compare(a.Day, b.Day))
}

func compareTime(a, b civil.Time) int {
	return cmp.Or(cmp.Compare(a.Hour, b.Hour), cmp.Compare(a.Minute, b.Minute),
		cmp.Compare(a.Second, b.Second), cmp.Compare(a.Nanosecond, b.Nanosecond))
}

// compareDecimal orders mixed decimal representations. Two floats compare as
// floats; anything involving decimal.Decimal compares exactly.
func compareDecimal(a, b any) int {
	fa, aFloat := asFloat(a)
	fb, bFloat := asFloat(b)
	if aFloat && bFloat {
		return cmp.Compare(fa, fb)
	}
	da, _ := toDecimal(a, "")
	db, _ := toDecimal(b, "")
	return cmpDecimal(da.(decimal.Decimal), db.(decimal.Decimal))
}

// cmpDecimal orders by sign and leading digit position first, so Cmp only
// rescales coefficients of the same magnitude.
func cmpDecimal(x, y decimal.Decimal) int {
	sx, sy := x.Sign(), y.Sign()
	if sx != sy || sx == 0 {
		return cmp.Compare(sx, sy)
	}
	if mx, my := magnitude(x), magnitude(y); mx != my {
		return sx * cmp.Compare(mx, my)
	}
	return x.Cmp(y)
}

func asFloat(x any) (float64, bool) {
	switch f := x.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return 0, false
}

func compareStrings(a, b any) (int, error) {
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return 0, newError(ErrCoercion, CodeNotComparable, nil, fmt.Errorf("%v vs %v", ta, tb))
	}
	st, ok := subtypeFor(ta)
	if !ok {
		return 0, newError(ErrCoercion, CodeNotComparable, nil, fmt.Errorf("unregistered string type %v", ta))
	}
	return st.compare(a, b), nil
}

// textOf renders string-like payloads in their canonical text form.
func textOf(k Kind, p any) string {
	switch k {
	case KindString:
		if s, ok := p.(string); ok {
			return s
		}
		if st, ok := subtypeFor(reflect.TypeOf(p)); ok {
			return st.format(p)
		}
	case KindDate:
		return codec.FormatDate(p.(civil.Date))
	case KindTime:
		return codec.FormatTime(p.(civil.Time))
	case KindDateTime:
		return codec.FormatDateTime(p.(civil.DateTime))
	case KindInstant:
		return codec.FormatInstant(p.(time.Time))
	case KindDuration:
		return codec.FormatDuration(p.(time.Duration))
	case KindEnum:
		return p.(Enum).Symbol()
	case KindBlob:
		return base64.RawURLEncoding.EncodeToString(p.(*Blob).Bytes())
	case KindDecimal:
		if d, ok := p.(decimal.Decimal); ok {
			return formatDecimal(d)
		}
	}
	return fmt.Sprint(p)
}

// hashText is a text form consistent with payloadEqual for scalar kinds.
func hashText(k Kind, p any) string {
	switch k {
	case KindInteger:
		b, _ := integerOf(p)
		return fmt.Sprintf("%T:%s", p, b.String())
	case KindDecimal:
		switch f := p.(type) {
		case decimal.Decimal:
			return "dec:" + formatDecimal(f)
		case float64:
			if f == 0 {
				f = 0 // -0 equals 0
			}
			return fmt.Sprintf("%T:%v", f, f)
		case float32:
			if f == 0 {
				f = 0
			}
			return fmt.Sprintf("%T:%v", f, f)
		}
		return fmt.Sprintf("%T:%v", p, p)
	case KindString:
		if st, ok := subtypeFor(reflect.TypeOf(p)); ok {
			return st.Name + ":" + st.key(p)
		}
		return fmt.Sprintf("%T:", p) + textOf(k, p)
	case KindEnum:
		e := p.(Enum)
		return e.t.name + ":" + e.Symbol()
	case KindBool:
		return fmt.Sprint(p)
	}
	return textOf(k, p)
}
