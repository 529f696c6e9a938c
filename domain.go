package fusion

import (
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Range is a declarative range literal: [min], [min, max] or, for LIST and
// MAP, [min, max, itemRange]. Elements may be nil for an open bound and may be
// Values or native Go values.
type Range []any

// Domain is the unit of validation: a kind, an optional qualifier and a
// compiled range. LIST and MAP domains carry an item domain; OBJECT domains
// carry the factory named by their qualifier.
type Domain struct {
	kind      Kind
	qualifier string
	rng       Range
	min, max  any
	item      *Domain
	factory   ObjectFactory
	enum      *EnumType
	subtype   *Subtype
}

var (
	// AnyDomain accepts every value and infers kinds from Go types.
	AnyDomain = &Domain{kind: KindAny}
	// ListAny is an unranged list of untyped items.
	ListAny = &Domain{kind: KindList, item: AnyDomain}
	// MapAny is an unranged map of untyped items.
	MapAny = &Domain{kind: KindMap, item: AnyDomain}
)

// NewDomain compiles a domain. Unknown qualifiers, unsupported ranges and
// inverted or negative bounds are configuration errors.
func NewDomain(kind Kind, qualifier string, rng ...any) (*Domain, error) {
	d := &Domain{kind: kind, qualifier: qualifier}
	if len(rng) > 0 {
		d.rng = append(Range(nil), rng...)
	}
	if err := d.resolveQualifier(); err != nil {
		return nil, err
	}
	if err := d.compileRange(); err != nil {
		return nil, err
	}
	return d, nil
}

// MustDomain is like NewDomain but panics on error.
func MustDomain(kind Kind, qualifier string, rng ...any) *Domain {
	d, err := NewDomain(kind, qualifier, rng...)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDomain compiles a domain from a qualified type name such as
// "INTEGER.long" or "LIST.STRING" and an optional JSON range literal such as
// "[1,20]" or "[0,5,[1,10]]".
func ParseDomain(typeName, rangeJSON string) (*Domain, error) {
	k, q, err := ParseQualifiedType(typeName)
	if err != nil {
		return nil, err
	}
	var rng Range
	if strings.TrimSpace(rangeJSON) != "" {
		if rng, err = ParseRange(rangeJSON); err != nil {
			return nil, err
		}
	}
	return NewDomain(k, q, rng...)
}

// ParseRange reads a JSON range literal. A bare scalar is a single-element range.
func ParseRange(text string) (Range, error) {
	v, err := Unmarshal([]byte(text), AnyDomain)
	if err != nil {
		return nil, configErrorf("invalid range literal %q: %v", text, err)
	}
	native := ToNative(v)
	if list, ok := native.([]any); ok {
		for i, x := range list {
			if inner, ok := x.([]any); ok {
				list[i] = Range(inner)
			}
		}
		return Range(list), nil
	}
	return Range{native}, nil
}

func objectDomain(f ObjectFactory) *Domain {
	return &Domain{kind: KindObject, qualifier: f.Name(), factory: f}
}

func (d *Domain) resolveQualifier() error {
	unknown := func() error {
		return configError(CodeUnknownQualifier, map[string]any{"qualifier": d.qualifier, "kind": d.kind})
	}
	switch d.kind {
	case KindInteger:
		switch q := strings.ToLower(d.qualifier); q {
		case "", QualByte, QualShort, QualLong, QualBig:
			d.qualifier = q
		default:
			return unknown()
		}
	case KindDecimal:
		switch q := strings.ToLower(d.qualifier); q {
		case "", QualFloat, QualDouble:
			d.qualifier = q
		default:
			return unknown()
		}
	case KindString:
		if d.qualifier != "" {
			st, ok := LookupSubtype(d.qualifier)
			if !ok {
				return unknown()
			}
			d.subtype, d.qualifier = st, st.Name
		}
	case KindEnum:
		t, ok := LookupEnum(d.qualifier)
		if !ok {
			return unknown()
		}
		d.enum, d.qualifier = t, t.name
	case KindObject:
		if d.qualifier != "" {
			f, ok := Lookup(d.qualifier)
			if !ok {
				return unknown()
			}
			d.factory, d.qualifier = f, f.Name()
		}
	case KindList, KindMap:
		return d.resolveItem()
	default:
		if d.qualifier != "" {
			return unknown()
		}
	}
	return nil
}

func (d *Domain) resolveItem() error {
	var itemRange Range
	if len(d.rng) == 3 {
		switch r := d.rng[2].(type) {
		case nil:
		case Range:
			itemRange = r
		case []any:
			itemRange = r
		default:
			return configErrorf("%s item range must be a list, got %T", d.kind, d.rng[2])
		}
	}
	if d.qualifier == "" {
		if len(itemRange) > 0 {
			return configErrorf("%s without item type cannot carry an item range", d.kind)
		}
		d.item = AnyDomain
		return nil
	}
	k, q, err := ParseQualifiedType(d.qualifier)
	if err != nil {
		return err
	}
	if k.IsContainer() {
		return configErrorf("%s of %s is not allowed, wrap the inner container in an OBJECT", d.kind, k)
	}
	item, err := NewDomain(k, q, itemRange...)
	if err != nil {
		return err
	}
	d.item = item
	d.qualifier = item.TypeName()
	return nil
}

func (d *Domain) compileRange() error {
	if len(d.rng) == 0 {
		return nil
	}
	if len(d.rng) > 3 || (len(d.rng) == 3 && !d.kind.IsContainer()) {
		return configErrorf("range for %s has %d elements", d.kind, len(d.rng))
	}
	bound := func(i int) any {
		if i >= len(d.rng) {
			return nil
		}
		if v, ok := d.rng[i].(Value); ok {
			return v.v
		}
		return d.rng[i]
	}
	lo, hi := bound(0), bound(1)
	switch d.kind {
	case KindInteger, KindDecimal, KindDate, KindTime, KindDateTime, KindInstant, KindDuration:
		return d.compileOrdered(lo, hi)
	case KindString, KindList, KindMap, KindBlob:
		return d.compileLength(lo, hi)
	}
	return configError(CodeInvalidRange, nil)
}

func (d *Domain) compileOrdered(lo, hi any) error {
	unranged := &Domain{kind: d.kind, qualifier: d.qualifier}
	var err error
	if lo != nil {
		if d.min, err = convert(lo, unranged); err != nil {
			return configErrorf("invalid minimum for %s: %v", d.TypeName(), err)
		}
	}
	if hi != nil {
		if d.max, err = convert(hi, unranged); err != nil {
			return configErrorf("invalid maximum for %s: %v", d.TypeName(), err)
		}
	}
	if d.min != nil && d.max != nil {
		c, _ := payloadCompare(d.kind, d.max, d.min)
		if c < 0 {
			return configErrorf("range max %v is less than min %v for %s", boundText(d.kind, d.max), boundText(d.kind, d.min), d.TypeName())
		}
	}
	return nil
}

func (d *Domain) compileLength(lo, hi any) error {
	toLen := func(x any) (int, error) {
		p, err := toInteger(x, QualLong)
		if err != nil {
			return 0, configErrorf("length bound must be an integer, got %T", x)
		}
		return int(p.(int64)), nil
	}
	if lo != nil {
		n, err := toLen(lo)
		if err != nil {
			return err
		}
		if n < 0 {
			return configErrorf("length range min %d is negative", n)
		}
		d.min = n
	}
	if hi != nil {
		n, err := toLen(hi)
		if err != nil {
			return err
		}
		if n <= 0 {
			return configErrorf("length range max %d must be positive", n)
		}
		if d.min != nil && n < d.min.(int) {
			return configErrorf("range max %d is less than min %d", n, d.min.(int))
		}
		d.max = n
	}
	return nil
}

// Kind returns the domain's kind.
func (d *Domain) Kind() Kind { return d.kind }

// Qualifier returns the canonical qualifier, "" when unqualified.
func (d *Domain) Qualifier() string { return d.qualifier }

// Item returns the item domain of LIST and MAP domains.
func (d *Domain) Item() *Domain { return d.item }

// Factory returns the object factory of an OBJECT domain.
func (d *Domain) Factory() ObjectFactory { return d.factory }

// Enum returns the enum type of an ENUM domain.
func (d *Domain) Enum() *EnumType { return d.enum }

// Subtype returns the string subtype, nil for plain strings.
func (d *Domain) Subtype() *Subtype { return d.subtype }

// Range returns a copy of the declared range literal.
func (d *Domain) Range() Range { return append(Range(nil), d.rng...) }

// Bounds returns the compiled bounds; lengths are ints, other kinds use the
// payload representation. nil means open.
func (d *Domain) Bounds() (lo, hi any) { return d.min, d.max }

// TypeName renders "KIND" or "KIND.qualifier".
func (d *Domain) TypeName() string { return QualifiedType(d.kind, d.qualifier) }

func (d *Domain) String() string {
	if len(d.rng) == 0 {
		return d.TypeName()
	}
	return fmt.Sprintf("%s%v", d.TypeName(), []any(d.rng))
}

// Equal compares kind, qualifier, compiled bounds and item domains.
func (d *Domain) Equal(o *Domain) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil || d.kind != o.kind || d.qualifier != o.qualifier {
		return false
	}
	if !boundEqual(d.kind, d.min, o.min) || !boundEqual(d.kind, d.max, o.max) {
		return false
	}
	if d.item != nil || o.item != nil {
		return d.item.Equal(o.item)
	}
	return true
}

func boundEqual(k Kind, a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ia, ok := a.(int); ok {
		ib, ok := b.(int)
		return ok && ia == ib
	}
	return payloadEqual(k, a, b)
}

func (d *Domain) minLen() int {
	if n, ok := d.min.(int); ok {
		return n
	}
	return 0
}

func boundText(k Kind, x any) string {
	switch v := x.(type) {
	case int:
		return fmt.Sprint(v)
	case *big.Int:
		return v.String()
	case decimal.Decimal:
		return v.String()
	case civil.Date, civil.Time, civil.DateTime, time.Time, time.Duration:
		return textOf(k, x)
	}
	return fmt.Sprint(x)
}

// Validate checks v against the domain's kind and range. Null always passes;
// nullability is a field concern. With a non-nil sink failures are appended
// and Validate returns nil; without one the first failure is returned as
// Issues.
func (d *Domain) Validate(v Value, sink *Issues) error {
	iss, ok := d.check(v)
	if ok {
		return nil
	}
	if sink != nil {
		*sink = append(*sink, iss)
		return nil
	}
	return Issues{iss}
}

func (d *Domain) check(v Value) (Issue, bool) {
	if v.IsNull() || d.kind == KindAny {
		return Issue{}, true
	}
	if v.kind != d.kind {
		return Issue{Code: CodeInvalidType, Message: fmt.Sprintf("%s: expected %s, got %s", message(CodeInvalidType, nil), d.TypeName(), v.kind),
			Params: map[string]any{"expected": d.TypeName(), "got": v.kind.String()}}, false
	}
	if d.min == nil && d.max == nil {
		return Issue{}, true
	}
	switch d.kind {
	case KindString, KindList, KindMap, KindBlob:
		return d.checkLength(lengthOf(v))
	default:
		if d.min != nil {
			if c, err := payloadCompare(d.kind, v.v, d.min); err == nil && c < 0 {
				return rangeIssue(CodeTooSmall, "min", boundText(d.kind, d.min), boundText(d.kind, v.v)), false
			}
		}
		if d.max != nil {
			if c, err := payloadCompare(d.kind, v.v, d.max); err == nil && c > 0 {
				return rangeIssue(CodeTooBig, "max", boundText(d.kind, d.max), boundText(d.kind, v.v)), false
			}
		}
	}
	return Issue{}, true
}

// checkLength applies a length range to n.
func (d *Domain) checkLength(n int) (Issue, bool) {
	if lo, ok := d.min.(int); ok && n < lo {
		return rangeIssue(CodeTooShort, "min", lo, n), false
	}
	if hi, ok := d.max.(int); ok && n > hi {
		return rangeIssue(CodeTooLong, "max", hi, n), false
	}
	return Issue{}, true
}

func rangeIssue(code, param string, bound, got any) Issue {
	params := map[string]any{param: bound, "got": got}
	return Issue{Code: code, Message: fmt.Sprintf("%s: %v", message(code, params), got), Params: params}
}

// lengthOf counts runes for strings, items for containers and bytes for blobs.
func lengthOf(v Value) int {
	switch p := v.v.(type) {
	case *List:
		return p.Len()
	case *Map:
		return p.Len()
	case *Blob:
		return p.Len()
	}
	return utf8.RuneCountInString(textOf(v.kind, v.v))
}
