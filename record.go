package fusion

import (
	"math/big"
	"reflect"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// RecordType binds the Go struct type T to an object type. Struct fields map
// to schema fields by key, resolved as fusion:"name=..." > json tag name >
// Go field name (a name of "-" skips the field), matched ignoring case.
// Struct fields without a schema field are ignored; schema fields without a
// struct field stay at their default.
//
// Once T is bound, From accepts T and *T values for OBJECT domains of the type
// and Record extracts T back from objects.
type RecordType[T any] struct {
	*ObjectType
	b *binder
}

// NewRecordType binds T to schema s without registering the object type.
func NewRecordType[T any](s *ObjectSchema, opts ...TypeOption) (*RecordType[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, configErrorf("record type %s is not a struct", t)
	}
	b := &binder{t: t, typ: NewObjectType(s, opts...), index: make([]int, s.Len())}
	byName := map[string]int{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := resolveStructKey(sf)
		if name == "-" || name == "" {
			continue
		}
		byName[strings.ToLower(name)] = i
	}
	for _, f := range s.fields {
		b.index[f.index] = -1
		if i, ok := byName[strings.ToLower(f.name)]; ok {
			b.index[f.index] = i
		}
	}
	bindersMu.Lock()
	defer bindersMu.Unlock()
	if _, dup := binders[t]; dup {
		return nil, configError(CodeDuplicateName, map[string]any{"name": t.String()})
	}
	binders[t] = b
	return &RecordType[T]{ObjectType: b.typ, b: b}, nil
}

// RegisterRecord is NewRecordType followed by Register.
func RegisterRecord[T any](s *ObjectSchema, opts ...TypeOption) (*RecordType[T], error) {
	rt, err := NewRecordType[T](s, opts...)
	if err != nil {
		return nil, err
	}
	if err := Register(rt.ObjectType); err != nil {
		return nil, err
	}
	return rt, nil
}

// Wrap copies x into a new object of the type and freezes it.
func (rt *RecordType[T]) Wrap(x T) (Composite, error) {
	c, err := rt.b.wrap(x)
	if err != nil {
		return nil, err
	}
	if err := freeze(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Record extracts T from c. See the package function Record.
func (rt *RecordType[T]) Record(c Composite) (T, error) { return Record[T](c) }

// Record extracts the bound struct T from c. For objects in READ the struct
// is built once and memoized; mutable objects are converted on every call.
// Memoized results are shared, so a pointer T must be treated as read-only.
func Record[T any](c Composite) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	b, ok := recordFor(t)
	if !ok {
		return zero, configErrorf("type %s is not bound to a schema", t)
	}
	if !sameSchema(c.Schema(), b.typ.schema) {
		return zero, coercionErrorf(CodeInvalidType, "object of type %s is not %s", c.Schema().ID(), b.typ.name)
	}
	compute := func() (any, error) {
		rv, err := b.extract(c)
		if err != nil {
			return nil, err
		}
		if t.Kind() == reflect.Pointer {
			return rv.Addr().Interface(), nil
		}
		return rv.Interface(), nil
	}
	var (
		x   any
		err error
	)
	if o, isObject := c.(interface{ base() *Object }); isObject {
		x, err = o.base().Derived(t, compute)
	} else {
		x, err = compute()
	}
	if err != nil {
		return zero, err
	}
	return x.(T), nil
}

func (o *Object) base() *Object { return o }

func resolveStructKey(sf reflect.StructField) string {
	if ft := sf.Tag.Get("fusion"); ft != "" {
		for _, p := range strings.Split(ft, ",") {
			if name, ok := strings.CutPrefix(strings.TrimSpace(p), "name="); ok {
				return name
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		name, _, _ := strings.Cut(jt, ",")
		return name
	}
	return sf.Name
}

// binder maps one struct type onto one object type. index holds the struct
// field index per schema field index, -1 for unmapped schema fields.
type binder struct {
	t     reflect.Type
	typ   *ObjectType
	index []int
}

var (
	bindersMu sync.RWMutex
	binders   = map[reflect.Type]*binder{}
)

// recordFor finds the binder of a struct type or pointer to one.
func recordFor(t reflect.Type) (*binder, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	bindersMu.RLock()
	defer bindersMu.RUnlock()
	b, ok := binders[t]
	return b, ok
}

func (b *binder) factory() ObjectFactory { return b.typ }

// wrap copies a struct value into a new object in INIT.
func (b *binder) wrap(x any) (Composite, error) {
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	o := b.typ.Make()
	for i, sfi := range b.index {
		if sfi < 0 {
			continue
		}
		fv := rv.Field(sfi)
		if fv.Kind() == reflect.Pointer && !fv.IsNil() && fv.Type().Elem().Kind() != reflect.Struct {
			fv = fv.Elem()
		}
		if err := o.Set(i, fv.Interface()); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// extract builds an addressable struct value from c.
func (b *binder) extract(c Composite) (reflect.Value, error) {
	rv := reflect.New(b.t).Elem()
	for i, sfi := range b.index {
		if sfi < 0 {
			continue
		}
		name := b.typ.schema.fields[i].name
		if err := assign(rv.Field(sfi), c.Get(i)); err != nil {
			return reflect.Value{}, inField(err, CodeInvalidValue, name)
		}
	}
	return rv, nil
}

var valueType = reflect.TypeFor[Value]()

// assign stores v into dst, converting payloads to the Go type of dst.
func assign(dst reflect.Value, v Value) error {
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(v))
		return nil
	}
	if v.IsNull() {
		dst.SetZero()
		return nil
	}
	if dst.Kind() == reflect.Pointer && dst.Type().Elem().Kind() != reflect.Struct {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	pv := reflect.ValueOf(v.v)
	if pv.Type().AssignableTo(dst.Type()) {
		dst.Set(pv)
		return nil
	}
	switch p := v.v.(type) {
	case Composite:
		rb, ok := recordFor(dst.Type())
		if !ok {
			break
		}
		if !sameSchema(p.Schema(), rb.typ.schema) {
			break
		}
		rv, err := rb.extract(p)
		if err != nil {
			return err
		}
		if dst.Kind() == reflect.Pointer {
			rv = rv.Addr()
		}
		dst.Set(rv)
		return nil
	case *List:
		if dst.Kind() != reflect.Slice {
			break
		}
		items := p.Values()
		s := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(s.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	case *Map:
		if dst.Kind() != reflect.Map || dst.Type().Key().Kind() != reflect.String {
			break
		}
		m := reflect.MakeMapWithSize(dst.Type(), p.Len())
		for k, item := range p.All() {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(ev, item); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), ev)
		}
		dst.Set(m)
		return nil
	case *Blob:
		if dst.Type() == reflect.TypeFor[[]byte]() {
			dst.SetBytes(p.Bytes())
			return nil
		}
	case decimal.Decimal:
		if dst.Kind() == reflect.Float32 || dst.Kind() == reflect.Float64 {
			dst.SetFloat(p.InexactFloat64())
			return nil
		}
	}
	if dst.Kind() == reflect.String {
		if text, ok := v.Text(); ok {
			dst.SetString(text)
			return nil
		}
	}
	if n, ok := integerOf(v.v); ok && assignInteger(dst, n) {
		return nil
	}
	if f, ok := asFloat(v.v); ok && (dst.Kind() == reflect.Float32 || dst.Kind() == reflect.Float64) {
		dst.SetFloat(f)
		return nil
	}
	return coercionErrorf(CodeInvalidType, "cannot assign %s to %s", v.kind, dst.Type())
}

// assignInteger stores n into an integer or float dst when it fits exactly.
func assignInteger(dst reflect.Value, n *big.Int) bool {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !n.IsInt64() || dst.OverflowInt(n.Int64()) {
			return false
		}
		dst.SetInt(n.Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !n.IsUint64() || dst.OverflowUint(n.Uint64()) {
			return false
		}
		dst.SetUint(n.Uint64())
	case reflect.Float32, reflect.Float64:
		f, _ := new(big.Float).SetInt(n).Float64()
		dst.SetFloat(f)
	default:
		return false
	}
	return true
}
