package fusion

import (
	"fmt"
	"hash/fnv"
	"iter"
	"slices"
	"sync"

	"github.com/reoring/fusion/iwr"
)

// Composite is the contract every composite object implements. Objects are
// created in INIT by their factory and follow the iwr lifecycle.
type Composite interface {
	iwr.Entity
	Schema() *ObjectSchema
	Factory() ObjectFactory
	// Get returns the value of the field at index i. It panics when i is out
	// of range, like a slice index.
	Get(i int) Value
	// Set converts x into the field's domain and stores it, enforcing the
	// lifecycle and the field flags.
	Set(i int, x any) error
	// IsKeyInstance reports whether the object only holds key fields.
	IsKeyInstance() bool
	// Reset assigns schema defaults to every field writable in the current state.
	Reset() error
	// ResetToNull assigns null to every field writable in the current state.
	ResetToNull() error
	// Fields yields (name, value) pairs in schema order, only key fields for
	// a key-instance.
	Fields() iter.Seq2[string, Value]
	Clone(target iwr.State) (Composite, error)
	Equal(o Composite) bool
	Compare(o Composite) (int, error)
	Hash() uint64
}

// View is a read-only look at an object's fields, handed to pre-freeze checks
// while the object is locked.
type View struct {
	schema *ObjectSchema
	values []Value
	key    bool
}

func (v View) Schema() *ObjectSchema { return v.schema }
func (v View) Get(i int) Value       { return v.values[i] }
func (v View) IsKeyInstance() bool   { return v.key }

// Field returns the value of the named field.
func (v View) Field(name string) (Value, error) {
	f, err := v.schema.Field(name)
	if err != nil {
		return Null, err
	}
	return v.values[f.index], nil
}

// ObjectType is the generic composite object implementation: field values
// live in a dense slice indexed by FieldSchema.Index. It implements
// ObjectFactory.
type ObjectType struct {
	name   string
	schema *ObjectSchema
	check  func(View) error
	wrap   func(*Object) Composite
}

// TypeOption customizes an ObjectType.
type TypeOption func(*ObjectType)

// WithCheck adds a check that runs after field validation, before every
// lifecycle transition. A failing check aborts the transition.
func WithCheck(fn func(View) error) TypeOption {
	return func(t *ObjectType) { t.check = fn }
}

// WithConstructor wraps every new *Object, for types that embed *Object to add
// typed accessors. Clones are wrapped as well.
func WithConstructor(fn func(*Object) Composite) TypeOption {
	return func(t *ObjectType) { t.wrap = fn }
}

// WithName registers the type under a name other than the schema id.
func WithName(name string) TypeOption {
	return func(t *ObjectType) { t.name = name }
}

// NewObjectType builds a factory for schema s.
func NewObjectType(s *ObjectSchema, opts ...TypeOption) *ObjectType {
	t := &ObjectType{name: s.ID(), schema: s}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ObjectType) Name() string          { return t.name }
func (t *ObjectType) Schema() *ObjectSchema { return t.schema }

// Make returns a new object in INIT with every field at its default.
func (t *ObjectType) Make() Composite { return t.New().self }

// MakeKey returns a new key-instance in INIT.
func (t *ObjectType) MakeKey() (Composite, error) {
	if !t.schema.HasKey() {
		return nil, configErrorf("type %s has no key fields", t.name)
	}
	o := t.newObject(true)
	return o.self, nil
}

// New is Make without the constructor wrapper's static type.
func (t *ObjectType) New() *Object { return t.newObject(false) }

func (t *ObjectType) newObject(key bool) *Object {
	o := &Object{typ: t, key: key, values: make([]Value, len(t.schema.fields))}
	for _, f := range t.schema.fields {
		if !key || f.IsKey() {
			o.values[f.index] = f.def
		}
	}
	o.bind()
	return o
}

// Object is the dense-storage composite object. Use ObjectType to create one.
type Object struct {
	lc     iwr.Lifecycle
	typ    *ObjectType
	self   Composite
	key    bool
	values []Value

	derivedMu sync.Mutex
	derived   map[any]any
}

func (o *Object) bind() {
	o.self = o
	if o.typ.wrap != nil {
		o.self = o.typ.wrap(o)
	}
}

func (o *Object) Schema() *ObjectSchema  { return o.typ.schema }
func (o *Object) Factory() ObjectFactory { return o.typ }
func (o *Object) IsKeyInstance() bool    { return o.key }
func (o *Object) State() iwr.State       { return o.lc.State() }

// Self returns the constructor wrapper of o, or o itself.
func (o *Object) Self() Composite { return o.self }

func (o *Object) DoneInit() error   { return fromIWR(o.lc.DoneInit(o.hook)) }
func (o *Object) DoneWrite() error  { return fromIWR(o.lc.DoneWrite(o.hook)) }
func (o *Object) EnsureRead() error { return fromIWR(o.lc.EnsureRead(o.hook)) }

// hook validates nullability and ranges of all fields (key fields only for a
// key-instance) and runs the type's check.
func (o *Object) hook(next iwr.State) error {
	fields := o.typ.schema.fields
	if o.key {
		fields = o.typ.schema.keys
	}
	var iss Issues
	for _, f := range fields {
		v := o.values[f.index]
		seg := "/" + escapePointer(f.name)
		if v.IsNull() {
			if !f.IsNullable() {
				params := map[string]any{"field": f.name}
				iss = append(iss, Issue{Path: seg, Code: CodeRequired, Message: message(CodeRequired, params), Params: params})
			}
			continue
		}
		var sink Issues
		_ = f.domain.Validate(v, &sink)
		for _, it := range sink {
			it.Path = seg + it.Path
			iss = append(iss, it)
		}
	}
	if len(iss) > 0 {
		logger().Debug("object transition rejected", "type", o.typ.name, "next", next.String(), "issues", len(iss))
		return iss
	}
	if o.typ.check != nil {
		return o.typ.check(View{schema: o.typ.schema, values: o.values, key: o.key})
	}
	return nil
}

func (o *Object) Get(i int) Value {
	var v Value
	_ = o.lc.Do(func(iwr.State) error {
		v = o.values[i]
		return nil
	})
	return v
}

func (o *Object) snapshot() []Value {
	var vs []Value
	_ = o.lc.Do(func(iwr.State) error {
		vs = slices.Clone(o.values)
		return nil
	})
	return vs
}

// Set assigns field i. State and flags are checked before x is converted, so
// a rejected assignment leaves a mutable x as it was. Converting x freezes it.
func (o *Object) Set(i int, x any) error {
	f, err := o.typ.schema.At(i)
	if err != nil {
		return err
	}
	if err := fromIWR(o.lc.Mutate(func(st iwr.State) error { return o.assignable(f, st) })); err != nil {
		return err
	}
	v, err := From(x, f.domain)
	if err != nil {
		return inField(err, CodeInvalidValue, f.name)
	}
	return o.store(f, v)
}

func (o *Object) assignable(f *FieldSchema, st iwr.State) error {
	params := map[string]any{"field": f.name}
	if o.key && !f.IsKey() {
		return lifecycleError(CodeKeyOnly, params)
	}
	if st == iwr.Write && f.IsReadonly() {
		return lifecycleError(CodeReadonly, params)
	}
	return nil
}

// store rechecks state and flags under the lock that guards the assignment.
func (o *Object) store(f *FieldSchema, v Value) error {
	err := o.lc.Mutate(func(st iwr.State) error {
		if err := o.assignable(f, st); err != nil {
			return err
		}
		if st == iwr.Write {
			params := map[string]any{"field": f.name}
			if v.IsNull() && !f.IsNullable() {
				return Issues{{Path: "/" + escapePointer(f.name), Code: CodeRequired, Message: message(CodeRequired, params), Params: params}}
			}
			if err := f.domain.Validate(v, nil); err != nil {
				return inField(err, CodeInvalidValue, f.name)
			}
		}
		o.values[f.index] = v
		return nil
	})
	return fromIWR(err)
}

// GetField returns the value of the named field, ignoring case.
func (o *Object) GetField(name string) (Value, error) {
	f, err := o.typ.schema.Field(name)
	if err != nil {
		return Null, err
	}
	return o.Get(f.index), nil
}

// SetField assigns the named field, ignoring case.
func (o *Object) SetField(name string, x any) error {
	f, err := o.typ.schema.Field(name)
	if err != nil {
		return err
	}
	return o.Set(f.index, x)
}

func (o *Object) Reset() error {
	return o.reset(func(f *FieldSchema) Value { return f.def })
}

func (o *Object) ResetToNull() error {
	return o.reset(func(*FieldSchema) Value { return Null })
}

// reset touches every field in INIT and only non-readonly fields in WRITE.
func (o *Object) reset(value func(*FieldSchema) Value) error {
	err := o.lc.Mutate(func(st iwr.State) error {
		for _, f := range o.typ.schema.fields {
			if (o.key && !f.IsKey()) || (st == iwr.Write && f.IsReadonly()) {
				continue
			}
			o.values[f.index] = value(f)
		}
		return nil
	})
	return fromIWR(err)
}

func (o *Object) Fields() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		vs := o.snapshot()
		for _, f := range o.typ.schema.fields {
			if o.key && !f.IsKey() {
				continue
			}
			if !yield(f.name, vs[f.index]) {
				return
			}
		}
	}
}

// Clone returns an object in the target state. An object already in READ
// cloned for READ is returned as is; everything else is a shallow copy whose
// lifecycle is then driven to target, running the validation hook.
func (o *Object) Clone(target iwr.State) (Composite, error) {
	var (
		cp   *Object
		from iwr.State
	)
	_ = o.lc.Do(func(st iwr.State) error {
		from = st
		if st == iwr.Read && target == iwr.Read {
			return nil
		}
		cp = &Object{typ: o.typ, key: o.key, values: slices.Clone(o.values)}
		return nil
	})
	if cp == nil {
		return o.self, nil
	}
	cp.bind()
	if err := cp.lc.Restore(from, target, cp.hook); err != nil {
		return nil, fromIWR(err)
	}
	return cp.self, nil
}

// Equal reports whether o and other share a schema and agree on their key
// fields when either is a key-instance, on all fields otherwise.
func (o *Object) Equal(other Composite) bool {
	if other == nil || !sameSchema(o.typ.schema, other.Schema()) {
		return false
	}
	fields := o.typ.schema.fields
	if o.key || other.IsKeyInstance() {
		fields = o.typ.schema.keys
	}
	vs := o.snapshot()
	for _, f := range fields {
		if !vs[f.index].Equal(other.Get(f.index)) {
			return false
		}
	}
	return true
}

// Compare orders objects of one schema by their key fields. Objects of
// different schemas compare on the fields both schemas name. Either way, no
// common field to compare is an error.
func (o *Object) Compare(other Composite) (int, error) {
	if other == nil {
		return 1, nil
	}
	vs := o.snapshot()
	if sameSchema(o.typ.schema, other.Schema()) {
		if !o.typ.schema.HasKey() {
			return 0, newError(ErrCoercion, CodeNotComparable, nil, fmt.Errorf("type %s has no key fields", o.typ.name))
		}
		for _, f := range o.typ.schema.keys {
			if c, err := vs[f.index].Compare(other.Get(f.index)); err != nil || c != 0 {
				return c, err
			}
		}
		return 0, nil
	}
	common := 0
	for _, f := range o.typ.schema.fields {
		of, ok := other.Schema().Lookup(f.name)
		if !ok {
			continue
		}
		common++
		if c, err := vs[f.index].Compare(other.Get(of.index)); err != nil || c != 0 {
			return c, err
		}
	}
	if common == 0 {
		return 0, newError(ErrCoercion, CodeNotComparable, nil,
			fmt.Errorf("types %s and %s have no common fields", o.typ.name, other.Schema().ID()))
	}
	return 0, nil
}

// Hash uses the first key field, or the schema id for types without keys.
func (o *Object) Hash() uint64 {
	if keys := o.typ.schema.keys; len(keys) > 0 {
		return o.Get(keys[0].index).Hash()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(o.typ.schema.id))
	return h.Sum64()
}

// Derived returns a value computed from the object. Once the object is READ
// the result is computed once per key and memoized; while it is mutable the
// value is recomputed on every call.
func (o *Object) Derived(key any, compute func() (any, error)) (any, error) {
	if o.State() != iwr.Read {
		return compute()
	}
	o.derivedMu.Lock()
	defer o.derivedMu.Unlock()
	if v, ok := o.derived[key]; ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	if o.derived == nil {
		o.derived = map[any]any{}
	}
	o.derived[key] = v
	return v, nil
}

func (o *Object) String() string { return Value{kind: KindObject, v: o.self}.String() }

// freeze advances a mutable entity to READ, tolerating one that already is.
func freeze(e iwr.Entity) error {
	if r, ok := e.(interface{ EnsureRead() error }); ok {
		return r.EnsureRead()
	}
	if e.State() == iwr.Read {
		return nil
	}
	if err := e.DoneWrite(); err != nil && e.State() != iwr.Read {
		return err
	}
	return nil
}
