package fusion

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reoring/fusion/nocase"
)

// Flags mark fields as key, readonly or nullable.
type Flags uint8

const (
	FlagKey Flags = 1 << iota
	FlagReadonly
	FlagNullable
)

func (f Flags) String() string {
	var parts []string
	if f&FlagKey != 0 {
		parts = append(parts, "KEY")
	}
	if f&FlagReadonly != 0 {
		parts = append(parts, "READONLY")
	}
	if f&FlagNullable != 0 {
		parts = append(parts, "NULLABLE")
	}
	return strings.Join(parts, "|")
}

// FieldSchema describes one field: name, domain, flags, default and the
// index assigned by the owning ObjectSchema.
type FieldSchema struct {
	name   string
	domain *Domain
	flags  Flags
	def    Value
	index  int
}

// NewField validates a field description. A KEY field must be READONLY and
// must not be NULLABLE; the default must convert into the domain and satisfy
// its range. The index is -1 until the field joins a schema.
func NewField(name string, d *Domain, flags Flags, def any) (*FieldSchema, error) {
	if r, _ := utf8.DecodeRuneInString(name); name == "" || !unicode.IsLetter(r) {
		return nil, configErrorf("field name %q must start with a letter", name)
	}
	if d == nil {
		return nil, configErrorf("field %s has no domain", name)
	}
	if flags&FlagKey != 0 {
		if flags&FlagReadonly == 0 {
			return nil, configErrorf("key field %s must be readonly", name)
		}
		if flags&FlagNullable != 0 {
			return nil, configErrorf("key field %s must not be nullable", name)
		}
	}
	f := &FieldSchema{name: name, domain: d, flags: flags, index: -1}
	if def != nil {
		v, err := From(def, d)
		if err != nil {
			return nil, configErrorf("default for field %s: %v", name, err)
		}
		if err := d.Validate(v, nil); err != nil {
			return nil, configErrorf("default for field %s: %v", name, err)
		}
		f.def = v
	}
	return f, nil
}

func (f *FieldSchema) Name() string     { return f.name }
func (f *FieldSchema) Domain() *Domain  { return f.domain }
func (f *FieldSchema) Flags() Flags     { return f.flags }
func (f *FieldSchema) Default() Value   { return f.def }
func (f *FieldSchema) Index() int       { return f.index }
func (f *FieldSchema) IsKey() bool      { return f.flags&FlagKey != 0 }
func (f *FieldSchema) IsReadonly() bool { return f.flags&FlagReadonly != 0 }
func (f *FieldSchema) IsNullable() bool { return f.flags&FlagNullable != 0 }

// ObjectSchema is an ordered list of fields with a derived key-field subset
// and a case-insensitive name index.
type ObjectSchema struct {
	id     string
	fields []*FieldSchema
	keys   []*FieldSchema
	byName map[string]*FieldSchema
}

// NewObjectSchema assigns field indices in order. Fields are copied, so a
// FieldSchema may be shared between schema definitions.
func NewObjectSchema(id string, fields ...*FieldSchema) (*ObjectSchema, error) {
	if id == "" {
		return nil, configErrorf("schema id is empty")
	}
	if len(fields) == 0 {
		return nil, configErrorf("schema %s has no fields", id)
	}
	s := &ObjectSchema{id: id, fields: make([]*FieldSchema, len(fields)), byName: make(map[string]*FieldSchema, len(fields))}
	for i, f := range fields {
		if f == nil {
			return nil, configErrorf("schema %s: nil field at %d", id, i)
		}
		key := nocase.Fold(f.name)
		if _, dup := s.byName[key]; dup {
			return nil, configError(CodeDuplicateField, map[string]any{"field": f.name})
		}
		cp := *f
		cp.index = i
		s.fields[i] = &cp
		s.byName[key] = &cp
		if cp.IsKey() {
			s.keys = append(s.keys, &cp)
		}
	}
	return s, nil
}

// ID is the schema identifier, also the name of its object type.
func (s *ObjectSchema) ID() string { return s.id }

// Len returns the number of fields.
func (s *ObjectSchema) Len() int { return len(s.fields) }

// Fields returns the fields in index order.
func (s *ObjectSchema) Fields() []*FieldSchema { return append([]*FieldSchema(nil), s.fields...) }

// KeyFields returns the key fields in index order.
func (s *ObjectSchema) KeyFields() []*FieldSchema { return append([]*FieldSchema(nil), s.keys...) }

// HasKey reports whether the schema declares key fields.
func (s *ObjectSchema) HasKey() bool { return len(s.keys) > 0 }

// At returns the field at index i.
func (s *ObjectSchema) At(i int) (*FieldSchema, error) {
	if i < 0 || i >= len(s.fields) {
		return nil, noSuchField(i)
	}
	return s.fields[i], nil
}

// Lookup finds a field by name, ignoring case.
func (s *ObjectSchema) Lookup(name string) (*FieldSchema, bool) {
	f, ok := s.byName[nocase.Fold(name)]
	return f, ok
}

// Field finds a field by name or reports "no such field".
func (s *ObjectSchema) Field(name string) (*FieldSchema, error) {
	if f, ok := s.Lookup(name); ok {
		return f, nil
	}
	return nil, noSuchField(name)
}

// SchemaBuilder declares a schema field by field.
//
//	s, err := fusion.NewSchema("Person").
//		Field("id", fusion.MustDomain(fusion.KindString, "")).Key().
//		Field("name", fusion.MustDomain(fusion.KindString, "", 1, 20)).
//		Field("age", fusion.MustDomain(fusion.KindInteger, "")).Nullable().
//		Build()
type SchemaBuilder struct {
	id     string
	fields []*fieldSpec
	err    error
}

type fieldSpec struct {
	name   string
	domain *Domain
	flags  Flags
	def    any
}

// FieldStep configures the field most recently added to a SchemaBuilder.
type FieldStep struct {
	b    *SchemaBuilder
	spec *fieldSpec
}

// NewSchema starts a schema declaration.
func NewSchema(id string) *SchemaBuilder { return &SchemaBuilder{id: id} }

// Field adds a field with the given domain.
func (b *SchemaBuilder) Field(name string, d *Domain) *FieldStep {
	spec := &fieldSpec{name: name, domain: d}
	b.fields = append(b.fields, spec)
	return &FieldStep{b: b, spec: spec}
}

// FieldOf adds a field whose domain is compiled from a qualified type name
// and an optional range.
func (b *SchemaBuilder) FieldOf(name, typeName string, rng ...any) *FieldStep {
	k, q, err := ParseQualifiedType(typeName)
	var d *Domain
	if err == nil {
		d, err = NewDomain(k, q, rng...)
	}
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Field(name, d)
}

// Key marks the field as a key, which implies readonly.
func (s *FieldStep) Key() *FieldStep {
	s.spec.flags |= FlagKey | FlagReadonly
	return s
}

// Readonly marks the field as writable only during INIT.
func (s *FieldStep) Readonly() *FieldStep {
	s.spec.flags |= FlagReadonly
	return s
}

// Nullable allows null in WRITE and at freeze time.
func (s *FieldStep) Nullable() *FieldStep {
	s.spec.flags |= FlagNullable
	return s
}

// Default sets the value new objects start with.
func (s *FieldStep) Default(v any) *FieldStep {
	s.spec.def = v
	return s
}

func (s *FieldStep) Field(name string, d *Domain) *FieldStep { return s.b.Field(name, d) }
func (s *FieldStep) FieldOf(name, typeName string, rng ...any) *FieldStep {
	return s.b.FieldOf(name, typeName, rng...)
}
func (s *FieldStep) Build() (*ObjectSchema, error) { return s.b.Build() }
func (s *FieldStep) MustBuild() *ObjectSchema      { return s.b.MustBuild() }

// Build validates every field and assigns indices.
func (b *SchemaBuilder) Build() (*ObjectSchema, error) {
	if b.err != nil {
		return nil, b.err
	}
	fields := make([]*FieldSchema, 0, len(b.fields))
	for _, spec := range b.fields {
		f, err := NewField(spec.name, spec.domain, spec.flags, spec.def)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return NewObjectSchema(b.id, fields...)
}

// MustBuild is like Build but panics on error.
func (b *SchemaBuilder) MustBuild() *ObjectSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
