package fusion

import (
	"bytes"
	"encoding"
	"errors"
	"io"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/reoring/fusion/internal/jsonwire"
)

// UnknownPolicy controls how object fields missing from the schema are handled.
type UnknownPolicy int

const (
	UnknownStrict UnknownPolicy = iota // Reject unknown fields with an error.
	UnknownStrip                       // Read and drop unknown fields.
)

// DuplicatePolicy controls how repeated object fields or map keys are handled.
// Keys are compared ignoring case.
type DuplicatePolicy int

const (
	DupError  DuplicatePolicy = iota // Fail the read.
	DupWarn                          // Log at warn level; the last value wins.
	DupIgnore                        // The last value wins.
)

// DefaultMaxDepth bounds container nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 1000

// MaxDecimalExponent bounds the exponent of decimal literals, so comparing or
// converting what was read stays proportional to the input.
const MaxDecimalExponent = 1 << 16

// ReadOpt bundles reader options.
type ReadOpt struct {
	Unknown        UnknownPolicy
	OnDuplicateKey DuplicatePolicy
	MaxDepth       int
	// KeyInstances reads objects as key-instances, the form objects take when
	// they stand in as references.
	KeyInstances bool
}

// ReadOption configures a Reader.
type ReadOption func(*ReadOpt)

// WithUnknown sets the policy for object fields the schema does not define.
func WithUnknown(p UnknownPolicy) ReadOption {
	return func(o *ReadOpt) { o.Unknown = p }
}

// WithDuplicateKeys sets the policy for repeated object fields and map keys.
func WithDuplicateKeys(p DuplicatePolicy) ReadOption {
	return func(o *ReadOpt) { o.OnDuplicateKey = p }
}

// WithMaxDepth bounds container nesting.
func WithMaxDepth(n int) ReadOption {
	return func(o *ReadOpt) { o.MaxDepth = n }
}

// WithKeyInstances reads objects as key-instances.
func WithKeyInstances() ReadOption {
	return func(o *ReadOpt) { o.KeyInstances = true }
}

// Reader parses canonical JSON, or any JSON text, guided by a domain.
// Numbers, strings and literals must be followed by a token break, so "1x"
// or "truex" fail right after the token.
type Reader struct {
	s     *jsonwire.Scanner
	opt   ReadOpt
	depth int
}

// NewReader reads from in. Readers that are not io.RuneScanner are buffered,
// so a Reader may consume input past the values it returns.
func NewReader(in io.Reader, opts ...ReadOption) *Reader {
	r := &Reader{s: jsonwire.NewScanner(in), opt: ReadOpt{MaxDepth: DefaultMaxDepth}}
	for _, opt := range opts {
		opt(&r.opt)
	}
	return r
}

// Unmarshal reads exactly one value from data. Anything but whitespace after
// the value is a parse error.
func Unmarshal(data []byte, d *Domain, opts ...ReadOption) (Value, error) {
	r := NewReader(bytes.NewReader(data), opts...)
	v, err := r.Read(d)
	if err != nil {
		return Null, err
	}
	if r.More() {
		return Null, r.errorf("unexpected data after value")
	}
	return v, nil
}

// More reports whether another value follows in the stream.
func (r *Reader) More() bool {
	c, err := r.s.SkipSpace()
	return err == nil && c != jsonwire.EOF
}

// Read parses the next value. A nil domain reads untyped: integers become the
// narrowest of INTEGER, INTEGER.long and INTEGER.big, other numbers DECIMAL,
// objects MAP and arrays LIST.
func (r *Reader) Read(d *Domain) (Value, error) {
	if d == nil {
		d = AnyDomain
	}
	return r.read(d)
}

func (r *Reader) read(d *Domain) (Value, error) {
	c, err := r.s.SkipSpace()
	if err != nil {
		return Null, r.parseError(err)
	}
	switch c {
	case jsonwire.EOF:
		return Null, r.errorf("unexpected end of input")
	case 'n':
		if err := r.s.ExpectWord("null"); err != nil {
			return Null, r.parseError(err)
		}
		return Null, nil
	}
	switch d.kind {
	case KindAny:
		return r.readAny(c)
	case KindBool:
		b, err := r.s.ReadBool()
		if err != nil {
			return Null, r.parseError(err)
		}
		return r.from(b, d)
	case KindInteger:
		n, err := r.s.ReadNumber()
		if err != nil {
			return Null, r.parseError(err)
		}
		if !n.Integer {
			return Null, r.errorf("expected integer, found %s", n.Text)
		}
		b, _ := new(big.Int).SetString(n.Text, 10)
		return r.from(b, d)
	case KindDecimal:
		n, err := r.s.ReadNumber()
		if err != nil {
			return Null, r.parseError(err)
		}
		dec, err := r.parseDecimal(n.Text)
		if err != nil {
			return Null, err
		}
		return r.from(dec, d)
	case KindObject:
		return r.readObject(c, d)
	case KindList:
		return r.readList(d)
	case KindMap:
		return r.readMap(d)
	}
	// STRING, calendar kinds, ENUM and BLOB are quoted text.
	s, err := r.s.ReadString()
	if err != nil {
		return Null, r.parseError(err)
	}
	return r.from(s, d)
}

func (r *Reader) readAny(c rune) (Value, error) {
	switch c {
	case '{':
		return r.readMap(MapAny)
	case '[':
		return r.readList(ListAny)
	case 't', 'f':
		b, err := r.s.ReadBool()
		if err != nil {
			return Null, r.parseError(err)
		}
		return Value{kind: KindBool, v: b}, nil
	case '"':
		s, err := r.s.ReadString()
		if err != nil {
			return Null, r.parseError(err)
		}
		return Value{kind: KindString, v: s}, nil
	}
	n, err := r.s.ReadNumber()
	if err != nil {
		return Null, r.parseError(err)
	}
	if !n.Integer {
		dec, err := r.parseDecimal(n.Text)
		if err != nil {
			return Null, err
		}
		return Value{kind: KindDecimal, v: dec}, nil
	}
	b, _ := new(big.Int).SetString(n.Text, 10)
	return narrowInteger(b), nil
}

// readObject materializes an object through the domain's factory. Objects
// whose type reads text (such as BlobRef) also accept a string.
func (r *Reader) readObject(c rune, d *Domain) (Value, error) {
	if d.factory == nil {
		return Null, r.at(configErrorf("cannot read %s without a registered type", d.TypeName()))
	}
	obj, err := r.make(d.factory)
	if err != nil {
		return Null, r.at(err)
	}
	if c == '"' {
		tu, ok := obj.(encoding.TextUnmarshaler)
		if !ok {
			return Null, r.errorf("expected object for %s, found string", d.TypeName())
		}
		s, err := r.s.ReadString()
		if err != nil {
			return Null, r.parseError(err)
		}
		if err := tu.UnmarshalText([]byte(s)); err != nil {
			return Null, r.at(err)
		}
		return r.from(obj, d)
	}
	schema := obj.Schema()
	seen := make([]bool, schema.Len())
	err = r.members(func(key string) error {
		f, ok := schema.Lookup(key)
		if !ok {
			if r.opt.Unknown == UnknownStrip {
				logger().Debug("dropping unknown field", "type", schema.ID(), "field", key)
				_, err := r.read(AnyDomain)
				return err
			}
			return r.at(newError(ErrParse, CodeUnknownKey, map[string]any{"key": key}, nil))
		}
		if err := r.duplicate(seen[f.index], key); err != nil {
			return err
		}
		seen[f.index] = true
		v, err := r.read(f.domain)
		if err != nil {
			return err
		}
		return obj.Set(f.index, v)
	})
	if err != nil {
		return Null, err
	}
	return r.from(obj, d)
}

func (r *Reader) make(f ObjectFactory) (Composite, error) {
	if r.opt.KeyInstances {
		return f.MakeKey()
	}
	return f.Make(), nil
}

// readList checks the maximum length after every item, so an overlong array
// fails at the first surplus item.
func (r *Reader) readList(d *Domain) (Value, error) {
	if err := r.enter(); err != nil {
		return Null, err
	}
	defer r.leave()
	if err := r.s.Expect('['); err != nil {
		return Null, r.parseError(err)
	}
	l := NewList(d)
	maxLen, bounded := d.max.(int)
	c, err := r.s.SkipSpace()
	if err != nil {
		return Null, r.parseError(err)
	}
	if c == ']' {
		_, _ = r.s.Next()
		return r.from(l, d)
	}
	for i := 0; ; i++ {
		v, err := r.read(d.item)
		if err == nil {
			err = l.Add(v)
		}
		if err != nil {
			return Null, inField(err, CodeReadField, strconv.Itoa(i))
		}
		if bounded && i+1 > maxLen {
			return Null, r.at(newError(ErrParse, CodeTooLong, map[string]any{"max": maxLen}, nil))
		}
		if c, err = r.s.SkipSpace(); err != nil {
			return Null, r.parseError(err)
		}
		_, _ = r.s.Next()
		if c == ']' {
			return r.from(l, d)
		}
		if c != ',' {
			return Null, r.errorf("expected ',' or ']' in array")
		}
	}
}

func (r *Reader) readMap(d *Domain) (Value, error) {
	m := NewMap(d)
	maxLen, bounded := d.max.(int)
	err := r.members(func(key string) error {
		_, dup := m.Get(key)
		if err := r.duplicate(dup, key); err != nil {
			return err
		}
		v, err := r.read(d.item)
		if err != nil {
			return err
		}
		if err := m.Put(key, v); err != nil {
			return err
		}
		if bounded && m.Len() > maxLen {
			return r.at(newError(ErrParse, CodeTooLong, map[string]any{"max": maxLen}, nil))
		}
		return nil
	})
	if err != nil {
		return Null, err
	}
	return r.from(m, d)
}

// members reads "{" key ":" value ("," key ":" value)* "}", calling member
// after each colon to consume the value. Member errors are attributed to the key.
func (r *Reader) members(member func(key string) error) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()
	if err := r.s.Expect('{'); err != nil {
		return r.parseError(err)
	}
	c, err := r.s.SkipSpace()
	if err != nil {
		return r.parseError(err)
	}
	if c == '}' {
		_, _ = r.s.Next()
		return nil
	}
	for {
		if c != '"' {
			return r.errorf("expected field name")
		}
		key, err := r.s.ReadString()
		if err != nil {
			return r.parseError(err)
		}
		if _, err := r.s.SkipSpace(); err != nil {
			return r.parseError(err)
		}
		if err := r.s.Expect(':'); err != nil {
			return r.parseError(err)
		}
		if err := member(key); err != nil {
			return inField(err, CodeReadField, key)
		}
		if c, err = r.s.SkipSpace(); err != nil {
			return r.parseError(err)
		}
		_, _ = r.s.Next()
		if c == '}' {
			return nil
		}
		if c != ',' {
			return r.errorf("expected ',' or '}' in object")
		}
		if c, err = r.s.SkipSpace(); err != nil {
			return r.parseError(err)
		}
	}
}

func (r *Reader) duplicate(seen bool, key string) error {
	if !seen {
		return nil
	}
	switch r.opt.OnDuplicateKey {
	case DupError:
		return r.at(newError(ErrParse, CodeDuplicateKey, map[string]any{"key": key}, nil))
	case DupWarn:
		logger().Warn("duplicate key in JSON input", "key", key, "offset", r.s.Offset())
	}
	return nil
}

func (r *Reader) enter() error {
	if r.depth++; r.opt.MaxDepth > 0 && r.depth > r.opt.MaxDepth {
		return r.errorf("nesting deeper than %d", r.opt.MaxDepth)
	}
	return nil
}

func (r *Reader) leave() { r.depth-- }

// from converts a token into d, stamping conversion errors with the offset.
func (r *Reader) from(x any, d *Domain) (Value, error) {
	v, err := From(x, d)
	if err != nil {
		return Null, r.at(err)
	}
	return v, nil
}

func (r *Reader) parseDecimal(text string) (decimal.Decimal, error) {
	dec, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, r.parseError(err)
	}
	if e := dec.Exponent(); e > MaxDecimalExponent || e < -MaxDecimalExponent {
		return decimal.Decimal{}, r.errorf("decimal exponent out of range: %s", text)
	}
	return dec, nil
}

// at stamps the current offset onto errors that have none.
func (r *Reader) at(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Offset < 0 {
		e.Offset = r.s.Offset()
	}
	return err
}

func (r *Reader) errorf(format string, args ...any) error {
	return r.parseError(r.s.Errorf(format, args...))
}

// parseError reports scanner and I/O failures as ErrParse.
func (r *Reader) parseError(err error) error {
	e := newError(ErrParse, CodeParseError, nil, nil)
	e.Offset = r.s.Offset()
	var se *jsonwire.SyntaxError
	if errors.As(err, &se) {
		e.Message, e.Offset = se.Msg, se.Offset
	} else {
		e.Cause = err
	}
	return e
}
