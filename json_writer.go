package fusion

import (
	"bytes"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/reoring/fusion/codec"
	"github.com/reoring/fusion/internal/jsonwire"
)

// WriteOption configures a Writer.
type WriteOption func(*Writer)

// Indent pretty-prints with the given indent per level. Indented output is
// not canonical.
func Indent(indent string) WriteOption {
	return func(w *Writer) { w.indent = indent }
}

// Writer emits canonical JSON: no whitespace, object fields in schema order,
// map entries in case-insensitive key order, null fields included. Each
// Write produces one complete document.
type Writer struct {
	out    io.Writer
	buf    []byte
	indent string
	depth  int
}

var _ Visitor = (*Writer)(nil)

// NewWriter returns a Writer emitting to out.
func NewWriter(out io.Writer, opts ...WriteOption) *Writer {
	w := &Writer{out: out}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes v.
func (w *Writer) Write(v Value) error {
	w.buf, w.depth = w.buf[:0], 0
	if err := v.Accept(w); err != nil {
		return err
	}
	_, err := w.out.Write(w.buf)
	return err
}

// WriteObject encodes c; a key-instance is written with its key fields only.
func (w *Writer) WriteObject(c Composite) error {
	return w.Write(Value{kind: KindObject, v: c})
}

// Marshal returns the canonical JSON text of v.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) str(s string) error {
	w.buf = jsonwire.AppendString(w.buf, s)
	return nil
}

func (w *Writer) newline() {
	if w.indent == "" {
		return
	}
	w.buf = append(w.buf, '\n')
	w.buf = append(w.buf, strings.Repeat(w.indent, w.depth)...)
}

func (w *Writer) open(c byte) {
	w.buf = append(w.buf, c)
	w.depth++
}

// close ends a container; empty containers stay on one line.
func (w *Writer) close(c byte, empty bool) {
	w.depth--
	if !empty {
		w.newline()
	}
	w.buf = append(w.buf, c)
}

func (w *Writer) key(i int, k string) {
	if i > 0 {
		w.buf = append(w.buf, ',')
	}
	w.newline()
	w.buf = jsonwire.AppendString(w.buf, k)
	w.buf = append(w.buf, ':')
	if w.indent != "" {
		w.buf = append(w.buf, ' ')
	}
}

func (w *Writer) VisitNull() error {
	w.buf = append(w.buf, "null"...)
	return nil
}

func (w *Writer) VisitBool(b bool) error {
	w.buf = strconv.AppendBool(w.buf, b)
	return nil
}

func (w *Writer) VisitInteger(n any) error {
	switch v := n.(type) {
	case *big.Int:
		w.buf = v.Append(w.buf, 10)
	default:
		b, _ := integerOf(n)
		w.buf = b.Append(w.buf, 10)
	}
	return nil
}

// VisitDecimal writes a number that always carries a fraction or an exponent,
// so that untyped reading gives back a decimal.
func (w *Writer) VisitDecimal(d any) error {
	var text string
	switch v := d.(type) {
	case decimal.Decimal:
		text = formatDecimal(v)
	case float64:
		text = strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		text = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	w.buf = append(w.buf, text...)
	if !strings.ContainsAny(text, ".eE") {
		w.buf = append(w.buf, ".0"...)
	}
	return nil
}

// formatDecimal writes d in plain notation unless scientific notation is
// shorter, so large exponents never expand into runs of zeros.
func formatDecimal(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	digits := new(big.Int).Abs(d.Coefficient()).String()
	exp := int64(d.Exponent())
	for len(digits) > 1 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
		exp++
	}
	n := int64(len(digits))
	var plain int64
	switch {
	case exp >= 0:
		plain = n + exp
	case n > -exp:
		plain = n + 1
	default:
		plain = 2 - exp
	}
	adj := strconv.FormatInt(exp+n-1, 10)
	sci := n + 1 + int64(len(adj))
	if n > 1 {
		sci++
	}
	if plain <= sci {
		return d.String()
	}
	var sb strings.Builder
	if d.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(digits[:1])
	if n > 1 {
		sb.WriteByte('.')
		sb.WriteString(digits[1:])
	}
	sb.WriteByte('e')
	sb.WriteString(adj)
	return sb.String()
}

func (w *Writer) VisitString(s any) error {
	return w.str(textOf(KindString, s))
}

func (w *Writer) VisitDate(d civil.Date) error          { return w.str(codec.FormatDate(d)) }
func (w *Writer) VisitTime(t civil.Time) error          { return w.str(codec.FormatTime(t)) }
func (w *Writer) VisitDateTime(dt civil.DateTime) error { return w.str(codec.FormatDateTime(dt)) }
func (w *Writer) VisitInstant(t time.Time) error        { return w.str(codec.FormatInstant(t)) }
func (w *Writer) VisitDuration(d time.Duration) error   { return w.str(codec.FormatDuration(d)) }
func (w *Writer) VisitEnum(e Enum) error                { return w.str(e.Symbol()) }
func (w *Writer) VisitBlob(b *Blob) error               { return w.str(b.String()) }

func (w *Writer) VisitObject(c Composite) error {
	w.open('{')
	i := 0
	for name, v := range c.Fields() {
		w.key(i, name)
		if err := v.Accept(w); err != nil {
			return err
		}
		i++
	}
	w.close('}', i == 0)
	return nil
}

func (w *Writer) VisitList(l *List) error {
	w.open('[')
	items := l.Values()
	for i, v := range items {
		if i > 0 {
			w.buf = append(w.buf, ',')
		}
		w.newline()
		if err := v.Accept(w); err != nil {
			return err
		}
	}
	w.close(']', len(items) == 0)
	return nil
}

func (w *Writer) VisitMap(m *Map) error {
	w.open('{')
	i := 0
	for k, v := range m.All() {
		w.key(i, k)
		if err := v.Accept(w); err != nil {
			return err
		}
		i++
	}
	w.close('}', i == 0)
	return nil
}
