// Package jsonwire is the character-level layer of the canonical JSON codec:
// a scanner with one rune of lookahead that checks every token against the
// token-break set, and the string escaping shared with the writer.
package jsonwire

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// EOF is returned by Peek and Next at end of input.
const EOF rune = -1

// SyntaxError describes malformed input at a byte offset.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsonwire: %s at offset %d", e.Msg, e.Offset)
}

// Scanner reads JSON tokens rune by rune.
type Scanner struct {
	r   io.RuneScanner
	off int64
	buf strings.Builder
}

// NewScanner wraps r. Readers that are not io.RuneScanner get a bufio.Reader.
func NewScanner(r io.Reader) *Scanner {
	rs, ok := r.(io.RuneScanner)
	if !ok {
		rs = bufio.NewReader(r)
	}
	return &Scanner{r: rs}
}

// Offset is the byte offset of the next unread rune.
func (s *Scanner) Offset() int64 { return s.off }

// Errorf builds a SyntaxError at the current offset.
func (s *Scanner) Errorf(format string, args ...any) error {
	return &SyntaxError{Offset: s.off, Msg: fmt.Sprintf(format, args...)}
}

// Next consumes one rune.
func (s *Scanner) Next() (rune, error) {
	r, size, err := s.r.ReadRune()
	if err == io.EOF {
		return EOF, nil
	}
	if err != nil {
		return EOF, err
	}
	if r == utf8.RuneError && size == 1 {
		return EOF, s.Errorf("invalid UTF-8")
	}
	s.off += int64(size)
	return r, nil
}

// Peek returns the next rune without consuming it.
func (s *Scanner) Peek() (rune, error) {
	r, size, err := s.r.ReadRune()
	if err == io.EOF {
		return EOF, nil
	}
	if err != nil {
		return EOF, err
	}
	if r == utf8.RuneError && size == 1 {
		return EOF, s.Errorf("invalid UTF-8")
	}
	if err := s.r.UnreadRune(); err != nil {
		return EOF, err
	}
	return r, nil
}

// IsSpace reports JSON insignificant whitespace.
func IsSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

// IsBreak reports whether r may directly follow a token.
func IsBreak(r rune) bool {
	switch r {
	case EOF, ',', ':', '{', '}', '[', ']':
		return true
	}
	return IsSpace(r)
}

// SkipSpace consumes whitespace and returns the next significant rune
// without consuming it.
func (s *Scanner) SkipSpace() (rune, error) {
	for {
		r, err := s.Peek()
		if err != nil || !IsSpace(r) {
			return r, err
		}
		if _, err := s.Next(); err != nil {
			return EOF, err
		}
	}
}

// Expect consumes want or fails.
func (s *Scanner) Expect(want rune) error {
	r, err := s.Next()
	if err != nil {
		return err
	}
	if r != want {
		return s.Errorf("expected %s, found %s", quoteRune(want), quoteRune(r))
	}
	return nil
}

// ExpectBreak checks, without consuming, that the next rune ends the token.
func (s *Scanner) ExpectBreak() error {
	r, err := s.Peek()
	if err != nil {
		return err
	}
	if !IsBreak(r) {
		return s.Errorf("unexpected character %s after token", quoteRune(r))
	}
	return nil
}

// ExpectWord consumes a literal such as "null" or "true" followed by a token break.
func (s *Scanner) ExpectWord(word string) error {
	for _, want := range word {
		if err := s.Expect(want); err != nil {
			return err
		}
	}
	return s.ExpectBreak()
}

// ReadBool consumes true or false.
func (s *Scanner) ReadBool() (bool, error) {
	r, err := s.Peek()
	if err != nil {
		return false, err
	}
	switch r {
	case 't':
		return true, s.ExpectWord("true")
	case 'f':
		return false, s.ExpectWord("false")
	}
	return false, s.Errorf("expected boolean, found %s", quoteRune(r))
}

// ReadString consumes a quoted string and returns its unescaped content.
func (s *Scanner) ReadString() (string, error) {
	if err := s.Expect('"'); err != nil {
		return "", err
	}
	s.buf.Reset()
	for {
		r, err := s.Next()
		if err != nil {
			return "", err
		}
		switch {
		case r == EOF:
			return "", s.Errorf("unterminated string")
		case r == '"':
			out := s.buf.String()
			return out, s.ExpectBreak()
		case r == '\\':
			if err := s.readEscape(); err != nil {
				return "", err
			}
		case r < 0x20:
			return "", s.Errorf("unescaped control character %U in string", r)
		default:
			s.buf.WriteRune(r)
		}
	}
}

func (s *Scanner) readEscape() error {
	r, err := s.Next()
	if err != nil {
		return err
	}
	switch r {
	case '"', '\\', '/':
		s.buf.WriteRune(r)
	case 'b':
		s.buf.WriteByte('\b')
	case 'f':
		s.buf.WriteByte('\f')
	case 'n':
		s.buf.WriteByte('\n')
	case 'r':
		s.buf.WriteByte('\r')
	case 't':
		s.buf.WriteByte('\t')
	case 'u':
		u, err := s.readHex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(u) {
			if u >= 0xDC00 {
				return s.Errorf("unpaired surrogate \\u%04X", u)
			}
			low, err := s.readLowSurrogate()
			if err != nil {
				return err
			}
			u = utf16.DecodeRune(u, low)
		}
		s.buf.WriteRune(u)
	default:
		return s.Errorf("invalid escape %s", quoteRune(r))
	}
	return nil
}

// readLowSurrogate consumes the \uXXXX that must complete a surrogate pair.
func (s *Scanner) readLowSurrogate() (rune, error) {
	if err := s.Expect('\\'); err != nil {
		return 0, err
	}
	if err := s.Expect('u'); err != nil {
		return 0, err
	}
	low, err := s.readHex4()
	if err != nil {
		return 0, err
	}
	if low < 0xDC00 || low > 0xDFFF {
		return 0, s.Errorf("unpaired surrogate")
	}
	return low, nil
}

func (s *Scanner) readHex4() (rune, error) {
	var v rune
	for i := 0; i < 4; i++ {
		r, err := s.Next()
		if err != nil {
			return 0, err
		}
		switch {
		case r >= '0' && r <= '9':
			v = v<<4 | (r - '0')
		case r >= 'a' && r <= 'f':
			v = v<<4 | (r - 'a' + 10)
		case r >= 'A' && r <= 'F':
			v = v<<4 | (r - 'A' + 10)
		default:
			return 0, s.Errorf("invalid hex digit %s in \\u escape", quoteRune(r))
		}
	}
	return v, nil
}

// Number is a raw JSON number literal.
type Number struct {
	Text string
	// Integer is true when the literal has neither fraction nor exponent.
	Integer bool
}

// ReadNumber consumes a number literal following the JSON grammar.
func (s *Scanner) ReadNumber() (Number, error) {
	s.buf.Reset()
	integer := true
	r, err := s.Peek()
	if err != nil {
		return Number{}, err
	}
	if r == '-' {
		s.take()
	}
	if err := s.digits(true); err != nil {
		return Number{}, err
	}
	if r, _ = s.Peek(); r == '.' {
		integer = false
		s.take()
		if err := s.digits(false); err != nil {
			return Number{}, err
		}
	}
	if r, _ = s.Peek(); r == 'e' || r == 'E' {
		integer = false
		s.take()
		if r, _ = s.Peek(); r == '+' || r == '-' {
			s.take()
		}
		if err := s.digits(false); err != nil {
			return Number{}, err
		}
	}
	if err := s.ExpectBreak(); err != nil {
		return Number{}, err
	}
	return Number{Text: s.buf.String(), Integer: integer}, nil
}

func (s *Scanner) take() {
	r, _ := s.Next()
	s.buf.WriteRune(r)
}

// digits consumes one or more digits. With leading set a multi-digit run may
// not start with zero.
func (s *Scanner) digits(leading bool) error {
	r, err := s.Peek()
	if err != nil {
		return err
	}
	if r < '0' || r > '9' {
		return s.Errorf("expected digit, found %s", quoteRune(r))
	}
	s.take()
	if leading && r == '0' {
		if r, _ = s.Peek(); r >= '0' && r <= '9' {
			return s.Errorf("leading zero in number")
		}
		return nil
	}
	for {
		r, err = s.Peek()
		if err != nil {
			return err
		}
		if r < '0' || r > '9' {
			return nil
		}
		s.take()
	}
}

func quoteRune(r rune) string {
	if r == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", r)
}
