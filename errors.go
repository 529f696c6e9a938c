package fusion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/fusion/i18n"
	"github.com/reoring/fusion/iwr"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeRequired         = "required"
	CodeUnknownKey       = "unknown_key"
	CodeDuplicateKey     = "duplicate_key"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
	CodeTooShort         = "too_short"
	CodeTooLong          = "too_long"
	CodeInvalidEnum      = "invalid_enum"
	CodeInvalidFormat    = "invalid_format"
	CodeParseError       = "parse_error"
	CodeOverflow         = "overflow"
	CodeNoSuchField      = "no_such_field"
	CodeDuplicateField   = "duplicate_field"
	CodeInvalidRange     = "invalid_range"
	CodeInvalidSchema    = "invalid_schema"
	CodeUnknownQualifier = "unknown_qualifier"
	CodeDuplicateName    = "duplicate_name"
	// Lifecycle
	CodeNotWritable   = "not_writable"
	CodeAlreadyInit   = "already_init"
	CodeReadonly      = "readonly"
	CodeKeyOnly       = "key_only"
	CodeOpenWriter    = "open_writer"
	CodeWriterInUse   = "writer_in_use"
	CodeNotComparable = "not_comparable"
	// Wrapping codes used when an inner error is attributed to a field.
	CodeInvalidValue = "invalid_value"
	CodeReadField    = "read_field"
)

// Error classes. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrConfig     = errors.New("fusion: configuration error")
	ErrCoercion   = errors.New("fusion: coercion error")
	ErrValidation = errors.New("fusion: validation error")
	ErrLifecycle  = errors.New("fusion: lifecycle error")
	ErrParse      = errors.New("fusion: parse error")
)

// ErrNoSuchField is a configuration error for a field name or index the
// schema does not define.
var ErrNoSuchField = fmt.Errorf("%w: no such field", ErrConfig)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer of the offending value (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10}) for
	// i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		b.WriteString(it.Message)
		if it.Path != "" {
			fmt.Fprintf(b, " at %s", it.Path)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is makes every Issues value match ErrValidation.
func (iss Issues) Is(target error) bool { return target == ErrValidation }

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Error is a single non-validation failure.
type Error struct {
	Class   error // ErrConfig, ErrCoercion, ErrLifecycle or ErrParse.
	Code    string
	Path    string
	Offset  int64 // Byte offset in the JSON input, -1 when not reading.
	Message string
	Params  map[string]any
	Cause   error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString("fusion: ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(b, " (offset %d)", e.Offset)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Cause}
}

// message renders the catalogue text for code with stringified params.
func message(code string, params map[string]any) string {
	if len(params) == 0 {
		return i18n.T(code, nil)
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return i18n.T(code, data)
}

func newError(class error, code string, params map[string]any, cause error) *Error {
	return &Error{Class: class, Code: code, Offset: -1, Message: message(code, params), Params: params, Cause: cause}
}

func configError(code string, params map[string]any) error {
	return newError(ErrConfig, code, params, nil)
}

func configErrorf(format string, args ...any) error {
	e := newError(ErrConfig, CodeInvalidSchema, nil, nil)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

func coercionErrorf(code, format string, args ...any) error {
	e := newError(ErrCoercion, code, nil, nil)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

func noSuchField(name any) error {
	return newError(ErrConfig, CodeNoSuchField, map[string]any{"field": name}, ErrNoSuchField)
}

// lifecycleError reports an iwr failure or a lifecycle rule violation.
func lifecycleError(code string, params map[string]any) error {
	return newError(ErrLifecycle, code, params, nil)
}

// fromIWR maps iwr sentinels to lifecycle errors and passes hook errors through.
func fromIWR(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, iwr.ErrAlreadyInit):
		return newError(ErrLifecycle, CodeAlreadyInit, nil, err)
	case errors.Is(err, iwr.ErrNotWritable):
		return newError(ErrLifecycle, CodeNotWritable, nil, err)
	}
	return err
}

// classOf returns the class of err, ErrValidation for Issues.
func classOf(err error) error {
	for _, c := range []error{ErrValidation, ErrParse, ErrLifecycle, ErrCoercion, ErrConfig} {
		if errors.Is(err, c) {
			return c
		}
	}
	return ErrCoercion
}

// codeOf returns the code carried by err when it has one.
func codeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return ""
}

// inField attributes err to a field. Issues keep their class and get their
// paths prefixed; other errors are wrapped with wrapCode.
func inField(err error, wrapCode, field string) error {
	if err == nil {
		return nil
	}
	seg := "/" + escapePointer(field)
	if iss, ok := err.(Issues); ok {
		out := make(Issues, len(iss))
		for i, it := range iss {
			it.Path = seg + it.Path
			out[i] = it
		}
		return out
	}
	var off int64 = -1
	var inner *Error
	if errors.As(err, &inner) {
		off = inner.Offset
		if inner.Class == ErrLifecycle {
			return err
		}
	}
	e := newError(classOf(err), wrapCode, map[string]any{"field": field}, err)
	e.Path = seg
	if inner != nil && inner.Path != "" {
		e.Path = seg + inner.Path
	}
	e.Offset = off
	return e
}
