package fusion

import (
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// BlobRef is a content-addressed reference to a blob: a digest (the key) and
// the blob's length. Its text form is "<digest>.<length>", or the bare digest
// when the length is unknown, and that is how it appears on the wire.
type BlobRef struct {
	*Object
}

const (
	blobRefHash = iota
	blobRefSize
)

var blobRefSchema = NewSchema("BlobRef").
	Field("hash", MustDomain(KindString, "")).Key().
	Field("size", MustDomain(KindInteger, QualLong, 0)).Nullable().
	MustBuild()

// BlobRefType is the registered factory of BlobRef objects.
var BlobRefType = NewObjectType(blobRefSchema,
	WithConstructor(func(o *Object) Composite { return &BlobRef{Object: o} }),
	WithCheck(func(v View) error {
		h := v.Get(blobRefHash)
		if h.IsNull() {
			return nil
		}
		s, _ := h.Text()
		if err := digest.Digest(s).Validate(); err != nil {
			params := map[string]any{"kind": "digest"}
			return Issues{{Path: "/hash", Code: CodeInvalidFormat, Message: message(CodeInvalidFormat, params), Params: params, Cause: err}}
		}
		return nil
	}),
)

func init() { MustRegister(BlobRefType) }

// NewBlobRef returns a frozen reference. A negative size means unknown.
func NewBlobRef(d digest.Digest, size int64) (*BlobRef, error) {
	r := BlobRefType.Make().(*BlobRef)
	if err := r.Set(blobRefHash, d.String()); err != nil {
		return nil, err
	}
	if size >= 0 {
		if err := r.Set(blobRefSize, size); err != nil {
			return nil, err
		}
	}
	if err := r.DoneWrite(); err != nil {
		return nil, err
	}
	return r, nil
}

// BlobRefOf computes the sha256 reference of b's content.
func BlobRefOf(b *Blob) (*BlobRef, error) {
	p := b.Bytes()
	return NewBlobRef(digest.FromBytes(p), int64(len(p)))
}

// ParseBlobRef reads the text form, splitting on the first '.'.
func ParseBlobRef(s string) (*BlobRef, error) {
	r := BlobRefType.Make().(*BlobRef)
	if err := r.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	if err := r.DoneWrite(); err != nil {
		return nil, err
	}
	return r, nil
}

// Digest returns the content digest.
func (r *BlobRef) Digest() digest.Digest {
	s, _ := r.Get(blobRefHash).Text()
	return digest.Digest(s)
}

// Size returns the blob length when known.
func (r *BlobRef) Size() (int64, bool) {
	return r.Get(blobRefSize).Int64()
}

// Verify reports whether b has the referenced length and digest.
func (r *BlobRef) Verify(b *Blob) bool {
	p := b.Bytes()
	if n, ok := r.Size(); ok && n != int64(len(p)) {
		return false
	}
	d := r.Digest()
	if d.Validate() != nil {
		return false
	}
	v := d.Verifier()
	_, _ = v.Write(p)
	return v.Verified()
}

func (r *BlobRef) MarshalText() ([]byte, error) {
	text := r.Digest().String()
	if n, ok := r.Size(); ok && !r.IsKeyInstance() {
		text += "." + strconv.FormatInt(n, 10)
	}
	return []byte(text), nil
}

// UnmarshalText assigns both fields of a BlobRef that is not yet READ.
func (r *BlobRef) UnmarshalText(text []byte) error {
	hash, size, dotted := strings.Cut(string(text), ".")
	if err := r.Set(blobRefHash, hash); err != nil {
		return err
	}
	if !dotted || r.IsKeyInstance() {
		return nil
	}
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return newError(ErrCoercion, CodeInvalidFormat, map[string]any{"kind": "BlobRef"}, err)
	}
	return r.Set(blobRefSize, n)
}

func (r *BlobRef) String() string {
	text, _ := r.MarshalText()
	return string(text)
}
