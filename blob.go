package fusion

import (
	"encoding/base64"
	"errors"
	"io"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/reoring/fusion/iwr"
)

// ErrStreamClosed is returned when a blob stream is used after it was closed,
// either explicitly or by reaching the end of the blob.
var ErrStreamClosed = errors.New("fusion: blob stream closed")

// Blob is a byte buffer of fixed length. Content is written through at most
// one writer stream at a time and read through any number of reader streams.
// Streams exclude each other with a reader-writer lock that is separate from
// the lifecycle lock: opening a reader waits for an open writer to close and
// opening a writer waits for every reader to close.
type Blob struct {
	lc     iwr.Lifecycle
	rw     sync.RWMutex
	bytes  []byte
	writer *BlobWriter // guarded by lc
}

// NewBlob creates a zero-filled blob of n bytes in INIT.
func NewBlob(n int) *Blob {
	if n < 0 {
		panic("fusion: negative blob length")
	}
	return &Blob{bytes: make([]byte, n)}
}

// NewBlobFrom creates a blob in INIT holding a copy of p.
func NewBlobFrom(p []byte) *Blob {
	return &Blob{bytes: append(make([]byte, 0, len(p)), p...)}
}

func (b *Blob) State() iwr.State  { return b.lc.State() }
func (b *Blob) DoneInit() error   { return fromIWR(b.lc.DoneInit(b.hook)) }
func (b *Blob) DoneWrite() error  { return fromIWR(b.lc.DoneWrite(b.hook)) }
func (b *Blob) EnsureRead() error { return fromIWR(b.lc.EnsureRead(b.hook)) }

func (b *Blob) hook(iwr.State) error {
	if b.writer != nil {
		return lifecycleError(CodeOpenWriter, nil)
	}
	return nil
}

// Len returns the fixed length.
func (b *Blob) Len() int { return len(b.bytes) }

// Get returns the byte at index i, waiting for an open writer stream to close.
func (b *Blob) Get(i int) byte {
	b.rw.RLock()
	defer b.rw.RUnlock()
	return b.bytes[i]
}

// Set assigns the byte at index i. It fails in READ and while a writer
// stream is open.
func (b *Blob) Set(i int, v byte) error {
	if i < 0 || i >= len(b.bytes) {
		return noSuchField(i)
	}
	noWriter := func(iwr.State) error {
		if b.writer != nil {
			return lifecycleError(CodeWriterInUse, nil)
		}
		return nil
	}
	// The open writer holds rw, so it has to be ruled out before waiting on rw.
	if err := b.lc.Mutate(noWriter); err != nil {
		return fromIWR(err)
	}
	b.rw.Lock()
	defer b.rw.Unlock()
	return fromIWR(b.lc.Mutate(func(st iwr.State) error {
		if err := noWriter(st); err != nil {
			return err
		}
		b.bytes[i] = v
		return nil
	}))
}

// Bytes returns a copy of the content.
func (b *Blob) Bytes() []byte {
	b.rw.RLock()
	defer b.rw.RUnlock()
	return append([]byte(nil), b.bytes...)
}

// MIME sniffs the media type of the content.
func (b *Blob) MIME() string {
	return mimetype.Detect(b.Bytes()).String()
}

// String returns the URL-safe unpadded base64 form used on the wire.
func (b *Blob) String() string {
	return base64.RawURLEncoding.EncodeToString(b.Bytes())
}

// Reader opens a reader stream. It blocks while a writer stream is open.
func (b *Blob) Reader() *BlobReader {
	b.rw.RLock()
	r := &BlobReader{b: b}
	if len(b.bytes) == 0 {
		r.close()
	}
	return r
}

// Writer opens the writer stream. Opening a second writer before the first
// is closed fails, as does opening one in READ. It blocks until every open
// reader stream is closed.
func (b *Blob) Writer() (*BlobWriter, error) {
	w := &BlobWriter{b: b}
	err := b.lc.Mutate(func(iwr.State) error {
		if b.writer != nil {
			return lifecycleError(CodeWriterInUse, nil)
		}
		b.writer = w
		return nil
	})
	if err != nil {
		return nil, fromIWR(err)
	}
	b.rw.Lock()
	if len(b.bytes) == 0 {
		w.close()
	}
	return w, nil
}

// Clone copies the content into a blob in the target state. A READ blob
// cloned for READ is returned as is.
func (b *Blob) Clone(target iwr.State) (*Blob, error) {
	from := b.State()
	if from == iwr.Read && target == iwr.Read {
		return b, nil
	}
	cp := NewBlobFrom(b.Bytes())
	if err := cp.lc.Restore(from, target, cp.hook); err != nil {
		return nil, fromIWR(err)
	}
	return cp, nil
}

// BlobReader streams a blob's content. It closes itself after the last byte.
// A BlobReader is not safe for concurrent use.
type BlobReader struct {
	b      *Blob
	i      int
	closed bool
}

// ReadByte returns the next byte, io.EOF once the stream is closed.
func (r *BlobReader) ReadByte() (byte, error) {
	if r.closed {
		return 0, io.EOF
	}
	c := r.b.bytes[r.i]
	r.advance(1)
	return c, nil
}

func (r *BlobReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := copy(p, r.b.bytes[r.i:])
	r.advance(n)
	return n, nil
}

func (r *BlobReader) advance(n int) {
	if r.i += n; r.i == len(r.b.bytes) {
		r.close()
	}
}

// Close releases the stream's read lock. Closing twice is a no-op.
func (r *BlobReader) Close() error {
	r.close()
	return nil
}

func (r *BlobReader) close() {
	if !r.closed {
		r.closed = true
		r.b.rw.RUnlock()
	}
}

// BlobWriter fills a blob from the start. It closes itself after the last
// byte. A BlobWriter is not safe for concurrent use.
type BlobWriter struct {
	b      *Blob
	i      int
	closed bool
}

// WriteByte stores the next byte.
func (w *BlobWriter) WriteByte(c byte) error {
	if w.closed {
		return ErrStreamClosed
	}
	w.b.bytes[w.i] = c
	w.advance(1)
	return nil
}

// Write stores as many bytes as remain in the blob; a short write reports
// ErrStreamClosed.
func (w *BlobWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrStreamClosed
	}
	n := copy(w.b.bytes[w.i:], p)
	w.advance(n)
	if n < len(p) {
		return n, ErrStreamClosed
	}
	return n, nil
}

func (w *BlobWriter) advance(n int) {
	if w.i += n; w.i == len(w.b.bytes) {
		w.close()
	}
}

// Close releases the blob for readers and for the next writer. Closing twice
// is a no-op.
func (w *BlobWriter) Close() error {
	w.close()
	return nil
}

func (w *BlobWriter) close() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.b.lc.Do(func(iwr.State) error {
		w.b.writer = nil
		return nil
	})
	w.b.rw.Unlock()
}
