package rosbag

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
)

// ByteRangeReader is an abstract random-access reader over a finite blob of
// known length. Implementations must be safe for concurrent use by
// multiple goroutines, since ParallelMessageStream shares one across its
// worker pool.
type ByteRangeReader interface {
	// Len returns the total size of the blob in bytes.
	Len() int64

	// ReadRange reads exactly n bytes starting at pos. It returns
	// ErrOutOfBounds if pos+n exceeds Len(), and a *BackendError if the
	// backend itself fails.
	ReadRange(ctx context.Context, pos int64, n int64) ([]byte, error)
}

// ReadUint32LE reads a little-endian uint32 at pos.
func ReadUint32LE(ctx context.Context, r ByteRangeReader, pos int64) (uint32, error) {
	b, err := r.ReadRange(ctx, pos, 4)
	if err != nil {
		return 0, err
	}
	return leUint32(b), nil
}

// ReadLengthPrefixed reads a u32 length n at pos, then returns the n bytes
// that follow it.
func ReadLengthPrefixed(ctx context.Context, r ByteRangeReader, pos int64) ([]byte, error) {
	n, err := ReadUint32LE(ctx, r, pos)
	if err != nil {
		return nil, err
	}
	return r.ReadRange(ctx, pos+4, int64(n))
}

// FileBlob is a ByteRangeReader backed by a local filesystem path, grounded
// on the original Cursor's local-filesystem constructor
// (rosbags-lib/src/cursor.rs via rustbag/src/bag.rs's try_from_path).
type FileBlob struct {
	f    *os.File
	size int64
}

// NewFileBlob opens path for random access reads.
func NewFileBlob(path string) (*FileBlob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BackendError{Op: "open", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &BackendError{Op: "stat", Err: err}
	}
	return &FileBlob{f: f, size: info.Size()}, nil
}

func (b *FileBlob) Len() int64 { return b.size }

func (b *FileBlob) ReadRange(_ context.Context, pos int64, n int64) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > b.size {
		return nil, ErrOutOfBounds
	}
	buf := make([]byte, n)
	if _, err := b.f.ReadAt(buf, pos); err != nil {
		return nil, &BackendError{Op: "read", Err: err}
	}
	return buf, nil
}

// Close releases the underlying file handle.
func (b *FileBlob) Close() error {
	return b.f.Close()
}

// ReaderAtBlob adapts an externally supplied io.ReaderAt + known length
// into a ByteRangeReader, per spec.md §4.1's "externally supplied storage
// handle + object metadata" constructor.
type ReaderAtBlob struct {
	r    io.ReaderAt
	size int64
}

// NewReaderAtBlob wraps r, which must support concurrent ReadAt calls.
func NewReaderAtBlob(r io.ReaderAt, size int64) *ReaderAtBlob {
	return &ReaderAtBlob{r: r, size: size}
}

func (b *ReaderAtBlob) Len() int64 { return b.size }

func (b *ReaderAtBlob) ReadRange(_ context.Context, pos int64, n int64) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > b.size {
		return nil, ErrOutOfBounds
	}
	buf := make([]byte, n)
	if _, err := b.r.ReadAt(buf, pos); err != nil {
		return nil, &BackendError{Op: "read", Err: err}
	}
	return buf, nil
}

// HTTPRangeBlob is a ByteRangeReader backed by an HTTP(S) endpoint that
// supports Range requests (S3-compatible object storage, presigned URLs,
// etc), grounded on the original's object_store URL constructor
// (rustbag/src/bag.rs's try_new_from_url) and the option-map contract
// described in spec.md §6. opts are forwarded as request headers: this
// keeps the contract backend-agnostic (bucket/region/credentials are just
// header or query values the caller already knows how to form) without
// pulling in a specific cloud SDK.
type HTTPRangeBlob struct {
	url    string
	opts   map[string]string
	client *http.Client
	size   int64
}

// NewHTTPRangeBlob issues a HEAD request against url to learn its length,
// then returns a blob that serves ReadRange via ranged GETs.
func NewHTTPRangeBlob(ctx context.Context, url string, opts map[string]string) (*HTTPRangeBlob, error) {
	b := &HTTPRangeBlob{url: url, opts: opts, client: http.DefaultClient}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, &BackendError{Op: "head", Err: err}
	}
	applyHTTPOptions(req, opts)
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &BackendError{Op: "head", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &BackendError{Op: "head", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return nil, &BackendError{Op: "head", Err: fmt.Errorf("missing or invalid Content-Length: %w", err)}
	}
	b.size = size
	return b, nil
}

func (b *HTTPRangeBlob) Len() int64 { return b.size }

func (b *HTTPRangeBlob) ReadRange(ctx context.Context, pos int64, n int64) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > b.size {
		return nil, ErrOutOfBounds
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return nil, &BackendError{Op: "range-get", Err: err}
	}
	applyHTTPOptions(req, b.opts)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", pos, pos+n-1))
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &BackendError{Op: "range-get", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Op: "range-get", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		return nil, &BackendError{Op: "range-get", Err: err}
	}
	return buf, nil
}

func applyHTTPOptions(req *http.Request, opts map[string]string) {
	for k, v := range opts {
		req.Header.Set(k, v)
	}
}
