package blobstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"
)

// RangeFetcher returns the bytes [off, end] of an object. end is inclusive
// and always within the object, matching an HTTP Range header.
type RangeFetcher func(ctx context.Context, off, end int64) (io.ReadCloser, error)

// RemoteBlob is a Blob of known size read through ranged requests. The
// object stores build their blobs on it.
type RemoteBlob struct {
	size  int64
	fetch RangeFetcher
}

var _ Blob = (*RemoteBlob)(nil)

// NewRemoteBlob returns a blob of size bytes served by fetch.
func NewRemoteBlob(size int64, fetch RangeFetcher) *RemoteBlob {
	return &RemoteBlob{size: size, fetch: fetch}
}

func (b *RemoteBlob) Size() int64  { return b.size }
func (b *RemoteBlob) Close() error { return nil }

// ReadAt issues one ranged request. A read extending past the end returns
// the available bytes and io.EOF.
func (b *RemoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	end, err := clampRange(off, int64(len(p)), b.size)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rc, err := b.fetch(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := io.ReadFull(rc, p[:end-off+1])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return n, io.EOF
		}
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadRange returns the body of a ranged request for length bytes at off.
func (b *RemoteBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	end, err := clampRange(off, length, b.size)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if length <= 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}
	return b.fetch(ctx, off, end)
}

// clampRange returns the inclusive end of length bytes at off inside an
// object of size bytes, or io.EOF if off is outside it. A non-positive
// length yields off-1.
func clampRange(off, length, size int64) (int64, error) {
	if off < 0 || off >= size {
		return 0, io.EOF
	}
	return min(off+max(length, 0), size) - 1, nil
}

// JoinKey returns the object key of name under prefix.
func JoinKey(prefix, name string) string {
	return path.Join(prefix, name)
}

// RelKey strips prefix and the separator after it from an object key.
func RelKey(prefix, key string) string {
	p := strings.TrimSuffix(prefix, "/")
	if p == "" {
		return key
	}
	if rel, ok := strings.CutPrefix(key, p+"/"); ok {
		return rel
	}
	return key
}

// Aborter is implemented by writable blobs that can discard a write in
// progress instead of committing it on Close.
type Aborter interface {
	Abort() error
}

// Abort discards w if it supports it and closes it otherwise.
func Abort(w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// Uploader consumes the content of an object until r returns io.EOF.
type Uploader func(ctx context.Context, r io.Reader) error

// PipeBlob is a WritableBlob whose writes stream into an Uploader running
// in its own goroutine. Close waits for the upload to finish.
type PipeBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu     sync.Mutex
	closed bool
	err    error
}

var (
	_ WritableBlob = (*PipeBlob)(nil)
	_ Aborter      = (*PipeBlob)(nil)
)

// ErrAborted is the upload error after Abort.
var ErrAborted = errors.New("blobstore: upload aborted")

// NewPipeBlob starts upload and returns the blob feeding it.
func NewPipeBlob(ctx context.Context, upload Uploader) *PipeBlob {
	pr, pw := io.Pipe()
	b := &PipeBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		err := upload(ctx, pr)
		// Unblock writers if the upload stopped early.
		_ = pr.CloseWithError(err)
		b.done <- err
	}()
	return b
}

func (b *PipeBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

// Sync is a no-op; the object becomes visible on Close.
func (b *PipeBlob) Sync() error { return nil }

// Close ends the stream and returns the upload error. Later calls return the
// same error.
func (b *PipeBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.err
	}
	b.closed = true
	_ = b.pw.Close()
	b.err = <-b.done
	return b.err
}

// Abort fails the stream so the uploader discards it.
func (b *PipeBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	_ = b.pw.CloseWithError(ErrAborted)
	<-b.done
	b.err = ErrAborted
	return nil
}
