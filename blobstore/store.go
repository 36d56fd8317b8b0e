package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExists is returned by conditional writes when the blob already exists.
var ErrExists = os.ErrExist

// ErrNotSupported is returned when a store cannot perform an operation on a blob.
var ErrNotSupported = errors.New("blobstore: operation not supported")

// Store is an abstraction for accessing named data blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at offset off. It returns io.EOF when fewer
	// bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// ConditionalStore is implemented by stores that can create a blob only if
// it does not exist yet, in one atomic step.
type ConditionalStore interface {
	// PutIfAbsent writes data unless name exists, in which case it returns
	// an error matching ErrExists.
	PutIfAbsent(ctx context.Context, name string, data []byte) error
}

// PutIfAbsent writes data to name unless it already exists. Stores that do
// not implement ConditionalStore are checked with Open first, which is not
// atomic.
func PutIfAbsent(ctx context.Context, s Store, name string, data []byte) error {
	if cs, ok := s.(ConditionalStore); ok {
		return cs.PutIfAbsent(ctx, name, data)
	}
	b, err := s.Open(ctx, name)
	switch {
	case err == nil:
		_ = b.Close()
		return fmt.Errorf("blobstore: %s: %w", name, ErrExists)
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return s.Put(ctx, name, data)
}

// ReadAll reads the whole content of b.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return nil, err
	}
	if int64(n) != size {
		return nil, fmt.Errorf("blobstore: short read: %d of %d bytes", n, size)
	}
	return buf, nil
}

// Get opens name in s and reads it completely.
func Get(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()
	return ReadAll(ctx, b)
}
