package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/whale/blobstore"
	"github.com/hupe1980/whale/viewer"
)

// Info describes a stored snapshot.
type Info struct {
	Name        string
	Kind        viewer.Kind
	Compression viewer.Compression
	// Size is the stored size in bytes, header included.
	Size int64
}

// Stat reads only the header of the snapshot name. On object stores this is
// a single ranged request of viewer.HeaderSize bytes.
func Stat(ctx context.Context, store blobstore.Store, name string) (Info, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: stat %s: %w", name, err)
	}
	defer func() { _ = b.Close() }()

	buf := make([]byte, viewer.HeaderSize)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Info{}, fmt.Errorf("snapshot: stat %s: %w", name, err)
	}
	h, err := viewer.ReadHeader(buf[:n])
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: stat %s: %w", name, err)
	}
	if want := int64(viewer.HeaderSize) + int64(h.BlockLen); b.Size() != want {
		return Info{}, fmt.Errorf("snapshot: stat %s: %w: %d bytes stored, header says %d", name, viewer.ErrCorrupt, b.Size(), want)
	}
	return Info{Name: name, Kind: h.Kind, Compression: h.Compression, Size: b.Size()}, nil
}
