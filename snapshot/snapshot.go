package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/whale/blobstore"
)

const (
	// CurrentName is the blob holding the name of the committed snapshot.
	CurrentName = "CURRENT"

	// Ext is the file extension of versioned snapshot names.
	Ext = ".whl"
)

// ErrNoCurrent is returned when no snapshot has been committed.
var ErrNoCurrent = errors.New("snapshot: no current snapshot")

// Save writes data under name.
func Save(ctx context.Context, store blobstore.Store, name string, data []byte, opts ...Option) error {
	o := applyOptions(opts)
	err := save(ctx, store, name, data, o)
	o.log.LogSnapshot(ctx, "save", name, len(data), err)
	return err
}

func save(ctx context.Context, store blobstore.Store, name string, data []byte, o options) error {
	if name == "" || name == CurrentName {
		return fmt.Errorf("snapshot: invalid name %q", name)
	}
	if o.exclusive {
		if err := blobstore.PutIfAbsent(ctx, store, name, data); err != nil {
			return fmt.Errorf("snapshot: save %s: %w", name, err)
		}
		return nil
	}
	if o.rc == nil {
		if err := store.Put(ctx, name, data); err != nil {
			return fmt.Errorf("snapshot: save %s: %w", name, err)
		}
		return nil
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: save %s: %w", name, err)
	}
	if _, err := io.Copy(o.rc.Writer(ctx, wb), bytes.NewReader(data)); err != nil {
		_ = blobstore.Abort(wb)
		return fmt.Errorf("snapshot: save %s: %w", name, err)
	}
	if err := wb.Sync(); err != nil {
		_ = blobstore.Abort(wb)
		return fmt.Errorf("snapshot: save %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("snapshot: save %s: %w", name, err)
	}
	return nil
}

// Load reads the snapshot name.
func Load(ctx context.Context, store blobstore.Store, name string, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)
	data, err := load(ctx, store, name, o)
	o.log.LogSnapshot(ctx, "load", name, len(data), err)
	return data, err
}

func load(ctx context.Context, store blobstore.Store, name string, o options) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", name, err)
	}
	defer func() { _ = b.Close() }()

	if o.rc == nil {
		data, err := blobstore.ReadAll(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("snapshot: load %s: %w", name, err)
		}
		return data, nil
	}

	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}
	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := buf.ReadFrom(o.rc.Reader(ctx, rc)); err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", name, err)
	}
	if int64(buf.Len()) != size {
		return nil, fmt.Errorf("snapshot: load %s: short read: %d of %d bytes", name, buf.Len(), size)
	}
	return buf.Bytes(), nil
}

// Commit points CURRENT at name. The snapshot must exist.
func Commit(ctx context.Context, store blobstore.Store, name string, opts ...Option) error {
	o := applyOptions(opts)

	b, err := store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: commit %s: %w", name, err)
	}
	_ = b.Close()

	if err := store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return fmt.Errorf("snapshot: commit %s: %w", name, err)
	}
	o.log.InfoContext(ctx, "snapshot committed", "name", name)
	return nil
}

// Current returns the name of the committed snapshot. It fails with
// ErrNoCurrent if nothing has been committed.
func Current(ctx context.Context, store blobstore.Store) (string, error) {
	data, err := blobstore.Get(ctx, store, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return "", ErrNoCurrent
	}
	if err != nil {
		return "", fmt.Errorf("snapshot: read %s: %w", CurrentName, err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoCurrent
	}
	return name, nil
}

// LoadCurrent loads the committed snapshot and returns its name and content.
func LoadCurrent(ctx context.Context, store blobstore.Store, opts ...Option) (string, []byte, error) {
	name, err := Current(ctx, store)
	if err != nil {
		return "", nil, err
	}
	data, err := Load(ctx, store, name, opts...)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// Versioned returns the snapshot name of version id under prefix, e.g.
// "layout-000007.whl".
func Versioned(prefix string, id uint64) string {
	return fmt.Sprintf("%s-%06d%s", prefix, id, Ext)
}

// Versions returns the versions saved under prefix in ascending order.
// Names not produced by Versioned are ignored.
func Versions(ctx context.Context, store blobstore.Store, prefix string) ([]uint64, error) {
	names, err := store.List(ctx, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", prefix, err)
	}
	ids := []uint64{}
	for _, name := range names {
		id, ok := parseVersion(prefix, name)
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Next returns the name following the newest version under prefix.
func Next(ctx context.Context, store blobstore.Store, prefix string) (string, error) {
	ids, err := Versions(ctx, store, prefix)
	if err != nil {
		return "", err
	}
	var next uint64 = 1
	if len(ids) > 0 {
		next = ids[len(ids)-1] + 1
	}
	return Versioned(prefix, next), nil
}

func parseVersion(prefix, name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, prefix+"-")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, Ext)
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
