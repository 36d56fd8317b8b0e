package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/whale/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store keeps snapshots in a MinIO bucket under a key prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.Store = (*Store)(nil)

// NewStore returns a store for bucket. Snapshot names are joined to prefix,
// so "snapshots" and "snapshots/" behave the same.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) key(name string) string { return blobstore.JoinKey(s.prefix, name) }

// Open stats the object and returns a blob read with ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.wrap("open", key, err)
	}
	return blobstore.NewRemoteBlob(info.Size, func(ctx context.Context, off, end int64) (io.ReadCloser, error) {
		return s.get(ctx, key, off, end)
	}), nil
}

func (s *Store) get(ctx context.Context, key string, off, end int64) (io.ReadCloser, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, end); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	return obj, nil
}

// Put uploads data in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return s.wrap("put", key, err)
	}
	return nil
}

// Create streams an upload of unknown size. The object appears on Close;
// blobstore.Abort discards it.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	return blobstore.NewPipeBlob(ctx, func(ctx context.Context, r io.Reader) error {
		_, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{})
		if err != nil {
			return s.wrap("upload", key, err)
		}
		return nil
	}), nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return s.wrap("delete", key, err)
	}
	return nil
}

// List returns the sorted snapshot names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, s.wrap("list", prefix, obj.Err)
		}
		if name := blobstore.RelKey(s.prefix, obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) wrap(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("minio: %s %s/%s: %w", op, s.bucket, key, blobstore.ErrNotFound)
	}
	return fmt.Errorf("minio: %s %s/%s: %w", op, s.bucket, key, err)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
