package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/whale/blobstore"
)

// Store keeps snapshots in an S3 bucket under a key prefix.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	uploader *manager.Uploader
	upload   UploadConfig
}

var (
	_ blobstore.Store            = (*Store)(nil)
	_ blobstore.ConditionalStore = (*Store)(nil)
)

// NewStore returns a store for bucket with the default upload settings.
// Snapshot names are joined to prefix.
func NewStore(client Client, bucket, prefix string) *Store {
	return NewStoreWithConfig(client, bucket, prefix, DefaultUploadConfig())
}

// NewStoreWithConfig is NewStore with explicit upload settings.
func NewStoreWithConfig(client Client, bucket, prefix string, cfg UploadConfig) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		uploader: newUploader(client, cfg),
		upload:   cfg,
	}
}

type options struct {
	prefix string
	region string
	upload UploadConfig
	s3Opts []func(*s3.Options)
}

// Option configures New.
type Option func(*options)

// WithPrefix sets the key prefix of all snapshots.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithRegion overrides the region of the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithUploadConfig sets the upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) {
		o.upload = cfg
	}
}

// WithS3Options passes options to the S3 client, e.g. a custom endpoint.
func WithS3Options(fns ...func(*s3.Options)) Option {
	return func(o *options) {
		o.s3Opts = append(o.s3Opts, fns...)
	}
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	o := options{upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewStoreWithConfig(s3.NewFromConfig(cfg, o.s3Opts...), bucket, o.prefix, o.upload), nil
}

func (s *Store) key(name string) string { return blobstore.JoinKey(s.prefix, name) }

// Open issues a HeadObject and returns a blob read with ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap("open", key, err)
	}
	return blobstore.NewRemoteBlob(aws.ToInt64(head.ContentLength), func(ctx context.Context, off, end int64) (io.ReadCloser, error) {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
		})
		if err != nil {
			return nil, s.wrap("get", key, err)
		}
		return resp.Body, nil
	}), nil
}

// Create streams through the upload manager. The object appears on Close;
// blobstore.Abort cancels the upload and removes uploaded parts unless
// LeavePartsOnError is set.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	return blobstore.NewPipeBlob(ctx, func(ctx context.Context, r io.Reader) error {
		input := &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   r,
		}
		if s.upload.EnableChecksum {
			input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
		}
		if _, err := s.uploader.Upload(ctx, input); err != nil {
			return s.wrap("upload", key, err)
		}
		return nil
	}), nil
}

// Put writes data in one request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	if _, err := s.client.PutObject(ctx, s.putInput(key, data)); err != nil {
		return s.wrap("put", key, err)
	}
	return nil
}

// PutIfAbsent writes data with If-None-Match: *, so a concurrent writer of
// the same snapshot name loses with blobstore.ErrExists.
func (s *Store) PutIfAbsent(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	input := s.putInput(key, data)
	input.IfNoneMatch = aws.String("*")
	if _, err := s.client.PutObject(ctx, input); err != nil {
		if apiErrorCode(err) == "PreconditionFailed" || apiErrorCode(err) == "ConditionalRequestConflict" {
			return fmt.Errorf("s3: put %s/%s: %w", s.bucket, key, blobstore.ErrExists)
		}
		return s.wrap("put", key, err)
	}
	return nil
}

func (s *Store) putInput(key string, data []byte) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.upload.EnableChecksum {
		input.ChecksumCRC32C = aws.String(checksumCRC32C(data))
	}
	return input
}

// Delete removes the object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return s.wrap("delete", key, err)
	}
	return nil
}

// List returns the sorted snapshot names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	names := []string{}
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, s.wrap("list", prefix, err)
		}
		for _, obj := range page.Contents {
			if name := blobstore.RelKey(s.prefix, aws.ToString(obj.Key)); name != "" {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) wrap(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("s3: %s %s/%s: %w", op, s.bucket, key, blobstore.ErrNotFound)
	}
	return fmt.Errorf("s3: %s %s/%s: %w", op, s.bucket, key, err)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
