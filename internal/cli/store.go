package cli

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/whale/blobstore"
	whaleminio "github.com/hupe1980/whale/blobstore/minio"
	whales3 "github.com/hupe1980/whale/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// OpenStore opens the blob store named by rawURL:
//
//	mem://                          in-process, discarded on exit
//	file:///abs/dir, file://rel/dir local directory (relative to workDir)
//	s3://bucket/prefix              S3 via the default AWS credential chain
//	                                (?region=R, ?ddb_table=T commits CURRENT via DynamoDB)
//	minio://host:port/bucket/prefix MinIO with MINIO_ACCESS_KEY/MINIO_SECRET_KEY
//	                                (?secure=true for TLS)
func OpenStore(ctx context.Context, rawURL, workDir string, env map[string]string) (blobstore.Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("store url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "mem":
		return blobstore.NewMemoryStore(), nil
	case "file":
		dir := filepath.FromSlash(u.Host + u.Path)
		if dir == "" {
			return nil, fmt.Errorf("store url %q: missing path", rawURL)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(workDir, dir)
		}
		return blobstore.NewLocalStore(dir), nil
	case "s3":
		return openS3(ctx, u)
	case "minio":
		return openMinio(u, env)
	default:
		return nil, fmt.Errorf("store url %q: unsupported scheme %q", rawURL, u.Scheme)
	}
}

func openS3(ctx context.Context, u *url.URL) (blobstore.Store, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("store url %q: missing bucket", u.Redacted())
	}
	prefix := strings.Trim(u.Path, "/")
	q := u.Query()

	opts := []whales3.Option{whales3.WithPrefix(prefix)}
	if region := q.Get("region"); region != "" {
		opts = append(opts, whales3.WithRegion(region))
	}
	store, err := whales3.New(ctx, bucket, opts...)
	if err != nil {
		return nil, err
	}

	table := q.Get("ddb_table")
	if table == "" {
		return store, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if region := q.Get("region"); region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	baseURI := "s3://" + bucket + "/" + prefix
	return whales3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), table, baseURI), nil
}

func openMinio(u *url.URL, env map[string]string) (blobstore.Store, error) {
	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if u.Host == "" || bucket == "" {
		return nil, fmt.Errorf("store url %q: want minio://host/bucket[/prefix]", u.Redacted())
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(env["MINIO_ACCESS_KEY"], env["MINIO_SECRET_KEY"], ""),
		Secure: u.Query().Get("secure") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return whaleminio.NewStore(client, bucket, prefix), nil
}
