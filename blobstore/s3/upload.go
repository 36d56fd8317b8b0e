package s3

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/hupe1980/whale/internal/hash"
)

// UploadConfig configures writes.
type UploadConfig struct {
	// PartSize is the part size of streamed multipart uploads. Bodies
	// smaller than one part go out as a single PutObject.
	PartSize int64
	// Concurrency is the number of parts uploaded in parallel.
	Concurrency int
	// EnableChecksum sends a CRC32C with every write so S3 rejects
	// corrupted bodies.
	EnableChecksum bool
	// LeavePartsOnError keeps the parts of a failed multipart upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig uses the smallest part size S3 allows; snapshots
// rarely exceed one part.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       manager.MinUploadPartSize,
		Concurrency:    manager.DefaultUploadConcurrency,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// checksumCRC32C is the x-amz-checksum-crc32c value of data: the base64 of
// the big-endian checksum.
func checksumCRC32C(data []byte) string {
	return base64.StdEncoding.EncodeToString(binary.BigEndian.AppendUint32(nil, hash.CRC32C(data)))
}
