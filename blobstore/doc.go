// Package blobstore provides the object storage used for snapshots.
//
// Store is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and the CLI's mem:// store
//   - LocalStore: local filesystem with atomic replace on write
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus a DynamoDB table for atomic CURRENT commits
//
// Missing blobs are reported with an error matching ErrNotFound.
package blobstore
