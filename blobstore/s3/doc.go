// Package s3 provides an S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("whale/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	err = snapshot.SaveLayout(ctx, store, "layout.whl", l)
//
// # Features
//
//   - Range reads, so snapshot.Stat fetches only the header
//   - Streaming multipart uploads through the upload manager
//   - CRC32C checksums on writes
//   - Conditional creates (If-None-Match) via PutIfAbsent, also through
//     DDBCommitStore
//   - blobstore.Abort on a streamed write cancels the multipart upload
//   - DynamoDB-backed CURRENT pointer for concurrent committers (DDBCommitStore)
package s3
