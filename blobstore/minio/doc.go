// Package minio stores snapshots in MinIO and other S3-compatible servers
// (Ceph, Garage, SeaweedFS) through minio-go, without the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := minioblob.NewStore(client, "my-bucket", "snapshots")
//	err = snapshot.SaveLayout(ctx, store, "layout-000001.whl", l)
//
// Reads are ranged GETs, so snapshot.Stat transfers only the header.
// Create streams an upload of unknown size; blobstore.Abort discards it.
// The store has no conditional put, so exclusive saves fall back to the
// non-atomic check in blobstore.PutIfAbsent.
package minio
