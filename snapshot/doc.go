// Package snapshot persists encoded layouts, mappings and index sets in a
// blobstore.Store.
//
// Snapshots are immutable named blobs. A CURRENT blob names the snapshot
// readers should load; Commit moves it. The sequence is the same as a
// manifest update: write the new snapshot first, then swap the pointer, so
// a reader never observes a CURRENT naming a missing blob.
//
//	name := snapshot.Versioned("layout", 7) // layout-000007.whl
//	if err := snapshot.SaveLayout(ctx, store, name, l); err != nil {
//	    return err
//	}
//	if err := snapshot.Commit(ctx, store, name); err != nil {
//	    return err
//	}
//
// With s3.DDBCommitStore the CURRENT write goes through a DynamoDB
// conditional put instead of a plain object overwrite.
package snapshot
