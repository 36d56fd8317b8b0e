// Package whale provides distributed index layouts, index sets and
// local-to-global numberings for data partitioned across a group of processes.
//
// A global index space [0, N) is split into contiguous ownership ranges, one
// per process. Each process additionally keeps a private local numbering
// [0, n) that translates to global indices, including ghost entries owned by
// other processes.
//
// # Packages
//
//	comm/       Communicator interface, single-process and in-process worlds
//	layout/     ownership ranges, SetUp, owner resolution
//	is/         index sets (general, stride, block) and set algebra
//	mapping/    local-to-global and global-to-local translation
//	viewer/     ASCII output and binary codec
//	snapshot/   persisting encoded objects to a blob store
//	blobstore/  memory, local, MinIO and S3 backends
//	resource/   memory budget and IO rate limiting
//
// # Quick Start
//
//	w, err := local.NewWorld(3)
//	if err != nil {
//	    return err
//	}
//	err = w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
//	    l, err := layout.New(c)
//	    if err != nil {
//	        return err
//	    }
//	    if err := l.SetSize(10); err != nil {
//	        return err
//	    }
//	    if err := l.SetUp(ctx); err != nil { // collective
//	        return err
//	    }
//	    owner, _ := l.FindOwner(7) // 2: ranges are [0 4 7 10]
//	    _ = owner
//	    return nil
//	})
//
// # Collectives
//
// Layout.SetUp and Mapping.Info are collective: every process of the
// communicator must call them in the same order. Everything else is local.
//
// # Errors
//
// Failures are reported with the sentinels in this package (ErrNotSetUp,
// ErrSizeMismatch, ErrIndexOutOfRange, ErrArgumentNull, ErrOutOfMemory,
// ErrInvalidArgument, ErrWrongState). Match with errors.Is.
package whale
