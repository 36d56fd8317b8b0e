// Package local runs a process group inside a single Go process.
//
// Each rank is a goroutine; collectives rendezvous through a shared World.
// A collective completes once every rank has entered it, so the usual MPI
// rules apply: all ranks must call the same collectives in the same order.
//
//	w, _ := local.NewWorld(4)
//	err := w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
//	    sizes, err := c.Allgather(ctx, c.Rank()+1)
//	    ...
//	})
//
// A World breaks permanently when ranks enter different collectives at the
// same step or when a rank abandons a collective (context done, timeout).
// Later collectives fail with whale.ErrWrongState.
package local
