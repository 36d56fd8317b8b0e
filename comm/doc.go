// Package comm defines the process-group service used by layouts and mappings.
//
// A Communicator names a fixed group of P processes with ranks 0..P-1 and
// offers the blocking collectives the rest of whale is built on:
//
//	AllreduceSum  sum of one integer contributed by every rank
//	Allgather     one integer per rank, in rank order
//	Allgatherv    one integer slice per rank, in rank order
//	Broadcast     the root's value on every rank
//
// Every rank of the group must enter the same collectives in the same order.
// Violating that is a caller bug; implementations detect it on a best-effort
// basis and otherwise hang until the context is done.
//
// Self returns the single-process communicator. Package comm/local runs P
// ranks as goroutines inside one process, which is what the tests use.
package comm
