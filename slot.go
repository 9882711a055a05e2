package chunkring

import "sync/atomic"

// Sequence counter scheme after Dmitry Vyukov's bounded MPMC queue
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue

// slot is the per-position synchronization state. The chunk bytes, length and
// metadata live in the ring's arena and parallel arrays, keyed by the slot index.
type slot struct {
	// seq == pos: empty, seq == pos+1: full, seq == pos+capacity: empty for the next lap.
	seq atomic.Uint64
	// owner == pos+1 while a producer holds write ownership of the chunk for pos.
	// It starts at index+1-capacity and is handed back to pos+1-capacity only
	// when a non-blocking claim loses its commit.
	owner atomic.Uint64
}
