package chunkring

import (
	"log/slog"
	"math"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Ring is a bounded lock-free MPMC ring of fixed-size byte chunks.
//
// Every slot owns one chunk of the arena, one length word and one M value.
// Producers claim a slot, fill its chunk and commit it; consumers claim a
// committed slot, read it and release it back for the next lap. Ownership is
// handed over only through the per-slot sequence counter.
type Ring[M any] struct {
	_         cpu.CacheLinePad
	mask      uint64
	capacity  uint64
	chunkSize int
	slots     []slot
	arena     []byte // capacity*chunkSize bytes, chunk i at [i*chunkSize, (i+1)*chunkSize)
	lens      []int  // bytes used in each chunk
	meta      []M
	name      string
	logger    *slog.Logger
	_         cpu.CacheLinePad
	tail      atomic.Uint64 // next position for producers
	_         cpu.CacheLinePad
	head      atomic.Uint64 // next position for consumers
	_         cpu.CacheLinePad
	shutdown  atomic.Bool
	_         cpu.CacheLinePad
	inflight  atomic.Int64 // producers that passed the shutdown check but have not moved tail yet
	_         cpu.CacheLinePad
	stats     counters
}

// New creates a ring with room for capacity chunks of chunkSize bytes each.
// Capacity is rounded up to the next power of two, and to at least 2: with a
// single slot the "full" state of one lap equals the "empty" state of the next.
func New[M any](capacity, chunkSize int, opts ...Option) (*Ring[M], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	o := applyOptions(opts...)

	n := roundUpPowerOfTwo(uint64(max(capacity, minCapacity)))
	if n > math.MaxInt {
		return nil, ErrInvalidCapacity
	}
	if uint64(chunkSize) > math.MaxInt/n {
		return nil, ErrTooLarge
	}
	slots := make([]slot, n)
	for i := uint64(0); i < n; i++ {
		// initial sequence for each slot matches its index,
		// and nobody owns the chunk for position i yet
		slots[i].seq.Store(i)
		slots[i].owner.Store(i + 1 - n)
	}

	r := &Ring[M]{
		mask:      n - 1,
		capacity:  n,
		chunkSize: chunkSize,
		slots:     slots,
		arena:     make([]byte, int(n)*chunkSize),
		lens:      make([]int, n),
		meta:      make([]M, n),
		name:      o.name,
		logger:    o.logger,
	}

	r.logger.Debug("ring created",
		"ring", r.name,
		"requested_capacity", capacity,
		"capacity", n,
		"chunk_size", chunkSize)

	return r, nil
}

const minCapacity = 2

// roundUpPowerOfTwo returns the smallest power of two >= n (n > 0).
func roundUpPowerOfTwo(n uint64) uint64 {
	if n&(n-1) == 0 {
		return n
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Stop disables producer claims. Consumers keep draining committed chunks
// and get ErrShutdown once the ring is empty.
//
// Claims that passed their shutdown check before Stop still complete, and
// consumers wait for them: a spinning claim racing Stop and a non-blocking
// claim that is committed after Stop are both drained. A non-blocking claim
// that is never committed therefore keeps consumers from seeing ErrShutdown.
func (r *Ring[M]) Stop() {
	if r.shutdown.Swap(true) {
		return
	}
	r.logger.Info("ring stopped", "ring", r.name, "pending", r.Len())
}

// Stopped reports whether Stop has been called.
func (r *Ring[M]) Stopped() bool {
	return r.shutdown.Load()
}

// Capacity returns the effective (power of two) number of chunks.
func (r *Ring[M]) Capacity() int {
	return int(r.capacity)
}

// ChunkSize returns the size of every chunk in bytes.
func (r *Ring[M]) ChunkSize() int {
	return r.chunkSize
}

// Name returns the ring label set with WithName.
func (r *Ring[M]) Name() string {
	return r.name
}

// Len returns the number of positions claimed by spin producers or committed
// but not yet claimed by consumers. The value may be stale by the time it is used.
func (r *Ring[M]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// ticket builds the producer handle for pos. Callers must own pos.
func (r *Ring[M]) ticket(pos uint64, deferred bool) Ticket[M] {
	return Ticket[M]{ring: r, pos: pos, deferred: deferred}
}

// consumerTicket builds the consumer handle for pos. Callers must own pos.
func (r *Ring[M]) consumerTicket(pos uint64) Ticket[M] {
	return Ticket[M]{ring: r, pos: pos, consumer: true}
}

// enterProducer registers a producer claim in progress. It returns false,
// with nothing registered, once the ring is stopped.
func (r *Ring[M]) enterProducer() bool {
	r.inflight.Add(1)
	if r.shutdown.Load() {
		r.inflight.Add(-1)
		r.stats.shutdowns.Add(1)
		return false
	}
	return true
}

// leaveProducer ends a registered claim. Callers that took a position must
// have advanced tail past it first.
func (r *Ring[M]) leaveProducer() {
	r.inflight.Add(-1)
}

func (r *Ring[M]) slotFor(pos uint64) *slot {
	return &r.slots[pos&r.mask]
}

// free is the owner word value meaning "nobody writes the chunk for pos".
func (r *Ring[M]) free(pos uint64) uint64 {
	return pos + 1 - r.capacity
}

// backoff waits once and accounts for it.
func (r *Ring[M]) backoff(b *Backoff) {
	if spins := b.Wait(); spins > 0 {
		r.stats.backoffSpins.Add(uint64(spins))
	} else {
		r.stats.backoffYields.Add(1)
	}
}
