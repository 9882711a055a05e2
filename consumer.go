package chunkring

import "context"

// ClaimConsumer claims the next committed slot, backing off while the ring
// is empty or contended. After Stop it keeps returning committed chunks and
// fails with ErrShutdown once the ring is drained.
// Safe to call concurrently from many goroutines.
func (r *Ring[M]) ClaimConsumer() (Ticket[M], error) {
	return r.claimConsumer(context.Background())
}

// ClaimConsumerContext is ClaimConsumer bounded by ctx.
func (r *Ring[M]) ClaimConsumerContext(ctx context.Context) (Ticket[M], error) {
	return r.claimConsumer(ctx)
}

func (r *Ring[M]) claimConsumer(ctx context.Context) (Ticket[M], error) {
	var b Backoff
	for {
		pos := r.head.Load()
		s := r.slotFor(pos)

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos+1)

		if diff == 0 {
			// Chunk is ready for this position, try to claim it.
			if r.head.CompareAndSwap(pos, pos+1) {
				r.stats.consumerClaims.Add(1)
				return r.consumerTicket(pos), nil
			}
			// Another consumer won this slot, retry.
			continue
		}

		if diff < 0 && r.drained(pos) {
			r.stats.shutdowns.Add(1)
			return Ticket[M]{}, ErrShutdown
		}

		// diff < 0 => nothing committed at head yet.
		// diff > 0 => head is stale or the producer is mid-transition.
		if err := ctx.Err(); err != nil {
			return Ticket[M]{}, err
		}
		r.backoff(&b)
	}
}

// TryClaimConsumer makes one attempt to claim the committed slot at the head.
// Returns ErrUnavailable if nothing is ready or another consumer won the
// slot, and ErrShutdown if the ring is stopped and drained.
func (r *Ring[M]) TryClaimConsumer() (Ticket[M], error) {
	pos := r.head.Load()
	s := r.slotFor(pos)

	seq := s.seq.Load()
	diff := int64(seq) - int64(pos+1)

	if diff == 0 && r.head.CompareAndSwap(pos, pos+1) {
		r.stats.consumerClaims.Add(1)
		return r.consumerTicket(pos), nil
	}
	if diff < 0 && r.drained(pos) {
		r.stats.shutdowns.Add(1)
		return Ticket[M]{}, ErrShutdown
	}

	r.stats.consumerUnavailable.Add(1)
	return Ticket[M]{}, ErrUnavailable
}

// drained reports whether consumers may stop: the ring is stopped, no
// producer claim is still in progress and no position at or beyond head was
// taken by a producer. The loads are ordered so that a claim which passed its
// shutdown check is seen either in inflight or in tail.
func (r *Ring[M]) drained(head uint64) bool {
	return r.shutdown.Load() && r.inflight.Load() == 0 && r.tail.Load() <= head
}

// ReleaseConsumer hands the slot of t back to producers for the next lap.
// Must be called once per successful consumer claim; the chunk must not be
// touched afterwards.
func (r *Ring[M]) ReleaseConsumer(t Ticket[M]) error {
	if t.ring != r {
		r.stats.staleTickets.Add(1)
		return ErrStaleTicket
	}

	pos := t.pos
	s := r.slotFor(pos)

	if s.seq.Load() != pos+1 || r.head.Load() <= pos {
		r.stats.staleTickets.Add(1)
		return ErrStaleTicket
	}

	// Free the slot for the next cycle:
	// next time this physical slot will be used at pos+capacity.
	s.seq.Store(pos + r.capacity)
	r.stats.releases.Add(1)
	return nil
}
