package chunkring

import "context"

// TryClaimProducer makes one attempt to claim the empty slot at the tail.
// Returns ErrUnavailable if the slot is full, being written, or mid-transition,
// and ErrShutdown after Stop. Safe to call concurrently from many goroutines.
//
// The tail is not advanced until CommitProducer, so the commit may still
// lose the position to a spinning producer and return ErrSuperseded.
func (r *Ring[M]) TryClaimProducer() (Ticket[M], error) {
	if !r.enterProducer() {
		return Ticket[M]{}, ErrShutdown
	}

	pos := r.tail.Load()
	s := r.slotFor(pos)

	if s.seq.Load() != pos {
		// diff < 0: consumer has not freed the slot yet, the ring is full.
		// diff > 0: the position was published by somebody else meanwhile.
		return r.tryUnavailable()
	}

	if !s.owner.CompareAndSwap(r.free(pos), pos+1) {
		// another producer is writing this chunk
		return r.tryUnavailable()
	}
	if r.tail.Load() != pos {
		// a spinning producer already took the position, let it write
		s.owner.Store(r.free(pos))
		return r.tryUnavailable()
	}

	// the claim stays registered until CommitProducer moves tail
	r.lens[pos&r.mask] = 0
	r.stats.producerClaims.Add(1)
	return r.ticket(pos, true), nil
}

func (r *Ring[M]) tryUnavailable() (Ticket[M], error) {
	r.leaveProducer()
	r.stats.producerUnavailable.Add(1)
	return Ticket[M]{}, ErrUnavailable
}

// ClaimProducer claims the next empty slot, backing off while the ring is
// full or contended. It only fails with ErrShutdown.
// Safe to call concurrently from many goroutines.
func (r *Ring[M]) ClaimProducer() (Ticket[M], error) {
	return r.claimProducer(context.Background())
}

// ClaimProducerContext is ClaimProducer bounded by ctx. The context is only
// checked before a position is taken; once the tail moved the claim completes.
func (r *Ring[M]) ClaimProducerContext(ctx context.Context) (Ticket[M], error) {
	return r.claimProducer(ctx)
}

func (r *Ring[M]) claimProducer(ctx context.Context) (Ticket[M], error) {
	if !r.enterProducer() {
		return Ticket[M]{}, ErrShutdown
	}

	var b Backoff
	for {
		if r.shutdown.Load() {
			r.leaveProducer()
			r.stats.shutdowns.Add(1)
			return Ticket[M]{}, ErrShutdown
		}

		pos := r.tail.Load()
		s := r.slotFor(pos)

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)

		if diff == 0 {
			// Slot is free for this position, try to reserve it.
			if r.tail.CompareAndSwap(pos, pos+1) {
				r.leaveProducer()
				// The position is ours now, but a non-blocking claimer may still
				// be writing the chunk. Its commit will be superseded and hand
				// the chunk over.
				for !s.owner.CompareAndSwap(r.free(pos), pos+1) {
					r.backoff(&b)
				}
				r.lens[pos&r.mask] = 0
				r.stats.producerClaims.Add(1)
				return r.ticket(pos, false), nil
			}
			// another producer won the position, retry with a new one
			continue
		}

		// diff < 0 => ring is full for this producer.
		// diff > 0 => tail is stale, the slot already moved on.
		if err := ctx.Err(); err != nil {
			r.leaveProducer()
			return Ticket[M]{}, err
		}
		r.backoff(&b)
	}
}

// CommitProducer publishes the chunk of t to consumers. Must be called once
// per successful producer claim.
//
// For a ticket from TryClaimProducer the tail is advanced here; if another
// producer took the position first, nothing is published and ErrSuperseded
// is returned. ErrStaleTicket is returned for tickets that are not currently
// held by a producer of this ring.
func (r *Ring[M]) CommitProducer(t Ticket[M]) error {
	if t.ring != r {
		r.stats.staleTickets.Add(1)
		return ErrStaleTicket
	}

	pos := t.pos
	s := r.slotFor(pos)

	if s.seq.Load() != pos || s.owner.Load() != pos+1 {
		r.stats.staleTickets.Add(1)
		return ErrStaleTicket
	}

	if t.deferred {
		moved := r.tail.CompareAndSwap(pos, pos+1)
		r.leaveProducer()
		if !moved {
			s.owner.Store(r.free(pos))
			r.stats.superseded.Add(1)
			return ErrSuperseded
		}
	}

	// Publish the chunk: seq = pos+1
	s.seq.Store(pos + 1)
	r.stats.commits.Add(1)
	return nil
}
