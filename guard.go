package chunkring

import "sync/atomic"

// ProducerGuard owns one producer claim and commits it exactly once.
//
//	g, err := r.ClaimProducerGuard()
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
// Close commits unless Commit already ran, so the slot is returned to the
// ring on every exit path. A nil guard is valid and Close on it is a no-op.
// Guards hold an atomic flag, so `go vet` reports copies of them.
type ProducerGuard[M any] struct {
	ring   *Ring[M]
	ticket Ticket[M]
	done   atomic.Bool
}

// ClaimProducerGuard is ClaimProducer wrapped in a guard.
func (r *Ring[M]) ClaimProducerGuard() (*ProducerGuard[M], error) {
	t, err := r.ClaimProducer()
	if err != nil {
		return nil, err
	}
	return &ProducerGuard[M]{ring: r, ticket: t}, nil
}

// TryClaimProducerGuard is TryClaimProducer wrapped in a guard.
func (r *Ring[M]) TryClaimProducerGuard() (*ProducerGuard[M], error) {
	t, err := r.TryClaimProducer()
	if err != nil {
		return nil, err
	}
	return &ProducerGuard[M]{ring: r, ticket: t}, nil
}

// Ticket returns the guarded ticket. It must not outlive the guard.
func (g *ProducerGuard[M]) Ticket() Ticket[M] {
	return g.ticket
}

// Commit publishes the chunk. Only the first call reaches the ring; later
// calls return nil.
func (g *ProducerGuard[M]) Commit() error {
	if g == nil || !g.done.CompareAndSwap(false, true) {
		return nil
	}
	return g.ring.CommitProducer(g.ticket)
}

// Close commits the chunk if Commit has not run yet.
func (g *ProducerGuard[M]) Close() error {
	return g.Commit()
}

// Finalized reports whether the claim has been committed.
func (g *ProducerGuard[M]) Finalized() bool {
	return g == nil || g.done.Load()
}

// ConsumerGuard owns one consumer claim and releases it exactly once.
// It is used the same way as ProducerGuard.
type ConsumerGuard[M any] struct {
	ring   *Ring[M]
	ticket Ticket[M]
	done   atomic.Bool
}

// ClaimConsumerGuard is ClaimConsumer wrapped in a guard.
func (r *Ring[M]) ClaimConsumerGuard() (*ConsumerGuard[M], error) {
	t, err := r.ClaimConsumer()
	if err != nil {
		return nil, err
	}
	return &ConsumerGuard[M]{ring: r, ticket: t}, nil
}

// TryClaimConsumerGuard is TryClaimConsumer wrapped in a guard.
func (r *Ring[M]) TryClaimConsumerGuard() (*ConsumerGuard[M], error) {
	t, err := r.TryClaimConsumer()
	if err != nil {
		return nil, err
	}
	return &ConsumerGuard[M]{ring: r, ticket: t}, nil
}

// Ticket returns the guarded ticket. It must not outlive the guard.
func (g *ConsumerGuard[M]) Ticket() Ticket[M] {
	return g.ticket
}

// Release hands the slot back to producers. Only the first call reaches
// the ring; later calls return nil.
func (g *ConsumerGuard[M]) Release() error {
	if g == nil || !g.done.CompareAndSwap(false, true) {
		return nil
	}
	return g.ring.ReleaseConsumer(g.ticket)
}

// Close releases the slot if Release has not run yet.
func (g *ConsumerGuard[M]) Close() error {
	return g.Release()
}

// Finalized reports whether the claim has been released.
func (g *ConsumerGuard[M]) Finalized() bool {
	return g == nil || g.done.Load()
}

// Produce claims a slot (spinning), passes it to fn and commits it when fn
// returns or panics. fn's error is returned; the chunk is committed either way.
func (r *Ring[M]) Produce(fn func(Ticket[M]) error) error {
	g, err := r.ClaimProducerGuard()
	if err != nil {
		return err
	}
	return runProducer(g, fn)
}

// TryProduce is Produce over a single non-blocking claim.
func (r *Ring[M]) TryProduce(fn func(Ticket[M]) error) error {
	g, err := r.TryClaimProducerGuard()
	if err != nil {
		return err
	}
	return runProducer(g, fn)
}

func runProducer[M any](g *ProducerGuard[M], fn func(Ticket[M]) error) (err error) {
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(g.Ticket())
}

// Consume claims a committed slot (spinning), passes it to fn and releases
// it when fn returns or panics. Returns ErrShutdown once the ring is stopped
// and drained.
func (r *Ring[M]) Consume(fn func(Ticket[M]) error) (err error) {
	g, err := r.ClaimConsumerGuard()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(g.Ticket())
}
