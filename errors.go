package chunkring

import "errors"

var (
	// ErrInvalidCapacity is returned by New when the requested capacity is not positive.
	ErrInvalidCapacity = errors.New("chunkring: capacity must be > 0")
	// ErrInvalidChunkSize is returned by New when the requested chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunkring: chunk size must be > 0")
	// ErrTooLarge is returned by New when capacity*chunkSize does not fit in an int.
	ErrTooLarge = errors.New("chunkring: ring size overflows int")

	// ErrUnavailable means a non-blocking claim found no slot in the required state.
	// The caller may retry or drop the item.
	ErrUnavailable = errors.New("chunkring: slot unavailable")
	// ErrShutdown means the ring was stopped. Consumers only see it once the ring is drained.
	ErrShutdown = errors.New("chunkring: ring stopped")

	// ErrSuperseded is returned by CommitProducer (and the ticket's writers) for a non-blocking
	// claim whose position was taken by another producer. Nothing is published for such a ticket.
	ErrSuperseded = errors.New("chunkring: commit superseded")
	// ErrStaleTicket is returned when a ticket is finalized twice, belongs to another ring,
	// or no longer matches its slot's state.
	ErrStaleTicket = errors.New("chunkring: stale ticket")

	// ErrChunkBounds is returned when a length does not fit the chunk.
	ErrChunkBounds = errors.New("chunkring: length out of chunk bounds")
)
