package chunkring

import "sync/atomic"

// counters are updated on every claim and finalization.
type counters struct {
	producerClaims      atomic.Uint64
	producerUnavailable atomic.Uint64
	commits             atomic.Uint64
	superseded          atomic.Uint64

	consumerClaims      atomic.Uint64
	consumerUnavailable atomic.Uint64
	releases            atomic.Uint64

	shutdowns     atomic.Uint64
	staleTickets  atomic.Uint64
	backoffSpins  atomic.Uint64
	backoffYields atomic.Uint64
}

// Stats is a snapshot of ring activity.
type Stats struct {
	Capacity  uint64 `json:"capacity"`
	ChunkSize uint64 `json:"chunk_size"`
	Len       uint64 `json:"len"`

	ProducerClaims      uint64 `json:"producer_claims"`
	ProducerUnavailable uint64 `json:"producer_unavailable"`
	Commits             uint64 `json:"commits"`
	Superseded          uint64 `json:"superseded"`

	ConsumerClaims      uint64 `json:"consumer_claims"`
	ConsumerUnavailable uint64 `json:"consumer_unavailable"`
	Releases            uint64 `json:"releases"`

	Shutdowns     uint64 `json:"shutdowns"`
	StaleTickets  uint64 `json:"stale_tickets"`
	BackoffSpins  uint64 `json:"backoff_spins"`
	BackoffYields uint64 `json:"backoff_yields"`
}

// Stats retrieves the current statistics of the ring.
func (r *Ring[M]) Stats() Stats {
	return Stats{
		Capacity:            r.capacity,
		ChunkSize:           uint64(r.chunkSize),
		Len:                 uint64(r.Len()),
		ProducerClaims:      r.stats.producerClaims.Load(),
		ProducerUnavailable: r.stats.producerUnavailable.Load(),
		Commits:             r.stats.commits.Load(),
		Superseded:          r.stats.superseded.Load(),
		ConsumerClaims:      r.stats.consumerClaims.Load(),
		ConsumerUnavailable: r.stats.consumerUnavailable.Load(),
		Releases:            r.stats.releases.Load(),
		Shutdowns:           r.stats.shutdowns.Load(),
		StaleTickets:        r.stats.staleTickets.Load(),
		BackoffSpins:        r.stats.backoffSpins.Load(),
		BackoffYields:       r.stats.backoffYields.Load(),
	}
}
