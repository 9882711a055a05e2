package demo

import (
	"fmt"
	"slices"
)

// Policy selects how demo producers claim slots.
type Policy string

const (
	// PolicySpin claims with ClaimProducer and never skips an item.
	PolicySpin Policy = "spin"
	// PolicyTry claims with TryClaimProducer and skips the item when the
	// ring is full or contended.
	PolicyTry Policy = "try"
)

// Config holds the demo workload parameters.
type Config struct {
	RunID            string
	Capacity         int
	ChunkSize        int
	Producers        int
	Consumers        int
	ItemsPerProducer int
	// Rate limits each producer to this many items per second. 0 disables pacing.
	Rate   float64
	Policy Policy
	// Verify stores a sha3-256 digest of every payload in the slot metadata
	// and has consumers check it.
	Verify bool
}

// DefaultConfig returns the classic workload: 3 producers x 20 items into
// 8 chunks of 64 bytes, drained by 2 consumers.
func DefaultConfig() Config {
	return Config{
		Capacity:         8,
		ChunkSize:        64,
		Producers:        3,
		Consumers:        2,
		ItemsPerProducer: 20,
		Policy:           PolicySpin,
		Verify:           true,
	}
}

// Validate checks the configuration for values the runner cannot use.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Producers <= 0 {
		return fmt.Errorf("producers must be positive, got %d", c.Producers)
	}
	if c.Consumers <= 0 {
		return fmt.Errorf("consumers must be positive, got %d", c.Consumers)
	}
	if c.ItemsPerProducer < 0 {
		return fmt.Errorf("items per producer must not be negative, got %d", c.ItemsPerProducer)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %g", c.Rate)
	}
	if !slices.Contains([]Policy{PolicySpin, PolicyTry}, c.Policy) {
		return fmt.Errorf("unknown producer policy %q", c.Policy)
	}
	return nil
}
