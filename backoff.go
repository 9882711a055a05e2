package chunkring

import "runtime"

// backoffSpinLimit is the number of Wait calls that busy-spin before Backoff
// starts yielding the processor.
const backoffSpinLimit = 16

// Backoff is the contention policy of the spinning claims: exponentially
// growing busy-spins (1, 2, 4, ... 1<<15 pause iterations) for the first 16
// waits, then runtime.Gosched on every further wait.
//
// The zero value is ready to use. A Backoff must not be shared between goroutines.
type Backoff struct {
	n int
}

// Wait backs off once and returns the number of spin iterations it ran,
// or 0 if it yielded instead.
func (b *Backoff) Wait() int {
	if b.n < backoffSpinLimit {
		spins := 1 << b.n
		for i := 0; i < spins; i++ {
			cpuRelax()
		}
		b.n++
		return spins
	}
	runtime.Gosched()
	return 0
}

// Yielding reports whether the next Wait yields instead of spinning.
func (b *Backoff) Yielding() bool {
	return b.n >= backoffSpinLimit
}

// Reset starts the spin sequence over.
func (b *Backoff) Reset() {
	b.n = 0
}
