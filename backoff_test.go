package chunkring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSpinsThenYields(t *testing.T) {
	var b Backoff
	for i := 0; i < backoffSpinLimit; i++ {
		assert.False(t, b.Yielding())
		assert.Equal(t, 1<<i, b.Wait(), "wait %d", i)
	}
	assert.True(t, b.Yielding())
	assert.Zero(t, b.Wait())
	assert.Zero(t, b.Wait())

	b.Reset()
	assert.False(t, b.Yielding())
	assert.Equal(t, 1, b.Wait())
}

func TestRingCountsBackoff(t *testing.T) {
	r, err := New[pair](2, 8)
	if err != nil {
		t.Fatal(err)
	}

	var b Backoff
	for i := 0; i < backoffSpinLimit+2; i++ {
		r.backoff(&b)
	}
	s := r.Stats()
	assert.Equal(t, uint64(1<<backoffSpinLimit-1), s.BackoffSpins)
	assert.Equal(t, uint64(2), s.BackoffYields)
}

func BenchmarkBackoff_Spin(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var bo Backoff
		for j := 0; j < 8; j++ {
			bo.Wait()
		}
	}
}
