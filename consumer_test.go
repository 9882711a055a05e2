package chunkring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClaimConsumerEmpty(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	_, err = r.TryClaimConsumer()
	require.ErrorIs(t, err, ErrUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.ClaimConsumerContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProduceConsumeRoundTrip(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	tk, err := r.TryClaimProducer()
	require.NoError(t, err)
	_, err = tk.WriteString("test-data")
	require.NoError(t, err)
	*tk.Meta() = pair{id: 1, value: 2.5}
	require.NoError(t, r.CommitProducer(tk))

	ctk, err := r.ClaimConsumer()
	require.NoError(t, err)
	assert.Equal(t, "test-data", string(ctk.Bytes()))
	assert.Equal(t, 9, ctk.Len())
	assert.Equal(t, pair{id: 1, value: 2.5}, *ctk.Meta())
	require.NoError(t, r.ReleaseConsumer(ctk))
}

func TestReleaseRejectsStaleTickets(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	ptk, err := r.ClaimProducer()
	require.NoError(t, err)
	require.NoError(t, r.CommitProducer(ptk))
	require.ErrorIs(t, r.ReleaseConsumer(ptk), ErrStaleTicket, "slot was never claimed by a consumer")

	ctk, err := r.ClaimConsumer()
	require.NoError(t, err)
	require.NoError(t, r.ReleaseConsumer(ctk))
	require.ErrorIs(t, r.ReleaseConsumer(ctk), ErrStaleTicket, "double release")
	require.ErrorIs(t, r.ReleaseConsumer(Ticket[pair]{}), ErrStaleTicket)

	assert.Equal(t, uint64(1), r.Stats().Releases)
	assert.Equal(t, uint64(3), r.Stats().StaleTickets)
}

func TestConsumersDrainAfterStop(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	for _, s := range []string{"one", "two"} {
		tk, err := r.ClaimProducer()
		require.NoError(t, err)
		_, _ = tk.WriteString(s)
		require.NoError(t, r.CommitProducer(tk))
	}
	r.Stop()

	_, err = r.TryClaimProducer()
	require.ErrorIs(t, err, ErrShutdown)

	for _, want := range []string{"one", "two"} {
		tk, err := r.ClaimConsumer()
		require.NoError(t, err, "committed chunks are drained after Stop")
		assert.Equal(t, want, string(tk.Bytes()))
		require.NoError(t, r.ReleaseConsumer(tk))
	}

	_, err = r.ClaimConsumer()
	require.ErrorIs(t, err, ErrShutdown)
	_, err = r.TryClaimConsumer()
	require.ErrorIs(t, err, ErrShutdown)
}

func TestStopUnblocksSpinningConsumer(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := r.ClaimConsumer()
		errc <- err
	}()

	select {
	case err := <-errc:
		t.Fatalf("claim returned on an empty ring: %v", err)
	case <-time.After(10 * time.Millisecond):
	}

	r.Stop()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrShutdown)
	case <-time.After(5 * time.Second):
		t.Fatal("spinning consumer did not observe Stop")
	}
}

func TestConsumerWaitsForInflightClaimAfterStop(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	ptk, err := r.ClaimProducer()
	require.NoError(t, err)
	r.Stop()

	got := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		tk, err := r.ClaimConsumer()
		if err != nil {
			errc <- err
			return
		}
		got <- string(tk.Bytes())
		errc <- r.ReleaseConsumer(tk)
	}()

	select {
	case err := <-errc:
		t.Fatalf("consumer gave up while a claimed chunk was pending: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	_, _ = ptk.WriteString("late")
	require.NoError(t, r.CommitProducer(ptk))

	select {
	case s := <-got:
		assert.Equal(t, "late", s)
		require.NoError(t, <-errc)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never received the in-flight chunk")
	}

	_, err = r.ClaimConsumer()
	require.ErrorIs(t, err, ErrShutdown)
}

func TestConsumerWaitsForTryClaimCommittedAfterStop(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	ptk, err := r.TryClaimProducer()
	require.NoError(t, err)
	r.Stop()

	_, err = r.TryClaimConsumer()
	require.ErrorIs(t, err, ErrUnavailable, "an uncommitted claim is still pending")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.ClaimConsumerContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = ptk.WriteString("after stop")
	require.NoError(t, err)
	require.NoError(t, r.CommitProducer(ptk))

	ctk, err := r.ClaimConsumer()
	require.NoError(t, err)
	assert.Equal(t, "after stop", string(ctk.Bytes()))
	require.NoError(t, r.ReleaseConsumer(ctk))

	_, err = r.ClaimConsumer()
	require.ErrorIs(t, err, ErrShutdown)
}

func TestStopRacingProducersLosesNothing(t *testing.T) {
	for round := 0; round < 200; round++ {
		r, err := New[pair](4, 16)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for c := 0; c < 2; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					tk, err := r.ClaimConsumer()
					if err != nil {
						assert.ErrorIs(t, err, ErrShutdown)
						return
					}
					assert.NoError(t, r.ReleaseConsumer(tk))
				}
			}()
		}
		for p := 0; p < 3; p++ {
			wg.Add(1)
			go func(try bool) {
				defer wg.Done()
				for {
					claim := r.ClaimProducer
					if try {
						claim = r.TryClaimProducer
					}
					tk, err := claim()
					if errors.Is(err, ErrShutdown) {
						return
					}
					if err != nil {
						continue
					}
					if err := r.CommitProducer(tk); err != nil {
						assert.ErrorIs(t, err, ErrSuperseded)
					}
				}
			}(p == 0)
		}

		time.Sleep(time.Duration(round%5) * 100 * time.Microsecond)
		r.Stop()
		wg.Wait()

		s := r.Stats()
		require.Equal(t, s.Commits, s.Releases, "round %d: committed chunks left unread", round)
		require.Equal(t, 0, r.Len(), "round %d", round)
	}
}
