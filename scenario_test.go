package chunkring

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioFourChunksManyConsumers(t *testing.T) {
	r, err := New[pair](4, 64)
	require.NoError(t, err)

	for i, p := range []string{"A", "B", "C", "D"} {
		err := r.Produce(func(tk Ticket[pair]) error {
			*tk.Meta() = pair{id: i, value: float64(i) / 10}
			_, err := tk.WriteString(p)
			return err
		})
		require.NoError(t, err)
	}

	_, err = r.TryClaimProducer()
	require.ErrorIs(t, err, ErrUnavailable, "ring of four holds four chunks")

	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Consume(func(tk Ticket[pair]) error {
				m := *tk.Meta()
				s := fmt.Sprintf("%s:%d", tk.Bytes(), m.id)
				mu.Lock()
				got = append(got, s)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"A:0", "B:1", "C:2", "D:3"}, got)
	assert.Equal(t, 0, r.Len())
}

func TestScenarioProducersThenStop(t *testing.T) {
	const (
		producers = 3
		perProd   = 20
		consumers = 2
	)

	r, err := New[pair](8, 64)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		cwg  sync.WaitGroup
	)
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				err := r.Consume(func(tk Ticket[pair]) error {
					mu.Lock()
					seen[string(tk.Bytes())]++
					mu.Unlock()
					return nil
				})
				if errors.Is(err, ErrShutdown) {
					return
				}
				assert.NoError(t, err)
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(id int) {
			defer pwg.Done()
			for i := 0; i < perProd; i++ {
				err := r.Produce(func(tk Ticket[pair]) error {
					*tk.Meta() = pair{id: id, value: float64(i)}
					_, err := fmt.Fprintf(tk, "P%d-%d", id, i)
					return err
				})
				assert.NoError(t, err)
			}
		}(p)
	}
	pwg.Wait()
	r.Stop()
	cwg.Wait()

	require.Len(t, seen, producers*perProd)
	for k, n := range seen {
		assert.Equal(t, 1, n, "payload %s", k)
		assert.True(t, strings.HasPrefix(k, "P"))
	}

	s := r.Stats()
	assert.Equal(t, uint64(producers*perProd), s.Commits)
	assert.Equal(t, uint64(producers*perProd), s.Releases)
	assert.Equal(t, uint64(consumers), s.Shutdowns)
	assert.Zero(t, s.StaleTickets)
}
