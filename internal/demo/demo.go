// Package demo drives a chunk ring with concurrent producers and consumers
// and reports what went through it.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastrand"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aradilov/chunkring"
)

// Signal is the per-slot metadata written by producers.
type Signal struct {
	Producer int
	Value    float64 // random value scaled into (0, 1]
	Digest   [32]byte
}

// Runner owns a ring and the counters of one demo run.
type Runner struct {
	cfg    Config
	ring   *chunkring.Ring[Signal]
	logger *slog.Logger

	produced       atomic.Int64
	consumed       atomic.Int64
	skipped        atomic.Int64
	superseded     atomic.Int64
	digestFailures atomic.Int64
}

// NewRunner validates cfg and creates the ring. An empty RunID is replaced
// by a random UUID.
func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid demo config: %w", err)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", cfg.RunID)

	ring, err := chunkring.New[Signal](cfg.Capacity, cfg.ChunkSize,
		chunkring.WithLogger(logger),
		chunkring.WithName("demo"))
	if err != nil {
		return nil, fmt.Errorf("create ring: %w", err)
	}

	return &Runner{cfg: cfg, ring: ring, logger: logger}, nil
}

// Ring exposes the ring, e.g. for a metrics collector.
func (r *Runner) Ring() *chunkring.Ring[Signal] {
	return r.ring
}

// RunID returns the identifier of the run.
func (r *Runner) RunID() string {
	return r.cfg.RunID
}

// Run starts the consumers and producers, stops the ring once every producer
// is done and waits for the consumers to drain it. A Runner runs once.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	r.logger.Info("demo started",
		"producers", r.cfg.Producers,
		"consumers", r.cfg.Consumers,
		"items_per_producer", r.cfg.ItemsPerProducer,
		"policy", r.cfg.Policy,
		"capacity", r.ring.Capacity(),
		"chunk_size", r.ring.ChunkSize())

	cg, cctx := errgroup.WithContext(ctx)
	for id := 0; id < r.cfg.Consumers; id++ {
		id := id
		cg.Go(func() error {
			return r.consume(cctx, id)
		})
	}

	pg, pctx := errgroup.WithContext(cctx)
	for id := 0; id < r.cfg.Producers; id++ {
		id := id
		pg.Go(func() error {
			return r.produce(pctx, id)
		})
	}

	perr := pg.Wait()
	r.ring.Stop()
	cerr := cg.Wait()

	report := r.report(time.Since(start))
	if err := errors.Join(perr, cerr); err != nil {
		return report, err
	}

	r.logger.Info("demo finished",
		"produced", report.Produced,
		"consumed", report.Consumed,
		"skipped", report.Skipped,
		"duration", report.Duration)
	return report, nil
}

func (r *Runner) produce(ctx context.Context, id int) error {
	var limiter *rate.Limiter
	if r.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), 1)
	}

	for i := 0; i < r.cfg.ItemsPerProducer; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("producer %d: %w", id, err)
			}
		}

		value := int(fastrand.Uint32n(1000)) + 1

		tk, err := r.claim(ctx)
		if errors.Is(err, chunkring.ErrUnavailable) {
			r.skipped.Add(1)
			continue
		}
		if err != nil {
			return fmt.Errorf("producer %d claim: %w", id, err)
		}

		// Payloads longer than the chunk are truncated.
		_, _ = fmt.Fprintf(tk, "P%d-%d-%d", id, i, value)
		sig := tk.Meta()
		*sig = Signal{Producer: id, Value: float64(value) / 1000}
		if r.cfg.Verify {
			sig.Digest = sha3.Sum256(tk.Bytes())
		}

		err = r.ring.CommitProducer(tk)
		if errors.Is(err, chunkring.ErrSuperseded) {
			r.superseded.Add(1)
			r.skipped.Add(1)
			continue
		}
		if err != nil {
			return fmt.Errorf("producer %d commit: %w", id, err)
		}

		r.produced.Add(1)
		r.logger.Debug("produced", "producer", id, "item", i, "position", tk.Position())
	}
	return nil
}

func (r *Runner) claim(ctx context.Context) (chunkring.Ticket[Signal], error) {
	if r.cfg.Policy == PolicyTry {
		return r.ring.TryClaimProducer()
	}
	return r.ring.ClaimProducerContext(ctx)
}

func (r *Runner) consume(ctx context.Context, id int) error {
	for {
		tk, err := r.ring.ClaimConsumerContext(ctx)
		if errors.Is(err, chunkring.ErrShutdown) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("consumer %d claim: %w", id, err)
		}

		sig := *tk.Meta()
		if r.cfg.Verify && sha3.Sum256(tk.Bytes()) != sig.Digest {
			r.digestFailures.Add(1)
			r.logger.Warn("payload digest mismatch",
				"consumer", id,
				"position", tk.Position(),
				"producer", sig.Producer)
		}
		r.logger.Debug("consumed",
			"consumer", id,
			"payload", string(tk.Bytes()),
			"producer", sig.Producer,
			"value", sig.Value,
			"size", tk.Len())

		if err := r.ring.ReleaseConsumer(tk); err != nil {
			return fmt.Errorf("consumer %d release: %w", id, err)
		}
		r.consumed.Add(1)
	}
}

func (r *Runner) report(d time.Duration) *Report {
	return &Report{
		RunID:          r.cfg.RunID,
		Policy:         r.cfg.Policy,
		Produced:       r.produced.Load(),
		Consumed:       r.consumed.Load(),
		Skipped:        r.skipped.Load(),
		Superseded:     r.superseded.Load(),
		DigestFailures: r.digestFailures.Load(),
		Duration:       d,
		Stats:          r.ring.Stats(),
	}
}
