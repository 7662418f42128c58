package crawler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/marketplace"
)

// SnapshotPersister commits one normalized snapshot. Satisfied by
// *postgres.SnapshotRepository.
type SnapshotPersister interface {
	Persist(ctx context.Context, snapshot domain.Snapshot) error
}

// Config tunes the pipeline shape.
type Config struct {
	// Workers is the pool size of every stage.
	Workers int

	// QueueSize bounds the channels between stages.
	QueueSize int
}

// DefaultConfig returns the pipeline shape tuned for a full catalog crawl.
func DefaultConfig() Config {
	return Config{
		Workers:   marketplace.WorkerCount,
		QueueSize: marketplace.WorkerCount,
	}
}

// Stats summarizes one finished crawl.
type Stats struct {
	Categories int
	Persisted  int64
	Started    time.Time
	Duration   time.Duration
}

// Pipeline runs a full crawl as four pooled stages joined by bounded
// channels: categories are enumerated into id batches, batches are resolved
// into cards, cards are normalized into snapshots, snapshots are persisted.
// A stage closes its downstream channel once its pool drains, so shutdown
// ripples forward; the first stage error cancels everything.
type Pipeline struct {
	fetcher   Fetcher
	persister SnapshotPersister
	cfg       Config
	logger    *slog.Logger
}

// NewPipeline assembles a pipeline.
func NewPipeline(fetcher Fetcher, persister SnapshotPersister, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = marketplace.WorkerCount
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers
	}
	return &Pipeline{
		fetcher:   fetcher,
		persister: persister,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run crawls the given categories to completion. The crawl timestamp is
// captured once here, so every history row of the crawl carries the same
// moment regardless of when its card was processed.
func (p *Pipeline) Run(ctx context.Context, categories []domain.Category) (Stats, error) {
	started := time.Now().UTC()

	p.logger.InfoContext(ctx, "crawl started",
		slog.Int("categories", len(categories)),
		slog.Int("workers", p.cfg.Workers),
	)

	catCh := make(chan domain.Category, len(categories))
	for _, cat := range categories {
		catCh <- cat
	}
	close(catCh)

	idsCh := make(chan IDBatch, p.cfg.QueueSize)
	cardsCh := make(chan CardBatch, p.cfg.QueueSize)
	snapCh := make(chan domain.Snapshot, p.cfg.QueueSize)

	var persisted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(idsCh)
		enum := NewEnumerator(p.fetcher, idsCh, p.logger)
		return p.runPool(gctx, func(ctx context.Context) error {
			for {
				select {
				case cat, ok := <-catCh:
					if !ok {
						return nil
					}
					if err := enum.EnumerateCategory(ctx, cat); err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	})

	g.Go(func() error {
		defer close(cardsCh)
		fetcher := NewCardFetcher(p.fetcher, idsCh, cardsCh, p.logger)
		return p.runPool(gctx, fetcher.Run)
	})

	g.Go(func() error {
		defer close(snapCh)
		norm := NewNormalizer(cardsCh, snapCh, started, p.logger)
		return p.runPool(gctx, norm.Run)
	})

	g.Go(func() error {
		return p.runPool(gctx, func(ctx context.Context) error {
			for {
				select {
				case snap, ok := <-snapCh:
					if !ok {
						return nil
					}
					if err := p.persister.Persist(ctx, snap); err != nil {
						return err
					}
					snapshotsPersisted.Inc()
					persisted.Add(1)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	})

	err := g.Wait()

	stats := Stats{
		Categories: len(categories),
		Persisted:  persisted.Load(),
		Started:    started,
		Duration:   time.Since(started),
	}

	if err != nil {
		p.logger.ErrorContext(ctx, "crawl failed",
			slog.Int64("persisted", stats.Persisted),
			slog.Duration("duration", stats.Duration),
			slog.String("error", err.Error()),
		)
		return stats, err
	}

	p.logger.InfoContext(ctx, "crawl finished",
		slog.Int64("persisted", stats.Persisted),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// runPool runs one worker body across the configured pool size and waits for
// the whole pool.
func (p *Pipeline) runPool(ctx context.Context, worker func(context.Context) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		eg.Go(func() error {
			return worker(ctx)
		})
	}
	return eg.Wait()
}
