package crawler

import (
	"context"
	"log/slog"
)

// CardFetcher turns id batches into card payloads. It is the middle pipeline
// stage between enumeration and normalization.
type CardFetcher struct {
	fetcher Fetcher
	logger  *slog.Logger
	in      <-chan IDBatch
	out     chan<- CardBatch
}

// NewCardFetcher wires a card fetcher between its queues.
func NewCardFetcher(fetcher Fetcher, in <-chan IDBatch, out chan<- CardBatch, logger *slog.Logger) *CardFetcher {
	return &CardFetcher{
		fetcher: fetcher,
		logger:  logger,
		in:      in,
		out:     out,
	}
}

// Run consumes id batches until the input channel closes. Batches that come
// back empty are logged and dropped; the articles they named simply do not
// appear in this crawl.
func (f *CardFetcher) Run(ctx context.Context) error {
	for {
		select {
		case batch, ok := <-f.in:
			if !ok {
				return nil
			}
			cards, err := f.fetcher.CardDetails(ctx, batch.IDs)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				emptyCardPages.Inc()
				f.logger.WarnContext(ctx, "card batch returned no products, dropping",
					slog.Int64("category_id", batch.CategoryID),
					slog.String("ids", batch.IDs),
				)
				continue
			}
			cardsFetched.Add(float64(len(cards)))

			select {
			case f.out <- CardBatch{CategoryID: batch.CategoryID, Cards: cards}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
