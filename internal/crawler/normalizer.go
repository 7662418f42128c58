package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/marketplace"
	"github.com/pricepulse/wbradar/pkg/validator"
)

// Normalizer validates raw cards and reshapes them into persistable
// snapshots. One normalizer is shared by all workers of its stage: the seen
// set deduplicates articles across categories for the lifetime of one crawl.
type Normalizer struct {
	logger    *slog.Logger
	in        <-chan CardBatch
	out       chan<- domain.Snapshot
	timestamp time.Time

	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewNormalizer creates a normalizer stamping every snapshot with the given
// crawl timestamp.
func NewNormalizer(in <-chan CardBatch, out chan<- domain.Snapshot, timestamp time.Time, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger:    logger,
		in:        in,
		out:       out,
		timestamp: timestamp,
		seen:      make(map[int64]struct{}),
	}
}

// Run consumes card batches until the input channel closes. A card that fails
// validation aborts the crawl: a malformed payload this deep in the pipeline
// means the upstream contract changed and everything after it is suspect.
func (n *Normalizer) Run(ctx context.Context) error {
	for {
		select {
		case batch, ok := <-n.in:
			if !ok {
				return nil
			}
			for _, card := range batch.Cards {
				if err := validator.Validate(card); err != nil {
					n.logger.ErrorContext(ctx, "card failed validation",
						slog.Int64("article_id", card.ID),
						slog.Int64("category_id", batch.CategoryID),
						slog.String("error", err.Error()),
					)
					return fmt.Errorf("validate card %d: %w", card.ID, err)
				}
				if !n.markSeen(card.ID) {
					cardsDeduplicated.Inc()
					continue
				}

				snapshot := n.build(batch.CategoryID, card)
				select {
				case n.out <- snapshot:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// markSeen records an article id, reporting false when a card for it was
// already normalized during this crawl.
func (n *Normalizer) markSeen(id int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.seen[id]; ok {
		return false
	}
	n.seen[id] = struct{}{}
	return true
}

// build reshapes one validated card into a snapshot.
func (n *Normalizer) build(categoryID int64, card marketplace.Card) domain.Snapshot {
	s := domain.Snapshot{
		Brand: domain.Brand{ID: card.BrandID, Name: card.Brand},
		Item: domain.Item{
			ID:         card.Root,
			CategoryID: categoryID,
			BrandID:    card.BrandID,
		},
		Article: domain.Article{
			ID:     card.ID,
			ItemID: card.Root,
			Name:   card.Name,
		},
		History: domain.ArticleHistory{
			ArticleID:         card.ID,
			Timestamp:         n.timestamp,
			PriceFull:         card.PriceU,
			PriceWithDiscount: card.SalePriceU,
			Sale:              card.Sale,
			Rating:            *card.Rating,
			Feedbacks:         *card.Feedbacks,
		},
	}

	for _, c := range card.Colors {
		s.Colors = append(s.Colors, domain.Color{ID: c.ID, Name: c.Name})
	}
	switch {
	case len(card.Colors) > 1:
		colorID := domain.MultiColorID
		s.Article.ColorID = &colorID
	case len(card.Colors) == 1:
		colorID := card.Colors[0].ID
		s.Article.ColorID = &colorID
	}

	var sumCount int64
	for _, size := range card.Sizes {
		var sizeCount int64
		for _, stock := range size.Stocks {
			sizeCount += stock.Qty
		}
		sumCount += sizeCount
		s.Sizes = append(s.Sizes, domain.SizeCount{Name: size.Name, Count: sizeCount})
	}
	s.History.SumCount = sumCount

	return s
}
