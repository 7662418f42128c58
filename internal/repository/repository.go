package repository

import (
	"context"

	"github.com/pricepulse/wbradar/internal/domain"
)

// HistoryFilter defines filter criteria for listing history rows.
type HistoryFilter struct {
	ArticleID *int64
	Page      int
	PerPage   int
}

// CategoryRepository defines the interface for category persistence
// operations.
type CategoryRepository interface {
	// ListAll returns every category ordered by id.
	ListAll(ctx context.Context) ([]domain.Category, error)

	// ListCrawlable returns the categories that can be enumerated.
	ListCrawlable(ctx context.Context) ([]domain.Category, error)

	// ReplaceAll swaps in a freshly loaded category tree in one transaction.
	ReplaceAll(ctx context.Context, categories []domain.Category) error
}

// SnapshotRepository commits normalized snapshots.
type SnapshotRepository interface {
	// Persist writes one snapshot atomically: reference entities are created
	// on first sight, the history row is always inserted.
	Persist(ctx context.Context, snapshot domain.Snapshot) error
}

// HistoryRepository reads back persisted history rows.
type HistoryRepository interface {
	// List returns history rows matching the filter along with the total
	// count.
	List(ctx context.Context, filter HistoryFilter) ([]domain.ArticleHistory, int, error)
}
