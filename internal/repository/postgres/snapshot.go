package postgres

import (
	"context"
	"fmt"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/pkg/database"
)

// SnapshotRepository commits normalized snapshots using PostgreSQL. Each
// snapshot is one transaction: reference entities (brand, colors, item,
// article, sizes) are created on first sight and never overwritten, the
// history row and its size relations are always inserted.
type SnapshotRepository struct {
	pool database.DBTX
}

// NewSnapshotRepository creates a new PostgreSQL-backed snapshot repository.
func NewSnapshotRepository(pool database.DBTX) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Persist writes one snapshot atomically.
func (r *SnapshotRepository) Persist(ctx context.Context, s domain.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin persist snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO brands (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		s.Brand.ID, s.Brand.Name,
	); err != nil {
		return fmt.Errorf("upsert brand %d: %w", s.Brand.ID, err)
	}

	for _, c := range s.Colors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO colors (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name,
		); err != nil {
			return fmt.Errorf("upsert color %d: %w", c.ID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO items (id, category_id, brand_id) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		s.Item.ID, s.Item.CategoryID, s.Item.BrandID,
	); err != nil {
		return fmt.Errorf("upsert item %d: %w", s.Item.ID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO articles (id, item_id, name, color_id) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		s.Article.ID, s.Article.ItemID, s.Article.Name, s.Article.ColorID,
	); err != nil {
		return fmt.Errorf("upsert article %d: %w", s.Article.ID, err)
	}

	var historyID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO articles_history
			(article_id, ts, price_full, price_with_discount, sale, rating, feedbacks, sum_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		s.History.ArticleID,
		s.History.Timestamp,
		s.History.PriceFull,
		s.History.PriceWithDiscount,
		s.History.Sale,
		s.History.Rating,
		s.History.Feedbacks,
		s.History.SumCount,
	).Scan(&historyID); err != nil {
		return fmt.Errorf("insert history for article %d: %w", s.History.ArticleID, err)
	}

	for _, size := range s.Sizes {
		// The no-op DO UPDATE makes RETURNING yield the id for both the
		// insert and the conflict path.
		var sizeID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO sizes (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			size.Name,
		).Scan(&sizeID); err != nil {
			return fmt.Errorf("upsert size %q: %w", size.Name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO articles_history_sizes (history_id, size_id, count)
			 VALUES ($1, $2, $3)`,
			historyID, sizeID, size.Count,
		); err != nil {
			return fmt.Errorf("insert history size %q: %w", size.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot for article %d: %w", s.Article.ID, err)
	}

	return nil
}
