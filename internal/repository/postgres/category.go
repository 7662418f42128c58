package postgres

import (
	"context"
	"fmt"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/pkg/database"
)

// categoryColumns is the standard SELECT column list for categories.
const categoryColumns = `id, name, parent_id, url, shard, query, children`

// crawlableCondition matches categories backed by a queryable catalog shard.
const crawlableCondition = `shard IS NOT NULL
	AND shard <> ''
	AND shard NOT LIKE '%blackhole%'
	AND shard NOT LIKE '%preset%'`

// CategoryRepository implements category persistence operations using
// PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListAll returns every category ordered by id.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories ORDER BY id`, categoryColumns)
	return r.list(ctx, query)
}

// ListCrawlable returns the categories worth enumerating: those with a
// non-empty shard that does not route to a blackhole or preset landing.
func (r *CategoryRepository) ListCrawlable(ctx context.Context) ([]domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE %s ORDER BY id`,
		categoryColumns, crawlableCondition)
	return r.list(ctx, query)
}

func (r *CategoryRepository) list(ctx context.Context, query string) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.URL, &c.Shard, &c.Query, &c.Children); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// ReplaceAll swaps in a freshly loaded category tree in one transaction.
// Nodes are upserted rather than truncated so that item rows referencing a
// surviving category keep their foreign key.
func (r *CategoryRepository) ReplaceAll(ctx context.Context, categories []domain.Category) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace categories: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO categories (id, name, parent_id, url, shard, query, children)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			url = EXCLUDED.url,
			shard = EXCLUDED.shard,
			query = EXCLUDED.query,
			children = EXCLUDED.children`

	for _, c := range categories {
		if _, err := tx.Exec(ctx, query,
			c.ID,
			c.Name,
			c.ParentID,
			c.URL,
			c.Shard,
			c.Query,
			c.Children,
		); err != nil {
			return fmt.Errorf("upsert category %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace categories: %w", err)
	}

	return nil
}
