package postgres

import (
	"context"
	"fmt"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/repository"
	"github.com/pricepulse/wbradar/pkg/database"
)

// historyColumns is the standard SELECT column list for history rows.
const historyColumns = `id, article_id, ts, price_full, price_with_discount,
	sale, rating, feedbacks, sum_count`

// HistoryRepository reads persisted history rows using PostgreSQL.
type HistoryRepository struct {
	pool database.DBTX
}

// NewHistoryRepository creates a new PostgreSQL-backed history repository.
func NewHistoryRepository(pool database.DBTX) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// List returns history rows matching the filter along with the total count.
func (r *HistoryRepository) List(ctx context.Context, filter repository.HistoryFilter) ([]domain.ArticleHistory, int, error) {
	where := ""
	args := []any{}
	if filter.ArticleID != nil {
		where = "WHERE article_id = $1"
		args = append(args, *filter.ArticleID)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM articles_history %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 50
	}
	offset := (filter.Page - 1) * filter.PerPage

	query := fmt.Sprintf(`SELECT %s FROM articles_history %s ORDER BY ts DESC, id DESC LIMIT $%d OFFSET $%d`,
		historyColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PerPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.ArticleHistory
	for rows.Next() {
		var h domain.ArticleHistory
		if err := rows.Scan(
			&h.ID,
			&h.ArticleID,
			&h.Timestamp,
			&h.PriceFull,
			&h.PriceWithDiscount,
			&h.Sale,
			&h.Rating,
			&h.Feedbacks,
			&h.SumCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}

	return history, total, nil
}
