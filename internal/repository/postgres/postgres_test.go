package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepulse/wbradar/internal/domain"
	"github.com/pricepulse/wbradar/internal/repository"
	"github.com/pricepulse/wbradar/pkg/database"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

var crawlTime = time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)

var catColumns = []string{"id", "name", "parent_id", "url", "shard", "query", "children"}

func sampleCategory() domain.Category {
	return domain.Category{
		ID:       130267,
		Name:     "Блузки и рубашки",
		ParentID: int64Ptr(8126),
		URL:      "/catalog/zhenshchinam/bluzki-i-rubashki",
		Shard:    strPtr("bl_shirts"),
		Query:    strPtr("cat=8127"),
		Children: false,
	}
}

func categoryRow(c domain.Category) []any {
	return []any{c.ID, c.Name, c.ParentID, c.URL, c.Shard, c.Query, c.Children}
}

func sampleSnapshot() domain.Snapshot {
	colorID := int64(12345)
	return domain.Snapshot{
		Brand:   domain.Brand{ID: 310, Name: "Acme"},
		Item:    domain.Item{ID: 9000, CategoryID: 130267, BrandID: 310},
		Article: domain.Article{ID: 77001, ItemID: 9000, Name: "Рубашка базовая", ColorID: &colorID},
		History: domain.ArticleHistory{
			ArticleID:         77001,
			Timestamp:         crawlTime,
			PriceFull:         int64Ptr(250000),
			PriceWithDiscount: int64Ptr(199000),
			Sale:              int64Ptr(20),
			Rating:            4.7,
			Feedbacks:         312,
			SumCount:          18,
		},
		Colors: []domain.Color{{ID: 12345, Name: "синий"}},
		Sizes: []domain.SizeCount{
			{Name: "M", Count: 10},
			{Name: "L", Count: 8},
		},
	}
}

// ─── CategoryRepository ─────────────────────────────────────────────────────

func TestCategoryList_All(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := sampleCategory()
	mock.ExpectQuery("SELECT .+ FROM categories ORDER BY id").
		WillReturnRows(pgxmock.NewRows(catColumns).AddRow(categoryRow(c)...))

	repo := NewCategoryRepository(mock)
	categories, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, c, categories[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryList_Crawlable(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := sampleCategory()
	mock.ExpectQuery("SELECT .+ FROM categories WHERE shard IS NOT NULL").
		WillReturnRows(pgxmock.NewRows(catColumns).AddRow(categoryRow(c)...))

	repo := NewCategoryRepository(mock)
	categories, err := repo.ListCrawlable(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryReplaceAll(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := sampleCategory()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(c.ID, c.Name, c.ParentID, c.URL, c.Shard, c.Query, c.Children).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewCategoryRepository(mock)
	require.NoError(t, repo.ReplaceAll(context.Background(), []domain.Category{c}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryReplaceAll_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	c := sampleCategory()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(c.ID, c.Name, c.ParentID, c.URL, c.Shard, c.Query, c.Children).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewCategoryRepository(mock)
	err := repo.ReplaceAll(context.Background(), []domain.Category{c})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── SnapshotRepository ─────────────────────────────────────────────────────

func TestSnapshotPersist(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	s := sampleSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO brands").
		WithArgs(s.Brand.ID, s.Brand.Name).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO colors").
		WithArgs(s.Colors[0].ID, s.Colors[0].Name).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO items").
		WithArgs(s.Item.ID, s.Item.CategoryID, s.Item.BrandID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO articles").
		WithArgs(s.Article.ID, s.Article.ItemID, s.Article.Name, s.Article.ColorID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO articles_history").
		WithArgs(
			s.History.ArticleID, s.History.Timestamp,
			s.History.PriceFull, s.History.PriceWithDiscount, s.History.Sale,
			s.History.Rating, s.History.Feedbacks, s.History.SumCount,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(555)))
	mock.ExpectQuery("INSERT INTO sizes").
		WithArgs("M").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO articles_history_sizes").
		WithArgs(int64(555), int64(1), int64(10)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO sizes").
		WithArgs("L").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec("INSERT INTO articles_history_sizes").
		WithArgs(int64(555), int64(2), int64(8)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewSnapshotRepository(mock)
	require.NoError(t, repo.Persist(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotPersist_RollsBackOnHistoryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	s := sampleSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO brands").
		WithArgs(s.Brand.ID, s.Brand.Name).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO colors").
		WithArgs(s.Colors[0].ID, s.Colors[0].Name).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO items").
		WithArgs(s.Item.ID, s.Item.CategoryID, s.Item.BrandID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO articles").
		WithArgs(s.Article.ID, s.Article.ItemID, s.Article.Name, s.Article.ColorID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO articles_history").
		WithArgs(
			s.History.ArticleID, s.History.Timestamp,
			s.History.PriceFull, s.History.PriceWithDiscount, s.History.Sale,
			s.History.Rating, s.History.Feedbacks, s.History.SumCount,
		).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	repo := NewSnapshotRepository(mock)
	err := repo.Persist(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── HistoryRepository ──────────────────────────────────────────────────────

var historyColumnNames = []string{
	"id", "article_id", "ts", "price_full", "price_with_discount",
	"sale", "rating", "feedbacks", "sum_count",
}

func TestHistoryList(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT.+ FROM articles_history").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM articles_history").
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows(historyColumnNames).AddRow(
			int64(555), int64(77001), crawlTime,
			int64Ptr(250000), int64Ptr(199000), int64Ptr(20),
			4.7, int64(312), int64(18),
		))

	repo := NewHistoryRepository(mock)
	history, total, err := repo.List(context.Background(), repository.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, history, 1)
	assert.Equal(t, int64(77001), history[0].ArticleID)
	assert.Equal(t, int64(18), history[0].SumCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryList_FilterByArticle(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT.+ FROM articles_history WHERE article_id").
		WithArgs(int64(77001)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .+ FROM articles_history WHERE article_id").
		WithArgs(int64(77001), 10, 10).
		WillReturnRows(pgxmock.NewRows(historyColumnNames))

	repo := NewHistoryRepository(mock)
	history, total, err := repo.List(context.Background(), repository.HistoryFilter{
		ArticleID: int64Ptr(77001),
		Page:      2,
		PerPage:   10,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, history)
	assert.NoError(t, mock.ExpectationsWereMet())
}
