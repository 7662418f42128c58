package http

import (
	"log/slog"
	"net/http"

	"github.com/pricepulse/wbradar/internal/repository"
	"github.com/pricepulse/wbradar/pkg/httputil"
)

// CategoryHandler handles HTTP requests for category endpoints.
type CategoryHandler struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(repo repository.CategoryRepository, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListCategories handles GET /api/v1/categories
// Returns the full category list by default. Pass ?crawlable=true to restrict
// the list to categories the crawler actually enumerates.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list := h.repo.ListAll
	if r.URL.Query().Get("crawlable") == "true" {
		list = h.repo.ListCrawlable
	}

	categories, err := list(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}
