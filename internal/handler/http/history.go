package http

import (
	"log/slog"
	"net/http"

	"github.com/pricepulse/wbradar/internal/repository"
	"github.com/pricepulse/wbradar/pkg/httputil"
	"github.com/pricepulse/wbradar/pkg/pagination"
)

// HistoryHandler handles HTTP requests for article history endpoints.
type HistoryHandler struct {
	repo   repository.HistoryRepository
	logger *slog.Logger
}

// NewHistoryHandler creates a new history HTTP handler.
func NewHistoryHandler(repo repository.HistoryRepository, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListHistory handles GET /api/v1/history
// Supports ?article_id=, ?page= and ?per_page= query parameters. Rows are
// ordered newest first.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.HistoryFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if raw := r.URL.Query().Get("article_id"); raw != "" {
		id, ok := httputil.ParseID(w, raw)
		if !ok {
			return
		}
		filter.ArticleID = &id
	}

	history, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(history, total, filter.Page, filter.PerPage))
}
