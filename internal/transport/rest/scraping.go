package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/internal/domain"
	"github.com/placescout/placescout-backend/internal/service/scraping"
)

// scrapingService defines the minimal interface needed by ScrapingHandler.
type scrapingService interface {
	CreateSearch(ctx context.Context, input domain.SearchInput) (*domain.Search, error)
	ListSearches(ctx context.Context) ([]domain.Search, error)
	GetSearch(ctx context.Context, searchID uuid.UUID) (*domain.Search, error)
	ExportSearch(ctx context.Context, searchID uuid.UUID) (*scraping.ExportResult, error)
	GetBalance(ctx context.Context) (int64, error)
}

// ScrapingHandler serves the search REST endpoints.
type ScrapingHandler struct {
	svc scrapingService
	log *slog.Logger
}

// NewScrapingHandler creates a ScrapingHandler.
func NewScrapingHandler(svc scrapingService, logger *slog.Logger) *ScrapingHandler {
	return &ScrapingHandler{svc: svc, log: logger.With("handler", "scraping")}
}

type createSearchRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode"`
	MaxResults   int    `json:"maxResults"`
}

type searchResponse struct {
	ID           string    `json:"id"`
	TextQuery    string    `json:"textQuery"`
	LanguageCode string    `json:"languageCode"`
	PackageSize  int       `json:"packageSize"`
	TotalResults int       `json:"totalResults"`
	CreatedAt    time.Time `json:"createdAt"`
}

type balanceResponse struct {
	Credits int64 `json:"credits"`
}

// CreateSearch handles POST /api/scraping/search.
func (h *ScrapingHandler) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	search, err := h.svc.CreateSearch(r.Context(), domain.SearchInput{
		TextQuery:    req.TextQuery,
		LanguageCode: req.LanguageCode,
		MaxResults:   req.MaxResults,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSearchResponse(search))
}

// ListSearches handles GET /api/scraping/searches.
func (h *ScrapingHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.svc.ListSearches(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	items := make([]searchResponse, 0, len(searches))
	for i := range searches {
		items = append(items, toSearchResponse(&searches[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"searches": items})
}

// GetSearch handles GET /api/scraping/searches/{id}.
func (h *ScrapingHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	searchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search id")
		return
	}

	search, err := h.svc.GetSearch(r.Context(), searchID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(search))
}

// ExportSearch handles GET /api/scraping/searches/{id}/export.
func (h *ScrapingHandler) ExportSearch(w http.ResponseWriter, r *http.Request) {
	searchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search id")
		return
	}

	result, err := h.svc.ExportSearch(r.Context(), searchID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Content) //nolint:errcheck
}

// GetBalance handles GET /api/scraping/credits.
func (h *ScrapingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.GetBalance(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Credits: balance})
}

func (h *ScrapingHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrExternalService):
		h.log.ErrorContext(r.Context(), "provider error", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "search provider unavailable")
	case errors.Is(err, domain.ErrSchemaNotReady):
		h.log.ErrorContext(r.Context(), "schema not ready", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "service not ready, try again later")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toSearchResponse(s *domain.Search) searchResponse {
	return searchResponse{
		ID:           s.ID.String(),
		TextQuery:    s.TextQuery,
		LanguageCode: s.LanguageCode,
		PackageSize:  s.PackageSize,
		TotalResults: s.TotalResults,
		CreatedAt:    s.CreatedAt,
	}
}
