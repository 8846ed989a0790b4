package scraping

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type providerClient interface {
	Search(ctx context.Context, textQuery, languageCode string, maxResults int) ([]domain.PlaceResult, error)
}

type creditStore interface {
	Balance(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Debit(ctx context.Context, ownerID uuid.UUID, amount int64) (int64, error)
}

type searchRepo interface {
	Create(ctx context.Context, s *domain.Search, places []domain.PlaceResult) error
	Compensate(ctx context.Context, searchID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Search, error)
	GetByID(ctx context.Context, ownerID, searchID uuid.UUID) (*domain.Search, error)
	ExportRows(ctx context.Context, ownerID, searchID uuid.UUID) ([]domain.ResultRow, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type balanceNotifier interface {
	Emit(ownerID uuid.UUID, balance int64)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service orchestrates the paid search flow: credit pre-flight, provider
// fetch, transactional persistence and the final debit.
type Service struct {
	log      *slog.Logger
	provider providerClient
	credits  creditStore
	searches searchRepo
	tx       txManager
	notifier balanceNotifier
}

// NewService creates a new Scraping service.
func NewService(
	logger *slog.Logger,
	provider providerClient,
	credits creditStore,
	searches searchRepo,
	tx txManager,
	notifier balanceNotifier,
) *Service {
	return &Service{
		log:      logger.With("service", "scraping"),
		provider: provider,
		credits:  credits,
		searches: searches,
		tx:       tx,
		notifier: notifier,
	}
}
