package scraping

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/internal/domain"
	"github.com/placescout/placescout-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 2. ListSearches
// ---------------------------------------------------------------------------

// ListSearches returns the owner's search history, newest first.
func (s *Service) ListSearches(ctx context.Context) ([]domain.Search, error) {
	ownerID, ok := ctxutil.OwnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	searches, err := s.searches.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}

	return searches, nil
}

// ---------------------------------------------------------------------------
// 3. GetSearch
// ---------------------------------------------------------------------------

// GetSearch returns a single search owned by the caller.
func (s *Service) GetSearch(ctx context.Context, searchID uuid.UUID) (*domain.Search, error) {
	ownerID, ok := ctxutil.OwnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	search, err := s.searches.GetByID(ctx, ownerID, searchID)
	if err != nil {
		return nil, fmt.Errorf("get search: %w", err)
	}

	return search, nil
}

// ---------------------------------------------------------------------------
// 4. GetBalance
// ---------------------------------------------------------------------------

// GetBalance returns the owner's current credit balance.
func (s *Service) GetBalance(ctx context.Context) (int64, error) {
	ownerID, ok := ctxutil.OwnerIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrUnauthorized
	}

	balance, err := s.credits.Balance(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	return balance, nil
}
