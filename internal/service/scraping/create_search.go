package scraping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/placescout/placescout-backend/internal/domain"
	"github.com/placescout/placescout-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// 1. CreateSearch
// ---------------------------------------------------------------------------

// CreateSearch runs one paid search end to end: checks that the owner can
// afford the requested package, fetches places from the provider, persists
// header and rows in one transaction and only then debits the credits that
// were actually consumed. A failed debit rolls the persisted search back so
// the owner is never billed for data they cannot see, and never keeps data
// they were not billed for.
func (s *Service) CreateSearch(ctx context.Context, input domain.SearchInput) (*domain.Search, error) {
	ownerID, ok := ctxutil.OwnerIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Pre-flight against the requested package size. The provider may
	// return fewer results, in which case the final debit is smaller.
	balance, err := s.credits.Balance(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if balance < int64(input.MaxResults) {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientCredits, balance, input.MaxResults)
	}

	places, err := s.provider.Search(ctx, input.TextQuery, input.LanguageCode, input.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("fetch places: %w", err)
	}
	if len(places) > input.MaxResults {
		return nil, fmt.Errorf("provider returned %d places for a package of %d", len(places), input.MaxResults)
	}

	search := &domain.Search{
		OwnerID:      ownerID,
		TextQuery:    input.TextQuery,
		LanguageCode: input.LanguageCode,
		PackageSize:  input.MaxResults,
		TotalResults: len(places),
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.searches.Create(txCtx, search, places)
	})
	if txErr != nil {
		return nil, fmt.Errorf("persist search: %w", txErr)
	}

	newBalance, err := s.credits.Debit(ctx, ownerID, int64(len(places)))
	if err != nil {
		s.compensate(ctx, search)
		if errors.Is(err, domain.ErrDebitFailed) {
			return nil, fmt.Errorf("%w: balance changed during search", domain.ErrInsufficientCredits)
		}
		return nil, fmt.Errorf("debit credits: %w", err)
	}

	s.log.Info("search completed",
		slog.String("owner_id", ownerID.String()),
		slog.String("search_id", search.ID.String()),
		slog.Int("requested", input.MaxResults),
		slog.Int("fetched", len(places)),
		slog.Int64("balance", newBalance),
	)

	s.notifier.Emit(ownerID, newBalance)

	return search, nil
}

// compensate removes a persisted search whose debit did not go through.
// Failures are logged only: the caller's error must describe the debit,
// not the cleanup.
func (s *Service) compensate(ctx context.Context, search *domain.Search) {
	if err := s.searches.Compensate(ctx, search.ID); err != nil {
		s.log.Error("compensation failed, orphaned search left behind",
			slog.String("search_id", search.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
