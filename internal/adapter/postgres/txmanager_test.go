package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/internal/adapter/postgres"
	"github.com/placescout/placescout-backend/internal/adapter/postgres/testhelper"
)

func countSearches(t *testing.T, ctx context.Context, q postgres.Querier, owner uuid.UUID) int {
	t.Helper()
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM searches WHERE owner_id = $1`, owner).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func insertSearch(ctx context.Context, q postgres.Querier, owner uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO searches (owner_id, text_query, package_size, total_results)
		 VALUES ($1, 'tx test', 1, 0)`, owner)
	return err
}

func TestTxManager_Commit(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	tx := postgres.NewTxManager(pool)
	ctx := context.Background()
	owner := uuid.New()

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		return insertSearch(txCtx, postgres.QuerierFromCtx(txCtx, pool), owner)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	if got := countSearches(t, ctx, pool, owner); got != 1 {
		t.Fatalf("expected committed row, got %d", got)
	}
}

func TestTxManager_RollbackOnError(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	tx := postgres.NewTxManager(pool)
	ctx := context.Background()
	owner := uuid.New()

	wantErr := errors.New("boom")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := insertSearch(txCtx, postgres.QuerierFromCtx(txCtx, pool), owner); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error back, got %v", err)
	}

	if got := countSearches(t, ctx, pool, owner); got != 0 {
		t.Fatalf("expected rollback, got %d rows", got)
	}
}

func TestTxManager_RollbackOnPanic(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	tx := postgres.NewTxManager(pool)
	ctx := context.Background()
	owner := uuid.New()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := insertSearch(txCtx, postgres.QuerierFromCtx(txCtx, pool), owner); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countSearches(t, ctx, pool, owner); got != 0 {
		t.Fatalf("expected rollback after panic, got %d rows", got)
	}
}
