// Package search implements the search result store using PostgreSQL.
// A search header and its result rows are created together; the header is
// immutable afterwards and only disappears via Compensate.
package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placescout/placescout-backend/internal/adapter/postgres"
	"github.com/placescout/placescout-backend/internal/domain"
)

// Repo provides search persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new search repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertSearchSQL = `
INSERT INTO searches (owner_id, text_query, language_code, package_size, total_results)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

const insertResultSQL = `
INSERT INTO search_results (search_id, owner_id, place_id, name, phone, address)
VALUES ($1, $2, $3, $4, $5, $6)`

const listByOwnerSQL = `
SELECT id, owner_id, text_query, language_code, package_size, total_results, created_at
FROM searches
WHERE owner_id = $1
ORDER BY created_at DESC`

const getByIDSQL = `
SELECT id, owner_id, text_query, language_code, package_size, total_results, created_at
FROM searches
WHERE id = $1 AND owner_id = $2`

const exportRowsSQL = `
SELECT r.search_id, r.owner_id, r.place_id, r.name, r.phone, r.address, r.created_at
FROM search_results r
JOIN searches s ON s.id = r.search_id
WHERE s.id = $1 AND s.owner_id = $2
ORDER BY r.created_at, r.id`

// Create inserts the search header and all result rows. It must be called
// inside TxManager.RunInTx so that a failed row insert rolls back the
// header as well. The generated id and created_at are written back into s.
func (r *Repo) Create(ctx context.Context, s *domain.Search, places []domain.PlaceResult) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	err := q.QueryRow(ctx, insertSearchSQL,
		s.OwnerID, s.TextQuery, s.LanguageCode, s.PackageSize, s.TotalResults,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return postgres.MapError(err, "search", s.OwnerID)
	}

	if len(places) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range places {
		batch.Queue(insertResultSQL, s.ID, s.OwnerID, p.PlaceID, p.Name, p.Phone, p.Address)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range places {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(fmt.Errorf("insert result row: %w", err), "search", s.ID)
		}
	}

	return nil
}

// Compensate removes all result rows for searchID and then the header.
// Idempotent: a second call, or a call for an id that never existed, is a
// no-op. Used when the credit debit fails after persistence succeeded.
func (r *Repo) Compensate(ctx context.Context, searchID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, `DELETE FROM search_results WHERE search_id = $1`, searchID); err != nil {
		return postgres.MapError(err, "search", searchID)
	}
	if _, err := q.Exec(ctx, `DELETE FROM searches WHERE id = $1`, searchID); err != nil {
		return postgres.MapError(err, "search", searchID)
	}
	return nil
}

// ListByOwner returns all searches of an owner, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Search, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByOwnerSQL, ownerID)
	if err != nil {
		return nil, postgres.MapError(err, "search", ownerID)
	}
	defer rows.Close()

	searches, err := scanSearches(rows)
	if err != nil {
		return nil, postgres.MapError(err, "search", ownerID)
	}
	return searches, nil
}

// GetByID returns a search by id, scoped to the owner. A search belonging
// to a different owner is indistinguishable from a missing one.
func (r *Repo) GetByID(ctx context.Context, ownerID, searchID uuid.UUID) (*domain.Search, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.Search
	err := q.QueryRow(ctx, getByIDSQL, searchID, ownerID).Scan(
		&s.ID, &s.OwnerID, &s.TextQuery, &s.LanguageCode,
		&s.PackageSize, &s.TotalResults, &s.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "search", searchID)
	}
	return &s, nil
}

// ExportRows returns the result rows of an owner's search in insertion
// order. Missing or foreign searches yield an empty slice, not an error.
func (r *Repo) ExportRows(ctx context.Context, ownerID, searchID uuid.UUID) ([]domain.ResultRow, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, exportRowsSQL, searchID, ownerID)
	if err != nil {
		return nil, postgres.MapError(err, "search", searchID)
	}
	defer rows.Close()

	out := []domain.ResultRow{}
	for rows.Next() {
		var row domain.ResultRow
		if err := rows.Scan(
			&row.SearchID, &row.OwnerID, &row.PlaceID, &row.Name,
			&row.Phone, &row.Address, &row.CreatedAt,
		); err != nil {
			return nil, postgres.MapError(err, "search", searchID)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "search", searchID)
	}
	return out, nil
}

func scanSearches(rows pgx.Rows) ([]domain.Search, error) {
	searches := []domain.Search{}
	for rows.Next() {
		var s domain.Search
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.TextQuery, &s.LanguageCode,
			&s.PackageSize, &s.TotalResults, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}
