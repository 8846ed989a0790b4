package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placescout/placescout-backend/internal/domain"
)

// SeedSearch inserts a search header with the given result rows and
// returns the stored domain.Search. Rows get distinct created_at values so
// ordering assertions are deterministic.
func SeedSearch(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, names ...string) domain.Search {
	t.Helper()
	ctx := context.Background()

	s := domain.Search{
		OwnerID:      ownerID,
		TextQuery:    "seeded query",
		LanguageCode: domain.DefaultLanguageCode,
		PackageSize:  len(names),
		TotalResults: len(names),
	}
	if s.PackageSize == 0 {
		s.PackageSize = 1
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO searches (owner_id, text_query, language_code, package_size, total_results)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.OwnerID, s.TextQuery, s.LanguageCode, s.PackageSize, s.TotalResults,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		t.Fatalf("seed search: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, name := range names {
		_, err := pool.Exec(ctx,
			`INSERT INTO search_results (search_id, owner_id, name, created_at)
			 VALUES ($1, $2, $3, $4)`,
			s.ID, s.OwnerID, name, base.Add(time.Duration(i)*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("seed result row %d: %v", i, err)
		}
	}

	return s
}
