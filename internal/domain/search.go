package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Result count limits. One credit is consumed per persisted result row;
// the provider returns at most 60 results per query.
const (
	MinResults = 1
	MaxResults = 60
)

// DefaultLanguageCode is used when the caller does not specify one.
const DefaultLanguageCode = "pt-BR"

// Search is a persisted search header. Immutable after creation; it only
// disappears via compensation together with its result rows.
type Search struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	TextQuery    string
	LanguageCode string
	PackageSize  int // requested result count, what the pre-flight check used
	TotalResults int // rows actually fetched and persisted, what was debited
	CreatedAt    time.Time
}

// ResultRow is a persisted place result, child of exactly one Search.
// All descriptive fields are optional — the provider may omit any of them.
type ResultRow struct {
	SearchID  uuid.UUID
	OwnerID   uuid.UUID
	PlaceID   *string
	Name      *string
	Phone     *string
	Address   *string
	CreatedAt time.Time
}

// PlaceResult is a raw provider record, input to ResultRow construction.
type PlaceResult struct {
	PlaceID *string
	Name    *string
	Phone   *string
	Address *string
}

// SearchInput is the caller-supplied request for a new search.
type SearchInput struct {
	TextQuery    string
	LanguageCode string
	MaxResults   int
}

// Normalize trims the query and defaults the language code.
// It does not clamp MaxResults: an out-of-range count is a validation
// error, not something to silently fix.
func (in *SearchInput) Normalize() {
	in.TextQuery = strings.TrimSpace(in.TextQuery)
	in.LanguageCode = strings.TrimSpace(in.LanguageCode)
	if in.LanguageCode == "" {
		in.LanguageCode = DefaultLanguageCode
	}
}

// Validate checks the normalized input.
func (in SearchInput) Validate() error {
	var errs []FieldError
	if in.TextQuery == "" {
		errs = append(errs, FieldError{Field: "textQuery", Message: "required"})
	}
	if in.MaxResults < MinResults || in.MaxResults > MaxResults {
		errs = append(errs, FieldError{Field: "maxResults", Message: "must be between 1 and 60"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
