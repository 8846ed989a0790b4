// Package places fetches text-search results from the Google Places API
// (New), paginating with nextPageToken and retrying transient failures.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/placescout/placescout-backend/internal/config"
	"github.com/placescout/placescout-backend/internal/domain"
)

// pageSize is fixed regardless of the requested total; the provider caps
// a single page at 20 places.
const pageSize = 20

const maxAttempts = 3

// Client talks to the place-search provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	// retryUnit scales the linear backoff (delay = attempt × retryUnit).
	// Tests shrink it; production keeps 1.5s.
	retryUnit time.Duration
}

// New creates a Client from provider configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.PageTimeout},
		log:        logger.With("adapter", "places"),
		retryUnit:  1500 * time.Millisecond,
	}
}

// Search fetches up to maxResults places for the query, following
// continuation tokens page by page. The final page is truncated so the
// result never exceeds maxResults. The sequence is not restartable: any
// page failing after retries aborts the whole fetch.
func (c *Client) Search(ctx context.Context, textQuery, languageCode string, maxResults int) ([]domain.PlaceResult, error) {
	all := make([]domain.PlaceResult, 0, maxResults)
	pageToken := ""

	for {
		page, nextToken, err := c.searchPage(ctx, textQuery, languageCode, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(all) >= maxResults || nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}

	c.log.DebugContext(ctx, "places search complete",
		slog.String("query", textQuery),
		slog.Int("results", len(all)),
	)

	return all, nil
}

// searchPage fetches a single page with its own retry budget: transient
// statuses (429, 500, 503) are retried up to 2 extra times with linear
// backoff; anything else fails immediately.
func (c *Client) searchPage(ctx context.Context, textQuery, languageCode, pageToken string) ([]domain.PlaceResult, string, error) {
	body, err := json.Marshal(searchRequest{
		TextQuery:    textQuery,
		LanguageCode: languageCode,
		PageSize:     pageSize,
		PageToken:    pageToken,
	})
	if err != nil {
		return nil, "", fmt.Errorf("places: encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		places, nextToken, status, err := c.doPage(ctx, body)
		if err == nil {
			return places, nextToken, nil
		}
		lastErr = err

		if !isRetryable(status) || attempt == maxAttempts {
			c.log.ErrorContext(ctx, "places request failed",
				slog.String("query", textQuery),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
			return nil, "", &domain.ExternalError{StatusCode: status, Err: err}
		}

		if ctx.Err() != nil {
			return nil, "", &domain.ExternalError{StatusCode: status, Err: ctx.Err()}
		}

		delay := time.Duration(attempt) * c.retryUnit
		c.log.WarnContext(ctx, "places retry",
			slog.String("query", textQuery),
			slog.Int("status", status),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)
		time.Sleep(delay)
	}

	return nil, "", &domain.ExternalError{Err: lastErr}
}

// doPage performs one HTTP round trip. The returned status is 0 for
// transport-level failures.
func (c *Client) doPage(ctx context.Context, body []byte) ([]domain.PlaceResult, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	places := make([]domain.PlaceResult, 0, len(page.Places))
	for _, p := range page.Places {
		places = append(places, p.toDomain())
	}

	return places, page.NextPageToken, resp.StatusCode, nil
}

func isRetryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}
