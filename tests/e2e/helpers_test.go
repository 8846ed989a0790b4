//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/placescout/placescout-backend/internal/adapter/postgres"
	"github.com/placescout/placescout-backend/internal/adapter/postgres/search"
	"github.com/placescout/placescout-backend/internal/adapter/postgres/testhelper"
	"github.com/placescout/placescout-backend/internal/adapter/provider/places"
	redisadapter "github.com/placescout/placescout-backend/internal/adapter/redis"
	authpkg "github.com/placescout/placescout-backend/internal/auth"
	"github.com/placescout/placescout-backend/internal/config"
	"github.com/placescout/placescout-backend/internal/notifier"
	"github.com/placescout/placescout-backend/internal/service/scraping"
	"github.com/placescout/placescout-backend/internal/transport/middleware"
	"github.com/placescout/placescout-backend/internal/transport/rest"
)

const (
	testJWTSecret = "test-secret-at-least-32-chars-long!!"
	testJWTIssuer = "test-issuer"
)

// ---------------------------------------------------------------------------
// Shared Redis container (started once per test run).
// ---------------------------------------------------------------------------

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

func setupRedis(t *testing.T) string {
	t.Helper()

	redisOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		req := testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			redisErr = fmt.Errorf("start redis container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			redisErr = fmt.Errorf("redis host: %w", err)
			return
		}
		port, err := container.MappedPort(ctx, "6379/tcp")
		if err != nil {
			redisErr = fmt.Errorf("redis port: %w", err)
			return
		}
		redisAddr = fmt.Sprintf("%s:%s", host, port.Port())
	})
	if redisErr != nil {
		t.Fatalf("setup redis: %v", redisErr)
	}
	return redisAddr
}

// ---------------------------------------------------------------------------
// Balance event capture (websocket endpoint the notifier dials).
// ---------------------------------------------------------------------------

type eventLog struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (l *eventLog) add(p map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payloads = append(l.payloads, p)
}

func (l *eventLog) list() []map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]map[string]any, len(l.payloads))
	copy(out, l.payloads)
	return out
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL     string
	Client  *http.Client
	Pool    *pgxpool.Pool
	Events  *eventLog
	credits rueidis.Client
	prefix  string
}

// setupTestServer bootstraps the full stack: a real PostgreSQL container,
// a real Redis container and a stub place provider served by providerHandler.
func setupTestServer(t *testing.T, providerHandler http.Handler) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))

	// Credit store on the shared Redis, isolated by a per-server key prefix.
	addr := setupRedis(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	require.NoError(t, err)
	prefix := fmt.Sprintf("credits-%s:", uuid.New().String()[:8])
	creditStore := redisadapter.NewCreditStoreWithClient(client, prefix)
	t.Cleanup(creditStore.Close)

	// Stub provider.
	providerSrv := httptest.NewServer(providerHandler)
	t.Cleanup(providerSrv.Close)
	placesClient := places.New(config.ProviderConfig{
		APIKey:      "test-api-key",
		BaseURL:     providerSrv.URL,
		PageTimeout: 5 * time.Second,
	}, logger)

	// Balance event capture over a real websocket.
	events := &eventLog{}
	upgrader := websocket.Upgrader{}
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, upErr := upgrader.Upgrade(w, r, nil)
		if upErr != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
			var payload map[string]any
			if json.Unmarshal(msg, &payload) == nil {
				events.add(payload)
			}
		}
	}))
	t.Cleanup(wsSrv.Close)

	sink := notifier.New(config.NotifierConfig{
		URL:            "ws" + strings.TrimPrefix(wsSrv.URL, "http"),
		ReconnectDelay: 50 * time.Millisecond,
		MaxDelay:       200 * time.Millisecond,
		DialTimeout:    2 * time.Second,
	}, logger)
	t.Cleanup(sink.Close)

	// Services and transport, wired the same way the application does it.
	txm := postgres.NewTxManager(pool)
	searchRepo := search.New(pool)
	scrapingService := scraping.NewService(logger, placesClient, creditStore, searchRepo, txm, sink)
	jwtMgr := authpkg.NewJWTManager(testJWTSecret, testJWTIssuer)

	mux := http.NewServeMux()

	healthHandler := rest.NewHealthHandler(pool, creditStore, "test-version")
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	scrapingHandler := rest.NewScrapingHandler(scrapingService, logger)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/scraping/search", scrapingHandler.CreateSearch)
	api.HandleFunc("GET /api/scraping/searches", scrapingHandler.ListSearches)
	api.HandleFunc("GET /api/scraping/searches/{id}", scrapingHandler.GetSearch)
	api.HandleFunc("GET /api/scraping/searches/{id}/export", scrapingHandler.ExportSearch)
	api.HandleFunc("GET /api/scraping/credits", scrapingHandler.GetBalance)

	mux.Handle("/api/", middleware.Chain(middleware.Auth(jwtMgr))(api))

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
	)(mux)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:     srv.URL,
		Client:  srv.Client(),
		Pool:    pool,
		Events:  events,
		credits: client,
		prefix:  prefix,
	}
}

// ---------------------------------------------------------------------------
// Helpers.
// ---------------------------------------------------------------------------

// authToken signs an access token the way the issuing backend does.
func authToken(t *testing.T, ownerID uuid.UUID) string {
	t.Helper()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		Issuer:    testJWTIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

// setCredits writes an owner's balance directly into Redis.
func (ts *testServer) setCredits(t *testing.T, ownerID uuid.UUID, balance int64) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := ts.prefix + ownerID.String()
	err := ts.credits.Do(ctx, ts.credits.B().Set().Key(key).Value(strconv.FormatInt(balance, 10)).Build()).Error()
	require.NoError(t, err)
}

// doJSON sends an authenticated request and decodes the JSON response.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, result
}

// doRaw sends an authenticated request and returns the raw body.
func (ts *testServer) doRaw(t *testing.T, method, path, token string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// stubProvider serves one page of count places for any search request.
func stubProvider(count int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		places := make([]map[string]any, count)
		for i := range places {
			places[i] = map[string]any{
				"id":                  fmt.Sprintf("place-%d", i),
				"displayName":         map[string]any{"text": fmt.Sprintf("Place %d", i)},
				"nationalPhoneNumber": fmt.Sprintf("(81) 3333-%04d", i),
				"formattedAddress":    fmt.Sprintf("Rua %d, Recife", i),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"places": places})
	})
}
