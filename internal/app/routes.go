package app

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placescout/placescout-backend/internal/adapter/redis"
	"github.com/placescout/placescout-backend/internal/auth"
	"github.com/placescout/placescout-backend/internal/config"
	"github.com/placescout/placescout-backend/internal/service/scraping"
	"github.com/placescout/placescout-backend/internal/transport/middleware"
	"github.com/placescout/placescout-backend/internal/transport/rest"
)

// newRouter assembles the HTTP mux: open health probes plus the
// authenticated scraping API.
func newRouter(
	logger *slog.Logger,
	cfg *config.Config,
	scrapingService *scraping.Service,
	jwtManager *auth.JWTManager,
	pool *pgxpool.Pool,
	credits *redis.CreditStore,
) http.Handler {
	mux := http.NewServeMux()

	healthHandler := rest.NewHealthHandler(pool, credits, BuildVersion())
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

	protected := middleware.Chain(
		middleware.Auth(jwtManager),
	)(api)

	mux.Handle("/api/", protected)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(mux)
}
