package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/wakama-oracle/internal/auth"
	"github.com/example/wakama-oracle/internal/capitalpool"
	"github.com/example/wakama-oracle/internal/observability"
	"github.com/example/wakama-oracle/internal/rwa"
	"github.com/example/wakama-oracle/internal/security"
	"github.com/example/wakama-oracle/internal/teams"
	"github.com/example/wakama-oracle/internal/telemetry"
)

// CapitalPoolService assembles capital-pool ledger views.
type CapitalPoolService interface {
	Reconcile(ctx context.Context, mode string, limit int) capitalpool.View
}

// TelemetryService serves and ingests the "now" feed.
type TelemetryService interface {
	MainnetFeed(ctx context.Context) telemetry.Feed
	Ingest(ctx context.Context, b telemetry.Batch) (telemetry.Batch, error)
}

// NowSource reads the raw now.json artifact.
type NowSource interface {
	NowRaw(ctx context.Context) (json.RawMessage, error)
}

type Dependencies struct {
	Logger *slog.Logger

	CapitalPool CapitalPoolService
	Telemetry   TelemetryService
	Snapshots   NowSource

	Batches telemetry.Store
	Assets  rwa.Store
	Teams   teams.Store

	Issuer      *auth.TokenIssuer
	Credentials auth.Credentials

	RateLimiter  *security.RedisLimiter
	MaxBodyBytes int64
	MapboxToken  string

	Metrics        *observability.Metrics
	MetricsHandler http.Handler
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ingestV, err := security.NewJSONSchemaValidator(ingestSchema)
	if err != nil {
		return nil, err
	}

	onAuthError := func(w http.ResponseWriter, r *http.Request, status int, code string) {
		security.WriteJSONError(w, r, status, code)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(MetricsMiddleware(deps.Metrics))
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	if deps.RateLimiter != nil {
		r.Use(security.RateLimitMiddleware(deps.RateLimiter, rateLimitKeyByIP))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/capital-pool", handleCapitalPool(deps))
		r.Get("/now", handleNow(deps))
		r.Get("/now-mainnet", handleNowMainnet(deps))
		r.Get("/rwa", handleRWAOverview(deps))
		r.Get("/mapbox-token", handleMapboxToken(deps))
		r.Post("/login", handleLogin(deps))

		r.Route("/iot", func(r chi.Router) {
			r.Get("/ingest", handleIngestEcho())

			ingest := r.With(auth.Authenticate(deps.Issuer, onAuthError), ingestV.Middleware)
			ingest.Post("/ingest", handleIngest(deps))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return r, nil
}

func rateLimitKeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return "ip:" + host
}
