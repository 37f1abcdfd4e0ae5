package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/example/wakama-oracle/internal/api"
	"github.com/example/wakama-oracle/internal/auth"
	"github.com/example/wakama-oracle/internal/capitalpool"
	"github.com/example/wakama-oracle/internal/config"
	"github.com/example/wakama-oracle/internal/observability"
	"github.com/example/wakama-oracle/internal/rwa"
	"github.com/example/wakama-oracle/internal/security"
	"github.com/example/wakama-oracle/internal/snapshot"
	"github.com/example/wakama-oracle/internal/solana"
	"github.com/example/wakama-oracle/internal/teams"
	"github.com/example/wakama-oracle/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	snapStore, err := snapshot.NewStore(cfg.SnapshotDir, metrics)
	if err != nil {
		logger.Error("failed to build snapshot store", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		batchStore telemetry.Store
		teamStore  teams.Store
		assetStore rwa.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		tb := telemetry.NewPostgresStore(pool)
		tm := teams.NewPostgresStore(pool)
		as := rwa.NewPostgresStore(pool)
		for _, ensure := range []func(context.Context) error{tb.EnsureSchema, tm.EnsureSchema, as.EnsureSchema} {
			if err := ensure(ctx); err != nil {
				logger.Error("failed to ensure schema", "error", err)
				os.Exit(1)
			}
		}
		batchStore, teamStore, assetStore = tb, tm, as
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		batchStore, teamStore, assetStore = telemetry.NewMemoryStore(), teams.NewMemoryStore(), rwa.NewMemoryStore()
	}

	teamRegistry, err := teams.LoadRegistry(ctx, teamStore)
	if err != nil {
		logger.Warn("team registry unavailable, falling back to built-in aliases", "error", err)
		teamRegistry = teams.NewRegistry(nil)
	}

	chain := solana.NewClient(cfg.RPCURL,
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithMetrics(metrics),
	)

	pool := &capitalpool.Service{
		Chain:     chain,
		Snapshots: snapStore,
		Directory: capitalpool.DefaultDirectory(),
		Names:     teamRegistry,
		VaultATA:  cfg.VaultATA,
		Mint:      cfg.USDCMint,
		Logger:    logger,
		Metrics:   metrics,
	}

	feed := &telemetry.Service{
		Snapshots: snapStore,
		Store:     batchStore,
		Teams:     teamRegistry,
		MergeDB:   cfg.MergeNowDB,
		Logger:    logger,
	}

	var issuer *auth.TokenIssuer
	if cfg.AuthEnabled() {
		issuer = &auth.TokenIssuer{
			Secret: []byte(cfg.JWTSecret),
			Issuer: "wakama-oracle",
			TTL:    cfg.TokenTTL,
		}
	} else {
		logger.Warn("auth not configured, login and ingest are disabled")
	}

	var limiter *security.RedisLimiter
	if cfg.RedisAddr != "" && cfg.RateLimit > 0 {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		limiter = &security.RedisLimiter{
			Redis:  redisClient,
			Prefix: "wakama_oracle",
			Limit:  cfg.RateLimit,
			Window: cfg.RateLimitWindow,
		}
	}

	router, err := api.NewRouter(api.Dependencies{
		Logger:       logger,
		CapitalPool:  pool,
		Telemetry:    feed,
		Snapshots:    snapStore,
		Batches:      batchStore,
		Assets:       assetStore,
		Teams:        teamStore,
		Issuer:       issuer,
		Credentials:  auth.Credentials{Email: cfg.OperatorEmail, PasswordHash: cfg.OperatorPasswordHash},
		RateLimiter:  limiter,
		MaxBodyBytes: cfg.MaxBodyBytes,
		MapboxToken:  cfg.MapboxToken,
		Metrics:      metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("wakama oracle listening", "addr", cfg.Addr, "vault_ata", cfg.VaultATA)

	if cfg.TLSCert != "" {
		err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
