// Command seedteams upserts the known team roster into the teams table.
// Run it once per environment, or again whenever the roster changes.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/example/wakama-oracle/internal/teams"
)

var defaultRoster = []teams.Team{
	// Core/internal
	{ID: "Wakama_team", Name: "Wakama Team", Type: "core", External: false},

	// Existing externals
	{ID: "team-scak-coop", Name: "SCAK Cooperative", Type: "coop", External: true},
	{ID: "team-makm2", Name: "MAKM2 Partner", Type: "partner", External: true},
	{ID: "team-techlab-cme", Name: "TechLab CME", Type: "university", External: true},

	// M2 onboarding
	{ID: "team-ujlog", Name: "Université Jean Lorougnon Guédé (UJLoG)", Type: "university", External: true},
	{ID: "team-capn", Name: "CAPN – Coopérative Agricole de Petit Nando", Type: "coop", External: true},
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("missing DATABASE_URL")
		os.Exit(1)
	}

	roster := defaultRoster
	if len(os.Args) > 1 {
		loaded, err := loadRoster(os.Args[1])
		if err != nil {
			logger.Error("failed to load roster file", "path", os.Args[1], "error", err)
			os.Exit(1)
		}
		roster = loaded
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := teams.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	for _, t := range roster {
		if err := store.Upsert(ctx, t); err != nil {
			logger.Error("failed to upsert team", "team", t.ID, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("teams seeded", "count", len(roster))
}

func loadRoster(path string) ([]teams.Team, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var roster []teams.Team
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
