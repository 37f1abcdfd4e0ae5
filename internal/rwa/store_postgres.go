package rwa

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the rwas collection in the document database.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

// EnsureSchema creates the rwas table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rwas (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			kind       TEXT NOT NULL DEFAULT '',
			team_id    TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT '',
			lat        DOUBLE PRECISION NOT NULL DEFAULT 0,
			lng        DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure rwas schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, a Asset) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO rwas (id, name, kind, team_id, status, lat, lng, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    kind = EXCLUDED.kind,
		    team_id = EXCLUDED.team_id,
		    status = EXCLUDED.status,
		    lat = EXCLUDED.lat,
		    lng = EXCLUDED.lng,
		    updated_at = now()`,
		a.ID, a.Name, a.Kind, a.TeamID, a.Status, a.Latitude, a.Longitude)
	if err != nil {
		return fmt.Errorf("upsert rwa %s: %w", a.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Asset, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, kind, team_id, status, lat, lng, updated_at
		FROM rwas
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rwas: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.TeamID, &a.Status, &a.Latitude, &a.Longitude, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rwa: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rwas: %w", err)
	}
	return out, nil
}
