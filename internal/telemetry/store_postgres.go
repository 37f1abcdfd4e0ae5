package telemetry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists telemetry batches in the document database.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

// EnsureSchema creates the batches table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS batches (
			id            TEXT PRIMARY KEY,
			cid           TEXT NOT NULL,
			tx_signature  TEXT NOT NULL DEFAULT '',
			sha256        TEXT NOT NULL DEFAULT '',
			team_id       TEXT NOT NULL,
			source        TEXT NOT NULL DEFAULT '',
			points        INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL DEFAULT 'indexed',
			recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure batches schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, b Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO batches (id, cid, tx_signature, sha256, team_id, source, points, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.CID, b.TxSignature, b.SHA256, b.TeamID, b.Source, b.Points, b.Status, b.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", b.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, cid, tx_signature, sha256, team_id, source, points, status, recorded_at
		FROM batches
		ORDER BY recorded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.CID, &b.TxSignature, &b.SHA256, &b.TeamID, &b.Source, &b.Points, &b.Status, &b.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}
