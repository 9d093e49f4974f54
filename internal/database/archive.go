// internal/database/archive.go

// Package database archives finished sessions to Postgres.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_archive (
	session_id  TEXT PRIMARY KEY,
	game_type   TEXT NOT NULL,
	winner      TEXT,
	scores      JSONB NOT NULL,
	final_state JSONB NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ArchiveStore writes one row per finished session.
type ArchiveStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against url and makes sure the archive table exists.
func Connect(ctx context.Context, url string) (*ArchiveStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("database: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	a := &ArchiveStore{pool: pool}
	if err := a.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("Connected to Postgres archive.")
	return a, nil
}

// Migrate creates the archive table if needed.
func (a *ArchiveStore) Migrate(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// StoreFinalGameState archives a finished session. A session is archived at
// most once; later calls for the same id are ignored.
func (a *ArchiveStore) StoreFinalGameState(ctx context.Context, summary models.GameSummary) error {
	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = time.Now().UTC()
	}
	scores := summary.Scores
	if len(scores) == 0 {
		scores = json.RawMessage("[]")
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO game_archive (session_id, game_type, winner, scores, final_state, finished_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING`,
		summary.SessionID, string(summary.Variant), summary.Winner, []byte(scores), []byte(summary.FinalState), summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("database: archive %s: %w", summary.SessionID, err)
	}
	return nil
}

// FinalGameState returns an archived session, or false when none exists.
func (a *ArchiveStore) FinalGameState(ctx context.Context, sessionID string) (models.GameSummary, bool, error) {
	var (
		s      models.GameSummary
		winner *string
		vt     string
	)
	err := a.pool.QueryRow(ctx, `
		SELECT session_id, game_type, winner, scores, final_state, finished_at
		FROM game_archive WHERE session_id = $1`, sessionID).
		Scan(&s.SessionID, &vt, &winner, &s.Scores, &s.FinalState, &s.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GameSummary{}, false, nil
		}
		return models.GameSummary{}, false, fmt.Errorf("database: load %s: %w", sessionID, err)
	}
	s.Variant = models.Variant(vt)
	if winner != nil {
		s.Winner = *winner
	}
	return s, true, nil
}

// Close releases the pool.
func (a *ArchiveStore) Close() {
	a.pool.Close()
}
