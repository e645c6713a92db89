package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/macrodesk/macrobrief/internal/logger"
)

// PostgresLog stores delivered briefing hashes in Postgres, for deployments
// where the container filesystem is ephemeral.
type PostgresLog struct {
	db       *sql.DB
	ttlHours int
}

func NewPostgresLog(databaseURL string, ttlHours int) (*PostgresLog, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pl := &PostgresLog{db: db, ttlHours: ttlHours}
	if err := pl.migrate(); err != nil {
		return nil, err
	}
	return pl, nil
}

func (pl *PostgresLog) migrate() error {
	_, err := pl.db.Exec(`
		CREATE TABLE IF NOT EXISTS delivered_briefings (
			hash    TEXT PRIMARY KEY,
			channel TEXT NOT NULL,
			preview TEXT NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create delivered_briefings table: %w", err)
	}
	return nil
}

func (pl *PostgresLog) IsDelivered(hash string) bool {
	cutoff := time.Now().Add(-time.Duration(pl.ttlHours) * time.Hour)

	var exists bool
	err := pl.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM delivered_briefings WHERE hash = $1 AND sent_at > $2)`,
		hash, cutoff,
	).Scan(&exists)
	if err != nil {
		// Fail open: a broken log must not block the briefing.
		logger.Warn("delivery log lookup failed", "error", err)
		return false
	}
	return exists
}

func (pl *PostgresLog) MarkDelivered(hash, channel, preview string) error {
	_, err := pl.db.Exec(
		`INSERT INTO delivered_briefings (hash, channel, preview, sent_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (hash) DO UPDATE SET channel = $2, sent_at = now()`,
		hash, channel, previewOf(preview),
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// Cleanup deletes entries past the TTL.
func (pl *PostgresLog) Cleanup() error {
	cutoff := time.Now().Add(-time.Duration(pl.ttlHours) * time.Hour)
	_, err := pl.db.Exec(`DELETE FROM delivered_briefings WHERE sent_at < $1`, cutoff)
	return err
}

func (pl *PostgresLog) Close() error {
	return pl.db.Close()
}
