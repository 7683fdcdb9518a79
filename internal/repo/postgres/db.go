package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_state (
			chat_id    BIGINT PRIMARY KEY,
			enabled    BOOLEAN NOT NULL DEFAULT FALSE,
			updated_by BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS user_verdicts (
			user_id      BIGINT PRIMARY KEY,
			username     TEXT NOT NULL DEFAULT '',
			has_link     BOOLEAN NOT NULL DEFAULT FALSE,
			bio_snapshot TEXT NOT NULL DEFAULT '',
			last_checked TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS deletions (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL,
			chat_id    BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS deletions_chat_id_idx ON deletions (chat_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	return nil
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
