package app

import (
	"context"
	"database/sql"
	"log/slog"

	"bioguard/internal/config"
	"bioguard/internal/repo/memory"
	"bioguard/internal/repo/postgres"
	"bioguard/internal/repo/sqlite"
	"bioguard/internal/services/audit"
	"bioguard/internal/services/biocache"
	"bioguard/internal/services/registry"
)

type stores struct {
	driver    string
	db        *sql.DB
	chats     registry.Repo
	verdicts  biocache.Repo
	deletions audit.Repo
}

// openStores opens the configured SQL backend. When it is unreachable the bot
// keeps running on in-memory stores rather than refusing to start.
func openStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) stores {
	switch cfg.Driver {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Warn("sqlite unavailable, continuing with in-memory storage", "path", cfg.SQLitePath, "error", err)
			break
		}
		return stores{
			driver:    config.StorageSQLite,
			db:        db,
			chats:     sqlite.NewChatStateRepo(db),
			verdicts:  sqlite.NewVerdictRepo(db),
			deletions: sqlite.NewDeletionRepo(db),
		}
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("postgres unavailable, continuing with in-memory storage", "error", err)
			break
		}
		return stores{
			driver:    config.StoragePostgres,
			db:        db,
			chats:     postgres.NewChatStateRepo(db),
			verdicts:  postgres.NewVerdictRepo(db),
			deletions: postgres.NewDeletionRepo(db),
		}
	}

	return stores{
		driver:    config.StorageMemory,
		chats:     memory.NewChatStateRepo(),
		verdicts:  memory.NewVerdictRepo(),
		deletions: memory.NewDeletionRepo(),
	}
}
