package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"bioguard/internal/domain/model"
)

type DeletionRepo struct {
	db *sql.DB
}

func NewDeletionRepo(db *sql.DB) *DeletionRepo {
	return &DeletionRepo{db: db}
}

func (r *DeletionRepo) Save(ctx context.Context, record model.DeletionAuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deletions (user_id, chat_id, created_at)
		VALUES (?, ?, ?)
	`, record.UserID, record.ChatID, formatTime(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert deletion: %w", err)
	}
	return nil
}

func (r *DeletionRepo) ListRecent(ctx context.Context, limit int) ([]model.DeletionAuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, chat_id, created_at
		FROM deletions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent deletions: %w", err)
	}
	defer rows.Close()

	result := make([]model.DeletionAuditRecord, 0, limit)
	for rows.Next() {
		var record model.DeletionAuditRecord
		var createdAt string
		if err := rows.Scan(&record.ID, &record.UserID, &record.ChatID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan deletion row: %w", err)
		}
		if record.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse deletion created_at: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deletion rows: %w", err)
	}
	return result, nil
}

func (r *DeletionRepo) CountByChat(ctx context.Context, chatID int64) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deletions WHERE chat_id = ?`, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count deletions: %w", err)
	}
	return count, nil
}
