package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bioguard/internal/domain/model"
)

type ChatStateRepo struct {
	db *sql.DB
}

func NewChatStateRepo(db *sql.DB) *ChatStateRepo {
	return &ChatStateRepo{db: db}
}

func (r *ChatStateRepo) Get(ctx context.Context, chatID int64) (model.ChatModerationState, bool, error) {
	var state model.ChatModerationState
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_id, enabled, updated_by, updated_at
		FROM chat_state
		WHERE chat_id = $1
	`, chatID).Scan(&state.ChatID, &state.Enabled, &state.UpdatedByTGID, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ChatModerationState{}, false, nil
	}
	if err != nil {
		return model.ChatModerationState{}, false, fmt.Errorf("get chat state: %w", err)
	}
	return state, true, nil
}

func (r *ChatStateRepo) SetEnabled(ctx context.Context, state model.ChatModerationState) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if state.Enabled {
		result, err = r.db.ExecContext(ctx, `
			INSERT INTO chat_state (chat_id, enabled, updated_by, updated_at)
			VALUES ($1, TRUE, $2, $3)
			ON CONFLICT (chat_id)
			DO UPDATE
			SET enabled = TRUE,
			    updated_by = EXCLUDED.updated_by,
			    updated_at = EXCLUDED.updated_at
			WHERE chat_state.enabled = FALSE
		`, state.ChatID, state.UpdatedByTGID, nowIfZero(state.UpdatedAt))
	} else {
		result, err = r.db.ExecContext(ctx, `
			UPDATE chat_state
			SET enabled = FALSE,
			    updated_by = $2,
			    updated_at = $3
			WHERE chat_id = $1
			  AND enabled = TRUE
		`, state.ChatID, state.UpdatedByTGID, nowIfZero(state.UpdatedAt))
	}
	if err != nil {
		return false, fmt.Errorf("set chat state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("chat state rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ChatStateRepo) ListEnabled(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id
		FROM chat_state
		WHERE enabled = TRUE
		ORDER BY chat_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list enabled chats: %w", err)
	}
	defer rows.Close()

	result := make([]int64, 0, 16)
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan enabled chat: %w", err)
		}
		result = append(result, chatID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enabled chats: %w", err)
	}
	return result, nil
}
