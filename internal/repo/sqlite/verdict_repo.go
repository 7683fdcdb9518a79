package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bioguard/internal/domain/model"
)

type VerdictRepo struct {
	db *sql.DB
}

func NewVerdictRepo(db *sql.DB) *VerdictRepo {
	return &VerdictRepo{db: db}
}

func (r *VerdictRepo) GetVerdict(ctx context.Context, userID int64) (model.UserBioVerdict, bool, error) {
	var verdict model.UserBioVerdict
	var lastChecked string
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, has_link, bio_snapshot, last_checked
		FROM user_verdicts
		WHERE user_id = ?
	`, userID).Scan(&verdict.UserID, &verdict.Username, &verdict.HasLink, &verdict.BioSnapshot, &lastChecked)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserBioVerdict{}, false, nil
	}
	if err != nil {
		return model.UserBioVerdict{}, false, fmt.Errorf("get user verdict: %w", err)
	}

	verdict.LastChecked, err = parseTime(lastChecked)
	if err != nil {
		return model.UserBioVerdict{}, false, fmt.Errorf("parse verdict last_checked: %w", err)
	}
	return verdict, true, nil
}

// UpsertVerdict overwrites the row unless it holds a later check.
func (r *VerdictRepo) UpsertVerdict(ctx context.Context, v model.UserBioVerdict) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_verdicts (user_id, username, has_link, bio_snapshot, last_checked)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET username = excluded.username,
		    has_link = excluded.has_link,
		    bio_snapshot = excluded.bio_snapshot,
		    last_checked = excluded.last_checked
		WHERE user_verdicts.last_checked <= excluded.last_checked
	`, v.UserID, v.Username, v.HasLink, v.BioSnapshot, formatTime(v.LastChecked))
	if err != nil {
		return fmt.Errorf("upsert user verdict: %w", err)
	}
	return nil
}
