package postgres

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
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, username, has_link, bio_snapshot, last_checked
		FROM user_verdicts
		WHERE user_id = $1
	`, userID).Scan(&verdict.UserID, &verdict.Username, &verdict.HasLink, &verdict.BioSnapshot, &verdict.LastChecked)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserBioVerdict{}, false, nil
	}
	if err != nil {
		return model.UserBioVerdict{}, false, fmt.Errorf("get user verdict: %w", err)
	}
	return verdict, true, nil
}

func (r *VerdictRepo) UpsertVerdict(ctx context.Context, v model.UserBioVerdict) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_verdicts (user_id, username, has_link, bio_snapshot, last_checked)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE
		SET username = EXCLUDED.username,
		    has_link = EXCLUDED.has_link,
		    bio_snapshot = EXCLUDED.bio_snapshot,
		    last_checked = EXCLUDED.last_checked
		WHERE user_verdicts.last_checked <= EXCLUDED.last_checked
	`, v.UserID, v.Username, v.HasLink, v.BioSnapshot, nowIfZero(v.LastChecked))
	if err != nil {
		return fmt.Errorf("upsert user verdict: %w", err)
	}
	return nil
}
