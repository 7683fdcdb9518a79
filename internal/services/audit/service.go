package audit

import (
	"context"
	"fmt"
	"time"

	"bioguard/internal/domain/model"
)

const defaultListLimit = 50

type Repo interface {
	Save(context.Context, model.DeletionAuditRecord) error
	ListRecent(context.Context, int) ([]model.DeletionAuditRecord, error)
	CountByChat(context.Context, int64) (int64, error)
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// RecordDeletion appends one record for a deleted message. The write outlives
// ctx cancellation: a message that is gone must stay on record.
func (s *Service) RecordDeletion(ctx context.Context, userID, chatID int64, at time.Time) error {
	if s.repo == nil {
		return nil
	}
	if at.IsZero() {
		at = s.now()
	}

	entry := model.DeletionAuditRecord{
		UserID:    userID,
		ChatID:    chatID,
		CreatedAt: at.UTC(),
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		return fmt.Errorf("save deletion audit: %w", err)
	}
	return nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.DeletionAuditRecord, error) {
	if s.repo == nil {
		return []model.DeletionAuditRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) CountByChat(ctx context.Context, chatID int64) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.CountByChat(ctx, chatID)
}
