package registry

import (
	"context"
	"fmt"
	"time"

	"bioguard/internal/domain/model"
)

type Repo interface {
	Get(context.Context, int64) (model.ChatModerationState, bool, error)
	SetEnabled(context.Context, model.ChatModerationState) (bool, error)
	ListEnabled(context.Context) ([]int64, error)
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// IsEnabled reports whether moderation is on for chatID. Unknown chats are
// disabled.
func (s *Service) IsEnabled(ctx context.Context, chatID int64) (bool, error) {
	if s.repo == nil {
		return false, nil
	}

	state, ok, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("get chat state: %w", err)
	}
	return ok && state.Enabled, nil
}

// Enable turns moderation on. changed is false when it already was.
func (s *Service) Enable(ctx context.Context, chatID, actorTGID int64) (bool, error) {
	return s.set(ctx, chatID, actorTGID, true)
}

// Disable turns moderation off. changed is false when it already was.
func (s *Service) Disable(ctx context.Context, chatID, actorTGID int64) (bool, error) {
	return s.set(ctx, chatID, actorTGID, false)
}

func (s *Service) ListEnabled(ctx context.Context) ([]int64, error) {
	if s.repo == nil {
		return []int64{}, nil
	}
	return s.repo.ListEnabled(ctx)
}

func (s *Service) set(ctx context.Context, chatID, actorTGID int64, enabled bool) (bool, error) {
	if s.repo == nil {
		return false, fmt.Errorf("chat state repo is not configured")
	}

	changed, err := s.repo.SetEnabled(ctx, model.ChatModerationState{
		ChatID:        chatID,
		Enabled:       enabled,
		UpdatedByTGID: actorTGID,
		UpdatedAt:     s.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("set chat state: %w", err)
	}
	return changed, nil
}
