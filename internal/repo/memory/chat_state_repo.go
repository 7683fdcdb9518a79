package memory

import (
	"context"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"

	"bioguard/internal/domain/model"
)

type ChatStateRepo struct {
	states *xsync.Map[int64, model.ChatModerationState]
}

func NewChatStateRepo() *ChatStateRepo {
	return &ChatStateRepo{states: xsync.NewMap[int64, model.ChatModerationState]()}
}

func (r *ChatStateRepo) Get(_ context.Context, chatID int64) (model.ChatModerationState, bool, error) {
	state, ok := r.states.Load(chatID)
	return state, ok, nil
}

func (r *ChatStateRepo) SetEnabled(_ context.Context, state model.ChatModerationState) (bool, error) {
	changed := false
	r.states.Compute(state.ChatID, func(old model.ChatModerationState, loaded bool) (model.ChatModerationState, xsync.ComputeOp) {
		if (loaded && old.Enabled) == state.Enabled {
			return old, xsync.CancelOp
		}
		changed = true
		return state, xsync.UpdateOp
	})
	return changed, nil
}

func (r *ChatStateRepo) ListEnabled(_ context.Context) ([]int64, error) {
	result := make([]int64, 0, r.states.Size())
	r.states.Range(func(chatID int64, state model.ChatModerationState) bool {
		if state.Enabled {
			result = append(result, chatID)
		}
		return true
	})
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
