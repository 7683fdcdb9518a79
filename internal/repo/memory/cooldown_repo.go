package memory

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// CooldownRepo remembers, per chat, until when a notification slot is taken.
type CooldownRepo struct {
	until *xsync.Map[int64, time.Time]
	now   func() time.Time
}

func NewCooldownRepo() *CooldownRepo {
	return &CooldownRepo{
		until: xsync.NewMap[int64, time.Time](),
		now:   time.Now,
	}
}

// TryAcquire takes the slot for chatID when it is free and holds it for
// window. It returns false while a previous slot is still held.
func (r *CooldownRepo) TryAcquire(_ context.Context, chatID int64, window time.Duration) (bool, error) {
	now := r.now()
	acquired := false
	r.until.Compute(chatID, func(old time.Time, loaded bool) (time.Time, xsync.ComputeOp) {
		if loaded && now.Before(old) {
			return old, xsync.CancelOp
		}
		acquired = true
		return now.Add(window), xsync.UpdateOp
	})
	return acquired, nil
}
