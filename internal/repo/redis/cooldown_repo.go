package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const cooldownPrefix = "bioguard:notify_cooldown:"

// CooldownRepo keeps notification slots in redis so a restart does not
// reopen a chat's cool-down window.
type CooldownRepo struct {
	client *goredis.Client
}

func NewCooldownRepo(client *goredis.Client) *CooldownRepo {
	return &CooldownRepo{client: client}
}

func (r *CooldownRepo) TryAcquire(ctx context.Context, chatID int64, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if window <= 0 {
		return true, nil
	}

	ok, err := r.client.SetNX(ctx, cooldownKey(chatID), 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire notify cooldown: %w", err)
	}
	return ok, nil
}

func cooldownKey(chatID int64) string {
	return cooldownPrefix + strconv.FormatInt(chatID, 10)
}
