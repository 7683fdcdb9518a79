package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrPermissionDenied is returned by a platform when the bot lacks the
// right to delete messages in a chat.
var ErrPermissionDenied = errors.New("permission denied")

// RateLimitError is returned by a platform when an action was throttled.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// RetryAfter extracts the advised wait from err. ok is false when err is
// not a rate limit.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
