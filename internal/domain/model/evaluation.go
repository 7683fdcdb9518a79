package model

import (
	"time"

	"bioguard/internal/domain/enums"
)

// AdminCheck is the outcome of an admin-status lookup. Err is set when the
// platform call failed; Status is then AdminStatusUnknown.
type AdminCheck struct {
	Status enums.AdminStatus
	Err    error
}

func (c AdminCheck) IsPrivileged() bool {
	return c.Err == nil && c.Status.IsPrivileged()
}

type Evaluation struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Decision  enums.Decision
	CacheHit  bool
	LinkKind  enums.LinkKind
	LinkToken string
	Notified  bool
	Err       error
	Duration  time.Duration
}

type CommandResult struct {
	ChatID  int64
	Outcome enums.CommandOutcome
	Reply   string
	Err     error
}
