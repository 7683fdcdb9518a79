package model

import "time"

// ChatModerationState is the enabled flag of one chat. A chat without a
// stored state is disabled.
type ChatModerationState struct {
	ChatID        int64
	Enabled       bool
	UpdatedByTGID int64
	UpdatedAt     time.Time
}
