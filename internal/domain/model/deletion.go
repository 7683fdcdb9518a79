package model

import "time"

type DeletionAuditRecord struct {
	ID        int64
	UserID    int64
	ChatID    int64
	CreatedAt time.Time
}
