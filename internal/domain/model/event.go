package model

import "bioguard/internal/domain/enums"

type MessageEvent struct {
	ChatID         int64
	MessageID      int
	AuthorUserID   int64
	AuthorUsername string
	IsServiceEvent bool
}

type CommandEvent struct {
	ChatID       int64
	IssuerUserID int64
	Command      enums.Command
	IsGroup      bool
}

type UserProfile struct {
	UserID   int64
	Username string
	BioText  string
}
