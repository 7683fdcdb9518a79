package dto

import "time"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Lanes          int    `json:"lanes"`
	CachedVerdicts int    `json:"cached_verdicts"`
}

type ChatsResponse struct {
	Enabled []int64 `json:"enabled"`
}

type DeletionResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DeletionsResponse struct {
	Items []DeletionResponse `json:"items"`
}

type VerdictResponse struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	HasLink     bool      `json:"has_link"`
	BioSnapshot string    `json:"bio_snapshot"`
	LastChecked time.Time `json:"last_checked"`
}
