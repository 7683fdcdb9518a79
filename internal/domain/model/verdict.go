package model

import "time"

type UserBioVerdict struct {
	UserID      int64
	Username    string
	HasLink     bool
	BioSnapshot string
	LastChecked time.Time
}

// IsStale reports whether the verdict is older than ttl. A non-positive ttl
// never expires.
func (v UserBioVerdict) IsStale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(v.LastChecked) > ttl
}
