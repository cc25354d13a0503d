package models

import "time"

const (
	SkipEntrySkip    = "skip"
	SkipEntryCollect = "collect"
)

// SkipEntry records one skip use or one earned skip credit. Entries carry a
// one-day expiry so the quota self-resets at midnight; reads are additionally
// scoped to the current day key so a late purge cannot widen the quota.
type SkipEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    string    `gorm:"index:idx_skip_user_day;size:64" json:"user_id"`
	Day       int64     `gorm:"index:idx_skip_user_day" json:"day"`
	Type      string    `gorm:"size:16" json:"type"`
	Label     string    `gorm:"size:128" json:"label"`
	ExpiresAt time.Time `gorm:"index" json:"-"`
}

// SkipsAvailable is the public view of the skip quota.
type SkipsAvailable struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}
