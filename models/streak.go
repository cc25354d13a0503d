package models

import "time"

// Streak tracks consecutive-day collection. The row expires ~5 days after its
// last refresh so abandoned streaks leave storage on their own; the exposed
// collection_streak counter is corrected by the nightly sweep instead.
type Streak struct {
	UserID               string    `gorm:"primaryKey;size:64" json:"user_id"`
	Date                 time.Time `json:"date"`
	StreakLength         int       `json:"streak_length"`
	LabelExtendingStreak string    `gorm:"size:128" json:"label_extending_streak"`
	ImageURL             string    `gorm:"size:256" json:"image_url"`
	ExpiresAt            time.Time `gorm:"index" json:"-"`
}
