package models

import "time"

const (
	ChallengeTypeCount  = "count"
	ChallengeTypeExp    = "exp"
	ChallengeTypeUnique = "unique"
	ChallengeTypeNew    = "new"
)

// Challenge tracks progress toward a daily or long-term goal. Daily rows are
// keyed by the current date and expire a few days later; long-term rows use
// the zero date sentinel and never expire. Target is part of the key because
// the default set contains two "new" goals that differ only by target.
// RewardPaid flips false→true exactly once, guarded by Progress >= Target.
type Challenge struct {
	UserID     string     `gorm:"primaryKey;size:64" json:"user_id"`
	Date       time.Time  `gorm:"primaryKey" json:"date"`
	Type       string     `gorm:"primaryKey;size:16" json:"type"`
	Target     int64      `gorm:"primaryKey" json:"target"`
	Progress   int64      `json:"progress"`
	Reward     int64      `json:"reward"`
	RewardPaid bool       `json:"reward_paid"`
	ExpiresAt  *time.Time `gorm:"index" json:"-"`
}

// IsLongTerm reports whether the challenge uses the zero-date sentinel.
func (c *Challenge) IsLongTerm() bool {
	return c.Date.IsZero()
}
