package models

import "time"

const (
	ChangeTypeUnknown = 0
	ChangeTypeExp     = 1
	ChangeTypeSkip    = 2
)

// ChangeEvent is one journal row explaining where exp (or a skip) came from.
// Rows expire after ~30 days; the journal is an audit trail, not the source
// of truth for any counter.
type ChangeEvent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID      string    `gorm:"index:idx_change_user_time;size:64" json:"user_id"`
	Time        time.Time `gorm:"index:idx_change_user_time,sort:desc" json:"time"`
	Change      int64     `json:"change"`
	Source      string    `gorm:"size:64" json:"source"`
	Reference   string    `gorm:"size:128" json:"reference"`
	Description string    `gorm:"type:text" json:"description"`
	Type        int       `json:"type"`
	ExpiresAt   time.Time `gorm:"index" json:"-"`
}
