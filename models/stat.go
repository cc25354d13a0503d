package models

// Stat is a monotonically increasing per-user counter, created implicitly on
// first increment. Value is only ever mutated through atomic upserts.
type Stat struct {
	UserID   string `gorm:"primaryKey;size:64" json:"user_id"`
	StatName string `gorm:"primaryKey;size:64" json:"stat_name"`
	Value    int64  `gorm:"not null;default:0" json:"value"`
}

// WindowedStat is a Stat additionally bucketed into a rolling time window.
// WindowKey = floor(unixSeconds / windowSeconds), so reads and writes within
// the same window always agree on the key. Old windows are swept, not reset.
type WindowedStat struct {
	UserID    string `gorm:"primaryKey;size:64" json:"user_id"`
	StatName  string `gorm:"primaryKey;size:64" json:"stat_name"`
	WindowKey int64  `gorm:"primaryKey" json:"window_key"`
	Value     int64  `gorm:"not null;default:0" json:"value"`
}
