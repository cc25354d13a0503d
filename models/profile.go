package models

// LeaderboardProfile is the denormalized public identity joined onto external
// leaderboard score rows.
type LeaderboardProfile struct {
	UserID string `gorm:"primaryKey;size:64" json:"user_id"`
	Name   string `gorm:"size:64" json:"name"`
	Avatar string `gorm:"size:256" json:"avatar,omitempty"`
}

// PublicProfile is the externally visible subset.
type PublicProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// BoardEntry is one leaderboard slice row with the profile joined on.
type BoardEntry struct {
	User  *LeaderboardProfile `json:"user"`
	Score int64               `json:"score"`
}

// RankSummary bundles a user's rank on the three rotating boards.
type RankSummary struct {
	DailyRank   int64 `json:"daily_rank"`
	WeeklyRank  int64 `json:"weekly_rank"`
	OverallRank int64 `json:"overall_rank"`
}
