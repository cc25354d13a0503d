package services

import (
	"log"
	"os"
	"strconv"
)

// LeaderboardRewards are the bonuses paid when a board period closes.
type LeaderboardRewards struct {
	// Flat participation exp for everyone in the settled top slice
	RewardAmount int64
	// How many ranks receive the participation reward
	GivenTo int
	// Extra exp for ranks 1-3
	First  int64
	Second int64
	Third  int64
}

// MultiplierRewards are the three daily category multiplier tiers.
type MultiplierRewards struct {
	Top    float32
	Second float32
	Third  float32
}

// RewardsConfig bundles the tunable reward knobs (env-overridable).
type RewardsConfig struct {
	DailyLeaderboard  LeaderboardRewards
	WeeklyLeaderboard LeaderboardRewards
	MultiplierRewards MultiplierRewards
}

// DefaultRewardsConfig mirrors the production tuning.
func DefaultRewardsConfig() RewardsConfig {
	return RewardsConfig{
		DailyLeaderboard: LeaderboardRewards{
			RewardAmount: 100,
			GivenTo:      10,
			First:        500,
			Second:       300,
			Third:        150,
		},
		WeeklyLeaderboard: LeaderboardRewards{
			RewardAmount: 500,
			GivenTo:      10,
			First:        2500,
			Second:       1500,
			Third:        750,
		},
		MultiplierRewards: MultiplierRewards{
			Top:    4,
			Second: 2,
			Third:  1.25,
		},
	}
}

// LoadRewardsConfig returns the defaults with any CTW_REWARD_* env overrides
// applied.
func LoadRewardsConfig() RewardsConfig {
	cfg := DefaultRewardsConfig()
	cfg.DailyLeaderboard.RewardAmount = envInt64("CTW_REWARD_DAILY_AMOUNT", cfg.DailyLeaderboard.RewardAmount)
	cfg.DailyLeaderboard.First = envInt64("CTW_REWARD_DAILY_FIRST", cfg.DailyLeaderboard.First)
	cfg.DailyLeaderboard.Second = envInt64("CTW_REWARD_DAILY_SECOND", cfg.DailyLeaderboard.Second)
	cfg.DailyLeaderboard.Third = envInt64("CTW_REWARD_DAILY_THIRD", cfg.DailyLeaderboard.Third)
	cfg.WeeklyLeaderboard.RewardAmount = envInt64("CTW_REWARD_WEEKLY_AMOUNT", cfg.WeeklyLeaderboard.RewardAmount)
	cfg.WeeklyLeaderboard.First = envInt64("CTW_REWARD_WEEKLY_FIRST", cfg.WeeklyLeaderboard.First)
	cfg.WeeklyLeaderboard.Second = envInt64("CTW_REWARD_WEEKLY_SECOND", cfg.WeeklyLeaderboard.Second)
	cfg.WeeklyLeaderboard.Third = envInt64("CTW_REWARD_WEEKLY_THIRD", cfg.WeeklyLeaderboard.Third)
	return cfg
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  Ignoring invalid %s=%q: %v", key, raw, err)
		return fallback
	}
	return v
}
