package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"collect-the-world-backend/services"
)

// SettlementWorker wakes at each day boundary, pays rank-tiered bonuses for
// the boards that just closed and triggers the nightly streak sweep. The
// wait is recomputed from the wall clock every cycle, so restarts and missed
// wake-ups self-correct instead of drifting.
type SettlementWorker struct {
	Leaderboard *services.LeaderboardService
	Stats       *services.StatsService
	Streaks     *services.StreakService
	Events      *services.EventStorageService
	Config      services.RewardsConfig
}

func NewSettlementWorker(leaderboard *services.LeaderboardService,
	stats *services.StatsService, streaks *services.StreakService,
	events *services.EventStorageService, config services.RewardsConfig) *SettlementWorker {
	return &SettlementWorker{
		Leaderboard: leaderboard,
		Stats:       stats,
		Streaks:     streaks,
		Events:      events,
		Config:      config,
	}
}

// nextDayBoundary returns the next UTC midnight after now.
func nextDayBoundary(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

func (w *SettlementWorker) Start(ctx context.Context) {
	log.Println("Starting settlement worker...")
	for {
		now := time.Now()
		wait := time.Until(nextDayBoundary(now))
		log.Printf("Settlement worker waiting %s until next boundary", wait)
		select {
		case <-ctx.Done():
			log.Println("Settlement worker stopped.")
			return
		case <-time.After(wait):
		}
		w.SettleBoundary(time.Now())
	}
}

// SettleBoundary runs one settlement cycle for the boundary just crossed.
// All grants are increments and the score fetch is read-only, so running a
// cycle twice is safe by design, not by bookkeeping.
func (w *SettlementWorker) SettleBoundary(now time.Time) {
	closed := services.CurrentBoardNames(now.Add(-time.Hour))
	current := services.CurrentBoardNames(now)

	log.Printf("Settling daily board %s", closed.DailyExp)
	if err := w.settleBoard(closed.DailyExp, "daily_leaderboard_top10", w.Config.DailyLeaderboard); err != nil {
		log.Printf("❌ Daily settlement failed: %v", err)
	}

	if closed.WeeklyExp != current.WeeklyExp {
		log.Printf("Settling weekly board %s", closed.WeeklyExp)
		if err := w.settleBoard(closed.WeeklyExp, "weekly_leaderboard_top10", w.Config.WeeklyLeaderboard); err != nil {
			log.Printf("❌ Weekly settlement failed: %v", err)
		}
	}

	if err := w.Streaks.SweepBrokenStreaks(now); err != nil {
		log.Printf("❌ Streak sweep failed: %v", err)
	}
}

func (w *SettlementWorker) settleBoard(board, trophyStat string, rewards services.LeaderboardRewards) error {
	top, err := w.Leaderboard.GetLeaderboard(board, 0, rewards.GivenTo)
	if err != nil {
		return fmt.Errorf("fetch top %d of %s: %w", rewards.GivenTo, board, err)
	}
	for rank, entry := range top {
		if entry.User == nil {
			continue
		}
		bonus := rewards.RewardAmount
		switch rank {
		case 0:
			bonus += rewards.First
		case 1:
			bonus += rewards.Second
		case 2:
			bonus += rewards.Third
		}
		if err := w.Events.AddExp(entry.User.UserID, bonus,
			"leaderboard", "placed on "+board, fmt.Sprintf("rank_%d", rank+1)); err != nil {
			log.Printf("Failed to pay rank %d bonus on %s: %v", rank+1, board, err)
			continue
		}
		if err := w.Stats.IncreaseStat(entry.User.UserID, trophyStat, 1); err != nil {
			log.Printf("Failed to increase %s for %s: %v", trophyStat, entry.User.UserID, err)
		}
		log.Printf("🏆 Paid %d exp to %s for rank %d on %s", bonus, entry.User.UserID, rank+1, board)
	}
	return nil
}
