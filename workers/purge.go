package workers

import (
	"log"
	"time"

	"collect-the-world-backend/services"

	"github.com/go-co-op/gocron/v2"
)

// StartPurgeScheduler runs the TTL emulation: every few minutes it drops
// rows past their expiry (skip entries, streaks, daily challenges, journal
// entries) and windowed counters older than the previous period. Quota and
// window reads are already scoped to the current key, so purge timing only
// affects storage size, never correctness.
func StartPurgeScheduler(stats *services.StatsService, skips *services.SkipService,
	streaks *services.StreakService, challenges *services.ChallengeService,
	events *services.EventStorageService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			now := time.Now().UTC()
			if err := skips.PurgeExpiredEntries(now); err != nil {
				log.Printf("[Purge] skip entries: %v", err)
			}
			if err := streaks.PurgeExpiredRows(now); err != nil {
				log.Printf("[Purge] streaks: %v", err)
			}
			if err := challenges.PurgeExpiredRows(now); err != nil {
				log.Printf("[Purge] challenges: %v", err)
			}
			if err := events.PurgeExpired(now); err != nil {
				log.Printf("[Purge] change events: %v", err)
			}
			if err := stats.PurgeExpiredWindows(now); err != nil {
				log.Printf("[Purge] windowed stats: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
