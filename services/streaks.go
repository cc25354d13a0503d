package services

import (
	"log"
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const streakRowTTL = 5 * 24 * time.Hour

// StreakService maintains consecutive-day collection streaks. It subscribes
// to capture events; the stored row self-expires when abandoned while the
// exposed collection_streak counter is corrected by the nightly sweep.
type StreakService struct {
	DB    *gorm.DB
	Stats *StatsService
}

func NewStreakService(db *gorm.DB, stats *StatsService) *StreakService {
	return &StreakService{DB: db, Stats: stats}
}

// RegisterSubscriber attaches the streak handler to the bus.
func (s *StreakService) RegisterSubscriber(bus *EventBus) {
	bus.Subscribe("streaks", func(e CaptureEvent) error {
		return s.HandleCapture(e)
	})
}

func (s *StreakService) HandleCapture(e CaptureEvent) error {
	return s.handleCaptureAt(e, time.Now().UTC())
}

func (s *StreakService) handleCaptureAt(e CaptureEvent, now time.Time) error {
	today := now.Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	var streak models.Streak
	err := s.DB.Where("user_id = ?", e.UserID).First(&streak).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	found := err == nil

	switch {
	case found && streak.Date.Equal(today):
		// Already extended today.
		return nil
	case found && streak.Date.Equal(yesterday):
		streak.StreakLength++
		streak.Date = today
		streak.LabelExtendingStreak = e.Label
		streak.ImageURL = e.ImageURL
		streak.ExpiresAt = now.Add(streakRowTTL)
		if err := s.saveStreak(&streak); err != nil {
			return err
		}
		return s.Stats.IncreaseStat(e.UserID, "collection_streak", 1)
	default:
		// Gap of two or more days, or first capture ever: start over.
		streak = models.Streak{
			UserID:               e.UserID,
			Date:                 today,
			StreakLength:         1,
			LabelExtendingStreak: e.Label,
			ImageURL:             e.ImageURL,
			ExpiresAt:            now.Add(streakRowTTL),
		}
		if err := s.saveStreak(&streak); err != nil {
			return err
		}
		return s.compensateCounterTo(e.UserID, 1)
	}
}

func (s *StreakService) saveStreak(streak *models.Streak) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date", "streak_length", "label_extending_streak", "image_url", "expires_at",
		}),
	}).Create(streak).Error
}

// compensateCounterTo moves the exposed counter to target via a compensating
// increment. The counter store does not decrement; this is the one sanctioned
// way a streak reset reaches the public number.
func (s *StreakService) compensateCounterTo(userID string, target int64) error {
	current, err := s.Stats.GetStat(userID, "collection_streak")
	if err != nil {
		return err
	}
	if delta := target - current; delta != 0 {
		return s.Stats.IncreaseStat(userID, "collection_streak", delta)
	}
	return nil
}

// GetStreak returns the stored streak row, or nil when none survives.
func (s *StreakService) GetStreak(userID string) (*models.Streak, error) {
	var streak models.Streak
	err := s.DB.Where("user_id = ?", userID).First(&streak).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

// SweepBrokenStreaks resets the exposed counter for every user whose last
// collection day is older than yesterday. Runs nightly from the settlement
// worker; storage cleanup is the row TTL's job, counter correctness is this
// sweep's.
func (s *StreakService) SweepBrokenStreaks(now time.Time) error {
	yesterday := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	var broken []models.Streak
	if err := s.DB.Where("date < ?", yesterday).Find(&broken).Error; err != nil {
		return err
	}
	for _, streak := range broken {
		if err := s.compensateCounterTo(streak.UserID, 1); err != nil {
			log.Printf("Failed to reset streak counter for %s: %v", streak.UserID, err)
		}
	}
	if len(broken) > 0 {
		log.Printf("🌙 Streak sweep reset %d broken streak(s)", len(broken))
	}
	return nil
}

// PurgeExpiredRows drops streak rows past their TTL.
func (s *StreakService) PurgeExpiredRows(now time.Time) error {
	return s.DB.Where("expires_at < ?", now).Delete(&models.Streak{}).Error
}
