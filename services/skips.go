package services

import (
	"log"
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
)

const skipEntryTTL = 24 * time.Hour

// dayKey buckets a timestamp into a calendar day (UTC unix day index).
func dayKey(at time.Time) int64 {
	return at.Unix() / 86400
}

// SkipService enforces the daily skip quota. Entries expire after a day so
// the quota resets at midnight without a reset job; reads are still scoped
// to the current day key so purge timing can't widen the allowance.
type SkipService struct {
	DB     *gorm.DB
	Stats  *StatsService
	Events *EventStorageService
}

func NewSkipService(db *gorm.DB, stats *StatsService, events *EventStorageService) *SkipService {
	return &SkipService{DB: db, Stats: stats, Events: events}
}

// TrySkip gives up on the current assignment and moves to the next one. The
// skip is allowed while the user still has allowance for the day; a refused
// skip mutates nothing and is a negative result, not an error.
func (s *SkipService) TrySkip(userID, label string) (bool, error) {
	return s.trySkipAt(userID, label, time.Now().UTC())
}

func (s *SkipService) trySkipAt(userID, label string, now time.Time) (bool, error) {
	used, collected, err := s.skipStat(userID, now)
	if err != nil {
		return false, err
	}
	if used-collected >= 2 {
		return false, nil
	}
	entry := models.SkipEntry{
		UserID:    userID,
		Day:       dayKey(now),
		Type:      models.SkipEntrySkip,
		Label:     label,
		ExpiresAt: now.Add(skipEntryTTL),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return false, err
	}
	// Skipping advances the assignment sequence like a completed collect.
	if err := s.Stats.IncreaseStat(userID, "current_offset", 1); err != nil {
		return false, err
	}
	if s.Events != nil {
		if err := s.Events.AddSkip(userID, "skip_quota", "skipped assignment", label); err != nil {
			log.Printf("Failed to journal skip for %s: %v", userID, err)
		}
	}
	return true, nil
}

func (s *SkipService) skipStat(userID string, now time.Time) (used, collected int, err error) {
	var entries []models.SkipEntry
	if err = s.DB.Where("user_id = ? AND day = ?", userID, dayKey(now)).
		Find(&entries).Error; err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		switch e.Type {
		case models.SkipEntrySkip:
			used++
		case models.SkipEntryCollect:
			collected++
		}
	}
	return used, collected, nil
}

// Collected grants a skip credit for catching something that wasn't the
// assignment. Credits let the user skip more without being rewarded for an
// unrelated catch; they stop accruing once the allowance has run dry. The
// bool reports whether a credit was actually recorded.
func (s *SkipService) Collected(userID, label string) (bool, error) {
	return s.collectedAt(userID, label, time.Now().UTC())
}

func (s *SkipService) collectedAt(userID, label string, now time.Time) (bool, error) {
	used, collected, err := s.skipStat(userID, now)
	if err != nil {
		return false, err
	}
	// Credits only accrue while the outstanding allowance is still healthy.
	if 3-used+collected < 2 {
		return false, nil
	}
	entry := models.SkipEntry{
		UserID:    userID,
		Day:       dayKey(now),
		Type:      models.SkipEntryCollect,
		Label:     label,
		ExpiresAt: now.Add(skipEntryTTL),
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Available reports the quota: Total is how many skips remain for today.
func (s *SkipService) Available(userID string) (*models.SkipsAvailable, error) {
	return s.availableAt(userID, time.Now().UTC())
}

func (s *SkipService) availableAt(userID string, now time.Time) (*models.SkipsAvailable, error) {
	used, collected, err := s.skipStat(userID, now)
	if err != nil {
		return nil, err
	}
	return &models.SkipsAvailable{Used: used, Total: 2 - used + collected}, nil
}

// PurgeExpiredEntries drops entries past their day expiry.
func (s *SkipService) PurgeExpiredEntries(now time.Time) error {
	return s.DB.Where("expires_at < ?", now).Delete(&models.SkipEntry{}).Error
}
