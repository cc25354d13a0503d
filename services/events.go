package services

import (
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
)

const changeEventTTL = 30 * 24 * time.Hour

// EventStorageService journals exp grants and skips so users can see where
// their score came from. Best-effort: the counters are the source of truth.
type EventStorageService struct {
	DB    *gorm.DB
	Stats *StatsService
}

func NewEventStorageService(db *gorm.DB, stats *StatsService) *EventStorageService {
	return &EventStorageService{DB: db, Stats: stats}
}

// AddExp journals an exp change and credits the overall counter.
func (s *EventStorageService) AddExp(userID string, reward int64, source, description, reference string) error {
	now := time.Now().UTC()
	event := models.ChangeEvent{
		UserID:      userID,
		Time:        now,
		Change:      reward,
		Source:      source,
		Description: description,
		Reference:   reference,
		Type:        models.ChangeTypeExp,
		ExpiresAt:   now.Add(changeEventTTL),
	}
	if err := s.DB.Create(&event).Error; err != nil {
		return err
	}
	return s.Stats.AddExp(userID, reward)
}

// Journal records an exp change without touching any counter, for callers
// that already committed the counter delta themselves.
func (s *EventStorageService) Journal(userID string, change int64, source, description, reference string) error {
	now := time.Now().UTC()
	return s.DB.Create(&models.ChangeEvent{
		UserID:      userID,
		Time:        now,
		Change:      change,
		Source:      source,
		Description: description,
		Reference:   reference,
		Type:        models.ChangeTypeExp,
		ExpiresAt:   now.Add(changeEventTTL),
	}).Error
}

// AddSkip journals a skip without touching any counter.
func (s *EventStorageService) AddSkip(userID, source, description, reference string) error {
	now := time.Now().UTC()
	return s.DB.Create(&models.ChangeEvent{
		UserID:      userID,
		Time:        now,
		Source:      source,
		Description: description,
		Reference:   reference,
		Type:        models.ChangeTypeSkip,
		ExpiresAt:   now.Add(changeEventTTL),
	}).Error
}

func (s *EventStorageService) GetChanges(userID string, since time.Time) ([]models.ChangeEvent, error) {
	var events []models.ChangeEvent
	err := s.DB.Where("user_id = ? AND time > ?", userID, since).
		Order("time DESC").Find(&events).Error
	return events, err
}

// PurgeExpired drops journal rows past their 30-day expiry.
func (s *EventStorageService) PurgeExpired(now time.Time) error {
	return s.DB.Where("expires_at < ?", now).Delete(&models.ChangeEvent{}).Error
}
