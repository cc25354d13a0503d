package services

import (
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dailyChallengeTTL = 5 * 24 * time.Hour

// ChallengeService maintains progress toward daily and long-term goals. It
// subscribes to capture events and pays each goal's reward exactly once.
type ChallengeService struct {
	DB     *gorm.DB
	Events *EventStorageService
}

func NewChallengeService(db *gorm.DB, events *EventStorageService) *ChallengeService {
	return &ChallengeService{DB: db, Events: events}
}

// RegisterSubscriber attaches the challenge handler to the bus.
func (s *ChallengeService) RegisterSubscriber(bus *EventBus) {
	bus.Subscribe("challenges", func(e CaptureEvent) error {
		return s.HandleCapture(e)
	})
}

func (s *ChallengeService) HandleCapture(e CaptureEvent) error {
	return s.handleCaptureAt(e, time.Now().UTC())
}

func (s *ChallengeService) handleCaptureAt(e CaptureEvent, now time.Time) error {
	today := now.Truncate(24 * time.Hour)
	var open []models.Challenge
	err := s.DB.Where("user_id = ? AND date IN ? AND reward_paid = ?",
		e.UserID, []time.Time{today, {}}, false).Find(&open).Error
	if err != nil {
		return err
	}
	for _, challenge := range open {
		switch challenge.Type {
		case models.ChallengeTypeCount:
			challenge.Progress++
		case models.ChallengeTypeExp:
			challenge.Progress += e.Exp
		case models.ChallengeTypeUnique:
			if !e.IsUnique {
				continue
			}
			challenge.Progress++
		case models.ChallengeTypeNew:
			if e.Exp < NewFindThreshold {
				continue
			}
			challenge.Progress++
		default:
			continue
		}

		if challenge.Progress >= challenge.Target && !challenge.RewardPaid {
			if err := s.Events.AddExp(e.UserID, challenge.Reward,
				"challenge", "challenge completed", challenge.Type); err != nil {
				return err
			}
			challenge.RewardPaid = true
		}
		if err := s.saveChallenge(&challenge, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChallengeService) saveChallenge(challenge *models.Challenge, now time.Time) error {
	if !challenge.IsLongTerm() {
		expires := now.Add(dailyChallengeTTL)
		challenge.ExpiresAt = &expires
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "date"}, {Name: "type"}, {Name: "target"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "reward", "reward_paid", "expires_at"}),
	}).Create(challenge).Error
}

// GetDailyChallenges returns today's challenges, lazily instantiating the
// default set on first access.
func (s *ChallengeService) GetDailyChallenges(userID string) ([]models.Challenge, error) {
	return s.dailyChallengesAt(userID, time.Now().UTC())
}

func (s *ChallengeService) dailyChallengesAt(userID string, now time.Time) ([]models.Challenge, error) {
	today := now.Truncate(24 * time.Hour)
	var challenges []models.Challenge
	if err := s.DB.Where("user_id = ? AND date = ?", userID, today).
		Find(&challenges).Error; err != nil {
		return nil, err
	}
	if len(challenges) > 0 {
		return challenges, nil
	}
	defaults := []models.Challenge{
		{UserID: userID, Date: today, Type: models.ChallengeTypeCount, Target: 7, Reward: 500},
	}
	for i := range defaults {
		if err := s.saveChallenge(&defaults[i], now); err != nil {
			return nil, err
		}
	}
	return defaults, nil
}

// GetLongTermChallenges returns the never-expiring goals, lazily
// instantiating the default set on first access.
func (s *ChallengeService) GetLongTermChallenges(userID string) ([]models.Challenge, error) {
	var challenges []models.Challenge
	if err := s.DB.Where("user_id = ? AND date = ?", userID, time.Time{}).
		Find(&challenges).Error; err != nil {
		return nil, err
	}
	if len(challenges) > 0 {
		return challenges, nil
	}
	defaults := []models.Challenge{
		{UserID: userID, Type: models.ChallengeTypeUnique, Target: 20, Reward: 5000},
		{UserID: userID, Type: models.ChallengeTypeNew, Target: 5, Reward: 4000},
		{UserID: userID, Type: models.ChallengeTypeNew, Target: 50, Reward: 50000},
	}
	for i := range defaults {
		if err := s.saveChallenge(&defaults[i], time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	return defaults, nil
}

// PurgeExpiredRows drops daily challenge rows past their TTL. Long-term rows
// have no expiry and are never touched.
func (s *ChallengeService) PurgeExpiredRows(now time.Time) error {
	return s.DB.Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&models.Challenge{}).Error
}
