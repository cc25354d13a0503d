package services

import (
	"time"

	"collect-the-world-backend/models"
)

// MultiplierService picks the day's three boosted categories. The draw is
// seeded by the calendar day so every node and every request within a day
// agrees on the active set without coordination.
type MultiplierService struct {
	Objects *ObjectService
	Config  RewardsConfig
}

func NewMultiplierService(objects *ObjectService, config RewardsConfig) *MultiplierService {
	return &MultiplierService{Objects: objects, Config: config}
}

func (s *MultiplierService) GetMultipliers(locale string) ([]models.ActiveMultiplier, error) {
	return s.multipliersAt(locale, time.Now().UTC())
}

func (s *MultiplierService) multipliersAt(locale string, at time.Time) ([]models.ActiveMultiplier, error) {
	categories, err := s.Objects.GetCategories(locale)
	if err != nil {
		return nil, err
	}
	if len(categories) < 3 {
		return nil, nil
	}
	perm := SeededPermutation(DaySeed(at), len(categories))
	tiers := []float32{
		s.Config.MultiplierRewards.Third,
		s.Config.MultiplierRewards.Second,
		s.Config.MultiplierRewards.Top,
	}
	active := make([]models.ActiveMultiplier, 3)
	for i := 0; i < 3; i++ {
		active[i] = models.ActiveMultiplier{
			Category:   categories[perm[i]].Name,
			Multiplier: tiers[i],
		}
	}
	return active, nil
}
