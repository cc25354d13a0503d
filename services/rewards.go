package services

import "collect-the-world-backend/models"

// RewardInput is everything ComputeReward needs, resolved up front so the
// computation itself stays pure and replayable in tests.
type RewardInput struct {
	// Catalog base value; HasCatalogEntry false means the label is unknown
	CatalogValue    int64
	HasCatalogEntry bool
	// Label equals the user's current assignment
	IsCurrent bool
	// Quest bonus for the label today, 0 when not applicable
	DailyQuestBonus int64
	// Categories the label belongs to
	Categories []string
	// Today's active category multipliers
	Multipliers []models.ActiveMultiplier
	// Oracle verdict for unknown labels
	OracleCollectable bool
	// First-ever capture of this label by this user
	IsUnique bool
	// Same (label, user, day) was already captured today
	Duplicate bool
}

const (
	collectableWordBonus = 200
	minimalWordBonus     = 5
	// Exp at or above this marks a capture as a "new, high value" find for
	// challenge progress.
	NewFindThreshold = 20
)

// ComputeReward composes the reward breakdown for one capture, in the fixed
// order: base, current-assignment doubling, quest bonus, category
// multiplier, unknown-word fallback, rounding. Duplicate uploads suppress
// the reward entirely; metadata still updates upstream.
func ComputeReward(in RewardInput) models.UploadRewards {
	rewards := models.UploadRewards{Unique: in.IsUnique}
	if in.Duplicate {
		rewards.Duplicate = true
		return rewards
	}

	value := float64(0)
	if in.HasCatalogEntry {
		value = float64(in.CatalogValue)
		rewards.BaseReward = in.CatalogValue
	}

	if in.IsCurrent {
		value *= 2
		rewards.IsCurrent = true
	} else if in.HasCatalogEntry {
		// Eligible for a skip credit; the capture pipeline overwrites this
		// with whether the credit was actually recorded.
		rewards.AddedSkip = true
	}

	if in.DailyQuestBonus > 0 {
		value += float64(in.DailyQuestBonus)
		rewards.DailyQuestReward = in.DailyQuestBonus
	}

	if multiplier := matchMultiplier(in.Categories, in.Multipliers); multiplier > 0 {
		value *= float64(multiplier)
		rewards.Multiplier = multiplier
	}

	if !in.HasCatalogEntry {
		if in.OracleCollectable {
			value += collectableWordBonus
		} else {
			value += minimalWordBonus
		}
	}

	rewards.Total = roundDownTo5(int64(value))
	return rewards
}

// matchMultiplier returns the highest active multiplier whose category the
// label belongs to, 0 when none matches.
func matchMultiplier(categories []string, multipliers []models.ActiveMultiplier) float32 {
	var best float32
	for _, m := range multipliers {
		for _, c := range categories {
			if c == m.Category && m.Multiplier > best {
				best = m.Multiplier
			}
		}
	}
	return best
}

func roundDownTo5(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value / 5 * 5
}
