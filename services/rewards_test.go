package services

import (
	"testing"

	"collect-the-world-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeRewardCatalogBase(t *testing.T) {
	rewards := ComputeReward(RewardInput{CatalogValue: 40, HasCatalogEntry: true})

	assert.Equal(t, int64(40), rewards.Total)
	assert.Equal(t, int64(40), rewards.BaseReward)
	assert.False(t, rewards.IsCurrent)
	assert.True(t, rewards.AddedSkip)
}

func TestComputeRewardCurrentDoubles(t *testing.T) {
	rewards := ComputeReward(RewardInput{CatalogValue: 40, HasCatalogEntry: true, IsCurrent: true})

	assert.Equal(t, int64(80), rewards.Total)
	assert.True(t, rewards.IsCurrent)
	assert.False(t, rewards.AddedSkip)
}

func TestComputeRewardQuestBonusAfterDoubling(t *testing.T) {
	rewards := ComputeReward(RewardInput{
		CatalogValue:    40,
		HasCatalogEntry: true,
		IsCurrent:       true,
		DailyQuestBonus: 100,
	})

	assert.Equal(t, int64(180), rewards.Total)
	assert.Equal(t, int64(100), rewards.DailyQuestReward)
}

func TestComputeRewardMultiplierCoversQuestBonus(t *testing.T) {
	// (30*2 + 50) * 1.25 = 137.5, truncated then rounded down to 135.
	rewards := ComputeReward(RewardInput{
		CatalogValue:    30,
		HasCatalogEntry: true,
		IsCurrent:       true,
		DailyQuestBonus: 50,
		Categories:      []string{"household"},
		Multipliers:     []models.ActiveMultiplier{{Category: "household", Multiplier: 1.25}},
	})

	assert.Equal(t, int64(135), rewards.Total)
	assert.Equal(t, float32(1.25), rewards.Multiplier)
}

func TestComputeRewardMultiplierIgnoredWithoutMatch(t *testing.T) {
	rewards := ComputeReward(RewardInput{
		CatalogValue:    40,
		HasCatalogEntry: true,
		Categories:      []string{"office"},
		Multipliers:     []models.ActiveMultiplier{{Category: "household", Multiplier: 4}},
	})

	assert.Equal(t, int64(40), rewards.Total)
	assert.Zero(t, rewards.Multiplier)
}

func TestComputeRewardUnknownCollectable(t *testing.T) {
	rewards := ComputeReward(RewardInput{OracleCollectable: true})

	assert.Equal(t, int64(200), rewards.Total)
	assert.Zero(t, rewards.BaseReward)
	assert.False(t, rewards.AddedSkip)
}

func TestComputeRewardUnknownNotCollectable(t *testing.T) {
	rewards := ComputeReward(RewardInput{})
	assert.Equal(t, int64(5), rewards.Total)
}

func TestComputeRewardDuplicateSuppressesEverything(t *testing.T) {
	rewards := ComputeReward(RewardInput{
		CatalogValue:    40,
		HasCatalogEntry: true,
		IsCurrent:       true,
		DailyQuestBonus: 100,
		Duplicate:       true,
	})

	assert.True(t, rewards.Duplicate)
	assert.Zero(t, rewards.Total)
	assert.Zero(t, rewards.BaseReward)
	assert.False(t, rewards.IsCurrent)
}

func TestComputeRewardRoundsDownToFive(t *testing.T) {
	// 45 * 1.25 = 56.25 -> 56 -> 55.
	rewards := ComputeReward(RewardInput{
		CatalogValue:    45,
		HasCatalogEntry: true,
		Categories:      []string{"nature"},
		Multipliers:     []models.ActiveMultiplier{{Category: "nature", Multiplier: 1.25}},
	})
	assert.Equal(t, int64(55), rewards.Total)
}

func TestMatchMultiplierPicksHighest(t *testing.T) {
	multipliers := []models.ActiveMultiplier{
		{Category: "household", Multiplier: 1.25},
		{Category: "kitchen", Multiplier: 4},
	}
	assert.Equal(t, float32(4), matchMultiplier([]string{"household", "kitchen"}, multipliers))
	assert.Equal(t, float32(1.25), matchMultiplier([]string{"household"}, multipliers))
	assert.Zero(t, matchMultiplier([]string{"nature"}, multipliers))
}

func TestRoundDownToFive(t *testing.T) {
	assert.Equal(t, int64(0), roundDownTo5(4))
	assert.Equal(t, int64(5), roundDownTo5(9))
	assert.Equal(t, int64(135), roundDownTo5(137))
	assert.Equal(t, int64(140), roundDownTo5(140))
	assert.Equal(t, int64(0), roundDownTo5(-3))
}
