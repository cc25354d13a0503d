package models

// UploadRewards itemizes how a capture's reward was composed. It is returned
// to the caller and persisted into the capture's metadata.
type UploadRewards struct {
	// Total after bonuses, multiplier and rounding
	Total int64 `json:"total"`
	// Catalog base value before any bonus
	BaseReward int64 `json:"base_reward"`
	// Applied category multiplier, 0 when none matched
	Multiplier float32 `json:"multiplier"`
	// Label matched the user's current assignment (doubles the base)
	IsCurrent bool `json:"is_current"`
	// A skip credit was granted instead of the current bonus
	AddedSkip bool `json:"added_skip"`
	// First time this user ever captured this label
	Unique bool `json:"unique"`
	// Bonus added because the label is in today's quest batch
	DailyQuestReward int64 `json:"daily_quest_reward"`
	// Reward suppressed because (label, user, day) was already captured
	Duplicate bool `json:"duplicate"`
}

// UploadImageResponse is the RecordCapture result.
type UploadImageResponse struct {
	Image   *CapturedImage `json:"image"`
	Rewards *UploadRewards `json:"rewards"`
}
