package services

import (
	"fmt"
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DayWindow  = 24 * time.Hour
	WeekWindow = 7 * 24 * time.Hour
)

// windowSizes maps windowed stat names to their bucket size, used both for
// key derivation and for sweeping stale windows.
var windowSizes = map[string]time.Duration{
	"daily_exp":  DayWindow,
	"weekly_exp": WeekWindow,
}

// WindowKey buckets a timestamp into a rolling window. The same function is
// used on reads and writes so a wall-clock tick across a boundary during one
// request can never produce a mixed read.
func WindowKey(at time.Time, window time.Duration) int64 {
	return at.Unix() / int64(window.Seconds())
}

// StatsService is the counter store. Every mutation is a single-statement
// atomic upsert; there is no read-modify-write anywhere, so concurrent
// increments for the same (user, stat) are commutative.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// IncreaseStat atomically adds delta to the named counter, creating it on
// first use. A failed increment is returned to the caller: reward-bearing
// writes must not report success when their counter increment was dropped.
func (s *StatsService) IncreaseStat(userID, statName string, delta int64) error {
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("stats.value + excluded.value"),
		}),
	}).Create(&models.Stat{UserID: userID, StatName: statName, Value: delta}).Error
	if err != nil {
		return fmt.Errorf("increase stat %s for %s: %w", statName, userID, err)
	}
	return nil
}

func (s *StatsService) GetStat(userID, statName string) (int64, error) {
	var stat models.Stat
	err := s.DB.Where("user_id = ? AND stat_name = ?", userID, statName).First(&stat).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Value, nil
}

func (s *StatsService) GetStats(userID string) ([]models.Stat, error) {
	var stats []models.Stat
	err := s.DB.Where("user_id = ?", userID).Order("stat_name ASC").Find(&stats).Error
	return stats, err
}

// AddExp credits reward exp onto the overall counter.
func (s *StatsService) AddExp(userID string, delta int64) error {
	return s.IncreaseStat(userID, "exp", delta)
}

// IncreaseWindowStat is IncreaseStat scoped to the rolling window the
// timestamp falls into. statName must be registered in windowSizes.
func (s *StatsService) IncreaseWindowStat(at time.Time, userID, statName string, delta int64) error {
	window, ok := windowSizes[statName]
	if !ok {
		return fmt.Errorf("unknown windowed stat %q", statName)
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_name"}, {Name: "window_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("windowed_stats.value + excluded.value"),
		}),
	}).Create(&models.WindowedStat{
		UserID:    userID,
		StatName:  statName,
		WindowKey: WindowKey(at, window),
		Value:     delta,
	}).Error
	if err != nil {
		return fmt.Errorf("increase windowed stat %s for %s: %w", statName, userID, err)
	}
	return nil
}

// GetWindowStat reads the counter for the window the timestamp falls into.
// A window nobody wrote to reads as 0 without any explicit reset.
func (s *StatsService) GetWindowStat(at time.Time, userID, statName string) (int64, error) {
	window, ok := windowSizes[statName]
	if !ok {
		return 0, fmt.Errorf("unknown windowed stat %q", statName)
	}
	var stat models.WindowedStat
	err := s.DB.Where("user_id = ? AND stat_name = ? AND window_key = ?",
		userID, statName, WindowKey(at, window)).First(&stat).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Value, nil
}

// PurgeExpiredWindows deletes windowed rows older than the previous period.
// The previous window is kept so a just-closed board can still be settled.
func (s *StatsService) PurgeExpiredWindows(now time.Time) error {
	for statName, window := range windowSizes {
		cutoff := WindowKey(now, window) - 1
		if err := s.DB.Where("stat_name = ? AND window_key < ?", statName, cutoff).
			Delete(&models.WindowedStat{}).Error; err != nil {
			return err
		}
	}
	return nil
}
