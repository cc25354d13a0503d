package services

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"collect-the-world-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dailyQuestSize = 15

// ObjectService owns the collectable catalog and every deterministic draw
// over it: the per-user assignment sequence, the daily quest batch and the
// random challenge batches.
type ObjectService struct {
	DB    *gorm.DB
	Stats *StatsService

	// sorted distinct names, loaded at bootstrap; the permutation universe
	names []string
}

func NewObjectService(db *gorm.DB, stats *StatsService) *ObjectService {
	return &ObjectService{DB: db, Stats: stats}
}

// BootstrapCatalog inserts taxonomy rows that don't exist yet. Existing rows
// keep their (possibly decayed) value, so restarts never reset the economy.
func (s *ObjectService) BootstrapCatalog(locale string) error {
	var rows []models.CollectableObject
	for category, entries := range catalogTaxonomy {
		for _, entry := range entries {
			rows = append(rows, models.CollectableObject{
				Locale:   locale,
				Category: category,
				Name:     entry.Name,
				ObjectID: uuid.NewString(),
				Value:    entry.Value,
			})
		}
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("bootstrap catalog: %w", err)
	}
	return s.reloadNames(locale)
}

func (s *ObjectService) reloadNames(locale string) error {
	var names []string
	if err := s.DB.Model(&models.CollectableObject{}).
		Where("locale = ?", locale).
		Distinct("name").Pluck("name", &names).Error; err != nil {
		return err
	}
	sort.Strings(names)
	s.names = names
	return nil
}

func (s *ObjectService) CreateObject(locale, category, name, description string, value int64) (*models.CollectableObject, error) {
	obj := &models.CollectableObject{
		Locale:      locale,
		Category:    category,
		Name:        name,
		ObjectID:    uuid.NewString(),
		Description: description,
		Value:       value,
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(obj).Error; err != nil {
		return nil, err
	}
	return obj, nil
}

// GetObject returns one catalog row for a label, or nil when the label is
// unknown. With many-to-many categories the first membership row wins; the
// value is the same on every membership row.
func (s *ObjectService) GetObject(locale, label string) (*models.CollectableObject, error) {
	var obj models.CollectableObject
	err := s.DB.Where("locale = ? AND name = ?", locale, label).
		Order("category ASC").First(&obj).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *ObjectService) GetObjects(locale string) ([]models.CollectableObject, error) {
	var objs []models.CollectableObject
	err := s.DB.Where("locale = ?", locale).Order("name ASC").Find(&objs).Error
	return objs, err
}

func (s *ObjectService) GetCategoryObjects(locale, category string) ([]models.CollectableObject, error) {
	var objs []models.CollectableObject
	err := s.DB.Where("locale = ? AND category = ?", locale, category).
		Order("name ASC").Find(&objs).Error
	return objs, err
}

func (s *ObjectService) GetCategories(locale string) ([]models.Category, error) {
	var names []string
	if err := s.DB.Model(&models.CollectableObject{}).
		Where("locale = ?", locale).
		Distinct("category").Order("category ASC").
		Pluck("category", &names).Error; err != nil {
		return nil, err
	}
	categories := make([]models.Category, len(names))
	for i, n := range names {
		categories[i] = models.Category{Name: n}
	}
	return categories, nil
}

// GetCategoriesForObject returns every category whose member list contains
// the label.
func (s *ObjectService) GetCategoriesForObject(locale, label string) ([]string, error) {
	var categories []string
	err := s.DB.Model(&models.CollectableObject{}).
		Where("locale = ? AND name = ?", locale, label).
		Distinct("category").Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// CurrentLabelToCollect is the label at permutation[current_offset]. The
// sequence is the onboarding list first, then the user-seeded permutation of
// the catalog, so it is stable across restarts without being stored.
func (s *ObjectService) CurrentLabelToCollect(userID string) (string, error) {
	offset, err := s.Stats.GetStat(userID, "current_offset")
	if err != nil {
		return "", err
	}
	return s.labelAtOffset(userID, offset), nil
}

func (s *ObjectService) labelAtOffset(userID string, offset int64) string {
	if offset < int64(len(onboardingLabels)) {
		return onboardingLabels[offset]
	}
	if len(s.names) == 0 {
		return ""
	}
	perm := SeededPermutation(UserSeed(userID), len(s.names))
	idx := (offset - int64(len(onboardingLabels))) % int64(len(s.names))
	return s.names[perm[idx]]
}

// GetNextObjectToCollect resolves the current assignment to a catalog row,
// auto-creating a placeholder when the permutation points at a name that has
// no row yet. Failing the request over a missing row would strand the user.
func (s *ObjectService) GetNextObjectToCollect(locale, userID string) (*models.CollectableObject, error) {
	label, err := s.CurrentLabelToCollect(userID)
	if err != nil {
		return nil, err
	}
	if label == "" {
		return nil, NewApiError(ErrSlugInternal, "catalog is empty")
	}
	obj, err := s.GetObject(locale, label)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		log.Printf("⚠️  No catalog row for assigned label %q, creating placeholder", label)
		return s.CreateObject(locale, "misc", label, "", placeholderValue)
	}
	return obj, nil
}

// GetDailyObjects draws today's quest batch: a fixed-size slice of a
// permutation seeded from (user, calendar day), each item carrying its quest
// reward 250 - 25*floor(sqrt(random(1..65))) from the same seeded source.
// Repeats within the draw are collapsed first-occurrence-wins.
func (s *ObjectService) GetDailyObjects(userID string, at time.Time) []models.CollectableObject {
	if len(s.names) == 0 {
		return nil
	}
	seed := DaySeed(at) + UserSeed(userID)
	rng := SeededRng(seed)
	perm := rng.Perm(len(s.names))
	seen := make(map[string]bool, dailyQuestSize)
	var batch []models.CollectableObject
	for _, idx := range perm {
		if len(batch) == dailyQuestSize {
			break
		}
		name := s.names[idx]
		reward := 250 - 25*int64(math.Floor(math.Sqrt(float64(rng.Intn(65)+1))))
		if seen[name] {
			continue
		}
		seen[name] = true
		batch = append(batch, models.CollectableObject{
			Locale: "en",
			Name:   name,
			Value:  reward,
		})
	}
	return batch
}

// DailyQuestBonus returns the label's quest reward for the day, or 0 when
// the label is not in today's batch.
func (s *ObjectService) DailyQuestBonus(userID, label string, at time.Time) int64 {
	for _, item := range s.GetDailyObjects(userID, at) {
		if item.Name == label {
			return item.Value
		}
	}
	return 0
}

// GetRandomObjects draws a challenge batch. The offset distinguishes
// successive batches for the same user; the draw stays reproducible from
// (userID, offset) alone.
func (s *ObjectService) GetRandomObjects(locale, userID string, offset, count int) ([]models.CollectableObject, error) {
	if len(s.names) == 0 {
		return nil, nil
	}
	if count <= 0 || count > len(s.names) {
		count = 5
	}
	perm := SeededPermutation(UserSeed(userID)^int64(offset+1)*2654435761, len(s.names))
	var batch []models.CollectableObject
	for _, idx := range perm[:count] {
		obj, err := s.GetObject(locale, s.names[idx])
		if err != nil {
			return nil, err
		}
		if obj != nil {
			batch = append(batch, *obj)
		}
	}
	return batch, nil
}

// DecreaseValueTo lowers the base value on every membership row of a label.
// Two concurrent captures can both read the pre-decay value; that soft race
// is accepted, the decay is an anti-farming deterrent, not accounting.
func (s *ObjectService) DecreaseValueTo(locale, label string, value int64) error {
	return s.DB.Model(&models.CollectableObject{}).
		Where("locale = ? AND name = ?", locale, label).
		Update("value", value).Error
}
