package services

import (
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"collect-the-world-backend/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobStore is the object-storage collaborator boundary.
type BlobStore interface {
	Put(key string, body []byte, contentType string) error
	PresignDownload(key string, ttl time.Duration) (string, error)
	Delete(key string) error
}

const downloadURLTTL = 5 * time.Minute

// ImagesService runs the capture pipeline: conditional insert, blob upload,
// reward computation, counter deltas, leaderboard pushes and event fan-out.
// Reward-path failures abort the capture; derived-subsystem failures are
// logged and swallowed.
type ImagesService struct {
	DB          *gorm.DB
	Stats       *StatsService
	Objects     *ObjectService
	Skips       *SkipService
	Words       *WordService
	Multipliers *MultiplierService
	Leaderboard *LeaderboardService
	Events      *EventStorageService
	Bus         *EventBus
	Blob        BlobStore
	Locale      string
}

func NewImagesService(db *gorm.DB, stats *StatsService, objects *ObjectService,
	skips *SkipService, words *WordService, multipliers *MultiplierService,
	leaderboard *LeaderboardService, events *EventStorageService,
	bus *EventBus, blob BlobStore) *ImagesService {
	return &ImagesService{
		DB:          db,
		Stats:       stats,
		Objects:     objects,
		Skips:       skips,
		Words:       words,
		Multipliers: multipliers,
		Leaderboard: leaderboard,
		Events:      events,
		Bus:         bus,
		Blob:        blob,
		Locale:      "en",
	}
}

func blobKey(label, imageID string) string {
	return slug.Make(label) + "/" + imageID
}

// UploadFile is the RecordCapture entry point.
func (s *ImagesService) UploadFile(userID, label, fileName string, data []byte) (*models.UploadImageResponse, error) {
	return s.uploadAt(userID, label, fileName, data, time.Now().UTC())
}

func (s *ImagesService) uploadAt(userID, label, fileName string, data []byte, now time.Time) (*models.UploadImageResponse, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, NewApiError(ErrSlugValidation, "label must not be empty")
	}
	if len(data) == 0 {
		return nil, NewApiError(ErrSlugValidation, "upload must not be empty")
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	image := &models.CapturedImage{
		ObjectLabel: label,
		UserID:      userID,
		Day:         dayKey(now),
		ID:          uuid.NewString(),
		ContentType: contentType,
		Size:        int64(len(data)),
	}

	// Conditional insert on (label, user, day): losing the race or repeating
	// an upload lands on the duplicate path, which never rewards twice.
	result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(image)
	if result.Error != nil {
		return nil, fmt.Errorf("insert capture: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.handleDuplicate(image, data, contentType)
	}

	route := blobKey(label, image.ID)
	log.Printf("Putting %s to blob storage", route)
	if err := s.Blob.Put(route, data, contentType); err != nil {
		s.abortCapture(image)
		return nil, NewApiError(ErrSlugUpstream, fmt.Sprintf("blob upload failed: %v", err))
	}

	if err := s.Stats.IncreaseStat(userID, "images_uploaded", 1); err != nil {
		s.abortCapture(image)
		return nil, err
	}

	input, obj, err := s.resolveRewardInput(userID, label, now)
	if err != nil {
		s.abortCapture(image)
		return nil, err
	}
	rewards := ComputeReward(input)

	if rewards.IsCurrent {
		// Completing the assignment ticks the sequence forward.
		if err := s.Stats.IncreaseStat(userID, "current_offset", 1); err != nil {
			s.abortCapture(image)
			return nil, err
		}
	} else if input.HasCatalogEntry {
		credited, err := s.Skips.Collected(userID, label)
		if err != nil {
			log.Printf("Failed to grant skip credit for %s: %v", userID, err)
		}
		// The calculator flags eligibility; only a recorded credit counts.
		rewards.AddedSkip = credited
	}

	image.Metadata = map[string]string{
		"rewarded": strconv.FormatInt(rewards.Total, 10),
		"unique":   strconv.FormatBool(rewards.Unique),
	}
	if err := s.DB.Model(&models.CapturedImage{}).
		Where("object_label = ? AND user_id = ? AND day = ?", label, userID, image.Day).
		Update("metadata", image.Metadata).Error; err != nil {
		s.abortCapture(image)
		return nil, fmt.Errorf("persist reward metadata: %w", err)
	}

	if err := s.updateExpScore(userID, rewards.Total, now); err != nil {
		s.abortCapture(image)
		return nil, err
	}
	if err := s.Events.Journal(userID, rewards.Total, "capture", "captured "+label, image.ID); err != nil {
		log.Printf("Failed to journal capture exp for %s: %v", userID, err)
	}

	s.Bus.Publish(CaptureEvent{
		UserID:    userID,
		Label:     label,
		ImageURL:  route,
		Exp:       rewards.Total,
		IsUnique:  rewards.Unique,
		IsCurrent: rewards.IsCurrent,
	})

	if obj != nil && obj.Value > 10 {
		if err := s.Objects.DecreaseValueTo(s.Locale, label, obj.Value-10); err != nil {
			log.Printf("Failed to decay value of %q: %v", label, err)
		}
	}

	return &models.UploadImageResponse{Image: image, Rewards: &rewards}, nil
}

// abortCapture removes the row a failed upload inserted so a retry takes
// the reward path again instead of landing on the duplicate path.
func (s *ImagesService) abortCapture(image *models.CapturedImage) {
	if err := s.DB.Where("id = ?", image.ID).
		Delete(&models.CapturedImage{}).Error; err != nil {
		log.Printf("Failed to roll back capture %s: %v", image.ID, err)
	}
}

// handleDuplicate refreshes metadata for a same-day re-upload. No reward, no
// counter deltas, no event.
func (s *ImagesService) handleDuplicate(image *models.CapturedImage, data []byte, contentType string) (*models.UploadImageResponse, error) {
	var existing models.CapturedImage
	if err := s.DB.Where("object_label = ? AND user_id = ? AND day = ?",
		image.ObjectLabel, image.UserID, image.Day).First(&existing).Error; err != nil {
		return nil, err
	}
	if err := s.Blob.Put(blobKey(existing.ObjectLabel, existing.ID), data, contentType); err != nil {
		log.Printf("Failed to refresh blob for duplicate %s: %v", existing.ID, err)
	}
	if err := s.DB.Model(&models.CapturedImage{}).
		Where("object_label = ? AND user_id = ? AND day = ?",
			existing.ObjectLabel, existing.UserID, existing.Day).
		Updates(map[string]interface{}{
			"content_type": contentType,
			"size":         int64(len(data)),
		}).Error; err != nil {
		return nil, err
	}
	rewards := ComputeReward(RewardInput{Duplicate: true})
	return &models.UploadImageResponse{Image: &existing, Rewards: &rewards}, nil
}

// resolveRewardInput gathers everything the pure calculator needs. The
// oracle is only consulted for labels the catalog does not know.
func (s *ImagesService) resolveRewardInput(userID, label string, now time.Time) (RewardInput, *models.CollectableObject, error) {
	currentLabel, err := s.Objects.CurrentLabelToCollect(userID)
	if err != nil {
		return RewardInput{}, nil, err
	}
	obj, err := s.Objects.GetObject(s.Locale, label)
	if err != nil {
		return RewardInput{}, nil, err
	}

	var priorCaptures int64
	if err := s.DB.Model(&models.CapturedImage{}).
		Where("object_label = ? AND user_id = ? AND day < ?", label, userID, dayKey(now)).
		Count(&priorCaptures).Error; err != nil {
		return RewardInput{}, nil, err
	}

	input := RewardInput{
		IsCurrent: label == currentLabel,
		IsUnique:  priorCaptures == 0,
	}
	if obj != nil {
		input.HasCatalogEntry = true
		input.CatalogValue = obj.Value
		input.DailyQuestBonus = s.Objects.DailyQuestBonus(userID, label, now)
		categories, err := s.Objects.GetCategoriesForObject(s.Locale, label)
		if err != nil {
			return RewardInput{}, nil, err
		}
		input.Categories = categories
		multipliers, err := s.Multipliers.multipliersAt(s.Locale, now)
		if err != nil {
			log.Printf("Failed to resolve multipliers: %v", err)
		} else {
			input.Multipliers = multipliers
		}
	} else {
		collectable, _, err := s.Words.IsCollectableWordExplanation(s.Locale, label)
		if err != nil {
			log.Printf("Word lookup failed for %q: %v", label, err)
		}
		input.OracleCollectable = collectable
	}
	return input, obj, nil
}

// updateExpScore commits the counter deltas (reward path, must all land)
// and then pushes fresh snapshots to the rotating boards (best effort).
func (s *ImagesService) updateExpScore(userID string, value int64, now time.Time) error {
	if value == 0 {
		return nil
	}
	if err := s.Stats.AddExp(userID, value); err != nil {
		return err
	}
	if err := s.Stats.IncreaseWindowStat(now, userID, "daily_exp", value); err != nil {
		return err
	}
	if err := s.Stats.IncreaseWindowStat(now, userID, "weekly_exp", value); err != nil {
		return err
	}

	names := CurrentBoardNames(now)
	if total, err := s.Stats.GetStat(userID, "exp"); err == nil {
		if err := s.Leaderboard.SetScore(names.Exp, userID, total); err != nil {
			log.Printf("Failed to push overall score for %s: %v", userID, err)
		}
	}
	if daily, err := s.Stats.GetWindowStat(now, userID, "daily_exp"); err == nil {
		if err := s.Leaderboard.SetScore(names.DailyExp, userID, daily); err != nil {
			log.Printf("Failed to push daily score for %s: %v", userID, err)
		}
	}
	if weekly, err := s.Stats.GetWindowStat(now, userID, "weekly_exp"); err == nil {
		if err := s.Leaderboard.SetScore(names.WeeklyExp, userID, weekly); err != nil {
			log.Printf("Failed to push weekly score for %s: %v", userID, err)
		}
	}
	return nil
}

// AddDescription attaches a description to an owned capture. The first
// description on a rewarded capture re-grants the recorded reward once.
func (s *ImagesService) AddDescription(id, userID, description string) (*models.CapturedImage, error) {
	var stored models.CapturedImage
	err := s.DB.Where("id = ?", id).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		return nil, NewApiError(ErrSlugNotFound, "Image not found")
	}
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID {
		return nil, NewApiError(ErrSlugForbidden, "You are not allowed to access this image")
	}

	updates := map[string]interface{}{"description": description}
	if rewarded, ok := stored.Metadata["rewarded"]; ok && stored.Metadata["description_rewarded"] != "true" {
		if value, err := strconv.ParseInt(rewarded, 10, 64); err == nil && value > 0 {
			log.Printf("Adding %d exp to user %s for description", value, userID)
			if err := s.Events.AddExp(userID, value, "description", "described "+stored.ObjectLabel, stored.ID); err != nil {
				return nil, err
			}
			if stored.Metadata == nil {
				stored.Metadata = map[string]string{}
			}
			stored.Metadata["description_rewarded"] = "true"
			updates["metadata"] = stored.Metadata
		}
	}
	if err := s.DB.Model(&models.CapturedImage{}).
		Where("object_label = ? AND user_id = ? AND day = ?",
			stored.ObjectLabel, stored.UserID, stored.Day).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	stored.Description = description
	return &stored, nil
}

// GetImage returns an owned capture with a short-lived download URL.
// The admin identity bypasses the ownership check.
func (s *ImagesService) GetImage(userID, id string) (*models.CapturedImageWithDownloadURL, error) {
	var stored models.CapturedImage
	err := s.DB.Where("id = ?", id).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		return nil, NewApiError(ErrSlugNotFound, "Image not found")
	}
	if err != nil {
		return nil, err
	}
	if userID != "admin" && stored.UserID != userID {
		return nil, NewApiError(ErrSlugForbidden, "You are not allowed to access this image")
	}
	url, err := s.Blob.PresignDownload(blobKey(stored.ObjectLabel, stored.ID), downloadURLTTL)
	if err != nil {
		return nil, NewApiError(ErrSlugUpstream, fmt.Sprintf("presign failed: %v", err))
	}
	return &models.CapturedImageWithDownloadURL{CapturedImage: stored, DownloadURL: url}, nil
}
