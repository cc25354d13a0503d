package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"collect-the-world-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const boardPrefix = "ctw_"

// BoardNames are the rotating leaderboard identifiers. They derive from the
// wall clock, so boards roll over at each boundary without any stored state.
type BoardNames struct {
	Exp       string `json:"exp"`
	DailyExp  string `json:"daily_exp"`
	WeeklyExp string `json:"weekly_exp"`
}

// CurrentBoardNames returns the board set for a point in time. The weekly
// board is named after the upcoming week boundary so it stays stable for
// the whole week.
func CurrentBoardNames(at time.Time) BoardNames {
	return BoardNames{
		Exp:       "exp_overall",
		DailyExp:  "exp_daily_" + at.UTC().Format("20060102"),
		WeeklyExp: "exp_weekly_" + NextWeekBoundary(at).Format("20060102"),
	}
}

// NextWeekBoundary rounds up to the next 7-day epoch boundary.
func NextWeekBoundary(at time.Time) time.Time {
	return at.UTC().Truncate(WeekWindow).Add(WeekWindow)
}

// ScoresClient talks to the external leaderboard service. Score pushes are
// last-write-wins upserts and safe to repeat with the same value.
type ScoresClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewScoresClient() *ScoresClient {
	baseURL := os.Getenv("LEADERBOARD_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("LEADERBOARD_SERVICE_URL environment variable is required")
	}
	return &ScoresClient{
		BaseURL: baseURL,
		Token:   os.Getenv("LEADERBOARD_SERVICE_TOKEN"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BoardScore is one raw score row from the external service.
type BoardScore struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
}

type scoreUpsert struct {
	UserID     string `json:"userId"`
	Score      int64  `json:"score"`
	HighScore  bool   `json:"highScore"`
	Confidence int    `json:"confidence"`
	DaysToKeep int    `json:"daysToKeep"`
}

func (c *ScoresClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leaderboard service unreachable: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("leaderboard service returned %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func (c *ScoresClient) SetScore(board, userID string, score int64) error {
	body, err := json.Marshal(scoreUpsert{
		UserID:     userID,
		Score:      score,
		HighScore:  true,
		Confidence: 1,
		DaysToKeep: 30,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST",
		fmt.Sprintf("%s/api/scores/%s", c.BaseURL, url.PathEscape(board)), bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *ScoresClient) GetSlice(board string, offset, count int) ([]BoardScore, error) {
	req, err := http.NewRequest("GET",
		fmt.Sprintf("%s/api/scores/%s?offset=%d&count=%d", c.BaseURL, url.PathEscape(board), offset, count), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var scores []BoardScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard slice: %w", err)
	}
	return scores, nil
}

// GetAround fetches the slice of the board surrounding a user, with about
// half of the entries ranked above them.
func (c *ScoresClient) GetAround(board, userID string, count int) ([]BoardScore, error) {
	req, err := http.NewRequest("GET",
		fmt.Sprintf("%s/api/scores/%s/user/%s?count=%d&before=%d",
			c.BaseURL, url.PathEscape(board), url.PathEscape(userID), count, count/2), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var scores []BoardScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard slice: %w", err)
	}
	return scores, nil
}

func (c *ScoresClient) GetRank(board, userID string) (int64, error) {
	req, err := http.NewRequest("GET",
		fmt.Sprintf("%s/api/scores/%s/user/%s/rank", c.BaseURL, url.PathEscape(board), url.PathEscape(userID)), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var rank int64
	if err := json.NewDecoder(resp.Body).Decode(&rank); err != nil {
		return 0, fmt.Errorf("failed to decode rank: %w", err)
	}
	return rank, nil
}

// LeaderboardService joins local display profiles onto external score rows
// and translates friendly board ids into prefixed slugs.
type LeaderboardService struct {
	DB     *gorm.DB
	Scores *ScoresClient
}

func NewLeaderboardService(db *gorm.DB, scores *ScoresClient) *LeaderboardService {
	return &LeaderboardService{DB: db, Scores: scores}
}

// prefixed maps the friendly ids the API layer exposes onto the rotating
// board slugs, and namespaces everything under the service prefix.
func (s *LeaderboardService) prefixed(boardID string) string {
	names := CurrentBoardNames(time.Now())
	switch boardID {
	case "daily":
		boardID = names.DailyExp
	case "weekly":
		boardID = names.WeeklyExp
	case "overall":
		boardID = names.Exp
	}
	return boardPrefix + boardID
}

func (s *LeaderboardService) SetScore(boardID, userID string, score int64) error {
	return s.Scores.SetScore(s.prefixed(boardID), userID, score)
}

func (s *LeaderboardService) GetRankOf(boardID, userID string) (int64, error) {
	return s.Scores.GetRank(s.prefixed(boardID), userID)
}

func (s *LeaderboardService) GetLeaderboard(boardID string, offset, count int) ([]models.BoardEntry, error) {
	scores, err := s.Scores.GetSlice(s.prefixed(boardID), offset, count)
	if err != nil {
		return nil, err
	}
	return s.formatWithProfile(scores)
}

// GetLeaderboardAroundMe returns the board window centered on the user.
func (s *LeaderboardService) GetLeaderboardAroundMe(boardID, userID string, count int) ([]models.BoardEntry, error) {
	scores, err := s.Scores.GetAround(s.prefixed(boardID), userID, count)
	if err != nil {
		return nil, err
	}
	return s.formatWithProfile(scores)
}

func (s *LeaderboardService) formatWithProfile(scores []BoardScore) ([]models.BoardEntry, error) {
	ids := make([]string, 0, len(scores))
	for _, score := range scores {
		ids = append(ids, score.UserID)
	}
	var profiles []models.LeaderboardProfile
	if len(ids) > 0 {
		if err := s.DB.Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[string]*models.LeaderboardProfile, len(profiles))
	for i := range profiles {
		byID[profiles[i].UserID] = &profiles[i]
	}
	entries := make([]models.BoardEntry, len(scores))
	for i, score := range scores {
		profile := byID[score.UserID]
		if profile == nil {
			profile = &models.LeaderboardProfile{UserID: score.UserID, Name: "Anonymous"}
		}
		entries[i] = models.BoardEntry{User: profile, Score: score.Score}
	}
	return entries, nil
}

func (s *LeaderboardService) GetProfile(userID string) (*models.PublicProfile, error) {
	var profile models.LeaderboardProfile
	err := s.DB.Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return &models.PublicProfile{Name: "Anonymous"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.PublicProfile{Name: profile.Name, Avatar: profile.Avatar}, nil
}

func (s *LeaderboardService) SetProfile(userID, name, avatar string) error {
	profile := models.LeaderboardProfile{UserID: userID, Name: name, Avatar: avatar}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "avatar"}),
	}).Create(&profile).Error
	if err == nil {
		log.Printf("Set profile for %s to %s", userID, name)
	}
	return err
}

// GetRanks bundles the user's rank on the three current boards.
func (s *LeaderboardService) GetRanks(userID string) (*models.RankSummary, error) {
	daily, err := s.GetRankOf("daily", userID)
	if err != nil {
		return nil, err
	}
	weekly, err := s.GetRankOf("weekly", userID)
	if err != nil {
		return nil, err
	}
	overall, err := s.GetRankOf("overall", userID)
	if err != nil {
		return nil, err
	}
	return &models.RankSummary{DailyRank: daily, WeeklyRank: weekly, OverallRank: overall}, nil
}
