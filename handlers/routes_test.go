package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collect-the-world-backend/models"
	"collect-the-world-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nullBlob struct{}

func (nullBlob) Put(key string, body []byte, contentType string) error { return nil }
func (nullBlob) PresignDownload(key string, ttl time.Duration) (string, error) {
	return "https://blob.test/" + key, nil
}
func (nullBlob) Delete(key string) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:routes%d?mode=memory&cache=shared", time.Now().UnixNano())),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Stat{},
		&models.WindowedStat{},
		&models.CollectableObject{},
		&models.SkipEntry{},
		&models.Streak{},
		&models.Challenge{},
		&models.CapturedImage{},
		&models.Word{},
		&models.LeaderboardProfile{},
		&models.ChangeEvent{},
	))

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/chat/completions":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": "(no,no,no,no,no,en,none"}},
				},
			})
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusOK)
		default:
			_, _ = w.Write([]byte("[]"))
		}
	}))
	t.Cleanup(upstream.Close)

	stats := services.NewStatsService(db)
	events := services.NewEventStorageService(db, stats)
	objects := services.NewObjectService(db, stats)
	require.NoError(t, objects.BootstrapCatalog("en"))
	skips := services.NewSkipService(db, stats, events)
	words := services.NewWordService(db, &services.OracleClient{
		BaseURL: upstream.URL, Model: "test-model", HTTPClient: upstream.Client(),
	})
	multipliers := services.NewMultiplierService(objects, services.DefaultRewardsConfig())
	leaderboard := services.NewLeaderboardService(db, &services.ScoresClient{
		BaseURL: upstream.URL, HTTPClient: upstream.Client(),
	})
	streaks := services.NewStreakService(db, stats)
	challenges := services.NewChallengeService(db, events)
	bus := services.NewEventBus()
	t.Cleanup(bus.Close)
	streaks.RegisterSubscriber(bus)
	challenges.RegisterSubscriber(bus)
	images := services.NewImagesService(db, stats, objects, skips, words,
		multipliers, leaderboard, events, bus, nullBlob{})

	app := fiber.New()
	SetupCaptureRoutes(app, images, objects, skips, stats, words)
	SetupBoardRoutes(app, leaderboard, challenges, streaks, stats, multipliers, events)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, userID string, out interface{}) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestRoutesRequireUserContext(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/objects/next", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetNextObject(t *testing.T) {
	app := newTestApp(t)

	var obj models.CollectableObject
	resp := doJSON(t, app, http.MethodGet, "/api/objects/next", "alice", &obj)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "door", obj.Name)
}

func TestSkipFlow(t *testing.T) {
	app := newTestApp(t)

	for i, want := range []bool{true, true, false} {
		var result struct {
			Success bool `json:"success"`
		}
		resp := doJSON(t, app, http.MethodPost, "/api/skip/door", "alice", &result)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, want, result.Success, "skip %d", i+1)
	}

	var available models.SkipsAvailable
	doJSON(t, app, http.MethodGet, "/api/skip/available", "alice", &available)
	assert.Equal(t, 2, available.Used)
	assert.Equal(t, 0, available.Total)
}

func TestUploadImageRoute(t *testing.T) {
	app := newTestApp(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "door.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload/door", &body)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response models.UploadImageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.NotNil(t, response.Rewards)
	assert.True(t, response.Rewards.IsCurrent)
	assert.Greater(t, response.Rewards.Total, int64(0))

	// The reward landed on the stats route too.
	var exp int64
	doJSON(t, app, http.MethodGet, "/api/stats/exp", "alice", &exp)
	assert.Equal(t, response.Rewards.Total, exp)
}

func TestUploadImageRouteRequiresFile(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/images/upload/door", "alice", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDailyChallengesRoute(t *testing.T) {
	app := newTestApp(t)

	var result struct {
		Success    bool               `json:"success"`
		Challenges []models.Challenge `json:"challenges"`
	}
	resp := doJSON(t, app, http.MethodGet, "/api/challenges/daily", "alice", &result)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, result.Success)
	require.Len(t, result.Challenges, 1)
	assert.Equal(t, models.ChallengeTypeCount, result.Challenges[0].Type)
}

func TestMultiplierRoute(t *testing.T) {
	app := newTestApp(t)

	var result struct {
		Success    bool                      `json:"success"`
		Multiplier []models.ActiveMultiplier `json:"multiplier"`
	}
	resp := doJSON(t, app, http.MethodGet, "/api/multiplier", "alice", &result)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, result.Multiplier, 3)
	for _, active := range result.Multiplier {
		assert.NotEmpty(t, active.Category)
		assert.Greater(t, active.Multiplier, float32(1))
	}
}

func TestWordCheckAdminOnly(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/word/isCollectableWord?phrase=teapot", "alice", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/word/isCollectableWord?phrase=teapot", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Roles", "admin")
	adminResp, err := app.Test(req, 10000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, adminResp.StatusCode)
}

// object browsing helpers

func TestPaginate(t *testing.T) {
	objs := []models.CollectableObject{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Len(t, paginate(objs, 0, 2), 2)
	assert.Equal(t, "c", paginate(objs, 2, 2)[0].Name)
	assert.Empty(t, paginate(objs, 5, 2))
	assert.Len(t, paginate(objs, 0, 0), 3)
}

func TestObjectsNewSortedByValue(t *testing.T) {
	app := newTestApp(t)

	var objs []models.CollectableObject
	resp := doJSON(t, app, http.MethodGet, "/api/objects/new?count=5", "alice", &objs)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, objs, 5)
	for i := 1; i < len(objs); i++ {
		assert.GreaterOrEqual(t, objs[i-1].Value, objs[i].Value)
	}
}

func TestLeaderboardAroundMeRoute(t *testing.T) {
	app := newTestApp(t)

	var entries []models.BoardEntry
	resp := doJSON(t, app, http.MethodGet, "/api/leaderboard/overall/me?count=6", "alice", &entries)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, entries)
}

func TestStreakRoute(t *testing.T) {
	app := newTestApp(t)

	var result struct {
		Streak *models.Streak `json:"streak"`
		Length int64          `json:"length"`
	}
	resp := doJSON(t, app, http.MethodGet, "/api/streak", "alice", &result)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, result.Streak)
	assert.Zero(t, result.Length)
}
