package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScores records pushes and serves canned slices and ranks.
type fakeScores struct {
	mu     sync.Mutex
	pushes map[string]int64 // "board/user" -> score
	slices map[string][]BoardScore
	around map[string][]BoardScore // "board/user" -> window
	rank   int64
}

func newFakeScores(t *testing.T) (*fakeScores, *ScoresClient) {
	t.Helper()
	fake := &fakeScores{
		pushes: map[string]int64{},
		slices: map[string][]BoardScore{},
		around: map[string][]BoardScore{},
		rank:   7,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/scores/"), "/")
		board := parts[0]
		switch {
		case r.Method == http.MethodPost:
			var upsert struct {
				UserID string `json:"userId"`
				Score  int64  `json:"score"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&upsert))
			fake.pushes[board+"/"+upsert.UserID] = upsert.Score
			w.WriteHeader(http.StatusOK)
		case len(parts) == 4 && parts[1] == "user" && parts[3] == "rank":
			_ = json.NewEncoder(w).Encode(fake.rank)
		case len(parts) == 3 && parts[1] == "user":
			window := fake.around[board+"/"+parts[2]]
			if window == nil {
				window = []BoardScore{}
			}
			_ = json.NewEncoder(w).Encode(window)
		default:
			slice := fake.slices[board]
			if slice == nil {
				slice = []BoardScore{}
			}
			_ = json.NewEncoder(w).Encode(slice)
		}
	}))
	t.Cleanup(server.Close)
	return fake, &ScoresClient{BaseURL: server.URL, HTTPClient: server.Client()}
}

func (f *fakeScores) pushed(board, userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[board+"/"+userID]
}

func TestCurrentBoardNames(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	names := CurrentBoardNames(at)

	assert.Equal(t, "exp_overall", names.Exp)
	assert.Equal(t, "exp_daily_20260310", names.DailyExp)
	assert.True(t, strings.HasPrefix(names.WeeklyExp, "exp_weekly_"))

	// Stable within the day, rotated after it.
	assert.Equal(t, names, CurrentBoardNames(at.Add(8*time.Hour)))
	assert.NotEqual(t, names.DailyExp, CurrentBoardNames(at.Add(24*time.Hour)).DailyExp)
}

func TestNextWeekBoundary(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	boundary := NextWeekBoundary(at)

	assert.True(t, boundary.After(at))
	assert.LessOrEqual(t, boundary.Sub(at), WeekWindow)
	assert.Zero(t, boundary.Unix()%int64(WeekWindow.Seconds()))

	// Every instant inside the week maps to the same boundary.
	assert.Equal(t, boundary, NextWeekBoundary(boundary.Add(-time.Minute)))
	assert.NotEqual(t, boundary, NextWeekBoundary(boundary.Add(time.Minute)))
}

func TestSetScorePrefixesBoards(t *testing.T) {
	fake, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	require.NoError(t, boards.SetScore("overall", "alice", 1200))
	assert.Equal(t, int64(1200), fake.pushed("ctw_exp_overall", "alice"))

	names := CurrentBoardNames(time.Now())
	require.NoError(t, boards.SetScore(names.DailyExp, "alice", 75))
	assert.Equal(t, int64(75), fake.pushed("ctw_"+names.DailyExp, "alice"))
}

func TestGetLeaderboardJoinsProfiles(t *testing.T) {
	fake, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	require.NoError(t, boards.SetProfile("alice", "Alice", "https://avatars.test/alice.png"))
	fake.mu.Lock()
	fake.slices["ctw_exp_overall"] = []BoardScore{
		{UserID: "alice", Score: 900},
		{UserID: "stranger", Score: 850},
	}
	fake.mu.Unlock()

	entries, err := boards.GetLeaderboard("overall", 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alice", entries[0].User.Name)
	assert.Equal(t, int64(900), entries[0].Score)
	assert.Equal(t, "Anonymous", entries[1].User.Name)
}

func TestGetLeaderboardAroundMe(t *testing.T) {
	fake, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	require.NoError(t, boards.SetProfile("alice", "Alice", ""))
	fake.mu.Lock()
	fake.around["ctw_exp_overall/alice"] = []BoardScore{
		{UserID: "stranger", Score: 950},
		{UserID: "alice", Score: 900},
		{UserID: "other", Score: 850},
	}
	fake.mu.Unlock()

	entries, err := boards.GetLeaderboardAroundMe("overall", "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Anonymous", entries[0].User.Name)
	assert.Equal(t, "Alice", entries[1].User.Name)
	assert.Equal(t, int64(900), entries[1].Score)

	// No window for this user yet.
	entries, err = boards.GetLeaderboardAroundMe("overall", "bob", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetProfileFallsBackToAnonymous(t *testing.T) {
	_, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	profile, err := boards.GetProfile("nobody")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", profile.Name)
}

func TestSetProfileUpserts(t *testing.T) {
	_, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	require.NoError(t, boards.SetProfile("alice", "Alice", ""))
	require.NoError(t, boards.SetProfile("alice", "Alicia", "https://avatars.test/a.png"))

	profile, err := boards.GetProfile("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", profile.Name)
	assert.Equal(t, "https://avatars.test/a.png", profile.Avatar)
}

func TestGetRanks(t *testing.T) {
	_, client := newFakeScores(t)
	boards := NewLeaderboardService(newTestDB(t), client)

	ranks, err := boards.GetRanks("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), ranks.DailyRank)
	assert.Equal(t, int64(7), ranks.WeeklyRank)
	assert.Equal(t, int64(7), ranks.OverallRank)
}
