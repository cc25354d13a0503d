// handlers/board_routes.go
package handlers

import (
	"time"

	"collect-the-world-backend/middleware"
	"collect-the-world-backend/models"
	"collect-the-world-backend/services"

	"github.com/gofiber/fiber/v2"
)

// SetupBoardRoutes wires leaderboards, challenges, streaks, multipliers and
// the exp change journal.
func SetupBoardRoutes(app *fiber.App, leaderboard *services.LeaderboardService,
	challenges *services.ChallengeService, streaks *services.StreakService,
	stats *services.StatsService, multipliers *services.MultiplierService,
	events *services.EventStorageService) {

	secured := app.Group("/api", middleware.UserContextMiddleware())

	secured.Get("/leaderboard/boards", func(c *fiber.Ctx) error {
		return c.JSON(services.CurrentBoardNames(time.Now()))
	})

	secured.Get("/leaderboard/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		profile, err := leaderboard.GetProfile(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(profile)
	})

	secured.Post("/leaderboard/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req models.PublicProfile
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := leaderboard.SetProfile(userID, req.Name, req.Avatar); err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	secured.Get("/leaderboard/ranks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		ranks, err := leaderboard.GetRanks(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(ranks)
	})

	secured.Get("/leaderboard/:leaderboardId", func(c *fiber.Ctx) error {
		entries, err := leaderboard.GetLeaderboard(c.Params("leaderboardId"),
			c.QueryInt("offset", 0), c.QueryInt("count", 10))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(entries)
	})

	secured.Get("/leaderboard/:leaderboardId/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		entries, err := leaderboard.GetLeaderboardAroundMe(c.Params("leaderboardId"),
			userID, c.QueryInt("count", 10))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(entries)
	})

	secured.Get("/leaderboard/:leaderboardId/me/rank", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		rank, err := leaderboard.GetRankOf(c.Params("leaderboardId"), userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(rank)
	})

	secured.Get("/challenges/daily", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := challenges.GetDailyChallenges(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "challenges": list})
	})

	secured.Get("/challenges/longterm", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := challenges.GetLongTermChallenges(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "challenges": list})
	})

	secured.Get("/streak", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		streak, err := streaks.GetStreak(userID)
		if err != nil {
			return errJSON(c, err)
		}
		length, err := stats.GetStat(userID, "collection_streak")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"streak": streak, "length": length})
	})

	secured.Get("/multiplier", func(c *fiber.Ctx) error {
		active, err := multipliers.GetMultipliers("en")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "multiplier": active})
	})

	secured.Get("/exp/changes", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		since := time.Now().UTC().AddDate(0, 0, -c.QueryInt("days", 30))
		changes, err := events.GetChanges(userID, since)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(changes)
	})
}
