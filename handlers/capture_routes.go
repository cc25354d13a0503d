// handlers/capture_routes.go
package handlers

import (
	"io"
	"sort"
	"time"

	"collect-the-world-backend/middleware"
	"collect-the-world-backend/models"
	"collect-the-world-backend/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps expected service outcomes onto HTTP statuses. Anything
// unexpected is a 500.
func statusFor(err error) int {
	switch services.SlugOf(err) {
	case services.ErrSlugValidation:
		return fiber.StatusBadRequest
	case services.ErrSlugNotFound:
		return fiber.StatusNotFound
	case services.ErrSlugForbidden:
		return fiber.StatusForbidden
	case services.ErrSlugUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"slug":  services.SlugOf(err),
		"error": err.Error(),
	})
}

// SetupCaptureRoutes wires the capture pipeline and its direct reads.
func SetupCaptureRoutes(app *fiber.App, images *services.ImagesService,
	objects *services.ObjectService, skips *services.SkipService,
	stats *services.StatsService, words *services.WordService) {

	secured := app.Group("/api", middleware.UserContextMiddleware())

	secured.Post("/images/upload/:label", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		label := c.Params("label")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open upload"})
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read upload"})
		}

		response, err := images.UploadFile(userID, label, fileHeader.Filename, data)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(response)
	})

	secured.Get("/images/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if middleware.IsAdmin(c) {
			userID = "admin"
		}
		image, err := images.GetImage(userID, c.Params("id"))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(image)
	})

	secured.Post("/images/:id/description", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Description string `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		image, err := images.AddDescription(c.Params("id"), userID, req.Description)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(image)
	})

	secured.Get("/objects", func(c *fiber.Ctx) error {
		objs, err := objects.GetObjects("en")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(objs)
	})

	// Newest and highest rewarded objects to collect
	secured.Get("/objects/new", func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		count := c.QueryInt("count", 10)
		objs, err := objects.GetObjects("en")
		if err != nil {
			return errJSON(c, err)
		}
		sortByValueDesc(objs)
		return c.JSON(paginate(objs, offset, count))
	})

	secured.Get("/objects/next", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		obj, err := objects.GetNextObjectToCollect("en", userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(obj)
	})

	secured.Get("/objects/daily", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return c.JSON(objects.GetDailyObjects(userID, time.Now().UTC()))
	})

	secured.Get("/objects/challenge", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		offset := c.QueryInt("offset", -1)
		count := c.QueryInt("count", 5)
		batch, err := objects.GetRandomObjects("en", userID, offset, count)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(batch)
	})

	secured.Get("/objects/categories", func(c *fiber.Ctx) error {
		categories, err := objects.GetCategories("en")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(categories)
	})

	secured.Get("/objects/category/:categoryName", func(c *fiber.Ctx) error {
		objs, err := objects.GetCategoryObjects("en", c.Params("categoryName"))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(objs)
	})

	secured.Post("/skip/:label", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		ok, err := skips.TrySkip(userID, c.Params("label"))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"success": ok})
	})

	secured.Get("/skip/available", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		available, err := skips.Available(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(available)
	})

	secured.Get("/stats", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		all, err := stats.GetStats(userID)
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(all)
	})

	secured.Get("/stats/daily_exp", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		value, err := stats.GetWindowStat(time.Now().UTC(), userID, "daily_exp")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(value)
	})

	secured.Get("/stats/weekly_exp", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		value, err := stats.GetWindowStat(time.Now().UTC(), userID, "weekly_exp")
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(value)
	})

	secured.Get("/stats/:statName", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		value, err := stats.GetStat(userID, c.Params("statName"))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(value)
	})

	// Admin-only oracle passthrough for debugging verdicts
	secured.Get("/word/isCollectableWord", func(c *fiber.Ctx) error {
		if !middleware.IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only admins can check if a word is collectable",
			})
		}
		ok, word, err := words.IsCollectableWordExplanation(c.Query("locale", "en"), c.Query("phrase"))
		if err != nil {
			return errJSON(c, err)
		}
		return c.JSON(fiber.Map{"is_object": ok, "explanation": word})
	})
}

func sortByValueDesc(objs []models.CollectableObject) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Value > objs[j].Value })
}

func paginate(objs []models.CollectableObject, offset, count int) []models.CollectableObject {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(objs) {
		return []models.CollectableObject{}
	}
	end := offset + count
	if count <= 0 || end > len(objs) {
		end = len(objs)
	}
	return objs[offset:end]
}
