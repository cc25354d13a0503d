package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"collect-the-world-backend/handlers"
	"collect-the-world-backend/middleware"
	"collect-the-world-backend/models"
	"collect-the-world-backend/services"
	"collect-the-world-backend/utils"
	"collect-the-world-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // 32MB, captures are photos
	})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originList := strings.Split(allowedOrigins, ",")
	for i, origin := range originList {
		originList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	blobStore, err := utils.NewR2Store()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
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
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	rewardsConfig := services.LoadRewardsConfig()

	statsService := services.NewStatsService(db)
	eventStorage := services.NewEventStorageService(db, statsService)
	objectService := services.NewObjectService(db, statsService)
	if err := objectService.BootstrapCatalog("en"); err != nil {
		log.Fatal("failed to bootstrap catalog:", err)
	}
	skipService := services.NewSkipService(db, statsService, eventStorage)
	wordService := services.NewWordService(db, services.NewOracleClient())
	multiplierService := services.NewMultiplierService(objectService, rewardsConfig)
	leaderboardService := services.NewLeaderboardService(db, services.NewScoresClient())
	streakService := services.NewStreakService(db, statsService)
	challengeService := services.NewChallengeService(db, eventStorage)

	bus := services.NewEventBus()
	streakService.RegisterSubscriber(bus)
	challengeService.RegisterSubscriber(bus)

	imagesService := services.NewImagesService(db, statsService, objectService,
		skipService, wordService, multiplierService, leaderboardService,
		eventStorage, bus, blobStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settlementWorker := workers.NewSettlementWorker(leaderboardService,
		statsService, streakService, eventStorage, rewardsConfig)
	go settlementWorker.Start(ctx)

	purgeScheduler, err := workers.StartPurgeScheduler(statsService, skipService,
		streakService, challengeService, eventStorage)
	if err != nil {
		log.Fatal("failed to start purge scheduler:", err)
	}
	defer func() { _ = purgeScheduler.Shutdown() }()

	handlers.SetupCaptureRoutes(app, imagesService, objectService, skipService, statsService, wordService)
	handlers.SetupBoardRoutes(app, leaderboardService, challengeService, streakService,
		statsService, multiplierService, eventStorage)

	go func() {
		if err := app.Listen(":5122"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5122")
	log.Println("✅ Settlement worker running")
	log.Println("✅ Purge scheduler running (every 10m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
	bus.Close()
}
