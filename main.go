package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-progress-system/cache"
	"study-progress-system/config"
	"study-progress-system/handlers"
	"study-progress-system/middleware"
	"study-progress-system/models"
	"study-progress-system/services"
	"study-progress-system/utils"
	"study-progress-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const uploadDir = "./uploads"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		fatal("failed to connect to database", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		fatal("failed to migrate database", err)
	}

	var icons services.IconStore
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			fatal("failed to initialize R2 client", err)
		}
		icons = r2
	} else {
		local, err := utils.NewLocalStore(uploadDir, "/uploads")
		if err != nil {
			fatal("failed to ensure upload dir", err)
		}
		slog.Info("R2 not configured, storing icons locally", "dir", uploadDir)
		icons = local
	}

	var board services.LeaderboardCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, leaderboard served from database", "error", err)
		} else {
			defer client.Close()
			board = cache.NewLeaderboard(client)
		}
	}

	users := services.NewUserService(db)
	achievements := services.NewAchievementService(db, icons)
	if err := achievements.SeedDefaults(); err != nil {
		fatal("failed to seed achievements", err)
	}
	leaderboard := services.NewLeaderboardService(db, board)
	progression := services.NewProgressionService(db, achievements, leaderboard)
	streaks := services.NewStreakService(db, cfg.StreakLookback)

	if err := leaderboard.Rebuild(ctx); err != nil {
		slog.Warn("initial leaderboard rebuild failed", "error", err)
	}
	if _, err := services.StartScheduler(ctx, streaks, leaderboard); err != nil {
		fatal("failed to start scheduler", err)
	}
	if cfg.ProfileSyncURL != "" {
		workers.NewProfileSyncWorker(db, cfg.ProfileSyncURL, cfg.ServiceToken).Start(ctx)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Origins(),
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
		MaxAge:        86400,
	}))
	// only the gateway may call this service
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))
	app.Static("/uploads", uploadDir)

	handlers.SetupRoutes(app, handlers.Services{
		Users:        users,
		Progression:  progression,
		Achievements: achievements,
		Tasks:        services.NewTaskService(db, progression),
		Sessions:     services.NewSessionService(db, progression, streaks),
		Analytics:    services.NewAnalyticsService(db, streaks, users),
		Leaderboard:  leaderboard,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()
	slog.Info("server running", "port", cfg.Port, "origins", cfg.Origins(), "redis", board != nil, "r2", cfg.R2.Enabled())

	<-ctx.Done()
	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
