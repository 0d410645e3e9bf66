// solforum/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"solforum/auth"
	"solforum/cache"
	"solforum/config"
	"solforum/database"
	"solforum/handlers"
	"solforum/models"
	"solforum/utils"

	"github.com/joho/godotenv"
)

type Application struct {
	db          *database.DatabaseService
	sessions    *auth.Manager
	rateLimiter *models.RateLimiter
	storage     models.StorageService
	logger      *slog.Logger
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService    { return a.db }
func (a *Application) Sessions() *auth.Manager          { return a.sessions }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Storage() models.StorageService   { return a.storage }
func (a *Application) Logger() *slog.Logger             { return a.logger }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment")
	}

	// --- External Configuration ---
	port := utils.GetEnv("SOLFORUM_PORT", "8080")
	dbPath := utils.GetEnv("SOLFORUM_DB_PATH", "./solforum.db?_journal_mode=WAL&_foreign_keys=on")
	avatarDir := utils.GetEnv("SOLFORUM_AVATAR_DIR", "./avatars")

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("SOLFORUM_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid SOLFORUM_RATE_EVERY duration, using default", "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("SOLFORUM_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid SOLFORUM_RATE_BURST integer, using default", "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("SOLFORUM_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("SOLFORUM_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	// --- Optional Redis Cache ---
	if addr := utils.GetEnv("SOLFORUM_REDIS_ADDR", ""); addr != "" {
		redisDB, _ := strconv.Atoi(utils.GetEnv("SOLFORUM_REDIS_DB", "0"))
		c := cache.New(addr, utils.GetEnv("SOLFORUM_REDIS_PASSWORD", ""), redisDB, logger)
		dbService.SetCache(c)
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	// --- Storage Service Init ---
	var storageService models.StorageService
	if utils.GetEnv("SOLFORUM_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("SOLFORUM_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("SOLFORUM_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("SOLFORUM_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("SOLFORUM_S3_BUCKET", "")
		region := utils.GetEnv("SOLFORUM_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("SOLFORUM_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("SOLFORUM_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
		avatarDir = "" // avatars are served from S3, not locally
	} else {
		if err := os.MkdirAll(avatarDir, 0755); err != nil {
			logger.Error("FATAL: Could not create avatar directory", "path", avatarDir, "error", err)
			os.Exit(1)
		}
		storageService = &utils.LocalStorage{AvatarDir: avatarDir}
		logger.Info("Local Storage initialized", "dir", avatarDir)
	}

	sessions := auth.NewManager(dbService.DB, config.SessionMaxAgeDays*24*time.Hour)
	go func() {
		for range time.Tick(1 * time.Hour) {
			if err := sessions.PruneExpired(); err != nil {
				logger.Error("Failed to prune expired sessions", "error", err)
			}
		}
	}()

	app := &Application{
		db:          dbService,
		sessions:    sessions,
		rateLimiter: models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		storage:     storageService,
		logger:      logger,
	}

	mux := handlers.SetupRouter(app, avatarDir)

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("solforum server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
