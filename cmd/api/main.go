package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventhub/internal/config"
	"github.com/joshua-takyi/eventhub/internal/connect"
	"github.com/joshua-takyi/eventhub/internal/container"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting EventHub API server", "environment", cfg.Environment, "store", cfg.StoreDriver)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cld, err := connect.CloudinaryCredentials(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to Cloudinary", "error", err)
		os.Exit(1)
	}

	// Initialize database connections
	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}

	redisClient, err := connect.RedisConnect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	tokens := helpers.NewTokenValidator(cfg.JWTSecret, cfg.SupabaseURL)

	// Initialize dependency container
	appContainer := container.NewContainer(container.Deps{
		Logger:              logger,
		Store:               store,
		Users:               models.SupabaseNewRepo(supaClient, cfg.SupabaseURL, cfg.SupabaseAnonKey),
		Cloudinary:          cld,
		Redis:               redisClient,
		NotificationChannel: cfg.NotificationChannel,
		Tokens:              tokens,
		SecureCookies:       cfg.IsProduction(),
		CORSOrigins:         cfg.CORSOrigins,
	})

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// pending notifications still need the connections below
	appContainer.Notifier.Shutdown()
	tokens.Close()

	// Close database connections
	connect.Disconnect()
	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func openStore(cfg *config.Config, logger *slog.Logger) (models.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return models.NewMemoryRepo(), nil
	}

	mongoClient, err := connect.MongoDBConnect(cfg, logger)
	if err != nil {
		return nil, err
	}
	repo := models.MongodbNewRepo(mongoClient, cfg.MongoDBDatabase, cfg.MongoDBTransactions)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
