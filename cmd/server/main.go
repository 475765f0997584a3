package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/api"
	"github.com/xiaoxiunique/xhs-poster/internal/cache"
	"github.com/xiaoxiunique/xhs-poster/internal/db"
	"github.com/xiaoxiunique/xhs-poster/internal/ingest"
	"github.com/xiaoxiunique/xhs-poster/internal/publisher"
	"github.com/xiaoxiunique/xhs-poster/internal/session"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
	"github.com/xiaoxiunique/xhs-poster/pkg/config"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting xhs-poster server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the database and migrate the schema
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Redis is optional; a nil cache disables caching
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Repositories
	repo := db.NewRepository(database.DB)
	accounts := db.NewAccountRepository(repo)
	posts := db.NewPostRepository(repo)
	materials := db.NewMaterialRepository(repo)
	kv := db.NewKvRepository(repo)

	// Core components; each platform client is bound to one credential
	newClient := func(cookie string) *xhs.Client {
		return xhs.New(cookie, &cfg.Platform)
	}
	sessionMgr := session.New(accounts, func(cookie string) session.Prober {
		return newClient(cookie)
	})
	pipeline := publisher.New(posts, kv, sessionMgr, func(cookie string) publisher.NoteCreator {
		return newClient(cookie)
	})
	importer := ingest.New(materials, sessionMgr, func(cookie string) ingest.Lister {
		return newClient(cookie)
	})
	importer.PageSize = cfg.Importer.PageSize
	importer.MaxPages = cfg.Importer.MaxPages

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(sessionMgr, pipeline, importer, accounts, materials, redisCache, newClient)
	router.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
