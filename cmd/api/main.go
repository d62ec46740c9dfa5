// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"military-logistics-api-server/config"
	"military-logistics-api-server/internal/api/handlers"
	"military-logistics-api-server/internal/api/routes"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/database"
	"military-logistics-api-server/internal/logging"
	"military-logistics-api-server/internal/s3"
	"military-logistics-api-server/internal/service"
	"military-logistics-api-server/internal/socket"
	"military-logistics-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("Could not initialize logging: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to MongoDB
	client, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		fatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.Mongo.DBName)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		fatal("Failed to create indexes", err)
	}
	stores := store.NewMongoStores(db)

	// 3. Seed the first admin
	if err := database.SeedAdmin(ctx, stores.Users, cfg.Seed); err != nil {
		fatal("Failed to seed admin", err)
	}

	// 4. Token revocation
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal("Failed to connect to Redis", err)
		}
		revoker = auth.NewRedisRevoker(rdb)
		slog.Info("Token revocation backed by Redis", "addr", cfg.Redis.Addr)
	} else {
		slog.Warn("REDIS_ADDR not set, token revocation kept in memory")
	}

	// 5. Attachment storage
	var uploader handlers.FileUploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			fatal("Failed to initialize S3 uploader", err)
		}
		uploader = s3Uploader
	} else {
		slog.Warn("S3_BUCKET not set, attachment uploads disabled")
	}

	// 6. Services and router
	hub := socket.NewHub()
	router := routes.SetupRouter(routes.Deps{
		Config:   cfg,
		Services: service.New(stores, hub),
		Tokens:   auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration),
		Revoker:  revoker,
		Uploader: uploader,
		Hub:      hub,
	})

	// 7. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Failed to run server", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
