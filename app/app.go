// File: app/app.go
package app

import (
	"context"
	"go-user-api/config"
	"go-user-api/db"
	"go-user-api/handler"
	"go-user-api/logger"
	"go-user-api/repository"
	"go-user-api/router"
	"go-user-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	mongoClient, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	database := mongoClient.Database(config.AppConfig.Mongo.Database)
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		logger.Log.Fatalf("Error ensuring indexes: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	storage, err := service.NewStorageService(context.Background(), service.StorageConfig{
		Region:    config.AppConfig.S3.Region,
		Bucket:    config.AppConfig.S3.Bucket,
		Endpoint:  config.AppConfig.S3.Endpoint,
		AccessKey: config.AppConfig.S3.AccessKey,
		SecretKey: config.AppConfig.S3.SecretKey,
	})
	if err != nil {
		logger.Log.Fatalf("Error creating storage service: %v", err)
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)

	tokenService := service.NewTokenService(
		config.AppConfig.JWT.AccessSecret,
		config.AppConfig.JWT.RefreshSecret,
		config.AppConfig.AccessTokenTTL(),
		config.AppConfig.RefreshTokenTTL(),
	)
	sessionService := service.NewSessionService(userRepo)
	authService := service.NewAuthService(userRepo, tokenService, sessionService)
	userService := service.NewUserService(userRepo, storage, redisClient)

	userHandler := handler.NewUserHandler(userService, authService)
	authMW := handler.NewAuthMiddleware(tokenService, userRepo)

	r := router.NewRouter(userHandler, authMW)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
