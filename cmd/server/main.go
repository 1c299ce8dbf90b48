package main

import (
	"context"
	"ctchen222/TaskManager/internal/api/controller"
	apirepository "ctchen222/TaskManager/internal/api/repository"
	"ctchen222/TaskManager/internal/api/service"
	"ctchen222/TaskManager/internal/auth"
	"ctchen222/TaskManager/internal/config"
	"ctchen222/TaskManager/internal/db"
	"ctchen222/TaskManager/internal/logger"
	"ctchen222/TaskManager/internal/repository"
	"ctchen222/TaskManager/internal/server"
	"ctchen222/TaskManager/internal/telemetry"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

var version = "v0.1.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, telemetry.Config{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	// Initialize SQLite DB
	DB, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open sqlite db: %v", err)
	}
	defer DB.Close()
	if err := db.InitializeSchema(ctx, DB); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.SecretKey,
		Algorithm:  cfg.Algorithm,
		AccessTTL:  cfg.AccessTokenTTL(),
		RefreshTTL: cfg.RefreshTokenTTL(),
	})
	if err != nil {
		log.Fatalf("failed to initialize token service: %v", err)
	}

	// Create repositories
	store := apirepository.NewStore(DB)

	var userOpts []service.UserServiceOption
	if cfg.LoginLimiterEnabled() {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisConnString)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()

		attempts := repository.NewLoginAttemptRepository(rdb, cfg.LoginLockoutWindow)
		userOpts = append(userOpts, service.WithLoginAttempts(attempts, cfg.LoginMaxAttempts))
		slog.Info("login limiter enabled", "max_attempts", cfg.LoginMaxAttempts, "window", cfg.LoginLockoutWindow)
	}

	// Create services
	userService := service.NewUserService(store.Users, store, tokens, cfg.BcryptCost, userOpts...)
	taskService := service.NewTaskService(store.Tasks, store)

	// Create controllers
	userController := controller.NewUserController(userService)
	taskController := controller.NewTaskController(taskService)

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(userController, taskController, auth.NewIdentityResolver(tokens, store.Users), DB)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("http server started", "addr", cfg.HTTPAddr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exiting")
}
