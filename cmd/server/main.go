package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhive/task-tracker/internal/api"
	"github.com/taskhive/task-tracker/internal/core/service"
	"github.com/taskhive/task-tracker/internal/core/token"
	mongodb "github.com/taskhive/task-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/taskhive/task-tracker/internal/infrastructure/db/redis"
	"github.com/taskhive/task-tracker/internal/infrastructure/queue"
	"github.com/taskhive/task-tracker/internal/pkg/config"
	"github.com/taskhive/task-tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	eventRepo := mongodb.NewEventRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("user index creation failed")
	}
	if err := taskRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("task index creation failed")
	}
	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("event index creation failed")
	}

	users := redisdb.NewIdentityCache(rdb, userRepo, log)

	// --- Services ---
	codec := token.NewCodec(token.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.TTLSeconds) * time.Second,
	})

	authService := service.NewAuthService(users, codec, log)

	eventService := service.NewEventService(eventRepo, log)
	dispatcher := queue.NewDispatcher(0, eventService, log)
	dispatcher.Start(ctx)

	taskService := service.NewTaskService(taskRepo, dispatcher, log)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		AuthService: authService,
		TaskService: taskService,
		Mongo:       db,
		Redis:       rdb,
		Log:         log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server exited")
}
