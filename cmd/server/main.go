package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/api"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/chat"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/config"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Select the backing store once at startup. If PostgreSQL is not
	// configured or unreachable, fall back to the in-memory store so chat
	// stays usable; conversations then live only as long as the process.
	var dataStore store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable, using in-memory store")
			dataStore = store.NewMemoryStore()
		} else {
			logger.Info().Msg("connected to PostgreSQL")
			dataStore = pgStore
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		dataStore = store.NewMemoryStore()
	}
	defer dataStore.Close()

	// Redis is optional; without it rate limits are not enforced.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			redisClient = nil
		} else {
			logger.Info().Msg("connected to Redis")
			defer redisClient.Close()
		}
	}

	hub := realtime.NewHub(logger)
	notifier := chat.NewNotifier(dataStore, hub, logger)
	service := chat.NewService(dataStore, hub, notifier, logger)

	// Create router
	router := api.NewRouter(api.Deps{
		Logger:      logger,
		Store:       dataStore,
		Hub:         hub,
		Chat:        service,
		Notifier:    notifier,
		RedisClient: redisClient,
		JWTSecret:   cfg.JWTSecret,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting WorkLink chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
