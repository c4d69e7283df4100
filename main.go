package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"store-manager/internal/config"
	"store-manager/internal/db"
	"store-manager/internal/logger"
	"store-manager/internal/repository"
	"store-manager/internal/router"
)

const redisKeyPrefix = "store-manager:reset"

func main() {
	cfg, dotenv, err := config.LoadConfig()
	if err != nil {
		bootLog := logger.InitLogger(false, "info")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.InitLogger(cfg.IsProduction(), cfg.LogLevel)
	zerolog.DefaultContextLogger = &log
	if !dotenv {
		log.Debug().Msg("No .env file found, using process environment")
	}
	log.Info().Str("env", cfg.AppEnv).Msg("Application starting")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	database, err := db.InitDB(startCtx, cfg.DBUrl, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		cancelStart()
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer database.Close()

	if err := db.RunMigrations(startCtx, database); err != nil {
		cancelStart()
		log.Fatal().Err(err).Msg("Database migration failed")
	}
	log.Info().Msg("Database ready")

	var resets repository.ResetTokenRepository
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		if err := client.Ping(startCtx).Err(); err != nil {
			cancelStart()
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis connection failed")
		}
		resets = repository.NewResetTokenRedis(client, redisKeyPrefix)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Reset tokens stored in Redis")
	}
	cancelStart()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(database, resets, cfg, log),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
