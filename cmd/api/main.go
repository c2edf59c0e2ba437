package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"moodcheck/internal/config"
	apihttp "moodcheck/internal/http"
	"moodcheck/internal/predictor"
	"moodcheck/internal/repository"
	"moodcheck/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client, err := predictor.New(cfg.PredictorMode, cfg.PredictorBaseURL, cfg.PredictorTimeout, logger)
	if err != nil {
		logger.Fatal("predictor init", zap.Error(err))
	}

	var sessions repository.SessionRepository
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			sessions = repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
			logger.Info("using redis sessions", zap.String("addr", cfg.RedisAddr))
		}
		cancel()
	}
	if sessions == nil {
		memSessions := repository.NewMemorySessionRepository(cfg.SessionTTL)
		memSessions.StartSweeper(sweepInterval(cfg.SessionTTL), logger)
		defer memSessions.Close()
		sessions = memSessions
	}

	convSvc := service.NewConversationService(sessions, client, logger, service.WithRevealDelay(cfg.RevealDelay))
	defer convSvc.Close()

	convHandler := apihttp.NewConversationHandler(logger, convSvc)
	router := apihttp.NewRouter(logger, convHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("predictor", cfg.PredictorBaseURL),
		zap.String("predictor_mode", cfg.PredictorMode),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < time.Minute {
		return ttl
	}
	return time.Minute
}
