package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"butik/backend/internal/cache"
	"butik/backend/internal/clock"
	"butik/backend/internal/config"
	"butik/backend/internal/events"
	"butik/backend/internal/httpapi"
	"butik/backend/internal/jobs"
	"butik/backend/internal/kv"
	"butik/backend/internal/logging"
	"butik/backend/internal/pricing"
	"butik/backend/internal/service"
	"butik/backend/internal/store"
	"butik/backend/internal/store/memory"
	pgstore "butik/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closers, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("repository unavailable", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	cacheStore := cache.SuggestionCache(cache.NoopSuggestionCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSuggestionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, suggestions will not be cached", zap.Error(err))
			_ = redisCache.Close()
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("suggestion cache: redis")
		}
	}

	var generator pricing.Generator
	if cfg.AIEnabled() {
		gemini, err := pricing.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client init failed, pricing suggestions disabled", zap.Error(err))
		} else {
			generator = gemini
			logger.Info("pricing suggestions: gemini", zap.String("model", cfg.GeminiModel))
		}
	} else {
		logger.Info("pricing suggestions disabled, GEMINI_API_KEY not set")
	}
	advisor := pricing.NewAdvisor(generator, cacheStore, time.Duration(cfg.AISuggestionTTLSeconds)*time.Second, logger)

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, sale events will not be published", zap.Error(err))
		} else {
			publisher = rabbit
			closers = append(closers, rabbit.Close)
			logger.Info("sale events: rabbitmq")
		}
	}

	svc := service.New(repo, advisor,
		service.WithPublisher(publisher),
		service.WithLogger(logger),
	)

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.OperatorUsername, cfg.OperatorPassword, clock.RealClock{})
	if err != nil {
		logger.Fatal("auth setup failed", zap.Error(err))
	}
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	scheduler := jobs.NewScheduler(svc, cfg.LowStockThreshold, logger)
	if err := scheduler.Register(cfg.ReportSchedule); err != nil {
		logger.Warn("scheduled reports disabled", zap.Error(err))
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("butik backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// openRepository picks the backing store for STORAGE_DRIVER. The kv drivers
// keep the product and sales lists in memory and mirror them to storage.
func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Repository, []func() error, error) {
	closers := make([]func() error, 0, 3)

	var storage kv.Storage
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, clock.RealClock{})
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		seeded, err := pg.SeedIfEmpty(ctx)
		if err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		logger.Info("repository: postgres", zap.Bool("seeded", seeded))
		return pg, append(closers, pg.Close), nil
	case config.StorageBolt, "":
		bolt, err := kv.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		storage = bolt
		logger.Info("repository: bolt", zap.String("path", cfg.BoltPath))
	case config.StorageRedis:
		if cfg.RedisAddr == "" {
			return nil, nil, errors.New("REDIS_ADDR is required for the redis driver")
		}
		redisStorage := kv.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStorage.Ping(ctx); err != nil {
			_ = redisStorage.Close()
			return nil, nil, err
		}
		storage = redisStorage
		logger.Info("repository: redis", zap.String("addr", cfg.RedisAddr))
	case config.StorageMemory:
		storage = kv.NewMemoryStorage()
		logger.Warn("repository: memory, data is lost on restart")
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	repo, err := memory.NewSeeded(ctx, storage, memory.WithLogger(logger))
	if err != nil {
		_ = storage.Close()
		return nil, nil, err
	}
	return repo, append(closers, storage.Close), nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.OperatorUsername == "" {
		return fmt.Errorf("OPERATOR_USERNAME must be set")
	}
	if err := validatePasswordStrength(cfg.OperatorPassword); err != nil {
		return fmt.Errorf("OPERATOR_PASSWORD is too weak: %w", err)
	}
	return nil
}

// validatePasswordStrength rejects short, single-character and well-known
// passwords. A bcrypt hash is trusted as is.
func validatePasswordStrength(password string) error {
	if strings.HasPrefix(password, "$2a$") || strings.HasPrefix(password, "$2b$") || strings.HasPrefix(password, "$2y$") {
		return nil
	}
	if len(password) < 10 {
		return fmt.Errorf("at least 10 characters required")
	}

	known := map[string]bool{
		"password123": true, "1234567890": true, "qwertyuiop": true,
		"admin12345": true, "password1234": true, "0987654321": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("single-character password not allowed")
	}
	return nil
}
