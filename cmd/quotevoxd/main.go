package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/export"
	"github.com/quotevox/quotevox-backend/internal/llm"
	"github.com/quotevox/quotevox-backend/internal/llm/openai"
	"github.com/quotevox/quotevox-backend/internal/pipeline"
	"github.com/quotevox/quotevox-backend/internal/ratelimit"
	"github.com/quotevox/quotevox-backend/internal/repository"
	"github.com/quotevox/quotevox-backend/internal/server"
	"github.com/quotevox/quotevox-backend/internal/storage"
	"github.com/quotevox/quotevox-backend/internal/stt/whisper"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a dead redis degrades rather than blocks.
			logger.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
	} else {
		logger.Warn("REDIS_ADDR not set; rate limiting disabled")
	}
	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.MaxCalls, cfg.RateLimit.Window, logger)

	intakes := repository.NewIntakeRepository(pool, logger)
	customers := repository.NewCustomerRepository(pool, logger)
	pricing := repository.NewPricingProfileRepository(pool, logger)
	catalog := repository.NewCatalogRepository(pool, logger)
	quotes := repository.NewQuoteStore(pool, logger)

	assets := storage.NewHTTPAssetStore(cfg.Assets.BaseURL, cfg.Assets.Token, cfg.Assets.Timeout, logger)
	transcriber := whisper.NewClient(whisper.Config{
		BaseURL: cfg.STT.BaseURL,
		APIKey:  cfg.STT.APIKey,
		Model:   cfg.STT.Model,
		Timeout: cfg.STT.Timeout,
	}, logger)
	completer := openai.NewClient(openai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	extractor := llm.NewExtractor(completer, logger)

	processor := pipeline.NewProcessor(
		pipeline.NewTranscribeStage(intakes, assets, transcriber, logger),
		pipeline.NewExtractStage(intakes, customers, pricing, catalog, extractor, limiter, logger),
		pipeline.NewMaterializeStage(quotes, pricing, logger),
		logger,
	)
	exporter := export.NewService(quotes, pricing, logger)

	srv := server.New(cfg.Server, processor, intakes, quotes, exporter, limiter, pool, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
	logger.Info("stopped")
}
