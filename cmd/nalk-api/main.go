// cmd/nalk-api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nalk-analytics/internal/api"
	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/config"
	"nalk-analytics/internal/common/database"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/llm"
	"nalk-analytics/internal/common/logger"
	"nalk-analytics/internal/common/observability"
	"nalk-analytics/internal/models"
	"nalk-analytics/internal/pipeline"
	"nalk-analytics/pkg/registry"

	agg "nalk-analytics/internal/workers/nalk-ai/aggregate-results"
	aq "nalk-analytics/internal/workers/nalk-ai/analyze-question"
	ca "nalk-analytics/internal/workers/nalk-ai/compose-answer"
	li "nalk-analytics/internal/workers/nalk-ai/log-interaction"
	qd "nalk-analytics/internal/workers/nalk-ai/query-deals"
	rtf "nalk-analytics/internal/workers/nalk-ai/resolve-temporal-filter"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// redisOrNil unwraps the optional cache client; nil disables caching.
func redisOrNil(c *database.RedisClient) *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting nalk-api...",
		zap.String("environment", cfg.App.Environment),
		zap.String("llmProvider", cfg.LLM.Provider),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics unavailable", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(errors.NewDatabaseConnectionFailedError(err)))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := pg.EnsureInteractionsTable(ctx, cfg.Pipeline.InteractionsTable); err != nil {
		zapLog.Error("interactions table unavailable, audit writes will fail", zap.Error(err))
	}

	// --- Init Redis (optional) with retry ---
	checks := map[string]api.Pinger{"postgres": pg}
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks["redis"] = redisClient
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Field metadata, loaded once ---
	var fields *registry.FieldRegistry
	if cfg.Pipeline.MetadataPath != "" {
		fields, err = registry.LoadFieldMetadata(cfg.Pipeline.MetadataPath)
		if err != nil {
			zapLog.Error("field metadata not loaded, prompts will omit field descriptions",
				zap.Error(errors.NewMetadataLoadFailedError(cfg.Pipeline.MetadataPath, err)))
			fields = nil
		} else {
			for _, problem := range fields.Validate(models.DealColumns) {
				zapLog.Warn("field metadata problem", zap.String("problem", problem))
			}
			zapLog.Info("Field metadata loaded", zap.Int("fields", len(fields.Fields)))
		}
	}

	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		zapLog.Fatal("llm client init failed", zap.Error(err))
	}

	// --- Stages ---
	rdb := redisOrNil(redisClient)
	stages := pipeline.Stages{
		Analyzer:   aq.NewHandler(aq.LoadConfig(cfg), llmClient, fields, log),
		Resolver:   rtf.NewHandler(rtf.LoadConfig(cfg), log),
		Query:      qd.NewHandler(qd.LoadConfig(cfg), pg.DB, rdb, log),
		Aggregator: agg.NewHandler(agg.LoadConfig(cfg), llmClient, log),
		Composer:   ca.NewHandler(ca.LoadConfig(cfg), llmClient, log),
		Recorder:   li.NewHandler(li.LoadConfig(cfg), pg.DB, log),
	}
	answerer := pipeline.New(pipeline.LoadConfig(cfg), stages, obs, log)

	// --- Zeebe workers (optional) ---
	var zeebe *camunda.Client
	var workers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		if err != nil {
			zapLog.Error("zeebe unavailable, job workers not started", zap.Error(err))
		} else {
			zc := zeebe.GetClient()
			handlers := []struct {
				taskType string
				handler  camunda.JobHandler
			}{
				{aq.TaskType, stages.Analyzer},
				{rtf.TaskType, stages.Resolver},
				{qd.TaskType, stages.Query},
				{agg.TaskType, stages.Aggregator},
				{ca.TaskType, stages.Composer},
				{li.TaskType, stages.Recorder},
				{pipeline.TaskType, pipeline.NewWorker(answerer, log)},
			}
			for _, h := range handlers {
				if w := camunda.StartWorker(zc, h.taskType, config.GetWorkerConfig(cfg, h.taskType), h.handler, zapLog); w != nil {
					workers = append(workers, w)
				}
			}
			zapLog.Info("Zeebe workers registered", zap.Int("count", len(workers)))
		}
	}

	// --- HTTP server ---
	srv := api.NewServer(answerer, checks, cfg.Server.AllowedOrigins, log)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown error", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("nalk-api stopped gracefully")
}
