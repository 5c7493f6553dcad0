package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/batch"
	"github.com/mpre5ley/tts-eval-platform/internal/benchmark"
	"github.com/mpre5ley/tts-eval-platform/internal/catalog"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
	"github.com/mpre5ley/tts-eval-platform/internal/database"
	"github.com/mpre5ley/tts-eval-platform/internal/httpserver"
	"github.com/mpre5ley/tts-eval-platform/internal/observability"
	"github.com/mpre5ley/tts-eval-platform/internal/providers"
	"github.com/mpre5ley/tts-eval-platform/internal/redisclient"
	"github.com/mpre5ley/tts-eval-platform/internal/services/evaluation"
	"github.com/mpre5ley/tts-eval-platform/internal/services/reporting"
	"github.com/mpre5ley/tts-eval-platform/internal/storage/blob"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := database.RunMigrations(ctx, cfg.Database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	dbPool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer dbPool.Close()

	redisClient := redisclient.New(cfg.Redis)
	if err := redisclient.Ping(ctx, redisClient); err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		log.Fatalf("setup observability: %v", err)
	}
	if obs != nil {
		defer obs.Shutdown(ctx)
	}

	artifacts, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("setup audio storage: %v", err)
	}

	manager := providers.NewManager(cfg)
	records := store.New(dbPool)

	var voiceCache *catalog.Cache
	if cfg.VoiceCache.Enabled {
		voiceCache = catalog.NewCache(redisClient, cfg.VoiceCache.TTL, manager.Voices, slog.Default())
	}

	evalService := evaluation.NewService(evaluation.Options{
		Dispatcher:    manager,
		Records:       records,
		Artifacts:     artifacts,
		Observer:      obs,
		MaxTextLength: cfg.Synthesis.MaxTextLength,
	})
	reportingLoc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		log.Fatalf("load reporting timezone: %v", err)
	}
	reportService := reporting.NewService(records, reportingLoc)
	benchRunner := benchmark.NewRunner(benchmark.Options{
		Dispatcher:    manager,
		Records:       records,
		MaxIterations: cfg.Benchmark.MaxIterations,
		MaxTexts:      cfg.Benchmark.MaxTexts,
	})
	batchService := batch.NewService(batch.Options{
		Evaluator:     evalService,
		MaxTasks:      cfg.Batch.MaxTasks,
		MaxTextLength: cfg.Synthesis.MaxTextLength,
		RetainResults: cfg.Batch.RetainResults,
	})

	server, err := httpserver.New(httpserver.Deps{
		Config:        cfg,
		DBPool:        dbPool,
		Redis:         redisClient,
		Observability: obs,
		Manager:       manager,
		VoiceCache:    voiceCache,
		Store:         records,
		Artifacts:     artifacts,
		Evaluation:    evalService,
		Reporting:     reportService,
		Benchmark:     benchRunner,
		Batch:         batchService,
	})
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	slog.Info("tts-eval-platform listening", "addr", cfg.Server.ListenAddr)
	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
