package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hubia/hubia/internal/alias"
	"github.com/hubia/hubia/internal/api"
	"github.com/hubia/hubia/internal/archive"
	"github.com/hubia/hubia/internal/cache"
	cachepostgres "github.com/hubia/hubia/internal/cache/postgres"
	cachesqlite "github.com/hubia/hubia/internal/cache/sqlite"
	"github.com/hubia/hubia/internal/config"
	"github.com/hubia/hubia/internal/llm"
	"github.com/hubia/hubia/internal/observability"
	"github.com/hubia/hubia/internal/pipeline"
	"github.com/hubia/hubia/internal/prompt"
	duckdbengine "github.com/hubia/hubia/internal/query/duckdb"
	"github.com/hubia/hubia/internal/schema"
	s3store "github.com/hubia/hubia/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("hubia-server")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	aliases, err := alias.Load(cfg.Aliases.Path)
	if err != nil {
		logger.Error("failed to load table aliases", slog.Any("error", err))
		os.Exit(1)
	}

	inspector, err := schema.NewInspector(cfg.Data.Path)
	if err != nil {
		logger.Error("failed to initialize schema inspector", slog.Any("error", err))
		os.Exit(1)
	}

	engine, err := duckdbengine.NewEngine(cfg.Data.Path, cfg.Data.RowLimit)
	if err != nil {
		logger.Error("failed to initialize query engine", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := openCache(cfg)
	if err != nil {
		logger.Error("failed to open response cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	generator, err := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.GenerateTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize model client", slog.Any("error", err))
		os.Exit(1)
	}
	interpreter, err := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.InterpretTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize model client", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize answer archive store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = &archive.Archiver{ObjectStore: objectStore, Logger: logger}
		go func() {
			if err := archiver.Run(ctx); err != nil {
				logger.Error("answer archiver stopped", slog.Any("error", err))
			}
		}()
	}

	service := &pipeline.Service{
		Schema:           inspector,
		Prompts:          &prompt.Builder{DatabaseName: cfg.Data.Path, Aliases: aliases},
		Generator:        generator,
		Interpreter:      interpreter,
		Cache:            store,
		Engine:           engine,
		Archive:          archiver,
		Logger:           logger,
		GenerateTimeout:  cfg.Model.GenerateTimeout,
		InterpretTimeout: cfg.Model.InterpretTimeout,
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Pipeline: service,
		Schema:   inspector,
		Aliases:  aliases,
		Readiness: api.CombineReadinessChecks(
			api.CheckDataFile(cfg),
			api.CheckModelConfig(cfg),
		),
		DependencyTimeout: time.Second,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openCache(cfg config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == config.CacheBackendPostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return cachepostgres.Open(ctx, cachepostgres.Config{
			DSN:             cfg.Cache.DSN,
			MaxOpenConns:    cfg.Cache.MaxOpenConns,
			MaxIdleConns:    cfg.Cache.MaxIdleConns,
			ConnMaxIdleTime: cfg.Cache.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Cache.ConnMaxLifetime,
		})
	}
	return cachesqlite.New(cfg.Cache.Path)
}
