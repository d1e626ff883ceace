// Package main provides the Query Engine API server entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/helixdata-ai/query-engine/internal/audit"
	"github.com/helixdata-ai/query-engine/internal/cache"
	"github.com/helixdata-ai/query-engine/internal/config"
	"github.com/helixdata-ai/query-engine/internal/llm"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
	"github.com/helixdata-ai/query-engine/internal/store"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Store.Database).
		Str("model", cfg.LLM.Model).
		Msg("Starting Query Engine API")

	// Document store (connects lazily on first query)
	adapter := store.NewMongoAdapter(cfg.Store, logger)
	st := store.New(adapter, logger)
	defer st.Close(context.Background())

	// Language model client
	generator := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRetries:  cfg.LLM.MaxRetries,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	// Result cache
	var cacheClient cache.Client
	if cfg.Pipeline.CacheResults {
		switch cfg.Cache.Driver {
		case "redis":
			redisClient, err := cache.NewRedisClient(cache.RedisConfig{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
				PoolSize: cfg.Cache.Redis.PoolSize,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("Redis unavailable, falling back to memory cache")
				cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
			} else {
				cacheClient = redisClient
			}
		default:
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
		defer cacheClient.Close()
	}

	// Audit trail
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		db, err := sql.Open(cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			logger.Warn().Err(err).Msg("Audit store unavailable, auditing disabled")
		} else {
			defer db.Close()
			if err := audit.Migrate(context.Background(), db); err != nil {
				logger.Warn().Err(err).Msg("Audit migration failed, auditing disabled")
			} else {
				auditStore = audit.NewStore(db, logger)
			}
		}
	}

	engine := pipeline.NewEngine(generator, st, logger, pipeline.Options{
		Cache:    cacheClient,
		CacheTTL: cfg.Cache.TTL,
		Audit:    auditStore,
	})

	// Initialize router with all handlers
	router := NewRouter(logger, cfg, engine, st, auditStore)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
