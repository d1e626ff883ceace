package commands

import (
	"context"
	"database/sql"
	"fmt"

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

// app bundles the collaborators a CLI command needs.
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	adapter *store.MongoAdapter
	store   *store.Store
	engine  *pipeline.Engine

	auditStore *audit.Store
	auditDB    *sql.DB
}

// newApp loads config and wires the engine. CLI output should stay readable,
// so the logger defaults to warnings unless --verbose is set.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = cfg.Observability.LogLevel
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: cfg.Observability.ServiceName,
	})

	adapter := store.NewMongoAdapter(cfg.Store, logger)
	st := store.New(adapter, logger)

	generator := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRetries:  cfg.LLM.MaxRetries,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	opts := pipeline.Options{}
	if cfg.Pipeline.CacheResults {
		opts.Cache = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		opts.CacheTTL = cfg.Cache.TTL
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		adapter: adapter,
		store:   st,
	}

	if cfg.Audit.Enabled {
		db, err := sql.Open(cfg.Audit.Driver, cfg.Audit.DSN)
		if err == nil {
			if err := audit.Migrate(context.Background(), db); err == nil {
				opts.Audit = audit.NewStore(db, logger)
				a.auditStore = opts.Audit
				a.auditDB = db
			} else {
				db.Close()
			}
		}
	}

	a.engine = pipeline.NewEngine(generator, st, logger, opts)
	return a, nil
}

// close releases connections held by the app.
func (a *app) close(ctx context.Context) {
	_ = a.store.Close(ctx)
	if a.auditDB != nil {
		_ = a.auditDB.Close()
	}
}
