// Package main provides the API router setup.
package main

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixdata-ai/query-engine/cmd/query-engine-api/handlers"
	"github.com/helixdata-ai/query-engine/cmd/query-engine-api/middleware"
	grpcapi "github.com/helixdata-ai/query-engine/internal/api/grpc"
	"github.com/helixdata-ai/query-engine/internal/audit"
	"github.com/helixdata-ai/query-engine/internal/config"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
	"github.com/helixdata-ai/query-engine/internal/schema"
	"github.com/helixdata-ai/query-engine/internal/store"
)

// QueryProcedure is the Connect procedure path for the query RPC.
const QueryProcedure = "/queryengine.v1.QueryService/Query"

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, engine *pipeline.Engine, st *store.Store, auditStore *audit.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"query-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Server-side default schema, used when requests omit schema_text
	var defaultSchema *schema.Context
	if cfg.Pipeline.SchemaPath != "" {
		sc, err := schema.LoadFile(cfg.Pipeline.SchemaPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.Pipeline.SchemaPath).Msg("Failed to load default schema")
		} else {
			defaultSchema = sc
		}
	}

	// Initialize handlers
	queryHandler := handlers.NewQueryHandler(logger, engine, defaultSchema)
	auditHandler := handlers.NewAuditHandler(logger, auditStore)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", queryHandler.Query)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/recent", auditHandler.Recent)
			r.Get("/{id}", auditHandler.GetByID)
		})
	})

	// Connect RPC surface
	queryService := grpcapi.NewQueryService(logger, engine)
	r.Mount(QueryProcedure, connect.NewUnaryHandler(QueryProcedure, queryService.Query))

	return r
}
