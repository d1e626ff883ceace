// Package store provides the document-store adapter and the context object
// owning its connection lifecycle.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// Store owns a document-store adapter and its initialization state. The
// adapter connects lazily, at most once per Store lifetime: concurrent first
// callers share a single initialization attempt and await its completion
// rather than re-triggering it.
type Store struct {
	adapter domain.Adapter
	logger  *observability.Logger

	initOnce sync.Once
	initErr  error
}

// New creates a store around the given adapter. No connection is made until
// the first Ensure call.
func New(adapter domain.Adapter, logger *observability.Logger) *Store {
	return &Store{adapter: adapter, logger: logger}
}

// Ensure initializes the adapter exactly once and returns the outcome of that
// single attempt to every caller.
func (s *Store) Ensure(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.logger.Info().Msg("Initializing document store connection")
		s.initErr = s.adapter.Initialize(ctx)
		if s.initErr != nil {
			s.logger.Error().Err(s.initErr).Msg("Document store initialization failed")
		}
	})
	return s.initErr
}

// Execute runs a native query against the named collection. Collection is an
// explicit parameter on every call; the store holds no per-request state.
func (s *Store) Execute(ctx context.Context, op domain.Operation, collection string, params domain.NativeParams) ([]map[string]any, error) {
	start := time.Now()
	rows, err := s.adapter.ExecuteNativeQuery(ctx, op, collection, params)
	observability.ObserveStoreExecution(string(op), time.Since(start))
	return rows, err
}

// Ping reports store reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.Ensure(ctx); err != nil {
		return err
	}
	return s.adapter.Ping(ctx)
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	return s.adapter.Close(ctx)
}
