package domain

import "context"

// Generator defines the injected language-model capability. Provider clients
// (transport, auth, retry) live behind this interface; the pipeline treats any
// failure opaquely as a model invocation error and never retries internally.
type Generator interface {
	// Generate sends a prompt to the model and returns its raw text output
	Generate(ctx context.Context, prompt string) (string, error)
}

// Adapter defines the document-store capability. Collection selection is an
// explicit parameter on every call: the adapter holds no "current collection"
// state, so concurrent requests targeting different collections cannot race.
type Adapter interface {
	// Initialize establishes the store connection; called at most once per
	// store lifetime, guarded by the owning Store
	Initialize(ctx context.Context) error

	// ExecuteNativeQuery runs a find or aggregate against the named collection
	// and returns store-native rows
	ExecuteNativeQuery(ctx context.Context, op Operation, collection string, params NativeParams) ([]map[string]any, error)

	// Ping reports store reachability for health checks
	Ping(ctx context.Context) error

	// Close releases the store connection
	Close(ctx context.Context) error
}
