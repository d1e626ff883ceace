package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/store"
)

// Executor dispatches a validated spec against the document store.
type Executor struct {
	store  *store.Store
	logger *observability.Logger
}

// NewExecutor creates an executor over the given store.
func NewExecutor(st *store.Store, logger *observability.Logger) *Executor {
	return &Executor{store: st, logger: logger}
}

// Execute runs the spec and returns raw result documents. The primary
// collection is checked before the store is touched; find and aggregate are
// mutually exclusive paths chosen by the spec's execution plan.
func (e *Executor) Execute(ctx context.Context, spec *domain.QuerySpec) ([]map[string]any, error) {
	if spec.PrimaryCollection == "" {
		return nil, domain.MissingCollectionError("query spec has no primary collection")
	}
	if err := e.store.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("document store unavailable: %w", err)
	}

	switch plan := spec.Plan().(type) {
	case *domain.AggregatePlan:
		return e.executeAggregate(ctx, spec.PrimaryCollection, plan)
	case *domain.FindPlan:
		return e.executeFind(ctx, spec.PrimaryCollection, plan)
	default:
		return nil, fmt.Errorf("unknown execution plan %T", plan)
	}
}

func (e *Executor) executeAggregate(ctx context.Context, collection string, plan *domain.AggregatePlan) ([]map[string]any, error) {
	// The terminal limit stage is appended to an execution-time copy; the
	// spec's own pipeline stays as the model produced it.
	pipeline := slices.Clone(plan.Pipeline)
	if plan.Limit > 0 {
		pipeline = append(pipeline, map[string]any{"$limit": plan.Limit})
	}

	e.logger.Debug().
		Str("collection", collection).
		Int("stages", len(pipeline)).
		Msg("Executing aggregation pipeline")

	rows, err := e.store.Execute(ctx, domain.OpAggregate, collection, domain.NativeParams{Pipeline: pipeline})
	if err != nil {
		return nil, domain.AggregationExecutionError("aggregation failed", err)
	}
	return rows, nil
}

func (e *Executor) executeFind(ctx context.Context, collection string, plan *domain.FindPlan) ([]map[string]any, error) {
	params := domain.NativeParams{
		Filter:     plan.Filter,
		Projection: plan.Projection,
		Limit:      plan.Limit,
	}
	// An empty sort document is never passed through; only a populated sort
	// reaches the store.
	if len(plan.Sort) > 0 {
		params.Sort = plan.Sort
	}

	e.logger.Debug().
		Str("collection", collection).
		Int64("limit", plan.Limit).
		Msg("Executing find query")

	rows, err := e.store.Execute(ctx, domain.OpFind, collection, params)
	if err != nil {
		return nil, domain.FindExecutionError("find failed", err)
	}
	return rows, nil
}
