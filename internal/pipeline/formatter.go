package pipeline

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// Formatter normalizes raw store documents into the response envelope.
type Formatter struct {
	logger *observability.Logger
}

// NewFormatter creates a result formatter.
func NewFormatter(logger *observability.Logger) *Formatter {
	return &Formatter{logger: logger}
}

// Format builds the response envelope from executed results. Store-native
// scalar types are converted to JSON-friendly forms. Formatting never fails:
// if normalization panics on an unexpected value shape, a degraded envelope
// carrying the error and the raw rows is returned instead, so the underlying
// data is never lost.
func (f *Formatter) Format(spec *domain.QuerySpec, rows []map[string]any, executionTime time.Duration) (resp *domain.FormattedResponse) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().
				Str("collection", spec.PrimaryCollection).
				Interface("panic", r).
				Msg("Result formatting failed")
			resp = f.fallback(spec, rows, executionTime, r)
		}
	}()

	data := make([]map[string]any, len(rows))
	for i, row := range rows {
		data[i] = normalizeDocument(row)
	}

	joins := spec.Joins
	if joins == nil {
		joins = []domain.JoinSpec{}
	}

	return &domain.FormattedResponse{
		QueryInfo: domain.QueryInfo{
			PrimaryCollection: spec.PrimaryCollection,
			QueryType:         queryType(spec),
			Limit:             spec.Limit,
			Joins:             joins,
			GeneratedQuery:    spec,
		},
		Results: domain.ResultSet{
			TotalCount: len(data),
			Data:       data,
		},
		Summary: domain.Summary{
			ExecutionTime:       formatDuration(executionTime),
			ResultCount:         len(data),
			CollectionsInvolved: CollectionsInvolved(spec),
		},
	}
}

func (f *Formatter) fallback(spec *domain.QuerySpec, rows []map[string]any, executionTime time.Duration, cause any) *domain.FormattedResponse {
	return &domain.FormattedResponse{
		QueryInfo: domain.QueryInfo{
			PrimaryCollection: spec.PrimaryCollection,
			QueryType:         queryType(spec),
			Limit:             spec.Limit,
			Joins:             []domain.JoinSpec{},
			GeneratedQuery:    spec,
		},
		Results: domain.ResultSet{
			TotalCount: len(rows),
			Data: []map[string]any{{
				"error":       fmt.Sprintf("result formatting failed: %v", cause),
				"raw_results": rows,
			}},
		},
		Summary: domain.Summary{
			ExecutionTime:       formatDuration(executionTime),
			ResultCount:         len(rows),
			CollectionsInvolved: CollectionsInvolved(spec),
		},
	}
}

func queryType(spec *domain.QuerySpec) string {
	if spec.Mode() == domain.OpAggregate {
		return "aggregation"
	}
	return "find"
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// normalizeDocument converts one store document into plain JSON-friendly Go
// values, recursively.
func normalizeDocument(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return val.String()
	case primitive.Binary:
		return fmt.Sprintf("%x", val.Data)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case primitive.M:
		return normalizeDocument(val)
	case map[string]any:
		return normalizeDocument(val)
	case primitive.A:
		return normalizeSlice(val)
	case []any:
		return normalizeSlice(val)
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeDocument(item)
		}
		return out
	default:
		return v
	}
}

func normalizeSlice(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = normalizeValue(item)
	}
	return out
}
