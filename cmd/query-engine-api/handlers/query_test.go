package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
	"github.com/helixdata-ai/query-engine/internal/schema"
	"github.com/helixdata-ai/query-engine/internal/store"
)

type stubGenerator struct {
	response string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.response, nil
}

type stubAdapter struct {
	rows []map[string]any
}

func (a *stubAdapter) Initialize(ctx context.Context) error { return nil }
func (a *stubAdapter) ExecuteNativeQuery(ctx context.Context, op domain.Operation, collection string, params domain.NativeParams) ([]map[string]any, error) {
	return a.rows, nil
}
func (a *stubAdapter) Ping(ctx context.Context) error  { return nil }
func (a *stubAdapter) Close(ctx context.Context) error { return nil }

func newHandler(t *testing.T, modelResponse string, rows []map[string]any, defaultSchema *schema.Context) *QueryHandler {
	t.Helper()
	logger := observability.NopLogger()
	st := store.New(&stubAdapter{rows: rows}, logger)
	engine := pipeline.NewEngine(&stubGenerator{response: modelResponse}, st, logger, pipeline.Options{})
	return NewQueryHandler(logger, engine, defaultSchema)
}

const modelSpec = `{"primary_collection": "application_snapshot", "filter": {"application.criticality": "High"}, "limit": 10}`

func TestQuery_Success(t *testing.T) {
	h := newHandler(t, modelSpec, []map[string]any{{"name": "payments-api"}}, nil)

	body := `{"userRequest": "show high criticality apps", "schemaText": "collection: application_snapshot"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp domain.FormattedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "application_snapshot", resp.QueryInfo.PrimaryCollection)
	assert.Equal(t, 1, resp.Results.TotalCount)
}

func TestQuery_MissingUserRequest(t *testing.T) {
	h := newHandler(t, modelSpec, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"schemaText": "x"}`))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "userRequest is required")
}

func TestQuery_MissingSchemaNoDefault(t *testing.T) {
	h := newHandler(t, modelSpec, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"userRequest": "anything"}`))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_DefaultSchemaBacksRequest(t *testing.T) {
	h := newHandler(t, modelSpec, []map[string]any{}, schema.NewContext("collection: application_snapshot"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"userRequest": "anything"}`))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuery_InvalidBody(t *testing.T) {
	h := newHandler(t, modelSpec, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_UnusableModelOutput(t *testing.T) {
	h := newHandler(t, "no JSON here", nil, nil)

	body := `{"userRequest": "anything", "schemaText": "collection: application_snapshot"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "query failed")
}
