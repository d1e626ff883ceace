package grpc

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
	"github.com/helixdata-ai/query-engine/internal/pipeline"
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

func newService(modelResponse string, rows []map[string]any) *QueryService {
	logger := observability.NopLogger()
	st := store.New(&stubAdapter{rows: rows}, logger)
	engine := pipeline.NewEngine(&stubGenerator{response: modelResponse}, st, logger, pipeline.Options{})
	return NewQueryService(logger, engine)
}

func TestQuery_RequiredFields(t *testing.T) {
	svc := newService("", nil)

	_, err := svc.Query(context.Background(), connect.NewRequest(&QueryRequest{SchemaText: "x"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = svc.Query(context.Background(), connect.NewRequest(&QueryRequest{UserRequest: "x"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestQuery_Success(t *testing.T) {
	svc := newService(
		`{"primary_collection": "application_snapshot", "filter": {}, "limit": 5}`,
		[]map[string]any{{"name": "payments-api"}},
	)

	resp, err := svc.Query(context.Background(), connect.NewRequest(&QueryRequest{
		UserRequest: "list applications",
		SchemaText:  "collection: application_snapshot",
	}))
	require.NoError(t, err)

	require.NotNil(t, resp.Msg.QueryInfo)
	assert.Equal(t, "application_snapshot", resp.Msg.QueryInfo.PrimaryCollection)
	assert.Equal(t, "find", resp.Msg.QueryInfo.QueryType)
	assert.Equal(t, 1, resp.Msg.Results.TotalCount)
	assert.Equal(t, []string{"application_snapshot"}, resp.Msg.Summary.CollectionsInvolved)
}

func TestQuery_ModelOutputUnusable(t *testing.T) {
	svc := newService("no JSON here", nil)

	_, err := svc.Query(context.Background(), connect.NewRequest(&QueryRequest{
		UserRequest: "list applications",
		SchemaText:  "collection: application_snapshot",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}
