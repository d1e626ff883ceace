package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

type fakeAdapter struct {
	initCalls atomic.Int32
	initErr   error

	lastOp         domain.Operation
	lastCollection string
	lastParams     domain.NativeParams
	rows           []map[string]any
	execErr        error
}

func (f *fakeAdapter) Initialize(ctx context.Context) error {
	f.initCalls.Add(1)
	return f.initErr
}

func (f *fakeAdapter) ExecuteNativeQuery(ctx context.Context, op domain.Operation, collection string, params domain.NativeParams) ([]map[string]any, error) {
	f.lastOp = op
	f.lastCollection = collection
	f.lastParams = params
	return f.rows, f.execErr
}

func (f *fakeAdapter) Ping(ctx context.Context) error  { return nil }
func (f *fakeAdapter) Close(ctx context.Context) error { return nil }

func TestEnsure_InitializesOnce(t *testing.T) {
	adapter := &fakeAdapter{}
	s := New(adapter, observability.NopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Ensure(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), adapter.initCalls.Load())
}

func TestEnsure_FailureIsSticky(t *testing.T) {
	adapter := &fakeAdapter{initErr: errors.New("connection refused")}
	s := New(adapter, observability.NopLogger())

	err1 := s.Ensure(context.Background())
	err2 := s.Ensure(context.Background())

	require.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, int32(1), adapter.initCalls.Load())
}

func TestExecute_DelegatesToAdapter(t *testing.T) {
	adapter := &fakeAdapter{rows: []map[string]any{{"name": "app-1"}}}
	s := New(adapter, observability.NopLogger())

	params := domain.NativeParams{
		Filter: map[string]any{"application.criticality": "High"},
		Limit:  25,
	}
	rows, err := s.Execute(context.Background(), domain.OpFind, "application_snapshot", params)

	require.NoError(t, err)
	assert.Equal(t, adapter.rows, rows)
	assert.Equal(t, domain.OpFind, adapter.lastOp)
	assert.Equal(t, "application_snapshot", adapter.lastCollection)
	assert.Equal(t, params, adapter.lastParams)
}

func TestSortDocument_PreservesOrder(t *testing.T) {
	fields := domain.SortFields{
		{Key: "year", Value: -1},
		{Key: "name", Value: 1},
		{Key: "score", Value: -1},
	}

	doc := sortDocument(fields)

	require.Len(t, doc, 3)
	assert.Equal(t, bson.D{
		{Key: "year", Value: -1},
		{Key: "name", Value: 1},
		{Key: "score", Value: -1},
	}, doc)
}
