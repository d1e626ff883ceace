package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdata-ai/query-engine/internal/observability"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{APIKey: "sk-or-test-key"}, observability.NopLogger())

	assert.Equal(t, defaultModel, client.model)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, maxRetries, client.retry.MaxRetries)
}

func TestNewClient_CustomModel(t *testing.T) {
	client := NewClient(Config{
		APIKey:     "sk-or-test-key",
		Model:      "google/gemini-2.5-pro",
		MaxRetries: 5,
	}, observability.NopLogger())

	assert.Equal(t, "google/gemini-2.5-pro", client.model)
	assert.Equal(t, 5, client.retry.MaxRetries)
}

func TestGenerate_ReturnsContent(t *testing.T) {
	var gotAuth string
	var gotReq Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Response{
			ID: "gen-1",
			Choices: []Choice{
				{Message: ChoiceMessage{Role: "assistant", Content: `{"primary_collection": "apps"}`}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, observability.NopLogger())

	out, err := client.Generate(context.Background(), "generate a query")
	require.NoError(t, err)
	assert.Equal(t, `{"primary_collection": "apps"}`, out)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "generate a query", gotReq.Messages[0].Content)
}

func TestGenerate_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: ChoiceMessage{Content: "ok"}}},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, observability.NopLogger())
	client.retry.InitialBackoff = time.Millisecond

	out, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "bad-key", BaseURL: srv.URL}, observability.NopLogger())

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load(), "401 must not be retried")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{ID: "gen-2"})
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, observability.NopLogger())

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, observability.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "prompt")
	require.Error(t, err)
}
