package xai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Provider 测试
// =============================================================================

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "grok-4",
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	return p, srv
}

func TestProvider_Completion(t *testing.T) {
	var gotAuth string
	var gotBody wireRequest

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(wireResponse{
			ID:    "cmpl-1",
			Model: "grok-4",
			Choices: []wireChoice{
				{Index: 0, FinishReason: "stop", Message: wireMessage{Role: "assistant", Content: "Focus on Go and SQL."}},
			},
			Usage:   &wireUsage{PromptTokens: 42, CompletionTokens: 17, TotalTokens: 59},
			Created: time.Now().Unix(),
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a career advisor."},
			{Role: llm.RoleUser, Content: "What should I learn next?"},
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "grok-4", gotBody.Model)
	assert.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)

	assert.Equal(t, "xai", resp.Provider)
	assert.Equal(t, "Focus on Go and SQL.", resp.Text())
	assert.Equal(t, 59, resp.Usage.TotalTokens)
}

func TestProvider_Completion_ModelOverride(t *testing.T) {
	var gotBody wireRequest
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(wireResponse{Model: gotBody.Model})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "grok-4-mini",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "grok-4-mini", gotBody.Model)
}

func TestProvider_Completion_NoAPIKey(t *testing.T) {
	p := New(Config{}, zap.NewNop())
	assert.False(t, p.Configured())

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrProviderUnavailable, llmErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, llmErr.HTTPStatus)
}

func TestProvider_Completion_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      llm.ErrorCode
		wantRetryable bool
	}{
		{"unauthorized", 401, `{"error":{"message":"invalid key"}}`, llm.ErrUnauthorized, false},
		{"rate limited", 429, `{"error":{"message":"slow down"}}`, llm.ErrRateLimited, true},
		{"quota in 400", 400, `{"error":{"message":"monthly quota exceeded"}}`, llm.ErrQuotaExceeded, false},
		{"bad request", 400, `{"error":{"message":"bad messages"}}`, llm.ErrInvalidRequest, false},
		{"bad gateway", 502, "upstream exploded", llm.ErrUpstreamError, true},
		{"overloaded", 529, `{"error":{"message":"overloaded"}}`, llm.ErrModelOverloaded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})

			var llmErr *llm.Error
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, tt.wantCode, llmErr.Code)
			assert.Equal(t, tt.wantRetryable, llmErr.Retryable)
			assert.Equal(t, tt.status, llmErr.HTTPStatus)
		})
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	})

	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestProvider_HealthCheck_Unhealthy(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	status, err := p.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}

func TestProvider_ListModels(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]string{
				{"id": "grok-4", "owned_by": "xai"},
				{"id": "grok-beta", "owned_by": "xai"},
			},
		})
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "grok-4", models[0].ID)
}

func TestChooseModel(t *testing.T) {
	assert.Equal(t, "from-req", chooseModel(&llm.ChatRequest{Model: "from-req"}, "default"))
	assert.Equal(t, "default", chooseModel(&llm.ChatRequest{}, "default"))
	assert.Equal(t, fallbackModel, chooseModel(nil, ""))
}

func TestProvider_Completion_ContextCancel(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Completion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrUpstreamTimeout, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}
