package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/intel"
)

// =============================================================================
// 🧪 主动情报 Handler 测试
// =============================================================================

type fakeCycleRunner struct {
	result *intel.CycleResult
	err    error
}

func (f *fakeCycleRunner) RunCycle(_ context.Context) (*intel.CycleResult, error) {
	return f.result, f.err
}

func TestIntelligenceCycle(t *testing.T) {
	runner := &fakeCycleRunner{result: &intel.CycleResult{
		MarketInsights: []intel.MarketInsight{{Skill: "Go"}},
		StartedAt:      time.Now(),
	}}
	h := NewIntelHandler(runner, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/intelligence/cycle", h.HandleRunCycle)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/intelligence/cycle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	insights := data["market_insights"].([]any)
	assert.Equal(t, "Go", insights[0].(map[string]any)["skill"])
}

func TestIntelligenceCycleFailure(t *testing.T) {
	h := NewIntelHandler(&fakeCycleRunner{err: errors.New("directory down")}, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/intelligence/cycle", h.HandleRunCycle)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/intelligence/cycle", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIntelligenceCycleUnavailable(t *testing.T) {
	h := NewIntelHandler(nil, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/intelligence/cycle", h.HandleRunCycle)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/intelligence/cycle", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
