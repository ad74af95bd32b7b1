package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/swarm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
)

// =============================================================================
// 🧪 AI Handler 测试
// =============================================================================

type fakeAdvisor struct {
	assessResult *llm.AssessmentResult
	guidance     string
	err          error
	calls        int
}

func (f *fakeAdvisor) AssessSkills(_ context.Context, _ []llm.SkillInput) (*llm.AssessmentResult, error) {
	f.calls++
	return f.assessResult, f.err
}

func (f *fakeAdvisor) CareerGuidance(_ context.Context, _ llm.GuidanceInput) (string, error) {
	f.calls++
	return f.guidance, f.err
}

func (f *fakeAdvisor) ProviderName() string { return "xai" }

type fakeGate struct{ configured bool }

func (g *fakeGate) Configured() bool { return g.configured }

// fakeResultCache 模拟缓存:stored 非空时直接命中,不调用 compute。
type fakeResultCache struct {
	stored map[string]string
	keys   []string
}

func (c *fakeResultCache) RememberJSON(ctx context.Context, key string, _ time.Duration, dest interface{}, compute func(context.Context) (interface{}, error)) error {
	c.keys = append(c.keys, key)
	if raw, ok := c.stored[key]; ok {
		return jsonUnmarshal(raw, dest)
	}
	v, err := compute(ctx)
	if err != nil {
		return err
	}
	return jsonRoundTrip(v, dest)
}

func jsonUnmarshal(raw string, dest interface{}) error {
	return json.Unmarshal([]byte(raw), dest)
}

func jsonRoundTrip(v, dest interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func newAIMux(h *AIHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ai/assess-skills", h.HandleAssessSkills)
	mux.HandleFunc("POST /api/v1/ai/career-guidance", h.HandleCareerGuidance)
	return mux
}

func TestAssessSkillsUnconfiguredProvider(t *testing.T) {
	h := NewAIHandler(&fakeAdvisor{}, &fakeGate{configured: false}, zap.NewNop())
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/assess-skills",
		map[string]any{"skills": []map[string]any{{"name": "Go", "level": 8}}})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "AI_UNAVAILABLE", resp.Error.Code)
}

func TestAssessSkillsRequiresSkills(t *testing.T) {
	h := NewAIHandler(&fakeAdvisor{}, &fakeGate{configured: true}, zap.NewNop())
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/assess-skills",
		map[string]any{"skills": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssessSkillsSuccess(t *testing.T) {
	advisor := &fakeAdvisor{assessResult: &llm.AssessmentResult{
		Analysis:   "Strong backend profile.",
		Score:      0.82,
		Model:      "grok-beta",
		Structured: true,
	}}
	h := NewAIHandler(advisor, &fakeGate{configured: true}, zap.NewNop())
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/assess-skills",
		map[string]any{"skills": []map[string]any{{"name": "Go", "level": 8}}})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "Strong backend profile.", data["analysis"])
	assert.InDelta(t, 0.82, data["score"].(float64), 0.001)
	assert.Equal(t, false, data["cached"])
}

func TestAssessSkillsPersistsWhenUserGiven(t *testing.T) {
	repo := newTestRepo(t)
	user, err := repo.CreateUser(context.Background(), "alice", "alice@example.com")
	require.NoError(t, err)

	advisor := &fakeAdvisor{assessResult: &llm.AssessmentResult{
		Analysis: "ok", Score: 0.5, Model: "grok-beta",
	}}
	h := NewAIHandler(advisor, &fakeGate{configured: true}, zap.NewNop(),
		WithAssessmentStore(repo))
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/assess-skills",
		map[string]any{
			"user_id": user.ID,
			"skills":  []map[string]any{{"name": "Go", "level": 8}},
		})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.NotEmpty(t, data["assessment_id"])

	stored, err := repo.ListAssessments(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "skill_assessment", stored[0].AssessmentType)
}

func TestAssessSkillsCacheHit(t *testing.T) {
	advisor := &fakeAdvisor{}
	cache := &fakeResultCache{stored: map[string]string{}}
	h := NewAIHandler(advisor, &fakeGate{configured: true}, zap.NewNop(),
		WithResultCache(cache, time.Minute))
	mux := newAIMux(h)

	// 预置缓存值:任何键都会命中
	body := map[string]any{"skills": []map[string]any{{"name": "Go", "level": 8}}}
	skills := []llm.SkillInput{{Name: "Go", Level: 8}}
	key := "skillsync:assess:" + assessDigest(skills)
	cache.stored[key] = `{"analysis":"cached analysis","score":0.7,"model":"grok-beta"}`

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/assess-skills", body)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "cached analysis", data["analysis"])
	assert.Equal(t, true, data["cached"])
	assert.Zero(t, advisor.calls, "cache hit must not call the advisor")
}

func TestCareerGuidanceSuccess(t *testing.T) {
	advisor := &fakeAdvisor{guidance: "Focus on Kubernetes."}
	h := NewAIHandler(advisor, &fakeGate{configured: true}, zap.NewNop())
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/career-guidance",
		map[string]any{"current_role": "Backend Developer", "target_role": "Platform Engineer"})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "Focus on Kubernetes.", data["guidance"])
	assert.Equal(t, "xai", data["provider"])
}

func TestCareerGuidanceUpstreamError(t *testing.T) {
	advisor := &fakeAdvisor{err: &llm.Error{Code: llm.ErrRateLimited, Message: "slow down", Retryable: true}}
	h := NewAIHandler(advisor, &fakeGate{configured: true}, zap.NewNop())
	mux := newAIMux(h)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/career-guidance",
		map[string]any{"current_role": "Backend Developer"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Error.Retryable)
}

// =============================================================================
// 🧪 群体分析 Handler 测试
// =============================================================================

func TestSwarmAnalysisHandler(t *testing.T) {
	s := swarm.New(nil, zap.NewNop())
	h := NewSwarmHandler(s, nil, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ai/swarm-analysis", h.HandleSwarmAnalysis)
	mux.HandleFunc("GET /api/v1/agents/status", h.HandleAgentStatus)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/swarm-analysis",
		map[string]any{
			"current_role": "Backend Developer",
			"target_role":  "Platform Engineer",
			"skills": []map[string]any{
				{"name": "Go", "level": 8},
				{"name": "Kubernetes", "level": 6},
			},
		})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.NotEmpty(t, data["analysis_id"])
	assert.NotEmpty(t, data["analyses"])

	w = doJSON(t, mux, http.MethodGet, "/api/v1/agents/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeResponse(t, w).Data.(map[string]any)
	assert.Len(t, status["swarm_agents"].([]any), 3)
}

func TestSwarmAnalysisRequiresSkills(t *testing.T) {
	h := NewSwarmHandler(swarm.New(nil, zap.NewNop()), nil, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ai/swarm-analysis", h.HandleSwarmAnalysis)

	w := doJSON(t, mux, http.MethodPost, "/api/v1/ai/swarm-analysis",
		map[string]any{"current_role": "Backend Developer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
