package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeProvider 返回预设响应的测试 Provider
type fakeProvider struct {
	response *ChatResponse
	err      error
	lastReq  *ChatRequest
	calls    int
}

func (f *fakeProvider) Completion(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeProvider) HealthCheck(context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}

func (f *fakeProvider) ListModels(context.Context) ([]Model, error) { return nil, nil }
func (f *fakeProvider) Name() string                                { return "fake" }

type fakeRecorder struct {
	status           string
	promptTokens     int
	completionTokens int
	calls            int
}

func (f *fakeRecorder) RecordLLMRequest(_, _, status string, _ time.Duration, prompt, completion int) {
	f.calls++
	f.status = status
	f.promptTokens = prompt
	f.completionTokens = completion
}

func textResponse(text string) *ChatResponse {
	return &ChatResponse{
		Model:   "grok-beta",
		Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: text}}},
		Usage:   ChatUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

func TestAssessSkillsStructured(t *testing.T) {
	provider := &fakeProvider{response: textResponse(
		"Here you go:\n```json\n{\"analysis\": \"Strong backend profile\", \"score\": 0.82}\n```",
	)}
	recorder := &fakeRecorder{}
	advisor := NewAdvisor(provider, nil, recorder, zaptest.NewLogger(t))

	result, err := advisor.AssessSkills(context.Background(), []SkillInput{
		{Name: "Go", Level: 8},
		{Name: "PostgreSQL", Level: 6},
	})
	require.NoError(t, err)

	assert.True(t, result.Structured)
	assert.Equal(t, "Strong backend profile", result.Analysis)
	assert.InDelta(t, 0.82, result.Score, 1e-9)
	assert.Equal(t, "grok-beta", result.Model)

	// 提示词应包含技能条目
	require.NotNil(t, provider.lastReq)
	require.Len(t, provider.lastReq.Messages, 2)
	assert.Contains(t, provider.lastReq.Messages[1].Content, "Go (self-rated 8/10)")

	// 指标上报
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, "success", recorder.status)
	assert.Equal(t, 10, recorder.promptTokens)
	assert.Equal(t, 20, recorder.completionTokens)
}

func TestAssessSkillsUnstructuredFallback(t *testing.T) {
	provider := &fakeProvider{response: textResponse("You have a decent foundation in Go.")}
	advisor := NewAdvisor(provider, nil, nil, zaptest.NewLogger(t))

	result, err := advisor.AssessSkills(context.Background(), []SkillInput{{Name: "Go", Level: 5}})
	require.NoError(t, err)

	assert.False(t, result.Structured)
	assert.Equal(t, "You have a decent foundation in Go.", result.Analysis)
	assert.Zero(t, result.Score)
}

func TestAssessSkillsScoreClamped(t *testing.T) {
	provider := &fakeProvider{response: textResponse(`{"analysis": "ok", "score": 7.5}`)}
	advisor := NewAdvisor(provider, nil, nil, zaptest.NewLogger(t))

	result, err := advisor.AssessSkills(context.Background(), []SkillInput{{Name: "Go", Level: 5}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
}

func TestCareerGuidancePrompt(t *testing.T) {
	provider := &fakeProvider{response: textResponse("Learn Kubernetes.")}
	advisor := NewAdvisor(provider, nil, nil, zaptest.NewLogger(t))

	text, err := advisor.CareerGuidance(context.Background(), GuidanceInput{
		CurrentRole: "Backend Engineer",
		TargetRole:  "Platform Engineer",
		Experience:  4,
		Interests:   []string{"infrastructure", "reliability"},
		Skills:      []SkillInput{{Name: "Go", Level: 7}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Learn Kubernetes.", text)

	prompt := provider.lastReq.Messages[1].Content
	assert.Contains(t, prompt, "Current role: Backend Engineer")
	assert.Contains(t, prompt, "Target role: Platform Engineer")
	assert.Contains(t, prompt, "infrastructure, reliability")
}

func TestCareerGuidanceUnknownRoles(t *testing.T) {
	provider := &fakeProvider{response: textResponse("Explore.")}
	advisor := NewAdvisor(provider, nil, nil, zaptest.NewLogger(t))

	_, err := advisor.CareerGuidance(context.Background(), GuidanceInput{})
	require.NoError(t, err)
	assert.Contains(t, provider.lastReq.Messages[1].Content, "Current role: unknown")
}

func TestAdvisorErrorRecorded(t *testing.T) {
	provider := &fakeProvider{err: &Error{Code: ErrUpstreamError, Message: "boom", HTTPStatus: 502}}
	recorder := &fakeRecorder{}
	advisor := NewAdvisor(provider, nil, recorder, zaptest.NewLogger(t))

	_, err := advisor.MarketTrends(context.Background(), "AI")
	require.Error(t, err)

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrUpstreamError, llmErr.Code)
	assert.Equal(t, "error", recorder.status)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Sure! {\"a\":1} Hope that helps.", `{"a":1}`},
		{"no json", "no objects here", "no objects here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}
