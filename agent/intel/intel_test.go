package intel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
)

// fakeAdvisor 返回预设文本的 Advisor
type fakeAdvisor struct {
	responses map[string]string // operation -> response
	err       error
	calls     int
}

func (f *fakeAdvisor) Complete(_ context.Context, operation, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if resp, ok := f.responses[operation]; ok {
		return resp, nil
	}
	return "default response", nil
}

type fakeDirectory struct {
	users  []store.User
	skills map[string][]store.Skill
	err    error
}

func (f *fakeDirectory) ListUsers(context.Context, int, int) ([]store.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeDirectory) ListSkills(_ context.Context, userID string) ([]store.Skill, error) {
	return f.skills[userID], nil
}

type fakeSharer struct {
	payload map[string]any
}

func (f *fakeSharer) ShareInsights(_ string, payload map[string]any, _ []string) {
	f.payload = payload
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: []store.User{
			{ID: "u1", Username: "alice", Email: "alice@example.com"},
		},
		skills: map[string][]store.Skill{
			"u1": {
				{Name: "Python", Level: 8},
				{Name: "Go", Level: 6},
			},
		},
	}
}

func TestAnalyzeMarketTrendsFallback(t *testing.T) {
	e := New(nil, testDirectory(), nil, nil, zaptest.NewLogger(t))

	insights := e.AnalyzeMarketTrends(context.Background())
	require.Len(t, insights, len(trendingSkills))

	for _, insight := range insights {
		assert.Equal(t, "learn_now", insight.RecommendedAction)
		assert.Equal(t, "increasing", insight.SalaryTrend)
		assert.InDelta(t, 15.5, insight.DemandChange, 1e-9)
	}
}

func TestAnalyzeMarketTrendsStructured(t *testing.T) {
	advisor := &fakeAdvisor{responses: map[string]string{
		"skill_trend": `{"demand_change": 22.5, "salary_trend": "increasing", "job_count": 400, "growth_prediction": "strong", "recommended_action": "improve"}`,
	}}
	e := New(advisor, testDirectory(), nil, nil, zaptest.NewLogger(t))

	insights := e.AnalyzeMarketTrends(context.Background())
	require.NotEmpty(t, insights)
	assert.Equal(t, "improve", insights[0].RecommendedAction)
	assert.InDelta(t, 22.5, insights[0].DemandChange, 1e-9)
	// Skill 字段由引擎回填，不信任模型输出
	assert.Equal(t, trendingSkills[0], insights[0].Skill)
}

func TestAnalyzeMarketTrendsMalformedFallsBack(t *testing.T) {
	advisor := &fakeAdvisor{responses: map[string]string{
		"skill_trend": "not valid json at all",
	}}
	e := New(advisor, testDirectory(), nil, nil, zaptest.NewLogger(t))

	insights := e.AnalyzeMarketTrends(context.Background())
	assert.Equal(t, "learn_now", insights[0].RecommendedAction)
}

func TestGenerateUserInsights(t *testing.T) {
	e := New(nil, testDirectory(), nil, nil, zaptest.NewLogger(t))

	market := []MarketInsight{
		{Skill: "Python", DemandChange: 20, SalaryTrend: "increasing", GrowthPrediction: "strong", RecommendedAction: "learn_now"},
		{Skill: "Rust", DemandChange: 18, RecommendedAction: "learn_now"},
		{Skill: "COBOL", DemandChange: 2, RecommendedAction: "monitor"},
	}

	user := &store.User{ID: "u1", Username: "alice"}
	insights, err := e.GenerateUserInsights(context.Background(), user, market)
	require.NoError(t, err)

	assert.Equal(t, "alice", insights.Username)
	require.Len(t, insights.RelevantTrends, 1)
	assert.Equal(t, "Python", insights.RelevantTrends[0].Skill)

	// Rust 高需求且未掌握 → 缺口；COBOL 低需求不计
	assert.Equal(t, []string{"Rust"}, insights.SkillGaps)

	require.NotEmpty(t, insights.ActionItems)
	assert.Contains(t, insights.ActionItems[0], "Python")

	// Python + Go 技能各匹配一个机会
	require.Len(t, insights.Opportunities, 2)
	assert.NotEmpty(t, insights.Recommendations)
	assert.False(t, insights.GeneratedAt.IsZero())
}

func TestActionItemsCapped(t *testing.T) {
	var relevant []MarketInsight
	for i := 0; i < 10; i++ {
		relevant = append(relevant, MarketInsight{
			Skill:             "Skill",
			DemandChange:      15,
			RecommendedAction: "learn_now",
		})
	}
	assert.Len(t, actionItems(relevant), 5)
}

func TestSkillGapsCapped(t *testing.T) {
	market := []MarketInsight{
		{Skill: "A", DemandChange: 20},
		{Skill: "B", DemandChange: 20},
		{Skill: "C", DemandChange: 20},
		{Skill: "D", DemandChange: 20},
	}
	gaps := skillGaps(map[string]struct{}{}, market)
	assert.Equal(t, []string{"A", "B", "C"}, gaps)
}

func TestRunCycle(t *testing.T) {
	sharer := &fakeSharer{}
	e := New(nil, testDirectory(), nil, sharer, zaptest.NewLogger(t))

	result, err := e.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.MarketInsights, len(trendingSkills))
	require.Len(t, result.Users, 1)
	assert.Equal(t, "alice", result.Users[0].Username)
	assert.Greater(t, result.Duration, time.Duration(0))

	require.NotNil(t, sharer.payload)
	assert.Equal(t, 1, sharer.payload["cycle_users"])
}

func TestRunCycleListUsersError(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("db down")}
	e := New(nil, dir, nil, nil, zaptest.NewLogger(t))

	_, err := e.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list users")
}

func TestPersonalizedRecommendationsAdvisorError(t *testing.T) {
	advisor := &fakeAdvisor{err: errors.New("upstream down")}
	e := New(advisor, testDirectory(), nil, nil, zaptest.NewLogger(t))

	text := e.personalizedRecommendations(context.Background(), []string{"Go"}, nil)
	assert.Contains(t, text, "well-positioned")
}

func TestFormatNotification(t *testing.T) {
	insights := &UserInsights{
		Username:        "alice",
		Recommendations: "Focus on cloud platforms.",
		ActionItems:     []string{"Learn Kubernetes"},
		Opportunities: []Opportunity{
			{JobTitle: "Platform Engineer", Company: "CloudScale Ltd.", SalaryRange: "$100k", MatchScore: 82, MissingSkills: []string{"Istio"}},
			{JobTitle: "SRE", Company: "A"},
			{JobTitle: "Third", Company: "B"},
		},
	}

	text := FormatNotification(insights)
	assert.Contains(t, text, "alice")
	assert.Contains(t, text, "Focus on cloud platforms.")
	assert.Contains(t, text, "Learn Kubernetes")
	assert.Contains(t, text, "Platform Engineer at CloudScale Ltd.")
	assert.Contains(t, text, "Istio")
	// 通知最多列出两个机会
	assert.NotContains(t, text, "Third")
}
