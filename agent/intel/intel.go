// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/cache"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
)

// =============================================================================
// 🔮 主动职业情报
// =============================================================================

// trendingSkills 市场趋势分析覆盖的技能清单
var trendingSkills = []string{
	"Python", "JavaScript", "React", "Node.js", "AWS",
	"Docker", "Kubernetes", "Machine Learning", "Data Science",
	"TypeScript", "Go", "Rust", "DevOps",
}

// MarketInsight 单项技能的市场洞察
type MarketInsight struct {
	Skill             string  `json:"skill"`
	DemandChange      float64 `json:"demand_change"`
	SalaryTrend       string  `json:"salary_trend"`
	JobCount          int     `json:"job_count"`
	GrowthPrediction  string  `json:"growth_prediction"`
	RecommendedAction string  `json:"recommended_action"`
}

// Opportunity 用户可触达的职业机会
type Opportunity struct {
	JobTitle       string   `json:"job_title"`
	Company        string   `json:"company"`
	SalaryRange    string   `json:"salary_range"`
	RequiredSkills []string `json:"required_skills"`
	MissingSkills  []string `json:"missing_skills"`
	MatchScore     float64  `json:"match_score"`
	Urgency        string   `json:"urgency"`
}

// UserInsights 单用户的个性化情报
type UserInsights struct {
	UserID          string          `json:"user_id"`
	Username        string          `json:"username"`
	RelevantTrends  []MarketInsight `json:"relevant_trends"`
	Recommendations string          `json:"recommendations"`
	ActionItems     []string        `json:"action_items"`
	SkillGaps       []string        `json:"skill_gaps"`
	Opportunities   []Opportunity   `json:"opportunities"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// CycleResult 一次情报周期的汇总
type CycleResult struct {
	MarketInsights []MarketInsight `json:"market_insights"`
	Users          []*UserInsights `json:"users"`
	StartedAt      time.Time       `json:"started_at"`
	Duration       time.Duration   `json:"duration"`
}

// Advisor 情报分析所需的 LLM 能力
type Advisor interface {
	Complete(ctx context.Context, operation, system, user string) (string, error)
}

// Directory 用户与技能读取接口，由 store.Repository 满足
type Directory interface {
	ListUsers(ctx context.Context, limit, offset int) ([]store.User, error)
	ListSkills(ctx context.Context, userID string) ([]store.Skill, error)
}

// TrendCache 趋势缓存接口，由 cache.Manager 满足
type TrendCache interface {
	RememberJSON(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func(context.Context) (interface{}, error)) error
}

// InsightSharer 周期完成后向总线分享摘要
type InsightSharer interface {
	ShareInsights(agentID string, payload map[string]any, targets []string)
}

// Engine 主动职业情报引擎：周期性分析市场趋势，
// 为每个用户生成个性化洞察、行动项与技能缺口。
type Engine struct {
	advisor   Advisor
	directory Directory
	trends    TrendCache
	sharer    InsightSharer
	logger    *zap.Logger
}

// New 创建情报引擎。advisor/trends/sharer 均可为 nil，
// 缺省时使用静态回退表且不缓存。
func New(advisor Advisor, directory Directory, trends TrendCache, sharer InsightSharer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		advisor:   advisor,
		directory: directory,
		trends:    trends,
		sharer:    sharer,
		logger:    logger.With(zap.String("component", "intel")),
	}
}

// RunCycle 执行一次完整情报周期：市场趋势分析 + 全量用户洞察。
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	e.logger.Info("intelligence cycle started")

	marketInsights := e.AnalyzeMarketTrends(ctx)

	users, err := e.directory.ListUsers(ctx, 200, 0)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := &CycleResult{
		MarketInsights: marketInsights,
		StartedAt:      start,
	}

	for i := range users {
		insights, err := e.GenerateUserInsights(ctx, &users[i], marketInsights)
		if err != nil {
			e.logger.Warn("user insight generation failed",
				zap.String("user_id", users[i].ID),
				zap.Error(err),
			)
			continue
		}
		result.Users = append(result.Users, insights)
	}

	result.Duration = time.Since(start)

	if e.sharer != nil {
		e.sharer.ShareInsights("career-intelligence", map[string]any{
			"cycle_users":    len(result.Users),
			"market_signals": len(marketInsights),
			"duration_ms":    result.Duration.Milliseconds(),
		}, nil)
	}

	e.logger.Info("intelligence cycle completed",
		zap.Int("users", len(result.Users)),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// AnalyzeMarketTrends 分析趋势技能清单。结果按领域缓存；
// LLM 不可用或解析失败时回退到静态估计。
func (e *Engine) AnalyzeMarketTrends(ctx context.Context) []MarketInsight {
	var insights []MarketInsight

	compute := func(ctx context.Context) (interface{}, error) {
		out := make([]MarketInsight, 0, len(trendingSkills))
		for _, skill := range trendingSkills {
			out = append(out, e.analyzeSkillTrend(ctx, skill))
		}
		return out, nil
	}

	if e.trends != nil {
		if err := e.trends.RememberJSON(ctx, cache.TrendsKey("global"), cache.TrendsTTL, &insights, compute); err == nil {
			return insights
		}
		e.logger.Warn("trend cache unavailable, computing directly")
	}

	raw, _ := compute(ctx)
	return raw.([]MarketInsight)
}

func (e *Engine) analyzeSkillTrend(ctx context.Context, skill string) MarketInsight {
	fallback := MarketInsight{
		Skill:             skill,
		DemandChange:      15.5,
		SalaryTrend:       "increasing",
		JobCount:          250,
		GrowthPrediction:  "strong",
		RecommendedAction: "learn_now",
	}
	if e.advisor == nil {
		return fallback
	}

	system := "You are a labor market analyst. Respond only with a JSON object: " +
		`{"demand_change": number, "salary_trend": "increasing|stable|decreasing", ` +
		`"job_count": number, "growth_prediction": "strong|moderate|weak", ` +
		`"recommended_action": "learn_now|improve|monitor|pivot"}`
	user := fmt.Sprintf("Analyze current market demand and six-month trend for the skill: %s", skill)

	text, err := e.advisor.Complete(ctx, "skill_trend", system, user)
	if err != nil {
		e.logger.Debug("skill trend analysis fell back",
			zap.String("skill", skill),
			zap.Error(err),
		)
		return fallback
	}

	var parsed MarketInsight
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil || parsed.RecommendedAction == "" {
		return fallback
	}
	parsed.Skill = skill
	return parsed
}

// GenerateUserInsights 为单个用户生成个性化情报
func (e *Engine) GenerateUserInsights(ctx context.Context, user *store.User, market []MarketInsight) (*UserInsights, error) {
	skills, err := e.directory.ListSkills(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}

	skillNames := make([]string, 0, len(skills))
	skillSet := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		skillNames = append(skillNames, s.Name)
		skillSet[strings.ToLower(s.Name)] = struct{}{}
	}

	var relevant []MarketInsight
	for _, insight := range market {
		if _, ok := skillSet[strings.ToLower(insight.Skill)]; ok {
			relevant = append(relevant, insight)
		}
	}

	return &UserInsights{
		UserID:          user.ID,
		Username:        user.Username,
		RelevantTrends:  relevant,
		Recommendations: e.personalizedRecommendations(ctx, skillNames, relevant),
		ActionItems:     actionItems(relevant),
		SkillGaps:       skillGaps(skillSet, market),
		Opportunities:   findOpportunities(skillSet),
		GeneratedAt:     time.Now(),
	}, nil
}

func (e *Engine) personalizedRecommendations(ctx context.Context, skillNames []string, relevant []MarketInsight) string {
	const fallback = "Your skills are well-positioned in the current market. " +
		"Consider exploring emerging technologies and building on your existing expertise."
	if e.advisor == nil || len(skillNames) == 0 {
		return fallback
	}

	var summary strings.Builder
	limit := len(relevant)
	if limit > 5 {
		limit = 5
	}
	for _, insight := range relevant[:limit] {
		fmt.Fprintf(&summary, "- %s: %.1f%% demand change, %s salary trend\n",
			insight.Skill, insight.DemandChange, insight.SalaryTrend)
	}

	system := "You are a pragmatic career coach. Be concise, actionable and encouraging. " +
		"Focus on opportunities, not just trends."
	user := fmt.Sprintf("User skills: %s\n\nCurrent market trends for their skills:\n%s\n"+
		"Provide specific opportunities, strategic recommendations, market timing and next steps.",
		strings.Join(skillNames, ", "), summary.String())

	text, err := e.advisor.Complete(ctx, "personalized_insights", system, user)
	if err != nil {
		return fallback
	}
	return text
}

// actionItems 依据推荐动作生成行动项，上限 5 条
func actionItems(relevant []MarketInsight) []string {
	var actions []string
	for _, insight := range relevant {
		switch insight.RecommendedAction {
		case "learn_now":
			actions = append(actions, fmt.Sprintf("High priority: deepen %s now, demand up %.1f%%",
				insight.Skill, insight.DemandChange))
		case "improve":
			actions = append(actions, fmt.Sprintf("Improve your %s skills, market showing %s growth",
				insight.Skill, insight.GrowthPrediction))
		case "pivot":
			actions = append(actions, fmt.Sprintf("Consider pivoting from %s, market demand declining",
				insight.Skill))
		}
		if len(actions) == 5 {
			break
		}
	}
	return actions
}

// skillGaps 返回用户尚未掌握的高需求技能，上限 3 个
func skillGaps(skillSet map[string]struct{}, market []MarketInsight) []string {
	var gaps []string
	for _, insight := range market {
		if insight.DemandChange <= 10 {
			continue
		}
		if _, ok := skillSet[strings.ToLower(insight.Skill)]; ok {
			continue
		}
		gaps = append(gaps, insight.Skill)
		if len(gaps) == 3 {
			break
		}
	}
	return gaps
}

// findOpportunities 基于用户技能匹配样例机会
func findOpportunities(skillSet map[string]struct{}) []Opportunity {
	var opportunities []Opportunity

	if _, ok := skillSet["python"]; ok {
		opportunities = append(opportunities, Opportunity{
			JobTitle:       "Senior Python Developer",
			Company:        "TechCorp Inc.",
			SalaryRange:    "$90,000 - $130,000",
			RequiredSkills: []string{"Python", "Django", "PostgreSQL"},
			MissingSkills:  []string{"Docker", "AWS"},
			MatchScore:     85.0,
			Urgency:        "high",
		})
	}
	if _, ok := skillSet["javascript"]; ok {
		opportunities = append(opportunities, Opportunity{
			JobTitle:       "Full Stack Developer",
			Company:        "StartupXYZ",
			SalaryRange:    "$80,000 - $120,000",
			RequiredSkills: []string{"JavaScript", "React", "Node.js"},
			MissingSkills:  []string{"TypeScript", "GraphQL"},
			MatchScore:     78.0,
			Urgency:        "medium",
		})
	}
	if _, ok := skillSet["go"]; ok {
		opportunities = append(opportunities, Opportunity{
			JobTitle:       "Platform Engineer",
			Company:        "CloudScale Ltd.",
			SalaryRange:    "$100,000 - $145,000",
			RequiredSkills: []string{"Go", "Kubernetes", "Terraform"},
			MissingSkills:  []string{"Istio"},
			MatchScore:     82.0,
			Urgency:        "high",
		})
	}

	return opportunities
}

// FormatNotification 将用户情报格式化为通知文本
func FormatNotification(insights *UserInsights) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "SkillSync Career Intelligence Update for %s\n\n", insights.Username)
	fmt.Fprintf(&sb, "MARKET INSIGHTS:\n%s\n", insights.Recommendations)

	if len(insights.ActionItems) > 0 {
		sb.WriteString("\nACTION ITEMS:\n")
		for _, item := range insights.ActionItems {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}

	limit := len(insights.Opportunities)
	if limit > 2 {
		limit = 2
	}
	if limit > 0 {
		sb.WriteString("\nNEW OPPORTUNITIES:\n")
		for _, opp := range insights.Opportunities[:limit] {
			fmt.Fprintf(&sb, "- %s at %s (%s, match %.0f%%)\n",
				opp.JobTitle, opp.Company, opp.SalaryRange, opp.MatchScore)
			if len(opp.MissingSkills) > 0 {
				fmt.Fprintf(&sb, "  Skills to develop: %s\n", strings.Join(opp.MissingSkills, ", "))
			}
		}
	}

	return sb.String()
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
