package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// 🎓 职业顾问
// =============================================================================

// Recorder 上报 LLM 调用指标的最小接口
type Recorder interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// Retryer 重试执行的最小接口（见 llm/retry 包）
type Retryer interface {
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

// Advisor 将 Provider 包装为面向职业域的推理入口：
// 技能评估、职业指导与市场趋势。负责提示词构造、重试与指标上报。
type Advisor struct {
	provider Provider
	retryer  Retryer
	recorder Recorder
	logger   *zap.Logger
}

// NewAdvisor 创建职业顾问。retryer 与 recorder 可为 nil。
func NewAdvisor(provider Provider, retryer Retryer, recorder Recorder, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		provider: provider,
		retryer:  retryer,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "advisor")),
	}
}

// SkillInput 待评估技能
type SkillInput struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// AssessmentResult 技能评估结果
type AssessmentResult struct {
	Analysis   string    `json:"analysis"`
	Score      float64   `json:"score"`
	Model      string    `json:"model"`
	Usage      ChatUsage `json:"usage"`
	Structured bool      `json:"structured"`
}

// GuidanceInput 职业指导输入
type GuidanceInput struct {
	CurrentRole string       `json:"current_role"`
	TargetRole  string       `json:"target_role"`
	Experience  int          `json:"experience_years"`
	Interests   []string     `json:"interests"`
	Skills      []SkillInput `json:"skills"`
}

// AssessSkills 评估技能组合，返回分析文本与总体评分。
// 模型被要求输出 JSON；解析失败时回退为纯文本分析。
func (a *Advisor) AssessSkills(ctx context.Context, skills []SkillInput) (*AssessmentResult, error) {
	var sb strings.Builder
	for _, s := range skills {
		fmt.Fprintf(&sb, "- %s (self-rated %d/10)\n", s.Name, s.Level)
	}

	system := "You are a senior career advisor specializing in technology skills. " +
		"Respond with a JSON object: {\"analysis\": string, \"score\": number between 0 and 1}."
	user := fmt.Sprintf("Assess the following skill set, identify strengths, gaps and market fit:\n%s", sb.String())

	resp, err := a.complete(ctx, "assess_skills", system, user)
	if err != nil {
		return nil, err
	}

	result := &AssessmentResult{
		Analysis: resp.Text(),
		Model:    resp.Model,
		Usage:    resp.Usage,
	}

	// 尽力解析结构化输出
	var parsed struct {
		Analysis string  `json:"analysis"`
		Score    float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &parsed); err == nil && parsed.Analysis != "" {
		result.Analysis = parsed.Analysis
		result.Score = clamp01(parsed.Score)
		result.Structured = true
	}

	return result, nil
}

// CareerGuidance 生成个性化职业指导
func (a *Advisor) CareerGuidance(ctx context.Context, input GuidanceInput) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current role: %s\n", orUnknown(input.CurrentRole))
	fmt.Fprintf(&sb, "Target role: %s\n", orUnknown(input.TargetRole))
	fmt.Fprintf(&sb, "Years of experience: %d\n", input.Experience)
	if len(input.Interests) > 0 {
		fmt.Fprintf(&sb, "Interests: %s\n", strings.Join(input.Interests, ", "))
	}
	for _, s := range input.Skills {
		fmt.Fprintf(&sb, "Skill: %s (%d/10)\n", s.Name, s.Level)
	}

	system := "You are a pragmatic career coach. Give specific, actionable guidance: " +
		"concrete next steps, skills to close gaps, and realistic timelines."
	resp, err := a.complete(ctx, "career_guidance", system, sb.String())
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// MarketTrends 总结指定领域的就业市场趋势
func (a *Advisor) MarketTrends(ctx context.Context, field string) (string, error) {
	system := "You are a labor market analyst. Summarize current hiring trends, " +
		"in-demand skills and salary direction for the given field. Be concise."
	resp, err := a.complete(ctx, "market_trends", system, "Field: "+field)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Complete 以给定的系统/用户提示词发起一次推理。供蜂群 Agent 等
// 需要自定义提示词的调用方使用。
func (a *Advisor) Complete(ctx context.Context, operation, system, user string) (string, error) {
	resp, err := a.complete(ctx, operation, system, user)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ProviderName 返回底层 Provider 标识
func (a *Advisor) ProviderName() string { return a.provider.Name() }

// HealthCheck 透传底层 Provider 探活
func (a *Advisor) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return a.provider.HealthCheck(ctx)
}

// =============================================================================
// 🔧 内部实现
// =============================================================================

func (a *Advisor) complete(ctx context.Context, operation, system, user string) (*ChatResponse, error) {
	req := &ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature: 0.7,
	}

	start := time.Now()

	call := func() (*ChatResponse, error) {
		return a.provider.Completion(ctx, req)
	}

	var resp *ChatResponse
	var err error
	if a.retryer != nil {
		var result any
		result, err = a.retryer.DoWithResult(ctx, func() (any, error) {
			return call()
		})
		if err == nil {
			resp = result.(*ChatResponse)
		}
	} else {
		resp, err = call()
	}

	duration := time.Since(start)

	if err != nil {
		if a.recorder != nil {
			a.recorder.RecordLLMRequest(a.provider.Name(), req.Model, "error", duration, 0, 0)
		}
		a.logger.Warn("llm call failed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	if a.recorder != nil {
		a.recorder.RecordLLMRequest(a.provider.Name(), resp.Model, "success", duration,
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	return resp, nil
}

// extractJSON 从可能带有 markdown 代码块或前后缀文本的输出中
// 提取第一个 JSON 对象。
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
