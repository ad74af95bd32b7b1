package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/bus"
	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/swarm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/api"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/cache"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 🤖 AI 分析 Handler
// =============================================================================

// SkillAdvisor AI 顾问接口,由 llm.Advisor 实现
type SkillAdvisor interface {
	AssessSkills(ctx context.Context, skills []llm.SkillInput) (*llm.AssessmentResult, error)
	CareerGuidance(ctx context.Context, input llm.GuidanceInput) (string, error)
	ProviderName() string
}

// ProviderGate 报告 AI 提供商是否已配置凭据
type ProviderGate interface {
	Configured() bool
}

// ResultCache AI 结果缓存接口,由 cache.Manager 实现
type ResultCache interface {
	RememberJSON(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func(context.Context) (interface{}, error)) error
}

// AIHandler AI 评估与职业指导处理器
type AIHandler struct {
	advisor  SkillAdvisor
	gate     ProviderGate
	cache    ResultCache
	repo     *store.Repository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// AIHandlerOption 配置 AI 处理器
type AIHandlerOption func(*AIHandler)

// WithResultCache 启用结果缓存
func WithResultCache(c ResultCache, ttl time.Duration) AIHandlerOption {
	return func(h *AIHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithAssessmentStore 启用评估结果持久化
func WithAssessmentStore(repo *store.Repository) AIHandlerOption {
	return func(h *AIHandler) { h.repo = repo }
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(advisor SkillAdvisor, gate ProviderGate, logger *zap.Logger, opts ...AIHandlerOption) *AIHandler {
	h := &AIHandler{
		advisor:  advisor,
		gate:     gate,
		cacheTTL: 30 * time.Minute,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleAssessSkills 处理技能评估请求
// @Summary AI 技能评估
// @Tags AI
// @Accept json
// @Produce json
// @Param request body api.AssessSkillsRequest true "评估请求"
// @Success 200 {object} Response "评估结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 503 {object} Response "AI 提供商未配置"
// @Router /api/v1/ai/assess-skills [post]
func (h *AIHandler) HandleAssessSkills(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req api.AssessSkillsRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Skills) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"at least one skill is required", h.logger)
		return
	}

	computed := false
	compute := func(ctx context.Context) (interface{}, error) {
		computed = true
		result, err := h.advisor.AssessSkills(ctx, req.Skills)
		if err != nil {
			return nil, err
		}
		return &api.AssessSkillsResponse{
			Analysis:   result.Analysis,
			Score:      result.Score,
			Model:      result.Model,
			Usage:      result.Usage,
			Structured: result.Structured,
		}, nil
	}

	var resp api.AssessSkillsResponse
	if h.cache != nil {
		key := cache.AssessKey(assessDigest(req.Skills))
		if err := h.cache.RememberJSON(r.Context(), key, h.cacheTTL, &resp, compute); err != nil {
			h.writeAIError(w, err)
			return
		}
	} else {
		v, err := compute(r.Context())
		if err != nil {
			h.writeAIError(w, err)
			return
		}
		resp = *v.(*api.AssessSkillsResponse)
	}
	resp.Cached = !computed

	if req.UserID != "" && h.repo != nil && computed {
		assessment := &store.Assessment{
			ID:             uuid.NewString(),
			UserID:         req.UserID,
			AssessmentType: "skill_assessment",
			Result:         resp.Analysis,
			Score:          resp.Score,
			Model:          resp.Model,
		}
		if err := h.repo.CreateAssessment(r.Context(), assessment); err != nil {
			h.logger.Warn("failed to persist assessment",
				zap.String("user_id", req.UserID),
				zap.Error(err))
		} else {
			resp.AssessmentID = assessment.ID
		}
	}

	WriteSuccess(w, resp)
}

// HandleCareerGuidance 处理职业指导请求
// @Summary AI 职业指导
// @Tags AI
// @Accept json
// @Produce json
// @Param request body api.CareerGuidanceRequest true "指导请求"
// @Success 200 {object} Response "指导结果"
// @Failure 503 {object} Response "AI 提供商未配置"
// @Router /api/v1/ai/career-guidance [post]
func (h *AIHandler) HandleCareerGuidance(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req api.CareerGuidanceRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	input := llm.GuidanceInput{
		CurrentRole: req.CurrentRole,
		TargetRole:  req.TargetRole,
		Experience:  req.ExperienceYears,
		Interests:   req.Interests,
		Skills:      req.Skills,
	}

	computed := false
	compute := func(ctx context.Context) (interface{}, error) {
		computed = true
		guidance, err := h.advisor.CareerGuidance(ctx, input)
		if err != nil {
			return nil, err
		}
		return &api.CareerGuidanceResponse{
			Guidance: guidance,
			Provider: h.advisor.ProviderName(),
		}, nil
	}

	var resp api.CareerGuidanceResponse
	if h.cache != nil && req.UserID != "" {
		key := cache.GuidanceKey(req.UserID)
		if err := h.cache.RememberJSON(r.Context(), key, h.cacheTTL, &resp, compute); err != nil {
			h.writeAIError(w, err)
			return
		}
	} else {
		v, err := compute(r.Context())
		if err != nil {
			h.writeAIError(w, err)
			return
		}
		resp = *v.(*api.CareerGuidanceResponse)
	}
	resp.Cached = !computed

	WriteSuccess(w, resp)
}

func (h *AIHandler) ready(w http.ResponseWriter) bool {
	if h.gate != nil && !h.gate.Configured() {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrAIUnavailable,
			"AI provider is not configured", h.logger)
		return false
	}
	return true
}

func (h *AIHandler) writeAIError(w http.ResponseWriter, err error) {
	apiErr := types.NewError(types.ErrUpstreamError, "AI request failed").
		WithCause(err).
		WithRetryable(llm.IsRetryable(err))
	WriteError(w, apiErr, h.logger)
}

// assessDigest 对技能列表取稳定摘要作为缓存键
func assessDigest(skills []llm.SkillInput) string {
	raw, _ := json.Marshal(skills)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// 🐝 群体分析 Handler
// =============================================================================

// SwarmHandler 群体职业分析处理器
type SwarmHandler struct {
	swarm  *swarm.Swarm
	bus    *bus.Bus
	logger *zap.Logger
}

// NewSwarmHandler 创建群体分析处理器
func NewSwarmHandler(s *swarm.Swarm, b *bus.Bus, logger *zap.Logger) *SwarmHandler {
	return &SwarmHandler{
		swarm:  s,
		bus:    b,
		logger: logger,
	}
}

// HandleSwarmAnalysis 处理群体职业分析请求
// @Summary 群体职业分析
// @Tags AI
// @Accept json
// @Produce json
// @Param request body api.SwarmAnalysisRequest true "分析请求"
// @Success 200 {object} Response "分析结果"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/ai/swarm-analysis [post]
func (h *SwarmHandler) HandleSwarmAnalysis(w http.ResponseWriter, r *http.Request) {
	var req api.SwarmAnalysisRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Skills) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"at least one skill is required", h.logger)
		return
	}

	data := &swarm.CareerData{
		UserID:          req.UserID,
		CurrentRole:     req.CurrentRole,
		TargetRole:      req.TargetRole,
		ExperienceYears: req.ExperienceYears,
		Skills:          req.Skills,
		Interests:       req.Interests,
		CareerHistory:   req.CareerHistory,
	}

	result, err := h.swarm.Analyze(r.Context(), data)
	if err != nil {
		apiErr := types.NewError(types.ErrAgentNotReady, "swarm analysis failed").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}
	WriteSuccess(w, result)
}

// HandleAgentStatus 返回总线与群体状态快照
// @Summary 代理状态
// @Tags AI
// @Produce json
// @Success 200 {object} Response "状态快照"
// @Router /api/v1/agents/status [get]
func (h *SwarmHandler) HandleAgentStatus(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"swarm_agents": h.swarm.Agents(),
	}
	if h.bus != nil {
		payload["bus"] = h.bus.Status()
		payload["bus_agents"] = h.bus.Agents()
	}
	WriteSuccess(w, payload)
}
