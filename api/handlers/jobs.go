package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/api"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/cache"
	"github.com/ConWan30/skillsync-ai-platform-sub000/jobs"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 💼 职位搜索与收入 Handler
// =============================================================================

// JobsHandler 职位搜索、事件跟踪与收入指标处理器
type JobsHandler struct {
	integrator *jobs.Integrator
	tracker    *jobs.Tracker
	logger     *zap.Logger
}

// NewJobsHandler 创建职位处理器
func NewJobsHandler(integrator *jobs.Integrator, tracker *jobs.Tracker, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		integrator: integrator,
		tracker:    tracker,
		logger:     logger,
	}
}

// HandleSearch 多平台职位搜索
// @Summary 职位搜索
// @Tags 职位
// @Produce json
// @Param q query string true "搜索关键词"
// @Param location query string false "地点"
// @Param experience_level query string false "经验级别 junior/mid/senior"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} Response "搜索结果"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/jobs/search [get]
func (h *JobsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"query parameter q is required", h.logger)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"limit must be a positive integer", h.logger)
			return
		}
		limit = parsed
	}

	req := jobs.SearchRequest{
		Query:           query,
		Location:        r.URL.Query().Get("location"),
		ExperienceLevel: r.URL.Query().Get("experience_level"),
		Limit:           limit,
	}

	result, err := h.integrator.SearchCached(r.Context(), cache.JobSearchKey("all", query), req)
	if err != nil {
		apiErr := types.NewError(types.ErrUpstreamError, "job search failed").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}
	WriteSuccess(w, result)
}

// HandleTrack 记录职位联盟事件
// @Summary 跟踪职位事件
// @Tags 职位
// @Accept json
// @Produce json
// @Param request body api.JobTrackRequest true "跟踪请求"
// @Success 200 {object} Response "事件记录"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/jobs/track [post]
func (h *JobsHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	var req api.JobTrackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Platform == "" || req.JobID == "" || req.Event == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"platform, job_id and event are required", h.logger)
		return
	}

	event, err := h.tracker.Track(r.Context(), req.UserID, req.Platform, req.JobID, req.Event)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), h.logger)
		return
	}
	WriteSuccess(w, event)
}

// HandleRevenue 收入指标汇总
// @Summary 收入指标
// @Tags 职位
// @Produce json
// @Param days query int false "统计窗口天数,默认 30"
// @Success 200 {object} Response "收入指标"
// @Router /api/v1/jobs/revenue [get]
func (h *JobsHandler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"days must be between 1 and 365", h.logger)
			return
		}
		days = parsed
	}

	metrics, err := h.tracker.Metrics(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to load revenue metrics").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}
	WriteSuccess(w, metrics)
}
