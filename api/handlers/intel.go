package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/intel"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 📡 主动情报 Handler
// =============================================================================

// CycleRunner 主动情报周期接口,由 intel.Engine 实现
type CycleRunner interface {
	RunCycle(ctx context.Context) (*intel.CycleResult, error)
}

// IntelHandler 主动情报周期处理器
type IntelHandler struct {
	runner CycleRunner
	logger *zap.Logger
}

// NewIntelHandler 创建情报处理器
func NewIntelHandler(runner CycleRunner, logger *zap.Logger) *IntelHandler {
	return &IntelHandler{
		runner: runner,
		logger: logger,
	}
}

// HandleRunCycle 触发一次完整的情报周期
// @Summary 触发情报周期
// @Tags AI
// @Produce json
// @Success 200 {object} Response "周期结果"
// @Failure 503 {object} Response "情报引擎不可用"
// @Router /api/v1/intelligence/cycle [post]
func (h *IntelHandler) HandleRunCycle(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrAgentNotReady,
			"intelligence engine is not available", h.logger)
		return
	}

	result, err := h.runner.RunCycle(r.Context())
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "intelligence cycle failed").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("intelligence cycle completed",
		zap.Int("users", len(result.Users)),
		zap.Int("market_insights", len(result.MarketInsights)))
	WriteSuccess(w, result)
}
