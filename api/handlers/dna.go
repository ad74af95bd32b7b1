package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/api"
	"github.com/ConWan30/skillsync-ai-platform-sub000/dna"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 🧬 职业 DNA Handler
// =============================================================================

// DNAHandler 职业 DNA 分析与隐私保险库处理器
type DNAHandler struct {
	engine *dna.Engine
	vault  *dna.Vault
	logger *zap.Logger
}

// NewDNAHandler 创建 DNA 处理器
func NewDNAHandler(engine *dna.Engine, vault *dna.Vault, logger *zap.Logger) *DNAHandler {
	return &DNAHandler{
		engine: engine,
		vault:  vault,
		logger: logger,
	}
}

// HandleConsent 记录 DNA 分析同意
// @Summary 记录同意
// @Tags DNA
// @Accept json
// @Produce json
// @Param request body api.ConsentRequest true "同意请求"
// @Success 200 {object} Response "同意记录"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/dna/consent [post]
func (h *DNAHandler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	var req api.ConsentRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"user_id is required", h.logger)
		return
	}

	consent, err := h.vault.GrantConsent(r.Context(), req.UserID)
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to record consent").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	WriteSuccess(w, api.ConsentResponse{
		ConsentID:   consent.ID,
		ConsentHash: consent.ConsentHash,
		Scope:       consent.Scope,
		GrantedAt:   consent.GrantedAt,
	})
}

// HandleAnalyze 计算并加密存储职业 DNA 档案
// @Summary DNA 分析
// @Tags DNA
// @Accept json
// @Produce json
// @Param request body api.DNAAnalyzeRequest true "分析请求"
// @Success 200 {object} Response "DNA 档案"
// @Failure 400 {object} Response "无效请求"
// @Failure 403 {object} Response "缺少同意记录"
// @Router /api/v1/dna/analyze [post]
func (h *DNAHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req api.DNAAnalyzeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"user_id is required", h.logger)
		return
	}
	if !h.vault.HasConsent(r.Context(), req.UserID) {
		WriteErrorMessage(w, http.StatusForbidden, types.ErrConsentMissing,
			"dna analysis requires prior consent", h.logger)
		return
	}

	// 重新分析时叠加进化历史
	previous, err := h.vault.LoadProfile(r.Context(), req.UserID)
	if err != nil && !errors.Is(err, dna.ErrProfileNotFound) {
		apiErr := types.NewError(types.ErrVaultSealed, "failed to load stored profile").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	profile, err := h.engine.Analyze(r.Context(), req.UserID, &req.Assessment, previous)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), h.logger)
		return
	}

	if err := h.vault.StoreProfile(r.Context(), profile); err != nil {
		if errors.Is(err, dna.ErrNoConsent) {
			WriteErrorMessage(w, http.StatusForbidden, types.ErrConsentMissing,
				"dna analysis requires prior consent", h.logger)
			return
		}
		apiErr := types.NewError(types.ErrInternalError, "failed to store profile").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("dna profile analyzed",
		zap.String("user_id", req.UserID),
		zap.Int("version", profile.Version))
	WriteSuccess(w, profile)
}

// HandleGetProfile 读取并解密存储的 DNA 档案
// @Summary 获取 DNA 档案
// @Tags DNA
// @Produce json
// @Param userID path string true "用户 ID"
// @Success 200 {object} Response "DNA 档案"
// @Failure 404 {object} Response "档案不存在"
// @Router /api/v1/dna/{userID} [get]
func (h *DNAHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if strings.TrimSpace(userID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"user id is required", h.logger)
		return
	}

	profile, err := h.vault.LoadProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, dna.ErrProfileNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound,
				"dna profile not found", h.logger)
			return
		}
		apiErr := types.NewError(types.ErrVaultSealed, "failed to open profile").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}
	WriteSuccess(w, profile)
}

// HandlePurge 被遗忘权:撤销同意并清除用户数据。
// 配置了删除宽限期时数据在宽限期后硬删除,响应带上生效时刻。
// @Summary 清除 DNA 数据
// @Tags DNA
// @Produce json
// @Param userID path string true "用户 ID"
// @Success 200 {object} Response "清除结果"
// @Router /api/v1/dna/{userID} [delete]
func (h *DNAHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if strings.TrimSpace(userID) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"user id is required", h.logger)
		return
	}

	effectiveAt, err := h.vault.Purge(r.Context(), userID)
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to purge user data").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	if !effectiveAt.IsZero() {
		h.logger.Info("user data purge scheduled",
			zap.String("user_id", userID), zap.Time("effective_at", effectiveAt))
		WriteSuccess(w, map[string]any{
			"user_id":            userID,
			"purged":             false,
			"purge_effective_at": effectiveAt,
		})
		return
	}

	h.logger.Info("user data purged", zap.String("user_id", userID))
	WriteSuccess(w, map[string]any{"user_id": userID, "purged": true})
}
