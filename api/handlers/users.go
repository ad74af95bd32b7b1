package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/api"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 👤 用户与技能 Handler
// =============================================================================

// UserHandler 用户、技能、评估与学习路径处理器
type UserHandler struct {
	repo   *store.Repository
	logger *zap.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(repo *store.Repository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		repo:   repo,
		logger: logger,
	}
}

// HandleCreateUser 创建用户
// @Summary 创建用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body api.CreateUserRequest true "用户信息"
// @Success 200 {object} Response "创建的用户"
// @Failure 400 {object} Response "无效请求"
// @Failure 409 {object} Response "邮箱已注册"
// @Router /api/v1/users [post]
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"username and email are required", h.logger)
		return
	}
	if !strings.Contains(req.Email, "@") {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"email is not valid", h.logger)
		return
	}

	user, err := h.repo.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			WriteErrorMessage(w, http.StatusConflict, types.ErrConflict,
				"email already registered", h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to create user", h.logger)
		return
	}

	WriteSuccess(w, user)
}

// HandleListSkills 列出用户技能
// @Summary 列出技能
// @Tags 用户
// @Produce json
// @Param id path string true "用户 ID"
// @Success 200 {object} Response "技能列表"
// @Router /api/v1/users/{id}/skills [get]
func (h *UserHandler) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.requireUser(w, r, userID); err != nil {
		return
	}

	skills, err := h.repo.ListSkills(r.Context(), userID)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to list skills", h.logger)
		return
	}
	WriteSuccess(w, skills)
}

// HandleAddSkill 为用户添加技能
// @Summary 添加技能
// @Tags 用户
// @Accept json
// @Produce json
// @Param id path string true "用户 ID"
// @Param request body api.AddSkillRequest true "技能信息"
// @Success 200 {object} Response "添加的技能"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/users/{id}/skills [post]
func (h *UserHandler) HandleAddSkill(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.requireUser(w, r, userID); err != nil {
		return
	}

	var req api.AddSkillRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"skill name and category are required", h.logger)
		return
	}
	if req.Level < 1 || req.Level > 10 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"skill level must be between 1 and 10", h.logger)
		return
	}

	skill := &store.Skill{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Category:   strings.TrimSpace(req.Category),
		Level:      req.Level,
		AssessedAt: time.Now().UTC(),
	}
	if err := h.repo.AddSkill(r.Context(), skill); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to add skill", h.logger)
		return
	}

	h.logger.Info("skill added",
		zap.String("user_id", userID),
		zap.String("skill", skill.Name),
		zap.Int("level", skill.Level))
	WriteSuccess(w, skill)
}

// HandleListAssessments 按时间倒序列出评估记录
// @Summary 列出评估
// @Tags 用户
// @Produce json
// @Param id path string true "用户 ID"
// @Success 200 {object} Response "评估列表"
// @Router /api/v1/users/{id}/assessments [get]
func (h *UserHandler) HandleListAssessments(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.requireUser(w, r, userID); err != nil {
		return
	}

	assessments, err := h.repo.ListAssessments(r.Context(), userID, 50)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to list assessments", h.logger)
		return
	}
	WriteSuccess(w, assessments)
}

// HandleListLearningPaths 列出学习路径
// @Summary 列出学习路径
// @Tags 用户
// @Produce json
// @Param id path string true "用户 ID"
// @Success 200 {object} Response "学习路径列表"
// @Router /api/v1/users/{id}/learning-paths [get]
func (h *UserHandler) HandleListLearningPaths(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.requireUser(w, r, userID); err != nil {
		return
	}

	paths, err := h.repo.ListLearningPaths(r.Context(), userID)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to list learning paths", h.logger)
		return
	}
	WriteSuccess(w, paths)
}

// HandleCreateLearningPath 创建学习路径
// @Summary 创建学习路径
// @Tags 用户
// @Accept json
// @Produce json
// @Param id path string true "用户 ID"
// @Param request body api.CreateLearningPathRequest true "路径信息"
// @Success 200 {object} Response "创建的学习路径"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/users/{id}/learning-paths [post]
func (h *UserHandler) HandleCreateLearningPath(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.requireUser(w, r, userID); err != nil {
		return
	}

	var req api.CreateLearningPathRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"learning path title is required", h.logger)
		return
	}

	path := &store.LearningPath{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TargetRole:  req.TargetRole,
		Steps:       req.Steps,
	}
	if err := h.repo.CreateLearningPath(r.Context(), path); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to create learning path", h.logger)
		return
	}
	WriteSuccess(w, path)
}

// HandleUpdateProgress 更新学习路径进度
// @Summary 更新进度
// @Tags 用户
// @Accept json
// @Produce json
// @Param pathID path string true "学习路径 ID"
// @Param request body api.UpdateProgressRequest true "进度"
// @Success 200 {object} Response "更新结果"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/learning-paths/{pathID}/progress [post]
func (h *UserHandler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	pathID := r.PathValue("pathID")

	var req api.UpdateProgressRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Progress < 0 || req.Progress > 1 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"progress must be between 0 and 1", h.logger)
		return
	}

	if err := h.repo.UpdateLearningPathProgress(r.Context(), pathID, req.Progress); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound,
				"learning path not found", h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"failed to update progress", h.logger)
		return
	}
	WriteSuccess(w, map[string]any{"path_id": pathID, "progress": req.Progress})
}

// requireUser 校验路径中的用户存在,失败时已写好响应。
func (h *UserHandler) requireUser(w http.ResponseWriter, r *http.Request, userID string) (*store.User, error) {
	if strings.TrimSpace(userID) == "" {
		err := types.NewError(types.ErrInvalidRequest, "user id is required").
			WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, err, h.logger)
		return nil, err
	}
	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiErr := types.NewError(types.ErrNotFound, "user not found").
				WithHTTPStatus(http.StatusNotFound)
			WriteError(w, apiErr, h.logger)
			return nil, apiErr
		}
		apiErr := types.NewError(types.ErrInternalError, "failed to load user").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return nil, apiErr
	}
	return user, nil
}
