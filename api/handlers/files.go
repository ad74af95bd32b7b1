package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/api"
	"github.com/ConWan30/skillsync-ai-platform-sub000/types"
)

// =============================================================================
// 📁 文件上传 Handler
// =============================================================================

// MaxUploadSize 上传大小上限 16MB
const MaxUploadSize = 16 << 20

// FilesHandler 简历等文件上传处理器
type FilesHandler struct {
	uploadDir string
	logger    *zap.Logger
}

// NewFilesHandler 创建文件上传处理器
func NewFilesHandler(uploadDir string, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// HandleUpload 处理 multipart 文件上传
// @Summary 文件上传
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "上传文件"
// @Success 200 {object} Response "上传结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 413 {object} Response "文件过大"
// @Router /api/v1/files/upload [post]
func (h *FilesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		WriteErrorMessage(w, http.StatusRequestEntityTooLarge, types.ErrInvalidRequest,
			"upload exceeds the 16MB limit", h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"multipart field 'file' is required", h.logger)
		return
	}
	defer file.Close()

	filename := SanitizeFilename(header.Filename)
	if filename == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"filename is not valid", h.logger)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to prepare upload directory").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	// 前缀随机 ID 防止同名覆盖
	stored := uuid.NewString()[:8] + "_" + filename
	dest, err := os.Create(filepath.Join(h.uploadDir, stored))
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to store file").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}
	defer dest.Close()

	size, err := io.Copy(dest, file)
	if err != nil {
		apiErr := types.NewError(types.ErrInternalError, "failed to write file").WithCause(err)
		WriteError(w, apiErr, h.logger)
		return
	}

	h.logger.Info("file uploaded",
		zap.String("filename", filename),
		zap.Int64("size", size))
	WriteSuccess(w, api.UploadResponse{
		Filename: filename,
		Size:     size,
		StoredAt: stored,
	})
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename 去除路径成分与危险字符,返回安全文件名。
// 无法清洗出合法名称时返回空串。
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || name == "." || name == ".." {
		return ""
	}
	if len(name) > 128 {
		name = name[:128]
	}
	return name
}
