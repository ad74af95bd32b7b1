package api

import (
	"time"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/swarm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/dna"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
)

// =============================================================================
// 用户与技能类型
// =============================================================================

// CreateUserRequest 创建用户请求。
// @Description 创建用户请求结构
type CreateUserRequest struct {
	// 用户名
	Username string `json:"username" example:"alice" binding:"required"`
	// 邮箱,全局唯一
	Email string `json:"email" example:"alice@example.com" binding:"required"`
}

// AddSkillRequest 添加技能请求。
// @Description 添加技能请求结构
type AddSkillRequest struct {
	// 技能名称
	Name string `json:"name" example:"Go" binding:"required"`
	// 技能分类
	Category string `json:"category" example:"backend" binding:"required"`
	// 自评等级(1-10)
	Level int `json:"level" example:"7" binding:"required"`
}

// CreateLearningPathRequest 创建学习路径请求。
// @Description 创建学习路径请求结构
type CreateLearningPathRequest struct {
	// 路径标题
	Title string `json:"title" example:"Road to Platform Engineer" binding:"required"`
	// 路径描述
	Description string `json:"description,omitempty"`
	// 目标角色
	TargetRole string `json:"target_role,omitempty" example:"Platform Engineer"`
	// 序列化的学习步骤
	Steps string `json:"steps,omitempty"`
}

// UpdateProgressRequest 更新学习路径进度请求。
// @Description 进度更新请求结构
type UpdateProgressRequest struct {
	// 完成进度(0-1)
	Progress float64 `json:"progress" example:"0.42"`
}

// =============================================================================
// AI 分析类型
// =============================================================================

// AssessSkillsRequest 技能评估请求。
// @Description 技能评估请求结构
type AssessSkillsRequest struct {
	// 可选用户 ID,提供时评估结果会持久化
	UserID string `json:"user_id,omitempty" example:"user-1"`
	// 待评估技能列表
	Skills []llm.SkillInput `json:"skills" binding:"required"`
}

// AssessSkillsResponse 技能评估响应。
// @Description 技能评估响应结构
type AssessSkillsResponse struct {
	// 评估文本
	Analysis string `json:"analysis"`
	// 综合得分(0-1)
	Score float64 `json:"score"`
	// 使用的模型
	Model string `json:"model"`
	// 代币使用统计
	Usage llm.ChatUsage `json:"usage"`
	// 响应是否来自结构化解析
	Structured bool `json:"structured"`
	// 持久化的评估记录 ID(仅当提供 user_id)
	AssessmentID string `json:"assessment_id,omitempty"`
	// 是否命中缓存
	Cached bool `json:"cached"`
}

// CareerGuidanceRequest 职业指导请求。
// @Description 职业指导请求结构
type CareerGuidanceRequest struct {
	// 可选用户 ID,用于结果缓存
	UserID string `json:"user_id,omitempty"`
	// 当前角色
	CurrentRole string `json:"current_role,omitempty" example:"Backend Developer"`
	// 目标角色
	TargetRole string `json:"target_role,omitempty" example:"Platform Engineer"`
	// 经验年限
	ExperienceYears int `json:"experience_years,omitempty" example:"5"`
	// 兴趣方向
	Interests []string `json:"interests,omitempty"`
	// 技能列表
	Skills []llm.SkillInput `json:"skills,omitempty"`
}

// CareerGuidanceResponse 职业指导响应。
// @Description 职业指导响应结构
type CareerGuidanceResponse struct {
	// 指导文本
	Guidance string `json:"guidance"`
	// AI 提供商
	Provider string `json:"provider"`
	// 是否命中缓存
	Cached bool `json:"cached"`
}

// SwarmAnalysisRequest 群体分析请求,结构与 swarm.CareerData 对齐。
// @Description 群体分析请求结构
type SwarmAnalysisRequest struct {
	UserID          string               `json:"user_id,omitempty"`
	CurrentRole     string               `json:"current_role,omitempty"`
	TargetRole      string               `json:"target_role,omitempty"`
	ExperienceYears float64              `json:"experience_years,omitempty"`
	Skills          []swarm.SkillEntry   `json:"skills" binding:"required"`
	Interests       []string             `json:"interests,omitempty"`
	CareerHistory   []swarm.HistoryEntry `json:"career_history,omitempty"`
}

// =============================================================================
// 职业 DNA 类型
// =============================================================================

// DNAAnalyzeRequest 职业 DNA 计算请求。
// @Description DNA 分析请求结构
type DNAAnalyzeRequest struct {
	// 用户 ID
	UserID string `json:"user_id" binding:"required"`
	// 评估输入数据
	Assessment dna.AssessmentInput `json:"assessment" binding:"required"`
}

// ConsentRequest 同意记录请求。
// @Description 同意记录请求结构
type ConsentRequest struct {
	// 用户 ID
	UserID string `json:"user_id" binding:"required"`
}

// ConsentResponse 同意记录响应。
// @Description 同意记录响应结构
type ConsentResponse struct {
	// 同意记录 ID
	ConsentID string `json:"consent_id"`
	// SHA-256 同意哈希
	ConsentHash string `json:"consent_hash"`
	// 授权范围
	Scope string `json:"scope"`
	// 授权时间
	GrantedAt time.Time `json:"granted_at"`
}

// =============================================================================
// 职位与收入类型
// =============================================================================

// JobTrackRequest 联盟事件跟踪请求。
// @Description 职位事件跟踪请求结构
type JobTrackRequest struct {
	// 可选用户 ID
	UserID string `json:"user_id,omitempty"`
	// 平台标识
	Platform string `json:"platform" example:"indeed" binding:"required"`
	// 职位 ID
	JobID string `json:"job_id" example:"indeed_001" binding:"required"`
	// 事件类型:click / application / hire
	Event string `json:"event" example:"click" binding:"required"`
}

// =============================================================================
// 文件上传类型
// =============================================================================

// UploadResponse 文件上传响应。
// @Description 文件上传响应结构
type UploadResponse struct {
	// 清洗后的文件名
	Filename string `json:"filename"`
	// 文件大小(字节)
	Size int64 `json:"size"`
	// 存储相对路径
	StoredAt string `json:"stored_at"`
}

// =============================================================================
// 状态类型
// =============================================================================

// BannerResponse 服务横幅。
// @Description 服务横幅结构
type BannerResponse struct {
	// 服务名
	Service string `json:"service"`
	// 版本号
	Version string `json:"version"`
	// AI 提供商
	AIProvider string `json:"ai_provider"`
	// 功能列表
	Features []string `json:"features"`
}
