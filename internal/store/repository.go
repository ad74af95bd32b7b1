package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// 📚 仓储层
// =============================================================================

// 哨兵错误。上层负责映射为对应的 HTTP 语义。
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository 业务数据仓储
type Repository struct {
	pool   *PoolManager
	logger *zap.Logger
}

// NewRepository 创建仓储
func NewRepository(pool *PoolManager, logger *zap.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(zap.String("component", "repository")),
	}
}

// AutoMigrate 自动建表（开发与测试环境使用，生产走 SQL 迁移）
func (r *Repository) AutoMigrate() error {
	return r.pool.DB().AutoMigrate(AllModels()...)
}

func (r *Repository) db(ctx context.Context) *gorm.DB {
	return r.pool.DB().WithContext(ctx)
}

// =============================================================================
// 👤 用户
// =============================================================================

// CreateUser 创建用户。邮箱重复时返回 ErrDuplicateEmail。
func (r *Repository) CreateUser(ctx context.Context, username, email string) (*User, error) {
	user := &User{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
	}

	if err := r.db(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// GetUser 按 ID 获取用户
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail 按邮箱获取用户
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// ListUsers 分页列出用户
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var users []User
	err := r.db(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// =============================================================================
// 🛠️ 技能
// =============================================================================

// AddSkill 为用户添加技能
func (r *Repository) AddSkill(ctx context.Context, skill *Skill) error {
	if _, err := r.GetUser(ctx, skill.UserID); err != nil {
		return err
	}

	if err := r.db(ctx).Create(skill).Error; err != nil {
		return fmt.Errorf("failed to add skill: %w", err)
	}
	return nil
}

// ListSkills 列出用户技能
func (r *Repository) ListSkills(ctx context.Context, userID string) ([]Skill, error) {
	var skills []Skill
	err := r.db(ctx).
		Where("user_id = ?", userID).
		Order("level DESC, name ASC").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

// =============================================================================
// 📋 评估
// =============================================================================

// CreateAssessment 保存评估记录
func (r *Repository) CreateAssessment(ctx context.Context, assessment *Assessment) error {
	if err := r.db(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// ListAssessments 列出用户评估记录，按创建时间倒序
func (r *Repository) ListAssessments(ctx context.Context, userID string, limit int) ([]Assessment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var assessments []Assessment
	err := r.db(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

// =============================================================================
// 🎓 学习路径
// =============================================================================

// CreateLearningPath 创建学习路径
func (r *Repository) CreateLearningPath(ctx context.Context, path *LearningPath) error {
	if _, err := r.GetUser(ctx, path.UserID); err != nil {
		return err
	}

	if err := r.db(ctx).Create(path).Error; err != nil {
		return fmt.Errorf("failed to create learning path: %w", err)
	}
	return nil
}

// ListLearningPaths 列出用户学习路径
func (r *Repository) ListLearningPaths(ctx context.Context, userID string) ([]LearningPath, error) {
	var paths []LearningPath
	err := r.db(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&paths).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list learning paths: %w", err)
	}
	return paths, nil
}

// UpdateLearningPathProgress 更新学习进度，取值 [0,1]
func (r *Repository) UpdateLearningPathProgress(ctx context.Context, pathID string, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	result := r.db(ctx).
		Model(&LearningPath{}).
		Where("id = ?", pathID).
		Update("progress", progress)
	if result.Error != nil {
		return fmt.Errorf("failed to update learning path: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// 🧬 DNA 档案与同意记录
// =============================================================================

// SaveDNARecord 保存（或覆盖）加密的 DNA 档案
func (r *Repository) SaveDNARecord(ctx context.Context, record *DNARecord) error {
	err := r.db(ctx).Save(record).Error
	if err != nil {
		return fmt.Errorf("failed to save dna record: %w", err)
	}
	return nil
}

// GetDNARecord 获取加密的 DNA 档案
func (r *Repository) GetDNARecord(ctx context.Context, userID string) (*DNARecord, error) {
	var record DNARecord
	err := r.db(ctx).First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dna record: %w", err)
	}
	return &record, nil
}

// ScheduleDNAPurge 为用户的 DNA 档案设置延迟清除时刻。
// 用户没有档案时返回 ErrNotFound。
func (r *Repository) ScheduleDNAPurge(ctx context.Context, userID string, at time.Time) error {
	result := r.db(ctx).
		Model(&DNARecord{}).
		Where("user_id = ?", userID).
		Update("purge_after", &at)
	if result.Error != nil {
		return fmt.Errorf("failed to schedule dna purge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DuePurges 返回清除时刻已到的用户 ID 列表
func (r *Repository) DuePurges(ctx context.Context, before time.Time) ([]string, error) {
	var userIDs []string
	err := r.db(ctx).
		Model(&DNARecord{}).
		Where("purge_after IS NOT NULL AND purge_after <= ?", before).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due purges: %w", err)
	}
	return userIDs, nil
}

// SaveConsent 记录数据处理同意
func (r *Repository) SaveConsent(ctx context.Context, consent *ConsentRecord) error {
	if err := r.db(ctx).Create(consent).Error; err != nil {
		return fmt.Errorf("failed to save consent: %w", err)
	}
	return nil
}

// ActiveConsent 返回用户在指定范围内未撤销的最新同意记录
func (r *Repository) ActiveConsent(ctx context.Context, userID, scope string) (*ConsentRecord, error) {
	var consent ConsentRecord
	err := r.db(ctx).
		Where("user_id = ? AND scope = ? AND revoked_at IS NULL", userID, scope).
		Order("granted_at DESC").
		First(&consent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consent: %w", err)
	}
	return &consent, nil
}

// RevokeConsent 撤销用户在指定范围内的全部同意
func (r *Repository) RevokeConsent(ctx context.Context, userID, scope string) error {
	now := time.Now().UTC()
	err := r.db(ctx).
		Model(&ConsentRecord{}).
		Where("user_id = ? AND scope = ? AND revoked_at IS NULL", userID, scope).
		Update("revoked_at", &now).Error
	if err != nil {
		return fmt.Errorf("failed to revoke consent: %w", err)
	}
	return nil
}

// PurgeUserData 删除用户的全部派生数据（DNA 档案、同意记录、评估、
// 技能、学习路径）。在单个事务中执行，用户本体保留。
func (r *Repository) PurgeUserData(ctx context.Context, userID string) error {
	err := r.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Delete(&DNARecord{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ConsentRecord{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Assessment{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Skill{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&LearningPath{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to purge user data: %w", err)
	}

	r.logger.Info("user data purged", zap.String("user_id", userID))
	return nil
}

// =============================================================================
// 💼 职位事件
// =============================================================================

// RecordJobEvent 记录职位交互事件
func (r *Repository) RecordJobEvent(ctx context.Context, event *JobEvent) error {
	if err := r.db(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record job event: %w", err)
	}
	return nil
}

// PlatformRevenue 单个平台的收入汇总
type PlatformRevenue struct {
	Platform string  `json:"platform"`
	Events   int64   `json:"events"`
	Revenue  float64 `json:"revenue"`
}

// RevenueSummary 按平台汇总指定时间之后的职位事件收入
func (r *Repository) RevenueSummary(ctx context.Context, since time.Time) ([]PlatformRevenue, error) {
	var rows []PlatformRevenue
	err := r.db(ctx).
		Model(&JobEvent{}).
		Select("platform, COUNT(*) AS events, COALESCE(SUM(revenue), 0) AS revenue").
		Where("created_at >= ?", since).
		Group("platform").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize revenue: %w", err)
	}
	return rows, nil
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// isDuplicateKey 判断是否为唯一约束冲突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
