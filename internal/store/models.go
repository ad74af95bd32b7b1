// Package store provides internal persistence for users, skills,
// assessments and derived career data.
// This package is internal and should not be imported by external projects.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =============================================================================
// 🗃️ 数据模型
// =============================================================================

// User 用户
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"size:80;not null" json:"username"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Skills      []Skill      `gorm:"constraint:OnDelete:CASCADE" json:"skills,omitempty"`
	Assessments []Assessment `gorm:"constraint:OnDelete:CASCADE" json:"assessments,omitempty"`
}

// Skill 用户技能，Level 取值范围 1-10
type Skill struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;index;not null" json:"user_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Category   string    `gorm:"size:50" json:"category"`
	Level      int       `gorm:"not null" json:"level"`
	Verified   bool      `gorm:"default:false" json:"verified"`
	AssessedAt time.Time `json:"assessed_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Assessment AI 技能评估记录
type Assessment struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;index;not null" json:"user_id"`
	AssessmentType string    `gorm:"size:50;not null" json:"assessment_type"`
	Result         string    `gorm:"type:text" json:"result"`
	Score          float64   `json:"score"`
	Model          string    `gorm:"size:50" json:"model"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// LearningPath 学习路径
type LearningPath struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;index;not null" json:"user_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	TargetRole  string    `gorm:"size:100" json:"target_role"`
	Progress    float64   `gorm:"default:0" json:"progress"`
	Steps       string    `gorm:"type:text" json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DNARecord 加密存储的职业 DNA 档案。Payload 为 AES-GCM 密文，
// 明文从不落库。
type DNARecord struct {
	UserID     string     `gorm:"primaryKey;size:36" json:"user_id"`
	Payload    []byte     `gorm:"not null" json:"-"`
	Nonce      []byte     `gorm:"not null" json:"-"`
	Salt       []byte     `gorm:"not null" json:"-"`
	Version    int        `gorm:"default:1" json:"version"`
	PurgeAfter *time.Time `gorm:"index" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ConsentRecord 数据处理同意记录
type ConsentRecord struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;index;not null" json:"user_id"`
	Scope       string     `gorm:"size:50;not null" json:"scope"`
	ConsentHash string     `gorm:"size:64;not null" json:"consent_hash"`
	GrantedAt   time.Time  `json:"granted_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// JobEvent 职位交互事件（搜索点击、申请），用于收入归因
type JobEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index" json:"user_id"`
	Platform  string    `gorm:"size:50;index;not null" json:"platform"`
	JobID     string    `gorm:"size:100" json:"job_id"`
	Event     string    `gorm:"size:20;not null" json:"event"`
	Revenue   float64   `gorm:"default:0" json:"revenue"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// =============================================================================
// 🔧 模型钩子
// =============================================================================

// BeforeCreate 填充主键
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate 填充主键
func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.AssessedAt.IsZero() {
		s.AssessedAt = time.Now().UTC()
	}
	return nil
}

// BeforeCreate 填充主键
func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate 填充主键
func (lp *LearningPath) BeforeCreate(tx *gorm.DB) error {
	if lp.ID == "" {
		lp.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate 填充主键与授权时间
func (c *ConsentRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.GrantedAt.IsZero() {
		c.GrantedAt = time.Now().UTC()
	}
	return nil
}

// BeforeCreate 填充主键
func (e *JobEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// AllModels 返回全部模型，供自动迁移使用
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Skill{},
		&Assessment{},
		&LearningPath{},
		&DNARecord{},
		&ConsentRecord{},
		&JobEvent{},
	}
}
