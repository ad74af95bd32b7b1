// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package dna

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
)

// =============================================================================
// 🔐 隐私保险库
// =============================================================================

// ConsentScope DNA 数据处理的同意范围
const ConsentScope = "dna_analysis"

const (
	pbkdf2Iterations = 600_000
	keyLength        = 32 // AES-256
	saltLength       = 16
)

var (
	// ErrNoConsent 用户未授予有效同意
	ErrNoConsent = errors.New("no active consent for dna analysis")
	// ErrProfileNotFound 保险库中无该用户画像
	ErrProfileNotFound = errors.New("dna profile not found")
)

// Store 保险库所需的持久化接口，由 store.Repository 满足
type Store interface {
	SaveDNARecord(ctx context.Context, record *store.DNARecord) error
	GetDNARecord(ctx context.Context, userID string) (*store.DNARecord, error)
	SaveConsent(ctx context.Context, consent *store.ConsentRecord) error
	ActiveConsent(ctx context.Context, userID, scope string) (*store.ConsentRecord, error)
	RevokeConsent(ctx context.Context, userID, scope string) error
	ScheduleDNAPurge(ctx context.Context, userID string, at time.Time) error
	DuePurges(ctx context.Context, before time.Time) ([]string, error)
	PurgeUserData(ctx context.Context, userID string) error
}

// Vault DNA 画像隐私保险库。画像以 AES-256-GCM 加密存储，
// 每用户密钥由服务主密钥与随机盐经 PBKDF2 派生。
// 这是单密钥对称认证加密：服务端持有主密钥即可解密，
// 不提供零知识或后量子性质。
type Vault struct {
	store     Store
	masterKey []byte
	grace     time.Duration
	logger    *zap.Logger
}

// VaultOption 配置保险库
type VaultOption func(*Vault)

// WithGracePeriod 设置删除宽限期。宽限期内数据保留但同意已撤销，
// 到期后由 PurgeExpired 硬删除。零值表示立即删除。
func WithGracePeriod(d time.Duration) VaultOption {
	return func(v *Vault) {
		v.grace = d
	}
}

// NewVault 创建保险库。masterKey 为服务主密钥，不可为空。
func NewVault(st Store, masterKey []byte, logger *zap.Logger, opts ...VaultOption) (*Vault, error) {
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("master key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Vault{
		store:     st,
		masterKey: masterKey,
		logger:    logger.With(zap.String("component", "dna_vault")),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// GrantConsent 记录用户同意。同意哈希绑定用户、范围与授予时间。
func (v *Vault) GrantConsent(ctx context.Context, userID string) (*store.ConsentRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	now := time.Now().UTC()
	consent := &store.ConsentRecord{
		UserID:      userID,
		Scope:       ConsentScope,
		ConsentHash: consentHash(userID, ConsentScope, now),
		GrantedAt:   now,
	}
	if err := v.store.SaveConsent(ctx, consent); err != nil {
		return nil, err
	}

	v.logger.Info("dna consent granted", zap.String("user_id", userID))
	return consent, nil
}

// HasConsent 检查用户是否存在有效同意
func (v *Vault) HasConsent(ctx context.Context, userID string) bool {
	consent, err := v.store.ActiveConsent(ctx, userID, ConsentScope)
	return err == nil && consent != nil
}

// StoreProfile 加密并持久化画像。要求有效同意。
func (v *Vault) StoreProfile(ctx context.Context, profile *Profile) error {
	if !v.HasConsent(ctx, profile.UserID) {
		return ErrNoConsent
	}

	plaintext, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	record := &store.DNARecord{
		UserID:  profile.UserID,
		Payload: gcm.Seal(nil, nonce, plaintext, []byte(profile.UserID)),
		Nonce:   nonce,
		Salt:    salt,
		Version: profile.Version,
	}
	if err := v.store.SaveDNARecord(ctx, record); err != nil {
		return err
	}

	v.logger.Debug("dna profile stored",
		zap.String("user_id", profile.UserID),
		zap.Int("version", profile.Version),
	)
	return nil
}

// LoadProfile 读取并解密画像
func (v *Vault) LoadProfile(ctx context.Context, userID string) (*Profile, error) {
	record, err := v.store.GetDNARecord(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	gcm, err := v.aead(record.Salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, record.Nonce, record.Payload, []byte(userID))
	if err != nil {
		return nil, fmt.Errorf("decrypt profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(plaintext, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &profile, nil
}

// ExportProfile 导出画像的 JSON 表示，供数据可携带权使用
func (v *Vault) ExportProfile(ctx context.Context, userID string) ([]byte, error) {
	profile, err := v.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(profile, "", "  ")
}

// Purge 执行被遗忘权：撤销同意，并删除（或在宽限期后删除）用户的
// 全部派生数据。返回的 effectiveAt 为零值时表示数据已立即删除，
// 否则为计划的硬删除时刻。
func (v *Vault) Purge(ctx context.Context, userID string) (time.Time, error) {
	if err := v.store.RevokeConsent(ctx, userID, ConsentScope); err != nil {
		return time.Time{}, err
	}

	if v.grace > 0 {
		deadline := time.Now().UTC().Add(v.grace)
		err := v.store.ScheduleDNAPurge(ctx, userID, deadline)
		if err == nil {
			v.logger.Info("dna purge scheduled",
				zap.String("user_id", userID),
				zap.Time("effective_at", deadline),
			)
			return deadline, nil
		}
		// 没有 DNA 档案可携带删除时刻时直接清除其余派生数据
		if !errors.Is(err, store.ErrNotFound) {
			return time.Time{}, err
		}
	}

	if err := v.store.PurgeUserData(ctx, userID); err != nil {
		return time.Time{}, err
	}

	v.logger.Info("dna data purged", zap.String("user_id", userID))
	return time.Time{}, nil
}

// PurgeExpired 硬删除宽限期已过的用户数据，返回清除的用户数
func (v *Vault) PurgeExpired(ctx context.Context) (int, error) {
	due, err := v.store.DuePurges(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, userID := range due {
		if err := v.store.PurgeUserData(ctx, userID); err != nil {
			return 0, err
		}
		v.logger.Info("dna data purged after grace period", zap.String("user_id", userID))
	}
	return len(due), nil
}

// aead 以主密钥和盐派生用户数据密钥并构造 AES-GCM
func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(v.masterKey, salt, pbkdf2Iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}

func consentHash(userID, scope string, at time.Time) string {
	sum := sha256.Sum256([]byte(userID + "|" + scope + "|" + at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
