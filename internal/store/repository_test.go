package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// =============================================================================
// 🧪 Repository 测试
// =============================================================================

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	pool, err := NewPoolManager(db, PoolConfig{
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	repo := NewRepository(pool, zap.NewNop())
	require.NoError(t, repo.AutoMigrate())

	return repo
}

func mustCreateUser(t *testing.T, repo *Repository, username, email string) *User {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), username, email)
	require.NoError(t, err)
	return user
}

func TestRepository_CreateUser(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "alice", "Alice@Example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	// 邮箱统一小写存储
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestRepository_CreateUser_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustCreateUser(t, repo, "alice", "alice@example.com")

	// 大小写不同的同一邮箱也算重复
	_, err := repo.CreateUser(ctx, "alice2", "ALICE@example.com")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_GetUser_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetUserByEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created := mustCreateUser(t, repo, "bob", "bob@example.com")

	found, err := repo.GetUserByEmail(ctx, "Bob@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestRepository_Skills(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.AddSkill(ctx, &Skill{UserID: user.ID, Name: "Go", Category: "backend", Level: 8}))
	require.NoError(t, repo.AddSkill(ctx, &Skill{UserID: user.ID, Name: "SQL", Category: "data", Level: 5}))

	skills, err := repo.ListSkills(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	// 按等级倒序
	assert.Equal(t, "Go", skills[0].Name)
	assert.Equal(t, 8, skills[0].Level)
}

func TestRepository_AddSkill_UnknownUser(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.AddSkill(context.Background(), &Skill{UserID: "missing", Name: "Go", Level: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Assessments_NewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	old := &Assessment{UserID: user.ID, AssessmentType: "skills", Result: "old", CreatedAt: time.Now().Add(-time.Hour)}
	recent := &Assessment{UserID: user.ID, AssessmentType: "skills", Result: "recent", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateAssessment(ctx, old))
	require.NoError(t, repo.CreateAssessment(ctx, recent))

	assessments, err := repo.ListAssessments(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, assessments, 2)
	assert.Equal(t, "recent", assessments[0].Result)
	assert.Equal(t, "old", assessments[1].Result)
}

func TestRepository_LearningPaths(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	path := &LearningPath{UserID: user.ID, Title: "Backend Engineer Track", TargetRole: "backend"}
	require.NoError(t, repo.CreateLearningPath(ctx, path))

	// 进度超界被收敛到 [0,1]
	require.NoError(t, repo.UpdateLearningPathProgress(ctx, path.ID, 1.5))

	paths, err := repo.ListLearningPaths(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, 1.0, paths[0].Progress)

	assert.ErrorIs(t, repo.UpdateLearningPathProgress(ctx, "missing", 0.5), ErrNotFound)
}

func TestRepository_DNARecord(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	record := &DNARecord{
		UserID:  user.ID,
		Payload: []byte("ciphertext"),
		Nonce:   []byte("nonce"),
		Salt:    []byte("salt"),
		Version: 1,
	}
	require.NoError(t, repo.SaveDNARecord(ctx, record))

	// 覆盖保存
	record.Payload = []byte("ciphertext-v2")
	require.NoError(t, repo.SaveDNARecord(ctx, record))

	got, err := repo.GetDNARecord(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-v2"), got.Payload)

	_, err = repo.GetDNARecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Consent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.SaveConsent(ctx, &ConsentRecord{
		UserID:      user.ID,
		Scope:       "dna_analysis",
		ConsentHash: "abc123",
	}))

	consent, err := repo.ActiveConsent(ctx, user.ID, "dna_analysis")
	require.NoError(t, err)
	assert.Equal(t, "abc123", consent.ConsentHash)

	require.NoError(t, repo.RevokeConsent(ctx, user.ID, "dna_analysis"))

	_, err = repo.ActiveConsent(ctx, user.ID, "dna_analysis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ScheduleDNAPurge(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")
	require.NoError(t, repo.SaveDNARecord(ctx, &DNARecord{UserID: user.ID, Payload: []byte("c"), Nonce: []byte("n"), Salt: []byte("s")}))

	deadline := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.ScheduleDNAPurge(ctx, user.ID, deadline))

	// 未到期不返回
	due, err := repo.DuePurges(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)

	// 到期后返回用户 ID
	due, err = repo.DuePurges(ctx, deadline.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{user.ID}, due)

	// 无档案的用户无法调度
	assert.ErrorIs(t, repo.ScheduleDNAPurge(ctx, "missing", deadline), ErrNotFound)
}

func TestRepository_PurgeUserData(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	require.NoError(t, repo.AddSkill(ctx, &Skill{UserID: user.ID, Name: "Go", Level: 8}))
	require.NoError(t, repo.CreateAssessment(ctx, &Assessment{UserID: user.ID, AssessmentType: "skills"}))
	require.NoError(t, repo.SaveDNARecord(ctx, &DNARecord{UserID: user.ID, Payload: []byte("c"), Nonce: []byte("n"), Salt: []byte("s")}))
	require.NoError(t, repo.SaveConsent(ctx, &ConsentRecord{UserID: user.ID, Scope: "dna_analysis", ConsentHash: "h"}))

	require.NoError(t, repo.PurgeUserData(ctx, user.ID))

	skills, err := repo.ListSkills(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, skills)

	_, err = repo.GetDNARecord(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 用户本体保留
	_, err = repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
}

func TestRepository_RevenueSummary(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	user := mustCreateUser(t, repo, "alice", "alice@example.com")

	events := []*JobEvent{
		{UserID: user.ID, Platform: "indeed", JobID: "j1", Event: "click", Revenue: 0.5},
		{UserID: user.ID, Platform: "indeed", JobID: "j2", Event: "application", Revenue: 2.0},
		{UserID: user.ID, Platform: "linkedin", JobID: "j3", Event: "click", Revenue: 0.75},
	}
	for _, e := range events {
		require.NoError(t, repo.RecordJobEvent(ctx, e))
	}

	summary, err := repo.RevenueSummary(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	// 按收入倒序
	assert.Equal(t, "indeed", summary[0].Platform)
	assert.Equal(t, int64(2), summary[0].Events)
	assert.InDelta(t, 2.5, summary[0].Revenue, 1e-9)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"deadlock", "Deadlock found when trying to get lock", true},
		{"serialization", "ERROR: could not serialize access (SQLSTATE 40001)", true},
		{"bad connection", "driver: bad connection", true},
		{"plain error", "syntax error near SELECT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(errMsg(tt.msg)))
		})
	}

	assert.False(t, isRetryableError(nil))
}

type errMsg string

func (e errMsg) Error() string { return string(e) }
