// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package jobs

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ===== 💼 平台常量 =====

// 支持的职位平台。
const (
	PlatformIndeed       = "indeed"
	PlatformLinkedIn     = "linkedin"
	PlatformZipRecruiter = "ziprecruiter"
	PlatformGaming       = "gaming_jobs"
)

// ===== 📋 数据模型 =====

// Listing 单条职位结果,包含联盟跟踪信息。
type Listing struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Location         string    `json:"location"`
	Summary          string    `json:"summary"`
	URL              string    `json:"url"`
	AffiliateURL     string    `json:"affiliate_url"`
	TrackingID       string    `json:"tracking_id"`
	Salary           string    `json:"salary"`
	Source           string    `json:"source"`
	RevenuePotential float64   `json:"revenue_potential"`
	CommissionRate   float64   `json:"commission_rate"`
	PlatformPriority int       `json:"platform_priority"`
	MatchScore       float64   `json:"match_score"`
	GamingRole       bool      `json:"gaming_role"`
	PostedAt         time.Time `json:"posted_at"`
}

// SearchRequest 聚合搜索参数。
type SearchRequest struct {
	Query           string `json:"query"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"experience_level"` // junior / mid / senior
	Limit           int    `json:"limit"`
}

// SearchResult 聚合搜索结果。
type SearchResult struct {
	Query         string        `json:"query"`
	Listings      []Listing     `json:"listings"`
	TotalFound    int           `json:"total_found"`
	Platforms     []string      `json:"platforms"`
	RevenueOnPage float64       `json:"revenue_on_page"`
	Elapsed       time.Duration `json:"elapsed"`
	SearchedAt    time.Time     `json:"searched_at"`
}

// AffiliateConfig 每个平台的分成配置。
type AffiliateConfig struct {
	Platform         string
	CommissionRate   float64
	RevenuePotential float64
	Priority         int // 1 最高
}

// AffiliateConfigs 返回所有平台的分成配置,按平台名索引。
func AffiliateConfigs() map[string]AffiliateConfig {
	return map[string]AffiliateConfig{
		PlatformIndeed:       {Platform: PlatformIndeed, CommissionRate: 0.15, RevenuePotential: 150, Priority: 1},
		PlatformLinkedIn:     {Platform: PlatformLinkedIn, CommissionRate: 0.30, RevenuePotential: 29.99, Priority: 2},
		PlatformZipRecruiter: {Platform: PlatformZipRecruiter, CommissionRate: 0.20, RevenuePotential: 100, Priority: 3},
		PlatformGaming:       {Platform: PlatformGaming, CommissionRate: 0.25, RevenuePotential: 200, Priority: 4},
	}
}

// ===== 🔌 协作接口 =====

// Searcher 单个平台的搜索实现。
type Searcher interface {
	Platform() string
	Search(ctx context.Context, query, location string, limit int) ([]Listing, error)
}

// Recorder 搜索与点击指标。
type Recorder interface {
	RecordJobSearch(platform, status string)
	RecordJobClick(platform, event string)
}

// SearchCache 结果缓存,通常由 Redis 支持。
type SearchCache interface {
	RememberJSON(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute func(context.Context) (interface{}, error)) error
}

// ===== 🧮 聚合器 =====

// Integrator 跨平台聚合职位搜索:限流、去重、打分、排序。
type Integrator struct {
	searchers []Searcher
	limiters  map[string]*rate.Limiter
	recorder  Recorder
	cache     SearchCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// IntegratorOption 配置聚合器。
type IntegratorOption func(*Integrator)

// WithRecorder 挂接指标收集器。
func WithRecorder(r Recorder) IntegratorOption {
	return func(i *Integrator) { i.recorder = r }
}

// WithSearchCache 启用结果缓存。
func WithSearchCache(c SearchCache, ttl time.Duration) IntegratorOption {
	return func(i *Integrator) {
		i.cache = c
		i.cacheTTL = ttl
	}
}

// WithRateLimit 覆盖某个平台的限流器。
func WithRateLimit(platform string, l *rate.Limiter) IntegratorOption {
	return func(i *Integrator) { i.limiters[platform] = l }
}

// NewIntegrator 创建聚合器。searchers 为空时使用 DefaultSearchers。
func NewIntegrator(searchers []Searcher, logger *zap.Logger, opts ...IntegratorOption) *Integrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(searchers) == 0 {
		searchers = DefaultSearchers(nil, logger)
	}
	integ := &Integrator{
		searchers: searchers,
		limiters:  make(map[string]*rate.Limiter),
		logger:    logger.With(zap.String("component", "job_integrator")),
	}
	for _, s := range searchers {
		// 每个平台每秒 1 次请求,小突发余量。
		integ.limiters[s.Platform()] = rate.NewLimiter(rate.Every(time.Second), 3)
	}
	for _, opt := range opts {
		opt(integ)
	}
	return integ
}

// Search 并发搜索所有平台并合并结果。
//
// 单个平台失败只记录告警,不中断整体搜索。
func (i *Integrator) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	start := time.Now()
	// 每个搜索器写入自己的槽位,合并按注册顺序进行,
	// 以保证去重时保留的条目与调度无关。
	perSearcher := make([][]Listing, len(i.searchers))
	succeeded := make([]bool, len(i.searchers))

	g, gctx := errgroup.WithContext(ctx)
	for idx, s := range i.searchers {
		idx, s := idx, s
		g.Go(func() error {
			if lim := i.limiters[s.Platform()]; lim != nil {
				if err := lim.Wait(gctx); err != nil {
					return err
				}
			}
			listings, err := s.Search(gctx, req.Query, req.Location, req.Limit)
			if err != nil {
				i.recordSearch(s.Platform(), "error")
				i.logger.Warn("platform search failed",
					zap.String("platform", s.Platform()),
					zap.Error(err))
				return nil
			}
			i.recordSearch(s.Platform(), "success")
			perSearcher[idx] = listings
			succeeded[idx] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("job search canceled: %w", err)
	}

	var (
		collected []Listing
		platforms []string
	)
	for idx, s := range i.searchers {
		collected = append(collected, perSearcher[idx]...)
		if succeeded[idx] {
			platforms = append(platforms, s.Platform())
		}
	}

	merged := Deduplicate(collected)
	for idx := range merged {
		merged[idx].MatchScore = RelevanceScore(&merged[idx], req)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].MatchScore > merged[b].MatchScore
	})
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}

	var revenue float64
	for _, l := range merged {
		revenue += l.RevenuePotential
	}
	sort.Strings(platforms)

	return &SearchResult{
		Query:         req.Query,
		Listings:      merged,
		TotalFound:    len(merged),
		Platforms:     platforms,
		RevenueOnPage: revenue,
		Elapsed:       time.Since(start),
		SearchedAt:    time.Now().UTC(),
	}, nil
}

// SearchCached 与 Search 相同,但结果按平台集合与查询缓存。
func (i *Integrator) SearchCached(ctx context.Context, key string, req SearchRequest) (*SearchResult, error) {
	if i.cache == nil {
		return i.Search(ctx, req)
	}
	var result SearchResult
	err := i.cache.RememberJSON(ctx, key, i.cacheTTL, &result, func(cctx context.Context) (interface{}, error) {
		return i.Search(cctx, req)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (i *Integrator) recordSearch(platform, status string) {
	if i.recorder != nil {
		i.recorder.RecordJobSearch(platform, status)
	}
}

// ===== 🧹 去重与打分 =====

// Deduplicate 按小写 标题_公司 去重,保留先到的条目。
func Deduplicate(listings []Listing) []Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		key := strings.ToLower(strings.TrimSpace(l.Title)) + "_" + strings.ToLower(strings.TrimSpace(l.Company))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// RelevanceScore 计算 0-100 的相关度分。
//
// 权重:标题匹配 40、经验级别 30、平台优先级 20、游戏行业加成 10。
func RelevanceScore(l *Listing, req SearchRequest) float64 {
	var score float64

	title := strings.ToLower(l.Title)
	terms := strings.Fields(strings.ToLower(req.Query))
	if len(terms) > 0 {
		matched := 0
		for _, t := range terms {
			if strings.Contains(title, t) {
				matched++
			}
		}
		score += 40 * float64(matched) / float64(len(terms))
	}

	score += experienceScore(title, req.ExperienceLevel)

	if l.PlatformPriority >= 1 && l.PlatformPriority <= 4 {
		score += float64(5-l.PlatformPriority) * 4
	}

	if l.GamingRole {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func experienceScore(title, level string) float64 {
	juniorish := strings.Contains(title, "junior") || strings.Contains(title, "entry") || strings.Contains(title, "intern")
	seniorish := strings.Contains(title, "senior") || strings.Contains(title, "lead") || strings.Contains(title, "principal") || strings.Contains(title, "staff")

	switch strings.ToLower(level) {
	case "junior":
		if juniorish {
			return 30
		}
		if seniorish {
			return 0
		}
	case "senior":
		if seniorish {
			return 30
		}
		if juniorish {
			return 0
		}
	case "mid":
		if !juniorish && !seniorish {
			return 30
		}
		return 10
	default:
		return 15
	}
	return 15
}

// ===== 💰 薪资与联盟 =====

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+\s*-\s*\$[\d,]+`),
	regexp.MustCompile(`(?i)\$[\d,]+k?\s*-\s*\$?[\d,]+k`),
	regexp.MustCompile(`(?i)[\d,]+\s*-\s*[\d,]+\s*per\s+year`),
}

// ExtractSalary 从职位描述中提取薪资区间,找不到时返回 "Competitive"。
func ExtractSalary(text string) string {
	for _, p := range salaryPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return "Competitive"
}

var gamingKeywords = []string{"game", "unity", "unreal", "gaming", "esports", "indie"}

// IsGamingRole 根据标题与摘要判断是否为游戏行业职位。
func IsGamingRole(title, summary string) bool {
	haystack := strings.ToLower(title + " " + summary)
	for _, kw := range gamingKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// NewTrackingID 生成点击跟踪 ID。
func NewTrackingID() string {
	return "ss_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// AffiliateURL 为原始职位链接附加平台对应的联盟参数。
func AffiliateURL(platform, rawURL, jobID, trackingID string) string {
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return rawURL
	}
	q := u.Query()
	switch platform {
	case PlatformIndeed:
		if jobID != "" {
			q.Set("jk", jobID)
		}
		q.Set("from", "skillsync_ai")
		q.Set("utm_source", "skillsync")
		q.Set("utm_medium", "affiliate")
	case PlatformLinkedIn:
		q.Set("ref", "skillsync")
	case PlatformZipRecruiter:
		q.Set("ref", "skillsync")
		if jobID != "" {
			q.Set("job", jobID)
		}
	default:
		q.Set("ref", "skillsync")
	}
	q.Set("tracking_id", trackingID)
	u.RawQuery = q.Encode()
	return u.String()
}

// decorate 为一条原始结果补齐联盟与收入字段。
func decorate(l *Listing, cfg AffiliateConfig) {
	l.Source = cfg.Platform
	l.CommissionRate = cfg.CommissionRate
	l.RevenuePotential = cfg.RevenuePotential
	l.PlatformPriority = cfg.Priority
	l.GamingRole = IsGamingRole(l.Title, l.Summary)
	if l.TrackingID == "" {
		l.TrackingID = NewTrackingID()
	}
	l.AffiliateURL = AffiliateURL(cfg.Platform, l.URL, l.ID, l.TrackingID)
	if l.Salary == "" {
		l.Salary = ExtractSalary(l.Summary)
	}
	if l.PostedAt.IsZero() {
		l.PostedAt = time.Now().UTC()
	}
}
