// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/tlsutil"
)

// ===== 🌐 平台搜索器 =====

// DefaultSearchers 返回全部内置平台搜索器。
// client 为 nil 时使用安全默认 HTTP 客户端。
func DefaultSearchers(client *http.Client, logger *zap.Logger) []Searcher {
	if client == nil {
		client = tlsutil.SecureHTTPClient(15 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	configs := AffiliateConfigs()
	return []Searcher{
		&IndeedSearcher{client: client, config: configs[PlatformIndeed], logger: logger},
		&LinkedInSearcher{config: configs[PlatformLinkedIn], logger: logger},
		&ZipRecruiterSearcher{config: configs[PlatformZipRecruiter], logger: logger},
		&GamingSearcher{config: configs[PlatformGaming]},
	}
}

// ---------------------------------------------------------------------------
// Indeed

// IndeedSearcher 调用 Indeed publisher API;未配置或失败时回退到样例数据。
type IndeedSearcher struct {
	client      *http.Client
	baseURL     string
	publisherID string
	config      AffiliateConfig
	logger      *zap.Logger
}

// NewIndeedSearcher 创建 Indeed 搜索器。publisherID 为空时只返回样例数据。
func NewIndeedSearcher(client *http.Client, publisherID string, logger *zap.Logger) *IndeedSearcher {
	if client == nil {
		client = tlsutil.SecureHTTPClient(15 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndeedSearcher{
		client:      client,
		publisherID: publisherID,
		config:      AffiliateConfigs()[PlatformIndeed],
		logger:      logger,
	}
}

func (s *IndeedSearcher) Platform() string { return PlatformIndeed }

func (s *IndeedSearcher) Search(ctx context.Context, query, location string, limit int) ([]Listing, error) {
	if s.publisherID == "" {
		return s.fallback(query), nil
	}
	listings, err := s.searchAPI(ctx, query, location, limit)
	if err != nil {
		s.logger.Warn("indeed api unavailable, serving samples", zap.Error(err))
		return s.fallback(query), nil
	}
	return listings, nil
}

type indeedResponse struct {
	Results []struct {
		JobKey            string `json:"jobkey"`
		JobTitle          string `json:"jobtitle"`
		Company           string `json:"company"`
		FormattedLocation string `json:"formattedLocation"`
		Snippet           string `json:"snippet"`
		URL               string `json:"url"`
	} `json:"results"`
}

func (s *IndeedSearcher) searchAPI(ctx context.Context, query, location string, limit int) ([]Listing, error) {
	base := s.baseURL
	if base == "" {
		base = "https://api.indeed.com/ads/apisearch"
	}
	params := url.Values{}
	params.Set("publisher", s.publisherID)
	params.Set("q", query)
	params.Set("l", location)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("format", "json")
	params.Set("v", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build indeed request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indeed request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indeed status %d", resp.StatusCode)
	}

	var decoded indeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode indeed response: %w", err)
	}

	listings := make([]Listing, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		l := Listing{
			ID:       r.JobKey,
			Title:    r.JobTitle,
			Company:  r.Company,
			Location: r.FormattedLocation,
			Summary:  r.Snippet,
			URL:      r.URL,
		}
		decorate(&l, s.config)
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *IndeedSearcher) fallback(query string) []Listing {
	samples := []Listing{
		{
			ID:       "indeed_001",
			Title:    "Senior Software Engineer",
			Company:  "TechCorp Solutions",
			Location: "San Francisco, CA (Remote)",
			Summary:  "Design and ship distributed backend services. $140,000 - $180,000 per year.",
			URL:      "https://indeed.com/viewjob",
		},
		{
			ID:       "indeed_002",
			Title:    "Full Stack Developer",
			Company:  "InnovateLabs",
			Location: "Austin, TX",
			Summary:  "React and Go across the stack. Salary $95,000 - $130,000 with equity.",
			URL:      "https://indeed.com/viewjob",
		},
		{
			ID:       "indeed_003",
			Title:    "Junior Backend Developer",
			Company:  "GrowthStage Inc",
			Location: "Remote",
			Summary:  "Entry level role working with Python services and PostgreSQL.",
			URL:      "https://indeed.com/viewjob",
		},
	}
	return finishSamples(samples, s.config, query)
}

// ---------------------------------------------------------------------------
// LinkedIn

// LinkedInSearcher 提供 LinkedIn 职位结果。
// LinkedIn 的招聘 API 需要合作伙伴资质,当前仅提供精选样例。
type LinkedInSearcher struct {
	config AffiliateConfig
	logger *zap.Logger
}

func (s *LinkedInSearcher) Platform() string { return PlatformLinkedIn }

func (s *LinkedInSearcher) Search(ctx context.Context, query, _ string, _ int) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	samples := []Listing{
		{
			ID:       "linkedin_001",
			Title:    "Staff Platform Engineer",
			Company:  "CloudScale Ltd.",
			Location: "New York, NY (Hybrid)",
			Summary:  "Kubernetes platform team. $170,000 - $210,000 plus bonus.",
			URL:      "https://linkedin.com/jobs/view/platform-engineer",
		},
		{
			ID:       "linkedin_002",
			Title:    "Machine Learning Engineer",
			Company:  "DataDriven AI",
			Location: "Seattle, WA",
			Summary:  "Productionize ML models at scale with Python and Go.",
			URL:      "https://linkedin.com/jobs/view/ml-engineer",
		},
	}
	return finishSamples(samples, s.config, query), nil
}

// ---------------------------------------------------------------------------
// ZipRecruiter

// ZipRecruiterSearcher 提供 ZipRecruiter 职位结果。
type ZipRecruiterSearcher struct {
	config AffiliateConfig
	logger *zap.Logger
}

func (s *ZipRecruiterSearcher) Platform() string { return PlatformZipRecruiter }

func (s *ZipRecruiterSearcher) Search(ctx context.Context, query, _ string, _ int) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	samples := []Listing{
		{
			ID:       "zip_001",
			Title:    "DevOps Engineer",
			Company:  "ShipFast Technologies",
			Location: "Denver, CO (Remote)",
			Summary:  "Own CI/CD and infrastructure as code. $120,000 - $155,000.",
			URL:      "https://ziprecruiter.com/jobs/devops-engineer",
		},
		{
			ID:       "zip_002",
			Title:    "Software Engineer",
			Company:  "TechCorp Solutions",
			Location: "San Francisco, CA",
			Summary:  "Backend services in Go. Competitive compensation.",
			URL:      "https://ziprecruiter.com/jobs/software-engineer",
		},
	}
	return finishSamples(samples, s.config, query), nil
}

// ---------------------------------------------------------------------------
// 游戏行业

// GamingSearcher 提供游戏行业的精选职位。
type GamingSearcher struct {
	config AffiliateConfig
}

func (s *GamingSearcher) Platform() string { return PlatformGaming }

func (s *GamingSearcher) Search(ctx context.Context, query, _ string, _ int) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	samples := []Listing{
		{
			ID:       "gaming_001",
			Title:    "Unity Game Developer",
			Company:  "PixelForge Studios",
			Location: "Los Angeles, CA",
			Summary:  "Build gameplay systems in Unity and C#. $110,000 - $140,000.",
			URL:      "https://gamedevjobs.example.com/unity-developer",
		},
		{
			ID:       "gaming_002",
			Title:    "Unreal Engine Programmer",
			Company:  "Nebula Interactive",
			Location: "Remote",
			Summary:  "C++ gameplay and tools work on an indie title.",
			URL:      "https://gamedevjobs.example.com/unreal-programmer",
		},
		{
			ID:       "gaming_003",
			Title:    "Esports Platform Engineer",
			Company:  "ArenaOne",
			Location: "Austin, TX",
			Summary:  "Real-time match infrastructure for competitive gaming.",
			URL:      "https://gamedevjobs.example.com/esports-engineer",
		},
	}
	return finishSamples(samples, s.config, query), nil
}

// finishSamples 装饰样例数据并按查询词粗过滤:无匹配时保留全部,
// 避免空结果页。
func finishSamples(samples []Listing, cfg AffiliateConfig, query string) []Listing {
	for idx := range samples {
		decorate(&samples[idx], cfg)
	}
	if query == "" {
		return samples
	}
	filtered := make([]Listing, 0, len(samples))
	for _, l := range samples {
		if titleMatches(l.Title, query) {
			filtered = append(filtered, l)
		}
	}
	if len(filtered) == 0 {
		return samples
	}
	return filtered
}

func titleMatches(title, query string) bool {
	lower := strings.ToLower(title)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
