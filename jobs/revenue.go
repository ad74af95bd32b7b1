// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
)

// ===== 💵 收入跟踪 =====

// 跟踪事件类型。
const (
	EventClick       = "click"
	EventApplication = "application"
	EventHire        = "hire"
)

// 行业平均转化率,用于收入预估。
const (
	clickToApplicationRate = 0.15
	applicationToHireRate  = 0.05
)

// EventStore 事件持久化层。
type EventStore interface {
	RecordJobEvent(ctx context.Context, event *store.JobEvent) error
	RevenueSummary(ctx context.Context, since time.Time) ([]store.PlatformRevenue, error)
}

// RevenueMetrics 汇总收入指标。
type RevenueMetrics struct {
	Since              time.Time               `json:"since"`
	TotalEvents        int64                   `json:"total_events"`
	TotalRevenue       float64                 `json:"total_revenue"`
	ProjectedMonthly   float64                 `json:"projected_monthly"`
	Platforms          []store.PlatformRevenue `json:"platforms"`
	ClickToApplication float64                 `json:"click_to_application_rate"`
	ApplicationToHire  float64                 `json:"application_to_hire_rate"`
}

// Tracker 记录职位点击、申请与录用事件并估算分成收入。
type Tracker struct {
	store    EventStore
	recorder Recorder
	configs  map[string]AffiliateConfig
	logger   *zap.Logger
}

// NewTracker 创建收入跟踪器。
func NewTracker(eventStore EventStore, recorder Recorder, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:    eventStore,
		recorder: recorder,
		configs:  AffiliateConfigs(),
		logger:   logger.With(zap.String("component", "revenue_tracker")),
	}
}

// Track 记录一次联盟事件。事件收入按平台配置与转化率折算:
// 录用记全额分成,申请与点击按转化率递减。
func (t *Tracker) Track(ctx context.Context, userID, platform, jobID, event string) (*store.JobEvent, error) {
	cfg, ok := t.configs[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	revenue, err := estimatedRevenue(cfg, event)
	if err != nil {
		return nil, err
	}

	record := &store.JobEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Platform:  platform,
		JobID:     jobID,
		Event:     event,
		Revenue:   revenue,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.store.RecordJobEvent(ctx, record); err != nil {
		return nil, fmt.Errorf("record job event: %w", err)
	}
	if t.recorder != nil {
		t.recorder.RecordJobClick(platform, event)
	}
	t.logger.Info("job event tracked",
		zap.String("platform", platform),
		zap.String("event", event),
		zap.Float64("revenue", revenue))
	return record, nil
}

// Metrics 汇总自 since 以来的收入表现。
func (t *Tracker) Metrics(ctx context.Context, since time.Time) (*RevenueMetrics, error) {
	rows, err := t.store.RevenueSummary(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load revenue summary: %w", err)
	}

	metrics := &RevenueMetrics{
		Since:              since,
		Platforms:          rows,
		ClickToApplication: clickToApplicationRate,
		ApplicationToHire:  applicationToHireRate,
	}
	for _, row := range rows {
		metrics.TotalEvents += row.Events
		metrics.TotalRevenue += row.Revenue
	}

	// 月度预估:按观测窗口把已实现收入外推到 30 天。
	window := time.Since(since)
	if window > 0 {
		metrics.ProjectedMonthly = metrics.TotalRevenue * float64(30*24*time.Hour) / float64(window)
	}
	return metrics, nil
}

// estimatedRevenue 把单个事件折算成期望分成。
func estimatedRevenue(cfg AffiliateConfig, event string) (float64, error) {
	commission := cfg.RevenuePotential * cfg.CommissionRate
	switch event {
	case EventHire:
		return commission, nil
	case EventApplication:
		return commission * applicationToHireRate, nil
	case EventClick:
		return commission * applicationToHireRate * clickToApplicationRate, nil
	default:
		return 0, fmt.Errorf("unknown event type %q", event)
	}
}
