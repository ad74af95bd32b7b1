// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package swarm

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// 🐝 职业智能蜂群
// =============================================================================

// Role 蜂群 Agent 角色
type Role string

const (
	RoleMultiPerspective  Role = "multi_perspective_analyzer"
	RoleTemporalNavigator Role = "temporal_pattern_navigator"
	RoleEmergenceCatalyst Role = "emergence_catalyst"
	RoleResonanceDetector Role = "career_resonance_detector"
	RoleOpportunityHunter Role = "opportunity_hunter"
	RoleMarketProphet     Role = "market_trend_prophet"
)

// SkillEntry 技能条目
type SkillEntry struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// HistoryEntry 职业履历条目
type HistoryEntry struct {
	Role  string  `json:"role"`
	Years float64 `json:"years"`
}

// CareerData 蜂群分析输入
type CareerData struct {
	UserID          string         `json:"user_id"`
	CurrentRole     string         `json:"current_role"`
	TargetRole      string         `json:"target_role,omitempty"`
	ExperienceYears float64        `json:"experience_years"`
	Skills          []SkillEntry   `json:"skills"`
	Interests       []string       `json:"interests,omitempty"`
	CareerHistory   []HistoryEntry `json:"career_history,omitempty"`
}

// Analysis 单个 Agent 的分析结果
type Analysis struct {
	AgentID    string         `json:"agent_id"`
	Role       Role           `json:"role"`
	Findings   map[string]any `json:"findings"`
	Highlights []string       `json:"highlights"`
	Confidence float64        `json:"confidence"`
	Duration   time.Duration  `json:"duration"`
}

// Collaboration 一次成对协作的产出
type Collaboration struct {
	ID             string    `json:"id"`
	Agents         [2]string `json:"agents"`
	Type           string    `json:"type"`
	SynergyScore   float64   `json:"synergy_score"`
	JointInsights  []string  `json:"joint_insights"`
	CollaboratedAt time.Time `json:"collaborated_at"`
}

// Result 完整蜂群分析结果
type Result struct {
	AnalysisID      string               `json:"analysis_id"`
	Analyses        map[string]*Analysis `json:"analyses"`
	Collaborations  []*Collaboration     `json:"collaborations"`
	Recommendations []string             `json:"recommendations"`
	SwarmConfidence float64              `json:"swarm_confidence"`
	AnalyzedAt      time.Time            `json:"analyzed_at"`
}

// Agent 蜂群成员接口
type Agent interface {
	ID() string
	Role() Role
	Capabilities() []string
	ProcessCareerData(ctx context.Context, data *CareerData) (*Analysis, error)
}

// Recorder 蜂群指标上报接口
type Recorder interface {
	RecordSwarmAnalysis(status string, agentCount int, duration time.Duration)
}

// InsightSharer 分析完成后向总线分享洞察的接口
type InsightSharer interface {
	ShareInsights(agentID string, payload map[string]any, targets []string)
}

// Swarm 职业智能蜂群：并发运行各 Agent，
// 按角色协同分生成协作配对，最后综合推荐。
type Swarm struct {
	mu       sync.Mutex
	agents   []Agent
	rng      *rand.Rand
	recorder Recorder
	sharer   InsightSharer
	logger   *zap.Logger
}

// Option 蜂群构造选项
type Option func(*Swarm)

// WithRandSource 注入确定性随机源，用于测试
func WithRandSource(src rand.Source) Option {
	return func(s *Swarm) { s.rng = rand.New(src) }
}

// WithRecorder 注入指标上报
func WithRecorder(rec Recorder) Option {
	return func(s *Swarm) { s.recorder = rec }
}

// WithInsightSharer 注入总线洞察分享
func WithInsightSharer(sharer InsightSharer) Option {
	return func(s *Swarm) { s.sharer = sharer }
}

// New 创建蜂群。agents 为空时使用默认的三个内置 Agent。
func New(agents []Agent, logger *zap.Logger, opts ...Option) *Swarm {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(agents) == 0 {
		agents = DefaultAgents()
	}

	s := &Swarm{
		agents: agents,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.With(zap.String("component", "swarm")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultAgents 返回内置的三个分析 Agent
func DefaultAgents() []Agent {
	return []Agent{
		NewMultiPerspectiveAnalyzer(),
		NewTemporalNavigator(),
		NewEmergenceCatalyst(),
	}
}

// Agents 返回蜂群成员描述
func (s *Swarm) Agents() []map[string]any {
	out := make([]map[string]any, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, map[string]any{
			"id":           a.ID(),
			"role":         string(a.Role()),
			"capabilities": a.Capabilities(),
		})
	}
	return out
}

// Analyze 执行完整蜂群分析：
// 阶段一并发运行全部 Agent，阶段二按角色协同分执行成对协作，
// 阶段三综合推荐并计算整体置信度。
func (s *Swarm) Analyze(ctx context.Context, data *CareerData) (*Result, error) {
	if data == nil || len(data.Skills) == 0 {
		return nil, fmt.Errorf("career data with at least one skill is required")
	}

	start := time.Now()

	analyses, err := s.runAgents(ctx, data)
	if err != nil {
		if s.recorder != nil {
			s.recorder.RecordSwarmAnalysis("error", len(s.agents), time.Since(start))
		}
		return nil, err
	}

	collaborations := s.runCollaborations(analyses, data)

	result := &Result{
		AnalysisID:      uuid.NewString(),
		Analyses:        analyses,
		Collaborations:  collaborations,
		Recommendations: synthesizeRecommendations(analyses, collaborations, data),
		SwarmConfidence: swarmConfidence(analyses),
		AnalyzedAt:      time.Now(),
	}

	if s.recorder != nil {
		s.recorder.RecordSwarmAnalysis("success", len(s.agents), time.Since(start))
	}
	if s.sharer != nil {
		s.sharer.ShareInsights("career-swarm", map[string]any{
			"analysis_id":      result.AnalysisID,
			"user_id":          data.UserID,
			"swarm_confidence": result.SwarmConfidence,
			"recommendations":  len(result.Recommendations),
		}, nil)
	}

	s.logger.Info("swarm analysis completed",
		zap.String("analysis_id", result.AnalysisID),
		zap.Int("agents", len(analyses)),
		zap.Int("collaborations", len(collaborations)),
		zap.Float64("confidence", result.SwarmConfidence),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (s *Swarm) runAgents(ctx context.Context, data *CareerData) (map[string]*Analysis, error) {
	analyses := make(map[string]*Analysis, len(s.agents))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, agent := range s.agents {
		agent := agent
		g.Go(func() error {
			agentStart := time.Now()
			analysis, err := agent.ProcessCareerData(gctx, data)
			if err != nil {
				// 单 Agent 失败不中断整体分析
				s.logger.Warn("agent analysis failed",
					zap.String("agent_id", agent.ID()),
					zap.Error(err),
				)
				return nil
			}
			analysis.AgentID = agent.ID()
			analysis.Role = agent.Role()
			analysis.Duration = time.Since(agentStart)
			analysis.Confidence = s.confidenceFor(analysis.Confidence)

			mu.Lock()
			analyses[agent.ID()] = analysis
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("all swarm agents failed")
	}
	return analyses, nil
}

// confidenceFor 在 Agent 自报置信度基础上加入 [0.7, 0.95) 的抖动基线
func (s *Swarm) confidenceFor(reported float64) float64 {
	if reported > 0 {
		return clamp01(reported)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return 0.7 + s.rng.Float64()*0.25
}

func (s *Swarm) runCollaborations(analyses map[string]*Analysis, data *CareerData) []*Collaboration {
	var collaborations []*Collaboration

	for i := 0; i < len(s.agents); i++ {
		for j := i + 1; j < len(s.agents); j++ {
			a, b := s.agents[i], s.agents[j]
			if _, ok := analyses[a.ID()]; !ok {
				continue
			}
			if _, ok := analyses[b.ID()]; !ok {
				continue
			}

			potential := collaborationPotential(a, b)
			if potential <= 0.7 {
				continue
			}

			collaborations = append(collaborations, &Collaboration{
				ID:             uuid.NewString(),
				Agents:         [2]string{a.ID(), b.ID()},
				Type:           collaborationType(a.Role(), b.Role()),
				SynergyScore:   potential,
				JointInsights:  jointInsights(analyses[a.ID()], analyses[b.ID()], data),
				CollaboratedAt: time.Now(),
			})
		}
	}

	return collaborations
}

// =============================================================================
// 🧮 协同评分
// =============================================================================

// roleSynergy 角色协同分矩阵，未列出的组合取基线 0.6
var roleSynergy = map[[2]Role]float64{
	{RoleMultiPerspective, RoleTemporalNavigator}:  0.95,
	{RoleResonanceDetector, RoleOpportunityHunter}: 0.90,
	{RoleEmergenceCatalyst, RoleMultiPerspective}:  0.88,
	{RoleEmergenceCatalyst, RoleTemporalNavigator}: 0.82,
}

func synergyFor(r1, r2 Role) float64 {
	if v, ok := roleSynergy[[2]Role{r1, r2}]; ok {
		return v
	}
	if v, ok := roleSynergy[[2]Role{r2, r1}]; ok {
		return v
	}
	return 0.6
}

// collaborationPotential 能力互补度乘以角色协同分。
// 能力重叠越小，互补度越高。
func collaborationPotential(a, b Agent) float64 {
	capsA, capsB := a.Capabilities(), b.Capabilities()
	setA := make(map[string]struct{}, len(capsA))
	for _, c := range capsA {
		setA[c] = struct{}{}
	}
	overlap := 0
	for _, c := range capsB {
		if _, ok := setA[c]; ok {
			overlap++
		}
	}
	max := len(capsA)
	if len(capsB) > max {
		max = len(capsB)
	}
	if max == 0 {
		return 0
	}
	complement := 1 - float64(overlap)/float64(max)
	return complement * synergyFor(a.Role(), b.Role())
}

var collaborationTypes = map[[2]Role]string{
	{RoleMultiPerspective, RoleTemporalNavigator}:  "perspective_temporal_fusion",
	{RoleResonanceDetector, RoleOpportunityHunter}: "resonant_opportunity_discovery",
	{RoleEmergenceCatalyst, RoleMultiPerspective}:  "emergent_scenario_expansion",
}

func collaborationType(r1, r2 Role) string {
	if v, ok := collaborationTypes[[2]Role{r1, r2}]; ok {
		return v
	}
	if v, ok := collaborationTypes[[2]Role{r2, r1}]; ok {
		return v
	}
	return "general_collaboration"
}

func jointInsights(a, b *Analysis, data *CareerData) []string {
	insights := []string{
		fmt.Sprintf("%s and %s agree on analysis for %s", a.Role, b.Role, orAny(data.CurrentRole)),
	}
	if len(a.Highlights) > 0 {
		insights = append(insights, a.Highlights[0])
	}
	if len(b.Highlights) > 0 {
		insights = append(insights, b.Highlights[0])
	}
	return insights
}

func synthesizeRecommendations(analyses map[string]*Analysis, collaborations []*Collaboration, data *CareerData) []string {
	var recs []string

	for _, analysis := range analyses {
		if analysis.Confidence > 0.8 {
			recs = append(recs, analysis.Highlights...)
		}
	}
	if len(collaborations) > 0 && data.TargetRole != "" {
		recs = append(recs, fmt.Sprintf("Cross-agent consensus supports a transition toward %s", data.TargetRole))
	}
	if len(recs) == 0 {
		recs = append(recs, "Continue steady skill development across current strengths")
	}

	return dedupeStrings(recs)
}

func swarmConfidence(analyses map[string]*Analysis) float64 {
	if len(analyses) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range analyses {
		total += a.Confidence
	}
	return total / float64(len(analyses))
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orAny(s string) string {
	if s == "" {
		return "the current role"
	}
	return s
}
