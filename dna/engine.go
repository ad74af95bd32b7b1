// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package dna

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// 🧬 职业 DNA 引擎
// =============================================================================

// AssessmentInput DNA 分析的行为信号输入。
// 计数与评分来自用户的历史交互、测评与偏好采样。
type AssessmentInput struct {
	// 认知风格信号
	VisualResponses    int `json:"visual_responses"`
	ChartInteractions  int `json:"chart_interactions"`
	AudioPreferences   int `json:"audio_preferences"`
	VerbalResponses    int `json:"verbal_responses"`
	HandsOnPreferences int `json:"hands_on_preferences"`
	PracticalExamples  int `json:"practical_examples"`

	// 学习速度信号，均为 [0,1] 区间
	CompletionTimes []float64 `json:"task_completion_times,omitempty"`
	AccuracyScores  []float64 `json:"accuracy_progression,omitempty"`
	RetentionScores []float64 `json:"retention_scores,omitempty"`

	// 行为评分，均为 [0,1] 区间
	AnalyticalScore    float64 `json:"analytical_score"`
	CreativeScore      float64 `json:"creative_score"`
	InfluenceScore     float64 `json:"influence_score"`
	VisionScore        float64 `json:"vision_score"`
	ExecutionScore     float64 `json:"execution_score"`
	NoveltySeeking     float64 `json:"novelty_seeking"`
	ExperimentationFan float64 `json:"experimentation"`
	TeamPreference     float64 `json:"team_preference"`
	IndependentStreak  float64 `json:"independent_streak"`
	RiskAppetite       float64 `json:"risk_appetite"`
	ChangeComfort      float64 `json:"change_comfort"`
}

// Profile 完整职业 DNA 画像，全部分量取值 [0,1]
type Profile struct {
	UserID      string    `json:"user_id"`
	DNAID       string    `json:"dna_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`

	CognitiveStyle         map[string]float64 `json:"cognitive_style"`
	LearningVelocity       map[string]float64 `json:"learning_velocity"`
	ProblemSolving         map[string]float64 `json:"problem_solving"`
	LeadershipMarkers      map[string]float64 `json:"leadership_markers"`
	InnovationQuotient     float64            `json:"innovation_quotient"`
	CollaborationChemistry map[string]float64 `json:"collaboration_chemistry"`
	RiskTolerance          float64            `json:"risk_tolerance"`
	AdaptationStyle        map[string]float64 `json:"adaptation_style"`

	EvolutionHistory []EvolutionEvent `json:"evolution_history,omitempty"`
	MutationEvents   []MutationEvent  `json:"mutation_events,omitempty"`
}

// EvolutionEvent 画像演化记录
type EvolutionEvent struct {
	Timestamp      time.Time          `json:"timestamp"`
	Changes        map[string]float64 `json:"changes"`
	EvolutionScore float64            `json:"evolution_score"`
}

// MutationEvent 显著分量突变记录
type MutationEvent struct {
	Timestamp  time.Time          `json:"timestamp"`
	Mutations  map[string]float64 `json:"mutations"`
	Confidence float64            `json:"confidence"`
}

// JobMatch 岗位匹配结果
type JobMatch struct {
	JobTitle   string  `json:"job_title"`
	MatchScore float64 `json:"match_score"`
	Reason     string  `json:"reason"`
}

// mutationThreshold 分量变化超过该值记为突变
const mutationThreshold = 0.2

// InsightSharer 分析完成后向总线分享 DNA 摘要
type InsightSharer interface {
	ShareInsights(agentID string, payload map[string]any, targets []string)
}

// Engine 职业 DNA 分析引擎。画像持久化由 Vault 负责，
// Engine 只做纯计算。
type Engine struct {
	sharer InsightSharer
	logger *zap.Logger
}

// NewEngine 创建 DNA 引擎。sharer 可为 nil。
func NewEngine(sharer InsightSharer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sharer: sharer,
		logger: logger.With(zap.String("component", "dna_engine")),
	}
}

// Analyze 从行为信号构建 DNA 画像。previous 非 nil 时在其
// 基础上演化：保留历史并追加演化/突变事件，绝不改写既有历史。
func (e *Engine) Analyze(ctx context.Context, userID string, input *AssessmentInput, previous *Profile) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if input == nil {
		return nil, fmt.Errorf("assessment input is required")
	}

	now := time.Now().UTC()
	profile := &Profile{
		UserID:                 userID,
		DNAID:                  "dna_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		CreatedAt:              now,
		LastUpdated:            now,
		Version:                1,
		CognitiveStyle:         cognitiveStyle(input),
		LearningVelocity:       learningVelocity(input),
		ProblemSolving:         problemSolving(input),
		LeadershipMarkers:      leadershipMarkers(input),
		InnovationQuotient:     innovationQuotient(input),
		CollaborationChemistry: collaborationChemistry(input),
		RiskTolerance:          clamp01(input.RiskAppetite),
		AdaptationStyle:        adaptationStyle(input),
	}

	if previous != nil {
		profile.DNAID = previous.DNAID
		profile.CreatedAt = previous.CreatedAt
		profile.Version = previous.Version + 1
		profile.EvolutionHistory = append([]EvolutionEvent{}, previous.EvolutionHistory...)
		profile.MutationEvents = append([]MutationEvent{}, previous.MutationEvents...)

		changes := componentChanges(previous, profile)
		if len(changes) > 0 {
			profile.EvolutionHistory = append(profile.EvolutionHistory, EvolutionEvent{
				Timestamp:      now,
				Changes:        changes,
				EvolutionScore: evolutionScore(changes),
			})
			mutations := significantMutations(changes)
			if len(mutations) > 0 {
				profile.MutationEvents = append(profile.MutationEvents, MutationEvent{
					Timestamp:  now,
					Mutations:  mutations,
					Confidence: clamp01(0.6 + float64(len(mutations))*0.1),
				})
			}
		}
	}

	if e.sharer != nil {
		e.sharer.ShareInsights("neural-dna", map[string]any{
			"user_id":             userID,
			"innovation_quotient": profile.InnovationQuotient,
			"risk_tolerance":      profile.RiskTolerance,
			"version":             profile.Version,
		}, nil)
	}

	e.logger.Info("dna profile analyzed",
		zap.String("user_id", userID),
		zap.Int("version", profile.Version),
		zap.Int("mutations", len(profile.MutationEvents)),
	)

	return profile, nil
}

// MatchJobs 依据画像对候选岗位打分，返回按匹配度降序的结果
func (e *Engine) MatchJobs(profile *Profile, jobs []JobRequirement) []JobMatch {
	matches := make([]JobMatch, 0, len(jobs))
	for _, job := range jobs {
		score := jobMatchScore(profile, job)
		matches = append(matches, JobMatch{
			JobTitle:   job.Title,
			MatchScore: score,
			Reason:     matchReason(profile, job, score),
		})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].MatchScore > matches[b].MatchScore
	})
	return matches
}

// JobRequirement 岗位对 DNA 分量的期望
type JobRequirement struct {
	Title           string  `json:"title"`
	NeedsAnalytical float64 `json:"needs_analytical"`
	NeedsCreative   float64 `json:"needs_creative"`
	NeedsLeadership float64 `json:"needs_leadership"`
	NeedsTeamwork   float64 `json:"needs_teamwork"`
	RiskLevel       float64 `json:"risk_level"`
}

// TeamCompatibility 两份画像的团队协作契合度
func (e *Engine) TeamCompatibility(a, b *Profile) float64 {
	if a == nil || b == nil {
		return 0
	}

	// 协作偏好越接近越契合
	teamGap := abs(a.CollaborationChemistry["team_oriented"] - b.CollaborationChemistry["team_oriented"])
	riskGap := abs(a.RiskTolerance - b.RiskTolerance)

	// 解决问题方式互补加分
	styleComplement := abs(a.ProblemSolving["analytical"] - b.ProblemSolving["analytical"])

	return clamp01(1 - teamGap*0.4 - riskGap*0.3 + styleComplement*0.2)
}

// =============================================================================
// 🧮 分量计算
// =============================================================================

func cognitiveStyle(in *AssessmentInput) map[string]float64 {
	visual := float64(in.VisualResponses + in.ChartInteractions)
	auditory := float64(in.AudioPreferences + in.VerbalResponses)
	kinesthetic := float64(in.HandsOnPreferences + in.PracticalExamples)

	total := visual + auditory + kinesthetic
	if total < 1 {
		total = 1
	}
	min := visual
	if auditory < min {
		min = auditory
	}
	if kinesthetic < min {
		min = kinesthetic
	}

	return map[string]float64{
		"visual":      visual / total,
		"auditory":    auditory / total,
		"kinesthetic": kinesthetic / total,
		"multimodal":  min / total,
	}
}

func learningVelocity(in *AssessmentInput) map[string]float64 {
	speed := 0.5
	if len(in.CompletionTimes) > 0 {
		speed = clamp01(1 - mean(in.CompletionTimes))
	}
	retention := 0.5
	if len(in.RetentionScores) > 0 {
		retention = clamp01(mean(in.RetentionScores))
	}
	adaptation := adaptationRate(in.AccuracyScores)

	return map[string]float64{
		"acquisition_speed":   speed,
		"retention_strength":  retention,
		"adaptation_rate":     adaptation,
		"learning_efficiency": clamp01((speed + retention + adaptation) / 3),
	}
}

// adaptationRate 从正确率序列的首尾差推导适应速率
func adaptationRate(scores []float64) float64 {
	if len(scores) < 2 {
		return 0.5
	}
	delta := scores[len(scores)-1] - scores[0]
	return clamp01(0.5 + delta)
}

func problemSolving(in *AssessmentInput) map[string]float64 {
	analytical := clamp01(in.AnalyticalScore)
	creative := clamp01(in.CreativeScore)
	return map[string]float64{
		"analytical": analytical,
		"creative":   creative,
		"hybrid":     clamp01((analytical + creative) / 2),
	}
}

func leadershipMarkers(in *AssessmentInput) map[string]float64 {
	return map[string]float64{
		"influence": clamp01(in.InfluenceScore),
		"vision":    clamp01(in.VisionScore),
		"execution": clamp01(in.ExecutionScore),
	}
}

func innovationQuotient(in *AssessmentInput) float64 {
	return clamp01(in.NoveltySeeking*0.4 + in.ExperimentationFan*0.4 + in.CreativeScore*0.2)
}

func collaborationChemistry(in *AssessmentInput) map[string]float64 {
	team := clamp01(in.TeamPreference)
	independent := clamp01(in.IndependentStreak)
	return map[string]float64{
		"team_oriented": team,
		"independent":   independent,
		"balanced":      clamp01(1 - abs(team-independent)),
	}
}

func adaptationStyle(in *AssessmentInput) map[string]float64 {
	comfort := clamp01(in.ChangeComfort)
	return map[string]float64{
		"change_comfort": comfort,
		"stability_bias": clamp01(1 - comfort),
	}
}

// componentChanges 比较两份画像的标量分量差异
func componentChanges(prev, next *Profile) map[string]float64 {
	changes := make(map[string]float64)

	record := func(key string, before, after float64) {
		if d := after - before; d != 0 {
			changes[key] = d
		}
	}

	record("innovation_quotient", prev.InnovationQuotient, next.InnovationQuotient)
	record("risk_tolerance", prev.RiskTolerance, next.RiskTolerance)
	for k, v := range next.ProblemSolving {
		record("problem_solving."+k, prev.ProblemSolving[k], v)
	}
	for k, v := range next.LearningVelocity {
		record("learning_velocity."+k, prev.LearningVelocity[k], v)
	}
	for k, v := range next.CollaborationChemistry {
		record("collaboration."+k, prev.CollaborationChemistry[k], v)
	}

	return changes
}

func significantMutations(changes map[string]float64) map[string]float64 {
	mutations := make(map[string]float64)
	for k, d := range changes {
		if abs(d) >= mutationThreshold {
			mutations[k] = d
		}
	}
	return mutations
}

func evolutionScore(changes map[string]float64) float64 {
	total := 0.0
	for _, d := range changes {
		total += abs(d)
	}
	return clamp01(total / float64(len(changes)))
}

func jobMatchScore(profile *Profile, job JobRequirement) float64 {
	score := 1.0
	score -= abs(profile.ProblemSolving["analytical"]-job.NeedsAnalytical) * 0.25
	score -= abs(profile.ProblemSolving["creative"]-job.NeedsCreative) * 0.2
	leadership := (profile.LeadershipMarkers["influence"] + profile.LeadershipMarkers["vision"] + profile.LeadershipMarkers["execution"]) / 3
	score -= abs(leadership-job.NeedsLeadership) * 0.2
	score -= abs(profile.CollaborationChemistry["team_oriented"]-job.NeedsTeamwork) * 0.15
	score -= abs(profile.RiskTolerance-job.RiskLevel) * 0.2
	return clamp01(score)
}

func matchReason(profile *Profile, job JobRequirement, score float64) string {
	switch {
	case score >= 0.8:
		return fmt.Sprintf("Strong alignment across problem-solving and risk profile for %s", job.Title)
	case score >= 0.5:
		return fmt.Sprintf("Partial fit for %s; some dimensions diverge", job.Title)
	default:
		return fmt.Sprintf("Weak fit for %s based on current profile", job.Title)
	}
}

func mean(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
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
