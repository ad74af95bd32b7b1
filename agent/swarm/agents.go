// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

package swarm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// 🎯 内置分析 Agent
// =============================================================================

// MultiPerspectiveAnalyzer 多视角职业状态分析：
// 将技能组合编码为位置向量，生成多个加权职业情景。
type MultiPerspectiveAnalyzer struct {
	id string
}

func NewMultiPerspectiveAnalyzer() *MultiPerspectiveAnalyzer {
	return &MultiPerspectiveAnalyzer{id: "multi-perspective-analyzer"}
}

func (a *MultiPerspectiveAnalyzer) ID() string { return a.id }
func (a *MultiPerspectiveAnalyzer) Role() Role { return RoleMultiPerspective }

func (a *MultiPerspectiveAnalyzer) Capabilities() []string {
	return []string{
		"multi_perspective_state_analysis",
		"scenario_ensemble_modeling",
		"skill_correlation_detection",
		"career_uncertainty_estimation",
	}
}

func (a *MultiPerspectiveAnalyzer) ProcessCareerData(ctx context.Context, data *CareerData) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	position := make([]float64, 0, len(data.Skills))
	total := 0.0
	for _, s := range data.Skills {
		v := clamp01(float64(s.Level) / 10)
		position = append(position, v)
		total += v
	}
	avgLevel := total / float64(len(data.Skills))

	scenarios := buildScenarios(data, avgLevel)

	topSkill := strongestSkill(data.Skills)
	highlights := []string{
		fmt.Sprintf("Strongest position is %s; lean on it when targeting %s", topSkill, orAny(data.TargetRole)),
	}
	if avgLevel < 0.5 {
		highlights = append(highlights, "Overall skill depth is below market median; prioritize depth over breadth")
	}

	return &Analysis{
		Findings: map[string]any{
			"position_vector":        position,
			"average_skill_level":    avgLevel,
			"scenario_probabilities": scenarios,
			"uncertainty":            clamp01(1 - avgLevel*0.8),
		},
		Highlights: highlights,
		Confidence: clamp01(0.6 + avgLevel*0.3),
	}, nil
}

// buildScenarios 依据技能均值生成三个加权职业情景
func buildScenarios(data *CareerData, avgLevel float64) []map[string]any {
	target := orAny(data.TargetRole)
	return []map[string]any{
		{"scenario": "advance in " + orAny(data.CurrentRole), "weight": clamp01(0.4 + avgLevel*0.2)},
		{"scenario": "transition toward " + target, "weight": clamp01(avgLevel * 0.5)},
		{"scenario": "lateral specialization", "weight": clamp01(0.3 - avgLevel*0.1)},
	}
}

func strongestSkill(skills []SkillEntry) string {
	best := skills[0]
	for _, s := range skills[1:] {
		if s.Level > best.Level {
			best = s
		}
	}
	return best.Name
}

// TemporalNavigator 时间维度职业轨迹分析：
// 从履历推导技能增速与时机窗口。
type TemporalNavigator struct {
	id string
}

func NewTemporalNavigator() *TemporalNavigator {
	return &TemporalNavigator{id: "temporal-navigator"}
}

func (a *TemporalNavigator) ID() string { return a.id }
func (a *TemporalNavigator) Role() Role { return RoleTemporalNavigator }

func (a *TemporalNavigator) Capabilities() []string {
	return []string{
		"temporal_vector_analysis",
		"career_timeline_optimization",
		"timing_window_detection",
		"trajectory_risk_assessment",
	}
}

func (a *TemporalNavigator) ProcessCareerData(ctx context.Context, data *CareerData) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	years := data.ExperienceYears
	for _, h := range data.CareerHistory {
		years += h.Years
	}
	if years < 1 {
		years = 1
	}

	totalLevel := 0
	for _, s := range data.Skills {
		totalLevel += s.Level
	}
	// 每年习得的技能等级点数
	velocity := float64(totalLevel) / years

	window := "6-12 months"
	risk := "moderate"
	switch {
	case velocity >= 3:
		window = "0-6 months"
		risk = "low"
	case velocity < 1:
		window = "12-24 months"
		risk = "elevated"
	}

	highlights := []string{
		fmt.Sprintf("Skill acquisition velocity is %.1f points/year; optimal transition window is %s", velocity, window),
	}
	if len(data.CareerHistory) >= 3 {
		highlights = append(highlights, "Frequent role changes detected; emphasize continuity in the next move")
	}

	return &Analysis{
		Findings: map[string]any{
			"skill_velocity":        velocity,
			"effective_years":       years,
			"optimal_timing_window": window,
			"trajectory_risk":       risk,
		},
		Highlights: highlights,
		Confidence: clamp01(0.65 + velocity*0.05),
	}, nil
}

// EmergenceCatalyst 涌现机会检测：
// 从跨领域技能组合中识别复合型机会。
type EmergenceCatalyst struct {
	id string
}

func NewEmergenceCatalyst() *EmergenceCatalyst {
	return &EmergenceCatalyst{id: "emergence-catalyst"}
}

func (a *EmergenceCatalyst) ID() string { return a.id }
func (a *EmergenceCatalyst) Role() Role { return RoleEmergenceCatalyst }

func (a *EmergenceCatalyst) Capabilities() []string {
	return []string{
		"emergent_pattern_detection",
		"opportunity_crystallization",
		"phase_transition_prediction",
		"cross_domain_synthesis",
	}
}

// emergentCombos 已知的跨领域技能组合及其复合机会
var emergentCombos = []struct {
	a, b        string
	opportunity string
}{
	{"go", "kubernetes", "platform engineering"},
	{"python", "machine learning", "ML engineering"},
	{"design", "frontend", "product engineering"},
	{"data", "sql", "analytics engineering"},
	{"security", "cloud", "cloud security architecture"},
	{"unity", "c#", "game development"},
}

func (a *EmergenceCatalyst) ProcessCareerData(ctx context.Context, data *CareerData) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.Skills))
	for _, s := range data.Skills {
		names = append(names, strings.ToLower(s.Name))
	}

	var opportunities []string
	for _, combo := range emergentCombos {
		if containsSubstr(names, combo.a) && containsSubstr(names, combo.b) {
			opportunities = append(opportunities, combo.opportunity)
		}
	}
	sort.Strings(opportunities)

	phaseTransition := len(opportunities) > 0 && data.TargetRole != "" &&
		data.TargetRole != data.CurrentRole

	highlights := make([]string, 0, 2)
	for _, opp := range opportunities {
		highlights = append(highlights, fmt.Sprintf("Skill combination crystallizes an opening in %s", opp))
	}
	if phaseTransition {
		highlights = append(highlights, "Conditions for a career phase transition are present")
	}
	if len(highlights) == 0 {
		highlights = append(highlights, "No emergent cross-domain combinations yet; broaden adjacent skills")
	}

	return &Analysis{
		Findings: map[string]any{
			"emergent_opportunities": opportunities,
			"phase_transition_ready": phaseTransition,
			"combination_count":      len(opportunities),
		},
		Highlights: highlights,
		Confidence: clamp01(0.55 + float64(len(opportunities))*0.15),
	}, nil
}

func containsSubstr(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
