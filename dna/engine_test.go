package dna

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

func sampleInput() *AssessmentInput {
	return &AssessmentInput{
		VisualResponses:    6,
		ChartInteractions:  2,
		AudioPreferences:   1,
		VerbalResponses:    1,
		HandsOnPreferences: 3,
		PracticalExamples:  3,
		CompletionTimes:    []float64{0.3, 0.4},
		AccuracyScores:     []float64{0.6, 0.8},
		RetentionScores:    []float64{0.7, 0.9},
		AnalyticalScore:    0.8,
		CreativeScore:      0.6,
		InfluenceScore:     0.5,
		VisionScore:        0.4,
		ExecutionScore:     0.7,
		NoveltySeeking:     0.7,
		ExperimentationFan: 0.6,
		TeamPreference:     0.8,
		IndependentStreak:  0.3,
		RiskAppetite:       0.55,
		ChangeComfort:      0.65,
	}
}

func TestAnalyzeBuildsProfile(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))

	profile, err := e.Analyze(context.Background(), "u1", sampleInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, "u1", profile.UserID)
	assert.True(t, len(profile.DNAID) > 4)
	assert.Equal(t, 1, profile.Version)
	assert.Empty(t, profile.EvolutionHistory)

	// 认知风格比例之和为 1（multimodal 除外）
	cs := profile.CognitiveStyle
	assert.InDelta(t, 1.0, cs["visual"]+cs["auditory"]+cs["kinesthetic"], 1e-9)
	assert.Equal(t, 0.55, profile.RiskTolerance)
	assert.InDelta(t, 0.64, profile.InnovationQuotient, 1e-9)
}

func TestAnalyzeValidation(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))

	_, err := e.Analyze(context.Background(), "", sampleInput(), nil)
	require.Error(t, err)

	_, err = e.Analyze(context.Background(), "u1", nil, nil)
	require.Error(t, err)
}

func TestAnalyzeEvolution(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := e.Analyze(ctx, "u1", sampleInput(), nil)
	require.NoError(t, err)

	changed := sampleInput()
	changed.RiskAppetite = 0.95 // +0.40，超过突变阈值
	changed.AnalyticalScore = 0.85

	second, err := e.Analyze(ctx, "u1", changed, first)
	require.NoError(t, err)

	assert.Equal(t, first.DNAID, second.DNAID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, 2, second.Version)

	require.Len(t, second.EvolutionHistory, 1)
	event := second.EvolutionHistory[0]
	assert.InDelta(t, 0.40, event.Changes["risk_tolerance"], 1e-9)
	assert.Greater(t, event.EvolutionScore, 0.0)

	require.Len(t, second.MutationEvents, 1)
	assert.Contains(t, second.MutationEvents[0].Mutations, "risk_tolerance")

	// 历史只追加，原画像不被改写
	assert.Empty(t, first.EvolutionHistory)
}

func TestAnalyzeNoChangesNoEvents(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := e.Analyze(ctx, "u1", sampleInput(), nil)
	require.NoError(t, err)
	second, err := e.Analyze(ctx, "u1", sampleInput(), first)
	require.NoError(t, err)

	assert.Empty(t, second.EvolutionHistory)
	assert.Empty(t, second.MutationEvents)
	assert.Equal(t, 2, second.Version)
}

type captureSharer struct {
	payload map[string]any
}

func (c *captureSharer) ShareInsights(_ string, payload map[string]any, _ []string) {
	c.payload = payload
}

func TestAnalyzeSharesInsights(t *testing.T) {
	sharer := &captureSharer{}
	e := NewEngine(sharer, zaptest.NewLogger(t))

	_, err := e.Analyze(context.Background(), "u1", sampleInput(), nil)
	require.NoError(t, err)

	require.NotNil(t, sharer.payload)
	assert.Equal(t, "u1", sharer.payload["user_id"])
	assert.Equal(t, 1, sharer.payload["version"])
}

func TestMatchJobsOrdering(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))
	profile, err := e.Analyze(context.Background(), "u1", sampleInput(), nil)
	require.NoError(t, err)

	jobs := []JobRequirement{
		{Title: "Mismatch Role", NeedsAnalytical: 0.0, NeedsCreative: 1.0, NeedsLeadership: 1.0, NeedsTeamwork: 0.0, RiskLevel: 1.0},
		{Title: "Good Fit Role", NeedsAnalytical: 0.8, NeedsCreative: 0.6, NeedsLeadership: 0.5, NeedsTeamwork: 0.8, RiskLevel: 0.55},
		{Title: "Good Fit Twin", NeedsAnalytical: 0.8, NeedsCreative: 0.6, NeedsLeadership: 0.5, NeedsTeamwork: 0.8, RiskLevel: 0.55},
	}

	matches := e.MatchJobs(profile, jobs)
	require.Len(t, matches, 3)
	assert.Equal(t, "Good Fit Role", matches[0].JobTitle)
	// 同分岗位保持输入顺序
	assert.Equal(t, "Good Fit Twin", matches[1].JobTitle)
	assert.Equal(t, matches[0].MatchScore, matches[1].MatchScore)
	assert.Greater(t, matches[0].MatchScore, matches[2].MatchScore)
	assert.Contains(t, matches[0].Reason, "Strong alignment")
}

func TestTeamCompatibility(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := e.Analyze(ctx, "u1", sampleInput(), nil)
	require.NoError(t, err)

	identical, err := e.Analyze(ctx, "u2", sampleInput(), nil)
	require.NoError(t, err)

	divergent := sampleInput()
	divergent.TeamPreference = 0.1
	divergent.RiskAppetite = 0.95
	b, err := e.Analyze(ctx, "u3", divergent, nil)
	require.NoError(t, err)

	same := e.TeamCompatibility(a, identical)
	diff := e.TeamCompatibility(a, b)
	assert.Greater(t, same, diff)

	assert.Zero(t, e.TeamCompatibility(nil, a))
}

// 属性测试：任意输入下全部 DNA 分量保持在 [0,1] 区间
func TestProfileScoresAlwaysBounded(t *testing.T) {
	e := NewEngine(nil, zaptest.NewLogger(t))

	rapid.Check(t, func(t *rapid.T) {
		input := &AssessmentInput{
			VisualResponses:    rapid.IntRange(0, 100).Draw(t, "visual"),
			ChartInteractions:  rapid.IntRange(0, 100).Draw(t, "charts"),
			AudioPreferences:   rapid.IntRange(0, 100).Draw(t, "audio"),
			VerbalResponses:    rapid.IntRange(0, 100).Draw(t, "verbal"),
			HandsOnPreferences: rapid.IntRange(0, 100).Draw(t, "hands_on"),
			PracticalExamples:  rapid.IntRange(0, 100).Draw(t, "practical"),
			CompletionTimes:    rapid.SliceOfN(rapid.Float64Range(-2, 2), 0, 10).Draw(t, "times"),
			AccuracyScores:     rapid.SliceOfN(rapid.Float64Range(-2, 2), 0, 10).Draw(t, "accuracy"),
			RetentionScores:    rapid.SliceOfN(rapid.Float64Range(-2, 2), 0, 10).Draw(t, "retention"),
			AnalyticalScore:    rapid.Float64Range(-2, 2).Draw(t, "analytical"),
			CreativeScore:      rapid.Float64Range(-2, 2).Draw(t, "creative"),
			InfluenceScore:     rapid.Float64Range(-2, 2).Draw(t, "influence"),
			VisionScore:        rapid.Float64Range(-2, 2).Draw(t, "vision"),
			ExecutionScore:     rapid.Float64Range(-2, 2).Draw(t, "execution"),
			NoveltySeeking:     rapid.Float64Range(-2, 2).Draw(t, "novelty"),
			ExperimentationFan: rapid.Float64Range(-2, 2).Draw(t, "experimentation"),
			TeamPreference:     rapid.Float64Range(-2, 2).Draw(t, "team"),
			IndependentStreak:  rapid.Float64Range(-2, 2).Draw(t, "independent"),
			RiskAppetite:       rapid.Float64Range(-2, 2).Draw(t, "risk"),
			ChangeComfort:      rapid.Float64Range(-2, 2).Draw(t, "change"),
		}

		profile, err := e.Analyze(context.Background(), "prop-user", input, nil)
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		checkBounded := func(name string, v float64) {
			if v < 0 || v > 1 {
				t.Fatalf("%s out of bounds: %v", name, v)
			}
		}

		checkBounded("innovation_quotient", profile.InnovationQuotient)
		checkBounded("risk_tolerance", profile.RiskTolerance)
		for _, m := range []map[string]float64{
			profile.CognitiveStyle,
			profile.LearningVelocity,
			profile.ProblemSolving,
			profile.LeadershipMarkers,
			profile.CollaborationChemistry,
			profile.AdaptationStyle,
		} {
			for name, v := range m {
				checkBounded(name, v)
			}
		}
	})
}
