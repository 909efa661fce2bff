package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepbank/backend/internal/curriculum"
	"github.com/prepbank/backend/internal/models"
)

func readingConfig() *models.SectionConfig {
	return &models.SectionConfig{
		TestType:            models.TestSAT,
		SectionName:         "reading",
		RequiresPassages:    true,
		TotalQuestions:      50,
		TotalPassages:       13,
		QuestionsPerPassage: 4,
		WordsPerPassage:     700,
		SubSkills:           []string{"main_idea", "inference", "vocabulary_in_context"},
		Kind:                models.KindReading,
	}
}

func mathConfig() *models.SectionConfig {
	return &models.SectionConfig{
		TestType:    models.TestSAT,
		SectionName: "math",
		SubSkills:   []string{"algebra", "geometry", "data_analysis"},
		Kind:        models.KindMath,
	}
}

func snapshotWith(mode models.TestMode, total int) *models.InventorySnapshot {
	snap := models.NewInventorySnapshot(models.TestSAT, "reading")
	snap.ByMode[mode] = models.QuestionCounts{Total: total}
	return snap
}

func TestAnalyzeGapsPassagePlan(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{models.ModePractice1: 50}
	snap := snapshotWith(models.ModePractice1, 40)

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1)
	require.NoError(t, err)

	// Deficit 10 at 4 questions per passage: three passages filled 4, 4, 2,
	// difficulties cycling 1, 2, 3.
	require.Len(t, plan.PassageGaps, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{
		plan.PassageGaps[0].QuestionsExpected,
		plan.PassageGaps[1].QuestionsExpected,
		plan.PassageGaps[2].QuestionsExpected,
	})
	for i, gap := range plan.PassageGaps {
		assert.Equal(t, models.Difficulty(i+1), gap.Difficulty)
		assert.Equal(t, 700, gap.WordCount)
		assert.True(t, gap.IsSharedPassage)
		assert.Equal(t, i, gap.PassageIndex)
	}

	assert.Equal(t, 10, plan.Summary.TotalQuestions)
	assert.Equal(t, 3, plan.Summary.TotalPassages)
	assert.Equal(t, 4, plan.Summary.ByDifficulty[models.DifficultyEasy])
	assert.Equal(t, 4, plan.Summary.ByDifficulty[models.DifficultyMedium])
	assert.Equal(t, 2, plan.Summary.ByDifficulty[models.DifficultyHard])

	total := 0
	for _, gap := range plan.QuestionGaps {
		assert.True(t, gap.NeedsPassage)
		assert.Nil(t, gap.PassageID)
		total += gap.QuestionsNeeded
	}
	assert.Equal(t, 10, total)
}

func TestAnalyzeGapsSubSkillFairness(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{models.ModePractice1: 50}
	snap := snapshotWith(models.ModePractice1, 40)

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1)
	require.NoError(t, err)

	// From an empty inventory the per-skill spread stays within one.
	min, max := -1, -1
	for _, skill := range cfg.SubSkills {
		n := plan.Summary.BySubSkill[skill]
		if min == -1 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	assert.LessOrEqual(t, max-min, 1, "sub-skill allocation spread exceeds 1")
}

func TestAnalyzeGapsSkipsSatisfiedAndZeroQuotaModes(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{
		models.ModePractice1:  50,
		models.ModePractice2:  0,
		models.ModeDiagnostic: 25,
	}
	snap := models.NewInventorySnapshot(models.TestSAT, "reading")
	snap.ByMode[models.ModePractice1] = models.QuestionCounts{Total: 50}
	snap.ByMode[models.ModeDiagnostic] = models.QuestionCounts{Total: 30} // over quota

	plan, err := AnalyzeGaps(cfg, quotas, snap,
		models.ModePractice1, models.ModePractice2, models.ModeDiagnostic)
	require.NoError(t, err)

	assert.True(t, plan.Empty(), "satisfied, zero-quota, and over-quota modes should emit nothing")
}

func TestAnalyzeGapsMissingQuotaIsConfigError(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{models.ModePractice1: 50}
	snap := snapshotWith(models.ModePractice1, 0)

	_, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1, models.ModeDrill)

	var cfgErr *curriculum.ConfigError
	require.True(t, errors.As(err, &cfgErr), "missing quota entry must surface as ConfigError, got %v", err)
}

func TestAnalyzeGapsDeterministic(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{models.ModePractice1: 50, models.ModeDrill: 20}
	snap := snapshotWith(models.ModePractice1, 37)
	snap.ByMode[models.ModeDrill] = models.QuestionCounts{Total: 11}

	first, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1, models.ModeDrill)
	require.NoError(t, err)
	second, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1, models.ModeDrill)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same snapshot must yield the same plan")
}

func TestAnalyzeGapsDrillEmitsNoPassagePlan(t *testing.T) {
	cfg := readingConfig()
	quotas := models.QuotaTable{models.ModeDrill: 9}
	snap := snapshotWith(models.ModeDrill, 0)

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModeDrill)
	require.NoError(t, err)

	// Drill mini-passages are created at generation time, never planned.
	assert.Empty(t, plan.PassageGaps)
	assert.Equal(t, 9, plan.Summary.TotalQuestions)

	// 9 questions over 3 skills and 3 tiers: one per cell.
	assert.Equal(t, 3, plan.Summary.ByDifficulty[models.DifficultyEasy])
	assert.Equal(t, 3, plan.Summary.ByDifficulty[models.DifficultyMedium])
	assert.Equal(t, 3, plan.Summary.ByDifficulty[models.DifficultyHard])
	for _, gap := range plan.QuestionGaps {
		assert.True(t, gap.NeedsPassage)
	}
}

func TestAnalyzeGapsDrillTierSpread(t *testing.T) {
	cfg := readingConfig()
	cfg.SubSkills = []string{"main_idea"}
	quotas := models.QuotaTable{models.ModeDrill: 4}
	snap := snapshotWith(models.ModeDrill, 0)

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModeDrill)
	require.NoError(t, err)

	byTier := plan.Summary.ByDifficulty
	min, max := 4, 0
	for _, d := range models.AllDifficulties {
		if byTier[d] < min {
			min = byTier[d]
		}
		if byTier[d] > max {
			max = byTier[d]
		}
	}
	assert.LessOrEqual(t, max-min, 1, "drill tier split should be as even as the count allows")
}

func TestAnalyzeGapsNoPassageSection(t *testing.T) {
	cfg := mathConfig()
	quotas := models.QuotaTable{models.ModePractice1: 10}
	snap := models.NewInventorySnapshot(models.TestSAT, "math")

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1)
	require.NoError(t, err)

	assert.Empty(t, plan.PassageGaps)
	assert.Equal(t, 10, plan.Summary.TotalQuestions)
	for _, gap := range plan.QuestionGaps {
		assert.False(t, gap.NeedsPassage)
	}
	// Tier split 4/3/3 when no passage plan constrains it.
	assert.Equal(t, 4, plan.Summary.ByDifficulty[models.DifficultyEasy])
	assert.Equal(t, 3, plan.Summary.ByDifficulty[models.DifficultyMedium])
	assert.Equal(t, 3, plan.Summary.ByDifficulty[models.DifficultyHard])
}

func TestAnalyzeGapsNoSubSkillsNonWriting(t *testing.T) {
	cfg := readingConfig()
	cfg.SubSkills = nil
	quotas := models.QuotaTable{models.ModePractice1: 8}
	snap := snapshotWith(models.ModePractice1, 0)

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1)
	require.NoError(t, err)

	assert.Empty(t, plan.QuestionGaps, "a misconfigured taxonomy plans no questions")
}

func TestAnalyzeGapsWritingUntagged(t *testing.T) {
	cfg := &models.SectionConfig{
		TestType:            models.TestSAT,
		SectionName:         "writing",
		RequiresPassages:    true,
		QuestionsPerPassage: 1,
		WordsPerPassage:     650,
		Kind:                models.KindWriting,
	}
	quotas := models.QuotaTable{models.ModePractice1: 2}
	snap := models.NewInventorySnapshot(models.TestSAT, "writing")

	plan, err := AnalyzeGaps(cfg, quotas, snap, models.ModePractice1)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Summary.TotalQuestions)
	assert.Empty(t, plan.Summary.BySubSkill, "writing units carry no sub-skill tag")
	for _, gap := range plan.QuestionGaps {
		assert.Equal(t, "", gap.SubSkill)
	}
}
