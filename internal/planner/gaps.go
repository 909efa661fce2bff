package planner

import (
	"log"

	"github.com/prepbank/backend/internal/curriculum"
	"github.com/prepbank/backend/internal/models"
)

// MiniPassageWords is the fixed length of the 1:1 passages backing drill
// questions.
const MiniPassageWords = 120

// AnalyzeGaps compares a section's quotas against a point-in-time inventory
// snapshot and emits the concrete generation units still owed. The result is
// fully determined by its inputs: re-running against the same snapshot
// yields an identical plan.
//
// Modes with quota 0 are intentionally excluded and skipped without error.
// A mode missing from the quota table entirely is a configuration fault:
// no cap can be inferred, so the section cannot be planned safely.
func AnalyzeGaps(cfg *models.SectionConfig, quotas models.QuotaTable, snap *models.InventorySnapshot, modes ...models.TestMode) (*models.GenerationPlan, error) {
	if len(modes) == 0 {
		modes = models.AllTestModes
	}

	plan := &models.GenerationPlan{
		TestType:    cfg.TestType,
		SectionName: cfg.SectionName,
		Summary: models.PlanSummary{
			ByMode:       make(map[models.TestMode]int),
			ByDifficulty: make(map[models.Difficulty]int),
			BySubSkill:   make(map[string]int),
		},
	}

	for _, mode := range modes {
		quota, ok := quotas[mode]
		if !ok {
			return nil, &curriculum.ConfigError{
				TestType:    cfg.TestType,
				SectionName: cfg.SectionName,
				Missing:     "quota for mode " + string(mode),
			}
		}
		if quota == 0 {
			continue
		}

		counts := snap.Counts(mode)
		deficit := quota - counts.Total
		if deficit <= 0 {
			// Satisfied or over-quota; over-quota is tolerated, not corrected.
			continue
		}

		analyzeMode(cfg, plan, mode, deficit, counts)
	}

	return plan, nil
}

func analyzeMode(cfg *models.SectionConfig, plan *models.GenerationPlan, mode models.TestMode, deficit int, counts models.QuestionCounts) {
	// Shared passages are planned up front for practice/diagnostic modes.
	// Drill mini-passages are created lazily at generation time, 1:1 with
	// each question, so they never appear as passage gaps.
	var slots []models.Difficulty
	if cfg.RequiresPassages && !mode.IsDrill() {
		passagesNeeded := ceilDiv(deficit, cfg.QuestionsPerPassage)
		remaining := deficit
		for i := 0; i < passagesNeeded; i++ {
			expected := cfg.QuestionsPerPassage
			if expected > remaining {
				expected = remaining
			}
			remaining -= expected

			difficulty := models.Difficulty(i%3 + 1)
			plan.PassageGaps = append(plan.PassageGaps, models.PassageGap{
				TestMode:          mode,
				Difficulty:        difficulty,
				WordCount:         cfg.WordsPerPassage,
				QuestionsExpected: expected,
				IsSharedPassage:   true,
				PassageIndex:      i,
			})
			plan.Summary.TotalPassages++

			for n := 0; n < expected; n++ {
				slots = append(slots, difficulty)
			}
		}
	} else {
		// No passage plan constrains the tier spread; split the deficit
		// across the three tiers as evenly as the count allows.
		for tier, n := range distributeEvenly(deficit, 3) {
			for i := 0; i < n; i++ {
				slots = append(slots, models.Difficulty(tier+1))
			}
		}
	}

	skills := cfg.SubSkills
	if len(skills) == 0 {
		if cfg.Kind != models.KindWriting {
			log.Printf("WARN: [gap] %s/%s has no sub-skills configured; emitting no question gaps for mode %s",
				cfg.TestType, cfg.SectionName, mode)
			return
		}
		// Pure-writing sections carry no sub-skill taxonomy; units are
		// planned untagged.
		skills = []string{""}
	}

	alloc := allocateBySkill(deficit, skills, counts.BySubSkill)

	if mode.IsDrill() {
		appendDrillGaps(cfg, plan, mode, skills, alloc)
		return
	}

	// Interleave sub-skills across the difficulty slots so consecutive
	// questions landing in the same passage carry different skills.
	sequence := interleaveSkills(skills, alloc)
	appendQuestionGaps(cfg, plan, mode, slots, sequence)
}

// appendDrillGaps splits each sub-skill's share evenly across the three
// difficulty tiers. The starting tier rotates per skill so remainders do not
// pile onto tier one.
func appendDrillGaps(cfg *models.SectionConfig, plan *models.GenerationPlan, mode models.TestMode, skills []string, alloc map[string]int) {
	for i, skill := range skills {
		split := distributeEvenly(alloc[skill], 3)
		for tier := 0; tier < 3; tier++ {
			n := split[(tier+3-i%3)%3]
			if n == 0 {
				continue
			}
			difficulty := models.Difficulty(tier + 1)
			plan.QuestionGaps = append(plan.QuestionGaps, models.QuestionGap{
				TestMode:        mode,
				SubSkill:        skill,
				Difficulty:      difficulty,
				QuestionsNeeded: n,
				NeedsPassage:    cfg.RequiresPassages,
			})
			recordQuestions(plan, mode, skill, difficulty, n)
		}
	}
}

// appendQuestionGaps zips the difficulty slot list with the sub-skill
// sequence, batching consecutive identical (skill, difficulty) pairs.
func appendQuestionGaps(cfg *models.SectionConfig, plan *models.GenerationPlan, mode models.TestMode, slots []models.Difficulty, sequence []string) {
	for i := 0; i < len(slots) && i < len(sequence); i++ {
		skill := sequence[i]
		difficulty := slots[i]

		last := len(plan.QuestionGaps) - 1
		if last >= 0 {
			g := &plan.QuestionGaps[last]
			if g.TestMode == mode && g.SubSkill == skill && g.Difficulty == difficulty {
				g.QuestionsNeeded++
				recordQuestions(plan, mode, skill, difficulty, 1)
				continue
			}
		}

		plan.QuestionGaps = append(plan.QuestionGaps, models.QuestionGap{
			TestMode:        mode,
			SubSkill:        skill,
			Difficulty:      difficulty,
			QuestionsNeeded: 1,
			NeedsPassage:    cfg.RequiresPassages,
		})
		recordQuestions(plan, mode, skill, difficulty, 1)
	}
}

func recordQuestions(plan *models.GenerationPlan, mode models.TestMode, skill string, difficulty models.Difficulty, n int) {
	plan.Summary.TotalQuestions += n
	plan.Summary.ByMode[mode] += n
	plan.Summary.ByDifficulty[difficulty] += n
	if skill != "" {
		plan.Summary.BySubSkill[skill] += n
	}
}
