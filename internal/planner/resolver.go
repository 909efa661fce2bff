package planner

import (
	"github.com/prepbank/backend/internal/models"
)

// Assignment answers, for one question unit at generation time, which
// passage (if any) backs it. When CreateNew is set the orchestrator persists
// a new passage first so the question can reference a real identifier;
// placeholder IDs are never fabricated.
type Assignment struct {
	Passage    *PassageState // existing passage to reuse; nil otherwise
	CreateNew  bool
	IsMini     bool
	WordCount  int
	SubSkill   string // may be substituted to keep passages skill-diverse
	Difficulty models.Difficulty
}

// ResolveAssignment implements the passage-sharing policy:
//
//   - sections without passages: questions stand alone;
//   - drill mode: one new mini-passage per question, never shared;
//   - practice/diagnostic: first-fit scan over Created/Filling passages in
//     creation order, preferring one that does not yet contain the unit's
//     sub-skill; a new passage is created only when no passage has spare
//     capacity.
//
// Overfill is prevented here by construction: a Full passage is never
// returned, so downstream code cannot breach the questions-per-passage cap.
func ResolveAssignment(state *RunState, gap models.QuestionGap) Assignment {
	if !state.Config.RequiresPassages {
		return Assignment{SubSkill: gap.SubSkill, Difficulty: gap.Difficulty}
	}

	if gap.TestMode.IsDrill() {
		return Assignment{
			CreateNew:  true,
			IsMini:     true,
			WordCount:  MiniPassageWords,
			SubSkill:   gap.SubSkill,
			Difficulty: gap.Difficulty,
		}
	}

	candidates := state.passagesFor(gap.TestMode, gap.Difficulty)

	// First pass: spare capacity and the sub-skill not yet present.
	for _, p := range candidates {
		if p.HasSpare() && !p.SubSkills[gap.SubSkill] {
			return Assignment{Passage: p, SubSkill: gap.SubSkill, Difficulty: gap.Difficulty}
		}
	}

	// Second pass: every passage with room already holds this sub-skill.
	// Take the first and substitute a rotated sub-skill so at least the
	// immediately preceding question in the passage differs.
	for _, p := range candidates {
		if p.HasSpare() {
			return Assignment{
				Passage:    p,
				SubSkill:   rotateSubSkill(state.Config.SubSkills, gap.SubSkill, p),
				Difficulty: gap.Difficulty,
			}
		}
	}

	return Assignment{
		CreateNew:  true,
		WordCount:  state.Config.WordsPerPassage,
		SubSkill:   gap.SubSkill,
		Difficulty: gap.Difficulty,
	}
}

// rotateSubSkill cycles through the section's sub-skill list starting after
// the requested skill, preferring one the passage lacks, then any skill that
// differs from the passage's most recent question. Exact repetition
// elsewhere in the passage cannot always be avoided when the skill list is
// shorter than the passage capacity.
func rotateSubSkill(skills []string, requested string, p *PassageState) string {
	if len(skills) < 2 {
		return requested
	}

	start := 0
	for i, s := range skills {
		if s == requested {
			start = i
			break
		}
	}

	for off := 1; off < len(skills); off++ {
		candidate := skills[(start+off)%len(skills)]
		if !p.SubSkills[candidate] {
			return candidate
		}
	}
	for off := 1; off < len(skills); off++ {
		candidate := skills[(start+off)%len(skills)]
		if candidate != p.LastSubSkill {
			return candidate
		}
	}
	return requested
}
