package planner

import (
	"github.com/prepbank/backend/internal/models"
)

// PassageState tracks one passage's fill level during a run:
// Created(0/N) → Filling(k/N) → Full(N/N). Only Created/Filling passages
// accept new assignments; Full passages are permanently skipped.
type PassageState struct {
	ID           int64
	TestMode     models.TestMode
	Difficulty   models.Difficulty
	Capacity     int
	Linked       int
	SubSkills    map[string]bool
	LastSubSkill string
}

func (p *PassageState) Full() bool {
	return p.Linked >= p.Capacity
}

// HasSpare reports whether the passage can take another question.
func (p *PassageState) HasSpare() bool {
	return p.Linked < p.Capacity
}

type passageKey struct {
	mode       models.TestMode
	difficulty models.Difficulty
}

// RunState is the in-memory allocation arena for one run. It is seeded from
// the inventory snapshot, threaded through every orchestrator step, and
// discarded when the run ends; no state survives between runs.
type RunState struct {
	Config *models.SectionConfig
	Quotas models.QuotaTable

	questionCounts map[models.TestMode]int
	skillCounts    map[models.TestMode]map[string]int
	passages       map[passageKey][]*PassageState
}

// NewRunState seeds an arena from the snapshot: per-mode question totals,
// per-skill counts, and the fill level and sub-skill set of every existing
// passage in creation order.
func NewRunState(cfg *models.SectionConfig, quotas models.QuotaTable, snap *models.InventorySnapshot) *RunState {
	s := &RunState{
		Config:         cfg,
		Quotas:         quotas,
		questionCounts: make(map[models.TestMode]int),
		skillCounts:    make(map[models.TestMode]map[string]int),
		passages:       make(map[passageKey][]*PassageState),
	}

	for mode, counts := range snap.ByMode {
		s.questionCounts[mode] = counts.Total
		skills := make(map[string]int, len(counts.BySubSkill))
		for skill, n := range counts.BySubSkill {
			skills[skill] = n
		}
		s.skillCounts[mode] = skills
	}

	for mode, passages := range snap.Passages {
		counts := snap.Counts(mode)
		for _, p := range passages {
			ps := &PassageState{
				ID:         p.ID,
				TestMode:   mode,
				Difficulty: p.Difficulty,
				Capacity:   s.passageCapacity(mode),
				Linked:     counts.ByPassage[p.ID],
				SubSkills:  make(map[string]bool),
			}
			for _, skill := range counts.SkillsByPassage[p.ID] {
				ps.SubSkills[skill] = true
			}
			key := passageKey{mode: mode, difficulty: p.Difficulty}
			s.passages[key] = append(s.passages[key], ps)
		}
	}

	return s
}

// passageCapacity is how many questions one passage may hold in a mode.
// Drill mini-passages are strictly 1:1.
func (s *RunState) passageCapacity(mode models.TestMode) int {
	if mode.IsDrill() {
		return 1
	}
	return s.Config.QuestionsPerPassage
}

// QuestionCount returns the current stored-question count for a mode,
// including questions persisted earlier in this run.
func (s *RunState) QuestionCount(mode models.TestMode) int {
	return s.questionCounts[mode]
}

// AtQuota reports whether a mode has reached its authoritative cap. Quota
// checks are re-evaluated per unit, never just once at plan time.
func (s *RunState) AtQuota(mode models.TestMode) bool {
	return s.questionCounts[mode] >= s.Quotas[mode]
}

// RegisterPassage adds a freshly persisted passage to the arena so later
// units in the same run can reuse it.
func (s *RunState) RegisterPassage(p models.Passage) *PassageState {
	ps := &PassageState{
		ID:         p.ID,
		TestMode:   p.TestMode,
		Difficulty: p.Difficulty,
		Capacity:   s.passageCapacity(p.TestMode),
		SubSkills:  make(map[string]bool),
	}
	key := passageKey{mode: p.TestMode, difficulty: p.Difficulty}
	s.passages[key] = append(s.passages[key], ps)
	return ps
}

// RecordQuestion advances the in-memory counters after a question is
// persisted. The passage argument is nil for sections without passages.
func (s *RunState) RecordQuestion(mode models.TestMode, subSkill string, passage *PassageState) {
	s.questionCounts[mode]++
	if subSkill != "" {
		if s.skillCounts[mode] == nil {
			s.skillCounts[mode] = make(map[string]int)
		}
		s.skillCounts[mode][subSkill]++
	}
	if passage != nil {
		passage.Linked++
		if subSkill != "" {
			passage.SubSkills[subSkill] = true
		}
		passage.LastSubSkill = subSkill
	}
}

// passagesFor returns the arena's passages for (mode, difficulty) in
// creation order.
func (s *RunState) passagesFor(mode models.TestMode, difficulty models.Difficulty) []*PassageState {
	return s.passages[passageKey{mode: mode, difficulty: difficulty}]
}
