package models

import "time"

// PassageGap is one shared passage that must be created before the
// questions that will occupy it.
type PassageGap struct {
	TestMode          TestMode   `json:"test_mode"`
	Difficulty        Difficulty `json:"difficulty"`
	WordCount         int        `json:"word_count"`
	QuestionsExpected int        `json:"questions_expected"`
	IsSharedPassage   bool       `json:"is_shared_passage"`
	PassageIndex      int        `json:"passage_index"`
}

// QuestionGap is a batch of same-(subSkill, difficulty) questions still owed
// for one mode. PassageID stays nil until the allocation resolver runs at
// generation time; drill units get their 1:1 mini-passage lazily.
type QuestionGap struct {
	TestMode        TestMode   `json:"test_mode"`
	SubSkill        string     `json:"sub_skill"`
	Difficulty      Difficulty `json:"difficulty"`
	QuestionsNeeded int        `json:"questions_needed"`
	PassageID       *int64     `json:"passage_id,omitempty"`
	NeedsPassage    bool       `json:"needs_passage"`
}

// GenerationPlan is the ordered unit of work for one (testType, sectionName).
// Plans are recomputed from inventory each run and never persisted.
type GenerationPlan struct {
	TestType     TestType      `json:"test_type"`
	SectionName  string        `json:"section_name"`
	PassageGaps  []PassageGap  `json:"passage_gaps"`
	QuestionGaps []QuestionGap `json:"question_gaps"`
	Summary      PlanSummary   `json:"summary"`
}

func (p *GenerationPlan) Empty() bool {
	return len(p.PassageGaps) == 0 && len(p.QuestionGaps) == 0
}

// PlanSummary aggregates the plan for reporting; no further computation
// reads it.
type PlanSummary struct {
	TotalQuestions int                `json:"total_questions"`
	TotalPassages  int                `json:"total_passages"`
	ByMode         map[TestMode]int   `json:"by_mode"`
	ByDifficulty   map[Difficulty]int `json:"by_difficulty"`
	BySubSkill     map[string]int     `json:"by_sub_skill"`
}

// ── Run Reporting ──────────────────────────────────────

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunSummary reports one orchestration run. A run with skipped units is a
// partial success; callers must inspect the counts rather than assume every
// quota was satisfied.
type RunSummary struct {
	RunID            string     `json:"run_id"`
	TestType         TestType   `json:"test_type"`
	SectionName      string     `json:"section_name"`
	Status           RunStatus  `json:"status"`
	UnitsAttempted   int        `json:"units_attempted"`
	UnitsSucceeded   int        `json:"units_succeeded"`
	UnitsRegenerated int        `json:"units_regenerated"`
	UnitsSkipped     int        `json:"units_skipped"`
	PassagesCreated  int        `json:"passages_created"`
	ModelUsed        string     `json:"model_used,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type AttemptOutcome string

const (
	AttemptSucceeded      AttemptOutcome = "succeeded"
	AttemptTransientError AttemptOutcome = "transient_error"
	AttemptHallucination  AttemptOutcome = "hallucination"
	AttemptAnswerMismatch AttemptOutcome = "answer_mismatch"
	AttemptParseError     AttemptOutcome = "parse_error"
	AttemptPersistError   AttemptOutcome = "persist_error"
)

// GenerationAttempt is one audit-log row: every generation attempt is
// recorded, success or failure.
type GenerationAttempt struct {
	ID         int64          `json:"id"`
	RunID      string         `json:"run_id"`
	TestMode   TestMode       `json:"test_mode"`
	SubSkill   string         `json:"sub_skill,omitempty"`
	Difficulty Difficulty     `json:"difficulty"`
	Attempt    int            `json:"attempt"`
	Outcome    AttemptOutcome `json:"outcome"`
	Detail     string         `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
