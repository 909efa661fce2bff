package models

import "time"

type TestType string

const (
	TestSAT TestType = "sat"
	TestACT TestType = "act"
)

// TestMode is an independent quota bucket for a section: five full-length
// practice sets, one diagnostic set, and a drill pool.
type TestMode string

const (
	ModePractice1  TestMode = "practice_1"
	ModePractice2  TestMode = "practice_2"
	ModePractice3  TestMode = "practice_3"
	ModePractice4  TestMode = "practice_4"
	ModePractice5  TestMode = "practice_5"
	ModeDiagnostic TestMode = "diagnostic"
	ModeDrill      TestMode = "drill"
)

// AllTestModes lists every mode in canonical planning order.
var AllTestModes = []TestMode{
	ModePractice1, ModePractice2, ModePractice3, ModePractice4, ModePractice5,
	ModeDiagnostic, ModeDrill,
}

var ValidTestModes = map[TestMode]bool{
	ModePractice1: true, ModePractice2: true, ModePractice3: true,
	ModePractice4: true, ModePractice5: true,
	ModeDiagnostic: true, ModeDrill: true,
}

func (m TestMode) IsDrill() bool {
	return m == ModeDrill
}

// Difficulty is a 3-tier scale: 1 = easy, 2 = medium, 3 = hard.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) Valid() bool {
	return d >= DifficultyEasy && d <= DifficultyHard
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

type SectionKind string

const (
	KindReading SectionKind = "reading"
	KindWriting SectionKind = "writing"
	KindMath    SectionKind = "math"
	KindOther   SectionKind = "other"
)

type ResponseType string

const (
	ResponseMultipleChoice   ResponseType = "multiple_choice"
	ResponseExtendedResponse ResponseType = "extended_response"
)

// SectionConfig is the normalized curriculum entry for one
// (testType, sectionName) pair. Derived once per run and never mutated.
type SectionConfig struct {
	TestType            TestType    `json:"test_type"`
	SectionName         string      `json:"section_name"`
	RequiresPassages    bool        `json:"requires_passages"`
	TotalQuestions      int         `json:"total_questions"`
	TotalPassages       int         `json:"total_passages"`
	QuestionsPerPassage int         `json:"questions_per_passage"`
	WordsPerPassage     int         `json:"words_per_passage"`
	SubSkills           []string    `json:"sub_skills"`
	Kind                SectionKind `json:"section_kind"`
}

// ResponseType maps the section kind to the artifact shape questions take.
func (c *SectionConfig) ResponseType() ResponseType {
	if c.Kind == KindWriting {
		return ResponseExtendedResponse
	}
	return ResponseMultipleChoice
}

// QuotaTable caps the stored question count per test mode for one section.
// Quotas are authoritative: generation must never push a mode past its cap.
type QuotaTable map[TestMode]int

// ── Persisted Content ──────────────────────────────────

type Passage struct {
	ID          int64      `json:"id"`
	TestType    TestType   `json:"test_type"`
	SectionName string     `json:"section_name"`
	TestMode    TestMode   `json:"test_mode"`
	Difficulty  Difficulty `json:"difficulty"`
	WordCount   int        `json:"word_count"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Question struct {
	ID            int64          `json:"id"`
	RunID         string         `json:"run_id,omitempty"`
	TestType      TestType       `json:"test_type"`
	SectionName   string         `json:"section_name"`
	SubSkill      string         `json:"sub_skill"`
	Difficulty    Difficulty     `json:"difficulty"`
	TestMode      TestMode       `json:"test_mode"`
	PassageID     *int64         `json:"passage_id,omitempty"`
	ResponseType  ResponseType   `json:"response_type"`
	QuestionText  string         `json:"question_text"`
	Options       []AnswerOption `json:"options,omitempty"`
	CorrectAnswer string         `json:"correct_answer,omitempty"`
	Explanation   string         `json:"explanation"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AnswerOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	OptionID   string `json:"option_id"`
	OptionText string `json:"option_text"`
}

// ── Inventory ──────────────────────────────────────────

// SkillDifficulty keys per-(subSkill, difficulty) inventory counts.
type SkillDifficulty struct {
	SubSkill   string
	Difficulty Difficulty
}

// QuestionCounts is the existing-question breakdown for one test mode.
type QuestionCounts struct {
	Total             int
	ByPassage         map[int64]int
	BySubSkill        map[string]int
	BySkillDifficulty map[SkillDifficulty]int
	SkillsByPassage   map[int64][]string
}

// InventorySnapshot is a point-in-time view of stored content for one
// section, read fresh before planning. It is never invalidated mid-run.
type InventorySnapshot struct {
	TestType    TestType
	SectionName string
	ByMode      map[TestMode]QuestionCounts
	Passages    map[TestMode][]Passage // creation order within each mode
}

func NewInventorySnapshot(testType TestType, sectionName string) *InventorySnapshot {
	return &InventorySnapshot{
		TestType:    testType,
		SectionName: sectionName,
		ByMode:      make(map[TestMode]QuestionCounts),
		Passages:    make(map[TestMode][]Passage),
	}
}

// Counts returns the breakdown for a mode, zero-valued when absent.
func (s *InventorySnapshot) Counts(mode TestMode) QuestionCounts {
	if c, ok := s.ByMode[mode]; ok {
		return c
	}
	return QuestionCounts{
		ByPassage:         map[int64]int{},
		BySubSkill:        map[string]int{},
		BySkillDifficulty: map[SkillDifficulty]int{},
		SkillsByPassage:   map[int64][]string{},
	}
}
