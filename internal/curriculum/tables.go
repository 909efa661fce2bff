package curriculum

import "github.com/prepbank/backend/internal/models"

// SectionSpec is one raw curriculum table entry before normalization.
type SectionSpec struct {
	QuestionCount   int
	PassageCount    int
	WordsPerPassage int
}

// Tables bundles the static curriculum inputs: per-section shape, sub-skill
// taxonomy, and per-mode quotas. The built-in tables below mirror the shipped
// curricula; tests substitute their own.
type Tables struct {
	Sections  map[models.TestType]map[string]SectionSpec
	SubSkills map[models.TestType]map[string][]string
	Quotas    map[models.TestType]map[string]models.QuotaTable
}

var builtinSections = map[models.TestType]map[string]SectionSpec{
	models.TestSAT: {
		"reading": {QuestionCount: 52, PassageCount: 5, WordsPerPassage: 750},
		"writing": {QuestionCount: 2, PassageCount: 2, WordsPerPassage: 650},
		"math":    {QuestionCount: 58, PassageCount: 0},
	},
	models.TestACT: {
		"reading":           {QuestionCount: 40, PassageCount: 4, WordsPerPassage: 800},
		"math":              {QuestionCount: 60, PassageCount: 0},
		"science_reasoning": {QuestionCount: 40, PassageCount: 6, WordsPerPassage: 350},
	},
}

var builtinSubSkills = map[models.TestType]map[string][]string{
	models.TestSAT: {
		"reading": {
			"main_idea", "supporting_detail", "inference",
			"vocabulary_in_context", "evidence_support", "author_purpose",
		},
		// Pure-writing section: essay prompts carry no sub-skill taxonomy.
		"writing": {},
		"math": {
			"heart_of_algebra", "problem_solving_data", "passport_advanced_math",
			"geometry_trigonometry",
		},
	},
	models.TestACT: {
		"reading": {
			"main_idea", "supporting_detail", "inference", "vocabulary_in_context",
		},
		"math": {
			"pre_algebra", "elementary_algebra", "intermediate_algebra",
			"coordinate_geometry", "plane_geometry", "trigonometry",
		},
		"science_reasoning": {
			"data_representation", "research_summaries", "conflicting_viewpoints",
		},
	},
}

var builtinQuotas = map[models.TestType]map[string]models.QuotaTable{
	models.TestSAT: {
		"reading": practiceQuota(52, 26, 104),
		"writing": practiceQuota(2, 1, 4),
		"math":    practiceQuota(58, 29, 116),
	},
	models.TestACT: {
		"reading":           practiceQuota(40, 20, 80),
		"math":              practiceQuota(60, 30, 120),
		"science_reasoning": practiceQuota(40, 20, 80),
	},
}

// practiceQuota builds the common quota shape: every practice set holds a
// full section, the diagnostic a half set, and the drill pool a double set.
func practiceQuota(practice, diagnostic, drill int) models.QuotaTable {
	return models.QuotaTable{
		models.ModePractice1:  practice,
		models.ModePractice2:  practice,
		models.ModePractice3:  practice,
		models.ModePractice4:  practice,
		models.ModePractice5:  practice,
		models.ModeDiagnostic: diagnostic,
		models.ModeDrill:      drill,
	}
}

// BuiltinTables returns the shipped curriculum data.
func BuiltinTables() Tables {
	return Tables{
		Sections:  builtinSections,
		SubSkills: builtinSubSkills,
		Quotas:    builtinQuotas,
	}
}
