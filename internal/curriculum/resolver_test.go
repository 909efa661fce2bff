package curriculum

import (
	"errors"
	"testing"

	"github.com/prepbank/backend/internal/models"
)

func TestResolveSATReading(t *testing.T) {
	r := NewResolver()

	cfg, err := r.Resolve(models.TestSAT, "reading")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !cfg.RequiresPassages {
		t.Error("expected reading to require passages")
	}
	if cfg.TotalQuestions != 52 || cfg.TotalPassages != 5 {
		t.Errorf("got %d questions / %d passages, want 52/5", cfg.TotalQuestions, cfg.TotalPassages)
	}
	// ceil(52/5)
	if cfg.QuestionsPerPassage != 11 {
		t.Errorf("QuestionsPerPassage = %d, want 11", cfg.QuestionsPerPassage)
	}
	if cfg.Kind != models.KindReading {
		t.Errorf("Kind = %q, want reading", cfg.Kind)
	}
	if len(cfg.SubSkills) != 6 {
		t.Errorf("got %d sub-skills, want 6", len(cfg.SubSkills))
	}
	if cfg.ResponseType() != models.ResponseMultipleChoice {
		t.Errorf("ResponseType = %q, want multiple_choice", cfg.ResponseType())
	}
}

func TestResolveNoPassageSection(t *testing.T) {
	r := NewResolver()

	cfg, err := r.Resolve(models.TestSAT, "math")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if cfg.RequiresPassages {
		t.Error("expected math to stand alone without passages")
	}
	if cfg.QuestionsPerPassage != 0 {
		t.Errorf("QuestionsPerPassage = %d, want 0", cfg.QuestionsPerPassage)
	}
}

func TestResolveWritingIsExtendedResponse(t *testing.T) {
	r := NewResolver()

	cfg, err := r.Resolve(models.TestSAT, "writing")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if cfg.Kind != models.KindWriting {
		t.Errorf("Kind = %q, want writing", cfg.Kind)
	}
	if cfg.ResponseType() != models.ResponseExtendedResponse {
		t.Errorf("ResponseType = %q, want extended_response", cfg.ResponseType())
	}
	if len(cfg.SubSkills) != 0 {
		t.Errorf("writing should carry no sub-skill taxonomy, got %v", cfg.SubSkills)
	}
}

func TestResolveUnknownSection(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(models.TestSAT, "logic_games")
	if err == nil {
		t.Fatal("expected error for unknown section")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.SectionName != "logic_games" {
		t.Errorf("ConfigError.SectionName = %q", cfgErr.SectionName)
	}
}

func TestQuotasMissing(t *testing.T) {
	r := NewResolverWithTables(Tables{
		Sections: map[models.TestType]map[string]SectionSpec{
			models.TestSAT: {"reading": {QuestionCount: 10, PassageCount: 1, WordsPerPassage: 500}},
		},
		Quotas: map[models.TestType]map[string]models.QuotaTable{},
	})

	_, err := r.Quotas(models.TestSAT, "reading")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for missing quota table, got %v", err)
	}
}

func TestSectionNamesSorted(t *testing.T) {
	r := NewResolver()

	names, err := r.SectionNames(models.TestACT)
	if err != nil {
		t.Fatalf("SectionNames returned error: %v", err)
	}

	want := []string{"math", "reading", "science_reasoning"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClassifySection(t *testing.T) {
	tests := []struct {
		name string
		want models.SectionKind
	}{
		{"reading", models.KindReading},
		{"reading_comprehension", models.KindReading},
		{"verbal_reasoning", models.KindReading},
		{"writing", models.KindWriting},
		{"writing_and_language", models.KindWriting},
		{"essay", models.KindWriting},
		{"math", models.KindMath},
		{"quantitative", models.KindMath},
		{"science_reasoning", models.KindOther},
		{"logic_games", models.KindOther},
	}

	for _, tt := range tests {
		if got := ClassifySection(tt.name); got != tt.want {
			t.Errorf("ClassifySection(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
