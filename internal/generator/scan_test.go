package generator

import (
	"errors"
	"testing"
)

func TestScanQuestionRejectsMetaNarration(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"assistant preamble", "Let me craft a question about photosynthesis for you."},
		{"self reference", "As an AI, I would note that the correct choice is B."},
		{"delivery narration", "Here is the question you requested about tides."},
		{"template residue", "Discuss the impact of [insert topic] on local economies."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &GeneratedQuestion{
				QuestionText: tt.text,
				Explanation:  "Choice B follows from the passage.",
			}
			err := ScanQuestion(q)
			if err == nil {
				t.Fatal("expected scan rejection")
			}
			var vf *ValidationFailure
			if !errors.As(err, &vf) {
				t.Fatalf("expected *ValidationFailure, got %T", err)
			}
			if vf.Stage != "scan" {
				t.Errorf("Stage = %q, want scan", vf.Stage)
			}
		})
	}
}

func TestScanQuestionChecksOptions(t *testing.T) {
	q := &GeneratedQuestion{
		QuestionText: "Which choice best completes the sentence?",
		Explanation:  "Choice A preserves the parallel structure.",
		Options: []GeneratedOption{
			{ID: "A", Text: "a reasonable option"},
			{ID: "B", Text: "I'll write a distractor here."},
		},
	}

	if err := ScanQuestion(q); err == nil {
		t.Error("expected scan to catch narration inside an answer option")
	}
}

func TestScanPassageAcceptsCleanContent(t *testing.T) {
	p := &GeneratedPassage{
		Title: "The Letterpress Revival",
		Content: "Small print shops have returned to letterpress printing in recent years. " +
			"The machines demand patience, yet their output carries a texture digital presses cannot match.",
	}

	if err := ScanPassage(p); err != nil {
		t.Errorf("clean passage rejected: %v", err)
	}
}

func TestScanPassageRejectsNarratedTitle(t *testing.T) {
	p := &GeneratedPassage{
		Title:   "Here is the passage on coastal erosion",
		Content: "Coastal erosion reshapes shorelines over decades.",
	}

	if err := ScanPassage(p); err == nil {
		t.Error("expected scan rejection of narrated title")
	}
}
