package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/prepbank/backend/internal/models"
)

const validQuestionJSON = `{
  "question_text": "Which choice best supports the author's claim in the second paragraph?",
  "options": [
    {"id": "A", "text": "The study cited in paragraph one."},
    {"id": "B", "text": "The statistics on regional rainfall."},
    {"id": "C", "text": "The quotation from the lead researcher."},
    {"id": "D", "text": "The closing anecdote about fieldwork."}
  ],
  "correct_answer_id": "C",
  "explanation": "The researcher's quotation directly restates the claim; the other references address adjacent points."
}`

func TestParseQuestionValid(t *testing.T) {
	q, err := ParseQuestion(validQuestionJSON, models.ResponseMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion returned error: %v", err)
	}

	if len(q.Options) != 4 {
		t.Errorf("got %d options, want 4", len(q.Options))
	}
	if q.CorrectAnswerID != "C" {
		t.Errorf("CorrectAnswerID = %q, want C", q.CorrectAnswerID)
	}
}

func TestParseQuestionStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validQuestionJSON + "\n```"

	q, err := ParseQuestion(fenced, models.ResponseMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion returned error: %v", err)
	}
	if q.QuestionText == "" {
		t.Error("expected question text to survive fence stripping")
	}
}

func TestParseQuestionRejectsStructuralFaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"wrong option count",
			`{"question_text":"q","options":[{"id":"A","text":"a"}],"correct_answer_id":"A","explanation":"e"}`,
		},
		{
			"invalid answer id",
			`{"question_text":"q","options":[{"id":"A","text":"a"},{"id":"B","text":"b"},{"id":"C","text":"c"},{"id":"D","text":"d"}],"correct_answer_id":"E","explanation":"e"}`,
		},
		{
			"misordered option ids",
			`{"question_text":"q","options":[{"id":"B","text":"a"},{"id":"A","text":"b"},{"id":"C","text":"c"},{"id":"D","text":"d"}],"correct_answer_id":"A","explanation":"e"}`,
		},
		{
			"empty explanation",
			`{"question_text":"q","options":[{"id":"A","text":"a"},{"id":"B","text":"b"},{"id":"C","text":"c"},{"id":"D","text":"d"}],"correct_answer_id":"A","explanation":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestion(tt.body, models.ResponseMultipleChoice)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var vf *ValidationFailure
			if !errors.As(err, &vf) {
				t.Fatalf("expected *ValidationFailure, got %T", err)
			}
			if vf.Stage != "parse" {
				t.Errorf("Stage = %q, want parse", vf.Stage)
			}
		})
	}
}

func TestParseQuestionExtendedResponse(t *testing.T) {
	body := `{"question_text":"Write an essay arguing for or against year-round schooling.","explanation":"Strong responses take a clear position."}`

	q, err := ParseQuestion(body, models.ResponseExtendedResponse)
	if err != nil {
		t.Fatalf("ParseQuestion returned error: %v", err)
	}
	if len(q.Options) != 0 || q.CorrectAnswerID != "" {
		t.Error("extended-response prompt must carry no options or answer key")
	}

	withOptions := `{"question_text":"q","options":[{"id":"A","text":"a"}],"explanation":"e"}`
	if _, err := ParseQuestion(withOptions, models.ResponseExtendedResponse); err == nil {
		t.Error("expected rejection of options on an extended-response prompt")
	}
}

func TestParseQuestionNormalizesAnswerCase(t *testing.T) {
	body := strings.Replace(validQuestionJSON, `"correct_answer_id": "C"`, `"correct_answer_id": " c "`, 1)

	q, err := ParseQuestion(body, models.ResponseMultipleChoice)
	if err != nil {
		t.Fatalf("ParseQuestion returned error: %v", err)
	}
	if q.CorrectAnswerID != "C" {
		t.Errorf("CorrectAnswerID = %q, want normalized C", q.CorrectAnswerID)
	}
}

func TestParsePassageRecountsWords(t *testing.T) {
	body := `{"title":"Tides","content":"` + strings.Repeat("word ", 60) + `","word_count":999}`

	p, err := ParsePassage(body)
	if err != nil {
		t.Fatalf("ParsePassage returned error: %v", err)
	}
	if p.WordCount != 60 {
		t.Errorf("WordCount = %d, want recomputed 60", p.WordCount)
	}
}

func TestParsePassageRejectsEmptyAndShort(t *testing.T) {
	if _, err := ParsePassage(`{"title":"","content":"x"}`); err == nil {
		t.Error("expected rejection of empty title")
	}
	if _, err := ParsePassage(`{"title":"t","content":"too short"}`); err == nil {
		t.Error("expected rejection of a passage far below target length")
	}
	if _, err := ParsePassage(`not json at all`); err == nil {
		t.Error("expected JSON parse error")
	}
}
