package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/prepbank/backend/internal/models"
)

type GeneratedPassage struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

type GeneratedQuestion struct {
	QuestionText    string            `json:"question_text"`
	Options         []GeneratedOption `json:"options,omitempty"`
	CorrectAnswerID string            `json:"correct_answer_id,omitempty"`
	Explanation     string            `json:"explanation"`
}

type GeneratedOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ParsePassage decodes and structurally validates one passage response.
func ParsePassage(responseBody string) (*GeneratedPassage, error) {
	cleaned := stripCodeFences(responseBody)

	var passage GeneratedPassage
	if err := json.Unmarshal([]byte(cleaned), &passage); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var errs []string
	if strings.TrimSpace(passage.Title) == "" {
		errs = append(errs, "empty title")
	}
	if strings.TrimSpace(passage.Content) == "" {
		errs = append(errs, "empty content")
	}
	if len(errs) > 0 {
		return nil, &ValidationFailure{Stage: "parse", Reasons: errs}
	}

	// Trust our own count over the model's self-report.
	actual := len(strings.Fields(passage.Content))
	if passage.WordCount != actual {
		passage.WordCount = actual
	}
	if passage.WordCount < 40 {
		return nil, &ValidationFailure{Stage: "parse",
			Reasons: []string{fmt.Sprintf("passage too short: %d words", passage.WordCount)}}
	}

	return &passage, nil
}

var expectedOptionIDs = []string{"A", "B", "C", "D"}

// ParseQuestion decodes and structurally validates one question response.
// Multiple-choice questions must carry exactly four options labeled A-D with
// a valid answer key; extended-response prompts carry neither.
func ParseQuestion(responseBody string, responseType models.ResponseType) (*GeneratedQuestion, error) {
	cleaned := stripCodeFences(responseBody)

	var question GeneratedQuestion
	if err := json.Unmarshal([]byte(cleaned), &question); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var errs []string

	if strings.TrimSpace(question.QuestionText) == "" {
		errs = append(errs, "empty question_text")
	}
	if strings.TrimSpace(question.Explanation) == "" {
		errs = append(errs, "empty explanation")
	}

	if responseType == models.ResponseExtendedResponse {
		if len(question.Options) != 0 {
			errs = append(errs, "extended-response prompt must not carry answer options")
		}
		question.CorrectAnswerID = ""
	} else {
		errs = append(errs, validateOptions(&question)...)
	}

	if len(errs) > 0 {
		return nil, &ValidationFailure{Stage: "parse", Reasons: errs}
	}

	return &question, nil
}

func validateOptions(q *GeneratedQuestion) []string {
	var errs []string

	if len(q.Options) != len(expectedOptionIDs) {
		return []string{fmt.Sprintf("expected %d options, got %d", len(expectedOptionIDs), len(q.Options))}
	}

	for i, opt := range q.Options {
		if opt.ID != expectedOptionIDs[i] {
			errs = append(errs, fmt.Sprintf("option %d has id %q, expected %q", i+1, opt.ID, expectedOptionIDs[i]))
		}
		if strings.TrimSpace(opt.Text) == "" {
			errs = append(errs, fmt.Sprintf("option %s has empty text", opt.ID))
		} else if len(opt.Text) > 500 {
			log.Printf("WARN: [parse] option %s is %d chars, unusually long", opt.ID, len(opt.Text))
		}
	}

	q.CorrectAnswerID = strings.ToUpper(strings.TrimSpace(q.CorrectAnswerID))
	valid := false
	for _, id := range expectedOptionIDs {
		if q.CorrectAnswerID == id {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Sprintf("invalid correct_answer_id %q", q.CorrectAnswerID))
	}

	return errs
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
