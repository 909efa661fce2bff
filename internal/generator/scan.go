package generator

import (
	"fmt"
	"strings"
)

// metaNarrationMarkers are phrases that betray the model talking about the
// task instead of producing the artifact. Their presence means the response
// leaked assistant narration into content a student would see.
var metaNarrationMarkers = []string{
	"as an ai",
	"as a language model",
	"let me know if",
	"let me craft",
	"let me write",
	"let me create",
	"i'll write",
	"i'll create",
	"i'll generate",
	"i will now",
	"i have created",
	"i've created",
	"i've written",
	"here is the passage",
	"here's the passage",
	"here is the question",
	"here's the question",
	"here is your",
	"here's your",
	"as requested",
	"per your request",
	"hope this helps",
	"[insert",
	"[your",
	"(note:",
}

// ScanText rejects generated text containing meta-narration. The scan runs
// over every student-visible field before an artifact is persisted.
func ScanText(fields map[string]string) error {
	var reasons []string
	for field, text := range fields {
		lower := strings.ToLower(text)
		for _, marker := range metaNarrationMarkers {
			if strings.Contains(lower, marker) {
				reasons = append(reasons, fmt.Sprintf("%s contains meta-narration marker %q", field, marker))
				break
			}
		}
	}
	if len(reasons) > 0 {
		return &ValidationFailure{Stage: "scan", Reasons: reasons}
	}
	return nil
}

// ScanPassage runs the hallucination scan over a passage's visible fields.
func ScanPassage(p *GeneratedPassage) error {
	return ScanText(map[string]string{
		"title":   p.Title,
		"content": p.Content,
	})
}

// ScanQuestion runs the hallucination scan over a question's visible fields,
// options included.
func ScanQuestion(q *GeneratedQuestion) error {
	fields := map[string]string{
		"question_text": q.QuestionText,
		"explanation":   q.Explanation,
	}
	for _, opt := range q.Options {
		fields["option "+opt.ID] = opt.Text
	}
	return ScanText(fields)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
