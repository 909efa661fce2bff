package curriculum

import (
	"strings"

	"github.com/prepbank/backend/internal/models"
)

// Vocabulary for the section-kind heuristic. Matching is by substring, so
// "writing_and_language" and "reading_comprehension" both classify.
var (
	readingVocab = []string{"reading", "comprehension", "verbal"}
	writingVocab = []string{"writing", "essay", "language"}
	mathVocab    = []string{"math", "quant", "algebra", "geometry"}
)

// ClassifySection maps a section name to a kind by substring match.
// The match is a heuristic, not authoritative: unknown names fall back to
// KindOther rather than guessing further.
func ClassifySection(name string) models.SectionKind {
	lower := strings.ToLower(name)
	for _, v := range readingVocab {
		if strings.Contains(lower, v) {
			return models.KindReading
		}
	}
	for _, v := range writingVocab {
		if strings.Contains(lower, v) {
			return models.KindWriting
		}
	}
	for _, v := range mathVocab {
		if strings.Contains(lower, v) {
			return models.KindMath
		}
	}
	return models.KindOther
}
