package generator

import (
	"fmt"
	"strings"

	"github.com/prepbank/backend/internal/models"
)

var testTypeNames = map[models.TestType]string{
	models.TestSAT: "SAT",
	models.TestACT: "ACT",
}

var difficultyGuidance = map[models.Difficulty]string{
	models.DifficultyEasy:   `- Easy: the correct answer has direct, unambiguous support. One moderately tempting distractor; the rest clearly wrong on a careful read.`,
	models.DifficultyMedium: `- Medium: the correct answer requires combining two pieces of evidence or one inferential step. Two strong distractors.`,
	models.DifficultyHard:   `- Hard: the correct answer and the closest distractor differ on a subtle point of scope, degree, or logical direction. Three strong distractors.`,
}

// passageTopicPool seeds topic rotation so consecutive passages in a run do
// not cluster on one subject. The orchestrator cycles through it.
var passageTopicPool = []string{
	"a debate in evolutionary biology",
	"the restoration of a historic building",
	"an economic analysis of public transit",
	"a profile of an early 20th-century scientist",
	"competing theories about a geological formation",
	"the history of a musical tradition",
	"a study of urban wildlife adaptation",
	"the logistics of polar exploration",
	"a dispute over the authorship of a literary work",
	"advances in materials science",
	"the sociology of small-town newspapers",
	"an archaeological reinterpretation of a well-known site",
}

func PassageTopicPool() []string {
	out := make([]string, len(passageTopicPool))
	copy(out, passageTopicPool)
	return out
}

func PassageSystemPrompt(testType models.TestType) string {
	name := testTypeNames[testType]
	return fmt.Sprintf(`You are an expert %s passage writer with 15 years of experience producing standardized-test reading material. You write passages indistinguishable from those on released official exams.

PASSAGE CONSTRUCTION:
- Self-contained: a student needs no outside knowledge to answer questions about it
- A clear main idea, at least three concrete details questions can reference, and at least one signal of the author's attitude
- Structural transitions between paragraphs ("however," "in contrast," "furthermore")
- The register of published nonfiction: measured, precise, no slang, no contractions
- Never reference the %s itself, test preparation, or question writing
- Hit the requested word count within about ten percent

You must respond with valid JSON only. No markdown fences, no commentary outside the JSON.`, name, name)
}

func QuestionSystemPrompt(testType models.TestType, responseType models.ResponseType) string {
	name := testTypeNames[testType]

	if responseType == models.ResponseExtendedResponse {
		return fmt.Sprintf(`You are an expert %s essay prompt writer with 15 years of experience producing standardized-test writing tasks. You write prompts indistinguishable from those on released official exams.

PROMPT CONSTRUCTION:
- Present an issue with at least two defensible positions
- Ask the student to take and support a position with reasoning and examples
- Accessible to any student: no specialized knowledge required
- Never reference the %s itself or test preparation

You must respond with valid JSON only. No markdown fences, no commentary outside the JSON.`, name, name)
	}

	return fmt.Sprintf(`You are an expert %s question writer with 15 years of experience at a major test publisher. You write multiple-choice questions indistinguishable from released official exam questions.

QUESTION CONSTRUCTION:
- One clearly best answer; the other three wrong for specific, identifiable reasons
- Wrong answers must be genuinely tempting: distortions, scope shifts, reversed relationships, or computations with a single plausible error
- When a passage is supplied, every question must be answerable from the passage alone
- When no passage is supplied, the question stem must be fully self-contained
- Never reference the %s itself, test preparation, or question writing

ANSWER CHOICES:
- Exactly 4 choices labeled A through D
- Each choice parallel in grammar and comparable in length
- Do not cluster correct answers on one letter across requests

EXPLANATIONS:
- 2-4 sentences explaining why the correct answer is right and, briefly, why the closest distractor fails

You must respond with valid JSON only. No markdown fences, no commentary outside the JSON.`, name, name)
}

func BuildPassagePrompt(req PassageRequest) string {
	var b strings.Builder

	scale := "a full reading passage"
	if req.IsMini {
		scale = "a short focused passage sized for a single practice question"
	}

	fmt.Fprintf(&b, `Write %s for the %s %s section.

Target length: about %d words
Difficulty: %s
Subject: %s
`, scale, testTypeNames[req.TestType], displayName(req.SectionName), req.WordCount, req.Difficulty, req.Topic)

	if req.Kind == models.KindMath {
		b.WriteString("\nThe passage is a data or scenario description (an experiment, a table described in prose, a real-world quantitative setup) that math questions will reference.\n")
	}

	fmt.Fprintf(&b, `
%s

Respond with this exact JSON structure:
{
  "title": "...",
  "content": "... (full passage text) ...",
  "word_count": %d
}`, difficultyGuidance[req.Difficulty], req.WordCount)

	return b.String()
}

func BuildQuestionPrompt(req QuestionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Generate exactly 1 %s %s question.

Difficulty: %s
`, testTypeNames[req.TestType], displayName(req.SectionName), req.Difficulty)

	if req.SubSkill != "" {
		fmt.Fprintf(&b, "Skill assessed: %s\n", displayName(req.SubSkill))
	}

	if req.PassageContent != "" {
		fmt.Fprintf(&b, "\nThe question must be answerable from this passage alone:\n\n---\n%s\n---\n", req.PassageContent)
	}

	fmt.Fprintf(&b, "\n%s\n", difficultyGuidance[req.Difficulty])

	if req.ResponseType == models.ResponseExtendedResponse {
		b.WriteString(`
Respond with this exact JSON structure:
{
  "question_text": "... (the full essay prompt) ...",
  "explanation": "... (what a strong response does) ..."
}`)
		return b.String()
	}

	b.WriteString(`
Respond with this exact JSON structure:
{
  "question_text": "...",
  "options": [
    {"id": "A", "text": "..."},
    {"id": "B", "text": "..."},
    {"id": "C", "text": "..."},
    {"id": "D", "text": "..."}
  ],
  "correct_answer_id": "B",
  "explanation": "..."
}`)

	return b.String()
}

// displayName renders a snake_case identifier for use in prose.
func displayName(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
