package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Verifier re-derives the expected answer for a multiple-choice question in
// a second, independent model call. The prompt carries the question and
// choices only, never the generator's answer key, so agreement between the
// two calls is evidence the key is defensible rather than an echo.
type Verifier struct {
	llm   LLMClient
	model string
}

func NewVerifier() *Verifier {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath)
		model = "claude-cli"
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = nil // verification is skipped in mock mode
	} else {
		model = os.Getenv("ANTHROPIC_VERIFIER_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
	}

	return &Verifier{llm: llm, model: model}
}

// NewVerifierWith builds a Verifier around an explicit client, mainly for
// tests.
func NewVerifierWith(llm LLMClient, model string) *Verifier {
	return &Verifier{llm: llm, model: model}
}

// Enabled reports whether answer verification runs at all. Mock mode has no
// independent model to consult.
func (v *Verifier) Enabled() bool {
	return v.llm != nil
}

type DerivedAnswer struct {
	SelectedAnswer string `json:"selected_answer"`
	Confidence     string `json:"confidence"`
	Reasoning      string `json:"reasoning"`
	PromptTokens   int    `json:"prompt_tokens"`
	OutputTokens   int    `json:"output_tokens"`
}

type derivationResponse struct {
	SelectedAnswer string `json:"selected_answer"`
	Confidence     string `json:"confidence"`
	Reasoning      string `json:"reasoning"`
}

// DeriveAnswer solves the question blind and returns the letter the
// verifier model selects.
func (v *Verifier) DeriveAnswer(ctx context.Context, q *GeneratedQuestion, passageContent string) (*DerivedAnswer, error) {
	if v.llm == nil {
		return nil, fmt.Errorf("verifier not initialized (mock mode)")
	}

	prompt := buildDerivationPrompt(q, passageContent)

	resp, err := v.llm.Generate(ctx, derivationSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	cleaned := stripCodeFences(resp.Content)
	var dResp derivationResponse
	if err := json.Unmarshal([]byte(cleaned), &dResp); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	return &DerivedAnswer{
		SelectedAnswer: strings.ToUpper(strings.TrimSpace(dResp.SelectedAnswer)),
		Confidence:     dResp.Confidence,
		Reasoning:      dResp.Reasoning,
		PromptTokens:   resp.PromptTokens,
		OutputTokens:   resp.OutputTokens,
	}, nil
}

const derivationSystemPrompt = `You are an expert standardized-test tutor solving a practice question. You have not seen any answer key. Work through each choice systematically and select the single best answer. Respond with JSON only.`

func buildDerivationPrompt(q *GeneratedQuestion, passageContent string) string {
	var sb strings.Builder

	if passageContent != "" {
		sb.WriteString("PASSAGE:\n")
		sb.WriteString(passageContent)
		sb.WriteString("\n\n")
	}

	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.QuestionText)
	sb.WriteString("\n\nCHOICES:\n")

	for _, opt := range q.Options {
		sb.WriteString(fmt.Sprintf("(%s) %s\n", opt.ID, opt.Text))
	}

	sb.WriteString(`
Select the BEST answer. Respond with JSON only:
{
  "selected_answer": "B",
  "confidence": "high",
  "reasoning": "Why you selected this answer and why each other choice fails..."
}`)

	return sb.String()
}
