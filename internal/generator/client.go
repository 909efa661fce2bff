package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/prepbank/backend/internal/models"
)

// LLMClient is the interface all three client implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// PassageRequest describes one passage to generate.
type PassageRequest struct {
	TestType    models.TestType
	SectionName string
	Kind        models.SectionKind
	TestMode    models.TestMode
	Difficulty  models.Difficulty
	WordCount   int
	Topic       string
	IsMini      bool
}

// QuestionRequest describes one question to generate. PassageContent is
// empty for sections whose questions stand alone.
type QuestionRequest struct {
	TestType       models.TestType
	SectionName    string
	Kind           models.SectionKind
	TestMode       models.TestMode
	SubSkill       string
	Difficulty     models.Difficulty
	ResponseType   models.ResponseType
	PassageContent string
}

// Generator wraps an LLMClient and adds the typed generate-and-parse
// methods the orchestrator calls.
type Generator struct {
	llm   LLMClient
	model string
}

// NewGenerator selects a client from the environment: the claude CLI when
// USE_CLI_GENERATOR=true, canned data when MOCK_GENERATOR=true, otherwise
// the Anthropic API.
func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath)
		model = "claude-cli"
		log.Println("Generator using Claude CLI (local plan)")
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("Generator using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("Generator using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWith builds a Generator around an explicit client, mainly for
// tests.
func NewGeneratorWith(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GeneratePassage produces and parses one passage. Transient upstream
// failures carry through wrapped so the caller's retry policy can see them.
func (g *Generator) GeneratePassage(ctx context.Context, req PassageRequest) (*GeneratedPassage, *LLMResponse, error) {
	systemPrompt := PassageSystemPrompt(req.TestType)
	userPrompt := BuildPassagePrompt(req)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate passage: %w", err)
	}

	passage, err := ParsePassage(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse passage response: %w", err)
	}

	return passage, resp, nil
}

// GenerateQuestion produces and parses one question against an optional
// passage.
func (g *Generator) GenerateQuestion(ctx context.Context, req QuestionRequest) (*GeneratedQuestion, *LLMResponse, error) {
	systemPrompt := QuestionSystemPrompt(req.TestType, req.ResponseType)
	userPrompt := BuildQuestionPrompt(req)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate question: %w", err)
	}

	question, err := ParseQuestion(resp.Content, req.ResponseType)
	if err != nil {
		return nil, resp, fmt.Errorf("parse question response: %w", err)
	}

	return question, resp, nil
}

// ── APIClient (Anthropic SDK) ──────────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
		option.WithMaxRetries(0), // retry policy lives in the orchestrator
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   8192,
		Temperature: param.NewOpt(0.8),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAPIError(err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

// classifyAPIError wraps retryable upstream failures in TransientError.
// Rate limits (429), server errors (5xx) and Anthropic's overloaded status
// (529) are transient; everything else, including auth and bad-request
// errors, fails fast.
func classifyAPIError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429, apierr.StatusCode >= 500:
			return &TransientError{Err: err}
		}
		return err
	}
	// Network-level failures with no HTTP status are worth one more try.
	return &TransientError{Err: err}
}

// ── MockClient (Local Development) ─────────────────────────

type MockClient struct {
	calls int
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate returns canned JSON shaped for whichever artifact the system
// prompt asks for. Correct answers rotate so fixtures are not all "A".
func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	m.calls++

	var content string
	switch {
	case isPassagePrompt(systemPrompt):
		content = mockPassageJSON(m.calls)
	case isExtendedPrompt(systemPrompt):
		content = mockExtendedJSON(m.calls)
	default:
		content = mockQuestionJSON(m.calls)
	}

	return &LLMResponse{
		Content:      content,
		PromptTokens: 1200,
		OutputTokens: 900,
	}, nil
}

func mockPassageJSON(seq int) string {
	topics := []string{
		"coral reef restoration", "the printing press", "urban transit planning",
		"deep-sea bioluminescence", "the economics of rail freight",
	}
	topic := topics[seq%len(topics)]
	return fmt.Sprintf(`{"title":"[Mock] Notes on %s","content":"[Mock] This passage examines %s in enough detail to support several comprehension questions. Researchers studying %s have documented a series of findings that complicate the conventional account. The first section surveys the evidence; the second weighs two competing interpretations; the closing paragraphs argue that neither interpretation alone explains the data.","word_count":480}`,
		topic, topic, topic)
}

func mockQuestionJSON(seq int) string {
	correct := []string{"A", "B", "C", "D"}[seq%4]
	options := ""
	for i, id := range []string{"A", "B", "C", "D"} {
		if i > 0 {
			options += ","
		}
		options += fmt.Sprintf(`{"id":"%s","text":"[Mock] Answer choice %s for question %d."}`, id, id, seq)
	}
	return fmt.Sprintf(`{"question_text":"[Mock] Which choice best completes question %d?","options":[%s],"correct_answer_id":"%s","explanation":"[Mock] Choice %s follows from the passage; the others contradict it."}`,
		seq, options, correct, correct)
}

func mockExtendedJSON(seq int) string {
	return fmt.Sprintf(`{"question_text":"[Mock] Write an essay responding to prompt %d, supporting your position with evidence.","explanation":"[Mock] Strong responses take a clear position and develop it across several paragraphs."}`, seq)
}

func isPassagePrompt(systemPrompt string) bool {
	return containsFold(systemPrompt, "passage writer")
}

func isExtendedPrompt(systemPrompt string) bool {
	return containsFold(systemPrompt, "essay prompt")
}
