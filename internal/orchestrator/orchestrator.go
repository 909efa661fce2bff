package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prepbank/backend/internal/generator"
	"github.com/prepbank/backend/internal/models"
	"github.com/prepbank/backend/internal/planner"
)

// ContentStore is the persistence surface the orchestrator needs. Writes
// happen one unit at a time; there is no batching and no rollback across
// units.
type ContentStore interface {
	CreatePassage(ctx context.Context, p *models.Passage) error
	CreateQuestion(ctx context.Context, q *models.Question) error
	LogAttempt(ctx context.Context, a *models.GenerationAttempt) error
}

// ContentGenerator produces passages and questions. *generator.Generator is
// the production implementation.
type ContentGenerator interface {
	GeneratePassage(ctx context.Context, req generator.PassageRequest) (*generator.GeneratedPassage, *generator.LLMResponse, error)
	GenerateQuestion(ctx context.Context, req generator.QuestionRequest) (*generator.GeneratedQuestion, *generator.LLMResponse, error)
	ModelName() string
}

// AnswerVerifier re-derives a multiple-choice answer in an independent
// model call. *generator.Verifier is the production implementation.
type AnswerVerifier interface {
	Enabled() bool
	DeriveAnswer(ctx context.Context, q *generator.GeneratedQuestion, passageContent string) (*generator.DerivedAnswer, error)
}

// Options tune pacing and retry behavior. Zero values are replaced by
// defaults in New.
type Options struct {
	// PaceDelay is the gap between consecutive model calls. One call is in
	// flight at any time; pacing keeps the run under upstream rate limits.
	PaceDelay time.Duration

	// MaxAttempts caps full regeneration of one unit after validation
	// failures.
	MaxAttempts int

	// MaxTransientRetries caps retries of a single model call on transient
	// upstream errors, with exponential backoff starting at RetryBaseDelay.
	MaxTransientRetries int
	RetryBaseDelay      time.Duration
}

// OptionsFromEnv reads pacing and retry tuning from the environment,
// falling back to defaults.
func OptionsFromEnv() Options {
	opts := Options{}
	if v := os.Getenv("GEN_PACE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.PaceDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("GEN_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxAttempts = n
		}
	}
	if v := os.Getenv("GEN_MAX_TRANSIENT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.MaxTransientRetries = n
		}
	}
	return opts
}

// Orchestrator executes one generation plan sequentially. It is not safe
// for concurrent use; run one orchestration per process at a time.
type Orchestrator struct {
	store    ContentStore
	gen      ContentGenerator
	verifier AnswerVerifier
	opts     Options

	topics    []string
	nextTopic int
}

func New(store ContentStore, gen ContentGenerator, verifier AnswerVerifier, opts Options) *Orchestrator {
	if opts.PaceDelay == 0 {
		opts.PaceDelay = 500 * time.Millisecond
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.MaxTransientRetries == 0 {
		opts.MaxTransientRetries = 3
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = time.Second
	}
	return &Orchestrator{
		store:    store,
		gen:      gen,
		verifier: verifier,
		opts:     opts,
		topics:   generator.PassageTopicPool(),
	}
}

// Execute runs a plan against the shared state arena. Shared passages are
// created before the questions that occupy them; drill mini-passages are
// created inline with their question. A unit that exhausts its attempts is
// skipped and the run continues. Cancellation is honored between units, so
// a canceled run never leaves a half-written unit behind.
func (o *Orchestrator) Execute(ctx context.Context, runID string, state *planner.RunState, plan *models.GenerationPlan) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:       runID,
		TestType:    plan.TestType,
		SectionName: plan.SectionName,
		Status:      models.RunRunning,
		ModelUsed:   o.gen.ModelName(),
		StartedAt:   time.Now().UTC(),
	}

	log.Printf("[run %s] starting: %d passages, %d question batches planned",
		runID, len(plan.PassageGaps), plan.Summary.TotalQuestions)

	if err := o.createSharedPassages(ctx, runID, state, plan, summary); err != nil {
		return o.finish(summary, err), err
	}
	if err := o.generateQuestions(ctx, runID, state, plan, summary); err != nil {
		return o.finish(summary, err), err
	}

	return o.finish(summary, nil), nil
}

func (o *Orchestrator) finish(summary *models.RunSummary, err error) *models.RunSummary {
	now := time.Now().UTC()
	summary.CompletedAt = &now
	if err != nil {
		summary.Status = models.RunFailed
		msg := err.Error()
		summary.ErrorMessage = &msg
	} else {
		summary.Status = models.RunCompleted
	}
	log.Printf("[run %s] %s: attempted=%d succeeded=%d regenerated=%d skipped=%d passages=%d",
		summary.RunID, summary.Status, summary.UnitsAttempted, summary.UnitsSucceeded,
		summary.UnitsRegenerated, summary.UnitsSkipped, summary.PassagesCreated)
	return summary
}

// ── Phase 1: shared passages ───────────────────────────

func (o *Orchestrator) createSharedPassages(ctx context.Context, runID string, state *planner.RunState, plan *models.GenerationPlan, summary *models.RunSummary) error {
	for _, gap := range plan.PassageGaps {
		if err := o.pace(ctx); err != nil {
			return err
		}

		summary.UnitsAttempted++
		req := generator.PassageRequest{
			TestType:    plan.TestType,
			SectionName: plan.SectionName,
			Kind:        state.Config.Kind,
			TestMode:    gap.TestMode,
			Difficulty:  gap.Difficulty,
			WordCount:   gap.WordCount,
			Topic:       o.rotateTopic(),
		}

		passage, err := o.producePassage(ctx, runID, req)
		if err != nil {
			if ctxDone(err) {
				return err
			}
			// Questions planned against this passage fall back to the
			// allocation resolver, which creates a replacement on demand.
			log.Printf("WARN: [run %s] shared passage skipped (%s/%s): %v",
				runID, gap.TestMode, gap.Difficulty, err)
			summary.UnitsSkipped++
			continue
		}

		state.RegisterPassage(*passage)
		summary.UnitsSucceeded++
		summary.PassagesCreated++
	}
	return nil
}

// producePassage generates, scans, and persists one passage, returning the
// stored row.
func (o *Orchestrator) producePassage(ctx context.Context, runID string, req generator.PassageRequest) (*models.Passage, error) {
	var generated *generator.GeneratedPassage
	var lastErr error

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		var gp *generator.GeneratedPassage
		err := o.withTransientRetry(ctx, func() error {
			var genErr error
			gp, _, genErr = o.gen.GeneratePassage(ctx, req)
			return genErr
		})
		if err == nil {
			err = generator.ScanPassage(gp)
		}

		o.logAttempt(ctx, runID, req.TestMode, "", req.Difficulty, attempt, err)

		if err == nil {
			generated = gp
			break
		}
		if ctxDone(err) {
			return nil, err
		}
		lastErr = err
	}
	if generated == nil {
		return nil, fmt.Errorf("passage generation exhausted %d attempts: %w", o.opts.MaxAttempts, lastErr)
	}

	passage := &models.Passage{
		TestType:    req.TestType,
		SectionName: req.SectionName,
		TestMode:    req.TestMode,
		Difficulty:  req.Difficulty,
		WordCount:   generated.WordCount,
		Title:       generated.Title,
		Content:     generated.Content,
	}
	if err := o.store.CreatePassage(ctx, passage); err != nil {
		return nil, fmt.Errorf("persist passage: %w", err)
	}
	return passage, nil
}

// ── Phase 2: questions ─────────────────────────────────

func (o *Orchestrator) generateQuestions(ctx context.Context, runID string, state *planner.RunState, plan *models.GenerationPlan, summary *models.RunSummary) error {
	for _, gap := range plan.QuestionGaps {
		for n := 0; n < gap.QuestionsNeeded; n++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			// Quotas are authoritative at write time, not plan time. The
			// inventory may have moved since the snapshot was taken.
			if state.AtQuota(gap.TestMode) {
				log.Printf("[run %s] quota reached for %s mid-run; skipping remaining planned units", runID, gap.TestMode)
				summary.UnitsSkipped++
				continue
			}

			if err := o.pace(ctx); err != nil {
				return err
			}

			summary.UnitsAttempted++
			if err := o.produceQuestion(ctx, runID, state, gap, summary); err != nil {
				if ctxDone(err) {
					return err
				}
				log.Printf("WARN: [run %s] unit skipped (%s/%s/%s): %v",
					runID, gap.TestMode, gap.SubSkill, gap.Difficulty, err)
				summary.UnitsSkipped++
			}
		}
	}
	return nil
}

// produceQuestion runs the full unit pipeline: resolve a passage
// assignment, create a backing passage when the resolver asks for one,
// generate the question with validation and bounded regeneration, persist,
// and advance the state arena.
func (o *Orchestrator) produceQuestion(ctx context.Context, runID string, state *planner.RunState, gap models.QuestionGap, summary *models.RunSummary) error {
	cfg := state.Config
	assignment := planner.ResolveAssignment(state, gap)

	var passageState *planner.PassageState
	var passageContent string

	switch {
	case assignment.Passage != nil:
		passageState = assignment.Passage
		content, err := o.passageContent(ctx, passageState.ID)
		if err != nil {
			return err
		}
		passageContent = content
	case assignment.CreateNew:
		req := generator.PassageRequest{
			TestType:    cfg.TestType,
			SectionName: cfg.SectionName,
			Kind:        cfg.Kind,
			TestMode:    gap.TestMode,
			Difficulty:  assignment.Difficulty,
			WordCount:   assignment.WordCount,
			Topic:       o.rotateTopic(),
			IsMini:      assignment.IsMini,
		}
		passage, err := o.producePassage(ctx, runID, req)
		if err != nil {
			return fmt.Errorf("backing passage: %w", err)
		}
		passageState = state.RegisterPassage(*passage)
		passageContent = passage.Content
		summary.PassagesCreated++
	}

	req := generator.QuestionRequest{
		TestType:       cfg.TestType,
		SectionName:    cfg.SectionName,
		Kind:           cfg.Kind,
		TestMode:       gap.TestMode,
		SubSkill:       assignment.SubSkill,
		Difficulty:     assignment.Difficulty,
		ResponseType:   cfg.ResponseType(),
		PassageContent: passageContent,
	}

	generated, attempts, err := o.generateValidated(ctx, runID, req)
	if err != nil {
		return err
	}

	question := &models.Question{
		RunID:         runID,
		TestType:      cfg.TestType,
		SectionName:   cfg.SectionName,
		SubSkill:      assignment.SubSkill,
		Difficulty:    assignment.Difficulty,
		TestMode:      gap.TestMode,
		ResponseType:  req.ResponseType,
		QuestionText:  generated.QuestionText,
		CorrectAnswer: generated.CorrectAnswerID,
		Explanation:   generated.Explanation,
	}
	if passageState != nil {
		id := passageState.ID
		question.PassageID = &id
	}
	for _, opt := range generated.Options {
		question.Options = append(question.Options, models.AnswerOption{
			OptionID:   opt.ID,
			OptionText: opt.Text,
		})
	}

	if err := o.store.CreateQuestion(ctx, question); err != nil {
		o.logAttempt(ctx, runID, gap.TestMode, assignment.SubSkill, assignment.Difficulty,
			attempts, fmt.Errorf("persist: %w", err))
		return fmt.Errorf("persist question: %w", err)
	}

	state.RecordQuestion(gap.TestMode, assignment.SubSkill, passageState)
	summary.UnitsSucceeded++
	if attempts > 1 {
		summary.UnitsRegenerated++
	}
	return nil
}

// generateValidated produces one question that has passed every validation
// stage, regenerating from scratch on failure up to MaxAttempts times. It
// returns the number of attempts consumed.
func (o *Orchestrator) generateValidated(ctx context.Context, runID string, req generator.QuestionRequest) (*generator.GeneratedQuestion, int, error) {
	var lastErr error

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		var gq *generator.GeneratedQuestion
		err := o.withTransientRetry(ctx, func() error {
			var genErr error
			gq, _, genErr = o.gen.GenerateQuestion(ctx, req)
			return genErr
		})
		if err == nil {
			err = generator.ScanQuestion(gq)
		}
		if err == nil {
			err = o.verifyAnswer(ctx, gq, req)
		}

		o.logAttempt(ctx, runID, req.TestMode, req.SubSkill, req.Difficulty, attempt, err)

		if err == nil {
			return gq, attempt, nil
		}
		if ctxDone(err) {
			return nil, attempt, err
		}
		lastErr = err
		log.Printf("WARN: [run %s] attempt %d/%d rejected (%s/%s): %v",
			runID, attempt, o.opts.MaxAttempts, req.TestMode, req.SubSkill, lastErr)
	}

	return nil, o.opts.MaxAttempts, fmt.Errorf("question generation exhausted %d attempts: %w", o.opts.MaxAttempts, lastErr)
}

// verifyAnswer re-derives the answer key in an independent model call and
// rejects the question on disagreement. Extended-response prompts have no
// key to verify. A verifier transport failure is logged and waved through
// rather than burning a regeneration attempt.
func (o *Orchestrator) verifyAnswer(ctx context.Context, gq *generator.GeneratedQuestion, req generator.QuestionRequest) error {
	if req.ResponseType != models.ResponseMultipleChoice || o.verifier == nil || !o.verifier.Enabled() {
		return nil
	}

	derived, err := o.verifier.DeriveAnswer(ctx, gq, req.PassageContent)
	if err != nil {
		if ctxDone(err) {
			return err
		}
		log.Printf("WARN: verification call failed, accepting unverified: %v", err)
		return nil
	}

	if derived.SelectedAnswer != gq.CorrectAnswerID {
		return &generator.ValidationFailure{
			Stage: "verify",
			Reasons: []string{fmt.Sprintf("verifier selected %q, generator keyed %q",
				derived.SelectedAnswer, gq.CorrectAnswerID)},
		}
	}
	return nil
}

// ── Plumbing ───────────────────────────────────────────

// passageContentFetcher is implemented by stores that can read a passage
// body back; the orchestrator needs it when reusing a passage created in an
// earlier run.
type passageContentFetcher interface {
	PassageContent(ctx context.Context, id int64) (string, error)
}

func (o *Orchestrator) passageContent(ctx context.Context, id int64) (string, error) {
	fetcher, ok := o.store.(passageContentFetcher)
	if !ok {
		return "", nil
	}
	content, err := fetcher.PassageContent(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load passage %d: %w", id, err)
	}
	return content, nil
}

func (o *Orchestrator) withTransientRetry(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt <= o.opts.MaxTransientRetries; attempt++ {
		if attempt > 0 {
			delay := o.opts.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			log.Printf("[orchestrator] transient failure, retrying in %v: %v", delay, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := call()
		if err == nil {
			return nil
		}
		if !generator.IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transient retries exhausted: %w", lastErr)
}

func (o *Orchestrator) pace(ctx context.Context) error {
	if o.opts.PaceDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.opts.PaceDelay):
		return nil
	}
}

func (o *Orchestrator) rotateTopic() string {
	topic := o.topics[o.nextTopic%len(o.topics)]
	o.nextTopic++
	return topic
}

func (o *Orchestrator) logAttempt(ctx context.Context, runID string, mode models.TestMode, subSkill string, difficulty models.Difficulty, attempt int, attemptErr error) {
	row := &models.GenerationAttempt{
		RunID:      runID,
		TestMode:   mode,
		SubSkill:   subSkill,
		Difficulty: difficulty,
		Attempt:    attempt,
		Outcome:    classifyOutcome(attemptErr),
	}
	if attemptErr != nil {
		row.Detail = attemptErr.Error()
	}
	if err := o.store.LogAttempt(ctx, row); err != nil {
		log.Printf("WARN: attempt audit write failed: %v", err)
	}
}

func classifyOutcome(err error) models.AttemptOutcome {
	if err == nil {
		return models.AttemptSucceeded
	}

	var vf *generator.ValidationFailure
	if errors.As(err, &vf) {
		switch vf.Stage {
		case "scan":
			return models.AttemptHallucination
		case "verify":
			return models.AttemptAnswerMismatch
		default:
			return models.AttemptParseError
		}
	}
	if generator.IsTransient(err) {
		return models.AttemptTransientError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.AttemptTransientError
	}

	if strings.HasPrefix(err.Error(), "persist") {
		return models.AttemptPersistError
	}
	return models.AttemptParseError
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
