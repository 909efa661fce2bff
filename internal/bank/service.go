package bank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/prepbank/backend/internal/curriculum"
	"github.com/prepbank/backend/internal/models"
	"github.com/prepbank/backend/internal/orchestrator"
	"github.com/prepbank/backend/internal/planner"
)

// ErrRunInProgress rejects a second concurrent run. The content store has a
// single writer; concurrent runs would race on quota checks.
var ErrRunInProgress = errors.New("a generation run is already in progress")

// Service ties curriculum resolution, gap analysis, and orchestration into
// the gap-fill entry point the HTTP layer calls.
type Service struct {
	store    *Store
	resolver *curriculum.Resolver
	orch     *orchestrator.Orchestrator

	mu      sync.Mutex
	running bool
}

func NewService(store *Store, resolver *curriculum.Resolver, orch *orchestrator.Orchestrator) *Service {
	return &Service{store: store, resolver: resolver, orch: orch}
}

// RunGapFill resolves the section, diffs quotas against a fresh inventory
// snapshot, and either returns the plan (plan_only) or executes it. At most
// one run executes at a time.
func (s *Service) RunGapFill(ctx context.Context, req models.RunGapFillRequest) (*models.RunGapFillResponse, error) {
	cfg, err := s.resolver.Resolve(req.TestType, req.SectionName)
	if err != nil {
		return nil, err
	}
	quotas, err := s.resolver.Quotas(req.TestType, req.SectionName)
	if err != nil {
		return nil, err
	}

	modes := req.TestModes
	for _, m := range modes {
		if !models.ValidTestModes[m] {
			return nil, fmt.Errorf("invalid test mode %q", m)
		}
	}

	snap, err := s.store.LoadSnapshot(ctx, req.TestType, req.SectionName)
	if err != nil {
		return nil, err
	}

	plan, err := planner.AnalyzeGaps(cfg, quotas, snap, modes...)
	if err != nil {
		return nil, err
	}

	if req.PlanOnly {
		return &models.RunGapFillResponse{
			Plan:    plan,
			Message: fmt.Sprintf("plan only: %d questions, %d passages needed", plan.Summary.TotalQuestions, plan.Summary.TotalPassages),
		}, nil
	}

	if plan.Empty() {
		return &models.RunGapFillResponse{
			Plan:    plan,
			Message: "inventory already satisfies every quota; nothing to generate",
		}, nil
	}

	if !s.tryAcquire() {
		return nil, ErrRunInProgress
	}
	defer s.release()

	runID := uuid.NewString()
	state := planner.NewRunState(cfg, quotas, snap)

	pending := &models.RunSummary{
		RunID:       runID,
		TestType:    req.TestType,
		SectionName: req.SectionName,
		Status:      models.RunRunning,
	}
	summary, execErr := s.executeTracked(ctx, runID, pending, state, plan)

	resp := &models.RunGapFillResponse{Summary: summary, Plan: plan}
	switch {
	case execErr != nil:
		resp.Message = fmt.Sprintf("run failed: %v", execErr)
	case summary.UnitsSkipped > 0:
		resp.Message = fmt.Sprintf("run completed with %d of %d units skipped", summary.UnitsSkipped, summary.UnitsAttempted)
	default:
		resp.Message = "run completed"
	}
	return resp, nil
}

// executeTracked wraps orchestration with the generation_runs bookkeeping
// row so a crashed process leaves a visible "running" tombstone.
func (s *Service) executeTracked(ctx context.Context, runID string, pending *models.RunSummary, state *planner.RunState, plan *models.GenerationPlan) (*models.RunSummary, error) {
	if err := s.store.CreateRun(ctx, pending); err != nil {
		return nil, err
	}

	summary, execErr := s.orch.Execute(ctx, runID, state, plan)

	if err := s.store.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
		log.Printf("WARN: [run %s] run row update failed: %v", runID, err)
	}
	return summary, execErr
}

func (s *Service) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Inventory reports per-mode stock against quota for one section.
func (s *Service) Inventory(ctx context.Context, testType models.TestType, sectionName string) (*models.InventoryResponse, error) {
	if _, err := s.resolver.Resolve(testType, sectionName); err != nil {
		return nil, err
	}
	quotas, err := s.resolver.Quotas(testType, sectionName)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.LoadSnapshot(ctx, testType, sectionName)
	if err != nil {
		return nil, err
	}

	resp := &models.InventoryResponse{
		TestType:    testType,
		SectionName: sectionName,
		Quotas:      quotas,
		ByMode:      make(map[models.TestMode]models.ModeInventory),
	}
	for _, mode := range models.AllTestModes {
		counts := snap.Counts(mode)
		deficit := quotas[mode] - counts.Total
		if deficit < 0 {
			deficit = 0
		}
		resp.ByMode[mode] = models.ModeInventory{
			Quota:      quotas[mode],
			Existing:   counts.Total,
			Deficit:    deficit,
			BySubSkill: counts.BySubSkill,
		}
	}
	return resp, nil
}

// Sections exposes the resolved curriculum for one test type.
func (s *Service) Sections(testType models.TestType) ([]*models.SectionConfig, error) {
	names, err := s.resolver.SectionNames(testType)
	if err != nil {
		return nil, err
	}
	configs := make([]*models.SectionConfig, 0, len(names))
	for _, name := range names {
		cfg, err := s.resolver.Resolve(testType, name)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Runs lists recent generation runs, newest first.
func (s *Service) Runs(ctx context.Context, limit, offset int) (*models.RunListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.store.ListRuns(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.RunListResponse{Runs: runs, Total: len(runs)}, nil
}

// Run fetches one run by id.
func (s *Service) Run(ctx context.Context, runID string) (*models.RunSummary, error) {
	return s.store.GetRun(ctx, runID)
}
