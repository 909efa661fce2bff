package bank

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prepbank/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Passages ────────────────────────────────────────────

func (s *Store) CreatePassage(ctx context.Context, p *models.Passage) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO passages (test_type, section_name, test_mode, difficulty, word_count, title, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		p.TestType, p.SectionName, p.TestMode, p.Difficulty, p.WordCount, p.Title, p.Content,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create passage: %w", err)
	}
	return nil
}

func (s *Store) PassageContent(ctx context.Context, id int64) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM passages WHERE id = $1`, id,
	).Scan(&content)
	if err != nil {
		return "", fmt.Errorf("passage content: %w", err)
	}
	return content, nil
}

// ── Questions ───────────────────────────────────────────

// CreateQuestion persists a question and its answer options in one
// transaction so a partial write can never surface as an optionless
// multiple-choice question.
func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO questions (run_id, test_type, section_name, sub_skill, difficulty,
		                        test_mode, passage_id, response_type, question_text,
		                        correct_answer, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		nullIfEmpty(q.RunID), q.TestType, q.SectionName, q.SubSkill, q.Difficulty,
		q.TestMode, q.PassageID, q.ResponseType, q.QuestionText,
		nullIfEmpty(q.CorrectAnswer), q.Explanation,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	for i := range q.Options {
		opt := &q.Options[i]
		opt.QuestionID = q.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO answer_options (question_id, option_id, option_text)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			opt.QuestionID, opt.OptionID, opt.OptionText,
		).Scan(&opt.ID)
		if err != nil {
			return fmt.Errorf("insert option %s: %w", opt.OptionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question: %w", err)
	}
	return nil
}

// ── Inventory ───────────────────────────────────────────

// LoadSnapshot reads a point-in-time inventory view for one section:
// per-mode question counts broken down by passage, sub-skill, and
// (sub-skill, difficulty), plus every passage in creation order.
func (s *Store) LoadSnapshot(ctx context.Context, testType models.TestType, sectionName string) (*models.InventorySnapshot, error) {
	snap := models.NewInventorySnapshot(testType, sectionName)

	rows, err := s.db.QueryContext(ctx,
		`SELECT test_mode, sub_skill, difficulty, passage_id, COUNT(*)
		 FROM questions
		 WHERE test_type = $1 AND section_name = $2
		 GROUP BY test_mode, sub_skill, difficulty, passage_id`,
		testType, sectionName,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot counts: %w", err)
	}
	defer rows.Close()

	type skillSet map[int64]map[string]bool
	passageSkills := make(map[models.TestMode]skillSet)

	for rows.Next() {
		var mode models.TestMode
		var subSkill string
		var difficulty models.Difficulty
		var passageID sql.NullInt64
		var n int
		if err := rows.Scan(&mode, &subSkill, &difficulty, &passageID, &n); err != nil {
			return nil, fmt.Errorf("snapshot scan: %w", err)
		}

		counts := snap.Counts(mode)
		counts.Total += n
		if subSkill != "" {
			counts.BySubSkill[subSkill] += n
			counts.BySkillDifficulty[models.SkillDifficulty{SubSkill: subSkill, Difficulty: difficulty}] += n
		}
		if passageID.Valid {
			counts.ByPassage[passageID.Int64] += n
			if subSkill != "" {
				if passageSkills[mode] == nil {
					passageSkills[mode] = make(skillSet)
				}
				if passageSkills[mode][passageID.Int64] == nil {
					passageSkills[mode][passageID.Int64] = make(map[string]bool)
				}
				passageSkills[mode][passageID.Int64][subSkill] = true
			}
		}
		snap.ByMode[mode] = counts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot rows: %w", err)
	}

	for mode, perPassage := range passageSkills {
		counts := snap.ByMode[mode]
		for id, skills := range perPassage {
			for skill := range skills {
				counts.SkillsByPassage[id] = append(counts.SkillsByPassage[id], skill)
			}
		}
		snap.ByMode[mode] = counts
	}

	prows, err := s.db.QueryContext(ctx,
		`SELECT id, test_mode, difficulty, word_count, title
		 FROM passages
		 WHERE test_type = $1 AND section_name = $2
		 ORDER BY created_at, id`,
		testType, sectionName,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot passages: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		p := models.Passage{TestType: testType, SectionName: sectionName}
		if err := prows.Scan(&p.ID, &p.TestMode, &p.Difficulty, &p.WordCount, &p.Title); err != nil {
			return nil, fmt.Errorf("snapshot passage scan: %w", err)
		}
		snap.Passages[p.TestMode] = append(snap.Passages[p.TestMode], p)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot passage rows: %w", err)
	}

	return snap, nil
}

// ── Runs ────────────────────────────────────────────────

func (s *Store) CreateRun(ctx context.Context, run *models.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_runs (run_id, test_type, section_name, status, model_used, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.RunID, run.TestType, run.SectionName, run.Status, run.ModelUsed, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, run *models.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generation_runs
		 SET status = $1, units_attempted = $2, units_succeeded = $3,
		     units_regenerated = $4, units_skipped = $5, passages_created = $6,
		     error_message = $7, completed_at = $8
		 WHERE run_id = $9`,
		run.Status, run.UnitsAttempted, run.UnitsSucceeded,
		run.UnitsRegenerated, run.UnitsSkipped, run.PassagesCreated,
		run.ErrorMessage, run.CompletedAt, run.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = `run_id, test_type, section_name, status,
	        units_attempted, units_succeeded, units_regenerated, units_skipped,
	        passages_created, model_used, error_message, started_at, completed_at`

func (s *Store) GetRun(ctx context.Context, runID string) (*models.RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM generation_runs WHERE run_id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]models.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM generation_runs
		 ORDER BY started_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs scan: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunSummary, error) {
	var run models.RunSummary
	var modelUsed sql.NullString
	err := row.Scan(&run.RunID, &run.TestType, &run.SectionName, &run.Status,
		&run.UnitsAttempted, &run.UnitsSucceeded, &run.UnitsRegenerated, &run.UnitsSkipped,
		&run.PassagesCreated, &modelUsed, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	run.ModelUsed = modelUsed.String
	return &run, nil
}

// ── Attempt Audit Log ───────────────────────────────────

func (s *Store) LogAttempt(ctx context.Context, a *models.GenerationAttempt) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO generation_attempts (run_id, test_mode, sub_skill, difficulty, attempt, outcome, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		a.RunID, a.TestMode, a.SubSkill, a.Difficulty, a.Attempt, a.Outcome, a.Detail,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
