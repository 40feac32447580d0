package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// TestPlanRepository handles test plan data access.
type TestPlanRepository struct {
	pool *pgxpool.Pool
}

// NewTestPlanRepository creates a new TestPlanRepository.
func NewTestPlanRepository(pool *pgxpool.Pool) *TestPlanRepository {
	return &TestPlanRepository{pool: pool}
}

const planColumns = `p.id, p.student_id, p.planned_by, p.configuration, p.test_type, p.timing_type,
	p.time_limit_seconds, p.created_at, p.updated_at`

func scanPlan(row pgx.Row) (*model.TestPlan, error) {
	p := &model.TestPlan{}
	err := row.Scan(&p.ID, &p.StudentID, &p.PlannedBy, &p.Configuration, &p.TestType, &p.TimingType,
		&p.TimeLimitSeconds, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateWithExecution inserts the plan and its first execution in one
// transaction. Neither row exists if either insert fails.
func (r *TestPlanRepository) CreateWithExecution(ctx context.Context, p *model.TestPlan, e *model.TestExecution) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO test_plans (student_id, planned_by, configuration, test_type, timing_type, time_limit_seconds)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			p.StudentID, p.PlannedBy, p.Configuration, p.TestType, p.TimingType, p.TimeLimitSeconds,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return wrapErr(err, "test plan", 0)
		}

		e.TestPlanID = p.ID
		if err := insertExecution(ctx, tx, e); err != nil {
			return fmt.Errorf("create first execution: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a test plan by ID.
func (r *TestPlanRepository) GetByID(ctx context.Context, id identity.ID) (*model.TestPlan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM test_plans p WHERE p.id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "test plan", id)
	}
	return p, nil
}

// ListForUser returns the plans where userID is the student or the planner,
// newest first.
func (r *TestPlanRepository) ListForUser(ctx context.Context, userID identity.ID, limit, page int) ([]model.TestPlan, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_plans WHERE student_id = $1 OR planned_by = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, wrapErr(err, "test plans", 0)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+planColumns+` FROM test_plans p
		 WHERE p.student_id = $1 OR p.planned_by = $1
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, wrapErr(err, "test plans", 0)
	}
	defer rows.Close()

	plans := []model.TestPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, wrapErr(err, "test plans", 0)
		}
		plans = append(plans, *p)
	}
	return plans, total, rows.Err()
}

// UpdateMetadata writes the test type and timing of a plan.
func (r *TestPlanRepository) UpdateMetadata(ctx context.Context, p *model.TestPlan) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE test_plans SET test_type = $1, timing_type = $2, time_limit_seconds = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING updated_at`,
		p.TestType, p.TimingType, p.TimeLimitSeconds, p.ID,
	).Scan(&p.UpdatedAt)
	return wrapErr(err, "test plan", p.ID)
}

// Delete removes a plan together with its executions. guard sees the latest
// execution, or nil, while the plan row is locked; an error from it aborts
// the delete.
func (r *TestPlanRepository) Delete(ctx context.Context, id identity.ID, guard func(latest *model.TestExecution) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM test_plans WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			return wrapErr(err, "test plan", id)
		}

		latest, err := scanExecution(tx.QueryRow(ctx,
			`SELECT `+executionColumns+` FROM test_executions e
			 WHERE e.test_plan_id = $1
			 ORDER BY e.created_at DESC, e.id DESC
			 LIMIT 1`, id))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			latest = nil
		case err != nil:
			return wrapErr(err, "test execution", 0)
		}
		if err := guard(latest); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM test_plans WHERE id = $1`, id); err != nil {
			return wrapErr(err, "test plan", id)
		}
		return nil
	})
}
