package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// ExecutionRepository handles test execution data access. Every state
// change goes through Mutate, which holds the row lock for the duration of
// the transition.
type ExecutionRepository struct {
	pool *pgxpool.Pool
}

// NewExecutionRepository creates a new ExecutionRepository.
func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

const executionColumns = `e.id, e.test_plan_id, e.status, e.started_at, e.paused_at, e.completed_at,
	e.ended_at, e.score, e.snapshot, e.created_at, e.updated_at`

func scanExecution(row pgx.Row, extra ...any) (*model.TestExecution, error) {
	e := &model.TestExecution{}
	dest := append([]any{
		&e.ID, &e.TestPlanID, &e.Status, &e.StartedAt, &e.PausedAt, &e.CompletedAt,
		&e.EndedAt, &e.Score, &e.Snapshot, &e.CreatedAt, &e.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return e, nil
}

func insertExecution(ctx context.Context, db DBTX, e *model.TestExecution) error {
	err := db.QueryRow(ctx,
		`INSERT INTO test_executions (test_plan_id, status, snapshot)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		e.TestPlanID, e.Status, e.Snapshot,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return wrapErr(err, "test execution", 0)
}

// GetByID retrieves an execution by ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id identity.ID) (*model.TestExecution, error) {
	e, err := scanExecution(r.pool.QueryRow(ctx,
		`SELECT `+executionColumns+` FROM test_executions e WHERE e.id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "test execution", id)
	}
	return e, nil
}

// GetWithPlan retrieves an execution and the plan it belongs to.
func (r *ExecutionRepository) GetWithPlan(ctx context.Context, id identity.ID) (*model.TestExecution, *model.TestPlan, error) {
	return getWithPlan(ctx, r.pool, id, "")
}

func getWithPlan(ctx context.Context, db DBTX, id identity.ID, lock string) (*model.TestExecution, *model.TestPlan, error) {
	p := &model.TestPlan{}
	e, err := scanExecution(db.QueryRow(ctx,
		`SELECT `+executionColumns+`, `+planColumns+`
		 FROM test_executions e JOIN test_plans p ON p.id = e.test_plan_id
		 WHERE e.id = $1`+lock, id),
		&p.ID, &p.StudentID, &p.PlannedBy, &p.Configuration, &p.TestType, &p.TimingType,
		&p.TimeLimitSeconds, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, nil, wrapErr(err, "test execution", id)
	}
	return e, p, nil
}

// LatestByPlan retrieves the most recent execution of a plan.
func (r *ExecutionRepository) LatestByPlan(ctx context.Context, planID identity.ID) (*model.TestExecution, error) {
	e, err := scanExecution(r.pool.QueryRow(ctx,
		`SELECT `+executionColumns+` FROM test_executions e
		 WHERE e.test_plan_id = $1
		 ORDER BY e.created_at DESC, e.id DESC
		 LIMIT 1`, planID))
	if err != nil {
		return nil, wrapErr(err, "test execution", 0)
	}
	return e, nil
}

// ListByPlan returns every execution of a plan, newest first.
func (r *ExecutionRepository) ListByPlan(ctx context.Context, planID identity.ID) ([]model.TestExecution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+executionColumns+` FROM test_executions e
		 WHERE e.test_plan_id = $1
		 ORDER BY e.created_at DESC, e.id DESC`, planID)
	if err != nil {
		return nil, wrapErr(err, "test executions", 0)
	}
	defer rows.Close()

	executions := []model.TestExecution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, wrapErr(err, "test executions", 0)
		}
		executions = append(executions, *e)
	}
	return executions, rows.Err()
}

// CreateForPlan adds an execution to an existing plan. The plan row is
// locked first; when the latest execution is still NOT_STARTED that one is
// returned with created == false and build is never called. Otherwise build
// receives the plan and its latest execution (nil for none).
func (r *ExecutionRepository) CreateForPlan(
	ctx context.Context,
	planID identity.ID,
	build func(plan *model.TestPlan, latest *model.TestExecution) (*model.TestExecution, error),
) (e *model.TestExecution, created bool, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		plan, err := scanPlan(tx.QueryRow(ctx,
			`SELECT `+planColumns+` FROM test_plans p WHERE p.id = $1 FOR UPDATE`, planID))
		if err != nil {
			return wrapErr(err, "test plan", planID)
		}

		latest, err := scanExecution(tx.QueryRow(ctx,
			`SELECT `+executionColumns+` FROM test_executions e
			 WHERE e.test_plan_id = $1
			 ORDER BY e.created_at DESC, e.id DESC
			 LIMIT 1`, planID))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			latest = nil
		case err != nil:
			return wrapErr(err, "test execution", 0)
		case latest.Status == model.ExecutionNotStarted:
			e = latest
			return nil
		}

		e, err = build(plan, latest)
		if err != nil {
			return err
		}
		e.TestPlanID = planID
		created = true
		return insertExecution(ctx, tx, e)
	})
	if err != nil {
		return nil, false, err
	}
	return e, created, nil
}

// Mutate loads the execution and its plan under a row lock, applies fn and
// writes the execution back. Nothing is written when fn fails.
func (r *ExecutionRepository) Mutate(
	ctx context.Context,
	id identity.ID,
	fn func(e *model.TestExecution, plan *model.TestPlan) error,
) (*model.TestExecution, *model.TestPlan, error) {
	var (
		e    *model.TestExecution
		plan *model.TestPlan
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		e, plan, err = getWithPlan(ctx, tx, id, " FOR UPDATE OF e")
		if err != nil {
			return err
		}
		if err := fn(e, plan); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE test_executions
			 SET status = $1, started_at = $2, paused_at = $3, completed_at = $4,
			     ended_at = $5, score = $6, snapshot = $7, updated_at = NOW()
			 WHERE id = $8
			 RETURNING updated_at`,
			e.Status, e.StartedAt, e.PausedAt, e.CompletedAt, e.EndedAt, e.Score, e.Snapshot, e.ID,
		).Scan(&e.UpdatedAt)
		return wrapErr(err, "test execution", id)
	})
	if err != nil {
		return nil, nil, err
	}
	return e, plan, nil
}

// ListStale returns the ids of IN_PROGRESS or PAUSED executions last
// touched before cutoff.
func (r *ExecutionRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]identity.ID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM test_executions
		 WHERE status IN ($1, $2) AND updated_at < $3
		 ORDER BY updated_at
		 LIMIT $4`,
		model.ExecutionInProgress, model.ExecutionPaused, cutoff, limit)
	if err != nil {
		return nil, wrapErr(err, "test executions", 0)
	}
	defer rows.Close()

	ids := []identity.ID{}
	for rows.Next() {
		var id identity.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
