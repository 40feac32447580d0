package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/allocator"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/execution"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/rs/zerolog"
)

// PlanStore persists test plans. *repository.TestPlanRepository implements it.
type PlanStore interface {
	CreateWithExecution(ctx context.Context, p *model.TestPlan, e *model.TestExecution) error
	GetByID(ctx context.Context, id identity.ID) (*model.TestPlan, error)
	ListForUser(ctx context.Context, userID identity.ID, limit, page int) ([]model.TestPlan, int, error)
	UpdateMetadata(ctx context.Context, p *model.TestPlan) error
	Delete(ctx context.Context, id identity.ID, guard func(latest *model.TestExecution) error) error
}

// TopicCatalog answers the existence checks made while validating a plan
// configuration. *repository.SubjectRepository implements it.
type TopicCatalog interface {
	CountExistingTopics(ctx context.Context, ids []identity.ID) (int, error)
	SubtopicTopics(ctx context.Context, ids []identity.ID) (map[identity.ID]identity.ID, error)
}

// Allocator draws the questions of a new execution.
type Allocator interface {
	Allocate(ctx context.Context, cfg model.TestPlanConfiguration, spec allocator.DistributionSpec) ([]model.QuestionSnapshot, error)
}

// UserGetter loads one account.
type UserGetter interface {
	GetByID(ctx context.Context, id identity.ID) (*model.User, error)
}

// TestPlanService creates test plans and manages their attempts.
type TestPlanService struct {
	plans        PlanStore
	executions   ExecutionStore
	catalog      TopicCatalog
	users        UserGetter
	alloc        Allocator
	events       EventPublisher
	defaultTiers int
	now          func() time.Time
	log          zerolog.Logger
}

// NewTestPlanService creates a new TestPlanService.
func NewTestPlanService(
	plans PlanStore,
	executions ExecutionStore,
	catalog TopicCatalog,
	users UserGetter,
	alloc Allocator,
	events EventPublisher,
	defaultTiers int,
	log zerolog.Logger,
) *TestPlanService {
	if defaultTiers == 0 {
		defaultTiers = allocator.DefaultTiers
	}
	return &TestPlanService{
		plans:        plans,
		executions:   executions,
		catalog:      catalog,
		users:        users,
		alloc:        alloc,
		events:       events,
		defaultTiers: defaultTiers,
		now:          time.Now,
		log:          log.With().Str("component", "test_plan_service").Logger(),
	}
}

// ─── Create ──────────────────────────────────────────────────────────

// Create validates the configuration, allocates the questions and stores
// the plan together with its first NOT_STARTED execution.
func (s *TestPlanService) Create(ctx context.Context, actor Actor, req model.CreateTestPlanRequest) (*model.TestPlanView, error) {
	studentID, err := s.resolveStudent(ctx, actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.configuration(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &model.TestPlan{
		StudentID:     studentID,
		PlannedBy:     actor.ID,
		Configuration: cfg,
		TestType:      model.TestType(req.TestType),
		TimingType:    model.TimingType(req.TimingType),
	}
	if err := applyTiming(plan, req.TimeLimitSeconds); err != nil {
		return nil, err
	}

	questions, err := s.allocate(ctx, &plan.Configuration)
	if err != nil {
		return nil, err
	}

	exec := execution.New(0, questions)
	if err := s.plans.CreateWithExecution(ctx, plan, exec); err != nil {
		return nil, fmt.Errorf("create test plan: %w", err)
	}

	s.log.Info().
		Str("plan_id", plan.ID.String()).
		Str("execution_id", exec.ID.String()).
		Str("student_id", studentID.String()).
		Str("planned_by", actor.ID.String()).
		Int("questions", len(questions)).
		Msg("Test plan created")

	publish(ctx, s.events, s.log, executionEvent("created", actor, exec, s.now().UTC()))

	v := execution.View(exec)
	return &model.TestPlanView{TestPlan: *plan, Execution: &v}, nil
}

// resolveStudent returns the student the plan is for. Planning for someone
// else needs a planner role, and the target must be a student.
func (s *TestPlanService) resolveStudent(ctx context.Context, actor Actor, raw identity.Ref) (identity.ID, error) {
	if raw.Empty() {
		return actor.ID, nil
	}
	studentID, err := identity.Parse("student_id", raw)
	if err != nil {
		return 0, err
	}
	if studentID == actor.ID {
		return studentID, nil
	}
	if !actor.HasRole(model.PlannerRoles...) {
		return 0, apperror.ErrUnauthorized
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.Validation("student_id", "does not exist")
		}
		return 0, fmt.Errorf("get student: %w", err)
	}
	if !student.HasRole(model.RoleStudent) {
		return 0, apperror.Validation("student_id", "is not a student")
	}
	return studentID, nil
}

// configuration parses and checks the topic scope of req.
func (s *TestPlanService) configuration(ctx context.Context, req model.CreateTestPlanRequest) (model.TestPlanConfiguration, error) {
	var cfg model.TestPlanConfiguration

	topics, err := identity.ParseAll("topics", req.Topics)
	if err != nil {
		return cfg, err
	}
	topics = dedupe(topics)
	if len(topics) == 0 {
		return cfg, apperror.Validation("topics", "must list at least one topic")
	}
	subtopics, err := identity.ParseAll("subtopics", req.Subtopics)
	if err != nil {
		return cfg, err
	}
	subtopics = dedupe(subtopics)

	found, err := s.catalog.CountExistingTopics(ctx, topics)
	if err != nil {
		return cfg, fmt.Errorf("check topics: %w", err)
	}
	if found != len(topics) {
		return cfg, apperror.Validation("topics", "contains a topic that does not exist")
	}

	if len(subtopics) > 0 {
		owners, err := s.catalog.SubtopicTopics(ctx, subtopics)
		if err != nil {
			return cfg, fmt.Errorf("check subtopics: %w", err)
		}
		listed := identity.Set{}
		for _, t := range topics {
			listed[t] = struct{}{}
		}
		for i, st := range subtopics {
			owner, ok := owners[st]
			if !ok {
				return cfg, apperror.Validation(fmt.Sprintf("subtopics[%d]", i), "does not exist")
			}
			if !listed.Contains(owner) {
				return cfg, apperror.Validation(fmt.Sprintf("subtopics[%d]", i), "does not belong to any listed topic")
			}
		}
	}

	cfg = model.TestPlanConfiguration{
		Topics:          topics,
		Subtopics:       subtopics,
		QuestionCounts:  req.QuestionCounts,
		TotalQuestions:  req.TotalQuestions,
		DifficultyTiers: req.DifficultyTiers,
	}
	if cfg.DifficultyTiers == 0 {
		cfg.DifficultyTiers = s.defaultTiers
	}
	return cfg, nil
}

// allocate resolves cfg and draws its questions. cfg.TotalQuestions is
// filled in from the resolved distribution.
func (s *TestPlanService) allocate(ctx context.Context, cfg *model.TestPlanConfiguration) ([]model.QuestionSnapshot, error) {
	spec, err := allocator.Resolve(*cfg)
	if err != nil {
		return nil, err
	}
	cfg.TotalQuestions = spec.Total()
	return s.alloc.Allocate(ctx, *cfg, spec)
}

func applyTiming(plan *model.TestPlan, limit *int) error {
	switch plan.TimingType {
	case model.TimingUntimed:
		plan.TimeLimitSeconds = nil
	case model.TimingTimed:
		if limit == nil && plan.TimeLimitSeconds == nil {
			return apperror.Validation("time_limit_seconds", "is required for a timed test")
		}
		if limit != nil {
			plan.TimeLimitSeconds = limit
		}
	default:
		return apperror.Validation("timing_type", "must be TIMED or UNTIMED")
	}
	return nil
}

func dedupe(ids []identity.ID) []identity.ID {
	seen := make(identity.Set, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen.Contains(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ─── Read ────────────────────────────────────────────────────────────

// Get returns a plan with its current execution.
func (s *TestPlanService) Get(ctx context.Context, actor Actor, id identity.ID) (*model.TestPlanView, error) {
	plan, err := s.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	view := &model.TestPlanView{TestPlan: *plan}
	latest, err := s.executions.LatestByPlan(ctx, id)
	switch {
	case err == nil:
		v := execution.View(latest)
		view.Execution = &v
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}
	return view, nil
}

// List returns the plans the actor takes or planned, newest first.
func (s *TestPlanService) List(ctx context.Context, actor Actor, q model.PageQuery) ([]model.TestPlan, *response.Pagination, error) {
	page, perPage := pageBounds(q.Page, q.PerPage)
	plans, total, err := s.plans.ListForUser(ctx, actor.ID, perPage, page)
	if err != nil {
		return nil, nil, err
	}
	return plans, response.NewPagination(page, perPage, total), nil
}

// Watch checks that the actor may follow the live events of a plan: its
// planner, or an admin.
func (s *TestPlanService) Watch(ctx context.Context, actor Actor, id identity.ID) (*model.TestPlanView, error) {
	view, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if view.PlannedBy != actor.ID && !actor.HasRole(model.RoleAdmin) {
		return nil, apperror.ErrNotPlanOwner
	}
	return view, nil
}

// ListExecutions returns every attempt of a plan, newest first.
func (s *TestPlanService) ListExecutions(ctx context.Context, actor Actor, id identity.ID) ([]model.ExecutionView, error) {
	if _, err := s.readable(ctx, actor, id); err != nil {
		return nil, err
	}
	executions, err := s.executions.ListByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	views := make([]model.ExecutionView, len(executions))
	for i := range executions {
		views[i] = execution.View(&executions[i])
	}
	return views, nil
}

// readable loads a plan the actor takes part in. Admins may read any plan.
func (s *TestPlanService) readable(ctx context.Context, actor Actor, id identity.ID) (*model.TestPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.HasRole(model.RoleAdmin) {
		return plan, nil
	}
	if err := authorize(plan, actor); err != nil {
		return nil, err
	}
	return plan, nil
}

// ─── Write ───────────────────────────────────────────────────────────

// Update changes the test type and timing of a plan. Only its planner may.
func (s *TestPlanService) Update(ctx context.Context, actor Actor, id identity.ID, req model.UpdateTestPlanRequest) (*model.TestPlan, error) {
	plan, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.TestType != "" {
		plan.TestType = model.TestType(req.TestType)
	}
	if req.TimingType != "" {
		plan.TimingType = model.TimingType(req.TimingType)
	}
	if err := applyTiming(plan, req.TimeLimitSeconds); err != nil {
		return nil, err
	}

	if err := s.plans.UpdateMetadata(ctx, plan); err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", id.String()).Msg("Test plan updated")
	return plan, nil
}

// Delete removes a plan and all its executions. Only its planner may, and
// not while its latest attempt is running or paused.
func (s *TestPlanService) Delete(ctx context.Context, actor Actor, id identity.ID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	err := s.plans.Delete(ctx, id, func(latest *model.TestExecution) error {
		if latest != nil && (latest.Status == model.ExecutionInProgress || latest.Status == model.ExecutionPaused) {
			return &apperror.InvalidStateError{Op: "delete the test plan", Status: string(latest.Status)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("plan_id", id.String()).Msg("Test plan deleted")
	return nil
}

func (s *TestPlanService) owned(ctx context.Context, actor Actor, id identity.ID) (*model.TestPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.PlannedBy != actor.ID {
		return nil, apperror.ErrNotPlanOwner
	}
	return plan, nil
}

// NewAttempt draws a fresh set of questions for another attempt at a plan.
// An attempt that has not been started yet is returned as is; an attempt
// still running or paused blocks a new one.
func (s *TestPlanService) NewAttempt(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, bool, error) {
	if _, err := s.readable(ctx, actor, id); err != nil {
		return nil, false, err
	}

	e, created, err := s.executions.CreateForPlan(ctx, id, func(plan *model.TestPlan, latest *model.TestExecution) (*model.TestExecution, error) {
		if latest != nil && !latest.Status.Terminal() {
			return nil, &apperror.InvalidStateError{Op: "start a new attempt", Status: string(latest.Status)}
		}
		cfg := plan.Configuration
		questions, err := s.allocate(ctx, &cfg)
		if err != nil {
			return nil, err
		}
		return execution.New(plan.ID, questions), nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info().
			Str("plan_id", id.String()).
			Str("execution_id", e.ID.String()).
			Msg("New attempt created")
		publish(ctx, s.events, s.log, executionEvent("created", actor, e, s.now().UTC()))
	}

	v := execution.View(e)
	return &v, created, nil
}
