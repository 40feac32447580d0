package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/execution"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/rs/zerolog"
)

// ExecutionStore is the persistence the execution service needs.
// *repository.ExecutionRepository implements it.
type ExecutionStore interface {
	GetWithPlan(ctx context.Context, id identity.ID) (*model.TestExecution, *model.TestPlan, error)
	LatestByPlan(ctx context.Context, planID identity.ID) (*model.TestExecution, error)
	ListByPlan(ctx context.Context, planID identity.ID) ([]model.TestExecution, error)
	CreateForPlan(ctx context.Context, planID identity.ID,
		build func(plan *model.TestPlan, latest *model.TestExecution) (*model.TestExecution, error)) (*model.TestExecution, bool, error)
	Mutate(ctx context.Context, id identity.ID,
		fn func(e *model.TestExecution, plan *model.TestPlan) error) (*model.TestExecution, *model.TestPlan, error)
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]identity.ID, error)
}

// ExecutionService drives test executions through their state machine.
// Every transition runs inside ExecutionStore.Mutate, so concurrent calls on
// the same execution are applied one after another.
type ExecutionService struct {
	store  ExecutionStore
	events EventPublisher
	now    func() time.Time
	log    zerolog.Logger
}

// NewExecutionService creates a new ExecutionService.
func NewExecutionService(store ExecutionStore, events EventPublisher, log zerolog.Logger) *ExecutionService {
	return &ExecutionService{
		store:  store,
		events: events,
		now:    time.Now,
		log:    log.With().Str("component", "execution_service").Logger(),
	}
}

// Get returns an execution as seen by a participant of its plan. Admins may
// read any execution.
func (s *ExecutionService) Get(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	e, plan, err := s.store.GetWithPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(model.RoleAdmin) {
		if err := authorize(plan, actor); err != nil {
			return nil, err
		}
	}
	v := execution.View(e)
	return &v, nil
}

// Start begins a NOT_STARTED execution.
func (s *ExecutionService) Start(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	return s.transition(ctx, actor, id, execution.OpStart, func(e *model.TestExecution, now time.Time) error {
		return execution.Start(e, now)
	})
}

// SubmitAnswer records one answer.
func (s *ExecutionService) SubmitAnswer(ctx context.Context, actor Actor, id identity.ID, req model.SubmitAnswerRequest) (*model.ExecutionView, error) {
	qid, err := identity.Parse("question_id", req.QuestionID)
	if err != nil {
		return nil, err
	}
	answer := execution.Answer{QuestionID: qid, Answer: req.Answer, TimeSpent: req.TimeSpent}
	return s.transition(ctx, actor, id, execution.OpSubmit, func(e *model.TestExecution, _ time.Time) error {
		return execution.SubmitAnswer(e, answer)
	})
}

// SubmitAll merges a batch of answers and stamps the end time. It does not
// score; Complete does.
func (s *ExecutionService) SubmitAll(ctx context.Context, actor Actor, id identity.ID, req model.SubmitAllAnswersRequest) (*model.ExecutionView, error) {
	answers := make([]execution.Answer, len(req.Responses))
	seen := make(map[identity.ID]struct{}, len(req.Responses))
	for i, r := range req.Responses {
		field := fmt.Sprintf("responses[%d].question_id", i)
		qid, err := identity.Parse(field, r.QuestionID)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[qid]; dup {
			return nil, apperror.Validation(field, "question answered twice in one batch")
		}
		seen[qid] = struct{}{}
		answers[i] = execution.Answer{QuestionID: qid, Answer: r.Answer, TimeSpent: r.TimeSpent}
	}

	return s.transition(ctx, actor, id, execution.OpSubmitAll, func(e *model.TestExecution, now time.Time) error {
		end := now
		if req.EndTime != nil {
			end = req.EndTime.UTC()
		}
		return execution.SubmitAll(e, answers, end)
	})
}

// Pause suspends an IN_PROGRESS execution.
func (s *ExecutionService) Pause(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	return s.transition(ctx, actor, id, execution.OpPause, func(e *model.TestExecution, now time.Time) error {
		return execution.Pause(e, now)
	})
}

// Resume continues a PAUSED execution.
func (s *ExecutionService) Resume(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	return s.transition(ctx, actor, id, execution.OpResume, func(e *model.TestExecution, _ time.Time) error {
		return execution.Resume(e)
	})
}

// Complete scores an IN_PROGRESS execution.
func (s *ExecutionService) Complete(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	return s.transition(ctx, actor, id, execution.OpComplete, func(e *model.TestExecution, now time.Time) error {
		return execution.Complete(e, now)
	})
}

// Abandon ends an IN_PROGRESS or PAUSED execution without a score. Only
// admins and the system may abandon.
func (s *ExecutionService) Abandon(ctx context.Context, actor Actor, id identity.ID) (*model.ExecutionView, error) {
	if !actor.System() && !actor.HasRole(model.RoleAdmin) {
		return nil, apperror.ErrUnauthorized
	}
	return s.transition(ctx, actor, id, execution.OpAbandon, func(e *model.TestExecution, now time.Time) error {
		return execution.Abandon(e, now)
	})
}

// AbandonStale abandons up to limit executions untouched since cutoff and
// returns how many were abandoned. Executions that moved on in the
// meantime are skipped.
func (s *ExecutionService) AbandonStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	ids, err := s.store.ListStale(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale executions: %w", err)
	}

	abandoned := 0
	for _, id := range ids {
		_, err := s.Abandon(ctx, Actor{}, id)
		var invalid *apperror.InvalidStateError
		switch {
		case err == nil:
			abandoned++
		case errors.As(err, &invalid):
			s.log.Debug().Str("execution_id", id.String()).Str("status", invalid.Status).Msg("Skipping execution that is no longer active")
		default:
			return abandoned, fmt.Errorf("abandon execution %s: %w", id, err)
		}
	}
	return abandoned, nil
}

func (s *ExecutionService) transition(
	ctx context.Context,
	actor Actor,
	id identity.ID,
	op string,
	apply func(e *model.TestExecution, now time.Time) error,
) (*model.ExecutionView, error) {
	now := s.now().UTC()

	e, plan, err := s.store.Mutate(ctx, id, func(e *model.TestExecution, plan *model.TestPlan) error {
		if !actor.System() && op != execution.OpAbandon {
			if err := authorize(plan, actor); err != nil {
				return err
			}
		}
		return apply(e, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("execution_id", e.ID.String()).
		Str("plan_id", plan.ID.String()).
		Str("op", op).
		Str("status", string(e.Status)).
		Msg("Execution transition applied")

	publish(ctx, s.events, s.log, executionEvent(op, actor, e, now))

	v := execution.View(e)
	return &v, nil
}

// executionEvent describes e after op was applied by actor.
func executionEvent(op string, actor Actor, e *model.TestExecution, at time.Time) model.ExecutionEvent {
	return model.ExecutionEvent{
		Type:        "execution." + op,
		ExecutionID: e.ID,
		TestPlanID:  e.TestPlanID,
		ActorID:     actor.ID,
		Status:      e.Status,
		Score:       e.Score,
		Answered:    execution.Answered(e.Snapshot.Responses),
		Total:       len(e.Snapshot.Questions),
		At:          at,
	}
}

// publish is best effort: the transition is already committed.
func publish(ctx context.Context, events EventPublisher, log zerolog.Logger, ev model.ExecutionEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("execution_id", ev.ExecutionID.String()).Msg("Failed to publish execution event")
	}
}

// authorize allows the plan's student and planner.
func authorize(plan *model.TestPlan, actor Actor) error {
	participants, err := plan.Participants()
	if err != nil {
		return err
	}
	return execution.Authorize(participants, actor.ID)
}
