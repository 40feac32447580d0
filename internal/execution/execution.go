// Package execution holds the test execution state machine. Every function
// here is pure: it mutates the *model.TestExecution it is given and never
// touches storage. Callers load the execution, apply one transition and
// persist the result inside a single transaction.
//
//	NOT_STARTED -> IN_PROGRESS <-> PAUSED
//	IN_PROGRESS -> COMPLETED
//	IN_PROGRESS | PAUSED -> ABANDONED
package execution

import (
	"math"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// Operation names, used in InvalidStateError and published events.
const (
	OpStart     = "start"
	OpSubmit    = "submit"
	OpSubmitAll = "submit_all"
	OpPause     = "pause"
	OpResume    = "resume"
	OpComplete  = "complete"
	OpAbandon   = "abandon"
)

// Answer is one incoming (question, answer, time) triple.
type Answer struct {
	QuestionID identity.ID
	Answer     string
	TimeSpent  int
}

// New builds a NOT_STARTED execution holding one empty response per question.
func New(planID identity.ID, questions []model.QuestionSnapshot) *model.TestExecution {
	if questions == nil {
		questions = []model.QuestionSnapshot{}
	}
	responses := make([]model.Response, len(questions))
	for i, q := range questions {
		responses[i] = model.Response{QuestionID: q.QuestionID}
	}
	return &model.TestExecution{
		TestPlanID: planID,
		Status:     model.ExecutionNotStarted,
		Snapshot: model.TestSnapshot{
			Questions: questions,
			Responses: responses,
		},
	}
}

func guard(e *model.TestExecution, op string, allowed ...model.ExecutionStatus) error {
	for _, s := range allowed {
		if e.Status == s {
			return nil
		}
	}
	return &apperror.InvalidStateError{Op: op, Status: string(e.Status)}
}

// Start moves a NOT_STARTED execution to IN_PROGRESS.
func Start(e *model.TestExecution, now time.Time) error {
	if err := guard(e, OpStart, model.ExecutionNotStarted); err != nil {
		return err
	}
	e.Status = model.ExecutionInProgress
	e.StartedAt = &now
	return nil
}

// SubmitAnswer records and evaluates the answer to one snapshot question.
// It does not complete the execution even when every question is answered.
func SubmitAnswer(e *model.TestExecution, a Answer) error {
	if err := guard(e, OpSubmit, model.ExecutionInProgress); err != nil {
		return err
	}
	i := indexOf(e.Snapshot, a.QuestionID)
	if i < 0 {
		return apperror.NotFound("question in this test", a.QuestionID.String())
	}
	record(e.Snapshot, i, a)
	return nil
}

// SubmitAll merges a batch of answers into the matching slots and stamps
// endTime. Slots absent from answers are left untouched. The batch is
// checked as a whole before anything is written.
func SubmitAll(e *model.TestExecution, answers []Answer, endTime time.Time) error {
	if err := guard(e, OpSubmitAll, model.ExecutionInProgress); err != nil {
		return err
	}

	slots := make([]int, len(answers))
	for n, a := range answers {
		i := indexOf(e.Snapshot, a.QuestionID)
		if i < 0 {
			return apperror.NotFound("question in this test", a.QuestionID.String())
		}
		slots[n] = i
	}
	for n, a := range answers {
		record(e.Snapshot, slots[n], a)
	}
	e.EndedAt = &endTime
	return nil
}

// Pause moves an IN_PROGRESS execution to PAUSED.
func Pause(e *model.TestExecution, now time.Time) error {
	if err := guard(e, OpPause, model.ExecutionInProgress); err != nil {
		return err
	}
	e.Status = model.ExecutionPaused
	e.PausedAt = &now
	return nil
}

// Resume moves a PAUSED execution back to IN_PROGRESS and clears PausedAt.
func Resume(e *model.TestExecution) error {
	if err := guard(e, OpResume, model.ExecutionPaused); err != nil {
		return err
	}
	e.Status = model.ExecutionInProgress
	e.PausedAt = nil
	return nil
}

// Complete scores an IN_PROGRESS execution and makes it terminal.
func Complete(e *model.TestExecution, now time.Time) error {
	if err := guard(e, OpComplete, model.ExecutionInProgress); err != nil {
		return err
	}
	score := Score(e.Snapshot)
	e.Score = &score
	e.Status = model.ExecutionCompleted
	e.CompletedAt = &now
	return nil
}

// Abandon makes an IN_PROGRESS or PAUSED execution terminal without a score.
func Abandon(e *model.TestExecution, now time.Time) error {
	if err := guard(e, OpAbandon, model.ExecutionInProgress, model.ExecutionPaused); err != nil {
		return err
	}
	e.Status = model.ExecutionAbandoned
	if e.EndedAt == nil {
		e.EndedAt = &now
	}
	return nil
}

func indexOf(s model.TestSnapshot, questionID identity.ID) int {
	for i := range s.Responses {
		if s.Responses[i].QuestionID == questionID {
			return i
		}
	}
	return -1
}

func record(s model.TestSnapshot, i int, a Answer) {
	answer := a.Answer
	correct := Evaluate(s.Questions[i], answer)
	s.Responses[i].StudentAnswer = &answer
	s.Responses[i].IsCorrect = &correct
	s.Responses[i].TimeSpent = a.TimeSpent
}

// Evaluate compares answer against the question's answer key. Both the
// option flagged correct and a stored correct_answer are accepted; the
// comparison is an exact string match.
func Evaluate(q model.QuestionSnapshot, answer string) bool {
	for _, o := range q.Options {
		if o.IsCorrect && o.Text == answer {
			return true
		}
	}
	return q.CorrectAnswer != "" && q.CorrectAnswer == answer
}

// AllAnswered reports whether every response slot holds an answer.
func AllAnswered(responses []model.Response) bool {
	return Answered(responses) == len(responses)
}

// Answered counts the slots holding an answer.
func Answered(responses []model.Response) int {
	n := 0
	for _, r := range responses {
		if r.StudentAnswer != nil {
			n++
		}
	}
	return n
}

// Score is round(100 * correct / questions); an empty snapshot scores 0.
func Score(s model.TestSnapshot) int {
	total := len(s.Questions)
	if total == 0 {
		return 0
	}
	correct := 0
	for _, r := range s.Responses {
		if r.IsCorrect != nil && *r.IsCorrect {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Authorize allows actor when it belongs to the plan's participants.
func Authorize(participants identity.Set, actor identity.ID) error {
	if actor == 0 || !participants.Contains(actor) {
		return apperror.ErrUnauthorized
	}
	return nil
}

// View converts e into its outward form. Answer keys are stripped from the
// questions until the execution reaches a terminal status.
func View(e *model.TestExecution) model.ExecutionView {
	questions := make([]model.QuestionSnapshot, len(e.Snapshot.Questions))
	copy(questions, e.Snapshot.Questions)
	if !e.Status.Terminal() {
		for i := range questions {
			questions[i].CorrectAnswer = ""
			opts := make([]model.Option, len(questions[i].Options))
			for j, o := range questions[i].Options {
				opts[j] = model.Option{Text: o.Text}
			}
			questions[i].Options = opts
		}
	}

	responses := make([]model.Response, len(e.Snapshot.Responses))
	copy(responses, e.Snapshot.Responses)
	if !e.Status.Terminal() {
		for i := range responses {
			responses[i].IsCorrect = nil
		}
	}

	answered := Answered(e.Snapshot.Responses)
	return model.ExecutionView{
		ID:             e.ID,
		TestPlanID:     e.TestPlanID,
		Status:         e.Status,
		StartedAt:      e.StartedAt,
		PausedAt:       e.PausedAt,
		CompletedAt:    e.CompletedAt,
		EndedAt:        e.EndedAt,
		Score:          e.Score,
		Questions:      questions,
		Responses:      responses,
		TotalQuestions: len(questions),
		AnsweredCount:  answered,
		AllAnswered:    answered == len(e.Snapshot.Responses),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
