package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fourQuestions mixes both answer-key representations.
func fourQuestions() []model.QuestionSnapshot {
	return []model.QuestionSnapshot{
		{QuestionID: 1, Options: []model.Option{{Text: "4", IsCorrect: true}, {Text: "5"}}},
		{QuestionID: 2, Options: []model.Option{{Text: "Paris", IsCorrect: true}, {Text: "Rome"}}},
		{QuestionID: 3, CorrectAnswer: "144"},
		{QuestionID: 4, CorrectAnswer: "9"},
	}
}

func inStatus(t *testing.T, status model.ExecutionStatus) *model.TestExecution {
	t.Helper()
	e := New(10, fourQuestions())
	e.Status = status
	return e
}

func TestNew_EmptyResponsePerQuestion(t *testing.T) {
	e := New(10, fourQuestions())

	assert.Equal(t, model.ExecutionNotStarted, e.Status)
	assert.Equal(t, identity.ID(10), e.TestPlanID)
	require.Len(t, e.Snapshot.Responses, 4)
	for i, r := range e.Snapshot.Responses {
		assert.Equal(t, e.Snapshot.Questions[i].QuestionID, r.QuestionID)
		assert.Nil(t, r.StudentAnswer)
		assert.Nil(t, r.IsCorrect)
	}
	assert.Nil(t, e.StartedAt)
	assert.Nil(t, e.PausedAt)
	assert.Nil(t, e.CompletedAt)
	assert.Nil(t, e.Score)
}

func TestTransitions_Legality(t *testing.T) {
	all := []model.ExecutionStatus{
		model.ExecutionNotStarted,
		model.ExecutionInProgress,
		model.ExecutionPaused,
		model.ExecutionCompleted,
		model.ExecutionAbandoned,
	}

	ops := []struct {
		name    string
		allowed []model.ExecutionStatus
		next    model.ExecutionStatus
		apply   func(e *model.TestExecution) error
	}{
		{OpStart, []model.ExecutionStatus{model.ExecutionNotStarted}, model.ExecutionInProgress,
			func(e *model.TestExecution) error { return Start(e, now) }},
		{OpSubmit, []model.ExecutionStatus{model.ExecutionInProgress}, model.ExecutionInProgress,
			func(e *model.TestExecution) error { return SubmitAnswer(e, Answer{QuestionID: 1, Answer: "4"}) }},
		{OpSubmitAll, []model.ExecutionStatus{model.ExecutionInProgress}, model.ExecutionInProgress,
			func(e *model.TestExecution) error { return SubmitAll(e, []Answer{{QuestionID: 1, Answer: "4"}}, now) }},
		{OpPause, []model.ExecutionStatus{model.ExecutionInProgress}, model.ExecutionPaused,
			func(e *model.TestExecution) error { return Pause(e, now) }},
		{OpResume, []model.ExecutionStatus{model.ExecutionPaused}, model.ExecutionInProgress,
			func(e *model.TestExecution) error { return Resume(e) }},
		{OpComplete, []model.ExecutionStatus{model.ExecutionInProgress}, model.ExecutionCompleted,
			func(e *model.TestExecution) error { return Complete(e, now) }},
		{OpAbandon, []model.ExecutionStatus{model.ExecutionInProgress, model.ExecutionPaused}, model.ExecutionAbandoned,
			func(e *model.TestExecution) error { return Abandon(e, now) }},
	}

	for _, op := range ops {
		for _, from := range all {
			t.Run(op.name+" from "+string(from), func(t *testing.T) {
				e := inStatus(t, from)
				err := op.apply(e)

				legal := false
				for _, s := range op.allowed {
					legal = legal || s == from
				}

				if legal {
					require.NoError(t, err)
					assert.Equal(t, op.next, e.Status)
					return
				}

				var ise *apperror.InvalidStateError
				require.ErrorAs(t, err, &ise)
				assert.Equal(t, op.name, ise.Op)
				assert.Equal(t, string(from), ise.Status)
				assert.Equal(t, from, e.Status, "status must not change on a refused transition")
			})
		}
	}
}

func TestInvalidState_DistinctReasons(t *testing.T) {
	reasons := map[string]bool{}
	codes := map[string]bool{}
	for _, status := range []model.ExecutionStatus{model.ExecutionNotStarted, model.ExecutionCompleted, model.ExecutionPaused} {
		err := Complete(inStatus(t, status), now)

		var ise *apperror.InvalidStateError
		require.ErrorAs(t, err, &ise)
		reasons[ise.Reason()] = true
		codes[ise.Code()] = true
	}
	assert.Len(t, reasons, 3)
	assert.Len(t, codes, 3)

	err := Resume(inStatus(t, model.ExecutionInProgress))
	var ise *apperror.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "TEST_NOT_PAUSED", ise.Code())
}

func TestStartPauseResume_Timestamps(t *testing.T) {
	e := New(10, fourQuestions())

	require.NoError(t, Start(e, now))
	require.NotNil(t, e.StartedAt)
	assert.Equal(t, now, *e.StartedAt)

	later := now.Add(5 * time.Minute)
	require.NoError(t, Pause(e, later))
	require.NotNil(t, e.PausedAt)
	assert.Equal(t, later, *e.PausedAt)

	require.NoError(t, Resume(e))
	assert.Nil(t, e.PausedAt)
	assert.Equal(t, now, *e.StartedAt)
}

func TestComplete_Score(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)

	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 1, Answer: "4"}))
	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 2, Answer: "Paris"}))
	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 3, Answer: "144"}))
	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 4, Answer: "8"}))

	require.NoError(t, Complete(e, now))
	require.NotNil(t, e.Score)
	assert.Equal(t, 75, *e.Score)
	assert.Equal(t, model.ExecutionCompleted, e.Status)
	assert.Equal(t, now, *e.CompletedAt)
}

func TestComplete_ZeroQuestions(t *testing.T) {
	e := New(10, nil)
	require.NoError(t, Start(e, now))
	require.NoError(t, Complete(e, now))
	require.NotNil(t, e.Score)
	assert.Equal(t, 0, *e.Score)
}

func TestScore_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		correct  int
		total    int
		expected int
	}{
		{"all correct", 3, 3, 100},
		{"none correct", 0, 3, 0},
		{"two of three", 2, 3, 67},
		{"one of three", 1, 3, 33},
		{"one of eight", 1, 8, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.TestSnapshot{
				Questions: make([]model.QuestionSnapshot, tt.total),
				Responses: make([]model.Response, tt.total),
			}
			for i := 0; i < tt.correct; i++ {
				ok := true
				s.Responses[i].IsCorrect = &ok
			}
			assert.Equal(t, tt.expected, Score(s))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		q      model.QuestionSnapshot
		answer string
		want   bool
	}{
		{"option flagged correct", fourQuestions()[0], "4", true},
		{"option not flagged", fourQuestions()[0], "5", false},
		{"stored correct answer", fourQuestions()[2], "144", true},
		{"exact match only", fourQuestions()[1], "paris", false},
		{"no key", model.QuestionSnapshot{QuestionID: 9}, "", false},
		{
			"either representation",
			model.QuestionSnapshot{Options: []model.Option{{Text: "1/2", IsCorrect: true}}, CorrectAnswer: "0.5"},
			"0.5",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.q, tt.answer))
		})
	}
}

func TestSubmitAnswer_UnknownQuestion(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)
	err := SubmitAnswer(e, Answer{QuestionID: 99, Answer: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 0, Answered(e.Snapshot.Responses))
}

func TestSubmitAnswer_DoesNotAutoComplete(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)
	for _, q := range e.Snapshot.Questions {
		require.NoError(t, SubmitAnswer(e, Answer{QuestionID: q.QuestionID, Answer: "x", TimeSpent: 7}))
	}

	assert.True(t, AllAnswered(e.Snapshot.Responses))
	assert.Equal(t, model.ExecutionInProgress, e.Status)
	assert.Nil(t, e.Score)
	assert.Equal(t, 7, e.Snapshot.Responses[3].TimeSpent)
}

func TestSubmitAll_MergesAndStampsEnd(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)
	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 4, Answer: "9", TimeSpent: 3}))

	end := now.Add(20 * time.Minute)
	err := SubmitAll(e, []Answer{
		{QuestionID: 1, Answer: "4", TimeSpent: 10},
		{QuestionID: 3, Answer: "12", TimeSpent: 11},
	}, end)
	require.NoError(t, err)

	r := e.Snapshot.Responses
	assert.Equal(t, "4", *r[0].StudentAnswer)
	assert.True(t, *r[0].IsCorrect)
	assert.Nil(t, r[1].StudentAnswer, "slot absent from the batch stays untouched")
	assert.False(t, *r[2].IsCorrect)
	assert.Equal(t, "9", *r[3].StudentAnswer, "earlier answer kept")
	assert.Equal(t, 3, r[3].TimeSpent)
	assert.Equal(t, end, *e.EndedAt)
	assert.Nil(t, e.Score, "bulk submit does not score")
}

func TestSubmitAll_UnknownQuestionWritesNothing(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)
	err := SubmitAll(e, []Answer{
		{QuestionID: 1, Answer: "4"},
		{QuestionID: 42, Answer: "x"},
	}, now)

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, e.Snapshot.Responses[0].StudentAnswer)
	assert.Nil(t, e.EndedAt)
}

func TestAuthorize(t *testing.T) {
	plan := &model.TestPlan{StudentID: 5, PlannedBy: 6}
	participants, err := plan.Participants()
	require.NoError(t, err)

	assert.NoError(t, Authorize(participants, 5))
	assert.NoError(t, Authorize(participants, 6))
	assert.True(t, errors.Is(Authorize(participants, 7), apperror.ErrUnauthorized))
	assert.ErrorIs(t, Authorize(participants, 0), apperror.ErrUnauthorized)

	self := &model.TestPlan{StudentID: 5, PlannedBy: 5}
	participants, err = self.Participants()
	require.NoError(t, err)
	assert.Len(t, participants, 1)
	assert.NoError(t, Authorize(participants, 5))
}

func TestView_HidesKeysUntilTerminal(t *testing.T) {
	e := inStatus(t, model.ExecutionInProgress)
	require.NoError(t, SubmitAnswer(e, Answer{QuestionID: 3, Answer: "144"}))

	v := View(e)
	assert.Equal(t, 4, v.TotalQuestions)
	assert.Equal(t, 1, v.AnsweredCount)
	assert.False(t, v.AllAnswered)
	for _, q := range v.Questions {
		assert.Empty(t, q.CorrectAnswer)
		for _, o := range q.Options {
			assert.False(t, o.IsCorrect)
		}
	}
	assert.Nil(t, v.Responses[2].IsCorrect)
	// the stored execution keeps its key
	assert.Equal(t, "144", e.Snapshot.Questions[2].CorrectAnswer)
	assert.True(t, e.Snapshot.Questions[0].Options[0].IsCorrect)

	require.NoError(t, Complete(e, now))
	v = View(e)
	assert.Equal(t, "144", v.Questions[2].CorrectAnswer)
	require.NotNil(t, v.Responses[2].IsCorrect)
	assert.True(t, *v.Responses[2].IsCorrect)
	assert.Equal(t, 25, *v.Score)
}
