package model

import (
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
)

// ExecutionStatus enumerates the states of a test execution.
type ExecutionStatus string

const (
	ExecutionNotStarted ExecutionStatus = "NOT_STARTED"
	ExecutionInProgress ExecutionStatus = "IN_PROGRESS"
	ExecutionPaused     ExecutionStatus = "PAUSED"
	ExecutionCompleted  ExecutionStatus = "COMPLETED"
	ExecutionAbandoned  ExecutionStatus = "ABANDONED"
)

// Terminal reports whether no further transition is possible from s.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionAbandoned
}

// QuestionSnapshot is a denormalised copy of a question taken when the
// execution was created.
type QuestionSnapshot struct {
	QuestionID    identity.ID `json:"question_id"`
	TopicID       identity.ID `json:"topic_id"`
	SubtopicID    identity.ID `json:"subtopic_id"`
	QuestionText  string      `json:"question_text"`
	Options       []Option    `json:"options"`
	CorrectAnswer string      `json:"correct_answer,omitempty"`
	Difficulty    int         `json:"difficulty"`
}

// Response is the student's answer slot for one snapshot question.
type Response struct {
	QuestionID    identity.ID `json:"question_id"`
	StudentAnswer *string     `json:"student_answer"`
	IsCorrect     *bool       `json:"is_correct"`
	TimeSpent     int         `json:"time_spent"`
}

// TestSnapshot holds the fixed question list and the mutable responses.
// len(Responses) == len(Questions) at all times.
type TestSnapshot struct {
	Questions []QuestionSnapshot `json:"questions"`
	Responses []Response         `json:"responses"`
}

// TestExecution is one attempt at a test plan.
type TestExecution struct {
	ID          identity.ID     `json:"id"`
	TestPlanID  identity.ID     `json:"test_plan_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   *time.Time      `json:"started_at"`
	PausedAt    *time.Time      `json:"paused_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	EndedAt     *time.Time      `json:"ended_at"`
	Score       *int            `json:"score"`
	Snapshot    TestSnapshot    `json:"snapshot"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExecutionView is the outward representation of an execution. Answer
// keys are stripped from Questions until the execution is terminal.
type ExecutionView struct {
	ID             identity.ID        `json:"id"`
	TestPlanID     identity.ID        `json:"test_plan_id"`
	Status         ExecutionStatus    `json:"status"`
	StartedAt      *time.Time         `json:"started_at"`
	PausedAt       *time.Time         `json:"paused_at"`
	CompletedAt    *time.Time         `json:"completed_at"`
	EndedAt        *time.Time         `json:"ended_at"`
	Score          *int               `json:"score"`
	Questions      []QuestionSnapshot `json:"questions"`
	Responses      []Response         `json:"responses"`
	TotalQuestions int                `json:"total_questions"`
	AnsweredCount  int                `json:"answered_count"`
	AllAnswered    bool               `json:"all_answered"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for answering one question.
type SubmitAnswerRequest struct {
	QuestionID identity.Ref `json:"question_id" binding:"required"`
	Answer     string       `json:"answer" binding:"max=500"`
	TimeSpent  int          `json:"time_spent" binding:"min=0,max=86400"`
}

// SubmitAllAnswersRequest is the payload for bulk submission.
type SubmitAllAnswersRequest struct {
	Responses []SubmitAnswerRequest `json:"responses" binding:"required,max=500,dive"`
	EndTime   *time.Time            `json:"end_time"`
}

// ExecutionEvent is published whenever an execution changes state.
type ExecutionEvent struct {
	Type        string          `json:"type"`
	ExecutionID identity.ID     `json:"execution_id"`
	TestPlanID  identity.ID     `json:"test_plan_id"`
	ActorID     identity.ID     `json:"actor_id"`
	Status      ExecutionStatus `json:"status"`
	Score       *int            `json:"score,omitempty"`
	Answered    int             `json:"answered"`
	Total       int             `json:"total"`
	At          time.Time       `json:"at"`
}
