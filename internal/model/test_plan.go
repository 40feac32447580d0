package model

import (
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
)

// TestType categorises a test plan.
type TestType string

const (
	TestTypeTopic            TestType = "TOPIC"
	TestTypeMixed            TestType = "MIXED"
	TestTypeMentalArithmetic TestType = "MENTAL_ARITHMETIC"
)

// TimingType tells whether a test is time-boxed.
type TimingType string

const (
	TimingTimed   TimingType = "TIMED"
	TimingUntimed TimingType = "UNTIMED"
)

// TestPlanConfiguration is the value object describing which questions a
// plan asks for. It is stored as JSONB on the plan.
type TestPlanConfiguration struct {
	Topics    []identity.ID `json:"topics"`
	Subtopics []identity.ID `json:"subtopics"`
	// QuestionCounts is keyed by topic id, by difficulty label
	// (EASY/MEDIUM/HARD) or by numeric difficulty ("1".."5").
	QuestionCounts  map[string]int `json:"question_counts,omitempty"`
	TotalQuestions  int            `json:"total_questions"`
	DifficultyTiers int            `json:"difficulty_tiers,omitempty"`
}

// TestPlan is a test assigned to a student by a planner (possibly themself).
type TestPlan struct {
	ID               identity.ID           `json:"id"`
	StudentID        identity.ID           `json:"student_id"`
	PlannedBy        identity.ID           `json:"planned_by"`
	Configuration    TestPlanConfiguration `json:"configuration"`
	TestType         TestType              `json:"test_type"`
	TimingType       TimingType            `json:"timing_type"`
	TimeLimitSeconds *int                  `json:"time_limit_seconds,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// Participants returns the users allowed to act on the plan's executions.
func (p *TestPlan) Participants() (identity.Set, error) {
	return identity.SetOf(p.StudentID, p.PlannedBy)
}

// CreateTestPlanRequest is the payload for creating a test plan.
type CreateTestPlanRequest struct {
	// StudentID defaults to the caller when empty.
	StudentID        identity.Ref   `json:"student_id"`
	Topics           []identity.Ref `json:"topics" binding:"omitempty,max=50"`
	Subtopics        []identity.Ref `json:"subtopics" binding:"omitempty,max=200"`
	QuestionCounts   map[string]int `json:"question_counts" binding:"omitempty,max=50,dive,keys,required,endkeys,min=0,max=500"`
	TotalQuestions   int            `json:"total_questions" binding:"omitempty,min=1,max=500"`
	DifficultyTiers  int            `json:"difficulty_tiers" binding:"omitempty,min=1,max=5"`
	TestType         string         `json:"test_type" binding:"required,oneof=TOPIC MIXED MENTAL_ARITHMETIC"`
	TimingType       string         `json:"timing_type" binding:"required,oneof=TIMED UNTIMED"`
	TimeLimitSeconds *int           `json:"time_limit_seconds" binding:"required_if=TimingType TIMED,omitempty,min=30,max=14400"`
}

// UpdateTestPlanRequest is the payload for updating plan metadata. The
// configuration is fixed once the plan has been allocated.
type UpdateTestPlanRequest struct {
	TestType         string `json:"test_type" binding:"omitempty,oneof=TOPIC MIXED MENTAL_ARITHMETIC"`
	TimingType       string `json:"timing_type" binding:"omitempty,oneof=TIMED UNTIMED"`
	TimeLimitSeconds *int   `json:"time_limit_seconds" binding:"omitempty,min=30,max=14400"`
}

// TestPlanView is the outward representation of a plan with its current execution.
type TestPlanView struct {
	TestPlan
	Execution *ExecutionView `json:"execution,omitempty"`
}

// PageQuery is the query string of a paginated list.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
