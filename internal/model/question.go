package model

import (
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
)

// Difficulty levels range from 1 (easiest) to MaxDifficulty.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Option is one answer choice of a multiple-choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// Question represents a single question in the question bank.
//
// A question is either multiple-choice (Options with at least one flagged
// correct) or free-answer (CorrectAnswer). Both may be set.
type Question struct {
	ID            identity.ID `json:"id"`
	TopicID       identity.ID `json:"topic_id"`
	SubtopicID    identity.ID `json:"subtopic_id"`
	QuestionText  string      `json:"question_text"`
	Options       []Option    `json:"options"`
	CorrectAnswer string      `json:"correct_answer,omitempty"`
	Difficulty    int         `json:"difficulty"`
	Active        bool        `json:"active"`
	CreatedBy     identity.ID `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Snapshot copies the data needed to render and score q later.
func (q *Question) Snapshot() QuestionSnapshot {
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	return QuestionSnapshot{
		QuestionID:    q.ID,
		TopicID:       q.TopicID,
		SubtopicID:    q.SubtopicID,
		QuestionText:  q.QuestionText,
		Options:       opts,
		CorrectAnswer: q.CorrectAnswer,
		Difficulty:    q.Difficulty,
	}
}

// QuestionFilter narrows question bank queries.
type QuestionFilter struct {
	Difficulty *int
	TopicIDs   []identity.ID
	// SubtopicIDs restricts questions of a topic only when at least one of
	// the listed subtopics belongs to that topic.
	SubtopicIDs []identity.ID
	ActiveOnly  bool
	Search      string
}

// QuestionRequest is the payload for creating or updating a question.
type QuestionRequest struct {
	TopicID       identity.Ref    `json:"topic_id" binding:"required"`
	SubtopicID    identity.Ref    `json:"subtopic_id" binding:"required"`
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=4000"`
	Options       []OptionRequest `json:"options" binding:"omitempty,max=10,dive"`
	CorrectAnswer string          `json:"correct_answer" binding:"required_without=Options,max=500"`
	Difficulty    int             `json:"difficulty" binding:"required,min=1,max=5"`
	Active        *bool           `json:"active"`
}

// OptionRequest is one answer choice in a QuestionRequest.
type OptionRequest struct {
	Text      string `json:"text" binding:"required,max=500"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// QuestionListQuery is the query string of the question list endpoint.
type QuestionListQuery struct {
	TopicID         string `form:"topic_id" binding:"omitempty,numeric"`
	SubtopicID      string `form:"subtopic_id" binding:"omitempty,numeric"`
	Difficulty      string `form:"difficulty" binding:"omitempty,difficulty_label"`
	Search          string `form:"search" binding:"omitempty,max=200"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PerPage         int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}
