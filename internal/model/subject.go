package model

import (
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
)

// Subject represents an academic subject, e.g. Mathematics.
type Subject struct {
	ID          identity.ID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Topic belongs to a subject.
type Topic struct {
	ID          identity.ID `json:"id"`
	SubjectID   identity.ID `json:"subject_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Subtopic belongs to a topic.
type Subtopic struct {
	ID          identity.ID `json:"id"`
	TopicID     identity.ID `json:"topic_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SubjectRequest is the payload for creating or updating a subject.
type SubjectRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// TopicRequest is the payload for creating or updating a topic or subtopic.
type TopicRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}
