// Package apperror holds the typed errors shared by the allocator, the
// execution state machine and the services. Handlers map them to HTTP
// status codes in one place (see handler.failWithError).
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a plan, execution, question or any other
	// resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when the acting user is not allowed to
	// touch the resource.
	ErrUnauthorized = errors.New("actor is not allowed to access this resource")

	// ErrConflict is returned when a write collides with a uniqueness rule,
	// e.g. a second account with the same email.
	ErrConflict = errors.New("resource already exists")

	// ErrNotPlanOwner narrows ErrUnauthorized to writes only the planner of
	// a test plan may perform.
	ErrNotPlanOwner = fmt.Errorf("%w: only the planner may change the test plan", ErrUnauthorized)
)

// ValidationError reports malformed input. Field names the offending
// input using its JSON name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation is a shorthand constructor for *ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError wraps ErrNotFound with the kind of resource that was missing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is a shorthand constructor for *NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientQuestionsError is returned by the allocator when a bucket (or
// the whole pool) holds fewer active questions than requested.
type InsufficientQuestionsError struct {
	Bucket string
	Found  int
	Needed int
}

func (e *InsufficientQuestionsError) Error() string {
	if e.Bucket == "" {
		return fmt.Sprintf("insufficient questions: found %d, needed %d", e.Found, e.Needed)
	}
	return fmt.Sprintf("insufficient questions for %s: found %d, needed %d", e.Bucket, e.Found, e.Needed)
}

// InvalidStateError is returned when an execution transition is attempted
// from a status that does not allow it.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason())
}

// Reason is the user-facing explanation of why the transition was refused.
func (e *InvalidStateError) Reason() string {
	switch e.Status {
	case "NOT_STARTED":
		return "test has not been started yet"
	case "COMPLETED":
		return "test has already been completed"
	case "PAUSED":
		return "test is currently paused"
	case "ABANDONED":
		return "test has been abandoned"
	case "IN_PROGRESS":
		if e.Op == "resume" {
			return "test is not paused"
		}
		return "test is already in progress"
	}
	return "test is in status " + e.Status
}

// Code is a stable machine-readable form of Reason.
func (e *InvalidStateError) Code() string {
	switch e.Status {
	case "NOT_STARTED":
		return "TEST_NOT_STARTED"
	case "COMPLETED":
		return "TEST_ALREADY_COMPLETED"
	case "PAUSED":
		return "TEST_PAUSED"
	case "ABANDONED":
		return "TEST_ABANDONED"
	case "IN_PROGRESS":
		if e.Op == "resume" {
			return "TEST_NOT_PAUSED"
		}
		return "TEST_IN_PROGRESS"
	}
	return "INVALID_STATE"
}
