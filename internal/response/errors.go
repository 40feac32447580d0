package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrRoleRequired       ErrCode = "ROLE_REQUIRED"
	ErrNotPlanParticipant ErrCode = "NOT_PLAN_PARTICIPANT"
	ErrNotPlanOwner       ErrCode = "NOT_PLAN_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Test plans and executions ─────────────────────────────────────
	ErrInsufficientQuestions ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrTestNotStarted        ErrCode = "TEST_NOT_STARTED"
	ErrTestAlreadyCompleted  ErrCode = "TEST_ALREADY_COMPLETED"
	ErrTestPaused            ErrCode = "TEST_PAUSED"
	ErrTestInProgress        ErrCode = "TEST_IN_PROGRESS"
	ErrTestNotPaused         ErrCode = "TEST_NOT_PAUSED"
	ErrTestAbandoned         ErrCode = "TEST_ABANDONED"
	ErrInvalidState          ErrCode = "INVALID_STATE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrRoleRequired:
		return "Your account does not have the role required for this action."
	case ErrNotPlanParticipant:
		return "Only the student or the planner of this test may do this."
	case ErrNotPlanOwner:
		return "Only the planner of this test may change it."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Test plans and executions ─────────────────────────────────────
	case ErrInsufficientQuestions:
		return "The question bank does not hold enough active questions for this test."
	case ErrTestNotStarted:
		return "The test has not been started yet."
	case ErrTestAlreadyCompleted:
		return "The test has already been completed."
	case ErrTestPaused:
		return "The test is currently paused."
	case ErrTestInProgress:
		return "The test is already in progress."
	case ErrTestNotPaused:
		return "The test is not paused."
	case ErrTestAbandoned:
		return "The test has been abandoned."
	case ErrInvalidState:
		return "The test is not in a state that allows this action."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
