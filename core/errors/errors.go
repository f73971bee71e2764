package errors

import "fmt"

type ErrorCode string

const (
	// Generic codes
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrConflict                   ErrorCode = "CONFLICT"

	// Plan domain codes
	ErrInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrAlreadyResponded    ErrorCode = "ALREADY_RESPONDED"
	ErrAlreadySwiped       ErrorCode = "ALREADY_SWIPED"
	ErrInvalidCandidate    ErrorCode = "INVALID_CANDIDATE"
	ErrNotAParticipant     ErrorCode = "NOT_A_PARTICIPANT"
	ErrOwnerCannotLeave    ErrorCode = "OWNER_CANNOT_LEAVE"
	ErrNotEligible         ErrorCode = "NOT_ELIGIBLE"
	ErrTooFewParticipants  ErrorCode = "TOO_FEW_PARTICIPANTS"
	ErrDeadlinePassed      ErrorCode = "DEADLINE_PASSED"
	ErrPastEvent           ErrorCode = "PAST_EVENT"
	ErrVotingNotOpen       ErrorCode = "VOTING_NOT_OPEN"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
