package engine

import (
	"errors"
	"fmt"
)

// TaskError describes why a single task did not complete. It is recorded on
// the task's outcome; it never aborts the run.
type TaskError struct {
	// Code identifies the error category.
	Code TaskErrorCode

	// Message is a human-readable description.
	Message string

	// TaskID identifies the affected task.
	TaskID string

	// Err is the underlying cause, if any.
	Err error
}

// TaskErrorCode categorizes task errors.
type TaskErrorCode string

const (
	// ErrCodeMissingPrecondition indicates evaluate ran before any Result
	// existed for its entity.
	ErrCodeMissingPrecondition TaskErrorCode = "MISSING_PRECONDITION"

	// ErrCodeUnhandledKind indicates no handler exists for a task's kind.
	ErrCodeUnhandledKind TaskErrorCode = "UNHANDLED_KIND"

	// ErrCodeLedgerWrite indicates the score could not be remembered.
	ErrCodeLedgerWrite TaskErrorCode = "LEDGER_WRITE"
)

// Error implements the error interface.
func (e *TaskError) Error() string {
	msg := fmt.Sprintf("%s: %s (task=%s)", e.Code, e.Message, e.TaskID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TaskError) Unwrap() error { return e.Err }

func isTaskError(err error, code TaskErrorCode) bool {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsMissingPreconditionError reports whether err is a missing-precondition
// TaskError. Uses errors.As to handle wrapped errors.
func IsMissingPreconditionError(err error) bool {
	return isTaskError(err, ErrCodeMissingPrecondition)
}

// IsUnhandledKindError reports whether err is an unhandled-kind TaskError.
func IsUnhandledKindError(err error) bool {
	return isTaskError(err, ErrCodeUnhandledKind)
}

// IsLedgerWriteError reports whether err is a ledger-write TaskError.
func IsLedgerWriteError(err error) bool {
	return isTaskError(err, ErrCodeLedgerWrite)
}
