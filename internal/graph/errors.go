package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ConstructionError reports a task set that cannot form a graph.
type ConstructionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// TaskID identifies the offending task, when there is one.
	TaskID string

	// Dependency is the missing dependency for DANGLING_DEPENDENCY.
	Dependency string

	// Cycle is one cycle path for CYCLE_DETECTED, e.g. [a, b, a].
	Cycle []string
}

// ErrorCode categorizes construction errors.
type ErrorCode string

const (
	// ErrCodeEmptyID indicates a task without an identifier.
	ErrCodeEmptyID ErrorCode = "EMPTY_ID"

	// ErrCodeDuplicateTask indicates two tasks share an identifier.
	ErrCodeDuplicateTask ErrorCode = "DUPLICATE_TASK"

	// ErrCodeDanglingDependency indicates a dependency on an unknown task.
	ErrCodeDanglingDependency ErrorCode = "DANGLING_DEPENDENCY"

	// ErrCodeCycleDetected indicates the dependencies contain a cycle.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	switch {
	case len(e.Cycle) > 0:
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Cycle, " → "))
	case e.TaskID != "" && e.Dependency != "":
		return fmt.Sprintf("%s: %s (task=%s, dep=%s)", e.Code, e.Message, e.TaskID, e.Dependency)
	case e.TaskID != "":
		return fmt.Sprintf("%s: %s (task=%s)", e.Code, e.Message, e.TaskID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsCycleError reports whether err is a cycle construction error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCycleDetected)
}

// IsDanglingError reports whether err is a dangling-dependency error.
func IsDanglingError(err error) bool {
	return hasCode(err, ErrCodeDanglingDependency)
}

// IsConstructionError reports whether err is any construction error.
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newCycleError(path []string, unresolved int) *ConstructionError {
	return &ConstructionError{
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("%d task(s) never became ready", unresolved),
		Cycle:   path,
	}
}
