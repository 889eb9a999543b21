// internal/actions/errors.go
package actions

import (
	"context"
	"errors"
	"strings"
)

// ErrorCode classifies a failed step for structured reporting.
type ErrorCode string

const (
	ErrCodeExecutionFailure  ErrorCode = "EXECUTION_FAILURE"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeUnknownAction     ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeElementNotFound   ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTimeoutError      ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigationError   ErrorCode = "NAVIGATION_ERROR"
	ErrCodeScriptError       ErrorCode = "SCRIPT_ERROR"
	ErrCodeExecutorPanic     ErrorCode = "EXECUTOR_PANIC"
)

var (
	// ErrInvalidParameters marks steps whose parameters could not be used.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrScript marks failures thrown by an in-page script.
	ErrScript = errors.New("script error")
)

// classifyError maps a handler error onto an ErrorCode. Sentinel errors win;
// otherwise the message is matched heuristically, since the page adapters
// surface driver errors mostly as text.
func classifyError(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParameters):
		return ErrCodeInvalidParameters
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeoutError
	case errors.Is(err, ErrScript):
		return ErrCodeScriptError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "net::err"):
		return ErrCodeNavigationError
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no element") || strings.Contains(msg, "could not find node"):
		return ErrCodeElementNotFound
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return ErrCodeTimeoutError
	case strings.Contains(msg, "exception") || strings.Contains(msg, "referenceerror") || strings.Contains(msg, "syntaxerror") || strings.Contains(msg, "typeerror"):
		return ErrCodeScriptError
	}
	return ErrCodeExecutionFailure
}
