package errors

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation         = "E100"
	CodeDatabase           = "E200"
	CodeCatalogUnavailable = "E300"
	CodeInvalidIntent      = "E400"
	CodeUnknownChoice      = "E410"
	CodeBusy               = "E420"
	CodeRateLimited        = "E500"
	CodeInternal           = "E900"
)

// AppError is the error shape surfaced to projectors. UserMessage is an i18n key.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Is matches another AppError by code so errors.Is works against the constructors' results.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: "bot.unknown_choice",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeDatabase,
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "bot.not_now",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewCatalogUnavailableError wraps any failure of a catalog call.
func NewCatalogUnavailableError(operation string, cause error) *AppError {
	message := fmt.Sprintf("Catalog unavailable: %s", operation)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}

	return &AppError{
		Code:        CodeCatalogUnavailable,
		Message:     message,
		UserMessage: "bot.not_now",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewInvalidIntentError(cause error) *AppError {
	return &AppError{
		Code:        CodeInvalidIntent,
		Message:     fmt.Sprintf("Invalid intent: %v", cause),
		UserMessage: "bot.not_now",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewUnknownChoiceError(cause error) *AppError {
	return &AppError{
		Code:        CodeUnknownChoice,
		Message:     fmt.Sprintf("Unknown choice: %v", cause),
		UserMessage: "bot.unknown_choice",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewBusyError(cause error) *AppError {
	return &AppError{
		Code:        CodeBusy,
		Message:     "Fetch already in progress",
		UserMessage: "bot.please_wait",
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       cause,
	}
}

// NewInternalError covers panics and other failures with no better classification.
func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:        CodeInternal,
		Message:     fmt.Sprintf("Internal error: %v", cause),
		UserMessage: "bot.not_now",
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimited,
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: "bot.rate_limited",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// AsAppError unwraps err into an AppError if it contains one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}
