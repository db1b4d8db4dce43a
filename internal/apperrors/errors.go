// Package apperrors defines the application error taxonomy and central reporting.
package apperrors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

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

// NewInputError marks user input that failed validation. Flows recover from it
// locally by re-prompting; it is never reported to Sentry.
func NewInputError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "Неверный формат данных",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewCatalogError wraps a failure of the exercise catalog service.
func NewCatalogError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("catalog service error: %s", underlyingMsg),
		UserMessage: "Сервис упражнений временно недоступен, попробуйте позже",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewLocaleError marks a request for a language the bot does not support.
// The affected session simply keeps its previous language.
func NewLocaleError(code string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("unsupported locale %q", code),
		UserMessage: "Этот язык не поддерживается",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewTranslationError marks a data-integrity gap in a locale bundle: a field
// that the full-record path treats as mandatory has no translation entry.
func NewTranslationError(category, key string) *AppError {
	return &AppError{
		Code:        "E410",
		Message:     fmt.Sprintf("missing %s translation for %q", category, key),
		UserMessage: "Данные упражнения временно недоступны",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// NewHistoryError wraps a history persistence failure. Callers log and swallow
// it: losing one history entry must never block the response to the user.
func NewHistoryError(cause error) *AppError {
	return &AppError{
		Code:        "E600",
		Message:     fmt.Sprintf("history write failed: %v", cause),
		UserMessage: "",
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Слишком много запросов. Попробуйте через %d секунд", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
