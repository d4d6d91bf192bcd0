package common

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error the pipeline returns for a document satisfies
// errors.Is against exactly one of ErrUnsupportedFormat, ErrAcquisition or
// ErrExtraction. API and malformed-response failures are both extraction
// failures.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrAcquisition       = errors.New("acquisition failed")
	ErrExtraction        = errors.New("extraction failed")
	ErrAPIFailure        = errors.New("api failure")
	ErrMalformedResponse = errors.New("malformed response")

	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets API and malformed-response errors match ErrExtraction as well.
func (e *AppError) Is(target error) bool {
	if target != ErrExtraction {
		return false
	}
	return errors.Is(e.Cause, ErrAPIFailure) || errors.Is(e.Cause, ErrMalformedResponse)
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// UnsupportedFormat reports a document whose MIME category is neither PDF nor image.
func UnsupportedFormat(path, mime string) error {
	return NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("%s (%s)", path, mime), ErrUnsupportedFormat)
}

// Acquisition wraps an I/O, decode, render or OCR failure.
func Acquisition(message string, cause error) error {
	if cause == nil {
		return NewAppError("ACQUISITION_ERROR", message, ErrAcquisition)
	}
	return NewAppError("ACQUISITION_ERROR", message, fmt.Errorf("%w: %w", ErrAcquisition, cause))
}

// Malformed reports a model response without a usable structured call.
func Malformed(message string, cause error) error {
	if cause == nil {
		return NewAppError("MALFORMED_RESPONSE", message, ErrMalformedResponse)
	}
	return NewAppError("MALFORMED_RESPONSE", message, fmt.Errorf("%w: %w", ErrMalformedResponse, cause))
}

// APIError is a transport failure or non-success status from a model provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Retryable  bool
	Cause      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s api failure", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Cause }

func (e *APIError) Is(target error) bool {
	return target == ErrAPIFailure || target == ErrExtraction
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// IsRetryable reports whether err carries a retryable APIError.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// KindOf returns a short label for log fields and the journal.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrAcquisition):
		return "acquisition"
	case errors.Is(err, ErrAPIFailure):
		return "api_failure"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	}
	return "internal"
}
