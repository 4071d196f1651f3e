package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All pipeline stages MUST use these constants instead of hardcoded strings.
const (
	// Validation: the inbound request itself is unusable.
	ErrCodeValidationMissingAccessKey ErrorCode = "validation_missing_access_key"
	ErrCodeValidationAccessKeyLength  ErrorCode = "validation_access_key_length"

	// Not Found: the authorized document is absent at its expected location.
	ErrCodeNotFoundDocument ErrorCode = "not_found_document"

	// Parse/Extract: the retrieved document cannot be used.
	ErrCodeParseInvoice      ErrorCode = "parse_invoice_failed"
	ErrCodeRecipientNotFound ErrorCode = "recipient_not_found"
	ErrCodeRenderSummary     ErrorCode = "render_summary_failed"

	// Dispatch: the mail transport refused or failed the send.
	ErrCodeDispatchRejected    ErrorCode = "dispatch_rejected"
	ErrCodeDispatchThrottled   ErrorCode = "dispatch_throttled"
	ErrCodeDispatchUnavailable ErrorCode = "dispatch_unavailable"
	ErrCodeDispatch            ErrorCode = "dispatch_failed"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// Retryable reports whether redelivering the same request can plausibly
// succeed. Validation and parse-class failures are permanent: the same bytes
// will fail the same way on every attempt. A missing document is retryable
// because the authorized copy may land in storage after the status change
// (eventual consistency between the voucher table and the document store).
func (c ErrorCode) Retryable() bool {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return false
	case c == ErrCodeNotFoundDocument:
		return true
	case c == ErrCodeParseInvoice, c == ErrCodeRecipientNotFound, c == ErrCodeRenderSummary:
		return false
	case c == ErrCodeDispatchRejected:
		return false
	case strings.HasPrefix(s, "dispatch_"):
		return true
	default:
		return false
	}
}

// AppError is the standard application error type used throughout the
// notifier. All pipeline errors should be expressed as AppError to enable
// consistent error formatting, retryability classification, and error chain
// support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether this error's code is retryable.
func (e *AppError) Retryable() bool {
	return e.Code.Retryable()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error. This is the standard constructor for pipeline
// errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Errors that are not
// AppErrors are classified as internal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}
