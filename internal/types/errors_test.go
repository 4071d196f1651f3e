package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	err := NewAppError(ErrCodeRecipientNotFound, "no Email field in infoAdicional", nil)
	want := "recipient_not_found: no Email field in infoAdicional"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("socket closed")
	err := NewAppError(ErrCodeDispatch, "send failed", inner)

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	var appErr *AppError
	if !errors.As(error(err), &appErr) {
		t.Fatal("expected errors.As to recover *AppError")
	}
	if appErr.Code != ErrCodeDispatch {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeDispatch)
	}
}

func TestErrorCodeRetryable(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeValidationMissingAccessKey, false},
		{ErrCodeValidationAccessKeyLength, false},
		{ErrCodeNotFoundDocument, true},
		{ErrCodeParseInvoice, false},
		{ErrCodeRecipientNotFound, false},
		{ErrCodeRenderSummary, false},
		{ErrCodeDispatchRejected, false},
		{ErrCodeDispatchThrottled, true},
		{ErrCodeDispatchUnavailable, true},
		{ErrCodeDispatch, true},
		{ErrCodeInternalUnexpected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("stage failed: %w",
		NewAppError(ErrCodeNotFoundDocument, "no such key", nil))
	if got := CodeOf(wrapped); got != ErrCodeNotFoundDocument {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ErrCodeNotFoundDocument)
	}

	if got := CodeOf(errors.New("plain")); got != ErrCodeInternalUnexpected {
		t.Errorf("CodeOf(plain) = %q, want %q", got, ErrCodeInternalUnexpected)
	}
}

func TestNewAppErrorWithDetails(t *testing.T) {
	err := NewAppErrorWithDetails(ErrCodeNotFoundDocument, "missing", nil,
		map[string]any{"bucket": "vouchers-test", "key": "x.xml"})
	if err.Details["bucket"] != "vouchers-test" {
		t.Errorf("Details[bucket] = %v, want vouchers-test", err.Details["bucket"])
	}
}
