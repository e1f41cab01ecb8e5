package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfAndReasonOf(t *testing.T) {
	err := Conflict("already_paid", "month already settled")
	if CodeOf(err) != CodeConflict {
		t.Fatalf("code = %q, want conflict", CodeOf(err))
	}
	if ReasonOf(err) != "already_paid" {
		t.Fatalf("reason = %q, want already_paid", ReasonOf(err))
	}

	// Wrapped errors still classify.
	wrapped := fmt.Errorf("processing event: %w", err)
	if !IsConflict(wrapped) {
		t.Fatalf("expected wrapped error to classify as conflict")
	}
	if ReasonOf(wrapped) != "already_paid" {
		t.Fatalf("wrapped reason = %q", ReasonOf(wrapped))
	}

	plain := errors.New("boom")
	if CodeOf(plain) != "" || ReasonOf(plain) != "" {
		t.Fatalf("plain errors must not classify")
	}
	if IsConflict(nil) || IsNotFound(nil) {
		t.Fatalf("nil must not classify")
	}
}

func TestErrorString(t *testing.T) {
	withMsg := Validation("invalid_amount", "amount must be positive")
	if withMsg.Error() != "validation: invalid_amount: amount must be positive" {
		t.Fatalf("unexpected error string %q", withMsg.Error())
	}

	noMsg := NotFound("order_not_found", "")
	if noMsg.Error() != "not_found: order_not_found" {
		t.Fatalf("unexpected error string %q", noMsg.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		want Code
	}{
		{err: Validation("r", "m"), want: CodeValidation},
		{err: Conflict("r", "m"), want: CodeConflict},
		{err: NotFound("r", "m"), want: CodeNotFound},
		{err: Balance("r", "m"), want: CodeBalance},
		{err: Unauthorized("r", "m"), want: CodeUnauthorized},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.want {
			t.Fatalf("constructor produced code %q, want %q", tt.err.Code, tt.want)
		}
	}
}
