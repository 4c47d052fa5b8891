package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestWrap_Nil(t *testing.T) {
	if got := Wrap(nil, ErrCodeInternal, "ignored"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	base := New(ErrCodeRateLimited, MsgRateLimited)
	wrapped := fmt.Errorf("login: %w", base)

	if !IsRateLimited(wrapped) {
		t.Error("IsRateLimited should see through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should be false for a rate limited error")
	}
	if got := GetCode(wrapped); got != ErrCodeRateLimited {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeRateLimited)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "email is required")
	if !IsValidation(err) {
		t.Fatal("expected validation error")
	}
	if got := GetField(err); got != "email" {
		t.Errorf("GetField() = %q, want email", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("dial tcp: refused"), want: MsgUnexpected},
		{name: "app error hides cause", err: Wrap(errors.New("boom"), ErrCodeInternal, MsgServer), want: MsgServer},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", New(ErrCodeForbidden, MsgForbidden)), want: MsgForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
