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
				Code:    ErrCodeInvalidCredentials,
				Message: "email or password is incorrect",
			},
			want: "email or password is incorrect",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to persist session",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to persist session: underlying error",
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

func TestAuthConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"invalid credentials", InvalidCredentials("bad creds"), ErrCodeInvalidCredentials},
		{"biometric failure", BiometricFailure("no match"), ErrCodeBiometricFailure},
		{"token mismatch", TokenMismatch("wrong code"), ErrCodeTokenMismatch},
		{"token expired", TokenExpired("stale code"), ErrCodeTokenExpired},
		{"session expired", SessionExpired("timed out"), ErrCodeSessionExpired},
		{"unauthorized", Unauthorized("role not permitted"), ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestAuthPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid credentials", InvalidCredentials("x"), IsInvalidCredentials},
		{"biometric failure", BiometricFailure("x"), IsBiometricFailure},
		{"token mismatch", TokenMismatch("x"), IsTokenMismatch},
		{"token expired", TokenExpired("x"), IsTokenExpired},
		{"session expired", SessionExpired("x"), IsSessionExpired},
		{"unauthorized", Unauthorized("x"), IsUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Error("predicate did not match its own constructor")
			}
			if tt.check(errors.New("plain error")) {
				t.Error("predicate matched a plain error")
			}
			// Predicates see through wrapping.
			wrapped := fmt.Errorf("attempt failed: %w", tt.err)
			if !tt.check(wrapped) {
				t.Error("predicate did not match wrapped error")
			}
		})
	}
}

func TestPredicatesDistinguishCodes(t *testing.T) {
	if IsTokenExpired(TokenMismatch("wrong code")) {
		t.Error("IsTokenExpired matched a token mismatch")
	}
	if IsInvalidCredentials(SessionExpired("timed out")) {
		t.Error("IsInvalidCredentials matched a session expiry")
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "email is required")
	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "email" {
		t.Errorf("Field = %v, want email", err.Field)
	}
	if GetField(err) != "email" {
		t.Errorf("GetField() = %v, want email", GetField(err))
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeInternal, "failed to persist session")
	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error does not match cause via errors.Is")
	}

	if Wrap(nil, ErrCodeInternal, "noop") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodeInternal, "saving snapshot for %s", "user-1")
	if err.Message != "saving snapshot for user-1" {
		t.Errorf("Message = %v", err.Message)
	}

	if Wrapf(nil, ErrCodeInternal, "noop") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(TokenExpired("stale")); got != ErrCodeTokenExpired {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeTokenExpired)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
}
