package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapValidationError(t *testing.T) {
	tests := []struct {
		name               string
		field              string
		cause              error
		expectedPublicMsg  string
		shouldContainInMsg []string
	}{
		{
			name:              "with cause error",
			field:             "email",
			cause:             errors.New("email must contain a single @"),
			expectedPublicMsg: "validation failed for email: email must contain a single @",
			shouldContainInMsg: []string{
				"validation failed for email",
				"single @",
			},
		},
		{
			name:              "with nil cause",
			field:             "password",
			cause:             nil,
			expectedPublicMsg: "validation failed for password",
			shouldContainInMsg: []string{
				"validation failed for password",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapValidationError(tt.field, tt.cause)
			if err == nil {
				t.Fatal("expected error but got nil")
			}

			var domainErr *DomainError
			if !errors.As(err, &domainErr) {
				t.Error("expected error to be a DomainError")
			}

			errMsg := err.Error()
			if !strings.Contains(errMsg, "VALIDATION_FAILED") {
				t.Errorf("expected error message to contain code VALIDATION_FAILED, but got: %q", errMsg)
			}

			publicMsg := PublicMessage(err)
			if publicMsg != tt.expectedPublicMsg {
				t.Errorf("expected public message:\n  %q\nbut got:\n  %q", tt.expectedPublicMsg, publicMsg)
			}

			for _, substr := range tt.shouldContainInMsg {
				if !strings.Contains(publicMsg, substr) {
					t.Errorf("expected public message to contain %q, but got: %q", substr, publicMsg)
				}
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{
			name:        "domain error with message",
			err:         &DomainError{Code: "TEST_ERROR", Message: "test message"},
			expectedMsg: "test message",
		},
		{
			name:        "infrastructure error hides cause",
			err:         WrapTokenStore("save", errors.New("disk I/O error")),
			expectedMsg: "token store operation failed: save",
		},
		{
			name:        "non-domain error",
			err:         errors.New("some random error"),
			expectedMsg: "An error occurred",
		},
		{
			name:        "nil error returns generic message",
			err:         nil,
			expectedMsg: "An error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := PublicMessage(tt.err)
			if msg != tt.expectedMsg {
				t.Errorf("expected message %q, but got %q", tt.expectedMsg, msg)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		auth           bool
		validation     bool
		infrastructure bool
	}{
		{name: "unauthorized", err: ErrUnauthorized, auth: true},
		{name: "not authenticated", err: ErrNotAuthenticated, auth: true},
		{name: "missing token", err: fmt.Errorf("login: %w", ErrMissingToken), auth: true},
		{name: "validation", err: WrapValidationError("name", nil), validation: true},
		{name: "required field", err: WrapRequiredField("email"), validation: true},
		{name: "duplicate user", err: ErrUserAlreadyExists, validation: true},
		{name: "token store", err: WrapTokenStore("load", errors.New("boom")), infrastructure: true},
		{name: "network", err: WrapNetworkOperation("GET", "/api/auth/profile", errors.New("refused")), infrastructure: true},
		{name: "nil error", err: nil},
		{name: "random error", err: errors.New("random error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError = %v, want %v", got, tt.auth)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError = %v, want %v", got, tt.validation)
			}
			if got := IsInfrastructureError(tt.err); got != tt.infrastructure {
				t.Errorf("IsInfrastructureError = %v, want %v", got, tt.infrastructure)
			}
		})
	}
}

func TestWrappedErrorsMatchSentinel(t *testing.T) {
	err := fmt.Errorf("hydrate: %w", WrapTokenStore("clear", errors.New("locked")))

	if !errors.Is(err, ErrTokenStore) {
		t.Error("expected wrapped token store error to match ErrTokenStore")
	}
	if errors.Is(err, ErrNetworkOperation) {
		t.Error("token store error must not match ErrNetworkOperation")
	}
	if !errors.Is(WrapMissingDependency("api"), ErrMissingDependency) {
		t.Error("expected missing dependency error to match sentinel")
	}
}
