package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so wrapped errors
// compare equal to the sentinel they were built from.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

var (
	// Session Errors
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "credential rejected by backend",
	}
	ErrNotAuthenticated = &DomainError{
		Code:    "NOT_AUTHENTICATED",
		Message: "no credential is held",
	}
	ErrAuthInFlight = &DomainError{
		Code:    "AUTH_IN_FLIGHT",
		Message: "another login or register is in progress",
	}
	ErrMissingDependency = &DomainError{
		Code:    "MISSING_DEPENDENCY",
		Message: "required dependency is missing",
	}
	ErrMissingToken = &DomainError{
		Code:    "MISSING_TOKEN",
		Message: "auth response carried no token",
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
	}
	ErrUserAlreadyExists = &DomainError{
		Code:    "USER_ALREADY_EXISTS",
		Message: "user with this email already exists",
	}

	// Validation Errors
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}
	ErrRequiredFieldMissing = &DomainError{
		Code:    "REQUIRED_FIELD_MISSING",
		Message: "required field is missing",
	}

	// Infrastructure Errors
	ErrTokenStore = &DomainError{
		Code:    "TOKEN_STORE_FAILED",
		Message: "token store operation failed",
	}
	ErrNetworkOperation = &DomainError{
		Code:    "NETWORK_OPERATION_FAILED",
		Message: "network operation failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// WrapTokenStore wraps an error as a token store failure
func WrapTokenStore(operation string, cause error) error {
	return &DomainError{
		Code:    ErrTokenStore.Code,
		Message: fmt.Sprintf("token store operation failed: %s", operation),
		Cause:   cause,
	}
}

// WrapNetworkOperation wraps a transport failure for the given request
func WrapNetworkOperation(method, path string, cause error) error {
	return &DomainError{
		Code:    ErrNetworkOperation.Code,
		Message: fmt.Sprintf("%s %s failed", method, path),
		Cause:   cause,
	}
}

// WrapMissingDependency reports a collaborator that was not supplied at construction
func WrapMissingDependency(name string) error {
	return &DomainError{
		Code:    ErrMissingDependency.Code,
		Message: fmt.Sprintf("required dependency is missing: %s", name),
	}
}

// WrapValidationError wraps an error as a validation failure for a field
func WrapValidationError(field string, cause error) error {
	msg := fmt.Sprintf("validation failed for %s", field)
	return &DomainError{
		Code:    ErrValidationFailed.Code,
		Message: msg,
		Cause:   cause,
	}
}

// WrapRequiredField reports a missing required field
func WrapRequiredField(field string) error {
	return &DomainError{
		Code:    ErrRequiredFieldMissing.Code,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// PublicMessage returns a message safe to show to an end user.
// Causes are only included for validation errors.
func PublicMessage(err error) string {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return "An error occurred"
	}
	if IsValidationError(err) && domainErr.Cause != nil {
		return fmt.Sprintf("%s: %v", domainErr.Message, domainErr.Cause)
	}
	return domainErr.Message
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrUnauthorized.Code ||
			domainErr.Code == ErrNotAuthenticated.Code ||
			domainErr.Code == ErrInvalidCredentials.Code ||
			domainErr.Code == ErrMissingToken.Code
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrValidationFailed.Code ||
			domainErr.Code == ErrRequiredFieldMissing.Code ||
			domainErr.Code == ErrUserAlreadyExists.Code
	}
	return false
}

// IsInfrastructureError checks if an error is an infrastructure error
func IsInfrastructureError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrTokenStore.Code ||
			domainErr.Code == ErrNetworkOperation.Code
	}
	return false
}
