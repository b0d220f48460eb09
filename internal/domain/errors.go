package domain

import (
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeValidation   ErrorCode = "VALIDATION_FAILED"

	// Quiz tool specific errors
	CodeQuizValidationFailed ErrorCode = "QUIZ_VALIDATION_FAILED"
	CodeBackendRequestFailed ErrorCode = "BACKEND_REQUEST_FAILED"
	CodeCredentialFetch      ErrorCode = "CREDENTIAL_FETCH_FAILED"
	CodeContentUnreadable    ErrorCode = "CONTENT_UNREADABLE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewContentUnreadableError(fileURL string, cause error) *DomainError {
	return NewError(CodeContentUnreadable, fmt.Sprintf("Unable to read content at %s", fileURL), cause)
}

// FieldError represents a single request-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is returned by the tool layer when a request body fails
// structural validation before it reaches the quiz validator.
type FieldErrors []FieldError

func (v FieldErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func NewFieldError(field, message string) FieldError {
	return FieldError{Field: field, Message: message}
}
