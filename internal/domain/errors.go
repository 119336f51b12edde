package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches sentinel domain errors by code and message, so a sentinel
// wrapped with a cause still satisfies errors.Is against the bare sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithCause returns a copy of a sentinel error carrying the given cause.
func (e *DomainError) WithCause(err error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, err)
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrContentRequired  = NewDomainError(ErrCodeValidation, "content is required")
	ErrMessageRequired  = NewDomainError(ErrCodeValidation, "message is required")
	ErrQueryRequired    = NewDomainError(ErrCodeValidation, "query is required")
	ErrInvalidSender    = NewDomainError(ErrCodeValidation, "history sender must be user or assistant")
	ErrInvalidEmbedding = NewDomainError(ErrCodeValidation, "embedding has unexpected dimensions")
)

// Not found errors
var (
	ErrKnowledgeChunkNotFound = NewDomainError(ErrCodeNotFound, "knowledge chunk not found")
)

// Authorization errors
var (
	ErrSessionRequired = NewDomainError(ErrCodeUnauthorized, "authenticated session required")
	ErrInvalidSession  = NewDomainError(ErrCodeUnauthorized, "invalid session")
)

// Provider errors
var (
	ErrGenerationFailed      = NewDomainError(ErrCodeProvider, "generation failed")
	ErrEmbeddingFailed       = NewDomainError(ErrCodeProvider, "embedding failed")
	ErrProviderNotConfigured = NewDomainError(ErrCodeProvider, "language model provider not configured")
)

// Storage errors
var (
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
