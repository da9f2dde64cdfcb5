package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the engine and the HTTP boundary.
const (
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Validation reasons carried in Details["reason"].
const (
	ReasonEmptySelection     = "EMPTY_SELECTION"
	ReasonLeadNotInSelection = "LEAD_NOT_IN_SELECTION"
	ReasonNegativeMinutes    = "NEGATIVE_MINUTES"
	ReasonRequired           = "REQUIRED"
	ReasonInvalidValue       = "INVALID_VALUE"
	ReasonAlreadySet         = "ALREADY_SET"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a caller may reload and reapply its intent.
func (e *DomainError) Retryable() bool {
	return e != nil && e.Code == CodeConflict
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewPermissionDenied hides the reason from the rendered message; the reason
// stays on the wrapped error for logs.
func NewPermissionDenied(reason string) error {
	return &DomainError{
		Code:       CodePermissionDenied,
		Message:    "action not allowed",
		HTTPStatus: http.StatusForbidden,
		Err:        errors.New(reason),
	}
}

func NewInvalidTransition(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition, message, http.StatusUnprocessableEntity, details)
}

func NewConflict(details map[string]any) error {
	return NewDomainError(CodeConflict, "ticket changed, please retry", http.StatusConflict, details)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewFieldError is a validation failure naming the offending field.
func NewFieldError(field, reason, message string) error {
	return NewValidationError(message, map[string]any{"field": field, "reason": reason})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the domain code of err, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ReasonOf returns Details["reason"] for validation failures.
func ReasonOf(err error) string {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Details == nil {
		return ""
	}
	reason, _ := domainErr.Details["reason"].(string)
	return reason
}
