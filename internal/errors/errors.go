// Package errors provides standardized domain errors with codes for the Quill core.
//
// Usage:
//
//	// In services - return typed errors
//	if exists {
//	    return errors.DuplicateTag("tag already exists under this parent")
//	}
//
//	// In adapters - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeNotFound:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeConflict       Code = "CONFLICT"
	CodeAlreadyExists  Code = "ALREADY_EXISTS"
	CodeDuplicateTag   Code = "DUPLICATE_TAG"
	CodeHierarchyDepth Code = "HIERARCHY_DEPTH_EXCEEDED"
	CodeTagInUse       Code = "TAG_IN_USE"
	CodeTagHasChildren Code = "TAG_HAS_CHILDREN"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
// The core itself owns no wire format; this is the mapping adapters use.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeDuplicateTag, CodeHierarchyDepth:
		return http.StatusBadRequest
	case CodeConflict, CodeAlreadyExists, CodeInvalidState, CodeTagInUse, CodeTagHasChildren:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInvalidState   = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrAlreadyExists  = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrDuplicateTag   = &Error{Code: CodeDuplicateTag, Message: "duplicate tag"}
	ErrHierarchyDepth = &Error{Code: CodeHierarchyDepth, Message: "hierarchy depth exceeded"}
	ErrTagInUse       = &Error{Code: CodeTagInUse, Message: "tag in use"}
	ErrTagHasChildren = &Error{Code: CodeTagHasChildren, Message: "tag has children"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// InvalidState creates an invalid state error.
func InvalidState(msg string) *Error {
	return &Error{Code: CodeInvalidState, Message: msg}
}

// InvalidStatef creates an invalid state error with formatted message.
func InvalidStatef(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// DuplicateTag creates a duplicate tag error.
func DuplicateTag(msg string) *Error {
	return &Error{Code: CodeDuplicateTag, Message: msg}
}

// DuplicateTagf creates a duplicate tag error with formatted message.
func DuplicateTagf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateTag, Message: fmt.Sprintf(format, args...)}
}

// HierarchyDepthExceeded creates a hierarchy depth error.
func HierarchyDepthExceeded(msg string) *Error {
	return &Error{Code: CodeHierarchyDepth, Message: msg}
}

// TagInUse creates a tag-in-use error.
func TagInUse(msg string) *Error {
	return &Error{Code: CodeTagInUse, Message: msg}
}

// TagInUsef creates a tag-in-use error with formatted message.
func TagInUsef(format string, args ...any) *Error {
	return &Error{Code: CodeTagInUse, Message: fmt.Sprintf(format, args...)}
}

// TagHasChildren creates a tag-has-children error.
func TagHasChildren(msg string) *Error {
	return &Error{Code: CodeTagHasChildren, Message: msg}
}

// TagHasChildrenf creates a tag-has-children error with formatted message.
func TagHasChildrenf(format string, args ...any) *Error {
	return &Error{Code: CodeTagHasChildren, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
