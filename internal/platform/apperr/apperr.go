// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Plume.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: One constructor per lifecycle failure (RateLimited, Mismatch, AlreadyReviewed...).
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

// Machine-readable codes returned in the "code" field of error envelopes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnprocessable      = "UNPROCESSABLE"
	CodeExpired            = "EXPIRED"
	CodeMismatch           = "MISMATCH"
	CodeAlreadyConsumed    = "ALREADY_CONSUMED"
	CodeAlreadyReviewed    = "ALREADY_REVIEWED"
	CodeReasonRequired     = "REASON_REQUIRED"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeAlreadyPending     = "ALREADY_PENDING"
	CodeNotDraftOrRejected = "NOT_DRAFT_OR_REJECTED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the Plume API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
	// RetryAfter is set on RATE_LIMITED errors (seconds).
	RetryAfter int `json:"-"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Submission") // Returns "Submission not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfterSeconds,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       CodeUnprocessable,
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Lifecycle Errors

// Expired creates a 400 [AppError] for a challenge past its TTL.
func Expired(msg string) *AppError {
	return &AppError{
		Code:       CodeExpired,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Mismatch creates a 400 [AppError] for a code that does not match the active challenge.
func Mismatch(msg string) *AppError {
	return &AppError{
		Code:       CodeMismatch,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// AlreadyConsumed creates a 400 [AppError] for a replayed one-time code.
func AlreadyConsumed(msg string) *AppError {
	return &AppError{
		Code:       CodeAlreadyConsumed,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// AlreadyReviewed creates a 409 [AppError] returned to the reviewer who lost the race.
func AlreadyReviewed(resource string) *AppError {
	return &AppError{
		Code:       CodeAlreadyReviewed,
		Message:    resource + " has already been reviewed",
		HTTPStatus: http.StatusConflict,
	}
}

// ReasonRequired creates a 422 [AppError] for a rejection without explanation.
func ReasonRequired() *AppError {
	return &AppError{
		Code:       CodeReasonRequired,
		Message:    "A rejection reason is required",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    []FieldError{{Field: "reason", Message: "This field is required when rejecting"}},
	}
}

// PreconditionFailed creates a 412 [AppError] for an action whose prerequisites are unmet.
func PreconditionFailed(msg string) *AppError {
	return &AppError{
		Code:       CodePreconditionFailed,
		Message:    msg,
		HTTPStatus: http.StatusPreconditionFailed,
	}
}

// AlreadyPending creates a 409 [AppError] when an item is already awaiting review.
func AlreadyPending(resource string) *AppError {
	return &AppError{
		Code:       CodeAlreadyPending,
		Message:    resource + " is already pending review",
		HTTPStatus: http.StatusConflict,
	}
}

// NotDraftOrRejected creates a 409 [AppError] for a review request on published or archived content.
func NotDraftOrRejected() *AppError {
	return &AppError{
		Code:       CodeNotDraftOrRejected,
		Message:    "Only draft or rejected content can be submitted for review",
		HTTPStatus: http.StatusConflict,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
