// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Engine error taxonomy and the wire-level error envelope.
//
// The four sentinels below are the only error kinds the engine surfaces.
// ErrForbidden is never raised here; it originates in the access-control
// collaborator and is propagated unchanged. ErrComputation marks stored
// data that violates an invariant the formulas depend on; such input is
// reported, never repaired, because a fabricated safety number is worse
// than no number.
package datatypes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Sentinels
// =============================================================================

var (
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing analysis, project, or record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an access denial from the collaborator check.
	ErrForbidden = errors.New("forbidden")

	// ErrComputation marks corrupted stored data or broken configuration.
	ErrComputation = errors.New("computation failed")
)

// =============================================================================
// Validation Detail
// =============================================================================

// FieldError names one offending field and what is wrong with it.
type FieldError struct {
	// Field is the JSON field or query parameter name.
	Field string `json:"field"`

	// Message describes the violation.
	Message string `json:"message"`
}

// ValidationError carries per-field detail for a rejected input.
//
// It unwraps to ErrValidation so handlers can classify it with errors.Is
// while errors.As recovers the field list for the response envelope.
type ValidationError struct {
	Fields []FieldError
}

// Error formats the field list into a single message.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap ties the typed error into the sentinel taxonomy.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends another offending field and returns the receiver for
// chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// WrapValidator converts a go-playground validation result into the
// engine's ValidationError. Non-validator errors pass through unchanged.
func WrapValidator(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return out
}

// =============================================================================
// Wire Envelope
// =============================================================================

// ErrorBody is the error payload inside the envelope.
type ErrorBody struct {
	// Code is the machine-readable error code (e.g. "NOT_FOUND").
	Code string `json:"code"`

	// Message is the human-readable summary.
	Message string `json:"message"`

	// Errors carries per-field detail for validation failures.
	Errors []FieldError `json:"errors,omitempty"`
}

// ErrorResponse is the JSON error envelope every endpoint returns.
type ErrorResponse struct {
	// Success is always false on this envelope.
	Success bool `json:"success"`

	// Error holds the code, message, and optional field detail.
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds the envelope for one error.
func NewErrorResponse(code, message string, fields ...FieldError) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Errors:  fields,
		},
	}
}
