// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

// Shared tracer for all assessment handlers
var handlersTracer = otel.Tracer("aleutian.assessment.handlers")

// Machine-readable error codes for the wire envelope.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeNotFound    = "NOT_FOUND"
	codeForbidden   = "FORBIDDEN"
	codeComputation = "COMPUTATION_ERROR"
	codeInternal    = "INTERNAL"
)

// respondError maps an engine error onto the HTTP status and error
// envelope.
//
// Sentinel mapping: validation -> 400 with field detail, not found -> 404,
// forbidden -> 403 (propagated unchanged), computation -> 500 with a
// generic message. Computation failures mean stored data violated an
// invariant the formulas depend on; the detail is logged but never put on
// the wire, and no plausible-looking number is substituted.
func respondError(c *gin.Context, err error) {
	endpoint := c.FullPath()

	var verr *datatypes.ValidationError
	switch {
	case errors.As(err, &verr):
		recordError(endpoint, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest,
			datatypes.NewErrorResponse(codeValidation, verr.Error(), verr.Fields...))

	case errors.Is(err, datatypes.ErrValidation):
		recordError(endpoint, observability.ErrorCodeValidation)
		c.JSON(http.StatusBadRequest,
			datatypes.NewErrorResponse(codeValidation, err.Error()))

	case errors.Is(err, datatypes.ErrNotFound):
		recordError(endpoint, observability.ErrorCodeNotFound)
		c.JSON(http.StatusNotFound,
			datatypes.NewErrorResponse(codeNotFound, err.Error()))

	case errors.Is(err, datatypes.ErrForbidden):
		recordError(endpoint, observability.ErrorCodeForbidden)
		c.JSON(http.StatusForbidden,
			datatypes.NewErrorResponse(codeForbidden, err.Error()))

	case errors.Is(err, datatypes.ErrComputation):
		slog.Error("stored data failed an invariant check",
			"endpoint", endpoint, "error", err)
		recordError(endpoint, observability.ErrorCodeComputation)
		c.JSON(http.StatusInternalServerError,
			datatypes.NewErrorResponse(codeComputation, "internal computation error"))

	default:
		slog.Error("unclassified handler error", "endpoint", endpoint, "error", err)
		recordError(endpoint, observability.ErrorCodeInternal)
		c.JSON(http.StatusInternalServerError,
			datatypes.NewErrorResponse(codeInternal, "internal error"))
	}
}

// recordError feeds the categorized error counter when metrics are up.
func recordError(endpoint string, code observability.ErrorCode) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(endpoint, code)
	}
}

// malformedBody is the validation error for requests whose body does not
// decode as JSON.
func malformedBody() error {
	return datatypes.NewValidationError("body", "malformed json request")
}
