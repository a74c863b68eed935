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
	"net/http"
	"strings"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// splitStandardsParam turns the standards query parameter into filter
// tokens. Token normalization and unknown-token reporting live in the
// registry; this only splits the comma list.
func splitStandardsParam(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// HandleAnalysisCompliance computes the on-demand compliance document for
// one analysis.
//
// GET /v1/analyses/:id/compliance?standards=a,b. The document is
// recomputed from the stored records on every call and never persisted.
func HandleAnalysisCompliance(aggregator *compliance.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "HandleAnalysisCompliance")
		defer span.End()

		analysisID := c.Param("id")
		standards := splitStandardsParam(c.Query("standards"))
		span.SetAttributes(
			attribute.String("assessment.analysis_id", analysisID),
			attribute.Int("assessment.filter_tokens", len(standards)),
		)

		status, err := aggregator.AnalysisCompliance(ctx,
			middleware.GetPrincipal(c), analysisID, standards)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

// HandleProjectCompliance computes the equal-weight compliance rollup over
// a project's analyses.
//
// GET /v1/projects/:id/compliance?standards=a,b. Access to the project is
// decided by the access-control collaborator; denials surface as 403.
func HandleProjectCompliance(aggregator *compliance.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "HandleProjectCompliance")
		defer span.End()

		projectID := c.Param("id")
		standards := splitStandardsParam(c.Query("standards"))
		span.SetAttributes(
			attribute.String("assessment.project_id", projectID),
			attribute.Int("assessment.filter_tokens", len(standards)),
		)

		status, err := aggregator.ProjectCompliance(ctx,
			middleware.GetPrincipal(c), projectID, standards)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, status)
	}
}
