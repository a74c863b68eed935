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

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// StandardSummary is one registry entry in the standards listing.
type StandardSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Authority   string `json:"authority"`
	ClauseCount int    `json:"clause_count"`
}

// StandardsResponse lists the loaded standards registry.
type StandardsResponse struct {
	SchemaVersion string            `json:"schema_version"`
	Source        string            `json:"source"`
	Standards     []StandardSummary `json:"standards"`
}

// HandleListStandards returns the loaded standards registry without
// clause bodies. Clients use it to discover valid filter tokens for
// the compliance endpoints.
//
// GET /v1/standards
func HandleListStandards() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "HandleListStandards")
		defer span.End()

		registry, err := compliance.GetStandardsRegistry(ctx)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		out := StandardsResponse{
			SchemaVersion: registry.SchemaVersion(),
			Source:        registry.Source(),
			Standards:     make([]StandardSummary, 0, registry.Count()),
		}
		for _, std := range registry.Standards() {
			out.Standards = append(out.Standards, StandardSummary{
				ID:          std.ID,
				Name:        std.Name,
				Authority:   std.Authority,
				ClauseCount: std.ClauseCount(),
			})
		}

		span.SetAttributes(attribute.Int("standards.count", len(out.Standards)))
		c.JSON(http.StatusOK, out)
	}
}
