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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleAnalyzeScenario runs the protection-layer gap analysis on a
// scenario document.
//
// POST /v1/lopa/analyze with a LOPA scenario body. Invalid frequencies or
// IPL probabilities return 400 with per-field detail; a valid scenario
// returns the full gap analysis including the credit audit trail.
func HandleAnalyzeScenario(analyzer *lopa.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlersTracer.Start(c.Request.Context(), "HandleAnalyzeScenario")
		defer span.End()

		var scenario datatypes.LopaScenario
		if err := c.ShouldBindJSON(&scenario); err != nil {
			respondError(c, malformedBody())
			return
		}

		result, err := analyzer.Analyze(&scenario)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		span.SetAttributes(
			attribute.String("lopa.gap_status", string(result.GapStatus)),
			attribute.Int("lopa.credited_ipls", result.CreditedIPLCount),
		)
		slog.Info("gap analysis computed",
			"node_ref", scenario.NodeRef,
			"gap_status", result.GapStatus,
			"credited_ipls", result.CreditedIPLCount,
		)

		c.JSON(http.StatusOK, result)
	}
}
