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

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleScoreEntry computes the risk score for one ratings triple.
//
// POST /v1/risk/score with {severity, likelihood, detectability?}.
// Out-of-range ratings return 400 with the offending fields named.
func HandleScoreEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlersTracer.Start(c.Request.Context(), "HandleScoreEntry")
		defer span.End()

		var req datatypes.ScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, malformedBody())
			return
		}

		score, err := scoring.Score(scoring.Input{
			Severity:      req.Severity,
			Likelihood:    req.Likelihood,
			Detectability: req.Detectability,
		})
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		detectability := req.Detectability
		if detectability == 0 {
			detectability = 1
		}

		span.SetAttributes(
			attribute.Int("risk.score", score),
			attribute.String("risk.band", string(scoring.Band(score))),
		)

		c.JSON(http.StatusOK, datatypes.ScoreResponse{
			Score:         score,
			Band:          scoring.Band(score),
			Severity:      req.Severity,
			Likelihood:    req.Likelihood,
			Detectability: detectability,
		})
	}
}
