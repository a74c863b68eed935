// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/handlers"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/matrix"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/middleware"
)

// SetupRoutes registers the assessment API onto the router.
//
// The /v1 group runs behind the principal middleware so every handler
// sees a caller identity; /health and /metrics stay outside it.
func SetupRoutes(router *gin.Engine, aggregator *compliance.Aggregator,
	analyzer *lopa.Analyzer, rasterizer *matrix.Rasterizer) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.PrincipalMiddleware())
	{
		risk := v1.Group("/risk")
		{
			risk.POST("/score", handlers.HandleScoreEntry())
			risk.GET("/matrix.svg", handlers.HandleMatrixSVG())
			risk.GET("/matrix.png", handlers.HandleMatrixPNG(rasterizer))
		}
		v1.POST("/lopa/analyze", handlers.HandleAnalyzeScenario(analyzer))
		v1.GET("/standards", handlers.HandleListStandards())
		// Compliance documents are computed per request, never persisted
		v1.GET("/analyses/:id/compliance", handlers.HandleAnalysisCompliance(aggregator))
		v1.GET("/projects/:id/compliance", handlers.HandleProjectCompliance(aggregator))
	}
}
