// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"time"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/observability"
	"github.com/gin-gonic/gin"
)

// RequestMetricsMiddleware creates a Gin middleware that records request
// metrics.
//
// # Description
//
// Records request count, latency, and in-flight gauge per route using the
// observability package's default metrics. The route template
// (c.FullPath) is used as the endpoint label so path parameters do not
// explode the label cardinality.
//
// Requests are counted as errors when the response status is 400 or
// higher. Categorized error codes are recorded by the handlers, which
// know which sentinel failed; this middleware only sees status codes.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
//
// # Limitations
//
//   - No-op when observability.InitMetrics() has not been called.
//   - Unmatched routes (404 on unknown paths) are labeled "unmatched".
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := observability.DefaultMetrics
		if m == nil {
			c.Next()
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		start := time.Now()
		m.RequestStarted(endpoint)

		c.Next()

		m.RequestEnded(endpoint)
		m.RecordDuration(endpoint, time.Since(start).Seconds())
		m.RecordRequest(endpoint, c.Writer.Status() < 400)
	}
}
