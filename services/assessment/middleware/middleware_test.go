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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Principal Context Helper Tests
// =============================================================================

func TestGetPrincipal_DefaultsToLocalUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, LocalPrincipal, GetPrincipal(c))
}

func TestSetPrincipal_Roundtrip(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	SetPrincipal(c, "lead.engineer@example.com")

	assert.Equal(t, "lead.engineer@example.com", GetPrincipal(c))
}

func TestGetPrincipal_EmptyStoredValueFallsBack(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	SetPrincipal(c, "")

	assert.Equal(t, LocalPrincipal, GetPrincipal(c))
}

// =============================================================================
// PrincipalMiddleware Tests
// =============================================================================

func TestPrincipalMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantPrincipal string
	}{
		{
			name:          "header present",
			header:        "ops.reviewer@example.com",
			wantPrincipal: "ops.reviewer@example.com",
		},
		{
			name:          "header absent",
			header:        "",
			wantPrincipal: LocalPrincipal,
		},
		{
			name:          "whitespace only header",
			header:        "   ",
			wantPrincipal: LocalPrincipal,
		},
		{
			name:          "surrounding whitespace trimmed",
			header:        "  auditor@example.com  ",
			wantPrincipal: "auditor@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			router := gin.New()
			router.Use(PrincipalMiddleware())
			router.GET("/probe", func(c *gin.Context) {
				got = GetPrincipal(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/probe", nil)
			if tt.header != "" {
				req.Header.Set(CallerHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantPrincipal, got)
		})
	}
}

// =============================================================================
// RequestIDMiddleware Tests
// =============================================================================

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var got string
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/probe", func(c *gin.Context) {
		got = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	require.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err, "generated request id should be a UUID")
	assert.Equal(t, got, w.Header().Get(RequestIDHeader), "id should be echoed on the response")
}

func TestRequestIDMiddleware_AcceptsInboundID(t *testing.T) {
	var got string
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/probe", func(c *gin.Context) {
		got = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set(RequestIDHeader, "upstream-7f3a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-7f3a", got)
	assert.Equal(t, "upstream-7f3a", w.Header().Get(RequestIDHeader))
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, "", GetRequestID(c))
}

// =============================================================================
// RequestMetricsMiddleware Tests
// =============================================================================

func TestRequestMetricsMiddleware_NoopWithoutInit(t *testing.T) {
	saved := observability.DefaultMetrics
	observability.DefaultMetrics = nil
	defer func() { observability.DefaultMetrics = saved }()

	router := gin.New()
	router.Use(RequestMetricsMiddleware())
	router.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestMetricsMiddleware_RecordsRequests(t *testing.T) {
	m := observability.InitMetrics()

	router := gin.New()
	router.Use(RequestMetricsMiddleware())
	router.GET("/counted", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/failing", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	before := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/counted", "success"))
	beforeErr := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/failing", "error"))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/counted", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/failing", nil))

	after := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/counted", "success"))
	afterErr := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/failing", "error"))

	assert.Equal(t, before+1, after, "success counter should increment")
	assert.Equal(t, beforeErr+1, afterErr, "error counter should increment")

	inFlight := testutil.ToFloat64(m.InFlightRequests.WithLabelValues("/counted"))
	assert.Equal(t, float64(0), inFlight, "in-flight gauge should return to zero")
}

func TestRequestMetricsMiddleware_UnmatchedRoutesBucketed(t *testing.T) {
	m := observability.InitMetrics()

	router := gin.New()
	router.Use(RequestMetricsMiddleware())

	before := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "error"))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/no/such/route", nil))

	after := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "error"))
	assert.Equal(t, before+1, after)
}
