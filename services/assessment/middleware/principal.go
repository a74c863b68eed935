// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the assessment service.
//
// This package contains middleware for caller identification, request
// correlation, and request metrics.
//
// # Caller Identity Flow
//
// The engine is a collaborator behind the platform's session layer; that
// layer authenticates users and forwards the caller identity in a header.
// The principal middleware extracts it and stores it in the Gin context
// for the access-control check downstream.
//
//	Request
//	   │
//	   ▼
//	PrincipalMiddleware
//	   │
//	   ├─► Read "X-Caller-ID" header
//	   │
//	   └─► Store principal in context
//	           │
//	           ▼
//	       Handler (retrieves via GetPrincipal)
//
// # Open Source Behavior
//
// When the header is absent, the caller is identified as "local-user".
// This enables the CLI and local deployments to function without any
// session infrastructure; the access checker decides what local-user may
// see.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// =============================================================================
// Context Keys
// =============================================================================

// principalKey is the context key for storing the caller principal.
// Using a prefixed key prevents collisions with other context values.
const principalKey = "aleutian_principal"

// CallerHeader is the request header carrying the authenticated caller
// identity set by the platform's session layer.
const CallerHeader = "X-Caller-ID"

// LocalPrincipal identifies requests that arrive without a caller header.
const LocalPrincipal = "local-user"

// =============================================================================
// Context Helpers
// =============================================================================

// SetPrincipal stores the caller principal in the Gin context.
//
// # Description
//
// Called by PrincipalMiddleware after extracting the caller identity.
// The stored principal can be retrieved by handlers via GetPrincipal.
//
// # Inputs
//
//   - c: Gin context. Must not be nil.
//   - principal: Caller identity. May be empty.
//
// # Thread Safety
//
// Safe to call concurrently (Gin context is request-scoped).
func SetPrincipal(c *gin.Context, principal string) {
	c.Set(principalKey, principal)
}

// GetPrincipal retrieves the caller principal from the Gin context.
//
// # Description
//
// Called by handlers to identify the caller for access-control checks.
// Returns LocalPrincipal if the middleware did not run.
//
// # Inputs
//
//   - c: Gin context. Must not be nil.
//
// # Outputs
//
//   - string: The caller principal, never empty.
//
// # Thread Safety
//
// Safe to call concurrently (Gin context is request-scoped).
func GetPrincipal(c *gin.Context) string {
	if v, exists := c.Get(principalKey); exists {
		if principal, ok := v.(string); ok && principal != "" {
			return principal
		}
	}
	return LocalPrincipal
}

// =============================================================================
// Principal Middleware
// =============================================================================

// PrincipalMiddleware creates a Gin middleware that identifies the caller.
//
// # Description
//
// Reads the caller identity from the X-Caller-ID header, trimming
// whitespace, and stores it in the context. Requests without the header
// are identified as LocalPrincipal rather than rejected; authorization is
// the access checker's decision, not this middleware's.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
//
// # Examples
//
//	v1 := router.Group("/v1")
//	v1.Use(middleware.PrincipalMiddleware())
//
// # Limitations
//
//   - Does not verify the header; the session layer in front of the
//     engine is trusted to strip spoofed values.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := strings.TrimSpace(c.GetHeader(CallerHeader))
		if principal == "" {
			principal = LocalPrincipal
		}

		SetPrincipal(c, principal)

		c.Next()
	}
}
