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
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/matrix"
)

func matrixRouter() *gin.Engine {
	router := gin.New()
	router.GET("/v1/risk/matrix.svg", HandleMatrixSVG())
	router.GET("/v1/risk/matrix.png", HandleMatrixPNG(matrix.NewRasterizer(2)))
	return router
}

// =============================================================================
// SVG Endpoint
// =============================================================================

func TestHandleMatrixSVG_DefaultRender(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))
	assert.Equal(t, 26, strings.Count(w.Body.String(), "<rect"))

	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "inline")
	assert.Contains(t, disposition, "risk_matrix_medium_")
	assert.Contains(t, disposition, `.svg"`)
}

func TestHandleMatrixSVG_SizeAndDecorations(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg?size=large&labels&legend&title=Unit+300", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Unit 300")
	assert.Contains(t, body, "Severity")
	assert.Contains(t, body, "<circle")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "risk_matrix_large_")
}

func TestHandleMatrixSVG_EscapesTitle(t *testing.T) {
	router := matrixRouter()

	path := "/v1/risk/matrix.svg?title=" + url.QueryEscape(`<script>alert("x")</script>`)
	w := doGET(t, router, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotContains(t, w.Body.String(), "<script>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestHandleMatrixSVG_InvalidBooleanParam(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg?labels=maybe", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "labels", resp.Error.Errors[0].Field)
}

func TestHandleMatrixSVG_InvalidHighlightFormat(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg?highlight=3-4", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "highlight", resp.Error.Errors[0].Field)
}

func TestHandleMatrixSVG_HighlightedCells(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg?highlight=5:5,3:2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 26, strings.Count(w.Body.String(), "<rect"))
}

func TestHandleMatrixSVG_UnknownSize(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.svg?size=gigantic", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	require.NotEmpty(t, resp.Error.Errors)
	assert.Equal(t, "size", resp.Error.Errors[0].Field)
}

// =============================================================================
// PNG Endpoint
// =============================================================================

func TestHandleMatrixPNG_RendersBinary(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.png?size=small", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}),
		"body should start with the png signature")

	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "risk_matrix_small_")
	assert.Contains(t, disposition, `.png"`)
}

func TestHandleMatrixPNG_InvalidOptions(t *testing.T) {
	router := matrixRouter()

	w := doGET(t, router, "/v1/risk/matrix.png?scores=nope", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
