// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package matrix

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// DefaultMaxConcurrentRasters bounds simultaneous raster encodes.
const DefaultMaxConcurrentRasters = 4

var matrixRasterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "aleutian",
	Subsystem: "assessment",
	Name:      "matrix_raster_duration_seconds",
	Help:      "Duration of risk matrix raster encodes",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
})

var matrixTracer = otel.Tracer("assessment.matrix")

// =============================================================================
// Rasterizer
// =============================================================================

// Rasterizer renders matrices to encoded png images.
//
// # Description
//
// Rasterization is the only CPU-bound stage in the engine, so the
// rasterizer carries a counting semaphore that caps concurrent encodes.
// Acquisition respects context cancellation; callers waiting on a slot
// give up when their request dies.
//
// # Thread Safety
//
// Safe for concurrent use.
type Rasterizer struct {
	slots chan struct{}
	now   func() time.Time
}

// NewRasterizer creates a rasterizer allowing maxConcurrent simultaneous
// encodes. Non-positive values fall back to the default.
func NewRasterizer(maxConcurrent int) *Rasterizer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRasters
	}
	return &Rasterizer{
		slots: make(chan struct{}, maxConcurrent),
		now:   time.Now,
	}
}

// RenderImage renders the matrix as an encoded png.
//
// # Description
//
//	Runs the layout stage, paints it onto an RGBA canvas, and encodes the
//	result. Identical options produce byte-identical buffers; only the
//	filename date varies between days.
//
// # Inputs
//
//	ctx - Context for cancellation while waiting on an encode slot.
//	opts - Render options. The caller's value is not mutated.
//
// # Outputs
//
//	*datatypes.RenderedImage - Encoded bytes, mime type, and filename.
//	error - A datatypes.ValidationError for out-of-range options, or the
//	context error if cancelled while waiting.
func (r *Rasterizer) RenderImage(ctx context.Context, opts datatypes.MatrixOptions) (*datatypes.RenderedImage, error) {
	ctx, span := matrixTracer.Start(ctx, "matrix.RenderImage")
	defer span.End()

	layout, err := Compute(opts)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("size", string(layout.Size)),
		attribute.Int("width", layout.Width),
		attribute.Int("height", layout.Height),
	)

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.slots }()

	startTime := time.Now()
	img := rasterize(layout)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("encoding matrix png: %w", err)
	}
	matrixRasterDuration.Observe(time.Since(startTime).Seconds())
	matrixRenders.WithLabelValues("png").Inc()

	return &datatypes.RenderedImage{
		Buffer:   buf.Bytes(),
		MimeType: "image/png",
		Filename: fmt.Sprintf("risk_matrix_%s_%s.png", layout.Size, r.now().UTC().Format("2006-01-02")),
		Width:    layout.Width,
		Height:   layout.Height,
	}, nil
}

// =============================================================================
// Painting
// =============================================================================

// rasterize paints a layout onto a fresh RGBA canvas.
func rasterize(l *Layout) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))

	fillRect(img, l.Background.X, l.Background.Y, l.Background.W, l.Background.H, parseColor(l.Background.Fill))
	for i := range l.Cells {
		drawBox(img, l.Cells[i].Box)
	}
	for i := range l.Cells {
		if l.Cells[i].Score != nil {
			drawLabel(img, *l.Cells[i].Score)
		}
	}
	for _, label := range l.Labels {
		drawLabel(img, label)
	}
	if l.Title != nil {
		drawLabel(img, *l.Title)
	}
	for _, entry := range l.Legend {
		drawCircle(img, entry.CX, entry.CY, entry.R, parseColor(entry.Fill))
		drawLabel(img, entry.Caption)
	}
	return img
}

// drawBox paints the stroke as a full rectangle and the fill inset by the
// stroke width, which renders a crisp border without line primitives.
func drawBox(img *image.RGBA, r Rect) {
	if r.Stroke != "" && r.StrokeWidth > 0 {
		fillRect(img, r.X, r.Y, r.W, r.H, parseColor(r.Stroke))
		in := r.StrokeWidth
		fillRect(img, r.X+in, r.Y+in, r.W-2*in, r.H-2*in, parseColor(r.Fill))
		return
	}
	fillRect(img, r.X, r.Y, r.W, r.H, parseColor(r.Fill))
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.Color) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawCircle(img *image.RGBA, cx, cy, r int, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// drawLabel renders label text with the fixed bitmap face. The face has a
// single size; the layout font sizes only shape the vector output.
func drawLabel(img *image.RGBA, label Label) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(parseColor(label.Fill)),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(label.Content)
	x := fixed.I(label.X)
	switch label.Anchor {
	case "middle":
		x -= width / 2
	case "end":
		x -= width
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(label.Y)}
	d.DrawString(label.Content)
}

// =============================================================================
// Color Parsing
// =============================================================================

// namedColors covers the color names report templates actually send.
var namedColors = map[string]color.RGBA{
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"black":  {R: 0, G: 0, B: 0, A: 255},
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"yellow": {R: 255, G: 255, B: 0, A: 255},
	"gray":   {R: 128, G: 128, B: 128, A: 255},
	"grey":   {R: 128, G: 128, B: 128, A: 255},
}

// parseColor resolves a validated option color to RGBA. Unknown names
// fall back to white rather than failing a render over a cosmetic field.
func parseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
			}
		}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
