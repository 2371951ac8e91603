// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import "math"

// Fitter tracks the width of the container a canvas is displayed in and
// derives the display scale from it. Observing the same width twice is a
// no-op, and unusable widths keep the previous scale.
type Fitter struct {
	logicalWidth float64
	width        float64
	scale        float64
}

// NewFitter returns a Fitter for a page of the given logical width, starting
// at scale 1.
func NewFitter(logicalWidth float64) *Fitter {
	return &Fitter{logicalWidth: logicalWidth, scale: 1}
}

// Observe records a new container width and reports the resulting scale and
// whether it changed.
func (f *Fitter) Observe(width float64) (float64, bool) {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) || f.logicalWidth <= 0 {
		return f.scale, false
	}
	if width == f.width {
		return f.scale, false
	}
	f.width = width
	next := width / f.logicalWidth
	if next == f.scale {
		return f.scale, false
	}
	f.scale = next
	return next, true
}

// Scale returns the current scale.
func (f *Fitter) Scale() float64 { return f.scale }

// SetLogicalWidth changes the page width, e.g. after a page size change,
// and recomputes the scale from the last observed container width.
func (f *Fitter) SetLogicalWidth(w float64) (float64, bool) {
	if w <= 0 || w == f.logicalWidth {
		return f.scale, false
	}
	f.logicalWidth = w
	if f.width <= 0 {
		return f.scale, false
	}
	next := f.width / w
	changed := next != f.scale
	f.scale = next
	return next, changed
}
