// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders certificate templates into a visual tree. Render is
// a pure function of its inputs; it holds no authoritative state. Interactive
// design sessions use a Surface, which keeps one positioning.Draggable per
// element and reports committed edits back to its owner.
package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/models"
	"certstudio/internal/positioning"
)

// Options controls a single render.
type Options struct {
	// DesignMode enables element interaction affordances and, together with
	// the theme's ShowGrid flag, the grid and ruler overlays.
	DesignMode bool

	// FixedScale, when > 0, is used as the display scale. Otherwise the scale
	// is ContainerWidth divided by the logical page width, or 1 when no
	// container width is known.
	FixedScale     float64
	ContainerWidth float64

	SelectedElementID string
	OnSelectElement   func(id string)
	OnUpdateTemplate  func(models.Template)

	// GridSize > 0 snaps committed drag positions in design mode.
	GridSize float64

	// Now supplies the fallback date in raw-markup mode. Defaults to time.Now.
	Now func() time.Time
}

// ScaleFor returns the display scale for a page of the given logical width.
func (o Options) ScaleFor(logicalWidth float64) float64 {
	if o.FixedScale > 0 {
		return o.FixedScale
	}
	if o.ContainerWidth > 0 && logicalWidth > 0 {
		return o.ContainerWidth / logicalWidth
	}
	return 1
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Render produces the visual tree for t with data substituted into text
// elements. Malformed templates (nil, or missing page or theme in structured
// mode) render nothing and return nil. A template with CustomHTML is
// rendered in raw-markup mode regardless of its elements.
func Render(t *models.Template, data map[string]string, opts Options) *Node {
	if t == nil {
		return nil
	}
	if strings.TrimSpace(t.CustomHTML) != "" {
		return renderIsolated(t, data, opts)
	}
	if t.Page == nil || t.Theme == nil {
		return nil
	}

	scale := opts.ScaleFor(t.Page.Size().Width)
	frames := make(map[string]*positioning.Draggable, len(t.Elements))
	for _, e := range t.Elements {
		frames[e.ID] = positioning.New(frameConfig(e, opts, scale))
	}
	return renderCanvas(t, data, opts, scale, func(id string) *positioning.Draggable {
		return frames[id]
	})
}

// frameConfig derives the positioning configuration for an element.
func frameConfig(e models.Element, opts Options, scale float64) positioning.Config {
	return positioning.Config{
		InitialPosition: positioning.Point{X: e.X, Y: e.Y},
		InitialSize:     positioning.Size{W: e.W, H: e.H},
		Enabled:         opts.DesignMode,
		Resizable:       opts.DesignMode,
		Selected:        opts.DesignMode && e.ID == opts.SelectedElementID,
		Scale:           scale,
		GridSize:        opts.GridSize,
	}
}

// renderCanvas builds the structured-mode tree. frame returns the positioning
// state for an element id.
func renderCanvas(t *models.Template, data map[string]string, opts Options, scale float64, frame func(id string) *positioning.Draggable) *Node {
	size := t.Page.Size()
	theme := t.Theme

	canvas := el("div", map[string]string{
		"class":            "certificate-canvas",
		"data-role":        "certificate-canvas",
		"data-page":        string(t.Page.Type),
		"data-orientation": string(t.Page.Orientation),
		"data-scale":       positioning.FormatPx(scale),
	}, map[string]string{
		"position":         "relative",
		"width":            px(size.Width * scale),
		"height":           px(size.Height * scale),
		"overflow":         "hidden",
		"background-color": "#ffffff",
		"font-family":      fontFamily(theme),
		"color":            textColor(theme),
	})
	if opts.DesignMode {
		canvas.Attrs["data-mode"] = "design"
	}

	// Paint order is document order.
	canvas.Children = append(canvas.Children, backgroundLayer(theme))
	if wm := watermarkLayer(theme.Watermark, scale); wm != nil {
		canvas.Children = append(canvas.Children, wm)
	}
	if b := borderLayer(theme.Border, scale); b != nil {
		canvas.Children = append(canvas.Children, b)
	}
	if opts.DesignMode && theme.ShowGrid {
		canvas.Children = append(canvas.Children, gridLayer(scale), horizontalRuler(size.Width, scale), verticalRuler(size.Height, scale))
	}
	for _, e := range t.Elements {
		canvas.Children = append(canvas.Children, elementNode(e, theme, data, scale, frame(e.ID)))
	}
	return canvas
}

// renderIsolated renders raw author markup inside a sandboxed frame so its
// styles and scripts cannot reach the host page. The document is laid out at
// the logical page size and scaled down as a whole.
func renderIsolated(t *models.Template, data map[string]string, opts Options) *Node {
	size := t.Page.Size()
	scale := opts.ScaleFor(size.Width)

	frame := el("iframe", map[string]string{
		"data-role": "certificate-document",
		"sandbox":   "",
		"srcdoc":    Document(t, data, opts),
		"title":     "Certificate",
	}, map[string]string{
		"border":           "0",
		"width":            px(size.Width),
		"height":           px(size.Height),
		"transform":        "scale(" + positioning.FormatPx(scale) + ")",
		"transform-origin": "0 0",
	})

	return el("div", map[string]string{
		"class":     "certificate-canvas",
		"data-mode": "raw",
		"data-role": "certificate-canvas",
	}, map[string]string{
		"position": "relative",
		"width":    px(size.Width * scale),
		"height":   px(size.Height * scale),
		"overflow": "hidden",
	}, frame)
}

// Document returns the raw-markup document of t with the fixed token set
// substituted. It returns "" for templates without custom markup.
func Document(t *models.Template, data map[string]string, opts Options) string {
	if t == nil || strings.TrimSpace(t.CustomHTML) == "" {
		return ""
	}
	return SubstituteRaw(t.CustomHTML, data, opts.now())
}

// Engine renders stored templates to HTML and keeps the L1 cache of
// finished renderings. Design-mode renders are never cached.
type Engine struct {
	cache *renderCache
	now   func() time.Time
}

// New creates a rendering engine with an empty L1 cache.
func New() *Engine {
	return &Engine{
		cache: newRenderCache(),
		now:   time.Now,
	}
}

// RenderHTML renders t and serializes the tree. It returns "" for malformed
// templates.
func (e *Engine) RenderHTML(t *models.Template, data map[string]string, opts Options) string {
	if opts.Now == nil {
		opts.Now = e.now
	}
	if t == nil || opts.DesignMode || t.ID == uuid.Nil {
		return Render(t, data, opts).HTML()
	}

	scale := opts.ScaleFor(t.Page.Size().Width)
	key := cacheKey{
		id:      t.ID.String(),
		version: t.Version,
		digest:  Digest(data, scale, opts.Now().Format(time.DateOnly)),
	}
	if html, ok := e.cache.get(key); ok {
		return html
	}

	html := Render(t, data, opts).HTML()
	e.cache.put(key, html)
	return html
}

// InvalidateTemplate drops every cached rendering of a template.
// Called by handlers after a template update or delete.
func (e *Engine) InvalidateTemplate(id string) {
	e.cache.invalidate(id)
}

// InvalidateAll clears the whole L1 cache.
func (e *Engine) InvalidateAll() {
	e.cache.invalidateAll()
}

func px(v float64) string {
	return positioning.FormatPx(v) + "px"
}
