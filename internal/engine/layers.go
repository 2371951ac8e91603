// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"encoding/base64"
	"fmt"
	"html"
	"strconv"
	"strings"

	"certstudio/internal/models"
	"certstudio/internal/positioning"
)

// Layer geometry in logical pixels.
const (
	GridSpacing     = 50.0
	RulerSpacing    = 100.0
	BorderInset     = 16.0
	DefaultFontSize = 16.0

	defaultBorderWidth      = 4.0
	defaultWatermarkOpacity = 0.1
	watermarkFontSize       = 80.0
	watermarkTileW          = 240.0
	watermarkTileH          = 160.0
	watermarkImageTile      = 160.0
	rulerThickness          = 16.0
)

const (
	defaultTextColor   = "#111827"
	defaultBorderColor = "#1f2937"
	defaultFontFamily  = "Georgia, serif"
	guideColor         = "rgba(59, 130, 246, 0.15)"
	selectionColor     = "#3b82f6"
)

// borderStyles maps border families onto CSS line styles.
var borderStyles = map[models.BorderType]string{
	models.BorderClassic: "double",
	models.BorderModern:  "solid",
	models.BorderPremium: "ridge",
	models.BorderDashed:  "dashed",
	models.BorderDotted:  "dotted",
}

func fontFamily(th *models.Theme) string {
	if th.FontFamily != "" {
		return th.FontFamily
	}
	return defaultFontFamily
}

func textColor(th *models.Theme) string {
	if th.TextColor != "" {
		return th.TextColor
	}
	return defaultTextColor
}

func layer(name string, style map[string]string, children ...*Node) *Node {
	style["position"] = "absolute"
	style["pointer-events"] = "none"
	if _, ok := style["inset"]; !ok {
		style["inset"] = "0"
	}
	return el("div", map[string]string{"data-layer": name}, style, children...)
}

func cssURL(src string) string {
	return `url("` + strings.ReplaceAll(src, `"`, `%22`) + `")`
}

// backgroundLayer covers the page with the theme image, or solid white.
func backgroundLayer(th *models.Theme) *Node {
	if th.BackgroundImage == "" {
		return layer("background", map[string]string{"background-color": "#ffffff"})
	}
	return layer("background", map[string]string{
		"background-image":    cssURL(th.BackgroundImage),
		"background-size":     "cover",
		"background-position": "center",
		"background-repeat":   "no-repeat",
	})
}

// watermarkLayer draws the watermark as a single centered mark or a repeated
// tile. It returns nil when there is nothing to draw.
func watermarkLayer(wm *models.Watermark, scale float64) *Node {
	if wm == nil {
		return nil
	}
	opacity := wm.Opacity
	if opacity <= 0 {
		opacity = defaultWatermarkOpacity
	}
	op := positioning.FormatPx(opacity)

	switch wm.Type {
	case models.WatermarkText:
		if wm.Text == "" {
			return nil
		}
		color := wm.Color
		if color == "" {
			color = "#000000"
		}
		if wm.IsRepeated {
			tile := textTile(wm.Text, color)
			return layer("watermark", map[string]string{
				"background-image":  cssURL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(tile))),
				"background-repeat": "repeat",
				"background-size":   px(watermarkTileW*scale) + " " + px(watermarkTileH*scale),
				"opacity":           op,
			})
		}
		mark := el("span", nil, map[string]string{
			"color":       color,
			"font-size":   px(watermarkFontSize * scale),
			"font-weight": "700",
			"transform":   "rotate(-45deg)",
			"white-space": "nowrap",
		}, text(wm.Text))
		return layer("watermark", map[string]string{
			"display":         "flex",
			"align-items":     "center",
			"justify-content": "center",
			"opacity":         op,
		}, mark)

	case models.WatermarkImage:
		if wm.Src == "" {
			return nil
		}
		if wm.IsRepeated {
			return layer("watermark", map[string]string{
				"background-image":  cssURL(wm.Src),
				"background-repeat": "repeat",
				"background-size":   px(watermarkImageTile * scale),
				"opacity":           op,
			})
		}
		img := el("img", map[string]string{"src": wm.Src, "alt": ""}, map[string]string{
			"max-width":  "50%",
			"max-height": "50%",
			"object-fit": "contain",
		})
		return layer("watermark", map[string]string{
			"display":         "flex",
			"align-items":     "center",
			"justify-content": "center",
			"opacity":         op,
		}, img)
	}
	return nil
}

// textTile is the SVG tile used for repeated text watermarks.
func textTile(s, color string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`+
		`<text x="50%%" y="50%%" text-anchor="middle" dominant-baseline="middle" font-size="24" font-family="sans-serif" fill="%s" transform="rotate(-45 %s %s)">%s</text></svg>`,
		positioning.FormatPx(watermarkTileW), positioning.FormatPx(watermarkTileH),
		html.EscapeString(color),
		positioning.FormatPx(watermarkTileW/2), positioning.FormatPx(watermarkTileH/2),
		html.EscapeString(s))
}

// borderLayer draws the decorative frame inset from the page edge.
func borderLayer(b *models.Border, scale float64) *Node {
	if b == nil {
		return nil
	}
	lineStyle, ok := borderStyles[b.Type]
	if !ok {
		return nil
	}
	width := b.Width
	if width <= 0 {
		width = defaultBorderWidth
	}
	color := b.Color
	if color == "" {
		color = defaultBorderColor
	}
	style := map[string]string{
		"inset":      px(BorderInset * scale),
		"border":     px(width*scale) + " " + lineStyle + " " + color,
		"box-sizing": "border-box",
	}
	if b.Radius > 0 {
		style["border-radius"] = px(b.Radius * scale)
	}
	n := layer("border", style)
	n.Attrs["data-border"] = string(b.Type)
	return n
}

// gridLayer draws design-time guide lines every GridSpacing logical pixels.
func gridLayer(scale float64) *Node {
	step := px(GridSpacing * scale)
	n := layer("grid", map[string]string{
		"background-image": "linear-gradient(to right, " + guideColor + " 1px, transparent 1px), " +
			"linear-gradient(to bottom, " + guideColor + " 1px, transparent 1px)",
		"background-size": step + " " + step,
	})
	n.Attrs["class"] = "no-print"
	return n
}

// horizontalRuler labels the top edge every RulerSpacing logical pixels.
func horizontalRuler(width, scale float64) *Node {
	n := layer("ruler-x", map[string]string{
		"inset":            "0 0 auto 0",
		"height":           px(rulerThickness),
		"font-size":        "9px",
		"color":            "#6b7280",
		"background-color": "rgba(255, 255, 255, 0.7)",
	})
	n.Attrs["class"] = "no-print"
	for v := 0.0; v <= width; v += RulerSpacing {
		n.Children = append(n.Children, el("span", map[string]string{"data-tick": strconv.Itoa(int(v))}, map[string]string{
			"position": "absolute",
			"left":     px(v * scale),
			"top":      "0",
		}, text(strconv.Itoa(int(v)))))
	}
	return n
}

// verticalRuler labels the left edge every RulerSpacing logical pixels.
func verticalRuler(height, scale float64) *Node {
	n := layer("ruler-y", map[string]string{
		"inset":            "0 auto 0 0",
		"width":            px(rulerThickness),
		"font-size":        "9px",
		"color":            "#6b7280",
		"background-color": "rgba(255, 255, 255, 0.7)",
	})
	n.Attrs["class"] = "no-print"
	for v := 0.0; v <= height; v += RulerSpacing {
		n.Children = append(n.Children, el("span", map[string]string{"data-tick": strconv.Itoa(int(v))}, map[string]string{
			"position": "absolute",
			"top":      px(v * scale),
			"left":     "0",
		}, text(strconv.Itoa(int(v)))))
	}
	return n
}

// scaledStyleKeys are element style properties measured in logical pixels.
var scaledStyleKeys = map[string]bool{
	"fontSize":      true,
	"letterSpacing": true,
	"padding":       true,
	"borderRadius":  true,
	"borderWidth":   true,
}

// imageOnlyStyleKeys are consumed by the image node itself.
var imageOnlyStyleKeys = map[string]bool{
	"objectFit": true,
	"opacity":   true,
	"alt":       true,
}

// kebab converts a camelCase style key to its CSS property name.
func kebab(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// contentStyle translates an element's free-form style bag to CSS, scaling
// pixel-valued properties. Keys in skip are left out, as are entries that
// would inject extra declarations.
func contentStyle(s models.Style, scale float64, skip map[string]bool) map[string]string {
	out := make(map[string]string, len(s))
	for k := range s {
		if skip[k] || !models.SafeCSSKey(k) {
			continue
		}
		if scaledStyleKeys[k] {
			if n := s.Number(k, -1); n >= 0 {
				out[kebab(k)] = px(n * scale)
				continue
			}
		}
		if v := s.String(k, ""); v != "" && models.SafeCSSValue(v) {
			out[kebab(k)] = v
		}
	}
	return out
}

// elementNode wraps one element's content in its positioned frame.
func elementNode(e models.Element, th *models.Theme, data map[string]string, scale float64, frame *positioning.Draggable) *Node {
	pos, size := frame.Live()

	class := "cert-element"
	attrs := map[string]string{
		"data-element-id":   e.ID,
		"data-element-type": string(e.Type),
		"data-x":            positioning.FormatPx(pos.X),
		"data-y":            positioning.FormatPx(pos.Y),
	}
	style := map[string]string{
		"position":  "absolute",
		"left":      "0",
		"top":       "0",
		"transform": frame.Transform(),
		"width":     px(size.W * scale),
	}
	if size.H != nil {
		style["height"] = px(*size.H * scale)
	}

	if frame.Interactive() {
		class += " is-interactive"
		style["cursor"] = "move"
		style["user-select"] = "none"
		style["touch-action"] = "none"
		if frame.Selected() {
			class += " is-selected"
			style["outline"] = "1px dashed " + selectionColor
		}
		if st := frame.State(); st != positioning.Idle {
			attrs["data-gesture"] = st.String()
		}
	}
	attrs["class"] = class

	var content *Node
	switch e.Type {
	case models.ElementTypeText:
		content = textContent(e, th, data, scale)
	case models.ElementTypeImage:
		content = imageContent(e, scale)
	default:
		content = el("div", map[string]string{"data-role": "unknown-element"}, nil)
	}

	n := el("div", attrs, style, content)
	if frame.HandleVisible() {
		n.Children = append(n.Children, el("div", map[string]string{
			"class":     "resize-handle no-print",
			"data-role": "resize-handle",
		}, map[string]string{
			"position":         "absolute",
			"right":            "-5px",
			"bottom":           "-5px",
			"width":            "10px",
			"height":           "10px",
			"background-color": selectionColor,
			"cursor":           "se-resize",
		}))
	}
	return n
}

func textContent(e models.Element, th *models.Theme, data map[string]string, scale float64) *Node {
	style := contentStyle(e.Style, scale, nil)
	if _, ok := style["font-size"]; !ok {
		style["font-size"] = px(DefaultFontSize * scale)
	}
	if _, ok := style["color"]; !ok && th.TextColor != "" {
		style["color"] = th.TextColor
	}
	style["white-space"] = "pre-wrap"
	style["overflow-wrap"] = "break-word"
	style["width"] = "100%"
	return el("div", map[string]string{"data-role": "text"}, style, text(Substitute(e.Content, data)))
}

func imageContent(e models.Element, scale float64) *Node {
	if e.Src == "" {
		return el("div", map[string]string{"data-role": "broken-image"}, map[string]string{
			"width":            "100%",
			"height":           "100%",
			"min-height":       "24px",
			"display":          "flex",
			"align-items":      "center",
			"justify-content":  "center",
			"border":           "1px dashed #9ca3af",
			"color":            "#9ca3af",
			"background-color": "#f3f4f6",
			"box-sizing":       "border-box",
		}, text("Image unavailable"))
	}

	style := contentStyle(e.Style, scale, imageOnlyStyleKeys)
	style["width"] = "100%"
	style["height"] = "100%"
	style["object-fit"] = e.Style.String("objectFit", "contain")
	style["opacity"] = positioning.FormatPx(e.Style.Number("opacity", 1))
	style["display"] = "block"
	return el("img", map[string]string{
		"src":       e.Src,
		"alt":       e.Style.String("alt", ""),
		"data-role": "image",
		"draggable": "false",
	}, style)
}
