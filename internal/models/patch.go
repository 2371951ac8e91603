// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LayerDirection moves an element one step in paint order.
type LayerDirection string

const (
	LayerUp   LayerDirection = "up"   // towards the end of the list, painted later
	LayerDown LayerDirection = "down" // towards the start of the list
)

// Theme keys accepted by UpdateTheme.
const (
	ThemeBackgroundImage = "backgroundImage"
	ThemeFontFamily      = "fontFamily"
	ThemeTextColor       = "textColor"
	ThemeShowGrid        = "showGrid"
	ThemeWatermark       = "watermark"
	ThemeBorder          = "border"
)

// ErrElementNotFound is returned by patch helpers that require an existing id.
var ErrElementNotFound = errors.New("element not found")

// Clone returns a deep copy of t. Patch operations build on it so the
// receiver is never mutated.
func (t Template) Clone() Template {
	c := t
	if t.Page != nil {
		p := *t.Page
		c.Page = &p
	}
	if t.Theme != nil {
		th := *t.Theme
		if t.Theme.Watermark != nil {
			wm := *t.Theme.Watermark
			th.Watermark = &wm
		}
		if t.Theme.Border != nil {
			b := *t.Theme.Border
			th.Border = &b
		}
		c.Theme = &th
	}
	if t.Elements != nil {
		c.Elements = make([]Element, len(t.Elements))
		for i, e := range t.Elements {
			c.Elements[i] = e.clone()
		}
	}
	return c
}

// ElementIndex returns the position of the element with the given id, or -1.
func (t Template) ElementIndex(id string) int {
	for i, e := range t.Elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// FindElement returns a copy of the element with the given id.
func (t Template) FindElement(id string) (Element, bool) {
	i := t.ElementIndex(id)
	if i < 0 {
		return Element{}, false
	}
	return t.Elements[i].clone(), true
}

// AddElement appends e on top of the paint order.
func (t Template) AddElement(e Element) Template {
	c := t.Clone()
	c.Elements = append(c.Elements, e.clone())
	return c
}

// UpdateElement replaces the element with the given id by fn(element).
// Unknown ids leave the template unchanged. The id is preserved even if fn
// changes it.
func (t Template) UpdateElement(id string, fn func(Element) Element) Template {
	c := t.Clone()
	for i, e := range c.Elements {
		if e.ID == id {
			updated := fn(e)
			updated.ID = id
			c.Elements[i] = updated
			break
		}
	}
	return c
}

// RemoveElement drops the element with the given id.
func (t Template) RemoveElement(id string) Template {
	c := t.Clone()
	kept := c.Elements[:0]
	for _, e := range c.Elements {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.Elements = kept
	return c
}

// MoveElementPosition sets the committed top-left corner of an element.
func (t Template) MoveElementPosition(id string, x, y float64) Template {
	return t.UpdateElement(id, func(e Element) Element {
		e.X, e.Y = x, y
		return e
	})
}

// ResizeElement sets the committed size of an element. A nil h keeps the
// element auto-height.
func (t Template) ResizeElement(id string, w float64, h *float64) Template {
	return t.UpdateElement(id, func(e Element) Element {
		e.W = w
		if h != nil {
			v := *h
			e.H = &v
		} else {
			e.H = nil
		}
		return e
	})
}

// MoveLayer swaps the element with its neighbour in the given direction.
// Moving the topmost element up, or the bottom one down, is a no-op.
func (t Template) MoveLayer(id string, dir LayerDirection) Template {
	c := t.Clone()
	i := c.ElementIndex(id)
	if i < 0 {
		return c
	}
	j := i
	switch dir {
	case LayerUp:
		j = i + 1
	case LayerDown:
		j = i - 1
	}
	if j < 0 || j >= len(c.Elements) || j == i {
		return c
	}
	c.Elements[i], c.Elements[j] = c.Elements[j], c.Elements[i]
	return c
}

// WithPage replaces the page definition.
func (t Template) WithPage(p Page) Template {
	c := t.Clone()
	c.Page = &p
	return c
}

// UpdateTheme sets a single theme key. Accepted value types depend on the key:
// strings for backgroundImage/fontFamily/textColor, a bool for showGrid, and
// Watermark/Border values (or nil to clear) for watermark/border.
func (t Template) UpdateTheme(key string, value any) (Template, error) {
	c := t.Clone()
	if c.Theme == nil {
		c.Theme = &Theme{}
	}
	th := c.Theme

	switch key {
	case ThemeBackgroundImage, ThemeFontFamily, ThemeTextColor:
		s, ok := value.(string)
		if !ok {
			return t, fmt.Errorf("theme %s: want string, got %T", key, value)
		}
		switch key {
		case ThemeBackgroundImage:
			th.BackgroundImage = s
		case ThemeFontFamily:
			th.FontFamily = s
		default:
			th.TextColor = s
		}
	case ThemeShowGrid:
		b, ok := value.(bool)
		if !ok {
			return t, fmt.Errorf("theme %s: want bool, got %T", key, value)
		}
		th.ShowGrid = b
	case ThemeWatermark:
		switch v := value.(type) {
		case nil:
			th.Watermark = nil
		case Watermark:
			th.Watermark = &v
		case *Watermark:
			if v == nil {
				th.Watermark = nil
			} else {
				wm := *v
				th.Watermark = &wm
			}
		default:
			return t, fmt.Errorf("theme %s: want Watermark, got %T", key, value)
		}
	case ThemeBorder:
		switch v := value.(type) {
		case nil:
			th.Border = nil
		case Border:
			th.Border = &v
		case *Border:
			if v == nil {
				th.Border = nil
			} else {
				b := *v
				th.Border = &b
			}
		default:
			return t, fmt.Errorf("theme %s: want Border, got %T", key, value)
		}
	default:
		return t, fmt.Errorf("unknown theme key %q", key)
	}
	return c, nil
}

// DecodeThemeValue decodes a JSON value into the Go type UpdateTheme expects
// for key.
func DecodeThemeValue(key string, raw json.RawMessage) (any, error) {
	switch key {
	case ThemeBackgroundImage, ThemeFontFamily, ThemeTextColor:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode theme %s: %w", key, err)
		}
		return s, nil
	case ThemeShowGrid:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode theme %s: %w", key, err)
		}
		return b, nil
	case ThemeWatermark:
		var wm *Watermark
		if err := json.Unmarshal(raw, &wm); err != nil {
			return nil, fmt.Errorf("decode theme %s: %w", key, err)
		}
		return wm, nil
	case ThemeBorder:
		var b *Border
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode theme %s: %w", key, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown theme key %q", key)
}

// Validate checks the invariants the editor relies on: element ids are
// non-empty and unique, and every element has a known type.
func (t Template) Validate() error {
	seen := make(map[string]bool, len(t.Elements))
	for i, e := range t.Elements {
		if e.ID == "" {
			return fmt.Errorf("element %d: id is required", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("element %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		if e.Type != ElementTypeText && e.Type != ElementTypeImage {
			return fmt.Errorf("element %q: unknown type %q", e.ID, e.Type)
		}
	}
	return nil
}
