// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Style is the declarative visual record attached to an element, e.g.
// {"fontSize": 32, "color": "#1f2937", "textAlign": "center"}. It is kept as
// data so the renderer can map it to whatever output it produces.
type Style map[string]any

// Clone returns a shallow copy of the style map. Values are scalars.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	c := make(Style, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Number returns the numeric value for key, accepting JSON numbers and
// numeric strings. Missing or non-numeric values yield fallback.
func (s Style) Number(key string, fallback float64) float64 {
	v, ok := s[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}

// String returns the value for key formatted as a string, or fallback when
// the key is missing or empty.
func (s Style) String(key, fallback string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return fallback
	}
	var out string
	switch t := v.(type) {
	case string:
		out = t
	case float64:
		out = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		out = fmt.Sprint(t)
	}
	if out == "" {
		return fallback
	}
	return out
}

// SafeCSSValue reports whether v can be written as one inline CSS
// declaration value. Characters that end a declaration, open a block or
// leave the style attribute are rejected.
func SafeCSSValue(v string) bool {
	return !strings.ContainsAny(v, ";{}<>\\\"")
}

// SafeCSSKey accepts camelCase or kebab-case property names.
func SafeCSSKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// InvalidKey returns the first key, in sorted order, whose name or value
// cannot be rendered as CSS. It returns "" when every entry is usable.
func (s Style) InvalidKey() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !SafeCSSKey(k) || !SafeCSSValue(s.String(k, "")) {
			return k
		}
	}
	return ""
}
