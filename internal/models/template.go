// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the certificate template schema and the issued
// certificate record. Templates are plain data: the only behavior here is
// page size resolution and the immutable patch operations used by the editor.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ElementType tags the Element union.
type ElementType string

const (
	ElementTypeText  ElementType = "text"
	ElementTypeImage ElementType = "image"
)

// WatermarkType selects how the watermark layer is drawn.
type WatermarkType string

const (
	WatermarkNone  WatermarkType = "none"
	WatermarkText  WatermarkType = "text"
	WatermarkImage WatermarkType = "image"
)

// BorderType selects the decorative frame family.
type BorderType string

const (
	BorderNone    BorderType = "none"
	BorderClassic BorderType = "classic"
	BorderModern  BorderType = "modern"
	BorderPremium BorderType = "premium"
	BorderDashed  BorderType = "dashed"
	BorderDotted  BorderType = "dotted"
)

// Template is a reusable certificate layout: a fixed-size page, a theme and
// an ordered list of absolutely positioned elements. Element order is the
// paint order, later elements are drawn on top.
//
// When CustomHTML is non-empty the renderer ignores the element list and
// renders the markup as an isolated document instead.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"` // Markdown, shown in the gallery
	Page        *Page     `json:"page,omitempty"`
	Theme       *Theme    `json:"theme,omitempty"`
	Elements    []Element `json:"elements"`
	CustomHTML  string    `json:"customHtml,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Theme holds the page-wide visual settings.
type Theme struct {
	BackgroundImage string     `json:"backgroundImage"`
	FontFamily      string     `json:"fontFamily"`
	TextColor       string     `json:"textColor"`
	ShowGrid        bool       `json:"showGrid"`
	Watermark       *Watermark `json:"watermark,omitempty"`
	Border          *Border    `json:"border,omitempty"`
}

// Watermark is the decorative layer painted between background and border.
// An Opacity of zero or below renders at 0.1; use Type "none" to hide the
// watermark.
type Watermark struct {
	Type       WatermarkType `json:"type"`
	Text       string        `json:"text,omitempty"`
	Color      string        `json:"color,omitempty"`
	Opacity    float64       `json:"opacity"`
	IsRepeated bool          `json:"isRepeated"`
	Src        string        `json:"src,omitempty"`
}

// Border is the non-interactive frame painted above the watermark.
type Border struct {
	Type   BorderType `json:"type"`
	Color  string     `json:"color,omitempty"`
	Width  float64    `json:"width"`
	Radius float64    `json:"radius"`
}

// Element is one positioned region of a template. Geometry is always in the
// template's logical coordinate space. H is nil for auto-height text.
type Element struct {
	ID      string      `json:"id"`
	Type    ElementType `json:"type"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	W       float64     `json:"w"`
	H       *float64    `json:"h,omitempty"`
	Style   Style       `json:"style,omitempty"`
	Content string      `json:"content,omitempty"` // text: may contain {{field}} placeholders
	Src     string      `json:"src,omitempty"`     // image: URL or data URI
}

// Height returns the explicit height and whether one is set.
func (e Element) Height() (float64, bool) {
	if e.H == nil {
		return 0, false
	}
	return *e.H, true
}

// clone returns a copy that shares no mutable state with e.
func (e Element) clone() Element {
	c := e
	if e.H != nil {
		h := *e.H
		c.H = &h
	}
	c.Style = e.Style.Clone()
	return c
}

// Float64 returns a pointer to v. Handy for Element.H literals.
func Float64(v float64) *float64 {
	return &v
}
