// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// PageType names a paper format.
type PageType string

const (
	PageA4     PageType = "A4"
	PageA5     PageType = "A5"
	PageLetter PageType = "Letter"
)

// Orientation of the page.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Page selects the logical canvas of a template.
type Page struct {
	Type        PageType    `json:"type"`
	Orientation Orientation `json:"orientation"`
}

// PageSize is a canvas size in logical pixels.
type PageSize struct {
	Width  float64
	Height float64
}

// pageSizes holds the portrait dimensions of each paper format, scaled so the
// long edge of A4 is 1000 logical pixels.
var pageSizes = map[PageType]PageSize{
	PageA4:     {Width: 707, Height: 1000},
	PageA5:     {Width: 500, Height: 707},
	PageLetter: {Width: 773, Height: 1000},
}

// DefaultPageSize is A4 landscape, used whenever a page cannot be resolved.
var DefaultPageSize = PageSize{Width: 1000, Height: 707}

// ResolvePageSize returns the logical canvas size for a paper format and
// orientation. It never fails: unknown types or orientations resolve to
// DefaultPageSize.
func ResolvePageSize(pageType PageType, orientation Orientation) PageSize {
	size, ok := pageSizes[pageType]
	if !ok {
		return DefaultPageSize
	}
	switch orientation {
	case Portrait:
		return size
	case Landscape:
		return PageSize{Width: size.Height, Height: size.Width}
	default:
		return DefaultPageSize
	}
}

// Size resolves the page, tolerating a nil receiver.
func (p *Page) Size() PageSize {
	if p == nil {
		return DefaultPageSize
	}
	return ResolvePageSize(p.Type, p.Orientation)
}
