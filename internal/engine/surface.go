// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"strings"

	"certstudio/internal/models"
	"certstudio/internal/positioning"
)

// Surface is an interactive design-mode canvas. It keeps one Draggable per
// element across renders so gestures survive re-rendering, and turns a
// finished gesture into a patched template passed to OnUpdateTemplate.
//
// The template a Surface holds is only the owner's last value. Owners are
// expected to call SetTemplate with whatever they accept from
// OnUpdateTemplate. A Surface is not safe for concurrent use.
type Surface struct {
	template models.Template
	data     map[string]string
	opts     Options
	fitter   *Fitter
	frames   map[string]*positioning.Draggable
}

// NewSurface creates a design surface for t. DesignMode is forced on.
func NewSurface(t models.Template, data map[string]string, opts Options) *Surface {
	opts.DesignMode = true
	s := &Surface{
		template: t.Clone(),
		data:     data,
		opts:     opts,
		fitter:   NewFitter(t.Page.Size().Width),
		frames:   make(map[string]*positioning.Draggable),
	}
	if opts.ContainerWidth > 0 {
		s.fitter.Observe(opts.ContainerWidth)
	}
	s.sync()
	return s
}

// Template returns a copy of the template currently displayed.
func (s *Surface) Template() models.Template { return s.template.Clone() }

// Scale returns the current display scale.
func (s *Surface) Scale() float64 {
	return s.opts.ScaleFor(s.template.Page.Size().Width)
}

// SetTemplate replaces the displayed template. Elements whose committed
// geometry changed are re-synced; elements that disappeared are dropped.
func (s *Surface) SetTemplate(t models.Template) {
	s.template = t.Clone()
	s.fitter.SetLogicalWidth(t.Page.Size().Width)
	s.sync()
}

// SetSelected changes the selected element id. An empty id clears selection.
func (s *Surface) SetSelected(id string) {
	s.opts.SelectedElementID = id
	s.sync()
}

// Selected returns the selected element id.
func (s *Surface) Selected() string { return s.opts.SelectedElementID }

// SetScale pins the display scale. A value <= 0 returns to container fitting.
func (s *Surface) SetScale(scale float64) {
	s.opts.FixedScale = scale
	s.sync()
}

// Resize records a new container width. It reports whether the display
// scale changed as a result.
func (s *Surface) Resize(width float64) bool {
	if _, changed := s.fitter.Observe(width); !changed {
		return false
	}
	s.opts.ContainerWidth = width
	s.sync()
	return s.opts.FixedScale <= 0
}

// sync brings the per-element Draggables in line with the template.
func (s *Surface) sync() {
	scale := s.Scale()
	seen := make(map[string]bool, len(s.template.Elements))
	for _, e := range s.template.Elements {
		seen[e.ID] = true
		cfg := s.frameConfig(e, scale)
		if d, ok := s.frames[e.ID]; ok {
			d.Update(cfg)
			continue
		}
		s.frames[e.ID] = positioning.New(cfg)
	}
	for id, d := range s.frames {
		if !seen[id] {
			d.Cancel()
			delete(s.frames, id)
		}
	}
}

func (s *Surface) frameConfig(e models.Element, scale float64) positioning.Config {
	cfg := frameConfig(e, s.opts, scale)
	id := e.ID
	cfg.OnSelect = func() {
		if s.opts.OnSelectElement != nil {
			s.opts.OnSelectElement(id)
		}
	}
	cfg.OnDragEnd = func(p positioning.Point) {
		s.commit(s.template.MoveElementPosition(id, p.X, p.Y))
	}
	cfg.OnResizeEnd = func(sz positioning.Size) {
		s.commit(s.template.ResizeElement(id, sz.W, sz.H))
	}
	return cfg
}

func (s *Surface) commit(t models.Template) {
	if s.opts.OnUpdateTemplate != nil {
		s.opts.OnUpdateTemplate(t)
	}
}

// Frame returns the Draggable of an element, or nil.
func (s *Surface) Frame(id string) *positioning.Draggable { return s.frames[id] }

// PointerDown routes a press on an element body.
func (s *Surface) PointerDown(id string, ev positioning.PointerEvent) bool {
	d, ok := s.frames[id]
	if !ok {
		return false
	}
	return d.PointerDown(ev)
}

// HandleDown routes a press on an element's resize handle.
func (s *Surface) HandleDown(id string, ev positioning.PointerEvent) bool {
	d, ok := s.frames[id]
	if !ok {
		return false
	}
	return d.HandleDown(ev)
}

// PointerMove forwards a page-level pointer move to every running gesture.
func (s *Surface) PointerMove(ev positioning.PointerEvent) {
	for _, d := range s.active() {
		d.PointerMove(ev)
	}
}

// PointerUp ends every running gesture. Commits are published in paint order.
func (s *Surface) PointerUp() {
	for _, d := range s.active() {
		d.PointerUp()
	}
}

// Cancel aborts every running gesture without publishing.
func (s *Surface) Cancel() {
	for _, d := range s.active() {
		d.Cancel()
	}
}

// active returns the Draggables with a running gesture in paint order. The
// slice is a snapshot; commits may re-sync frames while it is walked.
func (s *Surface) active() []*positioning.Draggable {
	var out []*positioning.Draggable
	for _, e := range s.template.Elements {
		if d, ok := s.frames[e.ID]; ok && d.State() != positioning.Idle {
			out = append(out, d)
		}
	}
	return out
}

// Render draws the current state, live gesture geometry included. It
// returns nil for malformed templates.
func (s *Surface) Render() *Node {
	t := &s.template
	if strings.TrimSpace(t.CustomHTML) != "" {
		return renderIsolated(t, s.data, s.opts)
	}
	if t.Page == nil || t.Theme == nil {
		return nil
	}
	return renderCanvas(t, s.data, s.opts, s.Scale(), func(id string) *positioning.Draggable {
		return s.frames[id]
	})
}
